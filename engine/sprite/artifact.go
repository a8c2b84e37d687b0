package sprite

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Releaser releases a GPU-side resource backing an artifact.
// gpucontext textures satisfy it via their Destroy method.
type Releaser interface {
	Destroy()
}

// Artifact is a transformed drawable produced by a render function and
// owned by the cache. The pixel data is immutable once cached; callers
// must not write through Pixels.
type Artifact struct {
	// Pixels holds the transformed image.
	Pixels *image.RGBA

	// Width and Height are the pixel dimensions of the artifact.
	Width, Height int

	// Format is the pixel format used when uploading to the GPU.
	Format gputypes.TextureFormat

	// Texture is the optional GPU texture backing this artifact.
	// Released when the artifact leaves the cache.
	Texture Releaser
}

// NewArtifact wraps pixels into an artifact with the default RGBA format.
func NewArtifact(pixels *image.RGBA) *Artifact {
	b := pixels.Bounds()
	return &Artifact{
		Pixels: pixels,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
}

// SizeBytes estimates the memory held by the artifact for cache accounting:
// four bytes per pixel, doubled when a GPU copy exists.
func (a *Artifact) SizeBytes() int64 {
	size := int64(a.Width) * int64(a.Height) * 4
	if a.Texture != nil {
		size *= 2
	}
	return size
}

// Release frees the GPU resource backing the artifact, if any.
// Safe to call more than once.
func (a *Artifact) Release() {
	if a.Texture != nil {
		a.Texture.Destroy()
		a.Texture = nil
	}
}
