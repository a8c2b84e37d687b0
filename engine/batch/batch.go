// Package batch collects per-sprite draw commands over a frame and groups
// them by render state, so sprites sharing a texture, shader, and blend mode
// go to the GPU as one draw call instead of one each. State changes are the
// expensive part of 2D submission; batching amortizes them.
package batch

import (
	"fmt"

	"github.com/hebedebe/TouchingJack2/engine/fastmath"
)

// BlendMode selects how a sprite combines with the framebuffer.
type BlendMode uint8

const (
	// BlendAlpha is standard premultiplied alpha blending.
	BlendAlpha BlendMode = iota
	// BlendAdditive adds source onto destination (glows, particles).
	BlendAdditive
	// BlendMultiply multiplies source with destination (shadows, tints).
	BlendMultiply
	// BlendOpaque disables blending.
	BlendOpaque
)

var blendModeNames = [...]string{
	BlendAlpha:    "alpha",
	BlendAdditive: "additive",
	BlendMultiply: "multiply",
	BlendOpaque:   "opaque",
}

func (b BlendMode) String() string {
	if int(b) < len(blendModeNames) {
		return blendModeNames[b]
	}
	return fmt.Sprintf("BlendMode(%d)", uint8(b))
}

// TextureID and ShaderID identify GPU resources. Zero means the default
// white texture or the standard sprite shader.
type (
	TextureID uint32
	ShaderID  uint32
)

// StateKey is the render state a draw call binds: sprites with equal keys
// can share one call.
type StateKey struct {
	Texture TextureID
	Shader  ShaderID
	Blend   BlendMode
}

// Command is one sprite draw request for the current frame.
type Command struct {
	State    StateKey
	Position fastmath.Vec2
	Scale    fastmath.Vec2
	Rotation float64
	// Color is an RGBA tint, 0xRRGGBBAA. Zero value means no tint
	// (treated as opaque white).
	Color uint32
	// Depth orders sprites within a frame when the caller sorts by layer
	// before submission. The queue itself preserves submission order.
	Depth float32
}

// Batch is one draw call: a state key and the commands it covers, in
// submission order.
type Batch struct {
	State    StateKey
	Commands []Command
}

// FrameStats summarizes one flushed frame.
type FrameStats struct {
	// Sprites is the number of commands submitted.
	Sprites int
	// Batches is the number of draw calls issued.
	Batches int
	// StateChanges is the number of distinct state keys bound.
	StateChanges int
	// CallsSaved is Sprites minus Batches: the draw calls batching
	// removed versus one call per sprite.
	CallsSaved int
}

// Backend consumes flushed batches. Implementations must not retain the
// batch slices past the Submit call; the queue reuses them.
type Backend interface {
	Submit(batches []Batch) error
}
