package sprite

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// RenderTransformed applies the transform params to src and returns a fresh
// artifact: flips and scale first, then rotation, with bilinear filtering.
// The output image is sized to the transformed bounds so rotated sprites
// are not clipped. This is the expensive operation the transform cache
// exists to avoid repeating.
func RenderTransformed(src image.Image, p Params) *Artifact {
	sb := src.Bounds()
	srcW := float64(sb.Dx())
	srcH := float64(sb.Dy())

	sx := p.ScaleX
	sy := p.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	if p.FlipX {
		sx = -sx
	}
	if p.FlipY {
		sy = -sy
	}

	cos := math.Cos(p.Rotation)
	sin := math.Sin(p.Rotation)

	// Transformed bounding box of the scaled sprite.
	scaledW := srcW * math.Abs(sx)
	scaledH := srcH * math.Abs(sy)
	dstW := int(math.Ceil(scaledW*math.Abs(cos) + scaledH*math.Abs(sin)))
	dstH := int(math.Ceil(scaledW*math.Abs(sin) + scaledH*math.Abs(cos)))
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	// Rotate and scale around the sprite center, then recenter in dst.
	a := sx * cos
	b := -sy * sin
	d := sx * sin
	e := sy * cos
	srcCX := float64(sb.Min.X) + srcW/2
	srcCY := float64(sb.Min.Y) + srcH/2
	dstCX := float64(dstW) / 2
	dstCY := float64(dstH) / 2

	m := f64.Aff3{
		a, b, dstCX - (a*srcCX + b*srcCY),
		d, e, dstCY - (d*srcCX + e*srcCY),
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.BiLinear.Transform(dst, m, src, sb, draw.Src, nil)
	return NewArtifact(dst)
}
