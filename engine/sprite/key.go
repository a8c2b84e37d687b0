package sprite

import "math"

// Params are the transform parameters for a sprite draw.
// Rotation is in radians; scale 1.0 is unscaled.
type Params struct {
	ScaleX, ScaleY float64
	Rotation       float64
	FlipX, FlipY   bool
}

// Identity returns params for an untransformed draw.
func Identity() Params {
	return Params{ScaleX: 1, ScaleY: 1}
}

// Key is the composite cache key for a transformed sprite: asset identity
// plus transform parameters quantized to a fixed precision. Quantization
// bounds the key space — nearly identical transforms share one artifact
// instead of each producing their own.
type Key struct {
	Asset        string
	ScaleX       int32
	ScaleY       int32
	Rotation     int32
	FlipX, FlipY bool
}

// quantize maps params onto a Key using the given step sizes.
// Identical inputs always produce the identical key.
func quantize(asset string, p Params, scaleStep, rotStep float64) Key {
	return Key{
		Asset:    asset,
		ScaleX:   quantizeStep(p.ScaleX, scaleStep),
		ScaleY:   quantizeStep(p.ScaleY, scaleStep),
		Rotation: quantizeStep(normalizeAngle(p.Rotation), rotStep),
		FlipX:    p.FlipX,
		FlipY:    p.FlipY,
	}
}

func quantizeStep(v, step float64) int32 {
	return int32(math.Round(v / step))
}

// normalizeAngle wraps an angle into [0, 2π) so full turns share a key.
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
