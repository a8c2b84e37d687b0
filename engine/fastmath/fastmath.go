// Package fastmath provides pure, allocation-free geometry primitives for
// the per-frame hot path: distances, interpolation, collision predicates,
// and batched point transforms.
//
// Every function is a pure value operation with no internal state and no
// observable failure mode. Normalizing a zero-length vector yields the zero
// vector by definition, not an error.
package fastmath

import "math"

// Distance returns the Euclidean distance between (x1,y1) and (x2,y2).
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared returns the squared distance between (x1,y1) and (x2,y2).
// Avoids the sqrt for comparison-only use.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// Normalize returns the unit vector for (x,y).
// A zero-length input yields (0,0).
func Normalize(x, y float64) (float64, float64) {
	length := math.Sqrt(x*x + y*y)
	if length == 0 {
		return 0, 0
	}
	inv := 1.0 / length
	return x * inv, y * inv
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Clamp restricts value to the closed interval [minVal, maxVal].
func Clamp(value, minVal, maxVal float64) float64 {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}

// RotatePoint rotates (x,y) around the origin by angle radians.
func RotatePoint(x, y, angle float64) (float64, float64) {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return x*cos - y*sin, x*sin + y*cos
}

// AngleBetween returns the angle in radians of the vector from (x1,y1)
// to (x2,y2).
func AngleBetween(x1, y1, x2, y2 float64) float64 {
	return math.Atan2(y2-y1, x2-x1)
}

// RectCollision reports whether two axis-aligned rectangles overlap.
// Intervals are closed: rectangles that touch at an edge collide.
func RectCollision(x1, y1, w1, h1, x2, y2, w2, h2 float64) bool {
	return !(x1+w1 < x2 || x2+w2 < x1 || y1+h1 < y2 || y2+h2 < y1)
}

// CircleCollision reports whether two circles overlap.
// Boundary-touching circles collide.
func CircleCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	rsum := r1 + r2
	return dx*dx+dy*dy <= rsum*rsum
}

// Transform describes a batched point transform: scale around the origin,
// then rotation, then translation.
type Transform struct {
	ScaleX, ScaleY float64
	Rotation       float64 // radians
	TranslateX     float64
	TranslateY     float64
}

// BatchTransformPoints applies t to every point in src, writing results to
// dst in input order. dst must be at least len(src); the used prefix of dst
// is returned. Passing a preallocated dst keeps the call allocation-free.
func BatchTransformPoints(dst, src []Vec2, t Transform) []Vec2 {
	cos := math.Cos(t.Rotation)
	sin := math.Sin(t.Rotation)
	for i, p := range src {
		x := p.X * t.ScaleX
		y := p.Y * t.ScaleY
		dst[i] = Vec2{
			X: x*cos - y*sin + t.TranslateX,
			Y: x*sin + y*cos + t.TranslateY,
		}
	}
	return dst[:len(src)]
}

// DistancePair records one near pair found by BatchDistanceCheck:
// a[I] and b[J] are within the queried distance of each other.
type DistancePair struct {
	I, J     int
	Distance float64
}

// BatchDistanceCheck returns every index pair (i, j) whose points a[i] and
// b[j] are at most maxDistance apart, with the measured distance.
// Iteration is a stable nested loop (i outer, j inner), so the emission
// order is deterministic for identical inputs.
func BatchDistanceCheck(a, b []Vec2, maxDistance float64) []DistancePair {
	maxSq := maxDistance * maxDistance
	var pairs []DistancePair
	for i, p := range a {
		for j, q := range b {
			dx := q.X - p.X
			dy := q.Y - p.Y
			distSq := dx*dx + dy*dy
			if distSq <= maxSq {
				pairs = append(pairs, DistancePair{
					I:        i,
					J:        j,
					Distance: math.Sqrt(distSq),
				})
			}
		}
	}
	return pairs
}

// Trigonometry lookup tables for whole-degree angles.
// Cheap approximations for rotation-heavy entity updates where sub-degree
// precision is not needed.
var (
	sinTable [360]float64
	cosTable [360]float64
)

func init() {
	for i := range 360 {
		rad := float64(i) * math.Pi / 180
		sinTable[i] = math.Sin(rad)
		cosTable[i] = math.Cos(rad)
	}
}

// SinDeg returns the sine of an angle in whole degrees via table lookup.
func SinDeg(degrees int) float64 {
	return sinTable[((degrees%360)+360)%360]
}

// CosDeg returns the cosine of an angle in whole degrees via table lookup.
func CosDeg(degrees int) float64 {
	return cosTable[((degrees%360)+360)%360]
}
