package fastmath

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestDistance(t *testing.T) {
	if d := Distance(0, 0, 3, 4); d != 5.0 {
		t.Errorf("expected 5.0, got %v", d)
	}
	if d := Distance(1, 1, 1, 1); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}
	if d := DistanceSquared(0, 0, 3, 4); d != 25.0 {
		t.Errorf("expected 25.0, got %v", d)
	}
}

func TestNormalize(t *testing.T) {
	x, y := Normalize(3, 4)
	if math.Abs(x-0.6) > epsilon || math.Abs(y-0.8) > epsilon {
		t.Errorf("expected (0.6, 0.8), got (%v, %v)", x, y)
	}

	// Zero vector normalizes to zero, not NaN.
	x, y = Normalize(0, 0)
	if x != 0 || y != 0 {
		t.Errorf("expected (0, 0), got (%v, %v)", x, y)
	}
}

func TestLerpClamp(t *testing.T) {
	if v := Lerp(0, 10, 0.5); v != 5 {
		t.Errorf("expected 5, got %v", v)
	}
	if v := Lerp(2, 2, 0.3); v != 2 {
		t.Errorf("expected 2, got %v", v)
	}
	if v := Clamp(5, 0, 10); v != 5 {
		t.Errorf("expected 5, got %v", v)
	}
	if v := Clamp(-1, 0, 10); v != 0 {
		t.Errorf("expected 0, got %v", v)
	}
	if v := Clamp(11, 0, 10); v != 10 {
		t.Errorf("expected 10, got %v", v)
	}
}

func TestRotatePoint(t *testing.T) {
	x, y := RotatePoint(1, 0, math.Pi/2)
	if math.Abs(x) > epsilon || math.Abs(y-1) > epsilon {
		t.Errorf("expected (0, 1), got (%v, %v)", x, y)
	}
}

func TestRectCollision(t *testing.T) {
	tests := []struct {
		name                           string
		x1, y1, w1, h1, x2, y2, w2, h2 float64
		want                           bool
	}{
		{"overlapping", 0, 0, 10, 10, 5, 5, 10, 10, true},
		{"touching edges", 0, 0, 10, 10, 10, 0, 10, 10, true},
		{"separated", 0, 0, 10, 10, 21, 0, 10, 10, false},
		{"contained", 0, 0, 10, 10, 2, 2, 2, 2, true},
		{"touching corners", 0, 0, 10, 10, 10, 10, 5, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RectCollision(tt.x1, tt.y1, tt.w1, tt.h1, tt.x2, tt.y2, tt.w2, tt.h2)
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCircleCollision(t *testing.T) {
	// Touching circles collide (closed interval).
	if !CircleCollision(0, 0, 3, 10, 0, 7) {
		t.Error("expected touching circles to collide")
	}
	if CircleCollision(0, 0, 3, 10, 0, 6.9) {
		t.Error("expected separated circles to not collide")
	}
	if !CircleCollision(0, 0, 5, 1, 1, 5) {
		t.Error("expected overlapping circles to collide")
	}
}

func TestBatchTransformPoints(t *testing.T) {
	src := []Vec2{{1, 0}, {0, 1}, {2, 2}}
	dst := make([]Vec2, len(src))

	// Identity transform preserves points and order.
	out := BatchTransformPoints(dst, src, Transform{ScaleX: 1, ScaleY: 1})
	if len(out) != len(src) {
		t.Fatalf("expected %d points, got %d", len(src), len(out))
	}
	for i := range src {
		if out[i] != src[i] {
			t.Errorf("point %d: expected %v, got %v", i, src[i], out[i])
		}
	}

	// Scale + translate.
	out = BatchTransformPoints(dst, src, Transform{
		ScaleX: 2, ScaleY: 2, TranslateX: 10, TranslateY: 20,
	})
	want := Vec2{X: 12, Y: 20}
	if math.Abs(out[0].X-want.X) > epsilon || math.Abs(out[0].Y-want.Y) > epsilon {
		t.Errorf("expected %v, got %v", want, out[0])
	}

	// 90 degree rotation.
	out = BatchTransformPoints(dst, src[:1], Transform{
		ScaleX: 1, ScaleY: 1, Rotation: math.Pi / 2,
	})
	if math.Abs(out[0].X) > epsilon || math.Abs(out[0].Y-1) > epsilon {
		t.Errorf("expected (0, 1), got %v", out[0])
	}
}

func TestBatchDistanceCheck(t *testing.T) {
	a := []Vec2{{0, 0}}
	b := []Vec2{{3, 4}}

	pairs := BatchDistanceCheck(a, b, 5.0)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].I != 0 || pairs[0].J != 0 || pairs[0].Distance != 5.0 {
		t.Errorf("expected (0, 0, 5.0), got %+v", pairs[0])
	}

	pairs = BatchDistanceCheck(a, b, 4.9)
	if len(pairs) != 0 {
		t.Errorf("expected no pairs, got %d", len(pairs))
	}
}

func TestBatchDistanceCheckDeterministicOrder(t *testing.T) {
	a := []Vec2{{0, 0}, {1, 0}}
	b := []Vec2{{0, 1}, {1, 1}}

	first := BatchDistanceCheck(a, b, 10)
	second := BatchDistanceCheck(a, b, 10)
	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("expected 4 pairs, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("pair %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
	// Stable nested iteration: i-major order.
	if first[0].I != 0 || first[0].J != 0 || first[1].J != 1 || first[2].I != 1 {
		t.Errorf("unexpected emission order: %+v", first)
	}
}

func TestSinCosDeg(t *testing.T) {
	if v := SinDeg(90); math.Abs(v-1) > epsilon {
		t.Errorf("expected 1, got %v", v)
	}
	if v := CosDeg(0); v != 1 {
		t.Errorf("expected 1, got %v", v)
	}
	// Negative angles wrap.
	if v := SinDeg(-90); math.Abs(v+1) > epsilon {
		t.Errorf("expected -1, got %v", v)
	}
	if v := CosDeg(360); v != 1 {
		t.Errorf("expected 1, got %v", v)
	}
}

func TestVec2(t *testing.T) {
	v := V2(3, 4)
	if v.Length() != 5 {
		t.Errorf("expected 5, got %v", v.Length())
	}
	if v.LengthSq() != 25 {
		t.Errorf("expected 25, got %v", v.LengthSq())
	}
	n := v.Normalize()
	if math.Abs(n.Length()-1) > epsilon {
		t.Errorf("expected unit length, got %v", n.Length())
	}
	if (Vec2{}).Normalize() != (Vec2{}) {
		t.Error("zero vector should normalize to zero")
	}
	if v.Add(V2(1, 1)) != (Vec2{4, 5}) {
		t.Error("Add mismatch")
	}
	if v.Sub(V2(1, 1)) != (Vec2{2, 3}) {
		t.Error("Sub mismatch")
	}
	if v.Dot(V2(1, 0)) != 3 {
		t.Error("Dot mismatch")
	}
	mid := V2(0, 0).Lerp(V2(10, 10), 0.5)
	if mid != (Vec2{5, 5}) {
		t.Errorf("expected (5,5), got %v", mid)
	}
}

func BenchmarkBatchTransformPoints(b *testing.B) {
	src := make([]Vec2, 1024)
	for i := range src {
		src[i] = Vec2{X: float64(i), Y: float64(i)}
	}
	dst := make([]Vec2, len(src))
	tr := Transform{ScaleX: 2, ScaleY: 2, Rotation: 0.3, TranslateX: 5, TranslateY: 5}

	b.ResetTimer()
	for b.Loop() {
		BatchTransformPoints(dst, src, tr)
	}
}
