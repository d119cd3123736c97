package animir

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Matrix2D) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func TestVec2Arithmetic(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	assertNear(t, "add.x", a.Add(b).X, 4)
	assertNear(t, "add.y", a.Add(b).Y, 6)
	assertNear(t, "sub.x", a.Sub(b).X, -2)
	assertNear(t, "scale.x", a.Scale(2).X, 2)
	mid := a.Lerp(b, 0.5)
	assertNear(t, "lerp.x", mid.X, 2)
	assertNear(t, "lerp.y", mid.Y, 3)
}

func TestIdentityMatrix(t *testing.T) {
	p := Vec2{5, 7}
	got := Identity().Apply(p)
	assertNear(t, "x", got.X, 5)
	assertNear(t, "y", got.Y, 7)
}

func TestTranslationMatrix(t *testing.T) {
	m := Translation(10, 20)
	got := m.Apply(Vec2{1, 1})
	assertNear(t, "x", got.X, 11)
	assertNear(t, "y", got.Y, 21)
}

func TestRotationDegrees90(t *testing.T) {
	m := RotationDegrees(90)
	got := m.Apply(Vec2{1, 0})
	assertNear(t, "x", got.X, 0)
	assertNear(t, "y", got.Y, 1)
}

func TestScaleMatrix(t *testing.T) {
	m := Scale(2, 3)
	got := m.Apply(Vec2{1, 1})
	assertNear(t, "x", got.X, 2)
	assertNear(t, "y", got.Y, 3)
}

func TestConcatenatingOrder(t *testing.T) {
	// Translate then rotate: apply translation first, then rotation.
	translate := Translation(10, 0)
	rotate := RotationDegrees(90)
	combined := translate.Concatenating(rotate)
	got := combined.Apply(Vec2{0, 0})
	assertNear(t, "x", got.X, 0)
	assertNear(t, "y", got.Y, 10)
}

func TestApplyVectorExcludesTranslation(t *testing.T) {
	m := Translation(100, 100)
	got := m.ApplyVector(Vec2{1, 0})
	assertNear(t, "x", got.X, 1)
	assertNear(t, "y", got.Y, 0)
}

func TestInvertRoundTrip(t *testing.T) {
	m := RotationDegrees(37).Concatenating(Translation(5, -3)).Concatenating(Scale(2, 0.5))
	inv := m.Invert()
	roundTrip := inv.Concatenating(m)
	assertMatrix(t, "roundtrip", roundTrip, Identity())
}

func TestInvertSingularFallsBackToIdentity(t *testing.T) {
	singular := Matrix2D{0, 0, 5, 0, 0, 5}
	got := singular.Invert()
	assertMatrix(t, "singular", got, Identity())
}

func TestAABBUnionAndContains(t *testing.T) {
	a := AABB{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	b := AABB{MinX: 5, MinY: -5, MaxX: 15, MaxY: 5}
	u := a.Union(b)
	assertNear(t, "minX", u.MinX, 0)
	assertNear(t, "minY", u.MinY, -5)
	assertNear(t, "maxX", u.MaxX, 15)
	assertNear(t, "maxY", u.MaxY, 10)
	if !u.Contains(Vec2{0, 0}) {
		t.Error("expected union to contain origin")
	}
	if u.Contains(Vec2{100, 100}) {
		t.Error("expected union not to contain far point")
	}
	assertNear(t, "width", a.Width(), 10)
	assertNear(t, "height", a.Height(), 10)
}

func TestClampHelpers(t *testing.T) {
	assertNear(t, "clamp01 low", clamp01(-1), 0)
	assertNear(t, "clamp01 high", clamp01(2), 1)
	assertNear(t, "clamp01 mid", clamp01(0.5), 0.5)
	assertNear(t, "clamp low", clamp(-5, 0, 10), 0)
	assertNear(t, "clamp high", clamp(50, 0, 10), 10)
	assertNear(t, "clamp mid", clamp(5, 0, 10), 5)
}
