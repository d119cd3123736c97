package animir

import "testing"

func TestIdentityTransformTrackMatrixIsIdentity(t *testing.T) {
	tt := IdentityTransformTrack()
	assertMatrix(t, "identity", tt.Matrix(0), Identity())
	assertNear(t, "opacity", tt.OpacityPercent(0), 100)
}

func TestTransformTrackMatrixTranslation(t *testing.T) {
	tt := IdentityTransformTrack()
	tt.Position = NewStaticTrack(Vec2Value{X: 50, Y: 25})
	got := tt.Matrix(0).Apply(Vec2{0, 0})
	assertNear(t, "x", got.X, 50)
	assertNear(t, "y", got.Y, 25)
}

func TestTransformTrackAnchorAppliesBeforeRotationAndScale(t *testing.T) {
	tt := IdentityTransformTrack()
	tt.Anchor = NewStaticTrack(Vec2Value{X: 10, Y: 0})
	tt.Scale = NewStaticTrack(Vec2Value{X: 200, Y: 200})
	// Anchor point itself should map back to the origin after scale.
	got := tt.Matrix(0).Apply(Vec2{10, 0})
	assertNear(t, "anchor maps to origin x", got.X, 0)
	assertNear(t, "anchor maps to origin y", got.Y, 0)
}

func TestGroupTransformStackComposesLeftToRight(t *testing.T) {
	a := IdentityGroupTransform()
	a.Position = NewStaticTrack(Vec2Value{X: 10, Y: 0})
	b := IdentityGroupTransform()
	b.Position = NewStaticTrack(Vec2Value{X: 0, Y: 5})

	m, op := groupTransformStack([]GroupTransform{a, b}, 0)
	got := m.Apply(Vec2{0, 0})
	assertNear(t, "x", got.X, 10)
	assertNear(t, "y", got.Y, 5)
	assertNear(t, "opacity", op, 1)
}

func TestGroupTransformStackMultipliesOpacity(t *testing.T) {
	a := IdentityGroupTransform()
	a.Opacity = NewStaticTrack(Float64Value(0.5))
	b := IdentityGroupTransform()
	b.Opacity = NewStaticTrack(Float64Value(0.4))

	_, op := groupTransformStack([]GroupTransform{a, b}, 0)
	assertNear(t, "opacity", op, 0.2)
}

func TestGroupTransformStackEmptyIsIdentity(t *testing.T) {
	m, op := groupTransformStack(nil, 0)
	assertMatrix(t, "identity", m, Identity())
	assertNear(t, "opacity", op, 1)
}
