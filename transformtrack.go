package animir

// TransformTrack is a layer's full animatable transform, lifted from a
// Lottie "ks" object. Local matrix composition order matches After
// Effects: T(position) * R(rotation) * S(scale/100) * T(-anchor).
type TransformTrack struct {
	Position AnimTrack[Vec2Value]
	Scale    AnimTrack[Vec2Value] // percent; 100 == 1.0
	Rotation AnimTrack[Float64Value]
	Opacity  AnimTrack[Float64Value] // percent 0..100
	Anchor   AnimTrack[Vec2Value]
}

// IdentityTransformTrack returns the default transform: (0,0) position,
// (100,100) scale, 0 rotation, 100 opacity, (0,0) anchor.
func IdentityTransformTrack() TransformTrack {
	return TransformTrack{
		Position: NewStaticTrack(Vec2Value{}),
		Scale:    NewStaticTrack(Vec2Value{X: 100, Y: 100}),
		Rotation: NewStaticTrack(Float64Value(0)),
		Opacity:  NewStaticTrack(Float64Value(100)),
		Anchor:   NewStaticTrack(Vec2Value{}),
	}
}

// Matrix samples the track at frame and composes the local affine matrix.
func (t TransformTrack) Matrix(frame float64) Matrix2D {
	return composeLocalMatrix(t.Position, t.Scale, t.Rotation, t.Anchor, frame)
}

// OpacityPercent samples opacity at frame, as Lottie stores it (0..100).
func (t TransformTrack) OpacityPercent(frame float64) float64 {
	return float64(t.Opacity.Sample(frame))
}

// GroupTransform is a shape group's "tr" item transform, hoisted by the
// shape extractor. It carries the same fields as TransformTrack except
// opacity is pre-normalised to the 0..1 range a render command expects.
type GroupTransform struct {
	Position AnimTrack[Vec2Value]
	Scale    AnimTrack[Vec2Value] // percent; 100 == 1.0
	Rotation AnimTrack[Float64Value]
	Opacity  AnimTrack[Float64Value] // normalised 0..1
	Anchor   AnimTrack[Vec2Value]
}

// IdentityGroupTransform returns the default group transform.
func IdentityGroupTransform() GroupTransform {
	return GroupTransform{
		Position: NewStaticTrack(Vec2Value{}),
		Scale:    NewStaticTrack(Vec2Value{X: 100, Y: 100}),
		Rotation: NewStaticTrack(Float64Value(0)),
		Opacity:  NewStaticTrack(Float64Value(1)),
		Anchor:   NewStaticTrack(Vec2Value{}),
	}
}

// Matrix samples the group transform at frame.
func (g GroupTransform) Matrix(frame float64) Matrix2D {
	return composeLocalMatrix(g.Position, g.Scale, g.Rotation, g.Anchor, frame)
}

// OpacityValue samples the already-normalised opacity at frame.
func (g GroupTransform) OpacityValue(frame float64) float64 {
	return float64(g.Opacity.Sample(frame))
}

// composeLocalMatrix builds T(position) * R(rotation) * S(scale/100) *
// T(-anchor), applying T(-anchor) first and T(position) last.
func composeLocalMatrix(position, scale AnimTrack[Vec2Value], rotation AnimTrack[Float64Value], anchor AnimTrack[Vec2Value], frame float64) Matrix2D {
	anc := Vec2(anchor.Sample(frame))
	scl := Vec2(scale.Sample(frame))
	rot := float64(rotation.Sample(frame))
	pos := Vec2(position.Sample(frame))

	m := Translation(-anc.X, -anc.Y)
	m = m.Concatenating(Scale(scl.X/100, scl.Y/100))
	m = m.Concatenating(RotationDegrees(rot))
	m = m.Concatenating(Translation(pos.X, pos.Y))
	return m
}

// groupTransformStack composes a stack of GroupTransforms left-to-right at
// frame (stack[0] applied first), multiplying opacities, matching spec
// §3's "stack sampled and composed left-to-right, opacity multiplied".
func groupTransformStack(stack []GroupTransform, frame float64) (Matrix2D, float64) {
	m := Identity()
	op := 1.0
	for _, g := range stack {
		m = m.Concatenating(g.Matrix(frame))
		op *= g.OpacityValue(frame)
	}
	return m, op
}
