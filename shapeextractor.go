package animir

import (
	"math"
)

// kappa is the control-point offset factor approximating a quarter circle
// with a cubic bezier (spec glossary).
const kappa = 0.5522847498307936

// maxWidthPixels is the upper bound on a stroke's width.
const maxWidthPixels = 2048

// StrokeStyle is an extracted "st" shape item.
type StrokeStyle struct {
	Color      Color4
	Opacity    float64 // 0..1
	Width      AnimTrack[Float64Value]
	LineCap    int // 1=butt 2=round 3=square
	LineJoin   int // 1=miter 2=round 3=bevel
	MiterLimit float64
}

// ShapeGroup is the fully extracted content of a ty=4 layer: its
// (hoisted) path, fill, stroke, and the ancestor group-transform stack on
// the branch that produced the path. PathID is unset (-1) until the IR
// compiler registers AnimPath into the shared PathRegistry.
type ShapeGroup struct {
	HasPath         bool
	AnimPath        AnimPath
	FillColor       *Color4
	FillOpacity     float64 // 0..100, default 100
	Stroke          *StrokeStyle
	GroupTransforms []GroupTransform
	PathID          PathID
}

// ExtractShapeGroup runs the full shape-extraction pipeline over a layer's
// parsed shape items (spec §4.E): first-path discovery, group-transform
// hoisting along that branch, and fill/stroke extraction.
func ExtractShapeGroup(items []LottieShapeItem) (*ShapeGroup, error) {
	anim, hasPath, err := extractAnimPath(items)
	if err != nil {
		return nil, err
	}
	transforms, err := extractGroupTransforms(items)
	if err != nil {
		return nil, err
	}
	fillColor, fillOpacity, err := extractFill(items)
	if err != nil {
		return nil, err
	}
	stroke, err := extractStroke(items)
	if err != nil {
		return nil, err
	}
	return &ShapeGroup{
		HasPath:         hasPath,
		AnimPath:        anim,
		FillColor:       fillColor,
		FillOpacity:     fillOpacity,
		Stroke:          stroke,
		GroupTransforms: transforms,
		PathID:          -1,
	}, nil
}

// extractAnimPath performs a depth-first search for the first
// path-producing shape item (sh, rc, el, sr, or one nested in a gr).
// Paths inside a group do not carry the group's transform baked in.
func extractAnimPath(items []LottieShapeItem) (AnimPath, bool, error) {
	for _, item := range items {
		switch v := item.(type) {
		case LottieShapePath:
			ap, err := v.Path.AsAnimPath()
			if err != nil {
				return AnimPath{}, false, err
			}
			return ap, true, nil
		case LottieShapeRect:
			ap, err := bakeRectAnimPath(v)
			if err != nil {
				return AnimPath{}, false, err
			}
			return ap, true, nil
		case LottieShapeEllipse:
			ap, err := bakeEllipseAnimPath(v)
			if err != nil {
				return AnimPath{}, false, err
			}
			return ap, true, nil
		case LottieShapePolystar:
			ap, err := bakePolystarAnimPath(v)
			if err != nil {
				return AnimPath{}, false, err
			}
			return ap, true, nil
		case LottieShapeGroup:
			ap, found, err := extractAnimPath(v.Items)
			if err != nil {
				return AnimPath{}, false, err
			}
			if found {
				return ap, true, nil
			}
		}
	}
	return AnimPath{}, false, nil
}

// extractGroupTransforms walks the same branch as extractAnimPath but
// collects only the "tr" transforms of groups that lie on the path to the
// first path-producing item, outermost first.
func extractGroupTransforms(items []LottieShapeItem) ([]GroupTransform, error) {
	_, stack, err := extractGroupTransformsRec(items)
	return stack, err
}

func extractGroupTransformsRec(items []LottieShapeItem) (bool, []GroupTransform, error) {
	for _, item := range items {
		switch v := item.(type) {
		case LottieShapePath, LottieShapeRect, LottieShapeEllipse, LottieShapePolystar:
			return true, nil, nil
		case LottieShapeGroup:
			found, childStack, err := extractGroupTransformsRec(v.Items)
			if err != nil {
				return false, nil, err
			}
			if !found {
				continue
			}
			own, err := extractOwnGroupTransform(v.Items)
			if err != nil {
				return false, nil, err
			}
			for _, it := range v.Items {
				if _, isTr := it.(LottieShapeTransform); isTr {
					return true, append([]GroupTransform{own}, childStack...), nil
				}
			}
			return true, childStack, nil
		}
	}
	return false, nil, nil
}

// extractOwnGroupTransform reads the single "tr" item of a group's own
// item list (if any), rejecting multiple tr items, any skew, and
// non-uniform scale (spec §4.E).
func extractOwnGroupTransform(items []LottieShapeItem) (GroupTransform, error) {
	var tr *LottieShapeTransform
	for i := range items {
		t, ok := items[i].(LottieShapeTransform)
		if !ok {
			continue
		}
		if tr != nil {
			return GroupTransform{}, &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group has more than one tr item"}
		}
		tr = &t
	}
	if tr == nil {
		return IdentityGroupTransform(), nil
	}

	if tr.SkewVal != nil {
		skew, err := tr.SkewVal.AsFloat64Track()
		if err != nil {
			return GroupTransform{}, &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group transform skew has unrecognised format"}
		}
		if skew.IsKeyframed() {
			return GroupTransform{}, &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group transform has animated skew"}
		}
		if math.Abs(float64(skew.StaticValue())) > 1e-9 {
			return GroupTransform{}, &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group transform has non-zero static skew"}
		}
	}

	position, err := tr.Position.AsVec2Track()
	if err != nil {
		return GroupTransform{}, &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group transform position has unrecognised format"}
	}
	anchor, err := tr.Anchor.AsVec2Track()
	if err != nil {
		return GroupTransform{}, &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group transform anchor has unrecognised format"}
	}
	rotation, err := tr.Rotation.AsFloat64Track()
	if err != nil {
		return GroupTransform{}, &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group transform rotation has unrecognised format"}
	}
	scale, err := tr.Scale.AsVec2Track()
	if err != nil {
		return GroupTransform{}, &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group transform scale has unrecognised format"}
	}
	if err := validateUniformScale(scale); err != nil {
		return GroupTransform{}, err
	}
	opacityPct, err := tr.Opacity.AsFloat64Track()
	if err != nil {
		return GroupTransform{}, &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group transform opacity has unrecognised format"}
	}
	opacity := normalizeOpacityTrack(opacityPct)

	return GroupTransform{Position: position, Scale: scale, Rotation: rotation, Opacity: opacity, Anchor: anchor}, nil
}

// validateUniformScale rejects a scale track whose x and y components
// differ (statically, or in any keyframe) beyond a small epsilon.
func validateUniformScale(scale AnimTrack[Vec2Value]) error {
	const eps = 1e-6
	check := func(v Vec2Value) error {
		if math.Abs(v.X-v.Y) > eps {
			return &ExtractError{Code: CodeUnsupportedGroupTransformKeyframe, Message: "group transform has non-uniform scale"}
		}
		return nil
	}
	if !scale.IsKeyframed() {
		return check(scale.StaticValue())
	}
	for _, kf := range scale.Keyframes() {
		if err := check(kf.Value); err != nil {
			return err
		}
	}
	return nil
}

// normalizeOpacityTrack rescales a 0..100 percent track to 0..1.
func normalizeOpacityTrack(pct AnimTrack[Float64Value]) AnimTrack[Float64Value] {
	if !pct.IsKeyframed() {
		return NewStaticTrack(Float64Value(float64(pct.StaticValue()) / 100))
	}
	kfs := pct.Keyframes()
	out := make([]Keyframe[Float64Value], len(kfs))
	for i, kf := range kfs {
		out[i] = kf
		out[i].Value = Float64Value(float64(kf.Value) / 100)
	}
	return NewKeyframedTrack(out)
}

// extractFill locates the first "fl" item (recursing into groups),
// returning its static color and opacity. Animated fill color/opacity is
// rejected, matching ShapeGroup's data model (plain values, not tracks).
func extractFill(items []LottieShapeItem) (*Color4, float64, error) {
	fl, found := findFirst[LottieShapeFill](items)
	if !found {
		return nil, 100, nil
	}
	if fl.Color.Kind != LottieValueArray && fl.Color.Kind != LottieValueNumber {
		if fl.Color.Kind == LottieValueKeyframes {
			return nil, 0, errShapeItem("fill color is animated")
		}
		return nil, 0, errShapeItem("fill color has unrecognised format")
	}
	arr := fl.Color.Array
	if fl.Color.Kind == LottieValueNumber {
		arr = []float64{fl.Color.Number, fl.Color.Number, fl.Color.Number}
	}
	color, err := colorFromArray(arr)
	if err != nil {
		return nil, 0, err
	}
	opacityTrack, err := fl.Opacity.AsFloat64Track()
	if err != nil {
		return nil, 0, errShapeItem("fill opacity has unrecognised format")
	}
	if opacityTrack.IsKeyframed() {
		return nil, 0, errShapeItem("fill opacity is animated")
	}
	return &color, float64(opacityTrack.StaticValue()), nil
}

// extractStroke locates the first "st" item (recursing into groups),
// applying the rejection rules of spec §4.E.
func extractStroke(items []LottieShapeItem) (*StrokeStyle, error) {
	st, found := findFirst[LottieShapeStroke](items)
	if !found {
		return nil, nil
	}
	if st.HasDash {
		return nil, errShapeItem("stroke has a non-empty dash array")
	}
	if st.LineCap < 1 || st.LineCap > 3 {
		return nil, errShapeItem("stroke has an unsupported line cap")
	}
	if st.LineJoin < 1 || st.LineJoin > 3 {
		return nil, errShapeItem("stroke has an unsupported line join")
	}
	if st.MiterLimit <= 0 {
		return nil, errShapeItem("stroke miter limit must be positive")
	}
	if st.Color.Kind == LottieValueKeyframes {
		return nil, errShapeItem("stroke color is animated")
	}
	arr := st.Color.Array
	if st.Color.Kind == LottieValueNumber {
		arr = []float64{st.Color.Number, st.Color.Number, st.Color.Number}
	}
	color, err := colorFromArray(arr)
	if err != nil {
		return nil, err
	}
	opacityTrack, err := st.Opacity.AsFloat64Track()
	if err != nil {
		return nil, errShapeItem("stroke opacity has unrecognised format")
	}
	if opacityTrack.IsKeyframed() {
		return nil, errShapeItem("stroke opacity is animated")
	}
	width, err := st.Width.AsFloat64Track()
	if err != nil {
		return nil, errShapeItem("stroke width has unrecognised format")
	}
	if err := validateStrokeWidth(width); err != nil {
		return nil, err
	}
	return &StrokeStyle{
		Color:      color,
		Opacity:    float64(opacityTrack.StaticValue()) / 100,
		Width:      width,
		LineCap:    st.LineCap,
		LineJoin:   st.LineJoin,
		MiterLimit: st.MiterLimit,
	}, nil
}

func validateStrokeWidth(width AnimTrack[Float64Value]) error {
	check := func(w float64) error {
		if w <= 0 || w > maxWidthPixels {
			return errShapeItem("stroke width out of bounds")
		}
		return nil
	}
	if !width.IsKeyframed() {
		return check(float64(width.StaticValue()))
	}
	for _, kf := range width.Keyframes() {
		if err := check(float64(kf.Value)); err != nil {
			return err
		}
	}
	return nil
}

// findFirst performs a pre-order DFS for the first item of type T,
// recursing into groups.
func findFirst[T LottieShapeItem](items []LottieShapeItem) (T, bool) {
	var zero T
	for _, item := range items {
		if v, ok := item.(T); ok {
			return v, true
		}
		if g, ok := item.(LottieShapeGroup); ok {
			if v, found := findFirst[T](g.Items); found {
				return v, true
			}
		}
	}
	return zero, false
}

// validateNoTrimPaths panics with UnsupportedFeature if any "tm" item
// survives in the shape tree. The anim validator (§4.G rule 13) is
// supposed to reject "tm" before compilation ever runs this; its
// presence here indicates a validator bug (spec §9 design notes).
func validateNoTrimPaths(items []LottieShapeItem) {
	for _, item := range items {
		if u, ok := item.(LottieShapeUnknown); ok && u.Type == "tm" {
			panic(UnsupportedFeature{Code: CodeUnsupportedTrimPaths, Message: "trim paths reached the compiler", Path: u.Name})
		}
		if g, ok := item.(LottieShapeGroup); ok {
			validateNoTrimPaths(g.Items)
		}
	}
}

// reverseBezierDirection reverses a bezier vertex/tangent triple for a
// direction=2 (CCW) bake: vertex order reverses and each vertex's
// in/out tangent roles swap and negate.
func reverseBezierDirection(verts, inT, outT []Vec2) ([]Vec2, []Vec2, []Vec2) {
	n := len(verts)
	rv := make([]Vec2, n)
	rin := make([]Vec2, n)
	rout := make([]Vec2, n)
	for i := 0; i < n; i++ {
		j := n - 1 - i
		rv[i] = verts[j]
		rin[i] = outT[j].Scale(-1)
		rout[i] = inT[j].Scale(-1)
	}
	return rv, rin, rout
}
