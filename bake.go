package animir

import (
	"math"
	"sort"
)

// quantizationEpsilon is the tolerance used to compare animation-time
// values (keyframe times, matching-keyframe checks) across tracks.
const quantizationEpsilon = 1e-6

// keyframeTimesEqual reports whether two keyframe time sequences match
// within quantizationEpsilon (spec §4.E rectangle-animation rule).
func keyframeTimesEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > quantizationEpsilon {
			return false
		}
	}
	return true
}

// bakeRectAnimPath bakes an "rc" item to an AnimPath (spec §4.E rectangle
// baking and rectangle animation).
func bakeRectAnimPath(rect LottieShapeRect) (AnimPath, error) {
	roundnessTrack, err := rect.Roundness.AsFloat64Track()
	if err != nil {
		return AnimPath{}, errShapeItem("rectangle roundness has unrecognised format")
	}
	if roundnessTrack.IsKeyframed() {
		return AnimPath{}, &ExtractError{Code: CodeUnsupportedRectRoundnessAnimated, Message: "rectangle roundness is animated"}
	}
	roundness := float64(roundnessTrack.StaticValue())
	direction := directionOrDefault(rect.Direction)

	positionTrack, err := rect.Position.AsVec2Track()
	if err != nil {
		return AnimPath{}, &ExtractError{Code: CodeUnsupportedRectKeyframeFormat, Message: "rectangle position has unrecognised format"}
	}
	sizeTrack, err := rect.Size.AsVec2Track()
	if err != nil {
		return AnimPath{}, &ExtractError{Code: CodeUnsupportedRectKeyframeFormat, Message: "rectangle size has unrecognised format"}
	}

	if !positionTrack.IsKeyframed() && !sizeTrack.IsKeyframed() {
		center := Vec2(positionTrack.StaticValue())
		size := Vec2(sizeTrack.StaticValue())
		return NewStaticAnimPath(bakeRectPath(center, size, roundness, direction)), nil
	}

	driver, other, driverIsSize := positionTrack, sizeTrack, false
	if sizeTrack.IsKeyframed() {
		driver, other, driverIsSize = sizeTrack, positionTrack, true
	}

	if positionTrack.IsKeyframed() && sizeTrack.IsKeyframed() {
		pTimes := keyframeTrackTimes(positionTrack)
		sTimes := keyframeTrackTimes(sizeTrack)
		if !keyframeTimesEqual(pTimes, sTimes) {
			return AnimPath{}, &ExtractError{Code: CodeUnsupportedRectKeyframesMismatch, Message: "rectangle position and size keyframes do not align"}
		}
	}

	driverKfs := driver.Keyframes()
	kfs := make([]BezierKeyframe, len(driverKfs))
	for i, dk := range driverKfs {
		var center, size Vec2
		if driverIsSize {
			size = Vec2(dk.Value)
			center = resolveAlignedVec2(other, i, positionTrack.IsKeyframed())
		} else {
			center = Vec2(dk.Value)
			size = resolveAlignedVec2(other, i, sizeTrack.IsKeyframed())
		}
		kfs[i] = BezierKeyframe{
			Time:       dk.Time,
			Value:      bakeRectPath(center, size, roundness, direction),
			InTangent:  dk.InTangent,
			OutTangent: dk.OutTangent,
			Hold:       dk.Hold,
		}
	}
	return NewKeyframedAnimPath(kfs), nil
}

// resolveAlignedVec2 resolves the non-driver property's value at the
// driver's i-th tick: its own i-th keyframe value if it is itself
// keyframed (and therefore aligned by the caller's check), or its static
// value otherwise.
func resolveAlignedVec2(track AnimTrack[Vec2Value], i int, isKeyframed bool) Vec2 {
	if isKeyframed {
		return Vec2(track.Keyframes()[i].Value)
	}
	return Vec2(track.StaticValue())
}

func keyframeTrackTimes(track AnimTrack[Vec2Value]) []float64 {
	kfs := track.Keyframes()
	times := make([]float64, len(kfs))
	for i, kf := range kfs {
		times[i] = kf.Time
	}
	return times
}

// bakeRectPath builds the closed rounded-rectangle bezier for one
// (center, size, roundness) sample (spec §4.E rectangle baking).
func bakeRectPath(center, size Vec2, roundness float64, direction int) BezierPath {
	hw, hh := size.X/2, size.Y/2
	maxR := math.Min(hw, hh)
	r := clamp(roundness, 0, maxR)

	var verts, in, out []Vec2
	if r <= 0 {
		verts = []Vec2{
			{center.X + hw, center.Y - hh},
			{center.X + hw, center.Y + hh},
			{center.X - hw, center.Y + hh},
			{center.X - hw, center.Y - hh},
		}
		in = make([]Vec2, 4)
		out = make([]Vec2, 4)
	} else {
		k := kappa * r
		verts = []Vec2{
			{center.X + hw - r, center.Y - hh},
			{center.X + hw, center.Y - hh + r},
			{center.X + hw, center.Y + hh - r},
			{center.X + hw - r, center.Y + hh},
			{center.X - hw + r, center.Y + hh},
			{center.X - hw, center.Y + hh - r},
			{center.X - hw, center.Y - hh + r},
			{center.X - hw + r, center.Y - hh},
		}
		in = []Vec2{
			{0, 0},
			{0, -k},
			{0, 0},
			{k, 0},
			{0, 0},
			{0, k},
			{0, 0},
			{-k, 0},
		}
		out = []Vec2{
			{k, 0},
			{0, 0},
			{0, k},
			{0, 0},
			{-k, 0},
			{0, 0},
			{0, -k},
			{0, 0},
		}
	}

	if direction == 2 {
		verts, in, out = reverseBezierDirection(verts, in, out)
	}
	return BezierPath{Vertices: verts, InTangents: in, OutTangents: out, Closed: true}
}

// bakeEllipseAnimPath bakes an "el" item to an AnimPath (spec §4.E ellipse
// baking and ellipse animation).
func bakeEllipseAnimPath(ellipse LottieShapeEllipse) (AnimPath, error) {
	direction := directionOrDefault(ellipse.Direction)

	positionTrack, err := ellipse.Position.AsVec2Track()
	if err != nil {
		return AnimPath{}, errShapeItem("ellipse position has unrecognised format")
	}
	sizeTrack, err := ellipse.Size.AsVec2Track()
	if err != nil {
		return AnimPath{}, errShapeItem("ellipse size has unrecognised format")
	}

	if err := validatePositiveSize(sizeTrack); err != nil {
		return AnimPath{}, err
	}

	if !positionTrack.IsKeyframed() && !sizeTrack.IsKeyframed() {
		center := Vec2(positionTrack.StaticValue())
		size := Vec2(sizeTrack.StaticValue())
		return NewStaticAnimPath(bakeEllipsePath(center, size, direction)), nil
	}

	driver, other, driverIsSize := positionTrack, sizeTrack, false
	if sizeTrack.IsKeyframed() {
		driver, other, driverIsSize = sizeTrack, positionTrack, true
	}
	if positionTrack.IsKeyframed() && sizeTrack.IsKeyframed() {
		if !keyframeTimesEqual(keyframeTrackTimes(positionTrack), keyframeTrackTimes(sizeTrack)) {
			return AnimPath{}, errShapeItem("ellipse position and size keyframes do not align")
		}
	}

	driverKfs := driver.Keyframes()
	kfs := make([]BezierKeyframe, len(driverKfs))
	for i, dk := range driverKfs {
		var center, size Vec2
		if driverIsSize {
			size = Vec2(dk.Value)
			center = resolveAlignedVec2(other, i, positionTrack.IsKeyframed())
		} else {
			center = Vec2(dk.Value)
			size = resolveAlignedVec2(other, i, sizeTrack.IsKeyframed())
		}
		kfs[i] = BezierKeyframe{
			Time:       dk.Time,
			Value:      bakeEllipsePath(center, size, direction),
			InTangent:  dk.InTangent,
			OutTangent: dk.OutTangent,
			Hold:       dk.Hold,
		}
	}
	return NewKeyframedAnimPath(kfs), nil
}

func validatePositiveSize(sizeTrack AnimTrack[Vec2Value]) error {
	check := func(v Vec2Value) error {
		if v.X <= 0 || v.Y <= 0 {
			return errShapeItem("ellipse size must be positive")
		}
		return nil
	}
	if !sizeTrack.IsKeyframed() {
		return check(sizeTrack.StaticValue())
	}
	for _, kf := range sizeTrack.Keyframes() {
		if err := check(kf.Value); err != nil {
			return err
		}
	}
	return nil
}

// bakeEllipsePath builds the closed 4-vertex cubic-bezier ellipse
// approximation for one (center, size) sample.
func bakeEllipsePath(center, size Vec2, direction int) BezierPath {
	rx, ry := size.X/2, size.Y/2
	kx, ky := kappa*rx, kappa*ry

	verts := []Vec2{
		{center.X, center.Y - ry},
		{center.X + rx, center.Y},
		{center.X, center.Y + ry},
		{center.X - rx, center.Y},
	}
	in := []Vec2{
		{-kx, 0},
		{0, -ky},
		{kx, 0},
		{0, ky},
	}
	out := []Vec2{
		{kx, 0},
		{0, ky},
		{-kx, 0},
		{0, -ky},
	}

	if direction == 2 {
		verts, in, out = reverseBezierDirection(verts, in, out)
	}
	return BezierPath{Vertices: verts, InTangents: in, OutTangents: out, Closed: true}
}

// bakePolystarAnimPath bakes an "sr" item to an AnimPath (spec §4.E
// polystar baking). Animated point count or roundness is rejected;
// position, rotation, and radii may each vary independently, with no
// keyframe-alignment requirement placed on polystars by the spec — the
// bake samples every property (via Sample, not index alignment) at the
// union of all their keyframe times, linearly eased between bakes.
func bakePolystarAnimPath(sr LottieShapePolystar) (AnimPath, error) {
	pointsTrack, err := sr.Points.AsFloat64Track()
	if err != nil {
		return AnimPath{}, errShapeItem("polystar points has unrecognised format")
	}
	if pointsTrack.IsKeyframed() {
		return AnimPath{}, errShapeItem("polystar points is animated")
	}
	points := float64(pointsTrack.StaticValue())
	if points != math.Trunc(points) || points < 3 || points > 100 {
		return AnimPath{}, errShapeItem("polystar points out of range [3,100]")
	}
	n := int(points)

	if irTrack, err := sr.InnerRoundness.AsFloat64Track(); err == nil {
		if irTrack.IsKeyframed() || float64(irTrack.StaticValue()) != 0 {
			return AnimPath{}, errShapeItem("polystar inner roundness must be zero")
		}
	}
	if orTrack, err := sr.OuterRoundness.AsFloat64Track(); err == nil {
		if orTrack.IsKeyframed() || float64(orTrack.StaticValue()) != 0 {
			return AnimPath{}, errShapeItem("polystar outer roundness must be zero")
		}
	}

	positionTrack, err := sr.Position.AsVec2Track()
	if err != nil {
		return AnimPath{}, errShapeItem("polystar position has unrecognised format")
	}
	rotationTrack, err := sr.Rotation.AsFloat64Track()
	if err != nil {
		return AnimPath{}, errShapeItem("polystar rotation has unrecognised format")
	}
	outerTrack, err := sr.OuterRadius.AsFloat64Track()
	if err != nil {
		return AnimPath{}, errShapeItem("polystar outer radius has unrecognised format")
	}
	var innerTrack AnimTrack[Float64Value]
	isStar := sr.PolyType == 1
	if isStar {
		innerTrack, err = sr.InnerRadius.AsFloat64Track()
		if err != nil {
			return AnimPath{}, errShapeItem("polystar inner radius has unrecognised format")
		}
	}
	direction := directionOrDefault(sr.Direction)

	bake := func(frame float64) (BezierPath, error) {
		center := Vec2(positionTrack.Sample(frame))
		rotation := float64(rotationTrack.Sample(frame))
		outer := float64(outerTrack.Sample(frame))
		if outer <= 0 {
			return BezierPath{}, errShapeItem("polystar outer radius must be positive")
		}
		inner := 0.0
		if isStar {
			inner = float64(innerTrack.Sample(frame))
			if inner <= 0 || inner >= outer {
				return BezierPath{}, errShapeItem("polystar inner radius must be in (0, outer)")
			}
		}
		return bakePolystarPath(center, rotation, outer, inner, n, isStar, direction), nil
	}

	var times []float64
	times = append(times, keyframeTrackTimes(positionTrack)...)
	times = appendFloat64Times(times, rotationTrack)
	times = appendFloat64Times(times, outerTrack)
	if isStar {
		times = appendFloat64Times(times, innerTrack)
	}
	times = dedupeSortedTimes(times)
	if len(times) == 0 {
		p, err := bake(0)
		if err != nil {
			return AnimPath{}, err
		}
		return NewStaticAnimPath(p), nil
	}

	kfs := make([]BezierKeyframe, len(times))
	for i, t := range times {
		p, err := bake(t)
		if err != nil {
			return AnimPath{}, err
		}
		kfs[i] = BezierKeyframe{Time: t, Value: p}
	}
	return NewKeyframedAnimPath(kfs), nil
}

// appendFloat64Times appends track's keyframe times (if any) to times.
func appendFloat64Times(times []float64, track AnimTrack[Float64Value]) []float64 {
	if !track.IsKeyframed() {
		return times
	}
	for _, kf := range track.Keyframes() {
		times = append(times, kf.Time)
	}
	return times
}

// dedupeSortedTimes sorts times and removes near-duplicates within
// quantizationEpsilon.
func dedupeSortedTimes(times []float64) []float64 {
	if len(times) == 0 {
		return nil
	}
	sorted := append([]float64(nil), times...)
	sort.Float64s(sorted)
	out := sorted[:1]
	for _, t := range sorted[1:] {
		if t-out[len(out)-1] > quantizationEpsilon {
			out = append(out, t)
		}
	}
	return out
}

// bakePolystarPath builds the sharp-cornered star/polygon bezier for one
// (center, rotation, outer, inner) sample.
func bakePolystarPath(center Vec2, rotationDeg, outer, inner float64, n int, isStar bool, direction int) BezierPath {
	count := n
	if isStar {
		count = n * 2
	}
	startAngle := -math.Pi/2 + rotationDeg*math.Pi/180
	var step float64
	if isStar {
		step = math.Pi / float64(n)
	} else {
		step = 2 * math.Pi / float64(n)
	}

	verts := make([]Vec2, count)
	for i := 0; i < count; i++ {
		radius := outer
		if isStar && i%2 == 1 {
			radius = inner
		}
		angle := startAngle + float64(i)*step
		sin, cos := math.Sincos(angle)
		verts[i] = Vec2{center.X + radius*cos, center.Y + radius*sin}
	}
	in := make([]Vec2, count)
	out := make([]Vec2, count)

	if direction == 2 {
		verts, in, out = reverseBezierDirection(verts, in, out)
	}
	return BezierPath{Vertices: verts, InTangents: in, OutTangents: out, Closed: true}
}
