package animir

// BezierKeyframe keys a BezierPath at a point in time, with optional easing
// tangents (interpreted as CSS-style cubic-bezier easing control points,
// not geometric tangents) and a hold flag.
type BezierKeyframe struct {
	Time       float64
	Value      BezierPath
	InTangent  *Vec2
	OutTangent *Vec2
	Hold       bool
}

// AnimPath is either a single static path or a sequence of keyframed paths
// sharing topology (vertex count and closed flag).
type AnimPath struct {
	static    BezierPath
	keyframed bool
	keyframes []BezierKeyframe
}

// NewStaticAnimPath builds a non-animated path.
func NewStaticAnimPath(p BezierPath) AnimPath {
	return AnimPath{static: p}
}

// NewKeyframedAnimPath builds an animated path from an ordered keyframe
// list. A single-keyframe list collapses to the static form (spec §9,
// "Open Questions" bullet 2). Panics if keyframes disagree on topology —
// callers are expected to have validated this already (validators emit
// PATH_TOPOLOGY_MISMATCH before compilation reaches here).
func NewKeyframedAnimPath(kfs []BezierKeyframe) AnimPath {
	if len(kfs) == 0 {
		return AnimPath{}
	}
	if len(kfs) == 1 {
		return AnimPath{static: kfs[0].Value}
	}
	first := kfs[0].Value
	for _, kf := range kfs[1:] {
		if !first.SameTopology(kf.Value) {
			panic("animir debug: AnimPath keyframes must share topology")
		}
	}
	return AnimPath{keyframed: true, keyframes: kfs}
}

// IsKeyframed reports whether the path carries more than one keyframe.
func (a AnimPath) IsKeyframed() bool { return a.keyframed }

// Keyframes returns the underlying keyframe list, or nil for a static path.
func (a AnimPath) Keyframes() []BezierKeyframe { return a.keyframes }

// StaticValue returns the path's value when not keyframed (or the first
// keyframe's value otherwise, for convenience).
func (a AnimPath) StaticValue() BezierPath {
	if a.keyframed {
		return a.keyframes[0].Value
	}
	return a.static
}

// Sample evaluates the path at frame, applying cubic-bezier easing (from
// the left keyframe's out-tangent and the right keyframe's in-tangent) to
// the linear time fraction before interpolating vertex-by-vertex.
func (a AnimPath) Sample(frame float64) BezierPath {
	if !a.keyframed {
		return a.static
	}
	kfs := a.keyframes
	if frame <= kfs[0].Time {
		return kfs[0].Value
	}
	last := len(kfs) - 1
	if frame >= kfs[last].Time {
		return kfs[last].Value
	}
	for i := 0; i < last; i++ {
		left, right := kfs[i], kfs[i+1]
		if frame >= left.Time && frame <= right.Time {
			if left.Hold {
				return left.Value
			}
			span := right.Time - left.Time
			if span <= 0 {
				return left.Value
			}
			frac := clamp01((frame - left.Time) / span)
			eased := easeFraction(left.OutTangent, right.InTangent, frac)
			return left.Value.Interpolated(right.Value, eased)
		}
	}
	return kfs[last].Value
}

// easeFraction applies cubic-bezier easing to a linear fraction using the
// left keyframe's out-tangent and the right keyframe's in-tangent as the
// easing curve's control points. Missing tangents default to a linear
// segment (control point equal to the endpoint it belongs to).
func easeFraction(out, in *Vec2, frac float64) float64 {
	x1, y1 := 0.0, 0.0
	if out != nil {
		x1, y1 = out.X, out.Y
	}
	x2, y2 := 1.0, 1.0
	if in != nil {
		x2, y2 = in.X, in.Y
	}
	return CubicBezierEasing{X1: x1, Y1: y1, X2: x2, Y2: y2}.Solve(frac)
}
