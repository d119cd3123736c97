package animir

// Keyframe is a single keyed value at a point in time (in frames).
type Keyframe[T any] struct {
	Time       float64
	Value      T
	InTangent  *Vec2 // easing control point relative to this keyframe, incoming
	OutTangent *Vec2 // easing control point relative to this keyframe, outgoing
	Hold       bool  // when true, the value holds until the next keyframe's time
}

// Interpolatable is implemented by value types that AnimTrack can linearly
// interpolate between two keyframes.
type Interpolatable[T any] interface {
	LerpValue(o T, t float64) T
}

// Float64Value wraps float64 so it implements Interpolatable.
type Float64Value float64

// LerpValue linearly interpolates between two float64 values.
func (v Float64Value) LerpValue(o Float64Value, t float64) Float64Value {
	return Float64Value(float64(v) + (float64(o)-float64(v))*t)
}

// Vec2Value wraps Vec2 so it implements Interpolatable.
type Vec2Value Vec2

// LerpValue linearly interpolates between two Vec2 values.
func (v Vec2Value) LerpValue(o Vec2Value, t float64) Vec2Value {
	return Vec2Value(Vec2(v).Lerp(Vec2(o), t))
}

// AnimTrack is either a single static value or a sequence of keyframes.
// T must implement Interpolatable[T] for Sample to linearly interpolate.
type AnimTrack[T Interpolatable[T]] struct {
	static     T
	keyframed  bool
	keyframes  []Keyframe[T]
}

// NewStaticTrack builds a track with a single, unchanging value.
func NewStaticTrack[T Interpolatable[T]](v T) AnimTrack[T] {
	return AnimTrack[T]{static: v}
}

// NewKeyframedTrack builds a track from an ordered (by Time) list of
// keyframes. A single-keyframe list is treated identically to a static
// track everywhere it is sampled (spec §9, "Open Questions" bullet 2).
func NewKeyframedTrack[T Interpolatable[T]](kfs []Keyframe[T]) AnimTrack[T] {
	if len(kfs) == 0 {
		var zero T
		return AnimTrack[T]{static: zero}
	}
	if len(kfs) == 1 {
		return AnimTrack[T]{static: kfs[0].Value}
	}
	return AnimTrack[T]{keyframed: true, keyframes: kfs}
}

// IsKeyframed reports whether the track carries more than one keyframe.
func (t AnimTrack[T]) IsKeyframed() bool { return t.keyframed }

// Keyframes returns the underlying keyframe list, or nil for a static track.
func (t AnimTrack[T]) Keyframes() []Keyframe[T] { return t.keyframes }

// Sample evaluates the track at the given frame.
//
//   - Before the first keyframe: the first value.
//   - After the last keyframe: the last value.
//   - A hold keyframe: the left value, held, until the next keyframe's time.
//   - Otherwise: linear interpolation between the bracketing keyframes.
func (t AnimTrack[T]) Sample(frame float64) T {
	if !t.keyframed {
		return t.static
	}
	kfs := t.keyframes
	if frame <= kfs[0].Time {
		return kfs[0].Value
	}
	last := len(kfs) - 1
	if frame >= kfs[last].Time {
		return kfs[last].Value
	}
	for i := 0; i < last; i++ {
		a, b := kfs[i], kfs[i+1]
		if frame >= a.Time && frame <= b.Time {
			if a.Hold {
				return a.Value
			}
			span := b.Time - a.Time
			if span <= 0 {
				return a.Value
			}
			frac := (frame - a.Time) / span
			return a.Value.LerpValue(b.Value, clamp01(frac))
		}
	}
	return kfs[last].Value
}

// StaticValue returns the track's single value, regardless of whether it is
// internally keyframed or not. Valid only when IsKeyframed is false, or as a
// reference to the first keyframe's value otherwise.
func (t AnimTrack[T]) StaticValue() T {
	if t.keyframed {
		return t.keyframes[0].Value
	}
	return t.static
}
