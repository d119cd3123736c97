package animir

import (
	"encoding/json"
	"errors"
	"fmt"
)

// LottieValueKind tags the decoded shape of a Lottie animatable property's
// "k" field (spec §4.A).
type LottieValueKind uint8

const (
	LottieValueNumber LottieValueKind = iota
	LottieValueArray
	LottieValueKeyframes
	LottieValuePath
	LottieValueUnknown
)

// LottiePathData is Lottie's native bezier representation: parallel vertex,
// in-tangent, and out-tangent arrays plus a closed flag.
type LottiePathData struct {
	Vertices    [][2]float64 `json:"v"`
	InTangents  [][2]float64 `json:"i"`
	OutTangents [][2]float64 `json:"o"`
	Closed      bool         `json:"c"`
}

// ToBezierPath converts the raw Lottie path data into a BezierPath. Lottie
// stores tangents as absolute offsets from the origin; BezierPath expects
// them relative to their own vertex, matching spec §3's BezierPath
// invariant, so each tangent is translated by subtracting its vertex.
func (d LottiePathData) ToBezierPath() BezierPath {
	n := len(d.Vertices)
	verts := make([]Vec2, n)
	in := make([]Vec2, n)
	out := make([]Vec2, n)
	for i := 0; i < n; i++ {
		v := Vec2{d.Vertices[i][0], d.Vertices[i][1]}
		verts[i] = v
		if i < len(d.InTangents) {
			in[i] = Vec2{d.InTangents[i][0] - v.X, d.InTangents[i][1] - v.Y}
		}
		if i < len(d.OutTangents) {
			out[i] = Vec2{d.OutTangents[i][0] - v.X, d.OutTangents[i][1] - v.Y}
		}
	}
	return BezierPath{Vertices: verts, InTangents: in, OutTangents: out, Closed: d.Closed}
}

// LottieEasingHandle is a keyframe's in/out easing control point. Lottie
// tolerates x (and y) being either a bare scalar or a single-element array
// (spec §4.A).
type LottieEasingHandle struct {
	X, Y float64
}

func (h *LottieEasingHandle) UnmarshalJSON(data []byte) error {
	var raw struct {
		X json.RawMessage `json:"x"`
		Y json.RawMessage `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("animir: decode easing handle: %w", err)
	}
	x, err := decodeScalarOrSingleArray(raw.X)
	if err != nil {
		return fmt.Errorf("animir: decode easing handle x: %w", err)
	}
	y, err := decodeScalarOrSingleArray(raw.Y)
	if err != nil {
		return fmt.Errorf("animir: decode easing handle y: %w", err)
	}
	h.X, h.Y = x, y
	return nil
}

// decodeScalarOrSingleArray accepts either a bare JSON number or a
// single-element JSON array of numbers.
func decodeScalarOrSingleArray(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) == 0 {
			return 0, nil
		}
		return arr[0], nil
	}
	return 0, fmt.Errorf("animir: value is neither a number nor a single-element array")
}

// lottieKeyframeValue is the polymorphic "s"/"e" payload of a raw Lottie
// keyframe: either a numeric array or path data (spec §4.A: "A keyframe's
// startValue must decode as either a numeric array or a LottiePathData;
// any other format is a decoding error.").
type lottieKeyframeValue struct {
	Numbers []float64
	Path    *LottiePathData
}

func (v *lottieKeyframeValue) UnmarshalJSON(data []byte) error {
	var nums []float64
	if err := json.Unmarshal(data, &nums); err == nil {
		v.Numbers = nums
		return nil
	}
	var single []LottiePathData
	if err := json.Unmarshal(data, &single); err == nil && len(single) == 1 {
		v.Path = &single[0]
		return nil
	}
	var p LottiePathData
	if err := json.Unmarshal(data, &p); err == nil && len(p.Vertices) > 0 {
		v.Path = &p
		return nil
	}
	return fmt.Errorf("animir: keyframe value is neither a numeric array nor path data")
}

// LottieRawKeyframe is one entry of a Lottie animated property's "k" array.
type LottieRawKeyframe struct {
	Time       float64              `json:"t"`
	StartValue lottieKeyframeValue  `json:"s"`
	EndValue   *lottieKeyframeValue `json:"e,omitempty"`
	InTangent  *LottieEasingHandle  `json:"i,omitempty"`
	OutTangent *LottieEasingHandle  `json:"o,omitempty"`
	Hold       intBool              `json:"h,omitempty"`
}

// intBool decodes Lottie's 0/1-integer booleans (and tolerates real JSON
// booleans too).
type intBool bool

func (b *intBool) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*b = n != 0
		return nil
	}
	var bv bool
	if err := json.Unmarshal(data, &bv); err == nil {
		*b = intBool(bv)
		return nil
	}
	return fmt.Errorf("animir: hold flag is neither an int nor a bool")
}

// LottieValueData is a decoded Lottie animatable property's "k" value,
// tagged by kind. Decoding tries, in order: a bare number, an array of
// numbers, an array of keyframes, path data, falling back to Unknown
// (spec §4.A — decoding never silently guesses beyond this documented
// order; an unrecognised mandatory form still fails with a precise path
// at the call site that required a specific kind).
type LottieValueData struct {
	Kind      LottieValueKind
	Number    float64
	Array     []float64
	Keyframes []LottieRawKeyframe
	Path      LottiePathData
}

func (v *LottieValueData) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		K json.RawMessage `json:"k"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil || len(wrapper.K) == 0 {
		// Some callers hand us the bare "k" payload directly (e.g. when
		// re-decoding a json.RawMessage already extracted from "k").
		wrapper.K = data
	}
	return v.decodeK(wrapper.K)
}

func (v *LottieValueData) decodeK(k json.RawMessage) error {
	var num float64
	if err := json.Unmarshal(k, &num); err == nil {
		v.Kind = LottieValueNumber
		v.Number = num
		return nil
	}
	var arr []float64
	if err := json.Unmarshal(k, &arr); err == nil {
		v.Kind = LottieValueArray
		v.Array = arr
		return nil
	}
	var kfs []LottieRawKeyframe
	if err := json.Unmarshal(k, &kfs); err == nil && len(kfs) > 0 {
		v.Kind = LottieValueKeyframes
		v.Keyframes = kfs
		return nil
	}
	var p LottiePathData
	if err := json.Unmarshal(k, &p); err == nil && len(p.Vertices) > 0 {
		v.Kind = LottieValuePath
		v.Path = p
		return nil
	}
	v.Kind = LottieValueUnknown
	return nil
}

// AsFloat64Track builds an AnimTrack[Float64Value] from the decoded value.
// Returns an error if the value is Unknown or a keyframe's startValue isn't
// numeric.
func (v LottieValueData) AsFloat64Track() (AnimTrack[Float64Value], error) {
	switch v.Kind {
	case LottieValueNumber:
		return NewStaticTrack(Float64Value(v.Number)), nil
	case LottieValueArray:
		if len(v.Array) == 0 {
			return AnimTrack[Float64Value]{}, fmt.Errorf("animir: empty numeric array value")
		}
		return NewStaticTrack(Float64Value(v.Array[0])), nil
	case LottieValueKeyframes:
		kfs := make([]Keyframe[Float64Value], 0, len(v.Keyframes))
		for _, rk := range v.Keyframes {
			if rk.StartValue.Numbers == nil || len(rk.StartValue.Numbers) == 0 {
				return AnimTrack[Float64Value]{}, fmt.Errorf("animir: %w", errPathKeyframesMissing)
			}
			kfs = append(kfs, Keyframe[Float64Value]{
				Time:       rk.Time,
				Value:      Float64Value(rk.StartValue.Numbers[0]),
				InTangent:  tangentOf(rk.InTangent),
				OutTangent: tangentOf(rk.OutTangent),
				Hold:       bool(rk.Hold),
			})
		}
		return NewKeyframedTrack(kfs), nil
	default:
		return AnimTrack[Float64Value]{}, fmt.Errorf("animir: unknown value format for scalar track")
	}
}

// AsVec2Track builds an AnimTrack[Vec2Value] from the decoded value.
func (v LottieValueData) AsVec2Track() (AnimTrack[Vec2Value], error) {
	switch v.Kind {
	case LottieValueNumber:
		return NewStaticTrack(Vec2Value{X: v.Number, Y: v.Number}), nil
	case LottieValueArray:
		vec, err := vec2FromArray(v.Array)
		if err != nil {
			return AnimTrack[Vec2Value]{}, err
		}
		return NewStaticTrack(Vec2Value(vec)), nil
	case LottieValueKeyframes:
		kfs := make([]Keyframe[Vec2Value], 0, len(v.Keyframes))
		for _, rk := range v.Keyframes {
			vec, err := vec2FromArray(rk.StartValue.Numbers)
			if err != nil {
				return AnimTrack[Vec2Value]{}, fmt.Errorf("animir: %w", errPathKeyframesMissing)
			}
			kfs = append(kfs, Keyframe[Vec2Value]{
				Time:       rk.Time,
				Value:      Vec2Value(vec),
				InTangent:  tangentOf(rk.InTangent),
				OutTangent: tangentOf(rk.OutTangent),
				Hold:       bool(rk.Hold),
			})
		}
		return NewKeyframedTrack(kfs), nil
	default:
		return AnimTrack[Vec2Value]{}, fmt.Errorf("animir: unknown value format for vector track")
	}
}

func vec2FromArray(arr []float64) (Vec2, error) {
	if len(arr) < 2 {
		return Vec2{}, fmt.Errorf("animir: vector value needs at least 2 components")
	}
	return Vec2{X: arr[0], Y: arr[1]}, nil
}

func tangentOf(h *LottieEasingHandle) *Vec2 {
	if h == nil {
		return nil
	}
	return &Vec2{X: h.X, Y: h.Y}
}

// errPathKeyframesMissing is returned (wrapped) when an animated
// keyframe array lacks a decodable value, corresponding to the
// PATH_KEYFRAMES_MISSING diagnostic (spec §9 bullet 3).
var errPathKeyframesMissing = errors.New(CodePathKeyframesMissing)

// errPathTopologyMismatch is returned (wrapped) when an animated path's
// keyframes don't share vertex topology, corresponding to the
// PATH_TOPOLOGY_MISMATCH diagnostic. A package-level sentinel so callers
// can recover the code with errors.Is instead of string-matching.
var errPathTopologyMismatch = errors.New(CodePathTopologyMismatch)

// AsAnimPath builds an AnimPath from a decoded path-shaped value.
func (v LottieValueData) AsAnimPath() (AnimPath, error) {
	switch v.Kind {
	case LottieValuePath:
		return NewStaticAnimPath(v.Path.ToBezierPath()), nil
	case LottieValueKeyframes:
		kfs := make([]BezierKeyframe, 0, len(v.Keyframes))
		for _, rk := range v.Keyframes {
			if rk.StartValue.Path == nil {
				return AnimPath{}, fmt.Errorf("animir: %w", errPathKeyframesMissing)
			}
			kfs = append(kfs, BezierKeyframe{
				Time:       rk.Time,
				Value:      rk.StartValue.Path.ToBezierPath(),
				InTangent:  tangentOf(rk.InTangent),
				OutTangent: tangentOf(rk.OutTangent),
				Hold:       bool(rk.Hold),
			})
		}
		first := kfs[0].Value
		for _, kf := range kfs[1:] {
			if !first.SameTopology(kf.Value) {
				return AnimPath{}, fmt.Errorf("animir: %w", errPathTopologyMismatch)
			}
		}
		return NewKeyframedAnimPath(kfs), nil
	default:
		return AnimPath{}, fmt.Errorf("animir: unknown value format for path")
	}
}

// --- Root document ---

// LottieAsset is one entry of the root "assets" array: either an image
// (has "u"/"p") or a precomposition (has "layers").
type LottieAsset struct {
	ID     string        `json:"id"`
	Width  float64       `json:"w,omitempty"`
	Height float64       `json:"h,omitempty"`
	Path   string        `json:"u,omitempty"`
	Name   string        `json:"p,omitempty"`
	Layers []LottieLayer `json:"layers,omitempty"`
}

// IsImage reports whether the asset is an image reference (has a filename
// and no nested layers).
func (a LottieAsset) IsImage() bool { return a.Name != "" && len(a.Layers) == 0 }

// IsPrecomp reports whether the asset is a precomposition (nested layers).
func (a LottieAsset) IsPrecomp() bool { return len(a.Layers) > 0 }

// RelativePath returns the asset's on-disk path, joining its directory (if
// set) and filename, matching how AE/Bodymovin emits "u"+"p".
func (a LottieAsset) RelativePath() string {
	if a.Path == "" {
		return a.Name
	}
	if a.Path[len(a.Path)-1] == '/' {
		return a.Path + a.Name
	}
	return a.Path + "/" + a.Name
}

// LottieMaskItem is one entry of a shapeMatte/image layer's
// "masksProperties" array.
type LottieMaskItem struct {
	Mode      string           `json:"mode"`
	Inverted  bool             `json:"inv"`
	Opacity   LottieValueData  `json:"o"`
	Path      LottieValueData  `json:"pt"`
	Expansion *LottieValueData `json:"x,omitempty"`
}

// LottieTransform is the raw "ks" transform block of a layer or a shape
// group's "tr".
type LottieTransform struct {
	Anchor   LottieValueData  `json:"a"`
	Position LottieValueData  `json:"p"`
	Scale    LottieValueData  `json:"s"`
	Rotation LottieValueData  `json:"r"`
	Opacity  LottieValueData  `json:"o"`
	SkewVal  *LottieValueData `json:"sk,omitempty"`
	SkewAxis *LottieValueData `json:"sa,omitempty"`
}

// LottieLayer is one entry of a composition's "layers" array.
type LottieLayer struct {
	Type      int              `json:"ty"`
	Name      string           `json:"nm"`
	Index     *int             `json:"ind,omitempty"`
	Parent    *int             `json:"parent,omitempty"`
	RefID     string           `json:"refId,omitempty"`
	InPoint   float64          `json:"ip"`
	OutPoint  float64          `json:"op"`
	StartTime float64          `json:"st"`
	Stretch   *float64         `json:"sr,omitempty"`
	AutoOrient intBool         `json:"ao,omitempty"`
	ThreeD    intBool          `json:"ddd,omitempty"`
	BlendMode int              `json:"bm,omitempty"`
	CollapseTransform intBool  `json:"ct,omitempty"`
	Hidden    intBool          `json:"hd,omitempty"`
	Transform LottieTransform  `json:"ks"`
	Masks     []LottieMaskItem `json:"masksProperties,omitempty"`
	TrackMatteType int         `json:"tt,omitempty"`
	TrackMatteTarget *int      `json:"tp,omitempty"`
	IsTrackMatteSource intBool `json:"td,omitempty"`
	Shapes    []json.RawMessage `json:"shapes,omitempty"`
}

// LayerID returns the layer's stable identifier: its "ind" if present, or
// its position in the owning layer list otherwise (spec §3).
func (l LottieLayer) LayerID(arrayIndex int) int {
	if l.Index != nil {
		return *l.Index
	}
	return arrayIndex
}

// LottieJSON is the decoded root of a Lottie animation document.
type LottieJSON struct {
	Version  string        `json:"v,omitempty"`
	Width    float64       `json:"w"`
	Height   float64       `json:"h"`
	FrameRate float64      `json:"fr"`
	InPoint  float64       `json:"ip"`
	OutPoint float64       `json:"op"`
	Name     string        `json:"nm,omitempty"`
	Assets   []LottieAsset `json:"assets,omitempty"`
	Layers   []LottieLayer `json:"layers"`
}

// AssetByID looks up an asset by id, or returns (zero, false).
func (l LottieJSON) AssetByID(id string) (LottieAsset, bool) {
	for _, a := range l.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return LottieAsset{}, false
}

// ParseLottieJSON decodes raw bytes into a LottieJSON document. Decode
// errors here are package/loader-class errors (spec §7, taxonomy 1): the
// JSON parser itself is an external collaborator, but wiring its output
// into animir's typed tree is this package's job.
func ParseLottieJSON(data []byte) (*LottieJSON, error) {
	var doc LottieJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("animir: parse lottie json: %w", err)
	}
	return &doc, nil
}
