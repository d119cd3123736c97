package animir

import (
	"encoding/json"
	"fmt"
)

// LottieShapeItem is a closed union over the shape-tree item kinds animir
// understands (plus LottieShapeUnknown for anything else, which the
// validator rejects by type string). Concrete types implement it by
// returning their own "ty" string.
type LottieShapeItem interface {
	ShapeType() string
}

// LottieShapePath is a "sh" item: a literal bezier path.
type LottieShapePath struct {
	Name string
	Path LottieValueData
}

func (LottieShapePath) ShapeType() string { return "sh" }

// LottieShapeRect is an "rc" item.
type LottieShapeRect struct {
	Name      string
	Position  LottieValueData
	Size      LottieValueData
	Roundness LottieValueData
	Direction int
}

func (LottieShapeRect) ShapeType() string { return "rc" }

// LottieShapeEllipse is an "el" item.
type LottieShapeEllipse struct {
	Name      string
	Position  LottieValueData
	Size      LottieValueData
	Direction int
}

func (LottieShapeEllipse) ShapeType() string { return "el" }

// LottieShapePolystar is an "sr" item (star or polygon, per PolyType).
type LottieShapePolystar struct {
	Name           string
	PolyType       int // 1 = star, 2 = polygon
	Position       LottieValueData
	Points         LottieValueData
	Rotation       LottieValueData
	InnerRadius    LottieValueData
	InnerRoundness LottieValueData
	OuterRadius    LottieValueData
	OuterRoundness LottieValueData
	Direction      int
}

func (LottieShapePolystar) ShapeType() string { return "sr" }

// LottieShapeFill is an "fl" item.
type LottieShapeFill struct {
	Name    string
	Color   LottieValueData
	Opacity LottieValueData
}

func (LottieShapeFill) ShapeType() string { return "fl" }

// LottieShapeStroke is an "st" item.
type LottieShapeStroke struct {
	Name       string
	Color      LottieValueData
	Opacity    LottieValueData
	Width      LottieValueData
	LineCap    int
	LineJoin   int
	MiterLimit float64
	HasDash    bool
}

func (LottieShapeStroke) ShapeType() string { return "st" }

// LottieShapeGroup is a "gr" item, containing a nested item list; its own
// transform stays in Items as a "tr" item (LottieShapeTransform).
type LottieShapeGroup struct {
	Name  string
	Items []LottieShapeItem
}

func (LottieShapeGroup) ShapeType() string { return "gr" }

// LottieShapeTransform is a "tr" item — the group-level transform.
type LottieShapeTransform struct {
	Name     string
	Anchor   LottieValueData
	Position LottieValueData
	Scale    LottieValueData
	Rotation LottieValueData
	Opacity  LottieValueData
	SkewVal  *LottieValueData
	SkewAxis *LottieValueData
}

func (LottieShapeTransform) ShapeType() string { return "tr" }

// LottieShapeUnknown preserves the raw "ty" of any shape item animir
// doesn't support (including "tm", trim paths), so the validator can
// report UNSUPPORTED_SHAPE_ITEM with the exact offending type.
type LottieShapeUnknown struct {
	Name string
	Type string
}

func (u LottieShapeUnknown) ShapeType() string { return u.Type }

// jsonShapeItem is the wire struct carrying every field any shape item
// kind might use; ParseShapeItems routes each element to its typed form
// based on "ty" so the result is a proper closed union rather than one
// flat struct with colliding field names.
type jsonShapeItem struct {
	Type string `json:"ty"`
	Name string `json:"nm"`

	Path LottieValueData `json:"ks"`

	Position LottieValueData `json:"p"`
	Size     LottieValueData `json:"s"`
	// RoundnessOrRotation is "r": rectangle roundness for "rc", or the
	// rotation angle for "sr"/"tr" — the same JSON key serves both
	// meanings depending on the enclosing item's "ty", same as Size
	// doubles as a group transform's Scale.
	RoundnessOrRotation LottieValueData `json:"r"`
	// DirectionOrDashes is "d": the winding direction number for
	// "rc"/"el"/"sr", or the dash array for "st".
	DirectionOrDashes json.RawMessage `json:"d"`

	PolyType       int             `json:"sy"`
	Points         LottieValueData `json:"pt"`
	InnerRadius    LottieValueData `json:"ir"`
	InnerRoundness LottieValueData `json:"is"`
	OuterRadius    LottieValueData `json:"or"`
	OuterRoundness LottieValueData `json:"os"`

	Color      LottieValueData   `json:"c"`
	Opacity    LottieValueData   `json:"o"`
	Width      LottieValueData   `json:"w"`
	LineCap    int               `json:"lc"`
	LineJoin   int               `json:"lj"`
	MiterLimit float64           `json:"ml"`

	Items []json.RawMessage `json:"it"`

	Anchor  LottieValueData  `json:"a"`
	SkewVal *LottieValueData `json:"sk,omitempty"`
	SkewAxis *LottieValueData `json:"sa,omitempty"`
}

// ParseShapeItems decodes a raw "shapes"/"it" JSON array into typed shape
// items, recursing into groups. Items with an unrecognised "ty" decode as
// LottieShapeUnknown rather than failing — the Anim validator (§4.G rule
// 13), not the decoder, is responsible for rejecting them, so a precise
// per-item diagnostic with full path context can be produced.
func ParseShapeItems(raw []json.RawMessage) ([]LottieShapeItem, error) {
	items := make([]LottieShapeItem, 0, len(raw))
	for i, r := range raw {
		item, err := parseShapeItem(r)
		if err != nil {
			return nil, fmt.Errorf("animir: shapes[%d]: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func parseShapeItem(raw json.RawMessage) (LottieShapeItem, error) {
	var j jsonShapeItem
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("decode shape item: %w", err)
	}
	switch j.Type {
	case "sh":
		return LottieShapePath{Name: j.Name, Path: j.Path}, nil
	case "rc":
		return LottieShapeRect{Name: j.Name, Position: j.Position, Size: j.Size, Roundness: j.RoundnessOrRotation, Direction: directionOrDefault(j.direction())}, nil
	case "el":
		return LottieShapeEllipse{Name: j.Name, Position: j.Position, Size: j.Size, Direction: directionOrDefault(j.direction())}, nil
	case "sr":
		return LottieShapePolystar{
			Name: j.Name, PolyType: j.PolyType, Position: j.Position, Points: j.Points,
			Rotation: j.RoundnessOrRotation, InnerRadius: j.InnerRadius, InnerRoundness: j.InnerRoundness,
			OuterRadius: j.OuterRadius, OuterRoundness: j.OuterRoundness, Direction: directionOrDefault(j.direction()),
		}, nil
	case "fl":
		return LottieShapeFill{Name: j.Name, Color: j.Color, Opacity: j.Opacity}, nil
	case "st":
		return LottieShapeStroke{
			Name: j.Name, Color: j.Color, Opacity: j.Opacity, Width: j.Width,
			LineCap: j.LineCap, LineJoin: j.LineJoin, MiterLimit: j.MiterLimit,
			HasDash: j.hasDashes(),
		}, nil
	case "gr":
		children, err := ParseShapeItems(j.Items)
		if err != nil {
			return nil, err
		}
		return LottieShapeGroup{Name: j.Name, Items: children}, nil
	case "tr":
		return LottieShapeTransform{
			Name: j.Name, Anchor: j.Anchor, Position: j.Position, Scale: j.Size,
			Rotation: j.RoundnessOrRotation, Opacity: j.Opacity, SkewVal: j.SkewVal, SkewAxis: j.SkewAxis,
		}, nil
	default:
		return LottieShapeUnknown{Name: j.Name, Type: j.Type}, nil
	}
}

// direction reads "d" as a winding direction number (0 when absent).
func (j jsonShapeItem) direction() int {
	var d int
	_ = json.Unmarshal(j.DirectionOrDashes, &d)
	return d
}

// hasDashes reports whether "d" holds a non-empty dash array.
func (j jsonShapeItem) hasDashes() bool {
	var dashes []json.RawMessage
	return json.Unmarshal(j.DirectionOrDashes, &dashes) == nil && len(dashes) > 0
}

func directionOrDefault(d int) int {
	if d == 0 {
		return 1
	}
	return d
}
