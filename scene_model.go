package animir

import (
	"encoding/json"
	"fmt"
	"math"
)

// Canvas is the scene's output surface description.
type Canvas struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	FPS            float64 `json:"fps"`
	DurationFrames int     `json:"durationFrames"`
}

// Rect is an axis-aligned rectangle in scene coordinates.
type Rect struct {
	X, Y, Width, Height float64 `json:"-"`
}

// UnmarshalJSON decodes a Rect from {"x":_, "y":_, "w":_, "h":_}.
func (r *Rect) UnmarshalJSON(data []byte) error {
	var raw struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		W float64 `json:"w"`
		H float64 `json:"h"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.X, r.Y, r.Width, r.Height = raw.X, raw.Y, raw.W, raw.H
	return nil
}

// MarshalJSON encodes a Rect as {"x":_, "y":_, "w":_, "h":_}.
func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		W float64 `json:"w"`
		H float64 `json:"h"`
	}{r.X, r.Y, r.Width, r.Height})
}

// IsFinitePositive reports whether the rect has positive, finite extents.
func (r Rect) IsFinitePositive() bool {
	return isFinite(r.X) && isFinite(r.Y) && isFinite(r.Width) && isFinite(r.Height) && r.Width > 0 && r.Height > 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ContainerClip names how a MediaBlock clips its content.
type ContainerClip string

const (
	ContainerClipNone     ContainerClip = "none"
	ContainerClipSlotRect ContainerClip = "slotRect"
)

// BlockTiming restricts a MediaBlock to a sub-range of the canvas timeline.
type BlockTiming struct {
	StartFrame int `json:"startFrame"`
	EndFrame   int `json:"endFrame"`
}

// MediaInput describes the binding slot a MediaBlock exposes for
// user-supplied media.
type MediaInput struct {
	Rect         Rect     `json:"rect"`
	BindingKey   string   `json:"bindingKey"`
	AllowedMedia []string `json:"allowedMedia"`
	MaskRef      string   `json:"maskRef,omitempty"`
}

// FrameRange is a half-open [Start, End) frame range, used by a variant's
// optional loopRange.
type FrameRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MediaVariant is one selectable animation variant of a MediaBlock.
type MediaVariant struct {
	VariantID             string      `json:"variantId"`
	AnimRef               string      `json:"animRef"`
	DefaultDurationFrames *int        `json:"defaultDurationFrames,omitempty"`
	LoopRange             *FrameRange `json:"loopRange,omitempty"`
}

// LayerToggle is a user-facing named visibility switch for a layer subset.
type LayerToggle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MediaBlock is one placed, animated slot within the scene.
type MediaBlock struct {
	BlockID        string         `json:"blockId"`
	ZIndex         int            `json:"zIndex"`
	Rect           Rect           `json:"rect"`
	ContainerClip  ContainerClip  `json:"containerClip"`
	Timing         *BlockTiming   `json:"timing,omitempty"`
	Input          MediaInput     `json:"input"`
	Variants       []MediaVariant `json:"variants"`
	LayerToggles   []LayerToggle  `json:"layerToggles,omitempty"`
}

// Scene is the decoded scene.json descriptor (spec §4.B).
type Scene struct {
	SchemaVersion string       `json:"schemaVersion"`
	Canvas        Canvas       `json:"canvas"`
	MediaBlocks   []MediaBlock `json:"mediaBlocks"`
}

// ParseScene decodes raw scene.json bytes.
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("animir: parse scene json: %w", err)
	}
	return &s, nil
}
