package animir

import (
	"errors"
	"fmt"
)

// rootCompID is the reserved composition id for a document's top-level
// layer list (spec §3).
const rootCompID = "__root__"

// LayerType is the IR's restricted set of renderable layer kinds, a
// narrowing of Lottie's "ty" to the subset spec §4.G enforces elsewhere.
type LayerType int

const (
	LayerTypePrecomp LayerType = iota
	LayerTypeImage
	LayerTypeNull
	LayerTypeShape
)

func layerTypeFromLottie(ty int) (LayerType, bool) {
	switch ty {
	case 0:
		return LayerTypePrecomp, true
	case 2:
		return LayerTypeImage, true
	case 3:
		return LayerTypeNull, true
	case 4:
		return LayerTypeShape, true
	default:
		return 0, false
	}
}

// MaskMode is a mask's compositing operation, lifted from Lottie's
// single-letter "mode" string.
type MaskMode string

const (
	MaskModeAdd       MaskMode = "add"
	MaskModeSubtract  MaskMode = "subtract"
	MaskModeIntersect MaskMode = "intersect"
)

func maskModeFromString(m string) (MaskMode, bool) {
	switch m {
	case "a":
		return MaskModeAdd, true
	case "s":
		return MaskModeSubtract, true
	case "i":
		return MaskModeIntersect, true
	default:
		return "", false
	}
}

// MatteMode is a track matte's compositing behavior, lifted from Lottie's
// numeric "tt".
type MatteMode int

const (
	MatteModeAlpha MatteMode = iota + 1
	MatteModeAlphaInverted
	MatteModeLuma
	MatteModeLumaInverted
)

func matteModeFromInt(tt int) (MatteMode, bool) {
	switch tt {
	case 1:
		return MatteModeAlpha, true
	case 2:
		return MatteModeAlphaInverted, true
	case 3:
		return MatteModeLuma, true
	case 4:
		return MatteModeLumaInverted, true
	default:
		return 0, false
	}
}

// LayerTiming is a layer's visibility window in the owning composition's
// local frame space.
type LayerTiming struct {
	InPoint   float64
	OutPoint  float64
	StartTime float64
}

// ContentKind tags a LayerContent (spec §9 "tagged unions over
// inheritance" — a flat struct instead of a content interface hierarchy).
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentImage
	ContentPrecomp
	ContentShapes
)

// LayerContent is a layer's renderable payload. Exactly one of AssetID,
// CompID, Shapes is meaningful, selected by Kind.
type LayerContent struct {
	Kind    ContentKind
	AssetID string      // ContentImage: namespaced asset id
	CompID  string      // ContentPrecomp: referenced composition id
	Shapes  *ShapeGroup // ContentShapes
}

// Mask is one compiled entry of a layer's masksProperties.
type Mask struct {
	Mode     MaskMode
	Inverted bool
	Opacity  float64 // 0..100; animated mask opacity is rejected upstream
	Path     AnimPath
	PathID   PathID
}

// MatteInfo pairs a matte consumer layer with its source.
type MatteInfo struct {
	Mode         MatteMode
	SourceLayerID int
}

// Layer is one compiled entry of a Composition's layer list.
type Layer struct {
	ID            int
	Name          string
	Type          LayerType
	Timing        LayerTiming
	Parent        *int
	Transform     TransformTrack
	Masks         []Mask
	Matte         *MatteInfo
	Content       LayerContent
	IsMatteSource bool
	IsHidden      bool
}

// SizeD is a plain width/height pair.
type SizeD struct {
	W, H float64
}

// Composition is one compiled layer list: the root document or a
// precomposition asset. Layers retain their source array order.
type Composition struct {
	ID     string
	Size   SizeD
	Layers []Layer
}

// BindingInfo records where a scene's mediaInput binds into this
// animation's layer graph.
type BindingInfo struct {
	BindingKey   string
	BoundLayerID int
	BoundAssetID string
	BoundCompID  string
}

// InputGeometryInfo is the extracted mediaInput placeholder shape, if one
// was found alongside the binding layer.
type InputGeometryInfo struct {
	LayerID  int
	PathID   PathID
	AnimPath AnimPath
	CompID   string
}

// AssetIndexIR rebuilds a Lottie asset list keyed by namespaced asset id,
// so that two animations sharing an "img_0" id never collide.
type AssetIndexIR struct {
	ByID     map[string]string
	SizeByID map[string][2]float64
}

// Meta is an animation's root-level timing and size.
type Meta struct {
	W, H          float64
	FPS           float64
	InPoint       float64
	OutPoint      float64
	SourceAnimRef string
}

// AnimIR is one animation's fully compiled intermediate representation:
// everything the render command generator needs, with no remaining
// reference to raw Lottie types.
type AnimIR struct {
	Meta          Meta
	RootComp      string
	Comps         map[string]Composition
	Assets        AssetIndexIR
	Binding       BindingInfo
	PathRegistry  *PathRegistry
	InputGeometry *InputGeometryInfo

	lastRenderIssues         []RenderIssue
	compContainsBindingCache map[string]bool
}

// namespacedAssetID qualifies a Lottie-local asset id with its owning
// animation, so that the same id from two different anims never collides
// once both share a scene's asset index (spec §3).
func namespacedAssetID(animRef, lottieAssetID string) string {
	return animRef + "|" + lottieAssetID
}

// Compile lowers a loaded Lottie document into an AnimIR (spec §4.H).
// bindingKey names the layer a scene's mediaInput binds to; registry is
// the scene-shared PathRegistry all mask and shape paths are registered
// into; triangulator is the injected earcut-shaped collaborator (spec
// §1) used to build every PathResource.
func Compile(animRef string, lottie *LottieJSON, bindingKey string, registry *PathRegistry, triangulator Triangulator) (*AnimIR, error) {
	debugTrace("compiling %s: %d layers", animRef, len(lottie.Layers))
	builder := NewPathResourceBuilder(triangulator)

	comps := make(map[string]Composition, len(lottie.Assets)+1)
	for _, c := range compositionsInDeclOrder(lottie) {
		compiled, err := compileComposition(animRef, lottie, c.id, c.layers, registry, builder)
		if err != nil {
			return nil, err
		}
		comps[c.id] = compiled
	}

	binding, err := resolveBindingInfo(animRef, lottie, bindingKey)
	if err != nil {
		return nil, err
	}
	for _, c := range compositionsInSearchOrder(lottie) {
		for i, layer := range c.layers {
			if layer.Name == "mediaInput" && layer.Type == 4 && c.id != binding.BoundCompID {
				return nil, &CompileError{AnimRef: animRef, Code: CodeMediaInputNotInSameComp, Message: "mediaInput must be in the same composition as the binding layer", Path: layerPath(animRef, c.id, i, layer)}
			}
		}
	}

	debugTrace("compiled %s: %d compositions", animRef, len(comps))
	return &AnimIR{
		Meta: Meta{
			W:             lottie.Width,
			H:             lottie.Height,
			FPS:           lottie.FrameRate,
			InPoint:       lottie.InPoint,
			OutPoint:      lottie.OutPoint,
			SourceAnimRef: animRef,
		},
		RootComp:      rootCompID,
		Comps:         comps,
		Assets:        buildAssetIndex(animRef, lottie),
		Binding:       binding,
		PathRegistry:  registry,
		InputGeometry: resolveMediaInput(animRef, lottie, binding, registry, builder),
	}, nil
}

func compileComposition(animRef string, lottie *LottieJSON, compID string, layers []LottieLayer, registry *PathRegistry, builder *PathResourceBuilder) (Composition, error) {
	layerIDs := layerIDsInOrder(layers)
	consumerToSource, forcedSources := pairMattesInComposition(layers, layerIDs)

	compiled := make([]Layer, len(layers))
	for i, raw := range layers {
		l, err := compileLayer(animRef, lottie, compID, i, raw, layerIDs[i], consumerToSource, forcedSources, registry, builder)
		if err != nil {
			return Composition{}, err
		}
		compiled[i] = l
	}

	size := SizeD{W: lottie.Width, H: lottie.Height}
	if compID != rootCompID {
		if a, found := lottie.AssetByID(compID); found {
			size = SizeD{W: a.Width, H: a.Height}
		}
	}
	return Composition{ID: compID, Size: size, Layers: compiled}, nil
}

// pairMattesInComposition runs pass 1 of spec §4.H's matte pairing: every
// consumer (tt != 0) is resolved to its source layer id, via an explicit
// tp target (requiring a strictly earlier layer) or, absent tp, via
// adjacency to a preceding td=1 layer. forcedSources collects every
// source id regardless of its own td flag, since a layer referenced by
// tp is a matte source even when it never set td itself.
func pairMattesInComposition(layers []LottieLayer, layerIDs []int) (consumerToSource map[int]int, forcedSources map[int]bool) {
	consumerToSource = make(map[int]int)
	forcedSources = make(map[int]bool)
	for i, layer := range layers {
		if layer.TrackMatteType == 0 {
			continue
		}
		id := layerIDs[i]
		if layer.TrackMatteTarget != nil {
			for j, otherID := range layerIDs {
				if otherID == *layer.TrackMatteTarget && j < i {
					consumerToSource[id] = otherID
					forcedSources[otherID] = true
					break
				}
			}
			continue
		}
		if i > 0 && bool(layers[i-1].IsTrackMatteSource) {
			consumerToSource[id] = layerIDs[i-1]
			forcedSources[layerIDs[i-1]] = true
		}
	}
	return consumerToSource, forcedSources
}

func compileLayer(animRef string, lottie *LottieJSON, compID string, index int, raw LottieLayer, id int, consumerToSource map[int]int, forcedSources map[int]bool, registry *PathRegistry, builder *PathResourceBuilder) (Layer, error) {
	p := layerPath(animRef, compID, index, raw)

	lt, ok := layerTypeFromLottie(raw.Type)
	if !ok {
		return Layer{}, &CompileError{AnimRef: animRef, Code: CodeUnsupportedLayerType, Message: fmt.Sprintf("unsupported layer type: %d", raw.Type), Path: p}
	}

	transform, err := compileTransform(raw.Transform)
	if err != nil {
		return Layer{}, wrapCompileErr(animRef, p+".ks", err)
	}

	masks, err := compileMasks(animRef, p, raw.Masks, registry, builder)
	if err != nil {
		return Layer{}, err
	}

	content, err := compileContent(animRef, p, raw, registry, builder)
	if err != nil {
		return Layer{}, err
	}

	outPoint := raw.OutPoint
	if outPoint == 0 {
		outPoint = lottie.OutPoint
	}

	var matte *MatteInfo
	if srcID, found := consumerToSource[id]; found {
		if mode, ok := matteModeFromInt(raw.TrackMatteType); ok {
			matte = &MatteInfo{Mode: mode, SourceLayerID: srcID}
		}
	}

	return Layer{
		ID:            id,
		Name:          raw.Name,
		Type:          lt,
		Timing:        LayerTiming{InPoint: raw.InPoint, OutPoint: outPoint, StartTime: raw.StartTime},
		Parent:        raw.Parent,
		Transform:     transform,
		Masks:         masks,
		Matte:         matte,
		Content:       content,
		IsMatteSource: bool(raw.IsTrackMatteSource) || forcedSources[id],
		IsHidden:      bool(raw.Hidden),
	}, nil
}

func compileTransform(ks LottieTransform) (TransformTrack, error) {
	position, err := ks.Position.AsVec2Track()
	if err != nil {
		return TransformTrack{}, err
	}
	scale, err := ks.Scale.AsVec2Track()
	if err != nil {
		return TransformTrack{}, err
	}
	rotation, err := ks.Rotation.AsFloat64Track()
	if err != nil {
		return TransformTrack{}, err
	}
	opacity, err := ks.Opacity.AsFloat64Track()
	if err != nil {
		return TransformTrack{}, err
	}
	anchor, err := ks.Anchor.AsVec2Track()
	if err != nil {
		return TransformTrack{}, err
	}
	return TransformTrack{Position: position, Scale: scale, Rotation: rotation, Opacity: opacity, Anchor: anchor}, nil
}

func compileMasks(animRef, layerPath string, items []LottieMaskItem, registry *PathRegistry, builder *PathResourceBuilder) ([]Mask, error) {
	if len(items) == 0 {
		return nil, nil
	}
	masks := make([]Mask, len(items))
	for i, m := range items {
		p := fmt.Sprintf("%s.masksProperties[%d]", layerPath, i)

		mode, ok := maskModeFromString(m.Mode)
		if !ok {
			return nil, &CompileError{AnimRef: animRef, Code: CodeUnsupportedMaskMode, Message: "unsupported mask mode: " + m.Mode, Path: p + ".mode"}
		}

		animPath, err := m.Path.AsAnimPath()
		if err != nil {
			return nil, wrapCompileErr(animRef, p+".pt", err)
		}
		resource := builder.BuildAnimated(animPath, defaultFlatness)
		if resource == nil {
			return nil, &CompileError{AnimRef: animRef, Code: CodeMaskPathBuildFailed, Message: "mask path failed to triangulate", Path: p + ".pt"}
		}

		opacityTrack, err := m.Opacity.AsFloat64Track()
		if err != nil {
			return nil, wrapCompileErr(animRef, p+".o", err)
		}

		masks[i] = Mask{
			Mode:     mode,
			Inverted: m.Inverted,
			Opacity:  float64(opacityTrack.StaticValue()),
			Path:     animPath,
			PathID:   registry.Register(resource),
		}
	}
	return masks, nil
}

func compileContent(animRef, layerPath string, raw LottieLayer, registry *PathRegistry, builder *PathResourceBuilder) (LayerContent, error) {
	switch raw.Type {
	case 0:
		return LayerContent{Kind: ContentPrecomp, CompID: raw.RefID}, nil
	case 2:
		return LayerContent{Kind: ContentImage, AssetID: namespacedAssetID(animRef, raw.RefID)}, nil
	case 3:
		return LayerContent{Kind: ContentNone}, nil
	case 4:
		items, err := ParseShapeItems(raw.Shapes)
		if err != nil {
			return LayerContent{}, &CompileError{AnimRef: animRef, Code: CodeUnsupportedShapeItem, Message: err.Error(), Path: layerPath + ".shapes"}
		}
		// The anim validator (spec §4.G rule 13) is expected to have
		// already rejected any surviving "tm" item; this panics rather
		// than degrading if it somehow did not (spec §9).
		validateNoTrimPaths(items)

		sg, err := ExtractShapeGroup(items)
		if err != nil {
			return LayerContent{}, wrapCompileErr(animRef, layerPath+".shapes", err)
		}
		if sg.HasPath {
			resource := builder.BuildAnimated(sg.AnimPath, defaultFlatness)
			if resource == nil {
				return LayerContent{}, &CompileError{AnimRef: animRef, Code: CodeShapePathBuildFailed, Message: "shape path failed to triangulate", Path: layerPath + ".shapes"}
			}
			sg.PathID = registry.Register(resource)
		}
		return LayerContent{Kind: ContentShapes, Shapes: sg}, nil
	default:
		return LayerContent{}, &CompileError{AnimRef: animRef, Code: CodeUnsupportedLayerType, Message: fmt.Sprintf("unsupported layer type: %d", raw.Type), Path: layerPath}
	}
}

// wrapCompileErr lifts an extraction/decoding error into a typed
// CompileError, recovering the precise code from the known sentinels
// where one is carried and falling back to the shape-item catch-all
// otherwise.
func wrapCompileErr(animRef, p string, err error) error {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return &CompileError{AnimRef: animRef, Code: ee.Code, Message: ee.Message, Path: p}
	}
	code := CodeUnsupportedShapeItem
	switch {
	case errors.Is(err, errPathKeyframesMissing):
		code = CodePathKeyframesMissing
	case errors.Is(err, errPathTopologyMismatch):
		code = CodePathTopologyMismatch
	}
	return &CompileError{AnimRef: animRef, Code: code, Message: err.Error(), Path: p}
}

func resolveBindingInfo(animRef string, lottie *LottieJSON, bindingKey string) (BindingInfo, error) {
	p := fmt.Sprintf("anim(%s).binding(%s)", animRef, bindingKey)
	for _, comp := range compositionsInSearchOrder(lottie) {
		for i, layer := range comp.layers {
			if layer.Name != bindingKey {
				continue
			}
			if layer.Type != 2 {
				return BindingInfo{}, &CompileError{AnimRef: animRef, Code: CodeBindingLayerNotImage, Message: "binding layer must be an image layer (ty=2)", Path: p}
			}
			if layer.RefID == "" {
				return BindingInfo{}, &CompileError{AnimRef: animRef, Code: CodeBindingLayerNoAsset, Message: "binding layer has no refId", Path: p}
			}
			return BindingInfo{
				BindingKey:   bindingKey,
				BoundLayerID: layer.LayerID(i),
				BoundAssetID: namespacedAssetID(animRef, layer.RefID),
				BoundCompID:  comp.id,
			}, nil
		}
	}
	return BindingInfo{}, &CompileError{AnimRef: animRef, Code: CodeBindingLayerNotFound, Message: "no layer named " + bindingKey + " found", Path: p}
}

func buildAssetIndex(animRef string, lottie *LottieJSON) AssetIndexIR {
	byID := make(map[string]string)
	sizeByID := make(map[string][2]float64)
	for _, a := range lottie.Assets {
		if !a.IsImage() {
			continue
		}
		id := namespacedAssetID(animRef, a.ID)
		byID[id] = a.RelativePath()
		sizeByID[id] = [2]float64{a.Width, a.Height}
	}
	return AssetIndexIR{ByID: byID, SizeByID: sizeByID}
}

// resolveMediaInput searches every composition in deterministic order for
// a ty=4 layer named "mediaInput" sharing the binding layer's
// composition, and registers its extracted path. Absence, or any
// extraction failure, silently yields nil: the anim validator already
// emits a diagnostic for a missing or malformed mediaInput (spec §4.H).
func resolveMediaInput(animRef string, lottie *LottieJSON, binding BindingInfo, registry *PathRegistry, builder *PathResourceBuilder) *InputGeometryInfo {
	for _, comp := range compositionsInSearchOrder(lottie) {
		if comp.id != binding.BoundCompID {
			continue
		}
		for i, layer := range comp.layers {
			if layer.Name != "mediaInput" || layer.Type != 4 {
				continue
			}
			items, err := ParseShapeItems(layer.Shapes)
			if err != nil {
				return nil
			}
			animPath, found, err := extractAnimPath(items)
			if err != nil || !found {
				return nil
			}
			resource := builder.BuildAnimated(animPath, defaultFlatness)
			if resource == nil {
				return nil
			}
			return &InputGeometryInfo{
				LayerID:  layer.LayerID(i),
				PathID:   registry.Register(resource),
				AnimPath: animPath,
				CompID:   comp.id,
			}
		}
	}
	return nil
}
