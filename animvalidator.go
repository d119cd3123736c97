package animir

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

// CompositeAssetResolver is the injected capability the Anim validator
// consults for asset presence (spec §4.G rule 5, §6). key is an image
// asset's filename basename with its extension stripped. Implementations
// typically chain a "local" stage and a "shared" stage.
type CompositeAssetResolver interface {
	CanResolve(key string) bool
}

// PackageFileChecker is the fallback asset-presence collaborator used when
// no CompositeAssetResolver is supplied: existence at rootURL+relativePath
// (spec §4.G rule 5, §6 — on-disk package layout discovery is an excluded
// external collaborator, so its filesystem check is injected rather than
// hard-coded).
type PackageFileChecker interface {
	Exists(relativePath string) bool
}

// AnimValidatorOptions configures the optional collaborators and toggles
// of the Anim validator; every field defaults sensibly when zero-valued.
type AnimValidatorOptions struct {
	RequireExactlyOneBindingLayer bool
	AllowAnimatedMaskPath         bool
	AssetResolver                 CompositeAssetResolver
	PackageFiles                  PackageFileChecker
}

// DefaultAnimValidatorOptions returns the spec's documented defaults:
// exactly one binding layer required, animated mask paths allowed.
func DefaultAnimValidatorOptions() AnimValidatorOptions {
	return AnimValidatorOptions{RequireExactlyOneBindingLayer: true, AllowAnimatedMaskPath: true}
}

// compComposition pairs a composition id with its layer list, used to walk
// the root composition and every precomp asset uniformly (spec §4.G, §5
// "visits __root__ first and then asset IDs in lexicographic order").
type compComposition struct {
	id     string
	layers []LottieLayer
}

func compositionsInDeclOrder(lottie *LottieJSON) []compComposition {
	comps := []compComposition{{id: "__root__", layers: lottie.Layers}}
	for _, a := range lottie.Assets {
		if a.IsPrecomp() {
			comps = append(comps, compComposition{id: a.ID, layers: a.Layers})
		}
	}
	return comps
}

func compositionsInSearchOrder(lottie *LottieJSON) []compComposition {
	comps := compositionsInDeclOrder(lottie)
	rest := comps[1:]
	sort.Slice(rest, func(i, j int) bool { return rest[i].id < rest[j].id })
	return append(comps[:1:1], rest...)
}

// ValidateAnim runs every subset-enforcement rule of spec §4.G against one
// loaded Lottie document and returns the accumulated report. It never
// mutates lottie or scene.
func ValidateAnim(animRef string, lottie *LottieJSON, scene *Scene, opts AnimValidatorOptions) ValidationReport {
	debugTrace("validating anim %s: %d layers", animRef, len(lottie.Layers))
	var report ValidationReport
	ap := func(field string) string { return fmt.Sprintf("anim(%s).%s", animRef, field) }

	validateRootSanity(&report, animRef, lottie, ap)
	validateFPSInvariant(&report, animRef, lottie, scene, ap)

	bindingKey, ok := firstBindingKeyFor(animRef, scene)
	if ok {
		validateSizeMismatch(&report, animRef, lottie, scene, bindingKey, ap)
	}

	comps := compositionsInDeclOrder(lottie)
	searchComps := compositionsInSearchOrder(lottie)

	var boundCompID string
	var haveBinding bool
	if ok {
		boundCompID, _, haveBinding = validateBindingLayer(&report, animRef, searchComps, bindingKey, opts)
	}

	bindingAssetIDs := bindingAssetIDSet(comps, ok, bindingKey)
	validateAssetPresence(&report, animRef, lottie, bindingAssetIDs, opts)
	validatePrecompReferences(&report, animRef, lottie)

	matteSourceComps := matteSourceContext(lottie)

	for _, comp := range comps {
		layerIDs := layerIDsInOrder(comp.layers)
		for i, layer := range comp.layers {
			validateLayerType(&report, animRef, comp.id, i, layer)
			validateLayerFlags(&report, animRef, comp.id, i, layer, matteSourceComps[comp.id])
			validateTransformSkew(&report, animRef, comp.id, i, layer)
			validateMasks(&report, animRef, comp.id, i, layer, opts)
			validateMattePairing(&report, animRef, comp.id, comp.layers, layerIDs, i, layer)
			if layer.Type == 4 {
				validateShapeItems(&report, animRef, comp.id, i, layer)
			}
		}
	}

	if ok && haveBinding {
		validateMediaInput(&report, animRef, searchComps, boundCompID)
	}

	return report
}

func validateRootSanity(report *ValidationReport, animRef string, lottie *LottieJSON, ap func(string) string) {
	if !(lottie.Width > 0) {
		report.Add(CodeAnimRootInvalid, SeverityError, ap("w"), "animation width must be positive")
	}
	if !(lottie.Height > 0) {
		report.Add(CodeAnimRootInvalid, SeverityError, ap("h"), "animation height must be positive")
	}
	if !(lottie.FrameRate > 0) {
		report.Add(CodeAnimRootInvalid, SeverityError, ap("fr"), "animation frame rate must be positive")
	}
	if !(lottie.OutPoint > lottie.InPoint) {
		report.Add(CodeAnimRootInvalid, SeverityError, ap("op"), "animation outPoint must be greater than inPoint")
	}
}

func validateFPSInvariant(report *ValidationReport, animRef string, lottie *LottieJSON, scene *Scene, ap func(string) string) {
	if scene.Canvas.FPS != lottie.FrameRate {
		report.Add(CodeAnimFPSMismatch, SeverityError, ap("fr"),
			fmt.Sprintf("scene fps=%g does not match animation fr=%g", scene.Canvas.FPS, lottie.FrameRate))
	}
}

// firstBindingKeyFor returns the bindingKey of the first media block whose
// variants reference animRef. A scene is expected to bind one key per
// animation; if several blocks disagree, only the first (in mediaBlocks
// order) drives the binding-specific rules below.
func firstBindingKeyFor(animRef string, scene *Scene) (string, bool) {
	for _, block := range scene.MediaBlocks {
		for _, v := range block.Variants {
			if v.AnimRef == animRef {
				return block.Input.BindingKey, true
			}
		}
	}
	return "", false
}

func validateSizeMismatch(report *ValidationReport, animRef string, lottie *LottieJSON, scene *Scene, bindingKey string, ap func(string) string) {
	seen := make(map[[2]float64]bool)
	for _, block := range scene.MediaBlocks {
		if block.Input.BindingKey != bindingKey {
			continue
		}
		bound := false
		for _, v := range block.Variants {
			if v.AnimRef == animRef {
				bound = true
			}
		}
		if !bound {
			continue
		}
		size := [2]float64{block.Input.Rect.Width, block.Input.Rect.Height}
		if size[0] == lottie.Width && size[1] == lottie.Height {
			continue
		}
		if seen[size] {
			continue
		}
		seen[size] = true
		report.Add(CodeAnimSizeMismatch, SeverityWarning, ap("size"),
			fmt.Sprintf("animation size %gx%g differs from input rect size %gx%g", lottie.Width, lottie.Height, size[0], size[1]))
	}
}

func validateBindingLayer(report *ValidationReport, animRef string, comps []compComposition, bindingKey string, opts AnimValidatorOptions) (compID string, layerID int, ok bool) {
	type match struct {
		compID string
		layer  LottieLayer
		id     int
	}
	var matches []match
	for _, comp := range comps {
		for i, layer := range comp.layers {
			if layer.Name == bindingKey {
				matches = append(matches, match{compID: comp.id, layer: layer, id: layer.LayerID(i)})
			}
		}
	}

	p := fmt.Sprintf("anim(%s).binding(%s)", animRef, bindingKey)
	if len(matches) == 0 {
		report.Add(CodeBindingLayerNotFound, SeverityError, p, "no layer named "+bindingKey+" found")
		return "", 0, false
	}
	if opts.RequireExactlyOneBindingLayer && len(matches) > 1 {
		report.Add(CodeBindingLayerAmbiguous, SeverityError, p, fmt.Sprintf("%d layers named %s found", len(matches), bindingKey))
		return "", 0, false
	}

	m := matches[0]
	if m.layer.Type != 2 {
		report.Add(CodeBindingLayerNotImage, SeverityError, p, "binding layer must be an image layer (ty=2)")
		return "", 0, false
	}
	if m.layer.RefID == "" {
		report.Add(CodeBindingLayerNoAsset, SeverityError, p, "binding layer has no refId")
		return "", 0, false
	}
	return m.compID, m.id, true
}

func bindingAssetIDSet(comps []compComposition, ok bool, bindingKey string) map[string]bool {
	ids := make(map[string]bool)
	if !ok {
		return ids
	}
	for _, comp := range comps {
		for _, layer := range comp.layers {
			if layer.Name == bindingKey && layer.Type == 2 && layer.RefID != "" {
				ids[layer.RefID] = true
			}
		}
	}
	return ids
}

func validateAssetPresence(report *ValidationReport, animRef string, lottie *LottieJSON, bindingAssetIDs map[string]bool, opts AnimValidatorOptions) {
	if opts.AssetResolver == nil && opts.PackageFiles == nil {
		return
	}
	for _, a := range lottie.Assets {
		if !a.IsImage() || bindingAssetIDs[a.ID] {
			continue
		}
		rel := a.RelativePath()
		p := fmt.Sprintf("anim(%s).assets[%s]", animRef, a.ID)
		if opts.AssetResolver != nil {
			base := path.Base(rel)
			key := strings.TrimSuffix(base, path.Ext(base))
			if !opts.AssetResolver.CanResolve(key) {
				report.Add(CodeAssetMissing, SeverityError, p, "asset not resolvable: "+key)
			}
			continue
		}
		if !opts.PackageFiles.Exists(rel) {
			report.Add(CodeAssetMissing, SeverityError, p, "asset file not found: "+rel)
		}
	}
}

func validatePrecompReferences(report *ValidationReport, animRef string, lottie *LottieJSON) {
	for _, comp := range compositionsInDeclOrder(lottie) {
		for i, layer := range comp.layers {
			if layer.Type != 0 {
				continue
			}
			a, found := lottie.AssetByID(layer.RefID)
			if !found || !a.IsPrecomp() {
				report.Add(CodePrecompRefMissing, SeverityError,
					fmt.Sprintf("anim(%s).%s.layers[%d].refId", animRef, comp.id, i),
					"precomp reference not found: "+layer.RefID)
			}
		}
	}
}

var supportedLayerTypes = map[int]bool{0: true, 2: true, 3: true, 4: true}

func validateLayerType(report *ValidationReport, animRef, compID string, i int, layer LottieLayer) {
	if !supportedLayerTypes[layer.Type] {
		report.Add(CodeUnsupportedLayerType, SeverityError, layerPath(animRef, compID, i, layer), fmt.Sprintf("unsupported layer type: %d", layer.Type))
	}
}

func validateLayerFlags(report *ValidationReport, animRef, compID string, i int, layer LottieLayer, inMatteSourceContext bool) {
	p := layerPath(animRef, compID, i, layer)
	if bool(layer.ThreeD) {
		report.Add(CodeUnsupported3D, SeverityError, p, "3D layers are unsupported")
	}
	if bool(layer.AutoOrient) {
		report.Add(CodeUnsupportedAutoOrient, SeverityError, p, "auto-orient is unsupported")
	}
	if layer.Stretch != nil && *layer.Stretch != 1 {
		report.Add(CodeUnsupportedStretch, SeverityError, p, "time-stretch is unsupported")
	}
	if layer.BlendMode != 0 {
		report.Add(CodeUnsupportedBlendMode, SeverityError, p, fmt.Sprintf("unsupported blend mode: %d", layer.BlendMode))
	}
	if bool(layer.CollapseTransform) && !bool(layer.Hidden) && !inMatteSourceContext {
		report.Add(CodeUnsupportedCollapseTransform, SeverityWarning, p, "collapse transform is ignored, best-effort")
	}
}

func validateTransformSkew(report *ValidationReport, animRef, compID string, i int, layer LottieLayer) {
	validateSkewValue(report, animRef, compID, i, layer, layer.Transform.SkewVal)
}

func validateSkewValue(report *ValidationReport, animRef, compID string, i int, layer LottieLayer, sk *LottieValueData) {
	if sk == nil {
		return
	}
	p := layerPath(animRef, compID, i, layer) + ".ks.sk"
	switch sk.Kind {
	case LottieValueNumber:
		if sk.Number != 0 {
			report.Add(CodeUnsupportedSkew, SeverityError, p, "static skew must be zero")
		}
	case LottieValueArray:
		if len(sk.Array) > 0 && sk.Array[0] != 0 {
			report.Add(CodeUnsupportedSkew, SeverityError, p, "static skew must be zero")
		}
	case LottieValueKeyframes:
		report.Add(CodeUnsupportedSkew, SeverityError, p, "animated skew is unsupported")
	default:
		report.Add(CodeUnsupportedSkew, SeverityError, p, "unrecognised skew value format")
	}
}

var supportedMaskModes = map[string]bool{"a": true, "s": true, "i": true}

func validateMasks(report *ValidationReport, animRef, compID string, layerIndex int, layer LottieLayer, opts AnimValidatorOptions) {
	for i, m := range layer.Masks {
		p := fmt.Sprintf("%s.masksProperties[%d]", layerPath(animRef, compID, layerIndex, layer), i)
		if !supportedMaskModes[m.Mode] {
			report.Add(CodeUnsupportedMaskMode, SeverityError, p+".mode",
				fmt.Sprintf("unsupported mask mode '%s' (supported: a, s, i)", m.Mode))
		}

		if m.Path.Kind == LottieValueKeyframes {
			if !opts.AllowAnimatedMaskPath {
				report.Add(CodeUnsupportedMaskPathAnimated, SeverityError, p+".pt", "animated mask path is unsupported")
			} else if _, err := m.Path.AsAnimPath(); err != nil {
				code := CodePathTopologyMismatch
				if errors.Is(err, errPathKeyframesMissing) {
					code = CodePathKeyframesMissing
				}
				report.Add(code, SeverityError, p+".pt", err.Error())
			}
		}

		if m.Opacity.Kind == LottieValueKeyframes {
			report.Add(CodeUnsupportedMaskOpacityAnimated, SeverityError, p+".o", "animated mask opacity is unsupported")
		}

		validateMaskExpansion(report, p+".x", m.Expansion)
	}
}

func validateMaskExpansion(report *ValidationReport, p string, x *LottieValueData) {
	if x == nil {
		return
	}
	switch x.Kind {
	case LottieValueNumber:
		if x.Number != 0 {
			report.Add(CodeUnsupportedMaskExpansionNonzero, SeverityError, p, "mask expansion must be zero")
		}
	case LottieValueArray:
		if len(x.Array) > 0 && x.Array[0] != 0 {
			report.Add(CodeUnsupportedMaskExpansionNonzero, SeverityError, p, "mask expansion must be zero")
		}
	case LottieValueKeyframes:
		report.Add(CodeUnsupportedMaskExpansionAnimated, SeverityError, p, "animated mask expansion is unsupported")
	default:
		report.Add(CodeUnsupportedMaskExpansionFormat, SeverityError, p, "unrecognised mask expansion format")
	}
}

func layerIDsInOrder(layers []LottieLayer) []int {
	ids := make([]int, len(layers))
	for i, l := range layers {
		ids[i] = l.LayerID(i)
	}
	return ids
}

func validateMattePairing(report *ValidationReport, animRef, compID string, layers []LottieLayer, layerIDs []int, i int, layer LottieLayer) {
	if layer.TrackMatteType == 0 {
		return
	}
	p := layerPath(animRef, compID, i, layer)
	if layer.TrackMatteType < 1 || layer.TrackMatteType > 4 {
		report.Add(CodeUnsupportedMatteType, SeverityError, p+".tt", fmt.Sprintf("unsupported track matte type: %d", layer.TrackMatteType))
		return
	}

	if layer.TrackMatteTarget != nil {
		targetIdx := -1
		for j, id := range layerIDs {
			if id == *layer.TrackMatteTarget {
				targetIdx = j
				break
			}
		}
		if targetIdx < 0 {
			report.Add(CodeMatteTargetNotFound, SeverityError, p+".tp", fmt.Sprintf("matte target %d not found", *layer.TrackMatteTarget))
		} else if targetIdx >= i {
			report.Add(CodeMatteInvalidOrder, SeverityError, p+".tp", "matte target must appear earlier in the layer list")
		}
		return
	}

	if i == 0 {
		report.Add(CodeUnsupportedMatteLayerMissing, SeverityError, p, "matte consumer has no preceding source layer")
		return
	}
	if !bool(layers[i-1].IsTrackMatteSource) {
		report.Add(CodeUnsupportedMatteLayerOrder, SeverityError, p, "preceding layer is not a matte source (td=1)")
	}
}

// matteSourceContext returns, per composition id, whether any layer inside
// it is (transitively, via td=1 precomp references) used purely as matte
// geometry — the "matte-source context" of spec §4.G rule 14, built by a
// BFS over td=1 precomp references starting from every directly referenced
// precomp.
func matteSourceContext(lottie *LottieJSON) map[string]bool {
	inContext := make(map[string]bool)
	queue := []string{}
	for _, comp := range compositionsInDeclOrder(lottie) {
		for _, layer := range comp.layers {
			if layer.Type == 0 && bool(layer.IsTrackMatteSource) {
				if !inContext[layer.RefID] {
					inContext[layer.RefID] = true
					queue = append(queue, layer.RefID)
				}
			}
		}
	}
	for len(queue) > 0 {
		compID := queue[0]
		queue = queue[1:]
		a, found := lottie.AssetByID(compID)
		if !found {
			continue
		}
		for _, layer := range a.Layers {
			if layer.Type == 0 && bool(layer.IsTrackMatteSource) {
				if !inContext[layer.RefID] {
					inContext[layer.RefID] = true
					queue = append(queue, layer.RefID)
				}
			}
		}
	}
	return inContext
}

var supportedTopLevelShapeTypes = map[string]bool{"gr": true, "sh": true, "fl": true, "tr": true, "rc": true, "el": true, "sr": true, "st": true}

func validateShapeItems(report *ValidationReport, animRef, compID string, i int, layer LottieLayer) {
	items, err := ParseShapeItems(layer.Shapes)
	if err != nil {
		report.Add(CodeUnsupportedShapeItem, SeverityError, layerPath(animRef, compID, i, layer)+".shapes", err.Error())
		return
	}
	base := layerPath(animRef, compID, i, layer) + ".shapes"
	validateShapeItemList(report, base, items)
}

func validateShapeItemList(report *ValidationReport, base string, items []LottieShapeItem) {
	for i, item := range items {
		p := fmt.Sprintf("%s[%d].ty", base, i)
		if !supportedTopLevelShapeTypes[item.ShapeType()] {
			report.Add(CodeUnsupportedShapeItem, SeverityError, p, "unsupported shape item type: "+item.ShapeType())
			continue
		}
		if g, isGroup := item.(LottieShapeGroup); isGroup {
			validateShapeItemList(report, fmt.Sprintf("%s[%d].it", base, i), g.Items)
		}
	}
}

var forbiddenMediaInputModifiers = map[string]bool{"tm": true, "mm": true, "rp": true, "gf": true, "gs": true, "rd": true}

func validateMediaInput(report *ValidationReport, animRef string, comps []compComposition, boundCompID string) {
	for _, comp := range comps {
		for i, layer := range comp.layers {
			if layer.Name != "mediaInput" {
				continue
			}
			p := layerPath(animRef, comp.id, i, layer)
			if layer.Type != 4 {
				report.Add(CodeMediaInputNotShape, SeverityWarning, p, "mediaInput layer must be ty=4")
				continue
			}
			if comp.id != boundCompID {
				report.Add(CodeMediaInputNotInSameComp, SeverityWarning, p, "mediaInput must be in the same composition as the binding layer")
				continue
			}

			items, err := ParseShapeItems(layer.Shapes)
			if err != nil {
				report.Add(CodeMediaInputNoPath, SeverityWarning, p, "mediaInput shapes failed to decode: "+err.Error())
				continue
			}
			pathCount := 0
			countMediaInputPaths(items, &pathCount)
			if pathCount == 0 {
				report.Add(CodeMediaInputNoPath, SeverityWarning, p, "mediaInput has no path-producing shape")
			} else if pathCount > 1 {
				report.Add(CodeMediaInputMultiplePaths, SeverityWarning, p, "mediaInput must contain exactly one path shape")
			}
			if hasForbiddenModifier(items) {
				report.Add(CodeMediaInputForbiddenModifier, SeverityWarning, p, "mediaInput contains a forbidden modifier")
			}
		}
	}
}

func countMediaInputPaths(items []LottieShapeItem, count *int) {
	for _, item := range items {
		switch v := item.(type) {
		case LottieShapePath, LottieShapeRect, LottieShapeEllipse, LottieShapePolystar:
			*count++
		case LottieShapeGroup:
			countMediaInputPaths(v.Items, count)
		}
	}
}

func hasForbiddenModifier(items []LottieShapeItem) bool {
	for _, item := range items {
		if forbiddenMediaInputModifiers[item.ShapeType()] {
			return true
		}
		if g, ok := item.(LottieShapeGroup); ok && hasForbiddenModifier(g.Items) {
			return true
		}
	}
	return false
}

func layerPath(animRef, compID string, index int, layer LottieLayer) string {
	return fmt.Sprintf("anim(%s).%s.layers[%d](%s)", animRef, compID, index, layerDisplayName(layer))
}

func layerDisplayName(layer LottieLayer) string {
	if layer.Name != "" {
		return layer.Name
	}
	return "?"
}
