package animir

import "strconv"

// MaskCatalog is the injected capability a Scene validator consults to
// check an optional input.maskRef against known masks (spec §4.F).
type MaskCatalog interface {
	HasMask(ref string) bool
}

var defaultSupportedSchemaVersions = map[string]bool{"0.1": true}
var defaultSupportedContainerClips = map[ContainerClip]bool{
	ContainerClipNone:     true,
	ContainerClipSlotRect: true,
}
var allowedMediaKinds = map[string]bool{
	"image": true,
	"video": true,
	"gif":   true,
}

// SceneValidatorOptions configures the supported-value sets a Scene
// validator checks against; both default to the spec's documented sets
// when left zero-valued.
type SceneValidatorOptions struct {
	SupportedSchemaVersions map[string]bool
	SupportedContainerClips map[ContainerClip]bool
	MaskCatalog             MaskCatalog
}

// ValidateScene runs every structural check of spec §4.F against a
// decoded Scene, returning an accumulated report. It never mutates scene
// and never throws.
func ValidateScene(scene *Scene, opts SceneValidatorOptions) ValidationReport {
	debugTrace("validating scene: %d media blocks", len(scene.MediaBlocks))
	var report ValidationReport
	schemas := opts.SupportedSchemaVersions
	if schemas == nil {
		schemas = defaultSupportedSchemaVersions
	}
	clips := opts.SupportedContainerClips
	if clips == nil {
		clips = defaultSupportedContainerClips
	}

	if !schemas[scene.SchemaVersion] {
		report.Add(CodeAnimRootInvalid, SeverityError, "schemaVersion", "unsupported schema version: "+scene.SchemaVersion)
	}

	c := scene.Canvas
	if c.Width <= 0 {
		report.Add(CodeAnimRootInvalid, SeverityError, "canvas.width", "canvas width must be positive")
	}
	if c.Height <= 0 {
		report.Add(CodeAnimRootInvalid, SeverityError, "canvas.height", "canvas height must be positive")
	}
	if c.FPS <= 0 {
		report.Add(CodeAnimRootInvalid, SeverityError, "canvas.fps", "canvas fps must be positive")
	}
	if c.DurationFrames <= 0 {
		report.Add(CodeAnimRootInvalid, SeverityError, "canvas.durationFrames", "canvas durationFrames must be positive")
	}

	if len(scene.MediaBlocks) == 0 {
		report.Add(CodeAnimRootInvalid, SeverityError, "mediaBlocks", "scene has no media blocks")
	}
	seenBlockIDs := make(map[string]bool, len(scene.MediaBlocks))
	for i, block := range scene.MediaBlocks {
		validateMediaBlock(&report, c, clips, opts.MaskCatalog, i, block, seenBlockIDs)
	}

	return report
}

func validateMediaBlock(report *ValidationReport, canvas Canvas, clips map[ContainerClip]bool, catalog MaskCatalog, i int, block MediaBlock, seen map[string]bool) {
	path := blockPath(i)

	if block.BlockID == "" {
		report.Add(CodeAnimRootInvalid, SeverityError, path+".blockId", "blockId must not be empty")
	} else if seen[block.BlockID] {
		report.Add(CodeAnimRootInvalid, SeverityError, path+".blockId", "duplicate blockId: "+block.BlockID)
	} else {
		seen[block.BlockID] = true
	}

	if !block.Rect.IsFinitePositive() {
		report.Add(CodeAnimRootInvalid, SeverityError, path+".rect", "block rect must be finite and positive")
	} else if rectOutsideCanvas(block.Rect, canvas) {
		report.Add(CodeAnimRootInvalid, SeverityWarning, path+".rect", "block rect extends outside the canvas")
	}

	if !clips[block.ContainerClip] {
		report.Add(CodeAnimRootInvalid, SeverityError, path+".containerClip", "unsupported containerClip: "+string(block.ContainerClip))
	}

	if block.Timing != nil {
		t := block.Timing
		if !(0 <= t.StartFrame && t.StartFrame < t.EndFrame && t.EndFrame <= canvas.DurationFrames) {
			report.Add(CodeAnimRootInvalid, SeverityError, path+".timing", "timing range must satisfy 0 <= startFrame < endFrame <= durationFrames")
		}
	}

	validateSceneMediaInput(report, path+".input", block.Input, catalog)

	if len(block.Variants) == 0 {
		report.Add(CodeAnimRootInvalid, SeverityError, path+".variants", "block has no variants")
	}
	for vi, variant := range block.Variants {
		vpath := path + ".variants[" + strconv.Itoa(vi) + "]"
		if variant.AnimRef == "" {
			report.Add(CodeAnimRootInvalid, SeverityError, vpath+".animRef", "animRef must not be empty")
		}
		if variant.DefaultDurationFrames != nil && *variant.DefaultDurationFrames <= 0 {
			report.Add(CodeAnimRootInvalid, SeverityError, vpath+".defaultDurationFrames", "defaultDurationFrames must be positive")
		}
		if lr := variant.LoopRange; lr != nil && !(0 <= lr.Start && lr.Start < lr.End) {
			report.Add(CodeAnimRootInvalid, SeverityError, vpath+".loopRange", "loopRange must satisfy 0 <= start < end")
		}
	}

	seenToggleIDs := make(map[string]bool, len(block.LayerToggles))
	for ti, toggle := range block.LayerToggles {
		tpath := path + ".layerToggles[" + strconv.Itoa(ti) + "]"
		if toggle.ID == "" {
			report.Add(CodeAnimRootInvalid, SeverityError, tpath+".id", "layer toggle id must not be empty")
		} else if seenToggleIDs[toggle.ID] {
			report.Add(CodeAnimRootInvalid, SeverityError, tpath+".id", "duplicate layer toggle id: "+toggle.ID)
		} else {
			seenToggleIDs[toggle.ID] = true
		}
		if toggle.Title == "" {
			report.Add(CodeAnimRootInvalid, SeverityError, tpath+".title", "layer toggle title must not be empty")
		}
	}
}

func validateSceneMediaInput(report *ValidationReport, path string, input MediaInput, catalog MaskCatalog) {
	if !input.Rect.IsFinitePositive() {
		report.Add(CodeAnimRootInvalid, SeverityError, path+".rect", "input rect must be finite and positive")
	}
	if input.BindingKey == "" {
		report.Add(CodeAnimRootInvalid, SeverityError, path+".bindingKey", "bindingKey must not be empty")
	}
	if len(input.AllowedMedia) == 0 {
		report.Add(CodeAnimRootInvalid, SeverityError, path+".allowedMedia", "allowedMedia must not be empty")
	}
	seen := make(map[string]bool, len(input.AllowedMedia))
	for _, kind := range input.AllowedMedia {
		if !allowedMediaKinds[kind] {
			report.Add(CodeAnimRootInvalid, SeverityError, path+".allowedMedia", "unrecognised media kind: "+kind)
		}
		if seen[kind] {
			report.Add(CodeAnimRootInvalid, SeverityError, path+".allowedMedia", "duplicate media kind: "+kind)
		}
		seen[kind] = true
	}
	if input.MaskRef != "" {
		if catalog == nil {
			report.Add(CodeAnimRootInvalid, SeverityWarning, path+".maskRef", "maskRef set but no mask catalog was supplied")
		} else if !catalog.HasMask(input.MaskRef) {
			report.Add(CodeAnimRootInvalid, SeverityWarning, path+".maskRef", "maskRef not found in catalog: "+input.MaskRef)
		}
	}
}

func rectOutsideCanvas(r Rect, c Canvas) bool {
	return r.X < 0 || r.Y < 0 || r.X+r.Width > c.Width || r.Y+r.Height > c.Height
}

func blockPath(i int) string {
	return "mediaBlocks[" + strconv.Itoa(i) + "]"
}
