package animir

import "fmt"

// Severity distinguishes a blocking problem from an informational one.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Stable error codes (spec §6). Not exhaustive — new codes may be added,
// but existing ones never change meaning.
const (
	CodeAnimRootInvalid = "ANIM_ROOT_INVALID"
	CodeAnimFPSMismatch = "ANIM_FPS_MISMATCH"
	CodeAnimSizeMismatch = "WARNING_ANIM_SIZE_MISMATCH"

	CodeBindingLayerNotFound  = "BINDING_LAYER_NOT_FOUND"
	CodeBindingLayerAmbiguous = "BINDING_LAYER_AMBIGUOUS"
	CodeBindingLayerNotImage  = "BINDING_LAYER_NOT_IMAGE"
	CodeBindingLayerNoAsset   = "BINDING_LAYER_NO_ASSET"

	CodeAssetMissing      = "ASSET_MISSING"
	CodePrecompRefMissing = "PRECOMP_REF_MISSING"

	CodeUnsupportedLayerType = "UNSUPPORTED_LAYER_TYPE"

	CodeUnsupportedMaskMode             = "UNSUPPORTED_MASK_MODE"
	CodeUnsupportedMaskInvert           = "UNSUPPORTED_MASK_INVERT"
	CodeUnsupportedMaskPathAnimated     = "UNSUPPORTED_MASK_PATH_ANIMATED"
	CodeUnsupportedMaskOpacityAnimated  = "UNSUPPORTED_MASK_OPACITY_ANIMATED"
	CodeUnsupportedMaskExpansionAnimated = "UNSUPPORTED_MASK_EXPANSION_ANIMATED"
	CodeUnsupportedMaskExpansionNonzero  = "UNSUPPORTED_MASK_EXPANSION_NONZERO"
	CodeUnsupportedMaskExpansionFormat   = "UNSUPPORTED_MASK_EXPANSION_FORMAT"

	CodeUnsupportedMatteType        = "UNSUPPORTED_MATTE_TYPE"
	CodeUnsupportedMatteLayerMissing = "UNSUPPORTED_MATTE_LAYER_MISSING"
	CodeUnsupportedMatteLayerOrder   = "UNSUPPORTED_MATTE_LAYER_ORDER"
	CodeMatteTargetNotFound          = "MATTE_TARGET_NOT_FOUND"
	CodeMatteInvalidOrder            = "MATTE_INVALID_ORDER"

	CodeUnsupportedShapeItem = "UNSUPPORTED_SHAPE_ITEM"

	CodeUnsupported3D               = "UNSUPPORTED_LAYER_3D"
	CodeUnsupportedAutoOrient       = "UNSUPPORTED_LAYER_AUTO_ORIENT"
	CodeUnsupportedStretch          = "UNSUPPORTED_LAYER_STRETCH"
	CodeUnsupportedCollapseTransform = "UNSUPPORTED_LAYER_COLLAPSE_TRANSFORM"
	CodeUnsupportedBlendMode        = "UNSUPPORTED_BLEND_MODE"
	CodeUnsupportedSkew             = "UNSUPPORTED_SKEW"

	CodeUnsupportedRectRoundnessAnimated  = "UNSUPPORTED_RECT_ROUNDNESS_ANIMATED"
	CodeUnsupportedRectKeyframesMismatch  = "UNSUPPORTED_RECT_KEYFRAMES_MISMATCH"
	CodeUnsupportedRectKeyframeFormat     = "UNSUPPORTED_RECT_KEYFRAME_FORMAT"
	CodeUnsupportedGroupTransformKeyframe = "UNSUPPORTED_GROUP_TRANSFORM_KEYFRAME_FORMAT"

	CodeUnsupportedTrimPaths = "UNSUPPORTED_TRIM_PATHS"

	CodePathTopologyMismatch = "PATH_TOPOLOGY_MISMATCH"
	CodePathKeyframesMissing = "PATH_KEYFRAMES_MISSING"

	CodeMediaInputMissing          = "MEDIA_INPUT_MISSING"
	CodeMediaInputNotShape         = "MEDIA_INPUT_NOT_SHAPE"
	CodeMediaInputNotInSameComp    = "MEDIA_INPUT_NOT_IN_SAME_COMP"
	CodeMediaInputNoPath           = "MEDIA_INPUT_NO_PATH"
	CodeMediaInputMultiplePaths    = "MEDIA_INPUT_MULTIPLE_PATHS"
	CodeMediaInputForbiddenModifier = "MEDIA_INPUT_FORBIDDEN_MODIFIER"

	CodeMaskPathBuildFailed  = "MASK_PATH_BUILD_FAILED"
	CodeMattePathBuildFailed = "MATTE_PATH_BUILD_FAILED"
	CodeShapePathBuildFailed = "SHAPE_PATH_BUILD_FAILED"

	CodeParentNotFound = "PARENT_NOT_FOUND"
	CodeParentCycle    = "PARENT_CYCLE"

	CodePrecompCycle          = "PRECOMP_CYCLE"
	CodePrecompAssetNotFound  = "PRECOMP_ASSET_NOT_FOUND"
	CodeMatteSourceNotFound   = "MATTE_SOURCE_NOT_FOUND"
)

// ValidationIssue is a single diagnostic emitted by a validator. Never
// thrown — validators only ever append to a report.
type ValidationIssue struct {
	Code     string
	Severity Severity
	Path     string
	Message  string
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("[%s] %s: %s (%s)", i.Severity, i.Code, i.Message, i.Path)
}

// ValidationReport accumulates issues from a validation pass.
type ValidationReport struct {
	Issues []ValidationIssue
}

// Add appends an issue to the report.
func (r *ValidationReport) Add(code string, sev Severity, path, message string) {
	r.Issues = append(r.Issues, ValidationIssue{Code: code, Severity: sev, Path: path, Message: message})
}

// HasErrors reports whether the report contains any error-severity issue.
func (r *ValidationReport) HasErrors() bool {
	for _, iss := range r.Issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// RenderIssue is a soft render-time failure: the offending subtree is
// skipped and the command stream remains well-formed (spec §7).
type RenderIssue struct {
	Code       string
	Severity   Severity
	Path       string
	Message    string
	FrameIndex int
}

// CompileError is a fatal, typed error for one animation's compilation
// (spec §7: "Compiler errors"). It carries the animRef so callers can
// attribute failures across a multi-animation scene.
type CompileError struct {
	AnimRef string
	Code    string
	Message string
	Path    string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("animir: compile %s: [%s] %s (%s)", e.AnimRef, e.Code, e.Message, e.Path)
}

// ExtractError is returned by shape-extraction helpers (component E) when
// a baking or hoisting precondition fails. The IR compiler surfaces its
// Code directly rather than re-deriving one.
type ExtractError struct {
	Code    string
	Message string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("animir: %s: %s", e.Code, e.Message)
}

// errShapeItem builds an ExtractError tagged CodeUnsupportedShapeItem, the
// fallback code for shape-extraction constraint violations (polystar point
// count, stroke bounds, fill format, ...) that spec §6's code list doesn't
// name individually.
func errShapeItem(message string) *ExtractError {
	return &ExtractError{Code: CodeUnsupportedShapeItem, Message: message}
}

// UnsupportedFeature is panicked (not returned) by defensive checks whose
// preconditions the validator should already have caught — e.g.
// validateNoTrimPaths finding a surviving tm after validation passed.
// Its presence at runtime indicates a validator bug, and is meant to crash
// tests loudly rather than degrade silently (spec §7, §9).
type UnsupportedFeature struct {
	Code    string
	Message string
	Path    string
}

func (e UnsupportedFeature) Error() string {
	return fmt.Sprintf("animir debug: unsupported feature [%s] %s (%s)", e.Code, e.Message, e.Path)
}
