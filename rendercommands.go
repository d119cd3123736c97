package animir

import "fmt"

// RenderCommandKind tags a RenderCommand (spec §9 "tagged unions over
// inheritance" — a flat struct rather than a command interface hierarchy).
type RenderCommandKind int

const (
	CmdBeginGroup RenderCommandKind = iota
	CmdEndGroup
	CmdPushTransform
	CmdPopTransform
	CmdBeginMask
	CmdEndMask
	CmdBeginMatte
	CmdEndMatte
	CmdDrawImage
	CmdDrawShape
	CmdDrawStroke
)

// RenderCommand is one entry of a rendered command stream (spec §4.I).
// Only the fields relevant to Kind are meaningful; the rest are zero.
type RenderCommand struct {
	Kind RenderCommandKind

	GroupName string // beginGroup

	Transform Matrix2D // pushTransform

	MaskMode     MaskMode // beginMask
	MaskInverted bool
	MaskOpacity  float64 // 0..1

	MatteMode MatteMode // beginMatte

	AssetID string // drawImage
	Opacity float64

	PathID       PathID // drawShape, drawStroke
	FillColor    *Color4
	FillOpacity  float64
	LayerOpacity float64

	StrokeColor      Color4 // drawStroke
	StrokeOpacity    float64
	StrokeWidth      float64
	StrokeLineCap    int
	StrokeLineJoin   int
	StrokeMiterLimit float64

	Frame float64 // sample time for mask/shape/stroke commands
}

func beginGroupCmd(name string) RenderCommand { return RenderCommand{Kind: CmdBeginGroup, GroupName: name} }
func endGroupCmd() RenderCommand              { return RenderCommand{Kind: CmdEndGroup} }
func pushTransformCmd(m Matrix2D) RenderCommand {
	return RenderCommand{Kind: CmdPushTransform, Transform: m}
}
func popTransformCmd() RenderCommand { return RenderCommand{Kind: CmdPopTransform} }

// addRenderIssue appends a soft render-time failure; the offending
// subtree is then skipped by the caller, and the command stream stays
// well-formed (spec §7: render issues are collected, never thrown).
func (ir *AnimIR) addRenderIssue(code string, sev Severity, path, message string, frame float64) {
	ir.lastRenderIssues = append(ir.lastRenderIssues, RenderIssue{
		Code: code, Severity: sev, Path: path, Message: message, FrameIndex: int(frame),
	})
}

// RenderIssues returns the soft failures collected by the most recent
// RenderCommands/RenderEditCommands call.
func (ir *AnimIR) RenderIssues() []RenderIssue { return ir.lastRenderIssues }

// localFrameIndex clamps a scene frame into this animation's valid range
// (spec §4.I: "clamp(scene, 0, Meta.outPoint-1)").
func localFrameIndex(ir *AnimIR, frame float64) float64 {
	return clamp(frame, 0, ir.Meta.OutPoint-1)
}

type renderContext struct {
	ir            *AnimIR
	frame         float64
	parentWorld   Matrix2D
	parentOpacity float64
	compID        string
	visitedComps  map[string]bool
	userTransform Matrix2D
}

func withVisited(visited map[string]bool, compID string) map[string]bool {
	out := make(map[string]bool, len(visited)+1)
	for k := range visited {
		out[k] = true
	}
	out[compID] = true
	return out
}

func compLayersByID(comp Composition) map[int]Layer {
	byID := make(map[int]Layer, len(comp.Layers))
	for _, l := range comp.Layers {
		byID[l.ID] = l
	}
	return byID
}

// resolveParentChain walks layer's parent links within the same
// composition (root-to-immediate order), composing their local matrices.
// Reports PARENT_NOT_FOUND / PARENT_CYCLE and returns ok=false on
// failure; the caller skips the layer entirely (spec §4.I).
func resolveParentChain(ir *AnimIR, path string, byID map[int]Layer, layer Layer, frame float64) (Matrix2D, bool) {
	var chain []Layer
	visited := map[int]bool{layer.ID: true}
	cur := layer
	for cur.Parent != nil {
		parentID := *cur.Parent
		if visited[parentID] {
			ir.addRenderIssue(CodeParentCycle, SeverityError, path, "layer parent chain contains a cycle", frame)
			return Identity(), false
		}
		parent, found := byID[parentID]
		if !found {
			ir.addRenderIssue(CodeParentNotFound, SeverityError, path, fmt.Sprintf("parent layer %d not found", parentID), frame)
			return Identity(), false
		}
		visited[parentID] = true
		chain = append(chain, parent)
		cur = parent
	}
	m := Identity()
	for i := len(chain) - 1; i >= 0; i-- {
		m = m.Concatenating(chain[i].Transform.Matrix(frame))
	}
	return m, true
}

// RenderCommands produces the full command stream for one frame, drawing
// every visible layer (spec §4.I).
func RenderCommands(ir *AnimIR, frameIndex float64, userTransform Matrix2D) []RenderCommand {
	ir.lastRenderIssues = nil
	frame := localFrameIndex(ir, frameIndex)

	var cmds []RenderCommand
	cmds = append(cmds, beginGroupCmd("AnimIR:"+ir.Meta.SourceAnimRef))
	ctx := &renderContext{
		ir: ir, frame: frame, parentWorld: Identity(), parentOpacity: 1.0,
		compID: ir.RootComp, visitedComps: map[string]bool{ir.RootComp: true},
		userTransform: userTransform,
	}
	cmds = append(cmds, renderComposition(ctx, fullVisibilityFilter)...)
	cmds = append(cmds, endGroupCmd())
	return cmds
}

// layerFilter decides whether a layer not already excluded by the
// isMatteSource/isHidden rule should be rendered at all, distinguishing
// the full-tree pass from the edit-mode pass (spec §4.I).
type layerFilter func(ctx *renderContext, comp Composition, layer Layer) bool

func fullVisibilityFilter(ctx *renderContext, comp Composition, layer Layer) bool {
	return ctx.frame >= layer.Timing.InPoint && ctx.frame < layer.Timing.OutPoint
}

func renderComposition(ctx *renderContext, filter layerFilter) []RenderCommand {
	comp, ok := ctx.ir.Comps[ctx.compID]
	if !ok {
		return nil
	}
	byID := compLayersByID(comp)

	var cmds []RenderCommand
	for _, layer := range comp.Layers {
		if layer.IsMatteSource || layer.IsHidden {
			continue
		}
		if !filter(ctx, comp, layer) {
			continue
		}
		cmds = append(cmds, renderLayerScoped(ctx, comp, byID, layer, filter)...)
	}
	return cmds
}

func layerPathForIssue(ctx *renderContext, layer Layer) string {
	return fmt.Sprintf("anim(%s).%s.layer(%d)", ctx.ir.Meta.SourceAnimRef, ctx.compID, layer.ID)
}

// renderLayerScoped wraps a matte consumer's emission in a matte scope
// (source then consumer, each its own group) and defers everything else
// to renderRegular.
func renderLayerScoped(ctx *renderContext, comp Composition, byID map[int]Layer, layer Layer, filter layerFilter) []RenderCommand {
	if layer.Matte == nil {
		return renderRegular(ctx, comp, byID, layer, filter)
	}

	source, found := byID[layer.Matte.SourceLayerID]
	if !found {
		ctx.ir.addRenderIssue(CodeMatteSourceNotFound, SeverityError, layerPathForIssue(ctx, layer), "matte source layer not found", ctx.frame)
		return nil
	}

	var cmds []RenderCommand
	cmds = append(cmds, RenderCommand{Kind: CmdBeginMatte, MatteMode: layer.Matte.Mode})
	cmds = append(cmds, beginGroupCmd("matteSource"))
	cmds = append(cmds, renderRegular(ctx, comp, byID, source, filter)...)
	cmds = append(cmds, endGroupCmd())
	cmds = append(cmds, beginGroupCmd("matteConsumer"))
	cmds = append(cmds, renderRegular(ctx, comp, byID, layer, filter)...)
	cmds = append(cmds, endGroupCmd())
	cmds = append(cmds, RenderCommand{Kind: CmdEndMatte})
	return cmds
}

func renderRegular(ctx *renderContext, comp Composition, byID map[int]Layer, layer Layer, filter layerFilter) []RenderCommand {
	parentMat, ok := resolveParentChain(ctx.ir, layerPathForIssue(ctx, layer), byID, layer, ctx.frame)
	if !ok {
		return nil
	}
	localMat := layer.Transform.Matrix(ctx.frame)
	relWorld := parentMat.Concatenating(localMat)
	worldMat := ctx.parentWorld.Concatenating(relWorld)
	opacity := ctx.parentOpacity * (layer.Transform.OpacityPercent(ctx.frame) / 100)

	isBinding := ctx.ir.Binding.BoundCompID == ctx.compID && ctx.ir.Binding.BoundLayerID == layer.ID
	if isBinding && ctx.ir.InputGeometry != nil {
		return renderBindingLayer(ctx, comp, byID, layer, worldMat, opacity, filter)
	}
	return renderPlainLayer(ctx, comp, byID, layer, worldMat, opacity, filter)
}

func layerGroupName(layer Layer) string {
	if layer.Name != "" {
		return layer.Name
	}
	return fmt.Sprintf("layer(%d)", layer.ID)
}

func emitMasksBegin(masks []Mask, frame float64) []RenderCommand {
	cmds := make([]RenderCommand, 0, len(masks))
	for i := len(masks) - 1; i >= 0; i-- {
		m := masks[i]
		cmds = append(cmds, RenderCommand{
			Kind: CmdBeginMask, MaskMode: m.Mode, MaskInverted: m.Inverted,
			PathID: m.PathID, MaskOpacity: clamp01(m.Opacity / 100), Frame: frame,
		})
	}
	return cmds
}

func emitMasksEnd(n int) []RenderCommand {
	cmds := make([]RenderCommand, n)
	for i := range cmds {
		cmds[i] = RenderCommand{Kind: CmdEndMask}
	}
	return cmds
}

func renderPlainLayer(ctx *renderContext, comp Composition, byID map[int]Layer, layer Layer, worldMat Matrix2D, opacity float64, filter layerFilter) []RenderCommand {
	var cmds []RenderCommand
	cmds = append(cmds, beginGroupCmd(layerGroupName(layer)))
	cmds = append(cmds, pushTransformCmd(worldMat))
	cmds = append(cmds, emitMasksBegin(layer.Masks, ctx.frame)...)
	cmds = append(cmds, renderContent(ctx, layer, opacity, filter)...)
	cmds = append(cmds, emitMasksEnd(len(layer.Masks))...)
	cmds = append(cmds, popTransformCmd())
	cmds = append(cmds, endGroupCmd())
	return cmds
}

// renderBindingLayer wraps the scene's bound layer in an input-clip scope:
// an intersect mask built from the mediaInput shape, positioned by the
// mediaInput layer's own world matrix, composed ahead of the bound
// layer's own transform and userTransform (spec §4.I).
func renderBindingLayer(ctx *renderContext, comp Composition, byID map[int]Layer, layer Layer, worldMat Matrix2D, opacity float64, filter layerFilter) []RenderCommand {
	ig := ctx.ir.InputGeometry
	mediaInputMat, ok := mediaInputWorldMatrix(ctx.ir, ctx.frame)
	if !ok {
		return renderPlainLayer(ctx, comp, byID, layer, worldMat, opacity, filter)
	}

	var cmds []RenderCommand
	cmds = append(cmds, beginGroupCmd(layerGroupName(layer)+" (inputClip)"))
	cmds = append(cmds, pushTransformCmd(mediaInputMat))
	cmds = append(cmds, RenderCommand{Kind: CmdBeginMask, MaskMode: MaskModeIntersect, PathID: ig.PathID, MaskOpacity: 1, Frame: 0})
	cmds = append(cmds, popTransformCmd())

	cmds = append(cmds, pushTransformCmd(ctx.userTransform.Concatenating(worldMat)))
	cmds = append(cmds, emitMasksBegin(layer.Masks, ctx.frame)...)
	cmds = append(cmds, renderContent(ctx, layer, opacity, filter)...)
	cmds = append(cmds, emitMasksEnd(len(layer.Masks))...)
	cmds = append(cmds, popTransformCmd())

	cmds = append(cmds, RenderCommand{Kind: CmdEndMask})
	cmds = append(cmds, endGroupCmd())
	return cmds
}

func renderContent(ctx *renderContext, layer Layer, opacity float64, filter layerFilter) []RenderCommand {
	switch layer.Content.Kind {
	case ContentImage:
		return []RenderCommand{{Kind: CmdDrawImage, AssetID: layer.Content.AssetID, Opacity: opacity}}
	case ContentPrecomp:
		return renderPrecompContent(ctx, layer, opacity, filter)
	case ContentShapes:
		return renderShapeContent(ctx, layer, opacity)
	default:
		return nil
	}
}

func renderPrecompContent(ctx *renderContext, layer Layer, opacity float64, filter layerFilter) []RenderCommand {
	compID := layer.Content.CompID
	if ctx.visitedComps[compID] {
		ctx.ir.addRenderIssue(CodePrecompCycle, SeverityError, layerPathForIssue(ctx, layer), "precomp reference cycle detected", ctx.frame)
		return nil
	}
	if _, found := ctx.ir.Comps[compID]; !found {
		ctx.ir.addRenderIssue(CodePrecompAssetNotFound, SeverityError, layerPathForIssue(ctx, layer), "precomp composition not found: "+compID, ctx.frame)
		return nil
	}
	childCtx := &renderContext{
		ir:            ctx.ir,
		frame:         ctx.frame - layer.Timing.StartTime,
		parentWorld:   Identity(),
		parentOpacity: opacity,
		compID:        compID,
		visitedComps:  withVisited(ctx.visitedComps, compID),
		userTransform: ctx.userTransform,
	}
	return renderComposition(childCtx, filter)
}

func renderShapeContent(ctx *renderContext, layer Layer, opacity float64) []RenderCommand {
	sg := layer.Content.Shapes
	if sg == nil || !sg.HasPath {
		return nil
	}
	groupMat, groupOpacity := groupTransformStack(sg.GroupTransforms, ctx.frame)
	pushed := groupMat != Identity()

	var cmds []RenderCommand
	if pushed {
		cmds = append(cmds, pushTransformCmd(groupMat))
	}
	if sg.FillColor != nil {
		cmds = append(cmds, RenderCommand{
			Kind: CmdDrawShape, PathID: sg.PathID, FillColor: sg.FillColor,
			FillOpacity: (sg.FillOpacity / 100) * groupOpacity, LayerOpacity: opacity, Frame: ctx.frame,
		})
	}
	if sg.Stroke != nil {
		cmds = append(cmds, RenderCommand{
			Kind: CmdDrawStroke, PathID: sg.PathID, StrokeColor: sg.Stroke.Color,
			StrokeOpacity: sg.Stroke.Opacity * groupOpacity, StrokeWidth: float64(sg.Stroke.Width.Sample(ctx.frame)),
			StrokeLineCap: sg.Stroke.LineCap, StrokeLineJoin: sg.Stroke.LineJoin, StrokeMiterLimit: sg.Stroke.MiterLimit,
			LayerOpacity: opacity, Frame: ctx.frame,
		})
	}
	if pushed {
		cmds = append(cmds, popTransformCmd())
	}
	return cmds
}

// RenderEditCommands renders only the path from the root composition down
// to the scene's bound layer, skipping everything else — the edit-mode
// view a placement UI draws while the end user repositions their media
// (spec §4.I). Unlike RenderCommands, it ignores each layer's own
// visibility window: the bound layer must always be reachable.
func RenderEditCommands(ir *AnimIR, frameIndex float64, userTransform Matrix2D) []RenderCommand {
	ir.lastRenderIssues = nil
	frame := localFrameIndex(ir, frameIndex)

	var cmds []RenderCommand
	cmds = append(cmds, beginGroupCmd("AnimIR:"+ir.Meta.SourceAnimRef))
	ctx := &renderContext{
		ir: ir, frame: frame, parentWorld: Identity(), parentOpacity: 1.0,
		compID: ir.RootComp, visitedComps: map[string]bool{ir.RootComp: true},
		userTransform: userTransform,
	}
	cmds = append(cmds, renderComposition(ctx, editReachabilityFilter)...)
	cmds = append(cmds, endGroupCmd())
	return cmds
}

// editReachabilityFilter keeps only the bound layer itself and any
// precomp layer that transitively contains it, ignoring each layer's own
// visibility window — the bound layer must always be reachable in edit
// mode (spec §4.I).
func editReachabilityFilter(ctx *renderContext, comp Composition, layer Layer) bool {
	isBinding := ctx.ir.Binding.BoundCompID == ctx.compID && ctx.ir.Binding.BoundLayerID == layer.ID
	return isBinding || (layer.Content.Kind == ContentPrecomp && ctx.ir.compContainsBinding(layer.Content.CompID))
}

// compContainsBinding reports whether compID directly holds the scene's
// bound layer, or (recursively, via precomp references) transitively
// contains it. Memoised on the IR since the same composition is probed
// repeatedly while walking toward the binding layer.
func (ir *AnimIR) compContainsBinding(compID string) bool {
	if ir.compContainsBindingCache == nil {
		ir.compContainsBindingCache = make(map[string]bool)
	}
	if v, ok := ir.compContainsBindingCache[compID]; ok {
		return v
	}
	ir.compContainsBindingCache[compID] = false // break cycles defensively
	result := ir.compContainsBindingRec(compID, make(map[string]bool))
	ir.compContainsBindingCache[compID] = result
	return result
}

func (ir *AnimIR) compContainsBindingRec(compID string, visited map[string]bool) bool {
	if compID == ir.Binding.BoundCompID {
		return true
	}
	if visited[compID] {
		return false
	}
	visited[compID] = true
	comp, ok := ir.Comps[compID]
	if !ok {
		return false
	}
	for _, layer := range comp.Layers {
		if layer.Content.Kind == ContentPrecomp && ir.compContainsBindingRec(layer.Content.CompID, visited) {
			return true
		}
	}
	return false
}

// mediaInputWorldMatrix returns the mediaInput layer's own world matrix
// (composition-local, parent chain included), for hit-testing where the
// user's placement rect lands (spec §4.I).
func mediaInputWorldMatrix(ir *AnimIR, frame float64) (Matrix2D, bool) {
	ig := ir.InputGeometry
	if ig == nil {
		return Identity(), false
	}
	comp, ok := ir.Comps[ig.CompID]
	if !ok {
		return Identity(), false
	}
	byID := compLayersByID(comp)
	layer, ok := byID[ig.LayerID]
	if !ok {
		return Identity(), false
	}
	parentMat, ok := resolveParentChain(ir, fmt.Sprintf("anim(%s).mediaInput", ir.Meta.SourceAnimRef), byID, layer, frame)
	if !ok {
		return Identity(), false
	}
	return parentMat.Concatenating(layer.Transform.Matrix(frame)), true
}

// mediaInputPath samples the mediaInput shape at frame and transforms it
// into composition space, for a placement UI to hit-test against.
func mediaInputPath(ir *AnimIR, frame float64) (BezierPath, bool) {
	ig := ir.InputGeometry
	if ig == nil {
		return BezierPath{}, false
	}
	mat, ok := mediaInputWorldMatrix(ir, frame)
	if !ok {
		return BezierPath{}, false
	}
	return ig.AnimPath.Sample(frame).Applying(mat), true
}
