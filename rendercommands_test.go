package animir

import "testing"

func compiledSimpleIR(t *testing.T) *AnimIR {
	t.Helper()
	lottie := baseLottie()
	ir, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), fanTriangulator{})
	if err != nil {
		t.Fatalf("unexpected error compiling: %v", err)
	}
	return ir
}

func TestRenderCommandsDrawsBoundImageLayer(t *testing.T) {
	ir := compiledSimpleIR(t)
	cmds := RenderCommands(ir, 0, Identity())
	if len(cmds) == 0 {
		t.Fatal("expected a non-empty command stream")
	}
	if cmds[0].Kind != CmdBeginGroup || cmds[len(cmds)-1].Kind != CmdEndGroup {
		t.Errorf("expected the stream to be bracketed by begin/end group, got first=%v last=%v", cmds[0].Kind, cmds[len(cmds)-1].Kind)
	}
	var foundDraw bool
	for _, c := range cmds {
		if c.Kind == CmdDrawImage {
			foundDraw = true
			if c.AssetID != "anim_0|img_0" {
				t.Errorf("unexpected asset id: %s", c.AssetID)
			}
		}
	}
	if !foundDraw {
		t.Error("expected a drawImage command for the bound image layer")
	}
}

func TestRenderCommandsSkipsLayerOutsideTiming(t *testing.T) {
	lottie := baseLottie()
	lottie.Layers[0].OutPoint = 5
	ir, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), fanTriangulator{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmds := RenderCommands(ir, 100, Identity())
	for _, c := range cmds {
		if c.Kind == CmdDrawImage {
			t.Error("expected the layer to be skipped once frame exceeds its outPoint")
		}
	}
}

func TestRenderCommandsSkipsMatteSourceButRendersMatteScope(t *testing.T) {
	lottie := baseLottie()
	idxSrc, idxConsumer := 5, 6
	lottie.Layers = append(lottie.Layers,
		LottieLayer{Type: 4, Name: "matteSrc", Index: &idxSrc, Transform: staticTransform(), IsTrackMatteSource: true,
			Shapes: mustShapesJSON(`{"ty":"rc","p":{"k":[0,0]},"s":{"k":[10,10]},"r":{"k":0}}`)},
		LottieLayer{Type: 4, Name: "matteConsumer", Index: &idxConsumer, Transform: staticTransform(), TrackMatteType: 1,
			Shapes: mustShapesJSON(`{"ty":"rc","p":{"k":[0,0]},"s":{"k":[10,10]},"r":{"k":0}}`)},
	)
	ir, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), fanTriangulator{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmds := RenderCommands(ir, 0, Identity())
	var sawBeginMatte, sawMatteSourceGroup bool
	for _, c := range cmds {
		if c.Kind == CmdBeginMatte {
			sawBeginMatte = true
		}
		if c.Kind == CmdBeginGroup && c.GroupName == "matteSource" {
			sawMatteSourceGroup = true
		}
	}
	if !sawBeginMatte || !sawMatteSourceGroup {
		t.Error("expected a matte scope wrapping the source and consumer layers")
	}
}

func TestRenderCommandsReportsParentNotFound(t *testing.T) {
	lottie := baseLottie()
	missingParent := 999
	lottie.Layers[0].Parent = &missingParent
	ir, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), fanTriangulator{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmds := RenderCommands(ir, 0, Identity())
	for _, c := range cmds {
		if c.Kind == CmdDrawImage {
			t.Error("expected the layer with a missing parent to be skipped")
		}
	}
	issues := ir.RenderIssues()
	found := false
	for _, iss := range issues {
		if iss.Code == CodeParentNotFound {
			found = true
		}
	}
	if !found {
		t.Error("expected a PARENT_NOT_FOUND render issue")
	}
}

func TestRenderCommandsAppliesInputClipAroundBindingLayer(t *testing.T) {
	lottie := baseLottie()
	lottie.Layers = append(lottie.Layers, LottieLayer{
		Type: 4, Name: "mediaInput", Transform: staticTransform(),
		Shapes: mustShapesJSON(`{"ty":"rc","p":{"k":[0,0]},"s":{"k":[20,20]},"r":{"k":0}}`),
	})
	ir, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), fanTriangulator{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.InputGeometry == nil {
		t.Fatal("expected InputGeometry to be resolved")
	}
	cmds := RenderCommands(ir, 0, Identity())
	var sawInputClipGroup, sawIntersectMask bool
	for _, c := range cmds {
		if c.Kind == CmdBeginGroup && c.GroupName == "photo (inputClip)" {
			sawInputClipGroup = true
		}
		if c.Kind == CmdBeginMask && c.MaskMode == MaskModeIntersect {
			sawIntersectMask = true
		}
	}
	if !sawInputClipGroup || !sawIntersectMask {
		t.Error("expected an inputClip group wrapping an intersect mask around the bound layer")
	}
}

// TestRenderCommandsAppliesUserTransformBeforeWorldMatrix pins down the
// order of renderBindingLayer's pushTransformCmd: a caller's userTransform
// must apply to the media before the layer's own world matrix, not after.
// Scaling then translating lands at a different point than translating
// then scaling, so the two orders are distinguishable.
func TestRenderCommandsAppliesUserTransformBeforeWorldMatrix(t *testing.T) {
	lottie := baseLottie()
	lottie.Layers[0].Transform.Position = staticVec(10, 0)
	lottie.Layers = append(lottie.Layers, LottieLayer{
		Type: 4, Name: "mediaInput", Transform: staticTransform(),
		Shapes: mustShapesJSON(`{"ty":"rc","p":{"k":[0,0]},"s":{"k":[20,20]},"r":{"k":0}}`),
	})
	ir, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), fanTriangulator{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	userTransform := Scale(2, 2)
	cmds := RenderCommands(ir, 0, userTransform)

	var bindingTransform Matrix2D
	var found bool
	for i, c := range cmds {
		if c.Kind == CmdBeginMask && c.MaskMode == MaskModeIntersect {
			// The next pushTransform after the input-clip mask is the
			// push of userTransform∘worldMat guarding the bound content.
			for j := i + 1; j < len(cmds); j++ {
				if cmds[j].Kind == CmdPushTransform {
					bindingTransform = cmds[j].Transform
					found = true
					break
				}
			}
			break
		}
	}
	if !found {
		t.Fatal("expected to find the bound layer's content push-transform command")
	}
	got := bindingTransform.Apply(Vec2{1, 0})
	assertNear(t, "x", got.X, 12)
	assertNear(t, "y", got.Y, 0)
}

func TestRenderEditCommandsOnlyReachesBoundLayer(t *testing.T) {
	lottie := baseLottie()
	idx := 9
	lottie.Layers = append(lottie.Layers, LottieLayer{Type: 3, Name: "decoration", Index: &idx, Transform: staticTransform()})
	ir, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), fanTriangulator{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmds := RenderEditCommands(ir, 0, Identity())
	var sawBound bool
	for _, c := range cmds {
		if c.Kind == CmdBeginGroup && c.GroupName == "photo" {
			sawBound = true
		}
		if c.Kind == CmdBeginGroup && c.GroupName == "decoration" {
			t.Error("expected edit-mode rendering to skip the unrelated null layer")
		}
	}
	if !sawBound {
		t.Error("expected edit-mode rendering to reach the bound layer")
	}
}

func TestCompContainsBindingDirectAndTransitive(t *testing.T) {
	ir := compiledSimpleIR(t)
	ir.Binding.BoundCompID = "comp_inner"
	ir.Comps["comp_inner"] = Composition{ID: "comp_inner"}
	ir.Comps["comp_outer"] = Composition{ID: "comp_outer", Layers: []Layer{
		{ID: 0, Content: LayerContent{Kind: ContentPrecomp, CompID: "comp_inner"}},
	}}
	if !ir.compContainsBinding("comp_inner") {
		t.Error("expected a composition to contain its own binding directly")
	}
	if !ir.compContainsBinding("comp_outer") {
		t.Error("expected transitive containment through a precomp reference")
	}
	if ir.compContainsBinding("comp_unrelated") {
		t.Error("expected an unrelated composition to not contain the binding")
	}
}

func TestLocalFrameIndexClampsToOutPointMinusOne(t *testing.T) {
	ir := &AnimIR{Meta: Meta{OutPoint: 100}}
	assertNear(t, "below range", localFrameIndex(ir, -10), 0)
	assertNear(t, "above range", localFrameIndex(ir, 500), 99)
	assertNear(t, "in range", localFrameIndex(ir, 50), 50)
}

func TestEmitMasksBeginReversesOrderAndNormalizesOpacity(t *testing.T) {
	masks := []Mask{
		{Mode: MaskModeAdd, Opacity: 100, PathID: 1},
		{Mode: MaskModeSubtract, Opacity: 50, PathID: 2},
	}
	cmds := emitMasksBegin(masks, 0)
	if len(cmds) != 2 {
		t.Fatalf("expected 2 begin-mask commands, got %d", len(cmds))
	}
	if cmds[0].PathID != 2 {
		t.Errorf("expected masks to be emitted in reverse order, got PathID %d first", cmds[0].PathID)
	}
	assertNear(t, "normalized opacity", cmds[0].MaskOpacity, 0.5)
}

func TestEmitMasksEndProducesNEndMaskCommands(t *testing.T) {
	cmds := emitMasksEnd(3)
	if len(cmds) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(cmds))
	}
	for _, c := range cmds {
		if c.Kind != CmdEndMask {
			t.Errorf("expected CmdEndMask, got %v", c.Kind)
		}
	}
}

func TestResolveParentChainComposesRootToImmediate(t *testing.T) {
	grandparent := Layer{ID: 1, Transform: translatingTransformTrack(Vec2{10, 0})}
	parent := Layer{ID: 2, Parent: intPtr(1), Transform: translatingTransformTrack(Vec2{0, 20})}
	child := Layer{ID: 3, Parent: intPtr(2), Transform: translatingTransformTrack(Vec2{})}
	byID := map[int]Layer{1: grandparent, 2: parent, 3: child}
	ir := &AnimIR{}
	m, ok := resolveParentChain(ir, "test", byID, child, 0)
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	p := m.Apply(Vec2{0, 0})
	assertNear(t, "x", p.X, 10)
	assertNear(t, "y", p.Y, 20)
}

func TestResolveParentChainDetectsCycle(t *testing.T) {
	a := Layer{ID: 1, Parent: intPtr(2), Transform: translatingTransformTrack(Vec2{})}
	b := Layer{ID: 2, Parent: intPtr(1), Transform: translatingTransformTrack(Vec2{})}
	byID := map[int]Layer{1: a, 2: b}
	ir := &AnimIR{}
	_, ok := resolveParentChain(ir, "test", byID, a, 0)
	if ok {
		t.Error("expected a cycle to be detected")
	}
	if len(ir.RenderIssues()) != 1 || ir.RenderIssues()[0].Code != CodeParentCycle {
		t.Errorf("expected a single PARENT_CYCLE issue, got %+v", ir.RenderIssues())
	}
}

func intPtr(n int) *int { return &n }

func translatingTransformTrack(pos Vec2) TransformTrack {
	return TransformTrack{
		Position: NewStaticTrack(Vec2Value{X: pos.X, Y: pos.Y}),
		Scale:    NewStaticTrack(Vec2Value{X: 100, Y: 100}),
		Rotation: NewStaticTrack(Float64Value(0)),
		Opacity:  NewStaticTrack(Float64Value(100)),
		Anchor:   NewStaticTrack(Vec2Value{}),
	}
}
