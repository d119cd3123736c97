package animir

import (
	"encoding/json"
	"errors"
	"testing"
)

func rectShapeLayer(name string, index int) LottieLayer {
	idx := index
	return LottieLayer{
		Type: 4, Name: name, Index: &idx, Transform: staticTransform(),
		Shapes: mustShapesJSON(`{"ty":"rc","p":{"k":[0,0]},"s":{"k":[10,10]},"r":{"k":0}}`),
	}
}

func mustShapesJSON(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestCompileProducesRootCompositionWithBoundLayer(t *testing.T) {
	lottie := baseLottie()
	ir, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), fanTriangulator{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.RootComp != rootCompID {
		t.Errorf("expected root comp id %q, got %q", rootCompID, ir.RootComp)
	}
	root, ok := ir.Comps[rootCompID]
	if !ok {
		t.Fatal("expected a root composition")
	}
	if len(root.Layers) != 1 || root.Layers[0].Type != LayerTypeImage {
		t.Fatalf("expected a single image layer, got %+v", root.Layers)
	}
	if ir.Binding.BindingKey != "photo" || ir.Binding.BoundAssetID != "anim_0|img_0" {
		t.Errorf("unexpected binding info: %+v", ir.Binding)
	}
}

func TestCompileRejectsMissingBindingLayer(t *testing.T) {
	lottie := baseLottie()
	_, err := Compile("anim_0", lottie, "not_a_layer", NewPathRegistry(), fanTriangulator{})
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Code != CodeBindingLayerNotFound {
		t.Errorf("expected CodeBindingLayerNotFound, got %v", err)
	}
}

func TestCompileRejectsUnsupportedLayerType(t *testing.T) {
	idx := 5
	lottie := baseLottie()
	lottie.Layers = append(lottie.Layers, LottieLayer{Type: 13, Name: "camera", Index: &idx, Transform: staticTransform()})
	_, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), fanTriangulator{})
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Code != CodeUnsupportedLayerType {
		t.Errorf("expected CodeUnsupportedLayerType, got %v", err)
	}
}

func TestCompileRegistersShapePathsIntoRegistry(t *testing.T) {
	lottie := baseLottie()
	lottie.Layers = append(lottie.Layers, rectShapeLayer("box", 2))
	registry := NewPathRegistry()
	ir, err := Compile("anim_0", lottie, "photo", registry, fanTriangulator{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shapeLayer := ir.Comps[rootCompID].Layers[1]
	if shapeLayer.Content.Kind != ContentShapes {
		t.Fatalf("expected shape content, got %v", shapeLayer.Content.Kind)
	}
	if shapeLayer.Content.Shapes.PathID < 0 {
		t.Error("expected the rect path to be registered")
	}
}

func TestCompileFailsOnShapePathTriangulationFailure(t *testing.T) {
	lottie := baseLottie()
	lottie.Layers = append(lottie.Layers, rectShapeLayer("box", 2))
	_, err := Compile("anim_0", lottie, "photo", NewPathRegistry(), failingTriangulator{})
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Code != CodeShapePathBuildFailed {
		t.Errorf("expected CodeShapePathBuildFailed, got %v", err)
	}
}

func TestPairMattesInCompositionAdjacency(t *testing.T) {
	idxA, idxB := 0, 1
	layers := []LottieLayer{
		{Index: &idxA, IsTrackMatteSource: true},
		{Index: &idxB, TrackMatteType: 1},
	}
	ids := layerIDsInOrder(layers)
	consumerToSource, forcedSources := pairMattesInComposition(layers, ids)
	if consumerToSource[1] != 0 {
		t.Errorf("expected layer 1 to matte onto layer 0, got %v", consumerToSource)
	}
	if !forcedSources[0] {
		t.Error("expected layer 0 to be a forced matte source")
	}
}

func TestPairMattesInCompositionExplicitTarget(t *testing.T) {
	idxA, idxB, idxC := 10, 11, 12
	target := 10
	layers := []LottieLayer{
		{Index: &idxA},
		{Index: &idxB},
		{Index: &idxC, TrackMatteType: 2, TrackMatteTarget: &target},
	}
	ids := layerIDsInOrder(layers)
	consumerToSource, forcedSources := pairMattesInComposition(layers, ids)
	if consumerToSource[12] != 10 {
		t.Errorf("expected layer 12 to matte onto layer 10, got %v", consumerToSource)
	}
	if !forcedSources[10] {
		t.Error("expected layer 10 to be a forced matte source")
	}
}

func TestWrapCompileErrRecoversExtractErrorCode(t *testing.T) {
	inner := &ExtractError{Code: CodeUnsupportedRectRoundnessAnimated, Message: "boom"}
	err := wrapCompileErr("anim_0", "some.path", inner)
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Code != CodeUnsupportedRectRoundnessAnimated {
		t.Errorf("expected the wrapped code to be preserved, got %v", err)
	}
}

func TestWrapCompileErrMapsPathSentinels(t *testing.T) {
	err := wrapCompileErr("anim_0", "some.path", errPathTopologyMismatch)
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Code != CodePathTopologyMismatch {
		t.Errorf("expected CodePathTopologyMismatch, got %v", err)
	}
}

func TestBuildAssetIndexSkipsNonImageAssets(t *testing.T) {
	lottie := &LottieJSON{
		Assets: []LottieAsset{
			{ID: "img_0", Name: "a.png", Width: 10, Height: 20},
			{ID: "comp_0", Layers: []LottieLayer{{}}},
		},
	}
	idx := buildAssetIndex("anim_0", lottie)
	if _, ok := idx.ByID["anim_0|img_0"]; !ok {
		t.Error("expected the image asset to be indexed")
	}
	if _, ok := idx.ByID["anim_0|comp_0"]; ok {
		t.Error("expected the precomp asset to be excluded")
	}
	if idx.SizeByID["anim_0|img_0"] != [2]float64{10, 20} {
		t.Errorf("unexpected size entry: %v", idx.SizeByID["anim_0|img_0"])
	}
}

func TestResolveMediaInputFindsPathInBoundComposition(t *testing.T) {
	lottie := baseLottie()
	lottie.Layers = append(lottie.Layers, LottieLayer{
		Type: 4, Name: "mediaInput", Transform: staticTransform(),
		Shapes: mustShapesJSON(`{"ty":"rc","p":{"k":[0,0]},"s":{"k":[20,20]},"r":{"k":0}}`),
	})
	binding, err := resolveBindingInfo("anim_0", lottie, "photo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	registry := NewPathRegistry()
	info := resolveMediaInput("anim_0", lottie, binding, registry, NewPathResourceBuilder(fanTriangulator{}))
	if info == nil {
		t.Fatal("expected a resolved mediaInput geometry")
	}
	if info.CompID != rootCompID {
		t.Errorf("expected the root comp, got %q", info.CompID)
	}
}
