package animir

import "testing"

func staticScale(x, y float64) LottieValueData { return staticVec(x, y) }

func transformItem(pos, anchor, scale Vec2, rotationDeg, opacityPct float64) LottieShapeTransform {
	return LottieShapeTransform{
		Name:     "tr",
		Position: staticVec(pos.X, pos.Y),
		Anchor:   staticVec(anchor.X, anchor.Y),
		Scale:    staticScale(scale.X, scale.Y),
		Rotation: staticNum(rotationDeg),
		Opacity:  staticNum(opacityPct),
	}
}

func identityTransformItem() LottieShapeTransform {
	return transformItem(Vec2{}, Vec2{}, Vec2{100, 100}, 0, 100)
}

func rectItem() LottieShapeRect {
	return LottieShapeRect{Position: staticVec(0, 0), Size: staticVec(10, 10), Roundness: staticNum(0), Direction: 1}
}

func fillItem() LottieShapeFill {
	return LottieShapeFill{Color: staticVec3(1, 0, 0), Opacity: staticNum(100)}
}

func staticVec3(r, g, b float64) LottieValueData {
	return LottieValueData{Kind: LottieValueArray, Array: []float64{r, g, b}}
}

func strokeItem() LottieShapeStroke {
	return LottieShapeStroke{
		Color: staticVec3(0, 0, 0), Opacity: staticNum(100), Width: staticNum(2),
		LineCap: 1, LineJoin: 1, MiterLimit: 4,
	}
}

func TestExtractShapeGroupFindsTopLevelRect(t *testing.T) {
	items := []LottieShapeItem{fillItem(), rectItem()}
	g, err := ExtractShapeGroup(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.HasPath {
		t.Fatal("expected a path to be found")
	}
	if g.FillColor == nil {
		t.Error("expected a fill color")
	}
	if len(g.GroupTransforms) != 0 {
		t.Errorf("expected no group transforms at top level, got %d", len(g.GroupTransforms))
	}
}

func TestExtractShapeGroupNoPathFound(t *testing.T) {
	items := []LottieShapeItem{fillItem()}
	g, err := ExtractShapeGroup(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.HasPath {
		t.Error("expected no path")
	}
}

func TestExtractAnimPathRecursesIntoNestedGroups(t *testing.T) {
	inner := LottieShapeGroup{Items: []LottieShapeItem{rectItem()}}
	outer := LottieShapeGroup{Items: []LottieShapeItem{inner}}
	_, found, err := extractAnimPath([]LottieShapeItem{outer})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Error("expected to find the nested rect")
	}
}

func TestExtractGroupTransformsHoistsOutermostFirst(t *testing.T) {
	outerTr := transformItem(Vec2{10, 0}, Vec2{}, Vec2{100, 100}, 0, 100)
	innerTr := transformItem(Vec2{0, 20}, Vec2{}, Vec2{100, 100}, 0, 100)
	inner := LottieShapeGroup{Items: []LottieShapeItem{innerTr, rectItem()}}
	outer := LottieShapeGroup{Items: []LottieShapeItem{outerTr, inner}}

	stack, err := extractGroupTransforms([]LottieShapeItem{outer})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stack) != 2 {
		t.Fatalf("expected 2 hoisted transforms, got %d", len(stack))
	}
	assertNear(t, "outer.x", stack[0].Position.StaticValue().X, 10)
	assertNear(t, "inner.y", stack[1].Position.StaticValue().Y, 20)
}

func TestExtractGroupTransformsSkipsGroupsNotOnPathBranch(t *testing.T) {
	unrelatedTr := transformItem(Vec2{99, 99}, Vec2{}, Vec2{100, 100}, 0, 100)
	unrelatedGroup := LottieShapeGroup{Items: []LottieShapeItem{unrelatedTr, fillItem()}}
	pathGroup := LottieShapeGroup{Items: []LottieShapeItem{rectItem()}}

	stack, err := extractGroupTransforms([]LottieShapeItem{unrelatedGroup, pathGroup})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stack) != 0 {
		t.Errorf("expected no hoisted transforms, got %d", len(stack))
	}
}

func TestExtractOwnGroupTransformRejectsMultipleTr(t *testing.T) {
	items := []LottieShapeItem{identityTransformItem(), identityTransformItem()}
	if _, err := extractOwnGroupTransform(items); err == nil {
		t.Error("expected error for multiple tr items")
	}
}

func TestExtractOwnGroupTransformRejectsNonUniformScale(t *testing.T) {
	tr := transformItem(Vec2{}, Vec2{}, Vec2{100, 50}, 0, 100)
	if _, err := extractOwnGroupTransform([]LottieShapeItem{tr}); err == nil {
		t.Error("expected error for non-uniform scale")
	}
}

func TestExtractOwnGroupTransformRejectsNonZeroSkew(t *testing.T) {
	tr := identityTransformItem()
	skew := staticNum(5)
	tr.SkewVal = &skew
	if _, err := extractOwnGroupTransform([]LottieShapeItem{tr}); err == nil {
		t.Error("expected error for non-zero skew")
	}
}

func TestExtractOwnGroupTransformDefaultsToIdentity(t *testing.T) {
	gt, err := extractOwnGroupTransform([]LottieShapeItem{rectItem()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertNear(t, "scale.x", gt.Scale.StaticValue().X, 100)
	assertNear(t, "opacity", float64(gt.Opacity.StaticValue()), 1)
}

func TestExtractFillStaticColorAndOpacity(t *testing.T) {
	color, opacity, err := extractFill([]LottieShapeItem{fillItem()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if color == nil {
		t.Fatal("expected a color")
	}
	assertNear(t, "opacity", opacity, 100)
}

func TestExtractFillRejectsAnimatedColor(t *testing.T) {
	fl := fillItem()
	fl.Color = LottieValueData{Kind: LottieValueKeyframes, Keyframes: []LottieRawKeyframe{
		{Time: 0, StartValue: lottieKeyframeValue{Numbers: []float64{1, 0, 0}}},
		{Time: 10, StartValue: lottieKeyframeValue{Numbers: []float64{0, 1, 0}}},
	}}
	if _, _, err := extractFill([]LottieShapeItem{fl}); err == nil {
		t.Error("expected error for animated fill color")
	}
}

func TestExtractFillNoneFoundReturnsDefaults(t *testing.T) {
	color, opacity, err := extractFill([]LottieShapeItem{rectItem()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if color != nil {
		t.Error("expected no color")
	}
	assertNear(t, "default opacity", opacity, 100)
}

func TestExtractStrokeValid(t *testing.T) {
	st, err := extractStroke([]LottieShapeItem{strokeItem()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st == nil {
		t.Fatal("expected a stroke style")
	}
	assertNear(t, "width", float64(st.Width.StaticValue()), 2)
}

func TestExtractStrokeRejectsDashArray(t *testing.T) {
	st := strokeItem()
	st.HasDash = true
	if _, err := extractStroke([]LottieShapeItem{st}); err == nil {
		t.Error("expected error for dash array")
	}
}

func TestExtractStrokeRejectsOutOfRangeCap(t *testing.T) {
	st := strokeItem()
	st.LineCap = 0
	if _, err := extractStroke([]LottieShapeItem{st}); err == nil {
		t.Error("expected error for out-of-range line cap")
	}
}

func TestExtractStrokeRejectsNonPositiveWidth(t *testing.T) {
	st := strokeItem()
	st.Width = staticNum(0)
	if _, err := extractStroke([]LottieShapeItem{st}); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestExtractStrokeRejectsExcessiveWidth(t *testing.T) {
	st := strokeItem()
	st.Width = staticNum(maxWidthPixels + 1)
	if _, err := extractStroke([]LottieShapeItem{st}); err == nil {
		t.Error("expected error for width exceeding the max")
	}
}

func TestFindFirstRecursesIntoGroups(t *testing.T) {
	nested := LottieShapeGroup{Items: []LottieShapeItem{strokeItem()}}
	st, found := findFirst[LottieShapeStroke]([]LottieShapeItem{fillItem(), nested})
	if !found {
		t.Fatal("expected to find the nested stroke")
	}
	width, err := st.Width.AsFloat64Track()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertNear(t, "width", float64(width.StaticValue()), 2)
}

func TestValidateNoTrimPathsPanicsOnTrimPath(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a surviving trim path")
		}
	}()
	validateNoTrimPaths([]LottieShapeItem{LottieShapeUnknown{Type: "tm", Name: "Trim Path 1"}})
}

func TestValidateNoTrimPathsOKWithoutTrim(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("unexpected panic: %v", r)
		}
	}()
	validateNoTrimPaths([]LottieShapeItem{rectItem(), fillItem()})
}

func TestReverseBezierDirectionReversesOrderAndSwapsTangents(t *testing.T) {
	verts := []Vec2{{0, 0}, {1, 0}, {1, 1}}
	inT := []Vec2{{0.1, 0}, {0.2, 0}, {0.3, 0}}
	outT := []Vec2{{-0.1, 0}, {-0.2, 0}, {-0.3, 0}}
	rv, rin, rout := reverseBezierDirection(verts, inT, outT)
	if len(rv) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(rv))
	}
	assertNear(t, "reversed[0].x", rv[0].X, 1)
	assertNear(t, "reversed[0].y", rv[0].Y, 1)
	assertNear(t, "rin[0].x", rin[0].X, 0.3)
	assertNear(t, "rout[0].x", rout[0].X, -0.3)
}
