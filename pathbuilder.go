package animir

// defaultFlatness is the flattening tolerance used when a caller doesn't
// override it (spec §4.D: "flatness = 0.5").
const defaultFlatness = 0.5

// PathResourceBuilder flattens and triangulates BezierPath/AnimPath values
// into PathResources ready for registration. The triangulator is injected
// (spec §1: earcut is an external collaborator) so the builder itself
// never implements triangulation.
type PathResourceBuilder struct {
	Triangulator Triangulator
}

// NewPathResourceBuilder constructs a builder using the given triangulator.
func NewPathResourceBuilder(t Triangulator) *PathResourceBuilder {
	return &PathResourceBuilder{Triangulator: t}
}

// Build flattens p at flatness tolerance, triangulates the resulting
// polyline, and returns a single-keyframe PathResource. Returns nil if
// flattening yields fewer than three vertices or triangulation fails
// (spec §4.D: "reject if fewer than three vertices").
func (b *PathResourceBuilder) Build(p BezierPath, flatness float64) *PathResource {
	poly := p.Flatten(flatness)
	if len(poly) < 3 {
		return nil
	}
	indices := b.Triangulator.Triangulate(poly)
	if len(indices) == 0 {
		return nil
	}
	return &PathResource{
		Positions:   [][]float64{flattenPositions(poly)},
		Indices:     indices,
		VertexCount: len(poly),
		Times:       []float64{0},
	}
}

// BuildAnimated flattens every keyframe of an animated path independently,
// verifies all flattenings share a vertex count (spec §4.D: fail
// MASK_PATH_BUILD_FAILED otherwise — signalled here by returning nil),
// triangulates only the first keyframe's polyline, and reuses its indices
// for every keyframe. A single-keyframe AnimPath is built exactly like a
// static path (spec §9 bullet 2).
func (b *PathResourceBuilder) BuildAnimated(a AnimPath, flatness float64) *PathResource {
	if !a.IsKeyframed() {
		return b.Build(a.StaticValue(), flatness)
	}

	kfs := a.Keyframes()
	polys := make([][]Vec2, len(kfs))
	for i, kf := range kfs {
		poly := kf.Value.Flatten(flatness)
		if len(poly) < 3 {
			return nil
		}
		polys[i] = poly
	}
	count := len(polys[0])
	for _, poly := range polys[1:] {
		if len(poly) != count {
			return nil
		}
	}

	indices := b.Triangulator.Triangulate(polys[0])
	if len(indices) == 0 {
		return nil
	}

	positions := make([][]float64, len(polys))
	times := make([]float64, len(kfs))
	for i, poly := range polys {
		positions[i] = flattenPositions(poly)
		times[i] = kfs[i].Time
	}

	easing := make([]pathSegmentEasing, len(kfs)-1)
	for i := 0; i < len(kfs)-1; i++ {
		left, right := kfs[i], kfs[i+1]
		seg := pathSegmentEasing{OutX: 0, OutY: 0, InX: 1, InY: 1}
		if left.Hold {
			seg.Hold = true
		} else {
			if left.OutTangent != nil {
				seg.OutX, seg.OutY = left.OutTangent.X, left.OutTangent.Y
			}
			if right.InTangent != nil {
				seg.InX, seg.InY = right.InTangent.X, right.InTangent.Y
			}
		}
		easing[i] = seg
	}

	return &PathResource{
		Positions:   positions,
		Indices:     indices,
		VertexCount: count,
		Times:       times,
		Easing:      easing,
	}
}

// flattenPositions converts a Vec2 polyline into an (x0,y0,x1,y1,...) array.
func flattenPositions(poly []Vec2) []float64 {
	out := make([]float64, len(poly)*2)
	for i, p := range poly {
		out[i*2] = p.X
		out[i*2+1] = p.Y
	}
	return out
}
