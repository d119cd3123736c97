package animir

import "math"

// BezierPath is an ordered sequence of vertices with in/out tangents
// expressed relative to their vertex, plus a closed flag.
//
// Invariant: len(Vertices) == len(InTangents) == len(OutTangents). An
// "empty" path has zero vertices.
type BezierPath struct {
	Vertices    []Vec2
	InTangents  []Vec2
	OutTangents []Vec2
	Closed      bool
}

// NewBezierPath builds a path, panicking if the three slices' lengths
// disagree (a programmer-error precondition, never user input).
func NewBezierPath(vertices, inTangents, outTangents []Vec2, closed bool) BezierPath {
	if len(vertices) != len(inTangents) || len(vertices) != len(outTangents) {
		panic("animir debug: BezierPath vertex/tangent length mismatch")
	}
	return BezierPath{Vertices: vertices, InTangents: inTangents, OutTangents: outTangents, Closed: closed}
}

// VertexCount returns the number of vertices.
func (p BezierPath) VertexCount() int { return len(p.Vertices) }

// IsEmpty reports whether the path has zero vertices.
func (p BezierPath) IsEmpty() bool { return len(p.Vertices) == 0 }

// segmentCount returns the number of cubic segments the path describes:
// VertexCount-1 for an open path, VertexCount for a closed one (the
// closing segment wraps from the last vertex back to the first).
func (p BezierPath) segmentCount() int {
	n := len(p.Vertices)
	if n < 2 {
		return 0
	}
	if p.Closed {
		return n
	}
	return n - 1
}

// segment returns the four control points of cubic segment i: the anchor
// at vertex i, its outgoing control point, the incoming control point of
// the next vertex, and the anchor at the next vertex.
func (p BezierPath) segment(i int) (p0, c1, c2, p1 Vec2) {
	n := len(p.Vertices)
	j := (i + 1) % n
	p0 = p.Vertices[i]
	p1 = p.Vertices[j]
	c1 = p0.Add(p.OutTangents[i])
	c2 = p1.Add(p.InTangents[j])
	return
}

// AABB returns the axis-aligned bounding box of the path's vertices and
// control points (a conservative, cheap bound — not the tight curve bound).
func (p BezierPath) AABB() AABB {
	if p.IsEmpty() {
		return AABB{}
	}
	v0 := p.Vertices[0]
	box := AABB{MinX: v0.X, MinY: v0.Y, MaxX: v0.X, MaxY: v0.Y}
	include := func(pt Vec2) {
		if pt.X < box.MinX {
			box.MinX = pt.X
		}
		if pt.X > box.MaxX {
			box.MaxX = pt.X
		}
		if pt.Y < box.MinY {
			box.MinY = pt.Y
		}
		if pt.Y > box.MaxY {
			box.MaxY = pt.Y
		}
	}
	for i, v := range p.Vertices {
		include(v)
		include(v.Add(p.InTangents[i]))
		include(v.Add(p.OutTangents[i]))
	}
	return box
}

// Applying returns a new path with vertices transformed as points and
// tangents transformed as vectors (translation excluded).
func (p BezierPath) Applying(m Matrix2D) BezierPath {
	n := len(p.Vertices)
	out := BezierPath{
		Vertices:    make([]Vec2, n),
		InTangents:  make([]Vec2, n),
		OutTangents: make([]Vec2, n),
		Closed:      p.Closed,
	}
	for i := 0; i < n; i++ {
		out.Vertices[i] = m.Apply(p.Vertices[i])
		out.InTangents[i] = m.ApplyVector(p.InTangents[i])
		out.OutTangents[i] = m.ApplyVector(p.OutTangents[i])
	}
	return out
}

// SameTopology reports whether p and o share a vertex count and closed
// flag, the precondition for Interpolated (spec §8 "Interpolation topology
// law").
func (p BezierPath) SameTopology(o BezierPath) bool {
	return p.VertexCount() == o.VertexCount() && p.Closed == o.Closed
}

// Interpolated linearly interpolates p and o vertex-by-vertex (including
// tangents) by t. Defined iff SameTopology(o); panics otherwise since
// callers (AnimPath) must have already checked.
func (p BezierPath) Interpolated(o BezierPath, t float64) BezierPath {
	if !p.SameTopology(o) {
		panic("animir debug: BezierPath.Interpolated requires matching topology")
	}
	n := p.VertexCount()
	out := BezierPath{
		Vertices:    make([]Vec2, n),
		InTangents:  make([]Vec2, n),
		OutTangents: make([]Vec2, n),
		Closed:      p.Closed,
	}
	for i := 0; i < n; i++ {
		out.Vertices[i] = p.Vertices[i].Lerp(o.Vertices[i], t)
		out.InTangents[i] = p.InTangents[i].Lerp(o.InTangents[i], t)
		out.OutTangents[i] = p.OutTangents[i].Lerp(o.OutTangents[i], t)
	}
	return out
}

// nearZeroTangent reports whether v is close enough to the zero vector
// that a segment using it should be treated as a straight line.
func nearZeroTangent(v Vec2) bool {
	const eps = 1e-9
	return math.Abs(v.X) < eps && math.Abs(v.Y) < eps
}

// PathSegmentKind distinguishes a flat line segment from a cubic one.
type PathSegmentKind uint8

const (
	// SegmentLine is a straight line from P0 to P1.
	SegmentLine PathSegmentKind = iota
	// SegmentCubic is a cubic bezier from P0 to P1 via C1, C2.
	SegmentCubic
)

// PathSegment is one reconstructed drawable segment of a BezierPath.
type PathSegment struct {
	Kind   PathSegmentKind
	P0, P1 Vec2
	C1, C2 Vec2 // valid only when Kind == SegmentCubic
}

// Segments reconstructs the path as an ordered list of line/cubic segments,
// per spec §4.C: a segment degrades to a line when both its driving
// tangents are near-zero, and is a cubic otherwise.
func (p BezierPath) Segments() []PathSegment {
	count := p.segmentCount()
	segs := make([]PathSegment, 0, count)
	for i := 0; i < count; i++ {
		p0, c1, c2, p1 := p.segment(i)
		out := p.OutTangents[i]
		in := p.InTangents[(i+1)%len(p.Vertices)]
		if nearZeroTangent(out) && nearZeroTangent(in) {
			segs = append(segs, PathSegment{Kind: SegmentLine, P0: p0, P1: p1})
		} else {
			segs = append(segs, PathSegment{Kind: SegmentCubic, P0: p0, C1: c1, C2: c2, P1: p1})
		}
	}
	return segs
}

// cubicPoint evaluates a cubic bezier segment at parameter t in [0,1].
func cubicPoint(p0, c1, c2, p1 Vec2, t float64) Vec2 {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Vec2{
		a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}

// flattenCubic adaptively subdivides a cubic segment into a polyline,
// appending points (excluding p0, which the caller already emitted) to out.
// flatness is the maximum allowed deviation of the chord from the curve.
func flattenCubic(p0, c1, c2, p1 Vec2, flatness float64, out []Vec2, depth int) []Vec2 {
	const maxDepth = 24
	if depth >= maxDepth || isFlatEnough(p0, c1, c2, p1, flatness) {
		return append(out, p1)
	}
	// De Casteljau subdivision at t=0.5.
	p01 := p0.Lerp(c1, 0.5)
	p12 := c1.Lerp(c2, 0.5)
	p23 := c2.Lerp(p1, 0.5)
	p012 := p01.Lerp(p12, 0.5)
	p123 := p12.Lerp(p23, 0.5)
	mid := p012.Lerp(p123, 0.5)

	out = flattenCubic(p0, p01, p012, mid, flatness, out, depth+1)
	out = flattenCubic(mid, p123, p23, p1, flatness, out, depth+1)
	return out
}

// isFlatEnough measures how far the control points deviate from the chord
// p0-p1 and reports whether that deviation is within flatness.
func isFlatEnough(p0, c1, c2, p1 Vec2, flatness float64) bool {
	d1 := pointLineDistance(c1, p0, p1)
	d2 := pointLineDistance(c2, p0, p1)
	return d1 <= flatness && d2 <= flatness
}

// pointLineDistance returns the perpendicular distance from p to the
// (possibly degenerate) line through a and b.
func pointLineDistance(p, a, b Vec2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq < 1e-12 {
		ox := p.X - a.X
		oy := p.Y - a.Y
		return math.Sqrt(ox*ox + oy*oy)
	}
	// |cross(b-a, p-a)| / |b-a|
	cross := dx*(p.Y-a.Y) - dy*(p.X-a.X)
	return math.Abs(cross) / math.Sqrt(lenSq)
}

// Flatten converts the path to a polyline (a closed or open point loop) by
// adaptively subdividing each cubic segment to within flatness tolerance.
// A closed path's loop is implicit: its first point is not repeated at the
// end.
func (p BezierPath) Flatten(flatness float64) []Vec2 {
	if p.IsEmpty() {
		return nil
	}
	segs := p.Segments()
	if len(segs) == 0 {
		return append([]Vec2(nil), p.Vertices...)
	}
	points := make([]Vec2, 0, len(segs)*4)
	points = append(points, segs[0].P0)
	for _, seg := range segs {
		if seg.Kind == SegmentLine {
			points = append(points, seg.P1)
		} else {
			points = flattenCubic(seg.P0, seg.C1, seg.C2, seg.P1, flatness, points, 0)
		}
	}
	if p.Closed && len(points) > 1 {
		points = points[:len(points)-1]
	}
	return points
}

// Contains reports whether point pt lies inside the path using an even-odd
// fill rule evaluated against the path's cubic reconstruction, flattened at
// a fixed internal tolerance. Only closed paths with at least 3 vertices
// can contain anything.
func (p BezierPath) Contains(pt Vec2) bool {
	if !p.Closed || p.VertexCount() < 3 {
		return false
	}
	poly := p.Flatten(0.5)
	return polygonContainsEvenOdd(poly, pt)
}

// polygonContainsEvenOdd implements the standard even-odd ray-casting test.
func polygonContainsEvenOdd(poly []Vec2, pt Vec2) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) {
			xIntersect := (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if pt.X < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}
