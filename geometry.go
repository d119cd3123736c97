package animir

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Vec2 is a 2D point or vector of doubles.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Lerp linearly interpolates between v and o by t.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Matrix2D is a 2D affine transform: x' = a*x + b*y + c, y' = d*x + e*y + f.
//
// It is defined in terms of [golang.org/x/image/math/f64.Aff3], the same
// affine-matrix shape used elsewhere in the x/image-family ecosystem for
// 2D transforms, rather than a bespoke array type.
type Matrix2D f64.Aff3

// Identity returns the identity affine matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 0, 1, 0}
}

// Translation returns a matrix that translates by (tx, ty).
func Translation(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, tx, 0, 1, ty}
}

// RotationDegrees returns a matrix that rotates by deg degrees (clockwise,
// matching the Lottie/AE screen-space convention where Y points down).
func RotationDegrees(deg float64) Matrix2D {
	r := deg * math.Pi / 180
	sin, cos := math.Sincos(r)
	return Matrix2D{cos, -sin, 0, sin, cos, 0}
}

// Scale returns a matrix that scales by (sx, sy).
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, 0, sy, 0}
}

// Concatenating returns m followed by o, i.e. a point transformed by the
// result is equivalent to applying m first, then o: m.Concatenating(o)
// means "apply m, then o" — matches the usual matrix-premultiply
// convention: result = o * m.
func (m Matrix2D) Concatenating(o Matrix2D) Matrix2D {
	return Matrix2D{
		o[0]*m[0] + o[1]*m[3],
		o[0]*m[1] + o[1]*m[4],
		o[0]*m[2] + o[1]*m[5] + o[2],

		o[3]*m[0] + o[4]*m[3],
		o[3]*m[1] + o[4]*m[4],
		o[3]*m[2] + o[4]*m[5] + o[5],
	}
}

// Apply transforms a point by the matrix (translation included).
func (m Matrix2D) Apply(p Vec2) Vec2 {
	return Vec2{
		m[0]*p.X + m[1]*p.Y + m[2],
		m[3]*p.X + m[4]*p.Y + m[5],
	}
}

// ApplyVector transforms a vector by the matrix (translation excluded),
// used for bezier tangents which are relative offsets, not points.
func (m Matrix2D) ApplyVector(v Vec2) Vec2 {
	return Vec2{
		m[0]*v.X + m[1]*v.Y,
		m[3]*v.X + m[4]*v.Y,
	}
}

// Invert returns the inverse of m, or the identity matrix if m is singular.
func (m Matrix2D) Invert() Matrix2D {
	det := m[0]*m[4] - m[1]*m[3]
	if det > -1e-12 && det < 1e-12 {
		return Identity()
	}
	invDet := 1.0 / det
	a := m[4] * invDet
	b := -m[1] * invDet
	d := -m[3] * invDet
	e := m[0] * invDet
	return Matrix2D{
		a, b, -(a*m[2] + b*m[5]),
		d, e, -(d*m[2] + e*m[5]),
	}
}

// AABB is an axis-aligned bounding box in some coordinate space.
type AABB struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the box's width.
func (b AABB) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box's height.
func (b AABB) Height() float64 { return b.MaxY - b.MinY }

// Union returns the smallest AABB containing both b and o.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Contains reports whether point p lies within the box (inclusive).
func (b AABB) Contains(p Vec2) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// clamp clamps x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
