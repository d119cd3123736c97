package animir

import "math"

// CubicBezierEasing solves a CSS-style cubic-bezier easing curve defined by
// control points (x1,y1) and (x2,y2), with implicit endpoints (0,0) and
// (1,1). Unlike a stateful tween player, Solve is a pure function of x.
type CubicBezierEasing struct {
	X1, Y1, X2, Y2 float64
}

// Solve returns the eased y for input x, per spec §4.C:
//   - x is clamped to [0,1] before solving.
//   - Linear and degenerate control points (x1==y1 && x2==y2) short-circuit
//     to returning x directly.
//   - Otherwise, Newton-Raphson (up to 8 iterations, 1e-6 convergence) finds
//     t such that bezierX(t) == x; if the derivative underflows below
//     1e-6, binary subdivision (8 iterations) takes over.
//   - The result is always clamped to [0,1]; NaN/Inf results fall back to
//     the clamped input.
func (c CubicBezierEasing) Solve(x float64) float64 {
	x = clamp01(x)

	if c.X1 == c.Y1 && c.X2 == c.Y2 {
		return x
	}

	t := solveCubicBezierT(x, c.X1, c.X2)
	y := cubicBezierComponent(t, c.Y1, c.Y2)

	if math.IsNaN(y) || math.IsInf(y, 0) {
		return x
	}
	return clamp01(y)
}

// cubicBezierComponent evaluates one component of the cubic bezier with
// endpoints 0 and 1 and control values p1, p2, at parameter t.
func cubicBezierComponent(t, p1, p2 float64) float64 {
	mt := 1 - t
	return 3*mt*mt*t*p1 + 3*mt*t*t*p2 + t*t*t
}

// cubicBezierDerivative evaluates the derivative of cubicBezierComponent.
func cubicBezierDerivative(t, p1, p2 float64) float64 {
	mt := 1 - t
	return 3*mt*mt*p1 + 6*mt*t*(p2-p1) + 3*t*t*(1-p2)
}

// solveCubicBezierT finds t in [0,1] such that cubicBezierComponent(t,x1,x2) == x.
func solveCubicBezierT(x, x1, x2 float64) float64 {
	t := x // initial guess: identity is usually close
	const maxNewton = 8
	const epsilon = 1e-6

	for i := 0; i < maxNewton; i++ {
		cur := cubicBezierComponent(t, x1, x2) - x
		if math.Abs(cur) < epsilon {
			return t
		}
		deriv := cubicBezierDerivative(t, x1, x2)
		if math.Abs(deriv) < epsilon {
			break
		}
		t -= cur / deriv
		t = clamp01(t)
	}

	// Binary subdivision fallback.
	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < 8; i++ {
		cur := cubicBezierComponent(t, x1, x2)
		if cur < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return t
}
