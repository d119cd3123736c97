package animir

// Color4 is an RGBA color with components in 0..1.
type Color4 struct {
	R, G, B, A float64
}

// colorFromArray reads an RGB or RGBA array (Lottie's "c" property, 0..1
// range), defaulting alpha to 1 when only three components are present.
func colorFromArray(arr []float64) (Color4, error) {
	if len(arr) < 3 {
		return Color4{}, errShapeItem("color value needs at least 3 components")
	}
	a := 1.0
	if len(arr) >= 4 {
		a = arr[3]
	}
	return Color4{R: arr[0], G: arr[1], B: arr[2], A: a}, nil
}
