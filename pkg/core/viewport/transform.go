package viewport

import (
	"fmt"
	"math"
)

// Point is a 2D coordinate, in screen or layout space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform maps layout space to screen space: screen = layout*K + (X, Y).
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity leaves points unchanged.
var Identity = Transform{K: 1}

// Apply maps a layout point to the screen.
func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen point back to layout space.
func (t Transform) Invert(p Point) Point {
	return Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// Translate shifts the transform by a screen-space delta.
func (t Transform) Translate(dx, dy float64) Transform {
	t.X += dx
	t.Y += dy
	return t
}

// ScaleAbout changes the scale to k while keeping the layout point under
// the screen point p fixed.
func (t Transform) ScaleAbout(k float64, p Point) Transform {
	anchor := t.Invert(p)
	return Transform{X: p.X - anchor.X*k, Y: p.Y - anchor.Y*k, K: k}
}

// Valid reports whether every component is finite and the scale positive.
func (t Transform) Valid() bool {
	return finite(t.X) && finite(t.Y) && finite(t.K) && t.K > 0
}

// String renders the transform as an SVG transform attribute value.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", t.X, t.Y, t.K)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
