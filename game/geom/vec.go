package geom

import "math"

// Vec2 is a 2D vector or point
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// V is shorthand for Vec2{x, y}
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// One is the identity scale
var One = Vec2{X: 1, Y: 1}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale multiplies both components by k
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Mul multiplies component-wise
func (v Vec2) Mul(o Vec2) Vec2 { return Vec2{v.X * o.X, v.Y * o.Y} }

// Div divides component-wise; a zero divisor component yields zero
func (v Vec2) Div(o Vec2) Vec2 {
	var r Vec2
	if o.X != 0 {
		r.X = v.X / o.X
	}
	if o.Y != 0 {
		r.Y = v.Y / o.Y
	}
	return r
}

// Abs returns the component-wise absolute value
func (v Vec2) Abs() Vec2 { return Vec2{math.Abs(v.X), math.Abs(v.Y)} }

// Len returns the Euclidean length
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between two points
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// Rotate rotates the vector counter-clockwise by deg degrees
func (v Vec2) Rotate(deg float64) Vec2 {
	if deg == 0 {
		return v
	}
	s, c := math.Sincos(deg * math.Pi / 180)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Angle returns the direction of v in degrees
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// Near reports whether v and o are within eps on both axes
func (v Vec2) Near(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

// Sign returns -1 for negative values and 1 otherwise (zero counts as positive)
func Sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// Signs returns the per-axis Sign of v
func (v Vec2) Signs() Vec2 { return Vec2{Sign(v.X), Sign(v.Y)} }

// Clamp limits f to [lo, hi]
func Clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
