package geom

import "math"

// Rect is an axis-aligned rectangle given by its min and max corners
type Rect struct {
	Min Vec2 `json:"min" yaml:"min"`
	Max Vec2 `json:"max" yaml:"max"`
}

// MinMax builds a Rect from two corners in any order
func MinMax(x0, y0, x1, y1 float64) Rect {
	return Rect{
		Min: Vec2{math.Min(x0, x1), math.Min(y0, y1)},
		Max: Vec2{math.Max(x0, x1), math.Max(y0, y1)},
	}
}

// Centered builds a Rect of the given size around center
func Centered(center, size Vec2) Rect {
	h := size.Abs().Scale(0.5)
	return Rect{Min: center.Sub(h), Max: center.Add(h)}
}

// BoundsOf returns the smallest Rect containing all points
func BoundsOf(points ...Vec2) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	r := Rect{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }
func (r Rect) Size() Vec2      { return Vec2{r.Width(), r.Height()} }
func (r Rect) Center() Vec2    { return r.Min.Add(r.Max).Scale(0.5) }

// Empty reports whether the rect has no area
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains reports whether p lies inside r, edges included
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Overlaps reports whether the interiors of r and o intersect
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X && r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y
}

// Clamp returns the point of r closest to p
func (r Rect) Clamp(p Vec2) Vec2 {
	return Vec2{Clamp(p.X, r.Min.X, r.Max.X), Clamp(p.Y, r.Min.Y, r.Max.Y)}
}

// Inset shrinks r by d on each side. Insets larger than half the size
// collapse that axis onto the center line.
func (r Rect) Inset(d Vec2) Rect {
	out := Rect{Min: r.Min.Add(d), Max: r.Max.Sub(d)}
	if out.Min.X > out.Max.X {
		c := r.Center().X
		out.Min.X, out.Max.X = c, c
	}
	if out.Min.Y > out.Max.Y {
		c := r.Center().Y
		out.Min.Y, out.Max.Y = c, c
	}
	return out
}

// Corners returns the corners in the order bottom-left, top-left, top-right, bottom-right
func (r Rect) Corners() [4]Vec2 {
	return [4]Vec2{
		r.Min,
		{r.Min.X, r.Max.Y},
		r.Max,
		{r.Max.X, r.Min.Y},
	}
}

// Exit moves p out of r through the nearest edge plus pad. Only exits that
// land inside bounds are considered unless bounds is empty or none do.
// Edges are checked left, right, bottom, top and ties keep the earlier one.
func (r Rect) Exit(p Vec2, pad float64, bounds Rect) Vec2 {
	exits := [4]struct {
		dist float64
		out  Vec2
	}{
		{p.X - r.Min.X, Vec2{r.Min.X - pad, p.Y}},
		{r.Max.X - p.X, Vec2{r.Max.X + pad, p.Y}},
		{p.Y - r.Min.Y, Vec2{p.X, r.Min.Y - pad}},
		{r.Max.Y - p.Y, Vec2{p.X, r.Max.Y + pad}},
	}

	best := -1
	for i, e := range exits {
		if !bounds.Empty() && !bounds.Contains(e.out) {
			continue
		}
		if best < 0 || e.dist < exits[best].dist {
			best = i
		}
	}
	if best < 0 {
		best = 0
		for i, e := range exits {
			if e.dist < exits[best].dist {
				best = i
			}
		}
	}
	return exits[best].out
}

// ContainsAny reports whether any of rects contains p
func ContainsAny(rects []Rect, p Vec2) bool {
	for _, r := range rects {
		if r.Contains(p) {
			return true
		}
	}
	return false
}
