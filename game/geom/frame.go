package geom

// Frame is a local coordinate system nested in Parent. A nil Frame is world space.
type Frame struct {
	Parent   *Frame
	Position Vec2
	Rotation float64
	Scale    Vec2
}

// NewFrame returns a frame with unit scale
func NewFrame(parent *Frame, position Vec2, rotation float64) *Frame {
	return &Frame{Parent: parent, Position: position, Rotation: rotation, Scale: One}
}

func (f *Frame) scale() Vec2 {
	if f.Scale == (Vec2{}) {
		return One
	}
	return f.Scale
}

// ToParent maps a local point into the parent frame
func (f *Frame) ToParent(p Vec2) Vec2 {
	if f == nil {
		return p
	}
	return p.Mul(f.scale()).Rotate(f.Rotation).Add(f.Position)
}

// FromParent maps a point in the parent frame into local space
func (f *Frame) FromParent(p Vec2) Vec2 {
	if f == nil {
		return p
	}
	return p.Sub(f.Position).Rotate(-f.Rotation).Div(f.scale())
}

// ToWorld maps a local point all the way up to world space
func (f *Frame) ToWorld(p Vec2) Vec2 {
	for fr := f; fr != nil; fr = fr.Parent {
		p = fr.ToParent(p)
	}
	return p
}

// ToLocal maps a world point into this frame
func (f *Frame) ToLocal(p Vec2) Vec2 {
	if f == nil {
		return p
	}
	return f.FromParent(f.Parent.ToLocal(p))
}

// WorldRotation is the accumulated rotation of the frame in degrees
func (f *Frame) WorldRotation() float64 {
	var r float64
	for fr := f; fr != nil; fr = fr.Parent {
		r += fr.Rotation
	}
	return r
}

// WorldScale is the accumulated per-axis scale, ignoring skew from rotated parents
func (f *Frame) WorldScale() Vec2 {
	s := One
	for fr := f; fr != nil; fr = fr.Parent {
		s = s.Mul(fr.scale())
	}
	return s
}

// Convert maps p from frame from into frame to
func Convert(from, to *Frame, p Vec2) Vec2 {
	return to.ToLocal(from.ToWorld(p))
}

// WorldCorners returns the world-space corners of a rect expressed in frame f
func WorldCorners(f *Frame, r Rect) [4]Vec2 {
	c := r.Corners()
	for i := range c {
		c[i] = f.ToWorld(c[i])
	}
	return c
}

// BoundsIn maps the corners of r (in frame from) into frame to and returns
// their axis-aligned bounds.
func BoundsIn(to, from *Frame, r Rect) Rect {
	c := WorldCorners(from, r)
	for i := range c {
		c[i] = to.ToLocal(c[i])
	}
	return BoundsOf(c[:]...)
}
