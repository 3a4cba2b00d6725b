package engine

import (
	"math"

	"github.com/wricardo/silhouette-match/game/geom"
)

// DragSettings are the per-level manipulation rules
type DragSettings struct {
	RotateSpeedDeg       float64   `json:"rotate_speed_deg" yaml:"rotate_speed_deg"`
	ScaleSpeed           geom.Vec2 `json:"scale_speed" yaml:"scale_speed"`
	ShiftMultiplier      float64   `json:"shift_multiplier" yaml:"shift_multiplier"`
	MinScale             geom.Vec2 `json:"min_scale" yaml:"min_scale"`
	MaxScale             geom.Vec2 `json:"max_scale" yaml:"max_scale"`
	PreserveAspect       bool      `json:"preserve_aspect" yaml:"preserve_aspect"`
	AllowMirroring       bool      `json:"allow_mirroring" yaml:"allow_mirroring"`
	AllowReset           bool      `json:"allow_reset" yaml:"allow_reset"`
	DefaultScale         geom.Vec2 `json:"default_scale" yaml:"default_scale"`
	ForbiddenEdgePadding float64   `json:"forbidden_edge_padding" yaml:"forbidden_edge_padding"`
	RestoreOnReject      bool      `json:"restore_on_reject" yaml:"restore_on_reject"`
	PinchFactor          float64   `json:"pinch_factor" yaml:"pinch_factor"`
	SaveTransformState   bool      `json:"save_transform_state" yaml:"save_transform_state"`
	SaveKeyPrefix        string    `json:"save_key_prefix" yaml:"save_key_prefix"`
}

// DefaultDragSettings returns the stock manipulation rules
func DefaultDragSettings() DragSettings {
	return DragSettings{
		RotateSpeedDeg:       DefaultRotateSpeedDeg,
		ScaleSpeed:           geom.V(DefaultScaleSpeed, DefaultScaleSpeed),
		ShiftMultiplier:      DefaultShiftMultiplier,
		MinScale:             geom.V(DefaultMinScale, DefaultMinScale),
		MaxScale:             geom.V(DefaultMaxScale, DefaultMaxScale),
		AllowMirroring:       true,
		AllowReset:           true,
		DefaultScale:         geom.One,
		ForbiddenEdgePadding: DefaultForbiddenEdgePadding,
		PinchFactor:          DefaultPinchFactor,
		SaveKeyPrefix:        DefaultSaveKeyPrefix,
	}
}

// Manipulation is the auxiliary input applied while dragging
type Manipulation struct {
	// Rotate is a counter-clockwise delta in degrees
	Rotate float64 `json:"rotate,omitempty"`
	// ScaleX and ScaleY are deltas on the scale magnitude
	ScaleX  float64 `json:"scale_x,omitempty"`
	ScaleY  float64 `json:"scale_y,omitempty"`
	MirrorX bool    `json:"mirror_x,omitempty"`
	MirrorY bool    `json:"mirror_y,omitempty"`
	Reset   bool    `json:"reset,omitempty"`
}

// IsZero reports whether m changes nothing
func (m Manipulation) IsZero() bool {
	return m == Manipulation{}
}

// Merge adds the deltas of o and ORs its toggles
func (m Manipulation) Merge(o Manipulation) Manipulation {
	return Manipulation{
		Rotate:  m.Rotate + o.Rotate,
		ScaleX:  m.ScaleX + o.ScaleX,
		ScaleY:  m.ScaleY + o.ScaleY,
		MirrorX: m.MirrorX != o.MirrorX,
		MirrorY: m.MirrorY != o.MirrorY,
		Reset:   m.Reset || o.Reset,
	}
}

// KeyState is the keyboard state for one frame. Held keys scale by dt;
// Mirror and Reset are edge-triggered.
type KeyState struct {
	RotateCCW bool `json:"rotate_ccw,omitempty"` // Z
	RotateCW  bool `json:"rotate_cw,omitempty"`  // X
	GrowX     bool `json:"grow_x,omitempty"`     // right arrow
	ShrinkX   bool `json:"shrink_x,omitempty"`   // left arrow
	GrowY     bool `json:"grow_y,omitempty"`     // up arrow
	ShrinkY   bool `json:"shrink_y,omitempty"`   // down arrow
	Slow      bool `json:"slow,omitempty"`       // shift
	MirrorX   bool `json:"mirror_x,omitempty"`   // Q
	MirrorY   bool `json:"mirror_y,omitempty"`   // E
	Reset     bool `json:"reset,omitempty"`      // R
}

// FromKeys converts a frame of keyboard state into a Manipulation
func (s DragSettings) FromKeys(k KeyState, dt float64) Manipulation {
	mult := 1.0
	if k.Slow {
		mult = s.ShiftMultiplier
	}

	var m Manipulation
	if k.RotateCCW {
		m.Rotate += s.RotateSpeedDeg * mult * dt
	}
	if k.RotateCW {
		m.Rotate -= s.RotateSpeedDeg * mult * dt
	}
	if k.GrowX {
		m.ScaleX += s.ScaleSpeed.X * mult * dt
	}
	if k.ShrinkX {
		m.ScaleX -= s.ScaleSpeed.X * mult * dt
	}
	if k.GrowY {
		m.ScaleY += s.ScaleSpeed.Y * mult * dt
	}
	if k.ShrinkY {
		m.ScaleY -= s.ScaleSpeed.Y * mult * dt
	}
	m.MirrorX = k.MirrorX
	m.MirrorY = k.MirrorY
	m.Reset = k.Reset
	return m
}

// TouchTracker turns two-finger pinch and twist gestures into manipulation deltas
type TouchTracker struct {
	lastDist  float64
	lastAngle float64
	tracking  bool
}

// Update consumes the current touch points. With fewer than two touches the
// gesture ends and nothing is returned.
func (t *TouchTracker) Update(touches []geom.Vec2, pinchFactor float64) Manipulation {
	if len(touches) < 2 {
		t.tracking = false
		return Manipulation{}
	}

	d := touches[1].Sub(touches[0])
	dist := d.Len()
	angle := d.Angle()

	var m Manipulation
	if t.tracking {
		diff := (dist - t.lastDist) * pinchFactor
		m.ScaleX, m.ScaleY = diff, diff
		m.Rotate = geom.DeltaAngle(t.lastAngle, angle)
	}

	t.lastDist, t.lastAngle, t.tracking = dist, angle, true
	return m
}

// applyManipulation returns pose p changed by m under settings s
func (s DragSettings) applyManipulation(p Pose, m Manipulation) Pose {
	if math.Abs(m.Rotate) > 1e-4 {
		p.Rotation += m.Rotate
	}

	sc := p.Scale
	dx, dy := m.ScaleX, m.ScaleY
	if s.PreserveAspect && (math.Abs(dx) > 1e-3 || math.Abs(dy) > 1e-3) {
		delta := dy
		if math.Abs(dx) > math.Abs(dy) {
			delta = dx
		}
		sc.X = geom.Sign(sc.X) * geom.Clamp(math.Abs(sc.X)+delta, s.MinScale.X, s.MaxScale.X)
		sc.Y = geom.Sign(sc.Y) * geom.Clamp(math.Abs(sc.Y)+delta, s.MinScale.Y, s.MaxScale.Y)
	} else {
		if math.Abs(dx) > 1e-3 {
			sc.X = geom.Sign(sc.X) * geom.Clamp(math.Abs(sc.X)+dx, s.MinScale.X, s.MaxScale.X)
		}
		if math.Abs(dy) > 1e-3 {
			sc.Y = geom.Sign(sc.Y) * geom.Clamp(math.Abs(sc.Y)+dy, s.MinScale.Y, s.MaxScale.Y)
		}
	}

	if s.AllowMirroring {
		if m.MirrorX {
			sc.X = -sc.X
		}
		if m.MirrorY {
			sc.Y = -sc.Y
		}
	}
	p.Scale = sc

	if s.AllowReset && m.Reset {
		p.Scale = s.DefaultScale.Abs().Mul(p.Scale.Signs())
		p.Rotation = 0
	}
	return p
}
