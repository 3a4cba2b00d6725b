package engine

import (
	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/geom"
)

// DropOutcome describes what happened when a drag ended
type DropOutcome struct {
	ShapeID string `json:"shape_id"`
	// Slot is empty when the release did not target any slot
	Slot      string `json:"slot,omitempty"`
	Result    Result `json:"result"`
	Restored  bool   `json:"restored,omitempty"`
	PushedOut bool   `json:"pushed_out,omitempty"`
	State     State  `json:"state"`
}

// Targeted reports whether the drop was tested against a slot
func (o DropOutcome) Targeted() bool { return o.Slot != "" }

// Draggable drives one shape through Idle, Dragging and Locked
type Draggable struct {
	shape *Shape
	board *Board

	offset    geom.Vec2
	start     Pose
	lastValid geom.Vec2
	forbidden bool
	touch     TouchTracker
}

// Shape returns the shape being driven
func (d *Draggable) Shape() *Shape { return d.shape }

// State returns the current lifecycle state
func (d *Draggable) State() State { return d.shape.State }

// Forbidden reports whether the last drag update landed in a forbidden zone
func (d *Draggable) Forbidden() bool { return d.forbidden }

// LastValid returns the last drag position outside every forbidden zone
func (d *Draggable) LastValid() geom.Vec2 { return d.lastValid }

// BeginDrag picks the shape up at a world pointer position. It only works
// from Idle and while no other shape holds the drag session.
func (d *Draggable) BeginDrag(pointer geom.Vec2) bool {
	s := d.shape
	if s.State != Idle {
		return false
	}
	if !d.board.session.Begin(s) {
		d.board.log.Debug("drag refused, session busy", zap.String("shape", s.ID))
		return false
	}

	d.offset = s.Pose.Position.Sub(s.layer.ToLocal(pointer))
	d.start = s.Pose
	d.lastValid = s.Pose.Position
	d.forbidden = false
	d.touch = TouchTracker{}

	s.State = Dragging
	s.HitTestable = false
	s.Order = d.board.raise()
	return true
}

// UpdateDrag moves the shape to follow the pointer, clamped to the play area,
// then applies m.
func (d *Draggable) UpdateDrag(pointer geom.Vec2, m Manipulation) bool {
	s := d.shape
	if s.State != Dragging {
		return false
	}

	wanted := s.layer.ToLocal(pointer).Add(d.offset)
	pos, forbidden := d.board.constrain(s.layer, wanted)
	s.Pose.Position = pos
	d.forbidden = forbidden
	if !forbidden {
		d.lastValid = pos
	}

	d.manipulate(m)
	return true
}

// Manipulate applies rotation, scale and mirror input while dragging
func (d *Draggable) Manipulate(m Manipulation) bool {
	if d.shape.State != Dragging {
		return false
	}
	d.manipulate(m)
	return true
}

// Touch feeds the current touch points to the pinch and twist tracker
func (d *Draggable) Touch(touches []geom.Vec2) bool {
	if d.shape.State != Dragging {
		return false
	}
	d.manipulate(d.touch.Update(touches, d.board.settings.PinchFactor))
	return true
}

func (d *Draggable) manipulate(m Manipulation) {
	if m.IsZero() {
		return
	}
	d.shape.Pose = d.board.settings.applyManipulation(d.shape.Pose, m)
}

// EndDrag releases the shape at a world pointer position. hint names a slot
// ID (or "slotID/part"); with no hint the slot under the pointer is used.
func (d *Draggable) EndDrag(pointer geom.Vec2, hint string) DropOutcome {
	s := d.shape
	out := DropOutcome{ShapeID: s.ID, State: s.State}
	if s.State != Dragging {
		return out
	}
	b := d.board

	s.HitTestable = true
	d.forbidden = false

	if pos, moved := b.pushOut(s.layer, s.Pose.Position); moved {
		s.Pose.Position = pos
		out.PushedOut = true
	}

	if slot := b.resolveSlot(hint, pointer); slot != nil {
		out.Slot = slot.ID
		out.Result = b.matcher.TryAccept(d, slot)
		if !out.Result.Accepted && b.settings.RestoreOnReject {
			s.Pose = d.start
			out.Restored = true
		}
	}

	if s.State == Dragging {
		s.State = Idle
		s.Pose.Position, _ = b.constrain(s.layer, s.Pose.Position)
	}
	b.session.End(s)
	b.saveTransform(s)

	out.State = s.State
	return out
}

// ForceLock locks the shape in place. Locking is permanent until the board
// is rebuilt.
func (d *Draggable) ForceLock(reason string) bool {
	s := d.shape
	if s.State == Locked {
		return false
	}
	s.State = Locked
	s.HitTestable = false
	d.forbidden = false
	d.board.session.End(s)
	d.board.log.Debug("shape locked", zap.String("shape", s.ID), zap.String("reason", reason))
	return true
}
