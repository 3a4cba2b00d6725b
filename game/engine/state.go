package engine

import "fmt"

// ShapeState is the mutable part of a shape
type ShapeState struct {
	ID    string `json:"id"`
	Pose  Pose   `json:"pose"`
	State State  `json:"state"`
	Order int    `json:"order"`
}

// SlotState is the mutable part of a slot
type SlotState struct {
	ID     string `json:"id"`
	Filled bool   `json:"filled"`
}

// BoardState captures everything that changes during play. Restoring it onto
// a board rebuilt from the same level and seed reproduces the round.
type BoardState struct {
	Shapes []ShapeState `json:"shapes"`
	Slots  []SlotState  `json:"slots"`
	Order  int          `json:"order"`
}

// Snapshot returns the current board state
func (b *Board) Snapshot() BoardState {
	st := BoardState{
		Shapes: make([]ShapeState, 0, len(b.shapes)),
		Slots:  make([]SlotState, 0, len(b.slots)),
		Order:  b.order,
	}
	for _, s := range b.shapes {
		st.Shapes = append(st.Shapes, ShapeState{ID: s.ID, Pose: s.Pose, State: s.State, Order: s.Order})
	}
	for _, s := range b.slots {
		st.Slots = append(st.Slots, SlotState{ID: s.ID, Filled: s.Filled})
	}
	return st
}

// Restore applies a snapshot. A shape saved mid-drag comes back Idle since
// the grab offset is not part of the snapshot.
func (b *Board) Restore(st BoardState) error {
	for _, ss := range st.Shapes {
		if _, ok := b.draggables[ss.ID]; !ok {
			return fmt.Errorf("restore: unknown shape %q", ss.ID)
		}
	}
	for _, ss := range st.Slots {
		if _, ok := b.slotByID[ss.ID]; !ok {
			return fmt.Errorf("restore: unknown slot %q", ss.ID)
		}
	}

	b.session.Clear()
	for _, ss := range st.Shapes {
		d := b.draggables[ss.ID]
		s := d.shape
		s.Pose = ss.Pose
		s.Order = ss.Order
		s.State = ss.State
		if s.State == Dragging || s.State == "" {
			s.State = Idle
		}
		s.HitTestable = s.State != Locked
		d.forbidden = false
		d.lastValid = s.Pose.Position
	}
	for _, ss := range st.Slots {
		b.slotByID[ss.ID].Filled = ss.Filled
	}
	b.order = max(b.order, st.Order)
	return nil
}
