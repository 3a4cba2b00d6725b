package play

import (
	"fmt"

	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/hazard"
	"github.com/wricardo/silhouette-match/game/progress"
)

// State is the full round state. It is what clients render and what
// sessions persist; SetState on a round of the same level reproduces it.
type State struct {
	Level   string  `json:"level"`
	Seed    uint64  `json:"seed"`
	Elapsed float64 `json:"elapsed"`
	Order   int     `json:"order"`

	Shapes   []engine.Shape `json:"shapes"`
	Slots    []engine.Slot  `json:"slots"`
	Dragging string         `json:"dragging,omitempty"`

	Hazards *hazard.FieldState `json:"hazards,omitempty"`

	Matched      int              `json:"matched"`
	Total        int              `json:"total"`
	Penalties    int              `json:"penalties"`
	MaxPenalties int              `json:"max_penalties"`
	ProgressText string           `json:"progress_text"`
	PenaltyText  string           `json:"penalty_text"`
	Verdict      progress.Verdict `json:"verdict"`
}

// State returns a copy of the round state
func (r *Round) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.board.Snapshot()
	st := State{
		Level:        r.cfg.Name,
		Seed:         r.seed,
		Elapsed:      r.elapsed,
		Order:        snap.Order,
		Matched:      r.progress.Matched(),
		Total:        r.progress.Total(),
		Penalties:    r.penalties.Count(),
		MaxPenalties: r.penalties.Max(),
		ProgressText: r.progress.Text(),
		PenaltyText:  r.penalties.Text(),
		Verdict:      r.referee.Verdict(),
	}
	for _, s := range r.board.Shapes() {
		st.Shapes = append(st.Shapes, *s)
	}
	for _, s := range r.board.Slots() {
		st.Slots = append(st.Slots, *s)
	}
	if s := r.dragging(); s != nil {
		st.Dragging = s.ID
	}
	if r.hazards != nil {
		fs := r.hazards.Snapshot()
		st.Hazards = &fs
	}
	return st
}

// SetState rebuilds the layout from st.Seed and applies st on top of it.
// A car that was mid-drag comes back idle.
func (r *Round) SetState(st State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st.Level != r.cfg.Name {
		return fmt.Errorf("state is for level %q, round plays %q", st.Level, r.cfg.Name)
	}
	if err := r.build(st.Seed); err != nil {
		return err
	}

	bs := engine.BoardState{Order: st.Order}
	for _, s := range st.Shapes {
		bs.Shapes = append(bs.Shapes, engine.ShapeState{ID: s.ID, Pose: s.Pose, State: s.State, Order: s.Order})
	}
	for _, s := range st.Slots {
		bs.Slots = append(bs.Slots, engine.SlotState{ID: s.ID, Filled: s.Filled})
	}
	if err := r.board.Restore(bs); err != nil {
		return err
	}

	for _, s := range r.board.Slots() {
		if s.Filled {
			r.progress.Match(s.ID)
		}
	}
	r.penalties.Add(st.Penalties, "restore")
	if r.hazards != nil && st.Hazards != nil {
		r.hazards.Restore(*st.Hazards)
	}
	outcome := st.Verdict.Outcome
	if outcome == "" {
		outcome = progress.Playing
	}
	r.referee.Restore(outcome)
	r.elapsed = st.Elapsed
	r.pending = nil
	return nil
}
