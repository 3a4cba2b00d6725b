package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/geom"
)

// Reason names the first acceptance check a drop failed
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonNoShape     Reason = "no_shape"
	ReasonFilled      Reason = "filled"
	ReasonTagMismatch Reason = "tag_mismatch"
	ReasonProximity   Reason = "proximity"
	ReasonRotation    Reason = "rotation"
	ReasonScale       Reason = "scale"
)

// Result is the outcome of an acceptance test. Reason and Detail are for
// diagnostics only.
type Result struct {
	Accepted bool   `json:"accepted"`
	Reason   Reason `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func reject(r Reason, format string, args ...any) Result {
	return Result{Reason: r, Detail: fmt.Sprintf(format, args...)}
}

// Lockable is a draggable the matcher can snap and lock
type Lockable interface {
	Shape() *Shape
	ForceLock(reason string) bool
}

// MatchEvent is emitted once per slot when a shape is accepted
type MatchEvent struct {
	SlotID  string    `json:"slot_id"`
	ShapeID string    `json:"shape_id"`
	Tag     Tag       `json:"tag"`
	At      time.Time `json:"at"`
}

// MatchListener receives match notifications
type MatchListener func(MatchEvent)

// Matcher decides whether a shape fits a slot and performs the snap
type Matcher struct {
	mu        sync.Mutex
	listeners map[int]MatchListener
	nextID    int
	log       *zap.Logger
}

// NewMatcher creates a matcher; a nil logger discards diagnostics
func NewMatcher(log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{
		listeners: make(map[int]MatchListener),
		log:       log,
	}
}

// OnMatch registers fn and returns a function that removes it
func (m *Matcher) OnMatch(fn MatchListener) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Evaluate runs the acceptance checks in order without changing anything
func (m *Matcher) Evaluate(shape *Shape, slot *Slot) Result {
	if shape == nil || slot == nil {
		return reject(ReasonNoShape, "missing shape or slot")
	}
	if slot.Filled {
		return reject(ReasonFilled, "slot %s already filled", slot.ID)
	}
	if shape.Tag != slot.Tag {
		return reject(ReasonTagMismatch, "need %s, got %s", slot.Tag, shape.Tag)
	}

	tol := slot.Tolerances
	if tol.SnapDistance > 0 {
		d := shape.WorldPosition().Dist(slot.WorldPosition())
		if d > tol.SnapDistance {
			return reject(ReasonProximity, "distance %.1f > %.1f", d, tol.SnapDistance)
		}
	}

	if tol.RequireRotation {
		diff := math.Abs(geom.DeltaAngle(shape.WorldRotation(), slot.WorldRotation()))
		if diff > tol.RotationToleranceDeg {
			return reject(ReasonRotation, "rotation diff %.1f > %.1f", diff, tol.RotationToleranceDeg)
		}
	}

	if tol.RequireScale {
		c := shape.WorldScale().Abs()
		s := slot.WorldScale().Abs()
		if !withinTol(c.X, s.X, tol.SizeTolerancePercent) {
			return reject(ReasonScale, "x %.2f vs %.2f ±%.0f%%", c.X, s.X, tol.SizeTolerancePercent*100)
		}
		if !withinTol(c.Y, s.Y, tol.SizeTolerancePercent) {
			return reject(ReasonScale, "y %.2f vs %.2f ±%.0f%%", c.Y, s.Y, tol.SizeTolerancePercent*100)
		}
	}

	return Result{Accepted: true}
}

// TryAccept evaluates item against slot. On success the shape is snapped to
// the anchor, the slot is filled, the shape is locked and listeners are
// notified once. On failure nothing is mutated.
func (m *Matcher) TryAccept(item Lockable, slot *Slot) Result {
	var shape *Shape
	if item != nil {
		shape = item.Shape()
	}

	res := m.Evaluate(shape, slot)
	if !res.Accepted {
		m.log.Debug("drop rejected",
			zap.String("slot", slotID(slot)),
			zap.String("reason", string(res.Reason)),
			zap.String("detail", res.Detail))
		return res
	}

	tol := slot.Tolerances
	if tol.SnapOnCorrect {
		snapToAnchor(shape, slot)
	}
	slot.Filled = true
	if tol.LockOnCorrect {
		item.ForceLock("slot:" + slot.ID)
	}

	m.log.Debug("drop accepted", zap.String("slot", slot.ID), zap.String("shape", shape.ID))
	m.notify(MatchEvent{SlotID: slot.ID, ShapeID: shape.ID, Tag: shape.Tag, At: time.Now()})
	return res
}

// FindMatchingSlot returns the first unfilled slot sharing the shape's tag
func (m *Matcher) FindMatchingSlot(shape *Shape, slots []*Slot) *Slot {
	if shape == nil {
		return nil
	}
	for _, s := range slots {
		if s != nil && !s.Filled && s.Tag == shape.Tag {
			return s
		}
	}
	return nil
}

func (m *Matcher) notify(ev MatchEvent) {
	m.mu.Lock()
	fns := make([]MatchListener, 0, len(m.listeners))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// snapToAnchor copies the anchor's world position and rotation onto the shape
// and its scale magnitude per axis, keeping the shape's mirror signs.
func snapToAnchor(shape *Shape, slot *Slot) {
	layer := shape.layer
	shape.Pose.Position = layer.ToLocal(slot.WorldPosition())
	shape.Pose.Rotation = slot.WorldRotation() - layer.WorldRotation()

	mag := slot.WorldScale().Abs().Div(layer.WorldScale().Abs())
	shape.Pose.Scale = mag.Mul(shape.Pose.Scale.Signs())
}

func withinTol(a, b, pct float64) bool {
	return a >= b*(1-pct) && a <= b*(1+pct)
}

func slotID(s *Slot) string {
	if s == nil {
		return ""
	}
	return s.ID
}
