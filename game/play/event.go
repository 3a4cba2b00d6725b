package play

import (
	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
)

// EventType names what happened during a round
type EventType string

const (
	EventDragStarted  EventType = "drag_started"
	EventDragMoved    EventType = "drag_moved"
	EventDropRejected EventType = "drop_rejected"
	EventMatched      EventType = "matched"
	EventPenalty      EventType = "penalty"
	EventExplosion    EventType = "explosion"
	EventVictory      EventType = "victory"
	EventGameOver     EventType = "game_over"
	EventReset        EventType = "reset"
)

// Event is one thing that happened. Data holds a type-specific payload.
type Event struct {
	Type    EventType `json:"type"`
	ShapeID string    `json:"shape_id,omitempty"`
	SlotID  string    `json:"slot_id,omitempty"`
	Data    any       `json:"data,omitempty"`
}

// Moved is the payload of drag_moved
type Moved struct {
	Pose      engine.Pose `json:"pose"`
	Forbidden bool        `json:"forbidden"`
}

// Started is the payload of drag_started
type Started struct {
	Pointer geom.Vec2 `json:"pointer"`
	Order   int       `json:"order"`
}

// Has reports whether any event in evs has type t
func Has(evs []Event, t EventType) bool {
	for _, e := range evs {
		if e.Type == t {
			return true
		}
	}
	return false
}
