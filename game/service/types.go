package service

import (
	"time"

	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
	"github.com/wricardo/silhouette-match/game/layout"
	"github.com/wricardo/silhouette-match/game/play"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string              `json:"id"`
	LevelID        string              `json:"level_id"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	State          *play.State         `json:"state"`
	Level          *engine.LevelConfig `json:"level,omitempty"`
}

// ListOptions sorts and limits ListSessions
type ListOptions struct {
	Sort  string `json:"sort"`  // "accessed" (default) or "created"
	Order string `json:"order"` // "desc" (default) or "asc"
	Limit int    `json:"limit"` // 0 means all
}

// ActionResult is returned by every round operation
type ActionResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Events  []play.Event `json:"events,omitempty"`
	State   *play.State  `json:"state"`
}

// DropResult is an ActionResult plus how the drop was judged
type DropResult struct {
	ActionResult
	Outcome engine.DropOutcome `json:"outcome"`
}

// PreviewResult is the ghost hint for the dragged car
type PreviewResult struct {
	Active  bool            `json:"active"`
	Preview *engine.Preview `json:"preview,omitempty"`
}

// LevelInfo provides information about a level file
type LevelInfo struct {
	Filename    string  `json:"filename"`
	LevelID     string  `json:"level_id"` // The identifier to use for session creation
	Name        string  `json:"name"`     // Display name
	Description string  `json:"description"`
	Pairs       int     `json:"pairs"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Hazards     bool    `json:"hazards"`
}

// PlanItem is one footprint for the stateless planner
type PlanItem struct {
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Scale  geom.Vec2 `json:"scale,omitempty"`
}

// Plan request limits. A level round plans one slot and one car per pair.
const (
	MaxPlanItems = 2 * engine.MaxPairs
	MaxPlanZones = 64
)

// PlanRequest runs the planner without a session. Zero option fields take
// the values from layout.DefaultOptions.
type PlanRequest struct {
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Forbidden []engine.Zone  `json:"forbidden,omitempty"`
	Items     []PlanItem     `json:"items"`
	Options   layout.Options `json:"options"`
	Seed      uint64         `json:"seed"`
}

// PlanResult holds one placement per requested item
type PlanResult struct {
	Placements []layout.Placement `json:"placements"`
	Summary    layout.Summary     `json:"summary"`
	Seed       uint64             `json:"seed"`
}
