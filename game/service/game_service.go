package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
	"github.com/wricardo/silhouette-match/game/play"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrConfigNotFound       = errors.New("configuration not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context, opts ListOptions) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Round Operations
	BeginDrag(ctx context.Context, sessionID, shapeID string, pointer geom.Vec2) (*ActionResult, error)
	UpdateDrag(ctx context.Context, sessionID string, in play.DragInput) (*ActionResult, error)
	EndDrag(ctx context.Context, sessionID string, pointer geom.Vec2, target string) (*DropResult, error)
	Preview(ctx context.Context, sessionID string) (*PreviewResult, error)
	Tick(ctx context.Context, sessionID string, dt float64) (*ActionResult, error)
	ClickHazard(ctx context.Context, sessionID, bombID string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*ActionResult, error)
	GetRoundState(ctx context.Context, sessionID string) (*play.State, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*engine.LevelConfig, error)
	SaveLevel(ctx context.Context, levelID string, cfg *engine.LevelConfig) error
	PlanLayout(ctx context.Context, req PlanRequest) (*PlanResult, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, levelID string, cfg *engine.LevelConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles level loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.LevelConfig, error)
	ListConfigs() ([]*LevelInfo, error)
	GetDefault() (string, *engine.LevelConfig)
	SaveConfig(name string, cfg *engine.LevelConfig) error
}

// Session represents an active game session
type Session struct {
	ID             string
	LevelID        string
	Round          *play.Round
	Config         *engine.LevelConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
