package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
	"github.com/wricardo/silhouette-match/game/layout"
	"github.com/wricardo/silhouette-match/game/play"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	log      *zap.Logger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, log *zap.Logger) GameService {
	if log == nil {
		log = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      log,
	}
}

// CreateSession creates a new game session. An empty levelID selects the
// default level.
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg *engine.LevelConfig
	if levelID != "" {
		var err error
		cfg, err = s.configs.LoadConfig(levelID)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				if ids := s.levelIDs(); len(ids) > 0 {
					return nil, fmt.Errorf("level '%s' not found, available levels: %v: %w", levelID, ids, err)
				}
				return nil, fmt.Errorf("level '%s' not found, use /api/levels to list levels: %w", levelID, err)
			}
			return nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
		}
	} else {
		levelID, cfg = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", levelID, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.log.Info("session created", zap.String("session", sess.ID), zap.String("level", levelID))
	return info(sess, true), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return info(sess, true), nil
}

// ListSessions returns active sessions, newest access first by default
func (s *gameServiceImpl) ListSessions(ctx context.Context, opts ListOptions) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, info(sess, false))
	}

	key := func(i *SessionInfo) time.Time { return i.LastAccessedAt }
	if opts.Sort == "created" {
		key = func(i *SessionInfo) time.Time { return i.CreatedAt }
	}
	slices.SortStableFunc(result, func(a, b *SessionInfo) int {
		c := key(a).Compare(key(b))
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if opts.Order == "asc" {
			return c
		}
		return -c
	})

	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.log.Info("session deleted", zap.String("session", sessionID))
	return nil
}

// BeginDrag picks up a car
func (s *gameServiceImpl) BeginDrag(ctx context.Context, sessionID, shapeID string, pointer geom.Vec2) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	evs, err := sess.Round.BeginDrag(shapeID, pointer)
	if errors.Is(err, play.ErrShapeNotFound) {
		return nil, err
	}

	res := s.result(sess, evs, err)
	if err == nil {
		if play.Has(evs, play.EventDragStarted) {
			res.Message = fmt.Sprintf("Picked up %s", shapeID)
		} else {
			res.Success = false
			res.Message = fmt.Sprintf("%s cannot be picked up (locked or another car is being dragged)", shapeID)
		}
	}
	return res, nil
}

// UpdateDrag moves or manipulates the dragged car
func (s *gameServiceImpl) UpdateDrag(ctx context.Context, sessionID string, in play.DragInput) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	evs, err := sess.Round.UpdateDrag(in)
	return s.result(sess, evs, err), nil
}

// EndDrag drops the dragged car, optionally onto a named slot
func (s *gameServiceImpl) EndDrag(ctx context.Context, sessionID string, pointer geom.Vec2, target string) (*DropResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	out, evs, err := sess.Round.EndDrag(pointer, target)
	res := &DropResult{ActionResult: *s.result(sess, evs, err), Outcome: out}
	if err != nil {
		return res, nil
	}

	switch {
	case out.Result.Accepted:
		res.Message = fmt.Sprintf("%s matched %s", out.ShapeID, out.Slot)
	case out.Targeted():
		res.Success = false
		res.Message = fmt.Sprintf("%s rejected by %s: %s", out.ShapeID, out.Slot, out.Result.Reason)
		if out.Result.Detail != "" {
			res.Message += " (" + out.Result.Detail + ")"
		}
	default:
		res.Message = fmt.Sprintf("Dropped %s", out.ShapeID)
	}
	if v := res.State.Verdict; v.Title != "" {
		res.Message += ". " + v.Title
	}
	return res, nil
}

// Preview returns the ghost hint for the dragged car
func (s *gameServiceImpl) Preview(ctx context.Context, sessionID string) (*PreviewResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	p, ok := sess.Round.Preview()
	if !ok {
		return &PreviewResult{}, nil
	}
	return &PreviewResult{Active: true, Preview: &p}, nil
}

// Tick advances the round clock and its hazards
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, dt float64) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	evs, err := sess.Round.Tick(dt)
	return s.result(sess, evs, err), nil
}

// ClickHazard detonates a bomb
func (s *gameServiceImpl) ClickHazard(ctx context.Context, sessionID, bombID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	evs, err := sess.Round.ClickHazard(bombID)
	return s.result(sess, evs, err), nil
}

// Reset re-plans the round
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	evs, err := sess.Round.Reset()
	if err != nil {
		return nil, fmt.Errorf("failed to reset round: %w", err)
	}
	res := s.result(sess, evs, nil)
	res.Message = "Round reset"
	return res, nil
}

// GetRoundState retrieves the current round state
func (s *gameServiceImpl) GetRoundState(ctx context.Context, sessionID string) (*play.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	st := sess.Round.State()
	return &st, nil
}

// ListLevels returns available levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.configs.ListConfigs()
}

// LoadLevel loads a specific level
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID string) (*engine.LevelConfig, error) {
	return s.configs.LoadConfig(levelID)
}

// SaveLevel validates and saves a level to disk
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelID string, cfg *engine.LevelConfig) error {
	return s.configs.SaveConfig(levelID, cfg)
}

// PlanLayout runs the placement planner on an ad-hoc area
func (s *gameServiceImpl) PlanLayout(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	opts, err := planOptions(req)
	if err != nil {
		return nil, err
	}

	area := geom.Centered(geom.Vec2{}, geom.V(req.Width, req.Height))
	forbidden := make([]geom.Rect, 0, len(req.Forbidden))
	for _, z := range req.Forbidden {
		forbidden = append(forbidden, z.BoundsIn(nil))
	}
	items := make([]layout.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, layout.Item{Size: geom.V(it.Width, it.Height), Scale: it.Scale})
	}

	plan := layout.NewPlanner(req.Seed, s.log).Plan(area, forbidden, items, opts)
	return &PlanResult{
		Placements: plan,
		Summary:    layout.Summarize(plan, opts.MinSpacing),
		Seed:       req.Seed,
	}, nil
}

// planOptions checks a plan request against the level limits and fills
// zero option fields from layout.DefaultOptions.
func planOptions(req PlanRequest) (layout.Options, error) {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	if req.Width <= 0 || req.Height <= 0 {
		fail("width and height must be positive")
	}
	if len(req.Items) > MaxPlanItems {
		fail("at most %d items are allowed, got %d", MaxPlanItems, len(req.Items))
	}
	if len(req.Forbidden) > MaxPlanZones {
		fail("at most %d forbidden zones are allowed, got %d", MaxPlanZones, len(req.Forbidden))
	}

	opts := req.Options
	if opts.MaxAttemptsPerItem < 0 || opts.MaxAttemptsPerItem > engine.MaxTriesPerItemLimit {
		fail("max_attempts_per_item must be between 1 and %d, got %d", engine.MaxTriesPerItemLimit, opts.MaxAttemptsPerItem)
	}
	if opts.Padding.X < 0 || opts.Padding.Y < 0 || opts.MinSpacing < 0 || opts.Inflate < 0 {
		fail("padding, min_spacing and inflate must not be negative")
	}
	if len(errs) > 0 {
		return layout.Options{}, fmt.Errorf("%w: %w", engine.ErrInvalidConfig, errors.Join(errs...))
	}

	def := layout.DefaultOptions()
	if opts.Padding.X == 0 {
		opts.Padding.X = def.Padding.X
	}
	if opts.Padding.Y == 0 {
		opts.Padding.Y = def.Padding.Y
	}
	if opts.MinSpacing == 0 {
		opts.MinSpacing = def.MinSpacing
	}
	if opts.Inflate == 0 {
		opts.Inflate = def.Inflate
	}
	if opts.MaxAttemptsPerItem == 0 {
		opts.MaxAttemptsPerItem = def.MaxAttemptsPerItem
	}
	return opts, nil
}

// session fetches a session and marks it accessed
func (s *gameServiceImpl) session(id string) (*Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	s.sessions.UpdateLastAccessed(id)
	return sess, nil
}

// result builds an ActionResult and persists the session. Invalid-state
// errors from the round become unsuccessful results.
func (s *gameServiceImpl) result(sess *Session, evs []play.Event, err error) *ActionResult {
	st := sess.Round.State()
	res := &ActionResult{Success: err == nil, Events: evs, State: &st}
	if err != nil {
		res.Message = err.Error()
		return res
	}
	if err := s.sessions.Save(sess.ID); err != nil {
		s.log.Warn("failed to persist session", zap.String("session", sess.ID), zap.Error(err))
	}
	return res
}

func (s *gameServiceImpl) levelIDs() []string {
	levels, err := s.configs.ListConfigs()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(levels))
	for _, l := range levels {
		ids = append(ids, l.LevelID)
	}
	return ids
}

func info(sess *Session, withLevel bool) *SessionInfo {
	st := sess.Round.State()
	i := &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.LevelID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          &st,
	}
	if withLevel {
		i.Level = sess.Config
	}
	return i
}
