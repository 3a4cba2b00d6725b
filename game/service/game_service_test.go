package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
	"github.com/wricardo/silhouette-match/game/layout"
	"github.com/wricardo/silhouette-match/game/play"
	"github.com/wricardo/silhouette-match/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, levelID string, cfg *engine.LevelConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, service.ErrSessionAlreadyExists
	}

	round, err := play.New(cfg, play.Options{Seed: uint64(len(m.sessions) + 1)})
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		LevelID:        levelID,
		Round:          round,
		Config:         cfg,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.LevelConfig
}

func testLevel(name string) *engine.LevelConfig {
	cfg := &engine.LevelConfig{
		Name:     name,
		PlayArea: engine.PlayAreaConfig{Width: 1600, Height: 900},
		Pairs: []engine.PairConfig{
			{Tag: engine.TagSedan, Width: 120, Height: 60},
			{Tag: engine.TagTaxi, Width: 120, Height: 60},
		},
		Spawn: engine.SpawnConfig{
			Slots: engine.AppearanceConfig{Disabled: true},
			Cars:  engine.AppearanceConfig{Disabled: true},
		},
	}
	engine.ApplyDefaults(cfg)
	return cfg
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		configs: map[string]*engine.LevelConfig{
			"test":    testLevel("test"),
			"classic": testLevel("classic"),
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.LevelConfig, error) {
	cfg, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return cfg, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.LevelInfo, error) {
	result := make([]*service.LevelInfo, 0, len(m.configs))
	for name, cfg := range m.configs {
		result = append(result, &service.LevelInfo{
			Filename:    name + ".json",
			LevelID:     name,
			Name:        cfg.Name,
			Description: cfg.Description,
			Pairs:       cfg.PairCount(),
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() (string, *engine.LevelConfig) {
	return "classic", m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, cfg *engine.LevelConfig) error {
	if err := engine.ValidateLevelConfig(cfg); err != nil {
		return err
	}
	m.configs[name] = cfg
	return nil
}

func newTestService() (service.GameService, *MockSessionManager) {
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockConfigManager(), nil), sessions
}

// carAndSlot returns the world positions of car i and slot i
func carAndSlot(t *testing.T, st *play.State, i int) (geom.Vec2, geom.Vec2) {
	t.Helper()
	if i >= len(st.Shapes) || i >= len(st.Slots) {
		t.Fatalf("state has no pair %d", i)
	}
	// identity play frame: pose positions are world positions
	return st.Shapes[i].Pose.Position, st.Slots[i].Anchor.Position
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	tests := []struct {
		name      string
		levelID   string
		wantLevel string
		wantErr   error
	}{
		{
			name:      "create with default level",
			levelID:   "",
			wantLevel: "classic",
		},
		{
			name:      "create with specific level",
			levelID:   "test",
			wantLevel: "test",
		},
		{
			name:    "create with invalid level",
			levelID: "nonexistent",
			wantErr: service.ErrConfigNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.levelID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateSession() error = %v, want %v", err, tt.wantErr)
				}
				if !strings.Contains(err.Error(), "available levels") {
					t.Errorf("error should list available levels, got %q", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSession() unexpected error: %v", err)
			}
			if session.LevelID != tt.wantLevel {
				t.Errorf("LevelID = %q, want %q", session.LevelID, tt.wantLevel)
			}
			if session.State == nil || session.State.Total != 2 {
				t.Errorf("expected a round with 2 slots, got %+v", session.State)
			}
		})
	}
}

func TestGameService_UnknownSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if _, err := svc.GetSession(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.BeginDrag(ctx, "nope", "car-0", geom.Vec2{}); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("BeginDrag() error = %v, want ErrSessionNotFound", err)
	}
	if err := svc.DeleteSession(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("DeleteSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestGameService_DragFlow(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService()

	sess, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	car, slot := carAndSlot(t, sess.State, 0)

	if _, err := svc.BeginDrag(ctx, sess.ID, "car-99", car); !errors.Is(err, play.ErrShapeNotFound) {
		t.Errorf("BeginDrag(unknown shape) error = %v", err)
	}

	res, err := svc.BeginDrag(ctx, sess.ID, "car-0", car)
	if err != nil || !res.Success {
		t.Fatalf("BeginDrag() = %+v, %v", res, err)
	}
	if res.State.Dragging != "car-0" {
		t.Errorf("Dragging = %q, want car-0", res.State.Dragging)
	}

	other, _ := carAndSlot(t, sess.State, 1)
	res, err = svc.BeginDrag(ctx, sess.ID, "car-1", other)
	if err != nil {
		t.Fatalf("BeginDrag(second) error: %v", err)
	}
	if res.Success {
		t.Error("second BeginDrag should be refused while a drag is active")
	}

	res, err = svc.UpdateDrag(ctx, sess.ID, play.DragInput{Pointer: &slot})
	if err != nil || !res.Success {
		t.Fatalf("UpdateDrag() = %+v, %v", res, err)
	}

	pv, err := svc.Preview(ctx, sess.ID)
	if err != nil || !pv.Active || pv.Preview.SlotID != "slot-0" {
		t.Fatalf("Preview() = %+v, %v", pv, err)
	}

	drop, err := svc.EndDrag(ctx, sess.ID, slot, "slot-0")
	if err != nil {
		t.Fatalf("EndDrag() error: %v", err)
	}
	if !drop.Success || !drop.Outcome.Result.Accepted {
		t.Fatalf("EndDrag() = %+v", drop)
	}
	if !play.Has(drop.Events, play.EventMatched) {
		t.Errorf("expected a matched event, got %+v", drop.Events)
	}
	if !strings.Contains(drop.Message, "matched") {
		t.Errorf("Message = %q", drop.Message)
	}
	if drop.State.Matched != 1 {
		t.Errorf("Matched = %d, want 1", drop.State.Matched)
	}
	if sessions.saves == 0 {
		t.Error("mutating calls should persist the session")
	}

	again, err := svc.EndDrag(ctx, sess.ID, slot, "")
	if err != nil {
		t.Fatalf("EndDrag(no drag) error: %v", err)
	}
	if again.Success {
		t.Error("EndDrag without an active drag should not succeed")
	}
}

func TestGameService_RejectedDrop(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	sess, _ := svc.CreateSession(ctx, "test")
	car, _ := carAndSlot(t, sess.State, 0)
	_, wrong := carAndSlot(t, sess.State, 1)

	if _, err := svc.BeginDrag(ctx, sess.ID, "car-0", car); err != nil {
		t.Fatal(err)
	}
	svc.UpdateDrag(ctx, sess.ID, play.DragInput{Pointer: &wrong})
	drop, err := svc.EndDrag(ctx, sess.ID, wrong, "slot-1")
	if err != nil {
		t.Fatal(err)
	}
	if drop.Success || drop.Outcome.Result.Reason != engine.ReasonTagMismatch {
		t.Errorf("EndDrag() = %+v", drop)
	}
	if !play.Has(drop.Events, play.EventDropRejected) {
		t.Errorf("expected drop_rejected, got %+v", drop.Events)
	}
}

func TestGameService_TickClickReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	sess, _ := svc.CreateSession(ctx, "test")

	res, err := svc.Tick(ctx, sess.ID, 0.5)
	if err != nil || !res.Success {
		t.Fatalf("Tick() = %+v, %v", res, err)
	}
	if res.State.Elapsed != 0.5 {
		t.Errorf("Elapsed = %v, want 0.5", res.State.Elapsed)
	}

	res, err = svc.ClickHazard(ctx, sess.ID, "bomb")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Error("ClickHazard on a level without hazards should fail")
	}

	res, err = svc.Reset(ctx, sess.ID)
	if err != nil || !res.Success {
		t.Fatalf("Reset() = %+v, %v", res, err)
	}
	if !play.Has(res.Events, play.EventReset) {
		t.Errorf("expected reset event, got %+v", res.Events)
	}
	if res.State.Elapsed != 0 {
		t.Errorf("Elapsed after reset = %v", res.State.Elapsed)
	}
}

func TestGameService_ListSessions(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService()

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := svc.CreateSession(ctx, "test")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, s.ID)
	}
	base := time.Now()
	for i, id := range ids {
		sessions.sessions[id].CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}

	list, err := svc.ListSessions(ctx, service.ListOptions{Sort: "created", Order: "asc"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != ids[0] || list[2].ID != ids[2] {
		t.Errorf("ascending order wrong: %v", list)
	}
	if list[0].Level != nil {
		t.Error("list entries should not embed the level")
	}

	list, _ = svc.ListSessions(ctx, service.ListOptions{Sort: "created", Limit: 2})
	if len(list) != 2 || list[0].ID != ids[2] {
		t.Errorf("descending limited list wrong: %v", list)
	}
}

func TestGameService_Levels(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	levels, err := svc.ListLevels(ctx)
	if err != nil || len(levels) != 2 {
		t.Fatalf("ListLevels() = %v, %v", levels, err)
	}

	bad := testLevel("bad")
	bad.Pairs = nil
	if err := svc.SaveLevel(ctx, "bad", bad); !errors.Is(err, engine.ErrInvalidConfig) {
		t.Errorf("SaveLevel(invalid) error = %v", err)
	}

	if err := svc.SaveLevel(ctx, "fresh", testLevel("fresh")); err != nil {
		t.Fatal(err)
	}
	cfg, err := svc.LoadLevel(ctx, "fresh")
	if err != nil || cfg.Name != "fresh" {
		t.Errorf("LoadLevel() = %v, %v", cfg, err)
	}
}

func TestGameService_PlanLayout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if _, err := svc.PlanLayout(ctx, service.PlanRequest{}); err == nil {
		t.Error("PlanLayout() with empty area should fail")
	}

	res, err := svc.PlanLayout(ctx, service.PlanRequest{
		Width:  1600,
		Height: 900,
		Items:  []service.PlanItem{{Width: 120, Height: 60}, {Width: 140, Height: 70}, {Width: 200, Height: 70}},
		Seed:   9,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Placements) != 3 || res.Summary.Total != 3 {
		t.Errorf("PlanLayout() = %+v", res)
	}
	if res.Summary.Unplaced != 0 {
		t.Errorf("expected every item placed, got %+v", res.Summary)
	}
}

func TestGameService_PlanLayoutRejectsOversizedRequests(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	tests := []struct {
		name string
		req  service.PlanRequest
	}{
		{"too many items", service.PlanRequest{Width: 1600, Height: 900, Items: make([]service.PlanItem, service.MaxPlanItems+1)}},
		{"too many zones", service.PlanRequest{Width: 1600, Height: 900, Forbidden: make([]engine.Zone, service.MaxPlanZones+1)}},
		{"attempt budget over limit", service.PlanRequest{Width: 1600, Height: 900, Options: layout.Options{MaxAttemptsPerItem: engine.MaxTriesPerItemLimit + 1}}},
		{"negative attempt budget", service.PlanRequest{Width: 1600, Height: 900, Options: layout.Options{MaxAttemptsPerItem: -1}}},
		{"negative spacing", service.PlanRequest{Width: 1600, Height: 900, Options: layout.Options{MinSpacing: -5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlanLayout(ctx, tt.req)
			if !errors.Is(err, engine.ErrInvalidConfig) {
				t.Errorf("PlanLayout() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestGameService_PlanLayoutFillsMissingOptions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	items := make([]service.PlanItem, service.MaxPlanItems)
	for i := range items {
		items[i] = service.PlanItem{Width: 40, Height: 20}
	}
	// only the spacing is set, the attempt budget must not collapse to one try
	res, err := svc.PlanLayout(ctx, service.PlanRequest{
		Width:   1600,
		Height:  900,
		Items:   items,
		Options: layout.Options{MinSpacing: 10},
		Seed:    3,
	})
	if err != nil {
		t.Fatal(err)
	}
	def := layout.DefaultOptions()
	for i, p := range res.Placements {
		if p.Radius <= def.Inflate {
			t.Fatalf("placement %d radius %v ignores the default inflate", i, p.Radius)
		}
		if p.Position.X < -800+def.Padding.X || p.Position.X > 800-def.Padding.X {
			t.Fatalf("placement %d at %v ignores the default padding", i, p.Position)
		}
	}
	if res.Summary.Unplaced != 0 || res.Summary.Strict != len(items) {
		t.Errorf("expected every item placed at full spacing, got %+v", res.Summary)
	}
}
