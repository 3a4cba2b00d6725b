package mcp

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/silhouette-match/api"
	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
	"github.com/wricardo/silhouette-match/game/hazard"
	"github.com/wricardo/silhouette-match/game/play"
	"github.com/wricardo/silhouette-match/game/progress"
	"github.com/wricardo/silhouette-match/game/service"
	"github.com/wricardo/silhouette-match/game/session"
)

func callTool(t *testing.T, c *Client, name string, args map[string]interface{}) (string, bool) {
	t.Helper()
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"create_session":    c.handleCreateSession,
		"list_sessions":     c.handleListSessions,
		"get_session":       c.handleGetSession,
		"round_state":       c.handleRoundState,
		"begin_drag":        c.handleBeginDrag,
		"update_drag":       c.handleUpdateDrag,
		"end_drag":          c.handleEndDrag,
		"drag_to_slot":      c.handleDragToSlot,
		"preview":           c.handlePreview,
		"tick":              c.handleTick,
		"click_hazard":      c.handleClickHazard,
		"reset_round":       c.handleReset,
		"list_levels":       c.handleListLevels,
		"plan_layout":       c.handlePlanLayout,
		"game_instructions": c.handleGameInstructions,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool %s", name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	result, err := h(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("%s returned no content", name)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("%s returned non-text content", name)
	}
	return text.Text, result.IsError
}

func testState() *play.State {
	return &play.State{
		Level: "classic",
		Shapes: []engine.Shape{{
			ID: "car-0", Tag: engine.TagTaxi, Size: geom.V(120, 60),
			Pose: engine.Pose{Position: geom.V(-300, 100), Rotation: 30, Scale: geom.V(-0.8, 0.8)},
		}},
		Slots: []engine.Slot{{
			ID: "slot-0", Tag: engine.TagTaxi, Size: geom.V(120, 60),
			Anchor: engine.Pose{Position: geom.V(200, -50), Rotation: -20, Scale: geom.V(1.2, 1.2)},
		}},
		Total:        1,
		ProgressText: "1/1 Cars Left",
		PenaltyText:  "Penalties: 0/3",
		Verdict:      progress.Verdict{Outcome: progress.Playing},
	}
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL+"/", nil)

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
			return
		}
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "abcd"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	var result map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/ok", nil, &result); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if result["id"] != "abcd" {
		t.Errorf("Expected id abcd, got %v", result["id"])
	}

	err := client.apiCall(context.Background(), "GET", "/missing", nil, nil)
	if err == nil || err.Error() != "session not found" {
		t.Errorf("Expected API error message, got %v", err)
	}

	err = client.apiCall(context.Background(), "GET", "/broken", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected status error, got %v", err)
	}

	down := NewClient("http://127.0.0.1:1", nil)
	if err := down.apiCall(context.Background(), "GET", "/", nil, nil); err == nil {
		t.Error("Expected connection error")
	}
}

func TestAlign(t *testing.T) {
	from := engine.Pose{Rotation: 170, Scale: geom.V(-0.8, 0.9)}
	to := engine.Pose{Rotation: -170, Scale: geom.V(1.2, -1.0)}

	m := Align(from, to)
	if math.Abs(m.Rotate-20) > 1e-9 {
		t.Errorf("Expected shortest rotation 20, got %v", m.Rotate)
	}
	if math.Abs(m.ScaleX-0.4) > 1e-9 || math.Abs(m.ScaleY-0.1) > 1e-9 {
		t.Errorf("Expected scale deltas 0.4/0.1, got %v/%v", m.ScaleX, m.ScaleY)
	}
	if m.MirrorX || m.MirrorY || m.Reset {
		t.Error("Align should never mirror or reset")
	}
}

func TestClient_dragToSlotCalls(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		upd   play.DragInput
		end   map[string]interface{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/state"):
			json.NewEncoder(w).Encode(testState())
		case strings.HasSuffix(r.URL.Path, "/drag/begin"):
			json.NewEncoder(w).Encode(service.ActionResult{Success: true, State: testState()})
		case strings.HasSuffix(r.URL.Path, "/drag/update"):
			json.Unmarshal(body, &upd)
			json.NewEncoder(w).Encode(service.ActionResult{Success: true, State: testState()})
		case strings.HasSuffix(r.URL.Path, "/drag/end"):
			json.Unmarshal(body, &end)
			json.NewEncoder(w).Encode(service.DropResult{
				ActionResult: service.ActionResult{Success: true, State: testState()},
				Outcome: engine.DropOutcome{ShapeID: "car-0", Slot: "slot-0",
					Result: engine.Result{Accepted: true}, State: engine.Locked},
			})
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	text, isErr := callTool(t, client, "drag_to_slot", map[string]interface{}{
		"session_id": "abcd", "shape_id": "car-0", "slot_id": "slot-0",
	})
	if isErr {
		t.Fatalf("drag_to_slot failed: %s", text)
	}
	if !strings.Contains(text, "MATCHED car-0 on slot-0") {
		t.Errorf("Expected match text, got:\n%s", text)
	}

	want := []string{
		"GET /api/sessions/abcd/state",
		"POST /api/sessions/abcd/drag/begin",
		"POST /api/sessions/abcd/drag/update",
		"POST /api/sessions/abcd/drag/end",
	}
	if strings.Join(calls, "|") != strings.Join(want, "|") {
		t.Errorf("Unexpected call sequence: %v", calls)
	}
	if upd.Pointer == nil || *upd.Pointer != geom.V(200, -50) {
		t.Errorf("Expected pointer at slot anchor, got %v", upd.Pointer)
	}
	if math.Abs(upd.Manipulation.Rotate+50) > 1e-9 {
		t.Errorf("Expected rotate -50, got %v", upd.Manipulation.Rotate)
	}
	if math.Abs(upd.Manipulation.ScaleX-0.4) > 1e-9 {
		t.Errorf("Expected scale_x 0.4, got %v", upd.Manipulation.ScaleX)
	}
	if end["target"] != "slot-0" {
		t.Errorf("Expected target slot-0, got %v", end["target"])
	}
}

func TestClient_dragToSlotUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testState())
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	text, isErr := callTool(t, client, "drag_to_slot", map[string]interface{}{
		"session_id": "abcd", "shape_id": "car-9", "slot_id": "slot-0",
	})
	if !isErr || !strings.Contains(text, "car-9") {
		t.Errorf("Expected unknown car error, got %q", text)
	}

	text, isErr = callTool(t, client, "drag_to_slot", map[string]interface{}{
		"session_id": "abcd", "shape_id": "car-0", "slot_id": "slot-7",
	})
	if !isErr || !strings.Contains(text, "slot-7") {
		t.Errorf("Expected unknown slot error, got %q", text)
	}
}

var hazardFixture = hazard.FieldState{
	Bombs: []hazard.Bomb{{ID: "bomb-1", Position: geom.V(10, 20), Age: 1.5, Fuse: 4, Radius: 90}},
}

func TestFormatState(t *testing.T) {
	st := testState()
	st.Dragging = "car-0"
	st.Hazards = &hazardFixture

	text := formatState(st)
	for _, want := range []string{"1/1 Cars Left", "Penalties: 0/3", "playing", "Dragging: car-0",
		"car-0 [taxi]", "scale 0.80x0.80", "slot-0 [taxi]", "free", "bomb-1", "fuse 2.5s"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}

	if formatState(nil) != "No round state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatDrop(t *testing.T) {
	rejected := &service.DropResult{
		ActionResult: service.ActionResult{State: testState()},
		Outcome: engine.DropOutcome{ShapeID: "car-0", Slot: "slot-0", Restored: true,
			Result: engine.Result{Reason: engine.ReasonRotation, Detail: "off by 40°"}},
	}
	text := formatDrop(rejected)
	if !strings.Contains(text, "REJECTED car-0 on slot-0") || !strings.Contains(text, "returned") {
		t.Errorf("Unexpected rejection text:\n%s", text)
	}

	missed := &service.DropResult{Outcome: engine.DropOutcome{ShapeID: "car-0", PushedOut: true}}
	text = formatDrop(missed)
	if !strings.Contains(text, "no slot targeted") || !strings.Contains(text, "pushed out") {
		t.Errorf("Unexpected miss text:\n%s", text)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080", nil)
	text, isErr := callTool(t, client, "game_instructions", nil)
	if isErr {
		t.Fatal("Expected instructions")
	}
	for _, want := range []string{"GAME OBJECTIVE", "ACCEPTANCE RULES", "HAZARDS", "drag_to_slot"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected instructions to mention %q", want)
		}
	}
}

func TestClient_HTTPHandler(t *testing.T) {
	client := NewClient("http://localhost:8080", nil)
	h := client.HTTPHandler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	for _, tool := range []string{"create_session", "drag_to_slot", "click_hazard", "plan_layout"} {
		if !strings.Contains(w.Body.String(), tool) {
			t.Errorf("Expected tools/list to include %s", tool)
		}
	}
}

// tiltedLevels serves one level whose silhouettes are rotated and scaled
type tiltedLevels struct{}

func (tiltedLevels) LoadConfig(name string) (*engine.LevelConfig, error) {
	if name != "tilted" {
		return nil, service.ErrConfigNotFound
	}
	c := &engine.LevelConfig{
		Name:     "tilted",
		PlayArea: engine.PlayAreaConfig{Width: 1600, Height: 900},
		Pairs: []engine.PairConfig{
			{Tag: engine.TagSedan, Width: 120, Height: 60},
			{Tag: engine.TagVan, Width: 140, Height: 70},
		},
		Spawn: engine.SpawnConfig{
			Slots: engine.AppearanceConfig{ScaleMin: 1.2, ScaleMax: 1.2, MaxRotationDeg: 60},
			Cars:  engine.AppearanceConfig{Disabled: true},
		},
	}
	engine.ApplyDefaults(c)
	return c, nil
}

func (l tiltedLevels) ListConfigs() ([]*service.LevelInfo, error) {
	return []*service.LevelInfo{{LevelID: "tilted", Name: "Tilted", Pairs: 2, Width: 1600, Height: 900}}, nil
}

func (l tiltedLevels) GetDefault() (string, *engine.LevelConfig) {
	c, _ := l.LoadConfig("tilted")
	return "tilted", c
}

func (tiltedLevels) SaveConfig(string, *engine.LevelConfig) error { return nil }

func TestClient_Integration(t *testing.T) {
	svc := service.NewGameService(session.NewManager(session.Options{}), tiltedLevels{}, nil)
	server := httptest.NewServer(api.NewServer(svc, nil, api.Options{}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	text, isErr := callTool(t, client, "create_session", map[string]interface{}{"level_id": "tilted"})
	if isErr {
		t.Fatalf("create_session failed: %s", text)
	}
	id := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(text, "\n", 2)[0], "Created session:"))
	if id == "" {
		t.Fatalf("No session id in %q", text)
	}

	text, _ = callTool(t, client, "list_levels", nil)
	if !strings.Contains(text, "tilted") {
		t.Errorf("Expected level listing, got:\n%s", text)
	}

	text, _ = callTool(t, client, "list_sessions", nil)
	if !strings.Contains(text, id) {
		t.Errorf("Expected %s in session list:\n%s", id, text)
	}

	for i := 0; i < 2; i++ {
		text, isErr = callTool(t, client, "drag_to_slot", map[string]interface{}{
			"session_id": id, "shape_id": play.ShapeID(i), "slot_id": play.SlotID(i),
		})
		if isErr || !strings.Contains(text, "MATCHED") {
			t.Fatalf("Expected %s to match:\n%s", play.ShapeID(i), text)
		}
	}
	if !strings.Contains(text, "0/2 Cars Left") || !strings.Contains(text, string(progress.Won)) {
		t.Errorf("Expected a won round:\n%s", text)
	}

	text, isErr = callTool(t, client, "reset_round", map[string]interface{}{"session_id": id})
	if isErr || !strings.Contains(text, "2/2 Cars Left") {
		t.Errorf("Expected reset round:\n%s", text)
	}

	text, isErr = callTool(t, client, "preview", map[string]interface{}{"session_id": id})
	if isErr || !strings.Contains(text, "No car is being dragged") {
		t.Errorf("Expected idle preview, got %q", text)
	}

	text, isErr = callTool(t, client, "plan_layout", map[string]interface{}{
		"width": 800.0, "height": 600.0, "seed": 3.0,
		"items": []interface{}{
			map[string]interface{}{"width": 100.0, "height": 50.0},
			map[string]interface{}{"width": 100.0, "height": 50.0},
		},
	})
	if isErr || !strings.Contains(text, "Plan (seed 3)") {
		t.Errorf("Unexpected plan output:\n%s", text)
	}

	_, isErr = callTool(t, client, "get_session", map[string]interface{}{"session_id": "nope"})
	if !isErr {
		t.Error("Expected error for unknown session")
	}
}
