package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
	"github.com/wricardo/silhouette-match/game/play"
	"github.com/wricardo/silhouette-match/game/service"
)

// Version is reported to MCP clients
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	log        *zap.Logger
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Silhouette Match",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Silhouette Match - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Drag every car onto the silhouette with the same tag. A drop is accepted when the car
is close enough, rotated within tolerance and sized within tolerance of the silhouette.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: session management
- round_state: cars, silhouettes, bombs, progress and penalties
- begin_drag / update_drag / end_drag: low-level drag control
- drag_to_slot: pick a car up, align it to a silhouette and drop it in one call
- preview: where the dragged car would snap and whether the drop would be accepted
- tick: advance time (bombs move and explode)
- click_hazard: detonate a bomb safely
- reset_round: re-plan the round
- list_levels, plan_layout, game_instructions`),
	)

	c.registerTools()
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func vecProp(desc string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": desc,
		"properties": map[string]any{
			"x": prop("number", "X in world units"),
			"y": prop("number", "Y in world units"),
		},
	}
}

func sessionTool(name, desc string, extra map[string]any, required ...string) mcp.Tool {
	props := map[string]any{"session_id": prop("string", "Session ID")}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   append([]string{"session_id"}, required...),
		},
	}
}

func plainTool(name, desc string, props map[string]any, required ...string) mcp.Tool {
	if props == nil {
		props = map[string]any{}
	}
	return mcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: props, Required: required},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(plainTool("create_session", "Create a new game session on a level",
		map[string]any{"level_id": prop("string", "Level to play (optional, default level when empty)")}),
		c.handleCreateSession)

	c.mcpServer.AddTool(plainTool("list_sessions", "List active game sessions",
		map[string]any{
			"sort":  map[string]any{"type": "string", "enum": []string{"accessed", "created"}},
			"order": map[string]any{"type": "string", "enum": []string{"desc", "asc"}},
			"limit": prop("integer", "Maximum sessions to return"),
		}),
		c.handleListSessions)

	c.mcpServer.AddTool(sessionTool("get_session", "Get details of a specific session", nil), c.handleGetSession)
	c.mcpServer.AddTool(sessionTool("round_state", "Get the current round state", nil), c.handleRoundState)

	c.mcpServer.AddTool(sessionTool("begin_drag", "Pick up a car at a pointer position",
		map[string]any{
			"shape_id": prop("string", "Car ID, e.g. car-0"),
			"pointer":  vecProp("Pointer position; defaults to the car position"),
		}, "shape_id"),
		c.handleBeginDrag)

	c.mcpServer.AddTool(sessionTool("update_drag", "Move and manipulate the dragged car",
		map[string]any{
			"pointer":  vecProp("New pointer position"),
			"rotate":   prop("number", "Rotation delta in degrees, counter-clockwise"),
			"scale_x":  prop("number", "Delta on the X scale magnitude"),
			"scale_y":  prop("number", "Delta on the Y scale magnitude"),
			"mirror_x": prop("boolean", "Flip horizontally"),
			"mirror_y": prop("boolean", "Flip vertically"),
			"reset":    prop("boolean", "Reset rotation and scale"),
		}),
		c.handleUpdateDrag)

	c.mcpServer.AddTool(sessionTool("end_drag", "Drop the dragged car",
		map[string]any{
			"pointer": vecProp("Release position"),
			"target":  prop("string", "Slot ID to drop onto (optional, slot under the pointer when empty)"),
		}),
		c.handleEndDrag)

	c.mcpServer.AddTool(sessionTool("drag_to_slot", "Drag a car onto a silhouette, matching its rotation and size, and drop it",
		map[string]any{
			"shape_id": prop("string", "Car ID"),
			"slot_id":  prop("string", "Slot ID"),
			"intent":   prop("string", "Brief explanation of why this car goes on this slot"),
		}, "shape_id", "slot_id"),
		c.handleDragToSlot)

	c.mcpServer.AddTool(sessionTool("preview", "Show where the dragged car would snap", nil), c.handlePreview)

	c.mcpServer.AddTool(sessionTool("tick", "Advance the round clock",
		map[string]any{"dt": prop("number", "Seconds to advance")}, "dt"),
		c.handleTick)

	c.mcpServer.AddTool(sessionTool("click_hazard", "Click a bomb to detonate it",
		map[string]any{"bomb_id": prop("string", "Bomb ID")}, "bomb_id"),
		c.handleClickHazard)

	c.mcpServer.AddTool(sessionTool("reset_round", "Re-plan the round from scratch", nil), c.handleReset)

	c.mcpServer.AddTool(plainTool("list_levels", "List available levels", nil), c.handleListLevels)

	c.mcpServer.AddTool(plainTool("plan_layout", "Run the placement planner on an empty area",
		map[string]any{
			"width":  prop("number", "Area width"),
			"height": prop("number", "Area height"),
			"items": map[string]any{
				"type":        "array",
				"description": "Footprints to place",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"width":  prop("number", "Item width"),
						"height": prop("number", "Item height"),
					},
				},
			},
			"seed": prop("integer", "Planner seed"),
		}, "width", "height", "items"),
		c.handlePlanLayout)

	c.mcpServer.AddTool(plainTool("game_instructions", "Get game instructions and rules", nil), c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler answers single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(id string, rest ...string) string {
	return "/api/sessions/" + url.PathEscape(id) + strings.Join(rest, "")
}

// Argument helpers

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return map[string]any{}
	}
	return args
}

func str(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func num(args map[string]any, key string) (float64, bool) {
	f, ok := args[key].(float64)
	return f, ok
}

func flag(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func vec(args map[string]any, key string) (geom.Vec2, bool) {
	m, ok := args[key].(map[string]any)
	if !ok {
		return geom.Vec2{}, false
	}
	x, _ := m["x"].(float64)
	y, _ := m["y"].(float64)
	return geom.V(x, y), true
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	body := map[string]string{}
	if id := str(args, "level_id"); id != "" {
		body["level_id"] = id
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s",
		session.ID, session.LevelID, formatState(session.State))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	q := url.Values{}
	if s := str(args, "sort"); s != "" {
		q.Set("sort", s)
	}
	if o := str(args, "order"); o != "" {
		q.Set("order", o)
	}
	if l, ok := num(args, "limit"); ok && l > 0 {
		q.Set("limit", fmt.Sprint(int(l)))
	}
	path := "/api/sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if s.State != nil {
			progress = fmt.Sprintf(", %s, %s", s.State.ProgressText, s.State.Verdict.Outcome)
		}
		fmt.Fprintf(&b, "- %s (Level: %s%s, Created: %s)\n", s.ID, s.LevelID, progress, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := str(arguments(request), "session_id")
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(id), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session: %s\nLevel: %s\nCreated: %s\n\n%s",
		session.ID, session.LevelID, session.CreatedAt.Format("2006-01-02 15:04:05"), formatState(session.State))), nil
}

func (c *Client) handleRoundState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := str(arguments(request), "session_id")
	var st play.State
	if err := c.apiCall(ctx, "GET", sessionPath(id, "/state"), nil, &st); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatState(&st)), nil
}

func (c *Client) handleBeginDrag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, shapeID := str(args, "session_id"), str(args, "shape_id")

	pointer, ok := vec(args, "pointer")
	if !ok {
		var st play.State
		if err := c.apiCall(ctx, "GET", sessionPath(id, "/state"), nil, &st); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		shape := findShape(&st, shapeID)
		if shape == nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown car %q", shapeID)), nil
		}
		pointer = shape.Pose.Position
	}

	var res service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(id, "/drag/begin"), map[string]any{"shape_id": shapeID, "pointer": pointer}, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAction(&res)), nil
}

func (c *Client) handleUpdateDrag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	in := play.DragInput{}
	if p, ok := vec(args, "pointer"); ok {
		in.Pointer = &p
	}
	in.Manipulation.Rotate, _ = num(args, "rotate")
	in.Manipulation.ScaleX, _ = num(args, "scale_x")
	in.Manipulation.ScaleY, _ = num(args, "scale_y")
	in.Manipulation.MirrorX = flag(args, "mirror_x")
	in.Manipulation.MirrorY = flag(args, "mirror_y")
	in.Manipulation.Reset = flag(args, "reset")

	var res service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(str(args, "session_id"), "/drag/update"), in, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAction(&res)), nil
}

func (c *Client) handleEndDrag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	pointer, _ := vec(args, "pointer")

	var res service.DropResult
	body := map[string]any{"pointer": pointer, "target": str(args, "target")}
	if err := c.apiCall(ctx, "POST", sessionPath(str(args, "session_id"), "/drag/end"), body, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDrop(&res)), nil
}

// handleDragToSlot composes begin, update and end: the car is carried to
// the slot anchor and its rotation and scale are aligned before the drop.
func (c *Client) handleDragToSlot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, shapeID, slotID := str(args, "session_id"), str(args, "shape_id"), str(args, "slot_id")

	var st play.State
	if err := c.apiCall(ctx, "GET", sessionPath(id, "/state"), nil, &st); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	shape, slot := findShape(&st, shapeID), findSlot(&st, slotID)
	if shape == nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown car %q", shapeID)), nil
	}
	if slot == nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown slot %q", slotID)), nil
	}

	var begin service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(id, "/drag/begin"), map[string]any{"shape_id": shapeID, "pointer": shape.Pose.Position}, &begin); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !begin.Success {
		return mcp.NewToolResultError(begin.Message), nil
	}

	target := slot.Anchor.Position
	in := play.DragInput{Pointer: &target, Manipulation: Align(shape.Pose, slot.Anchor)}
	var update service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(id, "/drag/update"), in, &update); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var drop service.DropResult
	if err := c.apiCall(ctx, "POST", sessionPath(id, "/drag/end"), map[string]any{"pointer": target, "target": slotID}, &drop); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c.log.Debug("drag_to_slot", zap.String("session", id), zap.String("shape", shapeID),
		zap.String("slot", slotID), zap.Bool("accepted", drop.Outcome.Result.Accepted))
	return mcp.NewToolResultText(formatDrop(&drop)), nil
}

// Align returns the manipulation that turns pose from into the rotation and
// scale magnitudes of to
func Align(from, to engine.Pose) engine.Manipulation {
	cur, want := from.Scale.Abs(), to.Scale.Abs()
	return engine.Manipulation{
		Rotate: geom.DeltaAngle(from.Rotation, to.Rotation),
		ScaleX: want.X - cur.X,
		ScaleY: want.Y - cur.Y,
	}
}

func (c *Client) handlePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var res service.PreviewResult
	if err := c.apiCall(ctx, "GET", sessionPath(str(arguments(request), "session_id"), "/preview"), nil, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.Active || res.Preview == nil {
		return mcp.NewToolResultText("No car is being dragged, or no free slot matches it."), nil
	}
	p := res.Preview
	verdict := "would be ACCEPTED"
	if !p.Result.Accepted {
		verdict = fmt.Sprintf("would be rejected: %s %s", p.Result.Reason, p.Result.Detail)
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s -> %s at (%.0f,%.0f) rot %.0f° scale %.2fx%.2f\nDrop %s",
		p.ShapeID, p.SlotID, p.Position.X, p.Position.Y, p.Rotation, p.Scale.X, p.Scale.Y, verdict)), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	dt, _ := num(args, "dt")
	var res service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(str(args, "session_id"), "/tick"), map[string]float64{"dt": dt}, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAction(&res)), nil
}

func (c *Client) handleClickHazard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path := sessionPath(str(args, "session_id"), "/hazards/", url.PathEscape(str(args, "bomb_id")), "/click")
	var res service.ActionResult
	if err := c.apiCall(ctx, "POST", path, nil, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAction(&res)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var res service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(str(arguments(request), "session_id"), "/reset"), nil, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAction(&res)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, l := range levels {
		hazards := ""
		if l.Hazards {
			hazards = ", bombs"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  %d pairs, %.0fx%.0f%s\n\n", l.LevelID, l.Name, l.Description, l.Pairs, l.Width, l.Height, hazards)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handlePlanLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	req := service.PlanRequest{}
	req.Width, _ = num(args, "width")
	req.Height, _ = num(args, "height")
	if seed, ok := num(args, "seed"); ok && seed >= 0 {
		req.Seed = uint64(seed)
	}
	raw, _ := args["items"].([]any)
	for _, r := range raw {
		m, _ := r.(map[string]any)
		w, _ := num(m, "width")
		h, _ := num(m, "height")
		req.Items = append(req.Items, service.PlanItem{Width: w, Height: h})
	}

	var res service.PlanResult
	if err := c.apiCall(ctx, "POST", "/api/plan", req, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plan (seed %d): %d strict, %d relaxed, %d fallback, %d unplaced\n",
		res.Seed, res.Summary.Strict, res.Summary.Relaxed, res.Summary.Fallback, res.Summary.Unplaced)
	for i, p := range res.Placements {
		if !p.Placed() {
			fmt.Fprintf(&b, "  %d: unplaced\n", i)
			continue
		}
		fmt.Fprintf(&b, "  %d: (%.0f,%.0f) %s\n", i, p.Position.X, p.Position.Y, p.Tier)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Silhouette Match - Complete Instructions

GAME OBJECTIVE:
Every car has a matching silhouette (slot) with the same tag. Drag each car onto its
silhouette to lock it in place. The round is won when every slot is filled.

ACCEPTANCE RULES (checked in this order):
1. The slot must be empty.
2. The car tag must equal the slot tag (sedan on sedan, bus on bus).
3. The car must be within the snap distance of the slot anchor.
4. Rotation must be within the rotation tolerance (mirroring does not matter).
5. Each scale magnitude must be within the size tolerance of the slot's.
Accepted cars snap onto the anchor and are locked. Rejected cars return to where
the drag started.

COORDINATES:
Positions are world units; (0,0) is the center of the play area. Rotations are degrees,
counter-clockwise. Cars cannot be dropped inside forbidden zones; they are pushed out.

HAZARDS (levels with bombs):
Bombs drift across the lot and explode when their fuse runs out, when clicked, or when
the dragged car touches them. Dragging into a bomb costs a penalty. Too many penalties
lose the round. Click bombs (click_hazard) to clear them safely and use tick to let time pass.

RECOMMENDED FLOW:
1. round_state to list cars, slots and their poses.
2. For each car, find the free slot with the same tag.
3. drag_to_slot with the car and slot IDs; it aligns rotation and scale for you.
4. If a drop is rejected, read the reason, then use begin_drag / update_drag / preview / end_drag.

Good luck, driver!`

// Formatting helpers

func findShape(st *play.State, id string) *engine.Shape {
	for i := range st.Shapes {
		if st.Shapes[i].ID == id {
			return &st.Shapes[i]
		}
	}
	return nil
}

func findSlot(st *play.State, id string) *engine.Slot {
	for i := range st.Slots {
		if st.Slots[i].ID == id {
			return &st.Slots[i]
		}
	}
	return nil
}

func formatPose(p engine.Pose) string {
	return fmt.Sprintf("(%.0f,%.0f) rot %.0f° scale %.2fx%.2f",
		p.Position.X, p.Position.Y, p.Rotation, math.Abs(p.Scale.X), math.Abs(p.Scale.Y))
}

func formatState(st *play.State) string {
	if st == nil {
		return "No round state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Level: %s | %s | %s | %s\n", st.Level, st.ProgressText, st.PenaltyText, st.Verdict.Outcome)
	if st.Verdict.Title != "" {
		fmt.Fprintf(&b, "%s %s\n", st.Verdict.Title, st.Verdict.Hint)
	}
	if st.Dragging != "" {
		fmt.Fprintf(&b, "Dragging: %s\n", st.Dragging)
	}

	b.WriteString("\nCars:\n")
	for _, s := range st.Shapes {
		fmt.Fprintf(&b, "  %s [%s] %s %s\n", s.ID, s.Tag, formatPose(s.Pose), s.State)
	}
	b.WriteString("\nSlots:\n")
	for _, s := range st.Slots {
		filled := "free"
		if s.Filled {
			filled = "filled"
		}
		fmt.Fprintf(&b, "  %s [%s] %s %s\n", s.ID, s.Tag, formatPose(s.Anchor), filled)
	}

	if st.Hazards != nil && len(st.Hazards.Bombs) > 0 {
		b.WriteString("\nBombs:\n")
		for _, bomb := range st.Hazards.Bombs {
			fmt.Fprintf(&b, "  %s at (%.0f,%.0f) fuse %.1fs left, radius %.0f\n",
				bomb.ID, bomb.Position.X, bomb.Position.Y, bomb.Fuse-bomb.Age, bomb.Radius)
		}
	}
	return b.String()
}

func formatEvents(evs []play.Event) string {
	if len(evs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(evs))
	for _, ev := range evs {
		s := string(ev.Type)
		if ev.ShapeID != "" {
			s += " " + ev.ShapeID
		}
		if ev.SlotID != "" {
			s += " -> " + ev.SlotID
		}
		parts = append(parts, s)
	}
	return "Events: " + strings.Join(parts, ", ") + "\n"
}

func formatAction(res *service.ActionResult) string {
	var b strings.Builder
	mark := "✓"
	if !res.Success {
		mark = "✗"
	}
	fmt.Fprintf(&b, "%s %s\n", mark, res.Message)
	b.WriteString(formatEvents(res.Events))
	b.WriteString("\n")
	b.WriteString(formatState(res.State))
	return b.String()
}

func formatDrop(res *service.DropResult) string {
	out := res.Outcome
	var b strings.Builder
	switch {
	case out.Result.Accepted:
		fmt.Fprintf(&b, "✓ MATCHED %s on %s\n", out.ShapeID, out.Slot)
	case out.Targeted():
		fmt.Fprintf(&b, "✗ REJECTED %s on %s: %s %s\n", out.ShapeID, out.Slot, out.Result.Reason, out.Result.Detail)
	default:
		fmt.Fprintf(&b, "Dropped %s (no slot targeted)\n", out.ShapeID)
	}
	if out.PushedOut {
		b.WriteString("Car was pushed out of a forbidden zone.\n")
	}
	if out.Restored {
		b.WriteString("Car returned to where the drag started.\n")
	}
	b.WriteString(formatEvents(res.Events))
	b.WriteString("\n")
	b.WriteString(formatState(res.State))
	return b.String()
}
