package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
	"github.com/wricardo/silhouette-match/game/play"
	"github.com/wricardo/silhouette-match/game/service"
	"github.com/wricardo/silhouette-match/transport/websocket"
)

// Options configure a Server
type Options struct {
	// StaticDir is served at / when set
	StaticDir string
	// Handlers are extra endpoints by path, such as /mcp
	Handlers map[string]http.Handler
	Logger   *zap.Logger
}

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	log     *zap.Logger
	opts    Options
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     log,
		opts:    opts,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Round operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetRoundState).Methods("GET")
	api.HandleFunc("/sessions/{id}/drag/begin", s.handleBeginDrag).Methods("POST")
	api.HandleFunc("/sessions/{id}/drag/update", s.handleUpdateDrag).Methods("POST")
	api.HandleFunc("/sessions/{id}/drag/end", s.handleEndDrag).Methods("POST")
	api.HandleFunc("/sessions/{id}/preview", s.handlePreview).Methods("GET")
	api.HandleFunc("/sessions/{id}/tick", s.handleTick).Methods("POST")
	api.HandleFunc("/sessions/{id}/hazards/{bomb}/click", s.handleClickHazard).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")

	// Levels
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels", s.handleCreateLevel).Methods("POST")
	api.HandleFunc("/levels/{name}", s.handleGetLevel).Methods("GET")
	api.HandleFunc("/plan", s.handlePlan).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	for path, h := range s.opts.Handlers {
		s.router.Handle(path, h)
	}

	// Static files are matched last
	if s.opts.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.StaticDir)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto status codes
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrConfigNotFound),
		errors.Is(err, play.ErrShapeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSessionAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalidConfig):
		status = http.StatusBadRequest
	}
	respondError(w, status, err.Error())
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// broadcast pushes the new state and every event to websocket watchers
func (s *Server) broadcast(sessionID string, res *service.ActionResult) {
	if s.hub == nil || res == nil {
		return
	}
	s.hub.BroadcastToSession(sessionID, res.State)
	for _, ev := range res.Events {
		s.hub.Broadcast(&websocket.Message{SessionID: sessionID, Event: string(ev.Type), Data: ev})
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LevelID string `json:"level_id,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.service.CreateSession(r.Context(), req.LevelID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := service.ListOptions{
		Sort:  query.Get("sort"),
		Order: query.Get("order"),
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}

	sessions, err := s.service.ListSessions(r.Context(), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
		"sort":     opts.Sort,
		"order":    opts.Order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Round Handlers

func (s *Server) handleGetRoundState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetRoundState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleBeginDrag(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	var req struct {
		ShapeID string    `json:"shape_id"`
		Pointer geom.Vec2 `json:"pointer"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ShapeID == "" {
		respondError(w, http.StatusBadRequest, "shape_id is required")
		return
	}

	result, err := s.service.BeginDrag(r.Context(), sessionID, req.ShapeID, req.Pointer)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateDrag(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	var in play.DragInput
	if err := decode(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.UpdateDrag(r.Context(), sessionID, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleEndDrag(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	var req struct {
		Pointer geom.Vec2 `json:"pointer"`
		Target  string    `json:"target,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.EndDrag(r.Context(), sessionID, req.Pointer, req.Target)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, &result.ActionResult)

	out := result.Outcome
	s.log.Info("drop",
		zap.String("session", sessionID),
		zap.String("shape", out.ShapeID),
		zap.String("slot", out.Slot),
		zap.Bool("accepted", out.Result.Accepted),
		zap.String("reason", string(out.Result.Reason)),
		zap.Bool("restored", out.Restored),
		zap.Bool("pushed_out", out.PushedOut),
		zap.Int("matched", result.State.Matched),
		zap.Int("penalties", result.State.Penalties))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Preview(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	var req struct {
		DT float64 `json:"dt"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DT < 0 {
		respondError(w, http.StatusBadRequest, "dt must not be negative")
		return
	}

	result, err := s.service.Tick(r.Context(), sessionID, req.DT)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleClickHazard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	result, err := s.service.ClickHazard(r.Context(), vars["id"], vars["bomb"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(vars["id"], result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, result)
	respondJSON(w, http.StatusOK, result)
}

// Level Handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, levels)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.LoadLevel(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LevelID string             `json:"level_id"`
		Level   engine.LevelConfig `json:"level"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(req.LevelID)
	if id == "" {
		respondError(w, http.StatusBadRequest, "level_id is required")
		return
	}

	if err := s.service.SaveLevel(r.Context(), id, &req.Level); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"message":  "Level saved successfully",
		"level_id": id,
	})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req service.PlanRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.service.PlanLayout(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket disabled", http.StatusNotFound)
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if _, err := s.service.GetSession(context.WithoutCancel(r.Context()), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}
	s.hub.ServeWS(w, r, sessionID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
