package play

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
	"github.com/wricardo/silhouette-match/game/hazard"
	"github.com/wricardo/silhouette-match/game/layout"
	"github.com/wricardo/silhouette-match/game/progress"
)

var (
	ErrRoundOver     = errors.New("round is over")
	ErrShapeNotFound = errors.New("shape not found")
	ErrNoActiveDrag  = errors.New("no active drag")
	ErrNoHazards     = errors.New("level has no hazards")
	ErrBombNotFound  = errors.New("bomb not found")
)

// Options configure a Round
type Options struct {
	Seed   uint64
	Store  engine.TransformStore
	Logger *zap.Logger
}

// DragInput is one frame of input for the shape being dragged. Pointer is in
// world space; a nil pointer applies manipulation only.
type DragInput struct {
	Pointer      *geom.Vec2          `json:"pointer,omitempty"`
	Manipulation engine.Manipulation `json:"manipulation,omitempty"`
	Keys         *engine.KeyState    `json:"keys,omitempty"`
	DT           float64             `json:"dt,omitempty"`
	Touches      []geom.Vec2         `json:"touches,omitempty"`
}

// LayoutReport summarizes how the round was planned
type LayoutReport struct {
	Slots layout.Summary     `json:"slots"`
	Cars  layout.Summary     `json:"cars"`
	Plan  []layout.Placement `json:"-"`
}

// Round is one play of a level
type Round struct {
	mu   sync.Mutex
	cfg  *engine.LevelConfig
	opts Options
	log  *zap.Logger

	seed      uint64
	resets    int
	elapsed   float64
	board     *engine.Board
	progress  *progress.Progress
	penalties *progress.Penalties
	referee   *progress.Referee
	hazards   *hazard.Field
	report    LayoutReport

	pending     []Event
	handles     []progress.Handle
	cancelMatch func()
}

// New builds and plans a round. cfg must already have defaults applied.
func New(cfg *engine.LevelConfig, opts Options) (*Round, error) {
	if cfg == nil {
		return nil, fmt.Errorf("level config is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := &Round{cfg: cfg, opts: opts, log: log.With(zap.String("level", cfg.Name))}
	if err := r.build(opts.Seed); err != nil {
		return nil, err
	}
	r.log.Info("round started",
		zap.Uint64("seed", r.seed),
		zap.Int("pairs", len(r.board.Slots())),
		zap.Bool("hazards", r.hazards != nil))
	return r, nil
}

// Level returns the round's level config
func (r *Round) Level() *engine.LevelConfig { return r.cfg }

// Seed returns the seed the current layout was planned with
func (r *Round) Seed() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seed
}

// Board exposes the underlying board. Callers must not mutate it while the
// round is in use.
func (r *Round) Board() *engine.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board
}

// Layout returns the planner summary for the current layout
func (r *Round) Layout() LayoutReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}

// Over reports whether the round has been decided
func (r *Round) Over() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.referee.Over()
}

// BeginDrag picks up a car at a world pointer. A refused pick-up (locked car,
// another drag in progress) produces no events.
func (r *Round) BeginDrag(shapeID string, pointer geom.Vec2) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.referee.Over() {
		return nil, ErrRoundOver
	}
	s, ok := r.board.Shape(shapeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrShapeNotFound, shapeID)
	}
	if !r.board.BeginDrag(shapeID, pointer) {
		return nil, nil
	}
	return []Event{{
		Type:    EventDragStarted,
		ShapeID: shapeID,
		Data:    Started{Pointer: pointer, Order: s.Order},
	}}, nil
}

// UpdateDrag applies one frame of input to the dragged car
func (r *Round) UpdateDrag(in DragInput) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.referee.Over() {
		return nil, ErrRoundOver
	}
	s := r.dragging()
	if s == nil {
		return nil, ErrNoActiveDrag
	}

	m := in.Manipulation
	if in.Keys != nil {
		m = m.Merge(r.board.Settings().FromKeys(*in.Keys, in.DT))
	}
	if in.Touches != nil {
		r.board.Touch(in.Touches)
	}
	if in.Pointer != nil {
		r.board.UpdateDrag(*in.Pointer, m)
	} else {
		r.board.Manipulate(m)
	}

	d, _ := r.board.Draggable(s.ID)
	return []Event{{
		Type:    EventDragMoved,
		ShapeID: s.ID,
		Data:    Moved{Pose: s.Pose, Forbidden: d.Forbidden()},
	}}, nil
}

// EndDrag drops the dragged car. target names a slot ("slot-3" or
// "slot-3/anything"); empty means the slot under the pointer.
func (r *Round) EndDrag(pointer geom.Vec2, target string) (engine.DropOutcome, []Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.referee.Over() {
		return engine.DropOutcome{}, nil, ErrRoundOver
	}
	out, ok := r.board.EndDrag(pointer, target)
	if !ok {
		return engine.DropOutcome{}, nil, ErrNoActiveDrag
	}

	r.log.Debug("drop",
		zap.String("shape", out.ShapeID),
		zap.String("slot", out.Slot),
		zap.Bool("accepted", out.Result.Accepted),
		zap.String("reason", string(out.Result.Reason)))

	var evs []Event
	switch {
	case out.Result.Accepted:
		evs = append(evs, Event{Type: EventMatched, ShapeID: out.ShapeID, SlotID: out.Slot, Data: out})
	case out.Targeted():
		evs = append(evs, Event{Type: EventDropRejected, ShapeID: out.ShapeID, SlotID: out.Slot, Data: out})
	}
	return out, append(evs, r.take()...), nil
}

// Preview returns the ghost hint for the dragged car
func (r *Round) Preview() (engine.Preview, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.Preview()
}

// Tick advances round time by dt seconds and runs the hazards
func (r *Round) Tick(dt float64) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.referee.Over() {
		return nil, ErrRoundOver
	}
	if dt <= 0 {
		return nil, nil
	}
	r.elapsed += dt
	if r.hazards == nil {
		return nil, nil
	}

	explosions := r.hazards.Tick(dt, r.board)
	var evs []Event
	for _, ex := range explosions {
		evs = append(evs, Event{Type: EventExplosion, Data: ex})
	}
	return append(evs, r.take()...), nil
}

// ClickHazard detonates a bomb by id
func (r *Round) ClickHazard(bombID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.referee.Over() {
		return nil, ErrRoundOver
	}
	if r.hazards == nil {
		return nil, ErrNoHazards
	}
	ex, ok := r.hazards.Click(bombID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBombNotFound, bombID)
	}
	return append([]Event{{Type: EventExplosion, Data: ex}}, r.take()...), nil
}

// Reset re-plans the round with a seed derived from the current one
func (r *Round) Reset() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resets++
	seed := layout.SeedFrom(r.cfg.Name, strconv.FormatUint(r.seed, 10), "reset", strconv.Itoa(r.resets))
	if err := r.build(seed); err != nil {
		return nil, err
	}
	r.log.Info("round reset", zap.Uint64("seed", seed))
	return []Event{{Type: EventReset, Data: map[string]uint64{"seed": seed}}}, nil
}

// build replaces every round component with a fresh layout planned from seed
func (r *Round) build(seed uint64) error {
	r.release()

	cfg := r.cfg
	board := engine.NewBoard(engine.BoardOptions{
		Level:     cfg.Name,
		PlayFrame: cfg.PlayArea.Frame(),
		PlayArea:  cfg.PlayArea.Rect(),
		Zones:     cfg.ForbiddenZones,
		Settings:  cfg.DragSettings(),
		Store:     r.opts.Store,
		Logger:    r.log,
	})

	planner := layout.NewPlanner(seed, r.log)
	pairs := cfg.Pairs[:cfg.PairCount()]
	if len(pairs) == 0 {
		r.log.Warn("level has no pairs, round is empty")
	}

	slotLooks := looks(planner, cfg.Spawn.Slots, cfg.Spawn, len(pairs))
	carLooks := looks(planner, cfg.Spawn.Cars, cfg.Spawn, len(pairs))

	opts := layout.Options{
		Padding:            cfg.Spawn.Padding,
		MinSpacing:         cfg.Spawn.MinSpacing,
		Inflate:            cfg.Spawn.SpacingInflate,
		MaxAttemptsPerItem: cfg.Spawn.MaxTriesPerItem,
	}
	area := board.PlayArea()
	forbidden := board.ForbiddenRects()
	slotPlan := planner.Plan(area, forbidden, items(pairs, slotLooks), opts)
	carPlan := planner.Plan(area, forbidden, items(pairs, carLooks), opts)
	spawn := spawnPoint{area: area, forbidden: forbidden, pad: cfg.DragSettings().ForbiddenEdgePadding, log: r.log}

	tol := cfg.Tolerances()
	for i, p := range pairs {
		slot := &engine.Slot{
			ID:   SlotID(i),
			Name: p.Name,
			Tag:  p.Tag,
			Size: p.Size(),
			Anchor: engine.Pose{
				Position: spawn.at(slotPlan[i]),
				Rotation: slotLooks[i].Rotation,
				Scale:    slotLooks[i].Scale,
			},
			Tolerances: tol,
		}
		if err := board.AddSlot(slot); err != nil {
			return fmt.Errorf("failed to add slot: %w", err)
		}
	}
	for i, p := range pairs {
		shape := &engine.Shape{
			ID:   ShapeID(i),
			Name: fmt.Sprintf("%s_%d", p.Name, i),
			Tag:  p.Tag,
			Size: p.Size(),
			Pose: engine.Pose{
				Position: spawn.at(carPlan[i]),
				Rotation: carLooks[i].Rotation,
				Scale:    carLooks[i].Scale,
			},
		}
		if _, err := board.AddShape(shape); err != nil {
			return fmt.Errorf("failed to add shape: %w", err)
		}
	}

	r.seed = seed
	r.elapsed = 0
	r.board = board
	r.report = LayoutReport{
		Slots: layout.Summarize(slotPlan, opts.MinSpacing),
		Cars:  layout.Summarize(carPlan, opts.MinSpacing),
		Plan:  append(slotPlan, carPlan...),
	}
	r.progress = progress.NewProgress(len(pairs))
	r.penalties = progress.NewPenalties(cfg.Rules.MaxPenalties)
	r.referee = progress.NewReferee(progress.Messages{
		Victory:     cfg.Messages.Victory,
		VictoryHint: cfg.Messages.VictoryHint,
		Defeat:      cfg.Messages.Defeat,
		DefeatHint:  cfg.Messages.DefeatHint,
	})
	r.hazards = nil
	if cfg.Hazards != nil {
		r.hazards = hazard.NewField(area, hazardSettings(cfg.Hazards), planner.Rand().Uint64(), r.penalties, r.log)
	}
	r.pending = nil
	r.wire()
	return nil
}

// wire connects the matcher, counters and referee through callbacks
func (r *Round) wire() {
	r.cancelMatch = r.board.Matcher().OnMatch(func(ev engine.MatchEvent) {
		r.progress.Match(ev.SlotID)
	})
	r.referee.Watch(r.progress, r.penalties)
	r.handles = []progress.Handle{
		r.penalties.OnPenalty(func(ev progress.PenaltyEvent) {
			r.pending = append(r.pending, Event{Type: EventPenalty, Data: ev})
		}),
		r.referee.OnEnd(func(v progress.Verdict) {
			t := EventGameOver
			if v.Outcome == progress.Won {
				t = EventVictory
			}
			r.pending = append(r.pending, Event{Type: t, Data: v})
			r.log.Info("round decided", zap.String("outcome", string(v.Outcome)), zap.Float64("elapsed", r.elapsed))
		}),
	}
}

func (r *Round) release() {
	if r.cancelMatch != nil {
		r.cancelMatch()
		r.cancelMatch = nil
	}
	for _, h := range r.handles {
		h.Cancel()
	}
	r.handles = nil
	if r.referee != nil {
		r.referee.Close()
	}
}

func (r *Round) take() []Event {
	evs := r.pending
	r.pending = nil
	return evs
}

func (r *Round) dragging() *engine.Shape {
	s := r.board.Session().Current()
	if s == nil || s.State != engine.Dragging {
		return nil
	}
	return s
}

// SlotID is the id of the i-th slot of a round
func SlotID(i int) string { return "slot-" + strconv.Itoa(i) }

// ShapeID is the id of the i-th car of a round
func ShapeID(i int) string { return "car-" + strconv.Itoa(i) }

func looks(p *layout.Planner, a engine.AppearanceConfig, s engine.SpawnConfig, n int) []layout.Look {
	app := layout.Appearance{
		ScaleMin:       a.ScaleMin,
		ScaleMax:       a.ScaleMax,
		MaxRotationDeg: a.MaxRotationDeg,
		MirrorXChance:  a.MirrorXChance,
		MirrorYChance:  a.MirrorYChance,
		Disabled:       a.Disabled,
	}
	out := make([]layout.Look, n)
	for i := range out {
		l := p.Randomize(app)
		l.Scale = layout.ClampUniformScale(l.Scale, s.ClampScaleMin, s.ClampScaleMax)
		out[i] = l
	}
	return out
}

func items(pairs []engine.PairConfig, ls []layout.Look) []layout.Item {
	out := make([]layout.Item, len(pairs))
	for i, p := range pairs {
		out[i] = layout.Item{Size: p.Size(), Scale: ls[i].Scale}
	}
	return out
}

type spawnPoint struct {
	area      geom.Rect
	forbidden []geom.Rect
	pad       float64
	log       *zap.Logger
}

// at returns the planned position, or for unplaced items the area center
// pushed out of any forbidden rect covering it.
func (s spawnPoint) at(p layout.Placement) geom.Vec2 {
	if p.Placed() {
		return p.Position
	}
	c := s.area.Center()
	for _, f := range s.forbidden {
		if f.Contains(c) {
			c = f.Exit(c, s.pad, s.area)
		}
	}
	if geom.ContainsAny(s.forbidden, c) {
		s.log.Warn("unplaced item spawned inside a forbidden zone", zap.Any("position", c))
	}
	return c
}

func hazardSettings(h *engine.HazardConfig) hazard.Settings {
	s := hazard.DefaultSettings()
	p := s.Policy
	s.SpawnInterval = h.SpawnInterval
	s.Fuse = h.Fuse
	s.SpeedMin, s.SpeedMax = h.SpeedMin, h.SpeedMax
	s.WaveAmplitude = h.WaveAmplitude
	s.WaveFrequency = h.WaveFrequency
	s.ExplosionRadius = h.ExplosionRadius
	s.Size = h.Size
	s.MaxActive = h.MaxActive
	s.Policy = hazard.Policy{
		ExplodeOnClick:        engine.Bool(h.ExplodeOnClick, p.ExplodeOnClick),
		ExplodeOnDragOverlap:  engine.Bool(h.ExplodeOnDragOverlap, p.ExplodeOnDragOverlap),
		PenaltyOnClick:        engine.Bool(h.PenaltyOnClick, p.PenaltyOnClick),
		PenaltyOnDragOverlap:  engine.Bool(h.PenaltyOnDragOverlap, p.PenaltyOnDragOverlap),
		PenaltyOnTimeout:      engine.Bool(h.PenaltyOnTimeout, p.PenaltyOnTimeout),
		PenaltyPerExplosion:   h.PenaltyPerExplosion,
		RequireInsidePlayArea: engine.Bool(h.RequireInsidePlayArea, p.RequireInsidePlayArea),
	}
	return s
}
