package hazard

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/geom"
)

// DragQuery reports the bounds of the car being dragged, if any
type DragQuery interface {
	DraggedBounds() (geom.Rect, bool)
}

// PenaltySink receives penalties caused by explosions
type PenaltySink interface {
	Add(n int, cause string) int
}

// Field spawns and advances bombs inside a play area
type Field struct {
	area       geom.Rect
	settings   Settings
	rng        *rand.Rand
	bombs      []*Bomb
	untilSpawn float64
	sink       PenaltySink
	log        *zap.Logger
}

// FieldState is the saved form of a Field
type FieldState struct {
	Bombs      []Bomb  `json:"bombs"`
	UntilSpawn float64 `json:"until_spawn"`
}

// NewField creates an empty field. sink may be nil.
func NewField(area geom.Rect, s Settings, seed uint64, sink PenaltySink, log *zap.Logger) *Field {
	if log == nil {
		log = zap.NewNop()
	}
	if area.Empty() {
		log.Warn("hazard field has no play area, bombs will not spawn")
	}
	return &Field{
		area:       area,
		settings:   s,
		rng:        rand.New(rand.NewPCG(seed, seed^0xa0761d6478bd642f)),
		untilSpawn: s.FirstDelay,
		sink:       sink,
		log:        log,
	}
}

// Settings returns the field configuration
func (f *Field) Settings() Settings { return f.settings }

// Bombs returns copies of the live bombs
func (f *Field) Bombs() []Bomb {
	out := make([]Bomb, 0, len(f.bombs))
	for _, b := range f.bombs {
		out = append(out, *b)
	}
	return out
}

// Active counts live bombs
func (f *Field) Active() int { return len(f.bombs) }

// Tick advances time by dt: moves every bomb, detonates those whose fuse ran
// out or that touch the dragged car, then spawns any bombs that are due.
func (f *Field) Tick(dt float64, q DragQuery) []Explosion {
	if dt <= 0 {
		return nil
	}

	var dragged geom.Rect
	dragging := false
	if q != nil && f.settings.Policy.ExplodeOnDragOverlap {
		dragged, dragging = q.DraggedBounds()
	}

	var out []Explosion
	for _, b := range f.bombs {
		b.advance(dt)
		switch {
		case dragging && b.Bounds().Overlaps(dragged):
			out = append(out, f.explode(b, CauseDragOverlap))
		case b.Age >= b.Fuse:
			out = append(out, f.explode(b, CauseTimeout))
		}
	}
	f.sweep()

	if f.settings.SpawnInterval > 0 {
		f.untilSpawn -= dt
		for f.untilSpawn <= 0 {
			f.Spawn()
			f.untilSpawn += f.settings.SpawnInterval
		}
	}
	return out
}

// Click detonates bomb id when the policy allows it
func (f *Field) Click(id string) (Explosion, bool) {
	if !f.settings.Policy.ExplodeOnClick {
		return Explosion{}, false
	}
	for _, b := range f.bombs {
		if b.ID == id && !b.Exploded {
			ex := f.explode(b, CauseClick)
			f.sweep()
			return ex, true
		}
	}
	return Explosion{}, false
}

// Spawn places a bomb at a random point in the area. It returns nil when the
// area is empty or MaxActive bombs are already live.
func (f *Field) Spawn() *Bomb {
	if f.area.Empty() {
		return nil
	}
	pos := geom.V(
		f.area.Min.X+f.rng.Float64()*f.area.Width(),
		f.area.Min.Y+f.rng.Float64()*f.area.Height(),
	)
	lo, hi := f.settings.SpeedMin, f.settings.SpeedMax
	speed := lo + f.rng.Float64()*(hi-lo)
	if f.rng.IntN(2) == 0 {
		speed = -speed
	}
	return f.SpawnAt(pos, speed)
}

// SpawnAt places a bomb at pos moving horizontally at speed
func (f *Field) SpawnAt(pos geom.Vec2, speed float64) *Bomb {
	if f.settings.MaxActive > 0 && len(f.bombs) >= f.settings.MaxActive {
		return nil
	}
	b := &Bomb{
		ID:        uuid.NewString(),
		Position:  pos,
		Size:      f.settings.Size,
		Speed:     speed,
		BaseY:     pos.Y,
		Amplitude: f.settings.WaveAmplitude,
		Frequency: f.settings.WaveFrequency,
		Fuse:      f.settings.Fuse,
		Radius:    f.settings.ExplosionRadius,
	}
	f.bombs = append(f.bombs, b)
	f.log.Debug("bomb spawned", zap.String("bomb", b.ID), zap.Float64("x", pos.X), zap.Float64("y", pos.Y))
	return b
}

// Reset removes every bomb and restarts the spawn timer
func (f *Field) Reset() {
	f.bombs = nil
	f.untilSpawn = f.settings.FirstDelay
}

// Snapshot returns the saved form of the field
func (f *Field) Snapshot() FieldState {
	return FieldState{Bombs: f.Bombs(), UntilSpawn: f.untilSpawn}
}

// Restore replaces the field contents with st
func (f *Field) Restore(st FieldState) {
	f.bombs = f.bombs[:0]
	for _, b := range st.Bombs {
		if b.Exploded {
			continue
		}
		f.bombs = append(f.bombs, &b)
	}
	f.untilSpawn = st.UntilSpawn
}

func (f *Field) explode(b *Bomb, cause Cause) Explosion {
	b.Exploded = true
	p := f.settings.Policy

	inside := !p.RequireInsidePlayArea || f.area.Contains(b.Position)
	ex := Explosion{BombID: b.ID, Cause: cause, Position: b.Position, Radius: b.Radius, Inside: inside}
	if inside && p.Penalizes(cause) && p.PenaltyPerExplosion > 0 {
		ex.Penalty = p.PenaltyPerExplosion
		if f.sink != nil {
			f.sink.Add(ex.Penalty, string(cause))
		}
	}

	f.log.Info("bomb exploded",
		zap.String("bomb", b.ID),
		zap.String("cause", string(cause)),
		zap.Bool("inside", inside),
		zap.Int("penalty", ex.Penalty))
	return ex
}

func (f *Field) sweep() {
	live := f.bombs[:0]
	for _, b := range f.bombs {
		if !b.Exploded {
			live = append(live, b)
		}
	}
	f.bombs = live
}
