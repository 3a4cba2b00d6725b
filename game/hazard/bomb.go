package hazard

import (
	"math"

	"github.com/wricardo/silhouette-match/game/geom"
)

// Cause is why a bomb went off
type Cause string

const (
	CauseTimeout     Cause = "timeout"
	CauseClick       Cause = "click"
	CauseDragOverlap Cause = "drag_overlap"
)

// Bomb is a single hazard. All fields are exported so a field can be saved
// and restored.
type Bomb struct {
	ID        string    `json:"id"`
	Position  geom.Vec2 `json:"position"`
	Size      geom.Vec2 `json:"size"`
	Speed     float64   `json:"speed"`
	BaseY     float64   `json:"base_y"`
	Phase     float64   `json:"phase"`
	Amplitude float64   `json:"amplitude"`
	Frequency float64   `json:"frequency"`
	Age       float64   `json:"age"`
	Fuse      float64   `json:"fuse"`
	Radius    float64   `json:"radius"`
	Exploded  bool      `json:"exploded"`
}

// Bounds returns the bomb's rect in the play-area frame
func (b *Bomb) Bounds() geom.Rect {
	return geom.Centered(b.Position, b.Size)
}

// FuseLeft is the time until the bomb times out
func (b *Bomb) FuseLeft() float64 {
	return math.Max(b.Fuse-b.Age, 0)
}

// advance moves the bomb horizontally and bobs it on a sine wave
func (b *Bomb) advance(dt float64) {
	if b.Exploded || dt <= 0 {
		return
	}
	b.Age += dt
	b.Phase += dt * 2 * math.Pi * b.Frequency
	b.Position.X += b.Speed * dt
	b.Position.Y = b.BaseY + math.Sin(b.Phase)*b.Amplitude
}

// Explosion reports a bomb going off
type Explosion struct {
	BombID   string    `json:"bomb_id"`
	Cause    Cause     `json:"cause"`
	Position geom.Vec2 `json:"position"`
	Radius   float64   `json:"radius"`
	Inside   bool      `json:"inside"`
	Penalty  int       `json:"penalty"`
}
