package hazard

import "github.com/wricardo/silhouette-match/game/geom"

// Policy decides which causes detonate a bomb and which cost a penalty
type Policy struct {
	ExplodeOnClick        bool `json:"explode_on_click"`
	ExplodeOnDragOverlap  bool `json:"explode_on_drag_overlap"`
	PenaltyOnClick        bool `json:"penalty_on_click"`
	PenaltyOnDragOverlap  bool `json:"penalty_on_drag_overlap"`
	PenaltyOnTimeout      bool `json:"penalty_on_timeout"`
	PenaltyPerExplosion   int  `json:"penalty_per_explosion"`
	RequireInsidePlayArea bool `json:"require_inside_play_area"`
}

// DefaultPolicy only penalizes dragging a car across a bomb
func DefaultPolicy() Policy {
	return Policy{
		ExplodeOnClick:        true,
		ExplodeOnDragOverlap:  true,
		PenaltyOnDragOverlap:  true,
		PenaltyPerExplosion:   1,
		RequireInsidePlayArea: true,
	}
}

// Penalizes reports whether an explosion with cause c costs a penalty
func (p Policy) Penalizes(c Cause) bool {
	switch c {
	case CauseClick:
		return p.PenaltyOnClick
	case CauseDragOverlap:
		return p.PenaltyOnDragOverlap
	case CauseTimeout:
		return p.PenaltyOnTimeout
	}
	return false
}

// Settings configure a Field
type Settings struct {
	SpawnInterval   float64   `json:"spawn_interval"`
	FirstDelay      float64   `json:"first_delay"`
	Fuse            float64   `json:"fuse"`
	SpeedMin        float64   `json:"speed_min"`
	SpeedMax        float64   `json:"speed_max"`
	WaveAmplitude   float64   `json:"wave_amplitude"`
	WaveFrequency   float64   `json:"wave_frequency"`
	ExplosionRadius float64   `json:"explosion_radius"`
	Size            geom.Vec2 `json:"size"`
	MaxActive       int       `json:"max_active"`
	Policy          Policy    `json:"policy"`
}

// DefaultSettings returns the stock bomb spawner
func DefaultSettings() Settings {
	return Settings{
		SpawnInterval:   8,
		FirstDelay:      5,
		Fuse:            8,
		SpeedMin:        60,
		SpeedMax:        120,
		WaveAmplitude:   25,
		WaveFrequency:   1,
		ExplosionRadius: 220,
		Size:            geom.V(64, 64),
		MaxActive:       3,
		Policy:          DefaultPolicy(),
	}
}
