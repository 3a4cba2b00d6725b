package layout

import (
	"math"

	"github.com/wricardo/silhouette-match/game/geom"
)

// Appearance controls random scale, rotation and mirroring
type Appearance struct {
	ScaleMin       float64 `json:"scale_min"`
	ScaleMax       float64 `json:"scale_max"`
	MaxRotationDeg float64 `json:"max_rotation_deg"`
	MirrorXChance  float64 `json:"mirror_x_chance"`
	MirrorYChance  float64 `json:"mirror_y_chance"`
	Disabled       bool    `json:"disabled,omitempty"`
}

// DefaultAppearance returns the stock randomization ranges
func DefaultAppearance() Appearance {
	return Appearance{ScaleMin: 0.5, ScaleMax: 2.0, MaxRotationDeg: 60, MirrorXChance: 0.5}
}

// Look is a randomized scale and rotation
type Look struct {
	Scale    geom.Vec2 `json:"scale"`
	Rotation float64   `json:"rotation"`
}

// Randomize draws a look: a uniform scale magnitude, optional mirror flips
// and a rotation within ±MaxRotationDeg.
func (p *Planner) Randomize(a Appearance) Look {
	if a.Disabled {
		return Look{Scale: geom.One}
	}

	lo, hi := math.Min(a.ScaleMin, a.ScaleMax), math.Max(a.ScaleMin, a.ScaleMax)
	lo = math.Max(lo, 1e-4)
	hi = math.Max(hi, lo)
	mag := lo + p.rng.Float64()*(hi-lo)

	sx, sy := 1.0, 1.0
	if p.rng.Float64() < a.MirrorXChance {
		sx = -1
	}
	if p.rng.Float64() < a.MirrorYChance {
		sy = -1
	}

	var rot float64
	if a.MaxRotationDeg > 0 {
		rot = (p.rng.Float64()*2 - 1) * a.MaxRotationDeg
	}
	return Look{Scale: geom.V(sx*mag, sy*mag), Rotation: rot}
}

// ClampUniformScale makes s uniform: the larger axis magnitude, clamped to
// [lo, hi], with each axis keeping its sign (zero counts as positive).
func ClampUniformScale(s geom.Vec2, lo, hi float64) geom.Vec2 {
	mag := geom.Clamp(math.Max(math.Abs(s.X), math.Abs(s.Y)), lo, hi)
	return s.Signs().Scale(mag)
}
