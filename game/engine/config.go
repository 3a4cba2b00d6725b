package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wricardo/silhouette-match/game/geom"
)

// Level defaults
const (
	DefaultPairCount        = 12
	DefaultSpawnPadding     = 60.0
	DefaultMinSpacing       = 120.0
	DefaultSpacingInflate   = 20.0
	DefaultMaxTriesPerItem  = 200
	DefaultAppearanceMin    = 0.5
	DefaultAppearanceMax    = 2.0
	DefaultMaxRotationDeg   = 60.0
	DefaultMirrorXChance    = 0.5
	DefaultMaxPenalties     = 3
	DefaultHazardInterval   = 8.0
	DefaultHazardFuse       = 8.0
	DefaultHazardSpeedMin   = 60.0
	DefaultHazardSpeedMax   = 120.0
	DefaultHazardAmplitude  = 25.0
	DefaultHazardFrequency  = 1.0
	DefaultHazardRadius     = 220.0
	DefaultHazardSize       = 64.0
	DefaultHazardMaxActive  = 3
	DefaultPenaltyPerBlast  = 1
	MaxTriesPerItemLimit    = 10000
	MaxAbsAppearanceScale   = 10.0
	MaxMirrorChance         = 1.0
	MaxPenaltiesLimit       = 99
	DefaultVictoryMessage   = "All cars placed!"
	DefaultVictoryHint      = "Great work, driver."
	DefaultDefeatMessage    = "Too many mistakes!"
	DefaultDefeatHint       = "Tip: avoid dragging cars across bombs."
	DefaultLevelDescription = "Drag every car onto its silhouette."
)

// ErrInvalidConfig wraps every level validation failure
var ErrInvalidConfig = errors.New("invalid level config")

// LevelConfig describes one playable level
type LevelConfig struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	PlayArea       PlayAreaConfig `json:"play_area" yaml:"play_area"`
	ForbiddenZones []Zone         `json:"forbidden_zones,omitempty" yaml:"forbidden_zones,omitempty"`
	Pairs          []PairConfig   `json:"pairs" yaml:"pairs"`
	// Count is how many pairs to spawn, taken from the front of Pairs
	Count int `json:"count,omitempty" yaml:"count,omitempty"`

	Spawn SpawnConfig `json:"spawn" yaml:"spawn"`
	// Drop and Drag are taken as written when present; nil selects defaults
	Drop    *Tolerances   `json:"drop,omitempty" yaml:"drop,omitempty"`
	Drag    *DragSettings `json:"drag,omitempty" yaml:"drag,omitempty"`
	Hazards *HazardConfig `json:"hazards,omitempty" yaml:"hazards,omitempty"`

	Rules    RulesConfig    `json:"rules" yaml:"rules"`
	Messages MessagesConfig `json:"messages" yaml:"messages"`
}

// PlayAreaConfig places the play-area frame in world space. The rect is
// centered on the frame origin.
type PlayAreaConfig struct {
	Position geom.Vec2 `json:"position" yaml:"position"`
	Rotation float64   `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Scale    geom.Vec2 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Width    float64   `json:"width" yaml:"width"`
	Height   float64   `json:"height" yaml:"height"`
}

// Frame returns the world frame of the play area
func (p PlayAreaConfig) Frame() *geom.Frame {
	return &geom.Frame{Position: p.Position, Rotation: p.Rotation, Scale: p.Scale}
}

// Rect returns the play rect in the play-area frame
func (p PlayAreaConfig) Rect() geom.Rect {
	return geom.Centered(geom.Vec2{}, geom.V(p.Width, p.Height))
}

// PairConfig is one car and its silhouette
type PairConfig struct {
	Tag    Tag     `json:"tag" yaml:"tag"`
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Size returns the footprint of the pair
func (p PairConfig) Size() geom.Vec2 { return geom.V(p.Width, p.Height) }

// AppearanceConfig controls random scale, rotation and mirroring
type AppearanceConfig struct {
	ScaleMin       float64 `json:"scale_min" yaml:"scale_min"`
	ScaleMax       float64 `json:"scale_max" yaml:"scale_max"`
	MaxRotationDeg float64 `json:"max_rotation_deg" yaml:"max_rotation_deg"`
	MirrorXChance  float64 `json:"mirror_x_chance" yaml:"mirror_x_chance"`
	MirrorYChance  float64 `json:"mirror_y_chance" yaml:"mirror_y_chance"`
	// Disabled keeps unit scale and zero rotation
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// SpawnConfig controls placement of slots and cars
type SpawnConfig struct {
	Padding         geom.Vec2        `json:"padding" yaml:"padding"`
	MinSpacing      float64          `json:"min_spacing" yaml:"min_spacing"`
	SpacingInflate  float64          `json:"spacing_inflate" yaml:"spacing_inflate"`
	MaxTriesPerItem int              `json:"max_tries_per_item" yaml:"max_tries_per_item"`
	Slots           AppearanceConfig `json:"slots" yaml:"slots"`
	Cars            AppearanceConfig `json:"cars" yaml:"cars"`
	ClampScaleMin   float64          `json:"clamp_scale_min" yaml:"clamp_scale_min"`
	ClampScaleMax   float64          `json:"clamp_scale_max" yaml:"clamp_scale_max"`
}

// HazardConfig enables bombs. Nil policy flags take their defaults.
type HazardConfig struct {
	SpawnInterval   float64   `json:"spawn_interval" yaml:"spawn_interval"`
	Fuse            float64   `json:"fuse" yaml:"fuse"`
	SpeedMin        float64   `json:"speed_min" yaml:"speed_min"`
	SpeedMax        float64   `json:"speed_max" yaml:"speed_max"`
	WaveAmplitude   float64   `json:"wave_amplitude" yaml:"wave_amplitude"`
	WaveFrequency   float64   `json:"wave_frequency" yaml:"wave_frequency"`
	ExplosionRadius float64   `json:"explosion_radius" yaml:"explosion_radius"`
	Size            geom.Vec2 `json:"size" yaml:"size"`
	MaxActive       int       `json:"max_active" yaml:"max_active"`

	ExplodeOnClick        *bool `json:"explode_on_click,omitempty" yaml:"explode_on_click,omitempty"`
	ExplodeOnDragOverlap  *bool `json:"explode_on_drag_overlap,omitempty" yaml:"explode_on_drag_overlap,omitempty"`
	PenaltyOnClick        *bool `json:"penalty_on_click,omitempty" yaml:"penalty_on_click,omitempty"`
	PenaltyOnDragOverlap  *bool `json:"penalty_on_drag_overlap,omitempty" yaml:"penalty_on_drag_overlap,omitempty"`
	PenaltyOnTimeout      *bool `json:"penalty_on_timeout,omitempty" yaml:"penalty_on_timeout,omitempty"`
	RequireInsidePlayArea *bool `json:"require_inside_play_area,omitempty" yaml:"require_inside_play_area,omitempty"`
	PenaltyPerExplosion   int   `json:"penalty_per_explosion" yaml:"penalty_per_explosion"`
}

// RulesConfig holds the lose condition
type RulesConfig struct {
	MaxPenalties int `json:"max_penalties" yaml:"max_penalties"`
}

// MessagesConfig holds end-of-round texts
type MessagesConfig struct {
	Victory     string `json:"victory" yaml:"victory"`
	VictoryHint string `json:"victory_hint" yaml:"victory_hint"`
	Defeat      string `json:"defeat" yaml:"defeat"`
	DefeatHint  string `json:"defeat_hint" yaml:"defeat_hint"`
}

// PairCount is the number of pairs a round will spawn
func (c *LevelConfig) PairCount() int {
	n := c.Count
	if n <= 0 {
		n = DefaultPairCount
	}
	return min(n, len(c.Pairs))
}

// Tolerances returns the drop rules for the level's slots
func (c *LevelConfig) Tolerances() Tolerances {
	if c.Drop == nil {
		return DefaultTolerances()
	}
	return *c.Drop
}

// DragSettings returns the manipulation rules for the level
func (c *LevelConfig) DragSettings() DragSettings {
	if c.Drag == nil {
		return DefaultDragSettings()
	}
	return *c.Drag
}

// Bool returns the value of an optional flag
func Bool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ApplyDefaults fills every unset field in place
func ApplyDefaults(c *LevelConfig) {
	if c.Description == "" {
		c.Description = DefaultLevelDescription
	}
	if c.PlayArea.Scale == (geom.Vec2{}) {
		c.PlayArea.Scale = geom.One
	}
	for i := range c.Pairs {
		if c.Pairs[i].Name == "" {
			c.Pairs[i].Name = c.Pairs[i].Tag.String()
		}
	}

	s := &c.Spawn
	if s.Padding == (geom.Vec2{}) {
		s.Padding = geom.V(DefaultSpawnPadding, DefaultSpawnPadding)
	}
	if s.MinSpacing == 0 {
		s.MinSpacing = DefaultMinSpacing
	}
	if s.SpacingInflate == 0 {
		s.SpacingInflate = DefaultSpacingInflate
	}
	if s.MaxTriesPerItem == 0 {
		s.MaxTriesPerItem = DefaultMaxTriesPerItem
	}
	if s.ClampScaleMin == 0 {
		s.ClampScaleMin = DefaultAppearanceMin
	}
	if s.ClampScaleMax == 0 {
		s.ClampScaleMax = DefaultAppearanceMax
	}
	appearanceDefaults(&s.Slots)
	appearanceDefaults(&s.Cars)

	if c.Drop != nil && c.Drop.SizeTolerancePercent == 0 {
		c.Drop.SizeTolerancePercent = DefaultSizeTolerancePercent
	}
	if c.Drag != nil {
		dragDefaults(c.Drag)
	}
	if c.Hazards != nil {
		hazardDefaults(c.Hazards)
	}

	if c.Rules.MaxPenalties == 0 {
		c.Rules.MaxPenalties = DefaultMaxPenalties
	}
	m := &c.Messages
	if m.Victory == "" {
		m.Victory = DefaultVictoryMessage
	}
	if m.VictoryHint == "" {
		m.VictoryHint = DefaultVictoryHint
	}
	if m.Defeat == "" {
		m.Defeat = DefaultDefeatMessage
	}
	if m.DefeatHint == "" {
		m.DefeatHint = DefaultDefeatHint
	}
}

func appearanceDefaults(a *AppearanceConfig) {
	if a.Disabled {
		return
	}
	if a.ScaleMin == 0 && a.ScaleMax == 0 {
		a.ScaleMin, a.ScaleMax = DefaultAppearanceMin, DefaultAppearanceMax
	}
	if a.MaxRotationDeg == 0 {
		a.MaxRotationDeg = DefaultMaxRotationDeg
	}
	if a.MirrorXChance == 0 && a.MirrorYChance == 0 {
		a.MirrorXChance = DefaultMirrorXChance
	}
}

func dragDefaults(d *DragSettings) {
	def := DefaultDragSettings()
	if d.RotateSpeedDeg == 0 {
		d.RotateSpeedDeg = def.RotateSpeedDeg
	}
	if d.ScaleSpeed == (geom.Vec2{}) {
		d.ScaleSpeed = def.ScaleSpeed
	}
	if d.ShiftMultiplier == 0 {
		d.ShiftMultiplier = def.ShiftMultiplier
	}
	if d.MinScale == (geom.Vec2{}) {
		d.MinScale = def.MinScale
	}
	if d.MaxScale == (geom.Vec2{}) {
		d.MaxScale = def.MaxScale
	}
	if d.DefaultScale == (geom.Vec2{}) {
		d.DefaultScale = def.DefaultScale
	}
	if d.PinchFactor == 0 {
		d.PinchFactor = def.PinchFactor
	}
	if d.SaveKeyPrefix == "" {
		d.SaveKeyPrefix = def.SaveKeyPrefix
	}
}

func hazardDefaults(h *HazardConfig) {
	if h.SpawnInterval == 0 {
		h.SpawnInterval = DefaultHazardInterval
	}
	if h.Fuse == 0 {
		h.Fuse = DefaultHazardFuse
	}
	if h.SpeedMin == 0 && h.SpeedMax == 0 {
		h.SpeedMin, h.SpeedMax = DefaultHazardSpeedMin, DefaultHazardSpeedMax
	}
	if h.WaveAmplitude == 0 {
		h.WaveAmplitude = DefaultHazardAmplitude
	}
	if h.WaveFrequency == 0 {
		h.WaveFrequency = DefaultHazardFrequency
	}
	if h.ExplosionRadius == 0 {
		h.ExplosionRadius = DefaultHazardRadius
	}
	if h.Size == (geom.Vec2{}) {
		h.Size = geom.V(DefaultHazardSize, DefaultHazardSize)
	}
	if h.MaxActive == 0 {
		h.MaxActive = DefaultHazardMaxActive
	}
	if h.PenaltyPerExplosion == 0 {
		h.PenaltyPerExplosion = DefaultPenaltyPerBlast
	}
}

// ValidateLevelConfig reports every problem with a level at once
func ValidateLevelConfig(c *LevelConfig) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config validation: "+format, args...))
	}

	if strings.TrimSpace(c.Name) == "" {
		fail("name is required")
	}
	if c.PlayArea.Width <= 0 || c.PlayArea.Height <= 0 {
		fail("play_area width and height must be positive, got %gx%g", c.PlayArea.Width, c.PlayArea.Height)
	}

	if len(c.Pairs) == 0 {
		fail("at least one pair is required")
	}
	if len(c.Pairs) > MaxPairs {
		fail("at most %d pairs are allowed, got %d", MaxPairs, len(c.Pairs))
	}
	if c.Count < 0 {
		fail("count must not be negative, got %d", c.Count)
	}
	for i, p := range c.Pairs {
		if !p.Tag.Valid() {
			fail("pairs[%d]: unknown tag", i)
		}
		if p.Width <= 0 || p.Height <= 0 {
			fail("pairs[%d]: width and height must be positive, got %gx%g", i, p.Width, p.Height)
		}
	}

	for i, z := range c.ForbiddenZones {
		if z.Size.X <= 0 || z.Size.Y <= 0 {
			fail("forbidden_zones[%d]: size must be positive", i)
		}
	}

	s := c.Spawn
	if s.Padding.X < 0 || s.Padding.Y < 0 {
		fail("spawn.padding must not be negative")
	}
	if s.MinSpacing < 0 || s.SpacingInflate < 0 {
		fail("spawn.min_spacing and spawn.spacing_inflate must not be negative")
	}
	if s.MaxTriesPerItem < 1 || s.MaxTriesPerItem > MaxTriesPerItemLimit {
		fail("spawn.max_tries_per_item must be between 1 and %d, got %d", MaxTriesPerItemLimit, s.MaxTriesPerItem)
	}
	if s.ClampScaleMin <= 0 || s.ClampScaleMax < s.ClampScaleMin {
		fail("spawn.clamp_scale range [%g, %g] is invalid", s.ClampScaleMin, s.ClampScaleMax)
	}
	errs = append(errs, validateAppearance("spawn.slots", s.Slots)...)
	errs = append(errs, validateAppearance("spawn.cars", s.Cars)...)

	if d := c.Drop; d != nil {
		if d.SnapDistance < 0 {
			fail("drop.snap_distance must not be negative")
		}
		if d.RotationToleranceDeg < 0 || d.RotationToleranceDeg > 180 {
			fail("drop.rotation_tolerance_deg must be between 0 and 180, got %g", d.RotationToleranceDeg)
		}
		if d.SizeTolerancePercent < 0 || d.SizeTolerancePercent > MaxSizeTolerancePercent {
			fail("drop.size_tolerance_percent must be between 0 and %g, got %g", MaxSizeTolerancePercent, d.SizeTolerancePercent)
		}
	}

	if d := c.Drag; d != nil {
		if d.MinScale.X <= 0 || d.MinScale.Y <= 0 {
			fail("drag.min_scale must be positive")
		}
		if d.MaxScale.X < d.MinScale.X || d.MaxScale.Y < d.MinScale.Y {
			fail("drag.max_scale must not be below drag.min_scale")
		}
		if d.ForbiddenEdgePadding < 0 {
			fail("drag.forbidden_edge_padding must not be negative")
		}
		if d.ShiftMultiplier <= 0 {
			fail("drag.shift_multiplier must be positive")
		}
	}

	if h := c.Hazards; h != nil {
		if h.SpawnInterval <= 0 || h.Fuse <= 0 {
			fail("hazards.spawn_interval and hazards.fuse must be positive")
		}
		if h.SpeedMin < 0 || h.SpeedMax < h.SpeedMin {
			fail("hazards speed range [%g, %g] is invalid", h.SpeedMin, h.SpeedMax)
		}
		if h.MaxActive < 1 {
			fail("hazards.max_active must be at least 1")
		}
		if h.PenaltyPerExplosion < 0 {
			fail("hazards.penalty_per_explosion must not be negative")
		}
	}

	if c.Rules.MaxPenalties < 1 || c.Rules.MaxPenalties > MaxPenaltiesLimit {
		fail("rules.max_penalties must be between 1 and %d, got %d", MaxPenaltiesLimit, c.Rules.MaxPenalties)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func validateAppearance(prefix string, a AppearanceConfig) []error {
	if a.Disabled {
		return nil
	}
	var errs []error
	if a.ScaleMin <= 0 || a.ScaleMax < a.ScaleMin || a.ScaleMax > MaxAbsAppearanceScale {
		errs = append(errs, fmt.Errorf("config validation: %s scale range [%g, %g] is invalid", prefix, a.ScaleMin, a.ScaleMax))
	}
	if a.MaxRotationDeg < 0 || a.MaxRotationDeg > 180 {
		errs = append(errs, fmt.Errorf("config validation: %s.max_rotation_deg must be between 0 and 180", prefix))
	}
	if outside01(a.MirrorXChance) || outside01(a.MirrorYChance) {
		errs = append(errs, fmt.Errorf("config validation: %s mirror chances must be between 0 and %g", prefix, MaxMirrorChance))
	}
	return errs
}

func outside01(f float64) bool {
	return math.IsNaN(f) || f < 0 || f > MaxMirrorChance
}

// DefaultLevel is the built-in level used when no config files exist
func DefaultLevel() *LevelConfig {
	c := &LevelConfig{
		Name:     "builtin",
		PlayArea: PlayAreaConfig{Width: 1600, Height: 900},
		Pairs: []PairConfig{
			{Tag: TagSedan, Width: 120, Height: 60},
			{Tag: TagPickup, Width: 140, Height: 70},
			{Tag: TagTaxi, Width: 120, Height: 60},
			{Tag: TagBus, Width: 200, Height: 70},
		},
	}
	ApplyDefaults(c)
	return c
}
