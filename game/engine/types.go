package engine

import "github.com/wricardo/silhouette-match/game/geom"

// State is the lifecycle state of a draggable shape
type State string

const (
	Idle     State = "idle"
	Dragging State = "dragging"
	Locked   State = "locked"
)

// Defaults used when a level config leaves a field unset
const (
	DefaultSnapDistance         = 300.0
	DefaultRotationToleranceDeg = 20.0
	DefaultSizeTolerancePercent = 0.20
	MaxSizeTolerancePercent     = 0.5

	DefaultRotateSpeedDeg       = 90.0
	DefaultScaleSpeed           = 1.0
	DefaultShiftMultiplier      = 0.35
	DefaultMinScale             = 0.3
	DefaultMaxScale             = 3.0
	DefaultForbiddenEdgePadding = 8.0
	DefaultPinchFactor          = 0.005
	DefaultSaveKeyPrefix        = "DragCar_"

	MaxPairs = 24
)

// Pose is a position, a single-axis rotation in degrees and a non-uniform scale.
// Negative scale components mirror the shape on that axis.
type Pose struct {
	Position geom.Vec2 `json:"position"`
	Rotation float64   `json:"rotation"`
	Scale    geom.Vec2 `json:"scale"`
}

// Mirrored reports which axes are flipped
func (p Pose) Mirrored() (x, y bool) {
	return p.Scale.X < 0, p.Scale.Y < 0
}

// Shape is a draggable car
type Shape struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Tag   Tag       `json:"tag"`
	Size  geom.Vec2 `json:"size"`
	Pose  Pose      `json:"pose"`
	State State     `json:"state"`

	// Order is the draw priority; raised every time the shape is picked up
	Order int `json:"order"`
	// HitTestable is false while the shape is carried or after it locks
	HitTestable bool `json:"hit_testable"`

	layer *geom.Frame
}

// Layer returns the frame the shape's pose is expressed in
func (s *Shape) Layer() *geom.Frame { return s.layer }

// WorldPosition returns the shape anchor in world space
func (s *Shape) WorldPosition() geom.Vec2 {
	return s.layer.ToWorld(s.Pose.Position)
}

// WorldRotation returns the shape rotation in world space
func (s *Shape) WorldRotation() float64 {
	return s.layer.WorldRotation() + s.Pose.Rotation
}

// WorldScale returns the lossy world scale of the shape
func (s *Shape) WorldScale() geom.Vec2 {
	return s.layer.WorldScale().Mul(s.Pose.Scale)
}

// Slot is a silhouette a shape with the same tag can be dropped onto
type Slot struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Tag        Tag        `json:"tag"`
	Size       geom.Vec2  `json:"size"`
	Anchor     Pose       `json:"anchor"`
	Tolerances Tolerances `json:"tolerances"`
	Filled     bool       `json:"filled"`

	layer *geom.Frame
}

// Layer returns the frame the slot anchor is expressed in
func (s *Slot) Layer() *geom.Frame { return s.layer }

// WorldPosition returns the snap anchor in world space
func (s *Slot) WorldPosition() geom.Vec2 {
	return s.layer.ToWorld(s.Anchor.Position)
}

// WorldRotation returns the snap anchor rotation in world space
func (s *Slot) WorldRotation() float64 {
	return s.layer.WorldRotation() + s.Anchor.Rotation
}

// WorldScale returns the lossy world scale of the anchor
func (s *Slot) WorldScale() geom.Vec2 {
	return s.layer.WorldScale().Mul(s.Anchor.Scale)
}

// Contains reports whether a world point falls on the slot's rotated footprint
func (s *Slot) Contains(world geom.Vec2) bool {
	f := &geom.Frame{Parent: s.layer, Position: s.Anchor.Position, Rotation: s.Anchor.Rotation, Scale: s.Anchor.Scale.Abs()}
	return geom.Centered(geom.Vec2{}, s.Size).Contains(f.ToLocal(world))
}

// Tolerances controls how strictly a slot accepts a shape
type Tolerances struct {
	// SnapDistance <= 0 disables the proximity check
	SnapDistance         float64 `json:"snap_distance" yaml:"snap_distance"`
	RotationToleranceDeg float64 `json:"rotation_tolerance_deg" yaml:"rotation_tolerance_deg"`
	SizeTolerancePercent float64 `json:"size_tolerance_percent" yaml:"size_tolerance_percent"`
	RequireRotation      bool    `json:"require_rotation" yaml:"require_rotation"`
	RequireScale         bool    `json:"require_scale" yaml:"require_scale"`
	SnapOnCorrect        bool    `json:"snap_on_correct" yaml:"snap_on_correct"`
	LockOnCorrect        bool    `json:"lock_on_correct" yaml:"lock_on_correct"`
}

// DefaultTolerances returns the stock drop rules
func DefaultTolerances() Tolerances {
	return Tolerances{
		SnapDistance:         DefaultSnapDistance,
		RotationToleranceDeg: DefaultRotationToleranceDeg,
		SizeTolerancePercent: DefaultSizeTolerancePercent,
		RequireRotation:      true,
		RequireScale:         true,
		SnapOnCorrect:        true,
		LockOnCorrect:        true,
	}
}

// Zone is a forbidden rectangle placed in world space, possibly rotated
type Zone struct {
	Name     string    `json:"name" yaml:"name"`
	Center   geom.Vec2 `json:"center" yaml:"center"`
	Size     geom.Vec2 `json:"size" yaml:"size"`
	Rotation float64   `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// BoundsIn returns the zone's axis-aligned bounds inside frame f
func (z Zone) BoundsIn(f *geom.Frame) geom.Rect {
	zf := geom.NewFrame(nil, z.Center, z.Rotation)
	return geom.BoundsIn(f, zf, geom.Centered(geom.Vec2{}, z.Size))
}
