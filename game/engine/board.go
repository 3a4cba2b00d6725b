package engine

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/geom"
)

// BoardOptions configure a new Board
type BoardOptions struct {
	Level string
	// PlayFrame is the frame the play area and zones are clamped in
	PlayFrame *geom.Frame
	// PlayArea is expressed in PlayFrame. An empty rect disables clamping.
	PlayArea geom.Rect
	// CarsLayer and SlotsLayer default to identity children of PlayFrame
	CarsLayer  *geom.Frame
	SlotsLayer *geom.Frame
	Zones      []Zone
	Settings   DragSettings
	Store      TransformStore
	Logger     *zap.Logger
}

// Board owns the shapes, slots and zones of one round together with the
// drag session and matcher that act on them. It is not safe for concurrent
// use; callers serialize access.
type Board struct {
	level      string
	playFrame  *geom.Frame
	playArea   geom.Rect
	carsLayer  *geom.Frame
	slotsLayer *geom.Frame
	zones      []Zone
	zoneRects  []geom.Rect
	settings   DragSettings

	shapes     []*Shape
	slots      []*Slot
	draggables map[string]*Draggable
	slotByID   map[string]*Slot

	session *DragSession
	matcher *Matcher
	store   TransformStore
	log     *zap.Logger
	order   int
}

// NewBoard creates an empty board
func NewBoard(opts BoardOptions) *Board {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	play := opts.PlayFrame
	if play == nil {
		play = geom.NewFrame(nil, geom.Vec2{}, 0)
	}
	cars := opts.CarsLayer
	if cars == nil {
		cars = geom.NewFrame(play, geom.Vec2{}, 0)
	}
	slots := opts.SlotsLayer
	if slots == nil {
		slots = geom.NewFrame(play, geom.Vec2{}, 0)
	}

	b := &Board{
		level:      opts.Level,
		playFrame:  play,
		playArea:   opts.PlayArea,
		carsLayer:  cars,
		slotsLayer: slots,
		zones:      opts.Zones,
		settings:   opts.Settings,
		draggables: make(map[string]*Draggable),
		slotByID:   make(map[string]*Slot),
		session:    NewDragSession(),
		matcher:    NewMatcher(log),
		store:      opts.Store,
		log:        log,
	}
	for _, z := range opts.Zones {
		b.zoneRects = append(b.zoneRects, z.BoundsIn(play))
	}
	if b.playArea.Empty() {
		log.Warn("board has no play area, drag clamping disabled", zap.String("level", opts.Level))
	}
	return b
}

// AddShape places a shape on the cars layer and returns its drag driver
func (b *Board) AddShape(s *Shape) (*Draggable, error) {
	if s == nil || s.ID == "" {
		return nil, fmt.Errorf("shape must have an id")
	}
	if _, ok := b.draggables[s.ID]; ok {
		return nil, fmt.Errorf("duplicate shape id %q", s.ID)
	}

	s.layer = b.carsLayer
	if s.Pose.Scale == (geom.Vec2{}) {
		s.Pose.Scale = geom.One
	}
	s.State = Idle
	s.HitTestable = true
	b.loadTransform(s)

	d := &Draggable{shape: s, board: b, lastValid: s.Pose.Position}
	b.shapes = append(b.shapes, s)
	b.draggables[s.ID] = d
	return d, nil
}

// AddSlot places a slot on the slots layer
func (b *Board) AddSlot(s *Slot) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("slot must have an id")
	}
	if strings.Contains(s.ID, "/") {
		return fmt.Errorf("slot id %q must not contain '/'", s.ID)
	}
	if _, ok := b.slotByID[s.ID]; ok {
		return fmt.Errorf("duplicate slot id %q", s.ID)
	}

	s.layer = b.slotsLayer
	if s.Anchor.Scale == (geom.Vec2{}) {
		s.Anchor.Scale = geom.One
	}
	b.slots = append(b.slots, s)
	b.slotByID[s.ID] = s
	return nil
}

func (b *Board) Level() string { return b.level }
func (b *Board) PlayFrame() *geom.Frame { return b.playFrame }
func (b *Board) PlayArea() geom.Rect { return b.playArea }
func (b *Board) Zones() []Zone { return b.zones }
func (b *Board) ForbiddenRects() []geom.Rect { return b.zoneRects }
func (b *Board) Settings() DragSettings { return b.settings }
func (b *Board) Session() *DragSession { return b.session }
func (b *Board) Matcher() *Matcher { return b.matcher }
func (b *Board) Shapes() []*Shape { return b.shapes }
func (b *Board) Slots() []*Slot { return b.slots }

// Shape returns the shape with the given id
func (b *Board) Shape(id string) (*Shape, bool) {
	d, ok := b.draggables[id]
	if !ok {
		return nil, false
	}
	return d.shape, true
}

// Slot returns the slot with the given id
func (b *Board) Slot(id string) (*Slot, bool) {
	s, ok := b.slotByID[id]
	return s, ok
}

// Draggable returns the drag driver for a shape id
func (b *Board) Draggable(id string) (*Draggable, bool) {
	d, ok := b.draggables[id]
	return d, ok
}

// Remaining counts unfilled slots
func (b *Board) Remaining() int {
	n := 0
	for _, s := range b.slots {
		if !s.Filled {
			n++
		}
	}
	return n
}

// SlotAt returns the topmost slot whose footprint contains a world point
func (b *Board) SlotAt(world geom.Vec2) *Slot {
	for i := len(b.slots) - 1; i >= 0; i-- {
		if b.slots[i].Contains(world) {
			return b.slots[i]
		}
	}
	return nil
}

// ShapeAt returns the highest-ordered hit-testable shape under a world point
func (b *Board) ShapeAt(world geom.Vec2) *Shape {
	var hits []*Shape
	for _, s := range b.shapes {
		if s.HitTestable && shapeContains(s, world) {
			hits = append(hits, s)
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Order > hits[j].Order })
	return hits[0]
}

// BeginDrag picks up the shape with the given id at a world pointer
func (b *Board) BeginDrag(shapeID string, pointer geom.Vec2) bool {
	d, ok := b.draggables[shapeID]
	if !ok {
		return false
	}
	return d.BeginDrag(pointer)
}

// UpdateDrag moves the shape currently being dragged
func (b *Board) UpdateDrag(pointer geom.Vec2, m Manipulation) bool {
	d := b.active()
	if d == nil {
		return false
	}
	return d.UpdateDrag(pointer, m)
}

// Manipulate applies manipulation input to the dragged shape
func (b *Board) Manipulate(m Manipulation) bool {
	d := b.active()
	if d == nil {
		return false
	}
	return d.Manipulate(m)
}

// Touch feeds touch points to the dragged shape
func (b *Board) Touch(touches []geom.Vec2) bool {
	d := b.active()
	if d == nil {
		return false
	}
	return d.Touch(touches)
}

// EndDrag drops the shape currently being dragged
func (b *Board) EndDrag(pointer geom.Vec2, hint string) (DropOutcome, bool) {
	d := b.active()
	if d == nil {
		return DropOutcome{}, false
	}
	return d.EndDrag(pointer, hint), true
}

// Preview is the ghost hint shown while a shape is carried
type Preview struct {
	ShapeID   string    `json:"shape_id"`
	SlotID    string    `json:"slot_id"`
	Position  geom.Vec2 `json:"position"`
	Rotation  float64   `json:"rotation"`
	Scale     geom.Vec2 `json:"scale"`
	Forbidden bool      `json:"forbidden"`
	Result    Result    `json:"result"`
}

// Preview returns the world-space ghost of the first free slot matching the
// dragged shape, and how the drop would be judged right now.
func (b *Board) Preview() (Preview, bool) {
	d := b.active()
	if d == nil {
		return Preview{}, false
	}
	slot := b.matcher.FindMatchingSlot(d.shape, b.slots)
	if slot == nil {
		return Preview{}, false
	}
	return Preview{
		ShapeID:   d.shape.ID,
		SlotID:    slot.ID,
		Position:  slot.WorldPosition(),
		Rotation:  slot.WorldRotation(),
		Scale:     slot.WorldScale(),
		Forbidden: d.forbidden,
		Result:    b.matcher.Evaluate(d.shape, slot),
	}, true
}

// DraggedBounds returns the play-area bounds of the shape being dragged
func (b *Board) DraggedBounds() (geom.Rect, bool) {
	d := b.active()
	if d == nil {
		return geom.Rect{}, false
	}
	return b.ShapeBounds(d.shape), true
}

// ShapeBounds returns a shape's axis-aligned bounds in the play frame
func (b *Board) ShapeBounds(s *Shape) geom.Rect {
	return geom.BoundsIn(b.playFrame, shapeFrame(s), geom.Centered(geom.Vec2{}, s.Size))
}

func (b *Board) active() *Draggable {
	cur := b.session.Current()
	if cur == nil || cur.State != Dragging {
		return nil
	}
	return b.draggables[cur.ID]
}

func (b *Board) raise() int {
	b.order++
	return b.order
}

// constrain clamps a layer-local position to the play area and reports
// whether it lies in a forbidden zone.
func (b *Board) constrain(layer *geom.Frame, p geom.Vec2) (geom.Vec2, bool) {
	pl := geom.Convert(layer, b.playFrame, p)
	if !b.playArea.Empty() {
		pl = b.playArea.Clamp(pl)
	}
	forbidden := geom.ContainsAny(b.zoneRects, pl)
	return geom.Convert(b.playFrame, layer, pl), forbidden
}

// pushOut moves a layer-local position out of every zone that contains it,
// through the nearest edge plus padding that stays inside the play area.
func (b *Board) pushOut(layer *geom.Frame, p geom.Vec2) (geom.Vec2, bool) {
	pl := geom.Convert(layer, b.playFrame, p)
	moved := false
	for _, r := range b.zoneRects {
		if r.Contains(pl) {
			pl = r.Exit(pl, b.settings.ForbiddenEdgePadding, b.playArea)
			moved = true
		}
	}
	if !moved {
		return p, false
	}
	return geom.Convert(b.playFrame, layer, pl), true
}

func (b *Board) resolveSlot(hint string, pointer geom.Vec2) *Slot {
	if hint == "" {
		return b.SlotAt(pointer)
	}
	id, _, _ := strings.Cut(hint, "/")
	s, ok := b.slotByID[id]
	if !ok {
		b.log.Debug("drop hint names no slot", zap.String("hint", hint))
		return nil
	}
	return s
}

func (b *Board) loadTransform(s *Shape) {
	if !b.settings.SaveTransformState || b.store == nil {
		return
	}
	if p, ok := b.store.LoadTransform(b.settings.SaveKeyPrefix + s.Name); ok {
		s.Pose = p
	}
}

func (b *Board) saveTransform(s *Shape) {
	if !b.settings.SaveTransformState || b.store == nil {
		return
	}
	if err := b.store.SaveTransform(b.settings.SaveKeyPrefix+s.Name, s.Pose); err != nil {
		b.log.Warn("save transform failed", zap.String("shape", s.ID), zap.Error(err))
	}
}

func shapeFrame(s *Shape) *geom.Frame {
	return &geom.Frame{Parent: s.layer, Position: s.Pose.Position, Rotation: s.Pose.Rotation, Scale: s.Pose.Scale}
}

func shapeContains(s *Shape, world geom.Vec2) bool {
	f := shapeFrame(s)
	f.Scale = s.Pose.Scale.Abs()
	return geom.Centered(geom.Vec2{}, s.Size).Contains(f.ToLocal(world))
}
