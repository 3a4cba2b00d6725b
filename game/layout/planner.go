package layout

import (
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/geom"
)

// Attempt budgets for the relaxed and fallback tiers
const (
	DefaultMaxAttempts = 200
	RelaxedAttempts    = 60
	FallbackAttempts   = 200
	// SweepCells is the grid resolution per axis of the last-resort scan
	SweepCells = 32
)

// Tier records how much the spacing rule had to be relaxed for an item
type Tier int

const (
	TierStrict Tier = iota
	TierRelaxed
	TierFallback
	TierUnplaced
)

var tierNames = [...]string{"strict", "relaxed", "fallback", "unplaced"}

func (t Tier) String() string {
	if t >= 0 && int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Tier) UnmarshalText(b []byte) error {
	for i, n := range tierNames {
		if n == string(b) {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", b)
}

// Item is the footprint of something to place
type Item struct {
	Size  geom.Vec2 `json:"size"`
	Scale geom.Vec2 `json:"scale"`
}

// Radius estimates the item's extent: half its larger scaled side plus inflate
func (it Item) Radius(inflate float64) float64 {
	sc := it.Scale
	if sc == (geom.Vec2{}) {
		sc = geom.One
	}
	return 0.5*math.Max(it.Size.X*math.Abs(sc.X), it.Size.Y*math.Abs(sc.Y)) + inflate
}

// Options tune a Plan call
type Options struct {
	Padding            geom.Vec2 `json:"padding"`
	MinSpacing         float64   `json:"min_spacing"`
	Inflate            float64   `json:"inflate"`
	MaxAttemptsPerItem int       `json:"max_attempts_per_item"`
}

// DefaultOptions returns the stock spawn options
func DefaultOptions() Options {
	return Options{
		Padding:            geom.V(60, 60),
		MinSpacing:         120,
		Inflate:            20,
		MaxAttemptsPerItem: DefaultMaxAttempts,
	}
}

// Placement is the planned position of one item
type Placement struct {
	Position geom.Vec2 `json:"position"`
	Radius   float64   `json:"radius"`
	Tier     Tier      `json:"tier"`
}

// Placed reports whether the item got a position
func (p Placement) Placed() bool { return p.Tier != TierUnplaced }

// Planner places items using its own random source
type Planner struct {
	rng *rand.Rand
	log *zap.Logger
}

// NewPlanner returns a planner seeded with seed
func NewPlanner(seed uint64, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log: log,
	}
}

// Rand exposes the planner's random source for callers that need to stay on
// the same deterministic stream.
func (p *Planner) Rand() *rand.Rand { return p.rng }

// Plan returns one placement per item, in item order. area and forbidden are
// in the same frame.
func (p *Planner) Plan(area geom.Rect, forbidden []geom.Rect, items []Item, opts Options) []Placement {
	out := make([]Placement, len(items))
	if len(items) == 0 {
		return out
	}
	if area.Empty() {
		p.log.Warn("layout skipped, play area is empty", zap.Int("items", len(items)))
		for i, it := range items {
			out[i] = Placement{Radius: it.Radius(opts.Inflate), Tier: TierUnplaced}
		}
		return out
	}

	inner := area.Inset(opts.Padding)
	if inner.Width() <= 0 || inner.Height() <= 0 {
		p.log.Warn("spawn padding leaves no room, sampling along the center line",
			zap.Float64("width", area.Width()), zap.Float64("height", area.Height()))
	}

	attempts := opts.MaxAttemptsPerItem
	if attempts < 1 {
		attempts = 1
	}

	var placed []Placement
	for i, it := range items {
		r := it.Radius(opts.Inflate)
		pl := Placement{Radius: r, Tier: TierUnplaced}

		switch {
		case p.try(inner, forbidden, placed, r, opts.MinSpacing, attempts, &pl):
			pl.Tier = TierStrict
		case p.try(inner, forbidden, placed, r, 0.5*opts.MinSpacing, RelaxedAttempts, &pl):
			pl.Tier = TierRelaxed
		case p.try(inner, forbidden, nil, r, 0, FallbackAttempts, &pl):
			pl.Tier = TierFallback
		case sweep(area, inner, forbidden, placed, &pl):
			pl.Tier = TierFallback
		default:
			p.log.Warn("item left unplaced", zap.Int("index", i), zap.Float64("radius", r))
		}

		out[i] = pl
		if pl.Placed() {
			placed = append(placed, pl)
		}
	}
	return out
}

// try samples up to n points and stores the first acceptable one in pl.
// With placed == nil only the forbidden rects are checked.
func (p *Planner) try(inner geom.Rect, forbidden []geom.Rect, placed []Placement, r, spacing float64, n int, pl *Placement) bool {
	for a := 0; a < n; a++ {
		c := p.sample(inner)
		if geom.ContainsAny(forbidden, c) {
			continue
		}
		if tooClose(c, r, spacing, placed) {
			continue
		}
		pl.Position = c
		return true
	}
	return false
}

// sweep scans a grid of cell centres over inner, then over the whole area,
// and stores the free centre with the most clearance from placed items.
func sweep(area, inner geom.Rect, forbidden []geom.Rect, placed []Placement, pl *Placement) bool {
	for _, r := range []geom.Rect{inner, area} {
		if c, ok := freeCell(r, forbidden, placed); ok {
			pl.Position = c
			return true
		}
	}
	return false
}

func freeCell(r geom.Rect, forbidden []geom.Rect, placed []Placement) (geom.Vec2, bool) {
	step := geom.V(r.Width()/SweepCells, r.Height()/SweepCells)
	var (
		best  geom.Vec2
		gap   float64
		found bool
	)
	for i := 0; i < SweepCells; i++ {
		for j := 0; j < SweepCells; j++ {
			c := geom.V(r.Min.X+(float64(i)+0.5)*step.X, r.Min.Y+(float64(j)+0.5)*step.Y)
			if geom.ContainsAny(forbidden, c) {
				continue
			}
			g := math.Inf(1)
			for _, q := range placed {
				g = math.Min(g, c.Dist(q.Position)-q.Radius)
			}
			if !found || g > gap {
				best, gap, found = c, g, true
			}
		}
	}
	return best, found
}

func (p *Planner) sample(r geom.Rect) geom.Vec2 {
	return geom.V(
		r.Min.X+p.rng.Float64()*r.Width(),
		r.Min.Y+p.rng.Float64()*r.Height(),
	)
}

func tooClose(c geom.Vec2, r, spacing float64, placed []Placement) bool {
	for _, q := range placed {
		if c.Dist(q.Position) < spacing+r+q.Radius {
			return true
		}
	}
	return false
}
