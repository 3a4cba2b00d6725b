package hazard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wricardo/silhouette-match/game/geom"
)

type sinkFunc func(n int, cause string) int

func (f sinkFunc) Add(n int, cause string) int { return f(n, cause) }

type dragAt struct {
	rect geom.Rect
	ok   bool
}

func (d dragAt) DraggedBounds() (geom.Rect, bool) { return d.rect, d.ok }

type recorder struct {
	total  int
	causes []string
}

func (r *recorder) sink() PenaltySink {
	return sinkFunc(func(n int, cause string) int {
		r.total += n
		r.causes = append(r.causes, cause)
		return n
	})
}

func testArea() geom.Rect { return geom.Centered(geom.Vec2{}, geom.V(1000, 600)) }

func quietSettings() Settings {
	s := DefaultSettings()
	s.SpawnInterval = 0
	return s
}

func TestPolicy_Penalizes(t *testing.T) {
	p := DefaultPolicy()
	require.False(t, p.Penalizes(CauseClick))
	require.True(t, p.Penalizes(CauseDragOverlap))
	require.False(t, p.Penalizes(CauseTimeout))
	require.False(t, p.Penalizes(Cause("meteor")))
}

func TestBomb_WaveMotion(t *testing.T) {
	f := NewField(testArea(), quietSettings(), 1, nil, nil)
	b := f.SpawnAt(geom.V(0, 100), 10)
	require.NotNil(t, b)

	f.Tick(0.25, nil)
	got := f.Bombs()[0]
	require.InDelta(t, 2.5, got.Position.X, 1e-9)
	require.InDelta(t, 125, got.Position.Y, 1e-9)
	require.InDelta(t, math.Pi/2, got.Phase, 1e-9)
	require.InDelta(t, 7.75, got.FuseLeft(), 1e-9)
}

func TestField_TimeoutHasNoPenaltyByDefault(t *testing.T) {
	var rec recorder
	f := NewField(testArea(), quietSettings(), 1, rec.sink(), nil)
	f.SpawnAt(geom.V(0, 0), 0)

	require.Empty(t, f.Tick(7.9, nil))
	ex := f.Tick(0.2, nil)
	require.Len(t, ex, 1)
	require.Equal(t, CauseTimeout, ex[0].Cause)
	require.Zero(t, ex[0].Penalty)
	require.Zero(t, rec.total)
	require.Zero(t, f.Active())
}

func TestField_DragOverlapPenalizes(t *testing.T) {
	var rec recorder
	f := NewField(testArea(), quietSettings(), 1, rec.sink(), nil)
	f.SpawnAt(geom.V(100, 0), 0)

	require.Empty(t, f.Tick(0.1, dragAt{rect: geom.Centered(geom.V(-300, 0), geom.V(50, 50)), ok: true}))
	require.Empty(t, f.Tick(0.1, dragAt{rect: geom.Centered(geom.V(100, 0), geom.V(50, 50)), ok: false}))

	ex := f.Tick(0.1, dragAt{rect: geom.Centered(geom.V(120, 10), geom.V(50, 50)), ok: true})
	require.Len(t, ex, 1)
	require.Equal(t, CauseDragOverlap, ex[0].Cause)
	require.Equal(t, 1, ex[0].Penalty)
	require.True(t, ex[0].Inside)
	require.Equal(t, 1, rec.total)
	require.Equal(t, []string{"drag_overlap"}, rec.causes)
}

func TestField_ClickExplodesOnceWithoutPenalty(t *testing.T) {
	var rec recorder
	f := NewField(testArea(), quietSettings(), 1, rec.sink(), nil)
	b := f.SpawnAt(geom.V(0, 0), 0)

	ex, ok := f.Click(b.ID)
	require.True(t, ok)
	require.Equal(t, CauseClick, ex.Cause)
	require.Zero(t, ex.Penalty)

	_, ok = f.Click(b.ID)
	require.False(t, ok)
	require.Empty(t, f.Tick(10, dragAt{rect: testArea(), ok: true}))
	require.Zero(t, rec.total)
}

func TestField_ClickPolicy(t *testing.T) {
	s := quietSettings()
	s.Policy.PenaltyOnClick = true
	var rec recorder
	f := NewField(testArea(), s, 1, rec.sink(), nil)
	b := f.SpawnAt(geom.V(0, 0), 0)

	ex, ok := f.Click(b.ID)
	require.True(t, ok)
	require.Equal(t, 1, ex.Penalty)
	require.Equal(t, 1, rec.total)

	s.Policy.ExplodeOnClick = false
	f = NewField(testArea(), s, 1, nil, nil)
	b = f.SpawnAt(geom.V(0, 0), 0)
	_, ok = f.Click(b.ID)
	require.False(t, ok)
	require.Equal(t, 1, f.Active())
}

func TestField_SameTickExplodesOnce(t *testing.T) {
	s := quietSettings()
	s.Policy.PenaltyOnTimeout = true
	var rec recorder
	f := NewField(testArea(), s, 1, rec.sink(), nil)
	f.SpawnAt(geom.V(0, 0), 0)

	ex := f.Tick(20, dragAt{rect: geom.Centered(geom.V(0, 0), geom.V(400, 400)), ok: true})
	require.Len(t, ex, 1)
	require.Equal(t, CauseDragOverlap, ex[0].Cause)
	require.Equal(t, 1, rec.total)
}

func TestField_OutsidePlayAreaSkipsPenalty(t *testing.T) {
	var rec recorder
	f := NewField(testArea(), quietSettings(), 1, rec.sink(), nil)
	f.SpawnAt(geom.V(495, 0), 100)

	ex := f.Tick(1, dragAt{rect: geom.Centered(geom.V(595, 0), geom.V(100, 100)), ok: true})
	require.Len(t, ex, 1)
	require.False(t, ex[0].Inside)
	require.Zero(t, ex[0].Penalty)
	require.Zero(t, rec.total)
}

func TestField_SpawnSchedule(t *testing.T) {
	s := DefaultSettings()
	s.MaxActive = 2
	s.Fuse = 100
	f := NewField(testArea(), s, 9, nil, nil)

	f.Tick(4.9, nil)
	require.Zero(t, f.Active())
	f.Tick(0.2, nil)
	require.Equal(t, 1, f.Active())
	f.Tick(8, nil)
	require.Equal(t, 2, f.Active())
	f.Tick(8, nil)
	require.Equal(t, 2, f.Active(), "max active caps spawning")

	for _, b := range f.Bombs() {
		require.Equal(t, s.Size, b.Size)
		speed := math.Abs(b.Speed)
		require.GreaterOrEqual(t, speed, s.SpeedMin)
		require.LessOrEqual(t, speed, s.SpeedMax)
	}
}

func TestField_EmptyAreaNeverSpawns(t *testing.T) {
	f := NewField(geom.Rect{}, DefaultSettings(), 1, nil, nil)
	f.Tick(100, nil)
	require.Zero(t, f.Active())
	require.Nil(t, f.Spawn())
}

func TestField_SnapshotRestore(t *testing.T) {
	f := NewField(testArea(), quietSettings(), 1, nil, nil)
	b := f.SpawnAt(geom.V(10, 20), 30)
	f.Tick(1, nil)
	st := f.Snapshot()

	g := NewField(testArea(), quietSettings(), 2, nil, nil)
	g.Restore(st)
	require.Equal(t, f.Bombs(), g.Bombs())

	_, ok := g.Click(b.ID)
	require.True(t, ok)
	require.Equal(t, 1, f.Active(), "restored field does not share bombs")

	f.Reset()
	require.Zero(t, f.Active())
}
