package progress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgress_MatchDedupesAndCaps(t *testing.T) {
	p := NewProgress(2)
	require.Equal(t, "2/2 Cars Left", p.Text())

	require.True(t, p.Match("a"))
	require.False(t, p.Match("a"))
	require.True(t, p.Match("b"))
	require.False(t, p.Match("c"), "count is capped at the total")

	require.Equal(t, 2, p.Matched())
	require.Zero(t, p.Remaining())
	require.True(t, p.Done())
	require.True(t, p.IsMatched("b"))
	require.False(t, p.IsMatched("c"))
	require.Equal(t, "0/2 Cars Left", p.Text())
}

func TestProgress_OnAllMatchedFiresOnce(t *testing.T) {
	p := NewProgress(2)
	fired := 0
	p.OnAllMatched(func() { fired++ })

	p.Match("a")
	require.Zero(t, fired)
	p.Match("b")
	p.Match("b")
	p.SetTotal(2)
	require.Equal(t, 1, fired)

	p.Reset(1)
	require.Equal(t, "1/1 Cars Left", p.Text())
	p.Match("z")
	require.Equal(t, 2, fired, "a reset round can complete again")
}

func TestProgress_EmptyRoundNeverCompletes(t *testing.T) {
	p := NewProgress(0)
	fired := false
	p.OnAllMatched(func() { fired = true })

	require.False(t, p.Match("a"))
	require.False(t, p.Done())
	require.False(t, fired)
}

func TestProgress_OnChangeAndCancel(t *testing.T) {
	p := NewProgress(3)
	var seen []int
	h := p.OnChange(func(matched, total int) {
		require.Equal(t, 3, total)
		seen = append(seen, matched)
	})

	p.Match("a")
	p.Match("b")
	h.Cancel()
	h.Cancel()
	p.Match("c")

	require.Equal(t, []int{1, 2}, seen)
}

func TestProgress_ListenerMayReenter(t *testing.T) {
	p := NewProgress(1)
	var remaining = -1
	p.OnAllMatched(func() { remaining = p.Remaining() })

	p.Match("only")
	require.Zero(t, remaining)
}

func TestPenalties_CapAndFireOnce(t *testing.T) {
	pen := NewPenalties(3)
	var events []PenaltyEvent
	maxed := 0
	pen.OnPenalty(func(ev PenaltyEvent) { events = append(events, ev) })
	pen.OnMaxPenalties(func() { maxed++ })

	require.Equal(t, 1, pen.Add(1, "drag_overlap"))
	require.Zero(t, pen.Add(0, "noop"))
	require.Equal(t, 2, pen.Add(5, "timeout"))
	require.Zero(t, pen.Add(1, "click"))

	require.Equal(t, 3, pen.Count())
	require.Equal(t, 1, maxed)
	require.Len(t, events, 2)
	require.Equal(t, PenaltyEvent{Added: 2, Count: 3, Max: 3, Cause: "timeout"}, events[1])
	require.Equal(t, "Penalties: 3/3", pen.Text())

	pen.Reset()
	require.Zero(t, pen.Count())
	pen.Add(3, "again")
	require.Equal(t, 2, maxed)
}

func TestPenalties_DefaultMax(t *testing.T) {
	require.Equal(t, DefaultMaxPenalties, NewPenalties(0).Max())
	require.Equal(t, DefaultMaxPenalties, NewPenalties(-4).Max())
	require.Equal(t, 1, NewPenalties(1).Max())
}

func TestReferee_FirstOutcomeWins(t *testing.T) {
	p := NewProgress(1)
	pen := NewPenalties(1)
	r := NewReferee(Messages{})
	r.Watch(p, pen)

	var verdicts []Verdict
	r.OnEnd(func(v Verdict) { verdicts = append(verdicts, v) })

	p.Match("s1")
	pen.Add(1, "late")

	require.Equal(t, Won, r.Outcome())
	require.True(t, r.Over())
	require.Len(t, verdicts, 1)
	require.Equal(t, Verdict{Outcome: Won, Title: "All cars placed!", Hint: "Great work, driver."}, verdicts[0])
}

func TestReferee_Lose(t *testing.T) {
	pen := NewPenalties(2)
	r := NewReferee(Messages{Defeat: "Boom"})
	r.Watch(NewProgress(5), pen)

	pen.Add(2, "drag_overlap")
	v := r.Verdict()
	require.Equal(t, Lost, v.Outcome)
	require.Equal(t, "Boom", v.Title)
	require.Equal(t, "Tip: avoid dragging cars across bombs.", v.Hint)
	require.False(t, r.Win())
}

func TestReferee_CloseAndReset(t *testing.T) {
	p := NewProgress(1)
	pen := NewPenalties(1)
	r := NewReferee(DefaultMessages())
	r.Watch(p, pen)
	r.Close()

	p.Match("s")
	require.Equal(t, Playing, r.Outcome())

	require.True(t, r.Lose())
	r.Reset()
	require.Equal(t, Verdict{Outcome: Playing}, r.Verdict())

	r.Restore(Won)
	require.Equal(t, Won, r.Outcome())
}
