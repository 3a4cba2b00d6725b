package progress

import (
	"fmt"
	"sync"

	"github.com/zyedidia/generic/mapset"
)

// Progress counts matched slots against a total
type Progress struct {
	mu      sync.Mutex
	total   int
	matched mapset.Set[string]
	done    bool

	onAll    listeners[func()]
	onChange listeners[func(matched, total int)]
}

// NewProgress creates a counter for total slots
func NewProgress(total int) *Progress {
	return &Progress{total: max(total, 0), matched: mapset.New[string]()}
}

// Reset clears all matches and sets a new total. OnAllMatched may fire again.
func (p *Progress) Reset(total int) {
	p.mu.Lock()
	p.total = max(total, 0)
	p.matched = mapset.New[string]()
	p.done = false
	p.mu.Unlock()

	p.changed()
}

// SetTotal changes the total without forgetting matches
func (p *Progress) SetTotal(total int) {
	p.mu.Lock()
	p.total = max(total, 0)
	p.mu.Unlock()

	p.changed()
	p.checkDone()
}

// Match records slotID as matched. Repeats and matches beyond the total are
// ignored; the return value reports whether the count went up.
func (p *Progress) Match(slotID string) bool {
	p.mu.Lock()
	if p.matched.Has(slotID) || p.matched.Size() >= p.total {
		p.mu.Unlock()
		return false
	}
	p.matched.Put(slotID)
	p.mu.Unlock()

	p.changed()
	p.checkDone()
	return true
}

// IsMatched reports whether slotID was counted
func (p *Progress) IsMatched(slotID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matched.Has(slotID)
}

func (p *Progress) Matched() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matched.Size()
}

func (p *Progress) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Remaining is total minus matched, never negative
func (p *Progress) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return max(p.total-p.matched.Size(), 0)
}

// Done reports whether every slot is matched. An empty round is never done.
func (p *Progress) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total > 0 && p.matched.Size() >= p.total
}

// Text renders the HUD line, e.g. "3/12 Cars Left"
func (p *Progress) Text() string {
	return fmt.Sprintf("%d/%d Cars Left", p.Remaining(), p.Total())
}

// OnAllMatched registers fn to run once when the last slot is matched
func (p *Progress) OnAllMatched(fn func()) Handle {
	return p.onAll.add(fn)
}

// OnChange registers fn to run whenever the count or total changes
func (p *Progress) OnChange(fn func(matched, total int)) Handle {
	return p.onChange.add(fn)
}

func (p *Progress) changed() {
	p.mu.Lock()
	m, t := p.matched.Size(), p.total
	p.mu.Unlock()

	for _, fn := range p.onChange.snapshot() {
		fn(m, t)
	}
}

func (p *Progress) checkDone() {
	p.mu.Lock()
	fire := !p.done && p.total > 0 && p.matched.Size() >= p.total
	if fire {
		p.done = true
	}
	p.mu.Unlock()

	if !fire {
		return
	}
	for _, fn := range p.onAll.snapshot() {
		fn()
	}
}
