package progress

import (
	"fmt"
	"sync"
)

// DefaultMaxPenalties is used when a non-positive max is given
const DefaultMaxPenalties = 3

// PenaltyEvent describes penalties just added
type PenaltyEvent struct {
	Added int    `json:"added"`
	Count int    `json:"count"`
	Max   int    `json:"max"`
	Cause string `json:"cause"`
}

// Penalties counts mistakes up to a maximum
type Penalties struct {
	mu       sync.Mutex
	count    int
	max      int
	maxFired bool

	onPenalty listeners[func(PenaltyEvent)]
	onMax     listeners[func()]
}

// NewPenalties creates a counter; limit <= 0 selects DefaultMaxPenalties
func NewPenalties(limit int) *Penalties {
	if limit <= 0 {
		limit = DefaultMaxPenalties
	}
	return &Penalties{max: limit}
}

// Add adds n penalties, capped at the max, and returns how many were added
func (p *Penalties) Add(n int, cause string) int {
	if n <= 0 {
		return 0
	}

	p.mu.Lock()
	added := min(n, p.max-p.count)
	if added <= 0 {
		p.mu.Unlock()
		return 0
	}
	p.count += added
	ev := PenaltyEvent{Added: added, Count: p.count, Max: p.max, Cause: cause}
	hitMax := p.count >= p.max && !p.maxFired
	if hitMax {
		p.maxFired = true
	}
	p.mu.Unlock()

	for _, fn := range p.onPenalty.snapshot() {
		fn(ev)
	}
	if hitMax {
		for _, fn := range p.onMax.snapshot() {
			fn()
		}
	}
	return added
}

// Reset zeroes the count. OnMaxPenalties may fire again.
func (p *Penalties) Reset() {
	p.mu.Lock()
	p.count = 0
	p.maxFired = false
	p.mu.Unlock()
}

func (p *Penalties) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func (p *Penalties) Max() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.max
}

// Text renders the HUD line, e.g. "Penalties: 1/3"
func (p *Penalties) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("Penalties: %d/%d", p.count, p.max)
}

// OnPenalty registers fn to run on every accepted Add
func (p *Penalties) OnPenalty(fn func(PenaltyEvent)) Handle {
	return p.onPenalty.add(fn)
}

// OnMaxPenalties registers fn to run once when the max is reached
func (p *Penalties) OnMaxPenalties(fn func()) Handle {
	return p.onMax.add(fn)
}
