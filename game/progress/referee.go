package progress

import "sync"

// Outcome is the state of a round
type Outcome string

const (
	Playing Outcome = "playing"
	Won     Outcome = "won"
	Lost    Outcome = "lost"
)

// Messages are the end-of-round texts
type Messages struct {
	Victory     string `json:"victory"`
	VictoryHint string `json:"victory_hint"`
	Defeat      string `json:"defeat"`
	DefeatHint  string `json:"defeat_hint"`
}

// DefaultMessages returns the stock texts
func DefaultMessages() Messages {
	return Messages{
		Victory:     "All cars placed!",
		VictoryHint: "Great work, driver.",
		Defeat:      "Too many mistakes!",
		DefeatHint:  "Tip: avoid dragging cars across bombs.",
	}
}

// Verdict is the outcome plus the texts to show for it
type Verdict struct {
	Outcome Outcome `json:"outcome"`
	Title   string  `json:"title,omitempty"`
	Hint    string  `json:"hint,omitempty"`
}

// Referee decides the round. The first terminal outcome sticks.
type Referee struct {
	mu      sync.Mutex
	outcome Outcome
	msgs    Messages
	watched []Handle

	onEnd listeners[func(Verdict)]
}

// NewReferee creates a referee; empty messages fall back to the defaults
func NewReferee(msgs Messages) *Referee {
	def := DefaultMessages()
	if msgs.Victory == "" {
		msgs.Victory = def.Victory
	}
	if msgs.VictoryHint == "" {
		msgs.VictoryHint = def.VictoryHint
	}
	if msgs.Defeat == "" {
		msgs.Defeat = def.Defeat
	}
	if msgs.DefeatHint == "" {
		msgs.DefeatHint = def.DefeatHint
	}
	return &Referee{outcome: Playing, msgs: msgs}
}

// Watch wins the round when p completes and loses it when pen maxes out
func (r *Referee) Watch(p *Progress, pen *Penalties) {
	hs := []Handle{
		p.OnAllMatched(func() { r.Win() }),
		pen.OnMaxPenalties(func() { r.Lose() }),
	}
	r.mu.Lock()
	r.watched = append(r.watched, hs...)
	r.mu.Unlock()
}

// Close stops watching
func (r *Referee) Close() {
	r.mu.Lock()
	hs := r.watched
	r.watched = nil
	r.mu.Unlock()

	for _, h := range hs {
		h.Cancel()
	}
}

// Win ends the round as won unless it already ended
func (r *Referee) Win() bool { return r.finish(Won) }

// Lose ends the round as lost unless it already ended
func (r *Referee) Lose() bool { return r.finish(Lost) }

func (r *Referee) finish(o Outcome) bool {
	r.mu.Lock()
	if r.outcome != Playing {
		r.mu.Unlock()
		return false
	}
	r.outcome = o
	v := r.verdictLocked()
	r.mu.Unlock()

	for _, fn := range r.onEnd.snapshot() {
		fn(v)
	}
	return true
}

// Reset puts the round back into play
func (r *Referee) Reset() {
	r.mu.Lock()
	r.outcome = Playing
	r.mu.Unlock()
}

// Restore forces an outcome without notifying listeners
func (r *Referee) Restore(o Outcome) {
	r.mu.Lock()
	r.outcome = o
	r.mu.Unlock()
}

func (r *Referee) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// Over reports whether the round has ended
func (r *Referee) Over() bool { return r.Outcome() != Playing }

// Verdict returns the current outcome with its texts
func (r *Referee) Verdict() Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.verdictLocked()
}

func (r *Referee) verdictLocked() Verdict {
	switch r.outcome {
	case Won:
		return Verdict{Outcome: Won, Title: r.msgs.Victory, Hint: r.msgs.VictoryHint}
	case Lost:
		return Verdict{Outcome: Lost, Title: r.msgs.Defeat, Hint: r.msgs.DefeatHint}
	}
	return Verdict{Outcome: Playing}
}

// OnEnd registers fn to run when the round is decided
func (r *Referee) OnEnd(fn func(Verdict)) Handle {
	return r.onEnd.add(fn)
}
