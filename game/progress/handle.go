package progress

import (
	"sync"

	"github.com/google/uuid"
)

// Handle identifies a registered listener
type Handle struct {
	ID     uuid.UUID
	cancel func()
}

// Cancel removes the listener. It is safe to call more than once.
func (h Handle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}

// listeners keeps callbacks in registration order
type listeners[F any] struct {
	mu    sync.Mutex
	order []uuid.UUID
	fns   map[uuid.UUID]F
}

func (l *listeners[F]) add(fn F) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[uuid.UUID]F)
	}
	id := uuid.New()
	l.fns[id] = fn
	l.order = append(l.order, id)

	return Handle{ID: id, cancel: func() { l.remove(id) }}
}

func (l *listeners[F]) remove(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.fns[id]; !ok {
		return
	}
	delete(l.fns, id)
	for i, o := range l.order {
		if o == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *listeners[F]) snapshot() []F {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]F, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.fns[id])
	}
	return out
}
