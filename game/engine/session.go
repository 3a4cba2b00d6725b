package engine

import "sync"

// DragSession records the single shape currently being dragged on a board.
// Hazards and preview logic hold a reference to it instead of reaching for
// global state.
type DragSession struct {
	mu      sync.RWMutex
	current *Shape
}

// NewDragSession creates an empty drag session
func NewDragSession() *DragSession {
	return &DragSession{}
}

// Begin claims the session for s. It fails while another shape is still
// dragging; a stale reference to a shape that stopped dragging is replaced.
func (d *DragSession) Begin(s *Shape) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil && d.current != s && d.current.State == Dragging {
		return false
	}
	d.current = s
	return true
}

// End releases the session if s holds it
func (d *DragSession) End(s *Shape) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == s {
		d.current = nil
	}
}

// Clear drops any reference
func (d *DragSession) Clear() {
	d.mu.Lock()
	d.current = nil
	d.mu.Unlock()
}

// Current returns the shape being dragged, or nil
func (d *DragSession) Current() *Shape {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// IsDragging reports whether any drag is active
func (d *DragSession) IsDragging() bool {
	return d.Current() != nil
}
