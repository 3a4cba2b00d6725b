package persist

import (
	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
)

const (
	suffixPX = "_px"
	suffixPY = "_py"
	suffixRZ = "_rz"
	suffixSX = "_sx"
	suffixSY = "_sy"
)

// TransformStore keeps engine poses in a Prefs store
type TransformStore struct {
	prefs Prefs
}

var _ engine.TransformStore = (*TransformStore)(nil)

// NewTransformStore wraps p
func NewTransformStore(p Prefs) *TransformStore {
	return &TransformStore{prefs: p}
}

// LoadTransform returns the pose saved under key. Nothing is loaded unless
// the position X entry exists; missing scale entries default to 1.
func (s *TransformStore) LoadTransform(key string) (engine.Pose, bool) {
	px, ok := s.prefs.Get(key + suffixPX)
	if !ok {
		return engine.Pose{}, false
	}
	py, _ := s.prefs.Get(key + suffixPY)
	rz, _ := s.prefs.Get(key + suffixRZ)
	sx, ok := s.prefs.Get(key + suffixSX)
	if !ok {
		sx = 1
	}
	sy, ok := s.prefs.Get(key + suffixSY)
	if !ok {
		sy = 1
	}
	return engine.Pose{Position: geom.V(px, py), Rotation: rz, Scale: geom.V(sx, sy)}, true
}

// SaveTransform writes the pose and flushes the store
func (s *TransformStore) SaveTransform(key string, p engine.Pose) error {
	s.prefs.Set(key+suffixPX, p.Position.X)
	s.prefs.Set(key+suffixPY, p.Position.Y)
	s.prefs.Set(key+suffixRZ, p.Rotation)
	s.prefs.Set(key+suffixSX, p.Scale.X)
	s.prefs.Set(key+suffixSY, p.Scale.Y)
	return s.prefs.Save()
}

// Forget removes the pose saved under key
func (s *TransformStore) Forget(key string) error {
	for _, suf := range []string{suffixPX, suffixPY, suffixRZ, suffixSX, suffixSY} {
		s.prefs.Delete(key + suf)
	}
	return s.prefs.Save()
}
