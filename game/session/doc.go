// Package session keeps the rounds being played, one per session id.
//
// Manager stores sessions in memory under case-insensitive ids (generated
// ids are four hex characters) and, when given a SessionPersistence, writes
// them through to storage and falls back to it on lookup. FilePersistence
// stores one JSON file per session holding the level id and the round state;
// loading re-plans the layout from the saved seed and applies the state on
// top, so files stay small and survive engine restarts.
//
// Usage:
//
//	fp, _ := session.NewFilePersistence("data/sessions", levels, play.Options{})
//	m := session.NewManager(session.Options{Persistence: fp, Logger: log})
//	s, err := m.Create("", "classic", cfg)
//	s, err = m.Get(s.ID)
//
// Sessions not accessed for a while can be dropped from memory with
// CleanupExpiredSessions; their files are kept.
package session
