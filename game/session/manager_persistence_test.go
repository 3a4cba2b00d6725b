package session

import (
	"errors"
	"testing"
)

func newPersistentManager(t *testing.T) (*Manager, *FilePersistence) {
	t.Helper()
	fp, _ := newPersistence(t)
	return NewManager(Options{Persistence: fp}), fp
}

func TestManagerPersistence_CreateSaves(t *testing.T) {
	manager, fp := newPersistentManager(t)

	if _, err := manager.Create("persisted", "test", createTestConfig()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !fp.Exists("persisted") {
		t.Error("Expected session to be persisted on create")
	}
}

func TestManagerPersistence_GetLoadsFromDisk(t *testing.T) {
	manager, fp := newPersistentManager(t)
	session, _ := manager.Create("disk", "test", createTestConfig())
	matchFirst(t, session.Round)
	if err := manager.Save("disk"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	fresh := NewManager(Options{Persistence: fp})
	loaded, err := fresh.Get("disk")
	if err != nil {
		t.Fatalf("Get from persistence failed: %v", err)
	}
	if loaded.Round.State().Matched != 1 {
		t.Errorf("Expected restored match, got %d", loaded.Round.State().Matched)
	}
	if fresh.Count() != 1 {
		t.Errorf("Expected loaded session cached in memory, got %d", fresh.Count())
	}
}

func TestManagerPersistence_Delete(t *testing.T) {
	manager, fp := newPersistentManager(t)
	manager.Create("gone", "test", createTestConfig())

	if err := manager.DeleteFromMemory("gone"); err != nil {
		t.Fatalf("DeleteFromMemory failed: %v", err)
	}
	if !fp.Exists("gone") {
		t.Fatal("Expected persisted copy to survive DeleteFromMemory")
	}

	if err := manager.Delete("gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if fp.Exists("gone") {
		t.Error("Expected persisted copy to be removed")
	}
	if _, err := manager.Get("gone"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerPersistence_LoadAndSaveAll(t *testing.T) {
	manager, fp := newPersistentManager(t)
	config := createTestConfig()
	for _, id := range []string{"s1", "s2", "s3"} {
		manager.Create(id, "test", config)
	}
	if err := manager.SaveAllSessions(); err != nil {
		t.Fatalf("SaveAllSessions failed: %v", err)
	}

	restarted := NewManager(Options{Persistence: fp})
	if err := restarted.LoadPersistedSessions(); err != nil {
		t.Fatalf("LoadPersistedSessions failed: %v", err)
	}
	if restarted.Count() != 3 {
		t.Errorf("Expected 3 loaded sessions, got %d", restarted.Count())
	}

	// already-loaded sessions are kept as they are
	if err := restarted.LoadPersistedSessions(); err != nil {
		t.Fatalf("second LoadPersistedSessions failed: %v", err)
	}
	if restarted.Count() != 3 {
		t.Errorf("Expected 3 sessions after reload, got %d", restarted.Count())
	}
}

func TestManagerPersistence_CleanupKeepsDisk(t *testing.T) {
	manager, fp := newPersistentManager(t)
	manager.Create("idle", "test", createTestConfig())

	if removed := manager.CleanupExpiredSessions(0); removed != 1 {
		t.Fatalf("Expected 1 removed, got %d", removed)
	}
	if !fp.Exists("idle") {
		t.Error("Expected persisted copy to survive cleanup")
	}
	if _, err := manager.Get("idle"); err != nil {
		t.Errorf("Expected session to reload from disk, got %v", err)
	}
}
