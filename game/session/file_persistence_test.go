package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/wricardo/silhouette-match/game/play"
	"github.com/wricardo/silhouette-match/game/service"
)

func newTestSession(t *testing.T, id string) *service.Session {
	t.Helper()
	round, err := play.New(createTestConfig(), play.Options{Seed: 99})
	if err != nil {
		t.Fatalf("Failed to create round: %v", err)
	}
	now := time.Now().Truncate(time.Second)
	return &service.Session{
		ID:             id,
		LevelID:        "test",
		Round:          round,
		Config:         createTestConfig(),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

func newPersistence(t *testing.T) (*FilePersistence, string) {
	t.Helper()
	dir := t.TempDir()
	fp, err := NewFilePersistence(dir, stubConfigs{}, play.Options{})
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}
	return fp, dir
}

func TestFilePersistence_SaveLoad(t *testing.T) {
	fp, dir := newPersistence(t)
	session := newTestSession(t, "save-load")
	matchFirst(t, session.Round)

	if err := fp.Save(session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "save-load.json"))
	if err != nil {
		t.Fatalf("Expected session file: %v", err)
	}
	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("Session file is not valid JSON: %v", err)
	}
	if data.LevelID != "test" || data.State.Seed != 99 {
		t.Errorf("Unexpected persisted data: level=%s seed=%d", data.LevelID, data.State.Seed)
	}

	loaded, err := fp.Load("save-load")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want, got := session.Round.State(), loaded.Round.State()
	if got.Matched != 1 || got.Seed != want.Seed {
		t.Errorf("Expected 1 match with seed %d, got %d matches seed %d", want.Seed, got.Matched, got.Seed)
	}
	for i := range want.Shapes {
		if got.Shapes[i].Pose != want.Shapes[i].Pose || got.Shapes[i].State != want.Shapes[i].State {
			t.Errorf("Shape %d differs after load: %+v vs %+v", i, got.Shapes[i], want.Shapes[i])
		}
	}
	if !loaded.CreatedAt.Equal(session.CreatedAt) {
		t.Errorf("CreatedAt differs: %v vs %v", loaded.CreatedAt, session.CreatedAt)
	}
}

func TestFilePersistence_Errors(t *testing.T) {
	fp, dir := newPersistence(t)

	if err := fp.Save(nil); err == nil {
		t.Error("Expected error saving nil session")
	}
	if _, err := fp.Load("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := fp.Delete("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0644)
	if _, err := fp.Load("corrupt"); err == nil {
		t.Error("Expected error loading corrupt file")
	}

	session := newTestSession(t, "unknown-level")
	session.LevelID = "gone"
	fp.Save(session)
	if _, err := fp.Load("unknown-level"); !errors.Is(err, service.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestFilePersistence_ListExistsDelete(t *testing.T) {
	fp, dir := newPersistence(t)
	for _, id := range []string{"one", "two"} {
		if err := fp.Save(newTestSession(t, id)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(dir, "nested.json"), 0755)

	ids, err := fp.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"one", "two"}) {
		t.Errorf("Unexpected ids: %v", ids)
	}

	if !fp.Exists("one") {
		t.Error("Expected one to exist")
	}
	if err := fp.Delete("one"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if fp.Exists("one") {
		t.Error("Expected one to be deleted")
	}
}
