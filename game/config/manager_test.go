package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/wricardo/silhouette-match/game/engine"
)

const validJSON = `{
  "name": "Json Level",
  "play_area": {"position": {"x": 0, "y": 0}, "width": 800, "height": 600},
  "pairs": [
    {"tag": "sedan", "width": 120, "height": 60},
    {"tag": "taxi", "width": 120, "height": 60}
  ]
}`

const validYAML = `name: Yaml Level
play_area:
  width: 1000
  height: 700
pairs:
  - {tag: bus, width: 200, height: 70}
hazards:
  fuse: 4
`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func createValidConfig() *engine.LevelConfig {
	return &engine.LevelConfig{
		Name:     "Saved Level",
		PlayArea: engine.PlayAreaConfig{Width: 900, Height: 500},
		Pairs: []engine.PairConfig{
			{Tag: engine.TagVan, Width: 130, Height: 70},
		},
	}
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"), nil)
		if err == nil {
			t.Fatal("Expected error for missing directory")
		}
	})

	t.Run("empty directory falls back to builtin", func(t *testing.T) {
		m, err := NewManager(t.TempDir(), nil)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		id, cfg := m.GetDefault()
		if id != "builtin" || cfg == nil {
			t.Fatalf("Expected builtin default, got %q", id)
		}
	})

	t.Run("classic preferred", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "aaa.json", validJSON)
		writeFile(t, dir, "classic.yaml", validYAML)
		m, err := NewManager(dir, nil)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		id, cfg := m.GetDefault()
		if id != "classic" || cfg.Name != "Yaml Level" {
			t.Errorf("Expected classic default, got %q (%s)", id, cfg.Name)
		}
	})

	t.Run("first level when no classic", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "beta.json", validJSON)
		m, _ := NewManager(dir, nil)
		if id, _ := m.GetDefault(); id != "beta" {
			t.Errorf("Expected beta default, got %q", id)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "json_level.json", validJSON)
	writeFile(t, dir, "yaml_level.yml", validYAML)
	writeFile(t, dir, "bad_tag.json", strings.Replace(validJSON, `"taxi"`, `"tractor"`, 1))
	writeFile(t, dir, "unknown_field.yaml", validYAML+"gravity: 9.8\n")
	writeFile(t, dir, "invalid.json", `{"name": "", "pairs": []}`)

	m, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg, err := m.LoadConfig("json_level")
	if err != nil {
		t.Fatalf("LoadConfig json failed: %v", err)
	}
	if cfg.Pairs[1].Tag != engine.TagTaxi || cfg.Pairs[1].Name != "taxi" {
		t.Errorf("Unexpected pair: %+v", cfg.Pairs[1])
	}
	if cfg.Rules.MaxPenalties != engine.DefaultMaxPenalties {
		t.Errorf("Expected defaults applied, got max penalties %d", cfg.Rules.MaxPenalties)
	}

	cfg, err = m.LoadConfig("yaml_level.yml")
	if err != nil {
		t.Fatalf("LoadConfig yaml failed: %v", err)
	}
	if cfg.Hazards == nil || cfg.Hazards.Fuse != 4 || cfg.Hazards.MaxActive != engine.DefaultHazardMaxActive {
		t.Errorf("Unexpected hazards: %+v", cfg.Hazards)
	}

	again, _ := m.LoadConfig("yaml_level")
	if again != cfg {
		t.Error("Expected cached config on second load")
	}

	for _, name := range []string{"bad_tag", "unknown_field", "invalid"} {
		if _, err := m.LoadConfig(name); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}

	for _, name := range []string{"missing", "../json_level", ""} {
		if _, err := m.LoadConfig(name); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("%q: expected ErrConfigNotFound, got %v", name, err)
		}
	}
}

func TestListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "json_level.json", validJSON)
	writeFile(t, dir, "yaml_level.yaml", validYAML)
	writeFile(t, dir, "broken.json", `{`)
	writeFile(t, dir, "notes.txt", "ignored")

	m, _ := NewManager(dir, nil)
	levels, err := m.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("Expected 2 levels, got %d", len(levels))
	}

	byID := map[string]bool{}
	for _, l := range levels {
		byID[l.LevelID] = true
		if l.LevelID == "yaml_level" {
			if !l.Hazards || l.Pairs != 1 || l.Width != 1000 {
				t.Errorf("Unexpected info: %+v", l)
			}
		}
	}
	if !byID["json_level"] || !byID["yaml_level"] {
		t.Errorf("Missing levels: %v", byID)
	}
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir, nil)

	if err := m.SaveConfig("saved", createValidConfig()); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Fatalf("Expected saved.json: %v", err)
	}

	m.RefreshCache()
	cfg, err := m.LoadConfig("saved")
	if err != nil {
		t.Fatalf("LoadConfig after save failed: %v", err)
	}
	if cfg.Pairs[0].Tag != engine.TagVan {
		t.Errorf("Expected van pair, got %v", cfg.Pairs[0].Tag)
	}

	bad := createValidConfig()
	bad.Pairs = nil
	if err := m.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := m.SaveConfig("../escape", createValidConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for path name, got %v", err)
	}

	writeFile(t, dir, "taken.yaml", validYAML)
	if err := m.SaveConfig("taken", createValidConfig()); err == nil {
		t.Error("Expected error when a yaml level already uses the id")
	}
}

func TestRefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classic.json", validJSON)
	m, _ := NewManager(dir, nil)

	writeFile(t, dir, "classic.json", strings.Replace(validJSON, "Json Level", "Renamed", 1))
	if _, cfg := m.GetDefault(); cfg.Name != "Json Level" {
		t.Fatalf("Expected cached name, got %s", cfg.Name)
	}

	m.RefreshCache()
	if _, cfg := m.GetDefault(); cfg.Name != "Renamed" {
		t.Errorf("Expected refreshed name, got %s", cfg.Name)
	}
}

func TestShippedLevels(t *testing.T) {
	m, err := NewManager("../../configs", nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	levels, err := m.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(levels) < 2 {
		t.Fatalf("Expected shipped levels, got %d", len(levels))
	}
	for _, id := range []string{"classic", "bomb_alley"} {
		if _, err := m.LoadConfig(id); err != nil {
			t.Errorf("Shipped level %s failed to load: %v", id, err)
		}
	}
	if id, _ := m.GetDefault(); id != "classic" {
		t.Errorf("Expected classic default, got %q", id)
	}
}

func TestConcurrentLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classic.json", validJSON)
	m, _ := NewManager(dir, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.LoadConfig("classic"); err != nil {
				t.Errorf("LoadConfig failed: %v", err)
			}
			if i%5 == 0 {
				m.RefreshCache()
			}
		}()
	}
	wg.Wait()
}
