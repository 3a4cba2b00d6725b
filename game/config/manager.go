package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = engine.ErrInvalidConfig
)

// DefaultLevelID is preferred as the default when present
const DefaultLevelID = "classic"

// Extensions are probed in this order when a level is looked up by name
var Extensions = []string{".json", ".yaml", ".yml"}

// Manager handles level loading and caching
type Manager struct {
	configDir string
	log       *zap.Logger

	mu        sync.RWMutex
	configs   map[string]*engine.LevelConfig
	defaultID string
	def       *engine.LevelConfig
}

// NewManager creates a new level manager rooted at configDir
func NewManager(configDir string, log *zap.Logger) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}
	if log == nil {
		log = zap.NewNop()
	}

	m := &Manager{
		configDir: configDir,
		log:       log,
		configs:   make(map[string]*engine.LevelConfig),
	}
	m.loadDefaultConfig()
	return m, nil
}

// LoadConfig loads a level by name, with or without its extension
func (m *Manager) LoadConfig(name string) (*engine.LevelConfig, error) {
	id := levelID(name)

	m.mu.RLock()
	if cfg, ok := m.configs[id]; ok {
		m.mu.RUnlock()
		return cfg, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

// load reads, defaults and validates a level. Caller holds the write lock.
func (m *Manager) load(id string) (*engine.LevelConfig, error) {
	if cfg, ok := m.configs[id]; ok {
		return cfg, nil
	}
	if !validName(id) {
		return nil, ErrConfigNotFound
	}

	path, err := m.find(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	m.configs[id] = cfg
	m.log.Debug("level loaded", zap.String("level", id), zap.String("file", path))
	return cfg, nil
}

func (m *Manager) find(id string) (string, error) {
	for _, ext := range Extensions {
		p := filepath.Join(m.configDir, id+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrConfigNotFound
}

// Decode parses a level from JSON or YAML, fills defaults and validates it.
// Unknown fields are rejected.
func Decode(r io.Reader, ext string) (*engine.LevelConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var cfg engine.LevelConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	case ".json", "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	default:
		return nil, fmt.Errorf("unsupported level format %q", ext)
	}

	engine.ApplyDefaults(&cfg)
	if err := engine.ValidateLevelConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListConfigs returns information about every loadable level. Broken files
// are logged and skipped.
func (m *Manager) ListConfigs() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	seen := make(map[string]bool)
	var levels []*service.LevelInfo
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(Extensions, filepath.Ext(entry.Name())) {
			continue
		}
		id := levelID(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		cfg, err := m.LoadConfig(id)
		if err != nil {
			m.log.Warn("skipping level", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		levels = append(levels, Info(entry.Name(), id, cfg))
	}
	return levels, nil
}

// Info summarizes a level for listings
func Info(filename, id string, cfg *engine.LevelConfig) *service.LevelInfo {
	return &service.LevelInfo{
		Filename:    filename,
		LevelID:     id,
		Name:        cfg.Name,
		Description: cfg.Description,
		Pairs:       cfg.PairCount(),
		Width:       cfg.PlayArea.Width,
		Height:      cfg.PlayArea.Height,
		Hazards:     cfg.Hazards != nil,
	}
}

// GetDefault returns the default level and its id
func (m *Manager) GetDefault() (string, *engine.LevelConfig) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID, m.def
}

// SetDefault sets the default level by name
func (m *Manager) SetDefault(name string) error {
	cfg, err := m.LoadConfig(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID, m.def = levelID(name), cfg
	return nil
}

// RefreshCache drops cached levels and picks the default again
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.LevelConfig)
	m.mu.Unlock()

	m.loadDefaultConfig()
}

// loadDefaultConfig prefers classic, then the first loadable level, then
// the built-in level. Must be called without the lock held.
func (m *Manager) loadDefaultConfig() {
	id, cfg := DefaultLevelID, (*engine.LevelConfig)(nil)
	if c, err := m.LoadConfig(DefaultLevelID); err == nil {
		cfg = c
	} else if levels, err := m.ListConfigs(); err == nil && len(levels) > 0 {
		id = levels[0].LevelID
		cfg, _ = m.LoadConfig(id)
	}
	if cfg == nil {
		id, cfg = "builtin", engine.DefaultLevel()
		m.log.Info("no level files found, using built-in level", zap.String("dir", m.configDir))
	}

	m.mu.Lock()
	m.defaultID, m.def = id, cfg
	m.mu.Unlock()
}

// SaveConfig validates a level and writes it as JSON
func (m *Manager) SaveConfig(name string, cfg *engine.LevelConfig) error {
	id := levelID(name)
	if !validName(id) {
		return fmt.Errorf("%w: level name %q must be a plain file name", ErrInvalidConfig, name)
	}
	engine.ApplyDefaults(cfg)
	if err := engine.ValidateLevelConfig(cfg); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// one file per level id
	for _, ext := range Extensions[1:] {
		if _, err := os.Stat(filepath.Join(m.configDir, id+ext)); err == nil {
			return fmt.Errorf("%w: level %q already exists as %s", ErrInvalidConfig, id, id+ext)
		}
	}
	if err := os.WriteFile(filepath.Join(m.configDir, id+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	m.configs[id] = cfg
	m.log.Info("level saved", zap.String("level", id))
	return nil
}

func levelID(name string) string {
	for _, ext := range Extensions {
		if s, ok := strings.CutSuffix(name, ext); ok {
			return s
		}
	}
	return name
}

func validName(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

var _ service.ConfigManager = (*Manager)(nil)
