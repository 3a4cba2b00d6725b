package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Prefs is a flat float key/value store
type Prefs interface {
	Get(key string) (float64, bool)
	Set(key string, v float64)
	Delete(key string)
	Keys() []string
	// Save flushes pending writes. In-memory stores return nil.
	Save() error
}

// MemoryPrefs keeps values in memory only
type MemoryPrefs struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewMemoryPrefs creates an empty in-memory store
func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{values: make(map[string]float64)}
}

func (m *MemoryPrefs) Get(key string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryPrefs) Set(key string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = v
}

func (m *MemoryPrefs) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// Keys returns the stored keys in sorted order
func (m *MemoryPrefs) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.values))
}

func (m *MemoryPrefs) Save() error { return nil }

// FilePrefs is a MemoryPrefs backed by a JSON file
type FilePrefs struct {
	MemoryPrefs
	path  string
	saveM sync.Mutex
}

// OpenFilePrefs loads path if it exists. A missing file gives an empty store.
func OpenFilePrefs(path string) (*FilePrefs, error) {
	fp := &FilePrefs{MemoryPrefs: MemoryPrefs{values: make(map[string]float64)}, path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prefs file: %w", err)
	}
	if len(data) == 0 {
		return fp, nil
	}
	if err := json.Unmarshal(data, &fp.values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prefs: %w", err)
	}
	if fp.values == nil {
		fp.values = make(map[string]float64)
	}
	return fp, nil
}

// Path returns the backing file
func (f *FilePrefs) Path() string { return f.path }

// Save writes every value to a temp file next to the target and renames it
// into place.
func (f *FilePrefs) Save() error {
	f.saveM.Lock()
	defer f.saveM.Unlock()

	f.mu.RLock()
	data, err := json.MarshalIndent(f.values, "", "  ")
	f.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create prefs directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp prefs file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp prefs file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace prefs file: %w", err)
	}
	return nil
}
