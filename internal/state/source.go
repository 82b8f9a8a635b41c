// internal/state/source.go
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Source is one corpus ingest source: a government scheme page fetched on
// demand or on a cron schedule.
type Source struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category,omitempty"`
	Schedule string `json:"schedule,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// SourceStore is a JSON-file-backed registry of ingest sources.
type SourceStore struct {
	path string
	mu   sync.RWMutex
}

// NewSourceStore creates a new file-backed SourceStore at the given file path.
func NewSourceStore(path string) *SourceStore {
	return &SourceStore{path: path}
}

// Path returns the file path used by this store.
func (s *SourceStore) Path() string {
	return s.path
}

// List returns all sources. Returns an empty slice if the file doesn't exist.
func (s *SourceStore) List() ([]*Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources, err := s.load()
	if err != nil {
		return nil, err
	}
	if sources == nil {
		return []*Source{}, nil
	}
	return sources, nil
}

// Get finds a source by name. Returns an error if not found.
func (s *SourceStore) Get(name string) (*Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, src := range sources {
		if src.Name == name {
			return src, nil
		}
	}
	return nil, fmt.Errorf("source not found: %s", name)
}

// Add appends a source. Returns an error if a source with the same name already exists.
func (s *SourceStore) Add(src *Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources, err := s.load()
	if err != nil {
		return err
	}

	for _, existing := range sources {
		if existing.Name == src.Name {
			return fmt.Errorf("source already exists: %s", src.Name)
		}
	}

	sources = append(sources, src)
	return s.save(sources)
}

// Remove deletes a source by name. Returns an error if not found.
func (s *SourceStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources, err := s.load()
	if err != nil {
		return err
	}

	for i, src := range sources {
		if src.Name == name {
			sources = append(sources[:i], sources[i+1:]...)
			return s.save(sources)
		}
	}
	return fmt.Errorf("source not found: %s", name)
}

// SetEnabled toggles the enabled flag for a source. Returns an error if not found.
func (s *SourceStore) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources, err := s.load()
	if err != nil {
		return err
	}

	for _, src := range sources {
		if src.Name == name {
			src.Enabled = enabled
			return s.save(sources)
		}
	}
	return fmt.Errorf("source not found: %s", name)
}

// load reads the JSON file and returns the source list. Returns nil if the file doesn't exist.
func (s *SourceStore) load() ([]*Source, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var sources []*Source
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}
	return sources, nil
}

// save writes the source list to disk using atomic write (temp file + rename).
func (s *SourceStore) save(sources []*Source) error {
	data, err := json.MarshalIndent(sources, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sources dir: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp sources file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp sources file: %w", err)
	}
	return nil
}
