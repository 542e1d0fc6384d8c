package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store provides persistence for configuration data.
type Store interface {
	// Load loads the configuration from disk
	Load() error

	// Save saves the configuration to disk
	Save() error

	// GetSection retrieves configuration data for a specific section
	GetSection(sectionID string) (map[string]interface{}, error)

	// SetSection stores configuration data for a specific section
	SetSection(sectionID string, data map[string]interface{}) error
}

// configDocument is the on-disk shape of the configuration file.
type configDocument struct {
	Version  string                            `json:"version"`
	Sections map[string]map[string]interface{} `json:"sections"`
}

// FileStore implements Store using a single JSON document, one top-level
// object per registered section.
type FileStore struct {
	path    string
	version string

	mu   sync.RWMutex
	data map[string]map[string]interface{}
}

// NewFileStore creates a new file-based configuration store.
// If path is empty, defaults to ~/.counsel/config.json
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".counsel", "config.json")
	}

	store := &FileStore{
		path:    path,
		version: "1.0",
		data:    make(map[string]map[string]interface{}),
	}

	// A missing file just means first run; anything else is fatal.
	if err := store.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	return store, nil
}

// Load replaces the in-memory data with the document on disk. A missing
// file leaves the store empty.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]map[string]interface{})
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var doc configDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	if doc.Version != "" {
		s.version = doc.Version
	}
	s.data = doc.Sections
	if s.data == nil {
		s.data = make(map[string]map[string]interface{})
	}

	return nil
}

// Save writes the document to disk via a temp file and rename so a crash
// mid-write never leaves a truncated config behind.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	raw, err := json.MarshalIndent(configDocument{
		Version:  s.version,
		Sections: s.data,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp config file: %w", err)
	}

	return nil
}

// GetSection retrieves configuration data for a specific section. Unknown
// sections yield an empty map, not an error, so freshly added sections
// load cleanly from older config files.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copySection(s.data[sectionID]), nil
}

// SetSection stores configuration data for a specific section.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sectionID] = copySection(data)
	return nil
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}

// copySection shields the store's data from mutation through shared maps,
// in both directions.
func copySection(data map[string]interface{}) map[string]interface{} {
	section := make(map[string]interface{}, len(data))
	for k, v := range data {
		section[k] = v
	}
	return section
}
