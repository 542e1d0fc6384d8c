package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDStorage is the identifier for the session storage section
	SectionIDStorage = "storage"

	// BackendFile stores each session as a JSON file on disk
	BackendFile = "file"

	// BackendSQLite stores sessions in a single SQLite database
	BackendSQLite = "sqlite"
)

// StorageSection manages session persistence settings.
type StorageSection struct {
	Backend string
	DataDir string
	DBPath  string
	mu      sync.RWMutex
}

// NewStorageSection creates a new storage section with default settings.
func NewStorageSection() *StorageSection {
	return &StorageSection{
		Backend: BackendFile,
		DataDir: "",
		DBPath:  "",
	}
}

// ID returns the section identifier.
func (s *StorageSection) ID() string {
	return SectionIDStorage
}

// Title returns the section title.
func (s *StorageSection) Title() string {
	return "Session Storage"
}

// Description returns the section description.
func (s *StorageSection) Description() string {
	return "Configure where session state is persisted. Backend is either 'file' (one JSON document per session) or 'sqlite' (single database file)."
}

// Data returns the current configuration data.
func (s *StorageSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"backend":  s.Backend,
		"data_dir": s.DataDir,
		"db_path":  s.DBPath,
	}
}

// SetData updates the configuration from the provided data.
func (s *StorageSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if backend, ok := data["backend"].(string); ok && backend != "" {
		s.Backend = backend
	}

	if dataDir, ok := data["data_dir"].(string); ok {
		s.DataDir = dataDir
	}

	if dbPath, ok := data["db_path"].(string); ok {
		s.DBPath = dbPath
	}

	return nil
}

// Validate validates the current configuration.
func (s *StorageSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Backend != BackendFile && s.Backend != BackendSQLite {
		return fmt.Errorf("unknown storage backend %q (expected %q or %q)", s.Backend, BackendFile, BackendSQLite)
	}

	return nil
}

// Reset resets the section to default configuration.
func (s *StorageSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Backend = BackendFile
	s.DataDir = ""
	s.DBPath = ""
}

// GetBackend returns the configured backend name.
func (s *StorageSection) GetBackend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Backend
}

// GetDataDir returns the configured session directory.
// An empty string means use the default under the counsel home directory.
func (s *StorageSection) GetDataDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DataDir
}

// GetDBPath returns the configured SQLite database path.
// An empty string means use the default under the counsel home directory.
func (s *StorageSection) GetDBPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DBPath
}
