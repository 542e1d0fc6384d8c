package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore is a local file-system implementation of Store. Each session is
// one JSON document at <dir>/<id>.json, written atomically via a temporary
// file and rename.
type FileStore struct {
	dir string
}

// NewFileStore creates the store directory if needed and returns a store
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: init directory %s: %v", ErrStorage, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) pathForID(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: invalid session id (empty)", ErrStorage)
	}
	if strings.ContainsAny(id, "/\\") {
		return "", fmt.Errorf("%w: invalid session id %q (contains path separator)", ErrStorage, id)
	}
	dir, err := filepath.Abs(fs.dir)
	if err != nil {
		return "", fmt.Errorf("%w: abs dir: %v", ErrStorage, err)
	}
	resolved := filepath.Join(dir, id+".json")
	if !strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path traversal detected for id %q", ErrStorage, id)
	}
	return resolved, nil
}

// Load reads and decodes the state document for id.
func (fs *FileStore) Load(_ context.Context, id string) (*State, error) {
	path, err := fs.pathForID(id)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, path, err)
	}

	var state State
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStorage, path, err)
	}
	return &state, nil
}

// Save persists the full state document atomically, overwriting any prior
// version.
func (fs *FileStore) Save(_ context.Context, id string, state *State) error {
	path, err := fs.pathForID(id)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStorage, id, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("%w: write temp file: %v", ErrStorage, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("%w: atomic rename %s: %v", ErrStorage, path, err)
	}
	return nil
}
