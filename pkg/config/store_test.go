package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileStore(t *testing.T) {
	t.Run("creates store with explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")

		store, err := NewFileStore(path)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		if store.Path() != path {
			t.Errorf("Path() = %q, want %q", store.Path(), path)
		}
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "does-not-exist.json")

		store, err := NewFileStore(path)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		section, err := store.GetSection("llm")
		if err != nil {
			t.Fatalf("GetSection failed: %v", err)
		}
		if len(section) != 0 {
			t.Errorf("expected empty section, got %v", section)
		}
	})

	t.Run("rejects corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		if _, err := NewFileStore(path); err == nil {
			t.Error("expected error for corrupt config file")
		}
	})
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := store.SetSection("llm", map[string]interface{}{
		"model":    "gpt-4o",
		"base_url": "https://proxy.internal/v1",
	}); err != nil {
		t.Fatalf("SetSection failed: %v", err)
	}

	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// No stray temp file left behind by the atomic write.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should be gone after Save, stat err = %v", err)
	}

	// A fresh store over the same path sees the persisted data.
	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore (reload) failed: %v", err)
	}

	section, err := reloaded.GetSection("llm")
	if err != nil {
		t.Fatalf("GetSection failed: %v", err)
	}
	if section["model"] != "gpt-4o" {
		t.Errorf("model = %v, want gpt-4o", section["model"])
	}
	if section["base_url"] != "https://proxy.internal/v1" {
		t.Errorf("base_url = %v", section["base_url"])
	}
}

func TestFileStore_SectionIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	original := map[string]interface{}{"backend": "file"}
	if err := store.SetSection("storage", original); err != nil {
		t.Fatalf("SetSection failed: %v", err)
	}

	// Mutating the caller's map must not leak into the store.
	original["backend"] = "sqlite"

	section, err := store.GetSection("storage")
	if err != nil {
		t.Fatalf("GetSection failed: %v", err)
	}
	if section["backend"] != "file" {
		t.Errorf("backend = %v, want file", section["backend"])
	}

	// Mutating a returned copy must not leak either.
	section["backend"] = "sqlite"
	again, _ := store.GetSection("storage")
	if again["backend"] != "file" {
		t.Errorf("backend = %v after copy mutation, want file", again["backend"])
	}
}
