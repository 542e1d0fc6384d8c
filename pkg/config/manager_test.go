package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return store
}

func TestNewManager(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store)

	if manager.Store() != store {
		t.Error("Manager does not reference correct store")
	}
	if len(manager.GetSections()) != 0 {
		t.Error("New manager should have no sections")
	}
}

func TestManager_RegisterSection(t *testing.T) {
	t.Run("registers section successfully", func(t *testing.T) {
		manager := NewManager(newTestStore(t))

		if err := manager.RegisterSection(NewLLMSection()); err != nil {
			t.Fatalf("RegisterSection failed: %v", err)
		}

		section, ok := manager.GetSection(SectionIDLLM)
		if !ok {
			t.Fatal("Section not found after registration")
		}
		if _, ok := section.(*LLMSection); !ok {
			t.Errorf("GetSection returned %T", section)
		}
	})

	t.Run("prevents duplicate registration", func(t *testing.T) {
		manager := NewManager(newTestStore(t))

		if err := manager.RegisterSection(NewStorageSection()); err != nil {
			t.Fatalf("First registration failed: %v", err)
		}
		if err := manager.RegisterSection(NewStorageSection()); err == nil {
			t.Error("Expected error for duplicate registration")
		}
	})

	t.Run("maintains registration order", func(t *testing.T) {
		manager := NewManager(newTestStore(t))

		manager.RegisterSection(NewLLMSection())
		manager.RegisterSection(NewStorageSection())
		manager.RegisterSection(NewKnowledgeSection())

		sections := manager.GetSections()
		if len(sections) != 3 {
			t.Fatalf("Expected 3 sections, got %d", len(sections))
		}
		if sections[0].ID() != SectionIDLLM ||
			sections[1].ID() != SectionIDStorage ||
			sections[2].ID() != SectionIDKnowledge {
			t.Error("Sections not in registration order")
		}
	})

	t.Run("returns false for unknown section", func(t *testing.T) {
		manager := NewManager(newTestStore(t))

		if _, ok := manager.GetSection("nonexistent"); ok {
			t.Error("Should return false for unknown section")
		}
	})
}

func TestManager_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	manager := NewManager(store)

	llmSection := NewLLMSection()
	storageSection := NewStorageSection()
	manager.RegisterSection(llmSection)
	manager.RegisterSection(storageSection)

	llmSection.SetModel("gpt-4o-mini")
	llmSection.SetBaseURL("https://proxy.internal/v1")
	storageSection.SetData(map[string]interface{}{
		"backend": BackendSQLite,
		"db_path": "/var/lib/counsel/sessions.db",
	})

	if err := manager.SaveAll(); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	// A fresh manager over the same file gets the persisted values back.
	reloadedStore, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore (reload) failed: %v", err)
	}
	reloaded := NewManager(reloadedStore)
	reloadedLLM := NewLLMSection()
	reloadedStorage := NewStorageSection()
	reloaded.RegisterSection(reloadedLLM)
	reloaded.RegisterSection(reloadedStorage)

	if err := reloaded.LoadAll(); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if reloadedLLM.GetModel() != "gpt-4o-mini" {
		t.Errorf("model = %q", reloadedLLM.GetModel())
	}
	if reloadedLLM.GetBaseURL() != "https://proxy.internal/v1" {
		t.Errorf("base_url = %q", reloadedLLM.GetBaseURL())
	}
	if reloadedStorage.GetBackend() != BackendSQLite {
		t.Errorf("backend = %q", reloadedStorage.GetBackend())
	}
	if reloadedStorage.GetDBPath() != "/var/lib/counsel/sessions.db" {
		t.Errorf("db_path = %q", reloadedStorage.GetDBPath())
	}
}

func TestManager_SaveAllValidatesFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	manager := NewManager(store)

	storageSection := NewStorageSection()
	manager.RegisterSection(storageSection)
	storageSection.SetData(map[string]interface{}{"backend": "redis"})

	if err := manager.SaveAll(); err == nil {
		t.Fatal("SaveAll should fail validation for an unknown backend")
	}

	// Nothing reached disk.
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("config file should not exist after failed SaveAll, stat err = %v", err)
	}
}

func TestManager_LoadAllToleratesMissingSections(t *testing.T) {
	// An older config file without a knowledge section still loads; the
	// new section keeps its defaults.
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{"version": "1.0", "sections": {"llm": {"model": "gpt-4o"}}}`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	manager := NewManager(store)

	llmSection := NewLLMSection()
	knowledgeSection := NewKnowledgeSection()
	manager.RegisterSection(llmSection)
	manager.RegisterSection(knowledgeSection)

	if err := manager.LoadAll(); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if llmSection.GetModel() != "gpt-4o" {
		t.Errorf("model = %q", llmSection.GetModel())
	}
	if len(knowledgeSection.GetSources()) != 0 || knowledgeSection.GetRootKey() != "" {
		t.Error("absent section should keep its defaults")
	}
}
