package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDKnowledge is the identifier for the knowledge base section
	SectionIDKnowledge = "knowledge"
)

// KnowledgeSection manages the prompt knowledge base settings: which
// directories to index and which fragments anchor the assembled prompt.
type KnowledgeSection struct {
	Sources    []string
	Includes   []string
	RootKey    string
	PersonaKey string
	mu         sync.RWMutex
}

// NewKnowledgeSection creates a new knowledge section with default settings.
func NewKnowledgeSection() *KnowledgeSection {
	return &KnowledgeSection{
		Sources:    []string{},
		Includes:   []string{},
		RootKey:    "",
		PersonaKey: "",
	}
}

// ID returns the section identifier.
func (s *KnowledgeSection) ID() string {
	return SectionIDKnowledge
}

// Title returns the section title.
func (s *KnowledgeSection) Title() string {
	return "Knowledge Base"
}

// Description returns the section description.
func (s *KnowledgeSection) Description() string {
	return "Configure the directories indexed into the prompt knowledge base and the keys of the root instruction and persona fragments."
}

// Data returns the current configuration data.
func (s *KnowledgeSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"sources":     toInterfaceSlice(s.Sources),
		"includes":    toInterfaceSlice(s.Includes),
		"root_key":    s.RootKey,
		"persona_key": s.PersonaKey,
	}
}

// SetData updates the configuration from the provided data.
func (s *KnowledgeSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sources, ok := toStringSlice(data["sources"]); ok {
		s.Sources = sources
	}

	if includes, ok := toStringSlice(data["includes"]); ok {
		s.Includes = includes
	}

	if rootKey, ok := data["root_key"].(string); ok {
		s.RootKey = rootKey
	}

	if personaKey, ok := data["persona_key"].(string); ok {
		s.PersonaKey = personaKey
	}

	return nil
}

// Validate validates the current configuration.
func (s *KnowledgeSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, source := range s.Sources {
		if source == "" {
			return fmt.Errorf("knowledge sources must not contain empty entries")
		}
	}

	return nil
}

// Reset resets the section to default configuration.
func (s *KnowledgeSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sources = []string{}
	s.Includes = []string{}
	s.RootKey = ""
	s.PersonaKey = ""
}

// GetSources returns the configured source directories.
func (s *KnowledgeSection) GetSources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sources := make([]string, len(s.Sources))
	copy(sources, s.Sources)
	return sources
}

// SetSources sets the source directories.
func (s *KnowledgeSection) SetSources(sources []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sources = make([]string, len(sources))
	copy(s.Sources, sources)
}

// GetIncludes returns the configured include patterns.
// An empty slice means use the built-in defaults.
func (s *KnowledgeSection) GetIncludes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	includes := make([]string, len(s.Includes))
	copy(includes, s.Includes)
	return includes
}

// GetRootKey returns the configured root fragment key.
// An empty string means use the built-in default.
func (s *KnowledgeSection) GetRootKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.RootKey
}

// GetPersonaKey returns the configured persona fragment key.
// An empty string means use the built-in default.
func (s *KnowledgeSection) GetPersonaKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PersonaKey
}

// JSON decodes string arrays as []interface{}, so section data has to be
// converted in both directions.
func toStringSlice(v interface{}) ([]string, bool) {
	switch raw := v.(type) {
	case []string:
		out := make([]string, len(raw))
		copy(out, raw)
		return out, true
	case []interface{}:
		out := make([]string, 0, len(raw))
		for _, entry := range raw {
			s, ok := entry.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func toInterfaceSlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
