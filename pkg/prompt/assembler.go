// Package prompt composes the layered system prompt for one conversation
// turn.
//
// The layering order is deliberate: universal behavioral and format rules
// come first so the model cannot be steered into ignoring them, task-specific
// instructions next, then the persona, and finally the session transcript,
// the most session-specific, lowest-priority material.
package prompt

import (
	"fmt"
	"strings"

	"github.com/lexhq/counsel/pkg/knowledge"
	"github.com/lexhq/counsel/pkg/llm/tokenizer"
	"github.com/lexhq/counsel/pkg/session"
)

const (
	// DefaultRootKey is the knowledge key of the root instruction fragment.
	DefaultRootKey = "instructions/root.md"

	// DefaultPersonaKey is the knowledge key of the persona fragment.
	DefaultPersonaKey = "personas/advisor.md"

	// taskHeadingPrefix marks the start of a task-specific instruction
	// section inside the root fragment. Everything before the first heading
	// is the universal section.
	taskHeadingPrefix = "## task:"
)

// AssemblyError reports a missing required instruction fragment or task
// section. It is fatal for the turn.
type AssemblyError struct {
	Fragment string
	Reason   string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("prompt: cannot assemble from %s: %s", e.Fragment, e.Reason)
}

// Assembler builds system prompts from the knowledge cache and session
// state. It is read-only after construction and safe for concurrent use.
type Assembler struct {
	cache      *knowledge.Cache
	rootKey    string
	personaKey string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithRootKey overrides the root instruction fragment key.
func WithRootKey(key string) Option {
	return func(a *Assembler) { a.rootKey = key }
}

// WithPersonaKey overrides the persona fragment key.
func WithPersonaKey(key string) Option {
	return func(a *Assembler) { a.personaKey = key }
}

// NewAssembler creates an assembler over an initialized knowledge cache.
func NewAssembler(cache *knowledge.Cache, opts ...Option) *Assembler {
	a := &Assembler{
		cache:      cache,
		rootKey:    DefaultRootKey,
		personaKey: DefaultPersonaKey,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build composes the system prompt for taskID over the given session state.
//
// The root fragment and the requested task section are required; their
// absence is an *AssemblyError. The persona fragment is optional and
// degrades gracefully by omission.
func (a *Assembler) Build(taskID string, state *session.State) (string, error) {
	root, ok := a.cache.Read(a.rootKey)
	if !ok {
		return "", &AssemblyError{Fragment: a.rootKey, Reason: "root instruction fragment missing"}
	}

	universal, tasks := splitRoot(root)
	taskSection, ok := tasks[strings.ToLower(taskID)]
	if !ok {
		return "", &AssemblyError{
			Fragment: a.rootKey,
			Reason:   fmt.Sprintf("no instructions for task %q", taskID),
		}
	}

	sections := []string{universal, taskSection}

	if persona, ok := a.cache.Read(a.personaKey); ok {
		sections = append(sections, strings.TrimSpace(persona))
	}

	if transcript := renderTranscript(state); transcript != "" {
		sections = append(sections, transcript)
	}

	var nonEmpty []string
	for _, s := range sections {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.TrimRight(strings.Join(nonEmpty, "\n\n"), " \t\n"), nil
}

// splitRoot splits the root instruction fragment into the universal section
// (everything before the first task heading) and a per-task map keyed by
// lower-cased task id.
func splitRoot(root string) (string, map[string]string) {
	lines := strings.Split(root, "\n")
	tasks := make(map[string]string)

	var universal []string
	var currentID string
	var current []string

	flush := func() {
		if currentID != "" {
			tasks[currentID] = strings.TrimSpace(strings.Join(current, "\n"))
		}
		current = nil
	}

	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, taskHeadingPrefix) {
			flush()
			currentID = strings.TrimSpace(strings.TrimPrefix(lower, taskHeadingPrefix))
			continue
		}
		if currentID == "" {
			universal = append(universal, line)
		} else {
			current = append(current, line)
		}
	}
	flush()

	return strings.TrimSpace(strings.Join(universal, "\n")), tasks
}

// renderTranscript renders the dialogue history as a numbered transcript so
// the model sees prior context. Empty histories render as nothing.
func renderTranscript(state *session.State) string {
	if state == nil || len(state.DialogueHistory.Turns) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Conversation so far:")
	for _, turn := range state.DialogueHistory.Turns {
		sb.WriteString(fmt.Sprintf("\n\nTurn #%d\nUser: %s\nAssistant: %s",
			turn.MessageNumber, turn.UserText, turn.ModelText))
	}
	return sb.String()
}

// Stats reports size statistics for an assembled prompt. Token counts are
// approximate when the shared tokenizer is unavailable (count -1).
type Stats struct {
	Chars  int
	Lines  int
	Tokens int
}

// ComputeStats measures an assembled prompt for logging and debugging.
func ComputeStats(prompt string) Stats {
	stats := Stats{
		Chars:  len(prompt),
		Lines:  strings.Count(prompt, "\n") + 1,
		Tokens: -1,
	}
	if tok, err := tokenizer.Shared(); err == nil {
		stats.Tokens = tok.Count(prompt)
	}
	return stats
}
