package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexhq/counsel/pkg/knowledge"
	"github.com/lexhq/counsel/pkg/session"
)

const rootFragment = `You are a legal assistant. Always reply with a fenced JSON block.
Never give definitive legal advice without caveats.

## task: consultation
Gather the facts of the matter and keep the client profile current.

## task: summary
Produce a concise case summary from the accumulated facts.
`

func newTestCache(t *testing.T, withPersona bool) *knowledge.Cache {
	t.Helper()
	dir := t.TempDir()

	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	write("instructions/root.md", rootFragment)
	if withPersona {
		write("personas/advisor.md", "You speak calmly and precisely.")
	}

	cache, err := knowledge.NewCache([]string{dir})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if err := cache.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return cache
}

func TestBuildOrdering(t *testing.T) {
	asm := NewAssembler(newTestCache(t, true))

	state := session.NewState("s1")
	state.AppendTurn("I was fired without notice.", "Tell me more about your contract.", time.Now().UTC())

	prompt, err := asm.Build("consultation", state)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	universal := strings.Index(prompt, "You are a legal assistant")
	task := strings.Index(prompt, "Gather the facts")
	persona := strings.Index(prompt, "You speak calmly")
	transcript := strings.Index(prompt, "Turn #1")

	for name, idx := range map[string]int{
		"universal": universal, "task": task, "persona": persona, "transcript": transcript,
	} {
		if idx == -1 {
			t.Fatalf("prompt missing %s section:\n%s", name, prompt)
		}
	}
	if !(universal < task && task < persona && persona < transcript) {
		t.Errorf("sections out of order: universal=%d task=%d persona=%d transcript=%d",
			universal, task, persona, transcript)
	}

	if strings.Contains(prompt, "## task:") {
		t.Error("task headings should not leak into the assembled prompt")
	}
	if strings.Contains(prompt, "Produce a concise case summary") {
		t.Error("other tasks' instructions should not be included")
	}
	if strings.HasSuffix(prompt, "\n") || strings.HasSuffix(prompt, " ") {
		t.Error("trailing whitespace should be trimmed")
	}
}

func TestBuildTranscriptFormat(t *testing.T) {
	asm := NewAssembler(newTestCache(t, false))

	state := session.NewState("s1")
	state.AppendTurn("first question", "first answer", time.Now().UTC())
	state.AppendTurn("second question", "second answer", time.Now().UTC())

	prompt, err := asm.Build("summary", state)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := "Turn #2\nUser: second question\nAssistant: second answer"
	if !strings.Contains(prompt, want) {
		t.Errorf("transcript missing %q in:\n%s", want, prompt)
	}
}

func TestBuildPersonaOptional(t *testing.T) {
	asm := NewAssembler(newTestCache(t, false))

	prompt, err := asm.Build("consultation", session.NewState("s1"))
	if err != nil {
		t.Fatalf("Build should tolerate a missing persona: %v", err)
	}
	if strings.Contains(prompt, "calmly") {
		t.Error("persona text should be absent")
	}
}

func TestBuildUnknownTaskFails(t *testing.T) {
	asm := NewAssembler(newTestCache(t, true))

	_, err := asm.Build("nonexistent", session.NewState("s1"))
	if err == nil {
		t.Fatal("expected error for unknown task")
	}
	var asmErr *AssemblyError
	if !errors.As(err, &asmErr) {
		t.Fatalf("expected *AssemblyError, got %T: %v", err, err)
	}
}

func TestBuildMissingRootFails(t *testing.T) {
	dir := t.TempDir()
	cache, err := knowledge.NewCache([]string{dir})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if err := cache.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	asm := NewAssembler(cache)
	_, err = asm.Build("consultation", session.NewState("s1"))

	var asmErr *AssemblyError
	if !errors.As(err, &asmErr) {
		t.Fatalf("expected *AssemblyError for missing root, got %v", err)
	}
}

func TestSplitRoot(t *testing.T) {
	universal, tasks := splitRoot(rootFragment)

	if !strings.Contains(universal, "You are a legal assistant") {
		t.Errorf("universal = %q", universal)
	}
	if strings.Contains(universal, "Gather the facts") {
		t.Error("universal should stop at the first task heading")
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %v", tasks)
	}
	if !strings.Contains(tasks["consultation"], "Gather the facts") {
		t.Errorf("consultation = %q", tasks["consultation"])
	}
	if !strings.Contains(tasks["summary"], "concise case summary") {
		t.Errorf("summary = %q", tasks["summary"])
	}
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats("one\ntwo\nthree")
	if stats.Lines != 3 {
		t.Errorf("Lines = %d, want 3", stats.Lines)
	}
	if stats.Chars != len("one\ntwo\nthree") {
		t.Errorf("Chars = %d", stats.Chars)
	}
	// Tokens may be -1 when the tokenizer encoding is unavailable offline.
}
