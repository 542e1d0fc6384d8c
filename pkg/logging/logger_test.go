package logging

import (
	"os"
	"strings"
	"testing"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	logger, err := NewLogger("test-component")
	if err != nil {
		t.Skipf("file logging unavailable in this environment: %v", err)
	}
	defer logger.Close()

	logger.Infof("hello %s", "world")
	logger.Debugf("debug entry")
	logger.Warnf("warn entry")
	logger.Errorf("error entry")

	data, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	content := string(data)
	for _, want := range []string{
		"[test-component] [INFO] hello world",
		"[test-component] [DEBUG] debug entry",
		"[test-component] [WARN] warn entry",
		"[test-component] [ERROR] error entry",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("log file missing entry %q", want)
		}
	}
}

func TestProcessIDStableAcrossLoggers(t *testing.T) {
	a, _ := NewLogger("comp-a")
	defer a.Close()
	b, _ := NewLogger("comp-b")
	defer b.Close()

	if a.ProcessID() != b.ProcessID() {
		t.Errorf("expected shared process id, got %q and %q", a.ProcessID(), b.ProcessID())
	}
	if a.ProcessID() == "" {
		t.Error("process id should not be empty")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	logger, err := NewLogger("close-test")
	if err != nil {
		t.Skipf("file logging unavailable: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
