package log

import (
	"strings"
	"sync"
	"testing"
)

type captureOutput struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureOutput) Write(_ *Entry, formatted []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(formatted))
	return nil
}

func (c *captureOutput) Close() error { return nil }

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("warn"); err != nil || l != WarnLevel {
		t.Fatalf("warn: %v %v", l, err)
	}
	if l, err := ParseLevel(""); err != nil || l != InfoLevel {
		t.Fatalf("empty should default to info: %v %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelGating(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(WithLevel(WarnLevel), WithOutput(out))
	logger.Info("dropped")
	logger.Warn("kept")
	if len(out.lines) != 1 || !strings.Contains(out.lines[0], "kept") {
		t.Fatalf("level gating: %v", out.lines)
	}
}

func TestWithCarriesFields(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(WithLevel(InfoLevel), WithOutput(out))
	child := logger.With(Component("jobs"), Str("queue", "default"))
	child.Info("committed", Uint64("job_id", 7))
	if len(out.lines) != 1 {
		t.Fatalf("lines: %v", out.lines)
	}
	line := out.lines[0]
	for _, want := range []string{"component=jobs", "queue=default", "job_id=7", "committed"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}

func TestApplyConfigRejectsUnknownFormat(t *testing.T) {
	if _, err := ApplyConfig(&Config{Level: "info", Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
	if _, err := ApplyConfig(&Config{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("json format: %v", err)
	}
}
