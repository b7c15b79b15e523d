package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidLevel) {
				t.Errorf("expected ErrInvalidLevel, got %v", err)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" {
		t.Errorf("LevelWarn.String() = %q", LevelWarn.String())
	}
	if Level(99).String() != "UNKNOWN" {
		t.Errorf("Level(99).String() = %q", Level(99).String())
	}
}

func TestLoggerWritesAtOrAboveLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf, Prefix: "test"})

	l.Info("hidden message")
	l.Warn("visible %s", "warning")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info message should be filtered: %s", out)
	}
	if !strings.Contains(out, "visible warning") {
		t.Errorf("expected formatted warning in output: %s", out)
	}
	if !strings.Contains(out, "WARN") {
		t.Errorf("expected level in output: %s", out)
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf, JSON: true})

	l.WithComponent("store").WithFields(map[string]any{"tag": "counter.increment"}).Debug("reduced")

	out := buf.String()
	for _, want := range []string{`"component":"store"`, `"tag":"counter.increment"`, `"msg":"reduced"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output: %s", want, out)
		}
	}
}

func TestLoggerSharedLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Config{Level: LevelError, Output: &buf})
	child := parent.WithComponent("child")

	child.Info("before")
	parent.SetLevel(LevelInfo)
	child.Info("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Error("message before level change should be filtered")
	}
	if !strings.Contains(out, "after") {
		t.Error("child should observe parent level change")
	}
	if !child.Enabled(LevelInfo) || child.Enabled(LevelDebug) {
		t.Error("Enabled() mismatch after SetLevel")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	if l.Enabled(LevelError) {
		t.Error("nop logger should not enable error level")
	}
}
