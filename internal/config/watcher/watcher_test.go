package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{0, "none"},
		{OpWrite, "write"},
		{OpCreate | OpWrite, "create|write"},
		{OpRemove | OpRename, "remove|rename"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestConvertOp(t *testing.T) {
	if got := convertOp(fsnotify.Create | fsnotify.Write); got != OpCreate|OpWrite {
		t.Errorf("convertOp = %v, want create|write", got)
	}
	if got := convertOp(fsnotify.Chmod); got != 0 {
		t.Errorf("chmod should be ignored, got %v", got)
	}
}

func TestWatchMissingFile(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Watch(filepath.Join(t.TempDir(), "missing.toml")); err != ErrPathNotExist {
		t.Errorf("expected ErrPathNotExist, got %v", err)
	}
}

func TestWatchTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Watch(path); err != ErrAlreadyWatching {
		t.Errorf("expected ErrAlreadyWatching, got %v", err)
	}
	if !w.IsWatching(path) {
		t.Error("expected path to be watched")
	}

	if err := w.Unwatch(path); err != nil {
		t.Fatalf("Unwatch: %v", err)
	}
	if w.IsWatching(path) {
		t.Error("expected path to be unwatched")
	}
}

func TestWatchReportsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.toml")
	other := filepath.Join(dir, "other.toml")
	if err := os.WriteFile(path, []byte("a = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(WithDebounce(50 * time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	events := make(chan Event, 10)
	w.OnChange(func(e Event) { events <- e })

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("a = 2"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case e := <-events:
		want, _ := filepath.Abs(path)
		if e.Path != want {
			t.Errorf("event path = %q, want %q", e.Path, want)
		}
		if e.Op&OpWrite == 0 {
			t.Errorf("expected write op, got %v", e.Op)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}

	select {
	case e := <-events:
		t.Errorf("expected writes to coalesce, got extra event %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClosedWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if err := w.Watch(path); err != ErrWatcherClosed {
		t.Errorf("expected ErrWatcherClosed, got %v", err)
	}
}
