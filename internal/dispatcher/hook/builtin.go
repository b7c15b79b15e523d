package hook

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/logging"
)

// Standard hook priorities.
const (
	PriorityAudit    = 1000 // Runs first (pre) / last (post)
	PriorityRecorder = 500
)

// AuditHook logs all dispatched actions for debugging and audit trails.
type AuditHook struct {
	logger *logging.Logger
}

// NewAuditHook creates an audit hook with the given logger.
func NewAuditHook(logger *logging.Logger) *AuditHook {
	return &AuditHook{logger: logger}
}

// Name implements Hook.
func (h *AuditHook) Name() string { return "audit" }

// Priority implements Hook.
func (h *AuditHook) Priority() int { return PriorityAudit }

// PreDispatch logs the action being dispatched.
func (h *AuditHook) PreDispatch(ctx context.Context, a action.Action) {
	if h.logger != nil {
		h.logger.Debug("dispatch start: %s", a.ActionTag())
	}
}

// PostDispatch logs the dispatch outcome.
func (h *AuditHook) PostDispatch(ctx context.Context, a action.Action, out Outcome) {
	if h.logger == nil {
		return
	}

	if out.Err != nil {
		h.logger.Error("dispatch failed: %s after %s: %v", a.ActionTag(), out.Duration, out.Err)
		return
	}
	h.logger.Debug("dispatch complete: %s (callbacks=%d, duration=%s)", a.ActionTag(), out.Callbacks, out.Duration)
}

// Record is one entry in a RecorderHook history.
type Record struct {
	Tag       action.Tag
	Action    action.Action
	Err       error
	Callbacks int
	Duration  time.Duration
	Time      time.Time
}

// RecorderHook keeps a bounded history of dispatch outcomes.
type RecorderHook struct {
	mu       sync.RWMutex
	records  []Record
	maxSize  int
	callback func(Record)
}

// NewRecorderHook creates a recorder.
// maxSize limits the number of records retained (0 = unlimited).
func NewRecorderHook(maxSize int) *RecorderHook {
	return &RecorderHook{maxSize: maxSize}
}

// Name implements Hook.
func (h *RecorderHook) Name() string { return "recorder" }

// Priority implements Hook.
func (h *RecorderHook) Priority() int { return PriorityRecorder }

// PostDispatch records the outcome.
func (h *RecorderHook) PostDispatch(ctx context.Context, a action.Action, out Outcome) {
	rec := Record{
		Tag:       a.ActionTag(),
		Action:    a,
		Err:       out.Err,
		Callbacks: out.Callbacks,
		Duration:  out.Duration,
		Time:      time.Now(),
	}

	h.mu.Lock()
	h.records = append(h.records, rec)
	if h.maxSize > 0 && len(h.records) > h.maxSize {
		h.records = h.records[len(h.records)-h.maxSize:]
	}
	cb := h.callback
	h.mu.Unlock()

	if cb != nil {
		cb(rec)
	}
}

// Records returns a copy of all retained records, oldest first.
func (h *RecorderHook) Records() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// Tags returns the tags of all retained records, oldest first.
func (h *RecorderHook) Tags() []action.Tag {
	h.mu.RLock()
	defer h.mu.RUnlock()

	tags := make([]action.Tag, len(h.records))
	for i, r := range h.records {
		tags[i] = r.Tag
	}
	return tags
}

// SetCallback sets a function called for each new record.
func (h *RecorderHook) SetCallback(fn func(Record)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callback = fn
}

// Clear removes all records.
func (h *RecorderHook) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}

// LoggingHook provides simple logging without a structured logger.
type LoggingHook struct {
	name     string
	priority int
	logFunc  func(format string, args ...any)
}

// NewLoggingHook creates a logging hook with a printf-style function.
func NewLoggingHook(name string, priority int, logFunc func(format string, args ...any)) *LoggingHook {
	return &LoggingHook{name: name, priority: priority, logFunc: logFunc}
}

// Name implements Hook.
func (h *LoggingHook) Name() string { return h.name }

// Priority implements Hook.
func (h *LoggingHook) Priority() int { return h.priority }

// PreDispatch logs the action.
func (h *LoggingHook) PreDispatch(ctx context.Context, a action.Action) {
	if h.logFunc != nil {
		h.logFunc("dispatch: %s", a.ActionTag())
	}
}

// PostDispatch logs the outcome.
func (h *LoggingHook) PostDispatch(ctx context.Context, a action.Action, out Outcome) {
	if h.logFunc == nil {
		return
	}
	status := "ok"
	if out.Err != nil {
		status = "error"
	}
	h.logFunc("complete: %s -> %s", a.ActionTag(), status)
}
