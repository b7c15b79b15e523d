package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/fluxstate/internal/action"
)

type testAction struct{}

func (testAction) ActionTag() action.Tag { return "test.action" }

func TestManagerPreHookOrder(t *testing.T) {
	m := NewManager()

	var order []string
	for _, p := range []struct {
		name     string
		priority int
	}{{"low", 1}, {"high", 100}, {"mid", 50}} {
		name := p.name
		m.RegisterPre(NewPreDispatchFunc(name, p.priority, func(ctx context.Context, a action.Action) {
			order = append(order, name)
		}))
	}

	m.RunPreDispatch(context.Background(), testAction{})

	want := []string{"high", "mid", "low"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestManagerPostHookOrder(t *testing.T) {
	m := NewManager()

	var order []string
	for _, p := range []struct {
		name     string
		priority int
	}{{"high", 100}, {"low", 1}} {
		name := p.name
		m.RegisterPost(NewPostDispatchFunc(name, p.priority, func(ctx context.Context, a action.Action, out Outcome) {
			order = append(order, name)
		}))
	}

	m.RunPostDispatch(context.Background(), testAction{}, Outcome{})

	if len(order) != 2 || order[0] != "low" || order[1] != "high" {
		t.Errorf("expected [low high], got %v", order)
	}
}

func TestManagerReplaceAndUnregister(t *testing.T) {
	m := NewManager()

	calls := 0
	m.RegisterPre(NewPreDispatchFunc("a", 1, func(ctx context.Context, a action.Action) { calls += 1 }))
	m.RegisterPre(NewPreDispatchFunc("a", 1, func(ctx context.Context, a action.Action) { calls += 10 }))

	m.RunPreDispatch(context.Background(), testAction{})
	if calls != 10 {
		t.Errorf("expected replaced hook to run, calls=%d", calls)
	}

	if !m.Unregister("a") {
		t.Error("expected Unregister to report removal")
	}
	if m.Unregister("a") {
		t.Error("expected second Unregister to report nothing removed")
	}
	if m.Len() != 0 {
		t.Errorf("expected no hooks, got %d", m.Len())
	}
}

func TestManagerRegisterCombined(t *testing.T) {
	m := NewManager()
	m.Register(NewAuditHook(nil))
	m.Register(NewRecorderHook(1))

	if got := m.PreHookNames(); len(got) != 1 || got[0] != "audit" {
		t.Errorf("unexpected pre hooks: %v", got)
	}
	if got := m.PostHookNames(); len(got) != 2 || got[0] != "recorder" || got[1] != "audit" {
		t.Errorf("unexpected post hooks: %v", got)
	}

	m.Clear()
	if m.Len() != 0 {
		t.Error("expected Clear to remove all hooks")
	}
}

func TestRecorderHookBounded(t *testing.T) {
	h := NewRecorderHook(2)

	var seen int
	h.SetCallback(func(Record) { seen++ })

	boom := errors.New("boom")
	h.PostDispatch(context.Background(), testAction{}, Outcome{})
	h.PostDispatch(context.Background(), testAction{}, Outcome{Callbacks: 1})
	h.PostDispatch(context.Background(), testAction{}, Outcome{Err: boom})

	records := h.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Callbacks != 1 || !errors.Is(records[1].Err, boom) {
		t.Errorf("expected oldest record dropped, got %+v", records)
	}
	if seen != 3 {
		t.Errorf("expected callback per record, got %d", seen)
	}
	if tags := h.Tags(); tags[0] != "test.action" {
		t.Errorf("unexpected tags: %v", tags)
	}

	h.Clear()
	if len(h.Records()) != 0 {
		t.Error("expected Clear to drop records")
	}
}

func TestLoggingHook(t *testing.T) {
	var lines []string
	h := NewLoggingHook("log", 0, func(format string, args ...any) {
		lines = append(lines, format)
	})

	h.PreDispatch(context.Background(), testAction{})
	h.PostDispatch(context.Background(), testAction{}, Outcome{Err: errors.New("x")})

	if len(lines) != 2 {
		t.Errorf("expected 2 log lines, got %d", len(lines))
	}
}
