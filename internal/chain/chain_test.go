package chain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/chain"
	"github.com/dshills/fluxstate/internal/dispatcher"
	"github.com/dshills/fluxstate/internal/store"
)

type Counter struct{ Value int }

type Increment struct{}

func (Increment) ActionTag() action.Tag { return "counter.increment" }

type Decrement struct{}

func (Decrement) ActionTag() action.Tag { return "counter.decrement" }

type Profile struct{ Name string }

type NameChanged struct{ Name string }

func (NameChanged) ActionTag() action.Tag { return "profile.name_changed" }

func newCounter(t *testing.T, d dispatcher.Dispatcher) *store.Store[Counter] {
	t.Helper()
	st, err := store.New(d, func() Counter { return Counter{} }, store.WithReducers(
		store.ReducerFunc(func(_ Increment, s Counter) Counter { return Counter{s.Value + 1} }),
		store.ReducerFunc(func(_ Decrement, s Counter) Counter { return Counter{s.Value - 1} }),
	))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return st
}

func TestCounterChain(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	st := newCounter(t, d)

	var seen []int
	st.OnChange(func(ctx context.Context, ch store.Change[Counter]) error {
		seen = append(seen, ch.New.Value)
		return nil
	})

	seq := chain.New(d, nil).
		Dispatch(Increment{}).
		Then(Increment{})
	chain.ThenNew[Decrement](seq)

	if seq.Len() != 3 {
		t.Fatalf("expected 3 steps, got %d", seq.Len())
	}
	if err := seq.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if st.Current().Value != 1 {
		t.Errorf("expected 1, got %d", st.Current().Value)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 1 {
		t.Errorf("expected notifications [1 2 1], got %v", seen)
	}
}

func TestCreatorStepAwaited(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	st, err := store.New(d, func() Profile { return Profile{} }, store.WithReducers(
		store.ReducerFunc(func(a NameChanged, s Profile) Profile { return Profile{Name: a.Name} }),
	))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	creator := action.TypedCreator[NameChanged](func(ctx context.Context) (NameChanged, error) {
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return NameChanged{}, ctx.Err()
		}
		return NameChanged{Name: "Joe"}, nil
	})

	start := time.Now()
	if err := chain.New(d, nil).DispatchCreator(creator).Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if time.Since(start) < 50*time.Millisecond {
		t.Error("expected Execute to await the creator")
	}
	if st.Current().Name != "Joe" {
		t.Errorf("expected Joe, got %q", st.Current().Name)
	}
}

func TestFailureAbortsChain(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	st := newCounter(t, d)
	boom := errors.New("boom")

	err := chain.New(d, nil).
		Dispatch(Increment{}).
		ThenCreator(action.CreatorFunc(func(ctx context.Context) (action.Action, error) {
			return nil, boom
		})).
		Then(Increment{}).
		Execute(context.Background())

	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var se *chain.StepError
	if !errors.As(err, &se) || se.Index != 1 {
		t.Errorf("expected failure at step 1, got %v", err)
	}
	if st.Current().Value != 1 {
		t.Errorf("steps after the failure must not run, got %d", st.Current().Value)
	}
}

func TestDispatchFailureAbortsChain(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	st := newCounter(t, d)
	boom := errors.New("rejected")
	st.OnChange(func(ctx context.Context, ch store.Change[Counter]) error {
		if _, ok := ch.Action.(Decrement); ok {
			return boom
		}
		return nil
	})

	err := chain.New(st, nil).
		Dispatch(Decrement{}).
		Then(Increment{}).
		Execute(context.Background())

	var se *chain.StepError
	if !errors.As(err, &se) || se.Index != 0 || se.Tag != "counter.decrement" {
		t.Fatalf("expected failure at step 0, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected handler error to be wrapped, got %v", err)
	}
	if st.Current().Value != -1 {
		t.Errorf("expected -1, got %d", st.Current().Value)
	}
}

func TestEmptyChain(t *testing.T) {
	if err := chain.New(nil, nil).Execute(context.Background()); err != nil {
		t.Errorf("expected nil for empty chain, got %v", err)
	}
}

func TestNilTarget(t *testing.T) {
	err := chain.New(nil, nil).Dispatch(Increment{}).Execute(context.Background())
	if !errors.Is(err, chain.ErrNilTarget) {
		t.Errorf("expected ErrNilTarget, got %v", err)
	}
}

func TestDispatchFrom(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	st := newCounter(t, d)

	creators := action.NewCreators()
	action.RegisterDefault[Increment](creators)

	err := chain.New(d, creators).
		DispatchFrom("counter.increment").
		ThenFrom("counter.increment").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if st.Current().Value != 2 {
		t.Errorf("expected 2, got %d", st.Current().Value)
	}
}

func TestDispatchFromUnknown(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	tests := []struct {
		name     string
		creators *action.Creators
	}{
		{"nil registry", nil},
		{"empty registry", action.NewCreators()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := chain.New(d, tt.creators).DispatchFrom("missing").Execute(context.Background())
			if !errors.Is(err, chain.ErrUnknownCreator) {
				t.Errorf("expected ErrUnknownCreator, got %v", err)
			}
		})
	}
}

func TestInvalidStepAction(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	err := chain.New(d, nil).Dispatch(nil).Execute(context.Background())
	if !errors.Is(err, dispatcher.ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction, got %v", err)
	}
}

func TestCancelledBetweenSteps(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	st := newCounter(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	st.OnChange(func(context.Context, store.Change[Counter]) error {
		cancel()
		return nil
	})

	err := chain.New(d, nil).Dispatch(Increment{}).Then(Increment{}).Execute(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if st.Current().Value != 1 {
		t.Errorf("expected the first step to complete, got %d", st.Current().Value)
	}
}

func TestExecuteBatchUnsupported(t *testing.T) {
	err := chain.New(dispatcher.NewWithDefaults(), nil).Dispatch(Increment{}).ExecuteBatch(context.Background())
	if !errors.Is(err, dispatcher.ErrBatchUnsupported) {
		t.Errorf("expected ErrBatchUnsupported, got %v", err)
	}
}

func TestExecuteBatch(t *testing.T) {
	q := dispatcher.NewQueue(dispatcher.NewWithDefaults())
	q.Start()
	defer q.Stop()

	st := newCounter(t, q)

	seq := chain.New(q, nil).Dispatch(Increment{}).Then(Increment{}).Then(Decrement{})
	if err := seq.ExecuteBatch(context.Background()); err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if st.Current().Value != 1 {
		t.Errorf("expected 1, got %d", st.Current().Value)
	}
}

func TestSequencerReusable(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	st := newCounter(t, d)

	seq := chain.New(st, nil).Dispatch(Increment{})
	_ = seq.Execute(context.Background())
	_ = seq.Execute(context.Background())

	if st.Current().Value != 2 {
		t.Errorf("expected 2, got %d", st.Current().Value)
	}
}
