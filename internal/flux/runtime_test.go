package flux_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/config"
	"github.com/dshills/fluxstate/internal/dispatcher"
	"github.com/dshills/fluxstate/internal/flux"
	"github.com/dshills/fluxstate/internal/middleware"
	"github.com/dshills/fluxstate/internal/store"
)

type Counter struct{ Value int }

type Increment struct{}

func (Increment) ActionTag() action.Tag { return "counter.increment" }

type Decrement struct{}

func (Decrement) ActionTag() action.Tag { return "counter.decrement" }

type Reset struct{}

func (Reset) ActionTag() action.Tag { return "counter.reset" }

type Profile struct{ Name string }

type NameChanged struct{ Name string }

func (NameChanged) ActionTag() action.Tag { return "profile.name_changed" }

func configureCounter(t *testing.T, rt *flux.Runtime) {
	t.Helper()
	err := flux.ConfigureState(rt, "counter", func() Counter { return Counter{} }, func(b *flux.StateBuilder[Counter]) {
		flux.HandleAction(b, func(ab *flux.ActionBuilder[Counter, Increment]) {
			ab.UseReducer(func(_ Increment, s Counter) Counter { return Counter{s.Value + 1} })
		})
		flux.HandleAction(b, func(ab *flux.ActionBuilder[Counter, Decrement]) {
			ab.UseReducer(func(_ Decrement, s Counter) Counter { return Counter{s.Value - 1} })
		})
		flux.HandleAction(b, func(ab *flux.ActionBuilder[Counter, Reset]) {
			ab.UseStateReducer(func(Counter) Counter { return Counter{} })
		})
	})
	if err != nil {
		t.Fatalf("ConfigureState: %v", err)
	}
}

func TestCounterRuntime(t *testing.T) {
	rt := flux.New()
	defer rt.Close()
	configureCounter(t, rt)

	st, err := flux.StoreOf[Counter](rt)
	if err != nil {
		t.Fatalf("StoreOf: %v", err)
	}
	if st.Name() != "counter" {
		t.Errorf("expected store name counter, got %q", st.Name())
	}

	var seen []int
	st.OnChange(func(ctx context.Context, ch store.Change[Counter]) error {
		seen = append(seen, ch.New.Value)
		return nil
	})

	if err := rt.Chain().Dispatch(Increment{}).Then(Increment{}).Then(Decrement{}).Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if st.Current().Value != 1 {
		t.Errorf("expected 1, got %d", st.Current().Value)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 1 {
		t.Errorf("expected [1 2 1], got %v", seen)
	}

	if err := rt.Dispatch(context.Background(), Reset{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if st.Current().Value != 0 {
		t.Errorf("expected reset to 0, got %d", st.Current().Value)
	}
}

func TestProfileCreatorRuntime(t *testing.T) {
	rt := flux.New()
	defer rt.Close()

	err := flux.ConfigureState(rt, "profile", func() Profile { return Profile{} }, func(b *flux.StateBuilder[Profile]) {
		flux.HandleAction(b, func(ab *flux.ActionBuilder[Profile, NameChanged]) {
			ab.UseReducer(func(a NameChanged, s Profile) Profile { return Profile{Name: a.Name} })
		})
	})
	if err != nil {
		t.Fatalf("ConfigureState: %v", err)
	}

	err = flux.RegisterCreator(rt, func(ctx context.Context) (NameChanged, error) {
		time.Sleep(50 * time.Millisecond)
		return NameChanged{Name: "Joe"}, nil
	})
	if err != nil {
		t.Fatalf("RegisterCreator: %v", err)
	}

	if err := rt.Chain().DispatchFrom("profile.name_changed").Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	st, err := flux.StoreOf[Profile](rt)
	if err != nil {
		t.Fatalf("StoreOf: %v", err)
	}
	if st.Current().Name != "Joe" {
		t.Errorf("expected Joe, got %q", st.Current().Name)
	}
}

func TestMiddlewareOrderAcrossBuilders(t *testing.T) {
	rt := flux.New()
	defer rt.Close()

	var order []string
	err := flux.ConfigureState(rt, "counter", func() Counter { return Counter{} }, func(b *flux.StateBuilder[Counter]) {
		b.UseMiddleware(middleware.All(func(ctx context.Context, a action.Action, mc middleware.Context[Counter]) error {
			order = append(order, "all")
			return mc.Next(ctx, a)
		}))
		flux.HandleAction(b, func(ab *flux.ActionBuilder[Counter, Increment]) {
			ab.UseReducer(func(_ Increment, s Counter) Counter { return Counter{s.Value + 1} })
			ab.UseMiddleware(func(ctx context.Context, a Increment, mc middleware.Context[Counter]) error {
				order = append(order, "inc")
				return mc.Next(ctx, a)
			})
		})
		b.OnChange(func(ctx context.Context, ch store.Change[Counter]) error {
			order = append(order, "change")
			return nil
		})
	})
	if err != nil {
		t.Fatalf("ConfigureState: %v", err)
	}

	st, err := flux.StoreOf[Counter](rt)
	if err != nil {
		t.Fatalf("StoreOf: %v", err)
	}

	if err := rt.ChainTo(st).Dispatch(Increment{}).Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []string{"all", "inc", "change"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestRegistrationErrors(t *testing.T) {
	rt := flux.New()
	defer rt.Close()
	configureCounter(t, rt)

	err := flux.ConfigureState(rt, "again", func() Counter { return Counter{} }, nil)
	if !errors.Is(err, flux.ErrDuplicateState) {
		t.Errorf("expected ErrDuplicateState, got %v", err)
	}

	if err := flux.ConfigureState[Profile](rt, "p", nil, nil); !errors.Is(err, flux.ErrNilInitial) {
		t.Errorf("expected ErrNilInitial, got %v", err)
	}

	if _, err := flux.StoreOf[Profile](rt); !errors.Is(err, flux.ErrUnknownState) {
		t.Errorf("expected ErrUnknownState, got %v", err)
	}

	if !rt.Frozen() {
		t.Fatal("StoreOf should freeze the runtime")
	}

	if err := flux.ConfigureState(rt, "profile", func() Profile { return Profile{} }, nil); !errors.Is(err, flux.ErrFrozen) {
		t.Errorf("expected ErrFrozen, got %v", err)
	}
	if err := flux.RegisterDefault[Increment](rt); !errors.Is(err, flux.ErrFrozen) {
		t.Errorf("expected ErrFrozen for creator, got %v", err)
	}
	if err := rt.RegisterCreatorFor("x", action.CreatorFunc(func(context.Context) (action.Action, error) { return Increment{}, nil })); !errors.Is(err, flux.ErrFrozen) {
		t.Errorf("expected ErrFrozen for creator, got %v", err)
	}
}

func TestStatesOrder(t *testing.T) {
	rt := flux.New()
	defer rt.Close()
	configureCounter(t, rt)
	_ = flux.ConfigureState(rt, "", func() Profile { return Profile{} }, nil)

	names := rt.States()
	if len(names) != 2 || names[0] != "counter" || names[1] != "flux_test.Profile" {
		t.Errorf("unexpected states: %v", names)
	}
}

func TestSubscriptions(t *testing.T) {
	rt := flux.New()
	defer rt.Close()
	configureCounter(t, rt)

	if err := rt.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	tags := rt.Subscriptions()
	want := []action.Tag{"counter.decrement", "counter.increment", "counter.reset"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tag %d = %q, want %q", i, tags[i], want[i])
		}
	}

	external := flux.New(flux.WithDispatcher(dispatcher.NewWithDefaults()))
	defer external.Close()
	if external.Subscriptions() != nil {
		t.Error("expected no subscriptions for a caller-supplied dispatcher")
	}
}

func TestQueueConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Dispatcher.Queue = true
	cfg.Dispatcher.EnableMetrics = true

	rt := flux.New(flux.WithConfig(cfg))
	configureCounter(t, rt)

	if _, ok := rt.Dispatcher().(dispatcher.BatchDispatcher); !ok {
		t.Fatalf("expected a batch dispatcher, got %T", rt.Dispatcher())
	}

	st, err := flux.StoreOf[Counter](rt)
	if err != nil {
		t.Fatalf("StoreOf: %v", err)
	}

	if err := rt.Chain().Dispatch(Increment{}).Then(Increment{}).ExecuteBatch(context.Background()); err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if st.Current().Value != 2 {
		t.Errorf("expected 2, got %d", st.Current().Value)
	}
	if rt.Metrics() == nil || rt.Metrics().TotalDispatches() != 2 {
		t.Error("expected metrics for 2 dispatches")
	}

	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rt.Dispatch(context.Background(), Increment{}); !errors.Is(err, dispatcher.ErrQueueStopped) {
		t.Errorf("expected ErrQueueStopped after Close, got %v", err)
	}
}

func TestWithDispatcher(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	rt := flux.New(flux.WithDispatcher(d))
	configureCounter(t, rt)

	st, err := flux.StoreOf[Counter](rt)
	if err != nil {
		t.Fatalf("StoreOf: %v", err)
	}

	_ = d.Dispatch(context.Background(), Increment{})
	if st.Current().Value != 1 {
		t.Errorf("expected store fed by supplied dispatcher, got %d", st.Current().Value)
	}
	if rt.Metrics() != nil {
		t.Error("expected no metrics for a supplied dispatcher")
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseAggregatesErrors(t *testing.T) {
	rt := flux.New()

	var order []int
	errA := errors.New("a")
	errB := errors.New("b")
	rt.AddCloser(closerFunc(func() error { order = append(order, 1); return errA }))
	rt.AddCloser(closerFunc(func() error { order = append(order, 2); return nil }))
	rt.AddCloser(closerFunc(func() error { order = append(order, 3); return errB }))

	err := rt.Close()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both errors, got %v", err)
	}
	if len(order) != 3 || order[0] != 3 || order[2] != 1 {
		t.Errorf("expected reverse close order, got %v", order)
	}

	if err := rt.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
