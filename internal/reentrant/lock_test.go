package reentrant

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestAcquireExcludes(t *testing.T) {
	var l Lock
	var active, maxActive atomic.Int32

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, release := l.Acquire(context.Background())
			defer release()

			n := active.Add(1)
			if n > maxActive.Load() {
				maxActive.Store(n)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			return nil
		})
	}
	_ = g.Wait()

	if maxActive.Load() != 1 {
		t.Errorf("expected one holder at a time, saw %d", maxActive.Load())
	}
}

func TestNestedOnSameGoroutine(t *testing.T) {
	var l Lock
	ctx, release := l.Acquire(context.Background())
	defer release()

	nctx, nrelease, ok := l.Nested(ctx)
	if !ok {
		t.Fatal("expected a nested section")
	}
	_, inner := l.Acquire(nctx)
	inner()
	nrelease()
}

func TestNestedWithoutToken(t *testing.T) {
	var l Lock
	if _, _, ok := l.Nested(context.Background()); ok {
		t.Error("expected no nested section without a token")
	}

	var other Lock
	ctx, release := other.Acquire(context.Background())
	defer release()
	if _, _, ok := l.Nested(ctx); ok {
		t.Error("a token for another lock must not enter l")
	}
}

func TestNestedFanOutSerializes(t *testing.T) {
	var l Lock
	ctx, release := l.Acquire(context.Background())

	var active, maxActive atomic.Int32
	total := 0

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			_, done := l.Acquire(ctx)
			defer done()

			n := active.Add(1)
			if n > maxActive.Load() {
				maxActive.Store(n)
			}
			total++
			time.Sleep(100 * time.Microsecond)
			active.Add(-1)
			return nil
		})
	}
	_ = g.Wait()
	release()

	if maxActive.Load() != 1 {
		t.Errorf("expected nested sections to serialize, saw %d active", maxActive.Load())
	}
	if total != 50 {
		t.Errorf("expected 50 sections, got %d", total)
	}
}

func TestReleasedTokenFallsBack(t *testing.T) {
	var l Lock
	stale, release := l.Acquire(context.Background())
	release()

	if _, _, ok := l.Nested(stale); ok {
		t.Fatal("a released token must not enter a nested section")
	}

	_, hold := l.Acquire(context.Background())
	entered := make(chan struct{})
	go func() {
		_, done := l.Acquire(stale)
		close(entered)
		done()
	}()

	select {
	case <-entered:
		t.Fatal("a released token must wait for the lock")
	case <-time.After(20 * time.Millisecond):
	}
	hold()
	<-entered
}

func TestReleasedNestedTokenUsesParent(t *testing.T) {
	var l Lock
	ctx, release := l.Acquire(context.Background())
	defer release()

	nctx, nrelease, _ := l.Nested(ctx)
	nrelease()

	if _, done, ok := l.Nested(nctx); !ok {
		t.Error("expected the open parent section to be entered")
	} else {
		done()
	}
}

func TestHoldAndSuspend(t *testing.T) {
	var l Lock
	ctx, release := l.Acquire(context.Background())
	unhold := l.Hold(ctx)

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	entered := make(chan struct{})
	go func() {
		_, done := l.Acquire(ctx)
		record("nested")
		done()
		close(entered)
	}()

	time.Sleep(20 * time.Millisecond)
	record("owner")

	resume := l.Suspend(ctx)
	<-entered
	resume()
	unhold()
	release()

	if len(order) != 2 || order[0] != "owner" || order[1] != "nested" {
		t.Errorf("expected the hold to keep nested work out, got %v", order)
	}
}
