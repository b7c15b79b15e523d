package dispatcher

import (
	"context"
	"sync"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/reentrant"
)

// request is one unit of work for the queue worker.
type request struct {
	ctx     context.Context
	actions []action.Action
	result  chan error
}

// Queue serializes all dispatches through a single worker goroutine.
// A dispatch issued with the context of a request the worker is running runs
// inline, one at a time, even when issued from another goroutine.
type Queue struct {
	inner    *Sync
	lock     reentrant.Lock
	requests chan request
	done     chan struct{}
	stopped  chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewQueue creates a queue dispatcher around inner.
// The queue must be started before it accepts dispatches.
func NewQueue(inner *Sync) *Queue {
	buf := inner.config.QueueBuffer
	if buf <= 0 {
		buf = DefaultConfig().QueueBuffer
	}
	return &Queue{
		inner:    inner,
		requests: make(chan request, buf),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start starts the worker goroutine. Starting twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.closed {
		return
	}
	q.started = true
	go q.loop()
}

// Stop stops the worker and waits for it to exit.
// Requests still buffered are rejected with ErrQueueStopped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	started := q.started
	close(q.done)
	q.mu.Unlock()

	if started {
		<-q.stopped
	} else {
		close(q.stopped)
	}
}

// Running reports whether the worker accepts dispatches.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.started && !q.closed
}

// Subscribe implements Dispatcher.
func (q *Queue) Subscribe(tag action.Tag, cb Callback) {
	q.inner.Subscribe(tag, cb)
}

// Dispatch implements Dispatcher.
func (q *Queue) Dispatch(ctx context.Context, a action.Action) error {
	return q.DispatchBatch(ctx, a)
}

// DispatchBatch implements BatchDispatcher.
// The actions are dispatched in order and the call returns once all of them
// completed or the first one failed.
func (q *Queue) DispatchBatch(ctx context.Context, actions ...action.Action) error {
	if len(actions) == 0 {
		return nil
	}

	if nctx, release, ok := q.lock.Nested(ctx); ok {
		defer release()
		return q.run(nctx, actions)
	}

	if !q.Running() {
		return ErrQueueStopped
	}

	req := request{ctx: ctx, actions: actions, result: make(chan error, 1)}
	select {
	case q.requests <- req:
	case <-q.done:
		return ErrQueueStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.result:
		return err
	case <-q.stopped:
		select {
		case err := <-req.result:
			return err
		default:
			return ErrQueueStopped
		}
	}
}

func (q *Queue) loop() {
	defer close(q.stopped)

	for {
		select {
		case <-q.done:
			q.drain()
			return
		case req := <-q.requests:
			ctx, release := q.lock.Acquire(req.ctx)
			err := q.run(ctx, req.actions)
			release()
			req.result <- err
		}
	}
}

// drain rejects requests buffered at shutdown.
func (q *Queue) drain() {
	for {
		select {
		case req := <-q.requests:
			req.result <- ErrQueueStopped
		default:
			return
		}
	}
}

func (q *Queue) run(ctx context.Context, actions []action.Action) error {
	for _, a := range actions {
		if err := q.inner.Dispatch(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Inner returns the wrapped dispatcher.
func (q *Queue) Inner() *Sync {
	return q.inner
}
