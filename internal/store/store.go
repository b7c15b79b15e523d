package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/dispatcher"
	"github.com/dshills/fluxstate/internal/logging"
	"github.com/dshills/fluxstate/internal/middleware"
	"github.com/dshills/fluxstate/internal/reentrant"
)

// Change describes one committed reduction.
type Change[S any] struct {
	Old    S
	New    S
	Action action.Action
}

// ChangeHandler observes committed reductions.
type ChangeHandler[S any] func(ctx context.Context, ch Change[S]) error

// Option configures a store.
type Option[S any] func(*Store[S])

// WithName sets the store name used in logs and errors.
func WithName[S any](name string) Option[S] {
	return func(s *Store[S]) {
		s.name = name
	}
}

// WithReducers binds reducers in order.
func WithReducers[S any](reducers ...Reducer[S]) Option[S] {
	return func(s *Store[S]) {
		s.reducerList = append(s.reducerList, reducers...)
	}
}

// WithMiddleware appends middleware in order.
func WithMiddleware[S any](mws ...middleware.Middleware[S]) Option[S] {
	return func(s *Store[S]) {
		s.middleware = append(s.middleware, mws...)
	}
}

// WithLogger sets the store logger.
func WithLogger[S any](l *logging.Logger) Option[S] {
	return func(s *Store[S]) {
		if l != nil {
			s.logger = l
		}
	}
}

// reducingKey marks the context handed to a store's reducers.
type reducingKey struct {
	lock *reentrant.Lock
}

// Store holds the current snapshot of a state value of type S.
type Store[S any] struct {
	name       string
	dispatcher dispatcher.Dispatcher
	logger     *logging.Logger

	current atomic.Pointer[S]

	reducerList []Reducer[S]
	reducers    map[action.Tag][]Reducer[S]
	middleware  []middleware.Middleware[S]

	chainMu sync.Mutex
	chains  map[action.Tag]middleware.Next

	// lock serializes read-reduce-publish. Change handlers run with the
	// lock's token, so dispatches they start re-enter instead of deadlocking.
	lock reentrant.Lock

	handlersMu sync.RWMutex
	handlers   []ChangeHandler[S]
}

// New creates a store fed by d.
// initial is invoked exactly once to produce the first snapshot.
func New[S any](d dispatcher.Dispatcher, initial func() S, opts ...Option[S]) (*Store[S], error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	if initial == nil {
		return nil, ErrNilInitial
	}

	s := &Store[S]{
		name:       typeName[S](),
		dispatcher: d,
		logger:     logging.Nop(),
		reducers:   make(map[action.Tag][]Reducer[S]),
		chains:     make(map[action.Tag]middleware.Next),
	}
	for _, opt := range opts {
		opt(s)
	}

	first := initial()
	s.current.Store(&first)

	var tags []action.Tag
	for _, r := range s.reducerList {
		tag := r.Tag()
		if _, ok := s.reducers[tag]; !ok {
			tags = append(tags, tag)
		}
		s.reducers[tag] = append(s.reducers[tag], r)
	}

	for _, tag := range tags {
		s.chainFor(tag)
		s.dispatcher.Subscribe(tag, s.reduce)
	}

	s.logger.Debug("store %s: %d reducers over %d tags, %d middleware", s.name, len(s.reducerList), len(tags), len(s.middleware))
	return s, nil
}

// Name returns the store name.
func (s *Store[S]) Name() string {
	return s.name
}

// Current returns the latest published state.
func (s *Store[S]) Current() S {
	return *s.current.Load()
}

// Tags returns the tags the store reduces, in first-bound order.
func (s *Store[S]) Tags() []action.Tag {
	seen := make(map[action.Tag]bool, len(s.reducers))
	var tags []action.Tag
	for _, r := range s.reducerList {
		if !seen[r.Tag()] {
			seen[r.Tag()] = true
			tags = append(tags, r.Tag())
		}
	}
	return tags
}

// OnChange registers a handler for committed reductions.
// Handlers run in registration order. The first error stops the rest and is
// returned to whoever drove the dispatch.
func (s *Store[S]) OnChange(h ChangeHandler[S]) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, h)
}

// DispatchAsync runs a through the middleware chain for its tag and then
// through the dispatcher. It returns once every stage has completed.
func (s *Store[S]) DispatchAsync(ctx context.Context, a action.Action) error {
	if err := action.Validate(a); err != nil {
		return fmt.Errorf("%w: %w", dispatcher.ErrInvalidAction, err)
	}
	return s.chainFor(a.ActionTag())(ctx, a)
}

// Dispatch is DispatchAsync.
func (s *Store[S]) Dispatch(ctx context.Context, a action.Action) error {
	return s.DispatchAsync(ctx, a)
}

// DispatchNew dispatches the zero value of A through st.
func DispatchNew[S any, A action.Action](ctx context.Context, st *Store[S]) error {
	var a A
	return st.DispatchAsync(ctx, a)
}

// chainFor returns the cached chain for tag, building it on first use.
// The middleware list never changes after New, so a cached chain stays valid.
func (s *Store[S]) chainFor(tag action.Tag) middleware.Next {
	s.chainMu.Lock()
	defer s.chainMu.Unlock()

	if next, ok := s.chains[tag]; ok {
		return next
	}
	next := middleware.Build(s.middleware, tag, s.dispatcher.Dispatch, s.DispatchAsync, s.Current)
	s.chains[tag] = next
	return next
}

// reduce is the dispatcher callback for every bound tag.
// Reducers see a context that rejects dispatch back into this store, so a
// reduction always starts from the snapshot it commits over.
func (s *Store[S]) reduce(ctx context.Context, a action.Action) error {
	tag := a.ActionTag()
	if ctx.Value(reducingKey{lock: &s.lock}) != nil {
		return fmt.Errorf("%w: %s dispatched %q", ErrDispatchInReducer, s.name, tag)
	}

	ctx, release := s.lock.Acquire(ctx)
	defer release()

	rctx := context.WithValue(ctx, reducingKey{lock: &s.lock}, true)
	old := s.Current()
	next := old
	for i, r := range s.reducers[tag] {
		ns, err := r.Reduce(rctx, a, next)
		if err != nil {
			return &ReduceError{Store: s.name, Tag: tag, Index: i, Err: err}
		}
		next = ns
	}

	s.current.Store(&next)
	s.logger.Debug("store %s: reduced %s", s.name, tag)

	return s.notify(ctx, Change[S]{Old: old, New: next, Action: a})
}

func (s *Store[S]) notify(ctx context.Context, ch Change[S]) error {
	s.handlersMu.RLock()
	handlers := make([]ChangeHandler[S], len(s.handlers))
	copy(handlers, s.handlers)
	s.handlersMu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, ch); err != nil {
			return err
		}
	}
	return nil
}

// typeName returns a readable name for S.
func typeName[S any]() string {
	t := reflect.TypeOf((*S)(nil)).Elem()
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
