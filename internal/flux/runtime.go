package flux

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sync"

	"go.uber.org/multierr"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/chain"
	"github.com/dshills/fluxstate/internal/config"
	"github.com/dshills/fluxstate/internal/dispatcher"
	"github.com/dshills/fluxstate/internal/dispatcher/hook"
	"github.com/dshills/fluxstate/internal/logging"
	"github.com/dshills/fluxstate/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithDispatcher makes the runtime use d instead of building one from config.
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(rt *Runtime) {
		rt.dispatcher = d
	}
}

// WithLogger sets the runtime logger.
func WithLogger(l *logging.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithConfig sets the configuration used to build the dispatcher.
func WithConfig(cfg config.Config) Option {
	return func(rt *Runtime) {
		rt.cfg = cfg
	}
}

// WithHooks registers dispatch observation hooks on the built dispatcher.
// They are ignored when WithDispatcher supplies the dispatcher.
func WithHooks(hooks ...hook.Hook) Option {
	return func(rt *Runtime) {
		for _, h := range hooks {
			rt.hooks.Register(h)
		}
	}
}

// stateEntry is one configured state container.
type stateEntry struct {
	name  string
	build func() (any, error)
	store any
}

// Runtime owns a dispatcher and the stores fed by it.
type Runtime struct {
	mu sync.Mutex

	cfg        config.Config
	logger     *logging.Logger
	dispatcher dispatcher.Dispatcher
	queue      *dispatcher.Queue
	local      *dispatcher.Sync
	hooks      *hook.Manager
	creators   *action.Creators

	states map[reflect.Type]*stateEntry
	order  []reflect.Type

	frozen   bool
	buildErr error
	closers  []io.Closer
}

// New creates a runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		cfg:      config.Default(),
		logger:   logging.Nop(),
		hooks:    hook.NewManager(),
		creators: action.NewCreators(),
		states:   make(map[reflect.Type]*stateEntry),
	}
	for _, opt := range opts {
		opt(rt)
	}

	if rt.dispatcher == nil {
		rt.hooks.Register(hook.NewAuditHook(rt.logger.WithComponent("dispatcher")))

		dcfg := dispatcher.DefaultConfig().
			WithPanicRecovery(rt.cfg.Dispatcher.RecoverFromPanic).
			WithQueueBuffer(rt.cfg.Dispatcher.QueueBuffer)
		if rt.cfg.Dispatcher.EnableMetrics {
			dcfg = dcfg.WithMetrics()
		}

		rt.local = dispatcher.New(dcfg,
			dispatcher.WithLogger(rt.logger.WithComponent("dispatcher")),
			dispatcher.WithHookManager(rt.hooks),
		)
		rt.dispatcher = rt.local

		if rt.cfg.Dispatcher.Queue {
			rt.queue = dispatcher.NewQueue(rt.local)
			rt.queue.Start()
			rt.dispatcher = rt.queue
		}
	}

	return rt
}

// Dispatcher returns the runtime dispatcher.
func (rt *Runtime) Dispatcher() dispatcher.Dispatcher {
	return rt.dispatcher
}

// Subscriptions returns the tags with dispatcher subscriptions, sorted, or
// nil when the dispatcher was supplied by the caller.
func (rt *Runtime) Subscriptions() []action.Tag {
	if rt.local == nil {
		return nil
	}
	return rt.local.Registry().Tags()
}

// Metrics returns dispatch metrics, or nil when they are disabled or the
// dispatcher was supplied by the caller.
func (rt *Runtime) Metrics() *dispatcher.Metrics {
	if rt.local == nil {
		return nil
	}
	return rt.local.Metrics()
}

// Creators returns the creator registry.
func (rt *Runtime) Creators() *action.Creators {
	return rt.creators
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *logging.Logger {
	return rt.logger
}

// Config returns the runtime configuration.
func (rt *Runtime) Config() config.Config {
	return rt.cfg
}

// States returns the configured state names in configuration order.
func (rt *Runtime) States() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	names := make([]string, len(rt.order))
	for i, t := range rt.order {
		names[i] = rt.states[t].name
	}
	return names
}

// Frozen reports whether the runtime has been frozen.
func (rt *Runtime) Frozen() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.frozen
}

// Freeze builds every configured store and rejects further registration.
// Stores are built in configuration order, so for a shared tag the store
// configured first reduces first.
func (rt *Runtime) Freeze() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.frozen {
		return rt.buildErr
	}
	rt.frozen = true

	for _, t := range rt.order {
		e := rt.states[t]
		st, err := e.build()
		if err != nil {
			rt.buildErr = multierr.Append(rt.buildErr, fmt.Errorf("building state %s: %w", e.name, err))
			continue
		}
		e.store = st
	}

	rt.logger.Debug("runtime frozen with %d states, subscribed to %v", len(rt.order), rt.Subscriptions())
	return rt.buildErr
}

// Dispatch sends a directly to the dispatcher, bypassing store middleware.
func (rt *Runtime) Dispatch(ctx context.Context, a action.Action) error {
	if err := rt.Freeze(); err != nil {
		return err
	}
	return rt.dispatcher.Dispatch(ctx, a)
}

// Chain returns a new sequencer targeting the dispatcher.
// It freezes the runtime; a build failure is reported by Execute.
func (rt *Runtime) Chain() *chain.Sequencer {
	if err := rt.Freeze(); err != nil {
		return chain.New(failedTarget{err: err}, rt.creators)
	}
	return chain.New(rt.dispatcher, rt.creators)
}

// ChainTo returns a new sequencer targeting a store or other target.
func (rt *Runtime) ChainTo(target chain.Target) *chain.Sequencer {
	return chain.New(target, rt.creators)
}

// AddCloser registers a resource released by Close.
func (rt *Runtime) AddCloser(c io.Closer) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.closers = append(rt.closers, c)
}

// Close stops the queue dispatcher, if any, and releases registered
// resources in reverse order. Every failure is reported.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	closers := rt.closers
	rt.closers = nil
	rt.mu.Unlock()

	if rt.queue != nil {
		rt.queue.Stop()
	}

	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i].Close())
	}
	return err
}

// failedTarget rejects every dispatch with a stored build error.
type failedTarget struct {
	err error
}

func (f failedTarget) Dispatch(context.Context, action.Action) error {
	return f.err
}

// ConfigureState registers a state container for type S.
// configure may be nil for a state with no reducers yet.
func ConfigureState[S any](rt *Runtime, name string, initial func() S, configure func(b *StateBuilder[S])) error {
	if initial == nil {
		return ErrNilInitial
	}

	t := stateType[S]()
	if name == "" {
		name = t.String()
	}

	if err := rt.checkRegistration(t); err != nil {
		return err
	}

	b := &StateBuilder[S]{}
	if configure != nil {
		configure(b)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.frozen {
		return ErrFrozen
	}
	if _, ok := rt.states[t]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateState, t)
	}

	logger := rt.logger.WithComponent("store").WithField("state", name)
	rt.states[t] = &stateEntry{
		name: name,
		build: func() (any, error) {
			st, err := store.New(rt.dispatcher, initial,
				store.WithName[S](name),
				store.WithReducers(b.reducers...),
				store.WithMiddleware(b.middleware...),
				store.WithLogger[S](logger),
			)
			if err != nil {
				return nil, err
			}
			for _, h := range b.handlers {
				st.OnChange(h)
			}
			return st, nil
		},
	}
	rt.order = append(rt.order, t)
	return nil
}

func (rt *Runtime) checkRegistration(t reflect.Type) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.frozen {
		return ErrFrozen
	}
	if _, ok := rt.states[t]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateState, t)
	}
	return nil
}

// StoreOf returns the store for state type S, freezing the runtime.
func StoreOf[S any](rt *Runtime) (*store.Store[S], error) {
	if err := rt.Freeze(); err != nil {
		return nil, err
	}

	t := stateType[S]()

	rt.mu.Lock()
	e, ok := rt.states[t]
	rt.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, t)
	}

	st, ok := e.store.(*store.Store[S])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, t)
	}
	return st, nil
}

// RegisterCreator registers a typed creator under the tag of A.
func RegisterCreator[A action.Action](rt *Runtime, fn func(ctx context.Context) (A, error)) error {
	if err := rt.checkOpen(); err != nil {
		return err
	}
	action.RegisterCreator(rt.creators, fn)
	return nil
}

// RegisterDefault registers the zero value of A as the factory for its tag.
func RegisterDefault[A action.Action](rt *Runtime) error {
	if err := rt.checkOpen(); err != nil {
		return err
	}
	action.RegisterDefault[A](rt.creators)
	return nil
}

// RegisterCreatorFor registers an untyped creator under an explicit tag.
func (rt *Runtime) RegisterCreatorFor(tag action.Tag, c action.Creator) error {
	if err := rt.checkOpen(); err != nil {
		return err
	}
	rt.creators.Register(tag, c)
	return nil
}

func (rt *Runtime) checkOpen() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.frozen {
		return ErrFrozen
	}
	return nil
}

func stateType[S any]() reflect.Type {
	return reflect.TypeOf((*S)(nil)).Elem()
}
