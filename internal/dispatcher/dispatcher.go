package dispatcher

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/dispatcher/hook"
	"github.com/dshills/fluxstate/internal/logging"
)

// Callback receives every action dispatched under the tag it subscribed to.
type Callback func(ctx context.Context, a action.Action) error

// Dispatcher routes actions to the callbacks subscribed to their tag.
type Dispatcher interface {
	// Subscribe appends cb to the callbacks for tag.
	Subscribe(tag action.Tag, cb Callback)

	// Dispatch invokes every callback for the action's tag in order and
	// returns the first error.
	Dispatch(ctx context.Context, a action.Action) error
}

// BatchDispatcher dispatches several actions in order as one unit of work.
type BatchDispatcher interface {
	Dispatcher
	DispatchBatch(ctx context.Context, actions ...action.Action) error
}

// AsBatch returns d as a BatchDispatcher or ErrBatchUnsupported.
func AsBatch(d Dispatcher) (BatchDispatcher, error) {
	if b, ok := d.(BatchDispatcher); ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrBatchUnsupported, d)
}

// Option configures a Sync dispatcher.
type Option func(*Sync)

// WithHookManager sets the observation hook manager.
func WithHookManager(m *hook.Manager) Option {
	return func(d *Sync) {
		d.hooks = m
	}
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(l *logging.Logger) Option {
	return func(d *Sync) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRegistry makes the dispatcher use an existing registry.
func WithRegistry(r *Registry) Option {
	return func(d *Sync) {
		if r != nil {
			d.registry = r
		}
	}
}

// Sync dispatches actions on the calling goroutine.
type Sync struct {
	registry *Registry
	config   Config
	metrics  *Metrics
	hooks    *hook.Manager
	logger   *logging.Logger
}

// New creates a new dispatcher with the given configuration.
func New(config Config, opts ...Option) *Sync {
	d := &Sync{
		registry: NewRegistry(),
		config:   config,
		logger:   logging.Nop(),
	}

	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults() *Sync {
	return New(DefaultConfig())
}

// Subscribe implements Dispatcher.
func (d *Sync) Subscribe(tag action.Tag, cb Callback) {
	d.registry.Add(tag, cb)
}

// Dispatch implements Dispatcher.
func (d *Sync) Dispatch(ctx context.Context, a action.Action) error {
	if err := action.Validate(a); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}

	ctx = EnsureCorrelationID(ctx)
	tag := a.ActionTag()
	start := time.Now()

	if d.hooks != nil {
		d.hooks.RunPreDispatch(ctx, a)
	}

	callbacks := d.registry.Snapshot(tag)
	invoked, err := d.fanOut(ctx, tag, a, callbacks)
	duration := time.Since(start)

	if d.metrics != nil {
		d.metrics.RecordDispatch(tag, duration, err)
	}

	if d.hooks != nil {
		d.hooks.RunPostDispatch(ctx, a, hook.Outcome{
			Err:       err,
			Callbacks: invoked,
			Duration:  duration,
		})
	}

	return err
}

// fanOut invokes callbacks in order and stops at the first failure.
// It returns the number of callbacks that were invoked.
func (d *Sync) fanOut(ctx context.Context, tag action.Tag, a action.Action, callbacks []Callback) (int, error) {
	for i, cb := range callbacks {
		var err error
		if d.config.RecoverFromPanic {
			err = d.invokeWithRecovery(ctx, tag, a, cb)
		} else {
			err = cb(ctx, a)
		}
		if err != nil {
			return i + 1, &CallbackError{Tag: tag, Index: i, Err: err}
		}
	}
	return len(callbacks), nil
}

// invokeWithRecovery invokes a callback and converts a panic into an error.
func (d *Sync) invokeWithRecovery(ctx context.Context, tag action.Tag, a action.Action, cb Callback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)

			err = &PanicError{Tag: tag, Value: r, Stack: string(stack[:n])}
			d.logger.Error("callback panic for %s: %v", tag, r)

			if d.metrics != nil {
				d.metrics.RecordPanic(tag)
			}
		}
	}()

	return cb(ctx, a)
}

// Registry returns the callback registry.
func (d *Sync) Registry() *Registry {
	return d.registry
}

// Metrics returns the metrics collector, or nil if metrics are disabled.
func (d *Sync) Metrics() *Metrics {
	return d.metrics
}

// Hooks returns the hook manager, or nil.
func (d *Sync) Hooks() *hook.Manager {
	return d.hooks
}

// Config returns the dispatcher configuration.
func (d *Sync) Config() Config {
	return d.config
}
