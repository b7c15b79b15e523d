package script

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/fluxstate/internal/reentrant"
)

// State wraps a gopher-lua interpreter.
//
// gopher-lua's LState is not goroutine-safe; every operation on a State holds
// its lock for the duration of the call. Go functions called from Lua release
// the hold through suspend while they run.
type State struct {
	L *lua.LState

	lock    reentrant.Lock
	timeout time.Duration
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithTimeout bounds each call into Lua. Zero means no bound.
func WithTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	s := &State{}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)
	s.L = L

	return s
}

// openSafeLibraries opens only libraries without file, process or module access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Base opens these loaders; remove them so scripts cannot read files.
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
}

// DoString executes a Lua chunk.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.with(ctx, func(_ context.Context, L *lua.LState) error {
		if err := L.DoString(code); err != nil {
			return &ScriptError{Function: "<chunk>", Err: err}
		}
		return nil
	})
}

// Has reports whether a global function is defined.
func (s *State) Has(fn string) bool {
	_, release := s.lock.Acquire(context.Background())
	defer release()

	if s.closed {
		return false
	}
	return s.L.GetGlobal(fn).Type() == lua.LTFunction
}

// with runs fn holding the lock, with the call bounded by ctx and the timeout.
// A call made from Go code that Lua itself invoked carries the lock's token in
// ctx and runs as a nested section, within the outer call's bound.
func (s *State) with(ctx context.Context, fn func(ctx context.Context, L *lua.LState) error) (err error) {
	if nctx, release, ok := s.lock.Nested(ctx); ok {
		defer release()
		unhold := s.lock.Hold(nctx)
		defer unhold()
		return fn(nctx, s.L)
	}

	ctx, release := s.lock.Acquire(ctx)
	defer release()

	if s.closed {
		return ErrStateClosed
	}
	unhold := s.lock.Hold(ctx)
	defer unhold()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script: lua panic: %v", r)
		}
	}()
	return fn(ctx, s.L)
}

// suspend runs fn, a call out of Lua made inside with, with the hold lifted so
// that nested calls from other goroutines can use the state meanwhile.
func (s *State) suspend(ctx context.Context, fn func() error) error {
	resume := s.lock.Suspend(ctx)
	defer resume()
	return fn()
}

// call invokes a global function and returns its first result.
// It must run inside with.
func call(L *lua.LState, fn string, args ...lua.LValue) (lua.LValue, error) {
	fnVal := L.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("%w: %s", ErrNoFunction, fn)
	}

	err := L.CallByParam(lua.P{
		Fn:      fnVal,
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		return lua.LNil, &ScriptError{Function: fn, Err: err}
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases the interpreter. Closing twice is a no-op.
func (s *State) Close() error {
	_, release := s.lock.Acquire(context.Background())
	defer release()

	if s.closed {
		return nil
	}
	s.closed = true
	s.L.Close()
	return nil
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	_, release := s.lock.Acquire(context.Background())
	defer release()
	return s.closed
}
