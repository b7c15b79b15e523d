package script

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/logging"
	"github.com/dshills/fluxstate/internal/middleware"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultFunction is the Lua function called when Options.Function is empty.
const DefaultFunction = "handle"

// Options configures a script middleware.
type Options[S any] struct {
	// Function is the global Lua function to call.
	Function string

	// Tags limits the middleware to these tags. Empty means every tag.
	Tags []action.Tag

	// Encode renders the state as JSON for flux.get. Nil disables flux.get.
	Encode func(S) ([]byte, error)

	// Creators resolves flux.dispatch calls made without a payload.
	Creators *action.Creators

	Logger *logging.Logger
}

// invocation is the per-call context behind the flux table.
type invocation[S any] struct {
	ctx        context.Context
	action     action.Action
	mc         middleware.Context[S]
	nextCalled bool
	err        error
}

type handler[S any] struct {
	state *State
	opts  Options[S]
}

// Middleware returns store middleware that calls a Lua function.
func Middleware[S any](st *State, opts Options[S]) middleware.Middleware[S] {
	if opts.Function == "" {
		opts.Function = DefaultFunction
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	pred := middleware.AnyTag
	if len(opts.Tags) > 0 {
		pred = middleware.Tags(opts.Tags...)
	}

	h := &handler[S]{state: st, opts: opts}
	return middleware.When(pred, h.handle)
}

func (h *handler[S]) handle(ctx context.Context, a action.Action, mc middleware.Context[S]) error {
	inv := &invocation[S]{action: a, mc: mc}

	var ret lua.LValue = lua.LNil
	err := h.state.with(ctx, func(ctx context.Context, L *lua.LState) error {
		inv.ctx = ctx

		prev := L.GetGlobal("flux")
		L.SetGlobal("flux", h.api(L, inv))
		defer L.SetGlobal("flux", prev)

		arg, err := actionToLua(L, a)
		if err != nil {
			return err
		}

		ret, err = call(L, h.opts.Function, arg)
		return err
	})

	// A Go error raised through flux.next or flux.dispatch is returned as is.
	if inv.err != nil {
		return inv.err
	}
	if err != nil {
		return err
	}

	if inv.nextCalled || ret == lua.LFalse {
		return nil
	}
	return mc.Next(ctx, a)
}

// api builds the flux table bound to one invocation.
func (h *handler[S]) api(L *lua.LState, inv *invocation[S]) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"next": func(L *lua.LState) int {
			inv.nextCalled = true
			next := inv.action
			if L.GetTop() > 0 {
				next = namedFromArgs(L)
			}
			err := h.state.suspend(inv.ctx, func() error {
				return inv.mc.Next(inv.ctx, next)
			})
			if err != nil {
				inv.fail(L, err)
			}
			return 0
		},
		"dispatch": func(L *lua.LState) int {
			a, err := h.resolve(inv.ctx, L)
			if err != nil {
				inv.fail(L, err)
				return 0
			}
			err = h.state.suspend(inv.ctx, func() error {
				return inv.mc.Dispatch(inv.ctx, a)
			})
			if err != nil {
				inv.fail(L, err)
			}
			return 0
		},
		"get": func(L *lua.LState) int {
			path := L.CheckString(1)
			if h.opts.Encode == nil {
				L.Push(lua.LNil)
				return 1
			}
			data, err := h.opts.Encode(inv.mc.GetState())
			if err != nil {
				inv.fail(L, fmt.Errorf("encoding state: %w", err))
				return 0
			}
			res := gjson.GetBytes(data, path)
			if !res.Exists() {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(toLua(L, res.Value()))
			return 1
		},
		"log": func(L *lua.LState) int {
			h.opts.Logger.Info("script: %s", L.CheckString(1))
			return 0
		},
	})
}

// resolve builds the action for flux.dispatch.
func (h *handler[S]) resolve(ctx context.Context, L *lua.LState) (action.Action, error) {
	tag := action.Tag(L.CheckString(1))
	if L.GetTop() < 2 && h.opts.Creators != nil && h.opts.Creators.Has(tag) {
		return h.opts.Creators.Resolve(ctx, tag)
	}
	return namedFromArgs(L), nil
}

// fail records err and raises it as a Lua error.
func (inv *invocation[S]) fail(L *lua.LState, err error) {
	if inv.err == nil {
		inv.err = err
	}
	L.RaiseError("%s", err.Error())
}

// namedFromArgs reads (tag, payload) from the Lua stack.
func namedFromArgs(L *lua.LState) action.Named {
	n := action.Named{Name: action.Tag(L.CheckString(1))}
	if t, ok := L.Get(2).(*lua.LTable); ok {
		if m, ok := toGo(t).(map[string]any); ok {
			n.Payload = m
		}
	}
	return n
}

// actionToLua renders an action as {tag = ..., payload = {...}}.
func actionToLua(L *lua.LState, a action.Action) (*lua.LTable, error) {
	t := L.NewTable()
	t.RawSetString("tag", lua.LString(a.ActionTag()))

	var payload any
	if n, ok := a.(action.Named); ok {
		payload = map[string]any(n.Payload)
	} else {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encoding action %s: %w", a.ActionTag(), err)
		}
		payload = gjson.ParseBytes(data).Value()
	}

	t.RawSetString("payload", toLua(L, payload))
	return t, nil
}
