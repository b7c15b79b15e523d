// Package script runs Lua functions as store middleware.
//
// A State is a sandboxed gopher-lua interpreter with only the base, table,
// string and math libraries opened. Middleware built from a State calls a
// global Lua function for every action it applies to:
//
//	function handle(action)
//	  if action.tag == "document.set" and action.payload.path == "locked" then
//	    return false                -- drop the action
//	  end
//	  flux.next()                   -- continue down the chain
//	  if flux.get("count") > 10 then
//	    flux.dispatch("document.set", { path = "overflow", value = true })
//	  end
//	end
//
// The flux table is available while the function runs:
//
//   - flux.next() continues with the current action.
//   - flux.dispatch(tag [, payload]) re-enters the store with a new action.
//     Without a payload the action comes from the creator registry when one
//     is registered for tag.
//   - flux.get(path) reads a value from the JSON form of the current state.
//   - flux.log(msg) writes to the middleware logger.
//
// If the function neither calls flux.next nor returns false, the action
// continues down the chain after the function returns.
package script
