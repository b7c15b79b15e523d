// Package middleware defines the interception chain a store runs before an
// action reaches the dispatcher.
//
// Each middleware receives the action and a Context with three capabilities:
//
//   - Next continues down the chain, optionally with a substituted action.
//   - Dispatch re-enters the owning store's pipeline from the top.
//   - GetState reads the store's current state.
//
// A middleware may call Next zero times (swallowing the action), once, or many
// times, and may call Dispatch any number of times. Errors returned by a
// middleware propagate unchanged to the caller of the store dispatch.
//
// # Ordering
//
// The first registered middleware is the outermost. The last registered one
// calls the terminal step, which hands the action to the dispatcher.
//
//	Store.Dispatch ──► mw[0] ──► mw[1] ──► ... ──► mw[n-1] ──► dispatcher.Dispatch
package middleware
