// Package store holds typed state snapshots that change only through
// reducers fed by a dispatcher.
//
// A Store[S] subscribes to the dispatcher once per distinct reducer tag. When
// an action with such a tag is dispatched, the store takes its lock, folds the
// action through the reducers bound to the tag in registration order, publishes
// the result as the new Current, and notifies change handlers before releasing
// the lock. A failing reducer leaves Current untouched and notifies nobody.
//
// Actions enter a store through DispatchAsync, which first runs the store's
// middleware chain for the action's tag. The chain ends at the dispatcher, so
// every store subscribed to the tag reduces the action.
//
// # Re-entrancy
//
// A dispatch issued from a change handler with the context it was given
// re-enters the store without waiting for the reduction that notified it.
// Such nested dispatches are serialized with each other, including ones the
// handler starts on other goroutines, and each runs its own full
// read-reduce-publish. A context that does not descend from the handler's, or
// that outlived the handler, waits for the lock like any other caller.
//
// Reducers must not dispatch into their own store; doing so fails with
// ErrDispatchInReducer.
//
// # Reading State
//
// Current never blocks. It returns the latest published snapshot.
package store
