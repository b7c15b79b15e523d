// Package dispatcher routes actions to subscribed callbacks by tag.
//
// A dispatcher keeps an ordered list of callbacks per action tag. Dispatching
// an action looks up the tag at dispatch time, snapshots the list, and invokes
// the callbacks one after another, awaiting each before starting the next.
// The first callback error aborts the remaining callbacks and is returned to
// the caller wrapped in a *CallbackError.
//
// # Architecture
//
//	Action ──► Dispatch ──► Pre-Hooks ──► Registry ──► Callbacks ──► Post-Hooks
//	                                                        │
//	                                                        ▼
//	                                                 first error aborts
//
// # Implementations
//
//   - Sync: dispatches on the calling goroutine.
//   - Queue: serializes every dispatch through a single worker goroutine and
//     supports batch dispatch.
//
// # Usage
//
//	d := dispatcher.NewWithDefaults()
//	d.Subscribe("counter.increment", func(ctx context.Context, a action.Action) error {
//		return nil
//	})
//	err := d.Dispatch(ctx, Increment{})
//
// # Hooks and Metrics
//
// Observation hooks from the hook package see every dispatch and its outcome
// but cannot change it. Per-tag metrics are collected when enabled in Config.
//
// # Thread Safety
//
// Subscribe and Dispatch may be called concurrently. Dispatch iterates over a
// snapshot, so subscriptions added during a dispatch take effect on the next one.
package dispatcher
