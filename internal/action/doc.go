// Package action defines the contracts that flow through the dispatch pipeline.
//
// An Action is an immutable value carrying exactly one Tag. The tag is the
// routing key used by the dispatcher to find subscribers, and by stores to
// bind reducers and middleware. Concrete actions are plain value types:
//
//	type Increment struct{}
//
//	func (Increment) ActionTag() action.Tag { return "counter.increment" }
//
// TagOf derives the tag of a concrete action type from its zero value, which
// is how typed adapters bind to a tag without scanning types at runtime.
//
// # Creators
//
// A Creator produces one action on demand, possibly after asynchronous work
// such as fetching data. The Creators registry maps tags to creators or
// zero-argument factories so that a chain step or a script can ask for an
// action by tag alone.
package action
