// Package chain runs an ordered list of actions one after another.
//
// A Sequencer collects steps. Each step yields one action, either a literal
// value, the zero value of a type, the result of a creator, or a creator looked
// up by tag when the chain runs. Execute obtains and dispatches each action in
// order and waits for the dispatch to complete before starting the next step.
// The first failure stops the chain.
//
//	err := chain.New(counterStore, creators).
//		Dispatch(Increment{}).
//		Then(Increment{}).
//		ThenCreator(loadName).
//		Execute(ctx)
//
// The target may be a dispatcher, which skips store middleware, or a store,
// which runs its middleware chain for every step.
package chain
