// Package flux wires dispatchers, stores, middleware and creators together.
//
// A Runtime owns one dispatcher and a registry of state containers. State
// containers are configured up front, each with its reducers and middleware
// grouped by action type:
//
//	rt := flux.New(flux.WithLogger(logger))
//	err := flux.ConfigureState(rt, "counter", func() Counter { return Counter{} },
//		func(b *flux.StateBuilder[Counter]) {
//			flux.HandleAction(b, func(ab *flux.ActionBuilder[Counter, Increment]) {
//				ab.UseReducer(func(_ Increment, s Counter) Counter { return Counter{s.Value + 1} })
//			})
//		})
//	st, err := flux.StoreOf[Counter](rt)
//
// The first call to StoreOf, Chain or Freeze builds every configured store and
// freezes the runtime. Later registrations fail with ErrFrozen.
package flux
