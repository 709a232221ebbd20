// Package flow provides cold, cancellable, asynchronous streams.
//
// A Flow is an inert description of how to produce values. Nothing runs until
// the flow is collected, and every collection runs the production procedure
// again from scratch with its own Emitter and context:
//
//	f := flow.New(func(ctx context.Context, e flow.Emitter[int]) error {
//	    fmt.Println("producing")
//	    return e.Emit(1)
//	})
//	flow.ForEach(ctx, f, print) // producing, 1
//	flow.ForEach(ctx, f, print) // producing, 1
//
// # Operators
//
// Operators wrap a flow and return a new one. They are ordinary functions
// because Go methods cannot introduce type parameters.
//
//   - Map, Filter, OnEach, Scan: per-value transformation
//   - Drop, Take, DropWhile, TakeWhile: windowing; Take cancels its upstream
//   - FlatMapConcat, Concat: sequential flattening
//   - Zip: positional pairing of two flows
//   - FlowOn, Buffer: move production onto a dispatcher or another goroutine
//   - OnStart, OnCompletion: lifecycle hooks
//   - Timeout, Throttle, Debounce, Batch: time based
//   - Catch, Retry: explicit recovery from upstream failures
//
// # Collection
//
// Run drives a flow with OnValue/OnError/OnComplete callbacks and reports
// exactly one terminal event. ForEach, Collect, First, Reduce, Count and Drain
// are built on Run. Launch runs a collection on a dispatcher in the
// background.
//
// # Cancellation
//
// The collection's context is its cancellation token. Producers check
// Emitter.Cancelled (or ctx) between emissions; an Emit after cancellation
// drops the value and returns nil. Cancellation, whether requested by the
// consumer returning ErrStop, by Take, or by the caller's context, completes
// the collection normally and is never reported as an error.
//
// # Callback bridge
//
// Callback adapts push-style APIs: register a listener that calls Bridge.Send
// from any goroutine and Close when done. Values are buffered from the moment
// the bridge exists, so nothing sent before the consumer starts pulling is lost.
package flow
