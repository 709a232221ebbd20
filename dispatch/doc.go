// Package dispatch provides the execution contexts a flow's production logic
// can be moved onto with flow.FlowOn.
//
// A Dispatcher runs tasks somewhere: inline on the calling goroutine
// (Inline), on a fresh goroutine per task (Go), or on a fixed set of worker
// goroutines (Pool). Every task receives a context that records which
// dispatcher and worker is executing it, so code can report where it runs:
//
//	io := dispatch.NewPool(dispatch.PoolConfig{Name: "io", Workers: 8})
//	defer io.Shutdown(ctx)
//
//	_ = io.Dispatch(ctx, func(ctx context.Context) {
//	    fmt.Println(dispatch.Describe(ctx)) // io-worker-3
//	})
//
// Dispatchers never interpret task contents; cancellation is carried by the
// task context and is cooperative.
package dispatch
