package dispatch

import "context"

type executionKey struct{}

type execution struct {
	dispatcher Dispatcher
	worker     string
}

func withExecution(ctx context.Context, d Dispatcher, worker string) context.Context {
	return context.WithValue(ctx, executionKey{}, execution{dispatcher: d, worker: worker})
}

// Current returns the dispatcher executing ctx, or Inline when ctx was not
// produced by a dispatcher.
func Current(ctx context.Context) Dispatcher {
	if ex, ok := ctx.Value(executionKey{}).(execution); ok {
		return ex.dispatcher
	}
	return Inline()
}

// Describe names the worker executing ctx, e.g. "io-worker-2", or "caller".
func Describe(ctx context.Context) string {
	if ex, ok := ctx.Value(executionKey{}).(execution); ok {
		return ex.worker
	}
	return CallerName
}
