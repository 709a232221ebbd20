package flow

import (
	"context"
	stderrors "errors"
)

// ErrStop may be returned from a collector callback to end the collection
// early. The collection then completes normally.
var ErrStop = stderrors.New("flow: collection stopped")

// Emitter hands values to the downstream collector of one collection.
// It is owned by that collection and must not be retained after the
// production procedure returns.
type Emitter[T any] interface {
	// Emit delivers value downstream and returns once it was accepted.
	// After cancellation the value is dropped and Emit returns nil.
	// A non-nil error means downstream failed or asked to stop; the
	// producer should return it.
	Emit(value T) error
	// Cancelled reports whether the collection was cancelled.
	Cancelled() bool
}

// Flow is a cold stream of values of type T.
// A Flow is immutable and safe to collect concurrently.
type Flow[T any] struct {
	produce func(ctx context.Context, e Emitter[T]) error
}

// New creates a flow from a production procedure. The procedure runs once per
// collection and returns nil when it has emitted everything.
func New[T any](produce func(ctx context.Context, e Emitter[T]) error) *Flow[T] {
	return &Flow[T]{produce: produce}
}

// collect runs one execution of f, handing each value to fn.
func (f *Flow[T]) collect(ctx context.Context, fn func(T) error) error {
	return f.produce(ctx, &emitter[T]{ctx: ctx, fn: fn})
}

// EmitAll collects f as part of another flow's production, forwarding its
// values to e. Cancellation, upstream aborts and errors propagate unchanged.
func EmitAll[T any](ctx context.Context, e Emitter[T], f *Flow[T]) error {
	return f.collect(ctx, e.Emit)
}

type emitter[T any] struct {
	ctx context.Context
	fn  func(T) error
}

func (e *emitter[T]) Emit(value T) error {
	if e.ctx.Err() != nil {
		return nil
	}
	return e.fn(value)
}

func (e *emitter[T]) Cancelled() bool { return e.ctx.Err() != nil }

// abortError ends an upstream collection on behalf of the operator that owns it.
type abortError struct{ owner string }

func (e *abortError) Error() string { return "flow: " + e.owner + " aborted upstream" }

func newAbort(owner string) *abortError { return &abortError{owner: owner} }

// owns reports whether err is exactly this abort signal.
func (e *abortError) owns(err error) bool {
	var ae *abortError
	return stderrors.As(err, &ae) && ae == e
}

// IsCancellation reports whether err signals cooperative cancellation rather
// than a failure.
func IsCancellation(err error) bool {
	if err == nil {
		return false
	}
	var ae *abortError
	return stderrors.Is(err, ErrStop) || stderrors.Is(err, context.Canceled) || stderrors.As(err, &ae)
}
