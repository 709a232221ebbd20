package flow

import (
	"context"
)

// Map emits fn(v) for each value of f. An error from fn fails the flow.
func Map[I, O any](f *Flow[I], fn func(context.Context, I) (O, error)) *Flow[O] {
	return New(func(ctx context.Context, e Emitter[O]) error {
		return f.collect(ctx, func(v I) error {
			out, err := fn(ctx, v)
			if err != nil {
				return err
			}
			return e.Emit(out)
		})
	})
}

// Scan emits the running accumulation of f's values, starting from seed.
// The seed itself is not emitted.
func Scan[T, R any](f *Flow[T], seed R, fn func(R, T) R) *Flow[R] {
	return New(func(ctx context.Context, e Emitter[R]) error {
		acc := seed
		return f.collect(ctx, func(v T) error {
			acc = fn(acc, v)
			return e.Emit(acc)
		})
	})
}

// Filter forwards the values of f for which pred returns true.
func Filter[T any](f *Flow[T], pred func(T) bool) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		return f.collect(ctx, func(v T) error {
			if !pred(v) {
				return nil
			}
			return e.Emit(v)
		})
	})
}

// OnEach calls fn for each value before forwarding it.
func OnEach[T any](f *Flow[T], fn func(context.Context, T) error) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		return f.collect(ctx, func(v T) error {
			if err := fn(ctx, v); err != nil {
				return err
			}
			return e.Emit(v)
		})
	})
}

// Drop discards the first n values of f and forwards the rest.
func Drop[T any](f *Flow[T], n int) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		skipped := 0
		return f.collect(ctx, func(v T) error {
			if skipped < n {
				skipped++
				return nil
			}
			return e.Emit(v)
		})
	})
}

// DropWhile discards values while pred holds, then forwards everything.
func DropWhile[T any](f *Flow[T], pred func(T) bool) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		dropping := true
		return f.collect(ctx, func(v T) error {
			if dropping && pred(v) {
				return nil
			}
			dropping = false
			return e.Emit(v)
		})
	})
}

// Take forwards at most n values of f. Once the nth value was accepted the
// upstream is cancelled and the flow completes normally. For n <= 0 the
// upstream is never collected.
func Take[T any](f *Flow[T], n int) *Flow[T] {
	if n <= 0 {
		return Empty[T]()
	}
	return New(func(ctx context.Context, e Emitter[T]) error {
		upCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		abort := newAbort("take")
		taken := 0
		err := f.collect(upCtx, func(v T) error {
			if err := e.Emit(v); err != nil {
				return err
			}
			taken++
			if taken < n {
				return nil
			}
			cancel()
			return abort
		})
		return settle(ctx, abort, taken >= n, err)
	})
}

// TakeWhile forwards values while pred holds and completes at the first
// value that fails it, cancelling the upstream.
func TakeWhile[T any](f *Flow[T], pred func(T) bool) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		upCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		abort := newAbort("takeWhile")
		stopped := false
		err := f.collect(upCtx, func(v T) error {
			if pred(v) {
				return e.Emit(v)
			}
			stopped = true
			cancel()
			return abort
		})
		return settle(ctx, abort, stopped, err)
	})
}

// settle maps the result of an upstream collection that an operator may have
// aborted. The operator's own abort, and any cancellation it caused while ctx
// is still live, mean normal completion.
func settle(ctx context.Context, abort *abortError, aborted bool, err error) error {
	if err == nil || abort.owns(err) {
		return nil
	}
	if aborted && ctx.Err() == nil && IsCancellation(err) {
		return nil
	}
	return err
}

// FlatMapConcat maps each value of f to an inner flow and forwards the inner
// flow's values. Inner flows are collected one at a time: the next upstream
// value is requested only after the current inner flow completed.
func FlatMapConcat[I, O any](f *Flow[I], fn func(context.Context, I) (*Flow[O], error)) *Flow[O] {
	return New(func(ctx context.Context, e Emitter[O]) error {
		return f.collect(ctx, func(v I) error {
			inner, err := fn(ctx, v)
			if err != nil {
				return err
			}
			return inner.collect(ctx, e.Emit)
		})
	})
}

// Concat emits all values of each flow in turn.
func Concat[T any](flows ...*Flow[T]) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		for _, f := range flows {
			if e.Cancelled() {
				return nil
			}
			if err := f.collect(ctx, e.Emit); err != nil {
				return err
			}
		}
		return nil
	})
}

// OnStart runs fn before f is collected. Values fn emits precede f's values.
func OnStart[T any](f *Flow[T], fn func(context.Context, Emitter[T]) error) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		if err := fn(ctx, e); err != nil {
			return err
		}
		return f.collect(ctx, e.Emit)
	})
}

// OnCompletion runs action exactly once after f terminated and before the
// terminal state reaches downstream. cause is nil on success,
// context.Canceled when the run was cancelled (including by a downstream
// Take or ErrStop) and the failure otherwise. action receives a context that
// is never cancelled. Its error fails the flow only if f succeeded.
func OnCompletion[T any](f *Flow[T], action func(ctx context.Context, cause error) error) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		err := f.collect(ctx, e.Emit)
		cause := err
		if IsCancellation(err) || (err == nil && ctx.Err() != nil) || (err != nil && err == ctx.Err()) {
			cause = context.Canceled
		}
		if aerr := action(context.WithoutCancel(ctx), cause); aerr != nil && cause == nil {
			return aerr
		}
		return err
	})
}
