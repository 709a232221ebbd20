package flow

import (
	"context"
	"iter"
)

// Of creates a flow that emits the given values.
func Of[T any](values ...T) *Flow[T] {
	return FromSlice(values)
}

// FromSlice creates a flow that emits the elements of items in order.
func FromSlice[T any](items []T) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		for _, v := range items {
			if e.Cancelled() {
				return nil
			}
			if err := e.Emit(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Range emits the integers from lo to hi inclusive.
func Range(lo, hi int) *Flow[int] {
	return New(func(ctx context.Context, e Emitter[int]) error {
		for i := lo; i <= hi; i++ {
			if e.Cancelled() {
				return nil
			}
			if err := e.Emit(i); err != nil {
				return err
			}
		}
		return nil
	})
}

// Generate emits next() forever. The flow only ends through cancellation,
// typically by a downstream Take.
func Generate[T any](next func() T) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		for !e.Cancelled() {
			if err := e.Emit(next()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Iterate emits seed, next(seed), next(next(seed)), ... forever.
func Iterate[T any](seed T, next func(T) T) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		for v := seed; !e.Cancelled(); v = next(v) {
			if err := e.Emit(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Empty creates a flow that completes without emitting.
func Empty[T any]() *Flow[T] {
	return New(func(context.Context, Emitter[T]) error { return nil })
}

// Fail creates a flow that fails with err without emitting.
func Fail[T any](err error) *Flow[T] {
	return New(func(context.Context, Emitter[T]) error { return err })
}

// FromChannel emits values received from ch until it is closed.
// The channel is shared by every collection, so a second collection only sees
// what the first left behind.
func FromChannel[T any](ch <-chan T) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		for {
			select {
			case v, open := <-ch:
				if !open {
					return nil
				}
				if err := e.Emit(v); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

// FromSeq emits the values of seq. Collecting again ranges over seq again.
func FromSeq[T any](seq iter.Seq[T]) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		var err error
		for v := range seq {
			if e.Cancelled() {
				break
			}
			if err = e.Emit(v); err != nil {
				break
			}
		}
		return err
	})
}
