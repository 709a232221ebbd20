package flow

import (
	"context"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// FromIterator creates a flow that pulls from a fresh iterator per collection.
func FromIterator[T any](newIter func(ctx context.Context) Iterator[T]) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		it := newIter(ctx)
		defer it.Close()
		for !e.Cancelled() {
			v, ok, err := it.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := e.Emit(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Iter starts a collection of f whose values are pulled through the returned
// Iterator. The caller must Close it; closing early cancels the collection.
func (f *Flow[T]) Iter(ctx context.Context) Iterator[T] {
	it, _ := produceIn(ctx, f, spawn, 0)
	return it
}

// result carries a value or error through a channel.
type result[T any] struct {
	val T
	ok  bool
	err error
}

// channelIter reads values from a channel fed by a producer goroutine.
type channelIter[T any] struct {
	ch     <-chan result[T]
	closer func() error
}

func (it *channelIter[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case r, open := <-it.ch:
		if !open {
			var zero T
			return zero, false, nil
		}
		return r.val, r.ok, r.err
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

func (it *channelIter[T]) Close() error {
	if it.closer != nil {
		return it.closer()
	}
	return nil
}
