package flow

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/kbukum/flowkit/dispatch"
	goerrors "github.com/kbukum/flowkit/errors"
)

// spawner runs each task on a new goroutine that keeps the caller's execution
// context. Operators use it when they need concurrency without a switch.
type spawner struct{}

func (spawner) Name() string { return "spawn" }

func (spawner) Dispatch(ctx context.Context, task dispatch.Task) error {
	go task(ctx)
	return nil
}

var spawn dispatch.Dispatcher = spawner{}

// produceIn collects f on d, handing results through a channel of the given
// capacity. Closing the iterator cancels the producer and waits for it.
func produceIn[T any](ctx context.Context, f *Flow[T], d dispatch.Dispatcher, capacity int) (*channelIter[T], error) {
	prodCtx, cancel := context.WithCancel(ctx)
	ch := make(chan result[T], capacity)
	done := make(chan struct{})

	task := func(taskCtx context.Context) {
		defer close(done)
		defer close(ch)
		deliver := func(r result[T]) error {
			select {
			case ch <- r:
				return nil
			case <-taskCtx.Done():
				return taskCtx.Err()
			}
		}
		defer func() {
			if r := recover(); r != nil {
				_ = deliver(result[T]{err: goerrors.Internal(fmt.Errorf("flow: producer panicked: %v", r))})
			}
		}()
		err := f.collect(taskCtx, func(v T) error {
			return deliver(result[T]{val: v, ok: true})
		})
		if err != nil && taskCtx.Err() == nil {
			_ = deliver(result[T]{err: err})
		}
	}

	if err := d.Dispatch(prodCtx, task); err != nil {
		cancel()
		return nil, err
	}
	return &channelIter[T]{ch: ch, closer: func() error {
		cancel()
		<-done
		return nil
	}}, nil
}

// pump emits every value pulled from it until it is exhausted or fails.
func pump[T any](ctx context.Context, it Iterator[T], e Emitter[T]) error {
	for {
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
}

// FlowOn runs the production of f, and of every operator before it in the
// chain, on d. Operators after FlowOn keep running on the collector's side.
// The producer resumes only after downstream handled the value it emitted.
// Inline dispatchers, and collections already running on d, leave f
// unchanged.
func FlowOn[T any](f *Flow[T], d dispatch.Dispatcher) *Flow[T] {
	if dispatch.IsInline(d) {
		return f
	}
	return New(func(ctx context.Context, e Emitter[T]) error {
		if dispatch.Current(ctx) == d {
			return f.collect(ctx, e.Emit)
		}
		return handoff(ctx, f, d, e)
	})
}

// handoff collects f on d and emits its values to e one at a time. Each
// emission on d returns the error downstream returned for that value.
func handoff[T any](ctx context.Context, f *Flow[T], d dispatch.Dispatcher, e Emitter[T]) error {
	prodCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	values := make(chan T)
	acks := make(chan error, 1)
	done := make(chan error, 1)

	task := func(taskCtx context.Context) {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = goerrors.Internal(fmt.Errorf("flow: producer panicked: %v", r))
			}
			done <- err
		}()
		err = f.collect(taskCtx, func(v T) error {
			select {
			case values <- v:
			case <-taskCtx.Done():
				return taskCtx.Err()
			}
			select {
			case ack := <-acks:
				return ack
			case <-taskCtx.Done():
				// An ack sent before the cancellation still wins.
				select {
				case ack := <-acks:
					return ack
				default:
					return taskCtx.Err()
				}
			}
		})
	}
	if err := d.Dispatch(prodCtx, task); err != nil {
		return err
	}

	for {
		select {
		case v := <-values:
			err := e.Emit(v)
			acks <- err
			if err != nil {
				cancel()
				<-done
				return err
			}
		case err := <-done:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		}
	}
}

// Buffer decouples the producer of f from its consumer with room for n
// pending values. The producer runs on its own goroutine in the caller's
// execution context. n <= 0 returns f unchanged.
func Buffer[T any](f *Flow[T], n int) *Flow[T] {
	if n <= 0 {
		return f
	}
	return New(func(ctx context.Context, e Emitter[T]) error {
		it, err := produceIn(ctx, f, spawn, n)
		if err != nil {
			return err
		}
		defer it.Close()
		return pump(ctx, it, e)
	})
}

// errOtherDone cancels the first side of a Zip once the second completed.
var errOtherDone = stderrors.New("flow: zip other side completed")

// Zip pairs the values of a and b by position and emits fn(a, b).
// b is produced concurrently and at most one of its values waits to be
// paired. Zip completes as soon as either side completes, discarding the
// other side's pending value and cancelling it. An error from either side
// fails the flow.
func Zip[A, B, R any](a *Flow[A], b *Flow[B], fn func(A, B) R) *Flow[R] {
	return New(func(ctx context.Context, e Emitter[R]) error {
		zipCtx, cancel := context.WithCancelCause(ctx)
		defer cancel(nil)

		others := make(chan result[B], 1)
		done := make(chan struct{})
		var bErr error
		go func() {
			defer close(done)
			bErr = collectRecovered(zipCtx, b, func(v B) error {
				select {
				case others <- result[B]{val: v, ok: true}:
					return nil
				case <-zipCtx.Done():
					return zipCtx.Err()
				}
			})
			// The end marker fits only once every value of b was taken.
			select {
			case others <- result[B]{err: bErr}:
				cancel(errOtherDone)
			case <-zipCtx.Done():
			}
		}()

		abort := newAbort("zip")
		var otherErr, downErr error
		err := a.collect(zipCtx, func(av A) error {
			select {
			case r := <-others:
				if !r.ok {
					otherErr = r.err
					return abort
				}
				downErr = e.Emit(fn(av, r.val))
				return downErr
			case <-zipCtx.Done():
				return zipCtx.Err()
			}
		})
		otherDone := stderrors.Is(context.Cause(zipCtx), errOtherDone)
		cancel(nil)
		<-done

		switch {
		case abort.owns(err):
			return otherErr
		case downErr != nil:
			return err
		case otherDone && ctx.Err() == nil && (err == nil || IsCancellation(err)):
			return bErr
		default:
			return err
		}
	})
}

// collectRecovered collects f, turning a producer panic into an error.
func collectRecovered[T any](ctx context.Context, f *Flow[T], fn func(T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = goerrors.Internal(fmt.Errorf("flow: producer panicked: %v", r))
		}
	}()
	return f.collect(ctx, fn)
}
