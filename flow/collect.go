package flow

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/dispatch"
	"github.com/kbukum/flowkit/logger"
)

// Collector receives the values and the terminal event of one collection.
// Any callback may be nil.
type Collector[T any] struct {
	// OnValue is called for each value in emission order. Returning ErrStop
	// cancels the collection, which then completes normally; any other error
	// fails it.
	OnValue func(ctx context.Context, value T) error
	// OnError is called once if the collection fails.
	OnError func(err error)
	// OnComplete is called once if the collection succeeds or is cancelled.
	OnComplete func()
}

// Run collects f, reporting each value and then exactly one terminal event.
// It returns after the collection reached its terminal state, with the error
// passed to OnError or nil.
func Run[T any](ctx context.Context, f *Flow[T], c Collector[T]) error {
	runCtx, cancel := context.WithCancel(logger.ContextWithRunID(ctx, uuid.NewString()))
	defer cancel()

	log := logger.Get("flow")
	debug := log.DebugEnabled()
	var start time.Time
	if debug {
		start = time.Now()
		log.WithContext(runCtx).Debug("collection started", logger.Fields(logger.FieldDispatcher, dispatch.Describe(ctx)))
	}

	var count int
	err := f.collect(runCtx, func(v T) error {
		count++
		if c.OnValue == nil {
			return nil
		}
		err := c.OnValue(runCtx, v)
		if stderrors.Is(err, ErrStop) {
			cancel()
		}
		return err
	})
	if err != nil && isCancelled(ctx, err) {
		err = nil
	}

	if debug {
		fields := logger.Fields(logger.FieldCount, count, logger.FieldDuration, time.Since(start).Milliseconds())
		if err != nil {
			fields[logger.FieldError] = err.Error()
		}
		log.WithContext(runCtx).Debug("collection finished", fields)
	}

	if err != nil {
		if c.OnError != nil {
			c.OnError(err)
		}
		return err
	}
	if c.OnComplete != nil {
		c.OnComplete()
	}
	return nil
}

// isCancelled reports whether err is a cancellation rather than a failure,
// given the caller's context.
func isCancelled(ctx context.Context, err error) bool {
	if IsCancellation(err) {
		return true
	}
	return ctx.Err() != nil && stderrors.Is(err, context.DeadlineExceeded)
}

// RunID returns the id of the collection ctx belongs to, or "".
func RunID(ctx context.Context) string {
	return logger.RunIDFromContext(ctx)
}

// ForEach collects f, calling fn for each value.
func ForEach[T any](ctx context.Context, f *Flow[T], fn func(context.Context, T) error) error {
	return Run(ctx, f, Collector[T]{OnValue: fn})
}

// Collect runs f and returns all values as a slice. On failure it returns the
// values received before the error.
func Collect[T any](ctx context.Context, f *Flow[T]) ([]T, error) {
	var result []T
	err := Run(ctx, f, Collector[T]{OnValue: func(_ context.Context, v T) error {
		result = append(result, v)
		return nil
	}})
	return result, err
}

// First returns the first value of f and cancels the rest of the collection.
// ok is false if f completed without emitting.
func First[T any](ctx context.Context, f *Flow[T]) (value T, ok bool, err error) {
	err = Run(ctx, f, Collector[T]{OnValue: func(_ context.Context, v T) error {
		value, ok = v, true
		return ErrStop
	}})
	return value, ok, err
}

// Reduce folds all values of f into a single result.
func Reduce[T, R any](ctx context.Context, f *Flow[T], init R, fn func(R, T) R) (R, error) {
	acc := init
	err := Run(ctx, f, Collector[T]{OnValue: func(_ context.Context, v T) error {
		acc = fn(acc, v)
		return nil
	}})
	return acc, err
}

// Count returns the number of values f emits.
func Count[T any](ctx context.Context, f *Flow[T]) (int, error) {
	return Reduce(ctx, f, 0, func(n int, _ T) int { return n + 1 })
}

// Runnable is a fully-configured collection ready to execute.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run executes the collection until completion or cancellation.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// Drain creates a Runnable that collects f and sends each value to sink.
func Drain[T any](f *Flow[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{
		run: func(ctx context.Context) error {
			return ForEach(ctx, f, sink)
		},
	}
}

// Job is a collection running in the background.
type Job struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Launch collects f on d without blocking the caller.
func Launch[T any](ctx context.Context, d dispatch.Dispatcher, f *Flow[T], c Collector[T]) (*Job, error) {
	if d == nil {
		d = dispatch.Default()
	}
	jobCtx, cancel := context.WithCancel(ctx)
	j := &Job{cancel: cancel, done: make(chan struct{})}
	task := func(taskCtx context.Context) {
		defer close(j.done)
		j.err = Run(taskCtx, f, c)
	}
	if dispatch.IsInline(d) {
		go task(jobCtx)
		return j, nil
	}
	if err := d.Dispatch(jobCtx, task); err != nil {
		cancel()
		return nil, err
	}
	return j, nil
}

// Cancel requests cancellation of the job's collection.
func (j *Job) Cancel() { j.cancel() }

// Done is closed once the collection reached its terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes and returns its error.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		j.cancel()
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
