package flow

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/kbukum/flowkit/errors"
)

// Timeout fails the flow with a TIMEOUT error if f has not terminated within
// d. On expiry the upstream is cancelled. d <= 0 fails without collecting f.
func Timeout[T any](f *Flow[T], d time.Duration) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		if d <= 0 {
			return goerrors.Timeout("flow", d)
		}
		upCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		var (
			mu       sync.Mutex
			finished bool
			expired  bool
		)
		timer := time.AfterFunc(d, func() {
			mu.Lock()
			defer mu.Unlock()
			if !finished {
				expired = true
				cancel()
			}
		})
		defer timer.Stop()

		err := f.collect(upCtx, e.Emit)
		mu.Lock()
		finished = true
		timedOut := expired
		mu.Unlock()
		if !timedOut || ctx.Err() != nil {
			return err
		}
		return goerrors.Timeout("flow", d)
	})
}

// Throttle forwards a value only if at least interval passed since the last
// forwarded value. Values arriving sooner are dropped.
func Throttle[T any](f *Flow[T], interval time.Duration) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		var last time.Time
		return f.collect(ctx, func(v T) error {
			now := time.Now()
			if !last.IsZero() && now.Sub(last) < interval {
				return nil
			}
			last = now
			return e.Emit(v)
		})
	})
}

// Debounce forwards a value only after f stayed quiet for d. The latest
// pending value is forwarded when f completes.
func Debounce[T any](f *Flow[T], d time.Duration) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		it, err := produceIn(ctx, f, spawn, 1)
		if err != nil {
			return err
		}
		defer it.Close()

		var (
			latest  T
			pending bool
			timerC  <-chan time.Time
		)
		timer := time.NewTimer(d)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case r, open := <-it.ch:
				if !open {
					if pending {
						return e.Emit(latest)
					}
					return nil
				}
				if r.err != nil {
					return r.err
				}
				latest, pending = r.val, true
				timer.Reset(d)
				timerC = timer.C
			case <-timerC:
				timerC = nil
				pending = false
				if err := e.Emit(latest); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

// Batch groups the values of f into slices of up to size values. With a
// positive timeout a partial batch is emitted once timeout passed since its
// first value. A partial batch is flushed before completion or failure.
// If both size and timeout are unset, batches hold one value.
func Batch[T any](f *Flow[T], size int, timeout time.Duration) *Flow[[]T] {
	if size <= 0 && timeout <= 0 {
		size = 1
	}
	if timeout <= 0 {
		return sizedBatch(f, size)
	}
	return New(func(ctx context.Context, e Emitter[[]T]) error {
		it, err := produceIn(ctx, f, spawn, 0)
		if err != nil {
			return err
		}
		defer it.Close()

		var (
			batch  []T
			timerC <-chan time.Time
		)
		timer := time.NewTimer(timeout)
		timer.Stop()
		defer timer.Stop()
		flush := func() error {
			timer.Stop()
			timerC = nil
			if len(batch) == 0 {
				return nil
			}
			out := batch
			batch = nil
			return e.Emit(out)
		}

		for {
			select {
			case r, open := <-it.ch:
				if !open {
					return flush()
				}
				if r.err != nil {
					if err := flush(); err != nil {
						return err
					}
					return r.err
				}
				if len(batch) == 0 {
					timer.Reset(timeout)
					timerC = timer.C
				}
				batch = append(batch, r.val)
				if size > 0 && len(batch) >= size {
					if err := flush(); err != nil {
						return err
					}
				}
			case <-timerC:
				if err := flush(); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

func sizedBatch[T any](f *Flow[T], size int) *Flow[[]T] {
	return New(func(ctx context.Context, e Emitter[[]T]) error {
		batch := make([]T, 0, size)
		var downstream error
		err := f.collect(ctx, func(v T) error {
			batch = append(batch, v)
			if len(batch) < size {
				return nil
			}
			out := batch
			batch = make([]T, 0, size)
			downstream = e.Emit(out)
			return downstream
		})
		if downstream != nil || len(batch) == 0 || IsCancellation(err) {
			return err
		}
		if ferr := e.Emit(batch); ferr != nil && err == nil {
			return ferr
		}
		return err
	})
}
