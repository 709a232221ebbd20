package flow

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/flowkit/dispatch"
)

func TestNew_NoWorkUntilCollected(t *testing.T) {
	var runs atomic.Int32
	_ = New(func(ctx context.Context, e Emitter[int]) error {
		runs.Add(1)
		return nil
	})
	if runs.Load() != 0 {
		t.Errorf("producer ran %d times before collection", runs.Load())
	}
}

func TestNew_ColdReexecution(t *testing.T) {
	var produced atomic.Int32
	f := New(func(ctx context.Context, e Emitter[int]) error {
		for i := 1; i <= 3; i++ {
			produced.Add(1)
			if err := e.Emit(i); err != nil {
				return err
			}
		}
		return nil
	})

	for run := 0; run < 2; run++ {
		got, err := Collect(context.Background(), f)
		if err != nil {
			t.Fatal(err)
		}
		if !intSliceEqual(got, []int{1, 2, 3}) {
			t.Errorf("run %d: got %v, want [1 2 3]", run, got)
		}
	}
	if produced.Load() != 6 {
		t.Errorf("got %d producer side effects, want 6", produced.Load())
	}
}

func TestEmit_AfterCancelIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var afterCancel error
	f := New(func(ctx context.Context, e Emitter[int]) error {
		if err := e.Emit(1); err != nil {
			return err
		}
		cancel()
		if !e.Cancelled() {
			t.Error("expected emitter to report cancellation")
		}
		afterCancel = e.Emit(2)
		return nil
	})

	got, err := Collect(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if afterCancel != nil {
		t.Errorf("emit after cancel returned %v, want nil", afterCancel)
	}
	if !intSliceEqual(got, []int{1}) {
		t.Errorf("got %v, want [1]", got)
	}
}

func TestRun_ExactlyOneTerminal_Success(t *testing.T) {
	var completes, failures int
	var values []int
	err := Run(context.Background(), Of(1, 2, 3), Collector[int]{
		OnValue: func(_ context.Context, v int) error {
			values = append(values, v)
			return nil
		},
		OnError:    func(error) { failures++ },
		OnComplete: func() { completes++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if completes != 1 || failures != 0 {
		t.Errorf("got %d completes and %d errors, want 1 and 0", completes, failures)
	}
	if !intSliceEqual(values, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", values)
	}
}

func TestRun_ProducerError(t *testing.T) {
	boom := errors.New("boom")
	var completes int
	var reported []error
	f := New(func(ctx context.Context, e Emitter[int]) error {
		if err := e.Emit(1); err != nil {
			return err
		}
		return boom
	})

	err := Run(context.Background(), f, Collector[int]{
		OnError:    func(err error) { reported = append(reported, err) },
		OnComplete: func() { completes++ },
	})
	if err != boom {
		t.Errorf("got %v, want %v", err, boom)
	}
	if len(reported) != 1 || reported[0] != boom {
		t.Errorf("got reported errors %v, want [boom]", reported)
	}
	if completes != 0 {
		t.Errorf("OnComplete called %d times after failure", completes)
	}
}

func TestRun_ErrStopCompletesNormally(t *testing.T) {
	var produced atomic.Int32
	f := New(func(ctx context.Context, e Emitter[int]) error {
		for i := 1; i <= 5; i++ {
			produced.Add(1)
			if err := e.Emit(i); err != nil {
				return err
			}
		}
		return nil
	})

	var values []int
	var completes, failures int
	err := Run(context.Background(), f, Collector[int]{
		OnValue: func(_ context.Context, v int) error {
			values = append(values, v)
			if v == 2 {
				return ErrStop
			}
			return nil
		},
		OnError:    func(error) { failures++ },
		OnComplete: func() { completes++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if completes != 1 || failures != 0 {
		t.Errorf("got %d completes and %d errors, want 1 and 0", completes, failures)
	}
	if !intSliceEqual(values, []int{1, 2}) {
		t.Errorf("got %v, want [1 2]", values)
	}
	if produced.Load() != 2 {
		t.Errorf("producer ran %d steps, want 2", produced.Load())
	}
}

func TestRun_ConsumerErrorFails(t *testing.T) {
	bad := errors.New("bad value")
	err := ForEach(context.Background(), Of(1, 2, 3), func(_ context.Context, v int) error {
		if v == 2 {
			return bad
		}
		return nil
	})
	if err != bad {
		t.Errorf("got %v, want %v", err, bad)
	}
}

func TestRun_CallerCancellationCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var completes int
	err := Run(ctx, Generate(func() int { return 1 }), Collector[int]{
		OnError:    func(err error) { t.Errorf("unexpected error %v", err) },
		OnComplete: func() { completes++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if completes != 1 {
		t.Errorf("got %d completes, want 1", completes)
	}
}

func TestRun_ErrorIsolation(t *testing.T) {
	boom := errors.New("first run fails")
	var attempts atomic.Int32
	f := New(func(ctx context.Context, e Emitter[int]) error {
		if attempts.Add(1) == 1 {
			return boom
		}
		return e.Emit(42)
	})

	if _, err := Collect(context.Background(), f); err != boom {
		t.Fatalf("got %v, want %v", err, boom)
	}
	got, err := Collect(context.Background(), f)
	if err != nil {
		t.Fatalf("second collection failed: %v", err)
	}
	if !intSliceEqual(got, []int{42}) {
		t.Errorf("got %v, want [42]", got)
	}
}

func TestRun_ConcurrentCollections(t *testing.T) {
	f := Scan(Range(1, 100), 0, func(acc, v int) int { return acc + v })

	var wg sync.WaitGroup
	results := make([]int, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var last int
			errs[i] = ForEach(context.Background(), f, func(_ context.Context, v int) error {
				last = v
				return nil
			})
			results[i] = last
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Errorf("collection %d: %v", i, errs[i])
		}
		if results[i] != 5050 {
			t.Errorf("collection %d: got %d, want 5050", i, results[i])
		}
	}
}

func TestRunID_PerCollection(t *testing.T) {
	var ids []string
	f := Of(1)
	for i := 0; i < 2; i++ {
		err := ForEach(context.Background(), f, func(ctx context.Context, _ int) error {
			ids = append(ids, RunID(ctx))
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(ids) != 2 || ids[0] == "" || ids[0] == ids[1] {
		t.Errorf("got run ids %v, want two distinct ids", ids)
	}
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		flow *Flow[int]
		want []int
	}{
		{"of", Of(1, 2, 3), []int{1, 2, 3}},
		{"slice", FromSlice([]int{4, 5}), []int{4, 5}},
		{"range", Range(1, 5), []int{1, 2, 3, 4, 5}},
		{"empty range", Range(3, 1), nil},
		{"empty", Empty[int](), nil},
		{"seq", FromSeq(slices.Values([]int{7, 8})), []int{7, 8}},
		{"iterate", Take(Iterate(1, func(v int) int { return v * 2 }), 4), []int{1, 2, 4, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(ctx, tt.flow)
			if err != nil {
				t.Fatal(err)
			}
			if !intSliceEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFail(t *testing.T) {
	boom := errors.New("boom")
	got, err := Collect(context.Background(), Fail[int](boom))
	if err != boom {
		t.Errorf("got %v, want %v", err, boom)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no values", got)
	}
}

func TestFromChannel(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	got, err := Collect(context.Background(), FromChannel(ch))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestFromChannel_Cancelled(t *testing.T) {
	ch := make(chan int)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := Collect(ctx, FromChannel(ch))
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("got %v, want normal completion after the caller's deadline", err)
		}
	case <-time.After(time.Second):
		t.Fatal("collection did not stop after deadline")
	}
}

func TestFromIterator_FreshPerCollection(t *testing.T) {
	var created atomic.Int32
	f := FromIterator(func(context.Context) Iterator[string] {
		created.Add(1)
		return &sliceIter[string]{items: []string{"a", "b"}}
	})

	for i := 0; i < 2; i++ {
		got, err := Collect(context.Background(), f)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("got %v, want [a b]", got)
		}
	}
	if created.Load() != 2 {
		t.Errorf("got %d iterators, want 2", created.Load())
	}
}

func TestFirst(t *testing.T) {
	var produced atomic.Int32
	f := OnEach(Range(1, 10), func(context.Context, int) error {
		produced.Add(1)
		return nil
	})
	v, ok, err := First(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != 1 {
		t.Errorf("got (%d, %v), want (1, true)", v, ok)
	}
	if produced.Load() != 1 {
		t.Errorf("produced %d values, want 1", produced.Load())
	}

	_, ok, err = First(context.Background(), Empty[int]())
	if err != nil || ok {
		t.Errorf("got ok=%v err=%v on empty flow", ok, err)
	}
}

func TestReduceAndCount(t *testing.T) {
	sum, err := Reduce(context.Background(), Range(1, 4), 0, func(acc, v int) int { return acc + v })
	if err != nil {
		t.Fatal(err)
	}
	if sum != 10 {
		t.Errorf("got %d, want 10", sum)
	}

	n, err := Count(context.Background(), Range(1, 7))
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Errorf("got %d, want 7", n)
	}
}

func TestDrain_Run(t *testing.T) {
	var got []int
	r := Drain(Of(1, 2, 3), func(_ context.Context, v int) error {
		got = append(got, v)
		return nil
	})
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestIter(t *testing.T) {
	ctx := context.Background()
	it := Of(1, 2, 3).Iter(ctx)
	defer it.Close()

	var got []int
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, v)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestIter_CloseStopsProducer(t *testing.T) {
	ctx := context.Background()
	stopped := make(chan struct{})
	f := OnCompletion(Generate(func() int { return 1 }), func(context.Context, error) error {
		close(stopped)
		return nil
	})

	it := f.Iter(ctx)
	if _, ok, err := it.Next(ctx); err != nil || !ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("producer still running after Close")
	}
}

func TestLaunch(t *testing.T) {
	var mu sync.Mutex
	var got []int
	var worker string
	job, err := Launch(context.Background(), dispatch.Default(), Of(1, 2, 3), Collector[int]{
		OnValue: func(ctx context.Context, v int) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, v)
			worker = dispatch.Describe(ctx)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := job.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
	if !strings.HasPrefix(worker, "default-") {
		t.Errorf("got worker %q, want a default dispatcher worker", worker)
	}
}

func TestLaunch_Cancel(t *testing.T) {
	job, err := Launch(context.Background(), dispatch.Inline(), Generate(func() int { return 1 }), Collector[int]{})
	if err != nil {
		t.Fatal(err)
	}
	job.Cancel()

	select {
	case <-job.Done():
	case <-time.After(time.Second):
		t.Fatal("job did not stop after Cancel")
	}
	if err := job.Wait(context.Background()); err != nil {
		t.Errorf("got %v, want nil after cancellation", err)
	}
}

func TestIsCancellation(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrStop, true},
		{context.Canceled, true},
		{newAbort("take"), true},
		{errors.New("boom"), false},
		{context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		if got := IsCancellation(tt.err); got != tt.want {
			t.Errorf("IsCancellation(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (it *sliceIter[T]) Next(context.Context) (T, bool, error) {
	if it.pos >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	v := it.items[it.pos]
	it.pos++
	return v, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
