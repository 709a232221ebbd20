package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/kbukum/flowkit/errors"
)

func TestInline_RunsOnCaller(t *testing.T) {
	var got string
	if err := Inline().Dispatch(context.Background(), func(ctx context.Context) {
		got = Describe(ctx)
	}); err != nil {
		t.Fatal(err)
	}
	if got != CallerName {
		t.Errorf("got %q, want %q", got, CallerName)
	}
	if !IsInline(Inline()) || !IsInline(nil) {
		t.Error("expected Inline and nil to be inline")
	}
	if IsInline(Default()) {
		t.Error("Default should not be inline")
	}
}

func TestGo_AnnotatesWorker(t *testing.T) {
	d := NewGo("bg")
	done := make(chan string, 1)
	if err := d.Dispatch(context.Background(), func(ctx context.Context) {
		done <- Describe(ctx)
	}); err != nil {
		t.Fatal(err)
	}
	select {
	case name := <-done:
		if !strings.HasPrefix(name, "bg-") {
			t.Errorf("expected bg- worker, got %q", name)
		}
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestGo_RejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewGo("bg").Dispatch(ctx, func(context.Context) {}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCurrent_Default(t *testing.T) {
	if Current(context.Background()).Name() != CallerName {
		t.Error("expected caller for an unmarked context")
	}
}

func TestPool_RunsTasksOnWorkers(t *testing.T) {
	p := NewPool(PoolConfig{Name: "io", Workers: 3})
	defer p.Shutdown(context.Background())

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		if err := p.Dispatch(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			if Current(ctx) != Dispatcher(p) {
				t.Error("expected Current to be the pool")
			}
			mu.Lock()
			seen[Describe(ctx)] = true
			mu.Unlock()
		}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()

	for name := range seen {
		if !strings.HasPrefix(name, "io-worker-") {
			t.Errorf("unexpected worker name %q", name)
		}
	}
	if len(seen) > 3 {
		t.Errorf("expected at most 3 workers, saw %d", len(seen))
	}
}

func TestPool_LimitsConcurrency(t *testing.T) {
	p := NewPool(PoolConfig{Name: "limited", Workers: 2, QueueSize: 10})
	defer p.Shutdown(context.Background())

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		_ = p.Dispatch(context.Background(), func(context.Context) {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	wg.Wait()
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent tasks, got %d", peak.Load())
	}
	if got := p.Stats().Executed; got != 8 {
		t.Errorf("expected 8 executed, got %d", got)
	}
}

func TestPool_DispatchAfterClose(t *testing.T) {
	p := NewPool(PoolConfig{Name: "closed", Workers: 1})
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := p.Dispatch(context.Background(), func(context.Context) {})
	if !errors.Is(err, goerrors.DispatcherClosed("closed")) {
		t.Errorf("expected DISPATCHER_CLOSED, got %v", err)
	}
	p.Close()
}

func TestPool_DispatchHonorsContextWhenBusy(t *testing.T) {
	p := NewPool(PoolConfig{Name: "busy", Workers: 1})
	release := make(chan struct{})
	defer func() {
		close(release)
		p.Shutdown(context.Background())
	}()

	started := make(chan struct{})
	_ = p.Dispatch(context.Background(), func(context.Context) {
		close(started)
		<-release
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Dispatch(ctx, func(context.Context) {})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestPool_CloseReleasesWaitingDispatch(t *testing.T) {
	p := NewPool(PoolConfig{Name: "waiting", Workers: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	_ = p.Dispatch(context.Background(), func(context.Context) {
		close(started)
		<-release
	})
	<-started

	dispatched := make(chan error, 1)
	go func() {
		dispatched <- p.Dispatch(context.Background(), func(context.Context) {})
	}()
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked behind a waiting Dispatch")
	}
	select {
	case err := <-dispatched:
		if !errors.Is(err, goerrors.DispatcherClosed("waiting")) {
			t.Errorf("expected DISPATCHER_CLOSED, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiting Dispatch was not released by Close")
	}

	close(release)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestPool_QueuedTasksRunAfterClose(t *testing.T) {
	p := NewPool(PoolConfig{Name: "queued", Workers: 1, QueueSize: 4})
	release := make(chan struct{})
	_ = p.Dispatch(context.Background(), func(context.Context) { <-release })

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		if err := p.Dispatch(context.Background(), func(context.Context) { ran.Add(1) }); err != nil {
			t.Fatal(err)
		}
	}
	p.Close()
	close(release)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ran.Load() != 3 {
		t.Errorf("expected 3 queued tasks to run, got %d", ran.Load())
	}
}

func TestPool_SurvivesPanic(t *testing.T) {
	p := NewPool(PoolConfig{Name: "panicky", Workers: 1})
	defer p.Shutdown(context.Background())

	_ = p.Dispatch(context.Background(), func(context.Context) { panic("boom") })
	done := make(chan struct{})
	_ = p.Dispatch(context.Background(), func(context.Context) { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive panic")
	}
}

func TestPoolConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PoolConfig
		wantErr bool
	}{
		{"valid", PoolConfig{Name: "io", Workers: 4}, false},
		{"missing name", PoolConfig{Workers: 4}, true},
		{"zero workers", PoolConfig{Name: "io"}, true},
		{"negative queue", PoolConfig{Name: "io", Workers: 1, QueueSize: -1}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestPoolConfig_ApplyDefaults(t *testing.T) {
	cfg := PoolConfig{}
	cfg.ApplyDefaults()
	if cfg.Name != "io" || cfg.Workers != 64 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
