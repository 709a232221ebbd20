package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/kbukum/flowkit/errors"
)

// listener is a push-style API with a single registered callback.
type listener struct {
	mu sync.Mutex
	cb func(int)
}

func (l *listener) register(cb func(int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cb = cb
}

func (l *listener) unregister() { l.register(nil) }

func (l *listener) push(v int) {
	l.mu.Lock()
	cb := l.cb
	l.mu.Unlock()
	if cb != nil {
		cb(v)
	}
}

func TestCallback_BuffersValuesSentDuringRegistration(t *testing.T) {
	f := Callback(func(ctx context.Context, b *Bridge[int]) error {
		for i := 1; i <= 5; i++ {
			if err := b.Send(ctx, i); err != nil {
				return err
			}
		}
		return b.Close()
	})
	got, err := Collect(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("got %v, want [1 2 3 4 5]", got)
	}
}

func TestCallback_ListenerDetachedOnClose(t *testing.T) {
	l := &listener{}
	var detached atomic.Int32
	f := Callback(func(ctx context.Context, b *Bridge[int]) error {
		l.register(func(v int) { _ = b.TrySend(v) })
		b.OnClose(func() {
			detached.Add(1)
			l.unregister()
		})
		for i := 1; i <= 5; i++ {
			l.push(i)
		}
		return b.Close()
	})

	got, err := Collect(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("got %v, want [1 2 3 4 5]", got)
	}
	if detached.Load() != 1 {
		t.Errorf("detach hook ran %d times, want 1", detached.Load())
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cb != nil {
		t.Error("listener still registered after close")
	}
}

func TestCallback_ColdPerCollection(t *testing.T) {
	var registrations atomic.Int32
	f := Callback(func(ctx context.Context, b *Bridge[int]) error {
		n := int(registrations.Add(1))
		if err := b.Send(ctx, n); err != nil {
			return err
		}
		return b.Close()
	})
	for i := 1; i <= 3; i++ {
		got, err := Collect(context.Background(), f)
		if err != nil {
			t.Fatal(err)
		}
		if !intSliceEqual(got, []int{i}) {
			t.Errorf("run %d: got %v", i, got)
		}
	}
}

func TestCallback_TakeReleasesBlockedSender(t *testing.T) {
	senderDone := make(chan error, 1)
	var detached atomic.Int32
	f := Callback(func(ctx context.Context, b *Bridge[int]) error {
		b.OnClose(func() { detached.Add(1) })
		go func() {
			for i := 1; ; i++ {
				if err := b.Send(context.Background(), i); err != nil {
					senderDone <- err
					return
				}
			}
		}()
		return nil
	}, WithCapacity(1))

	got, err := Collect(context.Background(), Take(f, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
	select {
	case err := <-senderDone:
		if !errors.Is(err, ErrBridgeClosed) {
			t.Errorf("got %v, want ErrBridgeClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sender still blocked after take completed")
	}
	if detached.Load() != 1 {
		t.Errorf("detach hook ran %d times, want 1", detached.Load())
	}
}

func TestCallback_SuspendDeliversEverything(t *testing.T) {
	f := Callback(func(ctx context.Context, b *Bridge[int]) error {
		for i := 1; i <= 50; i++ {
			if err := b.Send(ctx, i); err != nil {
				return err
			}
		}
		return b.Close()
	}, WithCapacity(2), WithOverflow(OverflowSuspend))

	got, err := Collect(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 50 {
		t.Fatalf("got %d values, want 50", len(got))
	}
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("position %d: got %d, want %d", i, v, i+1)
		}
	}
}

func TestCallback_CloseWithErrorFlushesFirst(t *testing.T) {
	boom := errors.New("listener failed")
	f := Callback(func(ctx context.Context, b *Bridge[int]) error {
		_ = b.Send(ctx, 1)
		_ = b.Send(ctx, 2)
		b.CloseWithError(boom)
		return nil
	})
	got, err := Collect(context.Background(), f)
	if err != boom {
		t.Fatalf("got %v, want %v", err, boom)
	}
	if !intSliceEqual(got, []int{1, 2}) {
		t.Errorf("got %v, want [1 2]", got)
	}
}

func TestCallback_RegisterError(t *testing.T) {
	boom := errors.New("cannot attach")
	f := Callback(func(context.Context, *Bridge[int]) error { return boom })
	if _, err := Collect(context.Background(), f); err != boom {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestCallback_RegisterPanic(t *testing.T) {
	f := Callback(func(context.Context, *Bridge[int]) error { panic("listener bug") })
	_, err := Collect(context.Background(), f)
	if !errors.Is(err, goerrors.Internal(nil)) {
		t.Errorf("got %v, want an INTERNAL_ERROR", err)
	}
}

func TestCallback_ConsumerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	registered := make(chan struct{})
	f := Callback(func(ctx context.Context, b *Bridge[int]) error {
		close(registered)
		<-ctx.Done()
		return nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := Collect(ctx, f)
		done <- err
	}()
	<-registered
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("got %v, want normal completion", err)
		}
	case <-time.After(time.Second):
		t.Fatal("collection did not stop after cancellation")
	}
}

func TestBridge_SendAfterClose(t *testing.T) {
	b := newBridge[int](DefaultBridgeConfig())
	var hooks int
	b.OnClose(func() { hooks++ })
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if hooks != 1 {
		t.Errorf("hook ran %d times, want 1", hooks)
	}
	if err := b.Send(context.Background(), 1); !errors.Is(err, ErrBridgeClosed) {
		t.Errorf("got %v, want ErrBridgeClosed", err)
	}
	if err := b.TrySend(1); !errors.Is(err, ErrBridgeClosed) {
		t.Errorf("got %v, want ErrBridgeClosed", err)
	}

	var late int
	b.OnClose(func() { late++ })
	if late != 1 {
		t.Error("hook registered after close did not run immediately")
	}
	select {
	case <-b.Done():
	default:
		t.Error("Done not closed after Close")
	}
}

func TestBridge_TrySendFull(t *testing.T) {
	b := newBridge[int](BridgeConfig{Capacity: 1, Overflow: OverflowSuspend})
	if err := b.TrySend(1); err != nil {
		t.Fatal(err)
	}
	if err := b.TrySend(2); !errors.Is(err, goerrors.QueueFull(1)) {
		t.Errorf("got %v, want QUEUE_FULL", err)
	}
}

func TestBridge_SendHonorsContext(t *testing.T) {
	b := newBridge[int](BridgeConfig{Capacity: 1, Overflow: OverflowSuspend})
	_ = b.TrySend(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.Send(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
}

func TestBridge_DropOldest(t *testing.T) {
	b := newBridge[int](BridgeConfig{Capacity: 2, Overflow: OverflowDropOldest})
	for i := 1; i <= 3; i++ {
		if err := b.Send(context.Background(), i); err != nil {
			t.Fatal(err)
		}
	}
	_ = b.Close()
	if got := drainBridge(t, b); !intSliceEqual(got, []int{2, 3}) {
		t.Errorf("got %v, want [2 3]", got)
	}
	if b.Dropped() != 1 {
		t.Errorf("got %d dropped, want 1", b.Dropped())
	}
}

func TestBridge_DropNewest(t *testing.T) {
	b := newBridge[int](BridgeConfig{Capacity: 2, Overflow: OverflowDropNewest})
	for i := 1; i <= 4; i++ {
		if err := b.TrySend(i); err != nil {
			t.Fatal(err)
		}
	}
	_ = b.Close()
	if got := drainBridge(t, b); !intSliceEqual(got, []int{1, 2}) {
		t.Errorf("got %v, want [1 2]", got)
	}
	if b.Dropped() != 2 {
		t.Errorf("got %d dropped, want 2", b.Dropped())
	}
}

func TestBridge_Unbounded(t *testing.T) {
	b := newBridge[int](BridgeConfig{Capacity: Unbounded, Overflow: OverflowSuspend})
	for i := 0; i < 1000; i++ {
		if err := b.TrySend(i); err != nil {
			t.Fatal(err)
		}
	}
	if b.Len() != 1000 {
		t.Errorf("got %d queued, want 1000", b.Len())
	}
}

func TestBridge_DiscardOnConsumerShutdown(t *testing.T) {
	b := newBridge[int](BridgeConfig{Capacity: 1, Overflow: OverflowSuspend})
	_ = b.TrySend(1)

	blocked := make(chan error, 1)
	go func() { blocked <- b.Send(context.Background(), 2) }()
	time.Sleep(5 * time.Millisecond)
	b.shutdown(nil, true)

	select {
	case err := <-blocked:
		if !errors.Is(err, ErrBridgeClosed) {
			t.Errorf("got %v, want ErrBridgeClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked sender not released")
	}
	if b.Len() != 0 {
		t.Errorf("got %d queued after discard, want 0", b.Len())
	}
}

func TestBridgeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BridgeConfig
		wantErr bool
	}{
		{"default", DefaultBridgeConfig(), false},
		{"unbounded", BridgeConfig{Capacity: Unbounded, Overflow: OverflowSuspend}, false},
		{"bad capacity", BridgeConfig{Capacity: -2, Overflow: OverflowSuspend}, true},
		{"bad policy", BridgeConfig{Capacity: 4, Overflow: "block"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBridgeConfig_ApplyDefaults(t *testing.T) {
	var cfg BridgeConfig
	cfg.ApplyDefaults()
	if cfg.Capacity != DefaultBridgeCapacity || cfg.Overflow != OverflowSuspend {
		t.Errorf("got %+v, want capacity %d and suspend", cfg, DefaultBridgeCapacity)
	}

	cfg = BridgeConfig{Capacity: -8}
	cfg.ApplyDefaults()
	if cfg.Capacity != Unbounded {
		t.Errorf("got capacity %d, want %d", cfg.Capacity, Unbounded)
	}
}

func drainBridge(t *testing.T, b *Bridge[int]) []int {
	t.Helper()
	var got []int
	for {
		v, ok, err := b.next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			return got
		}
		got = append(got, v)
	}
}
