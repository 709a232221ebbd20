package flow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	goerrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/validation"
)

// ErrBridgeClosed matches the error returned by sends on a closed bridge.
var ErrBridgeClosed = goerrors.BridgeClosed()

// OverflowPolicy decides what a bounded bridge does when its queue is full.
type OverflowPolicy string

const (
	// OverflowSuspend blocks the sender until space frees up or the bridge closes.
	OverflowSuspend OverflowPolicy = "suspend"
	// OverflowDropOldest evicts the oldest queued value.
	OverflowDropOldest OverflowPolicy = "drop_oldest"
	// OverflowDropNewest discards the value being sent.
	OverflowDropNewest OverflowPolicy = "drop_newest"
)

const (
	// DefaultBridgeCapacity is the queue size used when none is configured.
	DefaultBridgeCapacity = 64
	// Unbounded makes the bridge queue grow without limit. Sends never block.
	Unbounded = -1
)

// BridgeConfig configures the queue between a push producer and the flow.
type BridgeConfig struct {
	// Capacity is the number of values that may wait to be pulled.
	// Unbounded (-1) disables the limit; 0 selects DefaultBridgeCapacity.
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"capacity"`
	// Overflow applies to bounded queues only.
	Overflow OverflowPolicy `yaml:"overflow" mapstructure:"overflow" validate:"oneof=suspend drop_oldest drop_newest"`
}

// DefaultBridgeConfig returns a bounded, suspending configuration.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{Capacity: DefaultBridgeCapacity, Overflow: OverflowSuspend}
}

// ApplyDefaults fills unset fields.
func (c *BridgeConfig) ApplyDefaults() {
	if c.Capacity == 0 {
		c.Capacity = DefaultBridgeCapacity
	}
	if c.Capacity < 0 {
		c.Capacity = Unbounded
	}
	if c.Overflow == "" {
		c.Overflow = OverflowSuspend
	}
}

// Validate checks the configuration.
func (c *BridgeConfig) Validate() error {
	return validation.Validate(c)
}

// BridgeOption customizes a Callback flow.
type BridgeOption func(*BridgeConfig)

// WithBridgeConfig replaces the whole configuration.
func WithBridgeConfig(cfg BridgeConfig) BridgeOption {
	return func(c *BridgeConfig) { *c = cfg }
}

// WithCapacity sets the queue capacity. Use Unbounded for no limit.
func WithCapacity(n int) BridgeOption {
	return func(c *BridgeConfig) { c.Capacity = n }
}

// WithOverflow sets the overflow policy.
func WithOverflow(p OverflowPolicy) BridgeOption {
	return func(c *BridgeConfig) { c.Overflow = p }
}

// Callback creates a flow fed by a push-style producer.
//
// Each collection creates a Bridge and calls register with it once, on its own
// goroutine, while values are pulled from the bridge in FIFO order. register
// typically attaches a listener that sends into the bridge, installs a detach
// hook with OnClose and returns. It may also block until ctx is done or
// Done is closed. Values sent before the first pull are buffered.
//
// The flow completes once the bridge is closed and drained. It fails with the
// error given to CloseWithError or returned by register. When the collection
// ends for any other reason the bridge is closed and its queue discarded.
func Callback[T any](register func(ctx context.Context, b *Bridge[T]) error, opts ...BridgeOption) *Flow[T] {
	cfg := DefaultBridgeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.ApplyDefaults()

	return New(func(ctx context.Context, e Emitter[T]) error {
		b := newBridge[T](cfg)
		regCtx, cancel := context.WithCancel(ctx)
		registered := make(chan struct{})
		go func() {
			defer close(registered)
			defer func() {
				if r := recover(); r != nil {
					b.CloseWithError(goerrors.Internal(fmt.Errorf("flow: callback registration panicked: %v", r)))
				}
			}()
			if err := register(regCtx, b); err != nil {
				b.CloseWithError(err)
			}
		}()
		defer func() {
			b.shutdown(nil, true)
			cancel()
			<-registered
		}()

		for {
			v, ok, err := b.next(ctx)
			if err != nil || !ok {
				return err
			}
			if err := e.Emit(v); err != nil {
				return err
			}
		}
	})
}

// Bridge is the queue between a push producer and one collection of a
// Callback flow. All methods are safe for concurrent use.
type Bridge[T any] struct {
	cfg BridgeConfig
	log *logger.Logger

	mu     sync.Mutex
	queue  []T
	closed bool
	err    error
	hooks  []func()
	// space is closed and replaced whenever a slot frees up; it stays closed
	// once the bridge is closed.
	space chan struct{}
	ready chan struct{}
	done  chan struct{}

	dropped atomic.Uint64
}

func newBridge[T any](cfg BridgeConfig) *Bridge[T] {
	return &Bridge[T]{
		cfg:   cfg,
		log:   logger.Get("flow").WithComponent("bridge"),
		space: make(chan struct{}),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Send queues v. With OverflowSuspend on a full queue it blocks until space
// frees up, ctx is done or the bridge closes. It fails with ErrBridgeClosed
// once the bridge is closed.
func (b *Bridge[T]) Send(ctx context.Context, v T) error {
	for {
		wait, err := b.offer(v)
		if err != nil || wait == nil {
			return err
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TrySend queues v without blocking. With OverflowSuspend on a full queue it
// fails with a QUEUE_FULL error.
func (b *Bridge[T]) TrySend(v T) error {
	wait, err := b.offer(v)
	if err != nil {
		return err
	}
	if wait != nil {
		return goerrors.QueueFull(b.cfg.Capacity)
	}
	return nil
}

// offer queues v or applies the overflow policy. A non-nil channel means the
// queue is full and the caller may wait on it before retrying.
func (b *Bridge[T]) offer(v T) (<-chan struct{}, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, goerrors.BridgeClosed()
	}
	if b.cfg.Capacity < 0 || len(b.queue) < b.cfg.Capacity {
		b.queue = append(b.queue, v)
		b.mu.Unlock()
		b.signal()
		return nil, nil
	}
	switch b.cfg.Overflow {
	case OverflowDropOldest:
		var zero T
		b.queue[0] = zero
		b.queue = append(b.queue[1:], v)
		b.mu.Unlock()
		b.drop()
		b.signal()
		return nil, nil
	case OverflowDropNewest:
		b.mu.Unlock()
		b.drop()
		return nil, nil
	default:
		wait := b.space
		b.mu.Unlock()
		return wait, nil
	}
}

func (b *Bridge[T]) drop() {
	n := b.dropped.Add(1)
	if b.log.DebugEnabled() {
		b.log.Debug("bridge dropped value", logger.Fields("policy", string(b.cfg.Overflow), "dropped", n))
	}
}

// signal wakes the consumer if it waits for data.
func (b *Bridge[T]) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// next pops the oldest value, waiting until one arrives or the bridge closes.
// It returns ok=false with the close error once the bridge is closed and empty.
func (b *Bridge[T]) next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			v := b.queue[0]
			b.queue[0] = zero
			b.queue = b.queue[1:]
			if !b.closed {
				close(b.space)
				b.space = make(chan struct{})
			}
			b.mu.Unlock()
			return v, true, nil
		}
		if b.closed {
			err := b.err
			b.mu.Unlock()
			return zero, false, err
		}
		b.mu.Unlock()

		select {
		case <-b.ready:
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
	}
}

// Close closes the bridge. Queued values are still delivered, then the flow
// completes. Later sends fail with ErrBridgeClosed. Close is idempotent.
func (b *Bridge[T]) Close() error {
	b.shutdown(nil, false)
	return nil
}

// CloseWithError closes the bridge so that the flow fails with err once the
// queued values were delivered. A nil err behaves like Close.
func (b *Bridge[T]) CloseWithError(err error) {
	b.shutdown(err, false)
}

// OnClose registers fn to run once when the bridge closes, typically to
// detach the producer. If the bridge is already closed fn runs immediately.
func (b *Bridge[T]) OnClose(fn func()) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		fn()
		return
	}
	b.hooks = append(b.hooks, fn)
	b.mu.Unlock()
}

// Done is closed when the bridge closes.
func (b *Bridge[T]) Done() <-chan struct{} { return b.done }

// Dropped returns the number of values discarded by the overflow policy.
func (b *Bridge[T]) Dropped() uint64 { return b.dropped.Load() }

// Len returns the number of queued values.
func (b *Bridge[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// shutdown closes the bridge once. discard empties the queue, which is what a
// cancelled or failed consumer does.
func (b *Bridge[T]) shutdown(err error, discard bool) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.err = err
	pending := len(b.queue)
	if discard {
		b.queue = nil
	}
	hooks := b.hooks
	b.hooks = nil
	close(b.space)
	close(b.done)
	b.mu.Unlock()

	b.signal()
	for _, fn := range hooks {
		fn()
	}
	if b.log.DebugEnabled() {
		fields := logger.Fields("pending", pending, "discarded", discard, "dropped", b.dropped.Load())
		if err != nil {
			fields[logger.FieldError] = err.Error()
		}
		b.log.Debug("bridge closed", fields)
	}
}
