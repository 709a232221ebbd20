package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	goerrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/validation"
)

// PoolConfig configures a worker pool.
type PoolConfig struct {
	// Name identifies the pool in logs and worker names.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`
	// Workers is the number of worker goroutines.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=4096"`
	// QueueSize is the number of tasks that may wait for a free worker.
	// 0 means Dispatch blocks until a worker takes the task.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=0"`
}

// DefaultPoolConfig returns the defaults used for the shared IO pool.
func DefaultPoolConfig(name string) PoolConfig {
	return PoolConfig{
		Name:    name,
		Workers: 64,
	}
}

// ApplyDefaults fills unset fields.
func (c *PoolConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "io"
	}
	if c.Workers <= 0 {
		c.Workers = 64
	}
	if c.QueueSize < 0 {
		c.QueueSize = 0
	}
}

// Validate checks the configuration.
func (c *PoolConfig) Validate() error {
	return validation.Validate(c)
}

// PoolStats is a snapshot of pool activity.
type PoolStats struct {
	Workers  int
	Active   int64
	Executed uint64
}

type job struct {
	ctx  context.Context
	task Task
}

// Pool runs tasks on a fixed number of worker goroutines.
type Pool struct {
	config PoolConfig
	tasks  chan job
	quit   chan struct{}
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	// sending counts Dispatch calls that passed the closed check.
	sending sync.WaitGroup

	active   atomic.Int64
	executed atomic.Uint64
	log      *logger.Logger
}

// NewPool creates a pool and starts its workers.
func NewPool(cfg PoolConfig) *Pool {
	cfg.ApplyDefaults()
	p := &Pool{
		config: cfg,
		tasks:  make(chan job, cfg.QueueSize),
		quit:   make(chan struct{}),
		log:    logger.Get("dispatch").WithFields(logger.Fields(logger.FieldDispatcher, cfg.Name)),
	}
	for i := 1; i <= cfg.Workers; i++ {
		name := fmt.Sprintf("%s-worker-%d", cfg.Name, i)
		p.wg.Add(1)
		go p.work(name)
	}
	p.log.Debug("pool started", logger.Fields("workers", cfg.Workers, "queue_size", cfg.QueueSize))
	return p
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.config.Name }

// Dispatch hands task to a worker, waiting for queue space until ctx is done.
// It fails with DISPATCHER_CLOSED after Close, including while it waits.
func (p *Pool) Dispatch(ctx context.Context, task Task) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return goerrors.DispatcherClosed(p.config.Name)
	}
	p.sending.Add(1)
	p.mu.RUnlock()
	defer p.sending.Done()

	select {
	case p.tasks <- job{ctx: ctx, task: task}:
		return nil
	case <-p.quit:
		return goerrors.DispatcherClosed(p.config.Name)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:  p.config.Workers,
		Active:   p.active.Load(),
		Executed: p.executed.Load(),
	}
}

// Closed reports whether Close was called.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close stops accepting tasks. Queued tasks still run; waiting Dispatch
// calls fail.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.quit)
}

// Shutdown closes the pool and waits for workers to finish or ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.Close()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.log.Debug("pool stopped", logger.Fields("executed", p.executed.Load()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work(name string) {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.tasks:
			p.run(name, j)
		case <-p.quit:
			p.sending.Wait()
			p.drain(name)
			return
		}
	}
}

// drain runs what is left in the queue after Close.
func (p *Pool) drain(name string) {
	for {
		select {
		case j := <-p.tasks:
			p.run(name, j)
		default:
			return
		}
	}
}

func (p *Pool) run(name string, j job) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.executed.Add(1)
		if r := recover(); r != nil {
			p.log.Error("task panicked", logger.Fields(logger.FieldWorker, name, "panic", fmt.Sprint(r)))
		}
	}()
	j.task(withExecution(j.ctx, p, name))
}
