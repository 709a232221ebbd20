package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Task is a unit of work submitted to a Dispatcher.
type Task func(ctx context.Context)

// Dispatcher is a named scheduling domain.
type Dispatcher interface {
	// Name identifies the dispatcher in logs and in Describe output.
	Name() string
	// Dispatch schedules task. It returns an error if the task cannot be
	// scheduled; once it returns nil the task is guaranteed to run.
	Dispatch(ctx context.Context, task Task) error
}

// CallerName is reported for code that runs on no dispatcher at all.
const CallerName = "caller"

type inline struct{}

// Inline returns the dispatcher that runs tasks synchronously on the caller's
// goroutine, keeping the caller's execution context.
func Inline() Dispatcher { return inline{} }

func (inline) Name() string { return CallerName }

func (inline) Dispatch(ctx context.Context, task Task) error {
	task(ctx)
	return nil
}

// IsInline reports whether d runs tasks on the calling goroutine.
func IsInline(d Dispatcher) bool {
	if d == nil {
		return true
	}
	_, ok := d.(inline)
	return ok
}

type goroutines struct {
	name string
	seq  atomic.Uint64
}

// NewGo returns a dispatcher that starts one goroutine per task.
func NewGo(name string) Dispatcher {
	return &goroutines{name: name}
}

func (g *goroutines) Name() string { return g.name }

func (g *goroutines) Dispatch(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	worker := fmt.Sprintf("%s-%d", g.name, g.seq.Add(1))
	go task(withExecution(ctx, g, worker))
	return nil
}

var (
	defaultOnce sync.Once
	defaultGo   Dispatcher
	ioOnce      sync.Once
	ioPool      *Pool
)

// Default returns the shared goroutine-per-task dispatcher named "default".
func Default() Dispatcher {
	defaultOnce.Do(func() { defaultGo = NewGo("default") })
	return defaultGo
}

// IO returns the shared worker pool named "io", created on first use with
// DefaultPoolConfig. It lives for the rest of the process.
func IO() *Pool {
	ioOnce.Do(func() { ioPool = NewPool(DefaultPoolConfig("io")) })
	return ioPool
}
