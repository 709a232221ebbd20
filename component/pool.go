package component

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/dispatch"
	"github.com/kbukum/flowkit/observability"
)

// PoolComponent manages a dispatch.Pool. The pool runs from construction;
// Stop closes it and waits for queued tasks.
type PoolComponent struct {
	pool    *dispatch.Pool
	checker observability.HealthChecker
}

// Pool wraps p as a Component.
func Pool(p *dispatch.Pool) *PoolComponent {
	return &PoolComponent{pool: p, checker: observability.PoolChecker(p)}
}

// Dispatcher returns the underlying pool.
func (c *PoolComponent) Dispatcher() *dispatch.Pool { return c.pool }

// Name returns "dispatcher.<pool name>".
func (c *PoolComponent) Name() string { return "dispatcher." + c.pool.Name() }

// Start is a no-op; workers start with the pool.
func (c *PoolComponent) Start(context.Context) error { return nil }

// Stop drains the pool within ctx.
func (c *PoolComponent) Stop(ctx context.Context) error { return c.pool.Shutdown(ctx) }

// Health reports the pool's worker state.
func (c *PoolComponent) Health(ctx context.Context) observability.Health {
	return c.checker.CheckHealth(ctx)
}

// Describe returns summary info for the startup log.
func (c *PoolComponent) Describe() Description {
	stats := c.pool.Stats()
	return Description{
		Name:    "Dispatcher " + c.pool.Name(),
		Type:    "dispatcher",
		Details: fmt.Sprintf("workers=%d", stats.Workers),
	}
}
