package observability

import (
	"context"
	"strconv"

	"github.com/kbukum/flowkit/dispatch"
)

// HealthStatus represents the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of an individual component.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth describes the overall health of a service and its components.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent adds a component health result and degrades overall status if needed.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// PoolChecker reports the health of a dispatch pool: down once closed,
// degraded while every worker is busy.
func PoolChecker(p *dispatch.Pool) HealthChecker {
	return poolChecker{pool: p}
}

type poolChecker struct {
	pool *dispatch.Pool
}

func (c poolChecker) CheckHealth(context.Context) Health {
	stats := c.pool.Stats()
	h := Health{
		Name:   "dispatcher." + c.pool.Name(),
		Status: HealthStatusUp,
		Details: map[string]string{
			"workers":  strconv.Itoa(stats.Workers),
			"active":   strconv.FormatInt(stats.Active, 10),
			"executed": strconv.FormatUint(stats.Executed, 10),
		},
	}
	switch {
	case c.pool.Closed():
		h.Status = HealthStatusDown
		h.Message = "pool closed"
	case stats.Active >= int64(stats.Workers):
		h.Status = HealthStatusDegraded
		h.Message = "all workers busy"
	}
	return h
}
