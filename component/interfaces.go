package component

import (
	"context"

	"github.com/kbukum/flowkit/observability"
)

// Component represents a lifecycle-managed piece of infrastructure such as a
// dispatcher pool, the telemetry providers or the HTTP server.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) observability.Health
}

// Description holds summary information logged at startup.
type Description struct {
	// Name is the human-readable display name. If empty, Name() is used.
	Name string
	// Type categorizes the component: "dispatcher", "server", "telemetry".
	Type string
	// Details is a one-liner such as "127.0.0.1:8080" or "workers=64".
	Details string
}

// Describable is optionally implemented by Components to report what they
// are and how they are configured.
type Describable interface {
	Describe() Description
}

// checker adapts a Component to observability.HealthChecker.
type checker struct{ c Component }

func (h checker) CheckHealth(ctx context.Context) observability.Health { return h.c.Health(ctx) }

// Checker returns c as an observability.HealthChecker.
func Checker(c Component) observability.HealthChecker { return checker{c: c} }
