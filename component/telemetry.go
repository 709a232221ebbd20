package component

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/flowkit/observability"
)

// TelemetryComponent installs the OpenTelemetry providers enabled in its
// config and builds the flow Metrics bundle.
type TelemetryComponent struct {
	cfg     observability.Config
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *observability.Metrics
	started bool
}

// Telemetry creates a telemetry component for cfg.
func Telemetry(cfg observability.Config) *TelemetryComponent {
	return &TelemetryComponent{cfg: cfg}
}

// Name returns "telemetry".
func (c *TelemetryComponent) Name() string { return "telemetry" }

// Metrics returns the flow instruments, or nil before Start.
func (c *TelemetryComponent) Metrics() *observability.Metrics { return c.metrics }

// Start initializes the enabled providers. Metrics are built from the global
// meter, which is a no-op meter when metric export is disabled.
func (c *TelemetryComponent) Start(ctx context.Context) error {
	if c.cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, &c.cfg.Tracing)
		if err != nil {
			return err
		}
		c.tracer = tp
	}
	if c.cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, &c.cfg.Metrics)
		if err != nil {
			return err
		}
		c.meter = mp
	}
	m, err := observability.NewMetrics(observability.Meter("github.com/kbukum/flowkit/flow"))
	if err != nil {
		return fmt.Errorf("creating flow metrics: %w", err)
	}
	c.metrics = m
	c.started = true
	return nil
}

// Stop flushes and shuts down the providers.
func (c *TelemetryComponent) Stop(ctx context.Context) error {
	var errs []error
	if c.tracer != nil {
		errs = append(errs, c.tracer.Shutdown(ctx))
	}
	if c.meter != nil {
		errs = append(errs, c.meter.Shutdown(ctx))
	}
	c.started = false
	return errors.Join(errs...)
}

// Health reports up once started.
func (c *TelemetryComponent) Health(context.Context) observability.Health {
	h := observability.Health{
		Name:   c.Name(),
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"tracing": fmt.Sprint(c.cfg.Tracing.Enabled),
			"metrics": fmt.Sprint(c.cfg.Metrics.Enabled),
		},
	}
	if !c.started {
		h.Status = observability.HealthStatusDown
		h.Message = "not started"
	}
	return h
}

// Describe returns summary info for the startup log.
func (c *TelemetryComponent) Describe() Description {
	return Description{
		Name:    "Telemetry",
		Type:    "telemetry",
		Details: fmt.Sprintf("tracing=%t metrics=%t", c.cfg.Tracing.Enabled, c.cfg.Metrics.Enabled),
	}
}
