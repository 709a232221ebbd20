package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// Enabled turns on metric export.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Collection statuses recorded on metrics and spans.
const (
	StatusOK        = "ok"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// Metrics holds the instruments recorded for flow collections.
type Metrics struct {
	collections metric.Int64Counter
	active      metric.Int64UpDownCounter
	emissions   metric.Int64Counter
	errors      metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	collections, err := meter.Int64Counter("flow.collections",
		metric.WithDescription("Completed flow collections by terminal status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.collections counter: %w", err)
	}

	active, err := meter.Int64UpDownCounter("flow.collections.active",
		metric.WithDescription("Number of collections in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.collections.active counter: %w", err)
	}

	emissions, err := meter.Int64Counter("flow.emissions",
		metric.WithDescription("Values delivered downstream"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.emissions counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("flow.errors",
		metric.WithDescription("Failed collections by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.errors counter: %w", err)
	}

	duration, err := meter.Float64Histogram("flow.collection.duration",
		metric.WithDescription("Duration of collections in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.collection.duration histogram: %w", err)
	}

	return &Metrics{
		collections: collections,
		active:      active,
		emissions:   emissions,
		errors:      errorTotal,
		duration:    duration,
	}, nil
}

// RecordStart increments the in-flight collection count.
func (m *Metrics) RecordStart(ctx context.Context, flowName string) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrFlowName, flowName)))
}

// RecordEnd records a finished collection.
func (m *Metrics) RecordEnd(ctx context.Context, flowName, status string, emitted int64, duration time.Duration) {
	name := attribute.String(AttrFlowName, flowName)
	m.active.Add(ctx, -1, metric.WithAttributes(name))
	m.collections.Add(ctx, 1, metric.WithAttributes(name, attribute.String(AttrStatus, status)))
	if emitted > 0 {
		m.emissions.Add(ctx, emitted, metric.WithAttributes(name))
	}
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(name))
}

// RecordError records a failed collection by error code.
func (m *Metrics) RecordError(ctx context.Context, flowName, code string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrFlowName, flowName),
		attribute.String(AttrErrorCode, code),
	))
}
