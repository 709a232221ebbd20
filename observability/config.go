package observability

import (
	"time"

	"github.com/kbukum/flowkit/validation"
)

// Config groups tracing and metrics settings.
type Config struct {
	Tracing TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills unset fields using serviceName for both providers.
func (c *Config) ApplyDefaults(serviceName string) {
	c.Tracing.applyDefaults(serviceName)
	c.Metrics.applyDefaults(serviceName)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

func (c *TracerConfig) applyDefaults(serviceName string) {
	d := DefaultTracerConfig(serviceName)
	if c.ServiceName == "" {
		c.ServiceName = d.ServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = d.ServiceVersion
	}
	if c.Environment == "" {
		c.Environment = d.Environment
	}
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
}

func (c *MeterConfig) applyDefaults(serviceName string) {
	d := DefaultMeterConfig(serviceName)
	if c.ServiceName == "" {
		c.ServiceName = d.ServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = d.ServiceVersion
	}
	if c.Environment == "" {
		c.Environment = d.Environment
	}
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
}
