package main

import (
	"errors"

	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/dispatch"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/server"
	"github.com/kbukum/flowkit/version"
)

// AppConfig is the flowplay configuration loaded from config.yml and
// FLOWPLAY_* environment variables.
type AppConfig struct {
	Base          config.BaseConfig    `yaml:"base" mapstructure:"base"`
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Bridge        flow.BridgeConfig    `yaml:"bridge" mapstructure:"bridge"`
	Pool          dispatch.PoolConfig  `yaml:"pool" mapstructure:"pool"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	HTTP          server.Config        `yaml:"http" mapstructure:"http"`
}

func (c *AppConfig) GetBaseConfig() *config.BaseConfig { return &c.Base }

func (c *AppConfig) GetLoggerConfig() *logger.Config { return &c.Logging }

func (c *AppConfig) ApplyDefaults() {
	if c.Base.Name == "" {
		c.Base.Name = serviceName
	}
	if c.Base.Version == "" {
		c.Base.Version = version.Get().String()
	}
	c.Base.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Bridge.ApplyDefaults()
	c.Pool.ApplyDefaults()
	c.Observability.ApplyDefaults(c.Base.Name)
	c.HTTP.ApplyDefaults()
}

func (c *AppConfig) Validate() error {
	return errors.Join(
		c.Base.Validate(),
		c.Logging.Validate(),
		c.Bridge.Validate(),
		c.Pool.Validate(),
		c.Observability.Validate(),
		c.HTTP.Validate(),
	)
}

func loadConfig(path string) (*AppConfig, error) {
	opts := []config.LoaderOption{config.WithEnvPrefix("FLOWPLAY")}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	var cfg AppConfig
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
