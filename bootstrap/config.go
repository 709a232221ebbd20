package bootstrap

import (
	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/logger"
)

// Config is the interface constraint for application configuration types.
//
// Example:
//
//	type AppConfig struct {
//	    Base    config.BaseConfig `mapstructure:"base"`
//	    Logging logger.Config     `mapstructure:"logging"`
//	}
//
//	func (c *AppConfig) GetBaseConfig() *config.BaseConfig { return &c.Base }
//	func (c *AppConfig) GetLoggerConfig() *logger.Config   { return &c.Logging }
type Config interface {
	GetBaseConfig() *config.BaseConfig
	GetLoggerConfig() *logger.Config
	ApplyDefaults()
	Validate() error
}
