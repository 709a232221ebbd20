package bootstrap

import (
	"time"

	"github.com/kbukum/flowkit/logger"
)

// Option tunes NewApp. It is not generic, so one option works for every
// config type.
type Option func(*settings)

type settings struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	stopTimeout     time.Duration
}

func defaultSettings() settings {
	return settings{gracefulTimeout: 15 * time.Second}
}

func apply(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger installs l as the global logger instead of building one from
// the config's logger section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithGracefulTimeout bounds the whole shutdown. Non-positive values keep
// the default.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.gracefulTimeout = d
		}
	}
}

// WithComponentStopTimeout bounds each component's Stop. Non-positive
// values keep the registry default.
func WithComponentStopTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}
