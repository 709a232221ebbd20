package flow

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/kbukum/flowkit/logger"
)

// Catch hands an upstream failure of f to handler, which may emit fallback
// values and returns the error the flow ends with. Cancellations and
// failures raised downstream of Catch are never handed to handler.
func Catch[T any](f *Flow[T], handler func(ctx context.Context, err error, e Emitter[T]) error) *Flow[T] {
	return New(func(ctx context.Context, e Emitter[T]) error {
		var downstream error
		err := f.collect(ctx, func(v T) error {
			downstream = e.Emit(v)
			return downstream
		})
		if err == nil || downstream != nil || IsCancellation(err) || ctx.Err() != nil {
			return err
		}
		return handler(ctx, err, e)
	})
}

// RetryConfig configures Retry.
type RetryConfig struct {
	// MaxAttempts is the maximum number of collections of the upstream,
	// including the first.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64 `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	// Jitter adds randomness to backoff (0.0 to 1.0).
	Jitter float64 `yaml:"jitter" mapstructure:"jitter"`
	// RetryIf determines if an error should be retried.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error, backoff time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries all errors except cancellations and deadlines.
func DefaultRetryIf(err error) bool {
	return !IsCancellation(err) && !stderrors.Is(err, context.DeadlineExceeded)
}

// ApplyDefaults fills unset fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// Retry collects f again when it fails, waiting with exponential backoff
// between attempts. f is cold, so every attempt runs its producer from the
// start and values emitted by a failed attempt are emitted again. Failures
// raised downstream of Retry are never retried.
func Retry[T any](f *Flow[T], cfg RetryConfig) *Flow[T] {
	cfg.ApplyDefaults()
	return New(func(ctx context.Context, e Emitter[T]) error {
		for attempt := 1; ; attempt++ {
			var downstream error
			err := f.collect(ctx, func(v T) error {
				downstream = e.Emit(v)
				return downstream
			})
			if err == nil || downstream != nil || ctx.Err() != nil {
				return err
			}
			if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
				return err
			}

			backoff := calculateBackoff(attempt, cfg)
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, err, backoff)
			}
			if log := logger.Get("flow"); log.DebugEnabled() {
				log.WithContext(ctx).Debug("retrying flow", logger.Fields("attempt", attempt, "backoff_ms", backoff.Milliseconds(), logger.FieldError, err.Error()))
			}

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
	})
}

// calculateBackoff returns initial * factor^(attempt-1) with jitter, capped at
// MaxBackoff.
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.Jitter > 0 {
		backoff += (rand.Float64()*2 - 1) * backoff * cfg.Jitter
	}
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	if backoff < 0 {
		backoff = float64(cfg.InitialBackoff)
	}
	return time.Duration(backoff)
}
