// Package retry provides bounded exponential-backoff retries for transient
// failures from external providers. Client errors (bad input, bad key) are
// never retried; rate limits, 5xx responses and timeouts are.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, first try included.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// BaseDelay is the initial delay between attempts. Default: 500ms.
	BaseDelay time.Duration `yaml:"base_delay,omitempty"`

	// MaxDelay caps the backoff. Default: 10s.
	MaxDelay time.Duration `yaml:"max_delay,omitempty"`

	// JitterFactor adds randomness to delays (0.0-1.0). Default: 0.1.
	JitterFactor float64 `yaml:"jitter_factor,omitempty"`
}

// DefaultConfig returns sensible defaults for provider calls.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		JitterFactor: 0.1,
	}
}

// temporary is implemented by errors that know whether they are transient.
type temporary interface {
	Temporary() bool
}

// retryableSubstrings classify errors that carry no Temporary method.
var retryableSubstrings = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"rate limit",
	"temporarily unavailable",
	"too many requests",
}

// Retryer executes operations with exponential backoff.
type Retryer struct {
	config Config
}

// New creates a retryer with the given config.
func New(cfg Config) *Retryer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.JitterFactor <= 0 {
		cfg.JitterFactor = 0.1
	}
	return &Retryer{config: cfg}
}

// Do executes op, retrying transient failures with backoff.
//
// Non-retryable errors and context cancellation return immediately. After the
// final attempt the last error is returned wrapped with the operation name.
func (r *Retryer) Do(ctx context.Context, operation string, op func() error) error {
	var lastErr error

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.backoff(attempt)
			slog.Debug("Retrying operation",
				"operation", operation,
				"attempt", attempt+1,
				"delay", delay,
				"error", lastErr)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if !Retryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, r.config.MaxAttempts, lastErr)
}

// backoff computes the delay before the given attempt (1-based).
func (r *Retryer) backoff(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	jitter := delay * r.config.JitterFactor * (rand.Float64()*2 - 1)
	delay += jitter
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// Retryable reports whether an error is worth retrying.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	// A typed provider error knows best; a per-request timeout inside it is
	// transient even though it surfaces as a deadline error.
	var tmp temporary
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, s := range retryableSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
