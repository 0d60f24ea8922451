// Package retry runs MongoDB round-trips with exponential backoff and jitter.
// Only failures the driver reports as transient (network errors and timeouts)
// are retried; authentication and configuration failures stop at once.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Server error codes that no amount of waiting will fix.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps an error so the retrier gives up on it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked permanent, is an auth failure,
// or comes from a client that was already disconnected.
func IsPermanent(err error) bool {
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return true
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorCode(codeAuthenticationFailed) || serverErr.HasErrorCode(codeUnauthorized)
	}
	return false
}

// Transient reports whether a driver error is worth another attempt.
func Transient(err error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

// Config holds retry configuration.
type Config struct {
	// MaxAttempts counts the first attempt too.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// JitterFactor adds randomness to delays (0.0 = no jitter, 1.0 = full jitter).
	JitterFactor float64

	// RetryIf decides whether an error is retried. Defaults to Transient.
	RetryIf func(error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retrier manages retry operations.
type Retrier struct {
	config Config
}

// New creates a Retrier. Zero fields fall back to a single attempt,
// no delay growth and Transient classification.
func New(cfg Config) *Retrier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = Transient
	}
	return &Retrier{config: cfg}
}

// Mongo returns a Retrier for connecting to and pinging MongoDB.
func Mongo(onRetry func(attempt int, err error, delay time.Duration)) *Retrier {
	return New(Config{
		MaxAttempts:  5,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
		OnRetry:      onRetry,
	})
}

// Do executes the operation until it succeeds, fails with a non-transient
// error or runs out of attempts. Permanent wrappers are removed from the result.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var permanentErr *PermanentError
		if errors.As(err, &permanentErr) {
			return permanentErr.Err
		}

		if !r.config.RetryIf(err) || attempt == r.config.MaxAttempts {
			return err
		}

		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}

	return lastErr
}

// calculateDelay returns initialDelay * multiplier^(attempt-1), capped and jittered.
func (r *Retrier) calculateDelay(attempt int) time.Duration {
	baseDelay := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))

	if baseDelay > float64(r.config.MaxDelay) {
		baseDelay = float64(r.config.MaxDelay)
	}

	if r.config.JitterFactor > 0 {
		baseDelay += baseDelay * r.config.JitterFactor * (rand.Float64()*2 - 1)
	}

	if baseDelay < 0 {
		baseDelay = 0
	}
	return time.Duration(baseDelay)
}
