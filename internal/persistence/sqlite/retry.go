package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrLocked is returned when the database stays locked past every retry.
var ErrLocked = errors.New("sqlite: database locked")

// MapError translates driver errors into package errors.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy") {
		return fmt.Errorf("%w: %v", ErrLocked, err)
	}
	return err
}

// RetryConfig configures retries of writes that hit a locked database.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry policy used by Storage.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2,
	}
}

// RetryHelper re-runs operations that fail with ErrLocked.
type RetryHelper struct {
	config RetryConfig
}

// NewRetryHelper creates a RetryHelper.
func NewRetryHelper(config RetryConfig) *RetryHelper {
	return &RetryHelper{config: config}
}

// WithRetry runs fn until it succeeds, fails with a non-lock error, or the
// retry budget is spent.
func (r *RetryHelper) WithRetry(ctx context.Context, fn func() error) error {
	delay := r.config.InitialDelay
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay = time.Duration(float64(delay) * r.config.BackoffFactor)
			if delay > r.config.MaxDelay {
				delay = r.config.MaxDelay
			}
		}

		lastErr = MapError(fn())
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrLocked) {
			return lastErr
		}
	}
	return fmt.Errorf("after %d retries: %w", r.config.MaxRetries, lastErr)
}
