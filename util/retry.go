package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryConfig describes how often and how patiently Retry repeats an
// operation. Only errors accepted by Retryable are repeated.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Retryable  func(error) bool
	OnRetry    func(attempt int, err error)
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 5,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   time.Second,
	}
}

// backoff doubles BaseDelay per attempt up to MaxDelay and adds up to 10%
// jitter.
func (c RetryConfig) backoff(attempt int) time.Duration {
	delay := c.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if c.MaxDelay > 0 && delay >= c.MaxDelay {
			break
		}
	}
	if c.MaxDelay > 0 {
		delay = min(delay, c.MaxDelay)
	}
	if delay <= 0 {
		return 0
	}
	return delay + rand.N(delay/10+1)
}

// Retry runs operation until it succeeds, fails with an error Retryable
// rejects, or MaxRetries repeats are used up. Waiting between attempts stops
// when ctx is done.
func Retry(ctx context.Context, config RetryConfig, operation func() error) error {
	err := operation()
	for attempt := 1; err != nil && attempt <= config.MaxRetries; attempt++ {
		if config.Retryable == nil || !config.Retryable(err) {
			return err
		}
		if config.OnRetry != nil {
			config.OnRetry(attempt, err)
		}

		timer := time.NewTimer(config.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation()
	}
	if err == nil {
		return nil
	}
	if config.Retryable == nil || !config.Retryable(err) {
		return err
	}
	return fmt.Errorf("operation failed after %d retries, last error: %w", config.MaxRetries, err)
}
