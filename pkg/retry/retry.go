// Package retry runs operations against external services with exponential
// backoff on transient failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"syscall"
	"time"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts       int           `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay      time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay" yaml:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier" yaml:"backoff_multiplier"`
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Policy implements exponential backoff retry logic
type Policy struct {
	config Config

	// OnRetry is called before each backoff sleep, if set
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewPolicy creates a new retry policy, filling unset fields with defaults
func NewPolicy(config Config) *Policy {
	defaults := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = defaults.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = defaults.MaxDelay
	}
	if config.BackoffMultiplier <= 1.0 {
		config.BackoffMultiplier = defaults.BackoffMultiplier
	}

	return &Policy{
		config: config,
	}
}

// Config returns the effective configuration
func (p *Policy) Config() Config {
	return p.config
}

// ShouldRetry determines if another attempt should be made after the given
// number of attempts failed with err
func (p *Policy) ShouldRetry(attempts int, err error) bool {
	if err == nil {
		return false
	}

	if attempts >= p.config.MaxAttempts {
		return false
	}

	return IsTransient(err)
}

// NextRetryDelay calculates the delay before the next attempt
func (p *Policy) NextRetryDelay(attempts int) time.Duration {
	if attempts <= 0 {
		return p.config.InitialDelay
	}

	// delay = initialDelay * (multiplier ^ (attempts - 1))
	delay := float64(p.config.InitialDelay) * math.Pow(p.config.BackoffMultiplier, float64(attempts-1))

	if delay > float64(p.config.MaxDelay) {
		return p.config.MaxDelay
	}

	return time.Duration(delay)
}

// Do runs op until it succeeds, fails with a non-transient error, or the
// attempt budget is spent
func (p *Policy) Do(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}

		if !IsTransient(err) {
			return err
		}

		if !p.ShouldRetry(attempt, err) {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		delay := p.NextRetryDelay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt, errors.Join(ctx.Err(), err))
		case <-timer.C:
		}
	}
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as safe to retry
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is a connection or transport failure
// worth retrying
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *transientError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
