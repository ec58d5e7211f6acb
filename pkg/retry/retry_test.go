package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) *Policy {
	return NewPolicy(Config{
		MaxAttempts:       attempts,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	})
}

// failingOp fails transiently the first n calls, then succeeds
func failingOp(n int, calls *int) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		if *calls <= n {
			return Transient(fmt.Errorf("connection refused (call %d)", *calls))
		}
		return nil
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 3, config.MaxAttempts)
	assert.Equal(t, 1*time.Second, config.InitialDelay)
	assert.Equal(t, 30*time.Second, config.MaxDelay)
	assert.Equal(t, 2.0, config.BackoffMultiplier)
}

func TestNewPolicy_Defaults(t *testing.T) {
	policy := NewPolicy(Config{MaxAttempts: -1, BackoffMultiplier: 0.5})

	assert.Equal(t, DefaultConfig(), policy.Config())
}

func TestNextRetryDelay(t *testing.T) {
	policy := NewPolicy(Config{
		MaxAttempts:       5,
		InitialDelay:      1 * time.Second,
		MaxDelay:          3 * time.Second,
		BackoffMultiplier: 2.0,
	})

	assert.Equal(t, 1*time.Second, policy.NextRetryDelay(0))
	assert.Equal(t, 1*time.Second, policy.NextRetryDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextRetryDelay(2))
	assert.Equal(t, 3*time.Second, policy.NextRetryDelay(3), "capped at max delay")
}

func TestDo_TransientFailuresBelowLimitSucceed(t *testing.T) {
	for failures := 0; failures < 3; failures++ {
		t.Run(fmt.Sprintf("%d failures", failures), func(t *testing.T) {
			calls := 0
			err := fastPolicy(3).Do(context.Background(), failingOp(failures, &calls))

			require.NoError(t, err)
			assert.Equal(t, failures+1, calls)
		})
	}
}

func TestDo_TransientFailuresAtLimitFail(t *testing.T) {
	for _, failures := range []int{3, 4, 10} {
		t.Run(fmt.Sprintf("%d failures", failures), func(t *testing.T) {
			calls := 0
			err := fastPolicy(3).Do(context.Background(), failingOp(failures, &calls))

			require.Error(t, err)
			assert.True(t, IsTransient(err))
			assert.Contains(t, err.Error(), "giving up after 3 attempts")
			assert.Equal(t, 3, calls)
		})
	}
}

func TestDo_NonTransientFailsImmediately(t *testing.T) {
	permanent := errors.New("index_not_found_exception")
	calls := 0

	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryHook(t *testing.T) {
	policy := fastPolicy(3)
	var attempts []int
	policy.OnRetry = func(attempt int, _ time.Duration, _ error) {
		attempts = append(attempts, attempt)
	}

	calls := 0
	require.NoError(t, policy.Do(context.Background(), failingOp(2, &calls)))
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	policy := NewPolicy(Config{MaxAttempts: 5, InitialDelay: time.Minute, MaxDelay: time.Minute, BackoffMultiplier: 2})
	ctx, cancel := context.WithCancel(context.Background())
	policy.OnRetry = func(int, time.Duration, error) { cancel() }

	calls := 0
	err := policy.Do(ctx, failingOp(10, &calls))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"marked", Transient(errors.New("boom")), true},
		{"wrapped marked", fmt.Errorf("search: %w", Transient(errors.New("boom"))), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"connection refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"plain", errors.New("bad request"), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransient_Nil(t *testing.T) {
	assert.NoError(t, Transient(nil))
}
