package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastRetrier(attempts int) *Retrier {
	return New(WithMaxAttempts(attempts), WithInitialDelay(time.Millisecond), WithJitter(0))
}

func TestRetrier_RetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errTransient)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_StopsOnPlainError(t *testing.T) {
	calls := 0
	plain := errors.New("bad request")
	err := fastRetrier(5).Do(context.Background(), func(context.Context) error {
		calls++
		return plain
	})

	assert.ErrorIs(t, err, plain)
	assert.Equal(t, 1, calls)
}

func TestRetrier_StopsOnPermanent(t *testing.T) {
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errTransient)
	})

	assert.Equal(t, errTransient, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_ExhaustsAttempts(t *testing.T) {
	calls := 0
	var retried []int
	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }),
	)
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(errTransient)
	})

	assert.Equal(t, errTransient, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetrier_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fastRetrier(3).Do(ctx, func(context.Context) error {
		t.Fatal("operation must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), fastRetrier(2), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", Retryable(errTransient)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
