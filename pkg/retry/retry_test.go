package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tempErr struct {
	msg  string
	temp bool
}

func (e *tempErr) Error() string   { return e.msg }
func (e *tempErr) Temporary() bool { return e.temp }

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		JitterFactor: 0.1,
	}
}

func TestRetryer_SucceedsAfterTransientFailures(t *testing.T) {
	r := New(fastConfig())

	calls := 0
	err := r.Do(context.Background(), "embed", func() error {
		calls++
		if calls < 3 {
			return &tempErr{msg: "server error", temp: true}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryer_DoesNotRetryClientErrors(t *testing.T) {
	r := New(fastConfig())

	calls := 0
	err := r.Do(context.Background(), "embed", func() error {
		calls++
		return &tempErr{msg: "bad request", temp: false}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryer_ExhaustsAttempts(t *testing.T) {
	r := New(fastConfig())

	calls := 0
	err := r.Do(context.Background(), "embed", func() error {
		calls++
		return &tempErr{msg: "still down", temp: true}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "embed failed after 3 attempts")
}

func TestRetryer_StopsOnContextCancel(t *testing.T) {
	r := New(Config{MaxAttempts: 5, BaseDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, "embed", func() error {
		calls++
		return &tempErr{msg: "down", temp: true}
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryable_Classification(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(errors.New("invalid source type")))
	assert.True(t, Retryable(errors.New("dial tcp: connection refused")))
	assert.True(t, Retryable(errors.New("429 too many requests")))
	assert.True(t, Retryable(&tempErr{msg: "503", temp: true}))
	assert.False(t, Retryable(&tempErr{msg: "401", temp: false}))
}
