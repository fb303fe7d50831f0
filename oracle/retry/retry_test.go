package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) *Config {
	return &Config{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, DefaultIsRetryable)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("invalid mnemonic")
	calls := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		return permanent
	}, DefaultIsRetryable)

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	transient := errors.New("i/o timeout")
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return transient
	}, DefaultIsRetryable)

	require.ErrorIs(t, err, transient)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Equal(t, 3, calls)
}

func TestDo_UnlimitedUntilContextEnds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := Do(ctx, PollConfig(time.Millisecond), func() error {
		return errors.New("timeout")
	}, DefaultIsRetryable)

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalculateDelay(t *testing.T) {
	cfg := &Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(cfg, 1))
	assert.Equal(t, 200*time.Millisecond, calculateDelay(cfg, 2))
	assert.Equal(t, 400*time.Millisecond, calculateDelay(cfg, 3))
	assert.Equal(t, time.Second, calculateDelay(cfg, 10))

	poll := PollConfig(3 * time.Second)
	assert.Equal(t, 3*time.Second, calculateDelay(poll, 1))
	assert.Equal(t, 3*time.Second, calculateDelay(poll, 7))
}

func TestDefaultIsRetryable(t *testing.T) {
	assert.False(t, DefaultIsRetryable(nil))
	assert.True(t, DefaultIsRetryable(errors.New("dial tcp: connection reset by peer")))
	assert.False(t, DefaultIsRetryable(errors.New("out of gas")))
	assert.True(t, DefaultIsRetryable(fmt.Errorf("failed to fetch event: %w", io.ErrUnexpectedEOF)))
}

func TestDefaultIsRetryable_HTTPStatus(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"unavailable", &HTTPStatusError{Code: 503}, true},
		{"bad gateway wrapped", fmt.Errorf("rejected: %w", &HTTPStatusError{Code: 502}), true},
		{"rate limited", &HTTPStatusError{Code: 429}, true},
		{"not found with 503 in body", &HTTPStatusError{Code: 404, Body: []byte(`{"error":"event 503 missing"}`)}, false},
		{"bad request with EOF in body", &HTTPStatusError{Code: 400, Body: []byte("unexpected EOF in query")}, false},
		{"bare text mentioning 502", errors.New("market 502 has no outcome prices"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DefaultIsRetryable(tc.err))
		})
	}
}
