package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/GPTx-global/drpost/oracle/log"
)

// Config controls back-off between attempts. A MaxAttempts of zero retries
// until the context ends.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// NetworkConfig is used for transient RPC failures.
func NetworkConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
	}
}

// PollConfig polls at a fixed interval with no attempt limit.
func PollConfig(interval time.Duration) *Config {
	return &Config{
		MaxAttempts: 0,
		BaseDelay:   interval,
		MaxDelay:    interval,
		Multiplier:  1.0,
	}
}

type RetryableFunc func() error

type IsRetryable func(error) bool

var retryableErrors = []string{
	"connection refused",
	"timeout",
	"temporary failure",
	"network is unreachable",
	"no such host",
	"connection reset",
	"broken pipe",
}

// HTTPStatusError is returned for a non-2xx HTTP response.
type HTTPStatusError struct {
	Code int
	Body []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%d - %s", e.Code, e.Body)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DefaultIsRetryable treats transport level failures and overloaded upstreams
// as transient. HTTP responses are judged by status code only.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.Code)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	errStr := err.Error()
	for _, retryableErr := range retryableErrors {
		if strings.Contains(errStr, retryableErr) {
			return true
		}
	}
	return false
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted or ctx ends.
func Do(ctx context.Context, config *Config, fn RetryableFunc, isRetryable IsRetryable) error {
	var lastErr error

	for attempt := 1; config.MaxAttempts == 0 || attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if config.MaxAttempts != 0 && attempt == config.MaxAttempts {
			break
		}

		delay := calculateDelay(config, attempt)
		log.Debugf("attempt %d failed, retrying in %v: %v", attempt, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", config.MaxAttempts, lastErr)
}

func calculateDelay(config *Config, attempt int) time.Duration {
	multiplier := config.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := float64(config.BaseDelay) * math.Pow(multiplier, float64(attempt-1))
	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	return time.Duration(delay)
}
