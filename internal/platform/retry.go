package platform

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig configures exponential backoff for remote calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool
}

// DefaultRetryConfig returns the settings used when none are configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Is makes 404 responses match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// permanentError marks a failure that another attempt cannot fix, such as an
// unparseable response body.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// Retryable reports whether err is worth another attempt: transport
// failures, rate limiting and server errors.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var pe permanentError
	if errors.As(err, &pe) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	// Anything else reaching here failed before a response arrived.
	return true
}

// withRetry runs op until it succeeds, fails permanently, or runs out of
// attempts.
func withRetry(ctx context.Context, cfg RetryConfig, what string, op func() error) error {
	var err error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err = op(); err == nil {
			if attempt > 0 {
				log.Debug().Str("op", what).Int("retries", attempt).Msg("Succeeded after retry")
			}
			return nil
		}
		if !Retryable(err) || attempt == cfg.MaxRetries {
			return err
		}

		delay := backoffDelay(cfg, attempt)
		log.Warn().Err(err).Str("op", what).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Remote call failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// backoffDelay is BaseDelay * Multiplier^attempt, capped at MaxDelay, with up
// to 10% jitter either way.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	mult := cfg.Multiplier
	if mult <= 0 {
		mult = 2.0
	}
	delay := float64(cfg.BaseDelay) * math.Pow(mult, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		delay += (rand.Float64() - 0.5) * 2 * delay * 0.1
		if delay < 0 {
			delay = float64(cfg.BaseDelay)
		}
	}
	return time.Duration(delay)
}
