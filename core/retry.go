package core

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy determines retry behavior for failed requests.
type RetryPolicy interface {
	// NextDelay returns the delay before the next attempt and whether to retry.
	// attempt starts at 0 for the first retry after the initial failure.
	NextDelay(attempt int, err error) (delay time.Duration, ok bool)
}

// RetryConfig configures exponential backoff.
type RetryConfig struct {
	MaxRetries int           // default 3
	BaseDelay  time.Duration // default 1s
	MaxDelay   time.Duration // default 30s
	Jitter     float64       // 0.0-1.0; out of range means 0.2
}

// DefaultRetryPolicy returns exponential backoff with jitter, 3 retries, 30s cap.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(RetryConfig{})
}

// NewRetryPolicy creates a backoff policy, filling zero fields with defaults.
func NewRetryPolicy(cfg RetryConfig) RetryPolicy {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = 0.2
	}
	return &exponentialBackoff{cfg: cfg}
}

type exponentialBackoff struct {
	cfg RetryConfig
}

func (e *exponentialBackoff) NextDelay(attempt int, err error) (time.Duration, bool) {
	if attempt >= e.cfg.MaxRetries || !IsRetryable(err) {
		return 0, false
	}

	delay := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if e.cfg.Jitter > 0 {
		jitterRange := delay * e.cfg.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay > float64(e.cfg.MaxDelay) {
		delay = float64(e.cfg.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay), true
}

// IsRetryable reports whether err is a transient failure worth retrying.
// Cancellation, configuration, authentication, request-shape and
// malformed-response errors are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrNotConfigured),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrInvalidTool):
		return false
	case errors.Is(err, ErrNetwork),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrServer):
		return true
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Status == 429 || (pe.Status >= 500 && pe.Status < 600)
	}
	return false
}
