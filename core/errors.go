package core

import (
	"context"
	"errors"
	"fmt"
)

// ProviderError represents an error returned by a provider with full context.
type ProviderError struct {
	Provider  string
	Status    int
	RequestID string
	Code      string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Err, e.Message)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (status=%d, code=%s, request_id=%s)",
			e.Provider, e.Message, e.Status, e.Code, e.RequestID)
	}
	return fmt.Sprintf("%s: %s (status=%d, code=%s)",
		e.Provider, e.Message, e.Status, e.Code)
}

// Unwrap returns the underlying error for error chaining.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports ErrAPI for any error produced from an HTTP status of 400 or above.
func (e *ProviderError) Is(target error) bool {
	return target == ErrAPI && e.Status >= 400
}

// Sentinel errors for classification.
var (
	ErrNotConfigured     = errors.New("not configured: an API key is required")
	ErrNetwork           = errors.New("network error")
	ErrAPI               = errors.New("api error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRateLimited       = errors.New("rate limited")
	ErrBadRequest        = errors.New("bad request")
	ErrNotFound          = errors.New("not found")
	ErrServer            = errors.New("server error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrCancelled         = errors.New("cancelled")
	ErrInvalidTool       = errors.New("invalid tool definition")
)

// Bridge errors. They are never produced by the executor itself.
var (
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrUnknownCommand   = errors.New("call not found")
)

// Cancelled wraps a context error so that it matches both ErrCancelled and
// the original context error.
func Cancelled(cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// ContextError returns a cancellation error if ctx is done, nil otherwise.
func ContextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return Cancelled(err)
	}
	return nil
}
