package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for provider operations.
var (
	// ErrNotConfigured indicates no API key was supplied for the provider.
	ErrNotConfigured = errors.New("llm provider not configured")

	// ErrUnknownProvider indicates the configured provider name is not supported.
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrEmptyResponse indicates the provider answered without any text.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrRateLimited indicates the request was rate limited.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates the provider returned a server-side failure.
	ErrUnavailable = errors.New("provider unavailable")
)

// Error wraps provider errors with context.
type Error struct {
	Provider  string // "openai", "anthropic"
	Op        string // "complete", "ping"
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a provider error.
func NewError(provider, op string, err error, retryable bool) *Error {
	return &Error{Provider: provider, Op: op, Err: err, Retryable: retryable}
}

// IsRetryable reports whether err is likely transient.
func IsRetryable(err error) bool {
	var provErr *Error
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, context.DeadlineExceeded)
}

// retryableStatus classifies an HTTP status returned by a provider API.
// Zero means the request never got a response.
func retryableStatus(status int) bool {
	switch {
	case status == 0:
		return true
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}
