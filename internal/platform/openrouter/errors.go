package openrouter

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds surfaced by the client. Each failure path maps to exactly one
// kind so callers can decide between a "temporary, try again" affordance
// (rate limit, connection) and a terminal error (status, parsing, schema).
var (
	// ErrConfiguration indicates the client was constructed without an API
	// key. It is raised once at construction time, never per call.
	ErrConfiguration = errors.New("completion API key is not configured")

	// ErrConnection indicates a network-level failure or timeout talking to
	// the completion API. Retried up to the retry budget.
	ErrConnection = errors.New("failed to communicate with completion API")

	// ErrRateLimited indicates HTTP 429 responses persisted through the
	// retry budget. Match typed details with errors.As(&RateLimitError{}).
	ErrRateLimited = errors.New("rate limited by completion API")

	// ErrUnexpectedStatus indicates a non-2xx, non-429 response. Terminal.
	ErrUnexpectedStatus = errors.New("unexpected completion API status")

	// ErrResponseParsing indicates a malformed or unexpectedly shaped
	// response body, or content that is not valid JSON. Terminal.
	ErrResponseParsing = errors.New("unable to parse completion API response")

	// ErrSchemaValidation indicates the decoded JSON failed the caller's
	// schema. Terminal; never retried.
	ErrSchemaValidation = errors.New("completion response does not match the expected schema")

	// ErrCancelled indicates the caller cancelled the request context.
	// Distinct from a timeout so the caller can stay silent about
	// user-initiated aborts.
	ErrCancelled = errors.New("completion request cancelled")
)

// StatusError carries the HTTP status of a terminal non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion API responded with status %d: %s", e.StatusCode, e.Status)
}

// Is makes errors.Is(err, ErrUnexpectedStatus) match StatusError values.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// RateLimitError carries the server's retry-after hint, when present,
// after the retry budget for 429 responses is exhausted.
type RateLimitError struct {
	// RetryAfter is zero when the server supplied no hint.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by completion API, retry after %s", e.RetryAfter)
	}
	return "rate limited by completion API"
}

// Is makes errors.Is(err, ErrRateLimited) match RateLimitError values.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// SchemaValidationError carries the structured diagnostics produced when the
// decoded response fails the caller-supplied schema.
type SchemaValidationError struct {
	Problems []string
}

func (e *SchemaValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrSchemaValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrSchemaValidation, strings.Join(e.Problems, "; "))
}

// Is makes errors.Is(err, ErrSchemaValidation) match SchemaValidationError values.
func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// IsRetryable reports whether the error is a temporary failure the caller
// may reasonably retry (rate limit or connectivity). The client has already
// spent its own retry budget by the time such an error surfaces.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrConnection)
}
