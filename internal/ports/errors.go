package ports

import (
	"errors"
	"fmt"
	"time"
)

// Common infrastructure errors surfaced by external service interactions.
var (
	// ErrRateLimited indicates the service rate limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates the external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidResponse indicates the service returned a response that
	// could not be parsed into the expected schema.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrAuthenticationFailed indicates authentication with the service
	// failed.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// LLMError reports a failure of the external language-model call or of
// parsing its response. The LLM evaluator records it as a single error
// CheckResult rather than aborting the report, so deterministic checks
// are never suppressed by an LLM failure.
type LLMError struct {
	// Model is the identifier of the model that generated the error.
	Model string

	// Operation names the operation that failed.
	Operation string

	// Err is the underlying error.
	Err error

	// TokensUsed is the number of tokens consumed before the failure.
	TokensUsed int

	// RetryAfter indicates how long the provider asked to wait, when
	// known. Informational only: the harness never retries.
	RetryAfter *time.Duration
}

// Error implements the error interface for LLMError.
func (e *LLMError) Error() string {
	msg := fmt.Sprintf("LLM error: model=%s, operation=%s, err=%v", e.Model, e.Operation, e.Err)
	if e.TokensUsed > 0 {
		msg += fmt.Sprintf(", tokens_used=%d", e.TokensUsed)
	}
	if e.RetryAfter != nil {
		msg += fmt.Sprintf(", retry_after=%v", *e.RetryAfter)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error { return e.Err }

// IsRetryable reports whether the failure was transient at the service
// level. The harness records this for diagnostics but still does not
// retry.
func (e *LLMError) IsRetryable() bool {
	return errors.Is(e.Err, ErrRateLimited) ||
		errors.Is(e.Err, ErrServiceUnavailable) ||
		errors.Is(e.Err, ErrTimeout)
}

// NewLLMError creates an LLMError with the given details.
func NewLLMError(model, operation string, err error) *LLMError {
	return &LLMError{Model: model, Operation: operation, Err: err}
}

// RunnerError reports a failed tool invocation within the reliability
// harness.
type RunnerError struct {
	// Fixture is the fixture the tool ran against.
	Fixture string

	// RunIndex is the zero-based run number that failed.
	RunIndex int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for RunnerError.
func (e *RunnerError) Error() string {
	return fmt.Sprintf("tool run failed: fixture=%s, run=%d, err=%v", e.Fixture, e.RunIndex, e.Err)
}

// Unwrap returns the underlying error.
func (e *RunnerError) Unwrap() error { return e.Err }

// NewRunnerError creates a RunnerError with the given details.
func NewRunnerError(fixture string, runIndex int, err error) *RunnerError {
	return &RunnerError{Fixture: fixture, RunIndex: runIndex, Err: err}
}
