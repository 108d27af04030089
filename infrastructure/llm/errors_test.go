package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvet/toolvet/internal/ports"
)

func TestErrorClassifier_ClassifyHTTPError(t *testing.T) {
	ec := &ErrorClassifier{Provider: "anthropic"}

	tests := []struct {
		name       string
		statusCode int
		wantType   ErrorType
		sentinel   error
	}{
		{"unauthorized", 401, ErrorTypeAuthentication, ports.ErrAuthenticationFailed},
		{"forbidden", 403, ErrorTypeAuthentication, ports.ErrAuthenticationFailed},
		{"rate limited", 429, ErrorTypeRateLimit, ports.ErrRateLimited},
		{"bad request", 400, ErrorTypeBadRequest, nil},
		{"not found", 404, ErrorTypeNotFound, nil},
		{"server error", 500, ErrorTypeServerError, ports.ErrServiceUnavailable},
		{"bad gateway", 502, ErrorTypeServerError, ports.ErrServiceUnavailable},
		{"teapot falls back to bad request", 418, ErrorTypeBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := errors.New("api says no")
			err := ec.ClassifyHTTPError(tt.statusCode, "msg", wrapped)

			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.statusCode, err.StatusCode)
			assert.ErrorIs(t, err, wrapped)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestErrorClassifier_ClassifyContextError(t *testing.T) {
	ec := &ErrorClassifier{Provider: "openai"}

	deadline := ec.ClassifyContextError(context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, deadline.Type)
	assert.ErrorIs(t, deadline, ports.ErrTimeout)
	assert.ErrorIs(t, deadline, context.DeadlineExceeded)

	canceled := ec.ClassifyContextError(context.Canceled)
	assert.Equal(t, ErrorTypeTimeout, canceled.Type)
}

func TestProviderError_Message(t *testing.T) {
	err := NewProviderError("google", ErrorTypeRateLimit, 429, "quota exhausted", errors.New("raw"))

	msg := err.Error()
	assert.Contains(t, msg, "google error")
	assert.Contains(t, msg, "HTTP 429")
	assert.Contains(t, msg, "rate_limit")
	assert.Contains(t, msg, "quota exhausted")
}

func TestProviderError_FeedsPortsRetryability(t *testing.T) {
	providerErr := NewProviderError("anthropic", ErrorTypeRateLimit, 429, "slow down", nil)
	llmErr := ports.NewLLMError("claude", "complete", providerErr)

	// Retryability is informational: the judge reports it but never
	// acts on it.
	require.True(t, llmErr.IsRetryable())

	badRequest := ports.NewLLMError("claude", "complete",
		NewProviderError("anthropic", ErrorTypeBadRequest, 400, "bad prompt", nil))
	assert.False(t, badRequest.IsRetryable())
}
