package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCore is a CoreLLM stub that records calls.
type recordingCore struct {
	model    string
	response string
	err      error
	calls    int
	lastOpts map[string]any
}

func (r *recordingCore) DoRequest(_ context.Context, _ string, opts map[string]any) (string, int, int, error) {
	r.calls++
	r.lastOpts = opts
	return r.response, 10, 20, r.err
}

func (r *recordingCore) GetModel() string  { return r.model }
func (r *recordingCore) SetModel(m string) { r.model = m }

// taggingMiddleware appends its tag to a shared trace, proving
// middleware ordering.
func taggingMiddleware(tag string, trace *[]string) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &taggedLLM{next: next, tag: tag, trace: trace}
	}
}

type taggedLLM struct {
	next  CoreLLM
	tag   string
	trace *[]string
}

func (t *taggedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	*t.trace = append(*t.trace, t.tag)
	return t.next.DoRequest(ctx, prompt, opts)
}

func (t *taggedLLM) GetModel() string  { return t.next.GetModel() }
func (t *taggedLLM) SetModel(m string) { t.next.SetModel(m) }

func TestNewClient_Validation(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := NewClient("anthropic", ClientConfig{Model: "m"})
		assert.ErrorIs(t, err, ErrEmptyAPIKey)
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		_, err := NewClient("skynet", ClientConfig{APIKey: "k", Model: "m"})
		assert.ErrorContains(t, err, "unknown provider")
	})
}

func TestClient_MiddlewareOrder(t *testing.T) {
	core := &recordingCore{model: "test-model", response: "ok"}
	RegisterProviderFactory("test-ordered", func(ClientConfig) (CoreLLM, error) {
		return core, nil
	})

	var trace []string
	client, err := NewClient("test-ordered", ClientConfig{
		APIKey: "k",
		Model:  "test-model",
		Middleware: []Middleware{
			taggingMiddleware("outer", &trace),
			taggingMiddleware("inner", &trace),
		},
	})
	require.NoError(t, err)

	response, err := client.Complete(context.Background(), "hello", nil)
	require.NoError(t, err)

	assert.Equal(t, "ok", response)
	assert.Equal(t, 1, core.calls)
	// The first configured middleware is outermost.
	assert.Equal(t, []string{"outer", "inner"}, trace)
}

func TestClient_CompleteWithUsage(t *testing.T) {
	core := &recordingCore{model: "test-model", response: "graded"}
	RegisterProviderFactory("test-usage", func(ClientConfig) (CoreLLM, error) {
		return core, nil
	})

	client, err := NewClient("test-usage", ClientConfig{APIKey: "k", Model: "test-model"})
	require.NoError(t, err)

	response, tokensIn, tokensOut, err := client.CompleteWithUsage(
		context.Background(), "prompt", map[string]any{"temperature": 0.2})
	require.NoError(t, err)

	assert.Equal(t, "graded", response)
	assert.Equal(t, 10, tokensIn)
	assert.Equal(t, 20, tokensOut)
	assert.Equal(t, 0.2, core.lastOpts["temperature"])
	assert.Equal(t, "test-model", client.GetModel())
}

func TestSimpleTokenEstimator(t *testing.T) {
	e := &SimpleTokenEstimator{}

	assert.Equal(t, 0, e.EstimateTokens(""))
	assert.Equal(t, 1, e.EstimateTokens("abc"))
	assert.Equal(t, 1, e.EstimateTokens("abcd"))
	assert.Equal(t, 2, e.EstimateTokens("abcde"))
}
