package ports

import (
	"context"
	"time"
)

// LLMClient defines the interface for interacting with Large Language
// Model providers. Implementations handle provider-specific details like
// authentication, request formatting, and response parsing.
type LLMClient interface {
	// Complete sends a completion request to the LLM provider and
	// returns the generated text. Implementations enforce timeouts but
	// never retry: a single external-call failure is terminal for the
	// caller's step.
	//
	// The options map allows provider-specific configuration without
	// changing the interface. Common options include:
	//   - "temperature": float64 (0.0-1.0)
	//   - "max_tokens": int
	//   - "model": string (specific model version)
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// CompleteWithUsage is Complete plus the provider-reported input and
	// output token counts, for usage accounting.
	CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (response string, tokensIn, tokensOut int, err error)

	// EstimateTokens calculates the approximate token count for a given
	// text, used for cost estimation and excerpt sizing.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier being used by this client.
	GetModel() string
}

// ToolRunner executes the target analysis tool against a fixture and
// returns the path of the output file it produced. The reliability
// harness invokes it N times for the same fixture; implementations must
// not retry failed runs, since disagreement and failure are both defect
// signals rather than transient noise.
type ToolRunner interface {
	// Run executes the tool once for the given fixture and run index.
	// The run index lets implementations keep per-run output files
	// apart. The returned path must reference a file readable until
	// the evaluation completes.
	Run(ctx context.Context, fixture string, runIndex int) (outputPath string, err error)
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations integrate with observability platforms such
// as Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram distribution.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
