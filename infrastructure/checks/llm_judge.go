package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

var _ ports.LLMEvaluator = (*LLMJudge)(nil)

// LLMEvaluationCheckID is the check_id recorded when the LLM step
// itself fails. The failure is captured as a single error result so the
// deterministic checks are still returned.
const LLMEvaluationCheckID = LLMCheckIDPrefix + "evaluation"

// LLMJudgeConfig defines the configuration for the LLM judge.
// All fields are validated during judge creation.
type LLMJudgeConfig struct {
	// Rubric is the grading instructions included in the prompt.
	Rubric string `yaml:"rubric" json:"rubric" validate:"required,min=20"`

	// ScaleMin and ScaleMax bound the scores the model may assign.
	ScaleMin float64 `yaml:"scale_min" json:"scale_min"`
	ScaleMax float64 `yaml:"scale_max" json:"scale_max" validate:"gtfield=ScaleMin"`

	// PassThreshold is the minimum score for a judgment to count as a
	// pass. Must lie within the scale.
	PassThreshold float64 `yaml:"pass_threshold" json:"pass_threshold"`

	// Temperature controls randomness in grading (0.0-1.0).
	// Lower values produce more consistent judgments.
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0,max=1"`

	// MaxTokens limits the length of the graded response.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=4000"`

	// MaxExcerptRecords bounds how many records from the output are
	// included in the prompt, keeping prompts within model limits.
	MaxExcerptRecords int `yaml:"max_excerpt_records" json:"max_excerpt_records" validate:"required,min=1,max=1000"`
}

// DefaultLLMJudgeConfig returns an LLMJudgeConfig with sensible
// defaults on the same 1-5 scale the deterministic scoring uses.
func DefaultLLMJudgeConfig() LLMJudgeConfig {
	return LLMJudgeConfig{
		Rubric: "Grade the analysis output for overall quality and for signs of " +
			"false positives. Consider whether the record metrics are plausible, " +
			"internally consistent, and complete.",
		ScaleMin:          1,
		ScaleMax:          5,
		PassThreshold:     3.5,
		Temperature:       0,
		MaxTokens:         1024,
		MaxExcerptRecords: 50,
	}
}

// llmJudgment is one graded aspect in the model's response.
type llmJudgment struct {
	// CheckID names the graded aspect, e.g. "output_quality".
	// It is namespaced under the llm. prefix before entering the report.
	CheckID string `json:"check_id" validate:"required"`

	// Score is the grade on the configured scale. Range enforcement
	// happens against the scale after parsing, so 0 is a legal value on
	// a zero-based scale.
	Score float64 `json:"score"`

	// Confidence indicates how certain the model is (0.0-1.0).
	Confidence float64 `json:"confidence" validate:"min=0,max=1"`

	// Reasoning explains the grade.
	Reasoning string `json:"reasoning" validate:"required,min=10"`
}

// llmResponse is the accepted response schema. It is validated before
// any judgment enters the report.
type llmResponse struct {
	Judgments []llmJudgment `json:"judgments" validate:"required,min=1,dive"`

	// Version allows for future schema evolution.
	Version int `json:"version,omitempty"`
}

// LLMJudge grades qualitative aspects of tool output with a language
// model. It constructs a prompt from the rubric and a bounded excerpt
// of the output, calls the LLM client, parses the graded response into
// CheckResult-shaped judgments under the reserved llm. namespace, and
// converts any call or parse failure into a single error result so the
// deterministic portion of the report is never suppressed.
//
// Timeouts are enforced by the client's middleware chain; the judge
// itself never retries.
type LLMJudge struct {
	config LLMJudgeConfig
	client ports.LLMClient
	tracer trace.Tracer
}

// NewLLMJudge creates an LLMJudge with validated configuration.
func NewLLMJudge(client ports.LLMClient, config LLMJudgeConfig) (*LLMJudge, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if config.PassThreshold < config.ScaleMin || config.PassThreshold > config.ScaleMax {
		return nil, fmt.Errorf("pass threshold %g outside scale [%g, %g]",
			config.PassThreshold, config.ScaleMin, config.ScaleMax)
	}
	return &LLMJudge{
		config: config,
		client: client,
		tracer: otel.Tracer("llm-judge"),
	}, nil
}

// Judge runs the LLM evaluation and returns its judgments.
// On any failure it returns exactly one error result; it never panics
// and never returns an empty slice.
func (j *LLMJudge) Judge(ctx context.Context, input ports.CheckInput) []domain.CheckResult {
	ctx, span := j.tracer.Start(ctx, "LLMJudge.Judge",
		trace.WithAttributes(attribute.String("llm.model", j.client.GetModel())),
	)
	defer span.End()

	if input.Output == nil {
		return []domain.CheckResult{
			domain.ErrorResult(LLMEvaluationCheckID, LLMDimension, "no analysis output supplied"),
		}
	}

	prompt, err := j.buildPrompt(input)
	if err != nil {
		span.RecordError(err)
		return j.errorResult("build prompt", err)
	}

	response, tokensIn, tokensOut, err := j.client.CompleteWithUsage(ctx, prompt, map[string]any{
		"temperature": j.config.Temperature,
		"max_tokens":  j.config.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return j.errorResult("complete", err)
	}

	results, err := j.parseResponse(response)
	if err != nil {
		span.RecordError(err)
		return j.errorResult("parse response", err)
	}

	span.SetAttributes(
		attribute.Int("llm.judgments", len(results)),
		attribute.Int("llm.tokens_in", tokensIn),
		attribute.Int("llm.tokens_out", tokensOut),
	)
	return results
}

// errorResult wraps a step failure into the single error CheckResult
// recorded for the whole LLM evaluation.
func (j *LLMJudge) errorResult(operation string, err error) []domain.CheckResult {
	llmErr := ports.NewLLMError(j.client.GetModel(), operation, err)
	return []domain.CheckResult{
		domain.ErrorResult(LLMEvaluationCheckID, LLMDimension, llmErr.Error()),
	}
}

// buildPrompt assembles the grading prompt: rubric, bounded output
// excerpt, optional ground-truth excerpt, and the strict response
// format contract.
func (j *LLMJudge) buildPrompt(input ports.CheckInput) (string, error) {
	excerpt, err := j.outputExcerpt(input.Output)
	if err != nil {
		return "", fmt.Errorf("marshal output excerpt: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are grading the output of the static-analysis tool ")
	fmt.Fprintf(&b, "%q (schema %s).\n\n", input.Output.Tool, input.Output.SchemaVersion)
	b.WriteString("Rubric:\n")
	b.WriteString(j.config.Rubric)
	b.WriteString("\n\nTool output excerpt:\n")
	b.WriteString(excerpt)

	if input.GroundTruth != nil {
		gt, err := json.MarshalIndent(input.GroundTruth.Records, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal ground truth: %w", err)
		}
		b.WriteString("\n\nExpected values:\n")
		b.Write(gt)
	}

	fmt.Fprintf(&b, "\n\nScore each aspect on a %g-%g scale. ", j.config.ScaleMin, j.config.ScaleMax)
	b.WriteString("IMPORTANT: You must respond with valid JSON in exactly this format:\n")
	b.WriteString(`{"judgments": [{"check_id": "<aspect>", "score": <number>, ` +
		`"confidence": <0.0-1.0>, "reasoning": "<detailed explanation>"}], "version": 1}`)

	return b.String(), nil
}

// outputExcerpt marshals up to MaxExcerptRecords records in
// deterministic order.
func (j *LLMJudge) outputExcerpt(output *domain.AnalysisOutput) (string, error) {
	ids := output.RecordIDs()
	sort.Strings(ids)
	if len(ids) > j.config.MaxExcerptRecords {
		ids = ids[:j.config.MaxExcerptRecords]
	}

	excerpt := make(map[string]domain.MetricSet, len(ids))
	for _, id := range ids {
		excerpt[id] = output.Records[id]
	}

	data, err := json.MarshalIndent(excerpt, "", "  ")
	if err != nil {
		return "", err
	}
	if len(ids) < len(output.Records) {
		return fmt.Sprintf("%s\n(%d of %d records shown)",
			data, len(ids), len(output.Records)), nil
	}
	return string(data), nil
}

// parseResponse validates the model's response against the accepted
// schema and converts each judgment into a namespaced CheckResult.
func (j *LLMJudge) parseResponse(response string) ([]domain.CheckResult, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("%w: no JSON object in response (%d chars)",
			ports.ErrInvalidResponse, len(response))
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err)
	}
	if err := validate.Struct(parsed); err != nil {
		return nil, fmt.Errorf("%w: schema validation failed: %v", ports.ErrInvalidResponse, err)
	}

	results := make([]domain.CheckResult, 0, len(parsed.Judgments))
	seen := make(map[string]bool, len(parsed.Judgments))

	for _, judgment := range parsed.Judgments {
		if judgment.Score < j.config.ScaleMin || judgment.Score > j.config.ScaleMax {
			return nil, fmt.Errorf("%w: judgment %q score %g outside scale [%g, %g]",
				ports.ErrInvalidResponse, judgment.CheckID, judgment.Score,
				j.config.ScaleMin, j.config.ScaleMax)
		}

		checkID := namespaceCheckID(judgment.CheckID)
		if seen[checkID] {
			return nil, fmt.Errorf("%w: duplicate judgment id %q",
				ports.ErrInvalidResponse, checkID)
		}
		seen[checkID] = true

		status := domain.StatusPass
		if judgment.Score < j.config.PassThreshold {
			status = domain.StatusFail
		}

		score := judgment.Score
		results = append(results, domain.CheckResult{
			CheckID:   checkID,
			Dimension: LLMDimension,
			Status:    status,
			Message: fmt.Sprintf("score %g/%g (confidence %.2f): %s",
				judgment.Score, j.config.ScaleMax, judgment.Confidence, judgment.Reasoning),
			Score: &score,
		})
	}

	return results, nil
}

// namespaceCheckID forces a judgment id under the reserved llm. prefix
// so LLM results can never collide with deterministic check IDs.
func namespaceCheckID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, LLMCheckIDPrefix) {
		return id
	}
	return LLMCheckIDPrefix + id
}

// extractJSON extracts a JSON object from a response that may wrap it
// in markdown code fences or surrounding prose. It returns "" when no
// balanced object is found.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(response, "```"); idx != -1 {
		rest := response[idx+3:]
		if nl := strings.Index(rest, "\n"); nl != -1 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end != -1 {
			if candidate := strings.TrimSpace(rest[:end]); strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Walk to the matching closing brace, skipping braces inside
	// string literals.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}
