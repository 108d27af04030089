package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

// llmCheckIDPrefix is the namespace reserved for LLM judgments.
// Deterministic checks may not register IDs under it.
const llmCheckIDPrefix = "llm."

// Aggregator runs a declared, ordered list of checks against an
// evaluation input and assembles the results into an EvaluationReport.
//
// Invariants it maintains:
//   - checks run sequentially in declared order, and results preserve
//     that order so repeated runs produce reproducible diffs;
//   - a check that panics yields exactly one error CheckResult and
//     never aborts the report;
//   - check IDs are unique within a report, enforced at construction;
//   - an LLM evaluator failure contributes a single error result and
//     never suppresses the deterministic results.
type Aggregator struct {
	checks    []ports.Check
	weights   []domain.DimensionWeight
	evaluator ports.LLMEvaluator
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// AggregatorOption customizes an Aggregator.
type AggregatorOption func(*Aggregator)

// WithLLMEvaluator attaches the optional qualitative judge. Its
// judgments are appended after the deterministic results.
func WithLLMEvaluator(evaluator ports.LLMEvaluator) AggregatorOption {
	return func(a *Aggregator) { a.evaluator = evaluator }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = logger }
}

// withClock overrides the report timestamp source in tests.
func withClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an Aggregator for the given checks and
// dimension weights. It rejects duplicate or reserved check IDs and
// checks whose Validate fails, so misconfiguration surfaces before any
// evaluation runs.
func NewAggregator(checks []ports.Check, weights []domain.DimensionWeight, opts ...AggregatorOption) (*Aggregator, error) {
	if len(checks) == 0 {
		return nil, fmt.Errorf("at least one check is required")
	}

	seen := make(map[string]bool, len(checks))
	for _, check := range checks {
		id := check.ID()
		if id == "" {
			return nil, fmt.Errorf("check with empty id")
		}
		if strings.HasPrefix(id, llmCheckIDPrefix) {
			return nil, fmt.Errorf("check %s: the %q prefix is reserved for LLM judgments", id, llmCheckIDPrefix)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate check id %s", id)
		}
		seen[id] = true

		if err := check.Validate(); err != nil {
			return nil, fmt.Errorf("check %s: %w", id, err)
		}
	}

	a := &Aggregator{
		checks:  checks,
		weights: weights,
		logger:  slog.Default(),
		tracer:  otel.Tracer("report-aggregator"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Evaluate runs every check in declared order, appends the optional LLM
// judgments, and returns the assembled report. The only error it can
// return is a missing output, which is a wiring defect: check failures
// of every kind are captured inside the report.
func (a *Aggregator) Evaluate(ctx context.Context, input ports.CheckInput) (domain.EvaluationReport, error) {
	if input.Output == nil {
		return domain.EvaluationReport{}, fmt.Errorf("evaluation requires a loaded analysis output")
	}

	ctx, span := a.tracer.Start(ctx, "Aggregator.Evaluate",
		trace.WithAttributes(
			attribute.String("eval.tool", input.Output.Tool),
			attribute.Int("eval.checks", len(a.checks)),
			attribute.Bool("eval.llm_enabled", a.evaluator != nil),
		),
	)
	defer span.End()

	results := make([]domain.CheckResult, 0, len(a.checks)+1)
	for _, check := range a.checks {
		result := a.runCheck(ctx, check, input)
		results = append(results, result)

		a.logger.Debug("check completed",
			"check_id", result.CheckID,
			"status", string(result.Status),
			"message", result.Message,
		)
	}

	if a.evaluator != nil {
		judged := a.evaluator.Judge(ctx, input)
		for _, result := range judged {
			a.logger.Debug("llm judgment",
				"check_id", result.CheckID,
				"status", string(result.Status),
			)
		}
		results = append(results, judged...)
	}

	report := domain.NewReport(input.Output.Tool, results, a.weights, a.now())

	span.SetAttributes(
		attribute.Int("eval.results", report.Summary.Total),
		attribute.Int("eval.failed", report.Summary.Failed),
		attribute.Float64("eval.weighted_score", report.Summary.WeightedScore),
		attribute.String("eval.decision", string(report.Summary.Decision)),
	)
	a.logger.Info("evaluation complete",
		"tool", report.Tool,
		"total", report.Summary.Total,
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
		"errored", report.Summary.Errored,
		"decision", string(report.Summary.Decision),
	)

	return report, nil
}

// cloneInput hands a check its own copy of the shared maps, so a
// misbehaving check cannot leak mutations into the checks that run
// after it.
func cloneInput(input ports.CheckInput) ports.CheckInput {
	output := input.Output.Clone()
	input.Output = &output

	if input.GroundTruth != nil {
		groundTruth := input.GroundTruth.Clone()
		input.GroundTruth = &groundTruth
	}

	if len(input.Runs) > 0 {
		runs := make([]domain.ReliabilityRun, len(input.Runs))
		for i, run := range input.Runs {
			runs[i] = domain.ReliabilityRun{RunIndex: run.RunIndex, Output: run.Output.Clone()}
		}
		input.Runs = runs
	}

	return input
}

// runCheck invokes one check, converting panics and malformed results
// into error CheckResults so a single check can never take down the
// report or leave a gap in it.
func (a *Aggregator) runCheck(ctx context.Context, check ports.Check, input ports.CheckInput) (result domain.CheckResult) {
	checkID, dimension := check.ID(), check.Dimension()

	ctx, span := a.tracer.Start(ctx, "Aggregator.runCheck",
		trace.WithAttributes(
			attribute.String("check.id", checkID),
			attribute.String("check.dimension", dimension),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			execErr := &domain.CheckExecutionError{
				CheckID: checkID,
				Err:     fmt.Errorf("panic: %v", r),
			}
			span.RecordError(execErr)
			a.logger.Error("check panicked", "check_id", checkID, "panic", fmt.Sprint(r))
			result = domain.ErrorResult(checkID, dimension, execErr.Error())
		}
	}()

	result = check.Evaluate(ctx, cloneInput(input))

	// Results are normalized so report invariants hold even when a
	// check misbehaves: the declared ID wins, statuses must be known,
	// and every result carries a message.
	result.CheckID = checkID
	result.Dimension = dimension
	if !result.Status.Valid() {
		return domain.ErrorResult(checkID, dimension,
			fmt.Sprintf("check returned invalid status %q", result.Status))
	}
	if result.Message == "" {
		return domain.ErrorResult(checkID, dimension, "check returned no message")
	}

	span.SetAttributes(attribute.String("check.status", string(result.Status)))
	return result
}
