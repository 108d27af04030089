package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

// stubCheck is a configurable ports.Check for aggregator tests.
type stubCheck struct {
	id        string
	dimension string
	result    domain.CheckResult
	panics    bool
	invalid   error
}

func (s *stubCheck) ID() string        { return s.id }
func (s *stubCheck) Dimension() string { return s.dimension }
func (s *stubCheck) Validate() error   { return s.invalid }

func (s *stubCheck) Evaluate(_ context.Context, _ ports.CheckInput) domain.CheckResult {
	if s.panics {
		panic("stub check exploded")
	}
	return s.result
}

// stubEvaluator returns canned LLM judgments.
type stubEvaluator struct {
	results []domain.CheckResult
}

func (s *stubEvaluator) Judge(_ context.Context, _ ports.CheckInput) []domain.CheckResult {
	return s.results
}

func passingCheck(id, dimension string) *stubCheck {
	return &stubCheck{
		id:        id,
		dimension: dimension,
		result:    domain.PassResult(id, dimension, "ok"),
	}
}

func failingCheck(id, dimension string) *stubCheck {
	return &stubCheck{
		id:        id,
		dimension: dimension,
		result:    domain.FailResult(id, dimension, "mismatch"),
	}
}

// funcCheck runs an arbitrary evaluation body, for tests that need to
// observe or mutate the input a check receives.
type funcCheck struct {
	id        string
	dimension string
	fn        func(ports.CheckInput) domain.CheckResult
}

func (f *funcCheck) ID() string        { return f.id }
func (f *funcCheck) Dimension() string { return f.dimension }
func (f *funcCheck) Validate() error   { return nil }

func (f *funcCheck) Evaluate(_ context.Context, input ports.CheckInput) domain.CheckResult {
	return f.fn(input)
}

func aggregatorInput() ports.CheckInput {
	return ports.CheckInput{
		Output: &domain.AnalysisOutput{
			Tool:          "depscan",
			SchemaVersion: "1.0.0",
			Records:       map[string]domain.MetricSet{"a.go": {"count": 1}},
		},
	}
}

func TestNewAggregator_Validation(t *testing.T) {
	tests := []struct {
		name    string
		checks  []ports.Check
		wantErr string
	}{
		{
			name:    "empty check set",
			checks:  nil,
			wantErr: "at least one check",
		},
		{
			name:    "empty check id",
			checks:  []ports.Check{passingCheck("", "accuracy")},
			wantErr: "empty id",
		},
		{
			name: "duplicate check ids",
			checks: []ports.Check{
				passingCheck("accuracy.metrics", "accuracy"),
				passingCheck("accuracy.metrics", "accuracy"),
			},
			wantErr: "duplicate check id",
		},
		{
			name:    "reserved llm prefix",
			checks:  []ports.Check{passingCheck("llm.sneaky", "accuracy")},
			wantErr: "reserved for LLM judgments",
		},
		{
			name: "failing Validate",
			checks: []ports.Check{
				&stubCheck{id: "broken", dimension: "accuracy", invalid: assert.AnError},
			},
			wantErr: "broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAggregator(tt.checks, nil)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestAggregator_Evaluate_PreservesDeclaredOrder(t *testing.T) {
	checks := []ports.Check{
		passingCheck("accuracy.metrics", "accuracy"),
		passingCheck("coverage.records", "coverage"),
		passingCheck("performance.budget", "performance"),
	}

	agg, err := NewAggregator(checks, nil)
	require.NoError(t, err)

	report, err := agg.Evaluate(context.Background(), aggregatorInput())
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, "accuracy.metrics", report.Results[0].CheckID)
	assert.Equal(t, "coverage.records", report.Results[1].CheckID)
	assert.Equal(t, "performance.budget", report.Results[2].CheckID)
}

func TestAggregator_Evaluate_PanicYieldsSingleErrorResult(t *testing.T) {
	checks := []ports.Check{
		passingCheck("accuracy.metrics", "accuracy"),
		&stubCheck{id: "coverage.records", dimension: "coverage", panics: true},
		passingCheck("performance.budget", "performance"),
	}

	agg, err := NewAggregator(checks, nil)
	require.NoError(t, err)

	report, err := agg.Evaluate(context.Background(), aggregatorInput())
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	panicked := report.Results[1]
	assert.Equal(t, "coverage.records", panicked.CheckID)
	assert.Equal(t, domain.StatusError, panicked.Status)
	assert.Contains(t, panicked.Message, "panic")

	// The surrounding checks are unaffected.
	assert.Equal(t, domain.StatusPass, report.Results[0].Status)
	assert.Equal(t, domain.StatusPass, report.Results[2].Status)
}

func TestAggregator_Evaluate_NormalizesMisbehavingResults(t *testing.T) {
	tests := []struct {
		name   string
		result domain.CheckResult
	}{
		{
			name:   "invalid status",
			result: domain.CheckResult{CheckID: "x", Dimension: "accuracy", Status: "maybe", Message: "m"},
		},
		{
			name:   "empty message",
			result: domain.CheckResult{CheckID: "x", Dimension: "accuracy", Status: domain.StatusPass},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := &stubCheck{id: "accuracy.metrics", dimension: "accuracy", result: tt.result}
			agg, err := NewAggregator([]ports.Check{check}, nil)
			require.NoError(t, err)

			report, err := agg.Evaluate(context.Background(), aggregatorInput())
			require.NoError(t, err)

			require.Len(t, report.Results, 1)
			assert.Equal(t, domain.StatusError, report.Results[0].Status)
			// The declared ID wins over whatever the check returned.
			assert.Equal(t, "accuracy.metrics", report.Results[0].CheckID)
		})
	}
}

func TestAggregator_Evaluate_AppendsLLMJudgments(t *testing.T) {
	checks := []ports.Check{
		passingCheck("accuracy.metrics", "accuracy"),
		failingCheck("coverage.records", "coverage"),
		passingCheck("reliability.consistency", "reliability"),
		failingCheck("performance.budget", "performance"),
		passingCheck("integration.identifiers", "integration_fit"),
	}
	weights := []domain.DimensionWeight{
		{Name: "accuracy", Weight: 0.2},
		{Name: "coverage", Weight: 0.2},
		{Name: "reliability", Weight: 0.2},
		{Name: "performance", Weight: 0.2},
		{Name: "integration_fit", Weight: 0.2},
	}
	evaluator := &stubEvaluator{results: []domain.CheckResult{
		domain.ErrorResult("llm.evaluation", "llm", "LLM error: model=m, operation=complete, err=timeout"),
	}}

	agg, err := NewAggregator(checks, weights, WithLLMEvaluator(evaluator))
	require.NoError(t, err)

	report, err := agg.Evaluate(context.Background(), aggregatorInput())
	require.NoError(t, err)

	// The LLM failure contributes one error entry and suppresses none of
	// the five deterministic results.
	require.Len(t, report.Results, 6)
	assert.Equal(t, "llm.evaluation", report.Results[5].CheckID)
	assert.Equal(t, domain.StatusError, report.Results[5].Status)
	assert.Equal(t, 3, report.Summary.Passed)
	assert.Equal(t, 2, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Errored)

	// The deterministic failures drive the exit signal, and with no
	// judgment scores the LLM failure does not move the score.
	assert.True(t, report.HasBlockingResults())
	assert.InDelta(t, 3.0, report.Summary.WeightedScore, 1e-9)
	assert.Zero(t, report.Summary.LLMScore)
}

func TestAggregator_Evaluate_ChecksReceiveIsolatedInputs(t *testing.T) {
	var observed float64

	checks := []ports.Check{
		&funcCheck{id: "first", dimension: "accuracy", fn: func(input ports.CheckInput) domain.CheckResult {
			input.Output.Records["a.go"]["count"] = 99
			delete(input.Output.Records, "a.go")
			return domain.PassResult("first", "accuracy", "mutated its copy")
		}},
		&funcCheck{id: "second", dimension: "coverage", fn: func(input ports.CheckInput) domain.CheckResult {
			observed = input.Output.Records["a.go"]["count"]
			return domain.PassResult("second", "coverage", "ok")
		}},
	}

	agg, err := NewAggregator(checks, nil)
	require.NoError(t, err)

	input := aggregatorInput()
	_, err = agg.Evaluate(context.Background(), input)
	require.NoError(t, err)

	// The first check's mutations stay in its own copy.
	assert.Equal(t, 1.0, observed)
	assert.Equal(t, 1.0, input.Output.Records["a.go"]["count"])
}

func TestAggregator_Evaluate_RequiresOutput(t *testing.T) {
	agg, err := NewAggregator([]ports.Check{passingCheck("a", "accuracy")}, nil)
	require.NoError(t, err)

	_, err = agg.Evaluate(context.Background(), ports.CheckInput{})
	assert.Error(t, err)
}

func TestAggregator_Evaluate_UsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	agg, err := NewAggregator(
		[]ports.Check{passingCheck("a", "accuracy")},
		[]domain.DimensionWeight{{Name: "accuracy", Weight: 1}},
		withClock(func() time.Time { return fixed }),
	)
	require.NoError(t, err)

	report, err := agg.Evaluate(context.Background(), aggregatorInput())
	require.NoError(t, err)

	assert.Equal(t, fixed, report.GeneratedAt)
	assert.Equal(t, "depscan", report.Tool)
	assert.InDelta(t, domain.MaxScore, report.Summary.WeightedScore, 1e-9)
}
