// Package application wires the evaluation pipeline together: suite
// configuration, the report aggregator, the reliability harness, and
// scorecard rendering.
package application

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML either as a Go
// duration string ("90s", "2m") or as an integer number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err == nil {
		parsed, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", str, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var seconds int64
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("duration must be a string or integer seconds, got %q", value.Value)
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SuiteConfig is the complete YAML configuration for one evaluation
// suite: which tool is evaluated, how check dimensions are weighted,
// tolerance bands, reliability harness settings, and the optional LLM
// judge.
type SuiteConfig struct {
	// Version is the configuration schema version (semantic versioning).
	Version string `yaml:"version" validate:"required,semver"`

	// Metadata describes the suite for reporting and discovery.
	Metadata SuiteMetadata `yaml:"metadata" validate:"required"`

	// Tool is the identifier the evaluated output must carry.
	// When set, outputs from a different tool are rejected up front.
	Tool string `yaml:"tool" validate:"max=100"`

	// Dimensions declares the check families and their share of the
	// overall score, in report order. Weights must sum to 1.
	Dimensions []DimensionConfig `yaml:"dimensions" validate:"required,min=1,dive"`

	// Checks controls tolerance bands for the deterministic checks.
	Checks CheckSettings `yaml:"checks"`

	// Reliability configures the repeated-run harness.
	Reliability ReliabilityConfig `yaml:"reliability"`

	// LLM configures the optional qualitative judge.
	LLM LLMConfig `yaml:"llm"`
}

// SuiteMetadata provides descriptive information about a suite.
type SuiteMetadata struct {
	// Name is the human-readable identifier for this suite.
	Name string `yaml:"name" validate:"required,min=1,max=255"`

	// Description explains the suite's purpose.
	Description string `yaml:"description" validate:"max=1000"`

	// Tags are categorical labels for filtering and grouping.
	Tags []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
}

// DimensionConfig declares one check family and its weight.
type DimensionConfig struct {
	// Name is the dimension identifier, matching Check.Dimension().
	Name string `yaml:"name" validate:"required,min=1,max=50"`

	// Weight is this dimension's share of the overall score (0-1].
	Weight float64 `yaml:"weight" validate:"required,gt=0,max=1"`
}

// CheckSettings holds tolerance bands and budgets for the deterministic
// checks.
type CheckSettings struct {
	// AccuracyTolerance is the default absolute delta allowed between
	// an output metric and its expected value.
	AccuracyTolerance float64 `yaml:"accuracy_tolerance" validate:"min=0"`

	// MetricTolerances overrides AccuracyTolerance per metric name.
	MetricTolerances map[string]float64 `yaml:"metric_tolerances"`

	// ConsistencyTolerance is the absolute delta allowed between runs.
	ConsistencyTolerance float64 `yaml:"consistency_tolerance" validate:"min=0"`

	// PerformanceBudgetMs is the execution-time budget in milliseconds.
	// Zero disables the budget comparison.
	PerformanceBudgetMs int64 `yaml:"performance_budget_ms" validate:"min=0"`
}

// ReliabilityConfig configures the repeated-run harness.
type ReliabilityConfig struct {
	// Runs is how many times the tool is executed against the fixture.
	Runs int `yaml:"runs" validate:"min=0,max=20"`

	// MaxConcurrency limits parallel tool invocations. The runs are
	// independent, so parallelism is an optimization, never a
	// correctness requirement.
	MaxConcurrency int `yaml:"max_concurrency" validate:"min=0,max=20"`

	// RunTimeout bounds a single tool invocation.
	RunTimeout Duration `yaml:"run_timeout"`
}

// LLMConfig configures the qualitative judge and its client.
type LLMConfig struct {
	// Provider selects the LLM provider (anthropic, openai, google).
	Provider string `yaml:"provider" validate:"omitempty,oneof=anthropic openai google"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model" validate:"max=100"`

	// Timeout bounds the external call. There are no automatic
	// retries: a single failure is terminal for the LLM step only.
	Timeout Duration `yaml:"timeout"`

	// RequestsPerSecond and Burst configure client-side rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`
	Burst             int     `yaml:"burst" validate:"min=0"`

	// Rubric is the grading instructions for the judge. Empty keeps
	// the default rubric.
	Rubric string `yaml:"rubric" validate:"max=4000"`

	// MaxTokens limits the judge's graded response length.
	MaxTokens int `yaml:"max_tokens" validate:"min=0,max=4000"`
}

// DefaultSuiteConfig returns a SuiteConfig with the dimension weights
// and tolerances the recurring tool evaluations use.
func DefaultSuiteConfig() SuiteConfig {
	return SuiteConfig{
		Version:  "1.0.0",
		Metadata: SuiteMetadata{Name: "default"},
		Dimensions: []DimensionConfig{
			{Name: "accuracy", Weight: 0.25},
			{Name: "coverage", Weight: 0.20},
			{Name: "reliability", Weight: 0.20},
			{Name: "performance", Weight: 0.15},
			{Name: "integration_fit", Weight: 0.20},
		},
		Checks: CheckSettings{
			AccuracyTolerance:    0,
			ConsistencyTolerance: 0,
			PerformanceBudgetMs:  0,
		},
		Reliability: ReliabilityConfig{
			Runs:           3,
			MaxConcurrency: 3,
			RunTimeout:     Duration(60 * time.Second),
		},
		LLM: LLMConfig{
			Provider:          "anthropic",
			Timeout:           Duration(60 * time.Second),
			RequestsPerSecond: 1,
			Burst:             2,
			MaxTokens:         1024,
		},
	}
}
