package checks

import (
	"context"
	"fmt"
	"math"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

var _ ports.Check = (*AccuracyCheck)(nil)

// AccuracyConfig controls the tolerance band for numeric comparison.
type AccuracyConfig struct {
	// Tolerance is the maximum absolute delta between an output metric
	// and its ground-truth value before the comparison fails.
	Tolerance float64 `yaml:"tolerance" json:"tolerance" validate:"min=0"`

	// MetricTolerances overrides Tolerance for specific metric names,
	// e.g. a looser band for ownership percentages than for counts.
	MetricTolerances map[string]float64 `yaml:"metric_tolerances" json:"metric_tolerances"`
}

// DefaultAccuracyConfig returns an AccuracyConfig requiring exact
// agreement: counts and other integer metrics must match precisely
// unless a per-metric tolerance loosens the band.
func DefaultAccuracyConfig() AccuracyConfig {
	return AccuracyConfig{Tolerance: 0}
}

// AccuracyCheck compares scalar metrics in the output against
// ground-truth values within a tolerance band. Records the ground truth
// expects but the output lacks are the coverage check's concern; this
// check compares only records present in both.
//
// AccuracyCheck is stateless and safe for concurrent execution.
type AccuracyCheck struct {
	id     string
	config AccuracyConfig
}

// NewAccuracyCheck creates an AccuracyCheck with validated configuration.
func NewAccuracyCheck(id string, config AccuracyConfig) (*AccuracyCheck, error) {
	if id == "" {
		return nil, ErrEmptyCheckID
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	for metric, tol := range config.MetricTolerances {
		if tol < 0 {
			return nil, fmt.Errorf("metric %q: tolerance must be non-negative", metric)
		}
	}
	return &AccuracyCheck{id: id, config: config}, nil
}

// ID returns the unique identifier for this check.
func (c *AccuracyCheck) ID() string { return c.id }

// Dimension returns the accuracy check family.
func (c *AccuracyCheck) Dimension() string { return DimensionAccuracy }

// Validate reports whether the check is properly configured.
func (c *AccuracyCheck) Validate() error {
	if c.id == "" {
		return ErrEmptyCheckID
	}
	if err := validate.Struct(c.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Evaluate compares every metric the ground truth declares for records
// the output also carries. It degrades to skip when ground truth is
// absent and fails listing the deltas that exceed tolerance.
func (c *AccuracyCheck) Evaluate(_ context.Context, input ports.CheckInput) domain.CheckResult {
	if input.Output == nil {
		return missingOutputResult(c.id, DimensionAccuracy)
	}
	if input.GroundTruth == nil {
		return domain.SkipResult(c.id, DimensionAccuracy, "no ground truth available")
	}

	var failures []string
	compared := 0

	for _, recordID := range sortedKeys(input.GroundTruth.Records) {
		expected := input.GroundTruth.Records[recordID]
		actual, ok := input.Output.Records[recordID]
		if !ok {
			// Missing records are reported by the coverage check.
			continue
		}

		for _, metric := range sortedKeys(expected) {
			want := expected[metric]
			got, ok := actual[metric]
			if !ok {
				failures = append(failures,
					fmt.Sprintf("%s/%s: metric missing from output", recordID, metric))
				continue
			}

			compared++
			tol := c.toleranceFor(metric)
			if !withinTolerance(got, want, tol) {
				failures = append(failures,
					fmt.Sprintf("%s/%s: expected %g, got %g (delta %g > %g)",
						recordID, metric, want, got, math.Abs(got-want), tol))
			}
		}
	}

	if compared == 0 && len(failures) == 0 {
		return domain.SkipResult(c.id, DimensionAccuracy,
			"ground truth and output share no comparable records")
	}
	if len(failures) > 0 {
		return domain.FailResult(c.id, DimensionAccuracy, summarizeFailures(failures))
	}
	return domain.PassResult(c.id, DimensionAccuracy,
		fmt.Sprintf("%d metrics within tolerance", compared))
}

// toleranceFor returns the tolerance band for a metric, preferring a
// per-metric override.
func (c *AccuracyCheck) toleranceFor(metric string) float64 {
	if tol, ok := c.config.MetricTolerances[metric]; ok {
		return tol
	}
	return c.config.Tolerance
}
