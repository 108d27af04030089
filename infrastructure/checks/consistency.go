package checks

import (
	"context"
	"fmt"
	"math"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

var _ ports.Check = (*ConsistencyCheck)(nil)

// ConsistencyConfig controls how much disagreement between repeated
// runs is tolerated.
type ConsistencyConfig struct {
	// Tolerance is the maximum absolute delta allowed between the same
	// metric across any two runs. Zero demands bit-identical values,
	// which is the right default for tools believed deterministic.
	Tolerance float64 `yaml:"tolerance" json:"tolerance" validate:"min=0"`
}

// DefaultConsistencyConfig returns a ConsistencyConfig demanding exact
// agreement across runs.
func DefaultConsistencyConfig() ConsistencyConfig {
	return ConsistencyConfig{Tolerance: 0}
}

// ConsistencyCheck verifies determinism across repeated runs of the
// target tool on the same fixture. Any pairwise disagreement beyond
// tolerance is a defect signal, not transient noise: the check reports
// and names the discrepancy rather than retrying.
//
// This is the one check that consumes multiple outputs (CheckInput.Runs)
// instead of one.
type ConsistencyCheck struct {
	id     string
	config ConsistencyConfig
}

// NewConsistencyCheck creates a ConsistencyCheck with validated
// configuration.
func NewConsistencyCheck(id string, config ConsistencyConfig) (*ConsistencyCheck, error) {
	if id == "" {
		return nil, ErrEmptyCheckID
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ConsistencyCheck{id: id, config: config}, nil
}

// ID returns the unique identifier for this check.
func (c *ConsistencyCheck) ID() string { return c.id }

// Dimension returns the reliability check family.
func (c *ConsistencyCheck) Dimension() string { return DimensionReliability }

// Validate reports whether the check is properly configured.
func (c *ConsistencyCheck) Validate() error {
	if c.id == "" {
		return ErrEmptyCheckID
	}
	if err := validate.Struct(c.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Evaluate compares every pair of runs. It degrades to skip when fewer
// than two runs are supplied (the harness was not enabled).
func (c *ConsistencyCheck) Evaluate(_ context.Context, input ports.CheckInput) domain.CheckResult {
	if len(input.Runs) < 2 {
		return domain.SkipResult(c.id, DimensionReliability,
			"consistency requires at least 2 runs")
	}

	var discrepancies []string
	for i := 0; i < len(input.Runs); i++ {
		for j := i + 1; j < len(input.Runs); j++ {
			discrepancies = append(discrepancies,
				c.compareRuns(input.Runs[i], input.Runs[j])...)
		}
	}

	if len(discrepancies) > 0 {
		return domain.FailResult(c.id, DimensionReliability,
			fmt.Sprintf("%d discrepancies across %d runs: %s",
				len(discrepancies), len(input.Runs), summarizeFailures(discrepancies)))
	}
	return domain.PassResult(c.id, DimensionReliability,
		fmt.Sprintf("%d runs agree within tolerance %g", len(input.Runs), c.config.Tolerance))
}

// compareRuns returns human-readable discrepancies between two runs:
// records present in one run but not the other, and metric values that
// disagree beyond tolerance.
func (c *ConsistencyCheck) compareRuns(a, b domain.ReliabilityRun) []string {
	var out []string

	for _, recordID := range sortedKeys(a.Output.Records) {
		aMetrics := a.Output.Records[recordID]
		bMetrics, ok := b.Output.Records[recordID]
		if !ok {
			out = append(out, fmt.Sprintf("record %s present in run %d, absent in run %d",
				recordID, a.RunIndex, b.RunIndex))
			continue
		}

		for _, metric := range sortedKeys(aMetrics) {
			av := aMetrics[metric]
			bv, ok := bMetrics[metric]
			if !ok {
				out = append(out, fmt.Sprintf("%s/%s present in run %d, absent in run %d",
					recordID, metric, a.RunIndex, b.RunIndex))
				continue
			}
			if !withinTolerance(av, bv, c.config.Tolerance) {
				out = append(out, fmt.Sprintf("%s/%s: run %d=%g, run %d=%g (delta %g)",
					recordID, metric, a.RunIndex, av, b.RunIndex, bv, math.Abs(av-bv)))
			}
		}
	}

	for _, recordID := range sortedKeys(b.Output.Records) {
		if _, ok := a.Output.Records[recordID]; !ok {
			out = append(out, fmt.Sprintf("record %s present in run %d, absent in run %d",
				recordID, b.RunIndex, a.RunIndex))
		}
	}

	return out
}
