package checks

import (
	"context"
	"fmt"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

var _ ports.Check = (*PerformanceCheck)(nil)

// PerformanceCheck compares the tool's reported execution duration
// against the configured budget. Outputs that carry no timing data
// yield not_implemented rather than pass: timing capture is a known
// incompleteness in several tool envelopes, and hiding it behind a pass
// would inflate pass rates.
type PerformanceCheck struct {
	id string
}

// NewPerformanceCheck creates a PerformanceCheck.
func NewPerformanceCheck(id string) (*PerformanceCheck, error) {
	if id == "" {
		return nil, ErrEmptyCheckID
	}
	return &PerformanceCheck{id: id}, nil
}

// ID returns the unique identifier for this check.
func (c *PerformanceCheck) ID() string { return c.id }

// Dimension returns the performance check family.
func (c *PerformanceCheck) Dimension() string { return DimensionPerformance }

// Validate reports whether the check is properly configured.
func (c *PerformanceCheck) Validate() error {
	if c.id == "" {
		return ErrEmptyCheckID
	}
	return nil
}

// Evaluate compares DurationMs against the configured budget.
func (c *PerformanceCheck) Evaluate(_ context.Context, input ports.CheckInput) domain.CheckResult {
	if input.Output == nil {
		return missingOutputResult(c.id, DimensionPerformance)
	}

	if input.Output.DurationMs <= 0 {
		return domain.CheckResult{
			CheckID:   c.id,
			Dimension: DimensionPerformance,
			Status:    domain.StatusNotImplemented,
			Message:   "output envelope carries no timing data",
		}
	}
	if input.PerformanceBudgetMs <= 0 {
		return domain.SkipResult(c.id, DimensionPerformance, "no performance budget configured")
	}

	if input.Output.DurationMs > input.PerformanceBudgetMs {
		return domain.FailResult(c.id, DimensionPerformance,
			fmt.Sprintf("execution took %dms, budget is %dms",
				input.Output.DurationMs, input.PerformanceBudgetMs))
	}
	return domain.PassResult(c.id, DimensionPerformance,
		fmt.Sprintf("execution took %dms within %dms budget",
			input.Output.DurationMs, input.PerformanceBudgetMs))
}
