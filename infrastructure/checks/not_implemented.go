package checks

import (
	"context"
	"fmt"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

var _ ports.Check = (*NotImplementedCheck)(nil)

// NotImplementedCheck is a declared placeholder for a check that has no
// implementation yet. It allows partial rollout of a check set without
// failing the pipeline, while keeping the incompleteness visible in the
// report as a distinct status instead of a silent pass.
type NotImplementedCheck struct {
	id        string
	dimension string
}

// NewNotImplementedCheck creates a placeholder check for the given
// dimension.
func NewNotImplementedCheck(id, dimension string) (*NotImplementedCheck, error) {
	if id == "" {
		return nil, ErrEmptyCheckID
	}
	if dimension == "" {
		return nil, fmt.Errorf("check %s: dimension cannot be empty", id)
	}
	return &NotImplementedCheck{id: id, dimension: dimension}, nil
}

// ID returns the unique identifier for this check.
func (c *NotImplementedCheck) ID() string { return c.id }

// Dimension returns the declared check family.
func (c *NotImplementedCheck) Dimension() string { return c.dimension }

// Validate reports whether the check is properly configured.
func (c *NotImplementedCheck) Validate() error {
	if c.id == "" {
		return ErrEmptyCheckID
	}
	return nil
}

// Evaluate always returns not_implemented.
func (c *NotImplementedCheck) Evaluate(_ context.Context, _ ports.CheckInput) domain.CheckResult {
	return domain.NotImplementedResult(c.id, c.dimension)
}
