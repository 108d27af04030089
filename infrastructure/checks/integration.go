package checks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

var _ ports.Check = (*IntegrationFitCheck)(nil)

// windowsDrivePattern matches a Windows drive prefix such as "C:\" or
// "D:/" at the start of an identifier.
var windowsDrivePattern = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// IntegrationFitCheck performs structural checks on record identifiers
// and envelope metadata: identifiers must be clean relative paths with
// no absolute-path leakage, no traversal segments, and no Windows drive
// prefixes, and the payload must carry its identity fields. No ground
// truth is needed.
type IntegrationFitCheck struct {
	id string
}

// NewIntegrationFitCheck creates an IntegrationFitCheck.
func NewIntegrationFitCheck(id string) (*IntegrationFitCheck, error) {
	if id == "" {
		return nil, ErrEmptyCheckID
	}
	return &IntegrationFitCheck{id: id}, nil
}

// ID returns the unique identifier for this check.
func (c *IntegrationFitCheck) ID() string { return c.id }

// Dimension returns the integration-fit check family.
func (c *IntegrationFitCheck) Dimension() string { return DimensionIntegrationFit }

// Validate reports whether the check is properly configured.
func (c *IntegrationFitCheck) Validate() error {
	if c.id == "" {
		return ErrEmptyCheckID
	}
	return nil
}

// Evaluate inspects every record identifier and the envelope identity
// fields.
func (c *IntegrationFitCheck) Evaluate(_ context.Context, input ports.CheckInput) domain.CheckResult {
	if input.Output == nil {
		return missingOutputResult(c.id, DimensionIntegrationFit)
	}

	var violations []string
	if input.Output.Tool == "" {
		violations = append(violations, "payload missing tool identifier")
	}
	if input.Output.SchemaVersion == "" {
		violations = append(violations, "payload missing schema_version")
	}

	for _, recordID := range sortedKeys(input.Output.Records) {
		if reason := identifierViolation(recordID); reason != "" {
			violations = append(violations, fmt.Sprintf("%q: %s", recordID, reason))
		}
	}

	if len(violations) > 0 {
		return domain.FailResult(c.id, DimensionIntegrationFit, summarizeFailures(violations))
	}
	return domain.PassResult(c.id, DimensionIntegrationFit,
		fmt.Sprintf("%d record identifiers are clean relative paths", len(input.Output.Records)))
}

// identifierViolation returns a description of what is wrong with a
// record identifier, or "" when it is acceptable. Identifiers that are
// plain names (author names, module names) pass; path-shaped
// identifiers must be relative and traversal-free.
func identifierViolation(id string) string {
	switch {
	case id == "":
		return "empty identifier"
	case strings.HasPrefix(id, "/"):
		return "absolute path leaked into output"
	case windowsDrivePattern.MatchString(id):
		return "absolute Windows path leaked into output"
	case strings.HasPrefix(id, `\\`):
		return "UNC path leaked into output"
	}
	for _, segment := range strings.FieldsFunc(id, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return "path traversal segment"
		}
	}
	return ""
}
