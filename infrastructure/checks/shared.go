// Package checks provides the evaluation checks that implement the
// ports.Check interface for the toolvet harness, plus the LLM judge
// that grades qualitative aspects of tool output.
package checks

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/toolvet/toolvet/internal/domain"
)

// Dimension names shared by checks and suite configuration.
const (
	DimensionAccuracy       = "accuracy"
	DimensionCoverage       = "coverage"
	DimensionPerformance    = "performance"
	DimensionReliability    = "reliability"
	DimensionIntegrationFit = "integration_fit"

	// LLMDimension is the namespace for LLM-graded judgments. Their
	// scores blend into the overall score rather than being tallied
	// like the deterministic dimensions.
	LLMDimension = domain.LLMDimension

	// LLMCheckIDPrefix is the reserved prefix for LLM judgment IDs so
	// they never collide with deterministic check IDs.
	LLMCheckIDPrefix = "llm."
)

// Common errors returned by check constructors.
var (
	// ErrEmptyCheckID is returned when attempting to create a check
	// with an empty identifier.
	ErrEmptyCheckID = errors.New("check id cannot be empty")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// maxReportedFailures caps how many individual failures a check names
// in its message; the count of the remainder is still reported.
const maxReportedFailures = 3

// summarizeFailures joins up to maxReportedFailures failure strings and
// appends the count of any that were elided.
func summarizeFailures(failures []string) string {
	if len(failures) <= maxReportedFailures {
		return strings.Join(failures, "; ")
	}
	shown := strings.Join(failures[:maxReportedFailures], "; ")
	return fmt.Sprintf("%s; and %d more", shown, len(failures)-maxReportedFailures)
}

// sortedKeys returns the keys of a metric-set map in deterministic order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// withinTolerance reports whether two metric values agree within tol.
func withinTolerance(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// missingOutputResult is the error result every check returns when the
// evaluation run failed to supply a loaded output. The aggregator
// guards against this, so hitting it indicates a wiring defect.
func missingOutputResult(checkID, dimension string) domain.CheckResult {
	return domain.ErrorResult(checkID, dimension, "no analysis output supplied")
}
