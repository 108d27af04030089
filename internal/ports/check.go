// Package ports defines the interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the harness
// testable without external tools or LLM services.
package ports

import (
	"context"

	"github.com/toolvet/toolvet/internal/domain"
)

// CheckInput bundles the immutable inputs a check may consume.
// Every check receives the loaded tool output; the remaining fields are
// optional and checks degrade gracefully when they are absent.
type CheckInput struct {
	// Output is the parsed tool output under evaluation. Never nil for
	// a well-formed evaluation run.
	Output *domain.AnalysisOutput

	// GroundTruth holds expected values, or nil when no ground truth
	// was supplied. Checks that require it return StatusSkip.
	GroundTruth *domain.GroundTruth

	// Runs holds repeated-execution outputs for consistency checking.
	// Empty for everything except reliability checks.
	Runs []domain.ReliabilityRun

	// PerformanceBudgetMs is the execution-time budget for the
	// performance check. Zero means no budget was configured.
	PerformanceBudgetMs int64
}

// Check is a single pass/fail/skip/error evaluation of one property of
// a tool's output. Checks are pure and deterministic: the same input
// always yields the same result, and a check must not panic for
// well-formed inputs. Checks receive immutable inputs and return a
// fresh result, so they are safe to run in any order with no shared
// state.
type Check interface {
	// ID returns the unique identifier for this check within a report.
	ID() string

	// Dimension returns the check family this check belongs to.
	Dimension() string

	// Evaluate runs the check against the given input and returns its
	// result. Missing optional inputs yield StatusSkip rather than an
	// error; conditions the check cannot evaluate yield
	// StatusNotImplemented. Evaluate never returns a zero-value result.
	//
	// The context carries cancellation for checks that perform I/O,
	// such as the LLM judge. Deterministic checks may ignore it.
	Evaluate(ctx context.Context, input CheckInput) domain.CheckResult

	// Validate reports whether the check is properly configured and
	// ready for execution. The aggregator calls it once at
	// construction time and rejects misconfigured checks up front.
	Validate() error
}

// LLMEvaluator grades qualitative aspects of tool output with an
// external language model, producing CheckResult-shaped judgments under
// a namespace of its own. Implementations must convert any external
// failure into a single error result instead of returning it: the
// deterministic checks must still be reported when the LLM step fails
// entirely.
type LLMEvaluator interface {
	// Judge evaluates the input and returns at least one result.
	Judge(ctx context.Context, input CheckInput) []domain.CheckResult
}
