package domain

// Status classifies the outcome of a single check invocation.
type Status string

// Supported check statuses.
const (
	// StatusPass indicates the checked property held.
	StatusPass Status = "pass"

	// StatusFail indicates the checked property was violated.
	StatusFail Status = "fail"

	// StatusSkip indicates the check could not run because a required
	// input (typically ground truth) was absent.
	StatusSkip Status = "skip"

	// StatusError indicates the check itself failed to execute.
	StatusError Status = "error"

	// StatusNotImplemented indicates the check exists in the declared
	// set but has no implementation yet. It is deliberately distinct
	// from StatusPass so incomplete checks never inflate pass rates.
	StatusNotImplemented Status = "not_implemented"
)

// Valid reports whether s is one of the supported statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusFail, StatusSkip, StatusError, StatusNotImplemented:
		return true
	}
	return false
}

// Blocking reports whether this status should cause a non-zero exit:
// failures and execution errors block, everything else does not.
func (s Status) Blocking() bool {
	return s == StatusFail || s == StatusError
}

// CheckResult is the immutable outcome of one check invocation.
// It is produced exactly once per invocation and never mutated.
type CheckResult struct {
	// CheckID uniquely identifies the check within a report.
	// LLM-graded judgments carry the reserved "llm." prefix so they
	// never collide with deterministic check IDs.
	CheckID string `json:"check_id"`

	// Dimension names the check family this result belongs to
	// (accuracy, coverage, performance, reliability, integration_fit).
	Dimension string `json:"dimension"`

	// Status classifies the outcome.
	Status Status `json:"status"`

	// Message is a human-readable explanation of the outcome.
	// It is always non-empty, including for error results.
	Message string `json:"message"`

	// Score is an optional numeric grade attached by scoring checks
	// such as the LLM judge. Omitted when the check is purely binary.
	Score *float64 `json:"score,omitempty"`
}

// PassResult builds a passing result for the given check.
func PassResult(checkID, dimension, message string) CheckResult {
	return CheckResult{CheckID: checkID, Dimension: dimension, Status: StatusPass, Message: message}
}

// FailResult builds a failing result for the given check.
func FailResult(checkID, dimension, message string) CheckResult {
	return CheckResult{CheckID: checkID, Dimension: dimension, Status: StatusFail, Message: message}
}

// SkipResult builds a skipped result for the given check.
func SkipResult(checkID, dimension, message string) CheckResult {
	return CheckResult{CheckID: checkID, Dimension: dimension, Status: StatusSkip, Message: message}
}

// ErrorResult builds an error result for the given check.
func ErrorResult(checkID, dimension, message string) CheckResult {
	return CheckResult{CheckID: checkID, Dimension: dimension, Status: StatusError, Message: message}
}

// NotImplementedResult builds a not-implemented result for the given check.
func NotImplementedResult(checkID, dimension string) CheckResult {
	return CheckResult{
		CheckID:   checkID,
		Dimension: dimension,
		Status:    StatusNotImplemented,
		Message:   "check not implemented",
	}
}
