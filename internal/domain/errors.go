package domain

import (
	"errors"
	"fmt"
)

// Common domain errors surfaced while loading evaluation inputs.
var (
	// ErrEmptyPayload indicates the output file contained no payload.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrMissingTool indicates the payload is missing the required
	// tool identifier field.
	ErrMissingTool = errors.New("missing tool identifier")

	// ErrMissingSchemaVersion indicates the payload is missing the
	// required schema_version field.
	ErrMissingSchemaVersion = errors.New("missing schema_version")

	// ErrInvalidRecordValue indicates a record value is neither a
	// number nor an object of numeric fields.
	ErrInvalidRecordValue = errors.New("invalid record value")
)

// MalformedOutputError reports unreadable or invalid tool output.
// It is fatal: no check can proceed without a payload, so the
// evaluation aborts before any checks run.
type MalformedOutputError struct {
	// Path is the file that failed to load.
	Path string

	// Reason describes what was wrong with the content.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface for MalformedOutputError.
func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed output %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed output %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error.
func (e *MalformedOutputError) Unwrap() error { return e.Err }

// NewMalformedOutputError creates a MalformedOutputError for the given file.
func NewMalformedOutputError(path, reason string, err error) *MalformedOutputError {
	return &MalformedOutputError{Path: path, Reason: reason, Err: err}
}

// CheckExecutionError reports that a single check function failed to
// execute. The aggregator recovers it locally, converting it to an
// error CheckResult so one check's failure never hides the rest of the
// report.
type CheckExecutionError struct {
	// CheckID identifies the check that failed.
	CheckID string

	// Err is the failure, typically a recovered panic.
	Err error
}

// Error implements the error interface for CheckExecutionError.
func (e *CheckExecutionError) Error() string {
	return fmt.Sprintf("check %s execution failed: %v", e.CheckID, e.Err)
}

// Unwrap returns the underlying error.
func (e *CheckExecutionError) Unwrap() error { return e.Err }
