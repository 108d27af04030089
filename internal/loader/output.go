// Package loader reads tool output and ground-truth files, unwraps the
// metadata envelope, and validates the payload schema at the load
// boundary so malformed input is rejected before any check runs.
package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/toolvet/toolvet/internal/domain"
)

// Package-level validator instance for payload validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// payload is the canonical data section of a tool output file.
// The identity fields are mandatory for compatibility checking.
type payload struct {
	Tool          string                     `json:"tool" validate:"required"`
	SchemaVersion string                     `json:"schema_version" validate:"required"`
	Records       map[string]json.RawMessage `json:"records"`
}

// envelopeMetadata carries the optional execution metadata wrapped
// around the payload.
type envelopeMetadata struct {
	DurationMs int64 `json:"duration_ms"`
}

// Unwrap returns the canonical data section of a serialized output
// object. When a top-level "data" field exists the envelope is
// unwrapped, otherwise the whole object is the payload. Unwrapping is
// idempotent: applying it to an already-unwrapped payload returns the
// payload unchanged.
func Unwrap(raw []byte) (data []byte, meta envelopeMetadata, err error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, envelopeMetadata{}, fmt.Errorf("parse envelope: %w", err)
	}

	inner, wrapped := top["data"]
	if !wrapped {
		return raw, envelopeMetadata{}, nil
	}

	if rawMeta, ok := top["metadata"]; ok {
		// Metadata is best-effort: a malformed metadata section only
		// loses timing data, it does not invalidate the payload.
		_ = json.Unmarshal(rawMeta, &meta)
	}
	return inner, meta, nil
}

// LoadOutput reads and parses a tool output file into an
// AnalysisOutput. It fails with *domain.MalformedOutputError on
// unreadable files, invalid syntax, missing required identity fields,
// or non-numeric record values. The function is pure with respect to
// its input path: loading the same file twice yields equal outputs.
func LoadOutput(path string) (*domain.AnalysisOutput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewMalformedOutputError(path, "unreadable file", err)
	}
	return ParseOutput(path, raw)
}

// ParseOutput parses serialized output bytes into an AnalysisOutput.
// The path parameter is used only for error reporting.
func ParseOutput(path string, raw []byte) (*domain.AnalysisOutput, error) {
	if len(raw) == 0 {
		return nil, domain.NewMalformedOutputError(path, "empty file", domain.ErrEmptyPayload)
	}

	data, meta, err := Unwrap(raw)
	if err != nil {
		return nil, domain.NewMalformedOutputError(path, "invalid JSON", err)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, domain.NewMalformedOutputError(path, "invalid payload", err)
	}

	if err := validate.Struct(p); err != nil {
		switch {
		case p.Tool == "":
			return nil, domain.NewMalformedOutputError(path, "missing required field", domain.ErrMissingTool)
		case p.SchemaVersion == "":
			return nil, domain.NewMalformedOutputError(path, "missing required field", domain.ErrMissingSchemaVersion)
		default:
			return nil, domain.NewMalformedOutputError(path, "schema validation failed", err)
		}
	}

	records := make(map[string]domain.MetricSet, len(p.Records))
	for id, rawValue := range p.Records {
		metrics, err := parseMetricSet(rawValue)
		if err != nil {
			return nil, domain.NewMalformedOutputError(path,
				fmt.Sprintf("record %q", id), err)
		}
		records[id] = metrics
	}

	return &domain.AnalysisOutput{
		Tool:          p.Tool,
		SchemaVersion: p.SchemaVersion,
		Records:       records,
		DurationMs:    meta.DurationMs,
	}, nil
}

// parseMetricSet normalizes a record value into a MetricSet.
// A bare number becomes {"value": n}; an object keeps its numeric
// fields and rejects anything non-numeric.
func parseMetricSet(raw json.RawMessage) (domain.MetricSet, error) {
	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return domain.MetricSet{"value": scalar}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: expected number or object, got %s",
			domain.ErrInvalidRecordValue, truncate(string(raw), 40))
	}

	metrics := make(domain.MetricSet, len(fields))
	for name, rawField := range fields {
		var v float64
		if err := json.Unmarshal(rawField, &v); err != nil {
			// Non-numeric fields (descriptions, labels) are ignored;
			// checks compare scalar metrics only.
			continue
		}
		metrics[name] = v
	}
	if len(metrics) == 0 {
		return nil, fmt.Errorf("%w: no numeric fields in %s",
			domain.ErrInvalidRecordValue, truncate(string(raw), 40))
	}
	return metrics, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
