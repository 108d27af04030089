// Package domain contains pure, dependency-free domain models and types
// for the tool-evaluation harness.
package domain

import "maps"

// MetricSet holds the named scalar metrics reported for a single record.
// A bare numeric record value in tool output is normalized by the loader
// to a MetricSet with the single key "value".
type MetricSet map[string]float64

// Clone returns an independent copy of the metric set.
// Mutating the copy never affects the original.
func (m MetricSet) Clone() MetricSet {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// AnalysisOutput is the parsed result of running a target analysis tool:
// a mapping from record identifiers (file paths, author names) to metric
// values, plus the identity fields every payload must carry.
// An AnalysisOutput is immutable once loaded; consumers receive copies of
// its record map rather than shared references.
type AnalysisOutput struct {
	// Tool identifies which analysis tool produced this output.
	Tool string `json:"tool"`

	// SchemaVersion is the semantic version of the output schema,
	// used for compatibility checking.
	SchemaVersion string `json:"schema_version"`

	// Records maps record identifiers to their metric values.
	Records map[string]MetricSet `json:"records"`

	// DurationMs is the tool's execution time in milliseconds, taken
	// from the envelope metadata when present. Zero means the tool did
	// not report timing data.
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// Clone returns a deep copy of the output.
func (o AnalysisOutput) Clone() AnalysisOutput {
	records := make(map[string]MetricSet, len(o.Records))
	for id, metrics := range o.Records {
		records[id] = metrics.Clone()
	}
	return AnalysisOutput{
		Tool:          o.Tool,
		SchemaVersion: o.SchemaVersion,
		Records:       records,
		DurationMs:    o.DurationMs,
	}
}

// RecordIDs returns the identifiers of all records in the output.
// The returned slice is safe to modify.
func (o AnalysisOutput) RecordIDs() []string {
	ids := make([]string, 0, len(o.Records))
	for id := range o.Records {
		ids = append(ids, id)
	}
	return ids
}

// GroundTruth holds hand-curated expected values for a fixture set.
// It shares the record shape of AnalysisOutput and is immutable once
// loaded; it is versioned alongside the fixtures it describes.
type GroundTruth struct {
	// Records maps record identifiers to their expected metric values.
	Records map[string]MetricSet `json:"records"`
}

// Clone returns a deep copy of the ground truth.
func (g GroundTruth) Clone() GroundTruth {
	records := make(map[string]MetricSet, len(g.Records))
	for id, metrics := range g.Records {
		records[id] = metrics.Clone()
	}
	return GroundTruth{Records: records}
}

// ReliabilityRun tags one execution's output with its run index.
// A set of ReliabilityRuns for the same fixture is the input to the
// consistency check.
type ReliabilityRun struct {
	// RunIndex is the zero-based position of this run within a
	// reliability series.
	RunIndex int `json:"run_index"`

	// Output is the parsed output produced by this run.
	Output AnalysisOutput `json:"output"`
}
