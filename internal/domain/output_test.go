package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisOutputClone_IsIndependent(t *testing.T) {
	original := AnalysisOutput{
		Tool:          "depscan",
		SchemaVersion: "1.0.0",
		Records: map[string]MetricSet{
			"a.go": {"count": 1},
			"b.go": {"count": 2},
		},
		DurationMs: 120,
	}

	clone := original.Clone()
	clone.Records["a.go"]["count"] = 99
	delete(clone.Records, "b.go")

	assert.Equal(t, 1.0, original.Records["a.go"]["count"])
	require.Contains(t, original.Records, "b.go")
	assert.Equal(t, "depscan", clone.Tool)
	assert.Equal(t, int64(120), clone.DurationMs)
}

func TestGroundTruthClone_IsIndependent(t *testing.T) {
	original := GroundTruth{Records: map[string]MetricSet{
		"a.go": {"count": 1},
	}}

	clone := original.Clone()
	clone.Records["a.go"]["count"] = 99

	assert.Equal(t, 1.0, original.Records["a.go"]["count"])
}

func TestMetricSetClone_NilStaysNil(t *testing.T) {
	var m MetricSet
	assert.Nil(t, m.Clone())
}
