package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

func TestCoverageCheck_Evaluate(t *testing.T) {
	output := analysisOutput(map[string]domain.MetricSet{
		"src/main.go":   {"count": 1},
		"src/parser.go": {"count": 2},
	})

	tests := []struct {
		name        string
		groundTruth *domain.GroundTruth
		wantStatus  domain.Status
		wantMessage string
	}{
		{
			name:        "skip without ground truth",
			groundTruth: nil,
			wantStatus:  domain.StatusSkip,
		},
		{
			name:        "skip on empty ground truth",
			groundTruth: &domain.GroundTruth{Records: map[string]domain.MetricSet{}},
			wantStatus:  domain.StatusSkip,
			wantMessage: "ground truth declares no records",
		},
		{
			name: "pass when all expected records present",
			groundTruth: &domain.GroundTruth{Records: map[string]domain.MetricSet{
				"src/main.go":   {"count": 1},
				"src/parser.go": {"count": 2},
			}},
			wantStatus:  domain.StatusPass,
			wantMessage: "output covers all 2 expected records",
		},
		{
			name: "fail names missing records",
			groundTruth: &domain.GroundTruth{Records: map[string]domain.MetricSet{
				"src/main.go":  {"count": 1},
				"src/lexer.go": {"count": 3},
			}},
			wantStatus:  domain.StatusFail,
			wantMessage: "1 of 2 expected records missing",
		},
		{
			name: "near-miss suggests the nearest output identifier",
			groundTruth: &domain.GroundTruth{Records: map[string]domain.MetricSet{
				"src/parsers.go": {"count": 2},
			}},
			wantStatus:  domain.StatusFail,
			wantMessage: "src/parsers.go (nearest output record: src/parser.go)",
		},
		{
			name: "casing drift suggests the case-folded match",
			groundTruth: &domain.GroundTruth{Records: map[string]domain.MetricSet{
				"src/Main.go": {"count": 1},
			}},
			wantStatus:  domain.StatusFail,
			wantMessage: "src/Main.go (nearest output record: src/main.go)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := NewCoverageCheck("coverage.records")
			require.NoError(t, err)

			result := check.Evaluate(context.Background(), ports.CheckInput{
				Output:      output,
				GroundTruth: tt.groundTruth,
			})

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, DimensionCoverage, result.Dimension)
			if tt.wantMessage != "" {
				assert.Contains(t, result.Message, tt.wantMessage)
			}
		})
	}
}

func TestNearestIdentifier(t *testing.T) {
	candidates := []string{"src/main.go", "src/parser.go", "docs/readme.md"}

	tests := []struct {
		name string
		want string
		got  string
	}{
		{"exact fold match wins", "SRC/MAIN.GO", "src/main.go"},
		{"small edit distance", "src/parser.gox", "src/parser.go"},
		{"nothing close enough", "internal/server/http.go", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.got, nearestIdentifier(tt.want, candidates))
		})
	}
}
