package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

func TestIntegrationFitCheck_Evaluate(t *testing.T) {
	tests := []struct {
		name        string
		output      *domain.AnalysisOutput
		wantStatus  domain.Status
		wantMessage string
	}{
		{
			name: "clean relative paths pass",
			output: analysisOutput(map[string]domain.MetricSet{
				"src/main.go":          {"count": 1},
				"internal/util/io.go":  {"count": 2},
				"plain-module-name":    {"count": 3},
				`windows\style\rel.go`: {"count": 4},
			}),
			wantStatus:  domain.StatusPass,
			wantMessage: "4 record identifiers are clean relative paths",
		},
		{
			name: "absolute unix path fails",
			output: analysisOutput(map[string]domain.MetricSet{
				"/home/ci/project/src/main.go": {"count": 1},
			}),
			wantStatus:  domain.StatusFail,
			wantMessage: "absolute path leaked into output",
		},
		{
			name: "windows drive prefix fails",
			output: analysisOutput(map[string]domain.MetricSet{
				`C:\project\src\main.go`: {"count": 1},
			}),
			wantStatus:  domain.StatusFail,
			wantMessage: "absolute Windows path leaked into output",
		},
		{
			name: "UNC path fails",
			output: analysisOutput(map[string]domain.MetricSet{
				`\\fileserver\share\main.go`: {"count": 1},
			}),
			wantStatus:  domain.StatusFail,
			wantMessage: "UNC path leaked into output",
		},
		{
			name: "traversal segment fails",
			output: analysisOutput(map[string]domain.MetricSet{
				"../outside/main.go": {"count": 1},
			}),
			wantStatus:  domain.StatusFail,
			wantMessage: "path traversal segment",
		},
		{
			name: "empty identifier fails",
			output: analysisOutput(map[string]domain.MetricSet{
				"": {"count": 1},
			}),
			wantStatus:  domain.StatusFail,
			wantMessage: "empty identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := NewIntegrationFitCheck("integration.identifiers")
			require.NoError(t, err)

			result := check.Evaluate(context.Background(), ports.CheckInput{Output: tt.output})

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, DimensionIntegrationFit, result.Dimension)
			if tt.wantMessage != "" {
				assert.Contains(t, result.Message, tt.wantMessage)
			}
		})
	}
}

func TestIntegrationFitCheck_MissingIdentityFields(t *testing.T) {
	check, err := NewIntegrationFitCheck("integration.identifiers")
	require.NoError(t, err)

	output := &domain.AnalysisOutput{
		Records: map[string]domain.MetricSet{"a.go": {"count": 1}},
	}

	result := check.Evaluate(context.Background(), ports.CheckInput{Output: output})

	require.Equal(t, domain.StatusFail, result.Status)
	assert.Contains(t, result.Message, "payload missing tool identifier")
	assert.Contains(t, result.Message, "payload missing schema_version")
}
