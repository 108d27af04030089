package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

func reliabilityRun(index int, records map[string]domain.MetricSet) domain.ReliabilityRun {
	return domain.ReliabilityRun{
		RunIndex: index,
		Output:   *analysisOutput(records),
	}
}

func TestConsistencyCheck_Evaluate(t *testing.T) {
	identical := map[string]domain.MetricSet{
		"src/main.go": {"dependency_count": 12},
		"src/util.go": {"dependency_count": 7},
	}

	tests := []struct {
		name        string
		config      ConsistencyConfig
		runs        []domain.ReliabilityRun
		wantStatus  domain.Status
		wantMessage string
	}{
		{
			name:        "skip without runs",
			config:      DefaultConsistencyConfig(),
			runs:        nil,
			wantStatus:  domain.StatusSkip,
			wantMessage: "consistency requires at least 2 runs",
		},
		{
			name:       "skip with a single run",
			config:     DefaultConsistencyConfig(),
			runs:       []domain.ReliabilityRun{reliabilityRun(0, identical)},
			wantStatus: domain.StatusSkip,
		},
		{
			name:   "three identical runs pass",
			config: DefaultConsistencyConfig(),
			runs: []domain.ReliabilityRun{
				reliabilityRun(0, identical),
				reliabilityRun(1, identical),
				reliabilityRun(2, identical),
			},
			wantStatus:  domain.StatusPass,
			wantMessage: "3 runs agree within tolerance 0",
		},
		{
			name:   "divergent value names the run pair and metric",
			config: DefaultConsistencyConfig(),
			runs: []domain.ReliabilityRun{
				reliabilityRun(0, identical),
				reliabilityRun(1, identical),
				reliabilityRun(2, map[string]domain.MetricSet{
					"src/main.go": {"dependency_count": 13},
					"src/util.go": {"dependency_count": 7},
				}),
			},
			wantStatus:  domain.StatusFail,
			wantMessage: "src/main.go/dependency_count: run 0=12, run 2=13 (delta 1)",
		},
		{
			name:   "record missing from one run fails",
			config: DefaultConsistencyConfig(),
			runs: []domain.ReliabilityRun{
				reliabilityRun(0, identical),
				reliabilityRun(1, map[string]domain.MetricSet{
					"src/main.go": {"dependency_count": 12},
				}),
			},
			wantStatus:  domain.StatusFail,
			wantMessage: "record src/util.go present in run 0, absent in run 1",
		},
		{
			name:   "tolerance absorbs jitter",
			config: ConsistencyConfig{Tolerance: 2},
			runs: []domain.ReliabilityRun{
				reliabilityRun(0, identical),
				reliabilityRun(1, map[string]domain.MetricSet{
					"src/main.go": {"dependency_count": 13},
					"src/util.go": {"dependency_count": 7},
				}),
			},
			wantStatus: domain.StatusPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := NewConsistencyCheck("reliability.consistency", tt.config)
			require.NoError(t, err)

			result := check.Evaluate(context.Background(), ports.CheckInput{Runs: tt.runs})

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, DimensionReliability, result.Dimension)
			if tt.wantMessage != "" {
				assert.Contains(t, result.Message, tt.wantMessage)
			}
		})
	}
}

func TestNewConsistencyCheck_RejectsNegativeTolerance(t *testing.T) {
	_, err := NewConsistencyCheck("reliability.consistency", ConsistencyConfig{Tolerance: -0.5})
	assert.Error(t, err)
}
