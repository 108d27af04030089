package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

func TestPerformanceCheck_Evaluate(t *testing.T) {
	tests := []struct {
		name        string
		durationMs  int64
		budgetMs    int64
		wantStatus  domain.Status
		wantMessage string
	}{
		{
			name:        "no timing data is not implemented, never pass",
			durationMs:  0,
			budgetMs:    5000,
			wantStatus:  domain.StatusNotImplemented,
			wantMessage: "output envelope carries no timing data",
		},
		{
			name:        "no budget configured skips",
			durationMs:  1200,
			budgetMs:    0,
			wantStatus:  domain.StatusSkip,
			wantMessage: "no performance budget configured",
		},
		{
			name:        "within budget passes",
			durationMs:  1200,
			budgetMs:    5000,
			wantStatus:  domain.StatusPass,
			wantMessage: "execution took 1200ms within 5000ms budget",
		},
		{
			name:       "exactly at budget passes",
			durationMs: 5000,
			budgetMs:   5000,
			wantStatus: domain.StatusPass,
		},
		{
			name:        "over budget fails",
			durationMs:  7800,
			budgetMs:    5000,
			wantStatus:  domain.StatusFail,
			wantMessage: "execution took 7800ms, budget is 5000ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := NewPerformanceCheck("performance.budget")
			require.NoError(t, err)

			output := analysisOutput(map[string]domain.MetricSet{"a.go": {"count": 1}})
			output.DurationMs = tt.durationMs

			result := check.Evaluate(context.Background(), ports.CheckInput{
				Output:              output,
				PerformanceBudgetMs: tt.budgetMs,
			})

			assert.Equal(t, tt.wantStatus, result.Status)
			if tt.wantMessage != "" {
				assert.Contains(t, result.Message, tt.wantMessage)
			}
		})
	}
}
