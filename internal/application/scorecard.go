package application

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/toolvet/toolvet/internal/domain"
)

// maxScorecardMessage caps per-check messages in the markdown table so
// one verbose failure does not swamp the scorecard.
const maxScorecardMessage = 80

// Scorecard is the serializable summary view of an evaluation report,
// structured for downstream tooling that tracks scores across runs.
type Scorecard struct {
	Tool        string               `json:"tool"`
	GeneratedAt time.Time            `json:"generated_at"`
	Summary     domain.Summary       `json:"summary"`
	Dimensions  []ScorecardDimension `json:"dimensions"`
	Thresholds  map[string]string    `json:"thresholds"`
	Checks      []domain.CheckResult `json:"checks"`
}

// ScorecardDimension is the per-dimension row of a scorecard.
type ScorecardDimension struct {
	Name          string  `json:"name"`
	Weight        float64 `json:"weight"`
	Score         float64 `json:"score"`
	WeightedScore float64 `json:"weighted_score"`
	Total         int     `json:"total"`
	Passed        int     `json:"passed"`
	Failed        int     `json:"failed"`
}

// BuildScorecard converts a report into its scorecard view.
func BuildScorecard(report domain.EvaluationReport) Scorecard {
	dims := make([]ScorecardDimension, 0, len(report.Dimensions))
	for _, d := range report.Dimensions {
		dims = append(dims, ScorecardDimension{
			Name:          d.Name,
			Weight:        d.Weight,
			Score:         d.Score,
			WeightedScore: d.WeightedScore,
			Total:         d.Total,
			Passed:        d.Passed,
			Failed:        d.Failed,
		})
	}

	return Scorecard{
		Tool:        report.Tool,
		GeneratedAt: report.GeneratedAt,
		Summary:     report.Summary,
		Dimensions:  dims,
		Thresholds: map[string]string{
			string(domain.DecisionStrongPass): ">= 4.0",
			string(domain.DecisionPass):       ">= 3.5",
			string(domain.DecisionWeakPass):   ">= 3.0",
			string(domain.DecisionFail):       "< 3.0",
		},
		Checks: report.Results,
	}
}

// RenderJSON serializes the report's scorecard view as indented JSON.
func RenderJSON(report domain.EvaluationReport) ([]byte, error) {
	data, err := json.MarshalIndent(BuildScorecard(report), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scorecard: %w", err)
	}
	return data, nil
}

// RenderMarkdown renders the report as a markdown scorecard: overall
// score and decision, the per-dimension table, and a detailed per-check
// table with truncated messages.
func RenderMarkdown(report domain.EvaluationReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Evaluation Scorecard\n\n", report.Tool)
	fmt.Fprintf(&b, "**Generated**: %s\n\n", report.GeneratedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Overall\n\n")
	fmt.Fprintf(&b, "**Score**: %.2f/%.1f\n", report.Summary.WeightedScore, domain.MaxScore)
	if report.Summary.LLMScore > 0 {
		fmt.Fprintf(&b, "**Blend**: %.0f%% programmatic (%.2f) + %.0f%% LLM (%.2f)\n",
			domain.ProgrammaticWeight*100, report.Summary.ProgrammaticScore,
			domain.LLMWeight*100, report.Summary.LLMScore)
	}
	fmt.Fprintf(&b, "**Decision**: %s\n", report.Summary.Decision)
	fmt.Fprintf(&b, "**Checks**: %d total, %d passed, %d failed, %d skipped, %d errored, %d not implemented\n\n",
		report.Summary.Total, report.Summary.Passed, report.Summary.Failed,
		report.Summary.Skipped, report.Summary.Errored, report.Summary.NotImplemented)

	if len(report.Dimensions) > 0 {
		b.WriteString("## Dimension Scores\n\n")
		b.WriteString("| Dimension | Weight | Score | Passed | Failed |\n")
		b.WriteString("|-----------|--------|-------|--------|--------|\n")
		for _, dim := range report.Dimensions {
			fmt.Fprintf(&b, "| %s | %.0f%% | %.2f/%.1f | %d | %d |\n",
				dim.Name, dim.Weight*100, dim.Score, domain.MaxScore, dim.Passed, dim.Failed)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Detailed Results\n\n")
	b.WriteString("| Check | Status | Message |\n")
	b.WriteString("|-------|--------|---------|\n")
	for _, result := range report.Results {
		fmt.Fprintf(&b, "| %s | %s | %s |\n",
			result.CheckID, strings.ToUpper(string(result.Status)),
			truncateMessage(result.Message))
	}

	return b.String()
}

// truncateMessage shortens a message for table display and strips the
// pipe characters that would break markdown tables.
func truncateMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "|", "/")
	msg = strings.ReplaceAll(msg, "\n", " ")
	if len(msg) > maxScorecardMessage {
		return msg[:maxScorecardMessage] + "..."
	}
	return msg
}
