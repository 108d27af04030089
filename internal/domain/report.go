package domain

import "time"

// Decision classifies an overall weighted score on the 0-5 scale.
type Decision string

// Decision categories and their score thresholds.
const (
	DecisionStrongPass Decision = "STRONG_PASS"
	DecisionPass       Decision = "PASS"
	DecisionWeakPass   Decision = "WEAK_PASS"
	DecisionFail       Decision = "FAIL"

	// StrongPassThreshold is the minimum weighted score for STRONG_PASS.
	StrongPassThreshold = 4.0
	// PassThreshold is the minimum weighted score for PASS.
	PassThreshold = 3.5
	// WeakPassThreshold is the minimum weighted score for WEAK_PASS.
	WeakPassThreshold = 3.0

	// MaxScore is the top of the scoring scale.
	MaxScore = 5.0
)

// LLMDimension is the dimension LLM judgments report under. Judgment
// scores feed the blended overall score instead of the pass-fraction
// scoring used for the declared dimensions.
const LLMDimension = "llm"

// ProgrammaticWeight and LLMWeight blend the deterministic dimension
// score with the mean LLM judgment score when judgments carry scores.
const (
	ProgrammaticWeight = 0.60
	LLMWeight          = 0.40
)

// ClassifyScore maps a weighted score to its decision category.
func ClassifyScore(score float64) Decision {
	switch {
	case score >= StrongPassThreshold:
		return DecisionStrongPass
	case score >= PassThreshold:
		return DecisionPass
	case score >= WeakPassThreshold:
		return DecisionWeakPass
	default:
		return DecisionFail
	}
}

// Summary holds the derived statistics for an evaluation report.
// The per-status counts always sum to Total.
type Summary struct {
	// Total is the number of check results in the report.
	Total int `json:"total"`

	// Passed counts results with StatusPass.
	Passed int `json:"passed"`

	// Failed counts results with StatusFail.
	Failed int `json:"failed"`

	// Skipped counts results with StatusSkip.
	Skipped int `json:"skipped"`

	// Errored counts results with StatusError.
	Errored int `json:"errored"`

	// NotImplemented counts results with StatusNotImplemented.
	NotImplemented int `json:"not_implemented"`

	// PassRate is Passed divided by the number of scoreable results
	// (Total minus Skipped and NotImplemented). Zero when nothing was
	// scoreable.
	PassRate float64 `json:"pass_rate"`

	// ProgrammaticScore is the weight-normalized score of the declared
	// dimensions on the 0-5 scale, before any LLM blending.
	ProgrammaticScore float64 `json:"programmatic_score"`

	// LLMScore is the mean of the LLM judgment scores. Zero when no
	// judgment carried a score.
	LLMScore float64 `json:"llm_score,omitempty"`

	// WeightedScore is the overall score on the 0-5 scale: the
	// programmatic score, blended with the LLM score at
	// ProgrammaticWeight/LLMWeight when judgments are present.
	WeightedScore float64 `json:"weighted_score"`

	// Decision is the classification of WeightedScore.
	Decision Decision `json:"decision"`
}

// DimensionScore aggregates the results of one check family.
type DimensionScore struct {
	// Name is the dimension identifier.
	Name string `json:"name"`

	// Weight is this dimension's share of the overall score.
	Weight float64 `json:"weight"`

	// Score is the dimension's pass fraction scaled to 0-5.
	// Skipped and not-implemented results are excluded from the
	// denominator so they neither inflate nor deflate the score.
	Score float64 `json:"score"`

	// WeightedScore is Score multiplied by Weight.
	WeightedScore float64 `json:"weighted_score"`

	// Total, Passed and Failed count this dimension's results.
	// Errored results count against the dimension like failures.
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// EvaluationReport is the ordered outcome of a full evaluation run.
// Results appear in check invocation order so repeated runs produce
// reproducible diffs. A report is immutable once returned by the
// aggregator.
type EvaluationReport struct {
	// Tool identifies the evaluated analysis tool.
	Tool string `json:"tool"`

	// GeneratedAt records when the report was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// Results holds one entry per check invocation, in invocation order.
	// CheckIDs are unique within the report.
	Results []CheckResult `json:"results"`

	// Dimensions holds the per-family score breakdown, ordered by the
	// declared dimension order.
	Dimensions []DimensionScore `json:"dimensions"`

	// Summary holds the derived statistics.
	Summary Summary `json:"summary"`
}

// HasBlockingResults reports whether any result has a blocking status
// (fail or error). The CLI maps this to a non-zero exit code.
func (r EvaluationReport) HasBlockingResults() bool {
	for _, res := range r.Results {
		if res.Status.Blocking() {
			return true
		}
	}
	return false
}

// DimensionWeight declares one dimension and its share of the overall
// score. The aggregator preserves the declared order in the report.
type DimensionWeight struct {
	Name   string
	Weight float64
}

// NewReport assembles an EvaluationReport from check results and the
// declared dimension weights. Results belonging to undeclared dimensions
// still appear in Results and in the Summary counts but do not
// contribute to the programmatic score. That score is normalized by the
// total weight of dimensions that had at least one scoreable result, so
// an entirely skipped dimension does not drag the score down. When LLM
// judgments carry scores, the overall score blends the programmatic
// score with their mean at ProgrammaticWeight/LLMWeight; the decision
// classifies the blend.
func NewReport(tool string, results []CheckResult, weights []DimensionWeight, now time.Time) EvaluationReport {
	summary := summarize(results)

	dimensions := make([]DimensionScore, 0, len(weights))
	var weightedSum, activeWeight float64

	for _, w := range weights {
		dim := scoreDimension(w, results)
		dimensions = append(dimensions, dim)
		if dim.Passed+dim.Failed > 0 {
			weightedSum += dim.WeightedScore
			activeWeight += dim.Weight
		}
	}

	if activeWeight > 0 {
		summary.ProgrammaticScore = weightedSum / activeWeight
	}

	llmScore, llmScored := meanJudgmentScore(results)
	summary.LLMScore = llmScore

	switch {
	case llmScored && activeWeight > 0:
		summary.WeightedScore = ProgrammaticWeight*summary.ProgrammaticScore + LLMWeight*llmScore
	case llmScored:
		summary.WeightedScore = llmScore
	default:
		summary.WeightedScore = summary.ProgrammaticScore
	}
	summary.Decision = ClassifyScore(summary.WeightedScore)

	return EvaluationReport{
		Tool:        tool,
		GeneratedAt: now,
		Results:     results,
		Dimensions:  dimensions,
		Summary:     summary,
	}
}

// meanJudgmentScore averages the numeric scores of LLM judgments.
// Judgments without a score, such as the single error result recorded
// when the LLM call fails, contribute nothing: a broken judge must not
// move the score.
func meanJudgmentScore(results []CheckResult) (float64, bool) {
	var sum float64
	scored := 0
	for _, r := range results {
		if r.Dimension != LLMDimension || r.Score == nil {
			continue
		}
		sum += *r.Score
		scored++
	}
	if scored == 0 {
		return 0, false
	}
	return sum / float64(scored), true
}

// summarize computes per-status counts and the pass rate.
func summarize(results []CheckResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusSkip:
			s.Skipped++
		case StatusError:
			s.Errored++
		case StatusNotImplemented:
			s.NotImplemented++
		}
	}
	if scoreable := s.Total - s.Skipped - s.NotImplemented; scoreable > 0 {
		s.PassRate = float64(s.Passed) / float64(scoreable)
	}
	return s
}

// scoreDimension computes the 0-5 score for one dimension.
func scoreDimension(w DimensionWeight, results []CheckResult) DimensionScore {
	dim := DimensionScore{Name: w.Name, Weight: w.Weight}
	for _, r := range results {
		if r.Dimension != w.Name {
			continue
		}
		dim.Total++
		switch r.Status {
		case StatusPass:
			dim.Passed++
		case StatusFail, StatusError:
			dim.Failed++
		}
	}
	if scoreable := dim.Passed + dim.Failed; scoreable > 0 {
		dim.Score = float64(dim.Passed) / float64(scoreable) * MaxScore
	}
	dim.WeightedScore = dim.Score * dim.Weight
	return dim
}
