package checks

import (
	"context"
	"fmt"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/ports"
)

var _ ports.Check = (*CoverageCheck)(nil)

// maxSuggestionDistance is the largest Levenshtein distance at which a
// near-miss identifier is still offered as a suggestion.
const maxSuggestionDistance = 3

// CoverageCheck verifies the output covers every record the ground
// truth expects. It fails naming the missing records, and for each one
// suggests the nearest output identifier: an exact match under Unicode
// case folding first, then the closest identifier by Levenshtein
// distance.
//
// CoverageCheck is stateless and safe for concurrent execution.
type CoverageCheck struct {
	id string
}

// NewCoverageCheck creates a CoverageCheck.
func NewCoverageCheck(id string) (*CoverageCheck, error) {
	if id == "" {
		return nil, ErrEmptyCheckID
	}
	return &CoverageCheck{id: id}, nil
}

// ID returns the unique identifier for this check.
func (c *CoverageCheck) ID() string { return c.id }

// Dimension returns the coverage check family.
func (c *CoverageCheck) Dimension() string { return DimensionCoverage }

// Validate reports whether the check is properly configured.
func (c *CoverageCheck) Validate() error {
	if c.id == "" {
		return ErrEmptyCheckID
	}
	return nil
}

// Evaluate checks that every expected record identifier appears in the
// output, degrading to skip without ground truth.
func (c *CoverageCheck) Evaluate(_ context.Context, input ports.CheckInput) domain.CheckResult {
	if input.Output == nil {
		return missingOutputResult(c.id, DimensionCoverage)
	}
	if input.GroundTruth == nil {
		return domain.SkipResult(c.id, DimensionCoverage, "no ground truth available")
	}
	if len(input.GroundTruth.Records) == 0 {
		return domain.SkipResult(c.id, DimensionCoverage, "ground truth declares no records")
	}

	outputIDs := input.Output.RecordIDs()

	var missing []string
	for _, recordID := range sortedKeys(input.GroundTruth.Records) {
		if _, ok := input.Output.Records[recordID]; ok {
			continue
		}
		if suggestion := nearestIdentifier(recordID, outputIDs); suggestion != "" {
			missing = append(missing, fmt.Sprintf("%s (nearest output record: %s)", recordID, suggestion))
		} else {
			missing = append(missing, recordID)
		}
	}

	expected := len(input.GroundTruth.Records)
	if len(missing) > 0 {
		return domain.FailResult(c.id, DimensionCoverage,
			fmt.Sprintf("%d of %d expected records missing: %s",
				len(missing), expected, summarizeFailures(missing)))
	}
	return domain.PassResult(c.id, DimensionCoverage,
		fmt.Sprintf("output covers all %d expected records", expected))
}

// nearestIdentifier finds the closest candidate to want, or "" when
// nothing is close enough to be a plausible near-miss. Case-folded
// equality wins outright since a pure casing difference is the most
// common fixture drift.
func nearestIdentifier(want string, candidates []string) string {
	folder := cases.Fold()
	foldedWant := folder.String(want)

	best := ""
	bestDistance := maxSuggestionDistance + 1

	for _, candidate := range candidates {
		if folder.String(candidate) == foldedWant {
			return candidate
		}
		if d := levenshtein.ComputeDistance(want, candidate); d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}
	return best
}
