package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/toolvet/toolvet/internal/domain"
)

// LoadGroundTruth reads a hand-maintained expected-values file: a JSON
// object keyed by record identifier with scalar or structured expected
// values. Keys starting with "_" are fixture comments and are skipped.
// A nested "expected" key per record is unwrapped to stay compatible
// with older fixture sets. Absent ground truth is handled by callers
// (checks degrade to skip), so this function is only called when a path
// was supplied.
func LoadGroundTruth(path string) (*domain.GroundTruth, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewMalformedOutputError(path, "unreadable ground truth", err)
	}
	return ParseGroundTruth(path, raw)
}

// ParseGroundTruth parses serialized ground-truth bytes.
// The path parameter is used only for error reporting.
func ParseGroundTruth(path string, raw []byte) (*domain.GroundTruth, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, domain.NewMalformedOutputError(path, "invalid ground truth JSON", err)
	}

	records := make(map[string]domain.MetricSet, len(top))
	for id, rawValue := range top {
		if strings.HasPrefix(id, "_") {
			continue
		}

		rawValue = unwrapExpected(rawValue)
		metrics, err := parseMetricSet(rawValue)
		if err != nil {
			return nil, domain.NewMalformedOutputError(path,
				fmt.Sprintf("ground truth record %q", id), err)
		}
		records[id] = metrics
	}

	return &domain.GroundTruth{Records: records}, nil
}

// unwrapExpected unwraps the legacy {"expected": {...}, "description": ...}
// record shape, returning the value unchanged when no "expected" key exists.
func unwrapExpected(raw json.RawMessage) json.RawMessage {
	var nested struct {
		Expected json.RawMessage `json:"expected"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested.Expected) > 0 {
		return nested.Expected
	}
	return raw
}
