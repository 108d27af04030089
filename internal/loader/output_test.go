package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvet/toolvet/internal/domain"
)

func TestParseOutput_BarePayload(t *testing.T) {
	raw := []byte(`{
		"tool": "depscan",
		"schema_version": "1.2.0",
		"records": {
			"src/main.go": {"dependency_count": 12, "fan_in": 3},
			"src/util.go": 7
		}
	}`)

	output, err := ParseOutput("out.json", raw)
	require.NoError(t, err)

	assert.Equal(t, "depscan", output.Tool)
	assert.Equal(t, "1.2.0", output.SchemaVersion)
	assert.Zero(t, output.DurationMs)

	require.Len(t, output.Records, 2)
	assert.Equal(t, 12.0, output.Records["src/main.go"]["dependency_count"])
	assert.Equal(t, 3.0, output.Records["src/main.go"]["fan_in"])
	// A bare scalar record is normalized to a single "value" metric.
	assert.Equal(t, 7.0, output.Records["src/util.go"]["value"])
}

func TestParseOutput_EnvelopeUnwrapping(t *testing.T) {
	raw := []byte(`{
		"metadata": {"duration_ms": 1450, "hostname": "ci-worker-3"},
		"data": {
			"tool": "depscan",
			"schema_version": "1.2.0",
			"records": {"a.go": {"count": 1}}
		}
	}`)

	output, err := ParseOutput("out.json", raw)
	require.NoError(t, err)

	assert.Equal(t, "depscan", output.Tool)
	assert.Equal(t, int64(1450), output.DurationMs)
	assert.Len(t, output.Records, 1)
}

func TestUnwrap_Idempotent(t *testing.T) {
	wrapped := []byte(`{"metadata": {"duration_ms": 10}, "data": {"tool": "t", "schema_version": "1"}}`)

	once, _, err := Unwrap(wrapped)
	require.NoError(t, err)

	twice, _, err := Unwrap(once)
	require.NoError(t, err)

	assert.JSONEq(t, string(once), string(twice))
}

func TestParseOutput_NonNumericFieldsIgnored(t *testing.T) {
	raw := []byte(`{
		"tool": "depscan",
		"schema_version": "1.0.0",
		"records": {
			"a.go": {"count": 4, "description": "entry point", "tags": ["x"]}
		}
	}`)

	output, err := ParseOutput("out.json", raw)
	require.NoError(t, err)

	require.Len(t, output.Records["a.go"], 1)
	assert.Equal(t, 4.0, output.Records["a.go"]["count"])
}

func TestParseOutput_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{
			name:    "empty file",
			raw:     "",
			wantErr: domain.ErrEmptyPayload,
		},
		{
			name:    "missing tool",
			raw:     `{"schema_version": "1.0.0", "records": {}}`,
			wantErr: domain.ErrMissingTool,
		},
		{
			name:    "missing schema version",
			raw:     `{"tool": "depscan", "records": {}}`,
			wantErr: domain.ErrMissingSchemaVersion,
		},
		{
			name:    "record with no numeric fields",
			raw:     `{"tool": "t", "schema_version": "1", "records": {"a.go": {"label": "x"}}}`,
			wantErr: domain.ErrInvalidRecordValue,
		},
		{
			name:    "record is a string",
			raw:     `{"tool": "t", "schema_version": "1", "records": {"a.go": "twelve"}}`,
			wantErr: domain.ErrInvalidRecordValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOutput("out.json", []byte(tt.raw))
			require.Error(t, err)

			var malformed *domain.MalformedOutputError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, "out.json", malformed.Path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestParseOutput_InvalidJSON(t *testing.T) {
	_, err := ParseOutput("out.json", []byte(`{"tool": "t",`))

	var malformed *domain.MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "invalid JSON", malformed.Reason)
}

func TestLoadOutput_Deterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	raw := []byte(`{"tool": "depscan", "schema_version": "1.0.0", "records": {"a.go": {"count": 2}}}`)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	first, err := LoadOutput(path)
	require.NoError(t, err)
	second, err := LoadOutput(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadOutput_MissingFile(t *testing.T) {
	_, err := LoadOutput(filepath.Join(t.TempDir(), "nope.json"))

	var malformed *domain.MalformedOutputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "unreadable file", malformed.Reason)
}
