package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvet/toolvet/internal/ports"
)

// fakeRunner writes a well-formed output file per run, optionally
// failing or emitting malformed output for chosen run indexes.
type fakeRunner struct {
	dir         string
	failRuns    map[int]bool
	badRuns     map[int]bool
	perRunValue func(runIndex int) int
}

func (f *fakeRunner) Run(_ context.Context, fixture string, runIndex int) (string, error) {
	if f.failRuns[runIndex] {
		return "", fmt.Errorf("simulated crash on %s", fixture)
	}

	path := filepath.Join(f.dir, fmt.Sprintf("run-%d.json", runIndex))

	content := `{"tool": "depscan", "schema_version": "1.0.0", "records": {"a.go": {"count": %d}}}`
	if f.badRuns[runIndex] {
		content = `{"records": {"a.go": {"count": %d}}}`
	}

	value := 1
	if f.perRunValue != nil {
		value = f.perRunValue(runIndex)
	}

	if err := os.WriteFile(path, []byte(fmt.Sprintf(content, value)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func TestNewHarness(t *testing.T) {
	runner := &fakeRunner{dir: t.TempDir()}

	t.Run("rejects nil runner", func(t *testing.T) {
		_, err := NewHarness(nil, ReliabilityConfig{Runs: 3}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects fewer than 2 runs", func(t *testing.T) {
		_, err := NewHarness(runner, ReliabilityConfig{Runs: 1}, nil)
		assert.ErrorContains(t, err, "at least 2 runs")
	})

	t.Run("accepts 2 runs", func(t *testing.T) {
		_, err := NewHarness(runner, ReliabilityConfig{Runs: 2}, nil)
		assert.NoError(t, err)
	})
}

func TestHarness_Collect(t *testing.T) {
	t.Run("collects runs ordered by index", func(t *testing.T) {
		runner := &fakeRunner{
			dir:         t.TempDir(),
			perRunValue: func(runIndex int) int { return runIndex + 10 },
		}
		harness, err := NewHarness(runner, ReliabilityConfig{Runs: 4, MaxConcurrency: 2}, nil)
		require.NoError(t, err)

		runs, err := harness.Collect(context.Background(), "fixtures/sample")
		require.NoError(t, err)

		require.Len(t, runs, 4)
		for i, run := range runs {
			assert.Equal(t, i, run.RunIndex)
			assert.Equal(t, float64(i+10), run.Output.Records["a.go"]["count"])
			assert.Equal(t, "depscan", run.Output.Tool)
		}
	})

	t.Run("failed invocation surfaces as RunnerError", func(t *testing.T) {
		runner := &fakeRunner{dir: t.TempDir(), failRuns: map[int]bool{1: true}}
		harness, err := NewHarness(runner, ReliabilityConfig{Runs: 3}, nil)
		require.NoError(t, err)

		_, err = harness.Collect(context.Background(), "fixtures/sample")
		require.Error(t, err)

		var runnerErr *ports.RunnerError
		require.ErrorAs(t, err, &runnerErr)
		assert.Equal(t, 1, runnerErr.RunIndex)
		assert.Equal(t, "fixtures/sample", runnerErr.Fixture)
	})

	t.Run("malformed run output surfaces as RunnerError", func(t *testing.T) {
		runner := &fakeRunner{dir: t.TempDir(), badRuns: map[int]bool{2: true}}
		harness, err := NewHarness(runner, ReliabilityConfig{Runs: 3}, nil)
		require.NoError(t, err)

		_, err = harness.Collect(context.Background(), "fixtures/sample")
		require.Error(t, err)

		var runnerErr *ports.RunnerError
		require.ErrorAs(t, err, &runnerErr)
		assert.Equal(t, 2, runnerErr.RunIndex)
	})
}
