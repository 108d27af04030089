package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/loader"
	"github.com/toolvet/toolvet/internal/ports"
)

// defaultHarnessConcurrency bounds parallel tool invocations when the
// suite config does not set one.
const defaultHarnessConcurrency = 3

// Harness executes the target tool repeatedly against the same fixture
// and loads each run's output for the consistency check. The runs are
// independent, so they execute concurrently; results are ordered by run
// index so the check sees a deterministic series.
//
// The harness does not retry. If the tool is believed deterministic,
// any disagreement between runs is a defect signal, not transient
// noise, and a failed invocation surfaces as an error.
type Harness struct {
	runner         ports.ToolRunner
	runs           int
	maxConcurrency int
	logger         *slog.Logger
}

// NewHarness creates a Harness that runs the tool the given number of
// times. Run counts below 2 are rejected: a single run cannot exercise
// consistency.
func NewHarness(runner ports.ToolRunner, config ReliabilityConfig, logger *slog.Logger) (*Harness, error) {
	if runner == nil {
		return nil, fmt.Errorf("tool runner cannot be nil")
	}
	if config.Runs < 2 {
		return nil, fmt.Errorf("reliability requires at least 2 runs, got %d", config.Runs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	maxConcurrency := config.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultHarnessConcurrency
	}

	return &Harness{
		runner:         runner,
		runs:           config.Runs,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}, nil
}

// Collect invokes the tool once per run index and loads every produced
// output. It fails on the first run or load error: partial series would
// make the consistency verdict meaningless.
func (h *Harness) Collect(ctx context.Context, fixture string) ([]domain.ReliabilityRun, error) {
	runs := make([]domain.ReliabilityRun, h.runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.maxConcurrency)

	for i := 0; i < h.runs; i++ {
		g.Go(func() error {
			h.logger.Debug("reliability run starting", "fixture", fixture, "run", i)

			outputPath, err := h.runner.Run(gctx, fixture, i)
			if err != nil {
				return ports.NewRunnerError(fixture, i, err)
			}

			output, err := loader.LoadOutput(outputPath)
			if err != nil {
				return ports.NewRunnerError(fixture, i, err)
			}

			// Each goroutine writes only its own index; no lock needed.
			runs[i] = domain.ReliabilityRun{RunIndex: i, Output: *output}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].RunIndex < runs[j].RunIndex })
	return runs, nil
}
