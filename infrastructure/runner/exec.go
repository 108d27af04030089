// Package runner executes the evaluated tool as a subprocess for the
// reliability harness.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/toolvet/toolvet/internal/ports"
)

// Placeholders recognized in the command template.
const (
	placeholderFixture = "{fixture}"
	placeholderOutput  = "{output}"
	placeholderRun     = "{run}"
)

// ExecRunner runs the target tool as a subprocess. Each run gets its
// own output file under a scratch directory so concurrent runs never
// collide, and each invocation is bounded by a timeout.
//
// Failed runs are not retried. The harness treats a failed invocation
// as a reliability finding in its own right.
type ExecRunner struct {
	command    []string
	outputDir  string
	runTimeout time.Duration
	logger     *slog.Logger
}

var _ ports.ToolRunner = (*ExecRunner)(nil)

// NewExecRunner creates a runner for the given command template. The
// template must reference {output}; {fixture} and {run} are optional.
// A zero timeout leaves invocations bounded only by the caller's
// context.
func NewExecRunner(command []string, outputDir string, runTimeout time.Duration, logger *slog.Logger) (*ExecRunner, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("runner command cannot be empty")
	}
	if !strings.Contains(strings.Join(command, " "), placeholderOutput) {
		return nil, fmt.Errorf("runner command must reference %s", placeholderOutput)
	}
	if outputDir == "" {
		dir, err := os.MkdirTemp("", "toolvet-runs-")
		if err != nil {
			return nil, fmt.Errorf("create run output dir: %w", err)
		}
		outputDir = dir
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ExecRunner{
		command:    command,
		outputDir:  outputDir,
		runTimeout: runTimeout,
		logger:     logger,
	}, nil
}

// Run executes the tool once and returns the path of the output file it
// was told to write. The file must exist and be non-empty afterwards;
// a tool that exits zero without producing output still fails the run.
func (r *ExecRunner) Run(ctx context.Context, fixture string, runIndex int) (string, error) {
	outputPath := filepath.Join(r.outputDir, fmt.Sprintf("run-%d.json", runIndex))

	if r.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.runTimeout)
		defer cancel()
	}

	args := r.expandCommand(fixture, outputPath, runIndex)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	r.logger.Debug("invoking tool", "command", args[0], "fixture", fixture, "run", runIndex)

	start := time.Now()
	combined, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("tool exceeded %v timeout: %w", r.runTimeout, ctx.Err())
		}
		return "", fmt.Errorf("tool invocation failed: %w (output: %s)", err, truncateOutput(combined))
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return "", fmt.Errorf("tool exited cleanly but produced no output at %s: %w", outputPath, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("tool produced an empty output file at %s", outputPath)
	}

	r.logger.Debug("tool run complete",
		"fixture", fixture,
		"run", runIndex,
		"duration", time.Since(start),
		"output", outputPath,
	)
	return outputPath, nil
}

// expandCommand substitutes the template placeholders into a fresh
// argument slice.
func (r *ExecRunner) expandCommand(fixture, outputPath string, runIndex int) []string {
	replacer := strings.NewReplacer(
		placeholderFixture, fixture,
		placeholderOutput, outputPath,
		placeholderRun, strconv.Itoa(runIndex),
	)

	args := make([]string, len(r.command))
	for i, arg := range r.command {
		args[i] = replacer.Replace(arg)
	}
	return args
}

// truncateOutput keeps error messages readable when a tool dumps a
// large amount of text on failure.
func truncateOutput(out []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(out))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
