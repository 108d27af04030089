// Command toolvet evaluates a static-analysis tool's output against
// ground truth and renders a scorecard.
//
// Typical usage:
//
//	toolvet -output out.json -ground-truth expected.json
//	toolvet -output out.json -ground-truth expected.json \
//	    -fixture testdata/project -run-command "mytool {fixture} -o {output}" \
//	    -llm -format markdown
//
// Exit codes: 0 when every check passed or was skipped, 1 when any
// check failed or errored, 2 when the evaluation could not run at all
// (malformed output, bad configuration, tool invocation failure).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/time/rate"

	"github.com/toolvet/toolvet/infrastructure/checks"
	"github.com/toolvet/toolvet/infrastructure/llm"
	"github.com/toolvet/toolvet/infrastructure/middleware"
	"github.com/toolvet/toolvet/infrastructure/runner"
	"github.com/toolvet/toolvet/internal/application"
	"github.com/toolvet/toolvet/internal/domain"
	"github.com/toolvet/toolvet/internal/loader"
	"github.com/toolvet/toolvet/internal/ports"
)

const (
	exitOK       = 0
	exitBlocking = 1
	exitFatal    = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		outputPath      = flag.String("output", "", "Path to the tool's output JSON (required)")
		groundTruthPath = flag.String("ground-truth", "", "Path to the ground-truth JSON")
		configPath      = flag.String("config", "", "Path to the suite config YAML")
		fixture         = flag.String("fixture", "", "Fixture the reliability harness runs the tool against")
		runCommand      = flag.String("run-command", "", "Command template for reliability runs; supports {fixture}, {output}, {run}")
		useLLM          = flag.Bool("llm", false, "Enable the LLM judge (reads the provider API key from the environment)")
		format          = flag.String("format", "markdown", "Scorecard format: markdown or json")
		scorecardPath   = flag.String("scorecard", "", "Write the scorecard to this file instead of stdout")
		enableMetrics   = flag.Bool("metrics", false, "Register Prometheus metrics for LLM calls")
		verbose         = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	if *outputPath == "" {
		fmt.Fprintln(os.Stderr, "toolvet: -output is required")
		flag.Usage()
		return exitFatal
	}
	if *format != "markdown" && *format != "json" {
		fmt.Fprintf(os.Stderr, "toolvet: unknown format %q\n", *format)
		return exitFatal
	}

	ctx := context.Background()

	config, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("configuration rejected", "error", err)
		return exitFatal
	}

	input, code := loadInput(ctx, loadInputParams{
		outputPath:      *outputPath,
		groundTruthPath: *groundTruthPath,
		fixture:         *fixture,
		runCommand:      *runCommand,
		config:          config,
		logger:          logger,
	})
	if code != exitOK {
		return code
	}

	report, err := evaluate(ctx, config, input, *useLLM, *enableMetrics, logger)
	if err != nil {
		logger.Error("evaluation failed", "error", err)
		return exitFatal
	}

	if err := writeScorecard(report, *format, *scorecardPath); err != nil {
		logger.Error("failed to write scorecard", "error", err)
		return exitFatal
	}

	if report.HasBlockingResults() {
		return exitBlocking
	}
	return exitOK
}

func loadConfig(path string) (*application.SuiteConfig, error) {
	configLoader, err := application.NewConfigLoader()
	if err != nil {
		return nil, err
	}
	if path == "" {
		config := application.DefaultSuiteConfig()
		if err := configLoader.Validate(&config); err != nil {
			return nil, err
		}
		return &config, nil
	}
	return configLoader.LoadFile(path)
}

type loadInputParams struct {
	outputPath      string
	groundTruthPath string
	fixture         string
	runCommand      string
	config          *application.SuiteConfig
	logger          *slog.Logger
}

// loadInput assembles the CheckInput: the primary output, optional
// ground truth, and optional reliability runs. Malformed inputs are
// fatal; the evaluation never starts on data it cannot trust.
func loadInput(ctx context.Context, params loadInputParams) (ports.CheckInput, int) {
	input := ports.CheckInput{
		PerformanceBudgetMs: params.config.Checks.PerformanceBudgetMs,
	}

	output, err := loadOutput(params.outputPath, params.config.Tool, params.logger)
	if err != nil {
		return input, exitFatal
	}
	input.Output = output

	if params.groundTruthPath != "" {
		groundTruth, err := loadGroundTruth(params.groundTruthPath, params.logger)
		if err != nil {
			return input, exitFatal
		}
		input.GroundTruth = groundTruth
	}

	if params.fixture != "" && params.runCommand != "" {
		runs, err := collectRuns(ctx, params)
		if err != nil {
			params.logger.Error("reliability harness failed", "error", err)
			return input, exitFatal
		}
		input.Runs = runs
	}

	return input, exitOK
}

func loadOutput(path, expectedTool string, logger *slog.Logger) (*domain.AnalysisOutput, error) {
	output, err := loader.LoadOutput(path)
	if err != nil {
		var malformed *domain.MalformedOutputError
		if errors.As(err, &malformed) {
			logger.Error("tool output rejected", "path", malformed.Path, "reason", malformed.Reason)
		} else {
			logger.Error("failed to load tool output", "path", path, "error", err)
		}
		return nil, err
	}

	if expectedTool != "" && output.Tool != expectedTool {
		err := fmt.Errorf("output names tool %q, suite expects %q", output.Tool, expectedTool)
		logger.Error("tool output rejected", "path", path, "error", err)
		return nil, err
	}

	logger.Info("loaded tool output",
		"path", path,
		"tool", output.Tool,
		"schema_version", output.SchemaVersion,
		"records", len(output.Records),
	)
	return output, nil
}

func loadGroundTruth(path string, logger *slog.Logger) (*domain.GroundTruth, error) {
	groundTruth, err := loader.LoadGroundTruth(path)
	if err != nil {
		logger.Error("failed to load ground truth", "path", path, "error", err)
		return nil, err
	}
	logger.Info("loaded ground truth", "path", path, "records", len(groundTruth.Records))
	return groundTruth, nil
}

func collectRuns(ctx context.Context, params loadInputParams) ([]domain.ReliabilityRun, error) {
	execRunner, err := runner.NewExecRunner(
		strings.Fields(params.runCommand),
		"",
		params.config.Reliability.RunTimeout.Std(),
		params.logger,
	)
	if err != nil {
		return nil, err
	}

	harness, err := application.NewHarness(execRunner, params.config.Reliability, params.logger)
	if err != nil {
		return nil, err
	}
	return harness.Collect(ctx, params.fixture)
}

// evaluate builds the check set from the suite config and runs the
// aggregator over the loaded input.
func evaluate(ctx context.Context, config *application.SuiteConfig, input ports.CheckInput, useLLM, enableMetrics bool, logger *slog.Logger) (domain.EvaluationReport, error) {
	checkSet, err := buildChecks(config)
	if err != nil {
		return domain.EvaluationReport{}, err
	}

	weights := make([]domain.DimensionWeight, 0, len(config.Dimensions))
	for _, dim := range config.Dimensions {
		weights = append(weights, domain.DimensionWeight{Name: dim.Name, Weight: dim.Weight})
	}

	opts := []application.AggregatorOption{application.WithLogger(logger)}
	if useLLM {
		judge, err := buildJudge(config.LLM, enableMetrics)
		if err != nil {
			return domain.EvaluationReport{}, err
		}
		opts = append(opts, application.WithLLMEvaluator(judge))
	}

	aggregator, err := application.NewAggregator(checkSet, weights, opts...)
	if err != nil {
		return domain.EvaluationReport{}, err
	}
	return aggregator.Evaluate(ctx, input)
}

func buildChecks(config *application.SuiteConfig) ([]ports.Check, error) {
	accuracy, err := checks.NewAccuracyCheck("accuracy.metrics", checks.AccuracyConfig{
		Tolerance:        config.Checks.AccuracyTolerance,
		MetricTolerances: config.Checks.MetricTolerances,
	})
	if err != nil {
		return nil, err
	}

	coverage, err := checks.NewCoverageCheck("coverage.records")
	if err != nil {
		return nil, err
	}

	consistency, err := checks.NewConsistencyCheck("reliability.consistency", checks.ConsistencyConfig{
		Tolerance: config.Checks.ConsistencyTolerance,
	})
	if err != nil {
		return nil, err
	}

	performance, err := checks.NewPerformanceCheck("performance.budget")
	if err != nil {
		return nil, err
	}

	integration, err := checks.NewIntegrationFitCheck("integration.identifiers")
	if err != nil {
		return nil, err
	}

	return []ports.Check{accuracy, coverage, consistency, performance, integration}, nil
}

// buildJudge wires the LLM judge: provider client, timeout and rate
// middleware, optional Prometheus metrics, and the judge itself.
func buildJudge(config application.LLMConfig, enableMetrics bool) (ports.LLMEvaluator, error) {
	apiKey, err := providerAPIKey(config.Provider)
	if err != nil {
		return nil, err
	}

	mw := []llm.Middleware{}
	if config.Timeout > 0 {
		mw = append(mw, llm.TimeoutMiddleware(config.Timeout.Std()))
	}
	if config.RequestsPerSecond > 0 {
		mw = append(mw, llm.RateLimitMiddleware(rate.Limit(config.RequestsPerSecond), config.Burst))
	}
	if enableMetrics {
		mw = append(mw, llm.MetricsMiddleware(middleware.NewPrometheusMetrics()))
	}

	client, err := llm.NewClient(config.Provider, llm.ClientConfig{
		APIKey:     apiKey,
		Model:      config.Model,
		Middleware: mw,
	})
	if err != nil {
		return nil, err
	}

	judgeConfig := checks.DefaultLLMJudgeConfig()
	if config.Rubric != "" {
		judgeConfig.Rubric = config.Rubric
	}
	if config.MaxTokens > 0 {
		judgeConfig.MaxTokens = config.MaxTokens
	}

	return checks.NewLLMJudge(client, judgeConfig)
}

func providerAPIKey(provider string) (string, error) {
	envVars := map[string]string{
		"anthropic": "ANTHROPIC_API_KEY",
		"openai":    "OPENAI_API_KEY",
		"google":    "GOOGLE_API_KEY",
	}
	envVar, ok := envVars[provider]
	if !ok {
		return "", fmt.Errorf("unknown LLM provider %q", provider)
	}
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return "", fmt.Errorf("LLM judge enabled but %s is not set", envVar)
	}
	return apiKey, nil
}

func writeScorecard(report domain.EvaluationReport, format, path string) error {
	var rendered []byte
	switch format {
	case "json":
		data, err := application.RenderJSON(report)
		if err != nil {
			return err
		}
		rendered = data
	default:
		rendered = []byte(application.RenderMarkdown(report))
	}

	if path == "" {
		_, err := os.Stdout.Write(append(rendered, '\n'))
		return err
	}
	return os.WriteFile(path, rendered, 0o644)
}
