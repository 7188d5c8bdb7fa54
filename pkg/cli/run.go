package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/restflow-dev/restflow-runner/pkg/ai"
	"github.com/restflow-dev/restflow-runner/pkg/config"
	"github.com/restflow-dev/restflow-runner/pkg/executor"
	"github.com/restflow-dev/restflow-runner/pkg/flow"
	"github.com/restflow-dev/restflow-runner/pkg/httpclient"
	"github.com/restflow-dev/restflow-runner/pkg/logger"
	"github.com/restflow-dev/restflow-runner/pkg/report"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run test flows against an API",
	ArgsUsage: "<flow-file-or-folder>...",
	Description: `Run one or more flow files against the configured base URLs.

Reports are written to the output directory:
  - Default: ./reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --output and --flatten: <output>/ (no timestamp subfolder)

Examples:
  restflow-runner run flow.yaml
  restflow-runner run flows/
  restflow-runner run flows/ --include-tags smoke --exclude-tags slow

  # With a project context and env file
  restflow-runner -c project.md --env-file .env.staging run flows/

  # Parallel flows, JSON report only
  restflow-runner run flows/ --parallel 4 --report json`,
	Flags: []cli.Flag{
		// Tag filtering
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include flows with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude flows with these tags",
		},

		// Output directory
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for reports (default: ./reports)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --output)",
		},
		&cli.StringSliceFlag{
			Name:  "report",
			Usage: "Report formats to write (json, markdown)",
			Value: cli.NewStringSlice("json"),
		},

		// Execution
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Run up to N flows concurrently (0 = sequential)",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Stop scheduling flows after the first failure (sequential only)",
		},
		&cli.IntFlag{
			Name:    "request-timeout",
			Usage:   "Per-request timeout in seconds",
			Value:   30,
			EnvVars: []string{"RESTFLOW_REQUEST_TIMEOUT"},
		},
	},
	Action: runFlows,
}

// RunConfig holds the complete run configuration.
type RunConfig struct {
	FlowPaths   []string
	ContextPath string
	EnvFile     string

	IncludeTags []string
	ExcludeTags []string

	OutputDir string
	Formats   []report.Format

	Parallelism    int
	StopOnFail     bool
	RequestTimeout time.Duration
	Verbose        bool
}

func runFlows(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one flow file or folder is required")
	}

	outputDir, err := resolveOutputDir(c.String("output"), c.Bool("flatten"))
	if err != nil {
		return err
	}

	formats, err := parseFormats(c.StringSlice("report"))
	if err != nil {
		return err
	}

	cfg := &RunConfig{
		FlowPaths:      c.Args().Slice(),
		ContextPath:    globalString(c, "context"),
		EnvFile:        globalString(c, "env-file"),
		IncludeTags:    c.StringSlice("include-tags"),
		ExcludeTags:    c.StringSlice("exclude-tags"),
		OutputDir:      outputDir,
		Formats:        formats,
		Parallelism:    c.Int("parallel"),
		StopOnFail:     c.Bool("stop-on-fail"),
		RequestTimeout: time.Duration(c.Int("request-timeout")) * time.Second,
		Verbose:        globalBool(c, "verbose"),
	}

	return executeRun(cfg)
}

func executeRun(cfg *RunConfig) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logPath := filepath.Join(cfg.OutputDir, "restflow-runner.log")
	if err := logger.Init(logPath); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	logger.SetVerbose(cfg.Verbose)

	logger.Info("=== Test run started ===")
	logger.Info("Output directory: %s", cfg.OutputDir)

	if err := config.LoadEnv(cfg.EnvFile); err != nil {
		return err
	}

	project, err := loadProject(cfg.ContextPath)
	if err != nil {
		return err
	}

	flows, err := validateAndParseFlows(cfg)
	if err != nil {
		logger.Error("Flow validation failed: %v", err)
		return err
	}
	logger.Info("Validated %d flow(s)", len(flows))

	transport := httpclient.New(cfg.RequestTimeout)
	evaluator := buildEvaluator(project)

	runner := executor.New(transport, evaluator, project, executor.RunnerConfig{
		Parallelism:    cfg.Parallelism,
		StopOnFail:     cfg.StopOnFail,
		OnFlowStart:    onFlowStart,
		OnStepComplete: onStepComplete,
		OnFlowEnd:      onFlowEnd,
	})

	result := runner.Run(context.Background(), flows)
	logger.Info("Run completed: %d passed, %d failed", result.PassedFlows, result.FailedFlows)

	fmt.Println()
	if err := report.Render(os.Stdout, result, report.FormatConsole); err != nil {
		fmt.Printf("Warning: Failed to print summary: %v\n", err)
	}

	if err := writeReports(cfg, result); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	if !result.Success() {
		return cli.Exit("", 1)
	}
	return nil
}

// loadProject loads the context file, or returns an empty context when no
// path was given.
func loadProject(path string) (*config.Context, error) {
	if path == "" {
		return &config.Context{}, nil
	}
	project, err := config.LoadContext(path)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded project context: %s (%d base URLs)", project.Name, len(project.BaseURLs))
	return project, nil
}

// buildEvaluator returns an AI client when the context configures one,
// otherwise a disabled evaluator that fails ai-evaluate assertions.
func buildEvaluator(project *config.Context) ai.Evaluator {
	if !project.AI.Enabled() {
		return ai.Disabled{}
	}
	logger.Info("AI evaluator enabled: %s (%s)", project.AI.Model, project.AI.Provider)
	return ai.NewClient(project.AI.BaseURL, project.AI.APIKey(), project.AI.Model)
}

// validateAndParseFlows discovers and parses all flow files.
func validateAndParseFlows(cfg *RunConfig) ([]*flow.Flow, error) {
	v := flow.NewValidator(cfg.IncludeTags, cfg.ExcludeTags)
	result := v.Validate(cfg.FlowPaths...)

	if !result.IsValid() {
		fmt.Fprintf(os.Stderr, "Validation errors:\n")
		for _, err := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - %v\n", err)
		}
		return nil, fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}

	if len(result.Flows) == 0 {
		return nil, fmt.Errorf("no test flows found")
	}
	return result.Flows, nil
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: ./reports/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = "./reports"
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

func parseFormats(names []string) ([]report.Format, error) {
	formats := make([]report.Format, 0, len(names))
	for _, name := range names {
		f, err := report.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if f == report.FormatConsole {
			continue // always printed to stdout
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func writeReports(cfg *RunConfig, result *executor.RunResult) error {
	names := map[report.Format]string{
		report.FormatJSON:     "report.json",
		report.FormatMarkdown: "report.md",
	}

	var written []string
	for _, f := range cfg.Formats {
		path := filepath.Join(cfg.OutputDir, names[f])
		file, err := os.Create(path) //#nosec G304 -- path is under the run output dir
		if err != nil {
			return fmt.Errorf("failed to create report %s: %w", path, err)
		}
		renderErr := report.Render(file, result, f)
		closeErr := file.Close()
		if renderErr != nil {
			return fmt.Errorf("failed to write report %s: %w", path, renderErr)
		}
		if closeErr != nil {
			return fmt.Errorf("failed to write report %s: %w", path, closeErr)
		}
		written = append(written, path)
	}

	if len(written) > 0 {
		fmt.Println("  Reports:")
		for _, path := range written {
			fmt.Printf("    %s\n", path)
		}
	}
	return nil
}

// globalString reads a flag from the current or parent context. When run as
// a subcommand, global flags live in the parent context.
func globalString(c *cli.Context, name string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	if lineage := c.Lineage(); len(lineage) > 1 && lineage[1] != nil {
		return lineage[1].String(name)
	}
	return c.String(name)
}

func globalBool(c *cli.Context, name string) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	if lineage := c.Lineage(); len(lineage) > 1 && lineage[1] != nil {
		return lineage[1].Bool(name)
	}
	return c.Bool(name)
}

// Live progress callbacks.

func onFlowStart(flowIdx, totalFlows int, name, file string) {
	fmt.Printf("\n  %s[%d/%d]%s %s%s%s (%s)\n",
		color(colorCyan), flowIdx+1, totalFlows, color(colorReset),
		color(colorBold), name, color(colorReset), file)
	fmt.Println(strings.Repeat("─", 60))
}

func onStepComplete(_ string, _ int, result executor.StepResult) {
	durStr := formatDuration(result.Duration.Milliseconds())

	if result.Success {
		fmt.Printf("    %s✓%s %s (%s)\n",
			color(colorGreen), color(colorReset), result.Name, durStr)
		return
	}

	fmt.Printf("    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), result.Name, durStr)
	if result.Error != "" {
		fmt.Printf("      %s╰─%s %s\n", color(colorGray), color(colorReset), result.Error)
	}
	for _, a := range result.Assertions {
		if !a.Success {
			fmt.Printf("      %s╰─%s %s %s: %s\n",
				color(colorGray), color(colorReset), a.Assertion.Path, a.Assertion.Operator, a.Message)
		}
	}
}

func onFlowEnd(result executor.FlowResult) {
	mark := "✓"
	markColor := color(colorGreen)
	if !result.Success {
		mark = "✗"
		markColor = color(colorRed)
	}
	fmt.Printf("%s%s %s%s %s%s%s\n",
		markColor, mark, color(colorReset), result.Name,
		color(colorGray), formatDuration(result.Duration.Milliseconds()), color(colorReset))
}

// formatDuration formats milliseconds to a human-readable string.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}

// ANSI color codes.
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}
