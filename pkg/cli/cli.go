// Package cli provides the command-line interface for restflow-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "context",
		Aliases: []string{"c"},
		Usage:   "Path to the project context file (Markdown)",
		EnvVars: []string{"RESTFLOW_CONTEXT"},
	},
	&cli.StringFlag{
		Name:    "env-file",
		Usage:   "Path to a dotenv file loaded before running (default: .env if present)",
		EnvVars: []string{"RESTFLOW_ENV_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"RESTFLOW_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "restflow-runner",
		Usage:   "Declarative API test flow runner",
		Version: Version,
		Description: `Restflow Runner executes declarative YAML test flows against HTTP APIs,
with variable capture, response assertions, and polling.

Examples:
  restflow-runner run flow.yaml
  restflow-runner run flows/ --include-tags smoke
  restflow-runner validate flows/`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			validateCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
