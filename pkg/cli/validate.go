package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/restflow-dev/restflow-runner/pkg/flow"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Validate flow files without running them",
	ArgsUsage: "<flow-file-or-folder>...",
	Description: `Parse and validate flow files, reporting every problem found.

Examples:
  restflow-runner validate flow.yaml
  restflow-runner validate flows/ --include-tags smoke`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include flows with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude flows with these tags",
		},
	},
	Action: runValidate,
}

func runValidate(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one flow file or folder is required")
	}

	v := flow.NewValidator(c.StringSlice("include-tags"), c.StringSlice("exclude-tags"))
	result := v.Validate(c.Args().Slice()...)

	for _, f := range result.Flows {
		line := fmt.Sprintf("  ✓ %s (%s", f.Name, f.SourcePath)
		if len(f.Tags) > 0 {
			line += ", tags: " + strings.Join(f.Tags, ", ")
		}
		fmt.Println(line + ")")
	}

	if !result.IsValid() {
		fmt.Fprintf(os.Stderr, "\nValidation errors:\n")
		for _, err := range result.Errors {
			fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		}
		return cli.Exit(fmt.Sprintf("\n%d flow(s) valid, %d error(s)", len(result.Flows), len(result.Errors)), 1)
	}

	fmt.Printf("\n%d flow(s) valid\n", len(result.Flows))
	return nil
}
