package report

import (
	"fmt"
	"io"

	"github.com/restflow-dev/restflow-runner/pkg/executor"
	"github.com/restflow-dev/restflow-runner/pkg/vars"
)

func renderMarkdown(w io.Writer, result *executor.RunResult) error {
	fmt.Fprintf(w, "# Test Run %s\n\n", result.RunID)
	fmt.Fprintf(w, "Started %s, took %s.\n\n", result.StartTime.Format("2006-01-02 15:04:05"), round(result.Duration))

	fmt.Fprintf(w, "| Flow | Status | Steps | Duration |\n")
	fmt.Fprintf(w, "|---|---|---|---|\n")
	for _, f := range result.Flows {
		passed, failed := f.ComputeSummary()
		fmt.Fprintf(w, "| %s | %s | %d/%d | %s |\n",
			f.Name, statusMark(f.Success), passed, passed+failed, round(f.Duration))
	}
	fmt.Fprintln(w)

	for _, f := range result.Flows {
		fmt.Fprintf(w, "## %s (%s)\n\n", f.Name, statusMark(f.Success))
		for _, s := range f.Steps {
			fmt.Fprintf(w, "### %s %s (%s)\n\n", statusMark(s.Success), s.Name, round(s.Duration))
			if s.Request != nil {
				fmt.Fprintf(w, "`%s %s`\n\n", s.Request.Method, s.Request.URL)
			}
			if s.Error != "" {
				fmt.Fprintf(w, "Error: `%s`\n\n", s.Error)
			}
			for _, a := range s.Assertions {
				fmt.Fprintf(w, "- %s `%s %s`: %s\n", statusMark(a.Success), a.Assertion.Path, a.Assertion.Operator, a.Message)
			}
			if len(s.Assertions) > 0 {
				fmt.Fprintln(w)
			}
			if len(s.Captures) > 0 {
				fmt.Fprintf(w, "Captured:\n\n")
				for _, c := range s.Step.Capture {
					if v, ok := s.Captures[c.Name]; ok {
						fmt.Fprintf(w, "- `%s` = `%s`\n", c.Name, vars.Stringify(v))
					}
				}
				fmt.Fprintln(w)
			}
		}
	}

	fmt.Fprintf(w, "**%d flows: %d passed, %d failed.**\n",
		result.TotalFlows, result.PassedFlows, result.FailedFlows)
	return nil
}
