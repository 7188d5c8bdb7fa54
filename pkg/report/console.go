package report

import (
	"fmt"
	"io"
	"time"

	"github.com/restflow-dev/restflow-runner/pkg/executor"
)

func renderConsole(w io.Writer, result *executor.RunResult) error {
	for _, f := range result.Flows {
		fmt.Fprintf(w, "%s %s (%s)\n", statusMark(f.Success), f.Name, round(f.Duration))
		for _, s := range f.Steps {
			fmt.Fprintf(w, "  %s %s (%s)\n", statusMark(s.Success), s.Name, round(s.Duration))
			if s.Error != "" {
				fmt.Fprintf(w, "      error: %s\n", s.Error)
			}
			for _, a := range s.Assertions {
				if a.Success {
					continue
				}
				fmt.Fprintf(w, "      assert %s %s: %s\n", a.Assertion.Path, a.Assertion.Operator, a.Message)
			}
		}
	}

	fmt.Fprintf(w, "\n%d flows: %d passed, %d failed (%s)\n",
		result.TotalFlows, result.PassedFlows, result.FailedFlows, round(result.Duration))
	return nil
}

func statusMark(success bool) string {
	if success {
		return "PASS"
	}
	return "FAIL"
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
