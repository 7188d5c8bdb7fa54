package report

import (
	"encoding/json"
	"io"

	"github.com/restflow-dev/restflow-runner/pkg/executor"
)

func renderJSON(w io.Writer, result *executor.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
