// Package report renders run results for humans and machines: a console
// summary, a JSON document, and a Markdown document.
package report

import (
	"fmt"
	"io"

	"github.com/restflow-dev/restflow-runner/pkg/executor"
)

// Format identifies a report renderer.
type Format string

// Supported formats.
const (
	FormatConsole  Format = "console"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatConsole, FormatJSON, FormatMarkdown:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown report format %q (want console, json, or markdown)", s)
	}
}

// Render writes the run result to w in the given format.
func Render(w io.Writer, result *executor.RunResult, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatMarkdown:
		return renderMarkdown(w, result)
	default:
		return renderConsole(w, result)
	}
}
