package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/restflow-dev/restflow-runner/pkg/report"
)

func TestResolveOutputDir(t *testing.T) {
	// Default: timestamped subfolder under ./reports.
	dir, err := resolveOutputDir("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(dir, filepath.Join("reports")) {
		t.Errorf("default dir = %q", dir)
	}
	if dir == "reports" {
		t.Error("expected a timestamp subfolder")
	}

	// Custom output gets a timestamp subfolder too.
	dir, err = resolveOutputDir("./out", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(dir) != "out" {
		t.Errorf("custom dir = %q", dir)
	}

	// Flatten skips the subfolder.
	dir, err = resolveOutputDir("./out", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != "out" {
		t.Errorf("flattened dir = %q", dir)
	}

	// Flatten without output is an error.
	if _, err := resolveOutputDir("", true); err == nil {
		t.Error("expected error for --flatten without --output")
	}
}

func TestParseFormats(t *testing.T) {
	formats, err := parseFormats([]string{"json", "markdown"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(formats) != 2 || formats[0] != report.FormatJSON || formats[1] != report.FormatMarkdown {
		t.Errorf("formats = %v", formats)
	}

	// console is printed to stdout, never written as a file.
	formats, err = parseFormats([]string{"console", "json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(formats) != 1 || formats[0] != report.FormatJSON {
		t.Errorf("formats = %v", formats)
	}

	if _, err := parseFormats([]string{"xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0ms"},
		{250, "250ms"},
		{1500, "1.5s"},
		{65000, "1m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
