package flow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single restflow YAML flow file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided flow file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses restflow YAML content. Validation is limited to required
// fields; the execution engine tolerates everything else.
func Parse(data []byte, sourcePath string) (*Flow, error) {
	flow := &Flow{SourcePath: sourcePath}

	if err := yaml.Unmarshal(data, flow); err != nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	if err := checkRequired(flow); err != nil {
		return nil, &ParseError{Path: sourcePath, Message: err.Error()}
	}

	applyDefaults(flow)
	return flow, nil
}

var httpMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
	"PATCH":  true,
}

func checkRequired(f *Flow) error {
	if f.Name == "" {
		return fmt.Errorf("flow is missing a name")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q has no steps", f.Name)
	}
	for i, s := range f.Steps {
		if s.Name == "" {
			return fmt.Errorf("step %d is missing a name", i+1)
		}
		if !httpMethods[s.Request.Method] {
			return fmt.Errorf("step %q: unsupported method %q", s.Name, s.Request.Method)
		}
		if s.Request.URL == "" {
			return fmt.Errorf("step %q is missing a request url", s.Name)
		}
		if s.Request.GraphQL != nil && s.Request.GraphQL.Query == "" {
			return fmt.Errorf("step %q: graphql section is missing a query", s.Name)
		}
		for _, c := range s.Capture {
			if c.Name == "" || c.Path == "" {
				return fmt.Errorf("step %q: capture entries need both name and path", s.Name)
			}
		}
		for _, a := range s.Assertions {
			if a.Path == "" {
				return fmt.Errorf("step %q: assertion is missing a path", s.Name)
			}
			if a.Operator == "" {
				return fmt.Errorf("step %q: assertion %q is missing an operator", s.Name, a.Path)
			}
		}
		if w := s.WaitUntil; w != nil {
			if w.Path == "" {
				return fmt.Errorf("step %q: waitUntil is missing a path", s.Name)
			}
			if !w.Operator.ValidForPoll() {
				return fmt.Errorf("step %q: waitUntil operator %q must be one of equals, notEquals, exists, notExists", s.Name, w.Operator)
			}
		}
	}
	return nil
}

func applyDefaults(f *Flow) {
	for i := range f.Steps {
		if w := f.Steps[i].WaitUntil; w != nil {
			if w.Timeout <= 0 {
				w.Timeout = DefaultPollTimeoutMs
			}
			if w.Interval <= 0 {
				w.Interval = DefaultPollIntervalMs
			}
		}
	}
}
