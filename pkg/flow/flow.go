// Package flow handles parsing and representation of restflow YAML flow files.
package flow

// Flow represents a parsed flow file: a named, ordered API test scenario.
type Flow struct {
	SourcePath  string   `yaml:"-"` // Path to the source file
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Steps       []Step   `yaml:"steps"`
}

// HasTag reports whether the flow carries the given tag.
func (f *Flow) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Step is one request/poll/capture/assert unit within a flow.
type Step struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Request     RequestSpec `yaml:"request"`
	Capture     []Capture   `yaml:"capture"`
	Assertions  []Assertion `yaml:"assertions"`
	WaitUntil   *PollSpec   `yaml:"waitUntil"`
}

// RequestSpec describes the HTTP or GraphQL request a step issues.
// URL may contain {baseKey} prefixes and ${var} tokens.
type RequestSpec struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Body    any               `yaml:"body"`
	GraphQL *GraphQLSpec      `yaml:"graphql"`
}

// GraphQLSpec carries the GraphQL section of a request. When present, the
// outgoing body is constructed as {query, variables, operationName}.
type GraphQLSpec struct {
	Query         string         `yaml:"query"`
	Variables     map[string]any `yaml:"variables"`
	OperationName string         `yaml:"operationName"`
}

// Capture names a value extracted from the response body into the
// flow-scoped variable bag.
type Capture struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Assertion is a declarative check of an operator against an actual value
// extracted at Path (with "httpStatus" and numeric-expected "status"
// resolving to the transport status code).
type Assertion struct {
	Path     string   `yaml:"path"`
	Operator Operator `yaml:"operator"`
	Value    any      `yaml:"value"`
	Message  string   `yaml:"message"`
}

// Default polling parameters, in milliseconds.
const (
	DefaultPollTimeoutMs  = 30000
	DefaultPollIntervalMs = 2000
)

// PollSpec describes a waitUntil condition: the step's request is re-issued
// every Interval ms until the condition holds or Timeout ms elapse.
type PollSpec struct {
	Path     string   `yaml:"path"`
	Operator Operator `yaml:"operator"`
	Value    any      `yaml:"value"`
	Timeout  int      `yaml:"timeout"`  // ms
	Interval int      `yaml:"interval"` // ms
}
