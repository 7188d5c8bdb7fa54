package executor

import (
	"time"

	"github.com/restflow-dev/restflow-runner/pkg/assertion"
	"github.com/restflow-dev/restflow-runner/pkg/flow"
	"github.com/restflow-dev/restflow-runner/pkg/httpclient"
)

// StepResult captures the complete outcome of executing a single step.
type StepResult struct {
	Step flow.Step `json:"-"` // Reference to the step definition

	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`

	// Request as actually sent, after interpolation and URL resolution.
	Request *httpclient.Request `json:"request,omitempty"`
	// Response observed (the last one, when polling was involved).
	Response *httpclient.Response `json:"response,omitempty"`

	Captures   map[string]any     `json:"captures,omitempty"`
	Assertions []assertion.Result `json:"assertions,omitempty"`

	// Error is set only for transport-level failures; assertion failures
	// are represented in Assertions instead.
	Error string `json:"error,omitempty"`
}

// FlowResult captures the complete outcome of executing a flow.
type FlowResult struct {
	Flow *flow.Flow `json:"-"`

	Name       string        `json:"name"`
	SourcePath string        `json:"sourcePath,omitempty"`
	Success    bool          `json:"success"`
	Duration   time.Duration `json:"duration"`
	Steps      []StepResult  `json:"steps"`

	// Variables is the bag snapshot at flow end.
	Variables map[string]any `json:"variables,omitempty"`
}

// ComputeSummary returns passed and failed step counts.
func (f *FlowResult) ComputeSummary() (passed, failed int) {
	for _, s := range f.Steps {
		if s.Success {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// RunResult captures the outcome of executing a set of flows.
type RunResult struct {
	RunID     string        `json:"runId"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	Flows     []FlowResult  `json:"flows"`

	TotalFlows  int `json:"totalFlows"`
	PassedFlows int `json:"passedFlows"`
	FailedFlows int `json:"failedFlows"`
}

// ComputeSummary recalculates flow counts from the Flows slice.
func (r *RunResult) ComputeSummary() {
	r.TotalFlows = len(r.Flows)
	r.PassedFlows = 0
	r.FailedFlows = 0
	for _, f := range r.Flows {
		if f.Success {
			r.PassedFlows++
		} else {
			r.FailedFlows++
		}
	}
}

// Success returns true if at least one flow ran and none failed.
func (r *RunResult) Success() bool {
	return len(r.Flows) > 0 && r.FailedFlows == 0
}
