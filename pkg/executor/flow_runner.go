package executor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/restflow-dev/restflow-runner/pkg/ai"
	"github.com/restflow-dev/restflow-runner/pkg/assertion"
	"github.com/restflow-dev/restflow-runner/pkg/config"
	"github.com/restflow-dev/restflow-runner/pkg/flow"
	"github.com/restflow-dev/restflow-runner/pkg/httpclient"
	"github.com/restflow-dev/restflow-runner/pkg/jsonpath"
	"github.com/restflow-dev/restflow-runner/pkg/logger"
	"github.com/restflow-dev/restflow-runner/pkg/vars"
)

// FlowRunner executes a single flow. It owns the flow-scoped variable bag:
// captures from earlier steps are visible to later steps and discarded when
// the flow ends, so independent flows can run concurrently.
type FlowRunner struct {
	flow      *flow.Flow
	transport Transport
	evaluator ai.Evaluator
	project   *config.Context
	bag       vars.Bag
	onStep    func(flowName string, index int, result StepResult)
}

// NewFlowRunner creates a runner for one flow execution with a fresh bag.
func NewFlowRunner(f *flow.Flow, transport Transport, evaluator ai.Evaluator, project *config.Context) *FlowRunner {
	if evaluator == nil {
		evaluator = ai.Disabled{}
	}
	if project == nil {
		project = &config.Context{}
	}
	return &FlowRunner{
		flow:      f,
		transport: transport,
		evaluator: evaluator,
		project:   project,
		bag:       vars.NewBag(),
	}
}

// Run executes every step in order. A failing step never aborts the flow:
// later steps still run against whatever state exists and report their own
// results. Flow success is the AND of all step successes.
func (fr *FlowRunner) Run(ctx context.Context) FlowResult {
	start := time.Now()
	logger.Info("flow %q: starting (%d steps)", fr.flow.Name, len(fr.flow.Steps))

	result := FlowResult{
		Flow:       fr.flow,
		Name:       fr.flow.Name,
		SourcePath: fr.flow.SourcePath,
		Success:    true,
		Steps:      make([]StepResult, 0, len(fr.flow.Steps)),
	}

	for i, step := range fr.flow.Steps {
		sr := fr.executeStep(ctx, step)
		if !sr.Success {
			result.Success = false
		}
		result.Steps = append(result.Steps, sr)
		if fr.onStep != nil {
			fr.onStep(fr.flow.Name, i, sr)
		}
		logger.Debug("flow %q: step %q success=%v duration=%s", fr.flow.Name, step.Name, sr.Success, sr.Duration)
	}

	result.Duration = time.Since(start)
	result.Variables = fr.bag.Snapshot()
	logger.Info("flow %q: finished success=%v duration=%s", fr.flow.Name, result.Success, result.Duration)
	return result
}

// executeStep resolves, dispatches, polls, captures, and asserts one step.
// All failure is represented in the returned result; nothing propagates as
// an error past this boundary.
func (fr *FlowRunner) executeStep(ctx context.Context, step flow.Step) StepResult {
	start := time.Now()
	result := StepResult{
		Step:     step,
		Name:     step.Name,
		Captures: make(map[string]any),
	}

	req := fr.resolveRequest(step.Request)
	result.Request = &req

	resp, err := fr.transport.Do(ctx, req)
	if err != nil {
		// Transport failure: the step fails with no assertions evaluated.
		result.Error = err.Error()
		result.Duration = time.Since(start)
		logger.Warn("flow %q: step %q transport error: %v", fr.flow.Name, step.Name, err)
		return result
	}

	if step.WaitUntil != nil {
		resp = fr.poll(ctx, step.WaitUntil, req, resp)
	}
	result.Response = resp

	for _, c := range step.Capture {
		value, ok := jsonpath.Extract(resp.Body, c.Path)
		if !ok {
			logger.Debug("flow %q: capture %q: path %q did not resolve", fr.flow.Name, c.Name, c.Path)
			continue
		}
		result.Captures[c.Name] = value
		fr.bag.Set(c.Name, value)
	}

	result.Success = true
	for _, a := range step.Assertions {
		var ar assertion.Result
		if a.Operator == flow.OpAIEvaluate {
			ar = fr.evaluateAI(ctx, a, resp)
		} else {
			actual, found := fr.actualFor(a, resp)
			ar = assertion.Evaluate(a, actual, found)
		}
		if !ar.Success {
			result.Success = false
		}
		result.Assertions = append(result.Assertions, ar)
	}

	result.Duration = time.Since(start)
	return result
}

// actualFor determines the value an assertion runs against. "httpStatus"
// always means the transport status code. "status" means the status code
// only when the expected value is numeric; a string like "200" falls through
// to body extraction.
func (fr *FlowRunner) actualFor(a flow.Assertion, resp *httpclient.Response) (any, bool) {
	if a.Path == "httpStatus" {
		return resp.Status, true
	}
	if a.Path == "status" && isNumber(a.Value) {
		return resp.Status, true
	}
	return jsonpath.Extract(resp.Body, a.Path)
}

// evaluateAI dispatches an ai-evaluate assertion to the external evaluator,
// folding the verdict into an ordinary assertion result.
func (fr *FlowRunner) evaluateAI(ctx context.Context, a flow.Assertion, resp *httpclient.Response) assertion.Result {
	actual, _ := fr.actualFor(a, resp)
	prompt := vars.Stringify(a.Value)

	verdict := fr.evaluator.Evaluate(ctx, actual, prompt)

	message := a.Message
	if message == "" {
		message = fmt.Sprintf("AI: %s (confidence %.2f)", verdict.Reason, verdict.Confidence)
	}
	return assertion.Result{
		Assertion: a,
		Success:   verdict.Pass,
		Actual:    actual,
		Message:   message,
	}
}

// resolveRequest interpolates the step's request against the bag and builds
// the outgoing request, constructing a GraphQL body when that section is
// present.
func (fr *FlowRunner) resolveRequest(rs flow.RequestSpec) httpclient.Request {
	req := httpclient.Request{
		Method: rs.Method,
		URL:    fr.resolveURL(vars.Interpolate(rs.URL, fr.bag)),
	}

	if len(rs.Headers) > 0 {
		req.Headers = make(map[string]string, len(rs.Headers))
		for k, v := range rs.Headers {
			req.Headers[k] = vars.Interpolate(v, fr.bag)
		}
	}

	if rs.GraphQL != nil {
		body := map[string]any{
			"query":     vars.Interpolate(rs.GraphQL.Query, fr.bag),
			"variables": map[string]any{},
		}
		if rs.GraphQL.Variables != nil {
			if resolved, ok := vars.Resolve(rs.GraphQL.Variables, fr.bag).(map[string]any); ok {
				body["variables"] = resolved
			}
		}
		if rs.GraphQL.OperationName != "" {
			body["operationName"] = vars.Interpolate(rs.GraphQL.OperationName, fr.bag)
		}
		req.Body = body
	} else if rs.Body != nil {
		req.Body = vars.Resolve(rs.Body, fr.bag)
	}

	return req
}

var (
	schemePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
	baseKeyPattern = regexp.MustCompile(`^\{([A-Za-z0-9_-]+)\}(.*)$`)
)

// resolveURL applies the base URL map: absolute URLs pass through, a {key}
// prefix selects a named base, and bare relative paths get the default base
// (the first context entry). An unknown {key} stays verbatim, the same
// visible degradation as an unresolved ${var}.
func (fr *FlowRunner) resolveURL(u string) string {
	if schemePattern.MatchString(u) {
		return u
	}
	if m := baseKeyPattern.FindStringSubmatch(u); m != nil {
		if base, ok := fr.project.Lookup(m[1]); ok {
			return joinURL(base, m[2])
		}
		return u
	}
	if def := fr.project.Default(); def != "" {
		return joinURL(def, u)
	}
	return u
}

func joinURL(base, rest string) string {
	base = strings.TrimRight(base, "/")
	if rest == "" {
		return base
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return base + rest
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, float32, float64:
		return true
	default:
		return false
	}
}
