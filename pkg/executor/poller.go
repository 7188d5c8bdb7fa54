package executor

import (
	"context"
	"time"

	"github.com/restflow-dev/restflow-runner/pkg/assertion"
	"github.com/restflow-dev/restflow-runner/pkg/flow"
	"github.com/restflow-dev/restflow-runner/pkg/httpclient"
	"github.com/restflow-dev/restflow-runner/pkg/jsonpath"
	"github.com/restflow-dev/restflow-runner/pkg/logger"
)

// poll re-issues the step's request at a fixed interval until the waitUntil
// condition holds or the timeout elapses. Requests are strictly sequential;
// each retry waits the full interval before firing. Timing out is not an
// error: the last observed response is returned and the step's assertions
// run against it normally.
func (fr *FlowRunner) poll(ctx context.Context, spec *flow.PollSpec, req httpclient.Request, initial *httpclient.Response) *httpclient.Response {
	last := initial
	if pollConditionMet(spec, last) {
		return last
	}

	timeout := time.Duration(spec.Timeout) * time.Millisecond
	interval := time.Duration(spec.Interval) * time.Millisecond

	// The deadline only gates the wait; in-flight requests run on the outer
	// ctx so a request issued just before the deadline completes and its
	// response is observed.
	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		// The wait restarts after each response is evaluated, so retries are
		// spaced a full interval from the previous completion even when a
		// request runs long.
		wait := time.NewTimer(interval)
		select {
		case <-deadline.Done():
			wait.Stop()
			logger.Debug("flow %q: waitUntil on %q timed out after %s", fr.flow.Name, spec.Path, timeout)
			return last
		case <-wait.C:
		}

		resp, err := fr.transport.Do(ctx, req)
		if err != nil {
			logger.Warn("flow %q: waitUntil re-request failed: %v", fr.flow.Name, err)
			continue
		}
		last = resp
		if pollConditionMet(spec, last) {
			return last
		}
	}
}

// pollConditionMet evaluates the restricted waitUntil condition against a
// response, reusing the assertion engine's structural-JSON comparison.
func pollConditionMet(spec *flow.PollSpec, resp *httpclient.Response) bool {
	actual, found := jsonpath.Extract(resp.Body, spec.Path)
	check := flow.Assertion{Path: spec.Path, Operator: spec.Operator, Value: spec.Value}
	return assertion.Evaluate(check, actual, found).Success
}
