// Package executor orchestrates flow execution: resolving step requests,
// dispatching them, polling, capturing variables, and evaluating assertions.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/restflow-dev/restflow-runner/pkg/ai"
	"github.com/restflow-dev/restflow-runner/pkg/config"
	"github.com/restflow-dev/restflow-runner/pkg/flow"
	"github.com/restflow-dev/restflow-runner/pkg/httpclient"
)

// Transport issues a resolved step request. Implementations must not treat
// non-2xx statuses as errors; only transport-level failures are errors.
type Transport interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// RunnerConfig configures a test run.
type RunnerConfig struct {
	// Parallelism is the number of flows executing concurrently.
	// 0 or 1 means strictly sequential.
	Parallelism int
	// StopOnFail stops scheduling further flows after the first failed one
	// (sequential mode only; steps within a flow always run to the end).
	StopOnFail bool

	// Live progress callbacks.
	OnFlowStart    func(flowIdx, totalFlows int, name, file string)
	OnStepComplete func(flowName string, stepIdx int, result StepResult)
	OnFlowEnd      func(result FlowResult)
}

// Runner executes a set of flows. Each flow gets its own FlowRunner and
// variable bag, so parallel execution shares nothing but the transport.
type Runner struct {
	config    RunnerConfig
	transport Transport
	evaluator ai.Evaluator
	project   *config.Context
}

// New creates a Runner.
func New(transport Transport, evaluator ai.Evaluator, project *config.Context, cfg RunnerConfig) *Runner {
	return &Runner{
		config:    cfg,
		transport: transport,
		evaluator: evaluator,
		project:   project,
	}
}

// Run executes all flows and aggregates a RunResult.
func (r *Runner) Run(ctx context.Context, flows []*flow.Flow) *RunResult {
	result := &RunResult{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}

	if r.config.Parallelism > 1 && len(flows) > 1 {
		result.Flows = r.runParallel(ctx, flows)
	} else {
		result.Flows = r.runSequential(ctx, flows)
	}

	result.Duration = time.Since(result.StartTime)
	result.ComputeSummary()
	return result
}

func (r *Runner) runSequential(ctx context.Context, flows []*flow.Flow) []FlowResult {
	results := make([]FlowResult, 0, len(flows))
	for i, f := range flows {
		if r.config.OnFlowStart != nil {
			r.config.OnFlowStart(i, len(flows), f.Name, f.SourcePath)
		}
		fr := r.executeFlow(ctx, f)
		results = append(results, fr)
		if r.config.OnFlowEnd != nil {
			r.config.OnFlowEnd(fr)
		}
		if r.config.StopOnFail && !fr.Success {
			break
		}
	}
	return results
}

// runParallel executes flows over a bounded work queue, the results landing
// at their original indices. Wall-clock duration is measured by the caller.
func (r *Runner) runParallel(ctx context.Context, flows []*flow.Flow) []FlowResult {
	type workItem struct {
		flow  *flow.Flow
		index int
	}

	queue := make(chan workItem, len(flows))
	for i, f := range flows {
		queue <- workItem{flow: f, index: i}
	}
	close(queue)

	workers := r.config.Parallelism
	if workers > len(flows) {
		workers = len(flows)
	}

	results := make([]FlowResult, len(flows))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				if r.config.OnFlowStart != nil {
					r.config.OnFlowStart(item.index, len(flows), item.flow.Name, item.flow.SourcePath)
				}
				fr := r.executeFlow(ctx, item.flow)
				mu.Lock()
				results[item.index] = fr
				mu.Unlock()
				if r.config.OnFlowEnd != nil {
					r.config.OnFlowEnd(fr)
				}
			}
		}()
	}

	wg.Wait()
	return results
}

func (r *Runner) executeFlow(ctx context.Context, f *flow.Flow) FlowResult {
	runner := NewFlowRunner(f, r.transport, r.evaluator, r.project)
	runner.onStep = r.config.OnStepComplete
	return runner.Run(ctx)
}
