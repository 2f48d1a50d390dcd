package eviction

import (
	"context"
	"sync"

	"github.com/pagestore/evictiond/tenant"
)

// Engine wires together the probe, collector, planner and executor for one
// tenants directory. It owns the non-reentrant iteration mutex described in
// spec.md §5: at most one iteration runs at a time per process, whether
// triggered by the periodic loop or an admin "trigger now" request.
type Engine struct {
	TenantsDir string
	Config     Config
	Order      Order
	Registry   tenant.Registry
	Logger     Logger
	Metrics    Metrics

	probe Probe
	mu    sync.Mutex
}

// NewEngine constructs an Engine. mock, if non-nil, substitutes the real
// statvfs(2) call for tests.
func NewEngine(tenantsDir string, cfg Config, order Order, registry tenant.Registry, logger Logger, metrics Metrics, mock *MockStatvfs) *Engine {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Engine{
		TenantsDir: tenantsDir,
		Config:     cfg,
		Order:      order,
		Registry:   registry,
		Logger:     logger,
		Metrics:    metrics,
		probe:      Probe{Mock: mock},
	}
}

// probeUsage measures the current filesystem usage.
func (e *Engine) probeUsage() (Usage, error) {
	return e.probe.Get(e.TenantsDir, e.Config)
}

// RunIteration drives one probe-collect-plan-execute pass. It does not
// perform the post-iteration verification probe or the sleep between
// iterations — see Loop for that.
func (e *Engine) RunIteration(ctx context.Context) (IterationOutcome, error) {
	if !e.mu.TryLock() {
		return IterationOutcome{}, ErrIterationInProgress
	}
	defer e.mu.Unlock()

	usagePre, err := e.probeUsage()
	if err != nil {
		return IterationOutcome{}, err
	}

	if !usagePre.HasPressure() {
		return IterationOutcome{Kind: NoPressure}, nil
	}

	e.Logger.Warnf("running disk usage based eviction due to pressure: %v", usagePre)

	collector := &Collector{Registry: e.Registry, Logger: e.Logger}
	result, err := collector.Collect(ctx, e.Order)
	if err != nil {
		return IterationOutcome{}, err
	}
	if result.Cancelled {
		return IterationOutcome{Kind: Cancelled}, nil
	}

	planner := &Planner{Logger: e.Logger}
	plan := planner.Plan(usagePre, result.Candidates)

	executor := &Executor{Logger: e.Logger, Metrics: e.Metrics}
	assumed, cancelled := executor.Execute(ctx, usagePre, result.Candidates[:plan.NumToEvict])
	if cancelled {
		return IterationOutcome{Kind: Cancelled}, nil
	}

	return IterationOutcome{
		Kind: OutcomeFinished,
		Finished: Finished{
			Before:        usagePre,
			Planned:       plan.Usage,
			Assumed:       assumed,
			NumCandidates: len(result.Candidates),
		},
	}, nil
}
