package eviction

import (
	"context"
	"math/rand"
	"time"
)

// IterationMetrics is the recorder for whole-iteration observability,
// separate from the per-eviction Metrics the Executor reports to: it is the
// CandidateCollector/IterationLoop's share of the observability surface
// (iteration count by outcome, candidates collected, wall-clock duration).
type IterationMetrics interface {
	RecordIteration(outcome string, numCandidates int, seconds float64)
}

// Loop drives Engine.RunIteration on a periodic cadence, with an initial
// random jitter to desynchronize nodes, and a post-iteration verification
// probe closing the control-feedback loop described in spec.md §4.5.
type Loop struct {
	Engine  *Engine
	Period  time.Duration
	Logger  Logger
	Metrics IterationMetrics // optional; nil disables iteration-level recording

	// ReadyBarrier, if non-nil, is waited on before the first iteration so
	// that eviction never runs against tenants that are still loading. A
	// nil barrier means start immediately.
	ReadyBarrier <-chan struct{}
}

// Run blocks until ctx is cancelled. Callers normally invoke it in its own
// goroutine.
func (l *Loop) Run(ctx context.Context) {
	defer l.Logger.Infof("disk usage based eviction task finishing")

	if l.ReadyBarrier != nil {
		select {
		case <-ctx.Done():
			return
		case <-l.ReadyBarrier:
		}
	}

	if !l.jitterSleep(ctx) {
		return
	}

	for {
		start := time.Now()

		outcome, err := l.Engine.RunIteration(ctx)
		l.logOutcome(outcome, err)

		if err == nil {
			l.recordMetrics(outcome, time.Since(start))
		}

		if err == nil && outcome.Kind == OutcomeFinished {
			l.verify(outcome.Finished)
		}

		if !l.sleepUntil(ctx, start.Add(l.Period)) {
			return
		}
	}
}

// jitterSleep waits a random duration in [0, Period) before returning true,
// or returns false if ctx fired first.
func (l *Loop) jitterSleep(ctx context.Context) bool {
	if l.Period <= 0 {
		return true
	}
	jitter := time.Duration(rand.Int63n(int64(l.Period)))
	return l.sleepUntil(ctx, time.Now().Add(jitter))
}

// sleepUntil blocks until deadline or ctx is cancelled, returning false in
// the latter case.
func (l *Loop) sleepUntil(ctx context.Context, deadline time.Time) bool {
	d := time.Until(deadline)
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// recordMetrics reports one iteration's outcome to l.Metrics, if set.
func (l *Loop) recordMetrics(outcome IterationOutcome, elapsed time.Duration) {
	if l.Metrics == nil {
		return
	}
	l.Metrics.RecordIteration(outcome.Kind.String(), outcome.Finished.NumCandidates, elapsed.Seconds())
}

func (l *Loop) logOutcome(outcome IterationOutcome, err error) {
	if err != nil {
		l.Logger.Errorf("disk usage eviction iteration failed: %v", err)
		return
	}
	l.Logger.Infof("disk usage eviction iteration finished: outcome=%s", outcome.Kind)
}

// verify re-probes the filesystem after a Finished outcome, closing the
// feedback loop: internal accounting (assumed) is cross-checked against
// reality. A second iteration is not triggered out-of-order; the next
// scheduled iteration will pick up any remaining pressure.
func (l *Loop) verify(finished Finished) {
	after, err := l.Engine.probeUsage()
	if err != nil {
		l.Logger.Errorf("get filesystem-level disk usage after evictions: %v", err)
		return
	}

	if after.HasPressure() {
		l.Logger.Warnf("disk usage still high after eviction: planned=%v assumed=%v after=%v",
			finished.Planned.RespectingTenantMinResidentSize, finished.Assumed.ProjectedAfter, after)
	} else {
		l.Logger.Infof("disk usage pressure relieved: after=%v", after)
	}
}
