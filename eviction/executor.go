package eviction

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pagestore/evictiond/tenant"
)

const (
	// MaxConcurrentEvictions bounds the eviction worker pool. Tuned
	// constant, not to be scattered as a magic number elsewhere.
	MaxConcurrentEvictions = 1000

	// progressWarnAfter and progressNagEvery govern the "still ongoing"
	// logging for the overall eviction phase.
	progressWarnAfter = 10 * time.Second
	progressNagEvery  = 2 * time.Second
)

// PerLayerTimeout bounds how long a single layer's EvictAndWait may run
// before it is counted as a failure (it may still complete later; it is not
// awaited). A var, not a const, so tests can shrink it.
var PerLayerTimeout = 5 * time.Second

// Metrics is the optional recorder the executor reports eviction outcomes
// to. A nil Metrics disables reporting.
type Metrics interface {
	RecordEvictionSuccess(fileSize uint64)
	RecordEvictionFailed(fileSize uint64)
}

// Executor issues the planned evictions with bounded concurrency and a
// per-layer timeout, tracking per-layer outcomes.
//
// Candidates are spawned against a detached background context: only
// PerLayerTimeout bounds each task, and the iteration's cancellation does
// not reach it. Once spawned, a task is never aborted; on cancellation
// Execute only stops waiting for the outstanding tasks.
type Executor struct {
	Logger  Logger
	Metrics Metrics

	// sem is normally nil and lazily built with MaxConcurrentEvictions;
	// tests may inject a smaller one to exercise the bounded-pool logic
	// without spawning 1000 goroutines.
	sem *semaphore.Weighted
}

func (e *Executor) semaphoreOrDefault() *semaphore.Weighted {
	if e.sem != nil {
		return e.sem
	}
	e.sem = semaphore.NewWeighted(MaxConcurrentEvictions)
	return e.sem
}

// WithConcurrency overrides the worker pool size; for tests only.
func (e *Executor) WithConcurrency(n int64) *Executor {
	e.sem = semaphore.NewWeighted(n)
	return e
}

type taskOutcome int

const (
	outcomeSuccess taskOutcome = iota
	outcomeFailed
	outcomeIgnored
)

type taskResult struct {
	fileSize uint64
	outcome  taskOutcome
}

// Execute attempts to evict the given candidates (assumed to already be the
// planner's chosen prefix). It returns the post-run accounting, or
// cancelled=true if ctx fired before all outcomes were collected, in which
// case no AssumedUsage is meaningful and the iteration must report
// Cancelled, not Finished.
func (e *Executor) Execute(ctx context.Context, usagePre Usage, candidates []Candidate) (AssumedUsage, bool) {
	sem := e.semaphoreOrDefault()
	results := make(chan taskResult, len(candidates))

	spawned := 0
	for _, cand := range candidates {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		spawned++
		go func(cand Candidate) {
			defer sem.Release(1)
			results <- e.evictOne(cand)
		}(cand)
	}

	if spawned < len(candidates) {
		// The semaphore acquire was interrupted by cancellation before we
		// could spawn every candidate.
		return AssumedUsage{}, true
	}

	usageAssumed := usagePre.Clone()
	var failed LayerCount

	started := time.Now()
	done := make(chan struct{})
	go e.monitorProgress(started, done)

	for i := 0; i < len(candidates); i++ {
		select {
		case r := <-results:
			switch r.outcome {
			case outcomeSuccess:
				usageAssumed.AddAvailableBytes(r.fileSize)
				if e.Metrics != nil {
					e.Metrics.RecordEvictionSuccess(r.fileSize)
				}
			case outcomeFailed:
				failed.FileSizes += r.fileSize
				failed.Count++
				if e.Metrics != nil {
					e.Metrics.RecordEvictionFailed(r.fileSize)
				}
			case outcomeIgnored:
				// logged at the point of failure; no accounting change.
			}
		case <-ctx.Done():
			close(done)
			return AssumedUsage{}, true
		}
	}

	close(done)
	if e.Logger != nil {
		e.Logger.Infof("eviction phase completed, elapsed_ms=%d", time.Since(started).Milliseconds())
	}

	return AssumedUsage{ProjectedAfter: usageAssumed, Failed: failed}, false
}

func (e *Executor) monitorProgress(started time.Time, done <-chan struct{}) {
	timer := time.NewTimer(progressWarnAfter)
	defer timer.Stop()

	select {
	case <-done:
		return
	case <-timer.C:
	}
	if e.Logger != nil {
		e.Logger.Infof("eviction phase still ongoing, elapsed_ms=%d", time.Since(started).Milliseconds())
	}

	ticker := time.NewTicker(progressNagEvery)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if e.Logger != nil {
				e.Logger.Infof("eviction phase still ongoing, elapsed_ms=%d", time.Since(started).Milliseconds())
			}
		}
	}
}

// evictOne never lets a panicking Layer/RemoteClient implementation take
// down the whole process: spec.md §4.4's "task panic / other join error"
// row is accounted for like an unexpected EvictAndWait error (logged, no
// accounting change; a timeout, by contrast, counts as failed), recovered
// here rather than left to crash the spawning goroutine.
func (e *Executor) evictOne(cand Candidate) (res taskResult) {
	fileSize := cand.Layer.FileSize()
	res = taskResult{fileSize: fileSize, outcome: outcomeIgnored}

	defer func() {
		if r := recover(); r != nil {
			if e.Logger != nil {
				e.Logger.Errorf("panic evicting layer %s: %v", cand.Layer, r)
			}
			res = taskResult{fileSize: fileSize, outcome: outcomeIgnored}
		}
	}()

	layerCtx, cancel := context.WithTimeout(context.Background(), PerLayerTimeout)
	defer cancel()

	result, err := cand.Layer.EvictAndWait(layerCtx, cand.Timeline.RemoteClient())
	if layerCtx.Err() == context.DeadlineExceeded {
		return taskResult{fileSize: fileSize, outcome: outcomeFailed}
	}
	if err != nil {
		if e.Logger != nil {
			e.Logger.Errorf("unexpected error evicting layer %s: %v", cand.Layer, err)
		}
		return taskResult{fileSize: fileSize, outcome: outcomeIgnored}
	}

	switch result {
	case tenant.EvictionSuccess:
		return taskResult{fileSize: fileSize, outcome: outcomeSuccess}
	default: // NotFound or Downloaded
		return taskResult{fileSize: fileSize, outcome: outcomeFailed}
	}
}
