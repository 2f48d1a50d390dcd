package eviction

import (
	"context"
	"testing"
	"time"

	"github.com/pagestore/evictiond/tenant"
)

type countingMetrics struct {
	successBytes, failedBytes uint64
	successCount, failedCount int
}

func (m *countingMetrics) RecordEvictionSuccess(n uint64) {
	m.successBytes += n
	m.successCount++
}

func (m *countingMetrics) RecordEvictionFailed(n uint64) {
	m.failedBytes += n
	m.failedCount++
}

func layerCandidate(size uint64, result tenant.EvictionResult, hang bool) Candidate {
	tl := tenant.NewMemoryTimeline("", nil)
	l := tenant.NewMemoryLayer(tl, size, timeZero)
	l.Result = result
	l.Hang = hang
	tl.AddLayer(l)
	return Candidate{Timeline: tl, Layer: l}
}

func TestExecutorAccountsSuccessesAndFailures(t *testing.T) {
	usagePre := mustUsage(t, 0, 1000, 90)
	metrics := &countingMetrics{}

	candidates := []Candidate{
		layerCandidate(10, tenant.EvictionSuccess, false),
		layerCandidate(20, tenant.EvictionSuccess, false),
		layerCandidate(30, tenant.EvictionNotFound, false),
	}

	e := (&Executor{Metrics: metrics}).WithConcurrency(4)
	assumed, cancelled := e.Execute(context.Background(), usagePre, candidates)

	if cancelled {
		t.Fatal("did not expect cancellation")
	}
	if assumed.Failed.Count != 1 || assumed.Failed.FileSizes != 30 {
		t.Errorf("Failed = %+v, want count=1 file_sizes=30", assumed.Failed)
	}
	if metrics.successCount != 2 || metrics.successBytes != 30 {
		t.Errorf("success metrics = count=%d bytes=%d, want 2/30", metrics.successCount, metrics.successBytes)
	}
	if metrics.failedCount != 1 || metrics.failedBytes != 30 {
		t.Errorf("failed metrics = count=%d bytes=%d, want 1/30", metrics.failedCount, metrics.failedBytes)
	}
}

func TestExecutorTimesOutHangingLayer(t *testing.T) {
	origTimeout := PerLayerTimeout
	setPerLayerTimeoutForTest(t, 50*time.Millisecond)
	defer setPerLayerTimeoutForTest(t, origTimeout)

	usagePre := mustUsage(t, 0, 1000, 90)
	candidates := []Candidate{layerCandidate(10, tenant.EvictionSuccess, true)}

	e := (&Executor{}).WithConcurrency(1)
	assumed, cancelled := e.Execute(context.Background(), usagePre, candidates)

	if cancelled {
		t.Fatal("a per-layer timeout must not cancel the whole iteration")
	}
	if assumed.Failed.Count != 1 {
		t.Errorf("a hanging layer should be counted as failed, got %+v", assumed.Failed)
	}
}

func TestExecutorRespectsConcurrencyLimit(t *testing.T) {
	usagePre := mustUsage(t, 0, 1000, 90)

	const n = 20
	candidates := make([]Candidate, n)
	for i := range candidates {
		candidates[i] = layerCandidate(1, tenant.EvictionSuccess, false)
	}

	e := (&Executor{}).WithConcurrency(3)
	assumed, cancelled := e.Execute(context.Background(), usagePre, candidates)
	if cancelled {
		t.Fatal("did not expect cancellation")
	}
	if assumed.Failed.Count != 0 {
		t.Errorf("expected all %d evictions to succeed, got %d failures", n, assumed.Failed.Count)
	}
}

// panickingLayer is a tenant.Layer whose EvictAndWait panics, exercising
// evictOne's recover() (spec.md §4.4's "task panic" row: logged, no
// accounting change).
type panickingLayer struct {
	size uint64
}

func (l *panickingLayer) FileSize() uint64             { return l.size }
func (l *panickingLayer) TenantId() tenant.Id           { return "" }
func (l *panickingLayer) TimelineId() tenant.TimelineId { return "" }
func (l *panickingLayer) String() string                { return "panickingLayer" }
func (l *panickingLayer) EvictAndWait(ctx context.Context, remote tenant.RemoteClient) (tenant.EvictionResult, error) {
	panic("simulated collaborator panic")
}

func TestExecutorRecoversFromLayerPanic(t *testing.T) {
	usagePre := mustUsage(t, 0, 1000, 90)
	tl := tenant.NewMemoryTimeline("", nil)
	candidates := []Candidate{{Timeline: tl, Layer: &panickingLayer{size: 10}}}

	e := (&Executor{}).WithConcurrency(1)
	assumed, cancelled := e.Execute(context.Background(), usagePre, candidates)

	if cancelled {
		t.Fatal("a panicking layer must not cancel the whole iteration")
	}
	if assumed.Failed.Count != 0 {
		t.Errorf("a panic is logged with no accounting change, got Failed=%+v", assumed.Failed)
	}
}

func TestExecutorCancellationStopsWaitingForResults(t *testing.T) {
	usagePre := mustUsage(t, 0, 1000, 90)
	candidates := []Candidate{layerCandidate(10, tenant.EvictionSuccess, true)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := (&Executor{}).WithConcurrency(1)
	_, cancelled := e.Execute(ctx, usagePre, candidates)
	if !cancelled {
		t.Error("expected Execute to report cancellation when ctx is already done")
	}
}
