package eviction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pagestore/evictiond/tenant"
)

func newEngineWithUsage(avail, total, maxUsagePct uint64, reg tenant.Registry) *Engine {
	mock := &MockStatvfs{Result: StatvfsResult{FragmentSize: 1, Blocks: total, BlocksAvailable: avail}}
	cfg := Config{MaxUsagePct: maxUsagePct}
	return NewEngine("/tenants", cfg, DefaultOrder, reg, NopLogger{}, nil, mock)
}

func TestRunIterationNoPressure(t *testing.T) {
	reg := tenant.NewMemoryRegistry()
	e := newEngineWithUsage(90, 100, 50, reg) // 10% used, well under 50%

	outcome, err := e.RunIteration(context.Background())
	if err != nil {
		t.Fatalf("RunIteration: %v", err)
	}
	if outcome.Kind != NoPressure {
		t.Errorf("outcome = %s, want NoPressure", outcome.Kind)
	}
}

func TestRunIterationFinishedRelievesPressure(t *testing.T) {
	reg := tenant.NewMemoryRegistry()
	tn, tl := newTestTenant(0, false)
	reg.AddTenant(tn)
	now := time.Now()
	tl.AddLayer(tenant.NewMemoryLayer(tl, 40, now.Add(-2*time.Hour)))
	tl.AddLayer(tenant.NewMemoryLayer(tl, 40, now.Add(-1*time.Hour)))

	e := newEngineWithUsage(10, 100, 50, reg) // 90% used

	outcome, err := e.RunIteration(context.Background())
	if err != nil {
		t.Fatalf("RunIteration: %v", err)
	}
	if outcome.Kind != OutcomeFinished {
		t.Fatalf("outcome = %s, want Finished", outcome.Kind)
	}
	if outcome.Finished.Assumed.ProjectedAfter.HasPressure() {
		t.Error("expected the eviction to relieve pressure")
	}
}

func TestRunIterationRejectsOverlap(t *testing.T) {
	origTimeout := PerLayerTimeout
	setPerLayerTimeoutForTest(t, 30*time.Millisecond)
	defer setPerLayerTimeoutForTest(t, origTimeout)

	reg := tenant.NewMemoryRegistry()
	tn, tl := newTestTenant(0, false)
	reg.AddTenant(tn)
	hanging := tenant.NewMemoryLayer(tl, 10, time.Now())
	hanging.Hang = true
	tl.AddLayer(hanging)

	e := newEngineWithUsage(1, 100, 50, reg) // pressure, eviction will hang

	var wg sync.WaitGroup
	wg.Add(1)
	started := make(chan struct{})
	go func() {
		defer wg.Done()
		close(started)
		e.RunIteration(context.Background())
	}()
	<-started
	time.Sleep(20 * time.Millisecond) // let the first iteration acquire the lock

	_, err := e.RunIteration(context.Background())
	if err != ErrIterationInProgress {
		t.Errorf("RunIteration() error = %v, want ErrIterationInProgress", err)
	}

	// The hanging layer's per-layer timeout (shortened above) unblocks the
	// first iteration shortly on its own.
	wg.Wait()
}

func TestRunIterationCancellationDuringCollection(t *testing.T) {
	reg := tenant.NewMemoryRegistry()
	tn, _ := newTestTenant(0, false)
	reg.AddTenant(tn)

	e := newEngineWithUsage(1, 100, 50, reg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := e.RunIteration(ctx)
	if err != nil {
		t.Fatalf("RunIteration: %v", err)
	}
	if outcome.Kind != Cancelled {
		t.Errorf("outcome = %s, want Cancelled", outcome.Kind)
	}
}
