package eviction

import (
	"testing"

	"github.com/pagestore/evictiond/tenant"
)

func mustUsage(t *testing.T, avail, total uint64, maxUsagePct uint64) Usage {
	t.Helper()
	p := &Probe{Mock: &MockStatvfs{Result: StatvfsResult{
		FragmentSize:    1,
		Blocks:          total,
		BlocksAvailable: avail,
	}}}
	u, err := p.Get("/tenants", Config{MaxUsagePct: maxUsagePct})
	if err != nil {
		t.Fatalf("mustUsage: %v", err)
	}
	return u
}

func candidateOfSize(size uint64, partition Partition) Candidate {
	tl := tenant.NewMemoryTimeline("", nil)
	layer := tenant.NewMemoryLayer(tl, size, timeZero)
	return Candidate{Timeline: tl, Layer: layer, Partition: partition}
}

func TestPlannerStopsAsSoonAsPressureRelieved(t *testing.T) {
	usagePre := mustUsage(t, 10, 100, 50) // 90% used, pressure

	candidates := []Candidate{
		candidateOfSize(20, Above), // brings avail to 30 (70% used, still pressure)
		candidateOfSize(30, Above), // brings avail to 60 (40% used, relieved)
		candidateOfSize(100, Above),
	}

	p := &Planner{}
	plan := p.Plan(usagePre, candidates)

	if plan.NumToEvict != 2 {
		t.Errorf("NumToEvict = %d, want 2", plan.NumToEvict)
	}
	if plan.Usage.FallbackToGlobalLRU != nil {
		t.Error("plan should not have needed to cross into Below partition")
	}
}

func TestPlannerFallsBackToBelowPartitionAndWarns(t *testing.T) {
	usagePre := mustUsage(t, 1, 100, 50) // 99% used

	candidates := []Candidate{
		candidateOfSize(5, Above), // not enough alone
		candidateOfSize(5, Below), // must cross into reservation
		candidateOfSize(100, Below),
	}

	logger := &recordingLogger{}
	p := &Planner{Logger: logger}
	plan := p.Plan(usagePre, candidates)

	if plan.NumToEvict != 3 {
		t.Errorf("NumToEvict = %d, want 3", plan.NumToEvict)
	}
	if plan.Usage.FallbackToGlobalLRU == nil {
		t.Fatal("expected FallbackToGlobalLRU to be set once a Below candidate was required")
	}
	if logger.warnCount() != 1 {
		t.Errorf("expected exactly one warning about the fallback, got %d", logger.warnCount())
	}
}

func TestPlannerNeverEvictsWhenNoPressure(t *testing.T) {
	usagePre := mustUsage(t, 90, 100, 50) // 10% used

	candidates := []Candidate{candidateOfSize(1, Above)}

	p := &Planner{}
	plan := p.Plan(usagePre, candidates)

	if plan.NumToEvict != 0 {
		t.Errorf("NumToEvict = %d, want 0 when there is no pressure", plan.NumToEvict)
	}
}

func TestPlannerDoesNotMutateUsagePre(t *testing.T) {
	usagePre := mustUsage(t, 10, 100, 50)

	p := &Planner{}
	p.Plan(usagePre, []Candidate{candidateOfSize(90, Above)})

	if !usagePre.HasPressure() {
		t.Error("usagePre must remain untouched by planning, which operates on a clone")
	}
}
