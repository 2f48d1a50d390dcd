// Package eviction implements the disk-usage-driven layer eviction engine:
// a periodic loop that probes filesystem free space, ranks resident layers
// across all tenants, and evicts the coldest ones (while trying to keep a
// minimum per-tenant working set resident) until the pressure is relieved.
package eviction

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pagestore/evictiond/tenant"
)

// Usage is the pressure predicate, abstracted so both the real statvfs-based
// probe and a mock can drive the same planning logic.
type Usage interface {
	HasPressure() bool
	AddAvailableBytes(n uint64)

	// Clone returns an independent copy, so the planner can simulate
	// multiple candidate evictions without mutating the pre-iteration
	// measurement. Rust's Usage trait requires Clone + Copy for the same
	// reason; Go's equivalent is an explicit Clone method.
	Clone() Usage
}

// Order selects how candidates are sorted within their min-resident-size
// partition, after the Above/Below split. See spec.md §4.2.
type Order struct {
	// Kind is "AbsoluteAccessed" or "RelativeAccessed".
	Kind OrderKind
	// HighestLayerCountLosesFirst only applies when Kind is
	// RelativeAccessed.
	HighestLayerCountLosesFirst bool
}

// OrderKind enumerates the two eviction orders.
type OrderKind int

const (
	AbsoluteAccessed OrderKind = iota
	RelativeAccessed
)

func (k OrderKind) String() string {
	if k == RelativeAccessed {
		return "RelativeAccessed"
	}
	return "AbsoluteAccessed"
}

// DefaultOrder is AbsoluteAccessed, matching the wire default.
var DefaultOrder = Order{Kind: AbsoluteAccessed}

// LayerCount accumulates the size and count of layers that failed to evict.
type LayerCount struct {
	FileSizes uint64
	Count     int
}

func (c LayerCount) String() string {
	return fmt.Sprintf("{file_sizes=%s count=%d}", humanize.IBytes(c.FileSizes), c.Count)
}

// PlannedUsage is phase 1's output: the projected usage if every planned
// eviction succeeds.
type PlannedUsage struct {
	// RespectingTenantMinResidentSize is the usage projected right before
	// the plan first reached into the Below partition (or the final
	// planned usage, if it never did).
	RespectingTenantMinResidentSize Usage
	// FallbackToGlobalLRU is set iff the plan had to evict Below-partition
	// (reservation-protected) candidates to relieve pressure.
	FallbackToGlobalLRU Usage // nil if not triggered
}

// AssumedUsage is phase 2's output: the executor's internal accounting
// after actually attempting the planned evictions.
type AssumedUsage struct {
	ProjectedAfter Usage
	Failed         LayerCount
}

// Finished is the successful-iteration payload of IterationOutcome.
type Finished struct {
	Before  Usage
	Planned PlannedUsage
	Assumed AssumedUsage

	// NumCandidates is the size of the ranked candidate list the collector
	// produced, before the planner's prefix cut. Reported to metrics as the
	// CandidateCollector's share of the pipeline.
	NumCandidates int
}

// OutcomeKind enumerates IterationOutcome variants.
type OutcomeKind int

const (
	NoPressure OutcomeKind = iota
	Cancelled
	OutcomeFinished
)

func (k OutcomeKind) String() string {
	switch k {
	case NoPressure:
		return "NoPressure"
	case Cancelled:
		return "Cancelled"
	case OutcomeFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// IterationOutcome is the tagged result of one iteration of the
// probe-plan-execute-verify pipeline.
type IterationOutcome struct {
	Kind     OutcomeKind
	Finished Finished // valid iff Kind == OutcomeFinished
}

// Candidate is one layer under consideration for eviction.
type Candidate struct {
	Timeline tenant.Timeline
	Layer    tenant.Layer

	LastActivityTS      time.Time
	RelativeLastActivity FiniteF32

	Partition Partition
}
