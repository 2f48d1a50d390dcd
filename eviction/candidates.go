package eviction

import (
	"context"
	"fmt"
	"sort"

	"github.com/pagestore/evictiond/tenant"
)

// Collector produces the globally ranked list of eviction candidates.
type Collector struct {
	Registry tenant.Registry

	// Logger receives debug-level progress; nil disables it.
	Logger Logger

	// DumpCandidates, if set, receives the fully ranked candidate list
	// before planning starts. It exists purely for diagnostics (a cheap
	// stand-in for the original task's per-candidate debug log, which
	// would be wasteful to always format) — see SPEC_FULL.md §C.1.
	DumpCandidates func([]Candidate)
}

// CandidatesResult is Collect's outcome.
type CandidatesResult struct {
	Cancelled  bool
	Candidates []Candidate // nil iff Cancelled
}

// Collect gathers resident layers across all active tenants/timelines,
// computes each tenant's min-resident-size, partitions layers into
// Above/Below that reservation, and returns one flat globally ordered list.
// See spec.md §4.2 for the full algorithm.
func (c *Collector) Collect(ctx context.Context, order Order) (CandidatesResult, error) {
	tenantIDs, err := c.Registry.ListTenants(ctx)
	if err != nil {
		return CandidatesResult{}, fmt.Errorf("list tenants: %w", err)
	}

	var candidates []Candidate

	for _, id := range tenantIDs {
		select {
		case <-ctx.Done():
			return CandidatesResult{Cancelled: true}, nil
		default:
		}

		t, err := c.Registry.GetTenant(ctx, id, true)
		if err != nil {
			// The tenant transitioned out of the registry between
			// ListTenants and GetTenant; not an error, just skip it.
			c.logf("failed to get tenant %s: %v", id, err)
			continue
		}
		if t.IsCancelled() {
			c.logf("skipping tenant %s for eviction, it is shutting down", id)
			continue
		}

		tenantCandidates, maxLayerSize, cancelled := c.collectTenant(ctx, t)
		if cancelled {
			return CandidatesResult{Cancelled: true}, nil
		}

		minResidentSize := maxLayerSize
		if override, ok := t.MinResidentSizeOverride(); ok {
			minResidentSize = override
		}

		candidates = append(candidates, partitionAndRank(tenantCandidates, minResidentSize, order)...)
	}

	sortGlobally(candidates, order)

	if c.DumpCandidates != nil {
		c.DumpCandidates(candidates)
	}

	return CandidatesResult{Candidates: candidates}, nil
}

// tenantLayer is a (timeline, layer info) pair gathered from one tenant's
// active timelines, before MRU sorting and partitioning.
type tenantLayer struct {
	timeline tenant.Timeline
	info     tenant.LayerInfo
}

func (c *Collector) collectTenant(ctx context.Context, t tenant.Tenant) (layers []tenantLayer, maxLayerSize uint64, cancelled bool) {
	timelines, err := t.ListTimelines(ctx)
	if err != nil {
		c.logf("failed to list timelines for tenant %s: %v", t.Id(), err)
		return nil, 0, false
	}

	for _, tl := range timelines {
		select {
		case <-ctx.Done():
			return nil, 0, true
		default:
		}

		if !tl.IsActive() {
			continue
		}

		resident, err := tl.LocalLayersForDiskUsageEviction(ctx)
		if err != nil {
			c.logf("failed to list resident layers for tenant %s timeline %s: %v", t.Id(), tl.Id(), err)
			continue
		}

		for _, info := range resident.Layers {
			layers = append(layers, tenantLayer{timeline: tl, info: info})
		}
		if resident.HasMaxLayerSize && resident.MaxLayerSize > maxLayerSize {
			maxLayerSize = resident.MaxLayerSize
		}
	}

	return layers, maxLayerSize, false
}

// partitionAndRank sorts a single tenant's layers most-recently-used first,
// classifies them into Above/Below minResidentSize, and computes their
// relative-age key for RelativeAccessed order.
func partitionAndRank(layers []tenantLayer, minResidentSize uint64, order Order) []Candidate {
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].info.LastActivityTS.After(layers[j].info.LastActivityTS)
	})

	window := newResidencyWindow(minResidentSize)
	for _, l := range layers {
		window.pushMRU(l.info.FileSize)
	}
	partitions := window.partitions()

	fudge := 1
	if order.Kind == RelativeAccessed && order.HighestLayerCountLosesFirst {
		fudge = 0
	}
	total := len(layers) - fudge
	if total <= 0 {
		total = 1
	}
	divider := float32(total)

	out := make([]Candidate, 0, len(layers))
	for i, l := range layers {
		rel := ZeroF32
		if order.Kind == RelativeAccessed {
			v := (float32(total) - float32(i)) / divider
			if f, err := NormalizedF32(v); err == nil {
				rel = f
			} else {
				// Replaced by 0; the rejected value is not logged.
				rel = ZeroF32
			}
		}

		out = append(out, Candidate{
			Timeline:             l.timeline,
			Layer:                l.info.Layer,
			LastActivityTS:       l.info.LastActivityTS,
			RelativeLastActivity: rel,
			Partition:            partitions[i],
		})
	}
	return out
}

func sortGlobally(candidates []Candidate, order Order) {
	switch order.Kind {
	case RelativeAccessed:
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.Partition != b.Partition {
				return a.Partition < b.Partition
			}
			return a.RelativeLastActivity.Less(b.RelativeLastActivity)
		})
	default:
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.Partition != b.Partition {
				return a.Partition < b.Partition
			}
			return a.LastActivityTS.Before(b.LastActivityTS)
		})
	}
}

func (c *Collector) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debugf(format, args...)
	}
}
