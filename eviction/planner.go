package eviction

// Planner walks the ranked candidate list and decides how many of them must
// be evicted for the projected usage to relieve pressure.
type Planner struct {
	Logger Logger
}

// Plan is Planner.Plan's result.
type Plan struct {
	// NumToEvict is the number of leading candidates (in ranked order) the
	// executor should attempt to evict.
	NumToEvict int
	Usage      PlannedUsage
}

// Plan walks candidates in order, maintaining a running projected usage
// starting from a clone of usagePre. It stops as soon as the projection
// shows pressure relieved. If it has to cross into the Below partition to
// get there, it records the usage at the crossing point and warns (via
// Logger) that the per-tenant reservation could not absorb the pressure on
// its own.
func (p *Planner) Plan(usagePre Usage, candidates []Candidate) Plan {
	planned := usagePre.Clone()

	var warnedAt Usage
	warned := false

	n := 0
	for i, cand := range candidates {
		if !planned.HasPressure() {
			break
		}

		if cand.Partition == Below && !warned {
			p.logf(usagePre, planned, i)
			warnedAt = planned.Clone()
			warned = true
		}

		planned.AddAvailableBytes(cand.Layer.FileSize())
		n++
	}

	if warned {
		return Plan{
			NumToEvict: n,
			Usage: PlannedUsage{
				RespectingTenantMinResidentSize: warnedAt,
				FallbackToGlobalLRU:             planned,
			},
		}
	}

	return Plan{
		NumToEvict: n,
		Usage: PlannedUsage{
			RespectingTenantMinResidentSize: planned,
			FallbackToGlobalLRU:             nil,
		},
	}
}

func (p *Planner) logf(pre, planned Usage, candidateNo int) {
	if p.Logger != nil {
		p.Logger.Warnf("tenant_min_resident_size-respecting LRU would not relieve pressure (usage_pre=%v usage_planned=%v candidate_no=%d), evicting more following global LRU policy", pre, planned, candidateNo)
	}
}
