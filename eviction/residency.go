package eviction

import "container/list"

// residencyWindow classifies a tenant's resident layers into the Above and
// Below min-resident-size partitions.
//
// This is adapted from sizedlru.SizedLRU (github.com/buchgr/bazel-remote's
// cache/sizedlru package): that type walks a most-recently-used-first
// doubly linked list, evicting from the back once the cumulative size
// crosses a cap. Here we walk the same MRU-first list but don't evict
// anything — we just record, for each entry, whether the *cumulative* size
// up to and including it has crossed minResidentSize yet. The entries
// before the crossing point are Below (the tenant's protected reservation);
// everything from the crossing point onward is Above (evict first).
type residencyWindow struct {
	ll              *list.List
	minResidentSize uint64
}

func newResidencyWindow(minResidentSize uint64) *residencyWindow {
	return &residencyWindow{ll: list.New(), minResidentSize: minResidentSize}
}

// pushMRU appends an entry to the back of MRU order (caller must push in
// most-recently-used-first order, as sizedlru.Add does via PushFront when
// inserting — we instead take the order as given, since the candidate
// list is already sorted MRU-first before classification).
func (w *residencyWindow) pushMRU(fileSize uint64) {
	w.ll.PushBack(fileSize)
}

// partitions returns, for each entry in the order they were pushed, whether
// the cumulative size through that entry is Above or Below the reservation.
func (w *residencyWindow) partitions() []Partition {
	out := make([]Partition, 0, w.ll.Len())
	var cumsum uint64
	for e := w.ll.Front(); e != nil; e = e.Next() {
		cumsum += e.Value.(uint64)
		if cumsum > w.minResidentSize {
			out = append(out, Above)
		} else {
			out = append(out, Below)
		}
	}
	return out
}
