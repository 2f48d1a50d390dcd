package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry is a simple in-memory Registry, used by tests and by the
// demo command to exercise the eviction engine without a real storage
// service behind it. It is safe for concurrent use.
type MemoryRegistry struct {
	mu      sync.Mutex
	tenants map[Id]*MemoryTenant
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{tenants: make(map[Id]*MemoryTenant)}
}

// AddTenant registers t, replacing any previous tenant with the same id.
func (r *MemoryRegistry) AddTenant(t *MemoryTenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.id] = t
}

func (r *MemoryRegistry) ListTenants(ctx context.Context) ([]Id, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]Id, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *MemoryRegistry) GetTenant(ctx context.Context, id Id, activeOnly bool) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	if activeOnly && t.cancelled {
		return nil, ErrNotFound
	}
	return t, nil
}

// MemoryTenant is an in-memory Tenant.
type MemoryTenant struct {
	id        Id
	cancelled bool

	mu                sync.Mutex
	minResidentSize   uint64
	hasMinResidentSize bool
	timelines         []*MemoryTimeline
}

// NewMemoryTenant creates a tenant with a random id if id is empty.
func NewMemoryTenant(id Id) *MemoryTenant {
	if id == "" {
		id = Id(uuid.NewString())
	}
	return &MemoryTenant{id: id}
}

func (t *MemoryTenant) Id() Id { return t.id }

func (t *MemoryTenant) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// SetCancelled marks the tenant as shutting down; the collector skips it.
func (t *MemoryTenant) SetCancelled(c bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = c
}

func (t *MemoryTenant) MinResidentSizeOverride() (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.minResidentSize, t.hasMinResidentSize
}

// SetMinResidentSizeOverride sets the per-tenant reservation override.
func (t *MemoryTenant) SetMinResidentSizeOverride(bytes uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.minResidentSize = bytes
	t.hasMinResidentSize = true
}

func (t *MemoryTenant) AddTimeline(tl *MemoryTimeline) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timelines = append(t.timelines, tl)
}

func (t *MemoryTenant) ListTimelines(ctx context.Context) ([]Timeline, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Timeline, 0, len(t.timelines))
	for _, tl := range t.timelines {
		out = append(out, tl)
	}
	return out, nil
}

// MemoryTimeline is an in-memory Timeline holding a set of resident
// MemoryLayers.
type MemoryTimeline struct {
	id     TimelineId
	active bool
	remote RemoteClient

	mu     sync.Mutex
	layers []*MemoryLayer
}

// NewMemoryTimeline creates a timeline with a random id if id is empty.
func NewMemoryTimeline(id TimelineId, remote RemoteClient) *MemoryTimeline {
	if id == "" {
		id = TimelineId(uuid.NewString())
	}
	return &MemoryTimeline{id: id, active: true, remote: remote}
}

func (tl *MemoryTimeline) Id() TimelineId { return tl.id }

func (tl *MemoryTimeline) IsActive() bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.active
}

// SetActive toggles whether the timeline participates in candidate
// collection.
func (tl *MemoryTimeline) SetActive(active bool) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.active = active
}

func (tl *MemoryTimeline) RemoteClient() RemoteClient { return tl.remote }

// AddLayer adds a resident layer to the timeline.
func (tl *MemoryTimeline) AddLayer(l *MemoryLayer) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.layers = append(tl.layers, l)
}

// RemoveLayer drops l from the resident set, as EvictAndWait would after a
// successful eviction.
func (tl *MemoryTimeline) RemoveLayer(l *MemoryLayer) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	for i, existing := range tl.layers {
		if existing == l {
			tl.layers = append(tl.layers[:i], tl.layers[i+1:]...)
			return
		}
	}
}

func (tl *MemoryTimeline) LocalLayersForDiskUsageEviction(ctx context.Context) (ResidentLayers, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	var out ResidentLayers
	var max uint64
	for _, l := range tl.layers {
		out.Layers = append(out.Layers, LayerInfo{
			Layer:          l,
			FileSize:       l.FileSize(),
			LastActivityTS: l.LastActivity(),
		})
		if l.FileSize() > max {
			max = l.FileSize()
		}
	}
	if len(tl.layers) > 0 {
		out.MaxLayerSize = max
		out.HasMaxLayerSize = true
	}
	return out, nil
}

// MemoryLayer is an in-memory Layer. EvictAndWait is driven by the fields
// below, so tests can simulate success, NotFound, Downloaded, or a hang
// (to exercise the executor's per-layer timeout).
type MemoryLayer struct {
	tenantID   Id
	timelineID TimelineId
	name       string
	size       uint64

	mu           sync.Mutex
	lastActivity time.Time
	evicted      bool

	// Result is returned by EvictAndWait, unless Hang is set.
	Result EvictionResult
	Err    error
	// Hang makes EvictAndWait block until ctx is done, to exercise the
	// executor's 5s per-layer timeout.
	Hang bool

	// owner, set by the test/demo harness constructing the timeline, lets
	// EvictAndWait remove itself from the resident set on success.
	owner *MemoryTimeline
}

// NewMemoryLayer creates a resident layer of the given size, last active at
// lastActivity, owned by owner.
func NewMemoryLayer(owner *MemoryTimeline, size uint64, lastActivity time.Time) *MemoryLayer {
	return &MemoryLayer{
		tenantID:     "",
		timelineID:   owner.Id(),
		name:         uuid.NewString(),
		size:         size,
		lastActivity: lastActivity,
		owner:        owner,
		Result:       EvictionSuccess,
	}
}

func (l *MemoryLayer) FileSize() uint64       { return l.size }
func (l *MemoryLayer) TenantId() Id           { return l.tenantID }
func (l *MemoryLayer) TimelineId() TimelineId { return l.timelineID }

func (l *MemoryLayer) LastActivity() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastActivity
}

// SetTenantId is used by test setup to stamp the owning tenant id for
// logging purposes.
func (l *MemoryLayer) SetTenantId(id Id) { l.tenantID = id }

func (l *MemoryLayer) String() string {
	return fmt.Sprintf("%s/%s/%s", l.tenantID, l.timelineID, l.name)
}

func (l *MemoryLayer) EvictAndWait(ctx context.Context, remote RemoteClient) (EvictionResult, error) {
	if l.Hang {
		<-ctx.Done()
		return EvictionResult(-1), ctx.Err()
	}

	if remote != nil {
		if err := remote.Confirm(ctx, l.name); err != nil {
			return EvictionResult(-1), err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.evicted {
		return EvictionNotFound, nil
	}
	if l.Result == EvictionSuccess {
		l.evicted = true
		if l.owner != nil {
			l.owner.RemoveLayer(l)
		}
	}
	return l.Result, l.Err
}
