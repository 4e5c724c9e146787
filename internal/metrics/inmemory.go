package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	WebhooksReceived    uint64            `json:"webhooks_received"`
	WebhooksRejected    map[string]uint64 `json:"webhooks_rejected"`
	WebhookOutcomes     map[string]uint64 `json:"webhook_outcomes"`
	SyncDurationCount   uint64            `json:"sync_duration_count"`
	SyncDurationTotalNs int64             `json:"sync_duration_total_ns"`
	UsersDeleted        uint64            `json:"users_deleted"`
	UserCacheHits       uint64            `json:"user_cache_hits"`
	UserCacheMisses     uint64            `json:"user_cache_misses"`
}

// InMemoryRecorder stores metrics in memory. Used by tests and the
// admin stats endpoint.
type InMemoryRecorder struct {
	webhooksReceived    uint64
	syncDurationCount   uint64
	syncDurationTotalNs int64
	usersDeleted        uint64
	userCacheHits       uint64
	userCacheMisses     uint64

	mu       sync.Mutex
	rejected map[string]uint64
	outcomes map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		rejected: make(map[string]uint64),
		outcomes: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	rejected := make(map[string]uint64, len(m.rejected))
	for k, v := range m.rejected {
		rejected[k] = v
	}
	outcomes := make(map[string]uint64, len(m.outcomes))
	for k, v := range m.outcomes {
		outcomes[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		WebhooksReceived:    atomic.LoadUint64(&m.webhooksReceived),
		WebhooksRejected:    rejected,
		WebhookOutcomes:     outcomes,
		SyncDurationCount:   atomic.LoadUint64(&m.syncDurationCount),
		SyncDurationTotalNs: atomic.LoadInt64(&m.syncDurationTotalNs),
		UsersDeleted:        atomic.LoadUint64(&m.usersDeleted),
		UserCacheHits:       atomic.LoadUint64(&m.userCacheHits),
		UserCacheMisses:     atomic.LoadUint64(&m.userCacheMisses),
	}
}

// IncWebhookReceived increments the received counter.
func (m *InMemoryRecorder) IncWebhookReceived() {
	atomic.AddUint64(&m.webhooksReceived, 1)
}

// IncWebhookRejected increments the rejection counter for a reason.
func (m *InMemoryRecorder) IncWebhookRejected(reason string) {
	m.mu.Lock()
	m.rejected[reason]++
	m.mu.Unlock()
}

// IncWebhookOutcome increments the outcome counter.
func (m *InMemoryRecorder) IncWebhookOutcome(outcome string) {
	m.mu.Lock()
	m.outcomes[outcome]++
	m.mu.Unlock()
}

// ObserveSyncDuration records a sync duration.
func (m *InMemoryRecorder) ObserveSyncDuration(duration time.Duration) {
	atomic.AddUint64(&m.syncDurationCount, 1)
	atomic.AddInt64(&m.syncDurationTotalNs, duration.Nanoseconds())
}

// IncUserDeleted increments the deletion counter.
func (m *InMemoryRecorder) IncUserDeleted() {
	atomic.AddUint64(&m.usersDeleted, 1)
}

// IncUserCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncUserCacheHit() {
	atomic.AddUint64(&m.userCacheHits, 1)
}

// IncUserCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncUserCacheMiss() {
	atomic.AddUint64(&m.userCacheMisses, 1)
}
