package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	HTTPRequests        uint64
	BrewsCreated        uint64
	BrewsDeleted        uint64
	BagsCreated         uint64
	FavoritesAdded      uint64
	FavoritesRemoved    uint64
	ImagesUploaded      uint64
	CreatorCacheHits    uint64
	CreatorCacheMisses  uint64
	EventsPublished     map[string]uint64
	EventsProcessed     map[string]uint64
	EventQueueDepth     int64
	Notifications       map[string]uint64 // keyed "<kind>:<status>"
	RealtimeSubscribers int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	httpRequests        uint64
	brewsCreated        uint64
	brewsDeleted        uint64
	bagsCreated         uint64
	favoritesAdded      uint64
	favoritesRemoved    uint64
	imagesUploaded      uint64
	creatorCacheHits    uint64
	creatorCacheMisses  uint64
	eventQueueDepth     int64
	realtimeSubscribers int64

	mu              sync.Mutex
	eventsPublished map[string]uint64
	eventsProcessed map[string]uint64
	notifications   map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		eventsPublished: make(map[string]uint64),
		eventsProcessed: make(map[string]uint64),
		notifications:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		HTTPRequests:        atomic.LoadUint64(&m.httpRequests),
		BrewsCreated:        atomic.LoadUint64(&m.brewsCreated),
		BrewsDeleted:        atomic.LoadUint64(&m.brewsDeleted),
		BagsCreated:         atomic.LoadUint64(&m.bagsCreated),
		FavoritesAdded:      atomic.LoadUint64(&m.favoritesAdded),
		FavoritesRemoved:    atomic.LoadUint64(&m.favoritesRemoved),
		ImagesUploaded:      atomic.LoadUint64(&m.imagesUploaded),
		CreatorCacheHits:    atomic.LoadUint64(&m.creatorCacheHits),
		CreatorCacheMisses:  atomic.LoadUint64(&m.creatorCacheMisses),
		EventsPublished:     copyCounts(m.eventsPublished),
		EventsProcessed:     copyCounts(m.eventsProcessed),
		EventQueueDepth:     atomic.LoadInt64(&m.eventQueueDepth),
		Notifications:       copyCounts(m.notifications),
		RealtimeSubscribers: atomic.LoadInt64(&m.realtimeSubscribers),
	}
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *InMemoryRecorder) incLabel(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

// ObserveHTTPRequest counts a served request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
}

// IncBrewCreated increments the brew created counter.
func (m *InMemoryRecorder) IncBrewCreated() {
	atomic.AddUint64(&m.brewsCreated, 1)
}

// IncBrewDeleted increments the brew deleted counter.
func (m *InMemoryRecorder) IncBrewDeleted() {
	atomic.AddUint64(&m.brewsDeleted, 1)
}

// IncBagCreated increments the bag created counter.
func (m *InMemoryRecorder) IncBagCreated() {
	atomic.AddUint64(&m.bagsCreated, 1)
}

// IncFavoriteToggled counts favorite additions and removals separately.
func (m *InMemoryRecorder) IncFavoriteToggled(added bool) {
	if added {
		atomic.AddUint64(&m.favoritesAdded, 1)
		return
	}
	atomic.AddUint64(&m.favoritesRemoved, 1)
}

// IncImageUploaded increments the upload counter.
func (m *InMemoryRecorder) IncImageUploaded(kind string) {
	atomic.AddUint64(&m.imagesUploaded, 1)
}

// IncCreatorCacheHit increments the creator-name cache hit counter.
func (m *InMemoryRecorder) IncCreatorCacheHit() {
	atomic.AddUint64(&m.creatorCacheHits, 1)
}

// IncCreatorCacheMiss increments the creator-name cache miss counter.
func (m *InMemoryRecorder) IncCreatorCacheMiss() {
	atomic.AddUint64(&m.creatorCacheMisses, 1)
}

// IncEventPublished counts change-feed publishes by status.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	m.incLabel(m.eventsPublished, status)
}

// IncEventProcessed counts change-feed deliveries by status.
func (m *InMemoryRecorder) IncEventProcessed(status string) {
	m.incLabel(m.eventsProcessed, status)
}

// SetEventQueueDepth records the pending message count.
func (m *InMemoryRecorder) SetEventQueueDepth(depth int64) {
	atomic.StoreInt64(&m.eventQueueDepth, depth)
}

// IncNotification counts push notifications by kind and outcome.
func (m *InMemoryRecorder) IncNotification(kind, status string) {
	m.incLabel(m.notifications, kind+":"+status)
}

// AddRealtimeSubscribers adjusts the live subscription gauge.
func (m *InMemoryRecorder) AddRealtimeSubscribers(delta int) {
	atomic.AddInt64(&m.realtimeSubscribers, int64(delta))
}
