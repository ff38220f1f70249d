package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}

func (n *NoopRecorder) IncBrewCreated() {}

func (n *NoopRecorder) IncBrewDeleted() {}

func (n *NoopRecorder) IncBagCreated() {}

func (n *NoopRecorder) IncFavoriteToggled(added bool) {}

func (n *NoopRecorder) IncImageUploaded(kind string) {}

func (n *NoopRecorder) IncCreatorCacheHit() {}

func (n *NoopRecorder) IncCreatorCacheMiss() {}

func (n *NoopRecorder) IncEventPublished(status string) {}

func (n *NoopRecorder) IncEventProcessed(status string) {}

func (n *NoopRecorder) SetEventQueueDepth(depth int64) {}

func (n *NoopRecorder) IncNotification(kind, status string) {}

func (n *NoopRecorder) AddRealtimeSubscribers(delta int) {}
