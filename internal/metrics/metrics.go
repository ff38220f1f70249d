// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Event and notification outcomes.
const (
	StatusSuccess = "success"
	StatusDropped = "dropped"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Notification kinds.
const (
	NotificationFavorite = "favorite"
	NotificationReminder = "reminder"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// HTTP
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)

	// Journal writes
	IncBrewCreated()
	IncBrewDeleted()
	IncBagCreated()
	IncFavoriteToggled(added bool)
	IncImageUploaded(kind string)

	// Creator-name cache
	IncCreatorCacheHit()
	IncCreatorCacheMiss()

	// Change feed
	IncEventPublished(status string)
	IncEventProcessed(status string)
	SetEventQueueDepth(depth int64)

	// Push delivery
	IncNotification(kind, status string)

	// Live listeners
	AddRealtimeSubscribers(delta int)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
