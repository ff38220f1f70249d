package model

import "time"

// Collections that emit change notices.
const (
	CollectionUsers = "users"
	CollectionBrews = "brews"
	CollectionBags  = "bags"
)

// Change announces that a document in a collection was written.
// OwnerID is the creator/owner of the document, or the user ID for profiles.
type Change struct {
	Collection string `json:"c"`
	DocumentID string `json:"id"`
	OwnerID    string `json:"o,omitempty"`
}

// BrewUpdate is the before/after pair of one write to a brew document.
type BrewUpdate struct {
	Before     *BrewSnapshot `json:"before"`
	After      *BrewSnapshot `json:"after"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// BrewID returns the ID of the brew the event is about.
func (u BrewUpdate) BrewID() string {
	if u.After != nil {
		return u.After.ID
	}
	if u.Before != nil {
		return u.Before.ID
	}
	return ""
}
