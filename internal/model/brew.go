package model

import "time"

// Brew is a user-logged coffee preparation.
// Method, grind size, amounts and brew time are kept as the client formats
// them ("Pourover", "Fine", "18.0g", "30s").
type Brew struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Method       string    `json:"method"`
	CoffeeAmount string    `json:"coffee_amount"`
	WaterAmount  string    `json:"water_amount"`
	BrewTime     string    `json:"brew_time"`
	GrindSize    string    `json:"grind_size"`
	Notes        string    `json:"notes,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatorID    string    `json:"creator_id"`
	CreatorName  string    `json:"creator_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	SaveCount    int       `json:"save_count"`
	BagID        *string   `json:"bag_id,omitempty"`
}

// Snapshot returns the fields of the brew carried on change events.
func (b *Brew) Snapshot() *BrewSnapshot {
	return &BrewSnapshot{
		ID:        b.ID,
		Title:     b.Title,
		CreatorID: b.CreatorID,
		SaveCount: b.SaveCount,
	}
}

// BrewSnapshot is the state of a brew document at one point in time.
type BrewSnapshot struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatorID string `json:"creator_id"`
	SaveCount int    `json:"save_count"`
}

// BrewDayCount is the number of brews a user logged on one calendar day.
type BrewDayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}
