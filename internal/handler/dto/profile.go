package dto

import (
	"time"

	"github.com/beanbook/beanbook/internal/model"
)

// UpdateProfileRequest is a merge write. Absent fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	PhotoURL    *string `json:"photo_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

// PushTokenRequest registers or clears the device push token.
type PushTokenRequest struct {
	Token string `json:"token"`
}

// RemindersRequest toggles the daily reminder.
type RemindersRequest struct {
	Enabled *bool `json:"enabled"`
}

// ProfileResponse is a user profile.
type ProfileResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"display_name"`
	PhotoURL         string     `json:"photo_url"`
	Bio              string     `json:"bio"`
	Favorites        []string   `json:"favorites"`
	RemindersEnabled bool       `json:"reminders_enabled"`
	HasPushToken     bool       `json:"has_push_token"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// ToProfileResponse converts a User model.
func ToProfileResponse(u *model.User) *ProfileResponse {
	favorites := u.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return &ProfileResponse{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		PhotoURL:         u.PhotoURL,
		Bio:              u.Bio,
		Favorites:        favorites,
		RemindersEnabled: u.RemindersEnabled,
		HasPushToken:     u.HasPushToken(),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// FavoriteResponse reports whether a brew is in the caller's favorites.
type FavoriteResponse struct {
	BrewID     string `json:"brew_id"`
	IsFavorite bool   `json:"is_favorite"`
}

// CalendarResponse lists brew counts per day.
type CalendarResponse struct {
	From time.Time            `json:"from"`
	To   time.Time            `json:"to"`
	Days []model.BrewDayCount `json:"days"`
}
