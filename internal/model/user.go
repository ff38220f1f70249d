// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// User is a profile document. One exists per account, keyed by the account ID.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"display_name"`
	PhotoURL         string     `json:"photo_url"`
	Bio              string     `json:"bio"`
	Favorites        []string   `json:"favorites"`
	PushToken        *string    `json:"-"`
	RemindersEnabled bool       `json:"reminders_enabled"`
	IsDeleted        bool       `json:"-"`
	PasswordHash     string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// HasFavorite reports whether brewID is in the user's favorites list.
func (u *User) HasFavorite(brewID string) bool {
	return slices.Contains(u.Favorites, brewID)
}

// HasPushToken reports whether the user registered a device for push delivery.
func (u *User) HasPushToken() bool {
	return u.PushToken != nil && *u.PushToken != ""
}

// AuthContext is the authenticated session attached to a request.
type AuthContext struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// Session is returned on sign-up and sign-in.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
