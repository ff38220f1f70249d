package dto

import (
	"time"

	"github.com/beanbook/beanbook/internal/model"
)

// SignUpRequest is the body of POST /api/v1/auth/signup.
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// SignInRequest is the body of POST /api/v1/auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse carries a session token.
type SessionResponse struct {
	Token     string           `json:"token"`
	UserID    string           `json:"user_id"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *ProfileResponse `json:"user,omitempty"`
}

// ToSessionResponse converts a session and optional profile.
func ToSessionResponse(session *model.Session, user *model.User) *SessionResponse {
	resp := &SessionResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}
	if user != nil {
		resp.User = ToProfileResponse(user)
	}
	return resp
}

// CurrentSessionResponse describes the caller's session.
type CurrentSessionResponse struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
