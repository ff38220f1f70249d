package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/beanbook/beanbook/internal/handler/dto"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/service"
)

// Accounts is the account surface the auth routes need.
type Accounts interface {
	SignUp(ctx context.Context, input service.SignUpInput) (*model.Session, *model.User, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context, session *model.AuthContext) error
}

// AuthHandler handles sign-up, sign-in and sign-out.
type AuthHandler struct {
	accounts Accounts
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts Accounts, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger.With("component", "handler.auth"),
	}
}

// SignUp handles POST /api/v1/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, user, err := h.accounts.SignUp(r.Context(), service.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToSessionResponse(sess, user))
}

// SignIn handles POST /api/v1/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSessionResponse(sess, nil))
}

// SignOut handles POST /api/v1/auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	if err := h.accounts.SignOut(r.Context(), s); err != nil {
		serviceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/v1/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dto.CurrentSessionResponse{
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
	})
}
