package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/beanbook/beanbook/internal/handler/dto"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/service"
)

// Brews is the brew surface the HTTP layer needs.
type Brews interface {
	FetchBrews(ctx context.Context, input service.ListInput) (*service.Page[*model.Brew], error)
	FetchUserBrews(ctx context.Context, userID string, input service.ListInput) (*service.Page[*model.Brew], error)
	FetchUserFavorites(ctx context.Context, userID string) ([]*model.Brew, error)
	GetBrew(ctx context.Context, id string) (*model.Brew, error)
	AddBrew(ctx context.Context, userID string, input service.BrewInput) (*model.Brew, error)
	UpdateBrew(ctx context.Context, userID, id string, input service.BrewInput) (*model.Brew, error)
	DeleteBrew(ctx context.Context, userID, id string) error
	Calendar(ctx context.Context, userID string, from, to time.Time) ([]model.BrewDayCount, error)
}

// BrewHandler handles HTTP requests for brew operations.
type BrewHandler struct {
	brews    Brews
	profiles Profiles
	logger   *slog.Logger
}

// NewBrewHandler creates a new BrewHandler.
func NewBrewHandler(brews Brews, profiles Profiles, logger *slog.Logger) *BrewHandler {
	return &BrewHandler{
		brews:    brews,
		profiles: profiles,
		logger:   logger.With("component", "handler.brew"),
	}
}

// List handles GET /api/v1/brews.
func (h *BrewHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.brews.FetchBrews(r.Context(), listInput(r))
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPage(dto.ToBrewResponses(page.Items), page.NextCursor))
}

// Create handles POST /api/v1/brews.
func (h *BrewHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req dto.BrewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	brew, err := h.brews.AddBrew(r.Context(), s.UserID, req.ToInput())
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}

	h.logger.Info("brew_created",
		"brew_id", brew.ID,
		"user_id", s.UserID,
		"with_new_bag", req.NewBag != nil,
	)
	writeJSON(w, http.StatusCreated, dto.ToBrewResponse(brew))
}

// Get handles GET /api/v1/brews/{id}.
func (h *BrewHandler) Get(w http.ResponseWriter, r *http.Request) {
	brew, err := h.brews.GetBrew(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToBrewResponse(brew))
}

// Update handles PUT /api/v1/brews/{id}.
func (h *BrewHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req dto.BrewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	brew, err := h.brews.UpdateBrew(r.Context(), s.UserID, chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToBrewResponse(brew))
}

// Delete handles DELETE /api/v1/brews/{id}.
func (h *BrewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.brews.DeleteBrew(r.Context(), s.UserID, id); err != nil {
		serviceError(w, h.logger, err)
		return
	}

	h.logger.Info("brew_deleted", "brew_id", id, "user_id", s.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// IsFavorite handles GET /api/v1/brews/{id}/favorite.
func (h *BrewHandler) IsFavorite(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	fav, err := h.profiles.IsFavorite(r.Context(), s.UserID, id)
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FavoriteResponse{BrewID: id, IsFavorite: fav})
}

// ToggleFavorite handles POST /api/v1/brews/{id}/favorite.
func (h *BrewHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	fav, err := h.profiles.ToggleFavorite(r.Context(), s.UserID, id)
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FavoriteResponse{BrewID: id, IsFavorite: fav})
}
