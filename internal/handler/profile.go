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

// defaultCalendarDays is the window served when no range is given.
const defaultCalendarDays = 30

// Profiles is the profile surface the /me routes need.
type Profiles interface {
	FetchProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, input service.ProfileInput) (*model.User, error)
	DeleteAccount(ctx context.Context, session *model.AuthContext) error
	SetPushToken(ctx context.Context, userID, token string) error
	SetReminders(ctx context.Context, userID string, enabled bool) error
	IsFavorite(ctx context.Context, userID, brewID string) (bool, error)
	ToggleFavorite(ctx context.Context, userID, brewID string) (bool, error)
}

// ProfileHandler handles the signed-in user's profile and personal lists.
type ProfileHandler struct {
	profiles Profiles
	brews    Brews
	bags     Bags
	logger   *slog.Logger
	now      func() time.Time
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles Profiles, brews Brews, bags Bags, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		brews:    brews,
		bags:     bags,
		logger:   logger.With("component", "handler.profile"),
		now:      time.Now,
	}
}

// Get handles GET /api/v1/me.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	user, err := h.profiles.FetchProfile(r.Context(), s.UserID)
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToProfileResponse(user))
}

// Update handles PUT /api/v1/me.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), s.UserID, service.ProfileInput{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Bio:         req.Bio,
	})
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToProfileResponse(user))
}

// Delete handles DELETE /api/v1/me.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	if err := h.profiles.DeleteAccount(r.Context(), s); err != nil {
		serviceError(w, h.logger, err)
		return
	}

	h.logger.Info("account_deleted", "user_id", s.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// SetPushToken handles PUT /api/v1/me/push-token. An empty token clears it.
func (h *ProfileHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req dto.PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.profiles.SetPushToken(r.Context(), s.UserID, req.Token); err != nil {
		serviceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetReminders handles PUT /api/v1/me/reminders.
func (h *ProfileHandler) SetReminders(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req dto.RemindersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "enabled is required",
			Code:  "VALIDATION_ERROR",
			Field: "enabled",
		})
		return
	}

	if err := h.profiles.SetReminders(r.Context(), s.UserID, *req.Enabled); err != nil {
		serviceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Favorites handles GET /api/v1/me/favorites.
func (h *ProfileHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	brews, err := h.brews.FetchUserFavorites(r.Context(), s.UserID)
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewList(dto.ToBrewResponses(brews)))
}

// Brews handles GET /api/v1/me/brews.
func (h *ProfileHandler) Brews(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}
	h.userBrews(w, r, s.UserID)
}

// UserBrews handles GET /api/v1/users/{id}/brews.
func (h *ProfileHandler) UserBrews(w http.ResponseWriter, r *http.Request) {
	h.userBrews(w, r, chi.URLParam(r, "id"))
}

func (h *ProfileHandler) userBrews(w http.ResponseWriter, r *http.Request, userID string) {
	page, err := h.brews.FetchUserBrews(r.Context(), userID, listInput(r))
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPage(dto.ToBrewResponses(page.Items), page.NextCursor))
}

// Bags handles GET /api/v1/me/bags.
func (h *ProfileHandler) Bags(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	page, err := h.bags.ListBags(r.Context(), s.UserID, listInput(r))
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPage(dto.ToBagResponses(page.Items), page.NextCursor))
}

// Calendar handles GET /api/v1/me/calendar?from=2024-01-01&to=2024-01-31.
// Dates are UTC days and both ends are inclusive. RFC 3339 timestamps are
// also accepted and used as given. Without a range the last 30 days are served.
func (h *ProfileHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	to := h.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	if v := query.Get("to"); v != "" {
		t, err := parseCalendarBound(v, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_RANGE", "to must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			return
		}
		to = t
	}
	from := to.AddDate(0, 0, -defaultCalendarDays)
	if v := query.Get("from"); v != "" {
		t, err := parseCalendarBound(v, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_RANGE", "from must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			return
		}
		from = t
	}

	days, err := h.brews.Calendar(r.Context(), s.UserID, from, to)
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CalendarResponse{From: from, To: to, Days: days})
}

// parseCalendarBound reads a date or timestamp. An end date covers its whole day.
func parseCalendarBound(v string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		if end {
			t = t.Add(24 * time.Hour)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
