package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbook/beanbook/internal/auth"
	"github.com/beanbook/beanbook/internal/handler/dto"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withSession attaches a signed-in user to the request.
func withSession(r *http.Request, userID string) *http.Request {
	ctx := auth.ContextWithAuth(r.Context(), &model.AuthContext{
		UserID:    userID,
		TokenID:   "tok-" + userID,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	return r.WithContext(ctx)
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/brews", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, rec).Code)
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{service.ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL"},
		{service.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
		{service.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{service.ErrSessionRevoked, http.StatusUnauthorized, "UNAUTHORIZED"},
		{service.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{service.ErrBrewNotFound, http.StatusNotFound, "BREW_NOT_FOUND"},
		{service.ErrBagNotFound, http.StatusNotFound, "BAG_NOT_FOUND"},
		{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{service.ErrInvalidCursor, http.StatusBadRequest, "INVALID_CURSOR"},
		{service.ErrInvalidRange, http.StatusBadRequest, "INVALID_RANGE"},
		{service.ErrInvalidImageKind, http.StatusBadRequest, "INVALID_IMAGE_KIND"},
		{service.ErrUnsupportedImage, http.StatusUnsupportedMediaType, "UNSUPPORTED_IMAGE"},
		{service.ErrImageTooLarge, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{fmt.Errorf("wrapped: %w", service.ErrBrewNotFound), http.StatusNotFound, "BREW_NOT_FOUND"},
		{errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode+"/"+tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			serviceError(rec, discardLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotContains(t, resp.Error, "db exploded")
		})
	}
}

func TestServiceError_Validation(t *testing.T) {
	rec := httptest.NewRecorder()
	serviceError(rec, discardLogger(), &service.ValidationError{Field: "title", Message: "is required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Equal(t, "title", resp.Field)
	assert.Equal(t, "title: is required", resp.Error)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
	}{
		{"valid", `{"email":"a@b.co","password":"x"}`, true, http.StatusOK},
		{"malformed", `{"email":`, false, http.StatusBadRequest},
		{"unknown field", `{"email":"a@b.co","admin":true}`, false, http.StatusBadRequest},
		{"trailing object", `{"email":"a@b.co"}{"email":"c@d.co"}`, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var dst dto.SignInRequest
			ok := decodeJSON(rec, req, &dst)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"`+strings.Repeat("a", 100)+`"}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 10)

	var dst dto.SignInRequest
	assert.False(t, decodeJSON(rec, req, &dst))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestListInput(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?cursor=abc&limit=50", nil)
	assert.Equal(t, service.ListInput{Cursor: "abc", Limit: 50}, listInput(req))

	req = httptest.NewRequest(http.MethodGet, "/?limit=-3", nil)
	assert.Equal(t, service.ListInput{}, listInput(req))

	req = httptest.NewRequest(http.MethodGet, "/?limit=lots", nil)
	assert.Equal(t, service.ListInput{}, listInput(req))
}

func TestSessionRequired(t *testing.T) {
	h := NewProfileHandler(&fakeProfiles{}, &fakeBrews{}, &fakeBags{}, discardLogger())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
}
