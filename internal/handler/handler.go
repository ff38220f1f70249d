// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/beanbook/beanbook/internal/auth"
	"github.com/beanbook/beanbook/internal/handler/dto"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/service"
)

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// decodeJSON reads a single JSON object from the body. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must contain a single JSON object")
		return false
	}
	return true
}

// session returns the caller's session. RequireSession guarantees it on
// authenticated routes; a missing one is answered with 401.
func session(w http.ResponseWriter, r *http.Request) (*model.AuthContext, bool) {
	s := auth.AuthFromContext(r.Context())
	if s == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing session")
		return nil, false
	}
	return s, true
}

// listInput reads ?cursor= and ?limit=. Out-of-range limits are clamped by the store.
func listInput(r *http.Request) service.ListInput {
	query := r.URL.Query()
	input := service.ListInput{Cursor: query.Get("cursor")}
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			input.Limit = parsed
		}
	}
	return input
}

// serviceError maps service errors to HTTP responses.
func serviceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var invalid *service.ValidationError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: invalid.Error(),
			Code:  "VALIDATION_ERROR",
			Field: invalid.Field,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrSessionRevoked):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing session")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrBrewNotFound):
		writeError(w, http.StatusNotFound, "BREW_NOT_FOUND", "Brew not found")
	case errors.Is(err, service.ErrBagNotFound):
		writeError(w, http.StatusNotFound, "BAG_NOT_FOUND", "Bag not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not allowed to modify this document")
	case errors.Is(err, service.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor")
	case errors.Is(err, service.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "INVALID_RANGE", "Invalid date range")
	case errors.Is(err, service.ErrInvalidImageKind):
		writeError(w, http.StatusBadRequest, "INVALID_IMAGE_KIND", "Image kind must be brews, bags or avatars")
	case errors.Is(err, service.ErrUnsupportedImage):
		writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_IMAGE", "Only JPEG and PNG images are accepted")
	case errors.Is(err, service.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Image exceeds maximum size")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
