package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/beanbook/beanbook/internal/auth"
	"github.com/beanbook/beanbook/internal/model"
)

type fakeAuthenticator struct {
	valid map[string]string
	err   error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*model.AuthContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	userID, ok := f.valid[token]
	if !ok {
		return nil, auth.ErrTokenInvalid
	}
	return &model.AuthContext{UserID: userID, TokenID: "jti-" + token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireSession(t *testing.T) {
	authenticator := &fakeAuthenticator{valid: map[string]string{"good": "user-1"}}

	handler := RequireSession(authenticator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, auth.UserIDFromContext(r.Context()))
	}))

	tests := []struct {
		name       string
		header     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"bearer header", "Bearer good", "/api/v1/me", http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer good", "/api/v1/me", http.StatusOK, "user-1"},
		{"query token", "", "/api/v1/listen?token=good", http.StatusOK, "user-1"},
		{"missing token", "", "/api/v1/me", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic good", "/api/v1/me", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid token", "Bearer bad", "/api/v1/me", http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireSession_SameMessageForAllFailures(t *testing.T) {
	authenticator := &fakeAuthenticator{err: auth.ErrTokenExpired}
	handler := RequireSession(authenticator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	expired := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	handler.ServeHTTP(expired, req)

	missing := httptest.NewRecorder()
	handler.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	if expired.Body.String() != missing.Body.String() {
		t.Errorf("responses differ: %q vs %q", expired.Body.String(), missing.Body.String())
	}
}
