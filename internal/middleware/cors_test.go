package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const appOrigin = "https://app.beanbook.dev"

func corsHandler(origins ...string) http.Handler {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = origins
	return CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantStatus int
		wantHeader string
	}{
		{
			name:       "native app sends no origin",
			origins:    []string{appOrigin},
			method:     http.MethodPost,
			wantStatus: http.StatusOK,
		},
		{
			name:       "web client reads brews",
			origins:    []string{appOrigin},
			origin:     appOrigin,
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantHeader: appOrigin,
		},
		{
			name:       "web client preflight",
			origins:    []string{appOrigin},
			origin:     appOrigin,
			method:     http.MethodOptions,
			wantStatus: http.StatusNoContent,
			wantHeader: appOrigin,
		},
		{
			name:       "unlisted origin preflight is refused",
			origins:    []string{appOrigin},
			origin:     "https://beanbook.evil",
			method:     http.MethodOptions,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unlisted origin simple request gets no grant",
			origins:    []string{appOrigin},
			origin:     "https://beanbook.evil",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty allow list grants nothing",
			origin:     appOrigin,
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "preview deploys match the wildcard",
			origins:    []string{"*.preview.beanbook.dev"},
			origin:     "https://pr-42.preview.beanbook.dev",
			method:     http.MethodOptions,
			wantStatus: http.StatusNoContent,
			wantHeader: "https://pr-42.preview.beanbook.dev",
		},
		{
			name:       "configured origin is matched case-insensitively",
			origins:    []string{" HTTPS://APP.BEANBOOK.DEV "},
			origin:     appOrigin,
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantHeader: appOrigin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/brews", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()

			corsHandler(tt.origins...).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSPreflightAllowsSessionHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/profile", nil)
	req.Header.Set("Origin", appOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()

	corsHandler(appOrigin).ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestCORSExposesRateLimitHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/brews", nil)
	req.Header.Set("Origin", appOrigin)
	rec := httptest.NewRecorder()

	corsHandler(appOrigin).ServeHTTP(rec, req)

	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	for _, h := range []string{"X-RateLimit-Remaining", "Retry-After", "X-Request-ID"} {
		if !strings.Contains(exposed, h) {
			t.Errorf("Expose-Headers %q missing %s", exposed, h)
		}
	}
}

// AllowsOrigin is what the websocket upgrader consults on /listen.
func TestCORSConfig_AllowsOrigin(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{appOrigin, "*.preview.beanbook.dev"}

	cases := map[string]bool{
		appOrigin:                            true,
		"HTTPS://APP.BEANBOOK.DEV":           true,
		"https://pr-7.preview.beanbook.dev":  true,
		"https://preview.beanbook.dev":       false,
		"https://evilpreview.beanbook.dev":   false,
		"https://app.beanbook.dev.evil":      false,
		"https://app.beanbook.dev:8443":      false,
		"http://app.beanbook.dev":            false,
		"https://x.preview.beanbook.dev/ws":  false,
		"https://a:b@x.preview.beanbook.dev": false,
		"null":                               false,
	}
	for origin, want := range cases {
		assert.Equal(t, want, cfg.AllowsOrigin(origin), "AllowsOrigin(%q)", origin)
	}

	assert.False(t, DefaultCORSConfig().AllowsOrigin(appOrigin), "default config allows no browser origin")
}
