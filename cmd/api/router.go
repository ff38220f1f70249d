package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/beanbook/beanbook/internal/cache"
	"github.com/beanbook/beanbook/internal/config"
	"github.com/beanbook/beanbook/internal/handler"
	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/middleware"
	"github.com/beanbook/beanbook/internal/storage"
)

// uploadOverhead is the room a multipart envelope needs around the image.
const uploadOverhead = 1 << 20

// routerDeps are the components the HTTP surface is built from.
type routerDeps struct {
	cfg        *config.Config
	logger     *slog.Logger
	recorder   *metrics.PrometheusRecorder
	repo       handler.HealthChecker
	cache      *cache.Cache
	localFiles *storage.LocalStore

	auth interface {
		handler.Accounts
		middleware.Authenticator
	}
	profiles handler.Profiles
	brews    handler.Brews
	bags     handler.Bags
	images   handler.Images
	hub      handler.Hub
}

// newRouter configures the chi router with all routes and middleware.
func newRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Metrics(d.recorder))
	r.Use(middleware.Recoverer(d.logger, d.cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))
	r.Use(middleware.CORS(cors))

	health := handler.NewHealthHandler(map[string]handler.HealthChecker{
		"postgres": d.repo,
		"redis":    d.cache,
	})
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Get("/metrics", handler.NewMetricsHandler(d.recorder.Handler()).Metrics)

	if d.localFiles != nil {
		r.Handle(localFilesPath+"/*", http.StripPrefix(localFilesPath, d.localFiles.Handler()))
	}

	rateLimit := middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.cache,
		Enabled: d.cfg.RateLimitEnabled,
		User:    cache.PerMinute(d.cfg.RateLimitUserPerMinute, d.cfg.RateLimitUserBurst),
		IP:      cache.PerMinute(d.cfg.RateLimitIPPerMinute, d.cfg.RateLimitIPBurst),
	}
	jsonBody := middleware.MaxBodySize(d.cfg.MaxRequestBodySize)

	authHandler := handler.NewAuthHandler(d.auth, d.logger)
	profileHandler := handler.NewProfileHandler(d.profiles, d.brews, d.bags, d.logger)
	brewHandler := handler.NewBrewHandler(d.brews, d.profiles, d.logger)
	bagHandler := handler.NewBagHandler(d.bags, d.logger)
	imageHandler := handler.NewImageHandler(d.images, d.logger)
	listenHandler := handler.NewListenHandler(d.hub, cors.AllowsOrigin, d.logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Anonymous, limited per client address
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(rateLimit))
			r.Use(jsonBody)
			r.Post("/auth/signup", authHandler.SignUp)
			r.Post("/auth/signin", authHandler.SignIn)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(d.auth, d.logger))
			r.Use(middleware.RateLimitUser(rateLimit))

			r.Get("/listen", listenHandler.Listen)
			r.With(middleware.MaxBodySize(d.cfg.MaxImageSize+uploadOverhead)).Post("/images", imageHandler.Upload)

			r.Group(func(r chi.Router) {
				r.Use(jsonBody)

				r.Post("/auth/signout", authHandler.SignOut)
				r.Get("/auth/session", authHandler.Session)

				r.Route("/me", func(r chi.Router) {
					r.Get("/", profileHandler.Get)
					r.Put("/", profileHandler.Update)
					r.Delete("/", profileHandler.Delete)
					r.Put("/push-token", profileHandler.SetPushToken)
					r.Put("/reminders", profileHandler.SetReminders)
					r.Get("/favorites", profileHandler.Favorites)
					r.Get("/brews", profileHandler.Brews)
					r.Get("/bags", profileHandler.Bags)
					r.Get("/calendar", profileHandler.Calendar)
				})

				r.Get("/users/{id}/brews", profileHandler.UserBrews)

				r.Route("/brews", func(r chi.Router) {
					r.Get("/", brewHandler.List)
					r.Post("/", brewHandler.Create)
					r.Get("/{id}", brewHandler.Get)
					r.Put("/{id}", brewHandler.Update)
					r.Delete("/{id}", brewHandler.Delete)
					r.Get("/{id}/favorite", brewHandler.IsFavorite)
					r.Post("/{id}/favorite", brewHandler.ToggleFavorite)
				})

				r.Route("/bags", func(r chi.Router) {
					r.Get("/", bagHandler.List)
					r.Post("/", bagHandler.Create)
					r.Get("/{id}", bagHandler.Get)
					r.Put("/{id}", bagHandler.Update)
					r.Delete("/{id}", bagHandler.Delete)
				})

				r.Get("/avatars", imageHandler.Avatars)
			})
		})
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
