// Package main is the entrypoint for the BeanBook API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/beanbook/beanbook/internal/auth"
	"github.com/beanbook/beanbook/internal/cache"
	"github.com/beanbook/beanbook/internal/config"
	"github.com/beanbook/beanbook/internal/events"
	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/notify"
	"github.com/beanbook/beanbook/internal/realtime"
	"github.com/beanbook/beanbook/internal/repository"
	"github.com/beanbook/beanbook/internal/server"
	"github.com/beanbook/beanbook/internal/service"
	"github.com/beanbook/beanbook/internal/storage"
	"github.com/beanbook/beanbook/migrations"
)

// localFilesPath is where the local storage backend serves objects.
const localFilesPath = "/files"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			return errors.New("migrations failed")
		}
		logger.Info("database schema is current")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New("database unavailable")
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return errors.New("redis unavailable")
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewPrometheus()

	objects, localFiles, err := newObjectStore(cfg)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		return err
	}
	hasher := auth.NewPasswordHasher(auth.DefaultHashParams)

	// Services
	publisher := events.NewPublisher(cacheClient.Client(), logger, recorder)
	authService, err := service.NewAuthService(repo, cacheClient, hasher, tokens, logger)
	if err != nil {
		return err
	}
	names := service.NewCreatorNames(repo, cacheClient, logger, recorder)
	bagService := service.NewBagService(repo, names, cacheClient, logger, recorder)
	brewService := service.NewBrewService(repo, repo, bagService, names, publisher, cacheClient, logger, recorder)
	profileService := service.NewProfileService(repo, repo, brewService, cacheClient, cacheClient, authService, logger, recorder)
	imageService := service.NewImageService(objects, cfg.MaxImageSize, logger, recorder)

	hub := realtime.NewHub(service.NewSnapshotLoader(brewService, bagService, profileService), logger, recorder)

	srv := server.New(
		newRouter(routerDeps{
			cfg:        cfg,
			logger:     logger,
			recorder:   recorder,
			repo:       repo,
			cache:      cacheClient,
			localFiles: localFiles,
			auth:       authService,
			profiles:   profileService,
			brews:      brewService,
			bags:       bagService,
			images:     imageService,
			hub:        hub,
		}),
		server.Config{
			Port:            cfg.AppPort,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
		logger,
	)

	// Background components. Registered first, stopped last.
	sender := newSender(cfg, logger)

	if cfg.EventWorkerEnabled {
		trigger := notify.NewTrigger(repo, sender, logger, recorder)
		worker := events.NewWorker(cacheClient.Client(), trigger.HandleEvent, logger, events.NewConsumerID(), recorder)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("event worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("event-worker", worker.Shutdown)
	}

	if cfg.ReminderEnabled {
		loc, err := cfg.ReminderLocation()
		if err != nil {
			return err
		}
		reminder, err := notify.NewReminder(repo, sender, logger, recorder, cfg.ReminderSchedule, loc)
		if err != nil {
			return err
		}
		reminder.Start()
		srv.OnShutdown("reminder", reminder.Shutdown)
	}

	changes, err := cacheClient.SubscribeChanges(ctx)
	if err != nil {
		return err
	}
	go hub.Listen(ctx, changes, cache.DecodeChange)
	srv.OnShutdown("change-subscription", func(ctx context.Context) error {
		return changes.Close()
	})
	srv.OnDrain(func() {
		_ = hub.Shutdown(context.Background())
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"storage", cfg.StorageBackend,
		"push", cfg.PushDriver,
	)

	return srv.Run(ctx)
}

// newObjectStore picks the image storage backend. The local backend also
// returns the handler that serves its files.
func newObjectStore(cfg *config.Config) (storage.Store, *storage.LocalStore, error) {
	switch cfg.StorageBackend {
	case config.StorageAzure:
		store, err := storage.NewAzure(cfg.AzureStorageAccount, cfg.AzureStorageContainer)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		base := strings.TrimRight(cfg.PublicBaseURL, "/") + localFilesPath
		store, err := storage.NewLocal(cfg.StorageLocalDir, base)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
}

// newSender picks the push delivery driver.
func newSender(cfg *config.Config, logger *slog.Logger) notify.Sender {
	if cfg.PushDriver == config.PushLog {
		return notify.NewLogSender(logger)
	}
	return notify.NewExpoSender(notify.NewHTTPClient(), cfg.ExpoPushURL, cfg.ExpoAccessToken, cfg.PushRPS)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
