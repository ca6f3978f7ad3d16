// Package main is the entrypoint for the Guardian API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/guardian/guardian/internal/auth"
	"github.com/guardian/guardian/internal/cache"
	"github.com/guardian/guardian/internal/config"
	"github.com/guardian/guardian/internal/directory"
	"github.com/guardian/guardian/internal/mail"
	"github.com/guardian/guardian/internal/metrics"
	"github.com/guardian/guardian/internal/repository"
	"github.com/guardian/guardian/internal/server"
	"github.com/guardian/guardian/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL, cfg.ChildrenCacheTTL)
	if err != nil {
		repo.Close()
		logger.Error("failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	mailer, err := mail.New(ctx, mail.Config{
		Region:     cfg.SESRegion,
		FromEmail:  cfg.SESFromEmail,
		FromName:   cfg.SESFromName,
		AppBaseURL: cfg.AppBaseURL,
	}, logger)
	if err != nil {
		repo.Close()
		_ = cacheClient.Close()
		logger.Error("failed to configure mail", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !mailer.IsEnabled() {
		logger.Warn("mail delivery disabled; invitations are logged only")
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTAudience)
	recorder := metrics.NewInMemory()
	dir := directory.New(repo, mailer, tokens, cfg.InviteTTL, logger)

	deps := routerDeps{
		invitations: service.NewInvitationService(dir, repo, repo, cacheClient, recorder, logger),
		children:    service.NewChildrenService(repo, repo, cacheClient, recorder, logger),
		safety:      service.NewSafetyService(repo, repo, repo, cacheClient, cfg.LowBatteryThreshold, recorder, logger),
		geofences:   service.NewGeofenceService(repo, repo),
		acceptance:  service.NewAcceptanceService(tokens, repo, logger),
		sessions:    tokens,
		limiter:     cacheClient,
		db:          repo,
		cache:       cacheClient,
		metrics:     recorder,
	}

	srv := server.New(newRouter(cfg, deps, logger), server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		slog.Int("port", cfg.AppPort),
		slog.String("env", cfg.AppEnv),
		slog.Bool("mail_enabled", mailer.IsEnabled()),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With(slog.String("service", "guardian-api"))
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	if parsed.User != nil {
		if name := parsed.User.Username(); name != "" {
			parsed.User = url.User(name)
		} else {
			parsed.User = url.User("redacted")
		}
	}
	return parsed.String()
}

// sanitizeError removes connection secrets from a driver error message.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, redactURL(secret))
	}
	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
