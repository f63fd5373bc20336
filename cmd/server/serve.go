package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hongminglow/jobportal-be/internal/auth"
	"github.com/hongminglow/jobportal-be/internal/cache"
	"github.com/hongminglow/jobportal-be/internal/config"
	"github.com/hongminglow/jobportal-be/internal/jobs"
	"github.com/hongminglow/jobportal-be/internal/logging"
	"github.com/hongminglow/jobportal-be/internal/notify"
	"github.com/hongminglow/jobportal-be/internal/server"
	"github.com/hongminglow/jobportal-be/internal/storage"
	"github.com/hongminglow/jobportal-be/internal/storage/memory"
	"github.com/hongminglow/jobportal-be/internal/storage/postgres"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var listCache jobs.ListCache
	if cfg.RedisURL != "" {
		rc, err := cache.Open(ctx, cfg.RedisURL, cfg.JobsCacheTTL, logger)
		if err != nil {
			logging.Err(logger.Warn(), err).Msg("jobs cache disabled")
		} else {
			defer rc.Close()
			listCache = rc
		}
	}

	var notifier auth.ResetNotifier = notify.NewLogNotifier(logger)
	if cfg.MailEnabled() {
		notifier = notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, cfg.ResetURLBase, logger)
	}

	authSvc := auth.NewService(
		auth.NewCredentials(store, auth.NewBcryptHasher()),
		auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		auth.NewResetTokens(store, cfg.ResetTokenTTL),
		notifier,
		logger,
	)
	jobSvc := jobs.NewService(store, listCache, logger)

	go auth.NewResetCleaner(store, cfg.ResetCleanupInterval, logger).Run(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(cfg, server.Deps{
		Auth:     authSvc,
		Jobs:     jobSvc,
		Health:   store,
		Registry: registry,
		Logger:   logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("storage", cfg.StorageDriver).Msg("jobportal backend listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVER_FAILED").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logging.Err(logger.Error(), err).Msg("graceful shutdown error")
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (storage.Store, error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return memory.New(), nil
	}

	pg, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBConnectRetries, logger)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	if err := pg.Migrate(ctx, postgres.MigrateUp); err != nil {
		pg.Close()
		return nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return pg, nil
}
