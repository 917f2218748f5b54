package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/simple-event-calendar/server/internal/api"
	"github.com/simple-event-calendar/server/internal/api/handlers"
	"github.com/simple-event-calendar/server/internal/api/middleware"
	"github.com/simple-event-calendar/server/internal/audit"
	"github.com/simple-event-calendar/server/internal/auth"
	"github.com/simple-event-calendar/server/internal/config"
	"github.com/simple-event-calendar/server/internal/domain/events"
	"github.com/simple-event-calendar/server/internal/domain/users"
	"github.com/simple-event-calendar/server/internal/email"
	"github.com/simple-event-calendar/server/internal/metrics"
	"github.com/simple-event-calendar/server/internal/storage/backend"
	"github.com/simple-event-calendar/server/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server and begin accepting requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Apply pending database migrations
- Serve the API at the root and under /api/v1
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "server port (default: 8091)")
	return cmd
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting event calendar server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown error")
		}
	}()

	repo, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn().Err(err).Msg("database close error")
		}
	}()

	if stats := dbStatsSource(repo); stats != nil {
		collector := metrics.NewDBCollector(stats)
		collectorCtx, collectorCancel := context.WithCancel(context.Background())
		go collector.Start(collectorCtx, 15*time.Second)
		defer collectorCancel()
		defer collector.Stop()
	}

	mailer, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("email service: %w", err)
	}

	auditLogger := audit.NewLoggerWithZerolog(logger)
	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	usersSvc := users.NewService(repo, tokens, mailer, auditLogger, users.Config{
		BcryptCost:   cfg.Auth.BcryptCost,
		ResetBaseURL: cfg.Reset.BaseURL,
		ResetTTL:     cfg.Reset.TokenTTL,
	}, logger)
	eventsSvc := events.NewService(repo, auditLogger, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	defer limiter.Stop()

	health := handlers.NewHealthChecker(repo, func() (uint, bool, error) {
		return backend.SchemaVersion(cfg.Database)
	}, Version, GitCommit)

	server := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewRouter(api.Deps{
			Config:      cfg,
			Logger:      logger,
			Users:       usersSvc,
			Events:      eventsSvc,
			Tokens:      tokens,
			Health:      health,
			RateLimiter: limiter,
			Version:     Version,
			GitCommit:   GitCommit,
			BuildDate:   BuildDate,
		}),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	err = gracefulShutdown(server, logger)
	usersSvc.Wait()
	return err
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
