// Package mcp serves the calendar's read-only MCP tools over stdio, SSE or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/simple-event-calendar/server/internal/api/middleware"
	"github.com/simple-event-calendar/server/internal/config"
)

type TransportType string

const (
	TransportStdio TransportType = "stdio"
	TransportSSE   TransportType = "sse"
	TransportHTTP  TransportType = "http"
)

const (
	DefaultTransport = TransportStdio
	DefaultPort      = 8092

	// GracefulShutdownTimeout bounds how long in-flight MCP requests may run after cancellation.
	GracefulShutdownTimeout = 10 * time.Second
)

type TransportConfig struct {
	Type TransportType
	Port int
	Host string
}

// Addr is the listen address for the SSE and HTTP transports.
func (c TransportConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadTransportConfig reads MCP_TRANSPORT, MCP_PORT and MCP_HOST.
func LoadTransportConfig() (TransportConfig, error) {
	cfg := TransportConfig{
		Type: DefaultTransport,
		Port: DefaultPort,
		Host: "0.0.0.0",
	}

	if value := os.Getenv("MCP_TRANSPORT"); value != "" {
		transport := TransportType(value)
		switch transport {
		case TransportStdio, TransportSSE, TransportHTTP:
			cfg.Type = transport
		default:
			return TransportConfig{}, fmt.Errorf("invalid MCP_TRANSPORT value: %s (must be stdio, sse, or http)", value)
		}
	}

	if value := os.Getenv("MCP_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return TransportConfig{}, fmt.Errorf("invalid MCP_PORT value: %s (must be a number)", value)
		}
		if port < 1 || port > 65535 {
			return TransportConfig{}, fmt.Errorf("invalid MCP_PORT value: %d (must be between 1 and 65535)", port)
		}
		cfg.Port = port
	}

	if value := os.Getenv("MCP_HOST"); value != "" {
		cfg.Host = value
	}
	return cfg, nil
}

// Serve runs mcpServer on the configured transport until ctx is cancelled.
func Serve(ctx context.Context, mcpServer *server.MCPServer, cfg TransportConfig, rateLimitCfg config.RateLimitConfig, logger zerolog.Logger) error {
	switch cfg.Type {
	case TransportStdio:
		return serveStdio(ctx, mcpServer, logger)
	case TransportSSE:
		return serveHTTP(ctx, server.NewSSEServer(mcpServer), cfg, rateLimitCfg, logger)
	case TransportHTTP:
		return serveHTTP(ctx, server.NewStreamableHTTPServer(mcpServer), cfg, rateLimitCfg, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s", cfg.Type)
	}
}

func serveStdio(ctx context.Context, mcpServer *server.MCPServer, logger zerolog.Logger) error {
	logger.Info().Str("transport", string(TransportStdio)).Msg("starting MCP server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ServeStdio(mcpServer); err != nil {
			errCh <- fmt.Errorf("stdio server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("context cancelled, stdio server stopping")
		return nil
	case err := <-errCh:
		return err
	}
}

func serveHTTP(ctx context.Context, handler http.Handler, cfg TransportConfig, rateLimitCfg config.RateLimitConfig, logger zerolog.Logger) error {
	limiter := middleware.NewRateLimiter(rateLimitCfg)
	defer limiter.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           WrapHandler(handler, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server error: %w", cfg.Type, err)
		}
		close(errCh)
	}()
	logger.Info().Str("transport", string(cfg.Type)).Str("addr", cfg.Addr()).Msg("MCP server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s server shutdown: %w", cfg.Type, err)
		}
		logger.Info().Str("transport", string(cfg.Type)).Msg("MCP server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

// WrapHandler applies public-tier rate limiting to an MCP HTTP handler.
func WrapHandler(handler http.Handler, limiter *middleware.RateLimiter) http.Handler {
	return middleware.WithRateLimitTierHandler(middleware.TierPublic)(limiter.Middleware(handler))
}
