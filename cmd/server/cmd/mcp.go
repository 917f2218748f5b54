package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simple-event-calendar/server/internal/audit"
	"github.com/simple-event-calendar/server/internal/config"
	"github.com/simple-event-calendar/server/internal/domain/events"
	"github.com/simple-event-calendar/server/internal/mcp"
)

func newMCPCommand(opts *rootOptions) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve read-only calendar tools over the Model Context Protocol",
		Long: `Serve read-only calendar tools over the Model Context Protocol.

The transport defaults to MCP_TRANSPORT (stdio when unset). SSE and HTTP
transports listen on MCP_HOST:MCP_PORT and share the public rate limit.
Logs always go to stderr so stdio stays a clean protocol channel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			transportCfg, err := mcp.LoadTransportConfig()
			if err != nil {
				return err
			}
			if transport != "" {
				transportCfg.Type = mcp.TransportType(transport)
			}

			logger := config.NewLoggerTo(os.Stderr, cfg.Logging)
			ctx := cmd.Context()

			repo, err := openStore(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			eventsSvc := events.NewService(repo, audit.NewLoggerWithZerolog(logger), logger)
			srv := mcp.NewServer(mcp.Config{
				Name:      "simple-event-calendar",
				Version:   Version,
				BaseURL:   cfg.Server.BaseURL,
				Transport: transportCfg.Type,
			}, eventsSvc)

			return mcp.Serve(ctx, srv.MCPServer(), transportCfg, cfg.RateLimit, logger)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "transport to use: stdio, sse or http (overrides MCP_TRANSPORT)")
	return cmd
}
