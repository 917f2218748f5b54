package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// HealthResponse is the envelope returned by /healthz and /readyz.
type HealthResponse struct {
	Status int                    `json:"status"`
	Err    bool                   `json:"err"`
	Msg    string                 `json:"msg"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func newHealthcheckCommand() *cobra.Command {
	var (
		timeout int
		url     string
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is ready",
		Long: `Performs a readiness check by calling the /readyz endpoint.

Used by container HEALTHCHECK directives. Exits 0 when the server is ready
and non-zero otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				port := os.Getenv("SERVER_PORT")
				if port == "" {
					port = "8091"
				}
				url = fmt.Sprintf("http://localhost:%s/readyz", port)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			defer cancel()

			health, err := performHealthCheck(ctx, url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "healthy: %s\n", health.Msg)
			return nil
		},
	}

	cmd.Flags().IntVar(&timeout, "timeout", 5, "timeout in seconds")
	cmd.Flags().StringVar(&url, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/readyz)")
	return cmd
}

// performHealthCheck fetches url and fails unless it answers a 200 envelope.
func performHealthCheck(ctx context.Context, url string) (HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return HealthResponse{}, fmt.Errorf("parse health check response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || health.Err {
		for name, check := range health.Checks {
			if check.Status != "pass" {
				return health, fmt.Errorf("unhealthy: %s check %s: %s", name, check.Status, check.Message)
			}
		}
		return health, fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return health, nil
}
