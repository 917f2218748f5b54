package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type eventsOptions struct {
	serverURL string
	format    string
	category  string
	limit     int
	verbose   bool
}

type eventSummary struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	Category      string    `json:"category"`
	CreatedBy     string    `json:"created_by"`
	ConfirmeUntil time.Time `json:"confirme_until"`
}

type eventsEnvelope struct {
	Status int            `json:"status"`
	Err    bool           `json:"err"`
	Msg    string         `json:"msg"`
	Data   []eventSummary `json:"data"`
}

func newEventsCommand() *cobra.Command {
	opts := &eventsOptions{}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List open events from a running server",
		Long: `List events that are still open for confirmation by querying GET /events.

Examples:
  # List open events
  server events

  # Only music events, with details
  server events --category music --verbose

  # Query another server and print raw JSON
  server events --server https://calendar.example.com --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsQuery(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.serverURL, "server", "http://localhost:8091", "server base URL")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format (table, json)")
	cmd.Flags().StringVar(&opts.category, "category", "", "only show events in this category")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "maximum number of events to show (0 for all)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "show detailed event information")
	return cmd
}

func runEventsQuery(ctx context.Context, out io.Writer, opts *eventsOptions) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (must be table or json)", opts.format)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := strings.TrimRight(opts.serverURL, "/") + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope eventsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || envelope.Err {
		return fmt.Errorf("server returned error %d: %s", resp.StatusCode, envelope.Msg)
	}

	list := filterEvents(envelope.Data, opts.category, opts.limit)

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No events found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d event(s):\n\n", len(list))
	for i, event := range list {
		fmt.Fprintf(out, "%d. %s\n", i+1, event.Title)
		if !opts.verbose {
			parts := []string{formatDate(event.Date)}
			if event.Location != "" {
				parts = append(parts, event.Location)
			}
			fmt.Fprintf(out, "   %s\n", strings.Join(parts, " | "))
			continue
		}

		fmt.Fprintf(out, "   ID:          %d\n", event.ID)
		fmt.Fprintf(out, "   Date:        %s\n", formatDate(event.Date))
		fmt.Fprintf(out, "   Confirm by:  %s\n", formatDate(event.ConfirmeUntil))
		if event.Location != "" {
			fmt.Fprintf(out, "   Location:    %s\n", event.Location)
		}
		if event.Category != "" {
			fmt.Fprintf(out, "   Category:    %s\n", event.Category)
		}
		if event.CreatedBy != "" {
			fmt.Fprintf(out, "   Created by:  %s\n", event.CreatedBy)
		}
		if desc := event.Description; desc != "" {
			if len(desc) > 100 {
				desc = desc[:97] + "..."
			}
			fmt.Fprintf(out, "   Description: %s\n", desc)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func filterEvents(list []eventSummary, category string, limit int) []eventSummary {
	out := make([]eventSummary, 0, len(list))
	for _, event := range list {
		if category != "" && !strings.EqualFold(event.Category, category) {
			continue
		}
		out = append(out, event)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}
