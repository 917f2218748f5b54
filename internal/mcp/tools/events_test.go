package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simple-event-calendar/server/internal/audit"
	"github.com/simple-event-calendar/server/internal/domain/events"
	"github.com/simple-event-calendar/server/internal/storage"
	"github.com/simple-event-calendar/server/internal/storage/sqlite"
)

type toolFixture struct {
	tools *EventTools
	svc   *events.Service
	repo  storage.Repository
}

func newToolFixture(t *testing.T) *toolFixture {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "mcp.sqlite")
	require.NoError(t, sqlite.MigrateUp(dsn))
	repo, err := sqlite.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := events.NewService(repo, audit.NewLoggerWithZerolog(zerolog.Nop()), zerolog.Nop()).WithLocation(time.UTC)
	return &toolFixture{tools: NewEventTools(svc), svc: svc, repo: repo}
}

func (f *toolFixture) event(t *testing.T, title, category string, in time.Duration) storage.Event {
	t.Helper()
	at := time.Now().UTC().Add(in).Format(time.RFC3339)
	event, err := f.svc.CreateEvent(context.Background(), events.CreateEventParams{
		Title:         title,
		Date:          at,
		ConfirmeUntil: at,
		Category:      category,
		CreatedBy:     "alice",
	})
	require.NoError(t, err)
	return event
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, dst any) {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError, "unexpected tool error: %+v", result.Content)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	require.NoError(t, json.Unmarshal([]byte(text.Text), dst))
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToolDefinitions(t *testing.T) {
	tools := NewEventTools(nil)
	for _, tool := range []mcp.Tool{tools.ListEventsTool(), tools.GetEventTool(), tools.ListParticipantsTool(), tools.ListCommentsTool()} {
		assert.NotEmpty(t, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Contains(t, tools.GetEventTool().InputSchema.Required, "id")
}

func TestListEventsFiltersByCategory(t *testing.T) {
	f := newToolFixture(t)
	f.event(t, "Samba", "music", 48*time.Hour)
	f.event(t, "Hackathon", "tech", 24*time.Hour)

	result, err := f.tools.ListEventsHandler(context.Background(), callTool(nil))
	require.NoError(t, err)
	var all struct {
		Items []eventItem `json:"items"`
		Count int         `json:"count"`
	}
	decodeResult(t, result, &all)
	require.Equal(t, 2, all.Count)
	assert.Equal(t, "Hackathon", all.Items[0].Title)

	result, err = f.tools.ListEventsHandler(context.Background(), callTool(map[string]any{"category": "music"}))
	require.NoError(t, err)
	var music struct {
		Items []eventItem `json:"items"`
		Count int         `json:"count"`
	}
	decodeResult(t, result, &music)
	require.Equal(t, 1, music.Count)
	assert.Equal(t, "Samba", music.Items[0].Title)
}

func TestGetEvent(t *testing.T) {
	f := newToolFixture(t)
	created := f.event(t, "Book club", "reading", 72*time.Hour)

	result, err := f.tools.GetEventHandler(context.Background(), callTool(map[string]any{"id": created.ID}))
	require.NoError(t, err)
	var got eventItem
	decodeResult(t, result, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Book club", got.Title)

	result, err = f.tools.GetEventHandler(context.Background(), callTool(map[string]any{"id": created.ID + 100}))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "failed to get event")
}

func TestEventIDValidation(t *testing.T) {
	f := newToolFixture(t)

	result, err := f.tools.GetEventHandler(context.Background(), callTool(map[string]any{"id": 0}))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "positive integer")

	result, err = f.tools.ListCommentsHandler(context.Background(), callTool(map[string]any{"id": "seven"}))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "invalid arguments")

	result, err = NewEventTools(nil).GetEventHandler(context.Background(), callTool(map[string]any{"id": 1}))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "not configured")
}

func TestListParticipantsAndComments(t *testing.T) {
	f := newToolFixture(t)
	ctx := context.Background()
	event := f.event(t, "Churrasco", "food", 48*time.Hour)
	user, err := f.repo.Users().Create(ctx, storage.CreateUserParams{
		Name:         "Bruna Silva",
		Email:        "bruna@example.com",
		GivenName:    "bruna",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = f.svc.AddParticipant(ctx, user.ID, event.ID, "Bruna")
	require.NoError(t, err)
	_, err = f.svc.ConfirmParticipation(ctx, user.ID, event.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, events.AddCommentParams{EventID: event.ID, UserID: &user.ID, Author: "bruna", Text: "I'll bring farofa"})
	require.NoError(t, err)

	result, err := f.tools.ListParticipantsHandler(ctx, callTool(map[string]any{"id": event.ID}))
	require.NoError(t, err)
	var participants struct {
		Items     []participantItem `json:"items"`
		Count     int               `json:"count"`
		Confirmed int               `json:"confirmed"`
	}
	decodeResult(t, result, &participants)
	require.Equal(t, 1, participants.Count)
	assert.Equal(t, 1, participants.Confirmed)
	assert.Equal(t, "Bruna", participants.Items[0].Name)

	result, err = f.tools.ListCommentsHandler(ctx, callTool(map[string]any{"id": event.ID}))
	require.NoError(t, err)
	var comments struct {
		Items []commentItem `json:"items"`
		Count int           `json:"count"`
	}
	decodeResult(t, result, &comments)
	require.Equal(t, 1, comments.Count)
	assert.Equal(t, "I'll bring farofa", comments.Items[0].Text)
}
