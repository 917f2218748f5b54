package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/simple-event-calendar/server/internal/domain/events"
	"github.com/simple-event-calendar/server/internal/storage"
)

// EventTools exposes read-only event queries to MCP clients.
type EventTools struct {
	eventsService *events.Service
}

func NewEventTools(eventsService *events.Service) *EventTools {
	return &EventTools{eventsService: eventsService}
}

type eventItem struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location,omitempty"`
	Category      string    `json:"category,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	ConfirmeUntil time.Time `json:"confirme_until"`
}

type participantItem struct {
	UserID    int64  `json:"id_user"`
	Name      string `json:"name_participant"`
	Confirmed bool   `json:"confirmed"`
}

type commentItem struct {
	Author    string    `json:"author"`
	Text      string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventItem(e storage.Event) eventItem {
	return eventItem{
		ID:            e.ID,
		Title:         e.Title,
		Date:          e.Date,
		Description:   e.Description,
		Location:      e.Location,
		Category:      e.Category,
		CreatedBy:     e.CreatedBy,
		ConfirmeUntil: e.ConfirmeUntil,
	}
}

type eventIDArgs struct {
	ID int64 `json:"id"`
}

func eventIDTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "Numeric event id",
				},
			},
			Required: []string{"id"},
		},
	}
}

func (t *EventTools) eventID(request mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	if t == nil || t.eventsService == nil {
		return 0, mcp.NewToolResultError("events service not configured")
	}
	var args eventIDArgs
	if err := decodeArgs(request, &args); err != nil {
		return 0, mcp.NewToolResultErrorFromErr("invalid arguments", err)
	}
	if args.ID <= 0 {
		return 0, mcp.NewToolResultError("id must be a positive integer")
	}
	return args.ID, nil
}

func (t *EventTools) ListEventsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_events",
		Description: "List events that are still open for confirmation, soonest first. Optionally filter by category.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Only return events in this category (case-sensitive)",
				},
			},
		},
	}
}

func (t *EventTools) ListEventsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.eventsService == nil {
		return mcp.NewToolResultError("events service not configured"), nil
	}
	var args struct {
		Category string `json:"category"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	list, err := t.eventsService.ListEvents(ctx)
	if err != nil {
		return toolError("failed to list events", err), nil
	}
	items := make([]eventItem, 0, len(list))
	for _, event := range list {
		if args.Category != "" && event.Category != args.Category {
			continue
		}
		items = append(items, toEventItem(event))
	}
	return toolResultJSON(map[string]any{"items": items, "count": len(items)})
}

func (t *EventTools) GetEventTool() mcp.Tool {
	return eventIDTool("get_event", "Get one event by its numeric id.")
}

func (t *EventTools) GetEventHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, failure := t.eventID(request)
	if failure != nil {
		return failure, nil
	}
	event, err := t.eventsService.GetEvent(ctx, id)
	if err != nil {
		return toolError("failed to get event", err), nil
	}
	return toolResultJSON(toEventItem(event))
}

func (t *EventTools) ListParticipantsTool() mcp.Tool {
	return eventIDTool("list_participants", "List the participants of an event with their confirmation state.")
}

func (t *EventTools) ListParticipantsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, failure := t.eventID(request)
	if failure != nil {
		return failure, nil
	}
	participants, err := t.eventsService.ListParticipants(ctx, id)
	if err != nil {
		return toolError("failed to list participants", err), nil
	}
	items := make([]participantItem, 0, len(participants))
	confirmed := 0
	for _, p := range participants {
		if p.Confirmed {
			confirmed++
		}
		items = append(items, participantItem{UserID: p.UserID, Name: p.Name, Confirmed: p.Confirmed})
	}
	return toolResultJSON(map[string]any{"items": items, "count": len(items), "confirmed": confirmed})
}

func (t *EventTools) ListCommentsTool() mcp.Tool {
	return eventIDTool("list_comments", "List the comments on an event, newest first.")
}

func (t *EventTools) ListCommentsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, failure := t.eventID(request)
	if failure != nil {
		return failure, nil
	}
	comments, err := t.eventsService.ListComments(ctx, id)
	if err != nil {
		return toolError("failed to list comments", err), nil
	}
	items := make([]commentItem, 0, len(comments))
	for _, c := range comments {
		items = append(items, commentItem{Author: c.Author, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return toolResultJSON(map[string]any{"items": items, "count": len(items)})
}
