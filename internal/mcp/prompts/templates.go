package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	draftEventPrompt     = "draft_event"
	summarizeEventPrompt = "summarize_event"
	inviteMessagePrompt  = "invite_message"
)

type PromptTemplates struct{}

func NewPromptTemplates() *PromptTemplates {
	return &PromptTemplates{}
}

func (p *PromptTemplates) DraftEventPrompt() mcp.Prompt {
	return mcp.NewPrompt(
		draftEventPrompt,
		mcp.WithPromptDescription("Turn a free-text description into a POST /events request body"),
		mcp.WithArgument("description", mcp.ArgumentDescription("Raw event description text"), mcp.RequiredArgument()),
		mcp.WithArgument("timezone", mcp.ArgumentDescription("IANA timezone used for times without an offset")),
	)
}

func (p *PromptTemplates) SummarizeEventPrompt() mcp.Prompt {
	return mcp.NewPrompt(
		summarizeEventPrompt,
		mcp.WithPromptDescription("Summarize an event together with its participants and comments"),
		mcp.WithArgument("event_id", mcp.ArgumentDescription("Numeric event id"), mcp.RequiredArgument()),
	)
}

func (p *PromptTemplates) InviteMessagePrompt() mcp.Prompt {
	return mcp.NewPrompt(
		inviteMessagePrompt,
		mcp.WithPromptDescription("Write a short invitation asking people to confirm attendance before the deadline"),
		mcp.WithArgument("event_id", mcp.ArgumentDescription("Numeric event id"), mcp.RequiredArgument()),
		mcp.WithArgument("tone", mcp.ArgumentDescription("Tone of the message, e.g. friendly or formal")),
	)
}

func (p *PromptTemplates) DraftEventHandler(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	description := getArgString(args, "description")
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description is required")
	}
	timezone := getArgString(args, "timezone")
	if timezone == "" {
		timezone = "UTC"
	}

	text := fmt.Sprintf("Convert the event description below into a JSON object with the fields title, date, description, location and category. "+
		"Write date as \"YYYY-MM-DD HH:MM\" in timezone %s. Keep title under 100 characters and leave out fields the text does not mention.\n\nEvent description:\n%s",
		timezone, description)

	return userPrompt("Draft an event request body from a description", text), nil
}

func (p *PromptTemplates) SummarizeEventHandler(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	eventID := getArgString(request.Params.Arguments, "event_id")
	if eventID == "" {
		return nil, fmt.Errorf("event_id is required")
	}

	text := fmt.Sprintf("Call get_event, list_participants and list_comments with id %s. "+
		"Summarize what the event is, when and where it happens, how many people joined and how many confirmed, and the main points raised in the comments.", eventID)

	return userPrompt("Summarize an event", text), nil
}

func (p *PromptTemplates) InviteMessageHandler(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	eventID := getArgString(args, "event_id")
	if eventID == "" {
		return nil, fmt.Errorf("event_id is required")
	}
	tone := getArgString(args, "tone")
	if tone == "" {
		tone = "friendly"
	}

	text := fmt.Sprintf("Call get_event with id %s and write a %s invitation of at most five sentences. "+
		"Mention the title, date and location, and ask readers to confirm before the confirme_until deadline.", eventID, tone)

	return userPrompt("Write an event invitation", text), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}
}

func getArgString(args map[string]string, key string) string {
	if args == nil {
		return ""
	}
	return strings.TrimSpace(args[key])
}
