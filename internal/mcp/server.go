package mcp

import (
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/simple-event-calendar/server/internal/domain/events"
	"github.com/simple-event-calendar/server/internal/mcp/prompts"
	"github.com/simple-event-calendar/server/internal/mcp/resources"
	"github.com/simple-event-calendar/server/internal/mcp/tools"
)

// Server exposes read-only calendar queries over the Model Context Protocol.
type Server struct {
	mcp           *mcpserver.MCPServer
	eventsService *events.Service
	info          resources.ServerInfo
}

type Config struct {
	Name      string
	Version   string
	BaseURL   string
	Transport TransportType
}

func NewServer(cfg Config, eventsService *events.Service) *Server {
	mcpServer := mcpserver.NewMCPServer(
		cfg.Name,
		cfg.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions("Event calendar server: list open events, inspect participants and read comments. Writes go through the REST API."),
	)

	srv := &Server{
		mcp:           mcpServer,
		eventsService: eventsService,
		info: resources.ServerInfo{
			Name:         cfg.Name,
			Version:      cfg.Version,
			BaseURL:      cfg.BaseURL,
			Capabilities: resources.ServerCapabilities{Tools: true, Resources: true, Prompts: true},
			Transport:    string(cfg.Transport),
		},
	}

	srv.registerTools()
	srv.registerResources()
	srv.registerPrompts()
	return srv
}

// MCPServer returns the underlying server for use with transports.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) registerTools() {
	eventTools := tools.NewEventTools(s.eventsService)
	s.mcp.AddTool(eventTools.ListEventsTool(), eventTools.ListEventsHandler)
	s.mcp.AddTool(eventTools.GetEventTool(), eventTools.GetEventHandler)
	s.mcp.AddTool(eventTools.ListParticipantsTool(), eventTools.ListParticipantsHandler)
	s.mcp.AddTool(eventTools.ListCommentsTool(), eventTools.ListCommentsHandler)
}

func (s *Server) registerResources() {
	schema := resources.NewSchemaResources()
	s.mcp.AddResource(schema.OpenAPIResource(), schema.OpenAPIReadHandler())
	s.mcp.AddResource(schema.InfoResource(), schema.InfoReadHandler(s.info))
}

func (s *Server) registerPrompts() {
	templates := prompts.NewPromptTemplates()
	s.mcp.AddPrompt(templates.DraftEventPrompt(), templates.DraftEventHandler)
	s.mcp.AddPrompt(templates.SummarizeEventPrompt(), templates.SummarizeEventHandler)
	s.mcp.AddPrompt(templates.InviteMessagePrompt(), templates.InviteMessageHandler)
}
