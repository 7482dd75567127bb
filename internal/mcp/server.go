// Package mcp exposes read-only gateway operations to MCP clients.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/signgate/signgate/internal/eformsign"
)

// MCPServer wraps the mcp-go server with signgate tool registrations. All
// tools act as the configured administrator on the provider side and are
// read-only; mutations stay behind the authenticated REST surface.
type MCPServer struct {
	client *eformsign.Client
	admin  string
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all signgate tools.
// admin is the provider-side acting subject for every tool call.
func NewMCPServer(client *eformsign.Client, admin string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		client: client,
		admin:  admin,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"signgate",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, the integration path for
// clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
