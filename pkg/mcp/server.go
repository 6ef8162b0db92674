package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	moodlog "github.com/unowned-ai/moodlog/pkg"
	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
)

// MoodlogMCPServer exposes the mood store as MCP tools over stdio. The
// database is opened by the first tool call that needs it.
type MoodlogMCPServer struct {
	mcpServer *server.MCPServer
	handle    *pkgdb.Handle
}

// NewMoodlogMCPServer builds a server backed by cfg and registers every tool.
func NewMoodlogMCPServer(cfg pkgdb.Config) *MoodlogMCPServer {
	s := server.NewMCPServer(
		"Moodlog MCP Server",
		moodlog.Version,
		server.WithLogging(),
		server.WithRecovery(),
	)
	h := pkgdb.NewHandle(cfg)
	RegisterTools(s, h)
	return &MoodlogMCPServer{mcpServer: s, handle: h}
}

// Start runs the stdio event loop.
func (s *MoodlogMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// Handle returns the lazily opened database shared by all tools.
func (s *MoodlogMCPServer) Handle() *pkgdb.Handle {
	return s.handle
}

// MCPRawServer exposes the raw mcp-go server (useful for additional configuration).
func (s *MoodlogMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}

// Close checkpoints and closes the database if a tool opened it.
func (s *MoodlogMCPServer) Close() error {
	return s.handle.Close()
}

// ToolNames lists the registered tools in registration order.
func ToolNames() []string {
	names := make([]string, 0, len(toolSet))
	for _, t := range toolSet {
		names = append(names, t.tool.Name)
	}
	return names
}
