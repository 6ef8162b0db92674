package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/unowned-ai/moodlog/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Moodlog MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes mood logging,
the emotion catalog and import/export as MCP tools via STDIO.

The database is opened on the first tool call that needs it. The --db flag is
optional. If not provided, a system-specific default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\moodlog\moodlog.db
- macOS: ~/Library/Application Support/moodlog/moodlog.db
- Linux: $XDG_DATA_HOME/moodlog/moodlog.db or ~/.local/share/moodlog/moodlog.db

Example:
  moodlog mcp
  moodlog mcp --db moodlog.db --log-level info`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := dbConfig()
		srv := mcp.NewMoodlogMCPServer(cfg)
		defer srv.Close()

		// Diagnostics go to stderr so the JSON-RPC stream on stdout stays clean.
		slog.Info("moodlog MCP server started", "db", cfg.Path, "wal", cfg.WAL, "sync", cfg.Sync)
		slog.Info("available tools", "tools", strings.Join(mcp.ToolNames(), ", "))

		return srv.Start()
	},
}
