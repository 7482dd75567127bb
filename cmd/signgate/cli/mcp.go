package cli

import (
	"github.com/spf13/cobra"

	smcp "github.com/signgate/signgate/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes read-only
eformsign operations as tools for AI agents. The server communicates over
stdin/stdout using JSON-RPC, suitable for clients that launch it as a
subprocess.

All tools act as the configured administrator; mutations are not exposed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP()
		},
	}

	return cmd
}

func runMCP() error {
	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	client := newProviderClient(cfg, logger, nil)
	return smcp.NewMCPServer(client, cfg.Auth.AdminLoginID, logger).ServeStdio()
}
