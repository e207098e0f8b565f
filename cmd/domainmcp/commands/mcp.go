package commands

import (
	"github.com/spf13/cobra"

	"github.com/powerautomation/domainmcp/errors"
	"github.com/powerautomation/domainmcp/logger"
	"github.com/powerautomation/domainmcp/mcpserver"
)

// McpCmd exposes the domain registry as an MCP stdio server
var McpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the registry as an MCP stdio server",
	Long: `Run the domain registry as a Model Context Protocol server on stdio.

Tools exposed: domain_route, domain_process, registry_status, domain_statistics.

Stdout carries the MCP protocol, so all log output goes to stderr. Point an
MCP client (Claude Desktop, an IDE, mcphost) at the domainmcp binary with
this subcommand as the argument.`,
	RunE: runMcp,
}

func runMcp(cmd *cobra.Command, args []string) error {
	log := logger.Logger

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := assembleRegistry(cmd.Context(), cfg, nil, log)
	if err != nil {
		return err
	}
	defer reg.Close()

	srv, err := mcpserver.New(reg, log)
	if err != nil {
		return errors.Wrap(err, "failed to create MCP server")
	}

	// ServeStdio blocks until the client closes stdin.
	return srv.Serve()
}
