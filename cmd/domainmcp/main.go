package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/powerautomation/domainmcp/cmd/domainmcp/commands"
	"github.com/powerautomation/domainmcp/logger"
)

var rootCmd = &cobra.Command{
	Use:   "domainmcp",
	Short: "domainmcp - Domain MCP registry, router, and host",
	Long: `domainmcp - Registry and router for domain MCP servers.

domainmcp discovers domain handlers from manifest files, routes free-text
requests to them with keyword and TF-IDF scoring, executes the matched
handlers in parallel, and serves the results over HTTP, WebSocket, and the
Model Context Protocol.

Available commands:
  serve   - Start the HTTP/WebSocket host
  mcp     - Start the MCP stdio server
  route   - Route a request once and print the matches
  domains - List discovered domain manifests
  status  - Query a running server for registry status
  config  - Manage domainmcp configuration

Examples:
  domainmcp serve                        # Start the host on the configured port
  domainmcp route "保單核保流程分析"      # See which domains would handle a request
  domainmcp domains                      # List manifests on the discovery paths
  domainmcp status                       # Ask a running server for its status
  domainmcp config show --format json    # Show effective configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		level := logger.VerbosityToLevel(verbosity)

		// The MCP stdio server owns stdout; its logs go to stderr.
		if cmd.Name() == "mcp" {
			return logger.InitializeStderr(level)
		}
		if err := logger.InitializeWithLevel(false, level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.McpCmd)
	rootCmd.AddCommand(commands.RouteCmd)
	rootCmd.AddCommand(commands.DomainsCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
