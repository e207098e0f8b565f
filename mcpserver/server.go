// Package mcpserver exposes the domain registry over the Model Context
// Protocol, so MCP-capable agents can route and process requests without
// going through the HTTP API.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/errors"
	"github.com/powerautomation/domainmcp/internal/version"
	"github.com/powerautomation/domainmcp/registry"
)

// Server wraps a domain registry and exposes it via Model Context Protocol.
type Server struct {
	registry *registry.Registry
	logger   *zap.SugaredLogger
	server   *server.MCPServer
}

// New creates an MCP server around an assembled registry.
func New(reg *registry.Registry, logger *zap.SugaredLogger) (*Server, error) {
	if reg == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Server{
		registry: reg,
		logger:   logger,
	}

	s.server = server.NewMCPServer(
		"domainmcp",
		version.Version,
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s, nil
}

// registerTools registers all MCP tools for registry operations
func (s *Server) registerTools() {
	routeTool := mcp.NewTool("domain_route",
		mcp.WithDescription("Score a request against all registered domains without executing any handler"),
		mcp.WithString("request_text",
			mcp.Required(),
			mcp.Description("Free-text request to route"),
		),
		mcp.WithNumber("max_domains",
			mcp.Description("Maximum number of domains to return (default: 3)"),
		),
	)
	s.server.AddTool(routeTool, s.handleRoute)

	processTool := mcp.NewTool("domain_process",
		mcp.WithDescription("Route a request and execute the matched domain handlers in parallel"),
		mcp.WithString("request_text",
			mcp.Required(),
			mcp.Description("Free-text request to process"),
		),
		mcp.WithString("context_json",
			mcp.Description("Optional JSON object passed to handlers as domain context"),
		),
		mcp.WithNumber("max_domains",
			mcp.Description("Maximum number of domains to execute (default: 3)"),
		),
	)
	s.server.AddTool(processTool, s.handleProcess)

	statusTool := mcp.NewTool("registry_status",
		mcp.WithDescription("Report registered domains with health, configuration, and performance"),
	)
	s.server.AddTool(statusTool, s.handleStatus)

	statsTool := mcp.NewTool("domain_statistics",
		mcp.WithDescription("Report performance statistics for one domain or the whole registry"),
		mcp.WithString("domain_id",
			mcp.Description("Restrict the report to one domain (default: all domains)"),
		),
	)
	s.server.AddTool(statsTool, s.handleStatistics)
}

// handleRoute handles domain_route tool calls
func (s *Server) handleRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestText, err := request.RequireString("request_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxDomains := request.GetInt("max_domains", 0)

	matches := s.registry.Route(requestText, maxDomains)
	if len(matches) == 0 {
		return mcp.NewToolResultText("No domains matched the request"), nil
	}

	return jsonResult(map[string]any{
		"matches": matches,
		"count":   len(matches),
	})
}

// handleProcess handles domain_process tool calls
func (s *Server) handleProcess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestText, err := request.RequireString("request_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var domainContext map[string]any
	if raw := request.GetString("context_json", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &domainContext); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("context_json is not a valid JSON object: %v", err)), nil
		}
	}
	maxDomains := request.GetInt("max_domains", 0)

	results, err := s.registry.Process(ctx, requestText, domainContext, maxDomains)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Processing failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No domains matched the request"), nil
	}

	return jsonResult(map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// handleStatus handles registry_status tool calls
func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.registry.Status(ctx))
}

// handleStatistics handles domain_statistics tool calls
func (s *Server) handleStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domainID := request.GetString("domain_id", "")
	if domainID == "" {
		return jsonResult(s.registry.Monitor().OverallStatistics())
	}

	stats, ok := s.registry.Monitor().DomainStatistics(domainID)
	if !ok {
		return mcp.NewToolResultError("no statistics recorded for domain: " + domainID), nil
	}
	return jsonResult(stats)
}

// jsonResult renders a tool result as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Serve runs the MCP server on stdio until the client disconnects.
func (s *Server) Serve() error {
	s.logger.Infow("MCP stdio server starting",
		"domains", len(s.registry.Domains()),
	)
	return server.ServeStdio(s.server)
}
