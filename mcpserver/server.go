package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/coderun/config"
	"github.com/isdmx/coderun/sandbox"
)

// ToolName is the name of the code execution tool
const ToolName = "run_code"

// Endpoint is the path the streamable HTTP transport is mounted on.
const Endpoint = "/mcp"

// MCPServer represents the MCP server
type MCPServer struct {
	config     *config.Config
	logger     *zap.Logger
	runner     *sandbox.Runner
	mcpServer  *server.MCPServer
	streamable *server.StreamableHTTPServer
	httpServer *http.Server
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, runner *sandbox.Runner) (*MCPServer, error) {
	s := &MCPServer{
		config: cfg,
		logger: logger,
		runner: runner,
	}

	s.mcpServer = server.NewMCPServer("coderun", "1.0.0", server.WithToolCapabilities(false))
	s.registerRunCodeTool()

	s.streamable = server.NewStreamableHTTPServer(s.mcpServer, server.WithEndpointPath(Endpoint))
	mux := http.NewServeMux()
	mux.Handle(Endpoint, s.streamable)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MCPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// registerRunCodeTool registers the run_code tool
func (s *MCPServer) registerRunCodeTool() {
	tool := mcp.Tool{
		Name: ToolName,
		Description: fmt.Sprintf("Run a Python program with optional standard input. "+
			"Execution is killed after %s. Returns JSON with output, error and execution_time.", sandbox.Timeout),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Complete Python program",
				},
				"input": map[string]any{
					"type":        "string",
					"description": "Text fed to the program's standard input (optional)",
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunCode)
}

// handleRunCode handles the run_code tool
func (s *MCPServer) handleRunCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("code parameter is required: %v", err)), nil
	}
	input := request.GetString("input", "")

	s.logger.Info("code execution requested over MCP", zap.Int("code_len", len(code)))

	outcome := s.runner.Run(ctx, code, input)

	resultJSON, err := json.Marshal(outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to encode outcome: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(resultJSON),
			},
		},
		IsError: outcome.Status == sandbox.StatusFailed || outcome.Status == sandbox.StatusTimedOut,
	}, nil
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP serves streamable HTTP on server.mcp_port until Shutdown.
// It returns http.ErrServerClosed after a Shutdown, even one that came first.
func (s *MCPServer) ServeHTTP() error {
	s.logger.Info("starting MCP server on HTTP", zap.String("addr", s.httpServer.Addr), zap.String("endpoint", Endpoint))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the streamable HTTP transport
func (s *MCPServer) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.streamable.Shutdown(ctx)
}

// Handler returns the streamable HTTP handler, mainly for tests.
func (s *MCPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
