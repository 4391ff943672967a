// Package mcp exposes the pipeline as MCP tools and resources over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/mcporch/internal/history"
	"github.com/ziadkadry99/mcporch/internal/pipeline"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the analysis pipeline.
type Server struct {
	svc     *pipeline.Service
	history *history.Store
	mcp     *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithHistory exposes recorded runs as the mcp://run-history resource.
func WithHistory(store *history.Store) Option {
	return func(s *Server) { s.history = store }
}

// NewServer creates a new MCP server backed by svc.
func NewServer(svc *pipeline.Service, opts ...Option) *Server {
	s := &Server{svc: svc}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		"mcporch",
		Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.registerTools()
	s.registerResources()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(analyzeFunctionTool, s.handleAnalyzeFunction)
	s.mcp.AddTool(summarizeFlowTool, s.handleSummarizeFlow)
	s.mcp.AddTool(buildPromptTool, s.handleBuildPrompt)
	s.mcp.AddTool(runFullPipelineTool, s.handleRunFullPipeline)
}

func (s *Server) registerResources() {
	s.mcp.AddResource(lastAnalysesResource, s.readLastAnalyses)
	s.mcp.AddResource(lastPromptsResource, s.readLastPrompts)
	if s.history != nil {
		s.mcp.AddResource(runHistoryResource, s.readRunHistory)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
