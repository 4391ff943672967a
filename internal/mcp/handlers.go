package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/flow"
	"github.com/ziadkadry99/mcporch/internal/history"
)

// handleAnalyzeFunction runs the analysis stage.
func (s *Server) handleAnalyzeFunction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	language, err := request.RequireString("language")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: language"), nil
	}
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: code"), nil
	}

	rec, err := s.svc.Analyze(ctx, language, code)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rec)
}

// handleSummarizeFlow runs the flow stage on a caller-supplied record.
func (s *Server) handleSummarizeFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rec analysis.Record
	if err := decodeArgument(request, "analysis", &rec); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sum, err := s.svc.Summarize(&rec)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(sum)
}

// handleBuildPrompt runs the prompt stage on a caller-supplied summary.
func (s *Server) handleBuildPrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sum flow.Summary
	if err := decodeArgument(request, "flow", &sum); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.svc.BuildPrompt(sum)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rec)
}

// handleRunFullPipeline runs every stage. Stage failures are part of the
// result, never a tool error.
func (s *Server) handleRunFullPipeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	language, err := request.RequireString("language")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: language"), nil
	}
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: code"), nil
	}

	return jsonResult(s.svc.Run(ctx, language, code))
}

func (s *Server) readLastAnalyses(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(lastAnalysesURI, s.svc.Analyses())
}

// promptListing is the resource view of a cached prompt. The full text is
// available from build_prompt or the HTTP API.
type promptListing struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	PromptPreview string    `json:"prompt_preview"`
	TokensEst     int       `json:"tokens_est"`
	Guardrails    []string  `json:"guardrails"`
}

func (s *Server) readLastPrompts(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries := s.svc.Prompts()
	listings := make([]promptListing, 0, len(entries))
	for _, e := range entries {
		listings = append(listings, promptListing{
			ID:            e.ID,
			Timestamp:     e.Timestamp,
			PromptPreview: e.Value.Preview(previewRunes),
			TokensEst:     e.Value.TokensEst,
			Guardrails:    e.Value.Guardrails,
		})
	}
	return jsonResource(lastPromptsURI, listings)
}

func (s *Server) readRunHistory(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	runs, err := s.history.List(ctx, history.Filter{Limit: runHistoryLimit})
	if err != nil {
		return nil, fmt.Errorf("listing run history: %w", err)
	}
	return jsonResource(runHistoryURI, runs)
}

// decodeArgument decodes an object argument into v. A JSON-encoded string is
// accepted for clients that cannot send nested objects.
func decodeArgument(request mcp.CallToolRequest, name string, v any) error {
	raw, ok := request.GetArguments()[name]
	if !ok || raw == nil {
		return fmt.Errorf("missing required parameter: %s", name)
	}

	var data []byte
	if str, isString := raw.(string); isString {
		data = []byte(str)
	} else {
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return fmt.Errorf("invalid %s: %v", name, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid %s: %v", name, err)
	}
	return nil
}

func toolError(err error) *mcp.CallToolResult {
	data, _ := json.Marshal(map[string]string{
		"error": err.Error(),
		"kind":  string(analysis.KindOf(err)),
	})
	return mcp.NewToolResultError(string(data))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
