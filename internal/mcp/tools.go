package mcp

import "github.com/mark3labs/mcp-go/mcp"

const (
	lastAnalysesURI = "mcp://last-analyses"
	lastPromptsURI  = "mcp://last-prompts"
	runHistoryURI   = "mcp://run-history"

	runHistoryLimit = 20
	previewRunes    = 200
)

var analyzeFunctionTool = mcp.NewTool("analyze_function",
	mcp.WithDescription("Analyze a source unit and return its functions, inputs, outputs, complexity, branches and side effects."),
	mcp.WithString("language",
		mcp.Required(),
		mcp.Description("Language tag: python, java, javascript, typescript or go (aliases py, js, ts, golang)"),
	),
	mcp.WithString("code",
		mcp.Required(),
		mcp.Description("Source code to analyze"),
	),
)

var summarizeFlowTool = mcp.NewTool("summarize_flow",
	mcp.WithDescription("Summarize an analysis record into key paths, edge cases, an input/output matrix and risks."),
	mcp.WithObject("analysis",
		mcp.Required(),
		mcp.Description("Analysis record as returned by analyze_function"),
	),
)

var buildPromptTool = mcp.NewTool("build_prompt",
	mcp.WithDescription("Build a unit test generation prompt from a flow summary."),
	mcp.WithObject("flow",
		mcp.Required(),
		mcp.Description("Flow summary as returned by summarize_flow"),
	),
)

var runFullPipelineTool = mcp.NewTool("run_full_pipeline",
	mcp.WithDescription("Analyze, summarize and build a test prompt in one call. Always returns a result; stage failures are listed in meta.errors."),
	mcp.WithString("language",
		mcp.Required(),
		mcp.Description("Language tag: python, java, javascript, typescript or go (aliases py, js, ts, golang)"),
	),
	mcp.WithString("code",
		mcp.Required(),
		mcp.Description("Source code to analyze"),
	),
)

var lastAnalysesResource = mcp.NewResource(lastAnalysesURI, "Recent analyses",
	mcp.WithResourceDescription("The most recent successful analysis records, newest first"),
	mcp.WithMIMEType("application/json"),
)

var lastPromptsResource = mcp.NewResource(lastPromptsURI, "Recent prompts",
	mcp.WithResourceDescription("The most recent test generation prompts, newest first"),
	mcp.WithMIMEType("application/json"),
)

var runHistoryResource = mcp.NewResource(runHistoryURI, "Run history",
	mcp.WithResourceDescription("Recorded pipeline runs with timings, steps and errors, newest first"),
	mcp.WithMIMEType("application/json"),
)
