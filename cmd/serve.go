package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/mcporch/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio exposing the
analyze_function, summarize_flow, build_prompt and run_full_pipeline tools and
the recent analyses, prompts and run history resources.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rt, err := newRuntime(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer rt.Close()

		mcpserver.Version = Version

		var opts []mcpserver.Option
		if rt.history != nil {
			opts = append(opts, mcpserver.WithHistory(rt.history))
		}

		slog.Info("mcporch MCP server started on stdio",
			"languages", rt.service.Registry().Languages(),
			"history", cfg.History.Enabled,
		)
		return mcpserver.NewServer(rt.service, opts...).Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
