package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mcporch/internal/analyzers"
	"github.com/ziadkadry99/mcporch/internal/analyzersvc"
	"github.com/ziadkadry99/mcporch/internal/server"
)

var analyzerServiceCmd = &cobra.Command{
	Use:   "analyzer-service",
	Short: "Serve one builtin analyzer over HTTP",
	Long: `Runs a builtin analyzer as an HTTP service (POST /analyze, GET /health) that
other mcporch instances reach with analyzers.<lang>.mode: remote.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("language")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.AnalyzerService.Port, _ = cmd.Flags().GetInt("port")
		}

		a, ok := analyzers.Builtin(lang)
		if !ok {
			return fmt.Errorf("no builtin analyzer for %q", lang)
		}
		svc := analyzersvc.New(a, cfg.Timeout())

		srv := server.New(server.Config{
			Host:     cfg.AnalyzerService.Host,
			Port:     cfg.AnalyzerService.Port,
			AllowAll: true,
		}, slog.Default())
		svc.RegisterRoutes(srv.Router())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("analyzer service starting", "service", svc.Name(), "addr", srv.Addr())
		return srv.Run(ctx)
	},
}

func init() {
	analyzerServiceCmd.Flags().StringP("language", "l", "java", "language to serve")
	analyzerServiceCmd.Flags().Int("port", 0, "port to listen on (overrides analyzer_service.port)")
	rootCmd.AddCommand(analyzerServiceCmd)
}
