package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mcporch/internal/api"
	"github.com/ziadkadry99/mcporch/internal/history"
	"github.com/ziadkadry99/mcporch/internal/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API exposing the pipeline operations under /api, the
recent result caches and, when history is enabled, /api/runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("allow-all") {
			cfg.Server.AllowAll, _ = cmd.Flags().GetBool("allow-all")
		}

		rt, err := newRuntime(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer rt.Close()

		srv := server.New(server.Config{
			Host:     cfg.Server.Host,
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAll,
		}, slog.Default())

		api.RegisterRoutes(srv.Router(), rt.service)
		if rt.history != nil {
			history.RegisterRoutes(srv.Router(), rt.history)
		}

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("mcporch server starting",
			"version", Version,
			"addr", srv.Addr(),
			"languages", rt.service.Registry().Languages(),
			"history", cfg.History.Enabled,
		)
		return srv.Run(ctx)
	},
}

func init() {
	serverCmd.Flags().Int("port", 0, "port to listen on (overrides server.port)")
	serverCmd.Flags().Bool("allow-all", false, "allow all CORS origins")
	rootCmd.AddCommand(serverCmd)
}
