package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mcporch/internal/analyzers"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every remote analyzer endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := analyzers.NewRegistry(cfg)
		if err != nil {
			return err
		}

		remotes := analyzers.Remotes(reg)
		out := cmd.OutOrStdout()
		if len(remotes) == 0 {
			fmt.Fprintln(out, "No remote analyzers configured.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LANGUAGE\tENDPOINT\tSTATUS")
		down := 0
		for _, c := range remotes {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			hs, err := c.Health(ctx)
			cancel()

			status := ""
			switch {
			case err != nil:
				down++
				status = "DOWN: " + err.Error()
				slog.Debug("health probe failed", "language", c.Language(), "error", err)
			case hs.Status != "UP":
				down++
				status = hs.Status
			default:
				status = hs.Status
				if hs.Service != "" {
					status += " (" + hs.Service + ")"
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Language(), c.Endpoint(), status)
		}
		tw.Flush()

		if down > 0 {
			return fmt.Errorf("%d of %d remote analyzers unhealthy", down, len(remotes))
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().Duration("timeout", 5*time.Second, "per-endpoint probe timeout")
	rootCmd.AddCommand(healthCmd)
}
