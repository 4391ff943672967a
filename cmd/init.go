package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mcporch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mcporch configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose analyzer routing and run history and writes the config file (default .mcporch.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
