package cmd

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run analyze, summarize and prompt on one source unit",
	Long: `Runs the full pipeline on source read from --file or stdin and prints the
result as JSON. Stage failures are reported in meta.errors; the command itself
only fails when the config or input cannot be read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("language")
		file, _ := cmd.Flags().GetString("file")
		promptOnly, _ := cmd.Flags().GetBool("prompt-only")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rt, err := newRuntime(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer rt.Close()

		source, err := readSource(file, cmd.InOrStdin())
		if err != nil {
			return err
		}

		res := rt.service.Run(cmd.Context(), lang, source)
		out := cmd.OutOrStdout()
		if promptOnly && res.Prompt.OK() {
			_, err := out.Write([]byte(res.Prompt.Value.Prompt + "\n"))
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	pipelineCmd.Flags().StringP("language", "l", "", "language tag (python, java, javascript, typescript, go)")
	pipelineCmd.Flags().StringP("file", "f", "", "read source from a file instead of stdin")
	pipelineCmd.Flags().Bool("prompt-only", false, "print only the generated prompt when the run succeeds")
	_ = pipelineCmd.MarkFlagRequired("language")
	rootCmd.AddCommand(pipelineCmd)
}
