package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mcporch/internal/analysis"
	"github.com/ziadkadry99/mcporch/internal/analyzers"
	"github.com/ziadkadry99/mcporch/internal/analyzers/subprocess"
	"github.com/ziadkadry99/mcporch/internal/config"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze source from stdin and print one JSON line",
	Long: `Reads one source unit from stdin, analyzes it with the builtin analyzer for
--language and prints the analysis record (or {"error": ...}) as a single JSON
line on stdout. Exits 1 on error and 124 on timeout, so it can back an
analyzers.<lang>.mode: exec entry.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("language")
		file, _ := cmd.Flags().GetString("file")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		source, err := readSource(file, cmd.InOrStdin())
		if err != nil {
			writeErrorLine(cmd.OutOrStdout(), err)
			return &ExitError{Code: 1, Err: err}
		}
		if code := runAnalyze(cmd.Context(), lang, source, timeout, cmd.OutOrStdout()); code != 0 {
			return &ExitError{Code: code}
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringP("language", "l", "", "language tag (python, java, javascript, typescript, go)")
	analyzeCmd.Flags().StringP("file", "f", "", "read source from a file instead of stdin")
	analyzeCmd.Flags().Duration("timeout", time.Duration(config.DefaultConfig().TimeoutSeconds)*time.Second, "analysis time limit")
	_ = analyzeCmd.MarkFlagRequired("language")
	rootCmd.AddCommand(analyzeCmd)
}

// runAnalyze writes exactly one JSON line to out and returns the exit code.
// Only builtin analyzers are used so an exec route can never recurse.
func runAnalyze(ctx context.Context, lang, source string, timeout time.Duration, out io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	reg := analysis.NewRegistry(timeout)
	if a, ok := analyzers.Builtin(lang); ok {
		reg.Register(a)
	}

	rec, err := reg.Analyze(ctx, lang, source)
	if err != nil {
		writeErrorLine(out, err)
		if analysis.Is(err, analysis.KindTimeout) {
			return subprocess.TimeoutExitCode
		}
		return 1
	}

	data, err := json.Marshal(rec)
	if err != nil {
		writeErrorLine(out, err)
		return 1
	}
	fmt.Fprintln(out, string(data))
	return 0
}

func writeErrorLine(w io.Writer, err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	fmt.Fprintln(w, string(data))
	fmt.Fprintln(os.Stderr, "Error:", err)
}
