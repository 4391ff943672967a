package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/mcporch/internal/pipeline"
	"github.com/ziadkadry99/mcporch/internal/progress"
	"github.com/ziadkadry99/mcporch/internal/walker"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Run the pipeline on every supported file under a directory",
	Long: `Walks a directory (default ".") honoring .gitignore and the scan include and
exclude globs, runs every supported source file through the pipeline with a
bounded worker pool and prints a per-file summary.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Int("concurrency", 0, "files analyzed in parallel (overrides scan.concurrency)")
	scanCmd.Flags().StringSlice("include", nil, "include globs (overrides scan.include)")
	scanCmd.Flags().StringSlice("exclude", nil, "extra exclude globs")
	scanCmd.Flags().Bool("tests", false, "also analyze existing test files")
	scanCmd.Flags().Bool("json", false, "print results as JSON")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	start := time.Now()
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		cfg.Scan.Concurrency = n
	}
	if inc, _ := cmd.Flags().GetStringSlice("include"); len(inc) > 0 {
		cfg.Scan.Include = inc
	}
	exc, _ := cmd.Flags().GetStringSlice("exclude")
	cfg.Scan.Exclude = append(cfg.Scan.Exclude, exc...)
	if tests, _ := cmd.Flags().GetBool("tests"); tests {
		cfg.Scan.IncludeTests = true
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	rt, err := newRuntime(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer rt.Close()

	files, err := walker.Walk(cmd.Context(), walker.Config{
		RootDir:      root,
		Include:      cfg.Scan.Include,
		Exclude:      cfg.Scan.Exclude,
		MaxFileSize:  cfg.Scan.MaxFileSize,
		Languages:    rt.service.Registry().Languages(),
		IncludeTests: cfg.Scan.IncludeTests,
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No supported source files found under %s\n", root)
		return nil
	}

	reporter := progress.NewReporter(os.Stderr)
	if verbose {
		reporter = progress.Nop{}
	}
	reporter.Start(len(files))
	batcher := pipeline.NewBatcher(rt.service, cfg.Scan.Concurrency, func(done, total int, relPath string) {
		reporter.Update(done, relPath)
	})
	items := batcher.Process(cmd.Context(), files)
	reporter.Finish()

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			return err
		}
	} else {
		writeScanSummary(out, items)
	}

	failed := countFailed(items)
	fmt.Fprintf(os.Stderr, "Scanned %d files in %s (%d failed)\n", len(items), time.Since(start).Round(time.Millisecond), failed)
	return nil
}

// writeScanSummary prints one row per file.
func writeScanSummary(w io.Writer, items []pipeline.ScanItem) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLANGUAGE\tSTATE\tFUNCTIONS\tCOMPLEXITY\tTOKENS\tERROR")
	for _, item := range items {
		lang, state, errMsg := item.File.Language, "-", ""
		functions, complexity, tokens := "-", "-", "-"
		switch {
		case item.Err != nil:
			errMsg = item.Err.Error()
		case item.Result != nil:
			res := item.Result
			state = string(res.Meta.State)
			if res.Analysis.OK() {
				functions = fmt.Sprint(len(res.Analysis.Value.Functions))
				complexity = fmt.Sprint(res.Analysis.Value.Complexity)
			}
			if res.Prompt.OK() {
				tokens = fmt.Sprint(res.Prompt.Value.TokensEst)
			}
			if len(res.Meta.Errors) > 0 {
				errMsg = res.Meta.Errors[0].Message
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", item.File.RelPath, lang, state, functions, complexity, tokens, errMsg)
	}
	tw.Flush()
}

func countFailed(items []pipeline.ScanItem) int {
	n := 0
	for _, item := range items {
		if item.Err != nil || (item.Result != nil && len(item.Result.Meta.Errors) > 0) {
			n++
		}
	}
	return n
}
