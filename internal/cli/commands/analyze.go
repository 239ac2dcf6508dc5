package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/analyzer"
	"github.com/leapstack-labs/prima/internal/cli/output"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <session-id|file.csv>",
		Short: "Show column statistics",
		Long: `Show per-column statistics for an uploaded session sample or a local CSV:
type, missing values, unique values and a distribution (10 equal-width bins
for numeric columns, the 10 most frequent values otherwise).`,
		Example: `  prima analyze 2f1c0e9a-5b7d-4c1e-9d55-1f3f1f0f6a10
  prima analyze data.csv -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0])
		},
	}
}

func runAnalyze(cmd *cobra.Command, target string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var report *analyzer.Report
	if isLocalCSV(target) {
		report, err = cc.Engine.AnalyzeFile(cmd.Context(), target)
	} else {
		report, err = cc.Engine.Analyze(cmd.Context(), target)
	}
	if err != nil {
		return fmt.Errorf("analysis of %s failed: %w", target, err)
	}

	return renderReport(cc.Renderer, target, report)
}

func isLocalCSV(target string) bool {
	if !strings.EqualFold(filepath.Ext(target), ".csv") {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && !info.IsDir()
}

func renderReport(r *output.Renderer, target string, report *analyzer.Report) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(report)
	}

	r.Header(1, "Analysis: "+target)
	r.Println(output.FormatKeyValue("Rows", strconv.FormatInt(report.TotalRows, 10)))
	r.Println(output.FormatKeyValue("Columns", strconv.Itoa(report.TotalCols)))
	r.Println("")

	rows := make([][]string, len(report.Columns))
	for i, c := range report.Columns {
		rows[i] = []string{
			c.Name,
			c.Type,
			fmt.Sprintf("%d (%.1f%%)", c.Missing, c.MissingPct),
			strconv.FormatInt(c.Unique, 10),
			formatBuckets(c.Distribution),
		}
	}
	r.Table([]string{"column", "type", "missing", "unique", "distribution"}, rows)
	return nil
}

func formatBuckets(buckets []analyzer.Bucket) string {
	parts := make([]string, len(buckets))
	for i, b := range buckets {
		parts[i] = fmt.Sprintf("%s: %d", b.Label, b.Value)
	}
	return strings.Join(parts, "; ")
}
