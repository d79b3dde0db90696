package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	appLog "groupsched/internal/log"
	"groupsched/internal/overlap"
)

var (
	analyzeOut    string
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Export the full availability analysis table",
	Long: `Write one row per grid cell with the availability count, participant total
and percentage, either as TSV or as a spreadsheet. The format follows the
output file extension unless --format overrides it.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "schedule_analysis.tsv", "output file")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "", "output format: tsv or xlsx (default from extension)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	heat, err := workspaceHeatmap()
	if err != nil {
		return err
	}

	format := analyzeFormat
	if format == "" {
		if strings.EqualFold(filepath.Ext(analyzeOut), ".xlsx") {
			format = "xlsx"
		} else {
			format = "tsv"
		}
	}

	w, err := overlap.NewAnalysisWriter(format)
	if err != nil {
		return err
	}
	if err := w.Write(heat, analyzeOut); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}

	appLog.Info("analysis exported", "path", analyzeOut, "format", format, "participants", heat.Total())
	fmt.Fprintf(cmd.OutOrStdout(), "Analysis for %d participant(s) written to %s\n", heat.Total(), analyzeOut)
	return nil
}
