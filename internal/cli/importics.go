package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"groupsched/internal/ics"
	appLog "groupsched/internal/log"
	"groupsched/internal/model"
	"groupsched/internal/schedule"
)

var (
	importName string
	importOut  string
)

var importICSCmd = &cobra.Command{
	Use:   "import-ics FILE",
	Short: "Derive an availability schedule from a personal ICS calendar",
	Long: `Read a personal calendar file, expand its events (including weekly
recurrences) over the coming week, and export the free working hours as an
availability schedule. Every slot not covered by a busy event counts as
available.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportICS,
}

func init() {
	importICSCmd.Flags().StringVarP(&importName, "name", "n", "", "your name (required)")
	importICSCmd.Flags().StringVarP(&importOut, "out", "o", "", "output file (default schedule_<name>.tsv)")
	_ = importICSCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(importICSCmd)
}

func runImportICS(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	events, err := ics.ParseBusyFile(args[0])
	if err != nil {
		return fmt.Errorf("parse calendar %s: %w", args[0], err)
	}

	loc := cfg.Location()
	grid, err := ics.AvailabilityFromBusy(events, ics.ImportConfig{
		Location:  loc,
		WeekStart: ics.NextWeekStart(time.Now(), loc),
		Window:    cfg.Window(),
	})
	if err != nil {
		return fmt.Errorf("derive availability: %w", err)
	}

	out := importOut
	if out == "" {
		out = fmt.Sprintf("schedule_%s.tsv", importName)
	}

	sched := model.ParticipantSchedule{Name: importName, Grid: grid}
	if err := schedule.ExportFile(out, sched); err != nil {
		return fmt.Errorf("export schedule: %w", err)
	}

	appLog.Info("availability imported from calendar",
		"source", args[0], "participant", importName, "free_slots", grid.Count(), "path", out)
	fmt.Fprintf(cmd.OutOrStdout(), "Derived %d free slot(s) from %s, written to %s\n",
		grid.Count(), args[0], out)
	return nil
}
