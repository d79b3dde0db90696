package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	appLog "groupsched/internal/log"
	"groupsched/internal/model"
	"groupsched/internal/schedule"
)

var (
	exportName  string
	exportSlots []string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Create your availability schedule and export it as a TSV file",
	Example: `  groupsched export --name John --slot Mon:10-12 --slot Wed:14
  groupsched export --name Ada --slot Fri:9-11 --out ada.csv`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportName, "name", "n", "", "your name (required)")
	exportCmd.Flags().StringArrayVarP(&exportSlots, "slot", "s", nil, "available slot, DAY:HOUR or DAY:FROM-TO (repeatable)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default schedule_<name>.tsv)")
	_ = exportCmd.MarkFlagRequired("name")
	_ = exportCmd.MarkFlagRequired("slot")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	grid := model.NewGrid(cfg.Window())
	for _, spec := range exportSlots {
		day, from, to, err := parseSlotRange(spec)
		if err != nil {
			return err
		}
		if err := grid.SetRange(day, from, to); err != nil {
			return fmt.Errorf("slot %q: %w", spec, err)
		}
	}

	out := exportOut
	if out == "" {
		out = fmt.Sprintf("schedule_%s.tsv", exportName)
	}

	sched := model.ParticipantSchedule{Name: exportName, Grid: grid}
	if err := schedule.ExportFile(out, sched); err != nil {
		return fmt.Errorf("export schedule: %w", err)
	}

	appLog.Info("schedule exported", "participant", exportName, "slots", grid.Count(), "path", out)
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d slot(s) for %s to %s\n", grid.Count(), exportName, out)
	return nil
}
