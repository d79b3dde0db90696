// Package cli wires the groupsched subcommands: creating and exporting
// availability schedules, loading them into the organizer workspace,
// ranking overlaps, and exporting calendar invites.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"groupsched/internal/config"
	appLog "groupsched/internal/log"
	"groupsched/internal/model"
	"groupsched/internal/store"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "groupsched",
	Short: "Local group availability coordination",
	Long: `groupsched coordinates meeting availability for small groups without any
cloud service: participants export weekly availability grids as TSV files,
the organizer loads them, ranks the overlapping slots, and exports chosen
times as calendar invites.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			appLog.SetLevel(appLog.LevelDebug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath(), "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openWorkspace(cfg *config.Config) (*store.Store, error) {
	path, err := cfg.ResolveWorkspacePath()
	if err != nil {
		return nil, fmt.Errorf("resolve workspace path: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", path, err)
	}
	return st, nil
}

// parseSlotRange parses a slot spec of the form "Wed:14" (one slot) or
// "Wed:14-16" (an inclusive same-day range, the CLI version of the drag
// gesture).
func parseSlotRange(spec string) (model.Day, int, int, error) {
	dayPart, hourPart, ok := strings.Cut(spec, ":")
	if !ok {
		return 0, 0, 0, fmt.Errorf("bad slot %q: expected DAY:HOUR or DAY:FROM-TO", spec)
	}

	day, err := model.ParseDay(dayPart)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad slot %q: %w", spec, err)
	}

	fromStr, toStr, isRange := strings.Cut(hourPart, "-")
	from, err := strconv.Atoi(strings.TrimSpace(fromStr))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad slot %q: hour %q is not a number", spec, fromStr)
	}
	to := from
	if isRange {
		to, err = strconv.Atoi(strings.TrimSpace(toStr))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("bad slot %q: hour %q is not a number", spec, toStr)
		}
	}
	if from > to {
		from, to = to, from
	}
	return day, from, to, nil
}

// parseSelection flattens slot specs into a selection of individual slots.
func parseSelection(specs []string) (model.Selection, error) {
	var sel model.Selection
	for _, spec := range specs {
		day, from, to, err := parseSlotRange(spec)
		if err != nil {
			return nil, err
		}
		for hour := from; hour <= to; hour++ {
			sel = append(sel, model.Slot{Day: day, Hour: hour})
		}
	}
	return sel, nil
}
