package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"groupsched/internal/schedule"
)

var loadCmd = &cobra.Command{
	Use:   "load FILE...",
	Short: "Load schedule files into the organizer workspace",
	Long: `Load one or more exported schedule files into the workspace. Files that
fail to parse are reported individually; the valid ones are still loaded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	scheds, errs := schedule.LoadAll(args, cfg.Window())
	for _, lerr := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", lerr)
	}

	loaded := 0
	for _, sched := range scheds {
		name, err := st.Add(sched)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to store %s: %v\n", sched.Name, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %s (%d slots)\n", name, sched.Grid.Count())
		loaded++
	}

	if loaded == 0 {
		return errors.New("no schedules could be loaded")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d file(s) loaded\n", loaded, len(args))
	return nil
}
