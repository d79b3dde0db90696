package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules in the organizer workspace",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var clearCmd = &cobra.Command{
	Use:   "clear [NAME...]",
	Short: "Remove schedules from the workspace",
	Long:  `Without arguments, clears the whole workspace. With names, removes only those participants.`,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(clearCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.Participants()
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}
	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "workspace is empty")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTICIPANT\tSLOTS")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\n", info.Name, info.Slots)
	}
	return tw.Flush()
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 0 {
		if err := st.Clear(); err != nil {
			return fmt.Errorf("clear workspace: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "workspace cleared")
		return nil
	}

	for _, name := range args {
		removed, err := st.Remove(name)
		if err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
		if !removed {
			fmt.Fprintf(cmd.ErrOrStderr(), "no schedule for %s\n", name)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", name)
	}
	return nil
}
