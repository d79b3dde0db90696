package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"groupsched/internal/ics"
	appLog "groupsched/internal/log"
)

var (
	inviteSlots    []string
	inviteTitle    string
	inviteWeekly   bool
	inviteDuration int
	inviteOut      string
)

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Export selected meeting slots as a calendar invite",
	Example: `  groupsched invite --slot Wed:14 --title "Team sync" --weekly
  groupsched invite --slot Mon:10 --slot Thu:16 --duration 30 --out meetings.ics`,
	RunE: runInvite,
}

func init() {
	inviteCmd.Flags().StringArrayVarP(&inviteSlots, "slot", "s", nil, "selected slot, DAY:HOUR or DAY:FROM-TO (repeatable)")
	inviteCmd.Flags().StringVarP(&inviteTitle, "title", "t", "", "event title")
	inviteCmd.Flags().BoolVarP(&inviteWeekly, "weekly", "w", false, "repeat the event every week")
	inviteCmd.Flags().IntVarP(&inviteDuration, "duration", "d", 0, "event duration in minutes (default from config)")
	inviteCmd.Flags().StringVarP(&inviteOut, "out", "o", "meeting.ics", "output file")
	_ = inviteCmd.MarkFlagRequired("slot")
	rootCmd.AddCommand(inviteCmd)
}

func runInvite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sel, err := parseSelection(inviteSlots)
	if err != nil {
		return err
	}

	minutes := inviteDuration
	if minutes <= 0 {
		minutes = cfg.EventMinutes
	}

	opts := ics.InviteOptions{
		Title:    inviteTitle,
		Location: cfg.Location(),
		Duration: time.Duration(minutes) * time.Minute,
		Weekly:   inviteWeekly,
	}
	if err := ics.WriteInvite(inviteOut, sel, cfg.Window(), opts); err != nil {
		return fmt.Errorf("write invite: %w", err)
	}

	appLog.Info("invite exported", "path", inviteOut, "slots", len(sel), "weekly", inviteWeekly)
	fmt.Fprintf(cmd.OutOrStdout(), "Invite with %d event(s) written to %s\n", len(sel), inviteOut)
	return nil
}
