package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"groupsched/internal/model"
	"groupsched/internal/overlap"
)

var rankTop int

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidate meeting slots by group availability",
	Args:  cobra.NoArgs,
	RunE:  runRank,
}

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Print the weekly availability heatmap",
	Args:  cobra.NoArgs,
	RunE:  runHeatmap,
}

func init() {
	rankCmd.Flags().IntVar(&rankTop, "top", 10, "number of slots to show (0 for all)")
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(heatmapCmd)
}

// workspaceHeatmap loads every stored schedule and aggregates it.
func workspaceHeatmap() (*overlap.Heatmap, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := openWorkspace(cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	scheds, err := st.Schedules(cfg.Window())
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	if len(scheds) == 0 {
		return nil, errors.New("workspace is empty; load schedules first")
	}
	return overlap.Aggregate(scheds, cfg.Window()), nil
}

func runRank(cmd *cobra.Command, args []string) error {
	heat, err := workspaceHeatmap()
	if err != nil {
		return err
	}

	total := heat.Total()
	perfect := heat.PerfectMatches()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Participants: %d\n", total)
	fmt.Fprintf(out, "Perfect matches: %d\n\n", len(perfect))

	ranked := heat.Rank()
	if rankTop > 0 && len(ranked) > rankTop {
		ranked = ranked[:rankTop]
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tDAY\tTIME\tCOUNT\tPCT\tPARTICIPANTS")
	for i, cell := range ranked {
		pct := float64(cell.Count) / float64(total) * 100
		fmt.Fprintf(tw, "%d\t%s\t%02d:00\t%d\t%.1f%%\t%s\n",
			i+1, cell.Slot.Day, cell.Slot.Hour, cell.Count, pct,
			strings.Join(cell.Participants, ", "))
	}
	return tw.Flush()
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	heat, err := workspaceHeatmap()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	window := heat.Window()

	fmt.Fprintf(out, "      ")
	for day := model.Monday; day <= model.Sunday; day++ {
		fmt.Fprintf(out, "%5s", day.Short())
	}
	fmt.Fprintln(out)

	for hour := window.StartHour; hour < window.EndHour; hour++ {
		fmt.Fprintf(out, "%02d:00 ", hour)
		for day := model.Monday; day <= model.Sunday; day++ {
			count := heat.Count(model.Slot{Day: day, Hour: hour})
			if count == 0 {
				fmt.Fprintf(out, "%5s", ".")
			} else {
				fmt.Fprintf(out, "%5d", count)
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "\n%d participant(s); counts show how many are available per slot\n", heat.Total())
	return nil
}
