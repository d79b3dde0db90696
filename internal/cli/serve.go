package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"groupsched/internal/config"
	appLog "groupsched/internal/log"
	"groupsched/internal/schedule"
	"groupsched/internal/store"
	"groupsched/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web UI",
	Long: `Serve the organizer UI and JSON API on the configured listen address.
When watch_dir is configured, the directory is rescanned for schedule files
on the configured cron schedule and the workspace is replaced with its
contents.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "HTTP listen address (overrides config if set)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	st, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	appLog.Info("groupsched serve starting",
		"listen", cfg.Listen,
		"watch_dir", cfg.WatchDir,
		"refresh", cfg.RefreshCron,
		"window_start", cfg.DayStartHour,
		"window_end", cfg.DayEndHour,
	)

	srv := web.NewServer(cfg, st)

	if cfg.WatchDir != "" {
		rescan := func() { rescanWatchDir(cfg, st, srv) }
		c := cron.New()
		if _, err := c.AddFunc(cfg.RefreshCron, rescan); err != nil {
			return fmt.Errorf("bad refresh cron %q: %w", cfg.RefreshCron, err)
		}
		// One synchronous pass before serving so the first page load is
		// already populated.
		rescan()
		c.Start()
		defer c.Stop()
	}

	return web.StartServer(ctx, cfg, srv)
}

// rescanWatchDir replaces the workspace contents with the schedule files
// currently present in the watch directory. Per-file failures are logged and
// skipped; they never abort the scan.
func rescanWatchDir(cfg *config.Config, st *store.Store, srv *web.Server) {
	var paths []string
	for _, pattern := range []string{"*.tsv", "*.csv"} {
		matches, err := filepath.Glob(filepath.Join(cfg.WatchDir, pattern))
		if err != nil {
			appLog.Error("watch dir glob failed", err, "dir", cfg.WatchDir, "pattern", pattern)
			return
		}
		paths = append(paths, matches...)
	}

	scheds, errs := schedule.LoadAll(paths, cfg.Window())
	if err := st.ReplaceAll(scheds); err != nil {
		appLog.Error("watch dir rescan: workspace update failed", err, "dir", cfg.WatchDir)
		return
	}
	srv.InvalidateCache()

	appLog.Info("watch dir rescan completed",
		"dir", cfg.WatchDir,
		"loaded", len(scheds),
		"failed", len(errs),
	)
}
