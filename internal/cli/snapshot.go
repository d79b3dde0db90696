package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"groupsched/internal/capture"
	appLog "groupsched/internal/log"
)

var (
	snapshotURL     string
	snapshotOut     string
	snapshotWidth   int
	snapshotHeight  int
	snapshotTimeout int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the heatmap page as a PNG image",
	Long: `Render the web UI heatmap in a headless Chromium instance and save a
PNG screenshot. Requires a running "groupsched serve" instance and a local
Chromium or Chrome installation. Useful for sharing the current availability
picture with the group without giving everyone access to the server.`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotURL, "url", "u", "", "heatmap page URL (default http://<listen>/)")
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "heatmap.png", "output PNG file")
	snapshotCmd.Flags().IntVar(&snapshotWidth, "width", 0, "viewport width in pixels")
	snapshotCmd.Flags().IntVar(&snapshotHeight, "height", 0, "viewport height in pixels")
	snapshotCmd.Flags().IntVar(&snapshotTimeout, "timeout", 0, "capture timeout in seconds")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	url := snapshotURL
	if url == "" {
		url = fmt.Sprintf("http://%s/", cfg.Listen)
	}

	opts := capture.Options{
		URL:        url,
		OutputPath: snapshotOut,
		Width:      snapshotWidth,
		Height:     snapshotHeight,
		Timeout:    time.Duration(snapshotTimeout) * time.Second,
	}
	if err := capture.HeatmapPNG(context.Background(), opts); err != nil {
		return err
	}

	appLog.Info("heatmap snapshot captured", "url", url, "path", snapshotOut)
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot written to %s\n", snapshotOut)
	return nil
}
