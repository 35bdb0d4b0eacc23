package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vahan-scraper/internal/di"
)

var (
	workDir string
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:          "vahan",
	Short:        "vahan scrapes registration exports from the Vahan dashboard and merges them into one CSV.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "d", ".", "directory holding vahan.yaml, .env and the lookup JSON files")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "log UI actions instead of driving a browser")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func container(ctx context.Context, runName string, scrape bool, download *bool) (*di.Container, error) {
	return di.NewContainer(ctx, di.Config{
		Dir:      workDir,
		RunName:  runName,
		Scrape:   scrape,
		DryRun:   dryRun,
		Download: download,
	})
}
