package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var scrapeFlags selectionFlags

func init() {
	scrapeFlags.register(scrapeCmd)
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrapes the selected states, years and products from the dashboard.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := scrapeFlags.selection(workDir)
		if err != nil {
			return err
		}
		if len(sel.States) == 0 {
			return errors.New("no states selected; use --state or user_config.json")
		}

		c, err := container(cmd.Context(), "scrape", true, scrapeFlags.download())
		if err != nil {
			return err
		}
		defer c.Close()

		summary, _ := c.Pipeline.Scrape(cmd.Context(), sel)
		if summary.Aborted != "" {
			return fmt.Errorf("scrape aborted: %s", summary.Aborted)
		}
		if n := len(summary.Failed); n > 0 {
			return fmt.Errorf("%d of %d tasks failed", n, summary.Total)
		}
		return cmd.Context().Err()
	},
}
