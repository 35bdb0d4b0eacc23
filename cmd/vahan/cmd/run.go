package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vahan-scraper/internal/usecase/pipeline"
)

var (
	runFlags     selectionFlags
	runRecipient string
)

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&runRecipient, "to", "", "email the merged CSV to this address")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrapes live years, injects archived years, converts, merges and optionally emails the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := runFlags.selection(workDir)
		if err != nil {
			return err
		}

		c, err := container(cmd.Context(), "run", true, runFlags.download())
		if err != nil {
			return err
		}
		defer c.Close()

		res, err := c.Pipeline.Run(cmd.Context(), pipeline.Request{Selection: sel, Recipient: runRecipient})
		if err != nil {
			return err
		}
		if res.EmailErr != nil {
			return fmt.Errorf("pipeline finished but %w", res.EmailErr)
		}
		return nil
	},
}
