package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd, clearCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints task counts per status and the failed tasks from the progress file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container(cmd.Context(), "status", false, nil)
		if err != nil {
			return err
		}
		defer c.Close()

		c.Reporter.ShowStatus(c.Progress.Summary())
		c.Reporter.ShowFailures(c.Progress.Records())
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deletes downloads, converted files, merged output and all progress.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container(cmd.Context(), "clear", false, nil)
		if err != nil {
			return err
		}
		defer c.Close()

		return c.Pipeline.Clear(cmd.Context())
	},
}
