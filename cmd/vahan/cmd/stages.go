package cmd

import (
	"github.com/spf13/cobra"
)

var (
	emailTo   string
	emailFile string
)

func init() {
	emailCmd.Flags().StringVar(&emailTo, "to", "", "recipient address")
	emailCmd.Flags().StringVar(&emailFile, "file", "", "file to attach (defaults to the merged output)")
	_ = emailCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(convertCmd, mergeCmd, emailCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Converts every downloaded spreadsheet into a per-file CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container(cmd.Context(), "convert", false, nil)
		if err != nil {
			return err
		}
		defer c.Close()

		_, err = c.Pipeline.Convert(cmd.Context())
		return err
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merges the converted CSVs into the final output and per-state files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container(cmd.Context(), "merge", false, nil)
		if err != nil {
			return err
		}
		defer c.Close()

		_, err = c.Pipeline.Merge(cmd.Context())
		return err
	},
}

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Emails a file, by default the merged output.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container(cmd.Context(), "email", false, nil)
		if err != nil {
			return err
		}
		defer c.Close()

		file := emailFile
		if file == "" {
			file = c.Settings.Resolve(c.Settings.Paths.Output)
		}
		return c.Pipeline.Email(cmd.Context(), emailTo, file)
	},
}
