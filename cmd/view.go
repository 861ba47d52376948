package cmd

import (
	"github.com/spf13/cobra"

	"compass/tui"
)

var viewDate string

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse a briefing in the terminal",
	Long:  `Open a briefing in a full-screen viewer. Without --date the latest briefing is shown.`,
	Args:  cobra.NoArgs,
	RunE:  runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().StringVar(&viewDate, "date", "", "briefing date YYYY-MM-DD (default latest)")
}

func runView(cmd *cobra.Command, args []string) error {
	if viewDate != "" {
		if _, err := resolveDate(viewDate); err != nil {
			return err
		}
	}
	b, err := tui.Load(cmd.Context(), localReader(), viewDate)
	if err != nil {
		return err
	}
	return tui.Run(b)
}
