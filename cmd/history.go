package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"compass/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent pipeline runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("invalid limit %d: must be positive", historyLimit)
	}
	runs, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer runs.Close()

	recent, err := runs.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(recent) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	t := newTable(out, "Run", "Date", "Status", "Signals", "Dropped", "Tension", "Finished")
	for _, r := range recent {
		tension := "-"
		if r.Level != "" {
			tension = fmt.Sprintf("%.1f %s", r.Composite, r.Level)
		}
		t.addRow(
			shortID(r.RunID),
			r.Date,
			r.Status,
			fmt.Sprintf("%d -> %d", r.SignalsIn, r.SignalsOut),
			strconv.Itoa(r.DroppedURL+r.DroppedTitle+r.DroppedTitleBody),
			tension,
			r.FinishedAt.Local().Format(time.DateTime),
		)
	}
	return t.render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
