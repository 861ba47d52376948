package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"compass/archive"
	"compass/deduplication"
	"compass/orchestrator"
	"compass/rssfeeds"
	"compass/types"
)

var (
	dedupJSON    bool
	dedupHistory string
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <file>",
	Short: "Deduplicate a raw signal file and report the stats",
	Long: `Run the three dedup tiers (url, title, title+body) over one raw file
and print how many signals each tier dropped.

With --against DATE the file is also checked against the briefings in the
lookback window before that date.`,
	Args: cobra.ExactArgs(1),
	RunE: runDedup,
}

func init() {
	rootCmd.AddCommand(dedupCmd)
	dedupCmd.Flags().BoolVar(&dedupJSON, "json", false, "print the kept signals as JSON instead of stats")
	dedupCmd.Flags().StringVar(&dedupHistory, "against", "", "also deduplicate against history before this date")
}

func runDedup(cmd *cobra.Command, args []string) error {
	signals, err := rssfeeds.LoadRawFile(args[0])
	if err != nil {
		return err
	}
	for i := range signals {
		signals[i].EnsureID()
	}

	var previous []types.Signal
	if dedupHistory != "" {
		date, err := resolveDate(dedupHistory)
		if err != nil {
			return err
		}
		previous = localReader().LoadRecentSignals(cmd.Context(), date, cfg.Dedup.LookbackDays)
	}

	d := deduplication.NewDeduplicator(orchestrator.DedupConfig(*cfg))
	kept, stats := d.Deduplicate(signals, previous)

	out := cmd.OutOrStdout()
	if dedupJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(kept)
	}

	t := newTable(out, "Tier", "Count")
	t.addRow("before", strconv.Itoa(stats.TotalBefore))
	t.addRow("url", strconv.Itoa(stats.DroppedURL))
	t.addRow("title", strconv.Itoa(stats.DroppedTitle))
	t.addRow("title+body", strconv.Itoa(stats.DroppedTitleBody))
	t.addRow("after", strconv.Itoa(stats.TotalAfter))
	if err := t.render(); err != nil {
		return err
	}
	if len(previous) > 0 {
		fmt.Fprintf(out, "Compared against %d signals from history\n", len(previous))
	}
	return nil
}

// localReader reads briefings from the configured directories only.
func localReader() *archive.Reader {
	return archive.NewReader(archive.Config{
		ProcessedDir: cfg.Paths.ProcessedDir,
		ArchiveDir:   cfg.Paths.ArchiveDir,
	})
}
