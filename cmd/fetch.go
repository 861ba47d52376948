package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"compass/orchestrator"
	"compass/rssfeeds"
)

var (
	fetchDate      string
	fetchFeeds     []string
	fetchMax       int
	fetchNoExtract bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch RSS feeds into the raw directory",
	Long: `Fetch the configured feed presets and write them to raw_dir/{date}.json,
where the next run picks them up. Feeds may be preset names or URLs.`,
	Example: `  compass fetch
  compass fetch --feed scmp-china --feed cbc-world --max 10
  compass fetch --feed https://example.com/rss.xml --no-extract`,
	Args: cobra.NoArgs,
	RunE: runFetchCmd,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchDate, "date", "", "raw file date YYYY-MM-DD (default today)")
	fetchCmd.Flags().StringSliceVar(&fetchFeeds, "feed", nil, "feed preset or URL, repeatable (default from config)")
	fetchCmd.Flags().IntVar(&fetchMax, "max", 0, "maximum items per feed")
	fetchCmd.Flags().BoolVar(&fetchNoExtract, "no-extract", false, "skip full-text extraction")
}

func runFetchCmd(cmd *cobra.Command, args []string) error {
	date, err := resolveDate(fetchDate)
	if err != nil {
		return err
	}

	fc := cfg.Feeds
	if len(fetchFeeds) > 0 {
		fc.Presets = fetchFeeds
	}
	if fetchMax > 0 {
		fc.MaxPerFeed = fetchMax
	}
	if fetchNoExtract {
		fc.ExtractContent = false
	}

	result, err := orchestrator.FeedFetcher(fc)(cmd.Context())
	if err != nil {
		return err
	}
	path, err := rssfeeds.WriteRawSignals(cfg.Paths.RawDir, date, result)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d signals from %d feeds into %s\n",
		result.SignalCount, len(result.Feeds), path)
	return nil
}
