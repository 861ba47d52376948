package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"compass/orchestrator"
	"compass/shared/kafka"
)

var (
	runDate  string
	runFetch bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the briefing for one day",
	Long: `Run the pipeline once: load raw signals, classify, deduplicate against
recent history, score tension, compare with the previous briefing and
write the processed and archive files.

With --fetch the configured RSS feeds are collected into raw_dir first.
The run is recorded in the run history whether or not it succeeds.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDate, "date", "", "briefing date YYYY-MM-DD (default today)")
	runCmd.Flags().BoolVar(&runFetch, "fetch", false, "fetch RSS feeds before processing")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	date, err := resolveDate(runDate)
	if err != nil {
		return err
	}

	res, err := orchestrator.Connect(ctx, *cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	var events orchestrator.Publisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		})
		if err != nil {
			return err
		}
		defer producer.Close()
		events = producer
	}

	pipeline, err := orchestrator.Build(*cfg, res, events)
	if err != nil {
		return err
	}

	result, runErr := pipeline.Run(ctx, orchestrator.Request{Date: date, Fetch: runFetch})
	if result != nil {
		if err := printRunResult(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}
	return runErr
}

func printRunResult(w io.Writer, r *orchestrator.RunResult) error {
	t := newTable(w, "Field", "Value")
	t.addRow("Run", r.RunID)
	t.addRow("Date", r.Date)
	t.addRow("Status", r.Status)
	if r.Error != "" {
		t.addRow("Error", r.Error)
	}
	t.addRow("Volume", strconv.Itoa(r.Volume))
	t.addRow("Signals", fmt.Sprintf("%d -> %d", r.Dedup.TotalBefore, r.Dedup.TotalAfter))
	t.addRow("Dropped", fmt.Sprintf("url %d, title %d, title+body %d",
		r.Dedup.DroppedURL, r.Dedup.DroppedTitle, r.Dedup.DroppedTitleBody))
	t.addRow("Seen before", strconv.Itoa(r.SeenBefore))
	if r.Level != "" {
		t.addRow("Tension", fmt.Sprintf("%.1f (%s)", r.Composite, r.Level))
	}
	t.addRow("Situations", strconv.Itoa(r.Situations))
	t.addRow("Entities", strconv.Itoa(r.Entities))
	if len(r.Paths) > 0 {
		t.addRow("Written", strings.Join(r.Paths, "\n"))
	}
	return t.render()
}
