package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"compass/compile"
	"compass/orchestrator"
)

var (
	volumeDate        string
	timelineStart     string
	timelineEnd       string
	milestoneCategory string
)

var compileVolumeCmd = &cobra.Command{
	Use:   "compile-volume",
	Short: "Compile last month's briefings into a monthly volume",
	Long: `Aggregate every archived briefing from the calendar month before --date
into the next numbered volume under archive/volumes.`,
	Args: cobra.NoArgs,
	RunE: runCompileVolume,
}

var compileTimelineCmd = &cobra.Command{
	Use:   "compile-timeline",
	Short: "Merge archived briefings into the Canada-China timeline",
	Long: `Add milestone, critical and high severity signals from the archive to the
timeline in timelines_dir, along with each day's tension score. Events
already on the timeline are left alone.`,
	Args: cobra.NoArgs,
	RunE: runCompileTimeline,
}

var markMilestoneCmd = &cobra.Command{
	Use:   "mark-milestone <signal-id>",
	Short: "Flag an archived signal as a timeline milestone",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkMilestone,
}

func init() {
	rootCmd.AddCommand(compileVolumeCmd, compileTimelineCmd, markMilestoneCmd)
	compileVolumeCmd.Flags().StringVar(&volumeDate, "date", "", "reference date YYYY-MM-DD; the month before it is compiled (default today)")
	compileTimelineCmd.Flags().StringVar(&timelineStart, "start-date", "", "first briefing date to include")
	compileTimelineCmd.Flags().StringVar(&timelineEnd, "end-date", "", "last briefing date to include")
	markMilestoneCmd.Flags().StringVar(&milestoneCategory, "timeline-category", "",
		"timeline category: "+strings.Join(compile.TimelineCategories, ", "))
}

// withCompiler runs fn with a compiler over the configured archive and its
// mirrors.
func withCompiler(ctx context.Context, fn func(*compile.Compiler) error) error {
	res, err := orchestrator.Connect(ctx, *cfg)
	if err != nil {
		return err
	}
	defer res.Close()
	return fn(compile.New(res.Archive(*cfg), cfg.Paths.TimelinesDir))
}

func runCompileVolume(cmd *cobra.Command, args []string) error {
	date, err := resolveDate(volumeDate)
	if err != nil {
		return err
	}
	return withCompiler(cmd.Context(), func(c *compile.Compiler) error {
		v, err := c.Volume(cmd.Context(), date)
		if err != nil {
			return err
		}
		paths, err := c.WriteVolume(cmd.Context(), v)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Volume %d: %s to %s, %d briefings, %d signals\n",
			v.VolumeNumber, v.PeriodStart, v.PeriodEnd, v.BriefingCount, v.SignalCount)
		if err := printCounts(out, "Category", v.CategoryBreakdown); err != nil {
			return err
		}
		printPaths(out, paths)
		return nil
	})
}

func runCompileTimeline(cmd *cobra.Command, args []string) error {
	for _, d := range []string{timelineStart, timelineEnd} {
		if d == "" {
			continue
		}
		if _, err := resolveDate(d); err != nil {
			return err
		}
	}
	return withCompiler(cmd.Context(), func(c *compile.Compiler) error {
		tl, err := c.Timeline(cmd.Context(), timelineStart, timelineEnd)
		if err != nil {
			return err
		}
		paths, err := c.WriteTimeline(cmd.Context(), tl)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Timeline %s: %d events (%d milestones), %d tension points from %d briefings\n",
			tl.ID, tl.Metadata.TotalEvents, tl.Metadata.TotalMilestones, len(tl.TensionTrend), tl.Metadata.SourceBriefings)
		printPaths(out, paths)
		return nil
	})
}

func runMarkMilestone(cmd *cobra.Command, args []string) error {
	return withCompiler(cmd.Context(), func(c *compile.Compiler) error {
		date, err := c.MarkMilestone(cmd.Context(), args[0], milestoneCategory)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as a milestone in the %s briefing\n", args[0], date)
		return nil
	})
}

func printCounts(w io.Writer, label string, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := newTable(w, label, "Signals")
	for _, k := range keys {
		t.addRow(k, strconv.Itoa(counts[k]))
	}
	return t.render()
}

func printPaths(w io.Writer, paths []string) {
	for _, p := range paths {
		fmt.Fprintf(w, "  wrote %s\n", p)
	}
}
