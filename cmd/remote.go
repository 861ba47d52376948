package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"compass/client"
	"compass/orchestrator"
	"compass/scheduler"
)

var (
	serverURL    string
	triggerDate  string
	triggerFetch bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the scheduler state of a running server",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Ask a running server to start a run",
	Long: `Start a run on a running server. The run happens in the background;
use "compass status" to follow it.`,
	Args: cobra.NoArgs,
	RunE: runTrigger,
}

func init() {
	rootCmd.AddCommand(statusCmd, triggerCmd)
	for _, c := range []*cobra.Command{statusCmd, triggerCmd} {
		c.Flags().StringVar(&serverURL, "server", "", "server URL (default $COMPASS_SERVER or "+client.DefaultBaseURL+")")
	}
	triggerCmd.Flags().StringVar(&triggerDate, "date", "", "briefing date YYYY-MM-DD (default today on the server)")
	triggerCmd.Flags().BoolVar(&triggerFetch, "fetch", false, "fetch RSS feeds before processing")
}

func newClient() *client.Client {
	url := serverURL
	if url == "" {
		url = client.GetEnvOrDefault("COMPASS_SERVER", client.DefaultBaseURL)
	}
	return client.NewClient(url)
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := newClient().Status(cmd.Context())
	if err != nil {
		return err
	}
	return printStatus(cmd.OutOrStdout(), status)
}

func runTrigger(cmd *cobra.Command, args []string) error {
	if triggerDate != "" {
		if _, err := resolveDate(triggerDate); err != nil {
			return err
		}
	}
	status, err := newClient().TriggerRun(cmd.Context(), orchestrator.Request{Date: triggerDate, Fetch: triggerFetch})
	if errors.Is(err, client.ErrBusy) {
		return fmt.Errorf("server is busy: %w", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Run started")
	return printStatus(cmd.OutOrStdout(), status)
}

func printStatus(w io.Writer, s *scheduler.Status) error {
	t := newTable(w, "Field", "Value")
	t.addRow("State", string(s.State))
	if s.Schedule != "" {
		t.addRow("Schedule", s.Schedule)
	}
	if s.NextRun != nil {
		t.addRow("Next run", s.NextRun.Local().Format(time.DateTime))
	}
	if s.Current != nil {
		date := s.Current.Date
		if date == "" {
			date = "today"
		}
		t.addRow("Current", date)
	}
	if r := s.LastRun; r != nil {
		t.addRow("Last run", fmt.Sprintf("%s %s (%d signals)", r.Date, r.Status, r.Signals))
	}
	if s.Error != "" {
		t.addRow("Error", s.Error)
	}
	if err := t.render(); err != nil {
		return err
	}
	for _, l := range s.Logs {
		fmt.Fprintf(w, "%s  %s\n", l.Timestamp.Local().Format(time.TimeOnly), l.Message)
	}
	return nil
}
