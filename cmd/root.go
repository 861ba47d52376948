// Package cmd contains all CLI commands for compass
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"compass/config"
	"compass/logging"
	"compass/types"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "compass",
	Short: "Canada-China news signal pipeline",
	Long: `compass turns a day of Canada-China news signals into a deduplicated,
classified briefing with a tension index and trend comparison.

Example usage:
  compass fetch                  # Fetch the configured RSS feeds into raw_dir
  compass run                    # Build today's briefing
  compass run --date 2026-02-01  # Rebuild one day
  compass history                # List recent runs
  compass view                   # Browse the latest briefing
  compass serve                  # Start the API and the daily schedule`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./compass.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// initConfig loads the configuration and sets up logging.
func initConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.Init(cmd.ErrOrStderr(), level)
}

// resolveDate defaults an empty date to today and rejects malformed ones.
func resolveDate(date string) (string, error) {
	if date == "" {
		return time.Now().Format(types.DateLayout), nil
	}
	if _, err := time.Parse(types.DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return date, nil
}
