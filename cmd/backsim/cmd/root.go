package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backsim",
	Short: "Replay trading strategies over historical stock data",
	Long: `Backsim replays signal-annotated daily price series through a
portfolio simulation and reports the resulting equity curve and trades.

It provides tools for:
  - Replaying channel-breakout strategies over flat-file price archives
  - Downloading daily bars from Postgres into per-symbol CSV files
  - Exporting results as CSV and into a SQLite journal`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
