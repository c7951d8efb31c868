package cmd

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"backsim/config"
	"backsim/internal/pricedata"
	"backsim/internal/repository"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download daily bars from Postgres into the flat-file archive",
	Long: `Download fetches historical daily bars from the pricing database
and writes one <symbol>_pricing.csv per symbol so replays can run
without a database.

The connection string is read from DATABASE_URL (a .env file in the
working directory is loaded when present).

Example:
  backsim download -o data -s ALIOR -s CDR --start 2019-01-01 --end 2020-12-31`,
	RunE: runDownload,
}

var (
	dlOutDir  string
	dlSymbols []string
	dlStart   string
	dlEnd     string
)

const dlDateLayout = "2006-01-02"

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&dlOutDir, "out", "o", "data", "directory for the pricing CSV files")
	downloadCmd.Flags().StringSliceVarP(&dlSymbols, "symbol", "s", nil, "symbol to download (repeatable; default: all)")
	downloadCmd.Flags().StringVar(&dlStart, "start", "1990-01-01", "first date to download (YYYY-MM-DD)")
	downloadCmd.Flags().StringVar(&dlEnd, "end", time.Now().UTC().Format(dlDateLayout), "last date to download (YYYY-MM-DD)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	start, err := time.Parse(dlDateLayout, dlStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse(dlDateLayout, dlEnd)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("--end %s is before --start %s", dlEnd, dlStart)
	}

	dbURL, err := config.DatabaseURL()
	if err != nil {
		return err
	}
	db, err := repository.NewDatabase(dbURL)
	if err != nil {
		return fmt.Errorf("connect to pricing database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	known, err := db.ListSymbols(ctx)
	if err != nil {
		return err
	}
	symbols := dlSymbols
	if len(symbols) == 0 {
		symbols = known
	} else {
		for _, symbol := range symbols {
			if !slices.Contains(known, symbol) {
				return fmt.Errorf("%w: %s", repository.ErrSymbolNotFound, symbol)
			}
		}
	}

	log := newLogger()
	store := pricedata.NewStore(dlOutDir)
	for _, symbol := range symbols {
		bars, err := db.GetBars(ctx, symbol, start, end)
		if err != nil {
			return err
		}
		if err := store.Write(symbol, bars); err != nil {
			return err
		}
		log.Info("downloaded", "symbol", symbol, "bars", len(bars))
	}
	cmd.Printf("wrote %d symbols to %s\n", len(symbols), dlOutDir)
	return nil
}
