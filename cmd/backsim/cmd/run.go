package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"backsim/config"
	"backsim/internal/journal"
	"backsim/internal/pricedata"
	"backsim/internal/sim"
	"backsim/sizers/proportional"
	"backsim/strategies/donchian"
	"backsim/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a strategy over the local price archive",
	Long: `Run loads per-symbol pricing CSVs, derives channel-breakout
signals, replays them through the simulation and writes the equity
curve and trade ledger to the configured outputs.

Example:
  backsim run -c backsim.yaml --progress --name donchian-2020`,
	RunE: runReplay,
}

var (
	runConfigPath string
	runName       string
	runProgress   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML config (defaults apply when omitted)")
	runCmd.Flags().StringVar(&runName, "name", "replay", "run name recorded in the journal")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "render a progress bar over the day loop")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	store := pricedata.NewStore(cfg.Data.Dir)
	symbols := cfg.Data.Symbols
	if len(symbols) == 0 {
		if symbols, err = store.Symbols(); err != nil {
			return err
		}
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no pricing files under %s", cfg.Data.Dir)
	}

	strategy := donchian.New(cfg.Strategy.EntryWindow, cfg.Strategy.ExitWindow)
	series := make(map[string][]types.SignalBar, len(symbols))
	for _, symbol := range symbols {
		bars, err := store.Load(symbol)
		if err != nil {
			return err
		}
		series[symbol] = strategy.Annotate(bars)
		log.Debug("loaded series", "symbol", symbol, "bars", len(bars))
	}

	sizer := proportional.New(
		cfg.Sizer.PositionPercent,
		cfg.Sizer.FeeRate,
		cfg.Sizer.MinFee,
		cfg.Sizer.MaxFee,
	)
	simulator, err := sim.New(series, sizer, &sim.Config{
		PriceColumn:    types.PriceColumn(cfg.Simulation.PriceColumn),
		InitialCapital: cfg.Simulation.InitialCapital,
		StopLoss:       cfg.Simulation.StopLoss,
		ShowProgress:   runProgress,
		Logger:         log,
	})
	if err != nil {
		return err
	}

	result, err := simulator.Run(cfg.Simulation.DayLimit)
	if err != nil {
		if errors.Is(err, sim.ErrBankrupt) {
			return fmt.Errorf("replay went bankrupt: %w", err)
		}
		return err
	}

	if err := exportResult(cfg, result); err != nil {
		return err
	}
	printSummary(cmd, cfg, result)
	return nil
}

func loadConfig() (config.Config, error) {
	if runConfigPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(runConfigPath)
}

func exportResult(cfg config.Config, result *sim.Result) error {
	if cfg.Output.ResultsCSV != "" {
		if err := sim.WriteResultsCSVFile(cfg.Output.ResultsCSV, result.Days); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}
	if cfg.Output.TradesCSV != "" {
		if err := sim.WriteTradesCSVFile(cfg.Output.TradesCSV, result.Trades); err != nil {
			return fmt.Errorf("write trades: %w", err)
		}
	}
	if cfg.Output.JournalDB != "" {
		j, err := journal.Open(cfg.Output.JournalDB)
		if err != nil {
			return err
		}
		defer j.Close()
		if _, err := j.SaveRun(runName, result.Days, result.Trades); err != nil {
			return fmt.Errorf("journal run: %w", err)
		}
	}
	return nil
}

func printSummary(cmd *cobra.Command, cfg config.Config, result *sim.Result) {
	closed := 0
	for _, t := range result.Trades {
		if t.Closed {
			closed++
		}
	}
	cmd.Printf("days: %d  trades: %d (%d closed)\n", len(result.Days), len(result.Trades), closed)
	if len(result.Days) > 0 {
		last := result.Days[len(result.Days)-1]
		cmd.Printf("final net account value: %s (%s%%) from %s initial\n",
			last.NetAccountValue, last.RateOfReturn, cfg.Simulation.InitialCapital)
	}
}
