package main

import (
	"fmt"
	"os"

	"quantsim/internal/engine"
	"quantsim/internal/metrics"
	"quantsim/internal/repository"
	"quantsim/strategies"

	"github.com/spf13/cobra"
)

var (
	runTradesCSV string
	runValuesCSV string
	runSave      bool
	runName      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one backtest from the config file",
	Long:  "Load market data, simulate the configured strategy and print the performance report",
	Args:  cobra.NoArgs,
	RunE:  runBacktest,
}

func init() {
	runCmd.Flags().StringVar(&runTradesCSV, "trades-csv", "", "Write the trade history to this CSV file")
	runCmd.Flags().StringVar(&runValuesCSV, "values-csv", "", "Write the daily portfolio values to this CSV file")
	runCmd.Flags().BoolVar(&runSave, "save", false, "Store the run summary in the SQLite run history")
	runCmd.Flags().StringVar(&runName, "name", "", "Name of the stored run (defaults to the strategy name)")

	rootCmd.AddCommand(runCmd)
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	btCfg, err := cfg.Backtest.ToBacktestConfig()
	if err != nil {
		return err
	}
	strat, err := strategies.New(cfg.Strategy)
	if err != nil {
		return err
	}
	e, err := engine.NewEngine(btCfg, strat, engine.WithLogger(log), engine.WithRecorder(metrics.Recorder{}))
	if err != nil {
		return err
	}

	source, closeSource, err := openSource(ctx, cfg.Data)
	if err != nil {
		return err
	}
	defer closeSource()
	if err := e.LoadFrom(ctx, source, cfg.Backtest.Benchmark); err != nil {
		return err
	}

	res, err := e.Run()
	if err != nil {
		return err
	}
	if err := res.WriteReport(cmd.OutOrStdout()); err != nil {
		return err
	}

	if runTradesCSV != "" {
		if err := res.WriteTradesCSVFile(runTradesCSV); err != nil {
			return err
		}
		log.Info().Str("path", runTradesCSV).Int("trades", res.TotalTrades).Msg("trades written")
	}
	if runValuesCSV != "" {
		if err := writeValuesFile(runValuesCSV, res); err != nil {
			return err
		}
	}

	if runSave {
		store, err := repository.NewSQLiteStore(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer store.Close()

		name := runName
		if name == "" {
			name = res.Strategy
		}
		rec := repository.NewRunRecord(name, res)
		if err := store.SaveRun(ctx, &rec); err != nil {
			return err
		}
		log.Info().Int64("id", rec.ID).Str("name", name).Msg("run saved")
	}
	return nil
}

func writeValuesFile(path string, res *engine.BacktestResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create values file: %w", err)
	}
	defer f.Close()
	return res.WriteValuesCSV(f)
}
