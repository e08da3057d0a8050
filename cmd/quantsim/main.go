package main

import (
	"context"
	"fmt"
	"os"

	"quantsim/internal/config"
	"quantsim/internal/engine"
	"quantsim/internal/logger"
	"quantsim/internal/repository"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "quantsim",
	Short:        "Daily bar portfolio backtester",
	Long:         "Simulate portfolio strategies over stored daily bars and report performance analytics",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "quantsim.yaml", "Path to the YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log := logger.InitLogger("quantsim", cfg.Logging.Level, cfg.Logging.Format)
	return cfg, log, nil
}

// openSource connects the configured market data store. The returned func
// releases it.
func openSource(ctx context.Context, cfg config.Data) (engine.MarketDataSource, func(), error) {
	switch cfg.Source {
	case config.SourcePostgres:
		db, err := repository.NewDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return db, db.Close, nil
	case config.SourceParquet:
		return repository.NewParquetStore(cfg.DataDir), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown data.source %q", config.ErrInvalidConfig, cfg.Source)
	}
}
