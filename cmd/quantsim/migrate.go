package main

import (
	"context"
	"fmt"

	"quantsim/internal/config"
	"quantsim/internal/repository"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres price tables",
	Long:  "Create the assets and daily_bars tables in the configured Postgres database when they are missing",
	Args:  cobra.NoArgs,
	RunE:  migrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

type migrator interface {
	Migrate(ctx context.Context) error
}

func migrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requirePostgres(cfg.Data); err != nil {
		return err
	}

	db, err := repository.NewDatabase(cmd.Context(), cfg.Data.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if err := applySchema(cmd.Context(), db); err != nil {
		return err
	}
	log.Info().Msg("schema up to date")
	return nil
}

func requirePostgres(cfg config.Data) error {
	if cfg.Source != config.SourcePostgres {
		return fmt.Errorf("%w: migrate needs data.source %q, got %q", config.ErrInvalidConfig, config.SourcePostgres, cfg.Source)
	}
	return nil
}

func applySchema(ctx context.Context, m migrator) error {
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
