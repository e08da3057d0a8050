package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"quantsim/internal/api"
	"quantsim/internal/metrics"
	"quantsim/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the backtest HTTP API",
	Long:  "Expose backtest runs, run history and Prometheus metrics over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	source, closeSource, err := openSource(ctx, cfg.Data)
	if err != nil {
		return err
	}
	defer closeSource()

	runs, err := repository.NewSQLiteStore(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer runs.Close()

	srv := api.NewServer(source, runs,
		api.WithLogger(log),
		api.WithRecorder(metrics.Recorder{}),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		api.WithMaxParallel(cfg.Server.MaxParallel),
	)
	return srv.ListenAndServe(ctx, cfg.Server.Addr())
}
