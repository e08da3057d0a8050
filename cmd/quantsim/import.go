package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"quantsim/internal/config"
	"quantsim/internal/repository"
	"quantsim/types"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var importCSV string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import daily bars from CSV into the Parquet store",
	Long:  "Read symbol,date,close,volume rows and merge them into the configured Parquet data directory",
	Args:  cobra.NoArgs,
	RunE:  importBars,
}

func init() {
	importCmd.Flags().StringVar(&importCSV, "csv", "", "CSV file with symbol,date,close,volume columns (required)")
	importCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(importCmd)
}

func importBars(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Data.Source != config.SourceParquet {
		return fmt.Errorf("%w: import writes to the parquet store only", config.ErrInvalidConfig)
	}

	f, err := os.Open(importCSV)
	if err != nil {
		return err
	}
	defer f.Close()

	bars, err := readBarsCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", importCSV, err)
	}
	if err := repository.NewParquetStore(cfg.Data.DataDir).WriteDailyBars(cmd.Context(), bars); err != nil {
		return err
	}
	log.Info().Int("bars", len(bars)).Str("data_dir", cfg.Data.DataDir).Msg("bars imported")
	return nil
}

// readBarsCSV parses rows of symbol,date,close,volume. A header row is skipped.
func readBarsCSV(r io.Reader) ([]types.DailyBar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var bars []types.DailyBar
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(rec[0], "symbol") {
			continue
		}

		ts, err := time.Parse(time.DateOnly, rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: date: %w", line, err)
		}
		px, err := decimal.NewFromString(rec[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: close: %w", line, err)
		}
		vol, err := decimal.NewFromString(rec[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: volume: %w", line, err)
		}
		bars = append(bars, types.DailyBar{
			Symbol:    strings.ToUpper(rec[0]),
			Close:     px,
			Volume:    vol,
			Timestamp: ts,
		})
	}
	return bars, nil
}
