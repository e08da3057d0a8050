package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"quantsim/internal/engine"
	"quantsim/types"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
)

var _ engine.MarketDataSource = (*ParquetStore)(nil)

// ParquetStore keeps daily bars in Parquet files on disk, one file per symbol
// and year:
//
//	<DataDir>/daily/<SYMBOL>/<YYYY>.parquet
type ParquetStore struct {
	DataDir string
}

func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// DailyBarRecord is the on-disk schema.
type DailyBarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// WriteDailyBars merges bars into the existing files. A bar with the same
// symbol and timestamp as a stored one replaces it.
func (s *ParquetStore) WriteDailyBars(_ context.Context, bars []types.DailyBar) error {
	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]DailyBarRecord)
	for _, b := range bars {
		if !b.Close.IsPositive() {
			return fmt.Errorf("%s at %s: non-positive close %s", b.Symbol, b.Timestamp.Format(time.DateOnly), b.Close)
		}
		symbol := strings.ToUpper(b.Symbol)
		k := key{symbol: symbol, year: b.Timestamp.UTC().Year()}
		groups[k] = append(groups[k], DailyBarRecord{
			Symbol:    symbol,
			Timestamp: b.Timestamp.UnixMilli(),
			Close:     b.Close.InexactFloat64(),
			Volume:    b.Volume.InexactFloat64(),
		})
	}

	for k, records := range groups {
		path := s.barPath(k.symbol, k.year)

		existing, err := readParquetFile[DailyBarRecord](path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading bars for %s/%d: %w", k.symbol, k.year, err)
		}
		if err := writeParquetFile(path, mergeBarRecords(existing, records)); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// GetDailyBars reads the bars of symbol within [start, end], oldest first.
func (s *ParquetStore) GetDailyBars(_ context.Context, symbol string, start, end time.Time) ([]types.DailyBar, error) {
	var bars []types.DailyBar
	for year := start.UTC().Year(); year <= end.UTC().Year(); year++ {
		records, err := readParquetFile[DailyBarRecord](s.barPath(symbol, year))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading bars for %s/%d: %w", symbol, year, err)
		}

		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if ts.Before(start) || ts.After(end) {
				continue
			}
			bars = append(bars, types.DailyBar{
				Symbol:    r.Symbol,
				Close:     decimal.NewFromFloat(r.Close),
				Volume:    decimal.NewFromFloat(r.Volume),
				Timestamp: ts,
			})
		}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoBars)
	}
	return bars, nil
}

// ListSymbols lists every symbol with stored bars.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "daily"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *ParquetStore) barPath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "daily", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates by timestamp, preferring incoming records, and
// sorts the result by time.
func mergeBarRecords(existing, incoming []DailyBarRecord) []DailyBarRecord {
	seen := make(map[int64]DailyBarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]DailyBarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
