package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"quantsim/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	got := ps.barPath("aapl", 2024)
	want := filepath.Join("/data", "daily", "AAPL", "2024.parquet")
	if got != want {
		t.Errorf("barPath mismatch:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetStoreWriteReadBars(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	bar := func(sym string, ts time.Time, px string) types.DailyBar {
		return types.DailyBar{Symbol: sym, Close: decimal.RequireFromString(px), Volume: decimal.NewFromInt(5_000_000), Timestamp: ts}
	}
	dec31 := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ps.WriteDailyBars(ctx, []types.DailyBar{
		bar("AAPL", jan3, "186"),
		bar("AAPL", dec31, "192.53"),
		bar("AAPL", jan2, "185.5"),
		bar("MSFT", jan2, "370.87"),
	}))

	got, err := ps.GetDailyBars(ctx, "AAPL", dec31, jan3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Timestamp.Equal(dec31))
	assert.True(t, got[0].Close.Equal(decimal.RequireFromString("192.53")), "close %s", got[0].Close)
	assert.True(t, got[1].Timestamp.Equal(jan2))
	assert.True(t, got[2].Close.Equal(decimal.RequireFromString("186")))
	assert.True(t, got[2].Volume.Equal(decimal.NewFromInt(5_000_000)))

	// overwrite one bar and check the merge keeps the rest
	require.NoError(t, ps.WriteDailyBars(ctx, []types.DailyBar{bar("AAPL", jan2, "185.75")}))
	got, err = ps.GetDailyBars(ctx, "AAPL", jan2, jan3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Close.Equal(decimal.RequireFromString("185.75")))

	symbols, err := ps.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestParquetStoreMissingData(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	_, err := ps.GetDailyBars(ctx, "NOPE", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, ErrNoBars))

	symbols, err := ps.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)

	err = ps.WriteDailyBars(ctx, []types.DailyBar{{Symbol: "X", Close: decimal.Zero, Timestamp: time.Now()}})
	assert.Error(t, err)
}
