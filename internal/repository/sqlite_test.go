package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRuns(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		rec := &RunRecord{
			Name:           name,
			Strategy:       "EqualWeight",
			StartDate:      start,
			EndDate:        start.AddDate(1, 0, 0),
			InitialCapital: decimal.NewFromInt(100_000),
			FinalValue:     decimal.RequireFromString("112345.67"),
			TotalReturn:    0.1234567,
			SharpeRatio:    1.5,
			MaxDrawdown:    0.08,
			TotalTrades:    10 + i,
			Report:         "===== Backtest Report =====",
		}
		require.NoError(t, store.SaveRun(ctx, rec))
		assert.Equal(t, int64(i+1), rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].Name)
	assert.Equal(t, "second", runs[1].Name)

	got, err := store.GetRun(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	assert.True(t, got.StartDate.Equal(start))
	assert.True(t, got.FinalValue.Equal(decimal.RequireFromString("112345.67")))
	assert.InDelta(t, 0.1234567, got.TotalReturn, 1e-12)
	assert.Equal(t, 10, got.TotalTrades)

	_, err = store.GetRun(ctx, 42)
	assert.ErrorIs(t, err, ErrRunNotFound)
}
