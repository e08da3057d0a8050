package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quantsim/types"

	"github.com/jackc/pgx/v5"
)

// GetDailyBars returns the stored end-of-day bars of symbol within [start, end].
func (db *Database) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]types.DailyBar, error) {
	asset, err := db.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	args := dailyBarsParams{
		AssetID: int32(asset.Id),
		Start:   start,
		End:     end,
	}
	rows, err := db.bars.GetDailyBars(ctx, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", symbol, ErrNoBars)
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoBars)
	}
	return convertBars(rows, asset.Symbol), nil
}

func convertBars(rows []dailyBarRow, symbol string) []types.DailyBar {
	bars := make([]types.DailyBar, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, types.DailyBar{
			Symbol:    symbol,
			Close:     row.Close,
			Volume:    row.Volume,
			Timestamp: row.Timestamp,
		})
	}
	return bars
}
