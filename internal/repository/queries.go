package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const getAssetBySymbol = `
SELECT id, symbol, name, type, created_at, modified_at
FROM assets
WHERE symbol = $1`

const getDailyBars = `
SELECT asset_id, ts, close, volume
FROM daily_bars
WHERE asset_id = $1 AND ts >= $2 AND ts <= $3
ORDER BY ts`

type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type assetRow struct {
	ID         int32      `db:"id"`
	Symbol     string     `db:"symbol"`
	Name       string     `db:"name"`
	Type       string     `db:"type"`
	CreatedAt  *time.Time `db:"created_at"`
	ModifiedAt *time.Time `db:"modified_at"`
}

type dailyBarsParams struct {
	AssetID int32
	Start   time.Time
	End     time.Time
}

type dailyBarRow struct {
	AssetID   int32           `db:"asset_id"`
	Timestamp time.Time       `db:"ts"`
	Close     decimal.Decimal `db:"close"`
	Volume    decimal.Decimal `db:"volume"`
}

// queries runs the hand written statements against a pool or transaction.
type queries struct {
	db dbtx
}

func (q *queries) GetAssetBySymbol(ctx context.Context, symbol string) (assetRow, error) {
	rows, err := q.db.Query(ctx, getAssetBySymbol, symbol)
	if err != nil {
		return assetRow{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[assetRow])
}

func (q *queries) GetDailyBars(ctx context.Context, arg dailyBarsParams) ([]dailyBarRow, error) {
	rows, err := q.db.Query(ctx, getDailyBars, arg.AssetID, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[dailyBarRow])
}
