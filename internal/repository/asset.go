package repository

import (
	"context"
	"errors"
	"fmt"

	"quantsim/types"

	"github.com/jackc/pgx/v5"
)

// GetAssetBySymbol retrieves a types.Asset by its symbol.
func (db *Database) GetAssetBySymbol(ctx context.Context, symbol string) (*types.Asset, error) {
	asset, err := db.assets.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("symbol %s %w", symbol, ErrAssetNotFound)
		}
		return nil, err
	}
	out := &types.Asset{
		Id:     int(asset.ID),
		Symbol: asset.Symbol,
		Name:   asset.Name,
		Type:   types.AssetType(asset.Type),
	}
	if asset.CreatedAt != nil {
		out.CreatedAt = *asset.CreatedAt
	}
	if asset.ModifiedAt != nil {
		out.ModifiedAt = *asset.ModifiedAt
	}
	return out, nil
}
