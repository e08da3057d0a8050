package repository

import (
	"context"
	"errors"
	"fmt"

	"quantsim/internal/engine"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrAssetNotFound = errors.New("not found in datasource")
	ErrNoBars        = errors.New("no bars found in datasource")
)

var _ engine.MarketDataSource = (*Database)(nil)

type assetsRepository interface {
	GetAssetBySymbol(ctx context.Context, symbol string) (assetRow, error)
}
type barsRepository interface {
	GetDailyBars(ctx context.Context, arg dailyBarsParams) ([]dailyBarRow, error)
}
type schemaExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Database struct that holds the database connection and queries.
type Database struct {
	assets assetsRepository
	bars   barsRepository
	ddl    schemaExecer
	conn   *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	q := &queries{db: conn}
	return &Database{
		assets: q,
		bars:   q,
		ddl:    conn,
		conn:   conn,
	}, nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	id          SERIAL PRIMARY KEY,
	symbol      TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT 'STOCK',
	created_at  TIMESTAMPTZ DEFAULT now(),
	modified_at TIMESTAMPTZ DEFAULT now()
);
CREATE TABLE IF NOT EXISTS daily_bars (
	asset_id INTEGER NOT NULL REFERENCES assets(id),
	ts       TIMESTAMPTZ NOT NULL,
	close    NUMERIC NOT NULL CHECK (close > 0),
	volume   NUMERIC NOT NULL DEFAULT 0,
	PRIMARY KEY (asset_id, ts)
);`

// Migrate creates the price tables when they do not exist yet.
func (db *Database) Migrate(ctx context.Context) error {
	if db.ddl == nil {
		return errors.New("migrate: no connection")
	}
	if _, err := db.ddl.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
