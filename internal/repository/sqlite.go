package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quantsim/internal/engine"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

var ErrRunNotFound = errors.New("run not found")

// RunRecord is the stored summary of one finished backtest.
type RunRecord struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Strategy       string          `json:"strategy"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
	FinalValue     decimal.Decimal `json:"finalValue"`
	TotalReturn    float64         `json:"totalReturn"`
	SharpeRatio    float64         `json:"sharpeRatio"`
	MaxDrawdown    float64         `json:"maxDrawdown"`
	TotalTrades    int             `json:"totalTrades"`
	Report         string          `json:"report"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewRunRecord summarises res for storage.
func NewRunRecord(name string, res *engine.BacktestResult) RunRecord {
	return RunRecord{
		Name:           name,
		Strategy:       res.Strategy,
		StartDate:      res.StartDate,
		EndDate:        res.EndDate,
		InitialCapital: res.InitialCapital,
		FinalValue:     res.FinalValue,
		TotalReturn:    res.TotalReturn,
		SharpeRatio:    res.SharpeRatio,
		MaxDrawdown:    res.MaxDrawdown,
		TotalTrades:    res.TotalTrades,
		Report:         res.Report(),
	}
}

// SQLiteStore keeps run summaries in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and creates its tables.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL,
	strategy        TEXT NOT NULL,
	start_date      TEXT NOT NULL,
	end_date        TEXT NOT NULL,
	initial_capital TEXT NOT NULL,
	final_value     TEXT NOT NULL,
	total_return    REAL NOT NULL,
	sharpe_ratio    REAL NOT NULL,
	max_drawdown    REAL NOT NULL,
	total_trades    INTEGER NOT NULL,
	report          TEXT NOT NULL,
	created_at      TEXT NOT NULL
)`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, runsSchema); err != nil {
		return fmt.Errorf("migrate runs: %w", err)
	}
	return nil
}

// SaveRun inserts rec and sets its ID and CreatedAt.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec *RunRecord) error {
	rec.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
INSERT INTO runs (name, strategy, start_date, end_date, initial_capital, final_value,
	total_return, sharpe_ratio, max_drawdown, total_trades, report, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Strategy,
		rec.StartDate.Format(time.RFC3339), rec.EndDate.Format(time.RFC3339),
		rec.InitialCapital.String(), rec.FinalValue.String(),
		rec.TotalReturn, rec.SharpeRatio, rec.MaxDrawdown, rec.TotalTrades,
		rec.Report, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	return err
}

const selectRun = `
SELECT id, name, strategy, start_date, end_date, initial_capital, final_value,
	total_return, sharpe_ratio, max_drawdown, total_trades, report, created_at
FROM runs`

// ListRuns returns the most recent runs first, at most limit of them.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)
	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var (
		rec                            RunRecord
		start, end, initial, final, at string
	)
	err := sc.Scan(&rec.ID, &rec.Name, &rec.Strategy, &start, &end, &initial, &final,
		&rec.TotalReturn, &rec.SharpeRatio, &rec.MaxDrawdown, &rec.TotalTrades, &rec.Report, &at)
	if err != nil {
		return RunRecord{}, err
	}

	var errs []string
	parse := func(layout, v string) time.Time {
		t, err := time.Parse(layout, v)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return t
	}
	rec.StartDate = parse(time.RFC3339, start)
	rec.EndDate = parse(time.RFC3339, end)
	rec.CreatedAt = parse(time.RFC3339Nano, at)
	if rec.InitialCapital, err = decimal.NewFromString(initial); err != nil {
		errs = append(errs, err.Error())
	}
	if rec.FinalValue, err = decimal.NewFromString(final); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return RunRecord{}, fmt.Errorf("decode run %d: %s", rec.ID, strings.Join(errs, "; "))
	}
	return rec, nil
}
