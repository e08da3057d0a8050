package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"quantsim/types"
)

// WriteTradesCSVFile writes the trade history to a CSV file at the given path.
func (r *BacktestResult) WriteTradesCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return writeTradesCSV(f, r.TradeHistory)
}

// WriteTradesCSV writes the trade history to any io.Writer as CSV.
func (r *BacktestResult) WriteTradesCSV(w io.Writer) error {
	return writeTradesCSV(w, r.TradeHistory)
}

// WriteValuesCSV writes the daily portfolio value curve.
func (r *BacktestResult) WriteValuesCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "total_value"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, v := range r.PortfolioValues {
		if err := cw.Write([]string{v.Date.Format(time.DateOnly), v.Value.String()}); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeTradesCSV(w io.Writer, fills []types.Fill) error {
	cw := csv.NewWriter(w)

	header := []string{
		"trade_id",
		"date", // YYYY-MM-DD
		"symbol",
		"side",
		"status",
		"quantity",
		"requested_quantity",
		"market_price",
		"execution_price",
		"commission",
		"impact_cost",
		"slippage_cost",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, f := range fills {
		if err := writeFillRow(cw, i, f); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeFillRow(cw *csv.Writer, id int, f types.Fill) error {
	record := []string{
		fmt.Sprintf("%d", id),
		f.Date.Format(time.DateOnly),
		f.Symbol,
		string(f.Side),
		string(f.Status),
		f.Quantity.String(),
		f.RequestedQuantity.String(),
		f.MarketPrice.String(),
		f.ExecutionPrice.String(),
		f.Commission.String(),
		f.ImpactCost.String(),
		f.SlippageCost.String(),
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
