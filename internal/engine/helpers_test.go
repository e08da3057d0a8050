package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"quantsim/internal/costs"
	"quantsim/types"

	"github.com/shopspring/decimal"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(i int) time.Time {
	return day0.AddDate(0, 0, i)
}

func priceBars(prices ...float64) []types.PriceBar {
	out := make([]types.PriceBar, len(prices))
	for i, p := range prices {
		out[i] = types.PriceBar{Timestamp: day(i), Price: decimal.NewFromFloat(p)}
	}
	return out
}

var zeroCommission = costs.CommissionSpec{Type: costs.CommissionPercentage}
var noImpact = costs.ImpactSpec{Type: costs.ImpactNone}

func newTestConfig(t *testing.T, capital string, commission costs.CommissionSpec, impact costs.ImpactSpec, buffer string, partial bool, opts ...ConfigOption) *BacktestConfig {
	t.Helper()
	cfg, err := NewBacktestConfig(day(0), day(365), d(capital), commission, impact, d(buffer), partial, opts...)
	if err != nil {
		t.Fatalf("NewBacktestConfig() error = %v", err)
	}
	return cfg
}

func newFill(symbol, qty, price, commission string) types.Fill {
	q := d(qty)
	return types.Fill{
		Symbol:            symbol,
		Side:              types.SideOf(q),
		Status:            types.FillStatusFilled,
		Quantity:          q,
		RequestedQuantity: q,
		ExecutionPrice:    d(price),
		MarketPrice:       d(price),
		Commission:        d(commission),
		ImpactCost:        decimal.Zero,
		SlippageCost:      decimal.Zero,
		Date:              day0,
	}
}

// clonePortfolio copies the ledger so a later comparison detects any mutation.
func clonePortfolio(p *portfolio) *portfolio {
	out := &portfolio{
		cash:      p.cash,
		positions: make(map[string]*Position, len(p.positions)),
		fills:     append([]types.Fill(nil), p.fills...),
		snapshots: append([]types.PortfolioSnapshot(nil), p.snapshots...),
	}
	for sym, pos := range p.positions {
		cp := *pos
		out.positions[sym] = &cp
	}
	return out
}

type countingRecorder struct {
	mu       sync.Mutex
	fills    int
	rejected int
	runs     int
	lastErr  error
}

func (r *countingRecorder) FillExecuted(string, types.Side, types.FillStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fills++
}

func (r *countingRecorder) OrderRejected(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *countingRecorder) RunCompleted(_ string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.lastErr = err
}

type mockSource struct {
	bars map[string][]types.DailyBar
	err  error
}

func (m mockSource) GetDailyBars(_ context.Context, symbol string, start, end time.Time) ([]types.DailyBar, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []types.DailyBar
	for _, b := range m.bars[symbol] {
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
