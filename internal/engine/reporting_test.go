package engine

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quantsim/internal/costs"
	"quantsim/strategies"
	"quantsim/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSample(t *testing.T) *BacktestResult {
	t.Helper()
	cfg := newTestConfig(t, "10000",
		costs.CommissionSpec{Type: costs.CommissionPerShare, Rate: d("0.01"), Minimum: d("1")},
		costs.ImpactSpec{Type: costs.ImpactLinear, Coefficient: 0.1},
		"0.01", true)
	strat := newStrategy(t, strategies.Spec{Kind: strategies.KindEqualWeight, Symbols: []string{"A", "B"}, RebalancePeriod: 2})
	e := newTestEngine(t, cfg, strat, map[string][]types.PriceBar{
		"A": priceBars(10, 12, 11, 13, 9, 10),
		"B": priceBars(20, 19, 22, 21, 23, 25),
	})
	res, err := e.Run()
	require.NoError(t, err)
	return res
}

func TestFillCosts(t *testing.T) {
	buy := newFill("A", "10", "101", "2")
	buy.MarketPrice = d("100")
	buy.ImpactCost = d("10")
	buy.SlippageCost = d("3")
	sell := newFill("A", "-10", "109", "2")
	sell.MarketPrice = d("110")
	sell.ImpactCost = d("11")
	sell.Status = types.FillStatusPartiallyFilled

	res := &BacktestResult{
		InitialCapital: d("1000"),
		FinalValue:     d("1054"),
		TradeHistory:   []types.Fill{buy, sell},
	}
	fillCosts(res)

	assert.Equal(t, 2, res.TotalTrades)
	assert.Equal(t, 1, res.PartialFills)
	assert.True(t, res.TotalCommission.Equal(d("4")))
	assert.True(t, res.TotalMarketImpact.Equal(d("21")))
	assert.True(t, res.TotalSlippage.Equal(d("3")))
	assert.True(t, res.TotalTransactionCosts.Equal(d("28")))
	// (1010 + 1090) / 2
	assert.True(t, res.AverageTradeSize.Equal(d("1050")), "avg %s", res.AverageTradeSize)
	// 2100 / (2 * 1000)
	assert.InDelta(t, 1.05, res.Turnover, 1e-12)
	// 28 / |1054 - 1000|
	assert.InDelta(t, 28.0/54.0, res.TransactionCostRatio, 1e-12)
	// (101-100)*10 + (109-110)*(-10)
	assert.True(t, res.ImplementationShortfall.Equal(d("20")), "shortfall %s", res.ImplementationShortfall)
}

func TestBacktestResult_Report(t *testing.T) {
	res := runSample(t)

	report := res.Report()
	for _, want := range []string{
		"===== Backtest Report =====",
		"Strategy:              " + res.Strategy,
		"Sharpe Ratio:",
		"Max Drawdown:",
		"Total Commission:",
		"Impl. Shortfall:",
	} {
		assert.Contains(t, report, want)
	}
	assert.NotContains(t, report, "-- Benchmark --")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBacktestResult_WriteReportError(t *testing.T) {
	res := runSample(t)
	assert.EqualError(t, res.WriteReport(failingWriter{}), "disk full")
}

func TestBacktestResult_WriteTradesCSV(t *testing.T) {
	res := runSample(t)
	require.NotEmpty(t, res.TradeHistory)

	var buf bytes.Buffer
	require.NoError(t, res.WriteTradesCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(res.TradeHistory)+1)
	assert.Equal(t, "trade_id", records[0][0])
	assert.Equal(t, "slippage_cost", records[0][len(records[0])-1])

	first := res.TradeHistory[0]
	assert.Equal(t, []string{
		"0",
		first.Date.Format("2006-01-02"),
		first.Symbol,
		string(first.Side),
		string(first.Status),
		first.Quantity.String(),
		first.RequestedQuantity.String(),
		first.MarketPrice.String(),
		first.ExecutionPrice.String(),
		first.Commission.String(),
		first.ImpactCost.String(),
		first.SlippageCost.String(),
	}, records[1])
}

func TestBacktestResult_WriteTradesCSVFile(t *testing.T) {
	res := runSample(t)
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, res.WriteTradesCSVFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, len(res.TradeHistory)+1)
}

func TestBacktestResult_WriteValuesCSV(t *testing.T) {
	res := runSample(t)

	var buf bytes.Buffer
	require.NoError(t, res.WriteValuesCSV(&buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(res.PortfolioValues)+1)
	assert.Equal(t, []string{"date", "total_value"}, records[0])
	assert.Equal(t, res.FinalValue.String(), records[len(records)-1][1])
}
