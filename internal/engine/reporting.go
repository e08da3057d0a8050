package engine

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"quantsim/internal/analytics"
	"quantsim/types"

	"github.com/shopspring/decimal"
)

type ValuePoint struct {
	Date  time.Time
	Value decimal.Decimal
}

// RollingSeries holds trailing-window statistics, each point dated by the last
// return in its window. Beta is empty without a benchmark.
type RollingSeries struct {
	Window     int
	Volatility []types.Observation
	Sharpe     []types.Observation
	Beta       []types.Observation
}

// BacktestResult holds copies only; the engine keeps no reference to it.
// MaxDrawdown is reported as a non-negative magnitude.
type BacktestResult struct {
	Strategy  string
	StartDate time.Time
	EndDate   time.Time

	InitialCapital decimal.Decimal
	FinalValue     decimal.Decimal

	TotalReturn            float64
	AnnualReturn           float64
	AnnualVolatility       float64
	SharpeRatio            float64
	SortinoRatio           float64
	CalmarRatio            float64
	OmegaRatio             float64
	MaxDrawdown            float64
	MaxDrawdownDuration    int
	WinRate                float64
	ProfitFactor           float64
	ValueAtRisk            float64
	ConditionalValueAtRisk float64

	TotalTrades             int
	PartialFills            int
	TotalCommission         decimal.Decimal
	TotalMarketImpact       decimal.Decimal
	TotalSlippage           decimal.Decimal
	TotalTransactionCosts   decimal.Decimal
	AverageTradeSize        decimal.Decimal
	Turnover                float64
	TransactionCostRatio    float64
	ImplementationShortfall decimal.Decimal

	Benchmark *analytics.BenchmarkStats
	Rolling   *RollingSeries

	PortfolioValues []ValuePoint
	Returns         []types.Observation
	Snapshots       []types.PortfolioSnapshot
	TradeHistory    []types.Fill
	RejectedOrders  []types.RejectedOrder
}

func (e *Engine) generateResult(bt *backtester) (*BacktestResult, error) {
	p := bt.portfolio
	res := &BacktestResult{
		Strategy:       e.strategy.Name(),
		StartDate:      e.config.start,
		EndDate:        e.config.end,
		InitialCapital: e.config.initialCapital,
		FinalValue:     p.snapshots[len(p.snapshots)-1].TotalValue,
		Snapshots:      append([]types.PortfolioSnapshot(nil), p.snapshots...),
		TradeHistory:   append([]types.Fill(nil), p.fills...),
		RejectedOrders: append([]types.RejectedOrder(nil), bt.executor.rejected...),
	}

	values := make([]float64, len(p.snapshots))
	res.PortfolioValues = make([]ValuePoint, len(p.snapshots))
	for i, s := range p.snapshots {
		res.PortfolioValues[i] = ValuePoint{Date: s.Date, Value: s.TotalValue}
		values[i] = s.TotalValue.InexactFloat64()
	}
	returns := analytics.Returns(values)
	res.Returns = make([]types.Observation, len(returns))
	for i, r := range returns {
		res.Returns[i] = types.Observation{Timestamp: p.snapshots[i+1].Date, Value: r}
	}

	m, err := analytics.Compute(returns, analytics.Options{
		RiskFreeRate: e.config.riskFreeRate,
		VaRAlpha:     e.config.varAlpha,
	})
	if err != nil {
		return nil, err
	}
	res.TotalReturn = res.FinalValue.Div(res.InitialCapital).InexactFloat64() - 1
	res.AnnualReturn = m.AnnualReturn
	res.AnnualVolatility = m.AnnualVolatility
	res.SharpeRatio = m.SharpeRatio
	res.SortinoRatio = m.SortinoRatio
	res.CalmarRatio = m.CalmarRatio
	res.OmegaRatio = m.OmegaRatio
	res.MaxDrawdown = math.Abs(m.MaxDrawdown)
	res.MaxDrawdownDuration = m.MaxDrawdownDuration
	res.WinRate = m.WinRate
	res.ProfitFactor = m.ProfitFactor
	res.ValueAtRisk = m.ValueAtRisk
	res.ConditionalValueAtRisk = m.ConditionalValueAtRisk

	fillCosts(res)

	var benchReturns []float64
	if len(e.benchmark) > 0 {
		benchReturns, err = benchmarkReturns(e.benchmark, p.snapshots)
		if err == nil {
			var stats analytics.BenchmarkStats
			if stats, err = analytics.CompareBenchmark(returns, benchReturns, e.config.riskFreeRate); err == nil {
				res.Benchmark = &stats
			}
		}
		if err != nil {
			e.log.Warn().Err(err).Msg("benchmark comparison skipped")
			benchReturns = nil
		}
	}

	if e.config.rollingWindow > 0 {
		rolling, err := rollingSeries(e.config.rollingWindow, returns, benchReturns, res.Returns, e.config.riskFreeRate)
		if err != nil {
			return nil, err
		}
		res.Rolling = rolling
	}
	return res, nil
}

func rollingSeries(size int, returns, bench []float64, dated []types.Observation, riskFree float64) (*RollingSeries, error) {
	vol, err := analytics.RollingVolatility(returns, size)
	if err != nil {
		return nil, err
	}
	sharpe, err := analytics.RollingSharpe(returns, size, riskFree)
	if err != nil {
		return nil, err
	}
	out := &RollingSeries{
		Window:     size,
		Volatility: dateRolling(vol, size, dated),
		Sharpe:     dateRolling(sharpe, size, dated),
	}
	if bench != nil {
		beta, err := analytics.RollingBeta(returns, bench, size)
		if err != nil {
			return nil, err
		}
		out.Beta = dateRolling(beta, size, dated)
	}
	return out, nil
}

func dateRolling(values []float64, size int, dated []types.Observation) []types.Observation {
	out := make([]types.Observation, len(values))
	for i, v := range values {
		out[i] = types.Observation{Timestamp: dated[i+size-1].Timestamp, Value: v}
	}
	return out
}

// fillCosts aggregates the trade history into cost and activity totals.
func fillCosts(res *BacktestResult) {
	traded := decimal.Zero
	res.TotalCommission = decimal.Zero
	res.TotalMarketImpact = decimal.Zero
	res.TotalSlippage = decimal.Zero
	res.ImplementationShortfall = decimal.Zero
	res.AverageTradeSize = decimal.Zero

	for _, f := range res.TradeHistory {
		res.TotalCommission = res.TotalCommission.Add(f.Commission)
		res.TotalMarketImpact = res.TotalMarketImpact.Add(f.ImpactCost)
		res.TotalSlippage = res.TotalSlippage.Add(f.SlippageCost)
		res.ImplementationShortfall = res.ImplementationShortfall.Add(f.Shortfall())
		traded = traded.Add(f.Value())
		if f.Status == types.FillStatusPartiallyFilled {
			res.PartialFills++
		}
	}
	res.TotalTrades = len(res.TradeHistory)
	res.TotalTransactionCosts = res.TotalCommission.Add(res.TotalMarketImpact).Add(res.TotalSlippage)

	if res.TotalTrades > 0 {
		res.AverageTradeSize = traded.Div(decimal.NewFromInt(int64(res.TotalTrades)))
	}
	res.Turnover = traded.Div(res.InitialCapital.Mul(two)).InexactFloat64()

	pnl := res.FinalValue.Sub(res.InitialCapital).Abs()
	if pnl.IsPositive() {
		res.TransactionCostRatio = res.TotalTransactionCosts.Div(pnl).InexactFloat64()
	}
}

// benchmarkReturns samples the benchmark on every snapshot date using the
// latest benchmark price at or before that date.
func benchmarkReturns(bench []types.PriceBar, snaps []types.PortfolioSnapshot) ([]float64, error) {
	values := make([]float64, 0, len(snaps))
	idx := -1
	for _, s := range snaps {
		idx = advanceFeedIndex(bench, barTime, idx, s.Date)
		if idx < 0 {
			return nil, fmt.Errorf("no benchmark price on or before %s: %w", s.Date.Format(time.DateOnly), ErrMissingPriceData)
		}
		values = append(values, bench[idx].Price.InexactFloat64())
	}
	return analytics.Returns(values), nil
}

// Report renders the result as plain text.
func (r *BacktestResult) Report() string {
	var sb strings.Builder
	_ = r.WriteReport(&sb)
	return sb.String()
}

func (r *BacktestResult) WriteReport(w io.Writer) error {
	pw := &reportWriter{w: w}

	pw.line("===== Backtest Report =====")
	pw.printf("Strategy:              %s\n", r.Strategy)
	pw.printf("Period:                %s to %s\n", r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly))
	pw.printf("Trading Days:          %d\n", len(r.PortfolioValues))

	pw.line("\n-- Absolute Performance --")
	pw.printf("Initial Capital:       %s\n", r.InitialCapital.StringFixed(2))
	pw.printf("Final Value:           %s\n", r.FinalValue.StringFixed(2))
	pw.printf("Total Return:          %.2f%%\n", r.TotalReturn*100)
	pw.printf("Annual Return:         %.2f%%\n", r.AnnualReturn*100)
	pw.printf("Annual Volatility:     %.2f%%\n", r.AnnualVolatility*100)

	pw.line("\n-- Risk-Adjusted Metrics --")
	pw.printf("Sharpe Ratio:          %.4f\n", r.SharpeRatio)
	pw.printf("Sortino Ratio:         %.4f\n", r.SortinoRatio)
	pw.printf("Calmar Ratio:          %.4f\n", r.CalmarRatio)
	pw.printf("Omega Ratio:           %.4f\n", r.OmegaRatio)

	pw.line("\n-- Drawdown & Tail Risk --")
	pw.printf("Max Drawdown:          %.2f%%\n", r.MaxDrawdown*100)
	pw.printf("Max Drawdown Days:     %d\n", r.MaxDrawdownDuration)
	pw.printf("Value at Risk:         %.4f\n", r.ValueAtRisk)
	pw.printf("Conditional VaR:       %.4f\n", r.ConditionalValueAtRisk)
	pw.printf("Win Rate:              %.2f%%\n", r.WinRate*100)
	pw.printf("Profit Factor:         %.4f\n", r.ProfitFactor)

	pw.line("\n-- Trading Activity --")
	pw.printf("Total Trades:          %d\n", r.TotalTrades)
	pw.printf("Partial Fills:         %d\n", r.PartialFills)
	pw.printf("Rejected Orders:       %d\n", len(r.RejectedOrders))
	pw.printf("Avg Trade Size:        %s\n", r.AverageTradeSize.StringFixed(2))
	pw.printf("Turnover:              %.4f\n", r.Turnover)

	pw.line("\n-- Costs --")
	pw.printf("Total Commission:      %s\n", r.TotalCommission.StringFixed(2))
	pw.printf("Total Market Impact:   %s\n", r.TotalMarketImpact.StringFixed(2))
	pw.printf("Total Slippage:        %s\n", r.TotalSlippage.StringFixed(2))
	pw.printf("Total Costs:           %s\n", r.TotalTransactionCosts.StringFixed(2))
	pw.printf("Cost / |PnL|:          %.4f\n", r.TransactionCostRatio)
	pw.printf("Impl. Shortfall:       %s\n", r.ImplementationShortfall.StringFixed(2))

	if r.Benchmark != nil {
		pw.line("\n-- Benchmark --")
		pw.printf("Benchmark Return:      %.2f%%\n", r.Benchmark.BenchmarkReturn*100)
		pw.printf("Alpha:                 %.4f\n", r.Benchmark.Alpha)
		pw.printf("Beta:                  %.4f\n", r.Benchmark.Beta)
		pw.printf("Correlation:           %.4f\n", r.Benchmark.Correlation)
		pw.printf("Tracking Error:        %.4f\n", r.Benchmark.TrackingError)
		pw.printf("Information Ratio:     %.4f\n", r.Benchmark.InformationRatio)
	}

	if r.Rolling != nil && len(r.Rolling.Volatility) > 0 {
		last := len(r.Rolling.Volatility) - 1
		pw.printf("\n-- Rolling (%d days, latest) --\n", r.Rolling.Window)
		pw.printf("Volatility:            %.4f\n", r.Rolling.Volatility[last].Value)
		pw.printf("Sharpe Ratio:          %.4f\n", r.Rolling.Sharpe[last].Value)
		if len(r.Rolling.Beta) > 0 {
			pw.printf("Beta:                  %.4f\n", r.Rolling.Beta[len(r.Rolling.Beta)-1].Value)
		}
	}

	pw.line("===========================")
	return pw.err
}

// reportWriter keeps the first write error so the report body stays linear.
type reportWriter struct {
	w   io.Writer
	err error
}

func (p *reportWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *reportWriter) line(s string) {
	p.printf("%s\n", s)
}
