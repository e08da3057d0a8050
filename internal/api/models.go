package api

import (
	"time"

	"quantsim/internal/analytics"
	"quantsim/internal/config"
	"quantsim/internal/engine"
	"quantsim/strategies"
	"quantsim/types"

	"github.com/shopspring/decimal"
)

// BacktestRequest is the body of POST /api/v1/backtests.
type BacktestRequest struct {
	Name          string          `json:"name"`
	Backtest      config.Backtest `json:"backtest"`
	Strategy      strategies.Spec `json:"strategy"`
	IncludeTrades bool            `json:"include_trades"`
}

// CompareRequest runs several strategies over the same configuration.
type CompareRequest struct {
	Backtest   config.Backtest   `json:"backtest"`
	Strategies []strategies.Spec `json:"strategies" binding:"required,min=1"`
}

// BacktestResponse is returned for a finished run.
type BacktestResponse struct {
	ID      int64        `json:"id,omitempty"`
	Name    string       `json:"name"`
	Summary Summary      `json:"summary"`
	Trades  []types.Fill `json:"trades,omitempty"`
}

type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult holds one strategy's outcome. Error is set instead of
// Summary when that run failed.
type ComparisonResult struct {
	Name    string   `json:"name"`
	Summary *Summary `json:"summary,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Summary contains the scalar results of a run.
type Summary struct {
	Strategy                string                    `json:"strategy"`
	StartDate               time.Time                 `json:"start_date"`
	EndDate                 time.Time                 `json:"end_date"`
	TradingDays             int                       `json:"trading_days"`
	InitialCapital          decimal.Decimal           `json:"initial_capital"`
	FinalValue              decimal.Decimal           `json:"final_value"`
	TotalReturn             float64                   `json:"total_return"`
	AnnualReturn            float64                   `json:"annual_return"`
	AnnualVolatility        float64                   `json:"annual_volatility"`
	SharpeRatio             float64                   `json:"sharpe_ratio"`
	SortinoRatio            float64                   `json:"sortino_ratio"`
	CalmarRatio             float64                   `json:"calmar_ratio"`
	OmegaRatio              float64                   `json:"omega_ratio"`
	MaxDrawdown             float64                   `json:"max_drawdown"`
	MaxDrawdownDuration     int                       `json:"max_drawdown_duration"`
	WinRate                 float64                   `json:"win_rate"`
	ProfitFactor            float64                   `json:"profit_factor"`
	ValueAtRisk             float64                   `json:"value_at_risk"`
	ConditionalValueAtRisk  float64                   `json:"conditional_value_at_risk"`
	TotalTrades             int                       `json:"total_trades"`
	PartialFills            int                       `json:"partial_fills"`
	RejectedOrders          int                       `json:"rejected_orders"`
	TotalCommission         decimal.Decimal           `json:"total_commission"`
	TotalMarketImpact       decimal.Decimal           `json:"total_market_impact"`
	TotalSlippage           decimal.Decimal           `json:"total_slippage"`
	Turnover                float64                   `json:"turnover"`
	TransactionCostRatio    float64                   `json:"transaction_cost_ratio"`
	ImplementationShortfall decimal.Decimal           `json:"implementation_shortfall"`
	Benchmark               *analytics.BenchmarkStats `json:"benchmark,omitempty"`
}

func newSummary(res *engine.BacktestResult) Summary {
	return Summary{
		Strategy:                res.Strategy,
		StartDate:               res.StartDate,
		EndDate:                 res.EndDate,
		TradingDays:             len(res.PortfolioValues),
		InitialCapital:          res.InitialCapital,
		FinalValue:              res.FinalValue,
		TotalReturn:             res.TotalReturn,
		AnnualReturn:            res.AnnualReturn,
		AnnualVolatility:        res.AnnualVolatility,
		SharpeRatio:             res.SharpeRatio,
		SortinoRatio:            res.SortinoRatio,
		CalmarRatio:             res.CalmarRatio,
		OmegaRatio:              res.OmegaRatio,
		MaxDrawdown:             res.MaxDrawdown,
		MaxDrawdownDuration:     res.MaxDrawdownDuration,
		WinRate:                 res.WinRate,
		ProfitFactor:            res.ProfitFactor,
		ValueAtRisk:             res.ValueAtRisk,
		ConditionalValueAtRisk:  res.ConditionalValueAtRisk,
		TotalTrades:             res.TotalTrades,
		PartialFills:            res.PartialFills,
		RejectedOrders:          len(res.RejectedOrders),
		TotalCommission:         res.TotalCommission,
		TotalMarketImpact:       res.TotalMarketImpact,
		TotalSlippage:           res.TotalSlippage,
		Turnover:                res.Turnover,
		TransactionCostRatio:    res.TransactionCostRatio,
		ImplementationShortfall: res.ImplementationShortfall,
		Benchmark:               res.Benchmark,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
