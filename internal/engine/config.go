package engine

import (
	"errors"
	"fmt"
	"time"

	"quantsim/internal/costs"

	"github.com/shopspring/decimal"
)

var ErrInvalidConfiguration = errors.New("invalid backtest configuration")

const (
	DefaultMinTradeValue = "0.01"
	DefaultVaRAlpha      = 0.05
)

// BacktestConfig is immutable once built by NewBacktestConfig.
type BacktestConfig struct {
	start              time.Time
	end                time.Time
	initialCapital     decimal.Decimal
	commission         costs.CommissionModel
	impact             costs.ImpactModel
	cashBuffer         decimal.Decimal
	enablePartialFills bool

	minTradeValue decimal.Decimal
	riskFreeRate  float64
	varAlpha      float64
	showProgress  bool

	slippageSpec      costs.SlippageSpec
	slippage          costs.SlippageModel
	maxParticipation  float64
	maxPositionWeight float64
	rollingWindow     int
}

type ConfigOption func(*BacktestConfig)

// WithMinTradeValue skips orders worth less than v. Full liquidations are never skipped.
func WithMinTradeValue(v decimal.Decimal) ConfigOption {
	return func(c *BacktestConfig) { c.minTradeValue = v }
}

// WithRiskFreeRate sets the annual risk free rate used by Sharpe and Sortino.
func WithRiskFreeRate(rate float64) ConfigOption {
	return func(c *BacktestConfig) { c.riskFreeRate = rate }
}

func WithVaRAlpha(alpha float64) ConfigOption {
	return func(c *BacktestConfig) { c.varAlpha = alpha }
}

func WithProgress(show bool) ConfigOption {
	return func(c *BacktestConfig) { c.showProgress = show }
}

// WithSlippage charges spread and volatility slippage on every fill.
func WithSlippage(spec costs.SlippageSpec) ConfigOption {
	return func(c *BacktestConfig) { c.slippageSpec = spec }
}

// WithMaxParticipation caps each order at rate times the symbol's daily
// volume. The rest of the order is dropped for that date. Zero disables it.
func WithMaxParticipation(rate float64) ConfigOption {
	return func(c *BacktestConfig) { c.maxParticipation = rate }
}

// WithMaxPositionWeight clamps every target weight to w. Zero disables it.
func WithMaxPositionWeight(w float64) ConfigOption {
	return func(c *BacktestConfig) { c.maxPositionWeight = w }
}

// WithRollingWindow adds rolling volatility, Sharpe and, with a benchmark,
// beta series of the given window to the result. Zero disables it.
func WithRollingWindow(size int) ConfigOption {
	return func(c *BacktestConfig) { c.rollingWindow = size }
}

func NewBacktestConfig(
	start, end time.Time,
	initialCapital decimal.Decimal,
	commission costs.CommissionSpec,
	impact costs.ImpactSpec,
	cashBuffer decimal.Decimal,
	enablePartialFills bool,
	opts ...ConfigOption,
) (*BacktestConfig, error) {
	cfg := &BacktestConfig{
		start:              start,
		end:                end,
		initialCapital:     initialCapital,
		cashBuffer:         cashBuffer,
		enablePartialFills: enablePartialFills,
		minTradeValue:      decimal.RequireFromString(DefaultMinTradeValue),
		varAlpha:           DefaultVaRAlpha,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrInvalidConfiguration)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidConfiguration,
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	if !initialCapital.IsPositive() {
		return nil, fmt.Errorf("%w: initial capital must be positive, got %s", ErrInvalidConfiguration, initialCapital)
	}
	if cashBuffer.IsNegative() || cashBuffer.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: cash buffer must be in [0, 1), got %s", ErrInvalidConfiguration, cashBuffer)
	}
	if cfg.minTradeValue.IsNegative() {
		return nil, fmt.Errorf("%w: negative minimum trade value", ErrInvalidConfiguration)
	}
	if cfg.varAlpha <= 0 || cfg.varAlpha >= 1 {
		return nil, fmt.Errorf("%w: VaR alpha must be in (0, 1), got %v", ErrInvalidConfiguration, cfg.varAlpha)
	}
	if !unitFraction(cfg.maxParticipation) {
		return nil, fmt.Errorf("%w: max participation must be in [0, 1], got %v", ErrInvalidConfiguration, cfg.maxParticipation)
	}
	if !unitFraction(cfg.maxPositionWeight) {
		return nil, fmt.Errorf("%w: max position weight must be in [0, 1], got %v", ErrInvalidConfiguration, cfg.maxPositionWeight)
	}
	if cfg.rollingWindow < 0 || cfg.rollingWindow == 1 {
		return nil, fmt.Errorf("%w: rolling window must be 0 or at least 2, got %d", ErrInvalidConfiguration, cfg.rollingWindow)
	}
	// partial fill sizing bisects on cost, which needs a fee that never falls as value grows
	if enablePartialFills && !commission.NonDecreasing() {
		return nil, fmt.Errorf("%w: partial fills need tier rates that do not decrease", ErrInvalidConfiguration)
	}

	var err error
	if cfg.commission, err = costs.NewCommissionModel(commission); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if cfg.impact, err = costs.NewImpactModel(impact); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if cfg.slippage, err = costs.NewSlippageModel(cfg.slippageSpec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return cfg, nil
}

func (c *BacktestConfig) Start() time.Time { return c.start }
func (c *BacktestConfig) End() time.Time { return c.end }
func (c *BacktestConfig) InitialCapital() decimal.Decimal { return c.initialCapital }
func (c *BacktestConfig) CashBuffer() decimal.Decimal { return c.cashBuffer }
func (c *BacktestConfig) PartialFillsEnabled() bool { return c.enablePartialFills }
func (c *BacktestConfig) Commission() costs.CommissionSpec { return c.commission.Spec() }
func (c *BacktestConfig) Impact() costs.ImpactSpec { return c.impact.Spec() }
func (c *BacktestConfig) MinTradeValue() decimal.Decimal { return c.minTradeValue }
func (c *BacktestConfig) RiskFreeRate() float64 { return c.riskFreeRate }
func (c *BacktestConfig) Slippage() costs.SlippageSpec { return c.slippage.Spec() }
func (c *BacktestConfig) MaxParticipation() float64 { return c.maxParticipation }
func (c *BacktestConfig) MaxPositionWeight() float64 { return c.maxPositionWeight }
func (c *BacktestConfig) RollingWindow() int { return c.rollingWindow }

// minCash is the cash floor every trade must leave behind.
func (c *BacktestConfig) minCash() decimal.Decimal {
	return c.initialCapital.Mul(c.cashBuffer)
}

func unitFraction(v float64) bool {
	return v >= 0 && v <= 1
}
