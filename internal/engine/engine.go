package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"quantsim/strategies"
	"quantsim/types"

	"github.com/rs/zerolog"
)

// Engine holds the pre-loaded market data for one strategy and configuration.
// Run may be called repeatedly; every run starts from a fresh ledger.
type Engine struct {
	config   *BacktestConfig
	strategy strategies.Strategy

	prices       map[string][]types.PriceBar
	volumes      map[string][]types.Observation
	volatilities map[string][]types.Observation
	benchmark    []types.PriceBar

	recorder Recorder
	log      zerolog.Logger
}

type EngineOption func(*Engine)

func WithLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

func NewEngine(cfg *BacktestConfig, strat strategies.Strategy, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfiguration)
	}
	if strat == nil || len(strat.Symbols()) == 0 {
		return nil, fmt.Errorf("%w: strategy has no symbols", ErrInvalidConfiguration)
	}
	e := &Engine{
		config:       cfg,
		strategy:     strat,
		prices:       make(map[string][]types.PriceBar),
		volumes:      make(map[string][]types.Observation),
		volatilities: make(map[string][]types.Observation),
		recorder:     nopRecorder{},
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Config() *BacktestConfig { return e.config }

func (e *Engine) Strategy() strategies.Strategy { return e.strategy }

// LoadPrices registers the price series of symbol, replacing any earlier one.
func (e *Engine) LoadPrices(symbol string, bars []types.PriceBar) error {
	if err := validatePriceSeries(symbol, bars); err != nil {
		return err
	}
	e.prices[symbol] = append([]types.PriceBar(nil), bars...)
	return nil
}

// LoadVolumes registers daily traded volume for the impact model.
func (e *Engine) LoadVolumes(symbol string, obs []types.Observation) error {
	if err := validateObservations("volume", symbol, obs); err != nil {
		return err
	}
	e.volumes[symbol] = append([]types.Observation(nil), obs...)
	return nil
}

// LoadVolatilities registers daily volatility for the square root impact model.
func (e *Engine) LoadVolatilities(symbol string, obs []types.Observation) error {
	if err := validateObservations("volatility", symbol, obs); err != nil {
		return err
	}
	e.volatilities[symbol] = append([]types.Observation(nil), obs...)
	return nil
}

// LoadBenchmark registers a benchmark price series to compare the run against.
func (e *Engine) LoadBenchmark(bars []types.PriceBar) error {
	if err := validatePriceSeries("benchmark", bars); err != nil {
		return err
	}
	e.benchmark = append([]types.PriceBar(nil), bars...)
	return nil
}

// LoadFrom pulls prices and volumes for every strategy symbol from source.
// benchmark is optional.
func (e *Engine) LoadFrom(ctx context.Context, source MarketDataSource, benchmark string) error {
	for _, sym := range e.strategy.Symbols() {
		bars, err := source.GetDailyBars(ctx, sym, e.config.start, e.config.end)
		if err != nil {
			return fmt.Errorf("load %s: %w", sym, err)
		}
		prices, volumes := types.SplitDailyBars(bars)
		if err := e.LoadPrices(sym, prices); err != nil {
			return err
		}
		if err := e.LoadVolumes(sym, volumes); err != nil {
			return err
		}
		e.log.Info().Str("symbol", sym).Int("bars", len(bars)).Msg("loaded market data")
	}
	if benchmark == "" {
		return nil
	}
	bars, err := source.GetDailyBars(ctx, benchmark, e.config.start, e.config.end)
	if err != nil {
		return fmt.Errorf("load benchmark %s: %w", benchmark, err)
	}
	prices, _ := types.SplitDailyBars(bars)
	return e.LoadBenchmark(prices)
}

// Run simulates the whole date range and returns a result owned by the caller.
// Fatal errors return no partial result.
func (e *Engine) Run() (*BacktestResult, error) {
	started := time.Now()
	res, err := e.run()
	e.recorder.RunCompleted(e.strategy.Name(), time.Since(started), err)
	if err != nil {
		e.log.Error().Err(err).Str("strategy", e.strategy.Name()).Msg("backtest failed")
		return nil, err
	}
	e.log.Info().
		Str("strategy", e.strategy.Name()).
		Str("final_value", res.FinalValue.String()).
		Int("trades", res.TotalTrades).
		Int("rejected", len(res.RejectedOrders)).
		Dur("elapsed", time.Since(started)).
		Msg("backtest completed")
	return res, nil
}

func (e *Engine) run() (*BacktestResult, error) {
	var progress io.Writer = io.Discard
	if e.config.showProgress {
		progress = os.Stderr
	}
	feed := newMarketFeed(e.prices, e.volumes, e.volatilities)
	bt := newBacktester(e.config, e.strategy, feed, e.recorder, progress, e.log)
	if err := bt.run(); err != nil {
		return nil, err
	}
	return e.generateResult(bt)
}
