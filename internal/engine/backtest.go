package engine

import (
	"fmt"
	"io"
	"time"

	"quantsim/strategies"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// backtester advances the ledger one trading date at a time. A run is
// strictly sequential: each date depends on every fill before it.
type backtester struct {
	config    *BacktestConfig
	strategy  strategies.Strategy
	feed      *marketFeed
	portfolio *portfolio
	executor  *executor
	progress  io.Writer
	log       zerolog.Logger
}

func newBacktester(cfg *BacktestConfig, strat strategies.Strategy, feed *marketFeed, recorder Recorder, progress io.Writer, log zerolog.Logger) *backtester {
	p := newPortfolio(cfg.initialCapital)
	return &backtester{
		config:    cfg,
		strategy:  strat,
		feed:      feed,
		portfolio: p,
		executor:  newExecutor(p, cfg, recorder, log),
		progress:  progress,
		log:       log,
	}
}

func (b *backtester) run() error {
	dates := tradingDates(b.feed.prices, b.config.start, b.config.end)
	if len(dates) == 0 {
		return fmt.Errorf("no prices between %s and %s: %w",
			b.config.start.Format(time.DateOnly), b.config.end.Format(time.DateOnly), ErrMissingPriceData)
	}
	if err := b.strategy.Init(); err != nil {
		return fmt.Errorf("init strategy %s: %w", b.strategy.Name(), err)
	}
	defer b.strategy.Finish()

	bar := initProgressBar(len(dates), b.progress)
	defer bar.Finish()

	for _, date := range dates {
		if err := b.step(date); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	return nil
}

// step runs one trading date: mark, decide, trade, then record the post-trade snapshot.
func (b *backtester) step(date time.Time) error {
	b.feed.advance(date)
	prices := b.feed.pricesAt(date)

	if _, err := b.portfolio.markToMarket(date, prices); err != nil {
		return err
	}
	view := b.portfolio.view(date)
	weights := b.strategy.OnDate(date, b.feed.history(), view)

	if weights != nil {
		orders, err := deriveOrders(date, weights, view, prices, b.config.minTradeValue, b.config.maxPositionWeight)
		if err != nil {
			return err
		}
		for _, order := range orders {
			_, err := b.executor.execute(order, b.feed.quote(order.Symbol, prices[order.Symbol]))
			if err != nil && !recoverable(err) {
				return err
			}
		}
	}

	snap, err := b.portfolio.markToMarket(date, prices)
	if err != nil {
		return err
	}
	b.portfolio.snapshots = append(b.portfolio.snapshots, snap)
	b.log.Debug().
		Time("date", date).
		Str("total", snap.TotalValue.String()).
		Str("cash", snap.Cash.String()).
		Int("positions", len(snap.Positions)).
		Msg("snapshot")
	return nil
}

func initProgressBar(maxTicks int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
