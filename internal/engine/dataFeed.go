package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"quantsim/internal/costs"
	"quantsim/types"

	"github.com/shopspring/decimal"
)

var ErrInvalidPriceSeries = errors.New("invalid price series")

// validatePriceSeries enforces positive prices and strictly increasing timestamps.
func validatePriceSeries(symbol string, bars []types.PriceBar) error {
	for i, b := range bars {
		if !b.Price.IsPositive() {
			return fmt.Errorf("%w: %s has non-positive price %s at %s", ErrInvalidPriceSeries, symbol, b.Price, b.Timestamp.Format(time.DateOnly))
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("%w: %s timestamps not strictly increasing at %s", ErrInvalidPriceSeries, symbol, b.Timestamp.Format(time.DateOnly))
		}
	}
	return nil
}

func validateObservations(name, symbol string, obs []types.Observation) error {
	for i, o := range obs {
		if o.Value < 0 {
			return fmt.Errorf("%w: %s %s negative at %s", ErrInvalidPriceSeries, symbol, name, o.Timestamp.Format(time.DateOnly))
		}
		if i > 0 && !o.Timestamp.After(obs[i-1].Timestamp) {
			return fmt.Errorf("%w: %s %s timestamps not strictly increasing", ErrInvalidPriceSeries, symbol, name)
		}
	}
	return nil
}

// tradingDates is the sorted union of every bar timestamp within [start, end].
func tradingDates(feeds map[string][]types.PriceBar, start, end time.Time) []time.Time {
	seen := make(map[int64]time.Time)
	for _, bars := range feeds {
		for _, b := range bars {
			if b.Timestamp.Before(start) || b.Timestamp.After(end) {
				continue
			}
			seen[b.Timestamp.UnixNano()] = b.Timestamp
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		dates = append(dates, ts)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Index only goes one way. Returns the last index whose timestamp is <= curTime,
// or prevIndex when nothing new has arrived.
func advanceFeedIndex[T any](feed []T, timestamp func(T) time.Time, prevIndex int, curTime time.Time) int {
	if prevIndex < -1 {
		prevIndex = -1
	}
	nextIdx := prevIndex + 1
	for nextIdx < len(feed) {
		if timestamp(feed[nextIdx]).After(curTime) {
			break
		}
		prevIndex = nextIdx
		nextIdx++
	}
	return prevIndex
}

func barTime(b types.PriceBar) time.Time { return b.Timestamp }
func obsTime(o types.Observation) time.Time { return o.Timestamp }

// marketFeed walks every loaded series forward one trading date at a time.
type marketFeed struct {
	prices       map[string][]types.PriceBar
	volumes      map[string][]types.Observation
	volatilities map[string][]types.Observation

	priceIndex      map[string]int
	volumeIndex     map[string]int
	volatilityIndex map[string]int
}

func newMarketFeed(prices map[string][]types.PriceBar, volumes, volatilities map[string][]types.Observation) *marketFeed {
	f := &marketFeed{
		prices:          prices,
		volumes:         volumes,
		volatilities:    volatilities,
		priceIndex:      make(map[string]int, len(prices)),
		volumeIndex:     make(map[string]int, len(volumes)),
		volatilityIndex: make(map[string]int, len(volatilities)),
	}
	for sym := range prices {
		f.priceIndex[sym] = -1
	}
	for sym := range volumes {
		f.volumeIndex[sym] = -1
	}
	for sym := range volatilities {
		f.volatilityIndex[sym] = -1
	}
	return f
}

func (f *marketFeed) advance(curTime time.Time) {
	for sym, bars := range f.prices {
		f.priceIndex[sym] = advanceFeedIndex(bars, barTime, f.priceIndex[sym], curTime)
	}
	for sym, obs := range f.volumes {
		f.volumeIndex[sym] = advanceFeedIndex(obs, obsTime, f.volumeIndex[sym], curTime)
	}
	for sym, obs := range f.volatilities {
		f.volatilityIndex[sym] = advanceFeedIndex(obs, obsTime, f.volatilityIndex[sym], curTime)
	}
}

// pricesAt returns the close of every symbol that has a bar exactly at curTime.
func (f *marketFeed) pricesAt(curTime time.Time) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(f.prices))
	for sym, bars := range f.prices {
		idx := f.priceIndex[sym]
		if idx < 0 || !bars[idx].Timestamp.Equal(curTime) {
			continue
		}
		out[sym] = bars[idx].Price
	}
	return out
}

// history returns each symbol's bars up to and including the current date.
// The slices share the loaded arrays and must be treated as read-only.
func (f *marketFeed) history() map[string][]types.PriceBar {
	out := make(map[string][]types.PriceBar, len(f.prices))
	for sym, bars := range f.prices {
		out[sym] = bars[:f.priceIndex[sym]+1 : f.priceIndex[sym]+1]
	}
	return out
}

// quote returns price plus the latest known volume and volatility, falling back
// to the defaults when none was loaded.
func (f *marketFeed) quote(symbol string, price decimal.Decimal) quote {
	q := quote{price: price, volume: costs.DefaultVolume, volatility: costs.DefaultVolatility}
	if obs, ok := f.volumes[symbol]; ok {
		if idx := f.volumeIndex[symbol]; idx >= 0 {
			q.volume = obs[idx].Value
		}
	}
	if obs, ok := f.volatilities[symbol]; ok {
		if idx := f.volatilityIndex[symbol]; idx >= 0 {
			q.volatility = obs[idx].Value
		}
	}
	return q
}
