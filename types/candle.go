package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyBar is one stored end-of-day record for a symbol.
type DailyBar struct {
	Symbol    string          `json:"symbol"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// PriceBar is a single point of a price series. Price is always > 0.
type PriceBar struct {
	Timestamp time.Time
	Price     decimal.Decimal
}

// Observation is a float valued point used for volume, volatility and benchmark series.
type Observation struct {
	Timestamp time.Time
	Value     float64
}

// SplitDailyBars turns stored bars into the price and volume series the engine loads.
func SplitDailyBars(bars []DailyBar) ([]PriceBar, []Observation) {
	prices := make([]PriceBar, 0, len(bars))
	volumes := make([]Observation, 0, len(bars))
	for _, b := range bars {
		prices = append(prices, PriceBar{Timestamp: b.Timestamp, Price: b.Close})
		volumes = append(volumes, Observation{Timestamp: b.Timestamp, Value: b.Volume.InexactFloat64()})
	}
	return prices, volumes
}
