package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioView is a read-only copy of the ledger handed to strategies.
type PortfolioView struct {
	Cash      decimal.Decimal
	Positions map[string]PositionSnapshot
	Time      time.Time
}

type PositionSnapshot struct {
	Symbol    string
	Quantity  decimal.Decimal
	AvgCost   decimal.Decimal
	LastPrice decimal.Decimal
}

func (p PositionSnapshot) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.LastPrice)
}

// TotalValue is cash plus every position marked at its last price.
func (v PortfolioView) TotalValue() decimal.Decimal {
	total := v.Cash
	for _, pos := range v.Positions {
		total = total.Add(pos.MarketValue())
	}
	return total
}

// Weights returns each position's share of the total value.
func (v PortfolioView) Weights() TargetWeights {
	weights := make(TargetWeights, len(v.Positions))
	total := v.TotalValue()
	if !total.IsPositive() {
		return weights
	}
	for sym, pos := range v.Positions {
		weights[sym] = pos.MarketValue().Div(total).InexactFloat64()
	}
	return weights
}

// PortfolioSnapshot is the mark-to-market state recorded once per trading date.
type PortfolioSnapshot struct {
	Date       time.Time
	Cash       decimal.Decimal
	Positions  map[string]PositionValue
	TotalValue decimal.Decimal
}

type PositionValue struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Value    decimal.Decimal
}
