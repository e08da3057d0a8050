package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill is the immutable record of one executed order.
type Fill struct {
	Symbol            string          `json:"symbol"`
	Side              Side            `json:"side"`
	Status            FillStatus      `json:"status"`
	Quantity          decimal.Decimal `json:"quantity"` // signed, negative for sells
	RequestedQuantity decimal.Decimal `json:"requested_quantity"`
	ExecutionPrice    decimal.Decimal `json:"execution_price"`
	MarketPrice       decimal.Decimal `json:"market_price"`
	Commission        decimal.Decimal `json:"commission"`
	ImpactCost        decimal.Decimal `json:"impact_cost"`
	SlippageCost      decimal.Decimal `json:"slippage_cost"`
	Date              time.Time       `json:"date"`
}

// Value is the absolute traded value at the execution price.
func (f Fill) Value() decimal.Decimal {
	return f.Quantity.Abs().Mul(f.ExecutionPrice)
}

// Shortfall is the signed cost of trading away from the market price.
func (f Fill) Shortfall() decimal.Decimal {
	return f.ExecutionPrice.Sub(f.MarketPrice).Mul(f.Quantity)
}
