package engine

import (
	"fmt"
	"math"
	"time"

	"quantsim/types"

	"github.com/shopspring/decimal"
)

// deriveOrders diffs target weights against the current holdings. Order
// quantity is (weight*total - currentValue)/price rounded toward zero; a held
// symbol whose target is absent, zero or not a finite number is sold in full.
// Weights above maxWeight are clamped to it when maxWeight is positive. Sells
// come first so their proceeds fund the buys, and each group is in symbol order.
func deriveOrders(
	date time.Time,
	weights types.TargetWeights,
	view types.PortfolioView,
	prices map[string]decimal.Decimal,
	minTradeValue decimal.Decimal,
	maxWeight float64,
) ([]types.Order, error) {
	total := view.TotalValue()

	targets := make(types.TargetWeights, len(weights)+len(view.Positions))
	for sym, w := range weights {
		if w = targetWeight(w, maxWeight); w > 0 {
			targets[sym] = w
		}
	}
	for sym := range view.Positions {
		if _, ok := targets[sym]; !ok {
			targets[sym] = 0
		}
	}

	var sells, buys []types.Order
	for _, sym := range targets.Symbols() {
		price, ok := prices[sym]
		if !ok {
			return nil, fmt.Errorf("%s on %s: %w", sym, date.Format(time.DateOnly), ErrMissingPriceData)
		}

		held := view.Positions[sym].Quantity
		w := targets[sym]
		if w == 0 {
			if held.IsPositive() {
				sells = append(sells, types.NewOrder(sym, held.Neg(), date))
			}
			continue
		}

		target := total.Mul(decimal.NewFromFloat(w))
		current := held.Mul(price)
		qty := target.Sub(current).Div(price).RoundDown(quantityPlaces)
		if qty.IsZero() || qty.Abs().Mul(price).LessThan(minTradeValue) {
			continue
		}
		if qty.IsNegative() {
			sells = append(sells, types.NewOrder(sym, qty, date))
		} else {
			buys = append(buys, types.NewOrder(sym, qty, date))
		}
	}
	return append(sells, buys...), nil
}

// targetWeight maps a strategy weight onto [0, maxWeight]. Negative and
// non-finite weights target zero.
func targetWeight(w, maxWeight float64) float64 {
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	if maxWeight > 0 && w > maxWeight {
		return maxWeight
	}
	return w
}
