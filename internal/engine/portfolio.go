package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"quantsim/types"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeCash        = errors.New("fill would leave a negative cash balance")
	ErrShortSellNotAllowed = errors.New("short sell not allowed, order sells more than held")
	ErrMissingPriceData    = errors.New("missing price data")
)

// portfolio is the ledger. Only the executor applies fills to it; strategies
// see a PortfolioView copy.
type portfolio struct {
	cash      decimal.Decimal
	positions map[string]*Position
	fills     []types.Fill
	snapshots []types.PortfolioSnapshot
}

type Position struct {
	Symbol    string
	Quantity  decimal.Decimal
	AvgCost   decimal.Decimal
	LastPrice decimal.Decimal
}

func newPortfolio(initialCash decimal.Decimal) *portfolio {
	return &portfolio{
		cash:      initialCash,
		positions: make(map[string]*Position),
	}
}

func (p *portfolio) view(curTime time.Time) types.PortfolioView {
	view := types.PortfolioView{
		Cash:      p.cash,
		Positions: make(map[string]types.PositionSnapshot, len(p.positions)),
		Time:      curTime,
	}
	for sym, pos := range p.positions {
		view.Positions[sym] = types.PositionSnapshot{
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			AvgCost:   pos.AvgCost,
			LastPrice: pos.LastPrice,
		}
	}
	return view
}

func (p *portfolio) quantity(symbol string) decimal.Decimal {
	if pos, ok := p.positions[symbol]; ok {
		return pos.Quantity
	}
	return decimal.Zero
}

// heldSymbols returns symbols with an open position, sorted.
func (p *portfolio) heldSymbols() []string {
	out := make([]string, 0, len(p.positions))
	for sym := range p.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// applyFill books a fill. Every check runs before the ledger is touched, so a
// rejected fill leaves it unchanged.
func (p *portfolio) applyFill(fill types.Fill) error {
	quantity := fill.Quantity
	if quantity.IsZero() {
		return nil
	}

	cashDelta := fill.ExecutionPrice.Mul(quantity).Neg()
	newCash := p.cash.Add(cashDelta).Sub(fill.Commission)
	if newCash.IsNegative() {
		return fmt.Errorf("%s on %s: %w", fill.Symbol, fill.Date.Format(time.DateOnly), ErrNegativeCash)
	}

	oldQty := p.quantity(fill.Symbol)
	newQty := oldQty.Add(quantity)
	if newQty.IsNegative() {
		return fmt.Errorf("%s on %s: %w", fill.Symbol, fill.Date.Format(time.DateOnly), ErrShortSellNotAllowed)
	}

	p.cash = newCash
	pos := p.positions[fill.Symbol]
	if pos == nil {
		pos = &Position{Symbol: fill.Symbol}
		p.positions[fill.Symbol] = pos
	}

	switch {
	case newQty.IsZero():
		delete(p.positions, fill.Symbol)
	case oldQty.IsZero():
		pos.Quantity = newQty
		pos.AvgCost = fill.ExecutionPrice
	case newQty.GreaterThan(oldQty):
		pos.AvgCost = weightedAvg(pos.AvgCost, oldQty, fill.ExecutionPrice, quantity)
		pos.Quantity = newQty
	default:
		// reductions keep the average cost
		pos.Quantity = newQty
	}

	pos.LastPrice = fill.MarketPrice
	p.fills = append(p.fills, fill)
	return nil
}

// markToMarket values the ledger at date. A held symbol without a price is fatal.
func (p *portfolio) markToMarket(date time.Time, prices map[string]decimal.Decimal) (types.PortfolioSnapshot, error) {
	for sym := range p.positions {
		if _, ok := prices[sym]; !ok {
			return types.PortfolioSnapshot{}, fmt.Errorf("%s on %s: %w", sym, date.Format(time.DateOnly), ErrMissingPriceData)
		}
	}

	snap := types.PortfolioSnapshot{
		Date:      date,
		Cash:      p.cash,
		Positions: make(map[string]types.PositionValue, len(p.positions)),
	}
	total := p.cash
	for sym, pos := range p.positions {
		price := prices[sym]
		pos.LastPrice = price
		value := pos.Quantity.Mul(price)
		snap.Positions[sym] = types.PositionValue{Quantity: pos.Quantity, Price: price, Value: value}
		total = total.Add(value)
	}
	snap.TotalValue = total
	return snap, nil
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	if existingQty.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(existingQty.Add(newQty))
}
