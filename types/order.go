package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a signed quantity change derived from a target weight diff.
// Positive quantities buy, negative quantities sell.
type Order struct {
	Symbol   string
	Quantity decimal.Decimal
	Date     time.Time
}

func NewOrder(symbol string, quantity decimal.Decimal, date time.Time) Order {
	return Order{
		Symbol:   symbol,
		Quantity: quantity,
		Date:     date,
	}
}

func (o Order) Side() Side {
	return SideOf(o.Quantity)
}

// RejectedOrder records an order the executor skipped.
type RejectedOrder struct {
	Order  Order
	Reason string
}
