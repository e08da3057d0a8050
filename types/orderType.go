package types

import "github.com/shopspring/decimal"

type Side string

type FillStatus string

const (
	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"

	FillStatusFilled          FillStatus = "FILLED"
	FillStatusPartiallyFilled FillStatus = "PARTIALLY_FILLED"
)

// SideOf returns the side implied by a signed quantity.
func SideOf(quantity decimal.Decimal) Side {
	if quantity.IsNegative() {
		return SideTypeSell
	}
	return SideTypeBuy
}
