package costs

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidSlippage = errors.New("invalid slippage model")

// SlippageSpec prices crossing the spread. Half of BidAskSpread is paid on
// every order, plus VolatilityMultiplier*volatility scaled by the order's
// share of daily volume. The zero value charges nothing.
type SlippageSpec struct {
	BidAskSpread         float64
	VolatilityMultiplier float64
}

type SlippageModel struct {
	spec SlippageSpec
}

func NewSlippageModel(spec SlippageSpec) (SlippageModel, error) {
	for name, v := range map[string]float64{
		"bid_ask_spread":        spec.BidAskSpread,
		"volatility_multiplier": spec.VolatilityMultiplier,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return SlippageModel{}, fmt.Errorf("%w: %s %v", ErrInvalidSlippage, name, v)
		}
	}
	if spec.BidAskSpread >= 1 {
		return SlippageModel{}, fmt.Errorf("%w: bid_ask_spread %v must be below 1", ErrInvalidSlippage, spec.BidAskSpread)
	}
	return SlippageModel{spec: spec}, nil
}

// Slippage is the adverse price move as a fraction of price, capped at 1.
func (m SlippageModel) Slippage(orderSize decimal.Decimal, volume, volatility float64) decimal.Decimal {
	f := m.spec.BidAskSpread / 2
	if volume > 0 && volatility > 0 {
		f += m.spec.VolatilityMultiplier * volatility * orderSize.Abs().InexactFloat64() / volume
	}
	return fraction(f)
}

func (m SlippageModel) Spec() SlippageSpec { return m.spec }
