package strategies

import (
	"time"

	"quantsim/types"
)

// BuyAndHold allocates equally on the first date and never trades again.
type BuyAndHold struct {
	lifecycle
}

func NewBuyAndHold(symbols []string) (*BuyAndHold, error) {
	symbols, err := normalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}
	return &BuyAndHold{lifecycle: lifecycle{symbols: symbols, state: StateNotStarted}}, nil
}

func (s *BuyAndHold) Name() string { return "BuyAndHold" }
func (s *BuyAndHold) Kind() Kind { return KindBuyAndHold }

func (s *BuyAndHold) Init() error {
	s.reset()
	return nil
}

func (s *BuyAndHold) OnDate(_ time.Time, _ map[string][]types.PriceBar, view types.PortfolioView) types.TargetWeights {
	idx, ok := s.tick()
	if !ok {
		return nil
	}
	if idx == 0 {
		return types.EqualWeights(s.symbols)
	}
	return view.Weights()
}
