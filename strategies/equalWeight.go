package strategies

import (
	"fmt"
	"time"

	"quantsim/types"
)

// EqualWeight resets every symbol to 1/n on trading days where
// dayIndex % period == 0, counting from 0. Over n days that is
// (n-1)/period + 1 rebalances.
type EqualWeight struct {
	lifecycle
	period     int
	rebalances int
}

func NewEqualWeight(symbols []string, period int) (*EqualWeight, error) {
	symbols, err := normalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}
	if period < 1 {
		return nil, fmt.Errorf("%w: rebalance period %d", ErrInvalidStrategy, period)
	}
	return &EqualWeight{lifecycle: lifecycle{symbols: symbols, state: StateNotStarted}, period: period}, nil
}

func (s *EqualWeight) Name() string { return fmt.Sprintf("EqualWeight(%d)", s.period) }
func (s *EqualWeight) Kind() Kind { return KindEqualWeight }

func (s *EqualWeight) Init() error {
	s.reset()
	s.rebalances = 0
	return nil
}

// Rebalances counts the dates on which equal weights were issued this run.
func (s *EqualWeight) Rebalances() int {
	return s.rebalances
}

func (s *EqualWeight) OnDate(_ time.Time, _ map[string][]types.PriceBar, view types.PortfolioView) types.TargetWeights {
	idx, ok := s.tick()
	if !ok {
		return nil
	}
	if idx%s.period != 0 {
		return view.Weights()
	}
	s.rebalances++
	return types.EqualWeights(s.symbols)
}
