package strategies

import (
	"fmt"
	"sort"
	"time"

	"quantsim/types"
)

// Momentum ranks symbols by trailing return over lookback trading days every
// holdingPeriod days and holds the top topN equally weighted. Ties rank by
// symbol. When no symbol has enough history yet it falls back to equal weight.
type Momentum struct {
	lifecycle
	lookback      int
	holdingPeriod int
	topN          int
	rebalances    int
}

type ranked struct {
	symbol string
	ret    float64
}

func NewMomentum(symbols []string, lookback, holdingPeriod, topN int) (*Momentum, error) {
	symbols, err := normalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}
	if lookback < 1 || holdingPeriod < 1 || topN < 1 {
		return nil, fmt.Errorf("%w: lookback %d, holding period %d, top %d",
			ErrInvalidStrategy, lookback, holdingPeriod, topN)
	}
	return &Momentum{
		lifecycle:     lifecycle{symbols: symbols, state: StateNotStarted},
		lookback:      lookback,
		holdingPeriod: holdingPeriod,
		topN:          topN,
	}, nil
}

func (s *Momentum) Name() string {
	return fmt.Sprintf("Momentum(%d,%d,top%d)", s.lookback, s.holdingPeriod, s.topN)
}

func (s *Momentum) Kind() Kind { return KindMomentum }

func (s *Momentum) Init() error {
	s.reset()
	s.rebalances = 0
	return nil
}

func (s *Momentum) Rebalances() int {
	return s.rebalances
}

func (s *Momentum) OnDate(_ time.Time, history map[string][]types.PriceBar, view types.PortfolioView) types.TargetWeights {
	idx, ok := s.tick()
	if !ok {
		return nil
	}
	if idx%s.holdingPeriod != 0 {
		return view.Weights()
	}
	s.rebalances++

	ranks := s.rank(history)
	if len(ranks) == 0 {
		return types.EqualWeights(s.symbols)
	}
	n := s.topN
	if n > len(ranks) {
		n = len(ranks)
	}
	top := make([]string, 0, n)
	for _, r := range ranks[:n] {
		top = append(top, r.symbol)
	}
	return types.EqualWeights(top)
}

// rank returns symbols with at least lookback+1 prices, best trailing return first.
func (s *Momentum) rank(history map[string][]types.PriceBar) []ranked {
	var out []ranked
	for _, sym := range s.symbols {
		bars := history[sym]
		if len(bars) < s.lookback+1 {
			continue
		}
		last := bars[len(bars)-1].Price
		first := bars[len(bars)-1-s.lookback].Price
		if !first.IsPositive() {
			continue
		}
		out = append(out, ranked{symbol: sym, ret: last.Div(first).InexactFloat64() - 1})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ret != out[j].ret {
			return out[i].ret > out[j].ret
		}
		return out[i].symbol < out[j].symbol
	})
	return out
}
