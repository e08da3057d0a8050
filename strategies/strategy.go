// Package strategies holds the closed set of target-weight strategies a
// backtest can run. New variants are added to Kind and New, not by embedding.
package strategies

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"quantsim/types"
)

var ErrInvalidStrategy = errors.New("invalid strategy")

type Kind string

const (
	KindBuyAndHold  Kind = "buy_and_hold"
	KindEqualWeight Kind = "equal_weight"
	KindMomentum    Kind = "momentum"
)

const (
	DefaultRebalancePeriod = 21
	DefaultLookback        = 60
	DefaultHoldingPeriod   = 21
	DefaultTopN            = 5
)

type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateRunning    State = "RUNNING"
	StateCompleted  State = "COMPLETED"
)

// Strategy decides target weights once per trading date. history holds every
// price up to and including date, per symbol, and must not be modified.
// A nil result means hold the current portfolio.
type Strategy interface {
	Name() string
	Kind() Kind
	Symbols() []string
	State() State
	// Init resets all run state. It is called once before the first date.
	Init() error
	OnDate(date time.Time, history map[string][]types.PriceBar, view types.PortfolioView) types.TargetWeights
	Finish()

	sealed()
}

// Spec selects and parameterizes a strategy. Zero integers take the defaults.
type Spec struct {
	Kind            Kind     `json:"kind" yaml:"kind"`
	Symbols         []string `json:"symbols" yaml:"symbols"`
	RebalancePeriod int      `json:"rebalance_period" yaml:"rebalance_period"`
	Lookback        int      `json:"lookback" yaml:"lookback"`
	HoldingPeriod   int      `json:"holding_period" yaml:"holding_period"`
	TopN            int      `json:"top_n" yaml:"top_n"`
}

func New(spec Spec) (Strategy, error) {
	symbols, err := normalizeSymbols(spec.Symbols)
	if err != nil {
		return nil, err
	}
	switch spec.Kind {
	case KindBuyAndHold:
		return NewBuyAndHold(symbols)
	case KindEqualWeight:
		return NewEqualWeight(symbols, orDefault(spec.RebalancePeriod, DefaultRebalancePeriod))
	case KindMomentum:
		return NewMomentum(
			symbols,
			orDefault(spec.Lookback, DefaultLookback),
			orDefault(spec.HoldingPeriod, DefaultHoldingPeriod),
			orDefault(spec.TopN, DefaultTopN),
		)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidStrategy, spec.Kind)
	}
}

// lifecycle carries the state machine and trading day counter shared by every variant.
type lifecycle struct {
	symbols  []string
	state    State
	dayIndex int
}

func (l *lifecycle) Symbols() []string {
	return append([]string(nil), l.symbols...)
}

func (l *lifecycle) State() State {
	return l.state
}

func (l *lifecycle) reset() {
	l.state = StateNotStarted
	l.dayIndex = 0
}

// tick advances the state machine and returns the 0-based index of this date.
// ok is false once the run is completed.
func (l *lifecycle) tick() (int, bool) {
	if l.state == StateCompleted {
		return 0, false
	}
	l.state = StateRunning
	idx := l.dayIndex
	l.dayIndex++
	return idx, true
}

func (l *lifecycle) Finish() {
	l.state = StateCompleted
}

func (l *lifecycle) sealed() {}

func normalizeSymbols(symbols []string) ([]string, error) {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			return nil, fmt.Errorf("%w: empty symbol", ErrInvalidStrategy)
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no symbols", ErrInvalidStrategy)
	}
	sort.Strings(out)
	return out, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
