package types

import (
	"sort"
)

// TargetWeights maps a symbol to its desired fraction of total portfolio value.
// Symbols that are absent are targeted at zero.
type TargetWeights map[string]float64

// EqualWeights spreads the whole portfolio evenly over symbols.
func EqualWeights(symbols []string) TargetWeights {
	weights := make(TargetWeights, len(symbols))
	if len(symbols) == 0 {
		return weights
	}
	w := 1.0 / float64(len(symbols))
	for _, s := range symbols {
		weights[s] = w
	}
	return weights
}

// Symbols returns the weighted symbols in ascending order.
func (w TargetWeights) Symbols() []string {
	out := make([]string, 0, len(w))
	for s := range w {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
