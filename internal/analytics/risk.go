package analytics

import (
	"fmt"
	"math"
	"sort"
)

// ValueAtRisk is the empirical alpha quantile of returns, taken as the order
// statistic at rank ceil(alpha*n). Positive quantiles are reported as 0.
func ValueAtRisk(returns []float64, alpha float64) (float64, error) {
	q, err := quantile(returns, alpha)
	if err != nil {
		return 0, err
	}
	return math.Min(q, 0), nil
}

// ConditionalValueAtRisk is the mean of every return at or below the alpha quantile.
func ConditionalValueAtRisk(returns []float64, alpha float64) (float64, error) {
	q, err := quantile(returns, alpha)
	if err != nil {
		return 0, err
	}
	sum, count := 0.0, 0
	for _, r := range returns {
		if r <= q {
			sum += r
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return math.Min(sum/float64(count), 0), nil
}

const rankTolerance = 1e-9

func quantile(returns []float64, alpha float64) (float64, error) {
	if alpha <= 0 || alpha >= 1 || math.IsNaN(alpha) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidConfidence, alpha)
	}
	n := len(returns)
	if n == 0 {
		return 0, nil
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	// alpha*n lands a hair above an integer for alphas like 0.07.
	rank := int(math.Ceil(alpha*float64(n) - rankTolerance))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1], nil
}
