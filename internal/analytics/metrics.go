// Package analytics turns a finished return series into risk and performance
// statistics. Every function is pure and safe for concurrent use.
//
// Ratios that are undefined (zero variance, no losses, empty input) resolve to 0.
// Drawdowns are signed (<= 0) here; callers report magnitudes.
package analytics

import (
	"errors"
	"math"
)

const TradingDaysPerYear = 252

const zeroSpreadTolerance = 1e-12

var (
	ErrDimensionMismatch = errors.New("series length mismatch")
	ErrInvalidWindow     = errors.New("rolling window must be at least 2")
	ErrInvalidConfidence = errors.New("confidence level must be in (0, 1)")
)

// Returns converts a value series into simple period returns, one shorter than values.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

func TotalReturn(returns []float64) float64 {
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	return growth - 1
}

// AnnualReturn compounds the total return to a yearly rate.
func AnnualReturn(returns []float64) float64 {
	n := len(returns)
	if n == 0 {
		return 0
	}
	growth := 1 + TotalReturn(returns)
	if growth <= 0 {
		return -1
	}
	return math.Pow(growth, TradingDaysPerYear/float64(n)) - 1
}

func AnnualVolatility(returns []float64) float64 {
	return stdev(returns) * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio uses an annual risk free rate, de-annualized per period.
func SharpeRatio(returns []float64, riskFree float64) float64 {
	std := stdev(returns)
	if std == 0 {
		return 0
	}
	excess := mean(returns) - riskFree/TradingDaysPerYear
	return excess / std * math.Sqrt(TradingDaysPerYear)
}

// DownsideDeviation is the root mean square of returns below zero, with
// non-negative periods counted as zero. Not annualized.
func DownsideDeviation(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		if r < 0 {
			sum += r * r
		}
	}
	return math.Sqrt(sum / float64(len(returns)))
}

func SortinoRatio(returns []float64, riskFree float64) float64 {
	dd := DownsideDeviation(returns)
	if dd == 0 {
		return 0
	}
	excess := mean(returns) - riskFree/TradingDaysPerYear
	return excess / dd * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown is the deepest fall of cumulative wealth below its running peak.
// The peak starts at 1.0, so the result is always <= 0.
func MaxDrawdown(returns []float64) float64 {
	return MaxDrawdownInfo(returns).Depth
}

func CalmarRatio(returns []float64) float64 {
	mdd := MaxDrawdown(returns)
	if mdd == 0 {
		return 0
	}
	return AnnualReturn(returns) / math.Abs(mdd)
}

func WinRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

func ProfitFactor(returns []float64) float64 {
	gains, losses := 0.0, 0.0
	for _, r := range returns {
		switch {
		case r > 0:
			gains += r
		case r < 0:
			losses += r
		}
	}
	if losses == 0 {
		return 0
	}
	return gains / math.Abs(losses)
}

// OmegaRatio weighs gains above threshold against losses below it.
func OmegaRatio(returns []float64, threshold float64) float64 {
	up, down := 0.0, 0.0
	for _, r := range returns {
		if r > threshold {
			up += r - threshold
		} else {
			down += threshold - r
		}
	}
	if down == 0 {
		return 0
	}
	return up / down
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the sample standard deviation; fewer than two points give 0, as
// does a spread that is rounding noise next to the mean.
func stdev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	std := math.Sqrt(sum / float64(n-1))
	if negligibleSpread(std, m) {
		return 0
	}
	return std
}

// negligibleSpread reports whether std is indistinguishable from zero at the
// scale of mean. Every ratio uses it so a constant series resolves to the
// same 0 sentinel whether computed in one pass or over a rolling window.
func negligibleSpread(std, mean float64) bool {
	return std <= zeroSpreadTolerance*math.Abs(mean)
}
