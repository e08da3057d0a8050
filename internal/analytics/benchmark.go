package analytics

import (
	"fmt"
	"math"
)

// BenchmarkStats compares a strategy return series with a benchmark of equal length.
type BenchmarkStats struct {
	Beta             float64
	Alpha            float64
	Correlation      float64
	TrackingError    float64
	InformationRatio float64
	BenchmarkReturn  float64
}

func CompareBenchmark(returns, benchmark []float64, riskFree float64) (BenchmarkStats, error) {
	if err := sameLength(returns, benchmark); err != nil {
		return BenchmarkStats{}, err
	}
	beta, _ := Beta(returns, benchmark)
	alpha, _ := Alpha(returns, benchmark, riskFree)
	corr, _ := Correlation(returns, benchmark)
	te, _ := TrackingError(returns, benchmark)
	ir, _ := InformationRatio(returns, benchmark)
	return BenchmarkStats{
		Beta:             beta,
		Alpha:            alpha,
		Correlation:      corr,
		TrackingError:    te,
		InformationRatio: ir,
		BenchmarkReturn:  TotalReturn(benchmark),
	}, nil
}

func Beta(returns, benchmark []float64) (float64, error) {
	if err := sameLength(returns, benchmark); err != nil {
		return 0, err
	}
	v := variance(benchmark)
	if v == 0 {
		return 0, nil
	}
	return covariance(returns, benchmark) / v, nil
}

// Alpha is annualized Jensen's alpha.
func Alpha(returns, benchmark []float64, riskFree float64) (float64, error) {
	beta, err := Beta(returns, benchmark)
	if err != nil {
		return 0, err
	}
	rf := riskFree / TradingDaysPerYear
	daily := (mean(returns) - rf) - beta*(mean(benchmark)-rf)
	return daily * TradingDaysPerYear, nil
}

func Correlation(returns, benchmark []float64) (float64, error) {
	if err := sameLength(returns, benchmark); err != nil {
		return 0, err
	}
	sx, sy := stdev(returns), stdev(benchmark)
	if sx == 0 || sy == 0 {
		return 0, nil
	}
	return covariance(returns, benchmark) / (sx * sy), nil
}

// TrackingError is the annualized volatility of active returns.
func TrackingError(returns, benchmark []float64) (float64, error) {
	active, err := activeReturns(returns, benchmark)
	if err != nil {
		return 0, err
	}
	return AnnualVolatility(active), nil
}

func InformationRatio(returns, benchmark []float64) (float64, error) {
	active, err := activeReturns(returns, benchmark)
	if err != nil {
		return 0, err
	}
	std := stdev(active)
	if std == 0 {
		return 0, nil
	}
	return mean(active) / std * math.Sqrt(TradingDaysPerYear), nil
}

func activeReturns(returns, benchmark []float64) ([]float64, error) {
	if err := sameLength(returns, benchmark); err != nil {
		return nil, err
	}
	out := make([]float64, len(returns))
	for i := range returns {
		out[i] = returns[i] - benchmark[i]
	}
	return out, nil
}

func sameLength(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	return nil
}

func variance(xs []float64) float64 {
	s := stdev(xs)
	return s * s
}

func covariance(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n-1)
}
