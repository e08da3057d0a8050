package analytics

import (
	"sync"
)

// Metrics is the full point-metric summary of one return series.
type Metrics struct {
	Periods int

	TotalReturn      float64
	AnnualReturn     float64
	AnnualVolatility float64

	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64
	OmegaRatio   float64

	MaxDrawdown         float64
	MaxDrawdownDuration int

	WinRate      float64
	ProfitFactor float64

	ValueAtRisk            float64
	ConditionalValueAtRisk float64
}

type Options struct {
	RiskFreeRate float64
	// VaRAlpha is the tail probability for VaR and CVaR. Zero means 0.05.
	VaRAlpha float64
}

// Compute evaluates every point metric. Metrics are independent reads of the
// same series, so each one runs in its own goroutine and writes its own field.
func Compute(returns []float64, opts Options) (Metrics, error) {
	alpha := opts.VaRAlpha
	if alpha == 0 {
		alpha = 0.05
	}
	if _, err := quantile(nil, alpha); err != nil {
		return Metrics{}, err
	}

	m := Metrics{Periods: len(returns)}
	var wg sync.WaitGroup
	wg.Add(9)
	go func() {
		defer wg.Done()
		m.TotalReturn = TotalReturn(returns)
		m.AnnualReturn = AnnualReturn(returns)
	}()
	go func() {
		defer wg.Done()
		m.AnnualVolatility = AnnualVolatility(returns)
	}()
	go func() {
		defer wg.Done()
		m.SharpeRatio = SharpeRatio(returns, opts.RiskFreeRate)
	}()
	go func() {
		defer wg.Done()
		m.SortinoRatio = SortinoRatio(returns, opts.RiskFreeRate)
	}()
	go func() {
		defer wg.Done()
		info := MaxDrawdownInfo(returns)
		m.MaxDrawdown = info.Depth
		if info.Depth < 0 {
			m.MaxDrawdownDuration = info.Duration(len(returns))
		}
	}()
	go func() {
		defer wg.Done()
		m.CalmarRatio = CalmarRatio(returns)
	}()
	go func() {
		defer wg.Done()
		m.WinRate = WinRate(returns)
		m.ProfitFactor = ProfitFactor(returns)
	}()
	go func() {
		defer wg.Done()
		m.OmegaRatio = OmegaRatio(returns, 0)
	}()
	go func() {
		defer wg.Done()
		// alpha was validated above
		m.ValueAtRisk, _ = ValueAtRisk(returns, alpha)
		m.ConditionalValueAtRisk, _ = ConditionalValueAtRisk(returns, alpha)
	}()
	wg.Wait()

	return m, nil
}
