package analytics

import (
	"math"
)

// Rolling statistics keep a Welford state (count, means, centered second
// moments) for the current window and update it in O(1) per step as points
// enter and leave. Removing a point that dominated the window can cancel
// most of the second moment; the state is then rebuilt from the window.
//
// A window longer than the series yields an empty result.

// rebuildRatio is the fraction of the second moment below which a removal is
// treated as catastrophic cancellation.
const rebuildRatio = 1e-6

// window holds the moments of the last size points of one or two series.
type window struct {
	size      int
	n         int
	meanX     float64
	meanY     float64
	m2X       float64
	m2Y       float64
	cXY       float64
	sumDownSq float64
	downCount int
}

func (w *window) push(x, y float64) {
	w.n++
	dx, dy := x-w.meanX, y-w.meanY
	w.meanX += dx / float64(w.n)
	w.meanY += dy / float64(w.n)
	w.m2X += dx * (x - w.meanX)
	w.m2Y += dy * (y - w.meanY)
	w.cXY += dx * (y - w.meanY)
	if x < 0 {
		w.sumDownSq += x * x
		w.downCount++
	}
}

func (w *window) pop(x, y float64) {
	if w.n <= 1 {
		*w = window{size: w.size}
		return
	}
	dx, dy := x-w.meanX, y-w.meanY
	w.n--
	w.meanX -= dx / float64(w.n)
	w.meanY -= dy / float64(w.n)
	w.m2X -= dx * (x - w.meanX)
	w.m2Y -= dy * (y - w.meanY)
	w.cXY -= dx * (y - w.meanY)
	if x < 0 {
		w.sumDownSq -= x * x
		w.downCount--
	}
}

func (w *window) reset(xs, ys []float64) {
	*w = window{size: w.size}
	for i := range xs {
		y := 0.0
		if ys != nil {
			y = ys[i]
		}
		w.push(xs[i], y)
	}
}

func (w *window) mean() float64 {
	return w.meanX
}

func (w *window) varX() float64 {
	return sampleVariance(w.m2X, w.meanX, w.n)
}

func (w *window) varY() float64 {
	return sampleVariance(w.m2Y, w.meanY, w.n)
}

func sampleVariance(m2, mean float64, n int) float64 {
	v := m2 / float64(n-1)
	if v <= 0 || negligibleSpread(math.Sqrt(v), mean) {
		return 0
	}
	return v
}

func (w *window) cov() float64 {
	return w.cXY / float64(w.n-1)
}

func (w *window) downsideDeviation() float64 {
	if w.downCount == 0 {
		return 0
	}
	return math.Sqrt(math.Max(w.sumDownSq, 0) / float64(w.size))
}

// roll slides a window of size over xs (and ys when non-nil) and emits f for
// every full window.
func roll(xs, ys []float64, size int, f func(w *window) float64) ([]float64, error) {
	if size < 2 {
		return nil, ErrInvalidWindow
	}
	if ys != nil {
		if err := sameLength(xs, ys); err != nil {
			return nil, err
		}
	}
	n := len(xs)
	if size > n {
		return []float64{}, nil
	}

	y := func(i int) float64 {
		if ys == nil {
			return 0
		}
		return ys[i]
	}

	w := &window{size: size}
	out := make([]float64, 0, n-size+1)
	for i := 0; i < n; i++ {
		if i >= size {
			beforeX, beforeY := w.m2X, w.m2Y
			w.pop(xs[i-size], y(i-size))
			if w.m2X < beforeX*rebuildRatio || w.m2Y < beforeY*rebuildRatio {
				lo := i - size + 1
				var wy []float64
				if ys != nil {
					wy = ys[lo:i]
				}
				w.reset(xs[lo:i], wy)
			}
		}
		w.push(xs[i], y(i))
		if i >= size-1 {
			out = append(out, f(w))
		}
	}
	return out, nil
}

func RollingVolatility(returns []float64, size int) ([]float64, error) {
	return roll(returns, nil, size, func(w *window) float64 {
		return math.Sqrt(w.varX()) * math.Sqrt(TradingDaysPerYear)
	})
}

func RollingSharpe(returns []float64, size int, riskFree float64) ([]float64, error) {
	return roll(returns, nil, size, func(w *window) float64 {
		std := math.Sqrt(w.varX())
		if std == 0 {
			return 0
		}
		return (w.mean() - riskFree/TradingDaysPerYear) / std * math.Sqrt(TradingDaysPerYear)
	})
}

// RollingBeta is cov(returns, benchmark) / var(benchmark) over each window.
func RollingBeta(returns, benchmark []float64, size int) ([]float64, error) {
	if err := sameLength(returns, benchmark); err != nil {
		return nil, err
	}
	return roll(returns, benchmark, size, func(w *window) float64 {
		v := w.varY()
		if v == 0 {
			return 0
		}
		return w.cov() / v
	})
}

func RollingCorrelation(returns, benchmark []float64, size int) ([]float64, error) {
	if err := sameLength(returns, benchmark); err != nil {
		return nil, err
	}
	return roll(returns, benchmark, size, func(w *window) float64 {
		sx, sy := math.Sqrt(w.varX()), math.Sqrt(w.varY())
		if sx == 0 || sy == 0 {
			return 0
		}
		return w.cov() / (sx * sy)
	})
}

// RollingDownsideDeviation is annualized.
func RollingDownsideDeviation(returns []float64, size int) ([]float64, error) {
	return roll(returns, nil, size, func(w *window) float64 {
		return w.downsideDeviation() * math.Sqrt(TradingDaysPerYear)
	})
}

func RollingSortino(returns []float64, size int, riskFree float64) ([]float64, error) {
	return roll(returns, nil, size, func(w *window) float64 {
		dd := w.downsideDeviation()
		if dd == 0 {
			return 0
		}
		return (w.mean() - riskFree/TradingDaysPerYear) / dd * math.Sqrt(TradingDaysPerYear)
	})
}
