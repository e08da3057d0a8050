package analytics

import (
	"sort"
)

// DrawdownInfo locates a drawdown on the return index. PeakIndex is -1 when the
// peak is the starting wealth; RecoveryIndex is -1 while still under water.
type DrawdownInfo struct {
	Depth         float64
	PeakIndex     int
	TroughIndex   int
	RecoveryIndex int
}

// Duration counts periods from peak to recovery, or to the end of the series.
func (d DrawdownInfo) Duration(n int) int {
	if d.RecoveryIndex >= 0 {
		return d.RecoveryIndex - d.PeakIndex
	}
	return n - 1 - d.PeakIndex
}

// DrawdownSeries returns wealth/peak - 1 after each return.
func DrawdownSeries(returns []float64) []float64 {
	out := make([]float64, len(returns))
	wealth, peak := 1.0, 1.0
	for i, r := range returns {
		wealth *= 1 + r
		if wealth > peak {
			peak = wealth
		}
		out[i] = wealth/peak - 1
	}
	return out
}

func MaxDrawdownInfo(returns []float64) DrawdownInfo {
	periods := Drawdowns(returns)
	if len(periods) == 0 {
		return DrawdownInfo{PeakIndex: -1, TroughIndex: -1, RecoveryIndex: -1}
	}
	return periods[0]
}

// Drawdowns lists every distinct under-water period, deepest first.
func Drawdowns(returns []float64) []DrawdownInfo {
	var out []DrawdownInfo
	wealth, peak := 1.0, 1.0
	peakIdx := -1
	var cur *DrawdownInfo

	for i, r := range returns {
		wealth *= 1 + r
		if wealth >= peak {
			if cur != nil {
				cur.RecoveryIndex = i
				out = append(out, *cur)
				cur = nil
			}
			peak = wealth
			peakIdx = i
			continue
		}
		dd := wealth/peak - 1
		if cur == nil {
			cur = &DrawdownInfo{Depth: dd, PeakIndex: peakIdx, TroughIndex: i, RecoveryIndex: -1}
		} else if dd < cur.Depth {
			cur.Depth = dd
			cur.TroughIndex = i
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out
}
