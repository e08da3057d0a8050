package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmark_DimensionMismatch(t *testing.T) {
	short := sample[:5]
	_, err := Beta(sample, short)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Alpha(sample, short, 0)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Correlation(sample, short)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = TrackingError(sample, short)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = InformationRatio(sample, short)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = CompareBenchmark(sample, short, 0)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = RollingBeta(sample, short, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = RollingCorrelation(sample, short, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestBenchmark_ScaledSeries(t *testing.T) {
	doubled := make([]float64, len(sample))
	for i, r := range sample {
		doubled[i] = 2 * r
	}
	stats, err := CompareBenchmark(doubled, sample, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, stats.Beta, 1e-12)
	assert.InDelta(t, 1.0, stats.Correlation, 1e-12)
	assert.InDelta(t, 0.0, stats.Alpha, 1e-12)
	assert.InDelta(t, AnnualVolatility(sample), stats.TrackingError, 1e-12)
	assert.InDelta(t, TotalReturn(sample), stats.BenchmarkReturn, 1e-15)
}

func TestBenchmark_FlatBenchmark(t *testing.T) {
	flat := make([]float64, len(sample))
	beta, err := Beta(sample, flat)
	require.NoError(t, err)
	assert.Equal(t, 0.0, beta)
	corr, err := Correlation(sample, flat)
	require.NoError(t, err)
	assert.Equal(t, 0.0, corr)
}
