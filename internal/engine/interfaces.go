package engine

import (
	"context"
	"time"

	"quantsim/types"
)

// MarketDataSource loads stored daily bars for one symbol.
type MarketDataSource interface {
	GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]types.DailyBar, error)
}

// Recorder receives execution events, typically to export them as metrics.
type Recorder interface {
	FillExecuted(symbol string, side types.Side, status types.FillStatus)
	OrderRejected(symbol string, reason string)
	RunCompleted(strategy string, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) FillExecuted(string, types.Side, types.FillStatus) {}
func (nopRecorder) OrderRejected(string, string) {}
func (nopRecorder) RunCompleted(string, time.Duration, error) {}
