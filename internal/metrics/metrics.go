package metrics

import (
	"time"

	"quantsim/internal/engine"
	"quantsim/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantsim_fills_total",
			Help: "Total number of simulated fills",
		},
		[]string{"symbol", "side", "status"},
	)

	RejectedOrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantsim_rejected_orders_total",
			Help: "Total number of orders rejected by the execution engine",
		},
		[]string{"symbol", "reason"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantsim_runs_total",
			Help: "Total number of backtest runs",
		},
		[]string{"strategy", "outcome"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quantsim_run_duration_seconds",
			Help:    "Backtest run duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"strategy"},
	)
)

var _ engine.Recorder = Recorder{}

// Recorder feeds engine events into the package collectors.
type Recorder struct{}

func (Recorder) FillExecuted(symbol string, side types.Side, status types.FillStatus) {
	FillsTotal.WithLabelValues(symbol, string(side), string(status)).Inc()
}

func (Recorder) OrderRejected(symbol, reason string) {
	RejectedOrdersTotal.WithLabelValues(symbol, reason).Inc()
}

func (Recorder) RunCompleted(strategy string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RunsTotal.WithLabelValues(strategy, outcome).Inc()
	RunDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}
