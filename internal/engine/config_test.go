package engine

import (
	"errors"
	"testing"
	"time"

	"quantsim/internal/costs"

	"github.com/shopspring/decimal"
)

func TestNewBacktestConfig(t *testing.T) {
	start := day(0)
	end := day(30)

	tests := []struct {
		name       string
		start, end time.Time
		capital    string
		commission costs.CommissionSpec
		impact     costs.ImpactSpec
		buffer     string
		opts       []ConfigOption
		wantErr    bool
	}{
		{name: "valid", start: start, end: end, capital: "1000", commission: zeroCommission, impact: noImpact, buffer: "0.05"},
		{name: "same day", start: start, end: start, capital: "1000", commission: zeroCommission, impact: noImpact, buffer: "0"},
		{name: "zero start", end: end, capital: "1000", commission: zeroCommission, impact: noImpact, buffer: "0", wantErr: true},
		{name: "end before start", start: end, end: start, capital: "1000", commission: zeroCommission, impact: noImpact, buffer: "0", wantErr: true},
		{name: "zero capital", start: start, end: end, capital: "0", commission: zeroCommission, impact: noImpact, buffer: "0", wantErr: true},
		{name: "negative buffer", start: start, end: end, capital: "1000", commission: zeroCommission, impact: noImpact, buffer: "-0.1", wantErr: true},
		{name: "buffer of one", start: start, end: end, capital: "1000", commission: zeroCommission, impact: noImpact, buffer: "1", wantErr: true},
		{
			name: "negative commission", start: start, end: end, capital: "1000", buffer: "0",
			commission: costs.CommissionSpec{Type: costs.CommissionFixed, Rate: decimal.NewFromInt(-1)}, impact: noImpact,
			wantErr: true,
		},
		{
			name: "unknown impact", start: start, end: end, capital: "1000", buffer: "0",
			commission: zeroCommission, impact: costs.ImpactSpec{Type: "cubic"},
			wantErr: true,
		},
		{
			name: "VaR alpha out of range", start: start, end: end, capital: "1000", buffer: "0",
			commission: zeroCommission, impact: noImpact, opts: []ConfigOption{WithVaRAlpha(1.5)},
			wantErr: true,
		},
		{
			name: "negative min trade value", start: start, end: end, capital: "1000", buffer: "0",
			commission: zeroCommission, impact: noImpact, opts: []ConfigOption{WithMinTradeValue(decimal.NewFromInt(-1))},
			wantErr: true,
		},
		{
			name: "execution limits", start: start, end: end, capital: "1000", buffer: "0",
			commission: zeroCommission, impact: noImpact,
			opts: []ConfigOption{WithMaxParticipation(0.1), WithMaxPositionWeight(0.25), WithRollingWindow(21),
				WithSlippage(costs.SlippageSpec{BidAskSpread: 0.001, VolatilityMultiplier: 0.5})},
		},
		{
			name: "participation above one", start: start, end: end, capital: "1000", buffer: "0",
			commission: zeroCommission, impact: noImpact, opts: []ConfigOption{WithMaxParticipation(1.5)},
			wantErr: true,
		},
		{
			name: "negative position weight", start: start, end: end, capital: "1000", buffer: "0",
			commission: zeroCommission, impact: noImpact, opts: []ConfigOption{WithMaxPositionWeight(-0.1)},
			wantErr: true,
		},
		{
			name: "rolling window of one", start: start, end: end, capital: "1000", buffer: "0",
			commission: zeroCommission, impact: noImpact, opts: []ConfigOption{WithRollingWindow(1)},
			wantErr: true,
		},
		{
			name: "negative spread", start: start, end: end, capital: "1000", buffer: "0",
			commission: zeroCommission, impact: noImpact, opts: []ConfigOption{WithSlippage(costs.SlippageSpec{BidAskSpread: -0.01})},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewBacktestConfig(tt.start, tt.end, d(tt.capital), tt.commission, tt.impact, d(tt.buffer), false, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBacktestConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Fatalf("error %v does not wrap ErrInvalidConfiguration", err)
				}
				return
			}
			if !cfg.MinTradeValue().Equal(d(DefaultMinTradeValue)) {
				t.Errorf("MinTradeValue() = %s", cfg.MinTradeValue())
			}
		})
	}
}

func TestBacktestConfig_minCash(t *testing.T) {
	cfg := newTestConfig(t, "250000", zeroCommission, noImpact, "0.04", true, WithRiskFreeRate(0.02))
	if !cfg.minCash().Equal(d("10000")) {
		t.Fatalf("minCash() = %s, want 10000", cfg.minCash())
	}
	if cfg.RiskFreeRate() != 0.02 || !cfg.PartialFillsEnabled() {
		t.Fatalf("options not applied")
	}
	if cfg.Commission().Type != costs.CommissionPercentage {
		t.Fatalf("Commission() = %+v", cfg.Commission())
	}
}

func TestNewBacktestConfig_PartialFillsNeedNonDecreasingFees(t *testing.T) {
	discount := costs.CommissionSpec{Type: costs.CommissionTiered, Tiers: []costs.Tier{
		{UpTo: d("10000"), Rate: d("0.002")},
		{UpTo: d("100000"), Rate: d("0.001")},
	}}

	if _, err := NewBacktestConfig(day(0), day(30), d("1000"), discount, noImpact, d("0"), false); err != nil {
		t.Fatalf("without partial fills: %v", err)
	}
	_, err := NewBacktestConfig(day(0), day(30), d("1000"), discount, noImpact, d("0"), true)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("with partial fills: error = %v, want ErrInvalidConfiguration", err)
	}
}
