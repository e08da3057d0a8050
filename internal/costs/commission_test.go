package costs

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCommissionModel_Calculate(t *testing.T) {
	tiers := []Tier{
		{UpTo: d("10000"), Rate: d("0.002")},
		{UpTo: d("100000"), Rate: d("0.001")},
	}
	tests := []struct {
		name       string
		spec       CommissionSpec
		tradeValue decimal.Decimal
		quantity   decimal.Decimal
		want       decimal.Decimal
	}{
		{"fixed ignores size", CommissionSpec{Type: CommissionFixed, Rate: d("5")}, d("123456"), d("10"), d("5")},
		{"per share uses absolute quantity", CommissionSpec{Type: CommissionPerShare, Rate: d("0.01")}, d("5000"), d("-250"), d("2.5")},
		{"percentage of value", CommissionSpec{Type: CommissionPercentage, Rate: d("0.001")}, d("10000"), d("100"), d("10")},
		{"percentage zero rate", CommissionSpec{Type: CommissionPercentage}, d("10000"), d("100"), d("0")},
		{"percentage clamped to minimum", CommissionSpec{Type: CommissionPercentage, Rate: d("0.0005"), Minimum: d("1.70"), Maximum: d("39")}, d("100"), d("1"), d("1.70")},
		{"percentage clamped to maximum", CommissionSpec{Type: CommissionPercentage, Rate: d("0.0005"), Minimum: d("1.70"), Maximum: d("39")}, d("1000000"), d("1"), d("39")},
		{"tiered first tier", CommissionSpec{Type: CommissionTiered, Tiers: tiers}, d("5000"), d("1"), d("10")},
		{"tiered on threshold", CommissionSpec{Type: CommissionTiered, Tiers: tiers}, d("10000"), d("1"), d("20")},
		{"tiered second tier", CommissionSpec{Type: CommissionTiered, Tiers: tiers}, d("50000"), d("1"), d("50")},
		{"tiered above all tiers uses last", CommissionSpec{Type: CommissionTiered, Tiers: tiers}, d("200000"), d("1"), d("200")},
		{"tiered without tiers falls back to rate", CommissionSpec{Type: CommissionTiered, Rate: d("0.003")}, d("1000"), d("1"), d("3")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewCommissionModel(tt.spec)
			require.NoError(t, err)
			got := m.Calculate(tt.tradeValue, tt.quantity)
			assert.True(t, got.Equal(tt.want), "Calculate() = %s, want %s", got, tt.want)
			assert.False(t, got.IsNegative())
		})
	}
}

func TestNewCommissionModel_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec CommissionSpec
	}{
		{"unknown type", CommissionSpec{Type: "flat-ish"}},
		{"negative rate", CommissionSpec{Type: CommissionPercentage, Rate: d("-0.1")}},
		{"minimum above maximum", CommissionSpec{Type: CommissionFixed, Rate: d("1"), Minimum: d("5"), Maximum: d("2")}},
		{"descending tiers", CommissionSpec{Type: CommissionTiered, Tiers: []Tier{{UpTo: d("100"), Rate: d("0.1")}, {UpTo: d("50"), Rate: d("0.1")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCommissionModel(tt.spec)
			assert.ErrorIs(t, err, ErrInvalidCommission)
		})
	}
}

func TestCommissionSpec_NonDecreasing(t *testing.T) {
	tests := []struct {
		name string
		spec CommissionSpec
		want bool
	}{
		{"percentage", CommissionSpec{Type: CommissionPercentage, Rate: d("0.001")}, true},
		{"tiered rising rates", CommissionSpec{Type: CommissionTiered, Tiers: []Tier{{UpTo: d("100"), Rate: d("0.001")}, {UpTo: d("200"), Rate: d("0.002")}}}, true},
		{"tiered volume discount", CommissionSpec{Type: CommissionTiered, Tiers: []Tier{{UpTo: d("10000"), Rate: d("0.002")}, {UpTo: d("100000"), Rate: d("0.001")}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.NonDecreasing())
		})
	}
}
