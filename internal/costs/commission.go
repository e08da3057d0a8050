package costs

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidCommission = errors.New("invalid commission model")

type CommissionType string

const (
	CommissionFixed      CommissionType = "fixed"
	CommissionPerShare   CommissionType = "per_share"
	CommissionPercentage CommissionType = "percentage"
	CommissionTiered     CommissionType = "tiered"
)

// Tier applies Rate to trades whose value is at most UpTo.
type Tier struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// CommissionSpec describes a commission schedule. Minimum and Maximum clamp the
// per-order fee; a zero value disables that bound.
type CommissionSpec struct {
	Type    CommissionType
	Rate    decimal.Decimal
	Minimum decimal.Decimal
	Maximum decimal.Decimal
	Tiers   []Tier
}

// CommissionModel computes the fee charged for one order.
type CommissionModel interface {
	Calculate(tradeValue, quantity decimal.Decimal) decimal.Decimal
	Spec() CommissionSpec
}

// NewCommissionModel validates spec and returns the matching model.
func NewCommissionModel(spec CommissionSpec) (CommissionModel, error) {
	if spec.Rate.IsNegative() || spec.Minimum.IsNegative() || spec.Maximum.IsNegative() {
		return nil, fmt.Errorf("%w: negative rate or bound", ErrInvalidCommission)
	}
	if spec.Maximum.IsPositive() && spec.Minimum.GreaterThan(spec.Maximum) {
		return nil, fmt.Errorf("%w: minimum %s above maximum %s", ErrInvalidCommission, spec.Minimum, spec.Maximum)
	}

	switch spec.Type {
	case CommissionFixed:
		return fixedCommission{spec}, nil
	case CommissionPerShare:
		return perShareCommission{spec}, nil
	case CommissionPercentage:
		return percentageCommission{spec}, nil
	case CommissionTiered:
		for i, t := range spec.Tiers {
			if t.Rate.IsNegative() {
				return nil, fmt.Errorf("%w: tier %d has negative rate", ErrInvalidCommission, i)
			}
			if i > 0 && !t.UpTo.GreaterThan(spec.Tiers[i-1].UpTo) {
				return nil, fmt.Errorf("%w: tier thresholds must be ascending", ErrInvalidCommission)
			}
		}
		return tieredCommission{spec}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidCommission, spec.Type)
	}
}

// NonDecreasing reports whether the fee never falls as trade value grows. A
// tiered schedule charges the whole value at its bracket rate, so a cheaper
// higher bracket makes the fee drop at the threshold.
func (s CommissionSpec) NonDecreasing() bool {
	if s.Type != CommissionTiered {
		return true
	}
	for i := 1; i < len(s.Tiers); i++ {
		if s.Tiers[i].Rate.LessThan(s.Tiers[i-1].Rate) {
			return false
		}
	}
	return true
}

type fixedCommission struct{ spec CommissionSpec }

func (c fixedCommission) Calculate(_, _ decimal.Decimal) decimal.Decimal {
	return clamp(c.spec.Rate, c.spec)
}

func (c fixedCommission) Spec() CommissionSpec { return c.spec }

type perShareCommission struct{ spec CommissionSpec }

func (c perShareCommission) Calculate(_, quantity decimal.Decimal) decimal.Decimal {
	return clamp(quantity.Abs().Mul(c.spec.Rate), c.spec)
}

func (c perShareCommission) Spec() CommissionSpec { return c.spec }

type percentageCommission struct{ spec CommissionSpec }

func (c percentageCommission) Calculate(tradeValue, _ decimal.Decimal) decimal.Decimal {
	return clamp(tradeValue.Abs().Mul(c.spec.Rate), c.spec)
}

func (c percentageCommission) Spec() CommissionSpec { return c.spec }

type tieredCommission struct{ spec CommissionSpec }

func (c tieredCommission) Calculate(tradeValue, _ decimal.Decimal) decimal.Decimal {
	value := tradeValue.Abs()
	if len(c.spec.Tiers) == 0 {
		return clamp(value.Mul(c.spec.Rate), c.spec)
	}
	for _, t := range c.spec.Tiers {
		if value.LessThanOrEqual(t.UpTo) {
			return clamp(value.Mul(t.Rate), c.spec)
		}
	}
	// above every threshold: highest tier applies
	last := c.spec.Tiers[len(c.spec.Tiers)-1]
	return clamp(value.Mul(last.Rate), c.spec)
}

func (c tieredCommission) Spec() CommissionSpec { return c.spec }

func clamp(fee decimal.Decimal, spec CommissionSpec) decimal.Decimal {
	if fee.LessThan(spec.Minimum) {
		fee = spec.Minimum
	}
	if spec.Maximum.IsPositive() && fee.GreaterThan(spec.Maximum) {
		fee = spec.Maximum
	}
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}
