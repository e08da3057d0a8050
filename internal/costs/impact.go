package costs

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidImpact = errors.New("invalid market impact model")

// Defaults used when no volume or volatility series is loaded for a symbol.
const (
	DefaultVolume     = 1_000_000.0
	DefaultVolatility = 0.02
)

type ImpactType string

const (
	ImpactNone       ImpactType = "none"
	ImpactLinear     ImpactType = "linear"
	ImpactSquareRoot ImpactType = "square_root"
)

type ImpactSpec struct {
	Type        ImpactType
	Coefficient float64
}

// ImpactModel estimates the adverse price move of an order as a fraction of price.
type ImpactModel interface {
	Impact(orderSize decimal.Decimal, volume, volatility float64) decimal.Decimal
	Spec() ImpactSpec
}

func NewImpactModel(spec ImpactSpec) (ImpactModel, error) {
	if spec.Coefficient < 0 || math.IsNaN(spec.Coefficient) || math.IsInf(spec.Coefficient, 0) {
		return nil, fmt.Errorf("%w: coefficient %v", ErrInvalidImpact, spec.Coefficient)
	}
	switch spec.Type {
	case ImpactNone, "":
		return noImpact{ImpactSpec{Type: ImpactNone}}, nil
	case ImpactLinear:
		return linearImpact{spec}, nil
	case ImpactSquareRoot:
		return squareRootImpact{spec}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidImpact, spec.Type)
	}
}

type noImpact struct{ spec ImpactSpec }

func (m noImpact) Impact(decimal.Decimal, float64, float64) decimal.Decimal { return decimal.Zero }
func (m noImpact) Spec() ImpactSpec { return m.spec }

type linearImpact struct{ spec ImpactSpec }

func (m linearImpact) Impact(orderSize decimal.Decimal, volume, _ float64) decimal.Decimal {
	if volume <= 0 {
		return decimal.Zero
	}
	participation := orderSize.Abs().InexactFloat64() / volume
	return fraction(m.spec.Coefficient * participation)
}

func (m linearImpact) Spec() ImpactSpec { return m.spec }

type squareRootImpact struct{ spec ImpactSpec }

func (m squareRootImpact) Impact(orderSize decimal.Decimal, volume, volatility float64) decimal.Decimal {
	if volume <= 0 || volatility < 0 {
		return decimal.Zero
	}
	participation := orderSize.Abs().InexactFloat64() / volume
	return fraction(m.spec.Coefficient * volatility * math.Sqrt(participation))
}

func (m squareRootImpact) Spec() ImpactSpec { return m.spec }

func fraction(f float64) decimal.Decimal {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	if f > 1 {
		f = 1
	}
	return decimal.NewFromFloat(f)
}
