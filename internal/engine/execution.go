package engine

import (
	"errors"
	"fmt"
	"time"

	"quantsim/internal/costs"
	"quantsim/types"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLiquidityLimit    = errors.New("order exceeds daily volume participation limit")
)

// quantityPlaces is the precision of every traded quantity.
const quantityPlaces = 8

var (
	one          = decimal.NewFromInt(1)
	two          = decimal.NewFromInt(2)
	quantityStep = decimal.New(1, -quantityPlaces)
)

// quote is the market state an order executes against.
type quote struct {
	price      decimal.Decimal
	volume     float64
	volatility float64
}

// executor turns orders into fills and is the only writer of the ledger.
type executor struct {
	portfolio    *portfolio
	commission       costs.CommissionModel
	impact           costs.ImpactModel
	slippage         costs.SlippageModel
	minCash          decimal.Decimal
	partialFills     bool
	maxParticipation float64

	rejected []types.RejectedOrder
	recorder Recorder
	log      zerolog.Logger
}

func newExecutor(p *portfolio, cfg *BacktestConfig, recorder Recorder, log zerolog.Logger) *executor {
	return &executor{
		portfolio:        p,
		commission:       cfg.commission,
		impact:           cfg.impact,
		slippage:         cfg.slippage,
		minCash:          cfg.minCash(),
		partialFills:     cfg.enablePartialFills,
		maxParticipation: cfg.maxParticipation,
		recorder:         recorder,
		log:              log,
	}
}

// execute fills order in full or, when allowed, in part. An order larger than
// the participation limit is cut to it regardless of the partial fill setting.
// Order level failures (ErrInsufficientFunds, ErrShortSellNotAllowed,
// ErrLiquidityLimit) are recorded and leave the ledger untouched; any other
// error is fatal to the run.
func (e *executor) execute(order types.Order, q quote) (types.Fill, error) {
	if order.Quantity.IsZero() {
		return types.Fill{}, fmt.Errorf("%s: zero quantity order", order.Symbol)
	}
	if !q.price.IsPositive() {
		return types.Fill{}, fmt.Errorf("%s on %s: %w", order.Symbol, order.Date.Format(time.DateOnly), ErrMissingPriceData)
	}

	held := e.portfolio.quantity(order.Symbol)
	if order.Quantity.IsNegative() && order.Quantity.Abs().GreaterThan(held) {
		return types.Fill{}, e.reject(order, ErrShortSellNotAllowed)
	}

	quantity, capped := e.participationCap(order.Quantity, q.volume)
	if quantity.IsZero() {
		return types.Fill{}, e.reject(order, ErrLiquidityLimit)
	}

	fill := e.price(order, quantity, q)
	if !e.affordable(fill) {
		if !e.partialFills {
			return types.Fill{}, e.reject(order, ErrInsufficientFunds)
		}
		partial, ok := e.largestAffordable(order, quantity, q)
		if !ok {
			return types.Fill{}, e.reject(order, ErrInsufficientFunds)
		}
		fill = partial
		capped = true
	}
	if capped {
		fill.Status = types.FillStatusPartiallyFilled
	}

	if err := e.portfolio.applyFill(fill); err != nil {
		return types.Fill{}, err
	}
	e.recorder.FillExecuted(fill.Symbol, fill.Side, fill.Status)
	e.log.Debug().
		Str("symbol", fill.Symbol).
		Str("side", string(fill.Side)).
		Str("status", string(fill.Status)).
		Str("quantity", fill.Quantity.String()).
		Str("price", fill.ExecutionPrice.String()).
		Str("commission", fill.Commission.String()).
		Msg("order filled")
	return fill, nil
}

// participationCap limits quantity to maxParticipation of volume, rounded
// down to quantityPlaces. capped reports whether the order was cut.
func (e *executor) participationCap(quantity decimal.Decimal, volume float64) (decimal.Decimal, bool) {
	if e.maxParticipation <= 0 || volume <= 0 {
		return quantity, false
	}
	limit := decimal.NewFromFloat(e.maxParticipation * volume).RoundDown(quantityPlaces)
	if quantity.Abs().LessThanOrEqual(limit) {
		return quantity, false
	}
	if quantity.IsNegative() {
		return limit.Neg(), true
	}
	return limit, true
}

// price builds the fill for quantity without touching the ledger. Impact and
// slippage move the price against the trader, together by at most the whole
// price; commission is charged on market value.
func (e *executor) price(order types.Order, quantity decimal.Decimal, q quote) types.Fill {
	size := quantity.Abs()
	impact := e.impact.Impact(size, q.volume, q.volatility)
	slip := e.slippage.Slippage(size, q.volume, q.volatility)
	if impact.Add(slip).GreaterThan(one) {
		slip = one.Sub(impact)
	}
	f := impact.Add(slip)

	side := types.SideOf(quantity)
	execPrice := q.price.Mul(one.Add(f))
	if side == types.SideTypeSell {
		execPrice = q.price.Mul(one.Sub(f))
	}

	marketValue := size.Mul(q.price)
	return types.Fill{
		Symbol:            order.Symbol,
		Side:              side,
		Status:            types.FillStatusFilled,
		Quantity:          quantity,
		RequestedQuantity: order.Quantity,
		ExecutionPrice:    execPrice,
		MarketPrice:       q.price,
		Commission:        e.commission.Calculate(marketValue, quantity),
		ImpactCost:        marketValue.Mul(impact),
		SlippageCost:      marketValue.Mul(slip),
		Date:              order.Date,
	}
}

// affordable reports whether fill keeps cash at or above the buffer. Trades
// that do not reduce cash always pass, as long as cash stays non-negative.
func (e *executor) affordable(fill types.Fill) bool {
	cash := e.portfolio.cash
	after := cash.Sub(fill.ExecutionPrice.Mul(fill.Quantity)).Sub(fill.Commission)
	if after.IsNegative() {
		return false
	}
	return after.GreaterThanOrEqual(e.minCash) || after.GreaterThanOrEqual(cash)
}

// largestAffordable bisects for the biggest quantity in (0, |limit|] that
// passes the buffer, rounded down to quantityPlaces. It never scales up or
// flips the sign of the order. The search relies on the cash a trade needs
// growing with its size, which NewBacktestConfig guarantees for partial fills.
func (e *executor) largestAffordable(order types.Order, limit decimal.Decimal, q quote) (types.Fill, bool) {
	sign := one
	if limit.IsNegative() {
		sign = sign.Neg()
	}

	lo := decimal.Zero
	hi := limit.Abs()
	var best types.Fill
	for hi.Sub(lo).GreaterThan(quantityStep) {
		mid := lo.Add(hi).Div(two).RoundDown(quantityPlaces)
		if !mid.GreaterThan(lo) {
			break
		}
		candidate := e.price(order, mid.Mul(sign), q)
		if e.affordable(candidate) {
			lo, best = mid, candidate
		} else {
			hi = mid
		}
	}
	if lo.IsZero() {
		return types.Fill{}, false
	}
	return best, true
}

func (e *executor) reject(order types.Order, reason error) error {
	err := fmt.Errorf("%s %s on %s: %w", order.Side(), order.Symbol, order.Date.Format(time.DateOnly), reason)
	e.rejected = append(e.rejected, types.RejectedOrder{Order: order, Reason: reason.Error()})
	e.recorder.OrderRejected(order.Symbol, reason.Error())
	e.log.Warn().
		Str("symbol", order.Symbol).
		Str("quantity", order.Quantity.String()).
		Err(reason).
		Msg("order rejected")
	return err
}

// recoverable reports whether err only cancels a single order.
func recoverable(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrShortSellNotAllowed) ||
		errors.Is(err, ErrLiquidityLimit)
}
