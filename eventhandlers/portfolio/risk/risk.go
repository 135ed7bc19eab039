package risk

import (
	"fmt"

	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Validate checks that no limit is negative
func (r *Risk) Validate() error {
	var errs error
	for sym, v := range r.MaxPositionSize {
		if v.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("%w: max position for %v is %v", errNegativeLimit, sym, v))
		}
	}
	if r.DefaultMaxPositionSize.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("%w: default max position is %v", errNegativeLimit, r.DefaultMaxPositionSize))
	}
	if r.MaxOrderNotional.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("%w: max order notional is %v", errNegativeLimit, r.MaxOrderNotional))
	}
	return errs
}

// EvaluateOrder checks an order against the limits given the current signed
// position size and the reference price it will execute near
func (r *Risk) EvaluateOrder(req *order.Request, currentSize, price decimal.Decimal) error {
	if r == nil || !r.EnforceLimits {
		return nil
	}
	if r.MaxOrderNotional.IsPositive() {
		if n := req.Notional(price); n.GreaterThan(r.MaxOrderNotional) {
			return fmt.Errorf("%w: %v notional %v > %v", ErrExceedsMaxNotional, req.Symbol, n, r.MaxOrderNotional)
		}
	}
	limit := r.maxPosition(req.Symbol)
	if !limit.IsPositive() {
		return nil
	}
	after := currentSize.Add(req.Size.Mul(req.Side.Sign()))
	// reducing exposure is always allowed
	if after.Abs().GreaterThan(limit) && after.Abs().GreaterThan(currentSize.Abs()) {
		return fmt.Errorf("%w: %v would hold %v, limit %v", ErrExceedsMaxPosition, req.Symbol, after, limit)
	}
	return nil
}

func (r *Risk) maxPosition(symbol string) decimal.Decimal {
	if v, ok := r.MaxPositionSize[symbol]; ok {
		return v
	}
	return r.DefaultMaxPositionSize
}
