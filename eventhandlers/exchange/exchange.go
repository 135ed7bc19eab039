package exchange

import (
	"fmt"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventhandlers/exchange/slippage"
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/quantreplay/backtester/eventtypes/fill"
	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/quantreplay/backtester/log"
	"github.com/shopspring/decimal"
)

// New validates cost settings and returns an Exchange. An unrecognised
// slippage model falls back to zero slippage
func New(commissionRate, slippageBPS decimal.Decimal, model string) (*Exchange, error) {
	if commissionRate.IsNegative() {
		return nil, fmt.Errorf("%w: %v", errNegativeCommission, commissionRate)
	}
	if slippageBPS.IsNegative() {
		return nil, fmt.Errorf("%w: %v", errNegativeSlippage, slippageBPS)
	}
	m, ok := slippage.ParseModel(model)
	if !ok {
		log.Warnf(log.Exchange, "unrecognised slippage model '%v', using %v", model, slippage.Zero)
	}
	return &Exchange{
		Settings: Settings{
			CommissionRate: commissionRate,
			SlippageModel:  m,
			SlippageBPS:    slippageBPS,
		},
	}, nil
}

// ExecuteOrder fills an order in full at the symbol's last visible close
// adjusted for slippage. Limit orders are executed the same way
func (e *Exchange) ExecuteOrder(o *order.Order, snap *data.Snapshot) (*fill.Fill, error) {
	if o == nil {
		return nil, common.ErrNilEvent
	}
	if snap == nil {
		return nil, common.ErrNilArguments
	}
	ref, ok := snap.ClosePrice(o.Request.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w for %v at %v", ErrNoReferencePrice, o.Request.Symbol, snap.Time)
	}
	slip := slippage.CalculateSlippage(e.Settings.SlippageModel, ref, o.Request.Size, e.Settings.SlippageBPS)
	price := slippage.ApplySlippageToPrice(o.Request.Side, ref, slip)
	f := &fill.Fill{
		Base: event.Base{
			Offset: o.GetOffset(),
			Time:   o.GetTime(),
			Symbol: o.Request.Symbol,
			Reason: o.GetReason(),
		},
		OrderID:       o.ID,
		Side:          o.Request.Side,
		Amount:        o.Request.Size.Abs(),
		ClosePrice:    ref,
		PurchasePrice: price,
		Slippage:      slip,
		Commission:    CalculateCommission(o.Request.Size, price, e.Settings.CommissionRate),
	}
	if o.Request.Type == common.Limit {
		f.AppendReason(fmt.Sprintf("limit order executed at market, limit price %v ignored", o.Request.Price))
	}
	return f, nil
}

// CalculateCommission returns |size| * price * rate
func CalculateCommission(size, price, rate decimal.Decimal) decimal.Decimal {
	return size.Abs().Mul(price).Mul(rate)
}
