package fill

import (
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/shopspring/decimal"
)

// GetKind returns event.Fill
func (f *Fill) GetKind() event.Kind {
	return event.Fill
}

// Value returns the notional value of the fill, amount multiplied by the
// purchase price
func (f *Fill) Value() decimal.Decimal {
	return f.Amount.Mul(f.PurchasePrice)
}

// SignedAmount returns the amount with a negative sign for sells
func (f *Fill) SignedAmount() decimal.Decimal {
	return f.Amount.Mul(f.Side.Sign())
}

// CashDelta is the change to cash caused by the fill. Buys pay value plus
// commission, sells receive value less commission
func (f *Fill) CashDelta() decimal.Decimal {
	return f.Value().Mul(f.Side.Sign()).Neg().Sub(f.Commission)
}
