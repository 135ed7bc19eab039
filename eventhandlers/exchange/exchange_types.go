package exchange

import (
	"errors"

	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventhandlers/exchange/slippage"
	"github.com/quantreplay/backtester/eventtypes/fill"
	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoReferencePrice is returned when the symbol has no visible close at the step
	ErrNoReferencePrice = errors.New("no reference price available")

	errNegativeCommission = errors.New("commission rate cannot be negative")
	errNegativeSlippage   = errors.New("slippage basis points cannot be negative")
)

// ExecutionHandler turns orders into fills
type ExecutionHandler interface {
	ExecuteOrder(*order.Order, *data.Snapshot) (*fill.Fill, error)
}

// Settings holds the cost model for executing orders
type Settings struct {
	CommissionRate decimal.Decimal
	SlippageModel  slippage.Model
	SlippageBPS    decimal.Decimal
}

// Exchange simulates order execution at the step's reference price
type Exchange struct {
	Settings Settings
}
