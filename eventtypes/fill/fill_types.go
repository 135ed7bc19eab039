package fill

import (
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/shopspring/decimal"
)

// Fill is an event that details the outcome of executing an order
type Fill struct {
	event.Base
	OrderID       string          `json:"order-id"`
	Side          common.Side     `json:"side"`
	Amount        decimal.Decimal `json:"amount"`
	ClosePrice    decimal.Decimal `json:"close-price"`
	PurchasePrice decimal.Decimal `json:"purchase-price"`
	Slippage      decimal.Decimal `json:"slippage"`
	Commission    decimal.Decimal `json:"commission"`
}
