package kline

import (
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/shopspring/decimal"
)

// Kline is the market event raised for a symbol that has a candle at the
// current step
type Kline struct {
	event.Base
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}
