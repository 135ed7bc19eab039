package order

import (
	"errors"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptySymbol is returned when a request has no symbol
	ErrEmptySymbol = errors.New("order has no symbol")
	// ErrInvalidSide is returned when a request's side is not BUY or SELL
	ErrInvalidSide = errors.New("order side must be BUY or SELL")
	// ErrInvalidSize is returned when a request's size is missing or not positive
	ErrInvalidSize = errors.New("order size must be greater than zero")
	// ErrInvalidType is returned for an unknown order type
	ErrInvalidType = errors.New("order type must be MARKET or LIMIT")
)

// Request is what a strategy asks the engine to execute
type Request struct {
	Symbol string           `json:"symbol"`
	Side   common.Side      `json:"side"`
	Size   decimal.Decimal  `json:"size"`
	Type   common.OrderType `json:"type,omitempty"`
	// Price is carried for limit orders but not used in execution
	Price decimal.Decimal `json:"price,omitempty"`
}

// Order is a validated request queued for execution at a step
type Order struct {
	event.Base
	ID      string  `json:"id"`
	Request Request `json:"request"`
	// ClosingPosition is set when the order was expanded from a close all
	ClosingPosition bool `json:"closing-position,omitempty"`
}
