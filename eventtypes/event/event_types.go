package event

import (
	"time"
)

// Kind identifies which variant of the event union an Event is
type Kind uint8

// Event kinds processed by a backtest run
const (
	Market Kind = iota
	Signal
	Order
	Fill
)

// Base is the data common to every event kind. Embedding it is the only way
// to satisfy Event
type Base struct {
	Offset int64     `json:"offset"`
	Time   time.Time `json:"time"`
	Symbol string    `json:"symbol"`
	Reason string    `json:"reason,omitempty"`
}

// Event is the tagged union of Market, Signal, Order and Fill events
type Event interface {
	GetKind() Kind
	GetOffset() int64
	GetTime() time.Time
	GetSymbol() string
	GetReason() string
	AppendReason(string)
	sealed()
}
