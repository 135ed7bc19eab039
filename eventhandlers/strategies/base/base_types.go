package base

import (
	"errors"
	"time"

	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventhandlers/portfolio"
	"github.com/quantreplay/backtester/eventtypes/order"
)

var (
	// ErrStrategyNotFound used when strategy specified in config does not exist
	ErrStrategyNotFound = errors.New("not found. Please ensure the strategy-settings field 'name' is spelled properly in your config")
	// ErrInvalidCustomSettings used when bad custom settings are found in the config
	ErrInvalidCustomSettings = errors.New("invalid custom settings in config")
)

// Action is the kind of decision a strategy made
type Action uint8

// Decision actions
const (
	NoAction Action = iota
	CloseAll
	PlaceOrders
)

// Decision is a strategy's output for a step. Orders are only read when
// Action is PlaceOrders and execute in slice order
type Decision struct {
	Action Action
	Orders []order.Request
}

// StepContext is everything a strategy may look at for one step
type StepContext struct {
	Time      time.Time
	Offset    int64
	Snapshot  *data.Snapshot
	Portfolio portfolio.View
}

// Parameters is the free form strategy parameter record from config
type Parameters map[string]any
