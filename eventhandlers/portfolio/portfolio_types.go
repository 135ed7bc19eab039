package portfolio

import (
	"errors"
	"time"

	"github.com/quantreplay/backtester/common"
	"github.com/shopspring/decimal"
)

var (
	errNegativeCapital = errors.New("initial capital cannot be negative")
	errInvalidFill     = errors.New("invalid fill")
)

// Position is the net holding in a single symbol
type Position struct {
	Symbol       string          `json:"symbol"`
	Size         decimal.Decimal `json:"size"`
	AveragePrice decimal.Decimal `json:"average-price"`
	LastUpdated  time.Time       `json:"last-updated"`
}

// EquitySample is the portfolio value at a step
type EquitySample struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// Trade is an immutable ledger entry written for every executed fill
type Trade struct {
	Time       time.Time       `json:"timestamp"`
	Symbol     string          `json:"symbol"`
	Side       common.Side     `json:"side"`
	Size       decimal.Decimal `json:"size"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Value      decimal.Decimal `json:"value"`
}

// View is the read only cash and position sizes handed to a strategy
type View struct {
	Cash      decimal.Decimal
	Positions map[string]decimal.Decimal
}

// Portfolio owns cash, positions and the run's trade and equity history
type Portfolio struct {
	initialCapital decimal.Decimal
	cash           decimal.Decimal
	positions      map[string]*Position
	equityCurve    []EquitySample
	trades         []Trade
}
