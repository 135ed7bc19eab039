package data

import (
	"errors"
	"time"

	"github.com/quantreplay/backtester/common"
	"github.com/shopspring/decimal"
)

var (
	// ErrHandlerNotFound returned when no series is loaded for a symbol
	ErrHandlerNotFound = errors.New("handler not found")
	// ErrInvalidSeries is returned when loaded data is malformed
	ErrInvalidSeries = errors.New("invalid series")

	errEmptySymbol       = errors.New("empty symbol")
	errDuplicateSymbol   = errors.New("symbol already loaded")
	errDuplicateTime     = errors.New("duplicate candle timestamp")
	errNegativeValue     = errors.New("negative price or volume")
	errZeroTime          = errors.New("zero timestamp")
	errTimeWentBackwards = errors.New("snapshot requested for a time before the previous step")
)

// Candle is one OHLCV row
type Candle struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// BookTop is the best bid and ask at a point in time
type BookTop struct {
	Time     time.Time       `json:"time"`
	BidPrice decimal.Decimal `json:"bid-price"`
	BidSize  decimal.Decimal `json:"bid-size"`
	AskPrice decimal.Decimal `json:"ask-price"`
	AskSize  decimal.Decimal `json:"ask-size"`
}

// Trade is a single public trade print
type Trade struct {
	Time  time.Time       `json:"time"`
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
	Side  common.Side     `json:"side,omitempty"`
}

// Series holds all market data loaded for one symbol. Candles are required,
// books and trades are optional context
type Series struct {
	Symbol  string
	Candles []Candle
	Books   []BookTop
	Trades  []Trade
}

// HandlerPerSymbol stores the loaded series for every symbol in a run
type HandlerPerSymbol struct {
	data map[string]*Series
}

// Holder interface dictates what a data holder is expected to do
type Holder interface {
	SetDataForSymbol(*Series) error
	GetDataForSymbol(string) (*Series, error)
	GetAllData() map[string]*Series
	Symbols() []string
}

// SymbolView is everything visible for one symbol at a step. The rows are
// shared with the loaded series between runs, so they are only reachable
// through accessors that return copies
type SymbolView struct {
	candles []Candle
	trades  []Trade
	book    BookTop
	hasBook bool
}

// Snapshot is the point in time view of every symbol at a step. Nothing
// in it is timestamped after Time
type Snapshot struct {
	Time    time.Time
	Offset  int64
	Symbols map[string]SymbolView
}

// SnapshotProvider hands out snapshots for ascending step times by
// advancing a cursor per symbol
type SnapshotProvider struct {
	holder  Holder
	symbols []string
	cursors map[string]*cursor
	last    time.Time
	offset  int64
	started bool
}

type cursor struct {
	candle int
	book   int
	trade  int
}
