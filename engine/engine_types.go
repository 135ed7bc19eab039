package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/quantreplay/backtester/config"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventhandlers/eventholder"
	"github.com/quantreplay/backtester/eventhandlers/exchange"
	"github.com/quantreplay/backtester/eventhandlers/portfolio"
	"github.com/quantreplay/backtester/eventhandlers/portfolio/risk"
	"github.com/quantreplay/backtester/eventhandlers/statistics"
	"github.com/quantreplay/backtester/eventhandlers/strategies"
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/shopspring/decimal"
)

var (
	errNilStrategy      = errors.New("nil strategy")
	errNoStrategyName   = errors.New("no strategy name set in config")
	errStrategyPanicked = errors.New("strategy panicked")
	errNoDataSource     = errors.New("no data source configured")
	errRunNotFound      = errors.New("run not found")
	errRunAlreadyAdded  = errors.New("run already monitored")
	errAlreadyRan       = errors.New("run already ran")
	errRunHasNotRan     = errors.New("run hasn't ran yet")
	errRunIsRunning     = errors.New("run is already running")
	errCannotClear      = errors.New("cannot clear run")
	errEmptySweep       = errors.New("sweep parameter has no values")
)

// BackTest is a single deterministic replay of a strategy over historical
// data. It owns its portfolio, exchange and event journal, the market data
// is only read
type BackTest struct {
	MetaData RunMetaData

	m          sync.Mutex
	running    bool
	ran        bool
	cfg        config.Config
	parameters base.Parameters
	data       data.Holder
	timeIndex  []time.Time
	strategy   strategies.Handler
	exchange   exchange.ExecutionHandler
	portfolio  *portfolio.Portfolio
	risk       *risk.Risk
	journal    eventholder.EventHolder
	stats      Diagnostics
	results    *Results
}

// RunMetaData identifies a run and when it moved through its lifecycle
type RunMetaData struct {
	ID          uuid.UUID `json:"id"`
	Strategy    string    `json:"strategy"`
	Nickname    string    `json:"nickname,omitempty"`
	DateLoaded  time.Time `json:"date-loaded"`
	DateStarted time.Time `json:"date-started"`
	DateEnded   time.Time `json:"date-ended"`
}

// Results is the output bundle of a completed run
type Results struct {
	EquityCurve    []portfolio.EquitySample `json:"equity-curve"`
	Trades         []portfolio.Trade        `json:"trades"`
	FinalPortfolio FinalPortfolio           `json:"final-portfolio"`
	InitialCapital decimal.Decimal          `json:"initial-capital"`
	// FinalCapital is the final cash balance
	FinalCapital decimal.Decimal `json:"final-capital"`
	// FinalEquity is the last equity sample, or the initial capital when
	// there were no steps
	FinalEquity decimal.Decimal       `json:"final-equity"`
	Diagnostics Diagnostics           `json:"diagnostics"`
	Statistics  *statistics.Statistic `json:"statistics,omitempty"`
}

// FinalPortfolio is the cash and signed position sizes after the last step
type FinalPortfolio struct {
	Positions map[string]decimal.Decimal `json:"positions"`
	Cash      decimal.Decimal            `json:"cash"`
}

// Diagnostics counts what happened to strategy output during a run. None of
// it affects results
type Diagnostics struct {
	RunID           uuid.UUID        `json:"run-id"`
	Strategy        string           `json:"strategy"`
	Steps           int              `json:"steps"`
	OrdersSubmitted int              `json:"orders-submitted"`
	OrdersExecuted  int              `json:"orders-executed"`
	DroppedOrders   int              `json:"dropped-orders"`
	SkippedOrders   int              `json:"skipped-orders"`
	RiskRejected    int              `json:"risk-rejected"`
	StrategyFaults  int              `json:"strategy-faults"`
	EventCounts     map[string]int64 `json:"event-counts"`
}

// RunSummary is a run's metadata and state for listing
type RunSummary struct {
	MetaData    RunMetaData     `json:"metadata"`
	IsRunning   bool            `json:"is-running"`
	HasRan      bool            `json:"has-ran"`
	FinalEquity decimal.Decimal `json:"final-equity,omitempty"`
}

// RunManager holds runs and executes them, several at once when allowed.
// Each run is isolated so concurrency does not change any result
type RunManager struct {
	m           sync.Mutex
	runs        []*BackTest
	concurrency int
}

// SweepParameter is one strategy parameter and the values to try
type SweepParameter struct {
	Key    string
	Values []any
}

// SweepResult is the outcome of one parameter combination
type SweepResult struct {
	Parameters base.Parameters `json:"parameters"`
	RunID      uuid.UUID       `json:"run-id"`
	Results    *Results        `json:"results"`
}
