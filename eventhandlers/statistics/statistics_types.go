package statistics

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPeriodsPerYear annualises per step ratios
const DefaultPeriodsPerYear = 252

var (
	errNegativeCapital       = errors.New("initial capital cannot be negative")
	errInvalidPeriodsPerYear = errors.New("periods per year must be positive")
	errEquityCurveOutOfOrder = errors.New("equity curve samples are out of time order")
)

// Settings tunes how ratios are annualised
type Settings struct {
	PeriodsPerYear float64 `json:"periods-per-year"`
	// RiskFreeRate is per period, not annual
	RiskFreeRate float64 `json:"risk-free-rate"`
}

// Statistic holds the performance summary of a finished run
type Statistic struct {
	StrategyName   string          `json:"strategy-name"`
	StartDate      time.Time       `json:"start-date"`
	EndDate        time.Time       `json:"end-date"`
	Steps          int             `json:"steps"`
	InitialCapital decimal.Decimal `json:"initial-capital"`
	FinalEquity    decimal.Decimal `json:"final-equity"`

	TotalReturn      float64 `json:"total-return"`
	CompoundAnnualGR float64 `json:"compound-annual-growth-rate"`
	SharpeRatio      float64 `json:"sharpe-ratio"`
	SortinoRatio     float64 `json:"sortino-ratio"`
	MaxDrawdown      float64 `json:"max-drawdown"`
	CalmarRatio      float64 `json:"calmar-ratio"`

	TotalOrders     int64           `json:"total-orders"`
	TotalBuyOrders  int64           `json:"total-buy-orders"`
	TotalSellOrders int64           `json:"total-sell-orders"`
	TotalCommission decimal.Decimal `json:"total-commission"`
	TotalVolume     decimal.Decimal `json:"total-volume"`

	RoundTrips           int           `json:"round-trips"`
	WinRate              float64       `json:"win-rate"`
	ProfitFactor         float64       `json:"profit-factor"`
	InfiniteProfitFactor bool          `json:"infinite-profit-factor,omitempty"`
	AverageTradeReturn   float64       `json:"average-trade-return"`
	AverageTradeDuration time.Duration `json:"average-trade-duration"`
}

// roundTrip is a pair of consecutive trades on opposite sides
type roundTrip struct {
	pnl      float64
	ret      float64
	duration time.Duration
}
