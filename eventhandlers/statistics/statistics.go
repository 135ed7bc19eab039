package statistics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantreplay/backtester/common"
	gctmath "github.com/quantreplay/backtester/common/math"
	"github.com/quantreplay/backtester/eventhandlers/portfolio"
	"github.com/quantreplay/backtester/log"
	"github.com/shopspring/decimal"
)

// DefaultSettings annualises over 252 periods with no risk free rate
func DefaultSettings() Settings {
	return Settings{PeriodsPerYear: DefaultPeriodsPerYear}
}

// CalculateResults derives the run statistics from the equity curve and
// trade ledger. Final equity is the last equity sample, or the initial
// capital when there are none
func CalculateResults(initialCapital decimal.Decimal, equity []portfolio.EquitySample, trades []portfolio.Trade, s Settings) (*Statistic, error) {
	if initialCapital.IsNegative() {
		return nil, errNegativeCapital
	}
	if s.PeriodsPerYear == 0 {
		s.PeriodsPerYear = DefaultPeriodsPerYear
	}
	if s.PeriodsPerYear < 0 {
		return nil, errInvalidPeriodsPerYear
	}
	for i := 1; i < len(equity); i++ {
		if equity[i].Time.Before(equity[i-1].Time) {
			return nil, fmt.Errorf("%w at sample %d", errEquityCurveOutOfOrder, i)
		}
	}

	stats := &Statistic{
		Steps:           len(equity),
		InitialCapital:  initialCapital,
		FinalEquity:     initialCapital,
		TotalCommission: decimal.Zero,
		TotalVolume:     decimal.Zero,
	}
	values := make([]float64, len(equity))
	for i := range equity {
		values[i] = equity[i].Value.InexactFloat64()
	}
	if len(equity) > 0 {
		stats.StartDate = equity[0].Time
		stats.EndDate = equity[len(equity)-1].Time
		stats.FinalEquity = equity[len(equity)-1].Value
	}
	if initialCapital.IsPositive() {
		stats.TotalReturn = stats.FinalEquity.Sub(initialCapital).Div(initialCapital).InexactFloat64()
		stats.CompoundAnnualGR = gctmath.CalculateCompoundAnnualGrowthRate(
			initialCapital.InexactFloat64(),
			stats.FinalEquity.InexactFloat64(),
			s.PeriodsPerYear,
			float64(len(equity)))
	}

	returns := gctmath.SimpleReturns(values)
	stats.SharpeRatio = gctmath.CalculateSharpeRatio(returns, s.RiskFreeRate, s.PeriodsPerYear)
	stats.SortinoRatio = gctmath.CalculateSortinoRatio(returns, s.RiskFreeRate, s.PeriodsPerYear)
	stats.MaxDrawdown = gctmath.CalculateMaxDrawdown(values)
	stats.CalmarRatio = gctmath.CalculateCalmarRatio(stats.CompoundAnnualGR, stats.MaxDrawdown)

	for i := range trades {
		stats.TotalOrders++
		if trades[i].Side == common.Buy {
			stats.TotalBuyOrders++
		} else {
			stats.TotalSellOrders++
		}
		stats.TotalCommission = stats.TotalCommission.Add(trades[i].Commission)
		stats.TotalVolume = stats.TotalVolume.Add(trades[i].Value)
	}
	stats.calculateTradeStatistics(trades)
	return stats, nil
}

// pairTrades matches each trade with the one before it when their sides
// differ. Symbols are not considered, the ledger is read in execution order
func pairTrades(trades []portfolio.Trade) []roundTrip {
	var resp []roundTrip
	for i := 1; i < len(trades); i++ {
		prev, curr := trades[i-1], trades[i]
		if prev.Side == curr.Side {
			continue
		}
		p0, p1 := prev.Price.InexactFloat64(), curr.Price.InexactFloat64()
		rt := roundTrip{duration: curr.Time.Sub(prev.Time)}
		if curr.Side == common.Sell {
			rt.pnl = (p1 - p0) * curr.Size.InexactFloat64()
			if p0 != 0 {
				rt.ret = (p1 - p0) / p0
			}
		} else {
			rt.pnl = (p0 - p1) * curr.Size.InexactFloat64()
			if p1 != 0 {
				rt.ret = (p0 - p1) / p1
			}
		}
		resp = append(resp, rt)
	}
	return resp
}

func (s *Statistic) calculateTradeStatistics(trades []portfolio.Trade) {
	pairs := pairTrades(trades)
	s.RoundTrips = len(pairs)
	if len(trades) >= 2 && len(pairs) == 0 {
		s.InfiniteProfitFactor = true
	}
	if len(pairs) == 0 {
		return
	}
	var wins int
	var grossProfit, grossLoss, sumReturn float64
	var sumDuration time.Duration
	for i := range pairs {
		if pairs[i].pnl > 0 {
			wins++
			grossProfit += pairs[i].pnl
		} else {
			grossLoss -= pairs[i].pnl
		}
		sumReturn += pairs[i].ret
		sumDuration += pairs[i].duration
	}
	s.WinRate = float64(wins) / float64(len(pairs))
	if grossLoss > 0 {
		s.ProfitFactor = grossProfit / grossLoss
	} else {
		s.InfiniteProfitFactor = true
	}
	s.AverageTradeReturn = sumReturn / float64(len(pairs))
	s.AverageTradeDuration = sumDuration / time.Duration(len(pairs))
}

// SetStrategyName sets the name for statistical identification
func (s *Statistic) SetStrategyName(name string) {
	s.StrategyName = name
}

// PrintTotalResults outputs all results to the log
func (s *Statistic) PrintTotalResults() {
	log.Info(log.Report, "------------------Strategy-----------------------------------")
	log.Infof(log.Report, "Strategy Name: %v", s.StrategyName)
	log.Infof(log.Report, "Period: %v to %v (%v steps)", s.StartDate.Format(time.RFC3339), s.EndDate.Format(time.RFC3339), s.Steps)
	log.Info(log.Report, "------------------Total Results------------------------------")
	log.Infof(log.Report, "Initial capital: %v", s.InitialCapital)
	log.Infof(log.Report, "Final equity: %v", s.FinalEquity)
	log.Infof(log.Report, "Total return: %.4f%%", s.TotalReturn*100)
	log.Infof(log.Report, "Sharpe ratio: %.4f", s.SharpeRatio)
	log.Infof(log.Report, "Sortino ratio: %.4f", s.SortinoRatio)
	log.Infof(log.Report, "Max drawdown: %.4f%%", s.MaxDrawdown*100)
	log.Info(log.Report, "------------------Orders----------------------------------")
	log.Infof(log.Report, "Total buy orders: %v", s.TotalBuyOrders)
	log.Infof(log.Report, "Total sell orders: %v", s.TotalSellOrders)
	log.Infof(log.Report, "Total commission: %v", s.TotalCommission)
	log.Infof(log.Report, "Win rate: %.2f%% over %v round trips", s.WinRate*100, s.RoundTrips)
	if s.InfiniteProfitFactor {
		log.Info(log.Report, "Profit factor: inf")
	} else {
		log.Infof(log.Report, "Profit factor: %.4f", s.ProfitFactor)
	}
}

// Serialise outputs the Statistic struct in json
func (s *Statistic) Serialise() (string, error) {
	resp, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return "", err
	}
	return string(resp), nil
}
