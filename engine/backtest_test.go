package engine

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/config"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventhandlers/strategies"
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/quantreplay/backtester/eventtypes/signal"
	"github.com/quantreplay/backtester/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func candles(closes ...float64) []data.Candle {
	resp := make([]data.Candle, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		resp[i] = data.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   p,
			High:   p,
			Low:    p,
			Close:  p,
			Volume: decimal.NewFromInt(1),
		}
	}
	return resp
}

func holder(t *testing.T, series ...*data.Series) *data.HandlerPerSymbol {
	t.Helper()
	h := &data.HandlerPerSymbol{}
	for _, s := range series {
		require.NoError(t, h.SetDataForSymbol(s))
	}
	return h
}

func zeroCostConfig() *config.Config {
	return &config.Config{
		StrategySettings: config.StrategySettings{Name: "test"},
		PortfolioSettings: config.PortfolioSettings{
			InitialCapital: decimal.NewFromInt(10000),
			SlippageModel:  "zero",
		},
	}
}

func buy(sym string, size float64) order.Request {
	return order.Request{Symbol: sym, Side: common.Buy, Size: decimal.NewFromFloat(size)}
}

func sell(sym string, size float64) order.Request {
	return order.Request{Symbol: sym, Side: common.Sell, Size: decimal.NewFromFloat(size)}
}

// onOffsets places the given orders at the given step offsets
func onOffsets(steps map[int64][]order.Request) *strategies.Func {
	return strategies.NewFunc("test", func(sc *base.StepContext, _ base.Parameters) (base.Decision, error) {
		if o, ok := steps[sc.Offset]; ok {
			return base.Place(o...), nil
		}
		return base.NoOrders(), nil
	})
}

func runBackTest(t *testing.T, cfg *config.Config, h data.Holder, s strategies.Handler) (*BackTest, *Results) {
	t.Helper()
	bt, err := New(cfg, h, s)
	require.NoError(t, err)
	res, err := bt.Run()
	require.NoError(t, err)
	return bt, res
}

func TestNew(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 101)})
	s := onOffsets(nil)

	_, err := New(nil, h, s)
	assert.ErrorIs(t, err, common.ErrNilArguments)
	_, err = New(zeroCostConfig(), nil, s)
	assert.ErrorIs(t, err, common.ErrNilArguments)
	_, err = New(zeroCostConfig(), h, nil)
	assert.ErrorIs(t, err, errNilStrategy)

	cfg := zeroCostConfig()
	cfg.PortfolioSettings.InitialCapital = decimal.NewFromInt(-1)
	_, err = New(cfg, h, s)
	assert.Error(t, err)

	cfg = zeroCostConfig()
	cfg.PortfolioSettings.SlippageModel = "exponential"
	_, err = New(cfg, h, s)
	assert.NoError(t, err, "unknown slippage models fall back to zero")

	cfg = zeroCostConfig()
	cfg.StrategySettings.CustomSettings = map[string]any{"rsi-period": -1}
	rsi, err := strategies.LoadStrategyByName("rsi")
	require.NoError(t, err)
	_, err = New(cfg, h, rsi)
	assert.ErrorIs(t, err, base.ErrInvalidCustomSettings)

	bt, err := New(zeroCostConfig(), h, s)
	require.NoError(t, err)
	assert.Equal(t, 2, bt.Steps())
	assert.Equal(t, "test", bt.MetaData.Strategy)
	assert.False(t, bt.HasRan())
}

func TestEquityCurveLengthMatchesTimeIndex(t *testing.T) {
	t.Parallel()
	// ETH is missing the second timestamp and has an extra last one
	eth := candles(10, 11, 12, 13)
	eth = append(eth[:1], eth[2:]...)
	eth = append(eth, data.Candle{
		Time:  start.Add(10 * time.Hour),
		Open:  decimal.NewFromInt(14),
		High:  decimal.NewFromInt(14),
		Low:   decimal.NewFromInt(14),
		Close: decimal.NewFromInt(14),
	})
	h := holder(t,
		&data.Series{Symbol: "BTC", Candles: candles(100, 101, 102, 103)},
		&data.Series{Symbol: "ETH", Candles: eth},
	)
	_, res := runBackTest(t, zeroCostConfig(), h, onOffsets(nil))
	require.Len(t, res.EquityCurve, 5)
	assert.Equal(t, 5, res.Diagnostics.Steps)
	for i := 1; i < len(res.EquityCurve); i++ {
		assert.True(t, res.EquityCurve[i].Time.After(res.EquityCurve[i-1].Time))
	}
}

func TestBuyAndHoldMarksToMarket(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 110, 120)})
	_, res := runBackTest(t, zeroCostConfig(), h, onOffsets(map[int64][]order.Request{0: {buy("BTC", 0.1)}}))

	// initial + 0.1 * (120 - 100)
	assert.True(t, res.FinalEquity.Equal(decimal.NewFromInt(10002)), res.FinalEquity.String())
	assert.True(t, res.FinalCapital.Equal(decimal.NewFromInt(9990)), res.FinalCapital.String())
	assert.True(t, res.FinalPortfolio.Positions["BTC"].Equal(decimal.NewFromFloat(0.1)))
	require.Len(t, res.EquityCurve, 3)
	assert.True(t, res.EquityCurve[0].Value.Equal(decimal.NewFromInt(10000)))
	assert.True(t, res.EquityCurve[1].Value.Equal(decimal.NewFromInt(10001)))
	require.Len(t, res.Trades, 1)
	assert.Equal(t, common.Buy, res.Trades[0].Side)
	assert.Equal(t, 1, res.Diagnostics.OrdersExecuted)
}

func TestZeroCostsConserveValue(t *testing.T) {
	t.Parallel()
	h := holder(t,
		&data.Series{Symbol: "BTC", Candles: candles(100, 100, 100, 100)},
		&data.Series{Symbol: "ETH", Candles: candles(10, 10, 10, 10)},
	)
	s := onOffsets(map[int64][]order.Request{
		0: {buy("BTC", 1), buy("ETH", 5)},
		1: {sell("BTC", 0.5)},
		2: {sell("ETH", 10), buy("BTC", 2)},
		3: {sell("BTC", 2.5), buy("ETH", 5)},
	})
	_, res := runBackTest(t, zeroCostConfig(), h, s)
	for i := range res.EquityCurve {
		assert.True(t, res.EquityCurve[i].Value.Equal(decimal.NewFromInt(10000)), "step %v equity %v", i, res.EquityCurve[i].Value)
	}
	assert.Empty(t, res.FinalPortfolio.Positions)
	assert.True(t, res.FinalCapital.Equal(decimal.NewFromInt(10000)))
}

func TestNoDustPositions(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 100, 100)})
	s := onOffsets(map[int64][]order.Request{
		0: {buy("BTC", 0.3)},
		1: {sell("BTC", 0.1), sell("BTC", 0.1), sell("BTC", 0.1)},
	})
	_, res := runBackTest(t, zeroCostConfig(), h, s)
	for sym, size := range res.FinalPortfolio.Positions {
		assert.False(t, common.IsDust(size), "%v holds dust %v", sym, size)
	}
	assert.NotContains(t, res.FinalPortfolio.Positions, "BTC")
}

func TestCommissionMonotonic(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 105, 95, 110)})
	steps := map[int64][]order.Request{
		0: {buy("BTC", 1)},
		2: {sell("BTC", 0.5)},
		3: {buy("BTC", 2)},
	}
	var last decimal.Decimal
	for i, rate := range []string{"0", "0.0005", "0.001", "0.01"} {
		cfg := zeroCostConfig()
		cfg.PortfolioSettings.CommissionRate = decimal.RequireFromString(rate)
		_, res := runBackTest(t, cfg, h, onOffsets(steps))
		if i > 0 {
			assert.True(t, res.FinalEquity.LessThanOrEqual(last), "rate %v final equity %v above %v", rate, res.FinalEquity, last)
		}
		last = res.FinalEquity
	}
}

func TestCloseAllPositions(t *testing.T) {
	t.Parallel()
	h := holder(t,
		&data.Series{Symbol: "BTC", Candles: candles(100, 100, 100)},
		&data.Series{Symbol: "ETH", Candles: candles(10, 10, 10)},
	)
	s := strategies.NewFunc("test", func(sc *base.StepContext, _ base.Parameters) (base.Decision, error) {
		switch sc.Offset {
		case 0:
			return base.Place(buy("BTC", 0.2), sell("ETH", 3)), nil
		case 1:
			return base.CloseAllPositions(), nil
		}
		return base.NoOrders(), nil
	})
	bt, res := runBackTest(t, zeroCostConfig(), h, s)
	assert.Empty(t, res.FinalPortfolio.Positions)
	require.Len(t, res.Trades, 4)
	assert.Equal(t, "BTC", res.Trades[2].Symbol)
	assert.Equal(t, common.Sell, res.Trades[2].Side)
	assert.True(t, res.Trades[2].Size.Equal(decimal.NewFromFloat(0.2)))
	assert.Equal(t, "ETH", res.Trades[3].Symbol)
	assert.Equal(t, common.Buy, res.Trades[3].Side)
	assert.True(t, res.Trades[3].Size.Equal(decimal.NewFromInt(3)))

	var closing int
	for _, ev := range bt.Events() {
		if o, ok := ev.(*order.Order); ok && o.ClosingPosition {
			closing++
			assert.Equal(t, "close all positions", o.GetReason())
		}
	}
	assert.Equal(t, 2, closing)
}

func TestMalformedOrdersDropped(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 100)})
	s := onOffsets(map[int64][]order.Request{0: {
		buy("BTC", 0.5),
		{Symbol: "BTC", Side: "HOLD", Size: decimal.NewFromInt(1)},
		{Symbol: "", Side: common.Buy, Size: decimal.NewFromInt(1)},
		buy("BTC", 0),
	}})
	_, res := runBackTest(t, zeroCostConfig(), h, s)
	assert.Equal(t, 3, res.Diagnostics.DroppedOrders)
	assert.Equal(t, 1, res.Diagnostics.OrdersSubmitted)
	assert.Equal(t, 1, res.Diagnostics.OrdersExecuted)
	assert.True(t, res.FinalPortfolio.Positions["BTC"].Equal(decimal.NewFromFloat(0.5)))
}

func TestOrderWithoutPriceSkipped(t *testing.T) {
	t.Parallel()
	eth := candles(10, 10)
	eth[0].Time = start.Add(time.Hour)
	eth[1].Time = start.Add(2 * time.Hour)
	h := holder(t,
		&data.Series{Symbol: "BTC", Candles: candles(100, 100, 100)},
		&data.Series{Symbol: "ETH", Candles: eth},
	)
	s := onOffsets(map[int64][]order.Request{0: {buy("ETH", 1), buy("DOGE", 1), buy("BTC", 1)}})
	_, res := runBackTest(t, zeroCostConfig(), h, s)
	assert.Equal(t, 2, res.Diagnostics.SkippedOrders)
	assert.Equal(t, 1, res.Diagnostics.OrdersExecuted)
	assert.NotContains(t, res.FinalPortfolio.Positions, "ETH")
}

func TestStrategyFaults(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 100, 100)})
	s := strategies.NewFunc("test", func(sc *base.StepContext, _ base.Parameters) (base.Decision, error) {
		switch sc.Offset {
		case 0:
			panic("boom")
		case 1:
			return base.Place(buy("BTC", 1)), errors.New("bad step")
		}
		return base.Place(buy("BTC", 1)), nil
	})
	bt, res := runBackTest(t, zeroCostConfig(), h, s)
	assert.Equal(t, 2, res.Diagnostics.StrategyFaults)
	assert.Equal(t, 1, res.Diagnostics.OrdersExecuted)
	assert.Len(t, res.EquityCurve, 3)

	var faulted int
	for _, ev := range bt.Events() {
		if sig, ok := ev.(*signal.Signal); ok && sig.Faulted {
			faulted++
			assert.Equal(t, base.NoAction.String(), sig.Action)
		}
	}
	assert.Equal(t, 2, faulted)
}

func TestRiskLimits(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 100)})
	steps := map[int64][]order.Request{0: {buy("BTC", 1), buy("BTC", 2)}}

	cfg := zeroCostConfig()
	cfg.RiskSettings.MaxPositionSize = map[string]decimal.Decimal{"BTC": decimal.NewFromInt(2)}
	_, res := runBackTest(t, cfg, h, onOffsets(steps))
	assert.Zero(t, res.Diagnostics.RiskRejected)
	assert.True(t, res.FinalPortfolio.Positions["BTC"].Equal(decimal.NewFromInt(3)))

	cfg.RiskSettings.EnforceLimits = true
	_, res = runBackTest(t, cfg, h, onOffsets(steps))
	assert.Equal(t, 1, res.Diagnostics.RiskRejected)
	assert.True(t, res.FinalPortfolio.Positions["BTC"].Equal(decimal.NewFromInt(1)))
}

func TestRoundTripStatistics(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 110, 120)})
	s := onOffsets(map[int64][]order.Request{
		0: {buy("BTC", 1)},
		2: {sell("BTC", 1)},
	})
	_, res := runBackTest(t, zeroCostConfig(), h, s)
	require.NotNil(t, res.Statistics)
	assert.Equal(t, "test", res.Statistics.StrategyName)
	assert.Equal(t, 1, res.Statistics.RoundTrips)
	assert.Equal(t, int64(2), res.Statistics.TotalOrders)
	assert.InDelta(t, 1.0, res.Statistics.WinRate, 1e-9)
	assert.True(t, res.Statistics.InfiniteProfitFactor)
	assert.True(t, res.FinalEquity.Equal(decimal.NewFromInt(10020)))
}

func TestZeroSteps(t *testing.T) {
	t.Parallel()
	_, res := runBackTest(t, zeroCostConfig(), holder(t), onOffsets(nil))
	assert.Empty(t, res.EquityCurve)
	assert.True(t, res.FinalEquity.Equal(decimal.NewFromInt(10000)))
	assert.Zero(t, res.Diagnostics.Steps)
}

func TestRunTwice(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100)})
	bt, err := New(zeroCostConfig(), h, onOffsets(nil))
	require.NoError(t, err)
	_, err = bt.Results()
	assert.ErrorIs(t, err, errRunHasNotRan)
	_, err = bt.Run()
	require.NoError(t, err)
	_, err = bt.Run()
	assert.ErrorIs(t, err, errAlreadyRan)
	sum := bt.GenerateSummary()
	assert.True(t, sum.HasRan)
	assert.True(t, sum.FinalEquity.Equal(decimal.NewFromInt(10000)))

	var nilBT *BackTest
	_, err = nilBT.Run()
	assert.ErrorIs(t, err, common.ErrNilPointer)
}

func TestEventJournalOrder(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 100)})
	bt, res := runBackTest(t, zeroCostConfig(), h, onOffsets(map[int64][]order.Request{1: {buy("BTC", 1)}}))
	var kinds []event.Kind
	for _, ev := range bt.Events() {
		kinds = append(kinds, ev.GetKind())
	}
	assert.Equal(t, []event.Kind{
		event.Market, event.Signal,
		event.Market, event.Signal, event.Order, event.Fill,
	}, kinds)
	assert.Equal(t, int64(2), res.Diagnostics.EventCounts[event.Market.String()])
	assert.Equal(t, int64(1), res.Diagnostics.EventCounts[event.Fill.String()])
}

func TestRerunIsDeterministic(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 101, 102)})
	steps := map[int64][]order.Request{0: {buy("BTC", 1)}, 2: {sell("BTC", 1)}}
	_, a := runBackTest(t, zeroCostConfig(), h, onOffsets(steps))
	_, b := runBackTest(t, zeroCostConfig(), h, onOffsets(steps))
	assert.Equal(t, a.EquityCurve, b.EquityCurve)
	assert.Equal(t, a.Trades, b.Trades)
	assert.True(t, a.FinalEquity.Equal(b.FinalEquity))
}

func TestStrategyCannotAlterInputData(t *testing.T) {
	t.Parallel()
	h := holder(t, &data.Series{
		Symbol:  "BTC",
		Candles: candles(100, 110, 120),
		Trades:  []data.Trade{{Time: start, Price: decimal.NewFromInt(100), Size: decimal.NewFromInt(1)}},
	})
	hold := onOffsets(map[int64][]order.Request{0: {buy("BTC", 1)}})
	_, before := runBackTest(t, zeroCostConfig(), h, hold)
	require.True(t, before.FinalEquity.Equal(decimal.NewFromInt(10020)), before.FinalEquity.String())

	vandal := strategies.NewFunc("test", func(sc *base.StepContext, _ base.Parameters) (base.Decision, error) {
		v := sc.Snapshot.Symbols["BTC"]
		history := v.History()
		for i := range history {
			history[i].Close = decimal.NewFromInt(1)
		}
		trades := v.Trades()
		for i := range trades {
			trades[i].Price = decimal.NewFromInt(1)
		}
		sc.Snapshot.Symbols["BTC"] = data.NewSymbolView(history, nil, trades)
		return base.Place(buy("BTC", 1)), nil
	})
	_, res := runBackTest(t, zeroCostConfig(), h, vandal)
	// the swapped view is only the strategy's copy, fills still use the loaded closes
	require.Len(t, res.Trades, 3)
	assert.True(t, res.Trades[0].Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, res.Trades[2].Price.Equal(decimal.NewFromInt(120)))

	_, after := runBackTest(t, zeroCostConfig(), h, hold)
	assert.True(t, after.FinalEquity.Equal(before.FinalEquity), after.FinalEquity.String())
	s, err := h.GetDataForSymbol("BTC")
	require.NoError(t, err)
	assert.True(t, s.Candles[2].Close.Equal(decimal.NewFromInt(120)))
	assert.True(t, s.Trades[0].Price.Equal(decimal.NewFromInt(100)))
}

// TestStrategyFaultLogging swaps the package logger output so it does not
// run in parallel
func TestStrategyFaultLogging(t *testing.T) {
	cfg := log.GenDefaultSettings()
	cfg.Level = "WARN|ERROR"
	require.NoError(t, log.SetupGlobalLogger(cfg))
	t.Cleanup(func() {
		_ = log.SetupGlobalLogger(log.GenDefaultSettings())
	})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	h := holder(t, &data.Series{Symbol: "BTC", Candles: candles(100, 100)})
	faulty := strategies.NewFunc("test", func(*base.StepContext, base.Parameters) (base.Decision, error) {
		return base.NoOrders(), errors.New("bad step")
	})

	_, res := runBackTest(t, zeroCostConfig(), h, faulty)
	assert.Equal(t, 2, res.Diagnostics.StrategyFaults)
	assert.NotContains(t, buf.String(), "faulted")

	verbose := zeroCostConfig()
	verbose.OutputSettings.Verbose = true
	_, res = runBackTest(t, verbose, h, faulty)
	assert.Equal(t, 2, res.Diagnostics.StrategyFaults)
	assert.Contains(t, buf.String(), "faulted at step 1")
}
