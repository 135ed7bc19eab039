package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/config"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventhandlers/eventholder"
	"github.com/quantreplay/backtester/eventhandlers/exchange"
	"github.com/quantreplay/backtester/eventhandlers/portfolio"
	"github.com/quantreplay/backtester/eventhandlers/portfolio/risk"
	"github.com/quantreplay/backtester/eventhandlers/statistics"
	"github.com/quantreplay/backtester/eventhandlers/strategies"
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/quantreplay/backtester/eventtypes/kline"
	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/quantreplay/backtester/eventtypes/signal"
	"github.com/quantreplay/backtester/log"
	"go.uber.org/multierr"
)

// New validates the config and data and returns a BackTest ready to run.
// Any malformed input is returned here, before a single step is taken
func New(cfg *config.Config, holder data.Holder, strategy strategies.Handler) (*BackTest, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w config", common.ErrNilArguments)
	}
	if holder == nil {
		return nil, fmt.Errorf("%w data holder", common.ErrNilArguments)
	}
	if strategy == nil {
		return nil, errNilStrategy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var dataErrs error
	for _, sym := range holder.Symbols() {
		s, err := holder.GetDataForSymbol(sym)
		if err != nil {
			dataErrs = multierr.Append(dataErrs, err)
			continue
		}
		dataErrs = multierr.Append(dataErrs, s.Validate())
	}
	if dataErrs != nil {
		return nil, dataErrs
	}

	ex, err := exchange.New(cfg.PortfolioSettings.CommissionRate, cfg.PortfolioSettings.SlippageBPS, cfg.PortfolioSettings.SlippageModel)
	if err != nil {
		return nil, err
	}
	p, err := portfolio.New(cfg.PortfolioSettings.InitialCapital)
	if err != nil {
		return nil, err
	}
	r := &risk.Risk{
		EnforceLimits:          cfg.RiskSettings.EnforceLimits,
		MaxPositionSize:        cfg.RiskSettings.MaxPositionSize,
		DefaultMaxPositionSize: cfg.RiskSettings.DefaultMaxPositionSize,
		MaxOrderNotional:       cfg.RiskSettings.MaxOrderNotional,
	}
	if err = r.Validate(); err != nil {
		return nil, err
	}
	params := cfg.StrategyParameters()
	if err = strategy.SetCustomSettings(params); err != nil {
		return nil, fmt.Errorf("strategy %v: %w", strategy.Name(), err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	bt := &BackTest{
		MetaData: RunMetaData{
			ID:         id,
			Strategy:   strategy.Name(),
			Nickname:   cfg.Nickname,
			DateLoaded: time.Now(),
		},
		cfg:        *cfg,
		parameters: params,
		data:       holder,
		timeIndex:  data.BuildTimeIndex(holder),
		strategy:   strategy,
		exchange:   ex,
		portfolio:  p,
		risk:       r,
		journal:    &eventholder.Holder{},
	}
	bt.stats = Diagnostics{RunID: id, Strategy: strategy.Name()}
	if !r.EnforceLimits && (len(r.MaxPositionSize) > 0 || r.MaxOrderNotional.IsPositive() || r.DefaultMaxPositionSize.IsPositive()) {
		log.Warnf(log.Setup, "risk limits are configured but enforce-limits is false, they will not be checked")
	}
	log.Debugf(log.Setup, "run %v loaded %v symbols over %v steps with strategy %v", id, len(holder.Symbols()), len(bt.timeIndex), strategy.Name())
	return bt, nil
}

// Run replays every step of the time index in order and returns the
// results. A run either completes or returns an error, there are no partial
// results
func (bt *BackTest) Run() (*Results, error) {
	if bt == nil {
		return nil, fmt.Errorf("%w BackTest", common.ErrNilPointer)
	}
	bt.m.Lock()
	switch {
	case bt.running:
		bt.m.Unlock()
		return nil, fmt.Errorf("%w %v", errRunIsRunning, bt.MetaData.ID)
	case bt.ran:
		bt.m.Unlock()
		return nil, fmt.Errorf("%w %v", errAlreadyRan, bt.MetaData.ID)
	}
	bt.running = true
	bt.MetaData.DateStarted = time.Now()
	bt.m.Unlock()

	res, err := bt.run()

	bt.m.Lock()
	defer bt.m.Unlock()
	bt.running = false
	bt.ran = true
	bt.MetaData.DateEnded = time.Now()
	if err != nil {
		return nil, err
	}
	bt.results = res
	return res, nil
}

func (bt *BackTest) run() (*Results, error) {
	provider, err := data.NewSnapshotProvider(bt.data)
	if err != nil {
		return nil, err
	}
	interval := bt.cfg.GetProgressInterval()
	for i, t := range bt.timeIndex {
		snap, err := provider.Snapshot(t)
		if err != nil {
			return nil, err
		}
		if err = bt.processStep(snap); err != nil {
			return nil, fmt.Errorf("step %v at %v: %w", snap.Offset, t, err)
		}
		bt.stats.Steps++
		if bt.cfg.OutputSettings.Verbose && (i+1)%interval == 0 {
			log.Infof(log.BackTester, "processed %v/%v steps, cash %v", i+1, len(bt.timeIndex), bt.portfolio.Cash())
		}
	}
	return bt.compileResults()
}

// processStep is the full pipeline for one point in time: market events,
// strategy call, order expansion, execution and the equity sample
func (bt *BackTest) processStep(snap *data.Snapshot) error {
	if err := bt.raiseMarketEvents(snap); err != nil {
		return err
	}

	sc := &base.StepContext{
		Time:      snap.Time,
		Offset:    snap.Offset,
		Snapshot:  snap.Clone(),
		Portfolio: bt.portfolio.View(),
	}
	decision, err := bt.invokeStrategy(sc)
	sig := &signal.Signal{
		Base:     event.Base{Offset: snap.Offset, Time: snap.Time},
		Strategy: bt.strategy.Name(),
	}
	if err != nil {
		bt.stats.StrategyFaults++
		if bt.cfg.OutputSettings.Verbose {
			log.Warnf(log.Strategy, "strategy %v faulted at step %v, no orders placed: %v", bt.strategy.Name(), snap.Offset, err)
		} else {
			log.Debugf(log.Strategy, "strategy %v faulted at step %v: %v", bt.strategy.Name(), snap.Offset, err)
		}
		decision = base.NoOrders()
		sig.Faulted = true
		sig.AppendReason(err.Error())
	}
	sig.Action = decision.Action.String()

	orders := bt.expandDecision(decision, snap)
	sig.OrderCount = len(orders)
	if err = bt.journal.AppendEvent(sig); err != nil {
		return err
	}
	for _, o := range orders {
		if err = bt.processOrder(o, snap); err != nil {
			return err
		}
	}

	equity := bt.portfolio.MarkToMarket(snap.ClosePrices())
	bt.portfolio.RecordEquity(snap.Time, equity)
	return nil
}

// raiseMarketEvents journals a market event for each symbol with a candle
// exactly at the step time
func (bt *BackTest) raiseMarketEvents(snap *data.Snapshot) error {
	for _, sym := range common.SortedKeys(snap.Symbols) {
		if !snap.HasDataAtTime(sym) {
			continue
		}
		c, _ := snap.Symbols[sym].Latest()
		if err := bt.journal.AppendEvent(kline.New(snap.Offset, sym, &c)); err != nil {
			return err
		}
	}
	return nil
}

// invokeStrategy calls the strategy and converts a panic into an error so a
// faulty strategy costs a step, not the run
func (bt *BackTest) invokeStrategy(sc *base.StepContext) (d base.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			d = base.NoOrders()
			err = fmt.Errorf("%w: %v", errStrategyPanicked, r)
		}
	}()
	return bt.strategy.OnStep(sc, bt.parameters)
}

// expandDecision turns a decision into executable orders. Malformed
// requests are dropped and counted, CloseAll becomes one offsetting order
// per open position in symbol order
func (bt *BackTest) expandDecision(d base.Decision, snap *data.Snapshot) []*order.Order {
	var resp []*order.Order
	switch d.Action {
	case base.PlaceOrders:
		for i := range d.Orders {
			req := d.Orders[i]
			if err := req.Validate(); err != nil {
				bt.stats.DroppedOrders++
				log.Debugf(log.Strategy, "dropped order %v at step %v: %v", i, snap.Offset, err)
				continue
			}
			o := order.New(bt.MetaData.ID, snap.Offset, len(resp), event.Base{
				Offset: snap.Offset,
				Time:   snap.Time,
				Symbol: req.Symbol,
			}, req)
			resp = append(resp, o)
		}
	case base.CloseAll:
		for _, pos := range bt.portfolio.Positions() {
			held := common.Buy
			if pos.Size.IsNegative() {
				held = common.Sell
			}
			o := order.New(bt.MetaData.ID, snap.Offset, len(resp), event.Base{
				Offset: snap.Offset,
				Time:   snap.Time,
				Symbol: pos.Symbol,
				Reason: "close all positions",
			}, order.Request{
				Symbol: pos.Symbol,
				Side:   held.Opposite(),
				Size:   pos.Size.Abs(),
				Type:   common.Market,
			})
			o.ClosingPosition = true
			resp = append(resp, o)
		}
	}
	bt.stats.OrdersSubmitted += len(resp)
	return resp
}

// processOrder runs one order through risk, execution and the ledger. An
// order without a reference price or outside the risk limits is skipped
func (bt *BackTest) processOrder(o *order.Order, snap *data.Snapshot) error {
	if err := bt.journal.AppendEvent(o); err != nil {
		return err
	}
	price, ok := snap.ClosePrice(o.Request.Symbol)
	if !ok {
		bt.stats.SkippedOrders++
		log.Debugf(log.Exchange, "skipped order %v, no price for %v at %v", o.ID, o.Request.Symbol, snap.Time)
		return nil
	}
	if err := bt.risk.EvaluateOrder(&o.Request, bt.portfolio.PositionSize(o.Request.Symbol), price); err != nil {
		bt.stats.RiskRejected++
		log.Warnf(log.Portfolio, "order %v rejected: %v", o.ID, err)
		return nil
	}
	f, err := bt.exchange.ExecuteOrder(o, snap)
	if err != nil {
		if errors.Is(err, exchange.ErrNoReferencePrice) {
			bt.stats.SkippedOrders++
			return nil
		}
		return err
	}
	if err = bt.portfolio.ApplyFill(f); err != nil {
		return err
	}
	bt.stats.OrdersExecuted++
	return bt.journal.AppendEvent(f)
}

func (bt *BackTest) compileResults() (*Results, error) {
	curve := bt.portfolio.EquityCurve()
	res := &Results{
		EquityCurve: curve,
		Trades:      bt.portfolio.Trades(),
		FinalPortfolio: FinalPortfolio{
			Positions: bt.portfolio.PositionSizes(),
			Cash:      bt.portfolio.Cash(),
		},
		InitialCapital: bt.portfolio.InitialCapital(),
		FinalCapital:   bt.portfolio.Cash(),
		FinalEquity:    bt.portfolio.InitialCapital(),
	}
	if len(curve) > 0 {
		res.FinalEquity = curve[len(curve)-1].Value
	}
	diag := bt.stats
	diag.EventCounts = make(map[string]int64)
	for _, k := range []event.Kind{event.Market, event.Signal, event.Order, event.Fill} {
		diag.EventCounts[k.String()] = bt.journal.Count(k)
	}
	res.Diagnostics = diag

	stats, err := statistics.CalculateResults(res.InitialCapital, res.EquityCurve, res.Trades, statistics.Settings{
		PeriodsPerYear: bt.cfg.StatisticSettings.PeriodsPerYear,
		RiskFreeRate:   bt.cfg.StatisticSettings.RiskFreeRate,
	})
	if err != nil {
		return nil, err
	}
	stats.SetStrategyName(bt.strategy.Name())
	res.Statistics = stats
	return res, nil
}

// Results returns the results of a completed run
func (bt *BackTest) Results() (*Results, error) {
	bt.m.Lock()
	defer bt.m.Unlock()
	if bt.results == nil {
		return nil, fmt.Errorf("%w %v", errRunHasNotRan, bt.MetaData.ID)
	}
	return bt.results, nil
}

// Events returns the run's event journal in the order events were raised
func (bt *BackTest) Events() []event.Event {
	return bt.journal.Events()
}

// Steps returns the number of steps the run will take
func (bt *BackTest) Steps() int {
	return len(bt.timeIndex)
}

// IsRunning reports whether the run is in progress
func (bt *BackTest) IsRunning() bool {
	bt.m.Lock()
	defer bt.m.Unlock()
	return bt.running
}

// HasRan reports whether the run has finished, successfully or not
func (bt *BackTest) HasRan() bool {
	bt.m.Lock()
	defer bt.m.Unlock()
	return bt.ran
}

// MatchesID reports whether the run has the given id
func (bt *BackTest) MatchesID(id uuid.UUID) bool {
	return bt != nil && id != uuid.Nil && bt.MetaData.ID == id
}

// Equal reports whether two runs are the same run
func (bt *BackTest) Equal(other *BackTest) bool {
	return bt != nil && other != nil && bt.MetaData.ID == other.MetaData.ID
}

// GenerateSummary returns the run's metadata and state
func (bt *BackTest) GenerateSummary() *RunSummary {
	bt.m.Lock()
	defer bt.m.Unlock()
	resp := &RunSummary{
		MetaData:  bt.MetaData,
		IsRunning: bt.running,
		HasRan:    bt.ran,
	}
	if bt.results != nil {
		resp.FinalEquity = bt.results.FinalEquity
	}
	return resp
}
