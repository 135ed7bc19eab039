package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/gofrs/uuid"
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/config"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventhandlers/strategies"
	"github.com/quantreplay/backtester/log"
	"golang.org/x/sync/errgroup"
)

// NewRunManager creates a manager that executes up to concurrency runs at
// once. Anything below one runs them one at a time
func NewRunManager(concurrency int) *RunManager {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RunManager{concurrency: concurrency}
}

// AddRun adds a run to the manager
func (r *RunManager) AddRun(b *BackTest) error {
	if r == nil {
		return fmt.Errorf("%w RunManager", common.ErrNilPointer)
	}
	if b == nil {
		return fmt.Errorf("%w BackTest", common.ErrNilPointer)
	}
	r.m.Lock()
	defer r.m.Unlock()
	for i := range r.runs {
		if r.runs[i].Equal(b) {
			return fmt.Errorf("%w %s %s", errRunAlreadyAdded, b.MetaData.ID, b.MetaData.Strategy)
		}
	}
	r.runs = append(r.runs, b)
	return nil
}

// List details all runs in the order they were added
func (r *RunManager) List() ([]*RunSummary, error) {
	if r == nil {
		return nil, fmt.Errorf("%w RunManager", common.ErrNilPointer)
	}
	r.m.Lock()
	defer r.m.Unlock()
	resp := make([]*RunSummary, len(r.runs))
	for i := range r.runs {
		resp[i] = r.runs[i].GenerateSummary()
	}
	return resp, nil
}

// GetSummary returns details about a run
func (r *RunManager) GetSummary(id uuid.UUID) (*RunSummary, error) {
	b, err := r.find(id)
	if err != nil {
		return nil, err
	}
	return b.GenerateSummary(), nil
}

// GetResults returns the results of a completed run
func (r *RunManager) GetResults(id uuid.UUID) (*Results, error) {
	b, err := r.find(id)
	if err != nil {
		return nil, err
	}
	return b.Results()
}

// StartRun executes a single run and waits for it to finish
func (r *RunManager) StartRun(id uuid.UUID) (*Results, error) {
	b, err := r.find(id)
	if err != nil {
		return nil, err
	}
	switch {
	case b.IsRunning():
		return nil, fmt.Errorf("%w %v", errRunIsRunning, id)
	case b.HasRan():
		return nil, fmt.Errorf("%w %v", errAlreadyRan, id)
	}
	return b.Run()
}

// StartAllRuns executes every run that has not ran yet. Runs share no
// state, so the limit only bounds how many are in flight. The first error
// stops any run that has not started
func (r *RunManager) StartAllRuns(ctx context.Context) ([]uuid.UUID, error) {
	if r == nil {
		return nil, fmt.Errorf("%w RunManager", common.ErrNilPointer)
	}
	r.m.Lock()
	pending := make([]*BackTest, 0, len(r.runs))
	for i := range r.runs {
		if r.runs[i].HasRan() || r.runs[i].IsRunning() {
			continue
		}
		pending = append(pending, r.runs[i])
	}
	r.m.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	executed := make([]uuid.UUID, len(pending))
	for i := range pending {
		b := pending[i]
		executed[i] = b.MetaData.ID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := b.Run(); err != nil {
				return fmt.Errorf("run %v: %w", b.MetaData.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return executed, nil
}

// ClearRun removes a run from memory, but only if it is not running
func (r *RunManager) ClearRun(id uuid.UUID) error {
	if r == nil {
		return fmt.Errorf("%w RunManager", common.ErrNilPointer)
	}
	r.m.Lock()
	defer r.m.Unlock()
	for i := range r.runs {
		if !r.runs[i].MatchesID(id) {
			continue
		}
		if r.runs[i].IsRunning() {
			return fmt.Errorf("%w %v, currently running", errCannotClear, id)
		}
		r.runs = slices.Delete(r.runs, i, i+1)
		return nil
	}
	return fmt.Errorf("%s %w", id, errRunNotFound)
}

// ClearAllRuns removes every run that is not running
func (r *RunManager) ClearAllRuns() (clearedRuns, remainingRuns []*RunSummary, err error) {
	if r == nil {
		return nil, nil, fmt.Errorf("%w RunManager", common.ErrNilPointer)
	}
	r.m.Lock()
	defer r.m.Unlock()
	for i := 0; i < len(r.runs); i++ {
		sum := r.runs[i].GenerateSummary()
		if sum.IsRunning {
			remainingRuns = append(remainingRuns, sum)
			continue
		}
		clearedRuns = append(clearedRuns, sum)
		r.runs = slices.Delete(r.runs, i, i+1)
		i--
	}
	return clearedRuns, remainingRuns, nil
}

func (r *RunManager) find(id uuid.UUID) (*BackTest, error) {
	if r == nil {
		return nil, fmt.Errorf("%w RunManager", common.ErrNilPointer)
	}
	r.m.Lock()
	defer r.m.Unlock()
	for i := range r.runs {
		if r.runs[i].MatchesID(id) {
			return r.runs[i], nil
		}
	}
	return nil, fmt.Errorf("%s %w", id, errRunNotFound)
}

// Sweep runs the configured strategy once for every combination of the
// given parameter values over the same data. Combinations are ordered with
// the last parameter varying fastest and the results keep that order
// whatever the concurrency
func Sweep(ctx context.Context, cfg *config.Config, holder data.Holder, params []SweepParameter, concurrency int) ([]SweepResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w config", common.ErrNilArguments)
	}
	if holder == nil {
		return nil, fmt.Errorf("%w data holder", common.ErrNilArguments)
	}
	for i := range params {
		if len(params[i].Values) == 0 {
			return nil, fmt.Errorf("%w: %v", errEmptySweep, params[i].Key)
		}
	}
	combos := cartesian(params)
	runs := make([]*BackTest, len(combos))
	for i := range combos {
		c := *cfg
		c.StrategySettings.CustomSettings = mergeSettings(cfg.StrategySettings.CustomSettings, combos[i])
		strategy, err := strategies.LoadStrategyByName(c.StrategySettings.Name)
		if err != nil {
			return nil, err
		}
		runs[i], err = New(&c, holder, strategy)
		if err != nil {
			return nil, fmt.Errorf("sweep combination %v: %w", combos[i], err)
		}
	}

	rm := NewRunManager(concurrency)
	for i := range runs {
		if err := rm.AddRun(runs[i]); err != nil {
			return nil, err
		}
	}
	log.Infof(log.BackTester, "sweeping %v combinations of %v with concurrency %v", len(runs), cfg.StrategySettings.Name, rm.concurrency)
	if _, err := rm.StartAllRuns(ctx); err != nil {
		return nil, err
	}

	resp := make([]SweepResult, len(runs))
	for i := range runs {
		res, err := runs[i].Results()
		if err != nil {
			return nil, err
		}
		resp[i] = SweepResult{
			Parameters: runs[i].parameters,
			RunID:      runs[i].MetaData.ID,
			Results:    res,
		}
	}
	return resp, nil
}

// cartesian expands parameter values into every combination
func cartesian(params []SweepParameter) []map[string]any {
	resp := []map[string]any{{}}
	for _, p := range params {
		next := make([]map[string]any, 0, len(resp)*len(p.Values))
		for _, prev := range resp {
			for _, v := range p.Values {
				m := make(map[string]any, len(prev)+1)
				for k, pv := range prev {
					m[k] = pv
				}
				m[p.Key] = v
				next = append(next, m)
			}
		}
		resp = next
	}
	return resp
}

func mergeSettings(base, overrides map[string]any) map[string]any {
	resp := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		resp[k] = v
	}
	for k, v := range overrides {
		resp[k] = v
	}
	return resp
}
