package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventhandlers/portfolio"
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func stepContext(offset int64, held float64) *base.StepContext {
	tt := start.Add(time.Duration(offset) * time.Hour)
	return &base.StepContext{
		Time:   tt,
		Offset: offset,
		Snapshot: &data.Snapshot{Time: tt, Offset: offset, Symbols: map[string]data.SymbolView{
			"BTC": data.NewSymbolView([]data.Candle{
				{Time: tt.Add(-time.Hour), Close: decimal.NewFromInt(99)},
				{Time: tt, Close: decimal.NewFromInt(100)},
			}, nil, nil),
		}},
		Portfolio: portfolio.View{
			Cash:      decimal.NewFromInt(1000),
			Positions: map[string]decimal.Decimal{"BTC": decimal.NewFromFloat(held)},
		},
	}
}

func load(t *testing.T, p base.Parameters) *Strategy {
	t.Helper()
	s := new(Strategy)
	s.SetDefaults()
	require.NoError(t, s.SetCustomSettings(p))
	return s
}

func TestOnStepOrders(t *testing.T) {
	t.Parallel()
	src := `
if positions["BTC"] == 0.0 && prices["BTC"] > closes["BTC"][0] {
	orders = append(orders, {symbol: "BTC", side: "buy", size: params.size})
	orders = append(orders, {symbol: "BTC", side: "sideways", size: 1})
	orders = append(orders, "not an order")
}
`
	s := load(t, base.Parameters{"script": src, "size": "0.1"})
	d, err := s.OnStep(stepContext(0, 0), base.Parameters{"script": src, "size": 0.1})
	require.NoError(t, err)
	require.Equal(t, base.PlaceOrders, d.Action)
	require.Len(t, d.Orders, 3)
	assert.Equal(t, "BTC", d.Orders[0].Symbol)
	assert.Equal(t, common.Buy, d.Orders[0].Side)
	assert.True(t, d.Orders[0].Size.Equal(decimal.NewFromFloat(0.1)))
	assert.NoError(t, d.Orders[0].Validate())
	assert.Error(t, d.Orders[1].Validate())
	assert.Error(t, d.Orders[2].Validate())

	// outputs are reset every step
	d, err = s.OnStep(stepContext(1, 0.1), nil)
	require.NoError(t, err)
	assert.Equal(t, base.NoAction, d.Action)
}

func TestOnStepCloseAll(t *testing.T) {
	t.Parallel()
	s := load(t, base.Parameters{"script": `close_all = offset >= 2`})
	d, err := s.OnStep(stepContext(1, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, base.NoAction, d.Action)
	d, err = s.OnStep(stepContext(2, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, base.CloseAll, d.Action)
}

func TestOnStepRuntimeError(t *testing.T) {
	t.Parallel()
	s := load(t, base.Parameters{"script": `x := 1 / (offset - offset)`})
	_, err := s.OnStep(stepContext(0, 0), nil)
	var scriptErr Error
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, "Run", scriptErr.Action)
}

func TestOnStepTimeout(t *testing.T) {
	t.Parallel()
	s := load(t, base.Parameters{"script": `for { }`, "timeout": "20ms"})
	_, err := s.OnStep(stepContext(0, 0), nil)
	assert.Error(t, err)
}

func TestOnStepNotCompiled(t *testing.T) {
	t.Parallel()
	s := new(Strategy)
	s.SetDefaults()
	_, err := s.OnStep(stepContext(0, 0), nil)
	assert.ErrorIs(t, err, errNotCompiled)
	_, err = s.OnStep(nil, nil)
	assert.ErrorIs(t, err, common.ErrNilArguments)
}

func TestSetCustomSettings(t *testing.T) {
	t.Parallel()
	s := new(Strategy)
	s.SetDefaults()
	assert.ErrorIs(t, s.SetCustomSettings(nil), errNoScript)
	assert.ErrorIs(t, s.SetCustomSettings(base.Parameters{"script": "a := 1", "script-file": "x.tengo"}), errScriptAndFile)
	assert.ErrorIs(t, s.SetCustomSettings(base.Parameters{"script": "a := 1", "timeout": "soon"}), base.ErrInvalidCustomSettings)
	assert.ErrorIs(t, s.SetCustomSettings(base.Parameters{"script": "a := 1", "timeout": "-1s"}), errNonPositiveTimeout)

	err := s.SetCustomSettings(base.Parameters{"script": "a := "})
	var scriptErr Error
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, "Compile", scriptErr.Action)

	err = s.SetCustomSettings(base.Parameters{"script": `os := import("os")`})
	assert.Error(t, err, "os module must not be importable")

	err = s.SetCustomSettings(base.Parameters{"script-file": filepath.Join(t.TempDir(), "missing.tengo")})
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, "Load: Read", scriptErr.Action)
}

func TestScriptFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "strategy.tengo")
	require.NoError(t, os.WriteFile(path, []byte(`
math := import("math")
if cash > 0 {
	orders = [{symbol: "BTC", side: "SELL", size: math.abs(-2), type: "limit", price: "101.5"}]
}
`), 0o600))
	s := load(t, base.Parameters{"script-file": path})
	d, err := s.OnStep(stepContext(0, 0), nil)
	require.NoError(t, err)
	require.Len(t, d.Orders, 1)
	assert.Equal(t, common.Sell, d.Orders[0].Side)
	assert.Equal(t, common.Limit, d.Orders[0].Type)
	assert.True(t, d.Orders[0].Price.Equal(decimal.RequireFromString("101.5")))
	assert.True(t, d.Orders[0].Size.Equal(decimal.NewFromInt(2)))
}

func TestErrorString(t *testing.T) {
	t.Parallel()
	e := Error{Action: "Run", Script: "/tmp/a.tengo", Cause: errNotCompiled}
	assert.Equal(t, "strategy script: (ACTION) Run (SCRIPT) a.tengo script has not been compiled", e.Error())
	assert.ErrorIs(t, e, errNotCompiled)
}
