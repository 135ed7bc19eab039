package strategies

import (
	"errors"
	"testing"

	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/quantreplay/backtester/eventhandlers/strategies/buyandhold"
	"github.com/quantreplay/backtester/eventhandlers/strategies/rsi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStrategies(t *testing.T) {
	t.Parallel()
	s := GetStrategies()
	require.Len(t, s, 4)
	seen := make(map[string]bool)
	for i := range s {
		assert.NotEmpty(t, s[i].Description())
		assert.False(t, seen[s[i].Name()], "duplicate strategy name %v", s[i].Name())
		seen[s[i].Name()] = true
	}
}

func TestLoadStrategyByName(t *testing.T) {
	t.Parallel()
	s, err := LoadStrategyByName("BuyAndHold")
	require.NoError(t, err)
	assert.Equal(t, buyandhold.Name, s.Name())

	s, err = LoadStrategyByName(rsi.Name)
	require.NoError(t, err)
	assert.Equal(t, rsi.Name, s.Name())

	_, err = LoadStrategyByName("martingale")
	assert.ErrorIs(t, err, base.ErrStrategyNotFound)
}

func TestLoadStrategyByNameFreshInstances(t *testing.T) {
	t.Parallel()
	a, err := LoadStrategyByName(buyandhold.Name)
	require.NoError(t, err)
	b, err := LoadStrategyByName(buyandhold.Name)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestFunc(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	f := NewFunc("custom", func(_ *base.StepContext, p base.Parameters) (base.Decision, error) {
		if p.Has("fail") {
			return base.NoOrders(), errBoom
		}
		return base.CloseAllPositions(), nil
	})
	assert.Equal(t, "custom", f.Name())
	assert.NotEmpty(t, f.Description())
	assert.NoError(t, f.SetCustomSettings(base.Parameters{"anything": 1}))
	f.SetDefaults()

	d, err := f.OnStep(&base.StepContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, base.CloseAll, d.Action)

	_, err = f.OnStep(&base.StepContext{}, base.Parameters{"fail": true})
	assert.ErrorIs(t, err, errBoom)

	var empty Func
	d, err = empty.OnStep(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, base.NoAction, d.Action)
}
