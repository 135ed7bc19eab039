package main

import (
	"testing"

	"github.com/quantreplay/backtester/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSweepParams(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name string
		raw  []string
		want []engine.SweepParameter
	}{
		{
			name: "joined",
			raw:  []string{"rsi-period=7,14", "rsi-low=25"},
			want: []engine.SweepParameter{
				{Key: "rsi-period", Values: []any{"7", "14"}},
				{Key: "rsi-low", Values: []any{"25"}},
			},
		},
		{
			name: "split by the flag parser",
			raw:  []string{"every=1", "2", " 3 ", "size=0.5"},
			want: []engine.SweepParameter{
				{Key: "every", Values: []any{"1", "2", "3"}},
				{Key: "size", Values: []any{"0.5"}},
			},
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseSweepParams(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := parseSweepParams(nil)
	assert.ErrorIs(t, err, errNoSweepParams)
	_, err = parseSweepParams([]string{"7,14"})
	assert.ErrorIs(t, err, errBadSweepParam)
	_, err = parseSweepParams([]string{"=7"})
	assert.ErrorIs(t, err, errBadSweepParam)
}
