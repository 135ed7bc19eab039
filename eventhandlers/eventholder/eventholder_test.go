package eventholder

import (
	"testing"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/quantreplay/backtester/eventtypes/fill"
	"github.com/quantreplay/backtester/eventtypes/kline"
	"github.com/quantreplay/backtester/eventtypes/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendEvent(t *testing.T) {
	t.Parallel()
	h := &Holder{}
	assert.ErrorIs(t, h.AppendEvent(nil), common.ErrNilEvent)

	require.NoError(t, h.AppendEvent(&kline.Kline{}))
	require.NoError(t, h.AppendEvent(&signal.Signal{}))
	require.NoError(t, h.AppendEvent(&kline.Kline{}))
	require.NoError(t, h.AppendEvent(&fill.Fill{}))

	assert.Len(t, h.Events(), 4)
	assert.Equal(t, int64(2), h.Count(event.Market))
	assert.Len(t, h.EventsOfKind(event.Fill), 1)
	assert.Equal(t, map[string]int64{"MARKET": 2, "SIGNAL": 1, "FILL": 1}, h.Counts())
	assert.Zero(t, h.Count(event.Order))
}
