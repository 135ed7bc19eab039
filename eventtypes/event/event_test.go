package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseGetters(t *testing.T) {
	t.Parallel()
	tt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := Base{Offset: 3, Time: tt, Symbol: "BTC-USD"}
	assert.Equal(t, int64(3), b.GetOffset())
	assert.Equal(t, tt, b.GetTime())
	assert.Equal(t, "BTC-USD", b.GetSymbol())
}

func TestAppendReason(t *testing.T) {
	t.Parallel()
	b := Base{}
	b.AppendReason("")
	assert.Empty(t, b.GetReason())
	b.AppendReason("size must be positive")
	assert.Equal(t, "size must be positive", b.GetReason())
	b.AppendReason("dropped")
	assert.Equal(t, "size must be positive. dropped", b.GetReason())
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "MARKET", Market.String())
	assert.Equal(t, "SIGNAL", Signal.String())
	assert.Equal(t, "ORDER", Order.String())
	assert.Equal(t, "FILL", Fill.String())
	assert.Equal(t, "UNKNOWN", Kind(99).String())
}
