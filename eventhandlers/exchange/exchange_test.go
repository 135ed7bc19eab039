package exchange

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventhandlers/exchange/slippage"
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func snapshot(symbol string, closePrice int64) *data.Snapshot {
	p := decimal.NewFromInt(closePrice)
	return &data.Snapshot{
		Time: testTime,
		Symbols: map[string]data.SymbolView{
			symbol: data.NewSymbolView([]data.Candle{{Time: testTime, Open: p, High: p, Low: p, Close: p}}, nil, nil),
		},
	}
}

func newOrder(r order.Request) *order.Order {
	return order.New(uuid.Nil, 0, 0, event.Base{Time: testTime}, r)
}

func TestNew(t *testing.T) {
	t.Parallel()
	e, err := New(decimal.RequireFromString("0.001"), decimal.NewFromInt(10), "square_root")
	require.NoError(t, err)
	assert.Equal(t, slippage.SquareRoot, e.Settings.SlippageModel)

	e, err = New(decimal.Zero, decimal.Zero, "made_up")
	require.NoError(t, err)
	assert.Equal(t, slippage.Zero, e.Settings.SlippageModel)

	_, err = New(decimal.NewFromInt(-1), decimal.Zero, "zero")
	assert.ErrorIs(t, err, errNegativeCommission)
	_, err = New(decimal.Zero, decimal.NewFromInt(-1), "zero")
	assert.ErrorIs(t, err, errNegativeSlippage)
}

func TestExecuteOrder(t *testing.T) {
	t.Parallel()
	e, err := New(decimal.RequireFromString("0.001"), decimal.NewFromInt(10), "linear")
	require.NoError(t, err)

	buy := newOrder(order.Request{Symbol: "BTC", Side: common.Buy, Size: decimal.NewFromInt(5)})
	f, err := e.ExecuteOrder(buy, snapshot("BTC", 100))
	require.NoError(t, err)
	assert.Equal(t, buy.ID, f.OrderID)
	assert.Equal(t, "BTC", f.GetSymbol())
	assert.True(t, f.ClosePrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, f.Slippage.Equal(decimal.RequireFromString("0.05")))
	assert.True(t, f.PurchasePrice.Equal(decimal.RequireFromString("100.05")))
	// 5 * 100.05 * 0.001
	assert.True(t, f.Commission.Equal(decimal.RequireFromString("0.50025")))

	sell := newOrder(order.Request{Symbol: "BTC", Side: common.Sell, Size: decimal.NewFromInt(5), Type: common.Limit, Price: decimal.NewFromInt(1)})
	f, err = e.ExecuteOrder(sell, snapshot("BTC", 100))
	require.NoError(t, err)
	assert.True(t, f.PurchasePrice.Equal(decimal.RequireFromString("99.95")))
	assert.Contains(t, f.GetReason(), "limit order executed at market")
}

func TestExecuteOrderNoReferencePrice(t *testing.T) {
	t.Parallel()
	e, err := New(decimal.Zero, decimal.Zero, "zero")
	require.NoError(t, err)
	o := newOrder(order.Request{Symbol: "ETH", Side: common.Buy, Size: decimal.NewFromInt(1)})
	_, err = e.ExecuteOrder(o, snapshot("BTC", 100))
	assert.ErrorIs(t, err, ErrNoReferencePrice)

	empty := &data.Snapshot{Symbols: map[string]data.SymbolView{"ETH": {}}}
	_, err = e.ExecuteOrder(o, empty)
	assert.ErrorIs(t, err, ErrNoReferencePrice)

	_, err = e.ExecuteOrder(nil, empty)
	assert.ErrorIs(t, err, common.ErrNilEvent)
	_, err = e.ExecuteOrder(o, nil)
	assert.ErrorIs(t, err, common.ErrNilArguments)
}

func TestCalculateCommission(t *testing.T) {
	t.Parallel()
	rate := decimal.RequireFromString("0.001")
	price := decimal.NewFromInt(100)
	prev := decimal.Zero
	for _, s := range []string{"0.1", "0.2", "1", "5", "10"} {
		c := CalculateCommission(decimal.RequireFromString(s), price, rate)
		assert.False(t, c.IsNegative())
		assert.True(t, c.GreaterThan(prev), s)
		prev = c
	}
	size := decimal.NewFromInt(1)
	prev = decimal.Zero
	for _, p := range []int64{1, 2, 50, 100} {
		c := CalculateCommission(size, decimal.NewFromInt(p), rate)
		assert.True(t, c.GreaterThan(prev))
		prev = c
	}
	assert.True(t, CalculateCommission(decimal.NewFromInt(-2), price, rate).Equal(decimal.RequireFromString("0.2")))
	assert.True(t, CalculateCommission(size, price, decimal.Zero).IsZero())
}
