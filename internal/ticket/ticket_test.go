package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	req := Request{Symbol: "AAPL", Quantity: 10}
	require.NoError(t, Validate(&req))
	assert.Equal(t, SideBuy, req.Side)
	assert.Equal(t, OrderMarket, req.Type)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"missing quantity", Request{Symbol: "AAPL"}, ErrQuantityRequired},
		{"negative quantity", Request{Symbol: "AAPL", Quantity: -1}, ErrQuantityRequired},
		{"limit without price", Request{Symbol: "AAPL", Quantity: 5, Type: OrderLimit}, ErrLimitPriceRequired},
		{"stop without price", Request{Symbol: "AAPL", Quantity: 5, Type: OrderStop}, ErrStopPriceRequired},
		{"unknown type", Request{Symbol: "AAPL", Quantity: 5, Type: "iceberg"}, ErrInvalidTicket},
		{"missing symbol", Request{Quantity: 5}, ErrInvalidTicket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			assert.ErrorIs(t, Validate(&req), tt.want)
		})
	}
}

func TestPrice_Market(t *testing.T) {
	est, err := Price(Request{Symbol: "AAPL", Quantity: 50}, 155.67, DefaultAccountBalance)
	require.NoError(t, err)

	assert.Equal(t, "7783.5", est.Cost.String())
	assert.Equal(t, "155.67", est.Price.String())
	assert.Equal(t, int64(802), est.MaxShares)
	assert.True(t, est.Affordable)
	assert.Equal(t, "BUY 50 AAPL (MARKET)", est.Description)
}

func TestPrice_LimitAndStop(t *testing.T) {
	est, err := Price(Request{Symbol: "AAPL", Quantity: 10, Type: OrderLimit, LimitPrice: 150}, 155.67, DefaultAccountBalance)
	require.NoError(t, err)
	assert.Equal(t, "1500", est.Cost.String())
	assert.Equal(t, "BUY 10 AAPL (LIMIT @ $150.00)", est.Description)

	est, err = Price(Request{Symbol: "AAPL", Side: SideSell, Quantity: 10, Type: OrderStop, StopPrice: 140}, 155.67, DefaultAccountBalance)
	require.NoError(t, err)
	assert.Equal(t, "1556.7", est.Cost.String())
	assert.Equal(t, "SELL 10 AAPL (STOP @ $140.00)", est.Description)
}

func TestPrice_Unaffordable(t *testing.T) {
	est, err := Price(Request{Symbol: "GOOGL", Quantity: 100}, 2580, 125000)
	require.NoError(t, err)
	assert.False(t, est.Affordable)

	est, err = Price(Request{Symbol: "GOOGL", Side: SideSell, Quantity: 100}, 2580, 125000)
	require.NoError(t, err)
	assert.True(t, est.Affordable)
}

func TestMaxShares(t *testing.T) {
	assert.Equal(t, int64(802), MaxShares(125000, 155.67))
	assert.Equal(t, int64(0), MaxShares(125000, 0))
	assert.Equal(t, int64(0), MaxShares(0, 10))
	assert.Equal(t, int64(4), MaxShares(100, 25))
}
