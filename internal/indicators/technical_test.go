package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSI_MissingWhenInsufficientLookback(t *testing.T) {
	f := RSI([]float64{1, 2, 3}, 14)
	assert.False(t, f.Present())
}

func TestRSI_ValidWithEnoughData(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	f := RSI(prices, 14)
	require := assert.New(t)
	require.True(f.Present())
	v, _ := f.Get()
	require.Greater(v, 50.0) // steadily rising prices -> RSI above midpoint
}

func TestATR_MissingWhenInsufficientLookback(t *testing.T) {
	f := ATR([]PriceBar{{High: 10, Low: 9, Close: 9.5}}, 14)
	assert.False(t, f.Present())
}

func TestEMA_NilWhenInsufficientLookback(t *testing.T) {
	assert.Nil(t, EMA([]float64{1, 2}, 5))
}
