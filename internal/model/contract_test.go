package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optionwheel/engine/internal/quality"
)

func TestNormalizedDelta_PutIsNegative(t *testing.T) {
	c := OptionContract{Type: Put, Delta: quality.Wrap("delta", -0.30, coerceFloat, false)}
	d, ok := c.NormalizedDelta()
	assert.True(t, ok)
	assert.Equal(t, -0.30, d)
}

func TestNormalizedDelta_CallIsPositive(t *testing.T) {
	c := OptionContract{Type: Call, Delta: quality.Wrap("delta", 0.30, coerceFloat, false)}
	d, ok := c.NormalizedDelta()
	assert.True(t, ok)
	assert.Equal(t, 0.30, d)
}

func TestNormalizedDelta_NormalizesProviderSignRegardlessOfInputSign(t *testing.T) {
	// Some providers report put deltas as positive; NormalizedDelta must
	// still return the strategy-convention negative sign for puts.
	c := OptionContract{Type: Put, Delta: quality.Wrap("delta", 0.30, coerceFloat, false)}
	d, ok := c.NormalizedDelta()
	assert.True(t, ok)
	assert.Equal(t, -0.30, d)
}

func TestNormalizedDelta_MissingDeltaReturnsFalse(t *testing.T) {
	c := OptionContract{Type: Put, Delta: quality.Wrap("delta", nil, coerceFloat, false)}
	_, ok := c.NormalizedDelta()
	assert.False(t, ok)
}
