package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coerceFloat(raw any) (float64, error) {
	v, ok := raw.(float64)
	if !ok {
		return 0, assertErr(raw)
	}
	return v, nil
}

type coercionError struct{ raw any }

func (e coercionError) Error() string { return "not a float64" }

func assertErr(raw any) error { return coercionError{raw: raw} }

func TestWrap_Missing_WhenNil(t *testing.T) {
	f := Wrap("price", nil, coerceFloat, true)
	assert.Equal(t, Missing, f.Quality)
	assert.False(t, f.Present())
	assert.Equal(t, "price not provided by source", f.Reason)
}

func TestWrap_Error_OnBadCoercion(t *testing.T) {
	f := Wrap("price", "not-a-number", coerceFloat, true)
	require.Equal(t, Error, f.Quality)
	assert.False(t, f.Present())
}

func TestWrap_Valid_NonZero(t *testing.T) {
	f := Wrap("price", 450.0, coerceFloat, true)
	require.True(t, f.Present())
	v, ok := f.Get()
	require.True(t, ok)
	assert.Equal(t, 450.0, v)
}

func TestWrap_ZeroAllowedByDefault(t *testing.T) {
	f := Wrap("volume", 0.0, coerceFloat, true)
	assert.Equal(t, Valid, f.Quality)
	v, ok := f.Get()
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestWrap_ZeroDemotedWhenDisallowed(t *testing.T) {
	f := Wrap("open_interest", 0.0, coerceFloat, false)
	assert.Equal(t, Missing, f.Quality)
	assert.Equal(t, "open_interest is zero (treated as missing)", f.Reason)
}

func TestCompleteness(t *testing.T) {
	statuses := map[string]Quality{
		"price":  Valid,
		"bid":    Valid,
		"ask":    Missing,
		"volume": Error,
	}
	pct, missing := Completeness(statuses, []string{"price", "bid", "ask", "volume"})
	assert.Equal(t, 0.5, pct)
	assert.ElementsMatch(t, []string{"ask", "volume"}, missing)
}

func TestCompleteness_EmptyOrderIsFullyComplete(t *testing.T) {
	pct, missing := Completeness(nil, nil)
	assert.Equal(t, 1.0, pct)
	assert.Nil(t, missing)
}
