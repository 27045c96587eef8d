// Package indicators computes the technical indicators the regime
// classifier and eligibility gates consume: RSI, ATR, EMA, and fractal
// swing points, using Wilder's smoothing for RSI and a rolling
// true-range average for ATR. Insufficient lookback returns
// quality.Missing via the nullable Field, never a fabricated neutral
// value that could silently leak into scoring.
package indicators

import (
	"math"

	"github.com/optionwheel/engine/internal/quality"
)

// RSI computes Wilder-smoothed RSI over prices. Returns a MISSING field
// (not a sentinel 50.0) when fewer than period+1 closes are available.
func RSI(prices []float64, period int) quality.Field[float64] {
	if len(prices) < period+1 {
		return missingField("rsi")
	}

	gains := make([]float64, len(prices)-1)
	losses := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	alpha := 1.0 / float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = avgGain*(1-alpha) + gains[i]*alpha
		avgLoss = avgLoss*(1-alpha) + losses[i]*alpha
	}

	if avgLoss == 0 {
		return validField("rsi", 100.0)
	}
	rs := avgGain / avgLoss
	return validField("rsi", 100.0-(100.0/(1.0+rs)))
}

// PriceBar is one OHLC bar for ATR/swing calculations.
type PriceBar struct {
	High  float64
	Low   float64
	Close float64
}

// ATR computes the rolling average true range. Returns MISSING when fewer
// than period+1 bars are available — never a zero-value placeholder.
func ATR(bars []PriceBar, period int) quality.Field[float64] {
	if len(bars) < period+1 {
		return missingField("atr")
	}

	trueRanges := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		trueRanges[i-1] = math.Max(hl, math.Max(hc, lc))
	}

	if len(trueRanges) < period {
		return missingField("atr")
	}

	sum := 0.0
	for _, tr := range trueRanges[:period] {
		sum += tr
	}
	atr := sum / float64(period)
	for i := period; i < len(trueRanges); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
	}
	return validField("atr", atr)
}

// EMA computes the exponential moving average series, seeded by an SMA of
// the first `period` values. Returns nil when there's insufficient
// lookback.
func EMA(prices []float64, period int) []float64 {
	if len(prices) < period {
		return nil
	}

	sma := 0.0
	for _, p := range prices[:period] {
		sma += p
	}
	sma /= float64(period)

	out := make([]float64, 0, len(prices)-period+1)
	out = append(out, sma)

	k := 2.0 / float64(period+1)
	prev := sma
	for i := period; i < len(prices); i++ {
		prev = prices[i]*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}

func missingField(name string) quality.Field[float64] {
	return quality.Wrap[float64](name, nil, func(any) (float64, error) { return 0, nil }, true)
}

func validField(name string, v float64) quality.Field[float64] {
	return quality.Wrap[float64](name, v, func(raw any) (float64, error) { return raw.(float64), nil }, true)
}
