// candles.go turns a provider's raw daily-bar rows into the ascending
// closes/PriceBar slices the eligibility engine consumes, the same
// null-tolerant decode style as snapshot.FromRaw: a row missing a
// required OHLC field is dropped, never coerced to zero.
package pipeline

import (
	"github.com/optionwheel/engine/internal/indicators"
	"github.com/optionwheel/engine/internal/providers"
)

// ParseDailyBars decodes raw daily bars into ascending closes and
// PriceBar slices, in lockstep (same length, same index maps to the same
// trade date).
func ParseDailyBars(raw providers.RawDailyBars) ([]float64, []indicators.PriceBar) {
	closes := make([]float64, 0, len(raw))
	bars := make([]indicators.PriceBar, 0, len(raw))

	for _, row := range raw {
		high, hOK := asFloat(row["high"])
		low, lOK := asFloat(row["low"])
		close, cOK := asFloat(row["close"])
		if !hOK || !lOK || !cOK {
			continue
		}
		closes = append(closes, close)
		bars = append(bars, indicators.PriceBar{High: high, Low: low, Close: close})
	}

	return closes, bars
}

func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
