// Package regime classifies the daily trend regime and offers an optional
// 4-hour intraday confirmation pass. The daily classifier is deterministic
// (EMA ordering plus slope sign), not a weighted vote. A separate
// weighted-vote mechanism powers the intraday confirmation pass described
// below, kept distinct from the deterministic daily classifier.
package regime

import "github.com/optionwheel/engine/internal/indicators"

// Regime is the daily trend classification driving gate thresholds.
type Regime string

const (
	Up       Regime = "UP"
	Down     Regime = "DOWN"
	Sideways Regime = "SIDEWAYS"
)

// Classify applies deterministic EMA-ordering and slope-sign rules: UP
// when the fast EMA sits above the slow EMA and the slow EMA's recent
// slope is non-negative; DOWN for the mirror case; SIDEWAYS otherwise,
// including the tie case where the two EMAs are equal (the conservative
// default).
func Classify(closes []float64, fastPeriod, slowPeriod int) Regime {
	fast := indicators.EMA(closes, fastPeriod)
	slow := indicators.EMA(closes, slowPeriod)
	if len(fast) == 0 || len(slow) == 0 || len(slow) < 2 {
		return Sideways
	}

	fastLast := fast[len(fast)-1]
	slowLast := slow[len(slow)-1]
	slope := slow[len(slow)-1] - slow[len(slow)-2]

	switch {
	case fastLast > slowLast && slope >= 0:
		return Up
	case fastLast < slowLast && slope <= 0:
		return Down
	default:
		return Sideways
	}
}

// IntradayVote is one 4H-timeframe indicator's opinion, weighted, used
// only to confirm or flag divergence from the daily regime — never to
// override it.
type IntradayVote struct {
	Name   string
	Vote   Regime
	Weight float64
}

// Confirmation is the outcome of reconciling the daily regime against a
// 4H intraday vote panel.
type Confirmation struct {
	DailyRegime    Regime
	IntradayRegime Regime
	Confirmed      bool
	Confidence     float64
}

// Confirm tallies weighted intraday votes into a single intraday regime
// and reports whether it agrees with the daily regime.
func Confirm(daily Regime, votes []IntradayVote) Confirmation {
	weights := map[Regime]float64{}
	total := 0.0
	for _, v := range votes {
		weights[v.Vote] += v.Weight
		total += v.Weight
	}

	intraday := Sideways
	best := -1.0
	for _, r := range []Regime{Up, Down, Sideways} {
		if weights[r] > best {
			best = weights[r]
			intraday = r
		}
	}

	confidence := 0.0
	if total > 0 {
		confidence = best / total
	}

	return Confirmation{
		DailyRegime:    daily,
		IntradayRegime: intraday,
		Confirmed:      intraday == daily,
		Confidence:     confidence,
	}
}
