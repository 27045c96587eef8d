// Package eligibility implements the eligibility engine: the
// regime/RSI/ATR/near-S-R gate ladder that decides a symbol's mode
// (CSP, CC, or NONE) for one evaluation cycle, collecting every failing
// reason along an ordered rule table, with CSP given precedence over CC
// when both would otherwise pass.
package eligibility

import (
	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/indicators"
	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/regime"
)

// Mode is the strategy decision for a symbol in one cycle. CSP and CC are
// mutually exclusive; NONE means no contract selection runs this cycle.
type Mode string

const (
	ModeCSP  Mode = "CSP"
	ModeCC   Mode = "CC"
	ModeNone Mode = "NONE"
)

// Reason codes, applied in precedence order (the first failure collected
// across both the CSP and CC gate ladders becomes PrimaryReasonCode).
const (
	FailNoCandles                   = "FAIL_NO_CANDLES"
	FailNoHoldings                   = "FAIL_NO_HOLDINGS"
	FailNotHeldForCC                 = "FAIL_NOT_HELD_FOR_CC"
	FailRegime                       = "FAIL_REGIME"
	FailRSI                          = "FAIL_RSI"
	FailATR                          = "FAIL_ATR"
	FailNearSupportResistance        = "FAIL_NEAR_S_R"
	FailIntradayRegimeConflict       = "FAIL_INTRADAY_REGIME_CONFLICT"
	FailIntradayDataMissing          = "FAIL_INTRADAY_DATA_MISSING"
)

// Inputs bundles everything the eligibility engine needs for one symbol
// cycle, independent of how candles/holdings/RSI were sourced.
type Inputs struct {
	Symbol          string
	Closes          []float64 // ascending by trade date
	Bars            []indicators.PriceBar
	Spot            float64
	Holdings        int // shares held; >0 required to consider CC
	IntradayBars    []indicators.PriceBar // 4H bars, most recent last
	IntradayEnabled bool
}

// Computed carries the numeric values the gate ladder evaluated, surfaced
// on EligibilityTrace for diagnostics regardless of outcome.
type Computed struct {
	Regime                string
	RegimeWeekly          string
	RSI14                 float64
	RSIPresent            bool
	ATRPct                float64
	ATRPresent            bool
	SupportLevel          float64
	ResistanceLevel       float64
	DistanceToSupportPct  float64
	DistanceToSupportOK   bool
	DistanceToResistPct   float64
	DistanceToResistOK    bool
}

// Trace is the full, win-or-lose evaluation record: every gate's
// evidence, the winning mode, and the ordered rejection codes that
// explain why a losing mode didn't win.
type Trace struct {
	Symbol               string
	ModeDecision          Mode
	Computed              Computed
	Gates                 []model.GateReason
	RejectionReasonCodes  []string
	PrimaryReasonCode     string
	IntradayDataPresent   bool
	IntradayAlignmentPass bool
	IntradayRegime        string
	IntradayReasonCode    string
}

// Evaluate runs the full gate ladder for one symbol and decides its mode.
// The engine never consults option chains — contract selection is a
// separate job, strictly downstream of this decision.
func Evaluate(cfg config.EligibilityConfig, in Inputs) Trace {
	trace := Trace{Symbol: in.Symbol, ModeDecision: ModeNone}

	if len(in.Bars) < cfg.MinCandles || len(in.Closes) < cfg.MinCandles {
		trace.RejectionReasonCodes = append(trace.RejectionReasonCodes, FailNoCandles)
		trace.PrimaryReasonCode = FailNoCandles
		return trace
	}

	dailyRegime := regime.Classify(in.Closes, 20, 50)
	weeklyRegime := regime.Classify(weeklyCloses(in.Closes), 20, 50)

	rsi := indicators.RSI(in.Closes, 14)
	atr := indicators.ATR(in.Bars, 14)

	support, resistance := nearestSR(in.Bars, in.Spot, cfg.MaxSRTolPct)

	rsiVal, rsiOK := rsi.Get()
	atrVal, atrOK := atr.Get()
	atrPct := 0.0
	if atrOK && in.Spot > 0 {
		atrPct = atrVal / in.Spot
	}

	distSupport, distSupportOK := distancePct(in.Spot, support, true)
	distResist, distResistOK := distancePct(in.Spot, resistance, false)

	trace.Computed = Computed{
		Regime:               string(dailyRegime),
		RegimeWeekly:         string(weeklyRegime),
		RSI14:                rsiVal,
		RSIPresent:           rsiOK,
		ATRPct:               atrPct,
		ATRPresent:           atrOK,
		SupportLevel:         support,
		ResistanceLevel:      resistance,
		DistanceToSupportPct: distSupport,
		DistanceToSupportOK:  distSupportOK,
		DistanceToResistPct:  distResist,
		DistanceToResistOK:   distResistOK,
	}

	cspGates, cspPass := evaluateCSP(cfg, dailyRegime, rsiVal, rsiOK, atrPct, atrOK, distSupport, distSupportOK)
	ccGates, ccPass := evaluateCC(cfg, dailyRegime, rsiVal, rsiOK, atrPct, atrOK, distResist, distResistOK, in.Holdings)

	trace.Gates = append(trace.Gates, cspGates...)
	trace.Gates = append(trace.Gates, ccGates...)

	switch {
	case cspPass:
		trace.ModeDecision = ModeCSP
	case ccPass:
		trace.ModeDecision = ModeCC
	default:
		trace.ModeDecision = ModeNone
	}

	trace.RejectionReasonCodes = firstFailures(cspGates, ccGates, in.Holdings)
	if len(trace.RejectionReasonCodes) > 0 {
		trace.PrimaryReasonCode = trace.RejectionReasonCodes[0]
	}

	if trace.ModeDecision == ModeCSP && cfg.EnableIntradayConfirmation && in.IntradayEnabled {
		applyIntradayConfirmation(cfg, &trace, in.IntradayBars)
	}

	return trace
}

func evaluateCSP(cfg config.EligibilityConfig, r regime.Regime, rsi float64, rsiOK bool, atrPct float64, atrOK bool, distSupport float64, distSupportOK bool) ([]model.GateReason, bool) {
	regimeGate := model.GateReason{
		Name:    "csp_regime_up",
		Passed:  r == regime.Up,
		Message: "daily regime must be UP for a cash-secured put",
		Metrics: map[string]float64{},
	}
	rsiPass := rsiOK && rsi >= cfg.CSPRSIMin && rsi <= cfg.CSPRSIMax
	rsiGate := model.GateReason{
		Name:    "csp_rsi_band",
		Passed:  rsiPass,
		Message: "RSI14 must sit inside the CSP band",
		Metrics: map[string]float64{"rsi14": rsi},
	}
	atrPass := atrOK && atrPct < cfg.MaxATRPct
	atrGate := model.GateReason{
		Name:    "csp_atr_ceiling",
		Passed:  atrPass,
		Message: "ATR% must stay below the volatility ceiling",
		Metrics: map[string]float64{"atr_pct": atrPct},
	}
	srPass := distSupportOK && distSupport <= cfg.SupportNearPct
	srGate := model.GateReason{
		Name:    "csp_near_support",
		Passed:  srPass,
		Message: "price must sit within range of the nearest support cluster",
		Metrics: map[string]float64{"distance_to_support_pct": distSupport},
	}

	gates := []model.GateReason{regimeGate, rsiGate, atrGate, srGate}
	pass := regimeGate.Passed && rsiGate.Passed && atrGate.Passed && srGate.Passed
	return gates, pass
}

func evaluateCC(cfg config.EligibilityConfig, r regime.Regime, rsi float64, rsiOK bool, atrPct float64, atrOK bool, distResist float64, distResistOK bool, holdings int) ([]model.GateReason, bool) {
	holdingsGate := model.GateReason{
		Name:    "cc_holdings_required",
		Passed:  holdings > 0,
		Message: "covered calls require an existing long position",
		Metrics: map[string]float64{"holdings": float64(holdings)},
	}
	regimeGate := model.GateReason{
		Name:    "cc_regime_down",
		Passed:  r == regime.Down,
		Message: "daily regime must be DOWN for a covered call",
		Metrics: map[string]float64{},
	}
	rsiPass := rsiOK && rsi >= cfg.CCRSIMin && rsi <= cfg.CCRSIMax
	rsiGate := model.GateReason{
		Name:    "cc_rsi_band",
		Passed:  rsiPass,
		Message: "RSI14 must sit inside the CC band",
		Metrics: map[string]float64{"rsi14": rsi},
	}
	atrPass := atrOK && atrPct < cfg.MaxATRPct
	atrGate := model.GateReason{
		Name:    "cc_atr_ceiling",
		Passed:  atrPass,
		Message: "ATR% must stay below the volatility ceiling",
		Metrics: map[string]float64{"atr_pct": atrPct},
	}
	srPass := distResistOK && distResist <= cfg.ResistNearPct
	srGate := model.GateReason{
		Name:    "cc_near_resistance",
		Passed:  srPass,
		Message: "price must sit within range of the nearest resistance cluster",
		Metrics: map[string]float64{"distance_to_resistance_pct": distResist},
	}

	gates := []model.GateReason{holdingsGate, regimeGate, rsiGate, atrGate, srGate}
	pass := holdingsGate.Passed && regimeGate.Passed && rsiGate.Passed && atrGate.Passed && srGate.Passed
	return gates, pass
}

// firstFailures returns the ordered list of reason codes for every gate
// that failed across both ladders, reported as rejection_reason_codes[]
// whichever mode is chosen.
func firstFailures(cspGates, ccGates []model.GateReason, holdings int) []string {
	var codes []string
	nameToCode := map[string]string{
		"csp_regime_up":         FailRegime,
		"csp_rsi_band":          FailRSI,
		"csp_atr_ceiling":       FailATR,
		"csp_near_support":      FailNearSupportResistance,
		"cc_holdings_required":  FailNoHoldings,
		"cc_regime_down":        FailRegime,
		"cc_rsi_band":           FailRSI,
		"cc_atr_ceiling":        FailATR,
		"cc_near_resistance":    FailNearSupportResistance,
	}
	for _, g := range cspGates {
		if !g.Passed {
			codes = append(codes, nameToCode[g.Name])
		}
	}
	for _, g := range ccGates {
		if !g.Passed {
			if g.Name == "cc_holdings_required" && holdings == 0 {
				codes = append(codes, FailNotHeldForCC)
				continue
			}
			codes = append(codes, nameToCode[g.Name])
		}
	}
	return codes
}

func applyIntradayConfirmation(cfg config.EligibilityConfig, trace *Trace, intradayBars []indicators.PriceBar) {
	if len(intradayBars) < cfg.IntradayMinRows {
		trace.IntradayDataPresent = false
		trace.IntradayReasonCode = FailIntradayDataMissing
		trace.ModeDecision = ModeNone
		trace.RejectionReasonCodes = append([]string{FailIntradayDataMissing}, trace.RejectionReasonCodes...)
		trace.PrimaryReasonCode = FailIntradayDataMissing
		return
	}

	trace.IntradayDataPresent = true
	closes := make([]float64, len(intradayBars))
	for i, b := range intradayBars {
		closes[i] = b.Close
	}
	intraday := regime.Classify(closes, 10, 30)
	trace.IntradayRegime = string(intraday)

	if intraday == regime.Down {
		trace.IntradayAlignmentPass = false
		trace.IntradayReasonCode = FailIntradayRegimeConflict
		trace.ModeDecision = ModeNone
		trace.RejectionReasonCodes = append([]string{FailIntradayRegimeConflict}, trace.RejectionReasonCodes...)
		trace.PrimaryReasonCode = FailIntradayRegimeConflict
		return
	}
	trace.IntradayAlignmentPass = true
}

// weeklyCloses downsamples daily closes to one close per 5 trading days, a
// cheap approximation of weekly bars without requiring a second data feed.
func weeklyCloses(daily []float64) []float64 {
	var out []float64
	for i := len(daily) - 1; i >= 0; i -= 5 {
		out = append([]float64{daily[i]}, out...)
	}
	return out
}

// nearestSR runs the swing-cluster detector and returns the nearest
// support below spot and nearest resistance above spot, or 0 when no
// cluster qualifies on that side.
func nearestSR(bars []indicators.PriceBar, spot float64, tolerancePct float64) (support, resistance float64) {
	swings := indicators.FractalSwings(bars, 2)
	clusters := indicators.ClusterSwings(swings, tolerancePct)

	bestSupport := -1.0
	bestResistance := -1.0
	for _, c := range clusters {
		if c.Price < spot && c.Price > bestSupport {
			bestSupport = c.Price
		}
		if c.Price > spot && (bestResistance < 0 || c.Price < bestResistance) {
			bestResistance = c.Price
		}
	}
	if bestSupport < 0 {
		support = 0
	} else {
		support = bestSupport
	}
	if bestResistance < 0 {
		resistance = 0
	} else {
		resistance = bestResistance
	}
	return
}

// distancePct returns the fractional distance from spot to level, and
// whether that distance is defined at all (level == 0 means no cluster
// qualified on that side — distance is null, not zero).
func distancePct(spot, level float64, below bool) (float64, bool) {
	if level <= 0 || spot <= 0 {
		return 0, false
	}
	if below {
		return (spot - level) / spot, true
	}
	return (level - spot) / spot, true
}
