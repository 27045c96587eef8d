// Package contracts implements the contract selector: takes an
// already-fetched chain, keeps the contracts inside the configured DTE
// window, filters by |delta| band/OI/spread%, tie-breaks to a single
// winner, and grades every candidate that passed using a gate-then-grade
// shape over option-chain microstructure (spread_pct, OI, delta band).
// The package does not fetch chains itself.
package contracts

import (
	"fmt"
	"math"
	"sort"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/eligibility"
	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/wheelerr"
)

// RequiredChainFields names the fields a contract must carry non-null to
// be considered at all.
var RequiredChainFields = []string{"strike", "expiration", "bid", "ask", "delta", "open_interest"}

// Grade is the A/B/C liquidity grade assigned to every contract that
// passed the hard filters, based on how many non-blocking preferences it
// also met.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

// ChainSource names where the evaluated chain data came from, surfaced on
// Stage2Result so a reader can distinguish "ran and failed" from "never
// ran".
type ChainSource string

const (
	SourceLive    ChainSource = "LIVE"
	SourceDelayed ChainSource = "DELAYED"
	SourceNone    ChainSource = "NONE"
)

// Result is the full Stage-2 outcome for one symbol, a superset of
// model.Stage2Result that also carries the selector's own diagnostics.
type Result struct {
	model.Stage2Result
	Source                ChainSource
	RequiredFieldsPresent bool
	Candidates            []Candidate
	GreeksSummary         string
}

// Candidate is one contract that survived the hard filters, with its
// grade and tie-break keys attached.
type Candidate struct {
	Contract model.OptionContract
	Grade    Grade
}

// Select runs the full Stage-2 pipeline for one symbol in the given mode.
// contracts is the already-fetched base chain; fetching it is a provider
// concern handled upstream, and this function starts from its output.
func Select(cfg config.ContractsConfig, symbol string, mode eligibility.Mode, spot float64, all []model.OptionContract) (Result, error) {
	res := Result{
		Stage2Result: model.Stage2Result{
			Symbol:               symbol,
			Strategy:             string(mode),
			ExpirationsAvailable: 0,
			ExpirationsEvaluated: 0,
			ChainSourceUsed:      string(SourceNone),
		},
		Source: SourceNone,
	}

	if len(all) == 0 {
		return res, nil
	}
	res.ExpirationsAvailable = countExpirations(all)
	res.ExpirationsEvaluated = res.ExpirationsAvailable

	if err := checkModeGuard(symbol, mode); err != nil {
		return res, err
	}

	wantType := model.Put
	if mode == eligibility.ModeCC {
		wantType = model.Call
	}

	inWindow := filterByDTE(all, cfg.MinDTE, cfg.MaxDTE)
	res.ContractsEvaluated = len(inWindow)

	var tally model.RejectionTally
	var afterFields []model.OptionContract
	for _, c := range inWindow {
		// Real chains carry both PUTs and CALLs per expiration; the
		// opposite type for this mode is discarded here, not an error.
		if c.Type != wantType {
			tally.ByOptionType++
			continue
		}
		if missingRequired(c) {
			tally.ByMissingFields++
			continue
		}
		afterFields = append(afterFields, c)
	}

	if mode == eligibility.ModeCSP {
		afterFields = enforceCSPStrikeRange(afterFields, spot)
	}

	var passed []model.OptionContract
	deltaLo, deltaHi := cfg.CSPDeltaMin, cfg.CSPDeltaMax
	if mode == eligibility.ModeCC {
		deltaLo, deltaHi = cfg.CCDeltaMin, cfg.CCDeltaMax
	}

	for _, c := range afterFields {
		deltaVal, _ := c.Delta.Get()
		abs := math.Abs(deltaVal)

		if abs < deltaLo || abs > deltaHi {
			tally.ByDelta++
			continue
		}
		oi, _ := c.OpenInterest.Get()
		if oi < cfg.MinOpenInterest {
			tally.ByOpenInterest++
			continue
		}
		spreadPct := spreadPctOf(c)
		if spreadPct > cfg.MaxSpreadPct {
			tally.BySpread++
			continue
		}
		passed = append(passed, c)
	}

	res.Rejected = tally
	res.Source = SourceDelayed
	res.ContractDataAvailable = true
	res.ChainSourceUsed = string(SourceDelayed)

	if len(passed) == 0 {
		res.OptionTypeCounts = optionTypeCounts(afterFields)
		res.GreeksSummary = greeksSummary(mode, deltaLo, deltaHi, tally)
		res.LiquidityOK = false
		res.LiquidityReason = "No contracts passed delta/OI/spread filters: " + res.GreeksSummary
		return res, nil
	}

	midPoint := (deltaLo + deltaHi) / 2
	sort.Slice(passed, func(i, j int) bool {
		return tieBreakLess(passed[i], passed[j], mode, midPoint)
	})

	candidates := make([]Candidate, 0, len(passed))
	for _, c := range passed {
		candidates = append(candidates, Candidate{Contract: c, Grade: gradeOf(c, cfg, midPoint)})
	}
	res.Candidates = candidates

	winner := passed[0]
	premium := mid(winner)
	strike, _ := winner.Strike.Get()
	res.Selected = &model.SelectedContract{
		Contract:       winner,
		Premium:        premium,
		PremiumYield:   safeDiv(premium, strike),
		DistanceToSpot: safeDiv(math.Abs(spot-strike), spot),
	}
	res.RequiredFieldsPresent = true
	res.OptionTypeCounts = optionTypeCounts(afterFields)
	res.GreeksSummary = greeksSummary(mode, deltaLo, deltaHi, tally)
	res.LiquidityOK = true
	res.LiquidityReason = "at least one candidate passed all filters"

	candModels := make([]model.SelectedContract, 0, len(candidates))
	for _, c := range candidates {
		premium := mid(c.Contract)
		strike, _ := c.Contract.Strike.Get()
		candModels = append(candModels, model.SelectedContract{
			Contract:       c.Contract,
			Premium:        premium,
			PremiumYield:   safeDiv(premium, strike),
			DistanceToSpot: safeDiv(math.Abs(spot-strike), spot),
		})
	}
	res.SelectedCandidates = candModels

	return res, nil
}

// checkModeGuard enforces the one real mode precondition for contract
// selection: the eligibility decision must actually be CSP or CC. A real
// chain mixing PUTs and CALLs for the same symbol is normal and handled by
// filtering inside Select, not here — calling Select with ModeNone (no
// eligible strategy) is the actual pipeline-level bug this guards against.
func checkModeGuard(symbol string, mode eligibility.Mode) error {
	if mode != eligibility.ModeCSP && mode != eligibility.ModeCC {
		return &wheelerr.ModeConflictError{Symbol: symbol, Mode: string(mode), Reason: "contract selection requires a CSP or CC eligibility decision"}
	}
	return nil
}

func countExpirations(all []model.OptionContract) int {
	seen := map[string]bool{}
	for _, c := range all {
		seen[c.Expiration.Format("2006-01-02")] = true
	}
	return len(seen)
}

func filterByDTE(all []model.OptionContract, minDTE, maxDTE int) []model.OptionContract {
	var out []model.OptionContract
	for _, c := range all {
		if c.DTE >= minDTE && c.DTE <= maxDTE {
			out = append(out, c)
		}
	}
	return out
}

func missingRequired(c model.OptionContract) bool {
	if !c.Strike.Present() || !c.Bid.Present() || !c.Ask.Present() || !c.Delta.Present() || !c.OpenInterest.Present() {
		return true
	}
	return false
}

// enforceCSPStrikeRange re-applies the base-fetch strike invariant at
// selection time: spot*0.80 <= strike < spot. No deep OTM puts.
func enforceCSPStrikeRange(in []model.OptionContract, spot float64) []model.OptionContract {
	var out []model.OptionContract
	floor := spot * 0.80
	for _, c := range in {
		strike, ok := c.Strike.Get()
		if !ok {
			continue
		}
		if strike >= floor && strike < spot {
			out = append(out, c)
		}
	}
	return out
}

func spreadPctOf(c model.OptionContract) float64 {
	bid, _ := c.Bid.Get()
	ask, _ := c.Ask.Get()
	m := (bid + ask) / 2
	if m <= 0 {
		return math.MaxFloat64
	}
	return (ask - bid) / m
}

func mid(c model.OptionContract) float64 {
	bid, _ := c.Bid.Get()
	ask, _ := c.Ask.Get()
	return (bid + ask) / 2
}

func safeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}

// tieBreakLess orders candidates: closest |delta| to the band midpoint
// wins first; then higher strike for CSP (more premium per unit distance)
// / lower strike for CC (more OTM); then higher open interest.
func tieBreakLess(a, b model.OptionContract, mode eligibility.Mode, midPoint float64) bool {
	da, _ := a.Delta.Get()
	db, _ := b.Delta.Get()
	distA := math.Abs(math.Abs(da) - midPoint)
	distB := math.Abs(math.Abs(db) - midPoint)
	if distA != distB {
		return distA < distB
	}

	sa, _ := a.Strike.Get()
	sb, _ := b.Strike.Get()
	if sa != sb {
		if mode == eligibility.ModeCSP {
			return sa > sb
		}
		return sa < sb
	}

	oiA, _ := a.OpenInterest.Get()
	oiB, _ := b.OpenInterest.Get()
	return oiA > oiB
}

// gradeOf grades a passed contract A/B/C by how many of three non-blocking
// preferences (spread at most half the maximum, OI at least twice the
// minimum, |delta| within 0.05 of the band midpoint) it also met beyond
// the hard filters: all three for A, two for B.
func gradeOf(c model.OptionContract, cfg config.ContractsConfig, midPoint float64) Grade {
	score := 0
	if spreadPctOf(c) <= cfg.MaxSpreadPct/2 {
		score++
	}
	if oi, ok := c.OpenInterest.Get(); ok && oi >= cfg.MinOpenInterest*2 {
		score++
	}
	d, _ := c.Delta.Get()
	if math.Abs(math.Abs(d)-midPoint) <= 0.05 {
		score++
	}

	switch {
	case score >= 3:
		return GradeA
	case score == 2:
		return GradeB
	default:
		return GradeC
	}
}

func optionTypeCounts(all []model.OptionContract) map[string]int {
	counts := map[string]int{}
	for _, c := range all {
		counts[string(c.Type)]++
	}
	return counts
}

// greeksSummary produces mode-aware diagnostic text: "abs_delta X-Y
// (CSP)" or "(CC)", never "for CSP" in CC mode, and never a raw
// internal code like "rejected_due_to_delta=32" — the rejection count
// is humanized into a full sentence.
func greeksSummary(mode eligibility.Mode, lo, hi float64, tally model.RejectionTally) string {
	label := "CSP"
	if mode == eligibility.ModeCC {
		label = "CC"
	}
	return humanizeRejection(lo, hi, label, tally)
}

func humanizeRejection(lo, hi float64, label string, tally model.RejectionTally) string {
	summary := fmt.Sprintf("abs_delta %.2f-%.2f (%s)", lo, hi, label)
	if tally.ByDelta > 0 {
		summary += fmt.Sprintf("; rejected due to delta band (rejected_count=%d)", tally.ByDelta)
	}
	if tally.ByOpenInterest > 0 {
		summary += fmt.Sprintf("; rejected due to open interest (rejected_count=%d)", tally.ByOpenInterest)
	}
	if tally.BySpread > 0 {
		summary += fmt.Sprintf("; rejected due to spread width (rejected_count=%d)", tally.BySpread)
	}
	if tally.ByMissingFields > 0 {
		summary += fmt.Sprintf("; rejected due to missing required fields (rejected_count=%d)", tally.ByMissingFields)
	}
	return summary
}
