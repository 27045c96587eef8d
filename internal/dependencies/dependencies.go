// Package dependencies implements the data-dependencies checker: a pure
// function over a snapshot and a per-instrument-type field policy that
// decides PASS/WARN/FAIL before Stage-1 gets to classify a verdict,
// generalizing a staleness-threshold check ("is this quote too old to
// trust") into a full required/optional/stale field policy.
package dependencies

import (
	"time"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/quality"
)

// Status is the outcome of checking a snapshot against its instrument
// type's field policy.
type Status string

const (
	Pass Status = "PASS"
	Warn Status = "WARN"
	Fail Status = "FAIL"
)

// Result is the full outcome of one check, carrying enough detail that a
// caller never needs to re-derive why a symbol failed or warned.
type Result struct {
	Symbol          string
	Status          Status
	MissingRequired []string
	StaleRequired   []string
	MissingOptional []string
	AsOfQuoteDate   string
}

// PolicyFor resolves the configured FieldPolicy for a snapshot's
// instrument type.
func PolicyFor(cfg config.DependenciesConfig, instrument model.InstrumentType) config.FieldPolicy {
	switch instrument {
	case model.ETF:
		return cfg.ETF
	case model.Index:
		return cfg.Index
	default:
		return cfg.Equity
	}
}

// Check evaluates snap against the configured policy for its instrument
// type as of `now`. Pure over its inputs: no provider calls, no mutation.
func Check(cfg config.DependenciesConfig, snap *model.SymbolSnapshot, now time.Time) Result {
	policy := PolicyFor(cfg, snap.InstrumentType)

	result := Result{Symbol: snap.Symbol, Status: Pass}

	for _, field := range policy.Required {
		if snap.FieldQuality(field) != quality.Valid {
			result.MissingRequired = append(result.MissingRequired, field)
		}
	}
	for _, field := range policy.Optional {
		if snap.FieldQuality(field) != quality.Valid {
			result.MissingOptional = append(result.MissingOptional, field)
		}
	}

	if isStale(snap, policy, now) {
		result.StaleRequired = policy.Required
	}

	switch {
	case len(result.MissingRequired) > 0:
		result.Status = Fail
	case len(result.StaleRequired) > 0 || len(result.MissingOptional) > 0:
		result.Status = Warn
	default:
		result.Status = Pass
	}

	return result
}

// isStale reports whether the snapshot's quote_date is older than the
// policy's staleness threshold, measured in trading days (approximated
// here as calendar days — weekends/holidays are the provider's freshness
// problem, not the checker's).
func isStale(snap *model.SymbolSnapshot, policy config.FieldPolicy, now time.Time) bool {
	dateStr, ok := snap.QuoteDate.Get()
	if !ok {
		return false // missing quote_date is already a required-field failure, not a staleness one
	}
	quoteDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return false
	}
	threshold := policy.StaleThresholdDays
	if threshold <= 0 {
		threshold = 1
	}
	return now.UTC().Sub(quoteDate).Hours() > float64(threshold)*24
}
