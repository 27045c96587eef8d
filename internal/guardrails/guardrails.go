// Package guardrails implements the portfolio-level guardrail chain: an
// ordered, multiplicative adjustment to a candidate's suggested contract
// count based on exposure, concentration, cluster risk, market regime,
// and assignment pressure. Every rule in the chain applies in order,
// multiplicatively, rather than stopping at the first match.
package guardrails

import (
	"math"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/eligibility"
)

// ClusterRisk and RegimeState are the two portfolio-wide classifications
// the guardrail chain consults, distinct from the per-symbol regime the
// eligibility engine classifies (a portfolio can be in CRASH even when an
// individual symbol's daily regime reads UP).
type ClusterRisk string

const (
	ClusterLow    ClusterRisk = "LOW"
	ClusterMedium ClusterRisk = "MEDIUM"
	ClusterHigh   ClusterRisk = "HIGH"
)

type RegimeState string

const (
	RegimeNormal RegimeState = "NORMAL"
	RegimeDown   RegimeState = "DOWN"
	RegimeCrash  RegimeState = "CRASH"
)

// Severity is an optional override a rule can impose on the whole run's
// advisory level, independent of the numeric contract adjustment.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityAdvisory Severity = "ADVISORY"
)

// Portfolio bundles the run-level state the guardrail chain checks
// against, sourced once per run rather than per symbol.
type Portfolio struct {
	ExposurePct           float64
	MaxSymbolPct          float64
	ClusterRiskLevel      ClusterRisk
	RegimeState           RegimeState
	PositionsNearITM      int
}

// Candidate is one symbol's pre-guardrail suggestion, the output of the
// capital sizing hint.
type Candidate struct {
	Mode              eligibility.Mode
	SuggestedContracts int
}

// Outcome is the result of applying the full guardrail chain to one
// candidate: the adjusted contract count, which rules fired, and any
// advisories or severity override for the run.
type Outcome struct {
	AdjustedContracts int
	AppliedRules      []string
	Advisories        []string
	SeverityOverride  Severity
}

// Apply runs the ordered rule chain against one candidate. It never
// mutates its inputs and never returns a negative contract count.
func Apply(cfg config.GuardrailsConfig, portfolio Portfolio, candidate Candidate) Outcome {
	out := Outcome{AdjustedContracts: candidate.SuggestedContracts}

	// Rule 1: exposure.
	if portfolio.ExposurePct >= cfg.CriticalExposurePct {
		out.AdjustedContracts = 0
		out.AppliedRules = append(out.AppliedRules, "exposure_critical_zero")
		out.SeverityOverride = SeverityAdvisory
		out.Advisories = append(out.Advisories, "portfolio exposure at or above critical threshold")
	} else if portfolio.ExposurePct >= cfg.TargetMaxExposurePct {
		out.AdjustedContracts = floorMul(out.AdjustedContracts, 0.5)
		out.AppliedRules = append(out.AppliedRules, "exposure_target_half")
	}

	// Rule 2: symbol concentration.
	if portfolio.MaxSymbolPct >= cfg.CriticalSymbolConcentrationPct {
		out.AppliedRules = append(out.AppliedRules, "symbol_concentration_critical")
		out.SeverityOverride = SeverityAdvisory
		out.Advisories = append(out.Advisories, "symbol concentration at or above critical threshold")
	} else if portfolio.MaxSymbolPct >= cfg.MaxSymbolConcentrationPct {
		out.AdjustedContracts = floorMul(out.AdjustedContracts, 0.75)
		out.AppliedRules = append(out.AppliedRules, "symbol_concentration_warn_075")
	}

	// Rule 3: cluster risk.
	if portfolio.ClusterRiskLevel == ClusterHigh {
		out.AdjustedContracts = floorMul(out.AdjustedContracts, 0.70)
		out.AppliedRules = append(out.AppliedRules, "cluster_risk_high_070")
	}

	// Rule 4: regime.
	switch portfolio.RegimeState {
	case RegimeCrash:
		out.AdjustedContracts = 0
		out.AppliedRules = append(out.AppliedRules, "regime_crash_zero")
		out.SeverityOverride = SeverityAdvisory
		out.Advisories = append(out.Advisories, "portfolio-wide regime is CRASH")
	case RegimeDown:
		if candidate.Mode == eligibility.ModeCSP {
			out.AdjustedContracts = floorMul(out.AdjustedContracts, 0.75)
			out.AppliedRules = append(out.AppliedRules, "regime_down_csp_075")
		}
	}

	// Rule 5: assignment pressure.
	if portfolio.PositionsNearITM >= cfg.AssignmentPressureThreshold {
		out.AdjustedContracts = floorMul(out.AdjustedContracts, 0.60)
		out.AppliedRules = append(out.AppliedRules, "assignment_pressure_060")
	}

	if out.AdjustedContracts < 0 {
		out.AdjustedContracts = 0
	}

	return out
}

// floorMul multiplies n by factor and floors the result, never going
// below zero.
func floorMul(n int, factor float64) int {
	if n <= 0 {
		return 0
	}
	result := int(math.Floor(float64(n) * factor))
	if result < 0 {
		return 0
	}
	return result
}
