package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/eligibility"
)

func testCfg() config.GuardrailsConfig {
	return config.GuardrailsConfig{
		TargetMaxExposurePct:           0.60,
		CriticalExposurePct:            0.85,
		MaxSymbolConcentrationPct:      0.15,
		CriticalSymbolConcentrationPct: 0.25,
		AssignmentPressureThreshold:    3,
	}
}

func TestApply_NoRulesFireOnCleanPortfolio(t *testing.T) {
	out := Apply(testCfg(), Portfolio{RegimeState: RegimeNormal, ClusterRiskLevel: ClusterLow}, Candidate{SuggestedContracts: 4})
	assert.Equal(t, 4, out.AdjustedContracts)
	assert.Empty(t, out.AppliedRules)
	assert.Equal(t, SeverityNone, out.SeverityOverride)
}

func TestApply_CriticalExposureZerosOut(t *testing.T) {
	out := Apply(testCfg(), Portfolio{ExposurePct: 0.90}, Candidate{SuggestedContracts: 4})
	assert.Zero(t, out.AdjustedContracts)
	assert.Contains(t, out.AppliedRules, "exposure_critical_zero")
	assert.Equal(t, SeverityAdvisory, out.SeverityOverride)
}

func TestApply_TargetExposureHalves(t *testing.T) {
	out := Apply(testCfg(), Portfolio{ExposurePct: 0.65}, Candidate{SuggestedContracts: 4})
	assert.Equal(t, 2, out.AdjustedContracts)
	assert.Contains(t, out.AppliedRules, "exposure_target_half")
}

func TestApply_RegimeCrashZerosOutRegardlessOfMode(t *testing.T) {
	out := Apply(testCfg(), Portfolio{RegimeState: RegimeCrash}, Candidate{Mode: eligibility.ModeCSP, SuggestedContracts: 10})
	assert.Zero(t, out.AdjustedContracts)
	assert.Contains(t, out.AppliedRules, "regime_crash_zero")
}

func TestApply_RegimeDownOnlyAffectsCSP(t *testing.T) {
	cspOut := Apply(testCfg(), Portfolio{RegimeState: RegimeDown}, Candidate{Mode: eligibility.ModeCSP, SuggestedContracts: 4})
	assert.Equal(t, 3, cspOut.AdjustedContracts)

	ccOut := Apply(testCfg(), Portfolio{RegimeState: RegimeDown}, Candidate{Mode: eligibility.ModeCC, SuggestedContracts: 4})
	assert.Equal(t, 4, ccOut.AdjustedContracts)
}

func TestApply_ClusterRiskHighAppliesMultiplier(t *testing.T) {
	out := Apply(testCfg(), Portfolio{ClusterRiskLevel: ClusterHigh}, Candidate{SuggestedContracts: 10})
	assert.Equal(t, 7, out.AdjustedContracts)
	assert.Contains(t, out.AppliedRules, "cluster_risk_high_070")
}

func TestApply_AssignmentPressureAppliesMultiplier(t *testing.T) {
	out := Apply(testCfg(), Portfolio{PositionsNearITM: 5}, Candidate{SuggestedContracts: 10})
	assert.Equal(t, 6, out.AdjustedContracts)
	assert.Contains(t, out.AppliedRules, "assignment_pressure_060")
}

func TestApply_RulesStackMultiplicatively(t *testing.T) {
	out := Apply(testCfg(), Portfolio{
		ExposurePct:      0.65,
		ClusterRiskLevel: ClusterHigh,
		PositionsNearITM: 5,
	}, Candidate{SuggestedContracts: 10})
	// 10 -> floor(10*0.5)=5 -> floor(5*0.70)=3 -> floor(3*0.60)=1
	assert.Equal(t, 1, out.AdjustedContracts)
}

func TestApply_NeverReturnsNegativeContracts(t *testing.T) {
	out := Apply(testCfg(), Portfolio{ExposurePct: 0.95}, Candidate{SuggestedContracts: -5})
	assert.Zero(t, out.AdjustedContracts)
}

func TestApply_SymbolConcentrationCriticalDoesNotZeroButFlagsAdvisory(t *testing.T) {
	out := Apply(testCfg(), Portfolio{MaxSymbolPct: 0.30}, Candidate{SuggestedContracts: 4})
	assert.Equal(t, 4, out.AdjustedContracts)
	assert.Equal(t, SeverityAdvisory, out.SeverityOverride)
	assert.Contains(t, out.AppliedRules, "symbol_concentration_critical")
}
