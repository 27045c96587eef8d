// Package scoring implements the weighted composite score and confidence
// band assignment, following a weighted-component-sum shape with a
// guard against NaN/Inf/misconfigured weights. The five score
// components are independent, so no orthogonalization step is needed;
// the structure is component-then-weight-then-sum-then-validate.
package scoring

import (
	"fmt"
	"math"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/model"
)

// Components names the five score components the composite sums.
const (
	DataQuality       = "data_quality"
	RegimeComponent   = "regime"
	OptionsLiquidity  = "options_liquidity"
	StrategyFit       = "strategy_fit"
	CapitalEfficiency = "capital_efficiency"
)

// Inputs bundles the already-computed 0-100 component values for one
// symbol. A component with Present=false contributes 0 to the composite
// and is dropped rather than renormalized: a partially-missing score
// must never be inflated to look complete.
type Inputs struct {
	Symbol            string
	DataCompleteness  float64 // 0-1
	DataQualityScore  float64
	DataQualityOK     bool
	RegimeScore       float64
	RegimeOK          bool
	RegimeFavorable   bool // regime == RISK_ON equivalent, for band A
	LiquidityScore    float64
	LiquidityOK       bool
	LiquidityGateOK   bool // Stage-2 liquidity_ok, distinct from the score
	StrategyFitScore  float64
	StrategyFitOK     bool
	CapitalEffScore   float64
	CapitalEffOK      bool
}

// Score computes the weighted composite and assigns a band, returning the
// full breakdown for artifact inclusion.
func Score(cfg config.ScoringConfig, in Inputs) (model.ScoreBreakdown, error) {
	components := []model.ScoreComponent{
		{Name: DataQuality, Weight: weightOf(cfg, DataQuality), Value: in.DataQualityScore, Present: in.DataQualityOK},
		{Name: RegimeComponent, Weight: weightOf(cfg, RegimeComponent), Value: in.RegimeScore, Present: in.RegimeOK},
		{Name: OptionsLiquidity, Weight: weightOf(cfg, OptionsLiquidity), Value: in.LiquidityScore, Present: in.LiquidityOK},
		{Name: StrategyFit, Weight: weightOf(cfg, StrategyFit), Value: in.StrategyFitScore, Present: in.StrategyFitOK},
		{Name: CapitalEfficiency, Weight: weightOf(cfg, CapitalEfficiency), Value: in.CapitalEffScore, Present: in.CapitalEffOK},
	}

	composite := 0.0
	for _, c := range components {
		if !c.Present {
			continue
		}
		composite += c.Weight * c.Value
	}

	if err := validate(composite); err != nil {
		return model.ScoreBreakdown{}, fmt.Errorf("scoring: %s: %w", in.Symbol, err)
	}

	band, reason := Band(cfg, in, composite)

	return model.ScoreBreakdown{
		Symbol:     in.Symbol,
		Components: components,
		Composite:  composite,
		Band:       band,
		BandReason: reason,
	}, nil
}

func weightOf(cfg config.ScoringConfig, name string) float64 {
	if cfg.Weights == nil {
		return defaultWeight(name)
	}
	if w, ok := cfg.Weights[name]; ok {
		return w
	}
	return defaultWeight(name)
}

func defaultWeight(name string) float64 {
	switch name {
	case DataQuality:
		return 0.15
	case RegimeComponent:
		return 0.25
	case OptionsLiquidity:
		return 0.20
	case StrategyFit:
		return 0.25
	case CapitalEfficiency:
		return 0.15
	default:
		return 0
	}
}

// validate rejects NaN/Inf composite scores before they ever reach a band
// decision or an artifact.
func validate(composite float64) error {
	if math.IsNaN(composite) || math.IsInf(composite, 0) {
		return fmt.Errorf("composite score is NaN or Inf")
	}
	return nil
}

// Band assigns the A/B/C/D confidence band, with a non-empty,
// human-readable reason naming the specific failing precondition that
// kept the symbol out of the next band up. D is always reachable —
// every symbol gets a band.
func Band(cfg config.ScoringConfig, in Inputs, composite float64) (model.ConfidenceBand, string) {
	aThreshold := cfg.BandThresholds.A
	bThreshold := cfg.BandThresholds.B
	cThreshold := cfg.BandThresholds.C

	if in.RegimeFavorable && in.DataCompleteness >= 0.95 && in.LiquidityGateOK && composite >= aThreshold {
		return model.BandA, fmt.Sprintf("Band A: regime favorable, data_completeness %.2f >= 0.95, liquidity ok, score %.1f >= %.1f", in.DataCompleteness, composite, aThreshold)
	}

	if in.DataCompleteness >= 0.90 && composite >= bThreshold {
		return model.BandB, fmt.Sprintf("Band B: data_completeness %.2f >= 0.90 and score %.1f >= %.1f", in.DataCompleteness, composite, bThreshold)
	}

	if in.DataCompleteness >= 0.75 && composite >= cThreshold {
		return model.BandC, fmt.Sprintf("Band C: data_completeness %.2f >= 0.75 and score %.1f >= %.1f", in.DataCompleteness, composite, cThreshold)
	}

	reason := bandDFailureReason(in, composite, aThreshold, bThreshold, cThreshold)
	return model.BandD, reason
}

// bandDFailureReason names the specific precondition that most narrowly
// kept the symbol out of Band C (the next rung up from the floor), so the
// operator always sees one concrete, falsifiable cause rather than "low
// score".
func bandDFailureReason(in Inputs, composite, aThreshold, bThreshold, cThreshold float64) string {
	if in.DataCompleteness < 0.75 {
		return fmt.Sprintf("Band D: data_completeness %.2f < 0.75", in.DataCompleteness)
	}
	return fmt.Sprintf("Band D: score %.1f < %.1f", composite, cThreshold)
}
