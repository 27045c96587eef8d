package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/model"
)

func testCfg() config.ScoringConfig {
	cfg := config.ScoringConfig{
		Weights: map[string]float64{
			DataQuality:       0.15,
			RegimeComponent:   0.25,
			OptionsLiquidity:  0.20,
			StrategyFit:       0.25,
			CapitalEfficiency: 0.15,
		},
	}
	cfg.BandThresholds.A = 85
	cfg.BandThresholds.B = 70
	cfg.BandThresholds.C = 55
	return cfg
}

func TestScore_FullyPresentComponentsSumToWeightedComposite(t *testing.T) {
	in := Inputs{
		Symbol:           "AAPL",
		DataCompleteness: 1.0,
		DataQualityScore: 100, DataQualityOK: true,
		RegimeScore: 100, RegimeOK: true, RegimeFavorable: true,
		LiquidityScore: 100, LiquidityOK: true, LiquidityGateOK: true,
		StrategyFitScore: 100, StrategyFitOK: true,
		CapitalEffScore: 100, CapitalEffOK: true,
	}
	out, err := Score(testCfg(), in)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, out.Composite, 1e-9)
	assert.Equal(t, model.BandA, out.Band)
}

func TestScore_MissingComponentDroppedNotRenormalized(t *testing.T) {
	in := Inputs{
		Symbol:           "AAPL",
		DataCompleteness: 0.8,
		DataQualityScore: 100, DataQualityOK: true,
		RegimeScore: 0, RegimeOK: false,
		LiquidityScore: 100, LiquidityOK: true, LiquidityGateOK: true,
		StrategyFitScore: 100, StrategyFitOK: true,
		CapitalEffScore: 100, CapitalEffOK: true,
	}
	out, err := Score(testCfg(), in)
	require.NoError(t, err)
	// regime's 0.25 weight contributes 0 rather than being redistributed.
	assert.InDelta(t, 75.0, out.Composite, 1e-9)
}

func TestScore_AllComponentsMissingYieldsZeroComposite(t *testing.T) {
	out, err := Score(testCfg(), Inputs{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Zero(t, out.Composite)
	assert.Equal(t, model.BandD, out.Band)
}

func TestBand_RequiresFavorableRegimeAndHighCompletenessForA(t *testing.T) {
	cfg := testCfg()
	in := Inputs{DataCompleteness: 0.95, LiquidityGateOK: true, RegimeFavorable: false}
	band, reason := Band(cfg, in, 90)
	assert.Equal(t, model.BandB, band)
	assert.NotEmpty(t, reason)
}

func TestBand_FallsThroughToBWhenRegimeNotFavorable(t *testing.T) {
	cfg := testCfg()
	in := Inputs{DataCompleteness: 0.92, RegimeFavorable: false}
	band, _ := Band(cfg, in, 75)
	assert.Equal(t, model.BandB, band)
}

func TestBand_DNamesDataCompletenessWhenThatIsTheBlocker(t *testing.T) {
	cfg := testCfg()
	in := Inputs{DataCompleteness: 0.5}
	_, reason := Band(cfg, in, 90)
	assert.Contains(t, reason, "data_completeness")
}

func TestBand_DNamesScoreWhenCompletenessIsFineButScoreIsLow(t *testing.T) {
	cfg := testCfg()
	in := Inputs{DataCompleteness: 0.95}
	_, reason := Band(cfg, in, 10)
	assert.Contains(t, reason, "score")
}

func TestWeightOf_FallsBackToDefaultWhenUnconfigured(t *testing.T) {
	cfg := config.ScoringConfig{}
	assert.Equal(t, 0.25, weightOf(cfg, RegimeComponent))
}

func TestValidate_RejectsNaNAndInf(t *testing.T) {
	assert.Error(t, validate(math.NaN()))
	assert.Error(t, validate(math.Inf(1)))
	assert.NoError(t, validate(50.0))
}
