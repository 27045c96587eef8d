package lifecycle

import (
	"testing"
	"time"

	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuote(v float64) quality.Field[float64] {
	return quality.Field[float64]{Value: &v, Quality: quality.Valid}
}

func TestEvaluate_PanicTakesPrecedenceOverEverything(t *testing.T) {
	in := ExitInputs{
		Position:           &model.Position{ID: "p1", Symbol: "AAPL"},
		Bid:                validQuote(1.0),
		Ask:                validQuote(1.1),
		EntryPremium:       2.0,
		DTE:                1,
		HardExitDTE:        3,
		PremiumCapturedPct: 0.9,
		PanicTriggered:     true,
	}
	plan := Evaluate(in, time.Now())
	assert.Equal(t, model.ExitPanic, plan.Signal)
	assert.Equal(t, model.ActionExitNow, plan.Action)
	assert.Equal(t, model.PriorityPanic, plan.Priority)
	assert.Len(t, plan.Fired, 4) // panic, dte-hard, premium-75, premium-60 take-profit
}

func TestEvaluate_NoSignalsFire_HOLD(t *testing.T) {
	in := ExitInputs{
		Position:     &model.Position{ID: "p1", Symbol: "AAPL"},
		Bid:          validQuote(1.0),
		Ask:          validQuote(1.1),
		EntryPremium: 2.0,
		DTE:          20,
		HardExitDTE:  3,
		SoftRollDTE:  7,
	}
	plan := Evaluate(in, time.Now())
	assert.Equal(t, model.ExitNone, plan.Signal)
	assert.Equal(t, model.ActionHoldPosition, plan.Action)
	assert.Empty(t, plan.Fired)
}

func TestEvaluate_StructureT1WithPartialPremium(t *testing.T) {
	in := ExitInputs{
		Position:           &model.Position{ID: "p1", Symbol: "AAPL"},
		Bid:                validQuote(1.0),
		Ask:                validQuote(1.1),
		EntryPremium:       2.0,
		DTE:                20,
		HardExitDTE:        3,
		SoftRollDTE:        7,
		StructureTier:      1,
		PremiumCapturedPct: 0.55,
	}
	plan := Evaluate(in, time.Now())
	assert.Equal(t, model.ExitStructureT1P50, plan.Signal)
	assert.Equal(t, model.ActionTakeProfit, plan.Action)
	assert.Equal(t, model.PriorityAdvisory, plan.Priority)
}

func TestEvaluate_HardExitWithinThreeDTEIsExpiryCritical(t *testing.T) {
	in := ExitInputs{
		Position:     &model.Position{ID: "p1", Symbol: "AAPL"},
		Bid:          validQuote(1.0),
		Ask:          validQuote(1.1),
		EntryPremium: 2.0,
		DTE:          2,
		HardExitDTE:  7,
	}
	plan := Evaluate(in, time.Now())
	assert.Equal(t, model.ExitDTEHard, plan.Signal)
	assert.Equal(t, model.PriorityExpiryCritical, plan.Priority)
}

func TestEvaluate_PremiumCapture75BeyondThreeDTEIsFastCapture(t *testing.T) {
	in := ExitInputs{
		Position:           &model.Position{ID: "p1", Symbol: "AAPL"},
		Bid:                validQuote(1.0),
		Ask:                validQuote(1.1),
		EntryPremium:       2.0,
		DTE:                20,
		HardExitDTE:        7,
		PremiumCapturedPct: 0.8,
	}
	plan := Evaluate(in, time.Now())
	assert.Equal(t, model.ExitPremiumCapture75, plan.Signal)
	assert.Equal(t, model.PriorityFastCapture, plan.Priority)
}

func TestEvaluate_RideZoneWhenRegimeFavorableAndNotAtT2(t *testing.T) {
	in := ExitInputs{
		Position:           &model.Position{ID: "p1", Symbol: "AAPL"},
		Bid:                validQuote(1.0),
		Ask:                validQuote(1.1),
		EntryPremium:       2.0,
		DTE:                20,
		HardExitDTE:        7,
		SoftRollDTE:        14,
		PremiumCapturedPct: 0.65,
		RegimeFavorable:    true,
	}
	plan := Evaluate(in, time.Now())
	assert.Equal(t, model.ExitRideZone60, plan.Signal)
	assert.Equal(t, model.ActionHoldPosition, plan.Action)
}

func TestEvaluate_TakeProfitAt60WhenRegimeUnfavorable(t *testing.T) {
	in := ExitInputs{
		Position:           &model.Position{ID: "p1", Symbol: "AAPL"},
		Bid:                validQuote(1.0),
		Ask:                validQuote(1.1),
		EntryPremium:       2.0,
		DTE:                20,
		HardExitDTE:        7,
		SoftRollDTE:        14,
		PremiumCapturedPct: 0.65,
		RegimeFavorable:    false,
	}
	plan := Evaluate(in, time.Now())
	assert.Equal(t, model.ExitPremium60TakeProfit, plan.Signal)
	assert.Equal(t, model.ActionTakeProfit, plan.Action)
}

func TestEvaluate_MissingAskForcesHoldAndRiskFlag(t *testing.T) {
	in := ExitInputs{
		Position:           &model.Position{ID: "p1", Symbol: "AAPL"},
		Bid:                validQuote(1.0),
		Ask:                quality.Field[float64]{Quality: quality.Missing, Reason: "ask not provided by source"},
		EntryPremium:       2.0,
		DTE:                1,
		HardExitDTE:        7,
		PanicTriggered:     true, // even panic yields to the data-missing policy
		PremiumCapturedPct: 0.9,
	}
	plan := Evaluate(in, time.Now())
	assert.Equal(t, model.ExitDataMissing, plan.Signal)
	assert.Equal(t, model.ActionHoldPosition, plan.Action)
	assert.True(t, plan.RiskFlag)
	require.Nil(t, plan.PremiumCapturedPct)
}

func TestEvaluate_NonPositiveEntryPremiumForcesDataMissing(t *testing.T) {
	in := ExitInputs{
		Position:     &model.Position{ID: "p1", Symbol: "AAPL"},
		Bid:          validQuote(1.0),
		Ask:          validQuote(1.1),
		EntryPremium: 0,
		DTE:          20,
		HardExitDTE:  7,
	}
	plan := Evaluate(in, time.Now())
	assert.Equal(t, model.ExitDataMissing, plan.Signal)
	assert.True(t, plan.RiskFlag)
}
