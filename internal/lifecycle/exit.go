package lifecycle

import (
	"time"

	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/quality"
)

// ExitInputs carries everything the exit ladder needs to evaluate one open
// position, independent of how that data was sourced. Bid and Ask come in
// wrapped as quality.Field so a MISSING or ERROR quote is distinguishable
// from a legitimate zero, which is what the data-missing policy keys off.
type ExitInputs struct {
	Position           *model.Position
	Bid                quality.Field[float64]
	Ask                quality.Field[float64]
	EntryPremium       float64 // premium originally collected; <= 0 is treated as missing
	PremiumCapturedPct float64 // (premium received - cost to close) / premium received
	DTE                int
	StructureTier      int // 0 = no structural signal, 1 = T1, 2 = T2
	PanicTriggered     bool
	RegimeFavorable    bool
	SoftRollDTE        int
	HardExitDTE        int
}

func (in ExitInputs) dataMissing() bool {
	return in.Bid.Quality != quality.Valid || in.Ask.Quality != quality.Valid || in.EntryPremium <= 0
}

// Evaluate walks the exit ladder in strict priority order — panic first,
// ride-or-take-profit last — and returns the winning signal, its action
// category and exit priority, plus every signal that fired along the way
// for diagnostics. Never mutates in.Position.
func Evaluate(in ExitInputs, now time.Time) model.ExitPlan {
	plan := model.ExitPlan{
		PositionID:  in.Position.ID,
		Symbol:      in.Position.Symbol,
		EvaluatedAt: now,
	}

	if in.dataMissing() {
		plan.Signal = model.ExitDataMissing
		plan.Action = model.ActionHoldPosition
		plan.RiskFlag = true
		plan.Reason = "required bid/ask or entry premium is missing"
		return plan
	}

	captured := in.PremiumCapturedPct
	plan.PremiumCapturedPct = &captured

	hitT1 := in.StructureTier >= 1
	hitT2 := in.StructureTier >= 2

	type rung struct {
		fired    bool
		signal   model.ExitSignal
		action   model.ExitActionCategory
		priority model.ExitPriority
		reason   string
	}

	ladder := []rung{
		{
			fired: in.PanicTriggered, signal: model.ExitPanic,
			action: model.ActionExitNow, priority: model.PriorityPanic,
			reason: "panic condition triggered",
		},
		{
			fired: in.DTE <= in.HardExitDTE, signal: model.ExitDTEHard,
			action: model.ActionExitNow, priority: priorityIf(in.DTE <= 3, model.PriorityExpiryCritical),
			reason: "DTE at or below hard exit threshold",
		},
		{
			fired: captured >= 0.75, signal: model.ExitPremiumCapture75,
			action: model.ActionExitNow, priority: priorityIf(in.DTE > 3, model.PriorityFastCapture),
			reason: "75% of premium captured",
		},
		{
			fired: hitT2, signal: model.ExitStructureT2,
			action: model.ActionExitNow,
			reason: "spot moved past the structural T2 target",
		},
		{
			fired: in.DTE <= in.SoftRollDTE, signal: model.ExitDTESoftRoll,
			action: model.ActionRollSuggested, priority: model.PriorityAdvisory,
			reason: "DTE at or below soft roll threshold",
		},
		{
			fired: hitT1 && captured >= 0.50, signal: model.ExitStructureT1P50,
			action: model.ActionTakeProfit, priority: model.PriorityAdvisory,
			reason: "structural T1 target hit with 50% premium captured",
		},
	}

	for _, r := range ladder {
		if r.fired {
			plan.Fired = append(plan.Fired, r.signal)
		}
	}

	// Rule 7 is split across two outcomes on the same trigger, so it's
	// evaluated separately rather than as a rung of the ladder above (its
	// signal is still appended to Fired): HOLD when not at T2 and the
	// regime still favors riding,
	// TAKE_PROFIT otherwise.
	rule7Fires := captured >= 0.60
	var rule7Signal model.ExitSignal
	var rule7Action model.ExitActionCategory
	var rule7Reason string
	if rule7Fires {
		if !hitT2 && in.RegimeFavorable {
			rule7Signal, rule7Action = model.ExitRideZone60, model.ActionHoldPosition
			rule7Reason = "60% of premium captured, regime still favorable to ride"
		} else {
			rule7Signal, rule7Action = model.ExitPremium60TakeProfit, model.ActionTakeProfit
			rule7Reason = "60% of premium captured, taking profit"
		}
		plan.Fired = append(plan.Fired, rule7Signal)
	}

	for _, r := range ladder {
		if r.fired {
			plan.Signal = r.signal
			plan.Action = r.action
			plan.Priority = r.priority
			plan.Reason = r.reason
			return plan
		}
	}

	if rule7Fires {
		plan.Signal = rule7Signal
		plan.Action = rule7Action
		plan.Reason = rule7Reason
		return plan
	}

	plan.Signal = model.ExitNone
	plan.Action = model.ActionHoldPosition
	plan.Reason = "no exit condition met"
	return plan
}

func priorityIf(cond bool, p model.ExitPriority) model.ExitPriority {
	if cond {
		return p
	}
	return ""
}
