// Package recommend folds a run's DecisionArtifact and open positions'
// exit plans into a single, deterministic "what should I do now"
// recommendation, using Go's explicit-struct idiom throughout.
package recommend

import (
	"fmt"
	"sort"

	"github.com/optionwheel/engine/internal/model"
)

// Priority is the urgency tier of a recommendation.
type Priority string

const (
	PriorityNow     Priority = "NOW"
	PrioritySoon    Priority = "SOON"
	PriorityMonitor Priority = "MONITOR"
	PriorityNothing Priority = "NOTHING"
)

// Action is the recommended operator action.
type Action string

const (
	ActionClose Action = "CLOSE"
	ActionRoll  Action = "ROLL"
	ActionHold  Action = "HOLD"
	ActionAlert Action = "ALERT"
)

// Confidence names how sure the recommendation is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Recommendation is the single, prioritized "do this next" output.
type Recommendation struct {
	Priority          Priority
	Symbol            string
	Action            Action
	Confidence        Confidence
	Reason            string
	NextCheckMinutes  int
}

// Candidate is one exit plan translated into recommendation inputs,
// independent of how the exit plan was sourced (lifecycle.Evaluate).
type Candidate struct {
	Symbol     string
	Action     Action
	Confidence Confidence
	ExpiryRank int // lower = nearer expiry; used only as a tie-break
}

// FromExitSignal maps a model.ExitSignal to the recommendation action/
// confidence pair this package reasons over.
func FromExitSignal(signal model.ExitSignal) (Action, Confidence) {
	switch signal {
	case model.ExitPanic, model.ExitDTEHard, model.ExitPremiumCapture75, model.ExitStructureT2:
		return ActionClose, ConfidenceHigh
	case model.ExitDTESoftRoll:
		return ActionRoll, ConfidenceMedium
	case model.ExitStructureT1P50, model.ExitPremium60TakeProfit, model.ExitRideZone60:
		return ActionHold, ConfidenceMedium
	case model.ExitDataMissing:
		return ActionAlert, ConfidenceLow
	default:
		return ActionHold, ConfidenceLow
	}
}

// Generate is the deterministic, stateless recommendation function:
// given every open position's current candidate action, produce the
// single highest-priority recommendation. Never mutates its input, never
// touches storage.
func Generate(candidates []Candidate) Recommendation {
	if len(candidates) == 0 {
		return Recommendation{
			Priority:         PriorityNothing,
			Reason:           "No open positions to evaluate. System is idle.",
			NextCheckMinutes: 60,
		}
	}

	var now, soon, monitor []Candidate
	for _, c := range candidates {
		switch {
		case (c.Action == ActionClose || c.Action == ActionRoll) && c.Confidence == ConfidenceHigh:
			now = append(now, c)
		case (c.Action == ActionClose || c.Action == ActionRoll) && c.Confidence == ConfidenceMedium:
			soon = append(soon, c)
		case c.Action == ActionHold || c.Action == ActionAlert:
			monitor = append(monitor, c)
		}
	}

	switch {
	case len(now) > 0:
		best := selectBest(now)
		return Recommendation{
			Priority:         PriorityNow,
			Symbol:           best.Symbol,
			Action:           best.Action,
			Confidence:       best.Confidence,
			Reason:           fmt.Sprintf("Immediate action required: %s %s with HIGH confidence", best.Action, best.Symbol),
			NextCheckMinutes: 15,
		}
	case len(soon) > 0:
		best := selectBest(soon)
		return Recommendation{
			Priority:         PrioritySoon,
			Symbol:           best.Symbol,
			Action:           best.Action,
			Confidence:       best.Confidence,
			Reason:           fmt.Sprintf("Action recommended soon: %s %s with MEDIUM confidence", best.Action, best.Symbol),
			NextCheckMinutes: 30,
		}
	case len(monitor) > 0:
		best := selectBest(monitor)
		return Recommendation{
			Priority:         PriorityMonitor,
			Symbol:           best.Symbol,
			Action:           best.Action,
			Confidence:       best.Confidence,
			Reason:           fmt.Sprintf("Monitor: %s for %s", best.Action, best.Symbol),
			NextCheckMinutes: 60,
		}
	default:
		return Recommendation{
			Priority:         PriorityNothing,
			Reason:           "No actionable positions. All positions are stable.",
			NextCheckMinutes: 60,
		}
	}
}

// selectBest tie-breaks within one priority tier: higher confidence
// first, then nearest expiry, then input order.
func selectBest(candidates []Candidate) Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := confidenceRank(sorted[i].Confidence), confidenceRank(sorted[j].Confidence)
		if ri != rj {
			return ri > rj
		}
		return sorted[i].ExpiryRank < sorted[j].ExpiryRank
	})
	return sorted[0]
}

func confidenceRank(c Confidence) int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}
