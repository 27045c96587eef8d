// Package lifecycle implements the position state machine and the exit
// evaluator. The state machine's transition table is data, not
// conditionals: a map of (from, action) -> to, no implicit fallthrough.
// CLOSED is terminal; any (from, action) pair not in the table is invalid.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/wheelerr"
)

type transitionKey struct {
	From   model.PositionState
	Action model.PositionAction
}

// transitions is the complete, explicit table of legal moves. Any
// (from, action) pair not present here is invalid — there is no default
// case, and CLOSED has no outgoing entries at all.
var transitions = map[transitionKey]model.PositionState{
	{model.StateNew, model.ActionAssign}:      model.StateAssigned,
	{model.StateAssigned, model.ActionOpen}:   model.StateOpen,
	{model.StateOpen, model.ActionHold}:       model.StateOpen,
	{model.StateOpen, model.ActionRoll}:       model.StateRolling,
	{model.StateRolling, model.ActionOpen}:    model.StateOpen,
	{model.StateOpen, model.ActionClose}:      model.StateClosing,
	{model.StateClosing, model.ActionClose}:   model.StateClosed,
}

// Apply advances pos through one transition, appending to its state
// history, or returns an InvalidTransitionError if the (state, action)
// pair isn't in the table. pos is not mutated on error. correlationID is
// carried onto the error so the caller can log it without re-deriving
// context; reason and source describe why the transition happened and
// what triggered it (e.g. "assignment_notice", "operator").
func Apply(pos *model.Position, action model.PositionAction, reason, source, correlationID string, at time.Time) error {
	to, ok := transitions[transitionKey{pos.State, action}]
	if !ok {
		return &wheelerr.InvalidTransitionError{
			From:          string(pos.State),
			Action:        string(action),
			CorrelationID: correlationID,
		}
	}

	pos.StateHistory = append(pos.StateHistory, model.TransitionRecord{
		From:   pos.State,
		To:     to,
		Action: action,
		Reason: reason,
		Source: source,
		At:     at,
	})
	pos.State = to
	return nil
}

// CanApply reports whether action is legal from the position's current
// state, without mutating it.
func CanApply(pos *model.Position, action model.PositionAction) bool {
	_, ok := transitions[transitionKey{pos.State, action}]
	return ok
}

func (k transitionKey) String() string {
	return fmt.Sprintf("%s+%s", k.From, k.Action)
}
