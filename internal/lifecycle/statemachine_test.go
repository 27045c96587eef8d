package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/wheelerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_ValidTransitionSequence(t *testing.T) {
	pos := &model.Position{State: model.StateNew}
	now := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, Apply(pos, model.ActionAssign, "assignment_notice", "provider", "corr-1", now))
	assert.Equal(t, model.StateAssigned, pos.State)

	require.NoError(t, Apply(pos, model.ActionOpen, "csp_written", "operator", "corr-1", now.AddDate(0, 0, 1)))
	assert.Equal(t, model.StateOpen, pos.State)

	require.NoError(t, Apply(pos, model.ActionHold, "no_exit_condition_met", "evaluator", "corr-1", now.AddDate(0, 0, 10)))
	assert.Equal(t, model.StateOpen, pos.State)

	require.NoError(t, Apply(pos, model.ActionRoll, "dte_soft_roll", "evaluator", "corr-1", now.AddDate(0, 0, 31)))
	assert.Equal(t, model.StateRolling, pos.State)

	require.NoError(t, Apply(pos, model.ActionOpen, "rolled_to_new_contract", "operator", "corr-1", now.AddDate(0, 0, 31)))
	assert.Equal(t, model.StateOpen, pos.State)

	require.NoError(t, Apply(pos, model.ActionClose, "premium_75_target", "evaluator", "corr-1", now.AddDate(0, 0, 40)))
	assert.Equal(t, model.StateClosing, pos.State)

	require.NoError(t, Apply(pos, model.ActionClose, "buy_to_close_filled", "operator", "corr-1", now.AddDate(0, 0, 40)))
	assert.Equal(t, model.StateClosed, pos.State)

	assert.Len(t, pos.StateHistory, 7)
}

func TestApply_InvalidTransition(t *testing.T) {
	pos := &model.Position{State: model.StateNew}
	err := Apply(pos, model.ActionOpen, "", "", "", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, wheelerr.ErrInvalidTransition))
	assert.Equal(t, model.StateNew, pos.State)
	assert.Empty(t, pos.StateHistory)
}

// A CLOSED position receiving ASSIGN has no entry in the table: CLOSED is
// terminal and must raise InvalidTransitionError without touching history.
func TestApply_ClosedPositionRejectsAssign(t *testing.T) {
	pos := &model.Position{State: model.StateClosed}
	err := Apply(pos, model.ActionAssign, "", "", "corr-2", time.Now())
	require.Error(t, err)

	var invalidErr *wheelerr.InvalidTransitionError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "CLOSED", invalidErr.From)
	assert.Equal(t, "ASSIGN", invalidErr.Action)
	assert.Equal(t, "corr-2", invalidErr.CorrelationID)

	assert.Equal(t, model.StateClosed, pos.State)
	assert.Empty(t, pos.StateHistory)
}

func TestCanApply(t *testing.T) {
	pos := &model.Position{State: model.StateOpen}
	assert.True(t, CanApply(pos, model.ActionRoll))
	assert.True(t, CanApply(pos, model.ActionHold))
	assert.False(t, CanApply(pos, model.ActionAssign))
}

func TestCanApply_ClosedHasNoLegalActions(t *testing.T) {
	pos := &model.Position{State: model.StateClosed}
	for _, action := range []model.PositionAction{model.ActionAssign, model.ActionOpen, model.ActionHold, model.ActionRoll, model.ActionClose} {
		assert.False(t, CanApply(pos, action), "action %s should not be legal from CLOSED", action)
	}
}
