// Package wheelerr defines the typed errors shared across the evaluation
// pipeline. Call sites wrap with fmt.Errorf("...: %w", err) rather than
// constructing ad-hoc strings, so callers can errors.Is/errors.As back to
// one of these sentinels regardless of how many layers wrapped it.
package wheelerr

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable means a data provider could not be reached at
	// all (network, auth, or persistent 5xx) within the configured retry
	// budget.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrFreezeBlocked means a LIVE run was blocked because the critical
	// config hash drifted from the last approved snapshot.
	ErrFreezeBlocked = errors.New("run blocked by freeze guard")

	// ErrInvalidTransition means a position lifecycle transition was
	// attempted that isn't present in the transition table.
	ErrInvalidTransition = errors.New("invalid position state transition")

	// ErrArtifactVersion means a decision artifact was read back with a
	// version other than the current one and cannot be trusted as-is.
	ErrArtifactVersion = errors.New("unsupported artifact version")

	// ErrDeadlineExceeded means the run-level deadline elapsed before every
	// symbol finished evaluating; the artifact produced is partial.
	ErrDeadlineExceeded = errors.New("run deadline exceeded")

	// ErrDataIncomplete means a required field was missing at the point a
	// component needed it and no fallback was configured.
	ErrDataIncomplete = errors.New("required data incomplete")

	// ErrDataStale means a required field was present but older than its
	// configured staleness threshold. Non-fatal by itself; callers decide
	// whether staleness blocks the run.
	ErrDataStale = errors.New("required data stale")

	// ErrModeConflict means contract selection was attempted in a mode the
	// symbol isn't eligible for (e.g. covered-call selection without a
	// qualifying holding).
	ErrModeConflict = errors.New("strategy mode conflict")

	// ErrLiquidityFail means every candidate contract failed the
	// liquidity gates (open interest, volume, spread).
	ErrLiquidityFail = errors.New("no contract passed liquidity gates")

	// ErrChainUnavailable means no option chain could be retrieved for a
	// symbol at all, distinct from a chain that was retrieved but empty
	// after filtering.
	ErrChainUnavailable = errors.New("option chain unavailable")

	// ErrFreezeViolation means a config field marked critical by the
	// freeze guard changed without an explicit re-approval.
	ErrFreezeViolation = errors.New("freeze-guarded config changed without approval")

	// ErrBudgetExceeded means a provider's request budget for the run was
	// exhausted before every symbol could be fetched.
	ErrBudgetExceeded = errors.New("provider request budget exceeded")
)

// InvalidTransitionError carries the specific (from, action) pair that had
// no entry in the transition table, for a caller that wants more than
// errors.Is(err, ErrInvalidTransition).
type InvalidTransitionError struct {
	From          string
	Action        string
	CorrelationID string
}

func (e *InvalidTransitionError) Error() string {
	if e.CorrelationID == "" {
		return fmt.Sprintf("wheelerr: no transition for state %q on action %q", e.From, e.Action)
	}
	return fmt.Sprintf("wheelerr: no transition for state %q on action %q (correlation_id=%s)", e.From, e.Action, e.CorrelationID)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ProviderError wraps a failure from a specific named provider endpoint,
// tracking whether it's worth retrying.
type ProviderError struct {
	Provider  string
	Endpoint  string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("wheelerr: %s/%s: %v", e.Provider, e.Endpoint, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// DataIncompleteError names the specific fields missing for a symbol when
// a component required them and no fallback applied.
type DataIncompleteError struct {
	Symbol string
	Fields []string
}

func (e *DataIncompleteError) Error() string {
	return fmt.Sprintf("wheelerr: %s missing required fields %v", e.Symbol, e.Fields)
}

func (e *DataIncompleteError) Unwrap() error { return ErrDataIncomplete }

// DataStaleWarning names the specific fields that aged past their
// staleness threshold for a symbol. Carried as a warning, not necessarily
// fatal to the run.
type DataStaleWarning struct {
	Symbol string
	Fields []string
}

func (e *DataStaleWarning) Error() string {
	return fmt.Sprintf("wheelerr: %s has stale fields %v", e.Symbol, e.Fields)
}

func (e *DataStaleWarning) Unwrap() error { return ErrDataStale }

// ModeConflictError carries the symbol and the mode that was rejected.
type ModeConflictError struct {
	Symbol string
	Mode   string
	Reason string
}

func (e *ModeConflictError) Error() string {
	return fmt.Sprintf("wheelerr: %s not eligible for mode %s: %s", e.Symbol, e.Mode, e.Reason)
}

func (e *ModeConflictError) Unwrap() error { return ErrModeConflict }

// LiquidityFailError carries how many candidates were rejected and the
// dominant rejection reason, for operator-facing diagnostics.
type LiquidityFailError struct {
	Symbol          string
	RejectedCount   int
	DominantReason  string
}

func (e *LiquidityFailError) Error() string {
	return fmt.Sprintf("wheelerr: %s: %d candidates rejected, dominant reason %s", e.Symbol, e.RejectedCount, e.DominantReason)
}

func (e *LiquidityFailError) Unwrap() error { return ErrLiquidityFail }

// ChainUnavailableError names the symbol and provider endpoint that
// failed to return a chain at all.
type ChainUnavailableError struct {
	Symbol   string
	Provider string
}

func (e *ChainUnavailableError) Error() string {
	return fmt.Sprintf("wheelerr: %s: no chain available from %s", e.Symbol, e.Provider)
}

func (e *ChainUnavailableError) Unwrap() error { return ErrChainUnavailable }

// FreezeViolationError carries the specific fields whose hash drifted
// from the last approved freeze snapshot.
type FreezeViolationError struct {
	ChangedFields []string
}

func (e *FreezeViolationError) Error() string {
	return fmt.Sprintf("wheelerr: freeze-guarded fields changed: %v", e.ChangedFields)
}

func (e *FreezeViolationError) Unwrap() error { return ErrFreezeViolation }

// BudgetExceededWarning names the provider whose request budget ran out
// and how many symbols were left unfetched as a result.
type BudgetExceededWarning struct {
	Provider     string
	SymbolsLeft  int
}

func (e *BudgetExceededWarning) Error() string {
	return fmt.Sprintf("wheelerr: %s budget exceeded with %d symbols unfetched", e.Provider, e.SymbolsLeft)
}

func (e *BudgetExceededWarning) Unwrap() error { return ErrBudgetExceeded }

// DeadlineExceededWarning names how many of the total symbols were left
// unevaluated when the run-level deadline elapsed.
type DeadlineExceededWarning struct {
	TotalSymbols     int
	EvaluatedSymbols int
}

func (e *DeadlineExceededWarning) Error() string {
	return fmt.Sprintf("wheelerr: deadline exceeded, evaluated %d/%d symbols", e.EvaluatedSymbols, e.TotalSymbols)
}

func (e *DeadlineExceededWarning) Unwrap() error { return ErrDeadlineExceeded }
