package model

import "time"

// Stage1Result is the outcome of the required-field gate for one symbol:
// either it advances to contract selection, or it's rejected with the
// named missing/errored fields attached for diagnostics.
type Stage1Result struct {
	Symbol    string
	Passed    bool
	Missing   []string // field names that failed the required-field gate
	Snapshot  *SymbolSnapshot
	EvaluatedAt time.Time
}

// GateReason is one gate's evidence row (pass/fail plus the metrics that
// drove the decision), attached to EligibilityTrace for diagnostics.
type GateReason struct {
	Name    string
	Passed  bool
	Message string
	Metrics map[string]float64
}

// EligibilityTrace is the full record of every gate evaluated for a
// symbol/strategy pair, win or lose, so a rejected symbol's "why" is
// always reconstructable from the artifact alone.
type EligibilityTrace struct {
	Symbol   string
	Strategy string // "CSP" | "CC"
	Gates    []GateReason
	Eligible bool
}

// RejectionTally buckets why a symbol's option chain produced zero
// candidate contracts, for the run-level summary.
type RejectionTally struct {
	ByDelta         int
	ByOpenInterest  int
	BySpread        int
	ByMissingFields int
	// ByOptionType counts contracts discarded because they're the
	// opposite type for the mode being evaluated (e.g. a CALL seen
	// during a CSP run) — expected on every real chain, not an error.
	ByOptionType int
}

// Stage2Result is the outcome of contract selection for one symbol: how
// many expirations/contracts were looked at, the winning candidate if
// any, and enough diagnostic detail to explain a zero-candidate outcome
// without re-running the selector.
type Stage2Result struct {
	Symbol                 string
	Strategy               string
	ExpirationsAvailable   int
	ExpirationsEvaluated   int
	ContractsEvaluated     int
	OptionTypeCounts       map[string]int
	Selected               *SelectedContract
	SelectedCandidates     []SelectedContract
	Trace                  EligibilityTrace
	Rejected               RejectionTally
	LiquidityOK            bool
	LiquidityReason        string
	ChainMissingFields     []string
	RequiredFieldsPresent  bool
	ContractDataAvailable  bool
	ChainSourceUsed        string // "LIVE" | "DELAYED" | "NONE"
}
