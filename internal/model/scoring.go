package model

// ConfidenceBand is the human-facing A/B/C/D grade attached to every
// scored symbol. BandReason is mandatory and non-empty on every
// SymbolEvalSummary regardless of band.
type ConfidenceBand string

const (
	BandA ConfidenceBand = "A"
	BandB ConfidenceBand = "B"
	BandC ConfidenceBand = "C"
	BandD ConfidenceBand = "D"
)

// ScoreComponent is one weighted input into the composite score. Missing
// components are dropped from the weighted sum rather than renormalized —
// a partially-missing score is still comparable in rank, never inflated
// to look complete.
type ScoreComponent struct {
	Name    string
	Weight  float64
	Value   float64
	Present bool
}

// ScoreBreakdown is the full composite-score computation for one symbol,
// kept alongside the final score so the artifact shows its derivation.
type ScoreBreakdown struct {
	Symbol     string
	Components []ScoreComponent
	Composite  float64
	Band       ConfidenceBand
	BandReason string
}

// CapitalHint is the pre-guardrail suggested contract count and the
// capital it would consume, before portfolio guardrails are applied.
type CapitalHint struct {
	Symbol           string
	SuggestedQty     int
	CapitalRequired  float64
	MaxAffordableQty int
}
