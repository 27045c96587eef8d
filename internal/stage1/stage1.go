// Package stage1 implements the Stage-1 qualifier: the required-field gate
// that blocks a symbol before any option chain is ever fetched. It is a
// thin composition of the quality and data-dependencies checks — Stage-1 itself
// holds no thresholds of its own.
package stage1

import (
	"time"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/dependencies"
	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/quality"
)

// Verdict is the Stage-1 classification for one symbol.
type Verdict string

const (
	Qualified Verdict = "QUALIFIED"
	Hold      Verdict = "HOLD"
	Blocked   Verdict = "BLOCKED"
	Errored   Verdict = "ERROR"
)

// Outcome is the full Stage-1 result, carrying both the pass/fail boolean
// form used by model.Stage1Result and the richer named verdict.
type Outcome struct {
	model.Stage1Result
	Verdict    Verdict
	DepsResult dependencies.Result
}

// Run evaluates snap against the configured dependency policy and
// classifies a verdict. Stage-1 never performs option fetches — it only
// reasons over the snapshot it's given.
func Run(cfg config.DependenciesConfig, snap *model.SymbolSnapshot, now time.Time) Outcome {
	depsResult := dependencies.Check(cfg, snap, now)

	details := map[string]quality.Quality{}
	for _, name := range snap.RequiredFieldNames() {
		details[name] = snap.FieldQuality(name)
	}

	out := Outcome{
		Stage1Result: model.Stage1Result{
			Symbol:      snap.Symbol,
			Snapshot:    snap,
			EvaluatedAt: now,
		},
		DepsResult: depsResult,
	}

	switch depsResult.Status {
	case dependencies.Fail:
		out.Verdict = Blocked
		out.Passed = false
		out.Missing = depsResult.MissingRequired
	case dependencies.Warn:
		out.Verdict = Qualified
		out.Passed = true
	default:
		out.Verdict = Qualified
		out.Passed = true
	}

	return out
}
