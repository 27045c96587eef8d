// Package pipeline orchestrates the full evaluation run: per-symbol
// Stage1 -> Eligibility -> Stage2 -> Score -> Guardrail ordering, fanned
// out across symbols on a bounded worker pool, merged unordered, and
// written once through the artifact store's single writer.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/optionwheel/engine/internal/artifactstore"
	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/contracts"
	"github.com/optionwheel/engine/internal/eligibility"
	"github.com/optionwheel/engine/internal/freeze"
	"github.com/optionwheel/engine/internal/guardrails"
	"github.com/optionwheel/engine/internal/indicators"
	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/providers"
	"github.com/optionwheel/engine/internal/quality"
	"github.com/optionwheel/engine/internal/scoring"
	"github.com/optionwheel/engine/internal/snapshot"
	"github.com/optionwheel/engine/internal/stage1"
	"github.com/optionwheel/engine/internal/universe"
)

// SymbolSpec names one symbol and the instrument-type policy it's held
// to, the minimal unit of work the run fans out over.
type SymbolSpec struct {
	Symbol     string
	Instrument model.InstrumentType
	Holdings   int // shares held; >0 makes a CC evaluation possible
}

// Deps bundles every external collaborator the run needs. Each field is
// an interface a test can substitute a fake for; only Quotes, Chains and
// Dailies are required, everything else is optional and the run degrades
// gracefully when a pointer is nil.
type Deps struct {
	Quotes   providers.EquityQuoteSource
	Chains   providers.OptionChainSource
	Dailies  providers.DailyBarsSource
	Intraday providers.DailyBarsSource
	CoreStats providers.CoreStatsSource
	Store    *artifactstore.Store
	Freeze   *freeze.Guard
	Log      zerolog.Logger
}

// Run executes one full evaluation cycle across every symbol in specs and
// writes the resulting DecisionArtifact through deps.Store. portfolio is
// the run-level guardrail state (exposure, concentration, cluster risk,
// regime), computed by the caller from current ledger/position state.
func Run(ctx context.Context, cfg *config.Config, deps Deps, specs []SymbolSpec, portfolio guardrails.Portfolio, now time.Time) (*model.DecisionArtifact, error) {
	if deps.Freeze != nil {
		if err := deps.Freeze.Check(cfg); err != nil {
			return nil, fmt.Errorf("pipeline: freeze guard: %w", err)
		}
	}

	start := now
	deadlineCtx := ctx
	var cancel context.CancelFunc
	if cfg.Run.Deadline > 0 {
		deadlineCtx, cancel = context.WithTimeout(ctx, cfg.Run.Deadline)
		defer cancel()
	}

	pool := NewPool(cfg.Run.MaxWorkers)
	summaries := RunPool(deadlineCtx, pool, specs, func(c context.Context, spec SymbolSpec) model.SymbolEvalSummary {
		return evalSymbol(c, cfg, deps, spec, portfolio, now)
	})

	dataSource := "live"
	if cfg.Run.DataSource != "" {
		dataSource = cfg.Run.DataSource
	}

	artifact := &model.DecisionArtifact{
		Version:     model.ArtifactVersion,
		RunID:       artifactstore.NewRunID(now),
		GeneratedAt: now,
		Mode:        cfg.Mode,
		DataSource:  dataSource,
		Symbols:     summaries,
		DurationMS:  time.Since(start).Milliseconds(),
	}

	if deadlineCtx.Err() != nil {
		evaluated := countEvaluated(summaries)
		artifact.PartialRun = true
		artifact.Errors = append(artifact.Errors, (&dlExceeded{total: len(specs), evaluated: evaluated}).Error())
	}

	hash, err := freeze.Hash(cfg)
	if err == nil {
		artifact.ConfigHash = hash
	}

	if deps.Store != nil {
		if _, err := deps.Store.Save(artifact); err != nil {
			return nil, fmt.Errorf("pipeline: save artifact: %w", err)
		}
	}

	return artifact, nil
}

type dlExceeded struct {
	total, evaluated int
}

func (e *dlExceeded) Error() string {
	return fmt.Sprintf("run deadline exceeded, evaluated %d/%d symbols", e.evaluated, e.total)
}

func countEvaluated(summaries []model.SymbolEvalSummary) int {
	n := 0
	for _, s := range summaries {
		if s.Symbol != "" {
			n++
		}
	}
	return n
}

// evalSymbol runs the full per-symbol chain for one spec: snapshot ->
// universe gate -> Stage1 -> eligibility -> Stage2 -> score -> guardrail.
// Every failure is captured in the returned summary rather than
// propagated — a single symbol's provider outage never aborts the run.
func evalSymbol(ctx context.Context, cfg *config.Config, deps Deps, spec SymbolSpec, portfolio guardrails.Portfolio, now time.Time) model.SymbolEvalSummary {
	summary := model.SymbolEvalSummary{Symbol: spec.Symbol}

	builder := snapshot.NewBuilder(deps.Quotes)
	if deps.CoreStats != nil {
		builder = builder.WithCoreStats(deps.CoreStats)
	}
	snap, err := builder.Build(ctx, spec.Symbol, spec.Instrument)
	if err != nil {
		summary.Stage1 = model.Stage1Result{Symbol: spec.Symbol, Passed: false, EvaluatedAt: now}
		summary.Band, summary.BandReason = model.BandD, "Band D: "+err.Error()
		return summary
	}

	gateResult := universe.Check(cfg.UniverseGates, snap, nil)
	if gateResult.Status == universe.StatusSkip {
		summary.Stage1 = model.Stage1Result{Symbol: spec.Symbol, Passed: false, Snapshot: snap, EvaluatedAt: now}
		summary.Band, summary.BandReason = model.BandD, "Band D: universe gate skip: "+firstOr(gateResult.Reasons, "unspecified")
		return summary
	}

	stage1Out := stage1.Run(cfg.Dependencies, snap, now)
	summary.Stage1 = stage1Out.Stage1Result

	if !stage1Out.Passed {
		summary.Band, summary.BandReason = model.BandD, "Band D: Stage-1 blocked: "+joinOr(stage1Out.DepsResult.MissingRequired, "dependency check failed")
		return summary
	}

	closes, bars := fetchDailies(ctx, deps, spec.Symbol)
	intraday := fetchIntraday(ctx, deps, spec.Symbol)
	spot, _ := snap.Quote.Price.Get()

	trace := eligibility.Evaluate(cfg.Eligibility, eligibility.Inputs{
		Symbol:          spec.Symbol,
		Closes:          closes,
		Bars:            bars,
		Spot:            spot,
		Holdings:        spec.Holdings,
		IntradayBars:    intraday,
		IntradayEnabled: deps.Intraday != nil,
	})

	if trace.ModeDecision == eligibility.ModeNone {
		completeness, _ := quality.Completeness(snapQualities(snap), snap.RequiredFieldNames())
		summary.Score = &model.ScoreBreakdown{
			Symbol:     spec.Symbol,
			Composite:  0,
			Band:       model.BandD,
			BandReason: "Band D: no eligible mode: " + trace.PrimaryReasonCode,
		}
		summary.Band, summary.BandReason = summary.Score.Band, summary.Score.BandReason
		_ = completeness
		return summary
	}

	selResult, err := selectContracts(ctx, cfg, deps, spec, trace.ModeDecision, spot)
	if err != nil {
		summary.Band, summary.BandReason = model.BandD, "Band D: "+err.Error()
		return summary
	}
	summary.Stage2 = &selResult.Stage2Result

	completeness, _ := quality.Completeness(snapQualities(snap), snap.RequiredFieldNames())

	scoreIn := scoring.Inputs{
		Symbol:           spec.Symbol,
		DataCompleteness: completeness,
		DataQualityScore: completeness * 100,
		DataQualityOK:    true,
		RegimeScore:      regimeScore(trace),
		RegimeOK:         trace.Computed.RSIPresent,
		RegimeFavorable:  regimeFavorable(trace),
		LiquidityScore:   liquidityScore(selResult),
		LiquidityOK:      selResult.ContractDataAvailable,
		LiquidityGateOK:  selResult.LiquidityOK,
		StrategyFitScore: strategyFitScore(trace),
		StrategyFitOK:    true,
		CapitalEffScore:  capitalEffScore(selResult),
		CapitalEffOK:     selResult.Selected != nil,
	}

	breakdown, err := scoring.Score(cfg.Scoring, scoreIn)
	if err != nil {
		summary.Band, summary.BandReason = model.BandD, "Band D: "+err.Error()
		return summary
	}
	summary.Score = &breakdown
	summary.Band, summary.BandReason = breakdown.Band, breakdown.BandReason

	if selResult.Selected != nil {
		strike, _ := selResult.Selected.Contract.Strike.Get()
		hint := CapitalHint(*cfg, spec.Symbol, strike, spec.Holdings, trace.ModeDecision == eligibility.ModeCSP)
		summary.Capital = &hint

		outcome := guardrails.Apply(cfg.Guardrails, portfolio, guardrails.Candidate{
			Mode:               trace.ModeDecision,
			SuggestedContracts: hint.SuggestedQty,
		})
		summary.Capital.SuggestedQty = outcome.AdjustedContracts
	}

	return summary
}

func fetchDailies(ctx context.Context, deps Deps, symbol string) ([]float64, []indicators.PriceBar) {
	if deps.Dailies == nil {
		return nil, nil
	}
	raw, err := deps.Dailies.Dailies(ctx, symbol)
	if err != nil {
		return nil, nil
	}
	return ParseDailyBars(raw)
}

func fetchIntraday(ctx context.Context, deps Deps, symbol string) []indicators.PriceBar {
	if deps.Intraday == nil {
		return nil
	}
	raw, err := deps.Intraday.Dailies(ctx, symbol)
	if err != nil {
		return nil
	}
	_, bars := ParseDailyBars(raw)
	return bars
}

func selectContracts(ctx context.Context, cfg *config.Config, deps Deps, spec SymbolSpec, mode eligibility.Mode, spot float64) (contracts.Result, error) {
	if deps.Chains == nil {
		return contracts.Result{}, fmt.Errorf("no chain source configured")
	}
	raw, err := deps.Chains.Chain(ctx, spec.Symbol)
	if err != nil {
		return contracts.Result{}, fmt.Errorf("fetch chain: %w", err)
	}
	all := contracts.ParseChain(spec.Symbol, raw, time.Now())
	return contracts.Select(cfg.Contracts, spec.Symbol, mode, spot, all)
}

func snapQualities(snap *model.SymbolSnapshot) map[string]quality.Quality {
	out := map[string]quality.Quality{}
	for _, name := range snap.RequiredFieldNames() {
		out[name] = snap.FieldQuality(name)
	}
	return out
}

func regimeFavorable(trace eligibility.Trace) bool {
	switch trace.ModeDecision {
	case eligibility.ModeCSP:
		return trace.Computed.Regime == "UP"
	case eligibility.ModeCC:
		return trace.Computed.Regime == "DOWN"
	default:
		return false
	}
}

func regimeScore(trace eligibility.Trace) float64 {
	if regimeFavorable(trace) {
		return 100
	}
	return 40
}

func strategyFitScore(trace eligibility.Trace) float64 {
	if trace.ModeDecision == eligibility.ModeNone {
		return 0
	}
	return 80
}

func liquidityScore(res contracts.Result) float64 {
	if !res.ContractDataAvailable {
		return 0
	}
	if res.LiquidityOK {
		return 90
	}
	return 20
}

func capitalEffScore(res contracts.Result) float64 {
	if res.Selected == nil {
		return 0
	}
	yield := res.Selected.PremiumYield
	score := yield * 1000
	if score > 100 {
		score = 100
	}
	return score
}

func firstOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return items[0]
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	out := items[0]
	for _, s := range items[1:] {
		out += ", " + s
	}
	return out
}
