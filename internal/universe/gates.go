// Package universe implements the cheap-first universe quality gates: a
// pre-filter that runs before the expensive Stage-1/Stage-2 pipeline,
// short-circuiting on the first failing reason.
package universe

import (
	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/quality"
)

// Status is the outcome of the universe pre-filter for one symbol.
type Status string

const (
	StatusPass Status = "PASS"
	StatusSkip Status = "SKIP"
)

// ChainLiquidity is the optional option-chain-level liquidity input; when
// nil, the option-chain-specific checks are skipped (they run after
// Stage-2, which this pre-filter precedes).
type ChainLiquidity struct {
	SpreadPct float64
	OI        float64
	Volume    float64
}

// Result carries the pass/skip verdict plus every reason and metric that
// went into it, even on a short-circuited first failure — only the first
// reason is ever in Reasons, but Metrics records everything computed up
// to that point.
type Result struct {
	Symbol  string
	Status  Status
	Reasons []string
	Metrics map[string]float64
}

// Check runs the cheap-first pre-filter. chain is nil when option-chain
// liquidity hasn't been fetched yet. Gates are disabled globally via
// cfg.Enabled, or per-symbol via cfg.DisabledSymbols.
func Check(cfg config.UniverseGatesConfig, snap *model.SymbolSnapshot, chain *ChainLiquidity) Result {
	result := Result{Symbol: snap.Symbol, Status: StatusPass, Metrics: map[string]float64{}}

	if !cfg.Enabled || disabledFor(cfg, snap.Symbol) {
		return result
	}

	price, priceOK := snap.Quote.Price.Get()
	if !priceOK {
		return fail(result, "price data missing")
	}
	result.Metrics["price"] = price

	if snap.FieldQuality("quote_date") != quality.Valid {
		return fail(result, "quote_date missing or stale")
	}

	if price < cfg.MinPrice || price > cfg.MaxPrice {
		return fail(result, "price outside configured range")
	}

	bid, bidOK := snap.Quote.Bid.Get()
	ask, askOK := snap.Quote.Ask.Get()
	if bidOK && askOK {
		spreadPct := spreadPctOf(bid, ask)
		result.Metrics["underlying_spread_pct"] = spreadPct
		if spreadPct > cfg.MaxSpreadPct {
			return fail(result, "underlying spread % too wide")
		}
	}

	avgVol, avgVolOK := snap.AvgStockVolume20D.Get()
	if avgVolOK {
		result.Metrics["avg_stock_volume_20d"] = avgVol
		if avgVol < cfg.MinAvgStockVolume {
			return fail(result, "average stock volume too low")
		}
	}

	if chain != nil {
		result.Metrics["option_spread_pct"] = chain.SpreadPct
		result.Metrics["option_oi"] = chain.OI
		result.Metrics["option_volume"] = chain.Volume
		if chain.SpreadPct > cfg.MaxOptionSpreadPct {
			return fail(result, "option spread % too wide")
		}
		if chain.OI < cfg.MinOptionOI {
			return fail(result, "option open interest too low")
		}
		if chain.Volume < cfg.MinOptionVolume {
			return fail(result, "option volume too low")
		}
	}

	return result
}

func fail(result Result, reason string) Result {
	result.Status = StatusSkip
	result.Reasons = append(result.Reasons, reason)
	return result
}

func disabledFor(cfg config.UniverseGatesConfig, symbol string) bool {
	for _, s := range cfg.DisabledSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

func spreadPctOf(bid, ask float64) float64 {
	m := (bid + ask) / 2
	if m <= 0 {
		return 0
	}
	return (ask - bid) / m
}
