// Package drift implements the drift detector: a pure comparison
// between a persisted snapshot and a live market-data read, never
// mutating either side, classifying deviation against four drift kinds.
package drift

import (
	"math"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/model"
)

// Severity is the escalation level attached to one drift item.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityBlock Severity = "BLOCK"
)

// ItemKind names the four drift classes the detector reports.
type ItemKind string

const (
	ChainUnavailable ItemKind = "CHAIN_UNAVAILABLE"
	PriceDrift       ItemKind = "PRICE_DRIFT"
	IVDrift          ItemKind = "IV_DRIFT"
	SpreadWidened    ItemKind = "SPREAD_WIDENED"
)

// Item is one detected drift condition for one selected-candidate symbol.
type Item struct {
	Symbol   string
	Kind     ItemKind
	Severity Severity
	Detail   string
}

// Status is the full outcome of one drift pass across every
// selected-candidate symbol.
type Status struct {
	HasDrift bool
	Items    []Item
}

// LiveRead is the live-market half of the comparison: everything the
// drift detector needs about a symbol's current state, independent of how
// it was sourced (REST poll or the optional websocket live feed).
type LiveRead struct {
	Symbol              string
	ChainAvailable      bool
	UnderlyingPrice     float64
	UnderlyingPriceOK   bool
	ContractIV          float64
	ContractIVOK        bool
	LiveSpreadPct       float64
	LiveSpreadPctOK     bool
	LiveMidPrice        float64
}

// Baseline is the persisted-snapshot half of the comparison, read-only.
type Baseline struct {
	Symbol          string
	SnapshotPrice   float64
	SnapshotIV      float64
	SnapshotSpreadPct float64
}

// Check compares one symbol's persisted baseline against its live read
// and returns every drift item that fires. Neither input is mutated.
func Check(cfg config.DriftConfig, baseline Baseline, live LiveRead) []Item {
	var items []Item

	if !live.ChainAvailable {
		items = append(items, Item{
			Symbol:   baseline.Symbol,
			Kind:     ChainUnavailable,
			Severity: SeverityBlock,
			Detail:   "option chain unavailable on live read",
		})
		return items
	}

	if live.UnderlyingPriceOK && baseline.SnapshotPrice > 0 {
		delta := math.Abs(live.UnderlyingPrice-baseline.SnapshotPrice) / baseline.SnapshotPrice
		if delta >= cfg.PriceDriftWarnPct {
			sev := SeverityInfo
			if delta >= 2*cfg.PriceDriftWarnPct {
				sev = SeverityWarn
			}
			items = append(items, Item{
				Symbol:   baseline.Symbol,
				Kind:     PriceDrift,
				Severity: sev,
				Detail:   "underlying price moved since snapshot",
			})
		}
	}

	if live.ContractIVOK {
		absDelta := math.Abs(live.ContractIV - baseline.SnapshotIV)
		relDelta := 0.0
		if baseline.SnapshotIV != 0 {
			relDelta = absDelta / math.Abs(baseline.SnapshotIV)
		}
		if absDelta >= cfg.IVDriftAbs || relDelta >= cfg.IVDriftRel {
			items = append(items, Item{
				Symbol:   baseline.Symbol,
				Kind:     IVDrift,
				Severity: SeverityWarn,
				Detail:   "implied volatility moved since snapshot",
			})
		}
	}

	if live.LiveSpreadPctOK {
		widened := baseline.SnapshotSpreadPct > 0 && live.LiveSpreadPct > cfg.SpreadWidenedMult*baseline.SnapshotSpreadPct
		spreadOverMid := live.LiveMidPrice > 0 && (live.LiveSpreadPct) > cfg.SpreadMidMax
		if widened || spreadOverMid {
			items = append(items, Item{
				Symbol:   baseline.Symbol,
				Kind:     SpreadWidened,
				Severity: SeverityWarn,
				Detail:   "option spread widened since snapshot",
			})
		}
	}

	return items
}

// CheckAll runs Check across every selected-candidate symbol and reports
// the aggregate status.
func CheckAll(cfg config.DriftConfig, baselines map[string]Baseline, lives map[string]LiveRead) Status {
	var status Status
	for symbol, baseline := range baselines {
		live, ok := lives[symbol]
		if !ok {
			continue
		}
		items := Check(cfg, baseline, live)
		status.Items = append(status.Items, items...)
	}
	status.HasDrift = len(status.Items) > 0
	return status
}

// BaselineFromSnapshot builds a Baseline from a persisted snapshot without
// mutating it.
func BaselineFromSnapshot(snap *model.SymbolSnapshot, contractSpreadPct, contractIV float64) Baseline {
	price, _ := snap.Quote.Price.Get()
	return Baseline{
		Symbol:            snap.Symbol,
		SnapshotPrice:     price,
		SnapshotIV:        contractIV,
		SnapshotSpreadPct: contractSpreadPct,
	}
}
