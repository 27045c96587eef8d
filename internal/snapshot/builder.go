// Package snapshot builds a model.SymbolSnapshot from a provider's raw
// quote response, running every field through quality.Wrap so a snapshot
// never carries a value whose provenance isn't explicit.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/providers"
	"github.com/optionwheel/engine/internal/quality"
)

// Builder assembles snapshots from a quote source, with an optional
// core-stats fallback consulted only for fields the quote left null.
type Builder struct {
	quotes     providers.EquityQuoteSource
	coreStats  providers.CoreStatsSource
}

func NewBuilder(quotes providers.EquityQuoteSource) *Builder {
	return &Builder{quotes: quotes}
}

// WithCoreStats attaches a fallback source for iv_rank/avg-volume fields
// the quote endpoint doesn't carry.
func (b *Builder) WithCoreStats(coreStats providers.CoreStatsSource) *Builder {
	b.coreStats = coreStats
	return b
}

// Build fetches the raw quote for symbol and wraps every field, falling
// back to the core-stats endpoint for anything the quote left null.
func (b *Builder) Build(ctx context.Context, symbol string, instrument model.InstrumentType) (*model.SymbolSnapshot, error) {
	raw, err := b.quotes.Quote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("snapshot: fetch %s: %w", symbol, err)
	}
	snap := FromRaw(symbol, instrument, raw)

	if b.coreStats != nil && needsCoreStats(snap) {
		stats, err := b.coreStats.CoreStats(ctx, symbol)
		if err != nil {
			return snap, nil // core stats is best-effort; a failed fallback doesn't fail the snapshot
		}
		applyCoreStats(snap, stats)
	}

	return snap, nil
}

func needsCoreStats(snap *model.SymbolSnapshot) bool {
	return !snap.IVRank.Present() || !snap.AvgOptionVolume20D.Present() || !snap.AvgStockVolume20D.Present()
}

// applyCoreStats fills any of the three derived fields the quote endpoint
// left null, recording provenance as "core_stats" rather than
// "equity_quote" so FieldSources stays accurate.
func applyCoreStats(snap *model.SymbolSnapshot, stats providers.RawCoreStats) {
	if !snap.IVRank.Present() {
		snap.IVRank = coerceFloat("iv_rank", stats["iv_rank"])
		if snap.IVRank.Present() {
			snap.FieldSources["iv_rank"] = "core_stats"
		}
	}
	if !snap.AvgOptionVolume20D.Present() {
		snap.AvgOptionVolume20D = coerceFloat("avg_option_volume_20d", stats["avg_option_volume_20d"])
		if snap.AvgOptionVolume20D.Present() {
			snap.FieldSources["avg_option_volume_20d"] = "core_stats"
		}
	}
	if !snap.AvgStockVolume20D.Present() {
		snap.AvgStockVolume20D = coerceFloat("avg_stock_volume_20d", stats["avg_stock_volume_20d"])
		if snap.AvgStockVolume20D.Present() {
			snap.FieldSources["avg_stock_volume_20d"] = "core_stats"
		}
	}
}

// FromRaw is the pure transformation from a decoded provider response to a
// SymbolSnapshot, split out from Build so tests can exercise it without a
// live provider.
func FromRaw(symbol string, instrument model.InstrumentType, raw providers.RawQuote) *model.SymbolSnapshot {
	snap := &model.SymbolSnapshot{
		Symbol:         symbol,
		InstrumentType: instrument,
		FieldSources:   map[string]string{},
		MissingReasons: map[string]string{},
		AsOf:           map[string]time.Time{},
	}

	snap.Quote.Price = coerceFloat("price", raw["price"])
	snap.Quote.Bid = coerceFloat("bid", raw["bid"])
	snap.Quote.Ask = coerceFloat("ask", raw["ask"])
	snap.Quote.Volume = coerceFloat("volume", raw["volume"])
	snap.IVRank = coerceFloat("iv_rank", raw["iv_rank"])
	snap.AvgOptionVolume20D = coerceFloat("avg_option_volume_20d", raw["avg_option_volume_20d"])
	snap.AvgStockVolume20D = coerceFloat("avg_stock_volume_20d", raw["avg_stock_volume_20d"])
	snap.QuoteDate = coerceString("quote_date", raw["quote_date"])

	for _, name := range snap.RequiredFieldNames() {
		q := snap.FieldQuality(name)
		snap.FieldSources[name] = "equity_quote"
		if q != quality.Valid {
			snap.MissingReasons[name] = reasonFor(snap, name)
		}
	}
	snap.AsOf["equity_quote"] = time.Now().UTC()

	return snap
}

func coerceFloat(name string, raw any) quality.Field[float64] {
	return quality.Wrap(name, raw, func(v any) (float64, error) {
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("expected number, got %T", v)
		}
		return f, nil
	}, true)
}

func coerceString(name string, raw any) quality.Field[string] {
	return quality.Wrap(name, raw, func(v any) (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	}, false)
}

func reasonFor(snap *model.SymbolSnapshot, name string) string {
	switch name {
	case "price":
		return snap.Quote.Price.Reason
	case "bid":
		return snap.Quote.Bid.Reason
	case "ask":
		return snap.Quote.Ask.Reason
	case "volume":
		return snap.Quote.Volume.Reason
	case "quote_date":
		return snap.QuoteDate.Reason
	case "iv_rank":
		return snap.IVRank.Reason
	default:
		return ""
	}
}
