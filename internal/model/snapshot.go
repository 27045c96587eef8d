// Package model holds the plain data types shared across the evaluation
// pipeline: per-symbol snapshots, option contracts, and the per-stage
// result rows that accumulate into a decision artifact.
package model

import (
	"time"

	"github.com/optionwheel/engine/internal/quality"
)

// InstrumentType distinguishes the field-completeness policy a symbol is
// held to.
type InstrumentType string

const (
	Equity InstrumentType = "EQUITY"
	ETF    InstrumentType = "ETF"
	Index  InstrumentType = "INDEX"
)

// FieldF and FieldS name the two scalar Field kinds used throughout the
// snapshot and chain types.
type FieldF = quality.Field[float64]
type FieldS = quality.Field[string]

// EquityQuote is the nullable-first quote half of a SymbolSnapshot.
type EquityQuote struct {
	Price  FieldF
	Bid    FieldF
	Ask    FieldF
	Volume FieldF
}

// SymbolSnapshot is the canonical, immutable per-symbol input to the
// pipeline. Once built it is never mutated.
type SymbolSnapshot struct {
	Symbol         string
	InstrumentType InstrumentType

	Quote EquityQuote

	QuoteDate FieldS
	IVRank    FieldF // 0-100

	AvgOptionVolume20D FieldF
	AvgStockVolume20D  FieldF

	// FieldSources records, per field name, which provider endpoint it
	// came from (e.g. "price" -> "equity_quote"). MissingReasons records
	// the human reason string for any field that isn't VALID.
	FieldSources   map[string]string
	MissingReasons map[string]string
	AsOf           map[string]time.Time
}

// RequiredFieldNames returns the ordered list of fields a Stage-1 pass
// must see VALID before advancing, per instrument type.
func (s *SymbolSnapshot) RequiredFieldNames() []string {
	switch s.InstrumentType {
	case ETF, Index:
		return []string{"price", "iv_rank", "volume", "quote_date"}
	default:
		return []string{"price", "iv_rank", "bid", "ask", "volume", "quote_date"}
	}
}

// FieldQuality looks up the quality of a named field on the snapshot, using
// the same field names returned by RequiredFieldNames plus the two
// optional derived fields.
func (s *SymbolSnapshot) FieldQuality(name string) quality.Quality {
	switch name {
	case "price":
		return s.Quote.Price.Quality
	case "bid":
		return s.Quote.Bid.Quality
	case "ask":
		return s.Quote.Ask.Quality
	case "volume":
		return s.Quote.Volume.Quality
	case "quote_date":
		return s.QuoteDate.Quality
	case "iv_rank":
		return s.IVRank.Quality
	case "avg_option_volume_20d":
		return s.AvgOptionVolume20D.Quality
	case "avg_stock_volume_20d":
		return s.AvgStockVolume20D.Quality
	default:
		return quality.Missing
	}
}
