// capital.go computes the pre-guardrail capital sizing hint:
// how many contracts a symbol's selected candidate could support given
// the configured per-symbol capital cap, before the guardrail chain
// adjusts it down further for portfolio-wide conditions.
package pipeline

import (
	"math"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/model"
)

// CapitalHint sizes a selected CSP/CC contract against the configured
// per-symbol capital cap. CSP capital requirement is cash-secured:
// strike * 100 per contract. CC requires no new capital (the shares are
// already held), so its hint always reports zero required capital and a
// quantity bounded only by the held share count.
func CapitalHint(cfg config.Config, symbol string, strike float64, holdings int, isCSP bool) model.CapitalHint {
	perSymbolCap := cfg.Capital.TotalCapital * cfg.Guardrails.MaxCapitalPerSymbolPct
	if perSymbolCap <= 0 {
		perSymbolCap = cfg.Capital.TotalCapital * 0.10
	}

	if !isCSP {
		qty := holdings / 100
		return model.CapitalHint{
			Symbol:           symbol,
			SuggestedQty:     qty,
			CapitalRequired:  0,
			MaxAffordableQty: qty,
		}
	}

	perContract := strike * 100
	if perContract <= 0 {
		return model.CapitalHint{Symbol: symbol}
	}

	maxAffordable := int(math.Floor(perSymbolCap / perContract))
	maxTotal := int(math.Floor(cfg.Capital.TotalCapital / perContract))
	if maxTotal < maxAffordable {
		maxAffordable = maxTotal
	}
	if maxAffordable < 0 {
		maxAffordable = 0
	}

	return model.CapitalHint{
		Symbol:           symbol,
		SuggestedQty:     maxAffordable,
		CapitalRequired:  float64(maxAffordable) * perContract,
		MaxAffordableQty: maxAffordable,
	}
}
