// parse.go turns a provider's raw option-chain rows into model.OptionContract
// values, running every field through quality.Wrap the same way
// snapshot.FromRaw does for equity quotes — an option chain row gets no
// looser a data-quality treatment than the underlying's own quote.
package contracts

import (
	"fmt"
	"time"

	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/providers"
	"github.com/optionwheel/engine/internal/quality"
)

// ParseChain decodes a provider's raw option-chain rows into
// model.OptionContract values as of `now` for DTE computation. A row whose
// "type" or "expiration" can't be parsed at all is dropped rather than
// carried forward half-formed — unlike the scalar fields, these two are
// structural, not nullable-first.
func ParseChain(symbol string, raw providers.RawChain, now time.Time) []model.OptionContract {
	out := make([]model.OptionContract, 0, len(raw))
	for _, row := range raw {
		c, ok := parseRow(symbol, row, now)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func parseRow(symbol string, row map[string]any, now time.Time) (model.OptionContract, bool) {
	typeStr, _ := row["type"].(string)
	var optType model.OptionType
	switch typeStr {
	case "PUT", "put":
		optType = model.Put
	case "CALL", "call":
		optType = model.Call
	default:
		return model.OptionContract{}, false
	}

	expStr, _ := row["expiration"].(string)
	expiration, err := time.Parse("2006-01-02", expStr)
	if err != nil {
		return model.OptionContract{}, false
	}

	dte := int(expiration.Sub(now).Hours() / 24)

	return model.OptionContract{
		Symbol:       symbol,
		Type:         optType,
		Expiration:   expiration,
		DTE:          dte,
		Strike:       coerceFloat("strike", row["strike"]),
		Bid:          coerceFloat("bid", row["bid"]),
		Ask:          coerceFloat("ask", row["ask"]),
		Mid:          coerceFloat("mid", row["mid"]),
		Delta:        coerceFloat("delta", row["delta"]),
		Theta:        coerceFloat("theta", row["theta"]),
		IV:           coerceFloat("iv", row["iv"]),
		OpenInterest: coerceFloat("open_interest", row["open_interest"]),
		Volume:       coerceFloat("volume", row["volume"]),
	}, true
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
