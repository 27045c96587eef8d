// dailies.go is the historical daily-bar endpoint family: the OHLC+volume
// series the eligibility engine needs for RSI/ATR/regime/swing-cluster
// computation. Same client shape as EquitySource and OptionSource in
// provider.go —
// wrapped behind the shared rate-limited, circuit-broken Client.
package providers

import "context"

// RawDailyBar is one decoded OHLCV row, oldest first.
type RawDailyBar map[string]any

// RawDailyBars is a full lookback window for one symbol, ascending by
// trade date.
type RawDailyBars []RawDailyBar

// DailyBarsSource fetches the daily OHLCV history a symbol needs for
// technical indicators.
type DailyBarsSource interface {
	Dailies(ctx context.Context, symbol string) (RawDailyBars, error)
}

// DailySource adapts a Client to DailyBarsSource.
type DailySource struct{ Client *Client }

func (s DailySource) Dailies(ctx context.Context, symbol string) (RawDailyBars, error) {
	var bars RawDailyBars
	if err := s.Client.Get(ctx, "/dailies/"+symbol, &bars); err != nil {
		return nil, err
	}
	return bars, nil
}
