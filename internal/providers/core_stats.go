// core_stats.go is the derived-statistics endpoint family: IV rank and
// average volume figures some providers publish separately from the raw
// equity quote. The snapshot builder treats this as a fallback source,
// only consulted for a field the quote endpoint left null.
package providers

import "context"

// RawCoreStats is the decoded JSON body of a core-stats response.
type RawCoreStats map[string]any

// CoreStatsSource fetches IV rank / average volume figures for a symbol.
type CoreStatsSource interface {
	CoreStats(ctx context.Context, symbol string) (RawCoreStats, error)
}

// CoreStatsClient adapts a Client to CoreStatsSource.
type CoreStatsClient struct{ Client *Client }

func (s CoreStatsClient) CoreStats(ctx context.Context, symbol string) (RawCoreStats, error) {
	var stats RawCoreStats
	if err := s.Client.Get(ctx, "/core-stats/"+symbol, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
