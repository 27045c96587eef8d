package stage1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/dependencies"
	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/providers"
	"github.com/optionwheel/engine/internal/snapshot"
)

func testCfg() config.DependenciesConfig {
	return config.DependenciesConfig{
		Equity: config.FieldPolicy{
			Required:           []string{"price", "iv_rank", "bid", "ask", "volume", "quote_date"},
			StaleThresholdDays: 1,
		},
	}
}

func TestRun_QualifiesCompleteSnapshot(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	raw := providers.RawQuote{
		"price": 100.0, "bid": 99.9, "ask": 100.1, "volume": 1_000_000.0,
		"iv_rank": 40.0, "quote_date": "2026-07-31",
	}
	snap := snapshot.FromRaw("AAPL", model.Equity, raw)

	out := Run(testCfg(), snap, now)
	assert.Equal(t, Qualified, out.Verdict)
	assert.True(t, out.Passed)
	assert.Empty(t, out.Missing)
}

func TestRun_BlocksOnMissingRequiredField(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	raw := providers.RawQuote{
		"price": 100.0, "volume": 1_000_000.0, "iv_rank": 40.0, "quote_date": "2026-07-31",
	}
	snap := snapshot.FromRaw("AAPL", model.Equity, raw)

	out := Run(testCfg(), snap, now)
	require.Equal(t, Blocked, out.Verdict)
	assert.False(t, out.Passed)
	assert.Contains(t, out.Missing, "bid")
	assert.Contains(t, out.Missing, "ask")
}

func TestRun_QualifiesWithStaleWarning(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	raw := providers.RawQuote{
		"price": 100.0, "bid": 99.9, "ask": 100.1, "volume": 1_000_000.0,
		"iv_rank": 40.0, "quote_date": "2026-07-20",
	}
	snap := snapshot.FromRaw("AAPL", model.Equity, raw)

	out := Run(testCfg(), snap, now)
	assert.Equal(t, Qualified, out.Verdict)
	assert.True(t, out.Passed)
	assert.Equal(t, dependencies.Warn, out.DepsResult.Status)
}
