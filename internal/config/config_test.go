package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "wheelctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ParsesUniverseSymbolsAndHoldings(t *testing.T) {
	path := writeConfig(t, "universe:\n  symbols: [AAPL, KO]\n  holdings:\n    KO: 200\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "KO"}, cfg.Universe.Symbols)
	assert.Equal(t, 200, cfg.Universe.Holdings["KO"])
}

func TestLoad_AppliesModeDefault(t *testing.T) {
	path := writeConfig(t, "universe:\n  symbols: [AAPL]\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DRY_RUN", cfg.Mode)
}

func TestLoad_RespectsExplicitMode(t *testing.T) {
	path := writeConfig(t, "mode: LIVE\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "LIVE", cfg.Mode)
}

func TestLoad_DefaultsMaxWorkersToNumCPU(t *testing.T) {
	path := writeConfig(t, "mode: LIVE\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.Run.MaxWorkers)
}

func TestLoad_RespectsExplicitMaxWorkers(t *testing.T) {
	path := writeConfig(t, "run:\n  max_workers: 4\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Run.MaxWorkers)
}

func TestLoad_DefaultsRunDeadline(t *testing.T) {
	path := writeConfig(t, "mode: LIVE\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Run.Deadline)
}

func TestLoad_DefaultsFreezeFieldsWhenUnset(t *testing.T) {
	path := writeConfig(t, "mode: LIVE\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, cfg.Freeze.Fields, "eligibility.csp_rsi_min")
}

func TestLoad_DefaultsEligibilityBandWhenUnset(t *testing.T) {
	path := writeConfig(t, "mode: LIVE\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.Eligibility.CSPRSIMin)
	assert.Equal(t, 60, cfg.Eligibility.MinCandles)
}

func TestLoad_DoesNotOverrideExplicitEligibilityValues(t *testing.T) {
	path := writeConfig(t, "eligibility:\n  csp_rsi_min: 25\n  csp_rsi_max: 55\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25.0, cfg.Eligibility.CSPRSIMin)
	assert.Equal(t, 55.0, cfg.Eligibility.CSPRSIMax)
}

func TestLoad_DefaultsServerBindAddress(t *testing.T) {
	path := writeConfig(t, "mode: LIVE\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoad_DefaultsLedgerAndCachePaths(t *testing.T) {
	path := writeConfig(t, "mode: LIVE\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/ledger.db", cfg.Ledger.DatabasePath)
	assert.Equal(t, "data/cache", cfg.Cache.FileCacheDir)
}

func TestLoad_DefaultsCapitalWhenUnset(t *testing.T) {
	path := writeConfig(t, "mode: LIVE\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, cfg.Capital.TotalCapital)
}

func TestLoad_ParsesProviderEndpointDurations(t *testing.T) {
	path := writeConfig(t, "providers:\n  equity_quote:\n    base_url: https://example.invalid\n    rps: 5\n    timeout: 10s\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Providers.EquityQuote.Timeout)
	assert.Equal(t, 5.0, cfg.Providers.EquityQuote.RPS)
}

func TestLoad_InvalidYAMLErrors(t *testing.T) {
	path := writeConfig(t, "mode: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}
