package freeze

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/wheelerr"
)

func testConfig(rsiMin float64) *config.Config {
	cfg := &config.Config{
		Mode: "LIVE",
		Eligibility: config.EligibilityConfig{CSPRSIMin: rsiMin},
		Freeze: config.FreezeConfig{
			Enabled: true,
			Fields:  []string{"eligibility.csp_rsi_min"},
		},
	}
	return cfg
}

func TestHash_DeterministicForSameCriticalFields(t *testing.T) {
	a, err := Hash(testConfig(30))
	require.NoError(t, err)
	b, err := Hash(testConfig(30))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHash_ChangesWhenCriticalFieldChanges(t *testing.T) {
	a, err := Hash(testConfig(30))
	require.NoError(t, err)
	b, err := Hash(testConfig(35))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHash_IgnoresNonCriticalFields(t *testing.T) {
	cfg1 := testConfig(30)
	cfg1.Universe.MinPrice = 10
	cfg2 := testConfig(30)
	cfg2.Universe.MinPrice = 999

	a, err := Hash(cfg1)
	require.NoError(t, err)
	b, err := Hash(cfg2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGuard_Check_DryRunAlwaysPasses(t *testing.T) {
	dir := t.TempDir()
	guard := New(filepath.Join(dir, "snapshot.json"))
	cfg := testConfig(30)
	cfg.Mode = "DRY_RUN"
	assert.NoError(t, guard.Check(cfg))
}

func TestGuard_Check_DisabledAlwaysPasses(t *testing.T) {
	dir := t.TempDir()
	guard := New(filepath.Join(dir, "snapshot.json"))
	cfg := testConfig(30)
	cfg.Freeze.Enabled = false
	assert.NoError(t, guard.Check(cfg))
}

func TestGuard_Check_BootstrapsOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "snapshot.json")
	guard := New(snapshotPath)
	cfg := testConfig(30)

	require.NoError(t, guard.Check(cfg))
	assert.FileExists(t, snapshotPath)
}

func TestGuard_Check_BlocksOnDrift(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "snapshot.json")
	guard := New(snapshotPath)

	require.NoError(t, guard.Check(testConfig(30)))
	err := guard.Check(testConfig(35))
	require.Error(t, err)
	assert.ErrorIs(t, err, wheelerr.ErrFreezeBlocked)
}

func TestGuard_ApproveThenCheckPasses(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "snapshot.json")
	guard := New(snapshotPath)

	require.NoError(t, guard.Check(testConfig(30)))
	require.NoError(t, guard.Approve(testConfig(35)))
	assert.NoError(t, guard.Check(testConfig(35)))
}

func TestGuard_Check_BlockDriftNamesOnlyTheChangedTopLevelKey(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "snapshot.json")
	guard := New(snapshotPath)

	cfg := &config.Config{
		Mode: "LIVE",
		Scoring: config.ScoringConfig{
			Weights: map[string]float64{"premium": 1.0},
		},
		Eligibility: config.EligibilityConfig{CSPRSIMin: 30},
		Freeze: config.FreezeConfig{
			Enabled: true,
			Fields:  []string{"scoring.weights", "eligibility.csp_rsi_min"},
		},
	}
	require.NoError(t, guard.Check(cfg))

	drifted := *cfg
	drifted.Scoring.Weights = map[string]float64{"premium": 2.0}
	err := guard.Check(&drifted)
	require.Error(t, err)

	var violation *wheelerr.FreezeViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, []string{"scoring"}, violation.ChangedFields)
}
