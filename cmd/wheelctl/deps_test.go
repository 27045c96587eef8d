package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/model"
)

func TestBuildSpecs_CarriesConfiguredHoldings(t *testing.T) {
	cfg := &config.Config{
		Universe: config.UniverseConfig{
			Symbols:  []string{"AAPL", "KO"},
			Holdings: map[string]int{"KO": 200},
		},
	}

	specs := buildSpecs(cfg)
	require.Len(t, specs, 2)
	assert.Equal(t, "AAPL", specs[0].Symbol)
	assert.Equal(t, 0, specs[0].Holdings)
	assert.Equal(t, model.Equity, specs[0].Instrument)
	assert.Equal(t, "KO", specs[1].Symbol)
	assert.Equal(t, 200, specs[1].Holdings)
}

func TestBuildSpecs_EmptyUniverseYieldsEmptySpecs(t *testing.T) {
	cfg := &config.Config{}
	assert.Empty(t, buildSpecs(cfg))
}

type fakeLedgerRepo struct {
	entries []model.CapitalLedgerEntry
}

func (f fakeLedgerRepo) Append(ctx context.Context, entry model.CapitalLedgerEntry) error {
	return nil
}

func (f fakeLedgerRepo) ListBySymbol(ctx context.Context, symbol string) ([]model.CapitalLedgerEntry, error) {
	return f.entries, nil
}

func (f fakeLedgerRepo) ListAll(ctx context.Context) ([]model.CapitalLedgerEntry, error) {
	return f.entries, nil
}

func TestBuildPortfolio_NoCapitalConfiguredDefaultsToZeroExposure(t *testing.T) {
	cfg := &config.Config{}
	p, err := buildPortfolio(context.Background(), cfg, fakeLedgerRepo{})
	require.NoError(t, err)
	assert.Zero(t, p.ExposurePct)
}

func TestBuildPortfolio_NilRepoDefaultsToZeroExposure(t *testing.T) {
	cfg := &config.Config{Capital: config.CapitalConfig{TotalCapital: 100000}}
	p, err := buildPortfolio(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Zero(t, p.ExposurePct)
}

func TestBuildPortfolio_ComputesExposureFromOpenPositions(t *testing.T) {
	cfg := &config.Config{Capital: config.CapitalConfig{TotalCapital: 100000}}
	repo := fakeLedgerRepo{entries: []model.CapitalLedgerEntry{
		{PositionID: "p1", Event: model.LedgerOpen, Amount: 20000},
		{PositionID: "p2", Event: model.LedgerOpen, Amount: 10000},
		{PositionID: "p2", Event: model.LedgerClose, Amount: 10000},
	}}

	p, err := buildPortfolio(context.Background(), cfg, repo)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, p.ExposurePct, 1e-9)
}

func TestBuildPortfolio_DefaultsToLowClusterAndNormalRegime(t *testing.T) {
	cfg := &config.Config{}
	p, err := buildPortfolio(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.EqualValues(t, "LOW", p.ClusterRiskLevel)
	assert.EqualValues(t, "NORMAL", p.RegimeState)
}
