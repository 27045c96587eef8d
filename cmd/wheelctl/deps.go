package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/guardrails"
	"github.com/optionwheel/engine/internal/ledger"
	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/pipeline"
	"github.com/optionwheel/engine/internal/providers"
)

// buildDeps wires one set of rate-limited provider clients, layered behind
// the mandatory file cache and optional Redis mirror, into a
// pipeline.Deps. Builds one *providers.Client per endpoint from config
// before handing them to the scan pipeline.
func buildDeps(cfg *config.Config, log zerolog.Logger) pipeline.Deps {
	equityClient := providers.NewClient("equity_quote", cfg.Providers.EquityQuote)
	chainClient := providers.NewClient("option_chain", cfg.Providers.OptionChain)
	dailiesClient := providers.NewClient("dailies", cfg.Providers.Dailies)
	intradayClient := providers.NewClient("intraday", cfg.Providers.Intraday)
	coreStatsClient := providers.NewClient("core_stats", cfg.Providers.CoreStats)

	files := providers.NewFileCache(cfg.Cache.FileCacheDir)
	var redisCache *providers.RedisCache
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		redisCache = providers.NewRedisCache(rdb, "optionwheel:quote:")
	}

	quotes := providers.CachedEquitySource{
		Source: providers.EquitySource{Client: equityClient},
		Files:  files,
		Redis:  redisCache,
	}

	return pipeline.Deps{
		Quotes:    quotes,
		Chains:    providers.OptionSource{Client: chainClient},
		Dailies:   providers.DailySource{Client: dailiesClient},
		Intraday:  providers.DailySource{Client: intradayClient},
		CoreStats: providers.CoreStatsClient{Client: coreStatsClient},
		Log:       log,
	}
}

// buildSpecs turns the configured universe into the per-symbol evaluation
// specs pipeline.Run fans out over. A symbol with configured holdings is
// eligible for a covered-call evaluation in addition to cash-secured puts.
func buildSpecs(cfg *config.Config) []pipeline.SymbolSpec {
	specs := make([]pipeline.SymbolSpec, 0, len(cfg.Universe.Symbols))
	for _, symbol := range cfg.Universe.Symbols {
		specs = append(specs, pipeline.SymbolSpec{
			Symbol:     symbol,
			Instrument: model.Equity,
			Holdings:   cfg.Universe.Holdings[symbol],
		})
	}
	return specs
}

// buildPortfolio derives the guardrail chain's portfolio-wide inputs from
// the ledger's currently open exposure against the configured total
// capital. Cluster and regime state default to the calm case: a portfolio-
// wide cluster/regime classifier is out of scope, distinct from the
// per-symbol daily regime internal/regime classifies.
func buildPortfolio(ctx context.Context, cfg *config.Config, repo ledger.Repo) (guardrails.Portfolio, error) {
	portfolio := guardrails.Portfolio{
		ClusterRiskLevel: guardrails.ClusterLow,
		RegimeState:      guardrails.RegimeNormal,
	}
	if repo == nil || cfg.Capital.TotalCapital <= 0 {
		return portfolio, nil
	}

	entries, err := repo.ListAll(ctx)
	if err != nil {
		return portfolio, fmt.Errorf("wheelctl: list ledger entries: %w", err)
	}

	open := map[string]float64{}
	for _, e := range entries {
		switch e.Event {
		case model.LedgerOpen:
			open[e.PositionID] += e.Amount
		case model.LedgerClose, model.LedgerPartialClose:
			open[e.PositionID] -= e.Amount
		}
	}

	var committed float64
	for _, amount := range open {
		if amount > 0 {
			committed += amount
		}
	}

	portfolio.ExposurePct = committed / cfg.Capital.TotalCapital
	return portfolio, nil
}

// openLedgerRepo opens the canonical append-only JSONL ledger and, when a
// database path is configured, layers an embedded sqlite mirror behind it
// (sqlite is the only database driver opened). The returned close func is always
// safe to call, even when no mirror database was opened.
func openLedgerRepo(cfg *config.Config) (ledger.Repo, func() error, error) {
	jsonlRepo := ledger.NewJSONLRepo(cfg.Ledger.JSONLPath)

	if cfg.Ledger.DatabasePath == "" {
		return jsonlRepo, func() error { return nil }, nil
	}

	db, err := sqlx.Open("sqlite", cfg.Ledger.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("wheelctl: open ledger mirror db: %w", err)
	}
	sqlRepo := ledger.NewSQLRepo(db)
	if err := sqlRepo.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}

	return ledger.NewMirrorRepo(jsonlRepo, sqlRepo), db.Close, nil
}
