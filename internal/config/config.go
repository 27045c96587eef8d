// Package config loads the engine's run configuration from YAML into a
// plain struct tree with yaml tags, read with os.ReadFile and
// yaml.Unmarshal.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full run configuration for one wheelctl invocation.
type Config struct {
	Mode         string             `yaml:"mode"` // "DRY_RUN" | "LIVE"
	Universe     UniverseConfig     `yaml:"universe"`
	Providers    ProvidersConfig    `yaml:"providers"`
	Stage1       Stage1Config       `yaml:"stage1"`
	Dependencies DependenciesConfig `yaml:"dependencies"`
	Eligibility  EligibilityConfig  `yaml:"eligibility"`
	Contracts    ContractsConfig    `yaml:"contracts"`
	Scoring      ScoringConfig      `yaml:"scoring"`
	Guardrails   GuardrailsConfig   `yaml:"guardrails"`
	UniverseGates UniverseGatesConfig `yaml:"universe_gates"`
	Drift        DriftConfig        `yaml:"drift"`
	Freeze       FreezeConfig       `yaml:"freeze"`
	Artifact     ArtifactConfig     `yaml:"artifact"`
	Run          RunConfig          `yaml:"run"`
	Capital      CapitalConfig      `yaml:"capital"`
	Ledger       LedgerConfig       `yaml:"ledger"`
	Alerts       AlertsConfig       `yaml:"alerts"`
	Server       ServerConfig       `yaml:"server"`
	Cache        CacheConfig        `yaml:"cache"`
}

// CapitalConfig holds the capital-sizing inputs the portfolio sizing
// hint and the guardrail exposure math both read from.
type CapitalConfig struct {
	TotalCapital float64 `yaml:"total_capital"`
}

// FieldPolicy names the required/optional/stale-threshold policy for one
// instrument type: an explicit config object per instrument type rather
// than scattered comments.
type FieldPolicy struct {
	Required            []string `yaml:"required"`
	Optional            []string `yaml:"optional"`
	StaleThresholdDays  int      `yaml:"stale_threshold_days"`
}

// DependenciesConfig holds the data-dependencies checker's field policy
// per instrument type.
type DependenciesConfig struct {
	Equity FieldPolicy `yaml:"equity"`
	ETF    FieldPolicy `yaml:"etf"`
	Index  FieldPolicy `yaml:"index"`
}

// EligibilityConfig holds the eligibility gate thresholds.
type EligibilityConfig struct {
	MaxATRPct                  float64 `yaml:"max_atr_pct"`
	CSPRSIMin                  float64 `yaml:"csp_rsi_min"`
	CSPRSIMax                  float64 `yaml:"csp_rsi_max"`
	CCRSIMin                   float64 `yaml:"cc_rsi_min"`
	CCRSIMax                   float64 `yaml:"cc_rsi_max"`
	SupportNearPct             float64 `yaml:"support_near_pct"`
	ResistNearPct              float64 `yaml:"resist_near_pct"`
	MaxSRTolPct                float64 `yaml:"max_s_r_tol_pct"`
	MinCandles                 int     `yaml:"min_candles"`
	EnableIntradayConfirmation bool    `yaml:"enable_intraday_confirmation"`
	IntradayMinRows            int     `yaml:"intraday_min_rows"`
	DTESoftExitThreshold       int     `yaml:"dte_soft_exit_threshold"`
	DTEHardExitThreshold       int     `yaml:"dte_hard_exit_threshold"`
}

// DriftConfig holds the drift detector's thresholds.
type DriftConfig struct {
	PriceDriftWarnPct float64 `yaml:"price_drift_warn_pct"`
	IVDriftAbs        float64 `yaml:"iv_drift_abs"`
	IVDriftRel        float64 `yaml:"iv_drift_rel"`
	SpreadWidenedMult float64 `yaml:"spread_widened_mult"`
	SpreadMidMax      float64 `yaml:"spread_mid_max"`
}

type UniverseConfig struct {
	Symbols         []string       `yaml:"symbols"`
	MinPrice        float64        `yaml:"min_price"`
	MinAvgVolume20D float64        `yaml:"min_avg_volume_20d"`
	Holdings        map[string]int `yaml:"holdings"` // symbol -> shares held, enables CC evaluation
}

type ProviderEndpoint struct {
	Name        string        `yaml:"name"`
	BaseURL     string        `yaml:"base_url"`
	RPS         float64       `yaml:"rps"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

type ProvidersConfig struct {
	EquityQuote ProviderEndpoint `yaml:"equity_quote"`
	OptionChain ProviderEndpoint `yaml:"option_chain"`
	Dailies     ProviderEndpoint `yaml:"dailies"`
	Intraday    ProviderEndpoint `yaml:"intraday"`
	CoreStats   ProviderEndpoint `yaml:"core_stats"`
}

type Stage1Config struct {
	RequireBidAsk bool `yaml:"require_bid_ask"`
}

type ContractsConfig struct {
	CSPDeltaMin      float64 `yaml:"csp_delta_min"`
	CSPDeltaMax      float64 `yaml:"csp_delta_max"`
	CCDeltaMin       float64 `yaml:"cc_delta_min"`
	CCDeltaMax       float64 `yaml:"cc_delta_max"`
	MinOpenInterest  float64 `yaml:"min_open_interest"`
	MaxSpreadPct     float64 `yaml:"max_spread_pct"`
	MinDTE           int     `yaml:"min_dte"`
	MaxDTE           int     `yaml:"max_dte"`
}

type ScoringConfig struct {
	Weights map[string]float64 `yaml:"weights"`
	BandThresholds struct {
		A float64 `yaml:"a"`
		B float64 `yaml:"b"`
		C float64 `yaml:"c"`
	} `yaml:"band_thresholds"`
}

type GuardrailsConfig struct {
	MaxCapitalPerSymbolPct    float64 `yaml:"max_capital_per_symbol_pct"`
	MaxConcurrentPositions    int     `yaml:"max_concurrent_positions"`
	MaxSectorConcentrationPct float64 `yaml:"max_sector_concentration_pct"`

	TargetMaxExposurePct      float64 `yaml:"target_max_exposure_pct"`
	CriticalExposurePct       float64 `yaml:"critical_exposure_pct"`
	MaxSymbolConcentrationPct float64 `yaml:"max_symbol_concentration_pct"`
	CriticalSymbolConcentrationPct float64 `yaml:"critical_symbol_concentration_pct"`
	AssignmentPressureThreshold int   `yaml:"assignment_pressure_threshold"`
}

// UniverseGatesConfig holds the cheap-first universe pre-filter thresholds.
type UniverseGatesConfig struct {
	Enabled           bool    `yaml:"enabled"`
	MinPrice          float64 `yaml:"min_price"`
	MaxPrice          float64 `yaml:"max_price"`
	MaxSpreadPct      float64 `yaml:"max_spread_pct"`
	MinAvgStockVolume float64 `yaml:"min_avg_stock_volume"`
	MaxOptionSpreadPct float64 `yaml:"max_option_spread_pct"`
	MinOptionOI       float64 `yaml:"min_option_oi"`
	MinOptionVolume   float64 `yaml:"min_option_volume"`
	DisabledSymbols   []string `yaml:"disabled_symbols"`
}

type FreezeConfig struct {
	Enabled bool     `yaml:"enabled"`
	Fields  []string `yaml:"fields"` // dotted paths into Config hashed for drift detection
}

type ArtifactConfig struct {
	OutputDir string `yaml:"output_dir"`
}

type RunConfig struct {
	MaxWorkers int           `yaml:"max_workers"` // 0 -> runtime.NumCPU()
	Deadline   time.Duration `yaml:"deadline"`
	DataSource string        `yaml:"data_source"` // "live" | "mock" | "scenario"; defaults to "live"
}

// LedgerConfig points at the capital ledger's storage: the append-only
// JSONL file is always written and is the source of truth; DatabasePath
// (default "data/ledger.db") names the embedded SQLite store that mirrors
// every entry for ad-hoc querying.
type LedgerConfig struct {
	JSONLPath    string `yaml:"jsonl_path"`
	DatabasePath string `yaml:"database_path"`
}

// CacheConfig configures the same-day quote/chain cache layer. RedisAddr
// left blank means Redis mirroring is disabled and only the file cache
// (always on) is used.
type CacheConfig struct {
	FileCacheDir string `yaml:"file_cache_dir"`
	RedisAddr    string `yaml:"redis_addr"`
}

// AlertsConfig holds the optional Discord/Slack webhook URLs the
// dispatcher posts candidate and health events to. Any subset may be
// left blank.
type AlertsConfig struct {
	CriticalWebhook string `yaml:"critical_webhook"`
	SignalWebhook   string `yaml:"signal_webhook"`
	HealthWebhook   string `yaml:"health_webhook"`
	DailyWebhook    string `yaml:"daily_webhook"`
	StatePath       string `yaml:"state_path"`
}

// ServerConfig holds the read-only HTTP surface's bind address and
// scheduling cadence.
type ServerConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Cadence  time.Duration `yaml:"cadence"`
	Cooldown time.Duration `yaml:"cooldown"`
}

// Load reads and parses a YAML config file, applying zero-value defaults
// afterward.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = "DRY_RUN"
	}
	if cfg.Run.MaxWorkers <= 0 {
		cfg.Run.MaxWorkers = runtime.NumCPU()
	}
	if cfg.Run.Deadline <= 0 {
		cfg.Run.Deadline = 5 * time.Minute
	}
	if cfg.Artifact.OutputDir == "" {
		cfg.Artifact.OutputDir = "artifacts"
	}
	if len(cfg.Freeze.Fields) == 0 {
		cfg.Freeze.Fields = []string{
			"contracts.csp_delta_min", "contracts.csp_delta_max",
			"contracts.cc_delta_min", "contracts.cc_delta_max",
			"contracts.min_open_interest", "contracts.max_spread_pct",
			"contracts.min_dte", "contracts.max_dte",
			"guardrails.max_capital_per_symbol_pct",
			"guardrails.max_concurrent_positions",
			"providers.equity_quote.base_url", "providers.option_chain.base_url",
			"scoring.weights",
			"eligibility.csp_rsi_min", "eligibility.csp_rsi_max",
			"eligibility.cc_rsi_min", "eligibility.cc_rsi_max",
			"eligibility.max_atr_pct", "eligibility.support_near_pct", "eligibility.resist_near_pct",
		}
	}

	if cfg.Ledger.JSONLPath == "" {
		cfg.Ledger.JSONLPath = "data/capital_ledger.jsonl"
	}
	if cfg.Ledger.DatabasePath == "" {
		cfg.Ledger.DatabasePath = "data/ledger.db"
	}
	if cfg.Cache.FileCacheDir == "" {
		cfg.Cache.FileCacheDir = "data/cache"
	}
	if cfg.Alerts.StatePath == "" {
		cfg.Alerts.StatePath = "data/alerts_state.json"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.Cadence <= 0 {
		cfg.Server.Cadence = 15 * time.Minute
	}
	if cfg.Server.Cooldown <= 0 {
		cfg.Server.Cooldown = 60 * time.Second
	}

	if cfg.Dependencies.Equity.StaleThresholdDays <= 0 {
		cfg.Dependencies.Equity = FieldPolicy{
			Required:           []string{"price", "iv_rank", "bid", "ask", "volume", "quote_date"},
			StaleThresholdDays: 1,
		}
	}
	if cfg.Dependencies.ETF.StaleThresholdDays <= 0 {
		cfg.Dependencies.ETF = FieldPolicy{
			Required:           []string{"price", "iv_rank", "volume", "quote_date"},
			StaleThresholdDays: 1,
		}
	}
	if cfg.Dependencies.Index.StaleThresholdDays <= 0 {
		cfg.Dependencies.Index = FieldPolicy{
			Required:           []string{"price", "iv_rank", "volume", "quote_date"},
			StaleThresholdDays: 1,
		}
	}

	if cfg.Eligibility.CSPRSIMax <= 0 {
		cfg.Eligibility = EligibilityConfig{
			MaxATRPct:            0.06,
			CSPRSIMin:            30,
			CSPRSIMax:            65,
			CCRSIMin:             35,
			CCRSIMax:             70,
			SupportNearPct:       0.03,
			ResistNearPct:        0.03,
			MaxSRTolPct:          0.02,
			MinCandles:           60,
			IntradayMinRows:      30,
			DTESoftExitThreshold: 14,
			DTEHardExitThreshold: 7,
		}
	}

	if cfg.Guardrails.TargetMaxExposurePct <= 0 {
		cfg.Guardrails.TargetMaxExposurePct = 0.70
	}
	if cfg.Guardrails.CriticalExposurePct <= 0 {
		cfg.Guardrails.CriticalExposurePct = 0.90
	}
	if cfg.Guardrails.MaxSymbolConcentrationPct <= 0 {
		cfg.Guardrails.MaxSymbolConcentrationPct = 0.15
	}
	if cfg.Guardrails.CriticalSymbolConcentrationPct <= 0 {
		cfg.Guardrails.CriticalSymbolConcentrationPct = 0.25
	}
	if cfg.Guardrails.AssignmentPressureThreshold <= 0 {
		cfg.Guardrails.AssignmentPressureThreshold = 3
	}

	if cfg.UniverseGates.MaxPrice <= 0 {
		cfg.UniverseGates.MinPrice = 10
		cfg.UniverseGates.MaxPrice = 1000
		cfg.UniverseGates.MaxSpreadPct = 0.01
		cfg.UniverseGates.MinAvgStockVolume = 500_000
		cfg.UniverseGates.MaxOptionSpreadPct = 0.10
		cfg.UniverseGates.MinOptionOI = 100
		cfg.UniverseGates.MinOptionVolume = 10
	}

	if cfg.Capital.TotalCapital <= 0 {
		cfg.Capital.TotalCapital = 100_000
	}

	if cfg.Drift.PriceDriftWarnPct <= 0 {
		cfg.Drift = DriftConfig{
			PriceDriftWarnPct: 0.03,
			IVDriftAbs:        5.0,
			IVDriftRel:        0.25,
			SpreadWidenedMult: 2.0,
			SpreadMidMax:      0.15,
		}
	}
}
