// contracts.go names the wire shapes the handlers in this package
// serialize, kept separate from the handlers themselves the way the
// teacher separates internal/http's response structs from
// internal/interfaces/http/handlers.
package httpapi

import "time"

// ErrorResponse is the standard error body for any non-2xx response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// UniverseSymbol is one row of GET /api/ui/universe.
type UniverseSymbol struct {
	Symbol        string  `json:"symbol"`
	Verdict       string  `json:"verdict"`
	Score         float64 `json:"score"`
	Band          string  `json:"band"`
	BandReason    string  `json:"band_reason"`
	PrimaryReason string  `json:"primary_reason,omitempty"`
}

// UniverseResponse is the body of GET /api/ui/universe.
type UniverseResponse struct {
	Symbols   []UniverseSymbol `json:"symbols"`
	UpdatedAt time.Time        `json:"updated_at"`
	Error     *string          `json:"error"`
}

// DiagnosticsBlocker is one reason a symbol can't be evaluated or didn't
// pass, attached to symbol-diagnostics.
type DiagnosticsBlocker struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SymbolDiagnosticsResponse is the body of GET /api/ui/symbol-diagnostics.
type SymbolDiagnosticsResponse struct {
	Symbol   string                `json:"symbol"`
	Status   string                `json:"status"`
	Band     string                `json:"band,omitempty"`
	Blockers []DiagnosticsBlocker  `json:"blockers"`
}

// MarketStatusResponse is the body of GET /api/market-status.
type MarketStatusResponse struct {
	MarketPhase        string     `json:"market_phase"`
	LastMarketCheck    time.Time  `json:"last_market_check"`
	LastEvaluatedAt    *time.Time `json:"last_evaluated_at"`
	EvaluationAttempted bool      `json:"evaluation_attempted"`
	EvaluationEmitted  bool       `json:"evaluation_emitted"`
	SkipReason         string     `json:"skip_reason,omitempty"`
}

// OpsStatusResponse is the body of GET /api/ops/status.
type OpsStatusResponse struct {
	LastRunAt        *time.Time `json:"last_run_at"`
	NextRunAt        *time.Time `json:"next_run_at"`
	CadenceMinutes   int        `json:"cadence_minutes"`
	LastRunReason    string     `json:"last_run_reason"`
	SymbolsEvaluated int        `json:"symbols_evaluated"`
	TradesFound      int        `json:"trades_found"`
	BlockersSummary  map[string]int `json:"blockers_summary"`
}

// EvaluateResponse is the body of POST /api/ops/evaluate.
type EvaluateResponse struct {
	Accepted               bool   `json:"accepted"`
	JobID                  string `json:"job_id,omitempty"`
	CooldownSecondsRemaining int  `json:"cooldown_seconds_remaining,omitempty"`
}

// JobStatusResponse is the body of GET /api/ops/evaluate/{id}.
type JobStatusResponse struct {
	State string `json:"state"` // "running" | "done" | "failed" | "not_found"
	RunID string `json:"run_id,omitempty"`
	Error string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /api/system/health.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	StoreWritable bool      `json:"store_writable"`
	LastRunAgeSec *float64  `json:"last_run_age_seconds"`
	JobsInFlight  int       `json:"jobs_in_flight"`
}
