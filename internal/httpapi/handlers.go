// Package httpapi implements the read-only HTTP surface as a thin facade
// over internal/artifactstore and internal/pipeline, using gorilla/mux
// for routing and shared writeJSON/writeError response helpers.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/optionwheel/engine/internal/artifactstore"
	"github.com/optionwheel/engine/internal/model"
)

// RunFunc triggers one evaluation run and returns its artifact. The
// caller (cmd/wheelctl) binds this to pipeline.Run with its Deps, specs
// and portfolio state already closed over.
type RunFunc func(ctx context.Context) (*model.DecisionArtifact, error)

// job is one in-flight or completed /api/ops/evaluate invocation.
type job struct {
	state string // "running" | "done" | "failed"
	runID string
	err   string
}

// Handlers holds every collaborator the read-only routes need: the
// artifact store for every GET route, and an optional RunFunc for
// POST /api/ops/evaluate. RunFunc is nil in a pure read-only deployment,
// in which case evaluate always reports not accepted.
type Handlers struct {
	store          *artifactstore.Store
	runFn          RunFunc
	cadence        time.Duration
	cooldown       time.Duration

	mu             sync.Mutex
	jobs           map[string]*job
	lastEvaluateAt time.Time
}

// NewHandlers builds a Handlers bound to store, with runFn wired for the
// evaluate endpoint and cadence/cooldown governing /api/ops/status and
// the minimum spacing between accepted evaluate requests.
func NewHandlers(store *artifactstore.Store, runFn RunFunc, cadence, cooldown time.Duration) *Handlers {
	if cadence <= 0 {
		cadence = 15 * time.Minute
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &Handlers{
		store:    store,
		runFn:    runFn,
		cadence:  cadence,
		cooldown: cooldown,
		jobs:     map[string]*job{},
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value(ctxRequestID).(string)
	if requestID == "" {
		requestID = "unknown"
	}
	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	})
}

// NotFound handles unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "the requested endpoint does not exist")
}

// Health handles GET /api/system/health. Never returns 500: a store
// that can't be reached is reported as unhealthy in the 200 body, not as
// a transport failure, since the health check's whole purpose is to be
// reachable when everything else is failing.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	storeWritable := h.probeStoreWritable()
	if !storeWritable {
		status = "degraded"
	}

	var ageSec *float64
	if artifact, err := h.store.Latest(); err == nil {
		age := time.Since(artifact.GeneratedAt).Seconds()
		ageSec = &age
	}

	h.mu.Lock()
	inFlight := 0
	for _, j := range h.jobs {
		if j.state == "running" {
			inFlight++
		}
	}
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Timestamp:     time.Now().UTC(),
		StoreWritable: storeWritable,
		LastRunAgeSec: ageSec,
		JobsInFlight:  inFlight,
	})
}

// probeStoreWritable touches a marker file in the store directory rather
// than trusting Latest()'s error, since "no runs yet" and "can't write
// here" must not be conflated.
func (h *Handlers) probeStoreWritable() bool {
	if err := os.MkdirAll(h.store.Dir(), 0o755); err != nil {
		return false
	}
	marker := filepath.Join(h.store.Dir(), ".health_probe")
	if err := os.WriteFile(marker, []byte("ok"), 0o644); err != nil {
		return false
	}
	os.Remove(marker)
	return true
}

// MarketStatus handles GET /api/market-status. market_phase is derived
// from wall-clock time against US equity-market hours (9:30-16:00
// America/New_York, Mon-Fri); it is a scheduling hint, not a trading-
// calendar service, and never reports the literal "UNKNOWN".
func (h *Handlers) MarketStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	phase := marketPhase(now)

	var lastEvaluated *time.Time
	evaluationEmitted := false
	if artifact, err := h.store.Latest(); err == nil {
		t := artifact.GeneratedAt
		lastEvaluated = &t
		evaluationEmitted = true
	}

	resp := MarketStatusResponse{
		MarketPhase:         phase,
		LastMarketCheck:     now,
		LastEvaluatedAt:      lastEvaluated,
		EvaluationAttempted: evaluationEmitted,
		EvaluationEmitted:   evaluationEmitted,
	}
	if phase != "OPEN" {
		resp.SkipReason = "market closed"
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func marketPhase(t time.Time) string {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return "CLOSED"
	}
	minutesOfDay := local.Hour()*60 + local.Minute()
	switch {
	case minutesOfDay < 9*60+30:
		return "PRE_MARKET"
	case minutesOfDay >= 16*60:
		return "AFTER_HOURS"
	default:
		return "OPEN"
	}
}

// OpsStatus handles GET /api/ops/status.
func (h *Handlers) OpsStatus(w http.ResponseWriter, r *http.Request) {
	resp := OpsStatusResponse{
		CadenceMinutes:  int(h.cadence / time.Minute),
		BlockersSummary: map[string]int{},
	}

	artifact, err := h.store.Latest()
	if err != nil {
		resp.LastRunReason = "no runs recorded yet"
		h.writeJSON(w, http.StatusOK, resp)
		return
	}

	lastRun := artifact.GeneratedAt
	resp.LastRunAt = &lastRun
	next := lastRun.Add(h.cadence)
	resp.NextRunAt = &next
	resp.SymbolsEvaluated = len(artifact.Symbols)
	resp.LastRunReason = "scheduled"
	if artifact.PartialRun {
		resp.LastRunReason = "partial: deadline exceeded"
	}

	for _, s := range artifact.Symbols {
		if s.Capital != nil && s.Capital.SuggestedQty > 0 {
			resp.TradesFound++
		}
		resp.BlockersSummary[string(s.Band)]++
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type contextKey string

const ctxRequestID contextKey = "request_id"
