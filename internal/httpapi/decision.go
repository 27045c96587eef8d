package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/optionwheel/engine/internal/model"
)

// DecisionLatest handles GET /api/ui/decision/latest?mode={LIVE|MOCK}. A
// LIVE request against an artifact whose data source is mock or scenario
// is rejected with 400 rather than silently served, so the UI never
// mistakes synthetic data for a real decision.
func (h *Handlers) DecisionLatest(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.store.Latest()
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, "no_runs", "no evaluation run has been recorded yet")
		return
	}

	mode := strings.ToUpper(r.URL.Query().Get("mode"))
	if mode == "LIVE" && (artifact.DataSource == "mock" || artifact.DataSource == "scenario") {
		h.writeError(w, r, http.StatusBadRequest, "mock_data_in_live_mode",
			"latest artifact was produced from "+artifact.DataSource+" data, not eligible for LIVE mode")
		return
	}

	h.writeJSON(w, http.StatusOK, artifact)
}

// Universe handles GET /api/ui/universe. Band is never null: every
// SymbolEvalSummary carries one by construction (internal/pipeline.Run
// never leaves Band unset).
func (h *Handlers) Universe(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.store.Latest()
	if err != nil {
		h.writeJSON(w, http.StatusOK, UniverseResponse{Symbols: []UniverseSymbol{}, UpdatedAt: time.Now().UTC()})
		return
	}

	symbols := make([]UniverseSymbol, 0, len(artifact.Symbols))
	for _, s := range artifact.Symbols {
		row := UniverseSymbol{
			Symbol:     s.Symbol,
			Verdict:    verdictOf(s),
			Band:       string(s.Band),
			BandReason: s.BandReason,
		}
		if s.Score != nil {
			row.Score = s.Score.Composite
		}
		symbols = append(symbols, row)
	}

	h.writeJSON(w, http.StatusOK, UniverseResponse{
		Symbols:   symbols,
		UpdatedAt: artifact.GeneratedAt,
	})
}

func verdictOf(s model.SymbolEvalSummary) string {
	switch {
	case s.Band == model.BandD:
		return "REJECTED"
	case s.Capital != nil && s.Capital.SuggestedQty > 0:
		return "CANDIDATE"
	default:
		return "EVALUATED"
	}
}

// SymbolDiagnostics handles GET /api/ui/symbol-diagnostics?symbol=X.
// 200 for any named symbol: a symbol outside the latest universe is a
// normal, typed outcome (OUT_OF_SCOPE), never an error. A request with
// no symbol gets 400.
func (h *Handlers) SymbolDiagnostics(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	if symbol == "" {
		if vars := mux.Vars(r); vars["symbol"] != "" {
			symbol = strings.ToUpper(vars["symbol"])
		}
	}
	if symbol == "" {
		h.writeError(w, r, http.StatusBadRequest, "missing_symbol", "symbol query parameter is required")
		return
	}

	artifact, err := h.store.Latest()
	if err != nil {
		h.writeJSON(w, http.StatusOK, SymbolDiagnosticsResponse{
			Symbol: symbol,
			Status: "OUT_OF_SCOPE",
			Blockers: []DiagnosticsBlocker{
				{Code: "NOT_IN_UNIVERSE", Message: "no evaluation run has been recorded yet"},
			},
		})
		return
	}

	for _, s := range artifact.Symbols {
		if s.Symbol != symbol {
			continue
		}
		resp := SymbolDiagnosticsResponse{Symbol: symbol, Status: "EVALUATED", Band: string(s.Band)}
		if s.Band == model.BandD {
			resp.Blockers = []DiagnosticsBlocker{{Code: "BAND_D", Message: s.BandReason}}
		}
		h.writeJSON(w, http.StatusOK, resp)
		return
	}

	h.writeJSON(w, http.StatusOK, SymbolDiagnosticsResponse{
		Symbol: symbol,
		Status: "OUT_OF_SCOPE",
		Blockers: []DiagnosticsBlocker{
			{Code: "NOT_IN_UNIVERSE", Message: "symbol was not evaluated in the latest run"},
		},
	})
}

// EvalLatestRun handles GET /api/eval/latest-run, a diagnostics-oriented
// alias of DecisionLatest without the LIVE/MOCK gate.
func (h *Handlers) EvalLatestRun(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.store.Latest()
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, "no_runs", "no evaluation run has been recorded yet")
		return
	}
	h.writeJSON(w, http.StatusOK, artifact)
}

// EvalSymbol handles GET /api/eval/symbol/{s}: the raw per-symbol summary
// row, 404 when the symbol wasn't in the latest run (diagnostics route,
// distinct from the always-200 UI symbol-diagnostics route).
func (h *Handlers) EvalSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	artifact, err := h.store.Latest()
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, "no_runs", "no evaluation run has been recorded yet")
		return
	}
	for _, s := range artifact.Symbols {
		if s.Symbol == symbol {
			h.writeJSON(w, http.StatusOK, s)
			return
		}
	}
	h.writeError(w, r, http.StatusNotFound, "symbol_not_found", "symbol was not evaluated in the latest run")
}
