package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Evaluate handles POST /api/ops/evaluate: triggers an evaluation run in
// the background and returns immediately with a job id, or reports the
// remaining cooldown when called again too soon. Never blocks the
// request on the run itself.
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	if h.runFn == nil {
		h.writeJSON(w, http.StatusOK, EvaluateResponse{Accepted: false})
		return
	}

	h.mu.Lock()
	elapsed := time.Since(h.lastEvaluateAt)
	if h.lastEvaluateAt.IsZero() {
		elapsed = h.cooldown
	}
	if elapsed < h.cooldown {
		remaining := int((h.cooldown - elapsed).Seconds())
		h.mu.Unlock()
		h.writeJSON(w, http.StatusOK, EvaluateResponse{Accepted: false, CooldownSecondsRemaining: remaining})
		return
	}
	h.lastEvaluateAt = time.Now()
	jobID := uuid.New().String()
	h.jobs[jobID] = &job{state: "running"}
	h.mu.Unlock()

	go h.runJob(jobID)

	h.writeJSON(w, http.StatusAccepted, EvaluateResponse{Accepted: true, JobID: jobID})
}

func (h *Handlers) runJob(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	artifact, err := h.runFn(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	j, ok := h.jobs[jobID]
	if !ok {
		return
	}
	if err != nil {
		j.state = "failed"
		j.err = err.Error()
		return
	}
	j.state = "done"
	j.runID = artifact.RunID
}

// EvaluateStatus handles GET /api/ops/evaluate/{id}. An unknown job id is
// reported as 200 {state:"not_found"}, never 404 — polling a job that
// already rotated out of memory is a normal outcome, not a client error.
func (h *Handlers) EvaluateStatus(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	h.mu.Lock()
	j, ok := h.jobs[jobID]
	h.mu.Unlock()

	if !ok {
		h.writeJSON(w, http.StatusOK, JobStatusResponse{State: "not_found"})
		return
	}
	h.writeJSON(w, http.StatusOK, JobStatusResponse{State: j.state, RunID: j.runID, Error: j.err})
}
