package api

import (
	"context"
	"net/http"

	"github.com/brianes/pitchscore/internal/domain/types"
)

// EvaluationsDependencies defines the interface for the raw dump endpoint.
type EvaluationsDependencies interface {
	EvaluationReport(ctx context.Context, totemID string) ([]types.TeamEvaluations, error)
}

// EvaluationsHandler handles raw evaluation history requests.
type EvaluationsHandler struct {
	deps EvaluationsDependencies
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps EvaluationsDependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps}
}

// HandleGetEvaluations handles GET /evaluations?totem_id=ID requests.
func (h *EvaluationsHandler) HandleGetEvaluations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_evaluations"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := totemID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrMissingTotem))
		return
	}
	report, err := h.deps.EvaluationReport(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
