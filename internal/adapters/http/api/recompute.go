package api

import (
	"context"
	"net/http"

	"github.com/brianes/pitchscore/internal/domain/types"
)

// RecomputeDependencies defines the interface for the coverage escape hatch.
type RecomputeDependencies interface {
	RecomputeCoverage(ctx context.Context, totemID string) (types.RecomputeResult, error)
}

// RecomputeHandler handles out-of-band coverage recompute requests.
type RecomputeHandler struct {
	deps RecomputeDependencies
}

// NewRecomputeHandler creates a new recompute handler.
func NewRecomputeHandler(deps RecomputeDependencies) *RecomputeHandler {
	return &RecomputeHandler{deps: deps}
}

// HandleRecompute handles POST /coverage/recompute?totem_id=ID requests.
// It mutates dispatched teams' expectation sets, so GET is rejected.
func (h *RecomputeHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.recompute_coverage"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id := totemID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrMissingTotem))
		return
	}
	result, err := h.deps.RecomputeCoverage(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
