package api

import (
	"context"
	"net/http"

	"github.com/brianes/pitchscore/internal/domain/types"
)

// SummaryDependencies defines the interface for the coverage view.
type SummaryDependencies interface {
	TeamSummaries(ctx context.Context, totemID string) ([]types.TeamSummary, error)
}

// SummaryHandler handles per-team coverage summary requests.
type SummaryHandler struct {
	deps SummaryDependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleGetSummary handles GET /teams/summary?totem_id=ID requests.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := totemID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrMissingTotem))
		return
	}
	summaries, err := h.deps.TeamSummaries(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}
