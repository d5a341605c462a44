// Package api declares the diagnostic HTTP contracts and route
// registration helpers. The scoring protocol itself runs over the
// websocket channel; everything here is read-mostly operator tooling.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brianes/pitchscore/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// GetStats returns service statistics for monitoring.
	GetStats() map[string]interface{}

	// EvaluationReport returns every team of a totem with its raw
	// evaluation history, ranked.
	EvaluationReport(ctx context.Context, totemID string) ([]types.TeamEvaluations, error)

	// TeamSummaries returns the per-team coverage view of a totem, ranked.
	TeamSummaries(ctx context.Context, totemID string) ([]types.TeamSummary, error)

	// RecomputeCoverage narrows dispatched teams' expectation sets to
	// the currently active judges and reports what changed.
	RecomputeCoverage(ctx context.Context, totemID string) (types.RecomputeResult, error)
}

// Server wires HTTP routes for the diagnostic API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	evaluationsHandler *EvaluationsHandler
	summaryHandler     *SummaryHandler
	recomputeHandler   *RecomputeHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		evaluationsHandler: NewEvaluationsHandler(deps),
		summaryHandler:     NewSummaryHandler(deps),
		recomputeHandler:   NewRecomputeHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/evaluations", MetricsMiddleware(s.evaluationsHandler.HandleGetEvaluations, "evaluations"))
	mux.HandleFunc("/teams/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "teams_summary"))
	mux.HandleFunc("/coverage/recompute", MetricsMiddleware(s.recomputeHandler.HandleRecompute, "coverage_recompute"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// totemID extracts the mandatory totem_id query parameter.
func totemID(r *http.Request) string {
	return r.URL.Query().Get("totem_id")
}
