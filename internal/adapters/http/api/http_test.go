package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianes/pitchscore/internal/domain/types"
)

// fakeDeps implements Dependencies with canned responses.
type fakeDeps struct {
	report    []types.TeamEvaluations
	summaries []types.TeamSummary
	recompute types.RecomputeResult
	err       error
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func (f *fakeDeps) EvaluationReport(_ context.Context, _ string) ([]types.TeamEvaluations, error) {
	return f.report, f.err
}

func (f *fakeDeps) TeamSummaries(_ context.Context, _ string) ([]types.TeamSummary, error) {
	return f.summaries, f.err
}

func (f *fakeDeps) RecomputeCoverage(_ context.Context, _ string) (types.RecomputeResult, error) {
	return f.recompute, f.err
}

func newTestMux(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(deps).Register(mux)
	return mux
}

func TestStatsEndpoint(t *testing.T) {
	mux := newTestMux(&fakeDeps{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var stats map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["started"] != true {
		t.Errorf("expected started=true, got %v", stats["started"])
	}
}

func TestEvaluationsRequiresTotemID(t *testing.T) {
	mux := newTestMux(&fakeDeps{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/evaluations", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestEvaluationsReturnsReport(t *testing.T) {
	deps := &fakeDeps{
		report: []types.TeamEvaluations{
			{TeamID: "team-alpha", TeamName: "Alpha", FinalScore: 12},
		},
	}
	mux := newTestMux(deps)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/evaluations?totem_id=totem-1", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var report []types.TeamEvaluations
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report) != 1 || report[0].FinalScore != 12 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestSummaryReportsUpstreamError(t *testing.T) {
	mux := newTestMux(&fakeDeps{err: errors.New("db closed")})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/teams/summary?totem_id=totem-1", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "internal_error" {
		t.Errorf("expected internal_error, got %s", resp.Code)
	}
}

func TestRecomputeRejectsGet(t *testing.T) {
	mux := newTestMux(&fakeDeps{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/coverage/recompute?totem_id=totem-1", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for GET, got %d", rr.Code)
	}
}

func TestRecomputeReturnsResult(t *testing.T) {
	deps := &fakeDeps{
		recompute: types.RecomputeResult{
			TotemID:       "totem-1",
			ActiveJudges:  []string{"judge-1"},
			NarrowedTeams: []string{"team-alpha"},
			BlockingTeams: []string{},
		},
	}
	mux := newTestMux(deps)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/coverage/recompute?totem_id=totem-1", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var result types.RecomputeResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.NarrowedTeams) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestHealthzServesMetrics(t *testing.T) {
	mux := newTestMux(&fakeDeps{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Error("expected metrics exposition body")
	}
}
