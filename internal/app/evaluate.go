package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/brianes/pitchscore/internal/adapters/repository"
	"github.com/brianes/pitchscore/internal/adapters/ws"
	"github.com/brianes/pitchscore/internal/domain/coverage"
	"github.com/brianes/pitchscore/internal/domain/model"
	"github.com/brianes/pitchscore/internal/domain/ranking"
	"github.com/brianes/pitchscore/pkg/logger"
	"github.com/brianes/pitchscore/pkg/metrics"
)

// handleTeamSend dispatches a team to the currently connected judges.
// Only one team per totem may be in flight: a previously dispatched
// team whose coverage is still open blocks new dispatches until every
// active judge it expects has responded.
func (s *Service) handleTeamSend(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.TeamSendRequest
	if !decode(s, ctx, ws.EventTeamSend, data, &req) {
		return
	}

	totem, err := s.store.GetTotem(ctx, req.TotemID)
	if err != nil {
		sess.Send(ws.EventTeamSentError, ws.ErrorPayload{Error: msgTotemNotFound})
		return
	}
	team, err := s.store.GetTeam(ctx, req.TeamID)
	if err != nil || team.TotemID != req.TotemID {
		sess.Send(ws.EventTeamSentError, ws.ErrorPayload{Error: msgTeamNotFound})
		return
	}

	active := s.broadcaster.ActiveJudges(req.TotemID)
	if len(active) == 0 {
		metrics.RecordDispatchRejection()
		sess.Send(ws.EventTeamSentError, ws.ErrorPayload{Error: msgNoJudges})
		return
	}

	// Heal stale expectation sets first, then gate. A judge who left
	// mid-evaluation stops blocking here.
	_, blocking, err := s.narrowDispatched(ctx, req.TotemID, active)
	if err != nil {
		s.logger.Error(ctx, "coverage recompute", logger.String("totemID", req.TotemID), logger.Error(err))
		sess.Send(ws.EventTeamSentError, ws.ErrorPayload{Error: msgInternal})
		return
	}
	if len(blocking) > 0 {
		metrics.RecordDispatchRejection()
		// Name the blocking teams so the operator can act.
		names := make([]string, 0, len(blocking))
		for _, id := range blocking {
			t, err := s.store.GetTeam(ctx, id)
			if err != nil {
				continue
			}
			names = append(names, t.Name)
			s.broadcastEvalStatus(t, active)
		}
		sess.Send(ws.EventTeamSentError, ws.ErrorPayload{
			Error: msgEvaluationRunning + ": " + strings.Join(names, ", "),
		})
		return
	}

	var dispatched model.Team
	err = s.teamQueue().Do(ctx, team.ID, func(ctx context.Context) error {
		t, err := s.store.GetTeam(ctx, team.ID)
		if err != nil {
			return err
		}
		t.SentToJudges = true
		t.JudgesExpected = append([]string{}, active...)
		t.JudgesResponded = []string{}
		dispatched = t
		return s.store.SaveTeam(ctx, t)
	})
	if err != nil {
		s.logger.Error(ctx, "dispatch team", logger.String("teamID", team.ID), logger.Error(err))
		sess.Send(ws.EventTeamSentError, ws.ErrorPayload{Error: msgInternal})
		return
	}

	totem.ActiveTeam = dispatched.ID
	totem.Status = model.TotemEvaluating
	if err := s.store.SaveTotem(ctx, totem); err != nil {
		s.logger.Error(ctx, "save totem", logger.String("totemID", totem.ID), logger.Error(err))
	}

	s.broadcaster.ToRoom(req.TotemID, ws.EventTeamReceived, ws.TeamEnvelopePayload{Team: dispatched})
	sess.Send(ws.EventTeamSentSuccess, ws.TeamEnvelopePayload{Team: dispatched})
	s.broadcastEvalStatus(dispatched, active)

	s.logger.Info(ctx, "team dispatched",
		logger.String("teamID", dispatched.ID),
		logger.Int("judges", len(active)),
	)
}

// handleSubmitBatch records one judge's scores across criteria for one
// team, recomputes the team's aggregates and closes the dispatch when
// every active expected judge has responded.
func (s *Service) handleSubmitBatch(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.SubmitBatchRequest
	if !decode(s, ctx, ws.EventSubmitBatch, data, &req) {
		return
	}
	if req.TeamID == "" || req.JudgeID == "" || len(req.Evaluations) == 0 {
		sess.Send(ws.EventEvalError, ws.ErrorPayload{Error: msgInvalidScore})
		return
	}
	for _, e := range req.Evaluations {
		if !model.ValidScore(e.Score) {
			sess.Send(ws.EventEvalError, ws.ErrorPayload{Error: msgInvalidScore})
			return
		}
	}

	s.mu.RLock()
	deduper := s.deduper
	s.mu.RUnlock()

	if req.SubmissionID != "" && deduper.SeenAndRecord(ctx, req.SubmissionID) {
		metrics.RecordDuplicateBatch()
		s.logger.Warn(ctx, "duplicate batch dropped",
			logger.String("submissionID", req.SubmissionID),
			logger.String("judgeID", req.JudgeID),
		)
		// Re-ack so the retrying client stops resending.
		if t, err := s.store.GetTeam(ctx, req.TeamID); err == nil {
			rep := coverage.Evaluate(t.JudgesExpected, t.JudgesResponded, s.broadcaster.ActiveJudges(t.TotemID))
			sess.Send(ws.EventEvalComplete, ws.EvalCompletePayload{
				TeamID:            t.ID,
				JudgeID:           req.JudgeID,
				FinalScore:        t.FinalScore,
				TeamName:          t.Name,
				AllJudgesComplete: t.SentToJudges && rep.Complete(),
			})
		}
		return
	}

	now := time.Now()
	for _, e := range req.Evaluations {
		err := s.store.AppendEvaluation(ctx, model.Evaluation{
			TeamID:      req.TeamID,
			JudgeID:     req.JudgeID,
			CriterionID: e.CriterionID,
			Score:       e.Score,
			Timestamp:   now,
		})
		if err != nil {
			s.logger.Error(ctx, "append evaluation", logger.String("teamID", req.TeamID), logger.Error(err))
			if req.SubmissionID != "" {
				deduper.Unrecord(ctx, req.SubmissionID)
			}
			sess.Send(ws.EventEvalError, ws.ErrorPayload{Error: msgInternal})
			return
		}
		metrics.RecordEvaluation()
	}

	var (
		updated model.Team
		rep     coverage.Report
	)
	err := s.teamQueue().Do(ctx, req.TeamID, func(ctx context.Context) error {
		t, err := s.store.GetTeam(ctx, req.TeamID)
		if err != nil {
			return err
		}
		if err := s.recomputeScores(ctx, &t); err != nil {
			return err
		}
		t.JudgesResponded = coverage.Add(t.JudgesResponded, req.JudgeID)
		t.EvaluationsCompleted++
		rep = coverage.Evaluate(t.JudgesExpected, t.JudgesResponded, s.broadcaster.ActiveJudges(t.TotemID))
		updated = t
		return s.store.SaveTeam(ctx, t)
	})
	if err != nil {
		msg := msgInternal
		if errors.Is(err, repository.ErrNotFound) {
			msg = msgTeamNotFound
		}
		sess.Send(ws.EventEvalError, ws.ErrorPayload{Error: msg})
		return
	}

	allComplete := updated.SentToJudges && rep.Complete()
	if allComplete {
		s.closeDispatch(ctx, updated)
	}

	s.publishRanking(ctx, updated)
	s.broadcastEvalStatus(updated, s.broadcaster.ActiveJudges(updated.TotemID))

	sess.Send(ws.EventEvalComplete, ws.EvalCompletePayload{
		TeamID:            updated.ID,
		JudgeID:           req.JudgeID,
		FinalScore:        updated.FinalScore,
		TeamName:          updated.Name,
		AllJudgesComplete: allComplete,
	})

	s.logger.Info(ctx, "batch recorded",
		logger.String("teamID", updated.ID),
		logger.String("judgeID", req.JudgeID),
		logger.Int("criteria", len(req.Evaluations)),
		logger.Int("finalScore", updated.FinalScore),
	)
}

// handleSubmit is the legacy single-criterion path. It updates the
// aggregates but never counts toward batch coverage.
func (s *Service) handleSubmit(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.SubmitRequest
	if !decode(s, ctx, ws.EventSubmit, data, &req) {
		return
	}
	if !model.ValidScore(req.Score) {
		sess.Send(ws.EventEvalError, ws.ErrorPayload{Error: msgInvalidScore})
		return
	}
	if _, err := s.store.GetTeam(ctx, req.TeamID); err != nil {
		sess.Send(ws.EventEvalError, ws.ErrorPayload{Error: msgTeamNotFound})
		return
	}

	err := s.store.AppendEvaluation(ctx, model.Evaluation{
		TeamID:      req.TeamID,
		JudgeID:     req.JudgeID,
		CriterionID: req.CriterionID,
		Score:       req.Score,
		Timestamp:   time.Now(),
	})
	if err != nil {
		s.logger.Error(ctx, "append evaluation", logger.String("teamID", req.TeamID), logger.Error(err))
		sess.Send(ws.EventEvalError, ws.ErrorPayload{Error: msgInternal})
		return
	}
	metrics.RecordEvaluation()

	var updated model.Team
	err = s.teamQueue().Do(ctx, req.TeamID, func(ctx context.Context) error {
		t, err := s.store.GetTeam(ctx, req.TeamID)
		if err != nil {
			return err
		}
		if err := s.recomputeCriterion(ctx, &t, req.CriterionID); err != nil {
			return err
		}
		updated = t
		return s.store.SaveTeam(ctx, t)
	})
	if err != nil {
		sess.Send(ws.EventEvalError, ws.ErrorPayload{Error: msgInternal})
		return
	}

	s.publishRanking(ctx, updated)
	sess.Send(ws.EventEvalReceived, ws.EvalReceivedPayload{
		TeamID:      req.TeamID,
		CriterionID: req.CriterionID,
		JudgeID:     req.JudgeID,
	})
}

// recomputeScores rebuilds the team's per-criterion sums and final
// score from its full evaluation history. Every stored row counts, so
// a resubmitted criterion adds to the total rather than replacing it.
func (s *Service) recomputeScores(ctx context.Context, t *model.Team) error {
	evals, err := s.store.EvaluationsByTeam(ctx, t.ID)
	if err != nil {
		return err
	}
	scores := make(map[string]int)
	for _, ev := range evals {
		scores[ev.CriterionID] += ev.Score
	}
	final := 0
	for _, v := range scores {
		final += v
	}
	t.Scores = scores
	t.FinalScore = final
	return nil
}

// recomputeCriterion rebuilds one criterion's sum from its evaluation
// rows and refreshes the final score from the scores map. Used by the
// single-criterion path, where re-scanning the whole history would be
// wasted work.
func (s *Service) recomputeCriterion(ctx context.Context, t *model.Team, criterionID string) error {
	rows, err := s.store.EvaluationsByTeamCriterion(ctx, t.ID, criterionID)
	if err != nil {
		return err
	}
	sum := 0
	for _, ev := range rows {
		sum += ev.Score
	}
	if t.Scores == nil {
		t.Scores = make(map[string]int)
	}
	t.Scores[criterionID] = sum
	final := 0
	for _, v := range t.Scores {
		final += v
	}
	t.FinalScore = final
	return nil
}

// closeDispatch returns the totem to the active state once the team's
// coverage is complete.
func (s *Service) closeDispatch(ctx context.Context, team model.Team) {
	totem, err := s.store.GetTotem(ctx, team.TotemID)
	if err != nil {
		return
	}
	if totem.Status == model.TotemEvaluating && totem.ActiveTeam == team.ID {
		totem.Status = model.TotemActive
		if err := s.store.SaveTotem(ctx, totem); err != nil {
			s.logger.Error(ctx, "save totem", logger.String("totemID", totem.ID), logger.Error(err))
		}
	}
	s.logger.Info(ctx, "evaluation complete", logger.String("teamID", team.ID))
}

// publishRanking pushes the updated team and the totem's full ranking
// to the room, plus a global copy for clients that never joined one.
func (s *Service) publishRanking(ctx context.Context, team model.Team) {
	s.broadcaster.ToRoom(team.TotemID, ws.EventTeamUpdated, team)

	teams, err := s.store.TeamsByTotem(ctx, team.TotemID)
	if err != nil {
		s.logger.Error(ctx, "list teams", logger.String("totemID", team.TotemID), logger.Error(err))
		return
	}
	ranking.Sort(teams)
	s.broadcaster.ToRoom(team.TotemID, ws.EventResultsUpdated, ws.ResultsPayload{Teams: teams})
	s.broadcaster.ToAll(ws.EventResultsUpdated, ws.ResultsPayload{Teams: teams})
}

func (s *Service) broadcastEvalStatus(team model.Team, active []string) {
	rep := coverage.Evaluate(team.JudgesExpected, team.JudgesResponded, active)
	s.broadcaster.ToRoom(team.TotemID, ws.EventEvalStatus, ws.EvalStatusPayload{
		TeamID:          team.ID,
		TeamName:        team.Name,
		JudgesExpected:  team.JudgesExpected,
		JudgesResponded: team.JudgesResponded,
		PendingJudges:   rep.Pending,
		AllComplete:     team.SentToJudges && rep.Complete(),
	})
}

// narrowDispatched recomputes every dispatched team's coverage against
// the active judges, returning which teams were narrowed and which
// still block the dispatch gate. The narrowed sets are persisted only
// when the active subset of responded covers the active subset of
// expected; a team still awaiting scores keeps its stored sets intact,
// so an expected judge who returns later still sees it as pending.
func (s *Service) narrowDispatched(ctx context.Context, totemID string, active []string) (narrowed, blocking []string, err error) {
	dispatched, err := s.store.DispatchedTeams(ctx, totemID)
	if err != nil {
		return nil, nil, err
	}

	narrowed = []string{}
	blocking = []string{}
	for _, d := range dispatched {
		var rep coverage.Report
		err := s.teamQueue().Do(ctx, d.ID, func(ctx context.Context) error {
			t, err := s.store.GetTeam(ctx, d.ID)
			if err != nil {
				return err
			}
			rep = coverage.Evaluate(t.JudgesExpected, t.JudgesResponded, active)
			if !rep.Complete() {
				return nil
			}
			if reflect.DeepEqual(t.JudgesExpected, rep.ActiveExpected) &&
				reflect.DeepEqual(t.JudgesResponded, rep.ActiveResponded) {
				return nil
			}
			t.JudgesExpected = rep.ActiveExpected
			t.JudgesResponded = rep.ActiveResponded
			narrowed = append(narrowed, t.ID)
			return s.store.SaveTeam(ctx, t)
		})
		if err != nil {
			return nil, nil, err
		}
		if !rep.Complete() {
			blocking = append(blocking, d.ID)
		}
	}
	return narrowed, blocking, nil
}
