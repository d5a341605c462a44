package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/brianes/pitchscore/internal/adapters/mq/teamqueue"
	"github.com/brianes/pitchscore/internal/adapters/repository"
	"github.com/brianes/pitchscore/internal/adapters/ws"
	"github.com/brianes/pitchscore/internal/domain/coverage"
	"github.com/brianes/pitchscore/internal/domain/dedupe"
	"github.com/brianes/pitchscore/internal/domain/model"
	"github.com/brianes/pitchscore/internal/domain/ranking"
	"github.com/brianes/pitchscore/pkg/logger"
)

// User-facing error strings. The clients are Spanish-language.
const (
	msgTeamNotFound      = "Equipo no encontrado"
	msgTotemNotFound     = "Tótem no encontrado"
	msgTeamExists        = "El equipo ya existe"
	msgInvalidScore      = "Puntuación inválida"
	msgNoJudges          = "No hay jueces conectados"
	msgEvaluationRunning = "Evaluación en curso"
	msgWrongPassword     = "Contraseña incorrecta"
	msgInternal          = "Error interno"
)

// Route dispatches one inbound websocket event to its handler.
func (s *Service) Route(ctx context.Context, sess ws.Session, event string, data json.RawMessage) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		s.logger.Warn(ctx, "event before service start", logger.String("event", event))
		return
	}

	switch event {
	case ws.EventTotemConnect:
		s.handleTotemConnect(ctx, sess, data)
	case ws.EventJudgeConnect:
		s.handleJudgeConnect(ctx, sess, data)
	case ws.EventTeamAdd:
		s.handleTeamAdd(ctx, sess, data)
	case ws.EventTeamList:
		s.handleTeamList(ctx, sess, data)
	case ws.EventTeamSend:
		s.handleTeamSend(ctx, sess, data)
	case ws.EventChangeTeam:
		s.handleChangeTeam(ctx, sess, data)
	case ws.EventChangeCriterion:
		s.handleChangeCriterion(ctx, sess, data)
	case ws.EventSubmitBatch:
		s.handleSubmitBatch(ctx, sess, data)
	case ws.EventSubmit:
		s.handleSubmit(ctx, sess, data)
	case ws.EventResetData:
		s.handleReset(ctx, sess, data)
	default:
		s.logger.Warn(ctx, "unknown event", logger.String("event", event))
	}
}

func decode[T any](s *Service, ctx context.Context, event string, data json.RawMessage, out *T) bool {
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn(ctx, "malformed payload",
			logger.String("event", event),
			logger.Error(err),
		)
		return false
	}
	return true
}

func (s *Service) handleTotemConnect(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.TotemConnectRequest
	if !decode(s, ctx, ws.EventTotemConnect, data, &req) || req.TotemID == "" {
		return
	}

	if _, err := s.store.UpsertTotem(ctx, req.TotemID); err != nil {
		s.logger.Error(ctx, "upsert totem", logger.String("totemID", req.TotemID), logger.Error(err))
		return
	}

	sess.Identify(ws.RoleTotem, req.TotemID, "")
	sess.Join(req.TotemID)
	sess.Send(ws.EventTotemConnected, ws.TotemConnectedPayload{TotemID: req.TotemID})

	s.logger.Info(ctx, "totem connected", logger.String("totemID", req.TotemID))
}

func (s *Service) handleJudgeConnect(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.JudgeConnectRequest
	if !decode(s, ctx, ws.EventJudgeConnect, data, &req) {
		return
	}
	if req.TotemID == "" || req.JudgeID == "" {
		sess.Send(ws.EventJudgeConnectError, ws.ErrorPayload{Error: msgTotemNotFound})
		return
	}

	if _, err := s.store.GetTotem(ctx, req.TotemID); err != nil {
		sess.Send(ws.EventJudgeConnectError, ws.ErrorPayload{Error: msgTotemNotFound})
		return
	}

	// Display order only. A refresh keeps the stored order.
	order := len(s.broadcaster.ActiveJudges(req.TotemID)) + 1
	judge, err := s.store.UpsertJudge(ctx, model.Judge{
		ID:         req.JudgeID,
		TotemID:    req.TotemID,
		Order:      order,
		LastActive: time.Now(),
	})
	if err != nil {
		s.logger.Error(ctx, "upsert judge", logger.String("judgeID", req.JudgeID), logger.Error(err))
		sess.Send(ws.EventJudgeConnectError, ws.ErrorPayload{Error: msgInternal})
		return
	}

	pending, err := s.pendingTeamsFor(ctx, req.TotemID, req.JudgeID)
	if err != nil {
		s.logger.Error(ctx, "load pending teams", logger.String("judgeID", req.JudgeID), logger.Error(err))
	}

	sess.Identify(ws.RoleJudge, req.TotemID, req.JudgeID)
	sess.Join(req.TotemID)
	sess.Send(ws.EventJudgeConnected, ws.JudgeConnectedPayload{
		JudgeID:      judge.ID,
		Order:        judge.Order,
		PendingTeams: pending,
	})

	// Replay each owed dispatch to this connection only, so the judge's
	// scoring view rebuilds without a full history fetch.
	for _, p := range pending {
		if team, err := s.store.GetTeam(ctx, p.ID); err == nil {
			sess.Send(ws.EventTeamReceived, ws.TeamEnvelopePayload{Team: team})
		}
	}

	s.logger.Info(ctx, "judge connected",
		logger.String("judgeID", req.JudgeID),
		logger.String("totemID", req.TotemID),
		logger.Int("pendingTeams", len(pending)),
	)
}

// pendingTeamsFor lists dispatched teams still expecting a score from
// this judge, so a reconnecting judge can resume where they left off.
func (s *Service) pendingTeamsFor(ctx context.Context, totemID, judgeID string) ([]ws.PendingTeam, error) {
	dispatched, err := s.store.DispatchedTeams(ctx, totemID)
	if err != nil {
		return nil, err
	}
	var pending []ws.PendingTeam
	for _, t := range dispatched {
		if coverage.Contains(t.JudgesExpected, judgeID) && !coverage.Contains(t.JudgesResponded, judgeID) {
			pending = append(pending, ws.PendingTeam{ID: t.ID, Name: t.Name})
		}
	}
	return pending, nil
}

func (s *Service) handleTeamAdd(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.TeamAddRequest
	if !decode(s, ctx, ws.EventTeamAdd, data, &req) {
		return
	}
	if req.Name == "" || req.TotemID == "" {
		sess.Send(ws.EventTeamAddedError, ws.ErrorPayload{Error: msgTeamNotFound})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if _, err := s.store.GetTotem(ctx, req.TotemID); err != nil {
		sess.Send(ws.EventTeamAddedError, ws.ErrorPayload{Error: msgTotemNotFound})
		return
	}

	team := model.Team{
		ID:              req.ID,
		Name:            req.Name,
		TotemID:         req.TotemID,
		Scores:          map[string]int{},
		JudgesExpected:  []string{},
		JudgesResponded: []string{},
	}
	if err := s.store.InsertTeam(ctx, team); err != nil {
		msg := msgInternal
		if errors.Is(err, repository.ErrDuplicateID) {
			msg = msgTeamExists
		}
		sess.Send(ws.EventTeamAddedError, ws.ErrorPayload{Error: msg})
		return
	}

	s.broadcaster.ToRoom(req.TotemID, ws.EventTeamAdded, team)
	sess.Send(ws.EventTeamAddedSuccess, team)

	s.logger.Info(ctx, "team registered",
		logger.String("teamID", team.ID),
		logger.String("name", team.Name),
	)
}

func (s *Service) handleTeamList(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.TeamListRequest
	if !decode(s, ctx, ws.EventTeamList, data, &req) {
		return
	}

	teams, err := s.store.TeamsByTotem(ctx, req.TotemID)
	if err != nil {
		s.logger.Error(ctx, "list teams", logger.String("totemID", req.TotemID), logger.Error(err))
		return
	}
	ranking.Sort(teams)
	sess.Send(ws.EventTeamListResponse, ws.TeamListPayload{Teams: teams})
}

func (s *Service) handleChangeTeam(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.ChangeTeamRequest
	if !decode(s, ctx, ws.EventChangeTeam, data, &req) {
		return
	}

	totem, err := s.store.GetTotem(ctx, req.TotemID)
	if err != nil {
		return
	}
	totem.ActiveTeam = req.TeamID
	totem.Status = model.TotemActive
	if err := s.store.SaveTotem(ctx, totem); err != nil {
		s.logger.Error(ctx, "save totem", logger.String("totemID", req.TotemID), logger.Error(err))
		return
	}

	name := ""
	if team, err := s.store.GetTeam(ctx, req.TeamID); err == nil {
		name = team.Name
	}
	s.broadcaster.ToRoom(req.TotemID, ws.EventTeamChanged, ws.TeamChangedPayload{
		TeamID:   req.TeamID,
		TeamName: name,
	})
}

func (s *Service) handleChangeCriterion(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.ChangeCriterionRequest
	if !decode(s, ctx, ws.EventChangeCriterion, data, &req) {
		return
	}

	totem, err := s.store.GetTotem(ctx, req.TotemID)
	if err != nil {
		return
	}
	totem.ActiveCriterion = req.CriterionID
	totem.Status = model.TotemActive
	if err := s.store.SaveTotem(ctx, totem); err != nil {
		s.logger.Error(ctx, "save totem", logger.String("totemID", req.TotemID), logger.Error(err))
		return
	}

	name := ""
	if criterion, err := s.store.GetCriterion(ctx, req.CriterionID); err == nil {
		name = criterion.Name
	}
	s.broadcaster.ToRoom(req.TotemID, ws.EventCriterionChanged, ws.CriterionChangedPayload{
		CriterionID:   req.CriterionID,
		CriterionName: name,
	})
}

func (s *Service) handleReset(ctx context.Context, sess ws.Session, data json.RawMessage) {
	var req ws.ResetRequest
	if !decode(s, ctx, ws.EventResetData, data, &req) {
		return
	}

	if s.resetPassword == "" || req.Password != s.resetPassword {
		s.logger.Warn(ctx, "reset rejected", logger.String("totemID", req.TotemID))
		sess.Send(ws.EventResetError, ws.ErrorPayload{Error: msgWrongPassword})
		return
	}

	if err := s.store.Reset(ctx); err != nil {
		s.logger.Error(ctx, "reset failed", logger.Error(err))
		sess.Send(ws.EventResetError, ws.ErrorPayload{Error: msgInternal})
		return
	}

	// Old submission ids must not shadow post-reset batches, and the
	// deleted teams' mailbox goroutines have nothing left to serialize.
	s.mu.Lock()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	retired := s.teams
	s.teams = teamqueue.New(teamqueue.WithBuffer(s.teamQueueBuffer))
	s.mu.Unlock()
	_ = retired.Close()

	s.broadcaster.ToRoom(req.TotemID, ws.EventResetSuccess, struct{}{})
	s.broadcaster.ToAll(ws.EventResetSuccess, struct{}{})

	s.logger.Info(ctx, "system reset", logger.String("totemID", req.TotemID))
}
