// Package repository defines the persistence store interface and errors.
package repository

import (
	"context"

	"github.com/brianes/pitchscore/internal/domain/model"
)

// Store provides durable access to competition state.
type Store interface {
	// UpsertTotem creates the totem if absent and returns its record.
	// Existing totems are returned untouched (create-or-touch).
	UpsertTotem(ctx context.Context, id string) (model.Totem, error)

	// GetTotem returns a totem by id.
	// Returns ErrNotFound if the totem is unknown.
	GetTotem(ctx context.Context, id string) (model.Totem, error)

	// SaveTotem persists the totem's active-state fields and status.
	SaveTotem(ctx context.Context, totem model.Totem) error

	// UpsertJudge registers or refreshes a judge record and returns it.
	// The stored display order survives refreshes.
	UpsertJudge(ctx context.Context, judge model.Judge) (model.Judge, error)

	// InsertTeam creates a new team. Returns ErrDuplicateID if the id exists.
	InsertTeam(ctx context.Context, team model.Team) error

	// GetTeam returns a team by id. Returns ErrNotFound if unknown.
	GetTeam(ctx context.Context, id string) (model.Team, error)

	// SaveTeam persists all mutable team fields.
	SaveTeam(ctx context.Context, team model.Team) error

	// TeamsByTotem returns every team registered to a totem, unordered.
	TeamsByTotem(ctx context.Context, totemID string) ([]model.Team, error)

	// DispatchedTeams returns the totem's teams with sentToJudges set.
	DispatchedTeams(ctx context.Context, totemID string) ([]model.Team, error)

	// AppendEvaluation inserts one evaluation row. Rows are append-only;
	// there is no uniqueness on (team, judge, criterion).
	AppendEvaluation(ctx context.Context, ev model.Evaluation) error

	// EvaluationsByTeamCriterion returns every row for one team/criterion pair.
	EvaluationsByTeamCriterion(ctx context.Context, teamID, criterionID string) ([]model.Evaluation, error)

	// EvaluationsByTeam returns a team's full evaluation history, oldest first.
	EvaluationsByTeam(ctx context.Context, teamID string) ([]model.Evaluation, error)

	// GetCriterion returns a rubric criterion by id.
	GetCriterion(ctx context.Context, id string) (model.Criterion, error)

	// ListCriteria returns the seeded rubric in presentation order.
	ListCriteria(ctx context.Context) ([]model.Criterion, error)

	// Reset deletes all evaluations, teams and judges system-wide and
	// clears every totem's active fields back to idle. Totem rows are
	// preserved so totem identity survives a reset.
	Reset(ctx context.Context) error

	Close() error
}
