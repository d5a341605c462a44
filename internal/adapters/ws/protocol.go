// Package ws implements the bidirectional event channel: the connection
// registry, totem-scoped rooms, and the broadcast layer.
package ws

import (
	"github.com/brianes/pitchscore/internal/domain/model"
)

// Client -> server event names.
const (
	EventTotemConnect    = "totem:connect"
	EventJudgeConnect    = "judge:connect"
	EventTeamAdd         = "team:add"
	EventTeamList        = "team:list"
	EventTeamSend        = "team:send-to-judges"
	EventChangeTeam      = "totem:change-team"
	EventChangeCriterion = "totem:change-criterion"
	EventSubmitBatch     = "evaluation:submit-batch"
	EventSubmit          = "evaluation:submit" // legacy single-criterion path
	EventResetData       = "system:reset-data"
)

// Server -> client event names.
const (
	EventTotemConnected    = "totem:connected"
	EventJudgeConnected    = "judge:connected"
	EventJudgeConnectError = "judge:connection-error"
	EventTeamAdded         = "team:added"
	EventTeamAddedSuccess  = "team:added:success"
	EventTeamAddedError    = "team:added:error"
	EventTeamListResponse  = "team:list:response"
	EventTeamReceived      = "team:received"
	EventTeamSentSuccess   = "team:sent:success"
	EventTeamSentError     = "team:sent:error"
	EventTeamUpdated       = "team:updated"
	EventResultsUpdated    = "results:updated"
	EventTeamChanged       = "totem:team-changed"
	EventCriterionChanged  = "totem:criterion-changed"
	EventEvalReceived      = "evaluation:received"
	EventEvalComplete      = "evaluation:complete"
	EventEvalError         = "evaluation:error"
	EventEvalStatus        = "evaluation:status"
	EventResetSuccess      = "system:reset-success"
	EventResetError        = "system:reset-error"
)

// Inbound payloads.

// TotemConnectRequest registers a display session and its room.
type TotemConnectRequest struct {
	TotemID string `json:"totemId"`
}

// JudgeConnectRequest registers a judge against an existing totem.
type JudgeConnectRequest struct {
	TotemID string `json:"totemId"`
	JudgeID string `json:"judgeId"`
}

// TeamAddRequest registers a new team.
type TeamAddRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	TotemID string `json:"totemId"`
}

// TeamListRequest asks for the totem's ranked team list.
type TeamListRequest struct {
	TotemID string `json:"totemId"`
}

// TeamSendRequest dispatches a team to the active judges.
type TeamSendRequest struct {
	TotemID string `json:"totemId"`
	TeamID  string `json:"teamId"`
}

// ChangeTeamRequest spotlights a team on the totem.
type ChangeTeamRequest struct {
	TotemID string `json:"totemId"`
	TeamID  string `json:"teamId"`
}

// ChangeCriterionRequest spotlights a criterion on the totem.
type ChangeCriterionRequest struct {
	TotemID     string `json:"totemId"`
	CriterionID string `json:"criterionId"`
}

// BatchScore is one judge's selection for one criterion.
type BatchScore struct {
	CriterionID string `json:"criterionId"`
	Score       int    `json:"score"`
}

// SubmitBatchRequest is one judge's scores across criteria for one team.
// SubmissionID is optional; retried batches carrying the same id are
// dropped instead of double-counted.
type SubmitBatchRequest struct {
	TeamID       string       `json:"teamId"`
	JudgeID      string       `json:"judgeId"`
	SubmissionID string       `json:"submissionId,omitempty"`
	Evaluations  []BatchScore `json:"evaluations"`
}

// SubmitRequest is the legacy single-criterion path.
type SubmitRequest struct {
	TeamID      string `json:"teamId"`
	JudgeID     string `json:"judgeId"`
	CriterionID string `json:"criterionId"`
	Score       int    `json:"score"`
}

// ResetRequest is the passphrase-gated destructive reset.
type ResetRequest struct {
	Password string `json:"password"`
	TotemID  string `json:"totemId"`
}

// Outbound payloads.

// TotemConnectedPayload acknowledges a totem join.
type TotemConnectedPayload struct {
	TotemID string `json:"totemId"`
}

// PendingTeam names a team a reconnecting judge still owes a score.
type PendingTeam struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JudgeConnectedPayload acknowledges a judge join, replaying pending work.
type JudgeConnectedPayload struct {
	JudgeID      string        `json:"judgeId"`
	Order        int           `json:"order"`
	PendingTeams []PendingTeam `json:"pendingTeams,omitempty"`
}

// ErrorPayload carries a named error to the originating connection.
type ErrorPayload struct {
	Error string `json:"error"`
}

// TeamListPayload answers team:list.
type TeamListPayload struct {
	Teams []model.Team `json:"teams"`
}

// TeamEnvelopePayload wraps a team for dispatch/confirmation events.
type TeamEnvelopePayload struct {
	Team model.Team `json:"team"`
}

// ResultsPayload carries the full ranking of a totem.
type ResultsPayload struct {
	Teams []model.Team `json:"teams"`
}

// TeamChangedPayload announces the spotlighted team.
type TeamChangedPayload struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}

// CriterionChangedPayload announces the spotlighted criterion.
type CriterionChangedPayload struct {
	CriterionID   string `json:"criterionId"`
	CriterionName string `json:"criterionName"`
}

// EvalReceivedPayload confirms a legacy single-criterion submission.
type EvalReceivedPayload struct {
	TeamID      string `json:"teamId"`
	CriterionID string `json:"criterionId"`
	JudgeID     string `json:"judgeId"`
}

// EvalCompletePayload confirms a batch submission to the judge.
type EvalCompletePayload struct {
	TeamID            string `json:"teamId"`
	JudgeID           string `json:"judgeId"`
	FinalScore        int    `json:"finalScore"`
	TeamName          string `json:"teamName"`
	AllJudgesComplete bool   `json:"allJudgesComplete"`
}

// EvalStatusPayload is the dispatch-status summary for the room.
type EvalStatusPayload struct {
	TeamID          string   `json:"teamId"`
	TeamName        string   `json:"teamName"`
	JudgesExpected  []string `json:"judgesExpected"`
	JudgesResponded []string `json:"judgesResponded"`
	PendingJudges   []string `json:"pendingJudges"`
	AllComplete     bool     `json:"allComplete"`
}
