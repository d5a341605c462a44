// Package types contains common read shapes shared across the application.
package types

import "github.com/brianes/pitchscore/internal/domain/model"

// TeamEvaluations groups the raw evaluation history of one team for the
// diagnostic dump endpoint.
type TeamEvaluations struct {
	TeamID      string             `json:"teamId"`
	TeamName    string             `json:"teamName"`
	FinalScore  int                `json:"finalScore"`
	Evaluations []model.Evaluation `json:"evaluations"`
}

// TeamSummary is the per-team coverage view exposed to operators.
type TeamSummary struct {
	TeamID          string         `json:"teamId"`
	TeamName        string         `json:"teamName"`
	FinalScore      int            `json:"finalScore"`
	Scores          map[string]int `json:"scores"`
	SentToJudges    bool           `json:"sentToJudges"`
	JudgesExpected  []string       `json:"judgesExpected"`
	JudgesResponded []string       `json:"judgesResponded"`
	PendingJudges   []string       `json:"pendingJudges"`
	AllComplete     bool           `json:"allComplete"`
}

// RecomputeResult reports the outcome of an out-of-band coverage recompute.
type RecomputeResult struct {
	TotemID       string   `json:"totemId"`
	ActiveJudges  []string `json:"activeJudges"`
	NarrowedTeams []string `json:"narrowedTeams"`
	BlockingTeams []string `json:"blockingTeams"`
}
