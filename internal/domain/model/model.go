// Package model contains domain models passed between layers.
package model

import "time"

// TotemStatus tracks what a display session is currently doing.
type TotemStatus string

// Totem lifecycle states.
const (
	TotemIdle       TotemStatus = "idle"
	TotemActive     TotemStatus = "active"
	TotemEvaluating TotemStatus = "evaluating"
)

// Totem is the display/admin session for one competition instance.
// It owns the room that judges join.
type Totem struct {
	ID              string      `json:"id"`
	ActiveTeam      string      `json:"activeTeam,omitempty"`
	ActiveCriterion string      `json:"activeCriterion,omitempty"`
	Status          TotemStatus `json:"status"`
}

// Judge is a scoring participant's session, scoped to one totem.
// Order is display ordering only; no logic depends on it.
type Judge struct {
	ID         string    `json:"id"`
	TotemID    string    `json:"totemId"`
	Order      int       `json:"order"`
	LastActive time.Time `json:"lastActive"`
}

// Team is a competing entrant being scored.
//
// Scores holds per-criterion aggregates summed across judges, never
// per-judge values. JudgesExpected and JudgesResponded are mutated only
// by the dispatch coordinator; Scores and FinalScore only by the
// aggregator.
type Team struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	TotemID              string         `json:"totemId"`
	Scores               map[string]int `json:"scores"`
	FinalScore           int            `json:"finalScore"`
	SentToJudges         bool           `json:"sentToJudges"`
	JudgesExpected       []string       `json:"judgesExpected"`
	JudgesResponded      []string       `json:"judgesResponded"`
	EvaluationsCompleted int            `json:"evaluationsCompleted"`
}

// RubricLevel is one of the four selectable levels of a criterion.
type RubricLevel struct {
	Level       int    `json:"level"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Criterion is one fixed rubric dimension, scored 1..4 by each judge.
type Criterion struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	MaxScore    int           `json:"maxScore"`
	Levels      []RubricLevel `json:"levels"`
}

// Evaluation is a single per-judge per-criterion submission. Rows are
// append-only; resubmission inserts another row rather than overwriting.
type Evaluation struct {
	TeamID      string    `json:"teamId"`
	JudgeID     string    `json:"judgeId"`
	CriterionID string    `json:"criterionId"`
	Score       int       `json:"score"`
	Timestamp   time.Time `json:"timestamp"`
}

// MinScore and MaxScore bound a single rubric selection.
const (
	MinScore = 1
	MaxScore = 4
)

// ValidScore reports whether s is a legal rubric selection.
func ValidScore(s int) bool {
	return s >= MinScore && s <= MaxScore
}
