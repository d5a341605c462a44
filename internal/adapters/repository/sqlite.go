package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianes/pitchscore/internal/domain/criteria"
	"github.com/brianes/pitchscore/internal/domain/model"
	"github.com/brianes/pitchscore/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore persists competition state in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS totems (
    id TEXT PRIMARY KEY,
    active_team TEXT NOT NULL DEFAULT '',
    active_criterion TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'idle' CHECK (status IN ('idle', 'active', 'evaluating')),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS judges (
    id TEXT PRIMARY KEY,
    totem_id TEXT NOT NULL,
    display_order INTEGER NOT NULL DEFAULT 0,
    last_active INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_judges_totem_id ON judges(totem_id);

CREATE TABLE IF NOT EXISTS teams (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    totem_id TEXT NOT NULL,
    scores TEXT NOT NULL DEFAULT '{}',
    final_score INTEGER NOT NULL DEFAULT 0,
    sent_to_judges INTEGER NOT NULL DEFAULT 0,
    judges_expected TEXT NOT NULL DEFAULT '[]',
    judges_responded TEXT NOT NULL DEFAULT '[]',
    evaluations_completed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_teams_totem_id ON teams(totem_id);

CREATE TABLE IF NOT EXISTS criteria (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    max_score INTEGER NOT NULL,
    levels TEXT NOT NULL DEFAULT '[]',
    position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS evaluations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    team_id TEXT NOT NULL,
    judge_id TEXT NOT NULL,
    criterion_id TEXT NOT NULL,
    score INTEGER NOT NULL CHECK (score >= 1 AND score <= 4),
    ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_team_criterion ON evaluations(team_id, criterion_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_team ON evaluations(team_id);
`

// Open opens a SQLite store at path, applies the schema, and seeds the
// rubric criteria and default totem if absent.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.seed(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed reference data: %w", err)
	}
	return s, nil
}

// seed inserts the rubric criteria and the default totem if missing.
func (s *SQLiteStore) seed(ctx context.Context) error {
	for i, c := range criteria.Defaults() {
		levels, err := json.Marshal(c.Levels)
		if err != nil {
			return fmt.Errorf("marshal levels for %s: %w", c.ID, err)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO criteria (id, name, description, max_score, levels, position)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			c.ID, c.Name, c.Description, c.MaxScore, string(levels), i)
		if err != nil {
			return fmt.Errorf("seed criterion %s: %w", c.ID, err)
		}
	}
	if _, err := s.UpsertTotem(ctx, criteria.DefaultTotemID); err != nil {
		return err
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
	if *err != nil && !errors.Is(*err, ErrNotFound) {
		metrics.RecordStoreError(op)
	}
}

// UpsertTotem creates the totem if absent and returns its record.
func (s *SQLiteStore) UpsertTotem(ctx context.Context, id string) (t model.Totem, err error) {
	defer observe("upsert_totem", time.Now(), &err)

	if strings.TrimSpace(id) == "" {
		return model.Totem{}, fmt.Errorf("totem id is required")
	}
	now := toMillis(time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO totems (id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		id, string(model.TotemIdle), now, now)
	if err != nil {
		return model.Totem{}, fmt.Errorf("upsert totem %s: %w", id, err)
	}
	return s.GetTotem(ctx, id)
}

// GetTotem returns a totem by id.
func (s *SQLiteStore) GetTotem(ctx context.Context, id string) (t model.Totem, err error) {
	defer observe("get_totem", time.Now(), &err)

	var status string
	err = s.db.QueryRowContext(ctx,
		`SELECT id, active_team, active_criterion, status FROM totems WHERE id = ?`, id).
		Scan(&t.ID, &t.ActiveTeam, &t.ActiveCriterion, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Totem{}, fmt.Errorf("totem %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Totem{}, fmt.Errorf("get totem %s: %w", id, err)
	}
	t.Status = model.TotemStatus(status)
	return t, nil
}

// SaveTotem persists the totem's active-state fields and status.
func (s *SQLiteStore) SaveTotem(ctx context.Context, totem model.Totem) (err error) {
	defer observe("save_totem", time.Now(), &err)

	res, err := s.db.ExecContext(ctx,
		`UPDATE totems SET active_team = ?, active_criterion = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		totem.ActiveTeam, totem.ActiveCriterion, string(totem.Status), toMillis(time.Now()), totem.ID)
	if err != nil {
		return fmt.Errorf("save totem %s: %w", totem.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("totem %s: %w", totem.ID, ErrNotFound)
	}
	return nil
}

// UpsertJudge registers or refreshes a judge record and returns it.
func (s *SQLiteStore) UpsertJudge(ctx context.Context, judge model.Judge) (j model.Judge, err error) {
	defer observe("upsert_judge", time.Now(), &err)

	if strings.TrimSpace(judge.ID) == "" {
		return model.Judge{}, fmt.Errorf("judge id is required")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO judges (id, totem_id, display_order, last_active)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET totem_id = excluded.totem_id, last_active = excluded.last_active`,
		judge.ID, judge.TotemID, judge.Order, toMillis(judge.LastActive))
	if err != nil {
		return model.Judge{}, fmt.Errorf("upsert judge %s: %w", judge.ID, err)
	}

	var lastActive int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id, totem_id, display_order, last_active FROM judges WHERE id = ?`, judge.ID).
		Scan(&j.ID, &j.TotemID, &j.Order, &lastActive)
	if err != nil {
		return model.Judge{}, fmt.Errorf("get judge %s: %w", judge.ID, err)
	}
	j.LastActive = fromMillis(lastActive)
	return j, nil
}

// InsertTeam creates a new team.
func (s *SQLiteStore) InsertTeam(ctx context.Context, team model.Team) (err error) {
	defer observe("insert_team", time.Now(), &err)

	scores, expected, responded, err := marshalTeamJSON(team)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO teams (id, name, totem_id, scores, final_score, sent_to_judges,
		                    judges_expected, judges_responded, evaluations_completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		team.ID, team.Name, team.TotemID, scores, team.FinalScore, boolToInt(team.SentToJudges),
		expected, responded, team.EvaluationsCompleted)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("team %s: %w", team.ID, ErrDuplicateID)
		}
		return fmt.Errorf("insert team %s: %w", team.ID, err)
	}
	return nil
}

// GetTeam returns a team by id.
func (s *SQLiteStore) GetTeam(ctx context.Context, id string) (t model.Team, err error) {
	defer observe("get_team", time.Now(), &err)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, totem_id, scores, final_score, sent_to_judges,
		        judges_expected, judges_responded, evaluations_completed
		 FROM teams WHERE id = ?`, id)
	t, err = scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Team{}, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Team{}, fmt.Errorf("get team %s: %w", id, err)
	}
	return t, nil
}

// SaveTeam persists all mutable team fields.
func (s *SQLiteStore) SaveTeam(ctx context.Context, team model.Team) (err error) {
	defer observe("save_team", time.Now(), &err)

	scores, expected, responded, err := marshalTeamJSON(team)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE teams SET name = ?, totem_id = ?, scores = ?, final_score = ?,
		        sent_to_judges = ?, judges_expected = ?, judges_responded = ?,
		        evaluations_completed = ?
		 WHERE id = ?`,
		team.Name, team.TotemID, scores, team.FinalScore, boolToInt(team.SentToJudges),
		expected, responded, team.EvaluationsCompleted, team.ID)
	if err != nil {
		return fmt.Errorf("save team %s: %w", team.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("team %s: %w", team.ID, ErrNotFound)
	}
	return nil
}

// TeamsByTotem returns every team registered to a totem.
func (s *SQLiteStore) TeamsByTotem(ctx context.Context, totemID string) (teams []model.Team, err error) {
	defer observe("teams_by_totem", time.Now(), &err)
	return s.queryTeams(ctx,
		`SELECT id, name, totem_id, scores, final_score, sent_to_judges,
		        judges_expected, judges_responded, evaluations_completed
		 FROM teams WHERE totem_id = ?`, totemID)
}

// DispatchedTeams returns the totem's teams with sentToJudges set.
func (s *SQLiteStore) DispatchedTeams(ctx context.Context, totemID string) (teams []model.Team, err error) {
	defer observe("dispatched_teams", time.Now(), &err)
	return s.queryTeams(ctx,
		`SELECT id, name, totem_id, scores, final_score, sent_to_judges,
		        judges_expected, judges_responded, evaluations_completed
		 FROM teams WHERE totem_id = ? AND sent_to_judges = 1`, totemID)
}

func (s *SQLiteStore) queryTeams(ctx context.Context, query string, args ...any) ([]model.Team, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	teams := []model.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

// AppendEvaluation inserts one evaluation row.
func (s *SQLiteStore) AppendEvaluation(ctx context.Context, ev model.Evaluation) (err error) {
	defer observe("append_evaluation", time.Now(), &err)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (team_id, judge_id, criterion_id, score, ts)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.TeamID, ev.JudgeID, ev.CriterionID, ev.Score, toMillis(ev.Timestamp))
	if err != nil {
		return fmt.Errorf("append evaluation: %w", err)
	}
	return nil
}

// EvaluationsByTeamCriterion returns every row for one team/criterion pair.
func (s *SQLiteStore) EvaluationsByTeamCriterion(ctx context.Context, teamID, criterionID string) (evs []model.Evaluation, err error) {
	defer observe("evaluations_by_team_criterion", time.Now(), &err)
	return s.queryEvaluations(ctx,
		`SELECT team_id, judge_id, criterion_id, score, ts
		 FROM evaluations WHERE team_id = ? AND criterion_id = ? ORDER BY id`, teamID, criterionID)
}

// EvaluationsByTeam returns a team's full evaluation history, oldest first.
func (s *SQLiteStore) EvaluationsByTeam(ctx context.Context, teamID string) (evs []model.Evaluation, err error) {
	defer observe("evaluations_by_team", time.Now(), &err)
	return s.queryEvaluations(ctx,
		`SELECT team_id, judge_id, criterion_id, score, ts
		 FROM evaluations WHERE team_id = ? ORDER BY id`, teamID)
}

func (s *SQLiteStore) queryEvaluations(ctx context.Context, query string, args ...any) ([]model.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	evs := []model.Evaluation{}
	for rows.Next() {
		var ev model.Evaluation
		var ts int64
		if err := rows.Scan(&ev.TeamID, &ev.JudgeID, &ev.CriterionID, &ev.Score, &ts); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		ev.Timestamp = fromMillis(ts)
		evs = append(evs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return evs, nil
}

// GetCriterion returns a rubric criterion by id.
func (s *SQLiteStore) GetCriterion(ctx context.Context, id string) (c model.Criterion, err error) {
	defer observe("get_criterion", time.Now(), &err)

	var levels string
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, description, max_score, levels FROM criteria WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.MaxScore, &levels)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Criterion{}, fmt.Errorf("criterion %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Criterion{}, fmt.Errorf("get criterion %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(levels), &c.Levels); err != nil {
		return model.Criterion{}, fmt.Errorf("decode levels for %s: %w", id, err)
	}
	return c, nil
}

// ListCriteria returns the seeded rubric in presentation order.
func (s *SQLiteStore) ListCriteria(ctx context.Context) (out []model.Criterion, err error) {
	defer observe("list_criteria", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, max_score, levels FROM criteria ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query criteria: %w", err)
	}
	defer rows.Close()

	out = []model.Criterion{}
	for rows.Next() {
		var c model.Criterion
		var levels string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.MaxScore, &levels); err != nil {
			return nil, fmt.Errorf("scan criterion: %w", err)
		}
		if err := json.Unmarshal([]byte(levels), &c.Levels); err != nil {
			return nil, fmt.Errorf("decode levels for %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate criteria: %w", err)
	}
	return out, nil
}

// Reset clears competitive state. Totem rows survive with their active
// fields nulled; evaluations, teams and judges are deleted system-wide.
// Runs in one transaction: either everything clears or nothing does.
func (s *SQLiteStore) Reset(ctx context.Context) (err error) {
	defer observe("reset", time.Now(), &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM evaluations`,
		`DELETE FROM teams`,
		`DELETE FROM judges`,
		`UPDATE totems SET active_team = '', active_criterion = '', status = 'idle'`,
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (model.Team, error) {
	var t model.Team
	var scores, expected, responded string
	var sent int
	if err := row.Scan(&t.ID, &t.Name, &t.TotemID, &scores, &t.FinalScore, &sent,
		&expected, &responded, &t.EvaluationsCompleted); err != nil {
		return model.Team{}, err
	}
	t.SentToJudges = sent != 0
	if err := json.Unmarshal([]byte(scores), &t.Scores); err != nil {
		return model.Team{}, fmt.Errorf("decode scores: %w", err)
	}
	if err := json.Unmarshal([]byte(expected), &t.JudgesExpected); err != nil {
		return model.Team{}, fmt.Errorf("decode judges_expected: %w", err)
	}
	if err := json.Unmarshal([]byte(responded), &t.JudgesResponded); err != nil {
		return model.Team{}, fmt.Errorf("decode judges_responded: %w", err)
	}
	return t, nil
}

func marshalTeamJSON(team model.Team) (scores, expected, responded string, err error) {
	if team.Scores == nil {
		team.Scores = map[string]int{}
	}
	if team.JudgesExpected == nil {
		team.JudgesExpected = []string{}
	}
	if team.JudgesResponded == nil {
		team.JudgesResponded = []string{}
	}
	sb, err := json.Marshal(team.Scores)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal scores: %w", err)
	}
	eb, err := json.Marshal(team.JudgesExpected)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal judges_expected: %w", err)
	}
	rb, err := json.Marshal(team.JudgesResponded)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal judges_responded: %w", err)
	}
	return string(sb), string(eb), string(rb), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
