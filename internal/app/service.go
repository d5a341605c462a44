// Package service wires the domain together: it routes websocket
// events, coordinates team dispatch, aggregates scores and exposes the
// read model used by the diagnostic HTTP API.
package service

import (
	"context"
	"sync"

	"github.com/brianes/pitchscore/internal/adapters/mq/teamqueue"
	"github.com/brianes/pitchscore/internal/adapters/repository"
	"github.com/brianes/pitchscore/internal/domain/coverage"
	"github.com/brianes/pitchscore/internal/domain/dedupe"
	"github.com/brianes/pitchscore/internal/domain/ranking"
	"github.com/brianes/pitchscore/internal/domain/types"
	"github.com/brianes/pitchscore/pkg/logger"
)

// Broadcaster is the outbound fan-out surface the service pushes state
// changes through. Implemented by the websocket hub.
type Broadcaster interface {
	// ToRoom sends an event to every connection in a totem's room.
	ToRoom(totemID, event string, data any)

	// ToAll sends an event to every live connection.
	ToAll(event string, data any)

	// ActiveJudges returns the sorted unique judge ids currently
	// connected to the totem's room.
	ActiveJudges(totemID string) []string
}

// noopBroadcaster stands in until SetBroadcaster is called.
type noopBroadcaster struct{}

func (noopBroadcaster) ToRoom(string, string, any)   {}
func (noopBroadcaster) ToAll(string, any)            {}
func (noopBroadcaster) ActiveJudges(string) []string { return nil }

// Service implements the event router and the API dependencies for the
// pitch scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	broadcaster Broadcaster
	teams       *teamqueue.Runner
	deduper     dedupe.Deduper

	// Configuration
	resetPassword   string
	dedupeSize      int
	teamQueueBuffer int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence store. Required before Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithResetPassword sets the passphrase gating the destructive reset.
func WithResetPassword(password string) Option {
	return func(s *Service) {
		s.resetPassword = password
	}
}

// WithDedupeSize sets the size of the batch deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithTeamQueueBuffer sets the per-team mailbox buffer size.
func WithTeamQueueBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.teamQueueBuffer = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		broadcaster:     noopBroadcaster{},
		dedupeSize:      50000,
		teamQueueBuffer: 128,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetBroadcaster attaches the outbound fan-out surface. Called once
// during wiring, after the hub is constructed around this service.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b != nil {
		s.broadcaster = b
	}
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.teams = teamqueue.New(
		teamqueue.WithBuffer(s.teamQueueBuffer),
	)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("teamQueueBuffer", s.teamQueueBuffer),
	)
	return nil
}

// Stop gracefully shuts down the service. The store is closed by its
// owner, not here.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.teams != nil {
		_ = s.teams.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

// teamQueue returns the live runner. Reset swaps the runner out, so
// callers must fetch it per operation rather than caching the pointer.
func (s *Service) teamQueue() *teamqueue.Runner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teams
}

// ready reports whether the service has been started.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"dedupeSize":      s.dedupeSize,
		"teamQueueBuffer": s.teamQueueBuffer,
	}
	if s.started {
		stats["dedupeEntries"] = s.deduper.Size()
		stats["teamMailboxes"] = s.teams.Len()
	}
	return stats
}

// EvaluationReport returns every team of a totem with its full raw
// evaluation history, ranked.
func (s *Service) EvaluationReport(ctx context.Context, totemID string) ([]types.TeamEvaluations, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	teams, err := s.store.TeamsByTotem(ctx, totemID)
	if err != nil {
		return nil, err
	}
	ranking.Sort(teams)

	report := make([]types.TeamEvaluations, 0, len(teams))
	for _, t := range teams {
		evals, err := s.store.EvaluationsByTeam(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		report = append(report, types.TeamEvaluations{
			TeamID:      t.ID,
			TeamName:    t.Name,
			FinalScore:  t.FinalScore,
			Evaluations: evals,
		})
	}
	return report, nil
}

// TeamSummaries returns the per-team coverage view of a totem, ranked.
// Coverage is measured against the judges connected right now, so the
// view is live rather than a replay of dispatch-time expectations.
func (s *Service) TeamSummaries(ctx context.Context, totemID string) ([]types.TeamSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	teams, err := s.store.TeamsByTotem(ctx, totemID)
	if err != nil {
		return nil, err
	}
	ranking.Sort(teams)
	active := s.broadcaster.ActiveJudges(totemID)

	summaries := make([]types.TeamSummary, 0, len(teams))
	for _, t := range teams {
		rep := coverage.Evaluate(t.JudgesExpected, t.JudgesResponded, active)
		summaries = append(summaries, types.TeamSummary{
			TeamID:          t.ID,
			TeamName:        t.Name,
			FinalScore:      t.FinalScore,
			Scores:          t.Scores,
			SentToJudges:    t.SentToJudges,
			JudgesExpected:  t.JudgesExpected,
			JudgesResponded: t.JudgesResponded,
			PendingJudges:   rep.Pending,
			AllComplete:     t.SentToJudges && rep.Complete(),
		})
	}
	return summaries, nil
}

// RecomputeCoverage narrows every dispatched team's expectation sets to
// the currently active judges and reports what changed. Exposed as an
// operator escape hatch for rooms with heavy judge churn.
func (s *Service) RecomputeCoverage(ctx context.Context, totemID string) (types.RecomputeResult, error) {
	if err := s.ready(); err != nil {
		return types.RecomputeResult{}, err
	}
	active := s.broadcaster.ActiveJudges(totemID)
	narrowed, blocking, err := s.narrowDispatched(ctx, totemID, active)
	if err != nil {
		return types.RecomputeResult{}, err
	}
	return types.RecomputeResult{
		TotemID:       totemID,
		ActiveJudges:  active,
		NarrowedTeams: narrowed,
		BlockingTeams: blocking,
	}, nil
}
