package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/randomtoy/teamsync/internal/domain"
	"github.com/randomtoy/teamsync/internal/ports"
)

const defaultMaxImportBytes = 1 << 20

// Config holds the knobs every new session inherits.
type Config struct {
	Draw             DrawConfig
	DefaultGroupSize int
	MaxImportBytes   int64
}

// SessionStore keeps live sessions by id.
type SessionStore interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) (*Session, error)
	// Expire removes and returns sessions idle since before cutoff.
	Expire(ctx context.Context, cutoff time.Time) ([]*Session, error)
	Len() int
}

type deps struct {
	rng     domain.RNG
	clock   ports.Clock
	ids     ports.IDGenerator
	metrics ports.Metrics
}

// TeamService creates and looks up sessions and wires their dependencies.
type TeamService struct {
	store  SessionStore
	roster ports.RosterSource
	deps   deps
	cfg    Config
	logger *slog.Logger
}

// Option customises a TeamService.
type Option func(*TeamService)

// WithMetrics reports session activity to m.
func WithMetrics(m ports.Metrics) Option {
	return func(s *TeamService) { s.deps.metrics = m }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *TeamService) { s.logger = l }
}

func NewTeamService(store SessionStore, roster ports.RosterSource, rng domain.RNG, clock ports.Clock, ids ports.IDGenerator, cfg Config, opts ...Option) *TeamService {
	s := &TeamService{
		store:  store,
		roster: roster,
		deps: deps{
			rng:     rng,
			clock:   clock,
			ids:     ids,
			metrics: nopMetrics{},
		},
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewSession creates and stores an empty session.
func (s *TeamService) NewSession(ctx context.Context) (*Session, error) {
	sess := newSession(s.deps.ids.NewID(), s.deps, s.cfg, s.logger)
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.deps.metrics.SessionsOpen(1)
	s.logger.Info("session created", "session_id", sess.ID())
	return sess, nil
}

// Session looks up a live session.
func (s *TeamService) Session(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// EndSession removes a session and cancels its draw, if any.
func (s *TeamService) EndSession(ctx context.Context, id string) error {
	sess, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	sess.Close()
	s.deps.metrics.SessionsOpen(-1)
	s.logger.Info("session ended", "session_id", id)
	return nil
}

// LoadDemo replaces the session's names with the built-in demo roster.
func (s *TeamService) LoadDemo(ctx context.Context, sess *Session) (domain.NameList, error) {
	names, err := s.roster.DemoRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("demo roster: %w", err)
	}
	return sess.loadList(names, SourceDemo), nil
}

// ExpireIdle closes sessions that have been idle for longer than ttl.
func (s *TeamService) ExpireIdle(ctx context.Context, ttl time.Duration) (int, error) {
	expired, err := s.store.Expire(ctx, s.deps.clock.Now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("expire sessions: %w", err)
	}
	for _, sess := range expired {
		sess.Close()
	}
	if n := len(expired); n > 0 {
		s.deps.metrics.SessionsOpen(-n)
		s.logger.Info("idle sessions expired", "count", n)
	}
	return len(expired), nil
}

// RunJanitor expires idle sessions every interval until ctx is done.
func (s *TeamService) RunJanitor(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.ExpireIdle(ctx, ttl); err != nil {
				s.logger.Error("janitor", "error", err)
			}
		}
	}
}

type nopMetrics struct{}

func (nopMetrics) DrawStarted() {}
func (nopMetrics) DrawFinished(string) {}
func (nopMetrics) DrawRejected(string) {}
func (nopMetrics) GroupsGenerated(int) {}
func (nopMetrics) NamesLoaded(string, int) {}
func (nopMetrics) SessionsOpen(int) {}
