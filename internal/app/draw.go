package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/randomtoy/teamsync/internal/domain"
	"github.com/randomtoy/teamsync/internal/ports"
)

// DrawConfig controls the cosmetic spin that precedes a winner.
type DrawConfig struct {
	// Spins is the number of intermediate names shown before the winner.
	Spins int
	// Interval is the delay between consecutive spins.
	Interval time.Duration
}

// EventKind identifies a draw event.
type EventKind string

const (
	EventSpin      EventKind = "spin"
	EventWinner    EventKind = "winner"
	EventCancelled EventKind = "cancelled"
)

// Draw outcomes reported to metrics.
const (
	OutcomeWinner    = "winner"
	OutcomeCancelled = "cancelled"
)

// eventBuffer bounds how many spins a round holds for a slow consumer.
const eventBuffer = 64

// DrawEvent is one update from a running round. A round emits zero or more
// spins followed by exactly one winner or cancelled event, after which its
// channel is closed. Spins are dropped while the buffer is full; the
// final event is always delivered.
type DrawEvent struct {
	Kind   EventKind
	Round  uint64
	Name   string
	Winner *domain.WinnerRecord
	Err    error
}

// round is one in-flight draw. Its pool is a snapshot taken at start, so
// later edits to the name list do not affect it.
type round struct {
	id       uint64
	pool     domain.NameList
	events   chan DrawEvent
	stop     chan struct{}
	stopOnce sync.Once
}

// DrawStart describes a round that was just started.
type DrawStart struct {
	Round    uint64
	Eligible int
	Events   <-chan DrawEvent
}

func newRound(id uint64, pool domain.NameList, spins int) *round {
	// One slot stays free for the final event.
	return &round{
		id:     id,
		pool:   pool,
		events: make(chan DrawEvent, min(spins, eventBuffer)+1),
		stop:   make(chan struct{}),
	}
}

// cancel is safe to call any number of times.
func (r *round) cancel() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// StartDraw begins a round against the current eligible pool and returns
// its event stream. Cancelling ctx cancels the round. It fails without
// changing state when the list is empty, every eligible name has already
// won, or another round is running.
func (s *Session) StartDraw(ctx context.Context) (<-chan DrawEvent, error) {
	start, err := s.BeginDraw(ctx)
	if err != nil {
		return nil, err
	}
	return start.Events, nil
}

// BeginDraw is StartDraw that also reports the round id and the size of
// the pool it snapshotted.
func (s *Session) BeginDraw(ctx context.Context) (DrawStart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	var pool domain.NameList
	switch {
	case s.closed:
		err = domain.ErrSessionClosed
	case s.round != nil:
		err = domain.ErrDrawInProgress
	case len(s.names) == 0:
		err = domain.ErrEmptyList
	default:
		pool = domain.EligiblePool(s.names, s.winners, s.allowRepeat)
		if len(pool) == 0 {
			err = domain.ErrPoolExhausted
		}
	}
	if err != nil {
		s.deps.metrics.DrawRejected(rejectReason(err))
		s.logger.Info("draw rejected", "reason", err)
		return DrawStart{}, err
	}

	spins := max(s.draw.Spins, 0)
	s.rounds++
	r := newRound(s.rounds, pool, spins)
	s.round = r
	s.touch()

	s.deps.metrics.DrawStarted()
	s.logger.Info("draw started", "round", r.id, "eligible", len(pool))

	go s.run(ctx, r, spins)
	return DrawStart{Round: r.id, Eligible: len(pool), Events: r.events}, nil
}

func (s *Session) run(ctx context.Context, r *round, spins int) {
	defer close(r.events)

	interval := s.draw.Interval
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for spun := 0; ; {
		select {
		case <-ctx.Done():
			s.abandon(r, ctx.Err())
			return
		case <-r.stop:
			s.abandon(r, nil)
			return
		case <-ticker.C:
		}
		if spun < spins {
			if !s.spin(r) {
				s.abandon(r, nil)
				return
			}
			spun++
		}
		if spun >= spins {
			s.settle(r)
			return
		}
	}
}

// spin publishes a random pool member as the displayed name. It reports
// false once the round is no longer the session's current one.
func (s *Session) spin(r *round) bool {
	s.mu.Lock()
	if s.round != r {
		s.mu.Unlock()
		return false
	}
	name := r.pool[s.deps.rng.Intn(len(r.pool))]
	s.display = name
	s.mu.Unlock()

	// run is the only sender, so the length check cannot race.
	if len(r.events) < cap(r.events)-1 {
		r.events <- DrawEvent{Kind: EventSpin, Round: r.id, Name: name}
	}
	return true
}

// settle makes the final, independent pick and records the winner.
func (s *Session) settle(r *round) {
	s.mu.Lock()
	if s.round != r {
		s.mu.Unlock()
		s.abandon(r, nil)
		return
	}
	name, err := domain.PickOne(r.pool, s.deps.rng)
	if err != nil {
		// Pools are checked non-empty at start and never shrink.
		s.round = nil
		s.mu.Unlock()
		s.abandon(r, err)
		return
	}
	rec := domain.WinnerRecord{
		ID:        s.deps.ids.NewID(),
		Name:      name,
		Timestamp: s.deps.clock.Now(),
	}
	s.winners = append([]domain.WinnerRecord{rec}, s.winners...)
	s.display = name
	s.round = nil
	s.touch()
	s.mu.Unlock()

	r.cancel()
	s.deps.metrics.DrawFinished(OutcomeWinner)
	s.logger.Info("draw settled", "round", r.id, "winner", name)
	r.events <- DrawEvent{Kind: EventWinner, Round: r.id, Name: name, Winner: &rec}
}

// abandon ends r without a winner.
func (s *Session) abandon(r *round, cause error) {
	s.mu.Lock()
	if s.round == r {
		s.round = nil
	}
	s.mu.Unlock()

	r.cancel()
	s.deps.metrics.DrawFinished(OutcomeCancelled)
	s.logger.Info("draw cancelled", "round", r.id, "cause", cause)
	r.events <- DrawEvent{Kind: EventCancelled, Round: r.id, Err: cause}
}

// ResetWinners clears the winner history and the displayed name once c
// approves. A round still spinning is cancelled and records no winner.
// It reports whether the reset took place.
func (s *Session) ResetWinners(ctx context.Context, c ports.Confirmer) (bool, error) {
	ok, err := c.Confirm(ctx, "Clear all winners?")
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round != nil {
		s.round.cancel()
		s.round = nil
	}
	cleared := len(s.winners)
	s.winners = nil
	s.display = domain.Placeholder
	s.touch()
	s.logger.Info("winners reset", "cleared", cleared)
	return true, nil
}

// Drawing reports whether a round is in flight.
func (s *Session) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round != nil
}

// Display returns the currently displayed name.
func (s *Session) Display() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyList):
		return "empty_list"
	case errors.Is(err, domain.ErrPoolExhausted):
		return "exhausted"
	case errors.Is(err, domain.ErrDrawInProgress):
		return "in_progress"
	default:
		return "closed"
	}
}
