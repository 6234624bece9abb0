package app_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/randomtoy/teamsync/internal/adapters/sessions"
	"github.com/randomtoy/teamsync/internal/app"
	"github.com/randomtoy/teamsync/internal/domain"
	"github.com/randomtoy/teamsync/internal/ports"
)

// cycleRNG returns 0, 1, 2, ... modulo n.
type cycleRNG struct {
	mu   sync.Mutex
	next int
}

func (r *cycleRNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.next % n
	r.next++
	return v
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type fakeRoster struct {
	names domain.NameList
	err   error
}

func (f fakeRoster) DemoRoster(context.Context) (domain.NameList, error) {
	return f.names, f.err
}

type countingMetrics struct {
	mu       sync.Mutex
	started  int
	finished map[string]int
	rejected map[string]int
	loaded   map[string]int
	sessions int
	groups   int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		finished: make(map[string]int),
		rejected: make(map[string]int),
		loaded:   make(map[string]int),
	}
}

func (m *countingMetrics) DrawStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *countingMetrics) DrawFinished(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[outcome]++
}

func (m *countingMetrics) DrawRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *countingMetrics) GroupsGenerated(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups += n
}

func (m *countingMetrics) NamesLoaded(source string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded[source] += n
}

func (m *countingMetrics) SessionsOpen(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions += delta
}

func (m *countingMetrics) rejections(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejected[reason]
}

func (m *countingMetrics) openSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions
}

func approve(ok bool) ports.Confirmer {
	return ports.ConfirmFunc(func(context.Context, string) (bool, error) { return ok, nil })
}

type fixture struct {
	svc     *app.TeamService
	store   *sessions.MemoryStore
	clock   *fakeClock
	metrics *countingMetrics
}

func newFixture(t *testing.T, spins int) fixture {
	t.Helper()
	f := fixture{
		store:   sessions.NewMemoryStore(),
		clock:   newFakeClock(),
		metrics: newCountingMetrics(),
	}
	cfg := app.Config{
		Draw:             app.DrawConfig{Spins: spins, Interval: time.Millisecond},
		DefaultGroupSize: 4,
		MaxImportBytes:   64,
	}
	roster := fakeRoster{names: domain.NameList{"Demo One", "Demo Two"}}
	f.svc = app.NewTeamService(f.store, roster, &cycleRNG{}, f.clock, &seqIDs{}, cfg,
		app.WithMetrics(f.metrics),
		app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return f
}

func (f fixture) session(t *testing.T, text string) *app.Session {
	t.Helper()
	sess, err := f.svc.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(sess.Close)
	sess.SetText(text)
	return sess
}

// drain collects every event until the round's channel closes.
func drain(t *testing.T, events <-chan app.DrawEvent) []app.DrawEvent {
	t.Helper()
	var out []app.DrawEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("round did not finish, got %d events", len(out))
		}
	}
}

// drawOnce runs a full round and returns its terminal event.
func drawOnce(t *testing.T, sess *app.Session) app.DrawEvent {
	t.Helper()
	events, err := sess.StartDraw(context.Background())
	if err != nil {
		t.Fatalf("StartDraw: %v", err)
	}
	got := drain(t, events)
	if len(got) == 0 {
		t.Fatal("round produced no events")
	}
	return got[len(got)-1]
}
