package app_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/randomtoy/teamsync/internal/app"
	"github.com/randomtoy/teamsync/internal/domain"
	"github.com/randomtoy/teamsync/internal/ports"
)

func TestStartDraw_EventSequence(t *testing.T) {
	f := newFixture(t, 3)
	sess := f.session(t, "A,B,C")

	events, err := sess.StartDraw(context.Background())
	if err != nil {
		t.Fatalf("StartDraw: %v", err)
	}
	got := drain(t, events)

	if len(got) != 4 {
		t.Fatalf("expected 3 spins and a winner, got %d events", len(got))
	}
	for i, ev := range got[:3] {
		if ev.Kind != app.EventSpin || ev.Name == "" {
			t.Errorf("event %d: expected spin with a name, got %+v", i, ev)
		}
	}
	last := got[3]
	if last.Kind != app.EventWinner || last.Winner == nil {
		t.Fatalf("expected winner event, got %+v", last)
	}
	if last.Winner.Name != last.Name {
		t.Errorf("winner record %q does not match event name %q", last.Winner.Name, last.Name)
	}
	if !last.Winner.Timestamp.Equal(f.clock.Now()) {
		t.Errorf("unexpected timestamp %v", last.Winner.Timestamp)
	}
	if sess.Display() != last.Name {
		t.Errorf("display = %q, want %q", sess.Display(), last.Name)
	}
	if sess.Drawing() {
		t.Error("session still drawing after winner")
	}
}

func TestStartDraw_ZeroSpinsSettlesImmediately(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.session(t, "Solo")

	last := drawOnce(t, sess)
	if last.Kind != app.EventWinner || last.Name != "Solo" {
		t.Fatalf("expected Solo to win, got %+v", last)
	}
}

func TestStartDraw_ExhaustsWithoutRepeat(t *testing.T) {
	f := newFixture(t, 2)
	sess := f.session(t, "A\nB\nC")

	for range 3 {
		if ev := drawOnce(t, sess); ev.Kind != app.EventWinner {
			t.Fatalf("expected winner, got %+v", ev)
		}
	}

	won := make(map[string]int)
	for _, w := range sess.Winners() {
		won[w.Name]++
	}
	if diff := cmp.Diff(map[string]int{"A": 1, "B": 1, "C": 1}, won); diff != "" {
		t.Errorf("winner history mismatch (-want +got):\n%s", diff)
	}

	before := sess.Snapshot()
	if _, err := sess.StartDraw(context.Background()); !errors.Is(err, domain.ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
	if diff := cmp.Diff(before, sess.Snapshot()); diff != "" {
		t.Errorf("rejected start changed state (-before +after):\n%s", diff)
	}
	if n := f.metrics.rejections("exhausted"); n != 1 {
		t.Errorf("expected one exhausted rejection, got %d", n)
	}
}

func TestStartDraw_AllowRepeat(t *testing.T) {
	f := newFixture(t, 1)
	sess := f.session(t, "A")
	sess.SetAllowRepeat(true)

	for i := range 10 {
		ev := drawOnce(t, sess)
		if ev.Kind != app.EventWinner || ev.Name != "A" {
			t.Fatalf("round %d: expected A to win, got %+v", i, ev)
		}
		if n := len(sess.Winners()); n != i+1 {
			t.Fatalf("round %d: expected %d winners, got %d", i, i+1, n)
		}
	}
	if sess.EligibleCount() != 1 {
		t.Errorf("expected A to stay eligible")
	}
}

func TestStartDraw_WinnersNewestFirst(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.session(t, "A,B")

	first := drawOnce(t, sess)
	f.clock.Advance(time.Minute)
	second := drawOnce(t, sess)

	winners := sess.Winners()
	if len(winners) != 2 {
		t.Fatalf("expected 2 winners, got %d", len(winners))
	}
	if winners[0].ID != second.Winner.ID || winners[1].ID != first.Winner.ID {
		t.Errorf("expected newest first, got %+v", winners)
	}
	if winners[0].ID == winners[1].ID {
		t.Error("winner ids are not unique")
	}
	if !winners[0].Timestamp.After(winners[1].Timestamp) {
		t.Error("expected newer timestamp first")
	}
}

func TestStartDraw_EmptyList(t *testing.T) {
	f := newFixture(t, 1)
	sess := f.session(t, " , ;\n")

	if _, err := sess.StartDraw(context.Background()); !errors.Is(err, domain.ErrEmptyList) {
		t.Fatalf("expected ErrEmptyList, got %v", err)
	}
	if sess.Drawing() {
		t.Error("rejected start left the session drawing")
	}
}

func TestStartDraw_RejectsWhileDrawing(t *testing.T) {
	f := newFixture(t, 10000)
	sess := f.session(t, "A,B")

	events, err := sess.StartDraw(context.Background())
	if err != nil {
		t.Fatalf("StartDraw: %v", err)
	}
	if _, err := sess.StartDraw(context.Background()); !errors.Is(err, domain.ErrDrawInProgress) {
		t.Fatalf("expected ErrDrawInProgress, got %v", err)
	}

	sess.Close()
	got := drain(t, events)
	if got[len(got)-1].Kind != app.EventCancelled {
		t.Errorf("expected cancelled, got %+v", got[len(got)-1])
	}
	if _, err := sess.StartDraw(context.Background()); !errors.Is(err, domain.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestStartDraw_ContextCancelled(t *testing.T) {
	f := newFixture(t, 10000)
	sess := f.session(t, "A,B")

	ctx, cancel := context.WithCancel(context.Background())
	events, err := sess.StartDraw(ctx)
	if err != nil {
		t.Fatalf("StartDraw: %v", err)
	}
	cancel()

	got := drain(t, events)
	last := got[len(got)-1]
	if last.Kind != app.EventCancelled || !errors.Is(last.Err, context.Canceled) {
		t.Fatalf("expected cancelled with context.Canceled, got %+v", last)
	}
	if len(sess.Winners()) != 0 {
		t.Error("cancelled round recorded a winner")
	}
	if sess.Drawing() {
		t.Error("session still drawing after cancel")
	}

	// The session accepts a new round afterwards.
	if _, err := sess.StartDraw(context.Background()); err != nil {
		t.Fatalf("StartDraw after cancel: %v", err)
	}
}

func TestStartDraw_DoesNotMutateNames(t *testing.T) {
	f := newFixture(t, 2)
	sess := f.session(t, "A,B,C,A")
	before := sess.Names()

	drawOnce(t, sess)

	if diff := cmp.Diff(before, sess.Names()); diff != "" {
		t.Errorf("draw mutated names (-before +after):\n%s", diff)
	}
}

func TestStartDraw_PoolSnapshot(t *testing.T) {
	f := newFixture(t, 20)
	sess := f.session(t, "Only")

	events, err := sess.StartDraw(context.Background())
	if err != nil {
		t.Fatalf("StartDraw: %v", err)
	}
	sess.SetText("Someone Else")

	got := drain(t, events)
	last := got[len(got)-1]
	if last.Kind != app.EventWinner || last.Name != "Only" {
		t.Fatalf("expected the snapshotted pool to win, got %+v", last)
	}
}

func TestResetWinners_CancelsInFlightRound(t *testing.T) {
	f := newFixture(t, 10000)
	sess := f.session(t, "A,B,C")

	events, err := sess.StartDraw(context.Background())
	if err != nil {
		t.Fatalf("StartDraw: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Kind != app.EventSpin {
			t.Fatalf("expected spin, got %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no spin received")
	}

	ok, err := sess.ResetWinners(context.Background(), approve(true))
	if err != nil || !ok {
		t.Fatalf("ResetWinners = %v, %v", ok, err)
	}

	got := drain(t, events)
	if last := got[len(got)-1]; last.Kind != app.EventCancelled {
		t.Fatalf("expected cancelled, got %+v", last)
	}
	for _, ev := range got {
		if ev.Kind == app.EventWinner {
			t.Fatalf("reset round still produced a winner: %+v", ev)
		}
	}
	if len(sess.Winners()) != 0 {
		t.Errorf("expected no winners, got %v", sess.Winners())
	}
	if sess.Display() != domain.Placeholder {
		t.Errorf("display = %q, want placeholder", sess.Display())
	}
	if sess.Drawing() {
		t.Error("session still drawing after reset")
	}
}

func TestResetWinners_Declined(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.session(t, "A,B")
	winner := drawOnce(t, sess)

	ok, err := sess.ResetWinners(context.Background(), approve(false))
	if err != nil || ok {
		t.Fatalf("ResetWinners = %v, %v", ok, err)
	}
	if len(sess.Winners()) != 1 || sess.Display() != winner.Name {
		t.Errorf("declined reset changed state: winners=%v display=%q", sess.Winners(), sess.Display())
	}
}

func TestResetWinners_ConfirmError(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.session(t, "A")
	drawOnce(t, sess)

	boom := errors.New("prompt closed")
	failing := ports.ConfirmFunc(func(context.Context, string) (bool, error) { return false, boom })
	if _, err := sess.ResetWinners(context.Background(), failing); !errors.Is(err, boom) {
		t.Fatalf("expected prompt error, got %v", err)
	}
	if len(sess.Winners()) != 1 {
		t.Error("failed confirmation cleared winners")
	}
}

func TestResetWinners_RestoresEligibility(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.session(t, "A")
	drawOnce(t, sess)

	if _, err := sess.StartDraw(context.Background()); !errors.Is(err, domain.ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
	if ok, err := sess.ResetWinners(context.Background(), approve(true)); err != nil || !ok {
		t.Fatalf("ResetWinners = %v, %v", ok, err)
	}
	if ev := drawOnce(t, sess); ev.Name != "A" {
		t.Errorf("expected A to win again, got %+v", ev)
	}
}

func TestSessionClose_Idempotent(t *testing.T) {
	f := newFixture(t, 10000)
	sess := f.session(t, "A")

	events, err := sess.StartDraw(context.Background())
	if err != nil {
		t.Fatalf("StartDraw: %v", err)
	}
	sess.Close()
	sess.Close()
	got := drain(t, events)
	if got[len(got)-1].Kind != app.EventCancelled {
		t.Errorf("expected cancelled, got %+v", got[len(got)-1])
	}
}

func TestStartDraw_HugeSpinCountKeepsBufferSmall(t *testing.T) {
	f := newFixture(t, math.MaxInt)
	sess := f.session(t, "A,B")

	events, err := sess.StartDraw(context.Background())
	if err != nil {
		t.Fatalf("StartDraw: %v", err)
	}
	if c := cap(events); c > 65 {
		t.Errorf("event buffer holds %d events", c)
	}

	sess.Close()
	got := drain(t, events)
	if last := got[len(got)-1]; last.Kind != app.EventCancelled {
		t.Fatalf("expected cancelled, got %+v", last)
	}
}

func TestStartDraw_SlowConsumerStillGetsWinner(t *testing.T) {
	f := newFixture(t, 200)
	sess := f.session(t, "A,B,C")

	events, err := sess.StartDraw(context.Background())
	if err != nil {
		t.Fatalf("StartDraw: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for sess.Drawing() {
		if time.Now().After(deadline) {
			t.Fatal("round did not settle")
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := drain(t, events)
	if len(got) > cap(events) {
		t.Errorf("got %d events from a buffer of %d", len(got), cap(events))
	}
	spins := 0
	for _, ev := range got[:len(got)-1] {
		if ev.Kind != app.EventSpin {
			t.Fatalf("expected spin, got %+v", ev)
		}
		spins++
	}
	if spins == 0 || spins >= 200 {
		t.Errorf("expected some but not all spins to be buffered, got %d", spins)
	}
	last := got[len(got)-1]
	if last.Kind != app.EventWinner {
		t.Fatalf("expected winner, got %+v", last)
	}
	if w := sess.Winners(); len(w) != 1 || w[0].Name != last.Name {
		t.Errorf("winner history %v does not match %q", w, last.Name)
	}
}

func TestBeginDraw_ReportsSnapshottedPool(t *testing.T) {
	f := newFixture(t, 0)
	sess := f.session(t, "A,B,C")
	drawOnce(t, sess)

	start, err := sess.BeginDraw(context.Background())
	if err != nil {
		t.Fatalf("BeginDraw: %v", err)
	}
	sess.SetText("A,B,C,D,E")

	if start.Eligible != 2 {
		t.Errorf("Eligible = %d, want 2", start.Eligible)
	}
	if start.Round != 2 {
		t.Errorf("Round = %d, want 2", start.Round)
	}
	got := drain(t, start.Events)
	if last := got[len(got)-1]; last.Kind != app.EventWinner || last.Round != start.Round {
		t.Fatalf("expected winner for round %d, got %+v", start.Round, last)
	}
}
