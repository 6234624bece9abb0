package ports

import (
	"context"
	"time"

	"github.com/randomtoy/teamsync/internal/domain"
)

// Confirmer asks whoever drives the session to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a plain function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces opaque unique identifiers.
type IDGenerator interface {
	NewID() string
}

// RosterSource provides the built-in demo roster.
type RosterSource interface {
	DemoRoster(ctx context.Context) (domain.NameList, error)
}

// Metrics receives counters about session activity.
type Metrics interface {
	DrawStarted()
	DrawFinished(outcome string)
	DrawRejected(reason string)
	GroupsGenerated(groups int)
	NamesLoaded(source string, n int)
	SessionsOpen(delta int)
}
