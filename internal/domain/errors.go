package domain

import "errors"

var (
	ErrEmptyList       = errors.New("name list is empty")
	ErrPoolExhausted   = errors.New("everyone has already won")
	ErrDrawInProgress  = errors.New("a draw is already in progress")
	ErrNoGroups        = errors.New("no groups have been generated")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrImportFailed    = errors.New("import failed")
)
