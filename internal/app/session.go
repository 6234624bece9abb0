package app

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/randomtoy/teamsync/internal/domain"
)

// Name sources reported to metrics.
const (
	SourceText   = "text"
	SourceImport = "import"
	SourceDemo   = "demo"
)

// Snapshot is a consistent read-only copy of a session's state.
type Snapshot struct {
	ID             string
	Text           string
	Names          domain.NameList
	Duplicates     []string
	Winners        []domain.WinnerRecord
	AllowRepeat    bool
	Eligible       int
	State          domain.DrawState
	Display        string
	GroupSize      int
	ExpectedGroups int
	Groups         []domain.Group
	UpdatedAt      time.Time
}

// Session owns all state of one user's working set: the backing text and
// name list, the winner history, and the last generated groups. Every
// mutation goes through its mutex, so the draw goroutine and callers
// never write concurrently.
type Session struct {
	id      string
	deps    deps
	draw    DrawConfig
	logger  *slog.Logger
	maxRead int64

	mu          sync.Mutex
	text        string
	names       domain.NameList
	winners     []domain.WinnerRecord // newest first
	allowRepeat bool
	display     string
	groupSize   int
	groups      []domain.Group
	round       *round
	rounds      uint64
	closed      bool
	updatedAt   time.Time
}

func newSession(id string, d deps, cfg Config, logger *slog.Logger) *Session {
	return &Session{
		id:        id,
		deps:      d,
		draw:      cfg.Draw,
		logger:    logger.With("session_id", id),
		maxRead:   cfg.MaxImportBytes,
		display:   domain.Placeholder,
		groupSize: domain.ClampGroupSize(cfg.DefaultGroupSize),
		updatedAt: d.clock.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LastActive reports when the session was last modified.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// SetText replaces the backing text and re-parses the name list.
func (s *Session) SetText(raw string) domain.NameList {
	return s.load(raw, SourceText)
}

// Import reads the full contents of r and replaces the name list with it.
// On a read failure the session is left untouched.
func (s *Session) Import(r io.Reader) (domain.NameList, error) {
	limit := s.maxRead
	if limit <= 0 {
		limit = defaultMaxImportBytes
	}
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		s.logger.Warn("import read failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrImportFailed, err)
	}
	if int64(len(raw)) > limit {
		s.logger.Warn("import too large", "limit_bytes", limit)
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrImportFailed, limit)
	}
	return s.load(string(raw), SourceImport), nil
}

func (s *Session) load(raw, source string) domain.NameList {
	names := domain.Normalize(raw)

	s.mu.Lock()
	s.text = raw
	s.names = names
	s.touch()
	s.mu.Unlock()

	s.deps.metrics.NamesLoaded(source, len(names))
	s.logger.Debug("names loaded", "source", source, "count", len(names))
	return names.Clone()
}

func (s *Session) loadList(names domain.NameList, source string) domain.NameList {
	s.mu.Lock()
	s.names = names.Clone()
	s.text = names.Text()
	s.touch()
	s.mu.Unlock()

	s.deps.metrics.NamesLoaded(source, len(names))
	return names.Clone()
}

// Deduplicate drops repeated names, keeping first occurrences, and rewrites
// the backing text one name per line.
func (s *Session) Deduplicate() domain.NameList {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.names)
	s.names = domain.Deduplicate(s.names)
	s.text = s.names.Text()
	s.touch()
	s.logger.Info("duplicates removed", "removed", before-len(s.names))
	return s.names.Clone()
}

// Clear empties the backing text and the name list. Winner history and
// generated groups are kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = ""
	s.names = nil
	s.touch()
}

// Names returns a copy of the current name list.
func (s *Session) Names() domain.NameList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names.Clone()
}

// SetAllowRepeat toggles whether previous winners stay eligible.
func (s *Session) SetAllowRepeat(allow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowRepeat = allow
	s.touch()
}

// EligibleCount is the size of the pool the next round would draw from.
func (s *Session) EligibleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(domain.EligiblePool(s.names, s.winners, s.allowRepeat))
}

// Winners returns the winner history, newest first.
func (s *Session) Winners() []domain.WinnerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.winners)
}

// GenerateGroups shuffles the name list and chunks it into groups of size.
// A non-positive size is treated as 1.
func (s *Session) GenerateGroups(size int) ([]domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.names) == 0 {
		return nil, domain.ErrEmptyList
	}
	s.groupSize = domain.ClampGroupSize(size)
	s.groups = domain.Chunk(domain.Shuffle(s.names, s.deps.rng), s.groupSize)
	s.touch()

	s.deps.metrics.GroupsGenerated(len(s.groups))
	s.logger.Info("groups generated", "names", len(s.names), "group_size", s.groupSize, "groups", len(s.groups))
	return cloneGroups(s.groups), nil
}

// Groups returns the most recently generated groups.
func (s *Session) Groups() []domain.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGroups(s.groups)
}

// GroupSize returns the group size last used or the configured default.
func (s *Session) GroupSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupSize
}

// ExportGroupsCSV writes the last generated groups as CSV.
func (s *Session) ExportGroupsCSV(w io.Writer) error {
	groups := s.Groups()
	if len(groups) == 0 {
		return domain.ErrNoGroups
	}
	return domain.WriteGroupsCSV(w, groups)
}

// Snapshot returns a copy of the whole session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := domain.DrawIdle
	if s.round != nil {
		state = domain.DrawDrawing
	}
	return Snapshot{
		ID:             s.id,
		Text:           s.text,
		Names:          s.names.Clone(),
		Duplicates:     domain.FindDuplicates(s.names),
		Winners:        slices.Clone(s.winners),
		AllowRepeat:    s.allowRepeat,
		Eligible:       len(domain.EligiblePool(s.names, s.winners, s.allowRepeat)),
		State:          state,
		Display:        s.display,
		GroupSize:      s.groupSize,
		ExpectedGroups: domain.ExpectedGroups(len(s.names), s.groupSize),
		Groups:         cloneGroups(s.groups),
		UpdatedAt:      s.updatedAt,
	}
}

// Close cancels any in-flight draw. Further draws are rejected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.round != nil {
		s.round.cancel()
		s.round = nil
	}
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.updatedAt = s.deps.clock.Now()
}

func cloneGroups(groups []domain.Group) []domain.Group {
	if groups == nil {
		return nil
	}
	out := make([]domain.Group, len(groups))
	for i, g := range groups {
		out[i] = slices.Clone(g)
	}
	return out
}
