package roster

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/randomtoy/teamsync/internal/domain"
)

//go:embed data/demo.json
var rosterFS embed.FS

const demoFile = "data/demo.json"

// EmbeddedStore serves the demo roster compiled into the binary.
type EmbeddedStore struct {
	once  sync.Once
	names domain.NameList
	err   error
}

func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

func (s *EmbeddedStore) init() {
	raw, err := rosterFS.ReadFile(demoFile)
	if err != nil {
		s.err = fmt.Errorf("read embedded roster: %w", err)
		return
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		s.err = fmt.Errorf("parse embedded roster: %w", err)
		return
	}
	// Run the entries through the normalizer so the roster obeys the same
	// invariants as pasted text.
	s.names = domain.Normalize(domain.NameList(names).Text())
}

// DemoRoster returns a fresh copy of the demo names.
func (s *EmbeddedStore) DemoRoster(_ context.Context) (domain.NameList, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return nil, s.err
	}
	return s.names.Clone(), nil
}
