package ruleset

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"glean/internal/score/rule"
)

// snapshot is an immutable loaded rule set.
type snapshot struct {
	rules  rule.Set
	issues []rule.Issue
}

// Store holds the current rule set of a rule file. Readers get an immutable
// snapshot, so a reload never changes the rules of an evaluation in flight.
type Store struct {
	path    string
	current atomic.Pointer[snapshot]
	loadMu  sync.Mutex
}

// NewStore creates a store for the rule file at path. Call Load before use.
func NewStore(path string) *Store {
	s := &Store{path: path}
	s.current.Store(&snapshot{})
	return s
}

// Path returns the rule file path.
func (s *Store) Path() string {
	return s.path
}

// Rules returns the current rule set; nil when no rules are available.
func (s *Store) Rules() rule.Set {
	return s.current.Load().rules
}

// Issues returns the malformed rules skipped by the last successful load.
func (s *Store) Issues() []rule.Issue {
	return s.current.Load().issues
}

// Load (re)reads the rule file. A missing or unreadable file clears the rule set, so
// evaluations report "unchanged". A file that is not a rule list keeps the previous
// rule set. The error is returned in both cases.
func (s *Store) Load() error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Scoring rules file is absent", "path", s.path)
		} else {
			slog.Error("Unable to read scoring rules", "path", s.path, "error", err)
		}
		s.current.Store(&snapshot{})
		return err
	}

	rules, issues, err := rule.Parse(content)
	if err != nil {
		slog.Error("Unable to parse scoring rules, keeping previous set", "path", s.path, "error", err)
		return err
	}

	s.current.Store(&snapshot{rules: rules, issues: issues})
	slog.Info("Scoring rules loaded", "path", s.path, "rules", len(rules), "skipped", len(issues))
	return nil
}
