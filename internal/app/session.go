package app

import (
	"context"
	"io"
	"slices"
	"sync"

	"yashubustudio/deliveryadvisor/advisor"
)

const historyLimit = 500

// Session runs queries for the window and keeps their history, newest
// first.
type Session struct {
	engine *advisor.Engine

	mu      sync.RWMutex
	history []advisor.Outcome
}

func NewSession(engine *advisor.Engine) *Session {
	return &Session{engine: engine}
}

// Recommend runs one query and records its outcome.
func (s *Session) Recommend(ctx context.Context, query string) advisor.Outcome {
	o := advisor.Outcome{Query: query}
	outcomes, err := s.engine.RecommendAll(ctx, []string{query}, nil)
	switch {
	case err != nil:
		o.Err = err
	case len(outcomes) == 1:
		o = outcomes[0]
	}

	s.mu.Lock()
	s.history = slices.Insert(s.history, 0, o)
	if len(s.history) > historyLimit {
		s.history = s.history[:historyLimit]
	}
	s.mu.Unlock()
	return o
}

func (s *Session) History() []advisor.Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

func (s *Session) At(i int) (advisor.Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.history) {
		return advisor.Outcome{}, false
	}
	return s.history[i], true
}

func (s *Session) Clear() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

// ExportCSV writes the history oldest first.
func (s *Session) ExportCSV(w io.Writer) error {
	rows := s.History()
	slices.Reverse(rows)
	return advisor.WriteResultsCSV(w, rows)
}

func (s *Session) CatalogStats() advisor.CatalogStats {
	return s.engine.Catalog().Stats()
}
