// Package library keeps the client-side view of the server's document list and
// the user's selection over it.
package library

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/KaramelBytes/redactly-cli/internal/api"
)

// Lister fetches the document list from the server.
type Lister interface {
	ListDocuments(ctx context.Context, email string) ([]api.Document, error)
}

// Store is a read-through cache of the server's document list.
// Each Fetch replaces the whole snapshot; a response older than the last applied
// one is discarded.
type Store struct {
	lister Lister
	log    *slog.Logger

	seq      atomic.Uint64
	inFlight atomic.Int32

	mu      sync.RWMutex
	applied uint64
	filter  string
	docs    []api.Document
	byPath  map[string]int
	hooks   []func([]api.Document)
}

// NewStore returns an empty store backed by lister.
func NewStore(lister Lister, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{lister: lister, log: log, byPath: map[string]int{}}
}

// OnRefresh registers fn to run after every applied replacement, with a copy of the new list.
func (s *Store) OnRefresh(fn func([]api.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool { return s.inFlight.Load() > 0 }

// Fetch loads the list for emailFilter ("" for all documents) and returns the
// snapshot in effect afterwards. If a later fetch already completed, the result of
// this one is dropped and the newer snapshot is returned.
func (s *Store) Fetch(ctx context.Context, emailFilter string) ([]api.Document, error) {
	token := s.seq.Add(1)
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	docs, err := s.lister.ListDocuments(ctx, emailFilter)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if token < s.applied {
		s.mu.Unlock()
		s.log.Debug("discarding stale document list", "token", token, "applied", s.applied, "filter", emailFilter)
		return s.Documents(), nil
	}
	s.applied = token
	s.filter = emailFilter
	s.docs = append([]api.Document(nil), docs...)
	s.byPath = make(map[string]int, len(docs))
	for i, d := range s.docs {
		s.byPath[d.Path] = i
	}
	hooks := append([]func([]api.Document){}, s.hooks...)
	snapshot := append([]api.Document(nil), s.docs...)
	s.mu.Unlock()

	s.log.Debug("document list refreshed", "count", len(snapshot), "filter", emailFilter)
	for _, fn := range hooks {
		fn(append([]api.Document(nil), snapshot...))
	}
	return snapshot, nil
}

// Documents returns a copy of the current snapshot.
func (s *Store) Documents() []api.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.Document{}, s.docs...)
}

// Lookup finds a document by path in the current snapshot.
func (s *Store) Lookup(path string) (api.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byPath[path]
	if !ok {
		return api.Document{}, false
	}
	return s.docs[i], true
}

// Filter returns the email filter of the current snapshot.
func (s *Store) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}
