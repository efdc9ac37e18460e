package library

import (
	"sort"
	"sync"

	"github.com/KaramelBytes/redactly-cli/internal/api"
)

// Selection is the set of selected document paths.
type Selection struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{paths: map[string]struct{}{}}
}

// Toggle adds path if absent and removes it if present.
func (s *Selection) Toggle(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[path]; ok {
		delete(s.paths, path)
		return
	}
	s.paths[path] = struct{}{}
}

// SelectAll replaces the selection with exactly the paths of docs.
// An empty list clears it.
func (s *Selection) SelectAll(docs []api.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = make(map[string]struct{}, len(docs))
	for _, d := range docs {
		s.paths[d.Path] = struct{}{}
	}
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = map[string]struct{}{}
}

func (s *Selection) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	return ok
}

func (s *Selection) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// Paths returns the selected paths in sorted order.
func (s *Selection) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Reconcile drops selected paths that are not in docs and returns how many were pruned.
func (s *Selection) Reconcile(docs []api.Document) int {
	present := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		present[d.Path] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for p := range s.paths {
		if _, ok := present[p]; !ok {
			delete(s.paths, p)
			pruned++
		}
	}
	return pruned
}

// Track keeps the selection reconciled with every refresh of store.
func (s *Selection) Track(store *Store) {
	store.OnRefresh(func(docs []api.Document) { s.Reconcile(docs) })
}
