package library

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/redactly-cli/internal/api"
)

type fakeLister struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]api.Document
	gates   map[string]chan struct{}
	err     error
}

func (f *fakeLister) ListDocuments(ctx context.Context, email string) ([]api.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, email)
	gate := f.gates[email]
	docs := f.results[email]
	err := f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return docs, err
}

func docs(paths ...string) []api.Document {
	out := make([]api.Document, len(paths))
	for i, p := range paths {
		out[i] = api.Document{Path: p, Filename: p}
	}
	return out
}

func TestStoreFetchReplacesSnapshot(t *testing.T) {
	l := &fakeLister{results: map[string][]api.Document{
		"":        docs("a", "b", "c"),
		"x@y.com": docs("b"),
	}}
	s := NewStore(l, nil)

	got, err := s.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.Fetch(context.Background(), "x@y.com")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	_, ok := s.Lookup("a")
	assert.False(t, ok, "a should have fallen out of the snapshot")
	assert.Equal(t, "x@y.com", s.Filter())
	assert.False(t, s.Loading())
}

func TestStoreFetchErrorKeepsSnapshot(t *testing.T) {
	l := &fakeLister{results: map[string][]api.Document{"": docs("a")}}
	s := NewStore(l, nil)
	_, err := s.Fetch(context.Background(), "")
	require.NoError(t, err)

	l.err = &api.APIError{Kind: api.KindFetchFailed, StatusCode: 500, Message: "Failed to fetch documents"}
	_, err = s.Fetch(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, api.KindFetchFailed, api.KindOf(err))
	assert.Len(t, s.Documents(), 1)
}

func TestStoreDiscardsStaleResponse(t *testing.T) {
	slow := make(chan struct{})
	l := &fakeLister{
		results: map[string][]api.Document{"slow@x.com": docs("old"), "fast@x.com": docs("new")},
		gates:   map[string]chan struct{}{"slow@x.com": slow},
	}
	s := NewStore(l, nil)

	done := make(chan []api.Document)
	go func() {
		got, err := s.Fetch(context.Background(), "slow@x.com")
		assert.NoError(t, err)
		done <- got
	}()
	// Wait until the slow request has taken its token.
	require.Eventually(t, func() bool { return s.Loading() }, timeout, tick)

	_, err := s.Fetch(context.Background(), "fast@x.com")
	require.NoError(t, err)
	close(slow)
	stale := <-done

	_, ok := s.Lookup("new")
	assert.True(t, ok, "later request must win")
	_, ok = s.Lookup("old")
	assert.False(t, ok)
	assert.Equal(t, "fast@x.com", s.Filter())
	require.Len(t, stale, 1)
	assert.Equal(t, "new", stale[0].Path)
}

func TestSelectionToggleRoundTrip(t *testing.T) {
	sel := NewSelection()
	sel.Toggle("a")
	sel.Toggle("b")
	before := sel.Paths()

	sel.Toggle("p")
	assert.True(t, sel.Has("p"))
	sel.Toggle("p")
	assert.False(t, sel.Has("p"))
	assert.Equal(t, before, sel.Paths())
}

func TestSelectionSelectAllReplaces(t *testing.T) {
	sel := NewSelection()
	sel.Toggle("stale")
	all := docs("a", "b", "c")
	sel.SelectAll(all)
	assert.Equal(t, len(all), sel.Count())
	assert.False(t, sel.Has("stale"))

	sel.SelectAll(nil)
	assert.Zero(t, sel.Count())

	sel.Toggle("x")
	sel.Clear()
	assert.Zero(t, sel.Count())
}

func TestSelectionPrunedOnRefresh(t *testing.T) {
	l := &fakeLister{results: map[string][]api.Document{"": docs("a", "b")}}
	s := NewStore(l, nil)
	sel := NewSelection()
	sel.Track(s)

	_, err := s.Fetch(context.Background(), "")
	require.NoError(t, err)
	sel.SelectAll(s.Documents())
	require.Equal(t, 2, sel.Count())

	l.results[""] = docs("b")
	_, err = s.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, sel.Paths())
}

func TestStoreLookupMissing(t *testing.T) {
	s := NewStore(&fakeLister{err: errors.New("unused")}, nil)
	_, ok := s.Lookup("nope")
	assert.False(t, ok)
	assert.Empty(t, s.Documents())
}
