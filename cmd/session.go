package cmd

import (
	"context"
	"time"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	"github.com/KaramelBytes/redactly-cli/internal/artifact"
	"github.com/KaramelBytes/redactly-cli/internal/batch"
	cfgpkg "github.com/KaramelBytes/redactly-cli/internal/config"
	"github.com/KaramelBytes/redactly-cli/internal/library"
)

// session wires one invocation's client, document list and selection.
type session struct {
	cfg       *cfgpkg.Global
	client    *api.Client
	store     *library.Store
	selection *library.Selection
	saver     *artifact.Saver
}

func newSession() *session {
	c := cfg
	if c == nil {
		c = &cfgpkg.Global{BaseURL: api.DefaultBaseURL, OutputDir: "."}
	}
	client := api.NewClient(
		c.BaseURL,
		time.Duration(c.HTTPTimeoutSec)*time.Second,
		c.RetryMaxAttempts,
		time.Duration(c.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(c.RetryMaxDelayMs)*time.Millisecond,
	).WithLogger(logger)
	store := library.NewStore(client, logger)
	sel := library.NewSelection()
	sel.Track(store)
	return &session{
		cfg:       c,
		client:    client,
		store:     store,
		selection: sel,
		saver:     artifact.NewSaver(c.OutputDir),
	}
}

// refreshHook re-fetches the document list with filter after a mutation.
func (s *session) refreshHook(filter string) batch.Hook {
	return func(ctx context.Context) error {
		docs, err := s.store.Fetch(ctx, filter)
		if err != nil {
			return err
		}
		logger.Debug("document list refreshed after operation", "count", len(docs))
		return nil
	}
}

// selectDocuments loads the list for filter and selects either every document
// (all) or the requested paths that exist in it.
func (s *session) selectDocuments(ctx context.Context, filter string, paths []string, all bool) ([]string, error) {
	docs, err := s.store.Fetch(ctx, filter)
	if err != nil {
		return nil, err
	}
	if all {
		s.selection.SelectAll(docs)
	}
	for _, p := range paths {
		if _, ok := s.store.Lookup(p); !ok {
			logger.Warn("ignoring path not in document list", "path", p, "filter", filter)
			continue
		}
		if !s.selection.Has(p) {
			s.selection.Toggle(p)
		}
	}
	return s.selection.Paths(), nil
}

// sessionEmail picks the explicit flag value, then the configured email.
func (s *session) sessionEmail(flag string) string {
	if flag != "" {
		return flag
	}
	return s.cfg.Email
}
