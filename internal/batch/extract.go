package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	"github.com/KaramelBytes/redactly-cli/internal/artifact"
)

// StructuredClient requests structured extraction.
type StructuredClient interface {
	Structured(ctx context.Context, paths []string) ([]api.StructuredResult, error)
}

// Saver persists artifacts.
type Saver interface {
	SaveBlob(a *artifact.Artifact) (string, error)
}

// Extraction is the outcome of a successful structured extraction.
type Extraction struct {
	Results      []api.StructuredResult
	ArtifactPath string
}

// Extractor runs structured extraction and keeps the latest results.
type Extractor struct {
	client StructuredClient
	saver  Saver
	runner *Runner
	log    *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	results []api.StructuredResult

	// AfterExtract runs after a successful extraction; processed flags may have changed.
	AfterExtract Hook
}

func NewExtractor(client StructuredClient, saver Saver, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		client: client,
		saver:  saver,
		runner: NewRunner("structured extraction", log),
		log:    log,
		now:    time.Now,
	}
}

// State returns the lifecycle state of the last extraction.
func (e *Extractor) State() State { return e.runner.State() }

// Results returns the results of the last successful extraction.
func (e *Extractor) Results() []api.StructuredResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]api.StructuredResult(nil), e.results...)
}

// ExtractStructured extracts structured data for paths, replaces the held results
// and saves them as structured_data_<epoch-ms>.json.
func (e *Extractor) ExtractStructured(ctx context.Context, paths []string) (*Extraction, error) {
	out, err := runOnPaths(ctx, e.runner, paths, e.extract)
	if err != nil {
		return nil, err
	}
	runHook(ctx, e.log, "structured extraction", e.AfterExtract)
	return out, nil
}

func (e *Extractor) extract(ctx context.Context, paths []string) (*Extraction, error) {
	results, err := e.client.Structured(ctx, paths)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.results = results
	e.mu.Unlock()

	a, err := artifact.JSON(results, fmt.Sprintf("structured_data_%d.json", e.now().UnixMilli()))
	if err != nil {
		return nil, err
	}
	path, err := e.saver.SaveBlob(a)
	if err != nil {
		return nil, fmt.Errorf("save structured data: %w", err)
	}
	e.log.Info("structured data saved", "path", path, "documents", len(results))
	return &Extraction{Results: results, ArtifactPath: path}, nil
}
