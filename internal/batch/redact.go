package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	"github.com/KaramelBytes/redactly-cli/internal/artifact"
)

// RedactionMethod selects how sensitive text is treated.
type RedactionMethod string

const (
	MethodFullRedact RedactionMethod = "full_redact"
	MethodObfuscate  RedactionMethod = "obfuscate"
	MethodReplace    RedactionMethod = "replace"
)

// DefaultReplaceText is the placeholder offered for the replace method.
const DefaultReplaceText = "[REDACTED]"

// Methods lists the accepted redaction methods.
var Methods = []RedactionMethod{MethodFullRedact, MethodObfuscate, MethodReplace}

// RedactionConfig is the per-call redaction setting.
type RedactionConfig struct {
	Method      RedactionMethod
	ReplaceText string
}

// NewRedactionConfig validates method and replaceText. replaceText is required
// for the replace method and dropped otherwise.
func NewRedactionConfig(method, replaceText string) (RedactionConfig, error) {
	m := RedactionMethod(strings.ToLower(strings.TrimSpace(method)))
	switch m {
	case MethodFullRedact, MethodObfuscate:
		return RedactionConfig{Method: m}, nil
	case MethodReplace:
		if replaceText == "" {
			return RedactionConfig{}, &api.ValidationError{Field: "replace_text", Message: "replacement text is required for the replace method"}
		}
		return RedactionConfig{Method: m, ReplaceText: replaceText}, nil
	}
	return RedactionConfig{}, &api.ValidationError{Field: "method", Message: fmt.Sprintf("unknown redaction method %q (use full_redact|obfuscate|replace)", method)}
}

// RedactClient fetches document bytes and submits redaction batches.
type RedactClient interface {
	DocumentByHash(ctx context.Context, hash string) ([]byte, error)
	Redact(ctx context.Context, req api.RedactRequest) (*api.RedactResponse, error)
}

// DocumentSource resolves a selected path to its current document record.
type DocumentSource interface {
	Lookup(path string) (api.Document, bool)
}

// Redaction is the outcome of a successful redaction.
type Redaction struct {
	Artifact     *artifact.Artifact
	ArtifactPath string
	Included     []string
	Skipped      []string
}

// Redactor resolves selected documents to bytes and submits them as one batch.
type Redactor struct {
	client RedactClient
	docs   DocumentSource
	saver  Saver
	runner *Runner
	log    *slog.Logger

	// Email is the session email; when empty the caller's fallback is used.
	Email string
	// Concurrency bounds parallel content fetches.
	Concurrency int
}

func NewRedactor(client RedactClient, docs DocumentSource, saver Saver, log *slog.Logger) *Redactor {
	if log == nil {
		log = slog.Default()
	}
	return &Redactor{
		client:      client,
		docs:        docs,
		saver:       saver,
		runner:      NewRunner("redaction", log),
		log:         log,
		Concurrency: 4,
	}
}

// State returns the lifecycle state of the last redaction.
func (r *Redactor) State() State { return r.runner.State() }

// Redact redacts the documents at paths. Paths missing from the current list or
// without a content hash are skipped.
func (r *Redactor) Redact(ctx context.Context, paths []string, cfg RedactionConfig, fallbackEmail string) (*Redaction, error) {
	return runOnPaths(ctx, r.runner, paths, func(ctx context.Context, paths []string) (*Redaction, error) {
		return r.redact(ctx, paths, cfg, fallbackEmail)
	})
}

func (r *Redactor) redact(ctx context.Context, paths []string, cfg RedactionConfig, fallbackEmail string) (*Redaction, error) {
	out := &Redaction{}
	var candidates []api.Document
	for _, p := range paths {
		doc, ok := r.docs.Lookup(p)
		if !ok {
			r.log.Debug("skipping selection not in document list", "path", p)
			out.Skipped = append(out.Skipped, p)
			continue
		}
		if !doc.HasContent() {
			r.log.Debug("skipping document without content hash", "path", p)
			out.Skipped = append(out.Skipped, p)
			continue
		}
		candidates = append(candidates, doc)
	}
	if len(candidates) == 0 {
		return nil, &api.ValidationError{Field: "paths", Message: "none of the selected documents has content available for redaction"}
	}

	parts := make([]api.FilePart, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}
	for i, doc := range candidates {
		g.Go(func() error {
			data, err := r.client.DocumentByHash(gctx, *doc.Hash)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", doc.Path, err)
			}
			parts[i] = api.FilePart{Name: partName(doc), ContentType: "application/pdf", Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	email := r.Email
	if email == "" {
		email = fallbackEmail
	}
	req := api.RedactRequest{Files: parts, Method: string(cfg.Method), Email: email}
	if cfg.Method == MethodReplace {
		req.ReplaceText = cfg.ReplaceText
	}
	resp, err := r.client.Redact(ctx, req)
	if err != nil {
		return nil, err
	}
	ct := resp.ContentType
	if ct == "" {
		ct = "application/zip"
	}
	out.Artifact = &artifact.Artifact{
		Filename:    artifact.ExtractFilename(resp.ContentDisposition, artifact.RedactedArchiveName),
		ContentType: ct,
		Data:        resp.Data,
	}
	path, err := r.saver.SaveBlob(out.Artifact)
	if err != nil {
		return nil, fmt.Errorf("save redacted files: %w", err)
	}
	out.ArtifactPath = path
	for _, d := range candidates {
		out.Included = append(out.Included, d.Path)
	}
	r.log.Info("redacted files saved", "path", path, "documents", len(candidates), "skipped", len(out.Skipped))
	return out, nil
}

func partName(d api.Document) string {
	if d.Filename != "" {
		return d.Filename
	}
	return d.Path
}
