// Package batch drives the multi-document operations against the document server:
// sequential upload, structured extraction and redaction.
package batch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/KaramelBytes/redactly-cli/internal/api"
)

// State is the lifecycle of one operation kind.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Hook runs after an operation succeeds, e.g. to refresh the document list.
type Hook func(ctx context.Context) error

// Runner is a single-flight state machine for one operation kind.
// A call while another is running fails with api.AlreadyInProgressError.
type Runner struct {
	name  string
	state atomic.Int32
	log   *slog.Logger
}

func NewRunner(name string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{name: name, log: log}
}

func (r *Runner) Name() string { return r.name }

func (r *Runner) State() State { return State(r.state.Load()) }

// Busy reports whether an invocation is running.
func (r *Runner) Busy() bool { return r.State() == StateRunning }

// Run executes fn unless another invocation is already running.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	for {
		cur := r.state.Load()
		if State(cur) == StateRunning {
			return &api.AlreadyInProgressError{Operation: r.name}
		}
		if r.state.CompareAndSwap(cur, int32(StateRunning)) {
			break
		}
	}
	start := time.Now()
	err := fn(ctx)
	if err != nil {
		r.state.Store(int32(StateFailed))
		r.log.Debug("operation failed", "op", r.name, "kind", api.KindOf(err), "elapsed", time.Since(start), "err", err)
		return err
	}
	r.state.Store(int32(StateSucceeded))
	r.log.Debug("operation succeeded", "op", r.name, "elapsed", time.Since(start))
	return nil
}

// runOnPaths is the shared shape of "act on N selected documents": reject an
// empty selection before any request, then run do under the runner's guard.
func runOnPaths[T any](ctx context.Context, r *Runner, paths []string, do func(ctx context.Context, paths []string) (T, error)) (T, error) {
	var out T
	if len(paths) == 0 {
		return out, &api.ValidationError{Field: "paths", Message: "no documents selected"}
	}
	err := r.Run(ctx, func(ctx context.Context) error {
		var err error
		out, err = do(ctx, paths)
		return err
	})
	return out, err
}

func runHook(ctx context.Context, log *slog.Logger, op string, h Hook) {
	if h == nil {
		return
	}
	if err := h(ctx); err != nil {
		log.Warn("post-action hook failed", "op", op, "err", err)
	}
}
