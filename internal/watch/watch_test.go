package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchEmitsOnlyWatchedExtensions(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{"pdf", ".DOCX"}, nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.pdf"), []byte("x"), 0o644))

	select {
	case ev := <-events:
		assert.Equal(t, "scan.pdf", filepath.Base(ev.Path))
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}

func TestSettleCoalescesBursts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	in := make(chan Event)
	out := Settle(ctx, in, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		in <- Event{Path: "a.pdf"}
	}
	select {
	case ev := <-out:
		assert.Equal(t, "a.pdf", ev.Path)
	case <-ctx.Done():
		t.Fatal("no settled event")
	}
	select {
	case ev := <-out:
		t.Fatalf("unexpected second event %v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}
