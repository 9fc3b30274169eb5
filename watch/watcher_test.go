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

func startWatcher(t *testing.T, paths ...string) <-chan []string {
	t.Helper()

	w, err := New(paths, ".ttl", 50*time.Millisecond, nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	batches := make(chan []string, 16)
	go w.Run(ctx, func(_ context.Context, changed []string) {
		batches <- changed
	})

	// Give watcher time to set up
	time.Sleep(100 * time.Millisecond)
	return batches
}

func waitFor(t *testing.T, batches <-chan []string, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case changed := <-batches:
			for _, p := range changed {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timeout waiting for change to %s", want)
		}
	}
}

func TestWatchDirectory(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	mapping := filepath.Join(dir, "a.ttl")
	require.NoError(t, os.WriteFile(mapping, []byte("<a> <b> <c> .\n"), 0644))

	abs, err := filepath.Abs(mapping)
	require.NoError(t, err)
	waitFor(t, batches, abs)
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case changed := <-batches:
		t.Fatalf("unexpected batch %v", changed)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchNewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	time.Sleep(100 * time.Millisecond)

	mapping := filepath.Join(sub, "b.ttl")
	require.NoError(t, os.WriteFile(mapping, []byte("<a> <b> <c> .\n"), 0644))

	abs, err := filepath.Abs(mapping)
	require.NoError(t, err)
	waitFor(t, batches, abs)
}

func TestWatchExplicitFile(t *testing.T) {
	dir := t.TempDir()
	shapes := filepath.Join(dir, "shapes.shacl")
	require.NoError(t, os.WriteFile(shapes, []byte(""), 0644))
	batches := startWatcher(t, shapes)

	// siblings of an explicit file are not reported
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.ttl"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(shapes, []byte("<a> <b> <c> .\n"), 0644))

	abs, err := filepath.Abs(shapes)
	require.NoError(t, err)
	select {
	case changed := <-batches:
		assert.Equal(t, []string{abs}, changed)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}
}

func TestNewMissingPath(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")}, ".ttl", 0, nil)
	assert.ErrorContains(t, err, "watch")
}

func TestRunStopsOnCancel(t *testing.T) {
	w, err := New([]string{t.TempDir()}, ".ttl", 0, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(context.Context, []string) {}) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
