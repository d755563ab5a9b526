package gen

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggers(t *testing.T) {
	g := newTestGenerator(t)
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "models/user.go", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "models/user.go", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "models/user.go", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "models/user.go", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "models/" + DefaultOutput, Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "models/user_test.go", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "models/README.md", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.triggers(tt.ev), tt.ev.String())
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	g := newTestGenerator(t, WithDir(dir)).WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.debounce = 10 * time.Millisecond

	var runs atomic.Int32
	run := func(context.Context) error {
		if runs.Add(1) == 1 {
			return assert.AnError
		}
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.watch(ctx, run) }()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond, "initial run")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.go"), []byte("package models\n"), 0o644))
	require.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 5*time.Millisecond, "run after a source change")

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultOutput), []byte("package models\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models_test.go"), []byte("package models\n"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), runs.Load(), "generated and test files are ignored")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchMissingDir(t *testing.T) {
	g := newTestGenerator(t, WithDir(filepath.Join(t.TempDir(), "missing")))
	err := g.watch(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}
