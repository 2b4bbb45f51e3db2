package source

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.har")
	writeHAR(t, path, testDoc("https://x/a"))

	w, err := NewWatcher(NewFileSource(nil, path), nil)
	require.NoError(t, err)
	require.Len(t, w.Paths(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	writeHAR(t, path, testDoc("https://x/a", "https://x/b"))

	select {
	case name := <-w.Events:
		assert.Equal(t, filepath.Base(path), filepath.Base(name))
	case <-time.After(5 * time.Second):
		t.Fatal("no event after writing the watched file")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	for range w.Events {
		// drain until closed
	}
}

func TestWatcherSkipsMissingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWatcher(NewFileSource(nil, filepath.Join(dir, "*.har")), nil)
	require.NoError(t, err)
	assert.Empty(t, w.Paths())
	assert.NoError(t, w.Close())
}
