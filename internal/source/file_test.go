package source

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnharrison/harq/internal/har"
)

func writeHAR(t *testing.T, path string, doc *har.HARFile) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func entryURLs(doc *har.HARFile) []string {
	urls := make([]string, 0, len(doc.Log.Entries))
	for _, e := range doc.Log.Entries {
		urls = append(urls, e.Request.URL)
	}
	return urls
}

func TestFileSourceSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture.har")
	writeHAR(t, path, testDoc("https://x/a", "https://x/b"))

	doc, err := NewFileSource(nil, path).HAR(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/a", "https://x/b"}, entryURLs(doc))
}

func TestFileSourceGlobConcatenatesInPathOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeHAR(t, filepath.Join(dir, "b", "second.har"), testDoc("https://x/2"))
	writeHAR(t, filepath.Join(dir, "a", "nested", "first.har"), testDoc("https://x/1"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	src := NewFileSource(nil, filepath.Join(dir, "**", "*.har"), filepath.Join(dir, "b", "second.har"))
	paths, err := src.Paths()
	require.NoError(t, err)
	assert.Len(t, paths, 2, "duplicates across patterns are removed")

	doc, err := src.HAR(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/1", "https://x/2"}, entryURLs(doc))
}

func TestFileSourceRereadsOnEveryCall(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "live.har")
	writeHAR(t, path, testDoc("https://x/a"))
	src := NewFileSource(nil, path)

	first, err := src.HAR(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Log.Entries, 1)

	writeHAR(t, path, testDoc("https://x/a", "https://x/b"))
	second, err := src.HAR(context.Background())
	require.NoError(t, err)
	assert.Len(t, second.Log.Entries, 2)
	assert.Len(t, first.Log.Entries, 1, "earlier snapshot is untouched")
}

func TestFileSourceUnavailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.har")
	require.NoError(t, os.WriteFile(broken, []byte(`{"log": {"entries": [{`), 0o644))

	tests := []struct {
		name string
		src  *FileSource
	}{
		{"nil source", nil},
		{"no patterns", NewFileSource(nil)},
		{"no matches", NewFileSource(nil, filepath.Join(dir, "*.missing"))},
		{"malformed file", NewFileSource(nil, broken)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.src.HAR(context.Background())
			assert.ErrorIs(t, err, ErrSourceUnavailable)
		})
	}
}

func TestFileSourceCanceledContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "capture.har")
	writeHAR(t, path, testDoc("https://x/a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileSource(nil, path).HAR(ctx)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFileSourceKeepsLogMetadata(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := testDoc("https://x/1")
	first.Log.Creator = har.HARCreator{Name: "BrowserMob Proxy", Version: "2.1.4"}
	first.Log.Browser = &har.HARCreator{Name: "Chrome", Version: "120"}
	first.Log.Pages = []har.HARPage{{ID: "login", Title: "login"}}
	first.Log.Comment = "recorded by CI"
	writeHAR(t, filepath.Join(dir, "1.har"), first)

	second := testDoc("https://x/2")
	second.Log.Creator = har.HARCreator{Name: "other"}
	second.Log.Pages = []har.HARPage{{ID: "checkout", Title: "checkout"}}
	writeHAR(t, filepath.Join(dir, "2.har"), second)

	doc, err := NewFileSource(nil, filepath.Join(dir, "*.har")).HAR(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BrowserMob Proxy", doc.Log.Creator.Name)
	require.NotNil(t, doc.Log.Browser)
	assert.Equal(t, "Chrome", doc.Log.Browser.Name)
	assert.Equal(t, "recorded by CI", doc.Log.Comment)
	assert.Equal(t, []har.HARPage{{ID: "login", Title: "login"}, {ID: "checkout", Title: "checkout"}}, doc.Log.Pages)
	assert.Equal(t, []string{"https://x/1", "https://x/2"}, entryURLs(doc))
}
