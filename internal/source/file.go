package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cnharrison/harq/internal/har"
	"github.com/cnharrison/harq/internal/logger"
)

// FileSource reads HAR captures from disk on every call.
// Patterns may be plain paths or doublestar globs such as captures/**/*.har.
type FileSource struct {
	patterns []string
	log      logger.Logger
}

// NewFileSource creates a source over the given paths or glob patterns
func NewFileSource(log logger.Logger, patterns ...string) *FileSource {
	if log == nil {
		log = logger.Nop()
	}
	return &FileSource{patterns: patterns, log: log}
}

// Paths expands the configured patterns into a sorted, de-duplicated file list
func (s *FileSource) Paths() ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range s.patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				abs = m
			}
			if !seen[abs] {
				seen[abs] = true
				paths = append(paths, abs)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// HAR reads every matched file and concatenates their entries in path order
func (s *FileSource) HAR(ctx context.Context) (*har.HARFile, error) {
	if s == nil || len(s.patterns) == 0 {
		return nil, Unavailable("no HAR files configured", nil)
	}

	paths, err := s.Paths()
	if err != nil {
		return nil, Unavailable("expand HAR paths", err)
	}
	if len(paths) == 0 {
		return nil, Unavailable("no HAR files match the configured patterns", nil)
	}

	doc := &har.HARFile{Log: har.HARLog{Version: "1.2", Entries: []har.HAREntry{}}}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, Unavailable("read HAR files", err)
		}
		if err := s.readInto(doc, path, i == 0); err != nil {
			return nil, Unavailable("read "+path, err)
		}
	}

	s.log.Debug("loaded %d entries from %d file(s)", len(doc.Log.Entries), len(paths))
	return doc, nil
}

// readInto appends the entries and pages of path to doc. The first file
// also supplies the log version, creator, browser and comment.
func (s *FileSource) readInto(doc *har.HARFile, path string, first bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := har.StreamLog(f, func(entry har.HAREntry, _ int) error {
		doc.Log.Entries = append(doc.Log.Entries, entry)
		return nil
	})
	if err != nil {
		return err
	}
	if first {
		if header.Version != "" {
			doc.Log.Version = header.Version
		}
		doc.Log.Creator = header.Creator
		doc.Log.Browser = header.Browser
		doc.Log.Comment = header.Comment
	}
	doc.Log.Pages = append(doc.Log.Pages, header.Pages...)
	return nil
}
