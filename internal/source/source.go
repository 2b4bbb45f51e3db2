// Package source provides the accessors that hand the query engine a
// point-in-time HAR snapshot: files on disk, an in-memory snapshot, or a
// running BrowserMob Proxy service.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/cnharrison/harq/internal/har"
)

// ErrSourceUnavailable reports that no HAR snapshot can be obtained, either
// because capture was never started or because fetching it failed.
var ErrSourceUnavailable = errors.New("HAR source unavailable")

// Source returns the current captured-traffic document.
// Callers must treat the returned document as read-only.
type Source interface {
	HAR(ctx context.Context) (*har.HARFile, error)
}

// Func adapts a function to the Source interface
type Func func(ctx context.Context) (*har.HARFile, error)

// HAR calls f
func (f Func) HAR(ctx context.Context) (*har.HARFile, error) {
	return f(ctx)
}

// Unavailable wraps cause so that errors.Is(err, ErrSourceUnavailable) holds
func Unavailable(reason string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrSourceUnavailable, reason)
	}
	if errors.Is(cause, ErrSourceUnavailable) {
		return cause
	}
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, reason, cause)
}

// Static is an immutable in-memory snapshot
type Static struct {
	doc *har.HARFile
}

// NewStatic wraps doc. A nil doc behaves like an uninitialized capture.
func NewStatic(doc *har.HARFile) *Static {
	return &Static{doc: doc}
}

// HAR returns the wrapped document
func (s *Static) HAR(ctx context.Context) (*har.HARFile, error) {
	if s == nil || s.doc == nil {
		return nil, Unavailable("no snapshot captured", nil)
	}
	return s.doc, nil
}

// Snapshot fetches src once so several queries can run against the same
// document even while the live capture keeps recording.
func Snapshot(ctx context.Context, src Source) (*Static, error) {
	if src == nil {
		return nil, Unavailable("capture not started", nil)
	}
	doc, err := src.HAR(ctx)
	if err != nil {
		return nil, Unavailable("fetch snapshot", err)
	}
	return NewStatic(doc), nil
}
