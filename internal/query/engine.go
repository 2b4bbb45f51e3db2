package query

import (
	"context"

	"github.com/cnharrison/harq/internal/filter"
	"github.com/cnharrison/harq/internal/har"
	"github.com/cnharrison/harq/internal/logger"
	"github.com/cnharrison/harq/internal/source"
)

// Engine runs queries against whatever HAR document its source currently holds.
// Every call fetches a fresh snapshot; nothing is cached between calls.
type Engine struct {
	src source.Source
	log logger.Logger
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the logger used for query tracing
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine creates an engine over src. A nil src makes every query fail
// with ErrSourceUnavailable.
func NewEngine(src source.Source, opts ...Option) *Engine {
	e := &Engine{src: src, log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) snapshot(ctx context.Context) (*har.HARFile, error) {
	if e == nil || e.src == nil {
		return nil, source.Unavailable("capture not started", nil)
	}
	doc, err := e.src.HAR(ctx)
	if err != nil {
		return nil, source.Unavailable("fetch HAR", err)
	}
	if doc == nil {
		return nil, source.Unavailable("source returned no document", nil)
	}
	return doc, nil
}

// prepare fetches the snapshot before validating f, so an uninitialized
// source is reported ahead of a bad pattern.
func (e *Engine) prepare(ctx context.Context, f filter.QueryFilter) (*har.HARFile, *filter.Matcher, error) {
	doc, err := e.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	m, err := f.Compile()
	if err != nil {
		return nil, nil, err
	}
	return doc, m, nil
}

// Requests returns the captured HAR document as the source holds it,
// log metadata and pages included
func (e *Engine) Requests(ctx context.Context) (*har.HARFile, error) {
	doc, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if doc.Log.Entries == nil {
		raw := *doc
		raw.Log.Entries = []har.HAREntry{}
		return &raw, nil
	}
	return doc, nil
}

// Entries returns the raw entries whose URL satisfies f, in capture order
func (e *Engine) Entries(ctx context.Context, f filter.QueryFilter) ([]har.HAREntry, error) {
	doc, m, err := e.prepare(ctx, f)
	if err != nil {
		return nil, err
	}
	entries := matching(doc, m)
	if entries == nil {
		entries = []har.HAREntry{}
	}
	return entries, nil
}

// ResponseBodies returns a response record for each entry matching f
func (e *Engine) ResponseBodies(ctx context.Context, f filter.QueryFilter) ([]ResponseBodyRecord, error) {
	doc, m, err := e.prepare(ctx, f)
	if err != nil {
		return nil, err
	}
	records := ExtractResponseBodies(doc, m)
	e.log.Debug("responses %s: %d of %d entries", f, len(records), len(doc.Log.Entries))
	return records, nil
}

// ResponseBodiesByURLExact matches the whole URL literally
func (e *Engine) ResponseBodiesByURLExact(ctx context.Context, exactURL string) ([]ResponseBodyRecord, error) {
	return e.ResponseBodies(ctx, filter.Exact(exactURL))
}

// ResponseBodiesByURLContains matches a URL substring
func (e *Engine) ResponseBodiesByURLContains(ctx context.Context, substr string) ([]ResponseBodyRecord, error) {
	return e.ResponseBodies(ctx, filter.Contains(substr))
}

// ResponseBodiesByEndpoint matches URLs ending with path
func (e *Engine) ResponseBodiesByEndpoint(ctx context.Context, path string) ([]ResponseBodyRecord, error) {
	return e.ResponseBodies(ctx, filter.Endpoint(path))
}

// RequestPayloads returns a request record for each entry matching f
func (e *Engine) RequestPayloads(ctx context.Context, f filter.QueryFilter) ([]RequestPayloadRecord, error) {
	doc, m, err := e.prepare(ctx, f)
	if err != nil {
		return nil, err
	}
	records := ExtractRequestPayloads(doc, m)
	e.log.Debug("payloads %s: %d of %d entries", f, len(records), len(doc.Log.Entries))
	return records, nil
}

// RequestPayloadsByURLExact matches the whole URL literally
func (e *Engine) RequestPayloadsByURLExact(ctx context.Context, exactURL string) ([]RequestPayloadRecord, error) {
	return e.RequestPayloads(ctx, filter.Exact(exactURL))
}

// RequestPayloadsByURLContains matches a URL substring
func (e *Engine) RequestPayloadsByURLContains(ctx context.Context, substr string) ([]RequestPayloadRecord, error) {
	return e.RequestPayloads(ctx, filter.Contains(substr))
}

// RequestPayloadsByEndpoint matches URLs ending with path
func (e *Engine) RequestPayloadsByEndpoint(ctx context.Context, path string) ([]RequestPayloadRecord, error) {
	return e.RequestPayloads(ctx, filter.Endpoint(path))
}

// RequestAndResponseData joins request and response records for entries
// matching f. Both sides come from a single snapshot, so traffic recorded
// during the call cannot split a pair.
func (e *Engine) RequestAndResponseData(ctx context.Context, f filter.QueryFilter) ([]CombinedRecord, error) {
	doc, m, err := e.prepare(ctx, f)
	if err != nil {
		return nil, err
	}
	combined := Combine(ExtractRequestPayloads(doc, m), ExtractResponseBodies(doc, m))
	e.log.Debug("combined %s: %d records", f, len(combined))
	return combined, nil
}

// RequestAndResponseDataByPathExact matches URLs ending with path, optionally
// followed by a query string
func (e *Engine) RequestAndResponseDataByPathExact(ctx context.Context, path string) ([]CombinedRecord, error) {
	return e.RequestAndResponseData(ctx, filter.PathExact(path))
}
