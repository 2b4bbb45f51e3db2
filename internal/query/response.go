package query

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/go-analyze/bulk"

	"github.com/cnharrison/harq/internal/filter"
	"github.com/cnharrison/harq/internal/har"
)

const mimeJSON = "application/json"

// matching returns the entries whose request URL satisfies m, in document order.
// A nil matcher selects everything.
func matching(doc *har.HARFile, m *filter.Matcher) []har.HAREntry {
	if doc == nil {
		return nil
	}
	if m == nil {
		return doc.Log.Entries
	}
	return bulk.SliceFilter(func(e har.HAREntry) bool {
		return m.Match(e.Request.URL)
	}, doc.Log.Entries)
}

// ExtractResponseBodies builds a response record for every matching entry.
// Decode and parse failures stay inside the affected record.
func ExtractResponseBodies(doc *har.HARFile, m *filter.Matcher) []ResponseBodyRecord {
	entries := matching(doc, m)
	records := make([]ResponseBodyRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, responseRecord(entry))
	}
	return records
}

func responseRecord(entry har.HAREntry) ResponseBodyRecord {
	content := entry.Response.Content
	rec := ResponseBodyRecord{
		URL:      entry.Request.URL,
		Method:   entry.Request.Method,
		Status:   entry.Response.Status,
		MimeType: content.MimeType,
		Size:     content.Size,
	}
	if content.Text == nil {
		return rec
	}

	body := *content.Text
	if content.Encoding == "base64" {
		decoded, err := har.DecodeBase64Text(body)
		if err != nil {
			body = "Error decoding base64: " + err.Error()
		} else {
			body = decoded
		}
	}
	rec.Body = &body

	if strings.Contains(rec.MimeType, mimeJSON) && body != "" {
		if v, ok := ParseJSON(body); ok {
			rec.JSON = v
		}
	}
	return rec
}

// ParseJSON decodes exactly one JSON value from s. It reports false for
// empty input, malformed JSON, or trailing data after the value.
// Integers come back as int64, or as json.Number when they overflow it,
// so large IDs survive re-encoding unchanged.
func ParseJSON(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// trailing garbage makes the whole body invalid
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return normalizeNumbers(v), true
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeNumbers(item)
		}
	case []any:
		for i, item := range t {
			t[i] = normalizeNumbers(item)
		}
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
			return t
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t
	}
	return v
}
