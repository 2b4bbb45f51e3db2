package query

import (
	"net/url"
	"strings"

	"github.com/cnharrison/harq/internal/filter"
	"github.com/cnharrison/harq/internal/har"
)

const mimeForm = "application/x-www-form-urlencoded"

// ExtractRequestPayloads builds a request record for every matching entry.
// Parse failures only drop the optional JSON or FormData fields.
func ExtractRequestPayloads(doc *har.HARFile, m *filter.Matcher) []RequestPayloadRecord {
	entries := matching(doc, m)
	records := make([]RequestPayloadRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, requestRecord(entry))
	}
	return records
}

func requestRecord(entry har.HAREntry) RequestPayloadRecord {
	req := entry.Request
	rec := RequestPayloadRecord{
		URL:         req.URL,
		Method:      req.Method,
		Headers:     pairMap(req.Headers),
		QueryParams: pairMap(req.QueryString),
		ContentType: har.HeaderValue(req.Headers, "Content-Type"),
		PayloadSize: req.BodySize,
	}

	pd := req.PostData
	if pd == nil {
		return rec
	}
	if pd.MimeType != "" {
		rec.ContentType = pd.MimeType
	}

	switch {
	case pd.Text != nil:
		text := *pd.Text
		rec.Payload = &text
		if text == "" {
			break
		}
		if strings.Contains(pd.MimeType, mimeJSON) {
			if v, ok := ParseJSON(text); ok {
				rec.JSON = v
			}
		} else if strings.Contains(pd.MimeType, mimeForm) {
			rec.FormData = parseForm(text)
		}
	case pd.Params != nil:
		payload, form := paramsForm(pd.Params)
		rec.Payload = &payload
		rec.FormData = form
	}
	return rec
}

// parseForm splits an urlencoded body on '&' only, keeping blank values.
// Malformed escapes are kept literally instead of failing the whole body,
// so "q=100%&x=1" still yields both fields.
func parseForm(text string) map[string][]string {
	form := make(map[string][]string)
	for _, field := range strings.Split(text, "&") {
		if field == "" {
			continue
		}
		name, value, _ := strings.Cut(field, "=")
		name, value = unescapeLenient(name), unescapeLenient(value)
		form[name] = append(form[name], value)
	}
	return form
}

// unescapeLenient decodes '+' and valid %XX sequences and leaves any other
// '%' untouched. Invalid UTF-8 after decoding becomes U+FFFD.
func unescapeLenient(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if v, err := url.PathUnescape(s); err == nil {
		return strings.ToValidUTF8(v, "\uFFFD")
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c <= '9':
		return c - '0'
	case c <= 'F':
		return c - 'A' + 10
	default:
		return c - 'a' + 10
	}
}

// pairMap flattens name/value pairs; a repeated name keeps its last value
func pairMap(pairs []har.HARHeader) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.Name] = p.Value
	}
	return m
}

// paramsForm turns posted params into form data and a key=value&... payload.
// Keys keep first-seen order; a repeated name keeps its last value.
func paramsForm(params []har.HARPostParam) (string, map[string][]string) {
	form := make(map[string][]string, len(params))
	var order []string
	for _, p := range params {
		if _, seen := form[p.Name]; !seen {
			order = append(order, p.Name)
		}
		form[p.Name] = []string{p.Value}
	}

	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, name+"="+form[name][0])
	}
	return strings.Join(parts, "&"), form
}
