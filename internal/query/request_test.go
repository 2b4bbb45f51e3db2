package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnharrison/harq/internal/har"
)

func extractOne(t *testing.T, entry har.HAREntry) RequestPayloadRecord {
	t.Helper()
	records := ExtractRequestPayloads(newDoc(entry), nil)
	require.Len(t, records, 1)
	return records[0]
}

func TestRequestHeadersAndQueryLastWins(t *testing.T) {
	t.Parallel()

	entry := newEntry("GET", "https://x/search?q=a&q=b",
		withHeader("Accept", "text/html"),
		withHeader("X-Trace", "first"),
		withHeader("X-Trace", "second"))
	entry.Request.QueryString = []har.HARHeader{{Name: "q", Value: "a"}, {Name: "q", Value: "b"}}

	rec := extractOne(t, entry)
	assert.Equal(t, map[string]string{"Accept": "text/html", "X-Trace": "second"}, rec.Headers)
	assert.Equal(t, map[string]string{"q": "b"}, rec.QueryParams)
}

func TestRequestWithoutBody(t *testing.T) {
	t.Parallel()

	entry := newEntry("GET", "https://x/a")
	entry.Request.BodySize = -1

	rec := extractOne(t, entry)
	assert.Nil(t, rec.Payload)
	assert.Equal(t, -1, rec.PayloadSize)
	assert.Empty(t, rec.ContentType)
	assert.NotNil(t, rec.Headers)
	assert.NotNil(t, rec.QueryParams)
	assert.Nil(t, rec.JSON)
	assert.Nil(t, rec.FormData)
}

func TestRequestContentType(t *testing.T) {
	t.Parallel()

	t.Run("from header", func(t *testing.T) {
		rec := extractOne(t, newEntry("GET", "https://x/a", withHeader("content-type", "text/plain")))
		assert.Equal(t, "text/plain", rec.ContentType)
	})

	t.Run("post data mime type wins", func(t *testing.T) {
		rec := extractOne(t, newEntry("POST", "https://x/a",
			withHeader("Content-Type", "text/plain"),
			withPostText("application/json", `{}`)))
		assert.Equal(t, "application/json", rec.ContentType)
	})

	t.Run("empty post data mime type keeps header", func(t *testing.T) {
		rec := extractOne(t, newEntry("POST", "https://x/a",
			withHeader("Content-Type", "text/plain"),
			withPostText("", "raw")))
		assert.Equal(t, "text/plain", rec.ContentType)
		assert.Equal(t, "raw", rec.PayloadText())
	})
}

func TestRequestTextPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mimeType string
		text     string
		wantJSON any
		wantForm map[string][]string
	}{
		{
			name:     "json",
			mimeType: "application/json;charset=UTF-8",
			text:     `{"username":"testuser","remember":true}`,
			wantJSON: map[string]any{"username": "testuser", "remember": true},
		},
		{
			name:     "malformed json",
			mimeType: "application/json",
			text:     `{"username":`,
		},
		{
			name:     "form keeps blank values",
			mimeType: "application/x-www-form-urlencoded",
			text:     "user=bob&tag=a&tag=b&empty=&flag",
			wantForm: map[string][]string{"user": {"bob"}, "tag": {"a", "b"}, "empty": {""}, "flag": {""}},
		},
		{
			name:     "form decodes escapes",
			mimeType: "application/x-www-form-urlencoded; charset=UTF-8",
			text:     "q=hello+world&path=%2Fhome",
			wantForm: map[string][]string{"q": {"hello world"}, "path": {"/home"}},
		},
		{
			name:     "stray percent kept literally",
			mimeType: "application/x-www-form-urlencoded",
			text:     "q=100%&x=1",
			wantForm: map[string][]string{"q": {"100%"}, "x": {"1"}},
		},
		{
			name:     "semicolon is not a separator",
			mimeType: "application/x-www-form-urlencoded",
			text:     "a=1;b=2",
			wantForm: map[string][]string{"a": {"1;b=2"}},
		},
		{
			name:     "bad escape next to good ones",
			mimeType: "application/x-www-form-urlencoded",
			text:     "discount=50%25off&code=%zz&plus=%2B1",
			wantForm: map[string][]string{"discount": {"50%off"}, "code": {"%zz"}, "plus": {"+1"}},
		},
		{
			name:     "empty fields skipped",
			mimeType: "application/x-www-form-urlencoded",
			text:     "&a=1&&b==2",
			wantForm: map[string][]string{"a": {"1"}, "b": {"=2"}},
		},
		{
			name:     "empty text",
			mimeType: "application/json",
			text:     "",
		},
		{
			name:     "other mime type",
			mimeType: "text/plain",
			text:     `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := extractOne(t, newEntry("POST", "https://x/a", withPostText(tt.mimeType, tt.text)))
			require.NotNil(t, rec.Payload)
			assert.Equal(t, tt.text, *rec.Payload)
			assert.Equal(t, len(tt.text), rec.PayloadSize)
			assert.Equal(t, tt.mimeType, rec.ContentType)
			assert.Equal(t, tt.wantJSON, rec.JSON)
			assert.Equal(t, tt.wantForm, rec.FormData)
		})
	}
}

func TestRequestParamsPayload(t *testing.T) {
	t.Parallel()

	entry := newEntry("POST", "https://x/form")
	entry.Request.BodySize = 27
	entry.Request.PostData = &har.HARPostData{
		MimeType: "application/x-www-form-urlencoded",
		Params: []har.HARPostParam{
			{Name: "user", Value: "bob"},
			{Name: "pass", Value: "secret"},
			{Name: "user", Value: "alice"},
			{Name: "remember", Value: ""},
		},
	}

	rec := extractOne(t, entry)
	assert.Equal(t, "user=alice&pass=secret&remember=", rec.PayloadText())
	assert.Equal(t, map[string][]string{
		"user":     {"alice"},
		"pass":     {"secret"},
		"remember": {""},
	}, rec.FormData)
	assert.Equal(t, 27, rec.PayloadSize)
	assert.Nil(t, rec.JSON)
}

func TestRequestEmptyParams(t *testing.T) {
	t.Parallel()

	entry := newEntry("POST", "https://x/form")
	entry.Request.PostData = &har.HARPostData{MimeType: "multipart/form-data", Params: []har.HARPostParam{}}

	rec := extractOne(t, entry)
	require.NotNil(t, rec.Payload)
	assert.Empty(t, *rec.Payload)
	assert.NotNil(t, rec.FormData)
	assert.Empty(t, rec.FormData)
}

func TestRequestFormDataJSON(t *testing.T) {
	t.Parallel()

	empty := newEntry("POST", "https://x/form")
	empty.Request.PostData = &har.HARPostData{MimeType: "multipart/form-data", Params: []har.HARPostParam{}}
	data, err := json.Marshal(extractOne(t, empty))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"form_data":{}`)

	data, err = json.Marshal(extractOne(t, newEntry("GET", "https://x/a")))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "form_data")
}

func TestRequestPostDataWithoutBody(t *testing.T) {
	t.Parallel()

	entry := newEntry("POST", "https://x/a")
	entry.Request.BodySize = 12
	entry.Request.PostData = &har.HARPostData{MimeType: "application/octet-stream"}

	rec := extractOne(t, entry)
	assert.Nil(t, rec.Payload)
	assert.Equal(t, 12, rec.PayloadSize)
	assert.Equal(t, "application/octet-stream", rec.ContentType)
}

func TestRequestTextTakesPrecedenceOverParams(t *testing.T) {
	t.Parallel()

	entry := newEntry("POST", "https://x/a")
	entry.Request.PostData = &har.HARPostData{
		MimeType: "application/x-www-form-urlencoded",
		Text:     har.StringPtr("a=1"),
		Params:   []har.HARPostParam{{Name: "b", Value: "2"}},
	}

	rec := extractOne(t, entry)
	assert.Equal(t, "a=1", rec.PayloadText())
	assert.Equal(t, map[string][]string{"a": {"1"}}, rec.FormData)
}
