package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cnharrison/harq/internal/har"
	"github.com/cnharrison/harq/internal/query"
)

func sampleCombined() []query.CombinedRecord {
	return []query.CombinedRecord{
		{
			URL:    "https://a/api/login",
			Method: "POST",
			Request: query.RequestPayloadRecord{
				URL: "https://a/api/login", Method: "POST",
				Headers:     map[string]string{"Content-Type": "application/json"},
				QueryParams: map[string]string{},
				ContentType: "application/json",
				Payload:     har.StringPtr(`{"username":"testuser"}`),
				PayloadSize: 23,
				JSON:        map[string]any{"username": "testuser"},
			},
			Response: &query.ResponseBodyRecord{
				URL: "https://a/api/login", Method: "POST", Status: 200,
				MimeType: "application/json", Size: 16,
				Body: har.StringPtr(`{"success":true}`),
				JSON: map[string]any{"success": true},
			},
		},
		{
			URL:     "https://a/api/logout",
			Method:  "GET",
			Request: query.RequestPayloadRecord{URL: "https://a/api/logout", Method: "GET"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, " text ": FormatText, "msgpack": FormatMsgpack} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON, "").Combined(sampleCombined()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "testuser", got[0]["request"].(map[string]any)["json"].(map[string]any)["username"])
	assert.Equal(t, float64(200), got[0]["response"].(map[string]any)["status"])
	assert.Nil(t, got[1]["response"])
	assert.Contains(t, buf.String(), "\n  {", "output is indented")
}

func TestRenderText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatText, "").Combined(sampleCombined()))

	out := buf.String()
	assert.Contains(t, out, "METHOD")
	assert.Contains(t, out, "https://a/api/login")
	assert.Contains(t, out, `{"success":true}`)
	assert.True(t, strings.HasSuffix(out, "2 exchanges\n"))

	buf.Reset()
	records := []query.ResponseBodyRecord{{URL: "https://x/a", Method: "GET", Status: 404, Body: har.StringPtr(strings.Repeat("x", 200))}}
	require.NoError(t, New(&buf, FormatText, "").Responses(records))
	assert.Contains(t, buf.String(), "404")
	assert.Contains(t, buf.String(), "…")
	assert.True(t, strings.HasSuffix(buf.String(), "1 response\n"))
}

func TestRenderTextEntriesAndPayloads(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	entries := []har.HAREntry{{
		Request:  har.HARRequest{Method: "GET", URL: "https://x/app.js"},
		Response: har.HARResponse{Status: 200, Content: har.HARContent{MimeType: "application/javascript", Size: 10}},
	}}
	require.NoError(t, New(&buf, FormatText, "").Entries(entries))
	assert.Contains(t, buf.String(), "js")
	assert.True(t, strings.HasSuffix(buf.String(), "1 entry\n"))

	buf.Reset()
	require.NoError(t, New(&buf, FormatText, "").Payloads(nil))
	assert.True(t, strings.HasSuffix(buf.String(), "0 requests\n"))
}

func TestRenderMsgpack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatMsgpack, "").Combined(sampleCombined()))

	var got []map[string]any
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "https://a/api/login", got[0]["url"])
	resp, ok := got[0]["response"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", resp["mimeType"])
}

func TestRenderSelect(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON, "0.request.json.username").Combined(sampleCombined()))
	assert.Equal(t, "\"testuser\"\n", buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, FormatText, "#.method").Combined(sampleCombined()))
	assert.Equal(t, "POST\nGET\n", buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON, "0.response.json").Combined(sampleCombined()))
	assert.Equal(t, "{\n  \"success\": true\n}\n", buf.String())

	err := New(&buf, FormatJSON, "0.nothing").Combined(sampleCombined())
	assert.Error(t, err)
}

func TestRenderValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatText, "").Value(map[string]int{"port": 8081}))
	assert.JSONEq(t, `{"port":8081}`, buf.String())
}

func TestPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", preview("a\n  b\tc"))
	long := preview(strings.Repeat("é", 100))
	assert.Equal(t, previewWidth, len([]rune(long)))
}
