package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnharrison/harq/internal/filter"
	"github.com/cnharrison/harq/internal/har"
	"github.com/cnharrison/harq/internal/query"
)

// run executes one harq invocation with an empty HOME.
// Tests using it set environment variables and cannot run in parallel.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BROWSERMOB_PROXY_URL", "")
	t.Setenv("HARQ_BROWSERMOB_URL", "")
	t.Setenv("HARQ_HAR_FILES", "")

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func loginHAR(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "har", "testdata", "login.har"))
	require.NoError(t, err)
	return path
}

func TestCombinedFromFile(t *testing.T) {
	out, err := run(t, "combined", "--har", loginHAR(t), "--url-contains", "/api/login")
	require.NoError(t, err)

	var records []query.CombinedRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "POST", records[0].Method)
	assert.Equal(t, map[string]any{"username": "testuser"}, records[0].Request.JSON)
	require.NotNil(t, records[0].Response)
	assert.Equal(t, 200, records[0].Response.Status)
}

func TestQueryCommands(t *testing.T) {
	capture := loginHAR(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"requests table", []string{"requests", "--har", capture, "-o", "text"}, []string{"a.example/api/login", "2 entries"}},
		{"responses table", []string{"responses", "--har", capture, "--endpoint", "/api/login", "-o", "text"}, []string{"STATUS", "1 response"}},
		{"payloads select", []string{"payloads", "--har", capture, "--select", "#.json.username", "-o", "text"}, []string{"testuser\n"}},
		{"exact pattern", []string{"responses", "--har", capture, "--url-pattern", "https://a.example/api/login", "--exact"}, []string{`"success": true`}},
		{"path exact", []string{"combined", "--har", capture, "--path-exact", "/static/logo.png"}, []string{"logo.png?v=3"}},
		{"no matches", []string{"combined", "--har", capture, "--url-contains", "nothing"}, []string{"[]"}},
		{"raw document", []string{"requests", "--har", capture, "--raw", "--select", "log.creator.name", "-o", "text"}, []string{"BrowserMob Proxy\n"}},
		{"raw pages", []string{"requests", "--har", capture, "--raw"}, []string{`"pages"`, `"test_capture"`, `"version": "1.2"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	capture := loginHAR(t)

	_, err := run(t, "combined", "--har", capture, "--url-pattern", "(")
	assert.ErrorIs(t, err, filter.ErrInvalidPattern)

	_, err = run(t, "combined", "--har", filepath.Join(t.TempDir(), "missing.har"))
	assert.ErrorIs(t, err, query.ErrSourceUnavailable)

	_, err = run(t, "combined", "--har", capture, "--endpoint", "/a", "--path-exact", "/b")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = run(t, "combined", "--har", capture, "--url-contains", "login", "--endpoint", "/api/login")
	assert.ErrorContains(t, err, "cannot be combined")

	_, err = run(t, "requests", "--har", capture, "--raw", "--url-contains", "login")
	assert.ErrorContains(t, err, "takes no filter flags")

	_, err = run(t, "combined", "--har", capture, "-o", "yaml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = run(t, "combined", "--har", capture, "-v", "-q")
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestBrowserMobUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := run(t, "responses", "--browsermob", url)
	assert.ErrorIs(t, err, query.ErrSourceUnavailable)
}

func TestExportCommands(t *testing.T) {
	capture := loginHAR(t)

	out, err := run(t, "export", "curl", "--har", capture, "--url-contains", "login")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "curl -X POST 'https://a.example/api/login'"), out)
	assert.Contains(t, out, `--data-raw '{"username":"testuser"}'`)

	out, err = run(t, "export", "markdown", "--har", capture)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "*Generated by harq*"))
	assert.Contains(t, out, "\n\n---\n\n")

	dest := filepath.Join(t.TempDir(), "login-only.har")
	_, err = run(t, "export", "har", "--har", capture, "--endpoint", "/api/login", "-f", dest)
	require.NoError(t, err)
	doc, err := har.LoadHARFile(dest)
	require.NoError(t, err)
	require.Len(t, doc.Log.Entries, 1)
	assert.Equal(t, "harq", doc.Log.Creator.Name)
	assert.Equal(t, Version, doc.Log.Creator.Version)
}

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, _ := r.Cookie("session")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"method":%q,"auth":%q,"session":%q}`, r.Method, r.Header.Get("Authorization"), cookie.Value)
	}))
	defer ts.Close()

	out, err := run(t, "fetch", ts.URL, "-X", "post", "-H", "Authorization: Bearer t", "-b", "session=abc", "-d", "x")
	require.NoError(t, err)

	var resp struct {
		Status int            `json:"status"`
		JSON   map[string]any `json:"json"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, map[string]any{"method": "POST", "auth": "Bearer t", "session": "abc"}, resp.JSON)

	_, err = run(t, "fetch", ts.URL, "-H", "no-colon")
	assert.ErrorContains(t, err, "invalid --header")
}

// fakeBrowserMob answers the REST calls capture makes
func fakeBrowserMob(t *testing.T, ports ...int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seg := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/proxy":
			list := make([]map[string]int, 0, len(ports))
			for _, p := range ports {
				list = append(list, map[string]int{"port": p})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"proxyList": list})
		case r.Method == http.MethodPut && len(seg) == 3 && seg[0] == "proxy" && seg[1] != "" && seg[2] == "har":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete && len(seg) == 2 && seg[0] == "proxy" && seg[1] != "":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestCapture(t *testing.T) {
	bmp := fakeBrowserMob(t, 8081)

	out, err := run(t, "capture", "start", "--browsermob", bmp.URL, "--label", "login-flow")
	require.NoError(t, err)
	var status CaptureStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 8081, status.Port)
	assert.Equal(t, "login-flow", status.Label)
	assert.Equal(t, "127.0.0.1:8081", status.Proxy)

	out, err = run(t, "capture", "status", "--browsermob", bmp.URL)
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`{"service":%q,"ports":[8081]}`, bmp.URL), out)

	out, err = run(t, "capture", "stop", "--browsermob", bmp.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"closed": true`)

	_, err = run(t, "capture", "stop", "--browsermob", fakeBrowserMob(t).URL)
	assert.ErrorContains(t, err, "no proxy port is running")
}

func TestFilterFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flags   filterFlags
		want    filter.QueryFilter
		wantErr bool
	}{
		{"empty", filterFlags{}, filter.QueryFilter{}, false},
		{"contains wins later", filterFlags{pattern: "a", contains: "b"}, filter.QueryFilter{URLPattern: "a", URLContains: "b"}, false},
		{"exact", filterFlags{pattern: "https://x/", exact: true}, filter.Exact("https://x/"), false},
		{"endpoint", filterFlags{endpoint: "/api/v1"}, filter.Endpoint("/api/v1"), false},
		{"path exact", filterFlags{pathExact: "/a.b"}, filter.PathExact("/a.b"), false},
		{"exact without pattern", filterFlags{exact: true}, filter.QueryFilter{}, true},
		{"two patterns", filterFlags{pattern: "a", endpoint: "/b"}, filter.QueryFilter{}, true},
		{"contains with endpoint", filterFlags{contains: "a", endpoint: "/b"}, filter.QueryFilter{}, true},
		{"contains with path exact", filterFlags{contains: "a", pathExact: "/b"}, filter.QueryFilter{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.build()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePairs(t *testing.T) {
	t.Parallel()

	got, err := parsePairs([]string{"Accept: */*", "X-Id:1", "Accept: text/html"}, ":")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "text/html", "X-Id": "1"}, got)

	got, err = parsePairs(nil, "=")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parsePairs([]string{"=v"}, "=")
	assert.Error(t, err)
}
