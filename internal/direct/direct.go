// Package direct re-issues a request outside the proxy to read a response
// body the capture did not record.
package direct

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cnharrison/harq/internal/logger"
	"github.com/cnharrison/harq/internal/query"
)

// DefaultTimeout bounds a single direct fetch
const DefaultTimeout = 30 * time.Second

// Request describes the call to make. Method defaults to GET.
type Request struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Cookies map[string]string `json:"cookies,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Response is the outcome of a direct fetch. Transport failures are reported
// in Error with a nil Status and Body.
type Response struct {
	URL     string            `json:"url"`
	Status  *int              `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    *string           `json:"body"`
	Size    int               `json:"size,omitempty"`
	JSON    any               `json:"json,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Client performs direct fetches
type Client struct {
	http *http.Client
	log  logger.Logger
}

// NewClient returns a client using hc, or a client with DefaultTimeout when hc is nil
func NewClient(hc *http.Client, log logger.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{http: hc, log: log}
}

// Fetch performs r and never returns an error; failures land in Response.Error
func (c *Client) Fetch(ctx context.Context, r Request) Response {
	resp, err := c.do(ctx, r)
	if err != nil {
		c.log.Warn("direct fetch %s failed: %v", r.URL, err)
		return Response{URL: r.URL, Error: err.Error()}
	}
	return resp
}

func (c *Client) do(ctx context.Context, r Request) (Response, error) {
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != "" {
		body = strings.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return Response{}, err
	}
	for name, value := range r.Headers {
		req.Header.Set(name, value)
	}
	for name, value := range r.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	status := resp.StatusCode
	text := string(data)
	out := Response{
		URL:     r.URL,
		Status:  &status,
		Headers: make(map[string]string, len(resp.Header)),
		Body:    &text,
		Size:    len(data),
	}
	for name, values := range resp.Header {
		out.Headers[name] = strings.Join(values, ", ")
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if v, ok := query.ParseJSON(text); ok {
			out.JSON = v
		}
	}
	c.log.Debug("direct fetch %s %s: %d (%d bytes)", method, r.URL, status, len(data))
	return out, nil
}
