package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cnharrison/harq/internal/har"
	"github.com/cnharrison/harq/internal/logger"
)

// DefaultBrowserMobURL is used when no service address is configured
const DefaultBrowserMobURL = "http://localhost:9090"

// CaptureOptions configures a new HAR recording
type CaptureOptions struct {
	// Label names the initial page; a random one is generated when empty.
	Label          string
	CaptureContent bool
	CaptureHeaders bool
	CaptureBinary  bool
}

// DefaultCaptureOptions records headers and text bodies
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{CaptureContent: true, CaptureHeaders: true}
}

// BrowserMob talks to a running BrowserMob Proxy service over its REST API.
// It does not start or stop the service itself.
type BrowserMob struct {
	baseURL string
	client  *http.Client
	log     logger.Logger

	mu   sync.RWMutex
	port int
}

// BrowserMobOption customizes a BrowserMob client
type BrowserMobOption func(*BrowserMob)

// WithHTTPClient overrides the HTTP client used for REST calls
func WithHTTPClient(c *http.Client) BrowserMobOption {
	return func(b *BrowserMob) { b.client = c }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) BrowserMobOption {
	return func(b *BrowserMob) { b.log = l }
}

// WithPort attaches to an already running proxy port instead of calling Connect
func WithPort(port int) BrowserMobOption {
	return func(b *BrowserMob) { b.port = port }
}

// NewBrowserMob creates a client for the service at baseURL
func NewBrowserMob(baseURL string, opts ...BrowserMobOption) *BrowserMob {
	b := &BrowserMob{
		baseURL: NormalizeBaseURL(baseURL),
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NormalizeBaseURL adds a missing http:// scheme and drops trailing slashes
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultBrowserMobURL
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// BaseURL returns the normalized service address
func (b *BrowserMob) BaseURL() string {
	return b.baseURL
}

// Port returns the proxy port in use, or 0 before Connect
func (b *BrowserMob) Port() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.port
}

type proxyList struct {
	ProxyList []struct {
		Port int `json:"port"`
	} `json:"proxyList"`
}

// ProxyPorts lists the proxy ports the service currently runs
func (b *BrowserMob) ProxyPorts(ctx context.Context) ([]int, error) {
	var list proxyList
	if err := b.doJSON(ctx, http.MethodGet, "/proxy", nil, &list); err != nil {
		return nil, err
	}
	ports := make([]int, 0, len(list.ProxyList))
	for _, p := range list.ProxyList {
		ports = append(ports, p.Port)
	}
	return ports, nil
}

// Connect attaches to the first existing proxy port, creating one when the
// service has none. It returns the port in use.
func (b *BrowserMob) Connect(ctx context.Context) (int, error) {
	ports, err := b.ProxyPorts(ctx)
	if err != nil {
		return 0, fmt.Errorf("connect to BrowserMob Proxy at %s: %w", b.baseURL, err)
	}
	b.log.Debug("found %d existing proxies: %v", len(ports), ports)

	port := 0
	if len(ports) > 0 {
		port = ports[0]
	} else {
		var created struct {
			Port int `json:"port"`
		}
		if err := b.doJSON(ctx, http.MethodPost, "/proxy", nil, &created); err != nil {
			return 0, fmt.Errorf("create proxy: %w", err)
		}
		port = created.Port
		b.log.Info("created new proxy on port %d", port)
	}
	if port == 0 {
		return 0, fmt.Errorf("no proxy ports available after initialization")
	}

	b.mu.Lock()
	b.port = port
	b.mu.Unlock()
	return port, nil
}

// ChromeProxyURL returns host:port for configuring a browser to use the proxy.
// The host is the service host, not localhost.
func (b *BrowserMob) ChromeProxyURL() (string, error) {
	port := b.Port()
	if port == 0 {
		return "", Unavailable("no proxy available, connect first", nil)
	}
	u, err := url.Parse(b.baseURL)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(u.Hostname(), strconv.Itoa(port)), nil
}

// StartCapture begins a new HAR recording, discarding the previous one
func (b *BrowserMob) StartCapture(ctx context.Context, opts CaptureOptions) (string, error) {
	port := b.Port()
	if port == 0 {
		return "", Unavailable("proxy not initialized, connect first", nil)
	}

	label := opts.Label
	if label == "" {
		label = "capture-" + uuid.NewString()
	}
	form := url.Values{}
	form.Set("initialPageRef", label)
	form.Set("captureHeaders", strconv.FormatBool(opts.CaptureHeaders))
	form.Set("captureContent", strconv.FormatBool(opts.CaptureContent))
	form.Set("captureBinaryContent", strconv.FormatBool(opts.CaptureBinary))

	path := fmt.Sprintf("/proxy/%d/har", port)
	if err := b.doJSON(ctx, http.MethodPut, path, form, nil); err != nil {
		return "", fmt.Errorf("start capture: %w", err)
	}
	b.log.Debug("started capture %q on port %d", label, port)
	return label, nil
}

// HAR fetches the current recording
func (b *BrowserMob) HAR(ctx context.Context) (*har.HARFile, error) {
	port := b.Port()
	if port == 0 {
		return nil, Unavailable("proxy not initialized, connect first", nil)
	}

	resp, err := b.do(ctx, http.MethodGet, fmt.Sprintf("/proxy/%d/har", port), nil)
	if err != nil {
		return nil, Unavailable("fetch HAR", err)
	}
	defer resp.Body.Close()

	doc, err := har.ReadHAR(resp.Body)
	if err != nil {
		return nil, Unavailable("decode HAR", err)
	}
	return doc, nil
}

// Close shuts down the proxy port on the service
func (b *BrowserMob) Close(ctx context.Context) error {
	port := b.Port()
	if port == 0 {
		return nil
	}
	if err := b.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/proxy/%d", port), nil, nil); err != nil {
		return fmt.Errorf("close proxy %d: %w", port, err)
	}

	b.mu.Lock()
	b.port = 0
	b.mu.Unlock()
	return nil
}

func (b *BrowserMob) doJSON(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	resp, err := b.do(ctx, method, path, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (b *BrowserMob) do(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
