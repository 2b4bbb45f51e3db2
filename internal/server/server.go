// Package server exposes the query engine over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cnharrison/harq/internal/filter"
	"github.com/cnharrison/harq/internal/logger"
	"github.com/cnharrison/harq/internal/query"
)

// DefaultPollInterval is how often /api/watch re-queries a live source
const DefaultPollInterval = 2 * time.Second

const shutdownTimeout = 5 * time.Second

var releaseMode sync.Once

// Server holds the gin router and the engine it queries.
type Server struct {
	router  *gin.Engine
	queries *query.Engine
	log     logger.Logger
	addr    string
	poll    time.Duration

	mu   sync.Mutex
	subs map[chan struct{}]struct{}
	stop chan struct{}
	once sync.Once
}

// Option customizes a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPollInterval sets how often watch clients are refreshed without a
// file change. Zero disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) { s.poll = d }
}

// New creates an API server listening on addr once Run is called.
func New(queries *query.Engine, addr string, opts ...Option) *Server {
	releaseMode.Do(func() { gin.SetMode(gin.ReleaseMode) })
	router := gin.New()
	router.Use(gin.Recovery())

	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	s := &Server{
		router:  router,
		queries: queries,
		log:     logger.Nop(),
		addr:    addr,
		poll:    DefaultPollInterval,
		subs:    make(map[chan struct{}]struct{}),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	router.Use(s.logRequests)
	s.setupRoutes()
	return s
}

// Handler returns the router for use with httptest or a custom http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	api.GET("/requests", s.handleRequests)
	api.GET("/entries", s.handleEntries)
	api.GET("/responses", s.handleResponses)
	api.GET("/payloads", s.handlePayloads)
	api.GET("/combined", s.handleCombined)
	api.GET("/combined/path-exact", s.handlePathExact)
	api.GET("/watch", s.handleWatch)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(s.Close)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API listening on http://%s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close ends every open watch stream
func (s *Server) Close() {
	s.once.Do(func() { close(s.stop) })
}

// Refresh asks every watch client to re-run its query
func (s *Server) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Follow calls Refresh for every event until events is closed or ctx is done
func (s *Server) Follow(ctx context.Context, events <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			s.log.Debug("HAR changed: %s", path)
			s.Refresh()
		}
	}
}

func (s *Server) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start))
}

func (s *Server) handleRequests(c *gin.Context) {
	doc, err := s.queries.Requests(c.Request.Context())
	respond(c, doc, err)
}

func (s *Server) handleEntries(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	entries, err := s.queries.Entries(c.Request.Context(), f)
	respond(c, entries, err)
}

func (s *Server) handleResponses(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	records, err := s.queries.ResponseBodies(c.Request.Context(), f)
	respond(c, records, err)
}

func (s *Server) handlePayloads(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	records, err := s.queries.RequestPayloads(c.Request.Context(), f)
	respond(c, records, err)
}

func (s *Server) handleCombined(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	records, err := s.queries.RequestAndResponseData(c.Request.Context(), f)
	respond(c, records, err)
}

func (s *Server) handlePathExact(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	records, err := s.queries.RequestAndResponseDataByPathExact(c.Request.Context(), path)
	respond(c, records, err)
}

// bindFilter reads url_pattern, exact_match, url_contains and endpoint.
// On failure it writes a 400 and returns false.
func bindFilter(c *gin.Context) (filter.QueryFilter, bool) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return filter.QueryFilter{}, false
	}
	return f, true
}

func parseFilter(c *gin.Context) (filter.QueryFilter, error) {
	f := filter.QueryFilter{
		URLPattern:  c.Query("url_pattern"),
		URLContains: c.Query("url_contains"),
	}
	if raw := c.Query("exact_match"); raw != "" {
		exact, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.New("exact_match must be a boolean")
		}
		f.ExactMatch = exact
	}
	if endpoint := c.Query("endpoint"); endpoint != "" {
		if f.URLPattern != "" || f.ExactMatch {
			return f, errors.New("endpoint cannot be combined with url_pattern or exact_match")
		}
		f = filter.QueryFilter{URLPattern: filter.EndpointPattern(endpoint), URLContains: f.URLContains}
	}
	return f, nil
}

func respond(c *gin.Context, v any, err error) {
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, query.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, filter.ErrInvalidPattern):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
