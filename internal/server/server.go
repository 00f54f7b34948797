// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeranaias/vedantra/internal/backend"
	"github.com/jeranaias/vedantra/internal/model"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats counts chat traffic since start.
type Stats struct {
	started        time.Time
	chats          atomic.Int64
	upstreamErrors atomic.Int64
	aborted        atomic.Int64
	bytes          atomic.Int64
}

// StatsSnapshot is the JSON view of Stats.
type StatsSnapshot struct {
	UptimeSecs     int64 `json:"uptime_secs"`
	Chats          int64 `json:"chats"`
	UpstreamErrors int64 `json:"upstream_errors"`
	Aborted        int64 `json:"aborted"`
	BytesStreamed  int64 `json:"bytes_streamed"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		UptimeSecs:     int64(time.Since(s.started).Seconds()),
		Chats:          s.chats.Load(),
		UpstreamErrors: s.upstreamErrors.Load(),
		Aborted:        s.aborted.Load(),
		BytesStreamed:  s.bytes.Load(),
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Config wires a Server.
type Config struct {
	Addr    string
	Version string
	Catalog *model.Catalog
	// Completer is nil when no upstream key is configured; chat requests
	// then fail with 503.
	Completer Completer
	RPS       float64
	Burst     int
	CORS      CORSConfig
	// TrustedProxies lists the peers whose X-Forwarded-For is believed.
	// Empty means none: the client IP is always the socket peer.
	TrustedProxies []string
	Logger         *slog.Logger
}

// Server proxies chat requests to the upstream completion API and streams
// the reply text back as a plain chunked body.
type Server struct {
	cfg     Config
	engine  *gin.Engine
	limiter *RateLimiter
	stats   *Stats
	logger  *slog.Logger
}

// New builds the gin engine and routes.
func New(cfg Config) *Server {
	if cfg.Catalog == nil {
		cfg.Catalog = model.DefaultCatalog()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CORS.AllowedMethods == nil {
		def := DefaultCORSConfig()
		def.AllowedOrigins = append(def.AllowedOrigins, cfg.CORS.AllowedOrigins...)
		cfg.CORS = def
	}

	s := &Server{
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RPS, cfg.Burst),
		stats:   &Stats{started: time.Now()},
		logger:  cfg.Logger,
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		s.logger.Warn("invalid trusted proxies, trusting none", "error", err)
		_ = engine.SetTrustedProxies(nil)
	}
	engine.Use(Recovery(s.logger))
	engine.Use(Logger(s.logger))
	engine.Use(SecurityHeaders())
	engine.Use(CORS(cfg.CORS))
	s.setupRoutes(engine)
	s.engine = engine
	return s
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.GET("/models", s.handleModels)
	api.POST("/chat", RateLimit(s.limiter, s.logger), s.handleChat)
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// ============================================================================
// HANDLERS
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string        `json:"status"`
	Version  string        `json:"version,omitempty"`
	Upstream string        `json:"upstream"`
	Stats    StatsSnapshot `json:"stats"`
}

func (s *Server) handleHealth(c *gin.Context) {
	upstream := "configured"
	if s.cfg.Completer == nil {
		upstream = "not_configured"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.cfg.Version,
		Upstream: upstream,
		Stats:    s.stats.Snapshot(),
	})
}

func (s *Server) handleModels(c *gin.Context) {
	def := model.DefaultModel
	if !s.cfg.Catalog.Has(def) && s.cfg.Catalog.Len() > 0 {
		def = s.cfg.Catalog.IDs()[0]
	}
	c.JSON(http.StatusOK, backend.ModelsResponse{
		Default: def,
		Models:  s.cfg.Catalog.Models(),
	})
}

// handleChat streams the reply for one conversation. The first text chunk
// is read before any header is written, so an upstream failure up to that
// point is still reported as a 500 with a JSON body. After that the only
// way to signal failure is to abort the connection.
func (s *Server) handleChat(c *gin.Context) {
	ctx := c.Request.Context()

	var req backend.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, backend.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if s.cfg.Completer == nil {
		c.JSON(http.StatusServiceUnavailable, backend.ErrorResponse{Error: "upstream API key is not configured"})
		return
	}

	params := BuildParams(req)
	if len(params.Messages) == 0 {
		c.JSON(http.StatusBadRequest, backend.ErrorResponse{Error: "messages must contain a user or assistant turn"})
		return
	}
	s.stats.chats.Add(1)
	s.logger.DebugContext(ctx, "chat request", "model", req.Model, "upstream_model", params.Model, "turns", len(params.Messages))

	stream := s.cfg.Completer.Stream(ctx, params)
	defer stream.Close()

	first, ok := nextDelta(stream)
	if !ok {
		if err := stream.Err(); err != nil {
			s.stats.upstreamErrors.Add(1)
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, backend.ErrorResponse{Error: err.Error()})
			return
		}
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	if ok && !s.write(c, first) {
		return
	}
	c.Writer.Flush()

	for {
		text, more := nextDelta(stream)
		if !more {
			break
		}
		if !s.write(c, text) {
			return
		}
	}

	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			s.logger.InfoContext(ctx, "client went away during stream")
			return
		}
		s.stats.upstreamErrors.Add(1)
		s.stats.aborted.Add(1)
		s.logger.ErrorContext(ctx, "upstream stream broke", "error", err)
		panic(http.ErrAbortHandler)
	}
}

// write sends one chunk and flushes it. It reports false when the client
// is gone.
func (s *Server) write(c *gin.Context, text string) bool {
	n, err := c.Writer.WriteString(text)
	s.stats.bytes.Add(int64(n))
	if err != nil {
		s.logger.InfoContext(c.Request.Context(), "client write failed", "error", err)
		return false
	}
	c.Writer.Flush()
	return true
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Run listens on cfg.Addr and serves until ctx ends, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: replies stream for as long as the model talks.
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "http server starting", "addr", ln.Addr().String(), "version", s.cfg.Version)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.InfoContext(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	st := s.stats.Snapshot()
	s.logger.InfoContext(shutdownCtx, "shutdown complete",
		"uptime_secs", st.UptimeSecs,
		"chats", st.Chats,
		"upstream_errors", st.UpstreamErrors,
		"aborted", st.Aborted,
		"bytes_streamed", st.BytesStreamed,
	)
	return nil
}
