// Package feedserver serves the progress feed, session snapshots and
// telemetry events over HTTP, SSE and WebSocket.
package feedserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/npratt/beacon/internal/metrics"
	"github.com/npratt/beacon/internal/progress"
	"github.com/npratt/beacon/internal/shutdown"
)

const (
	// DefaultAddr matches the port producers publish to.
	DefaultAddr = "127.0.0.1:8765"

	maxPublishBytes   = 1 << 20
	defaultKeepAlive  = 15 * time.Second
	writeWait         = 10 * time.Second
	errSessionMissing = "session not found"
)

// Options configures a Server.
type Options struct {
	Addr             string
	StateFile        string
	HistorySize      int
	SubscriberBuffer int
	// Token protects the POST endpoints when non-empty.
	Token string
	// KeepAlive is the interval of SSE comment pings and WebSocket pings.
	KeepAlive time.Duration
	Logger    *slog.Logger
}

// Server is the observability feed server.
type Server struct {
	opts     Options
	hub      *Hub
	ledger   *Ledger
	states   *StateStore
	logger   *slog.Logger
	upgrader websocket.Upgrader
	engine   *gin.Engine
	now      func() time.Time
}

// New creates a server and registers its routes.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "feedserver")

	s := &Server{
		opts:   opts,
		hub:    NewHub(opts.SubscriberBuffer),
		ledger: NewLedger(opts.HistorySize),
		states: NewStateStore(opts.StateFile, logger),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		now: time.Now,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestIDMiddleware(), metricsMiddleware(), requestLogger(s.logger))

	engine.GET("/healthz", s.health)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	obs := engine.Group("/observability")
	obs.GET("/health", s.health)
	obs.GET("/progress", s.stream)
	obs.GET("/ws", s.streamWebSocket)
	obs.GET("/sessions/:id", s.sessionDetail)

	protected := obs.Group("/")
	protected.Use(authMiddleware(s.opts.Token))
	protected.POST("/progress", s.publish)
	protected.POST("/sessions/:id/events", s.appendEvent)

	return engine
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the server's hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Ledger returns the server's telemetry ledger.
func (s *Server) Ledger() *Ledger {
	return s.ledger
}

// Run serves on the configured address until ctx is cancelled or a shutdown
// signal arrives.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	s.logger.Info("feed server listening", "addr", s.opts.Addr)
	return shutdown.Run(ctx, s.logger, shutdown.DefaultTimeout, srv)
}

// PublishFrame validates a raw frame, stamps it with the server time and
// fans it out to subscribers.
func (s *Server) PublishFrame(raw []byte) (delivered, dropped int, err error) {
	if err := progress.ValidateFrame(raw); err != nil {
		return 0, 0, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", progress.ErrInvalidFrame, err)
	}
	payload["timestamp"] = float64(s.now().UnixNano()) / float64(time.Second)
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, 0, err
	}
	delivered, dropped = s.hub.Publish(data)
	return delivered, dropped, nil
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// stream serves SSE, or WebSocket when the request asks for an upgrade, so
// one feed URL works for both transports.
func (s *Server) stream(c *gin.Context) {
	if websocket.IsWebSocketUpgrade(c.Request) {
		s.streamWebSocket(c)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stream unsupported"})
		return
	}

	ch, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(s.opts.KeepAlive)
	defer keepAlive.Stop()

	notify := c.Request.Context().Done()
	s.logger.Info("sse subscriber connected", "subscribers", s.hub.Subscribers())
	for {
		select {
		case <-notify:
			s.logger.Info("sse subscriber disconnected")
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) streamWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	// The client never sends frames; reading surfaces its close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.opts.KeepAlive)
	defer ping.Stop()

	s.logger.Info("websocket subscriber connected", "subscribers", s.hub.Subscribers())
	for {
		select {
		case <-closed:
			s.logger.Info("websocket subscriber disconnected")
			return
		case <-c.Request.Context().Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type sessionResponse struct {
	SessionID int64                     `json:"session_id"`
	State     json.RawMessage           `json:"state"`
	Events    []progress.TelemetryEvent `json:"events"`
}

func (s *Server) sessionDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	state, ok := s.states.Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errSessionMissing})
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		SessionID: id,
		State:     state,
		Events:    s.ledger.Events(id),
	})
}

func (s *Server) publish(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPublishBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	delivered, dropped, err := s.PublishFrame(raw)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, progress.ErrInvalidFrame) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"delivered": delivered, "dropped": dropped})
}

type eventRequest struct {
	EventType string         `json:"event_type" binding:"required"`
	Timestamp float64        `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
	Reason    string         `json:"reason"`
}

func (s *Server) appendEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Timestamp == 0 {
		req.Timestamp = float64(s.now().UnixNano()) / float64(time.Second)
	}
	ev := progress.TelemetryEvent{
		SessionID: id,
		EventType: req.EventType,
		Timestamp: req.Timestamp,
		Payload:   req.Payload,
		Reason:    req.Reason,
	}
	s.ledger.Append(ev)
	c.JSON(http.StatusCreated, ev)
}
