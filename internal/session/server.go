// Package session serves editing sessions over websockets.
//
// Each connection gets its own session id, document and engine. Messages
// are JSON events handled strictly in order on the connection's read
// goroutine; every reply carries the rendered markup and the selection.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/FocuswithJustin/ClozeMark/core/editor"
	"github.com/FocuswithJustin/ClozeMark/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Hub tracks live sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

func (h *Hub) add(s *Session) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID()] = s
	return len(h.sessions)
}

func (h *Hub) remove(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
	return len(h.sessions)
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Options configures a Server.
type Options struct {
	Addr     string
	Security SecurityConfig
	Engine   editor.Options
	// Store backs load and save messages. Optional.
	Store DocumentStore
}

// Server is the websocket session server.
type Server struct {
	opts     Options
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer creates a server. Zero security limits take the defaults.
func NewServer(opts Options) *Server {
	def := DefaultSecurityConfig()
	if opts.Security.MaxMessageRate <= 0 {
		opts.Security.MaxMessageRate = def.MaxMessageRate
	}
	if opts.Security.MaxMessageSize <= 0 {
		opts.Security.MaxMessageSize = def.MaxMessageSize
	}
	return &Server{
		opts: opts,
		hub:  NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(opts.Security),
		},
	}
}

// Hub returns the server's session hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP handler with /ws, /healthz and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/healthz", securityHeaders(http.HandlerFunc(s.handleHealth)))
	mux.Handle("/metrics", promhttp.Handler())
	return logging.CombinedMiddleware(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.ServerStartup("session", "websocket", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.hub.Count(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.opts.Security.MaxMessageSize)

	id := uuid.NewString()
	ctx := logging.WithSessionID(r.Context(), id)
	sess := New(ctx, id, s.opts.Engine, s.opts.Store)
	logging.SessionEvent(ctx, "opened", s.hub.add(sess), "remote_addr", r.RemoteAddr)
	activeSessions.Inc()
	defer func() {
		activeSessions.Dec()
		logging.SessionEvent(ctx, "closed", s.hub.remove(id))
	}()

	c := &client{conn: conn}
	done := make(chan struct{})
	defer close(done)
	go c.keepAlive(done)

	hello := ServerMessage{Type: TypeHello, Session: id}
	if name := r.URL.Query().Get("document"); name != "" {
		if err := sess.Open(ctx, name); err != nil {
			hello.Type, hello.Error = TypeError, err.Error()
		}
	}
	hello.Markup = sess.Markup()
	if err := c.write(hello); err != nil {
		return
	}
	c.readLoop(ctx, sess, newLimiter(s.opts.Security.MaxMessageRate))
}

// client serializes writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *client) control(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}

func (c *client) readLoop(ctx context.Context, sess *Session, limiter *rate.Limiter) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.WarnContext(ctx, "websocket unexpected close", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !limiter.Allow() {
			logging.SecurityEvent("rate_limited", "session", "session_id", sess.ID())
			rateLimited.Inc()
			c.control(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"))
			return
		}

		start := time.Now()
		var reply ServerMessage
		msg, err := decode(data)
		if err != nil {
			reply = ServerMessage{Type: TypeError, Session: sess.ID(), Error: err.Error()}
		} else {
			reply = sess.Process(ctx, msg)
		}
		observeMessage(msg.Type, reply.Type, time.Since(start))
		if err := c.write(reply); err != nil {
			logging.WarnContext(ctx, "websocket write failed", "error", err)
			return
		}
	}
}

func (c *client) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.control(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
