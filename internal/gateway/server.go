// Package gateway exposes assistant sessions over HTTP and WebSocket. Each
// authenticated connection owns exactly one session.
package gateway

import (
	"cmp"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/annobot/internal/assistant"
	"github.com/soyeahso/annobot/internal/config"
	"github.com/soyeahso/annobot/internal/domain"
	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/soyeahso/annobot/internal/logging"
	"github.com/soyeahso/annobot/internal/version"
)

const (
	maxPayload       = 1 << 20
	handshakeTimeout = 10 * time.Second
)

// Catalog supplies job metadata for job.bind.
type Catalog interface {
	GetJob(id string) (domain.Job, error)
	Labels(jobID string) ([]domain.Label, error)
}

// Server is the annobot gateway HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	auth     ResolvedAuth
	log      *logging.Logger
	clients  *ClientRegistry
	handlers map[string]RequestHandler
	version  string
	eventSeq atomic.Int64

	hooks       *hooks.Manager
	catalog     Catalog
	sessionOpts assistant.Options

	startedAt   time.Time
	httpServer  *http.Server
	upgrader    websocket.Upgrader
	authLimiter *authRateLimiter
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithHooks sets the hook manager shared with the sessions.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithCatalog sets the job/label catalog used by job.bind.
func WithCatalog(c Catalog) ServerOption {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithSessionOptions sets the options every connection's session is created with.
// The Hooks field is always replaced by the server's hook manager.
func WithSessionOptions(opts assistant.Options) ServerOption {
	return func(s *Server) {
		s.sessionOpts = opts
	}
}

// New creates a new gateway server.
func New(cfg config.Config, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:         cfg,
		auth:        ResolveAuth(cfg.Gateway.Auth),
		log:         log.Sub("gateway"),
		clients:     NewClientRegistry(log.Sub("clients")),
		handlers:    make(map[string]RequestHandler),
		version:     version.Version,
		authLimiter: newAuthRateLimiter(authRateWindow, authRateMaxFails),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Gateway.AllowedOrigins),
		},
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.hooks == nil {
		s.hooks = hooks.NewManager(log)
	}
	s.sessionOpts.Hooks = s.hooks

	for event := range forwardedEvents {
		s.hooks.On(event, "gateway.forward", s.forwardEvent)
	}
	s.registerRPCHandlers()
	return s
}

// checkWebSocketOrigin returns a function that validates WebSocket Origin headers.
// Requests without an Origin header are non-browser clients and always pass.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isOriginAllowed(origin, allowed)
	}
}

// Handle registers an RPC method handler.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the list of registered RPC method names.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	return methods
}

// Handler returns the HTTP handler with routes and middleware installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Gateway.AllowedOrigins)
}

// listenAddr maps the bind mode to a host:port pair.
func listenAddr(cfg config.GatewayConfig) string {
	var host string
	switch cfg.Bind {
	case "lan", "auto":
		host = "0.0.0.0"
	case "custom":
		host = cmp.Or(cfg.CustomBindHost, "0.0.0.0")
	default:
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(cfg.Port))
}

// listen opens the TCP listener, wrapped in TLS when configured.
func (s *Server) listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	tlsCfg := s.cfg.Gateway.TLS
	if !tlsCfg.Enabled {
		if s.cfg.Gateway.Bind != "loopback" {
			s.log.Warn().Msg("gateway reachable off-host without TLS")
		}
		return ln, nil
	}

	cert, err := tls.LoadX509KeyPair(tlsCfg.CertPath, tlsCfg.KeyPath)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("loading TLS key pair: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// Start serves until ctx is cancelled, then drains clients and returns.
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.listen(listenAddr(s.cfg.Gateway))
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.startedAt = time.Now()

	addr := ln.Addr().String()
	s.log.Info().
		Str("addr", addr).
		Str("auth", s.auth.Mode).
		Bool("tls", s.cfg.Gateway.TLS.Enabled).
		Msg("gateway listening")
	s.hooks.Emit(ctx, hooks.Payload{Event: hooks.EventGatewayStart, Data: map[string]any{"addr": addr}})

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.shutdown()
	}()

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}

func (s *Server) shutdown() {
	s.log.Info().Int("clients", s.clients.Count()).Msg("gateway stopping")
	s.hooks.Emit(context.Background(), hooks.Payload{Event: hooks.EventGatewayStop})

	s.clients.Broadcast("gateway.shutdown", map[string]any{"reason": "server stopping"}, s.eventSeq.Add(1))
	s.clients.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warn().Err(err).Msg("gateway shutdown incomplete")
	}
}

// handleWebSocket upgrades the request and serves the connection until it
// closes. Hosts with repeated handshake failures are refused before upgrade.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.authLimiter.allow(r.RemoteAddr) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("refusing host with recent auth failures")
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("upgrade failed")
		return
	}
	conn.SetReadLimit(maxPayload)

	client, err := s.handshake(conn)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("handshake rejected")
		s.authLimiter.recordFailure(r.RemoteAddr)
		conn.Close()
		return
	}

	s.clients.Add(client)
	defer s.disconnect(client)
	s.readLoop(client)
}

func (s *Server) disconnect(c *Client) {
	s.clients.Remove(c.ConnID)
	c.Close()
	c.Session.Close()
}

// handshake runs challenge, connect and hello-ok on a fresh connection and
// returns the authenticated client with its new session.
func (s *Server) handshake(conn *websocket.Conn) (*Client, error) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	if err := s.sendChallenge(conn); err != nil {
		return nil, err
	}

	frame, params, err := readConnect(conn)
	if err != nil {
		return nil, err
	}

	auth := Authorize(s.auth, params.Auth)
	if !auth.OK {
		reject(conn, frame.ID, CodeUnauthorized, auth.Reason)
		return nil, fmt.Errorf("auth failed: %s", auth.Reason)
	}
	_ = conn.SetReadDeadline(time.Time{})

	session := assistant.New(s.sessionOpts, s.log)
	client := NewClient(conn, params.Client, auth, session)

	resp, err := NewResponse(frame.ID, s.hello(client))
	if err == nil {
		err = conn.WriteJSON(resp)
	}
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	s.log.Info().
		Str("connId", client.ConnID).
		Str("session", session.ID()).
		Str("clientId", params.Client.ID).
		Str("authMethod", auth.Method).
		Msg("client connected")
	return client, nil
}

func (s *Server) sendChallenge(conn *websocket.Conn) error {
	challenge, err := NewEvent("connect.challenge", map[string]any{
		"nonce": uuid.NewString(),
		"ts":    time.Now().UnixMilli(),
	}, 0)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(challenge); err != nil {
		return fmt.Errorf("sending challenge: %w", err)
	}
	return nil
}

// readConnect reads the first client frame, which must be a connect request
// for a protocol range that includes ProtocolVersion.
func readConnect(conn *websocket.Conn) (Frame, ConnectParams, error) {
	var params ConnectParams

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return Frame{}, params, fmt.Errorf("reading connect: %w", err)
	}

	frame, err := DecodeFrame(msg)
	if err != nil {
		reject(conn, "", CodeProtocol, "malformed frame")
		return frame, params, err
	}
	if frame.Type != FrameTypeRequest || frame.Method != "connect" {
		reject(conn, frame.ID, CodeProtocol, "expected connect request")
		return frame, params, fmt.Errorf("first frame was %s %q, not connect", frame.Type, frame.Method)
	}
	if err := json.Unmarshal(frame.Params, &params); err != nil {
		reject(conn, frame.ID, CodeInvalidParams, "invalid connect params")
		return frame, params, fmt.Errorf("decoding connect params: %w", err)
	}
	if !params.supports(ProtocolVersion) {
		reject(conn, frame.ID, CodeProtocol, "unsupported protocol version")
		return frame, params, fmt.Errorf("client protocol %d-%d excludes %d", params.MinProtocol, params.MaxProtocol, ProtocolVersion)
	}
	return frame, params, nil
}

func (s *Server) hello(c *Client) HelloOK {
	return HelloOK{
		Protocol:  ProtocolVersion,
		Server:    ServerInfo{Version: s.version, Commit: version.Commit, ConnID: c.ConnID},
		SessionID: c.Session.ID(),
		Features: Features{
			Methods: s.Methods(),
			Events:  append([]string{"connect.challenge", "gateway.shutdown"}, forwardedEventNames()...),
		},
		Policy: ServerPolicy{MaxPayload: maxPayload},
	}
}

// readLoop processes incoming frames from an authenticated client.
func (s *Server) readLoop(client *Client) {
	for {
		frame, err := client.ReadFrame()
		if errors.Is(err, errMalformedFrame) {
			_ = client.RespondError("", ErrorShape{Code: CodeProtocol, Message: err.Error()})
			continue
		}
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}

		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}

		s.dispatch(client, frame)
	}
}

// dispatch routes a request frame to the appropriate handler.
func (s *Server) dispatch(client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		_ = client.RespondError(frame.ID, ErrorShape{
			Code:    CodeMethodNotFound,
			Message: "unknown method: " + frame.Method,
		})
		return
	}

	handler(&RequestContext{
		Client:  client,
		Session: client.Session,
		Frame:   frame,
		Log:     s.log.With("connId", client.ConnID).With("method", frame.Method),
	})
}

// reject answers a handshake request with an error and closes the socket.
func reject(conn *websocket.Conn, reqID, code, message string) {
	_ = conn.WriteJSON(NewErrorResponse(reqID, ErrorShape{Code: code, Message: message}))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message))
}
