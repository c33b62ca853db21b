package gateway

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/annobot/internal/assistant"
	"github.com/soyeahso/annobot/internal/logging"
)

// writeWait bounds a single frame write to a slow client.
const writeWait = 10 * time.Second

var (
	// ErrClientClosed is returned when sending to a closed client.
	ErrClientClosed = errors.New("client closed")

	errMalformedFrame = errors.New("malformed frame")
)

// Client is an authenticated connection and the assistant session it owns.
type Client struct {
	ConnID      string
	Info        ClientInfo
	Socket      *websocket.Conn
	AuthMethod  string
	Session     *assistant.Session
	ConnectedAt time.Time

	// mu serializes writes; gorilla connections allow one concurrent writer.
	mu     sync.Mutex
	closed bool
}

// NewClient wraps an authenticated connection.
func NewClient(conn *websocket.Conn, info ClientInfo, auth AuthResult, session *assistant.Session) *Client {
	return &Client{
		ConnID:      uuid.NewString(),
		Info:        info,
		Socket:      conn,
		AuthMethod:  auth.Method,
		Session:     session,
		ConnectedAt: time.Now(),
	}
}

// Send writes a frame. Safe for concurrent use.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	_ = c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Socket.WriteJSON(frame)
}

// SendEvent sends a named event.
func (c *Client) SendEvent(event string, payload any, seq int64) error {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// Respond sends a success response to request reqID.
func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// RespondError sends an error response to request reqID.
func (c *Client) RespondError(reqID string, e ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, e))
}

// ReadFrame blocks for the next frame. Only the read loop calls it.
func (c *Client) ReadFrame() (Frame, error) {
	_, msg, err := c.Socket.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	f, err := DecodeFrame(msg)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errMalformedFrame, err)
	}
	return f, nil
}

// Close closes the connection. Later sends fail with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.Socket.Close()
}

// ClientRegistry tracks connected clients by connection and session ID.
type ClientRegistry struct {
	mu        sync.RWMutex
	clients   map[string]*Client // connID → Client
	bySession map[string]*Client // session ID → Client
	log       *logging.Logger
}

// NewClientRegistry creates an empty client registry.
func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients:   make(map[string]*Client),
		bySession: make(map[string]*Client),
		log:       log,
	}
}

// Add registers a connected client.
func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ConnID] = c
	if c.Session != nil {
		r.bySession[c.Session.ID()] = c
	}
	r.log.Debug().Str("connId", c.ConnID).Int("clients", len(r.clients)).Msg("client registered")
}

// Remove unregisters a client by connection ID.
func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[connID]
	if !ok {
		return
	}
	delete(r.clients, connID)
	if c.Session != nil {
		delete(r.bySession, c.Session.ID())
	}
	r.log.Info().Str("connId", connID).Dur("connected", time.Since(c.ConnectedAt)).Msg("client disconnected")
}

// Get returns a client by connection ID.
func (r *ClientRegistry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connID]
	return c, ok
}

// BySession returns the client owning the given session.
func (r *ClientRegistry) BySession(sessionID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.bySession[sessionID]
	return c, ok
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast sends an event to every client.
func (r *ClientRegistry) Broadcast(event string, payload any, seq int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if err := c.SendEvent(event, payload, seq); err != nil {
			r.log.Warn().Err(err).Str("connId", c.ConnID).Msg("broadcast send failed")
		}
	}
}

// CloseAll closes and forgets every client.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		c.Close()
		delete(r.clients, id)
	}
	clear(r.bySession)
}
