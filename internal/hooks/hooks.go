// Package hooks is the event bus connecting assistant sessions to their
// surroundings: job-binding notifications flow in, turn lifecycle events flow out.
package hooks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/soyeahso/annobot/internal/domain"
	"github.com/soyeahso/annobot/internal/logging"
)

// Events emitted by sessions and the gateway.
const (
	EventJobBound        = "job_bound"
	EventMessageAppended = "message_appended"
	EventPendingChanged  = "pending_changed"
	EventSessionCleared  = "session_cleared"
	EventConfigUpdated   = "config_updated"
	EventTurnCompleted   = "turn_completed"
	EventTurnFailed      = "turn_failed"
	EventGatewayStart    = "gateway_start"
	EventGatewayStop     = "gateway_stop"
)

// Payload carries event data to hook handlers. SessionID scopes the event to
// one session; an empty SessionID on EventJobBound addresses every session.
type Payload struct {
	Event     string         `json:"event"`
	SessionID string         `json:"sessionId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Job extracts the job carried by an EventJobBound payload.
func (p Payload) Job() (domain.Job, bool) {
	job, ok := p.Data["job"].(domain.Job)
	return job, ok
}

// Message extracts the message carried by an EventMessageAppended payload.
func (p Payload) Message() (domain.Message, bool) {
	msg, ok := p.Data["message"].(domain.Message)
	return msg, ok
}

// Handler reacts to an event. A returned error is logged and does not
// stop the remaining handlers.
type Handler func(ctx context.Context, p Payload) error

type subscription struct {
	name string
	fn   Handler
}

// Manager routes events to the handlers subscribed to them.
type Manager struct {
	mu   sync.RWMutex
	subs map[string][]subscription
	log  *logging.Logger
}

// NewManager creates an empty Manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		subs: make(map[string][]subscription),
		log:  log.Sub("hooks"),
	}
}

// On subscribes handler to event under name. Names need not be unique;
// Off removes every subscription sharing one.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	m.subs[event] = append(m.subs[event], subscription{name: name, fn: handler})
	m.mu.Unlock()
	m.log.Debug().Str("event", event).Str("handler", name).Msg("subscribed")
}

// Off drops the subscriptions named name from event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[event] = slices.DeleteFunc(m.subs[event], func(s subscription) bool {
		return s.name == name
	})
}

// Emit runs the handlers subscribed to p.Event in subscription order, on
// the caller's goroutine. Handlers may call On and Off.
func (m *Manager) Emit(ctx context.Context, p Payload) {
	m.mu.RLock()
	subs := slices.Clone(m.subs[p.Event])
	m.mu.RUnlock()

	for _, s := range subs {
		if err := m.call(ctx, s, p); err != nil {
			m.log.Warn().
				Err(err).
				Str("event", p.Event).
				Str("session", p.SessionID).
				Str("handler", s.name).
				Msg("hook handler failed")
		}
	}
}

// call isolates the emitter from a panicking handler.
func (m *Manager) call(ctx context.Context, s subscription, p Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.fn(ctx, p)
}

// BindJob announces that sessionID, or every session when empty, now works on job.
func (m *Manager) BindJob(ctx context.Context, sessionID string, job domain.Job) {
	m.Emit(ctx, Payload{
		Event:     EventJobBound,
		SessionID: sessionID,
		Data:      map[string]any{"job": job},
	})
}

// Count returns the number of handlers subscribed to event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[event])
}
