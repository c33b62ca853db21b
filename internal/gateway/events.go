package gateway

import (
	"context"

	"github.com/soyeahso/annobot/internal/hooks"
)

// forwardedEvents maps session hook events to the event names clients see.
var forwardedEvents = map[string]string{
	hooks.EventMessageAppended: "chat.message",
	hooks.EventPendingChanged:  "chat.pending",
	hooks.EventSessionCleared:  "chat.cleared",
	hooks.EventConfigUpdated:   "task.updated",
}

func forwardedEventNames() []string {
	names := make([]string, 0, len(forwardedEvents))
	for _, name := range forwardedEvents {
		names = append(names, name)
	}
	return names
}

// forwardEvent relays a session event to the client that owns the session.
func (s *Server) forwardEvent(_ context.Context, p hooks.Payload) error {
	client, ok := s.clients.BySession(p.SessionID)
	if !ok {
		return nil
	}

	var payload any
	switch p.Event {
	case hooks.EventMessageAppended:
		msg, _ := p.Message()
		payload = msg
	case hooks.EventPendingChanged:
		payload = map[string]any{"pending": p.Data["pending"]}
	case hooks.EventSessionCleared:
		payload = map[string]any{"messages": client.Session.Messages()}
	case hooks.EventConfigUpdated:
		payload = map[string]any{"config": p.Data["config"]}
	}

	return client.SendEvent(forwardedEvents[p.Event], payload, s.eventSeq.Add(1))
}
