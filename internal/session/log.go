// Package session provides the ordered dialogue history of one assistant session.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/soyeahso/annobot/internal/domain"
)

// Seed texts for the assistant message a log starts with.
const (
	Greeting = "Hello! I'm your AI annotation assistant. Configure your settings above, " +
		"then describe what you want me to annotate.\n\n" +
		"Example: \"Detect and segment all cats in this video\" or \"Find all vehicles and track them\""
	ClearedNotice = "Chat cleared. Configure your settings and describe what you want me to annotate."
)

// ErrDuplicateMessageID is returned when a message ID is already present in the log.
var ErrDuplicateMessageID = errors.New("duplicate message id")

// Log is an append-only, chronologically ordered list of messages.
// Reset is the only operation that removes entries.
type Log struct {
	mu       sync.RWMutex
	messages []domain.Message
	ids      map[string]struct{}
}

// NewLog creates a log holding only the greeting.
func NewLog() *Log {
	l := &Log{}
	l.seed(Greeting)
	return l
}

// Append adds msg to the end of the log.
func (l *Log) Append(msg domain.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[msg.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMessageID, msg.ID)
	}
	l.ids[msg.ID] = struct{}{}
	l.messages = append(l.messages, msg)
	return nil
}

// Reset replaces the whole history with a single fresh seed message.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seed(ClearedNotice)
}

// All returns a snapshot of the log in insertion order.
func (l *Log) All() []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.messages)
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Last returns the most recent message.
func (l *Log) Last() (domain.Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.messages) == 0 {
		return domain.Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

func (l *Log) seed(content string) {
	msg := domain.NewMessage(domain.RoleAssistant, content)
	l.messages = []domain.Message{msg}
	l.ids = map[string]struct{}{msg.ID: {}}
}
