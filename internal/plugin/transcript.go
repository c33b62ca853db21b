package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/soyeahso/annobot/internal/hooks"
)

const transcriptHook = "plugin.transcript"

// Transcript appends every session message and failed turn to a JSON lines
// file, one object per event.
type Transcript struct {
	path string

	mu    sync.Mutex
	out   io.WriteCloser
	lines zerolog.Logger
	hooks *hooks.Manager
}

// NewTranscript returns a transcript plugin writing to path. The file and its
// directory are created on Init.
func NewTranscript(path string) *Transcript {
	return &Transcript{path: path}
}

// ID implements Plugin.
func (t *Transcript) ID() string { return "transcript" }

// Init implements Plugin.
func (t *Transcript) Init(_ context.Context, api API) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}
	t.attach(f, api.Hooks)
	api.Log.Info().Str("path", t.path).Msg("recording transcript")
	return nil
}

func (t *Transcript) attach(out io.WriteCloser, hm *hooks.Manager) {
	t.out = out
	t.lines = zerolog.New(out).With().Timestamp().Logger()
	t.hooks = hm
	hm.On(hooks.EventMessageAppended, transcriptHook, t.onMessage)
	hm.On(hooks.EventSessionCleared, transcriptHook, t.onCleared)
	hm.On(hooks.EventTurnFailed, transcriptHook, t.onFailed)
}

// Close implements Plugin.
func (t *Transcript) Close() error {
	for _, e := range []string{hooks.EventMessageAppended, hooks.EventSessionCleared, hooks.EventTurnFailed} {
		t.hooks.Off(e, transcriptHook)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.Close()
}

func (t *Transcript) onMessage(_ context.Context, p hooks.Payload) error {
	msg, ok := p.Message()
	if !ok {
		return errors.New("message_appended without message")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines.Log().
		Str("event", p.Event).
		Str("session", p.SessionID).
		Str("id", msg.ID).
		Str("role", string(msg.Role)).
		Str("content", msg.Content).
		Send()
	return nil
}

func (t *Transcript) onCleared(_ context.Context, p hooks.Payload) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines.Log().Str("event", p.Event).Str("session", p.SessionID).Send()
	return nil
}

func (t *Transcript) onFailed(_ context.Context, p hooks.Payload) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines.Log().
		Str("event", p.Event).
		Str("session", p.SessionID).
		Interface("error", p.Data["error"]).
		Send()
	return nil
}
