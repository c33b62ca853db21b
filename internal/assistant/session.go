// Package assistant runs the annotation assistant's conversation: it accepts
// one user turn at a time, produces the reply after a simulated backend
// round-trip, and keeps the session's history and task configuration.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/annobot/internal/domain"
	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/soyeahso/annobot/internal/logging"
	"github.com/soyeahso/annobot/internal/session"
	"github.com/soyeahso/annobot/internal/task"
)

// ErrorReply is appended as the assistant turn whenever dispatch fails.
const ErrorReply = "❌ Sorry, I encountered an error. Please try again."

// Default latency window of the simulated backend round-trip.
const (
	DefaultLatencyMin = 1500 * time.Millisecond
	DefaultLatencyMax = 2500 * time.Millisecond
)

var (
	// ErrEmptySubmission is returned when the submitted text is blank.
	ErrEmptySubmission = errors.New("empty submission")
	// ErrTurnPending is returned when a turn is already in flight.
	ErrTurnPending = errors.New("a turn is already pending")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("session closed")
)

// Options configures a Session.
type Options struct {
	// LatencyMin and LatencyMax bound the random delay before each reply.
	// Both zero disables the delay.
	LatencyMin time.Duration
	LatencyMax time.Duration
	// Timeout bounds the responder call. Zero means no deadline.
	Timeout time.Duration
	// Responder produces replies. Defaults to RuleResponder.
	Responder Responder
	// Hooks receives session events and delivers job bindings. Optional.
	Hooks *hooks.Manager
	// Config is the initial task configuration. Defaults to task.Defaults().
	Config *task.Config
}

// Session owns one conversation: its log, its task configuration and the
// pending flag. All methods are safe for concurrent use.
type Session struct {
	id        string
	opts      Options
	responder Responder
	hooks     *hooks.Manager
	history   *session.Log
	log       *logging.Logger

	mu     sync.RWMutex
	cfg    task.Config
	labels []domain.Label

	pending atomic.Bool

	life   sync.Mutex
	closed bool
	turns  sync.WaitGroup
}

// New creates a session seeded with the greeting. When opts.Hooks is set the
// session listens for job bindings until Close.
func New(opts Options, log *logging.Logger) *Session {
	cfg := task.Defaults()
	if opts.Config != nil {
		cfg = opts.Config.Clone()
	}
	responder := opts.Responder
	if responder == nil {
		responder = RuleResponder{}
	}
	if opts.LatencyMax < opts.LatencyMin {
		opts.LatencyMax = opts.LatencyMin
	}

	id := uuid.NewString()
	s := &Session{
		id:        id,
		opts:      opts,
		responder: responder,
		hooks:     opts.Hooks,
		history:   session.NewLog(),
		log:       log.Sub("assistant").With("session", id),
		cfg:       cfg,
		labels:    []domain.Label{},
	}
	if s.hooks != nil {
		s.hooks.On(hooks.EventJobBound, s.hookName(), s.onJobBound)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Submit appends text as a user message and starts producing the reply.
// Blank text and submissions while a turn is pending are rejected without
// touching the log. The returned turn always completes, with either the
// synthesized reply or ErrorReply. Cancelling ctx does not abort the turn.
func (s *Session) Submit(ctx context.Context, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.log.Debug().Str("reason", "empty").Msg("submission rejected")
		return nil, ErrEmptySubmission
	}
	if !s.pending.CompareAndSwap(false, true) {
		s.log.Debug().Str("reason", "pending").Msg("submission rejected")
		return nil, ErrTurnPending
	}
	s.life.Lock()
	if s.closed {
		s.life.Unlock()
		s.pending.Store(false)
		return nil, ErrClosed
	}
	s.turns.Add(1)
	s.life.Unlock()

	ctx = context.WithoutCancel(ctx)
	req := domain.NewMessage(domain.RoleUser, text)
	s.append(ctx, req)
	s.emit(ctx, hooks.EventPendingChanged, map[string]any{"pending": true})
	s.log.Debug().Str("message", req.ID).Msg("turn submitted")

	t := newTurn(req)
	go s.run(ctx, t)
	return t, nil
}

func (s *Session) run(ctx context.Context, t *Turn) {
	defer s.turns.Done()
	start := time.Now()

	content, err := s.dispatch(ctx, t.Request.Content)
	if err != nil {
		content = ErrorReply
	}
	msg := domain.NewMessage(domain.RoleAssistant, content)
	s.append(ctx, msg)
	s.pending.Store(false)
	s.emit(ctx, hooks.EventPendingChanged, map[string]any{"pending": false})

	if err != nil {
		s.log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("turn failed")
		s.emit(ctx, hooks.EventTurnFailed, map[string]any{"error": err.Error()})
	} else {
		s.log.Info().Dur("duration", time.Since(start)).Msg("turn completed")
		s.emit(ctx, hooks.EventTurnCompleted, map[string]any{"message": msg})
	}
	t.finish(msg, err)
}

// dispatch waits out the simulated latency, then asks the responder for the
// reply using the configuration current at that moment.
func (s *Session) dispatch(ctx context.Context, text string) (reply string, err error) {
	if d := s.latency(); d > 0 {
		time.Sleep(d)
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	type result struct {
		reply string
		err   error
	}
	done := make(chan result, 1)
	cfg := s.Config()
	go func() {
		var r result
		defer func() {
			if p := recover(); p != nil {
				r = result{err: fmt.Errorf("responder panic: %v", p)}
			}
			done <- r
		}()
		r.reply, r.err = s.responder.Respond(ctx, text, cfg)
	}()

	select {
	case r := <-done:
		if r.err == nil && strings.TrimSpace(r.reply) == "" {
			return "", errors.New("responder returned an empty reply")
		}
		return r.reply, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("dispatch: %w", ctx.Err())
	}
}

func (s *Session) latency() time.Duration {
	lo, hi := s.opts.LatencyMin, s.opts.LatencyMax
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func (s *Session) append(ctx context.Context, msg domain.Message) {
	if err := s.history.Append(msg); err != nil {
		// Message IDs are freshly generated UUIDs; a collision is a bug.
		s.log.Error().Err(err).Msg("append failed")
		return
	}
	s.emit(ctx, hooks.EventMessageAppended, map[string]any{"message": msg})
}

// Clear resets the history to a single notice. A pending turn is unaffected
// and still appends its reply when it completes.
func (s *Session) Clear() {
	s.history.Reset()
	s.log.Debug().Msg("session cleared")
	s.emit(context.Background(), hooks.EventSessionCleared, nil)
}

// Messages returns a snapshot of the history in insertion order.
func (s *Session) Messages() []domain.Message { return s.history.All() }

// Pending reports whether a turn is in flight.
func (s *Session) Pending() bool { return s.pending.Load() }

// Config returns a copy of the current task configuration.
func (s *Session) Config() task.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig applies p and returns the resulting configuration. It may be
// called while a turn is pending; that turn sees the new values.
func (s *Session) UpdateConfig(p task.Patch) (task.Config, error) {
	s.mu.Lock()
	next, err := s.cfg.Apply(p)
	if err != nil {
		s.mu.Unlock()
		return s.Config(), err
	}
	s.cfg = next
	s.mu.Unlock()

	s.configUpdated()
	return next.Clone(), nil
}

// BindJob overwrites the frame bounds with those of job.
func (s *Session) BindJob(job domain.Job) task.Config {
	s.mu.Lock()
	s.cfg = s.cfg.BindJob(job)
	next := s.cfg.Clone()
	s.mu.Unlock()

	s.log.Info().Str("job", job.ID).Int("frameStart", next.FrameStart).Int("frameEnd", next.FrameEnd).Msg("job bound")
	s.configUpdated()
	return next
}

// SetLabels replaces the label catalog offered for the label filter.
// Selected labels are not checked against it.
func (s *Session) SetLabels(labels []domain.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = slices.Clone(labels)
}

// Labels returns the label catalog.
func (s *Session) Labels() []domain.Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.labels)
}

// Close stops listening for job bindings and waits for a pending turn to finish.
func (s *Session) Close() {
	s.life.Lock()
	if s.closed {
		s.life.Unlock()
		return
	}
	s.closed = true
	s.life.Unlock()

	if s.hooks != nil {
		s.hooks.Off(hooks.EventJobBound, s.hookName())
	}
	s.turns.Wait()
}

func (s *Session) onJobBound(_ context.Context, p hooks.Payload) error {
	if p.SessionID != "" && p.SessionID != s.id {
		return nil
	}
	job, ok := p.Job()
	if !ok {
		return fmt.Errorf("job_bound payload without job")
	}
	s.BindJob(job)
	return nil
}

func (s *Session) configUpdated() {
	s.emit(context.Background(), hooks.EventConfigUpdated, map[string]any{"config": s.Config()})
}

func (s *Session) emit(ctx context.Context, event string, data map[string]any) {
	if s.hooks == nil {
		return
	}
	s.hooks.Emit(ctx, hooks.Payload{Event: event, SessionID: s.id, Data: data})
}

func (s *Session) hookName() string { return "session." + s.id }
