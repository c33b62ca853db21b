package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/annobot/internal/domain"
	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/soyeahso/annobot/internal/logging"
	"github.com/soyeahso/annobot/internal/session"
	"github.com/soyeahso/annobot/internal/task"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s := New(opts, silentLog())
	t.Cleanup(s.Close)
	return s
}

func waitTurn(t *testing.T, turn *Turn) domain.Message {
	t.Helper()
	select {
	case <-turn.Done():
		return turn.Reply()
	case <-time.After(5 * time.Second):
		t.Fatal("turn did not complete")
		return domain.Message{}
	}
}

// blockingResponder holds every reply until release is closed.
type blockingResponder struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingResponder() *blockingResponder {
	return &blockingResponder{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingResponder) Respond(_ context.Context, text string, _ task.Config) (string, error) {
	b.entered <- struct{}{}
	<-b.release
	return "echo: " + text, nil
}

func TestNew_SeedsGreeting(t *testing.T) {
	s := newTestSession(t, Options{})

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.Equal(t, session.Greeting, msgs[0].Content)
	assert.False(t, s.Pending())
	assert.Equal(t, task.Defaults(), s.Config())
	assert.NotEmpty(t, s.ID())
}

func TestSubmit_FindAllDogs(t *testing.T) {
	s := newTestSession(t, Options{})
	track := true
	start, end := 10, 50
	_, err := s.UpdateConfig(task.Patch{EnableTracking: &track, FrameStart: &start, FrameEnd: &end})
	require.NoError(t, err)

	turn, err := s.Submit(context.Background(), "  Find all dogs  ")
	require.NoError(t, err)
	assert.Equal(t, "Find all dogs", turn.Request.Content)

	reply := waitTurn(t, turn)
	require.NoError(t, turn.Err())
	assert.Equal(t, domain.RoleAssistant, reply.Role)
	assert.Contains(t, reply.Content, "dogs")
	assert.Contains(t, reply.Content, "frames 10 to 50")
	assert.Contains(t, reply.Content, "enabled")
	assert.False(t, s.Pending())

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.RoleUser, msgs[1].Role)
	assert.Equal(t, reply.ID, msgs[2].ID)
}

func TestSubmit_EmptyIsNoop(t *testing.T) {
	s := newTestSession(t, Options{})

	for _, text := range []string{"", "   ", "\n\t"} {
		turn, err := s.Submit(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptySubmission)
		assert.Nil(t, turn)
	}
	assert.Len(t, s.Messages(), 1)
	assert.False(t, s.Pending())
}

func TestSubmit_RejectedWhilePending(t *testing.T) {
	br := newBlockingResponder()
	s := newTestSession(t, Options{Responder: br})

	turn, err := s.Submit(context.Background(), "first")
	require.NoError(t, err)
	<-br.entered
	assert.True(t, s.Pending())

	for i := 0; i < 3; i++ {
		_, err := s.Submit(context.Background(), "second")
		assert.ErrorIs(t, err, ErrTurnPending)
	}
	assert.Len(t, s.Messages(), 2, "rejected submissions must not append")
	assert.True(t, s.Pending())

	close(br.release)
	reply := waitTurn(t, turn)
	assert.Equal(t, "echo: first", reply.Content)
	assert.False(t, s.Pending())

	_, err = s.Submit(context.Background(), "third")
	assert.NoError(t, err)
}

func TestSubmit_ConcurrentOnlyOneAccepted(t *testing.T) {
	br := newBlockingResponder()
	s := newTestSession(t, Options{Responder: br})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []*Turn
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if turn, err := s.Submit(context.Background(), "go"); err == nil {
				mu.Lock()
				accepted = append(accepted, turn)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, accepted, 1)

	close(br.release)
	waitTurn(t, accepted[0])
	assert.Len(t, s.Messages(), 3)
}

func TestSubmit_ErrorPath(t *testing.T) {
	tests := []struct {
		name      string
		responder Responder
		timeout   time.Duration
	}{
		{
			name: "error",
			responder: ResponderFunc(func(context.Context, string, task.Config) (string, error) {
				return "", errors.New("backend down")
			}),
		},
		{
			name: "panic",
			responder: ResponderFunc(func(context.Context, string, task.Config) (string, error) {
				panic("boom")
			}),
		},
		{
			name: "empty reply",
			responder: ResponderFunc(func(context.Context, string, task.Config) (string, error) {
				return "  ", nil
			}),
		},
		{
			name:    "timeout",
			timeout: 20 * time.Millisecond,
			responder: ResponderFunc(func(ctx context.Context, _ string, _ task.Config) (string, error) {
				time.Sleep(time.Second)
				return "too late", nil
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, Options{Responder: tt.responder, Timeout: tt.timeout})

			turn, err := s.Submit(context.Background(), "Find all dogs")
			require.NoError(t, err)
			reply := waitTurn(t, turn)

			assert.Error(t, turn.Err())
			assert.Equal(t, ErrorReply, reply.Content)
			assert.False(t, s.Pending())

			msgs := s.Messages()
			require.Len(t, msgs, 3)
			assert.Equal(t, domain.RoleAssistant, msgs[2].Role)
			assert.Equal(t, ErrorReply, msgs[2].Content)
		})
	}
}

func TestSubmit_CallerCancelDoesNotAbortTurn(t *testing.T) {
	br := newBlockingResponder()
	s := newTestSession(t, Options{Responder: br})

	ctx, cancel := context.WithCancel(context.Background())
	turn, err := s.Submit(ctx, "hello")
	require.NoError(t, err)
	<-br.entered
	cancel()
	close(br.release)

	reply := waitTurn(t, turn)
	assert.NoError(t, turn.Err())
	assert.Equal(t, "echo: hello", reply.Content)
}

func TestSubmit_ConfigReadAtSynthesisTime(t *testing.T) {
	var seen task.Config
	s := newTestSession(t, Options{
		LatencyMin: 100 * time.Millisecond,
		LatencyMax: 100 * time.Millisecond,
		Responder: ResponderFunc(func(_ context.Context, _ string, cfg task.Config) (string, error) {
			seen = cfg
			return "ok", nil
		}),
	})

	turn, err := s.Submit(context.Background(), "Find all dogs")
	require.NoError(t, err)
	mask := domain.AnnotationMask
	_, err = s.UpdateConfig(task.Patch{AnnotationType: &mask})
	require.NoError(t, err)

	waitTurn(t, turn)
	assert.Equal(t, domain.AnnotationMask, seen.AnnotationType)
}

func TestClear(t *testing.T) {
	s := newTestSession(t, Options{})

	turn, err := s.Submit(context.Background(), "help")
	require.NoError(t, err)
	waitTurn(t, turn)
	require.Len(t, s.Messages(), 3)

	s.Clear()
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.Equal(t, session.ClearedNotice, msgs[0].Content)
}

func TestClear_WhilePending(t *testing.T) {
	br := newBlockingResponder()
	s := newTestSession(t, Options{Responder: br})

	turn, err := s.Submit(context.Background(), "first")
	require.NoError(t, err)
	<-br.entered

	s.Clear()
	assert.True(t, s.Pending(), "clear must not touch the pending flag")
	assert.Len(t, s.Messages(), 1)

	close(br.release)
	waitTurn(t, turn)
	assert.False(t, s.Pending())

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, session.ClearedNotice, msgs[0].Content)
	assert.Equal(t, "echo: first", msgs[1].Content)
}

func TestUpdateConfig(t *testing.T) {
	s := newTestSession(t, Options{})

	start := 80
	cfg, err := s.UpdateConfig(task.Patch{FrameStart: &start})
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.FrameStart)
	assert.Equal(t, 100, cfg.FrameEnd)

	end := 20
	cfg, err = s.UpdateConfig(task.Patch{FrameEnd: &end})
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.FrameStart)
	assert.Equal(t, 20, cfg.FrameEnd)

	bogus := domain.AnnotationType("cuboid")
	cfg, err = s.UpdateConfig(task.Patch{AnnotationType: &bogus})
	assert.ErrorIs(t, err, task.ErrUnknownAnnotationType)
	assert.Equal(t, domain.AnnotationBoundingBox, cfg.AnnotationType)
	assert.Equal(t, s.Config(), cfg)
}

func TestConfig_ReturnsCopy(t *testing.T) {
	s := newTestSession(t, Options{})
	labels := []string{"1"}
	_, err := s.UpdateConfig(task.Patch{SelectedLabels: &labels})
	require.NoError(t, err)

	cfg := s.Config()
	cfg.SelectedLabels[0] = "mutated"
	assert.Equal(t, []string{"1"}, s.Config().SelectedLabels)
}

func TestBindJob_ViaHooks(t *testing.T) {
	hm := hooks.NewManager(silentLog())
	a := newTestSession(t, Options{Hooks: hm})
	b := newTestSession(t, Options{Hooks: hm})

	start, stop := 12, 48
	hm.BindJob(context.Background(), a.ID(), domain.Job{ID: "7", StartFrame: &start, StopFrame: &stop})

	assert.Equal(t, 12, a.Config().FrameStart)
	assert.Equal(t, 48, a.Config().FrameEnd)
	assert.Equal(t, task.Defaults(), b.Config(), "binding is scoped to the addressed session")

	hm.BindJob(context.Background(), "", domain.Job{ID: "8"})
	assert.Equal(t, 0, a.Config().FrameStart)
	assert.Equal(t, 100, a.Config().FrameEnd)
	assert.Equal(t, 100, b.Config().FrameEnd)
}

func TestClose_Unsubscribes(t *testing.T) {
	hm := hooks.NewManager(silentLog())
	s := New(Options{Hooks: hm}, silentLog())
	assert.Equal(t, 1, hm.Count(hooks.EventJobBound))

	s.Close()
	s.Close()
	assert.Equal(t, 0, hm.Count(hooks.EventJobBound))

	_, err := s.Submit(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, s.Pending())
}

func TestSessionEvents(t *testing.T) {
	hm := hooks.NewManager(silentLog())
	s := newTestSession(t, Options{Hooks: hm})

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(_ context.Context, p hooks.Payload) error {
		if p.SessionID != s.ID() {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		events = append(events, p.Event)
		return nil
	}
	for _, ev := range []string{
		hooks.EventMessageAppended, hooks.EventPendingChanged,
		hooks.EventTurnCompleted, hooks.EventSessionCleared, hooks.EventConfigUpdated,
	} {
		hm.On(ev, "test", record)
	}

	turn, err := s.Submit(context.Background(), "help")
	require.NoError(t, err)
	waitTurn(t, turn)
	s.Clear()
	track := true
	_, err = s.UpdateConfig(task.Patch{EnableTracking: &track})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		hooks.EventMessageAppended,
		hooks.EventPendingChanged,
		hooks.EventMessageAppended,
		hooks.EventPendingChanged,
		hooks.EventTurnCompleted,
		hooks.EventSessionCleared,
		hooks.EventConfigUpdated,
	}, events)
}

func TestLabels(t *testing.T) {
	s := newTestSession(t, Options{})
	assert.Empty(t, s.Labels())

	in := []domain.Label{{ID: "1", Name: "car"}, {ID: "2", Name: "person"}}
	s.SetLabels(in)
	in[0].Name = "mutated"
	assert.Equal(t, "car", s.Labels()[0].Name)

	labels := []string{"99"}
	cfg, err := s.UpdateConfig(task.Patch{SelectedLabels: &labels})
	require.NoError(t, err)
	assert.Equal(t, []string{"99"}, cfg.SelectedLabels, "selection is not checked against the catalog")
}

func TestLatency(t *testing.T) {
	s := newTestSession(t, Options{LatencyMin: 10 * time.Millisecond, LatencyMax: 20 * time.Millisecond})
	for i := 0; i < 50; i++ {
		d := s.latency()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}

	fixed := newTestSession(t, Options{LatencyMin: 5 * time.Millisecond, LatencyMax: time.Millisecond})
	assert.Equal(t, 5*time.Millisecond, fixed.latency())

	none := newTestSession(t, Options{})
	assert.Zero(t, none.latency())
}
