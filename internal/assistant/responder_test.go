package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/annobot/internal/reply"
	"github.com/soyeahso/annobot/internal/task"
)

type recordingService struct {
	targets []string
	err     error
}

func (r *recordingService) SubmitAnnotationRequest(_ context.Context, cfg task.Config, target string) (Outcome, error) {
	r.targets = append(r.targets, target)
	if r.err != nil {
		return Outcome{}, r.err
	}
	return Outcome{RequestID: "req-1", Target: target, Config: cfg, Status: "queued"}, nil
}

func TestRuleResponder_Synthesizes(t *testing.T) {
	out, err := RuleResponder{}.Respond(context.Background(), "what is this tool", task.Defaults())
	require.NoError(t, err)
	assert.Contains(t, out, `"what is this tool"`)
}

func TestRuleResponder_ForwardsDetectRequests(t *testing.T) {
	svc := &recordingService{}
	r := RuleResponder{Service: svc}

	out, err := r.Respond(context.Background(), "Segment the cars", task.Defaults())
	require.NoError(t, err)
	assert.Contains(t, out, "cars")
	assert.Contains(t, out, reply.DemoNote)

	_, err = r.Respond(context.Background(), "how do I start?", task.Defaults())
	require.NoError(t, err)
	assert.Equal(t, []string{"cars"}, svc.targets, "only detect/segment requests reach the service")
}

func TestRuleResponder_ServiceFailure(t *testing.T) {
	r := RuleResponder{Service: &recordingService{err: errors.New("quota exceeded")}}

	_, err := r.Respond(context.Background(), "detect people", task.Defaults())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestDemoAnnotations(t *testing.T) {
	cfg := task.Defaults()
	cfg.SelectedLabels = []string{"3"}

	out, err := DemoAnnotations{}.SubmitAnnotationRequest(context.Background(), cfg, "dogs")
	require.NoError(t, err)
	assert.NotEmpty(t, out.RequestID)
	assert.Equal(t, "dogs", out.Target)
	assert.Equal(t, "simulated", out.Status)

	cfg.SelectedLabels[0] = "changed"
	assert.Equal(t, []string{"3"}, out.Config.SelectedLabels)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = DemoAnnotations{}.SubmitAnnotationRequest(ctx, cfg, "dogs")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_FailingServiceTakesErrorPath(t *testing.T) {
	s := newTestSession(t, Options{Responder: RuleResponder{Service: &recordingService{err: errors.New("down")}}})

	turn, err := s.Submit(context.Background(), "Find all dogs")
	require.NoError(t, err)
	got := waitTurn(t, turn)
	assert.Equal(t, ErrorReply, got.Content)
	assert.False(t, s.Pending())
}
