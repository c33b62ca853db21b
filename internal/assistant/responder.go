package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/annobot/internal/intent"
	"github.com/soyeahso/annobot/internal/reply"
	"github.com/soyeahso/annobot/internal/task"
)

// Responder produces the assistant's reply to one user submission.
// cfg is the task configuration as it stands when the reply is produced.
type Responder interface {
	Respond(ctx context.Context, text string, cfg task.Config) (string, error)
}

// ResponderFunc adapts a plain function to the Responder interface.
type ResponderFunc func(ctx context.Context, text string, cfg task.Config) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, text string, cfg task.Config) (string, error) {
	return f(ctx, text, cfg)
}

// Outcome is the result of handing an annotation request to a backend.
type Outcome struct {
	RequestID   string      `json:"requestId"`
	Target      string      `json:"target"`
	Config      task.Config `json:"config"`
	Status      string      `json:"status"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// AnnotationService submits annotation requests to an inference backend.
type AnnotationService interface {
	SubmitAnnotationRequest(ctx context.Context, cfg task.Config, target string) (Outcome, error)
}

// DemoAnnotations accepts every request without running any model.
type DemoAnnotations struct{}

// SubmitAnnotationRequest records the request and reports it as simulated.
func (DemoAnnotations) SubmitAnnotationRequest(ctx context.Context, cfg task.Config, target string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		RequestID:   uuid.NewString(),
		Target:      target,
		Config:      cfg.Clone(),
		Status:      "simulated",
		SubmittedAt: time.Now(),
	}, nil
}

// RuleResponder classifies the submission and synthesizes a templated reply.
// When Service is set, detect/segment requests are forwarded to it first and
// a service failure fails the turn.
type RuleResponder struct {
	Service AnnotationService
}

// Respond implements Responder.
func (r RuleResponder) Respond(ctx context.Context, text string, cfg task.Config) (string, error) {
	in := intent.Classify(text)
	if ds, ok := in.(intent.DetectSegment); ok && r.Service != nil {
		if _, err := r.Service.SubmitAnnotationRequest(ctx, cfg, ds.Target); err != nil {
			return "", fmt.Errorf("submit annotation request: %w", err)
		}
	}
	return reply.Synthesize(in, cfg), nil
}
