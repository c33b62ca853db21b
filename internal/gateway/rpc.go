package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/annobot/internal/domain"
	"github.com/soyeahso/annobot/internal/task"
)

// registerRPCHandlers sets up all JSON-RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("chat.history", s.rpcChatHistory)
	s.Handle("chat.send", s.rpcChatSend)
	s.Handle("chat.clear", s.rpcChatClear)
	s.Handle("task.get", s.rpcTaskGet)
	s.Handle("task.update", s.rpcTaskUpdate)
	s.Handle("task.types", s.rpcTaskTypes)
	s.Handle("job.bind", s.rpcJobBind)
	s.Handle("labels.list", s.rpcLabelsList)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	var uptime int64
	if !s.startedAt.IsZero() {
		uptime = time.Since(s.startedAt).Milliseconds()
	}
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		UptimeMs: uptime,
	})
}

// ChatHistory is the payload of chat.history and chat.clear.
type ChatHistory struct {
	Messages []domain.Message `json:"messages"`
	Pending  bool             `json:"pending"`
}

func (s *Server) rpcChatHistory(rc *RequestContext) {
	rc.Respond(ChatHistory{Messages: rc.Session.Messages(), Pending: rc.Session.Pending()})
}

type chatSendParams struct {
	Message string `json:"message"`
	// Wait delays the response until the reply is in the log.
	Wait bool `json:"wait,omitempty"`
}

// ChatSendResult is the payload of chat.send.
type ChatSendResult struct {
	Accepted  bool            `json:"accepted"`
	MessageID string          `json:"messageId"`
	Reply     *domain.Message `json:"reply,omitempty"`
	Failed    bool            `json:"failed,omitempty"`
}

func (s *Server) rpcChatSend(rc *RequestContext) {
	var p chatSendParams
	if err := rc.Params(&p); err != nil {
		rc.Fail(err)
		return
	}

	turn, err := rc.Session.Submit(context.Background(), p.Message)
	if err != nil {
		rc.Fail(err)
		return
	}

	if !p.Wait {
		rc.Respond(ChatSendResult{Accepted: true, MessageID: turn.Request.ID})
		return
	}

	// Keep reading frames while the turn runs.
	go func() {
		<-turn.Done()
		reply := turn.Reply()
		rc.Respond(ChatSendResult{
			Accepted:  true,
			MessageID: turn.Request.ID,
			Reply:     &reply,
			Failed:    turn.Err() != nil,
		})
	}()
}

func (s *Server) rpcChatClear(rc *RequestContext) {
	rc.Session.Clear()
	rc.Respond(ChatHistory{Messages: rc.Session.Messages(), Pending: rc.Session.Pending()})
}

// TaskState is the payload of task.get, task.update and job.bind.
type TaskState struct {
	Config    task.Config `json:"config"`
	FrameText string      `json:"frameText"`
	TypeLabel string      `json:"typeLabel"`
}

func taskState(cfg task.Config) TaskState {
	return TaskState{Config: cfg, FrameText: cfg.FrameRange(), TypeLabel: cfg.AnnotationType.Label()}
}

func (s *Server) rpcTaskGet(rc *RequestContext) {
	rc.Respond(taskState(rc.Session.Config()))
}

func (s *Server) rpcTaskUpdate(rc *RequestContext) {
	var p task.Patch
	if err := rc.Params(&p); err != nil {
		rc.Fail(err)
		return
	}
	if p.Empty() {
		rc.RespondError(CodeInvalidParams, "no fields to update")
		return
	}

	cfg, err := rc.Session.UpdateConfig(p)
	if err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(taskState(cfg))
}

// AnnotationTypeInfo describes one selectable annotation type.
type AnnotationTypeInfo struct {
	Value domain.AnnotationType `json:"value"`
	Label string                `json:"label"`
}

func (s *Server) rpcTaskTypes(rc *RequestContext) {
	types := make([]AnnotationTypeInfo, len(domain.AnnotationTypes))
	for i, t := range domain.AnnotationTypes {
		types[i] = AnnotationTypeInfo{Value: t, Label: t.Label()}
	}
	rc.Respond(map[string]any{"types": types})
}

type jobBindParams struct {
	// JobID looks the job up in the catalog.
	JobID string `json:"jobId,omitempty"`
	// Job binds an ad-hoc job that is not in the catalog.
	Job *domain.Job `json:"job,omitempty"`
}

func (s *Server) rpcJobBind(rc *RequestContext) {
	var p jobBindParams
	if err := rc.Params(&p); err != nil {
		rc.Fail(err)
		return
	}

	var job domain.Job
	switch {
	case p.Job != nil:
		job = *p.Job
	case p.JobID != "":
		var (
			labels []domain.Label
			err    error
		)
		job, labels, err = s.lookupJob(p.JobID)
		if err != nil {
			rc.Fail(err)
			return
		}
		rc.Session.SetLabels(labels)
	default:
		rc.RespondError(CodeInvalidParams, "jobId or job is required")
		return
	}

	s.hooks.BindJob(context.Background(), rc.Session.ID(), job)
	rc.Respond(taskState(rc.Session.Config()))
}

func (s *Server) lookupJob(id string) (domain.Job, []domain.Label, error) {
	if s.catalog == nil {
		return domain.Job{}, nil, errNoCatalog
	}
	job, err := s.catalog.GetJob(id)
	if err != nil {
		return domain.Job{}, nil, err
	}
	labels, err := s.catalog.Labels(job.ID)
	if err != nil {
		return domain.Job{}, nil, fmt.Errorf("loading labels of job %s: %w", id, err)
	}
	return job, labels, nil
}

func (s *Server) rpcLabelsList(rc *RequestContext) {
	rc.Respond(map[string]any{"labels": rc.Session.Labels()})
}
