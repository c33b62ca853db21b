package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/soyeahso/annobot/internal/assistant"
	"github.com/soyeahso/annobot/internal/logging"
	"github.com/soyeahso/annobot/internal/store"
	"github.com/soyeahso/annobot/internal/task"
)

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status; the authenticated RPC handler populates all fields.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	UptimeMs int64  `json:"uptimeMs,omitempty"`
}

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("/", handleNotFound)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RequestHandler processes an incoming RPC request frame from a client.
type RequestHandler func(rc *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client  *Client
	Session *assistant.Session
	Frame   Frame
	Log     *logging.Logger // tagged with connId and method
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Log.Warn().Err(err).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.RespondErrorShape(ErrorShape{Code: code, Message: message})
}

// RespondErrorShape sends a fully specified error response.
func (rc *RequestContext) RespondErrorShape(e ErrorShape) {
	if err := rc.Client.RespondError(rc.Frame.ID, e); err != nil {
		rc.Log.Warn().Err(err).Msg("failed to send error")
	}
}

// Fail answers with the error code matching err.
func (rc *RequestContext) Fail(err error) {
	shape := errorShape(err)
	if shape.Code == CodeInternal {
		rc.Log.Error().Err(err).Msg("request failed")
	}
	rc.RespondErrorShape(shape)
}

func errorShape(err error) ErrorShape {
	switch {
	case errors.Is(err, assistant.ErrTurnPending):
		return ErrorShape{Code: CodeBusy, Message: "a reply is still pending", Retryable: true}
	case errors.Is(err, assistant.ErrEmptySubmission):
		return ErrorShape{Code: CodeInvalidParams, Message: "message is required"}
	case errors.Is(err, task.ErrUnknownAnnotationType), errors.Is(err, errBadParams):
		return ErrorShape{Code: CodeInvalidParams, Message: err.Error()}
	case errors.Is(err, store.ErrJobNotFound):
		return ErrorShape{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, assistant.ErrClosed), errors.Is(err, errNoCatalog):
		return ErrorShape{Code: CodeUnavailable, Message: err.Error()}
	default:
		return ErrorShape{Code: CodeInternal, Message: err.Error()}
	}
}

var (
	errBadParams = errors.New("invalid params")
	errNoCatalog = errors.New("no job catalog configured")
)

// Params decodes the request params into target. Missing params leave
// target untouched.
func (rc *RequestContext) Params(target any) error {
	if len(rc.Frame.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(rc.Frame.Params, target); err != nil {
		return fmt.Errorf("%w: %v", errBadParams, err)
	}
	return nil
}
