package assistant

import (
	"context"

	"github.com/soyeahso/annobot/internal/domain"
)

// Turn tracks one accepted submission until its assistant reply is in the log.
type Turn struct {
	// Request is the user message appended when the turn was accepted.
	Request domain.Message

	done  chan struct{}
	reply domain.Message
	err   error
}

func newTurn(req domain.Message) *Turn {
	return &Turn{Request: req, done: make(chan struct{})}
}

// Done is closed once the reply has been appended and the session is idle again.
func (t *Turn) Done() <-chan struct{} { return t.done }

// Reply returns the appended assistant message. Only valid after Done is closed.
func (t *Turn) Reply() domain.Message { return t.reply }

// Err returns the dispatch failure that produced an error reply, or nil.
// Only valid after Done is closed.
func (t *Turn) Err() error { return t.err }

// Wait blocks until the turn completes or ctx is done. Abandoning the wait
// does not cancel the turn.
func (t *Turn) Wait(ctx context.Context) (domain.Message, error) {
	select {
	case <-t.done:
		return t.reply, t.err
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

func (t *Turn) finish(reply domain.Message, err error) {
	t.reply = reply
	t.err = err
	close(t.done)
}
