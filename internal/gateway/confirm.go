package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rahul/max/internal/pipeline"
	"github.com/rahul/max/internal/plan"
)

// SendFunc delivers a message to one chat on a transport.
type SendFunc func(chatID, text string) error

// Confirmations is the shared confirmation gate for all transports.
// Session IDs are "<transport>:<chatID>"; the question goes back to
// the chat that issued the command, and the next yes/no from that chat
// resolves it.
type Confirmations struct {
	mu      sync.Mutex
	senders map[string]SendFunc
	pending map[string]chan bool
}

func NewConfirmations() *Confirmations {
	return &Confirmations{
		senders: make(map[string]SendFunc),
		pending: make(map[string]chan bool),
	}
}

// Bind registers the sender for one transport name.
func (c *Confirmations) Bind(transport string, send SendFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.senders[transport] = send
}

// Ask implements pipeline.Confirmer. It blocks until the user answers
// or ctx is done; an unanswered question counts as a denial.
func (c *Confirmations) Ask(ctx context.Context, cmd plan.Command, p *plan.Plan) (bool, error) {
	transport, chatID, ok := strings.Cut(cmd.SessionID, ":")
	if !ok {
		return false, fmt.Errorf("session %q has no transport prefix", cmd.SessionID)
	}

	c.mu.Lock()
	send := c.senders[transport]
	if send == nil {
		c.mu.Unlock()
		return false, fmt.Errorf("no sender bound for transport %q", transport)
	}
	ch := make(chan bool, 1)
	c.pending[cmd.SessionID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, cmd.SessionID)
		c.mu.Unlock()
	}()

	msg := pipeline.FormatConfirmation(p) + " (yes/no)"
	if err := send(chatID, msg); err != nil {
		return false, fmt.Errorf("failed to send confirmation request: %w", err)
	}

	select {
	case approved := <-ch:
		return approved, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Resolve feeds a user's reply to a pending question. It reports
// whether the message was consumed as a confirmation answer.
func (c *Confirmations) Resolve(sessionID, text string) bool {
	approved, recognized := parseDecision(text)

	c.mu.Lock()
	ch, pending := c.pending[sessionID]
	if pending && recognized {
		delete(c.pending, sessionID)
	}
	c.mu.Unlock()

	if !pending || !recognized {
		return false
	}
	ch <- approved
	return true
}
