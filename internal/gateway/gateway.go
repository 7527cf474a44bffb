// Package gateway connects chat transports to the pipeline. Each
// incoming message becomes a Command; replies carry the outcome
// feedback, and confirmation questions are answered in-channel with a
// plain yes or no.
package gateway

import (
	"context"
	"strings"

	"github.com/rahul/max/internal/pipeline"
	"github.com/rahul/max/internal/plan"
)

// Messenger is one chat transport.
type Messenger interface {
	// Start begins the message listening loop and blocks until Stop.
	Start() error
	// Send sends a message to a specific chat.
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway.
	Stop() error
}

// Handler runs one command through the pipeline. Satisfied by
// *pipeline.Pipeline.
type Handler interface {
	Handle(ctx context.Context, cmd plan.Command) (pipeline.Outcome, error)
}

var yesWords = map[string]bool{"y": true, "yes": true, "approve": true, "ok": true, "confirm": true}
var noWords = map[string]bool{"n": true, "no": true, "deny": true, "cancel": true, "stop": true}

// parseDecision interprets a reply to a pending confirmation.
func parseDecision(text string) (approved, recognized bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if yesWords[t] {
		return true, true
	}
	if noWords[t] {
		return false, true
	}
	return false, false
}
