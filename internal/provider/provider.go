// Package provider turns a command into a plan through one or more
// model backends with ordered fallback: an attempt that times out or
// fails is abandoned and the next backend is tried, never retried in
// place.
package provider

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/rahul/max/internal/plan"
)

// Mode selects which backends participate and in what order.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
	ModeAuto  Mode = "auto"
)

const clarifyFallbackQuestion = "I couldn't reach my planner. Could you repeat or rephrase that?"

// FallbackFunc observes one fallback event: the named backend failed
// and the chain moved on.
type FallbackFunc func(backend string, err error)

// TraceFunc observes one raw model exchange, before any parsing, so
// audit logs capture exactly what the backend said.
type TraceFunc func(sessionID string, prompt any, response string)

// Provider generates plans with per-attempt timeouts and fallback.
// Read-only after construction apart from the fallback counter.
type Provider struct {
	Local   Backend
	Cloud   Backend
	Mode    Mode
	Timeout time.Duration
	Catalog *plan.Catalog

	// OnFallback, when set, is invoked once per fallback event.
	OnFallback FallbackFunc

	// OnTrace, when set, receives every raw backend reply.
	OnTrace TraceFunc

	fallbacks atomic.Int64
}

// FallbackEvents returns how many times the chain moved past a failed
// backend since startup.
func (p *Provider) FallbackEvents() int64 { return p.fallbacks.Load() }

// Generate produces a plan for the command. If every backend is
// unreachable the user gets a clarify plan rather than a raw error;
// if the final backend answered but its output failed structural
// parsing, ErrMalformedPlan is returned for the rejection path.
func (p *Provider) Generate(ctx context.Context, cmd plan.Command) (*plan.Plan, error) {
	backends := p.chain()
	if len(backends) == 0 {
		return plan.Clarify(clarifyFallbackQuestion), nil
	}

	messages := buildMessages(p.Catalog, cmd)
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var lastErr error
	for i, b := range backends {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		raw, err := b.Complete(attemptCtx, messages)
		cancel()

		if err == nil {
			if p.OnTrace != nil {
				p.OnTrace(cmd.SessionID, messages, raw)
			}
			result, perr := plan.Parse(raw)
			if perr == nil {
				return result, nil
			}
			log.Printf("Backend %s returned an unparseable plan: %v", b.Name(), perr)
			err = perr
		} else {
			log.Printf("Backend %s failed: %v", b.Name(), err)
		}

		lastErr = err
		if i < len(backends)-1 {
			p.fallbacks.Add(1)
			if p.OnFallback != nil {
				p.OnFallback(b.Name(), err)
			}
		}
	}

	if errors.Is(lastErr, plan.ErrMalformedPlan) {
		return nil, lastErr
	}
	return plan.Clarify(clarifyFallbackQuestion), nil
}

func (p *Provider) chain() []Backend {
	var out []Backend
	switch p.Mode {
	case ModeLocal:
		if p.Local != nil {
			out = append(out, p.Local)
		}
	case ModeCloud:
		if p.Cloud != nil {
			out = append(out, p.Cloud)
		}
	default: // auto: local first, cloud second
		if p.Local != nil {
			out = append(out, p.Local)
		}
		if p.Cloud != nil {
			out = append(out, p.Cloud)
		}
	}
	return out
}
