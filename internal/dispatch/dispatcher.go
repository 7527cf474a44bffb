// Package dispatch maps validated actions to registered handlers and
// executes them sequentially, collecting per-action results.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rahul/max/internal/plan"
)

// Handler executes one action type with the action's parameters.
// Handlers are trusted and registered once at startup. Asynchronous
// handlers must block until observably complete or timed out.
type Handler interface {
	Execute(ctx context.Context, params plan.Params) (string, map[string]any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, params plan.Params) (string, map[string]any, error)

func (f HandlerFunc) Execute(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	return f(ctx, params)
}

// ErrUnknownAction means an action type passed validation but has no
// registered handler — an internal invariant violation, not a user
// error.
var ErrUnknownAction = errors.New("no handler registered for action type")

// FatalError wraps a handler failure that must stop the rest of the
// plan, e.g. the target application no longer exists for dependent
// actions.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Fatal marks an error as plan-stopping.
func Fatal(err error) error { return &FatalError{Err: err} }

// Registry manages the set of registered handlers, keyed by action
// type.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(actionType string, h Handler) {
	r.handlers[actionType] = h
}

func (r *Registry) RegisterFunc(actionType string, f HandlerFunc) {
	r.Register(actionType, f)
}

func (r *Registry) Get(actionType string) Handler {
	return r.handlers[actionType]
}

// Dispatcher executes plans against the registry. Actions run strictly
// in order — later actions frequently depend on the visible side
// effects of earlier ones.
type Dispatcher struct {
	Registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{Registry: registry}
}

// Execute runs every action in order. A failed action is recorded and
// execution continues, unless the handler returned a FatalError, in
// which case the remaining actions are marked skipped. An unregistered
// action type stops the plan and is logged loudly — it should have
// been impossible past validation.
func (d *Dispatcher) Execute(ctx context.Context, p *plan.Plan) []plan.ExecutionResult {
	results := make([]plan.ExecutionResult, 0, len(p.Actions))

	for i, a := range p.Actions {
		handler := d.Registry.Get(a.Type)
		if handler == nil {
			log.Printf("INTERNAL DEFECT: %v: %q (validation should have rejected this plan)",
				ErrUnknownAction, a.Type)
			results = append(results, plan.ExecutionResult{
				ActionIndex: i,
				ActionType:  a.Type,
				Success:     false,
				Message:     fmt.Sprintf("internal error: %v: %s", ErrUnknownAction, a.Type),
			})
			results = skipRemaining(results, p, i+1, "previous internal error")
			break
		}

		start := time.Now()
		message, payload, err := handler.Execute(ctx, a.Parameters)
		elapsed := time.Since(start)

		res := plan.ExecutionResult{
			ActionIndex: i,
			ActionType:  a.Type,
			Success:     err == nil,
			Message:     message,
			Payload:     payload,
			Elapsed:     elapsed,
		}
		if err != nil {
			res.Message = err.Error()
		}
		results = append(results, res)

		var fatal *FatalError
		if errors.As(err, &fatal) {
			log.Printf("Action %d (%s) failed fatally, stopping plan: %v", i+1, a.Type, err)
			results = skipRemaining(results, p, i+1, "previous action failed fatally")
			break
		}
		if err != nil {
			log.Printf("Action %d (%s) failed, continuing: %v", i+1, a.Type, err)
		}
	}

	return results
}

func skipRemaining(results []plan.ExecutionResult, p *plan.Plan, from int, reason string) []plan.ExecutionResult {
	for j := from; j < len(p.Actions); j++ {
		results = append(results, plan.ExecutionResult{
			ActionIndex: j,
			ActionType:  p.Actions[j].Type,
			Success:     false,
			Message:     "skipped (" + reason + ")",
			Skipped:     true,
		})
	}
	return results
}
