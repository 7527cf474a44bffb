// Package pipeline runs a command through the full safety chain: rule
// matching, plan generation, structural validation, risk
// classification, the confirmation gate, and finally dispatch. Every
// command ends in exactly one recorded outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/rahul/max/internal/dispatch"
	"github.com/rahul/max/internal/observability"
	"github.com/rahul/max/internal/plan"
	"github.com/rahul/max/internal/rules"
	"github.com/rahul/max/internal/safety"
	"github.com/rahul/max/internal/validate"
)

// Status names the terminal state of one pipeline run.
type Status string

const (
	StatusCompleted Status = "completed" // every action succeeded
	StatusPartial   Status = "partial"   // dispatched, at least one action failed
	StatusClarify   Status = "clarify"   // plan asked the user a question
	StatusRejected  Status = "rejected"  // validation or parsing refused the plan
	StatusBlocked   Status = "blocked"   // risk classification refused the plan
	StatusDenied    Status = "denied"    // user declined at the confirmation gate
)

// ErrUserDenied reports that the user answered no at the confirmation
// gate. The plan was never dispatched.
var ErrUserDenied = errors.New("action denied by user")

// Outcome is what the gateway shows the user after a run.
type Outcome struct {
	Status   Status
	Feedback string
	Plan     *plan.Plan
	Results  []plan.ExecutionResult
}

// Planner produces a plan for a command, usually via model backends.
type Planner interface {
	Generate(ctx context.Context, cmd plan.Command) (*plan.Plan, error)
}

// Confirmer asks the user to approve a dangerous plan. The command is
// included so a shared confirmer can route the question back to the
// session that issued it. Implementations must block until the user
// answers or ctx is done.
type Confirmer interface {
	Ask(ctx context.Context, cmd plan.Command, p *plan.Plan) (bool, error)
}

// Memory persists runs and serves back recent exchanges for prompt
// context.
type Memory interface {
	Record(cmd plan.Command, p *plan.Plan, results []plan.ExecutionResult, outcome string, success bool) error
	Recent(sessionID string, n int) ([]plan.Exchange, error)
	Count() (int, error)
}

// Pipeline wires the stages together. Commands within one session are
// serialized; distinct sessions run concurrently.
type Pipeline struct {
	Rules      *rules.Matcher
	Planner    Planner
	Validator  *validate.Validator
	Safety     *safety.Classifier
	Confirm    Confirmer
	Dispatcher *dispatch.Dispatcher
	Memory     Memory
	Events     *observability.Logger

	// ConfirmDangerous gates dangerous plans behind the Confirmer.
	// When false, dangerous plans run without asking.
	ConfirmDangerous bool

	// SimpleOnly refuses any command the rule matcher cannot resolve,
	// so the model backends are never consulted.
	SimpleOnly bool

	// ContextLimit caps how many prior exchanges are replayed to the
	// planner. Zero disables context injection.
	ContextLimit int

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

func New() *Pipeline {
	return &Pipeline{sessions: make(map[string]*sync.Mutex)}
}

func (pl *Pipeline) sessionLock(id string) *sync.Mutex {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.sessions == nil {
		pl.sessions = make(map[string]*sync.Mutex)
	}
	m, ok := pl.sessions[id]
	if !ok {
		m = &sync.Mutex{}
		pl.sessions[id] = m
	}
	return m
}

// Handle runs one command to a terminal outcome. The returned error is
// non-nil only for rejection paths the caller may want to branch on
// (malformed plans, user denial); the Outcome is always populated.
func (pl *Pipeline) Handle(ctx context.Context, cmd plan.Command) (Outcome, error) {
	lock := pl.sessionLock(cmd.SessionID)
	lock.Lock()
	defer lock.Unlock()

	observability.SetStatus(observability.StagePlanning, cmd.Text)
	defer observability.SetStatus(observability.StageIdle, "")

	p, source, err := pl.plan(ctx, &cmd)
	if err != nil {
		out := Outcome{Status: StatusRejected, Feedback: "Sorry, I couldn't understand that command."}
		pl.record(cmd, nil, nil, out)
		return out, err
	}
	if p.TaskType == plan.TaskClarify {
		out := Outcome{Status: StatusClarify, Feedback: p.Question, Plan: p}
		pl.record(cmd, p, nil, out)
		return out, nil
	}

	vr := pl.Validator.Validate(p)
	if !vr.OK {
		log.Printf("Plan rejected (%s): %s", vr.Err.Reason, vr.Err.Message)
		out := Outcome{Status: StatusRejected, Feedback: "Sorry, that request didn't produce a usable plan.", Plan: p}
		pl.record(cmd, p, nil, out)
		return out, vr.Err
	}
	if pl.Events != nil {
		pl.Events.LogPlan(cmd.SessionID, source, p.ToJSON(), vr.Complexity, vr.Concerns)
	}

	risk, err := pl.Safety.ClassifyAndSanitize(p)
	if pl.Events != nil {
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		pl.Events.LogPolicyCheck(cmd.SessionID, string(risk), err != nil, reason)
	}
	if err != nil {
		log.Printf("Plan blocked: %v", err)
		out := Outcome{Status: StatusBlocked, Feedback: "Sorry, that action is blocked for safety reasons.", Plan: p}
		pl.record(cmd, p, nil, out)
		return out, err
	}

	if risk == plan.RiskDangerous && pl.ConfirmDangerous {
		approved, err := pl.askConfirmation(ctx, cmd, p)
		if err != nil {
			out := Outcome{Status: StatusDenied, Feedback: "Confirmation failed, action cancelled.", Plan: p}
			pl.record(cmd, p, nil, out)
			return out, err
		}
		if !approved {
			out := Outcome{Status: StatusDenied, Feedback: "Action cancelled.", Plan: p}
			pl.record(cmd, p, nil, out)
			return out, ErrUserDenied
		}
	}

	observability.SetStatus(observability.StageExecuting, cmd.Text)
	if pl.Events != nil {
		pl.Events.LogDispatch(cmd.SessionID, string(p.TaskType), len(p.Actions))
	}
	results := pl.Dispatcher.Execute(ctx, p)

	allSuccess := true
	for _, r := range results {
		if !r.Success {
			allSuccess = false
		}
		if pl.Events != nil {
			pl.Events.LogResult(cmd.SessionID, r.ActionType, r.Success, r.Message)
		}
	}

	out := Outcome{Plan: p, Results: results}
	if allSuccess {
		out.Status = StatusCompleted
		out.Feedback = Feedback(results)
	} else {
		failed := 0
		for _, r := range results {
			if !r.Success {
				failed++
			}
		}
		out.Status = StatusPartial
		out.Feedback = fmt.Sprintf("Completed with %d error(s).", failed)
	}
	pl.record(cmd, p, results, out)
	return out, nil
}

// plan resolves a command to a plan: rules first, then the model
// backends. In simple-only mode unmatched commands never reach a
// backend.
func (pl *Pipeline) plan(ctx context.Context, cmd *plan.Command) (*plan.Plan, string, error) {
	if p := pl.Rules.Match(cmd.Text); p != nil {
		if pl.Events != nil && len(p.Actions) > 0 {
			pl.Events.LogRuleMatch(cmd.SessionID, cmd.Text, p.Actions[0].Type)
		}
		return p, "rules", nil
	}
	if pl.SimpleOnly {
		return nil, "", &validate.Error{
			Reason:  validate.ReasonTooComplex,
			Message: "command requires planning but only simple commands are enabled",
		}
	}

	if pl.Memory != nil && pl.ContextLimit > 0 && len(cmd.Context) == 0 {
		recent, err := pl.Memory.Recent(cmd.SessionID, pl.ContextLimit)
		if err != nil {
			log.Printf("Failed to load conversation context: %v", err)
		} else {
			cmd.Context = recent
		}
	}

	p, err := pl.Planner.Generate(ctx, *cmd)
	if err != nil {
		return nil, "", err
	}
	return p, "model", nil
}

func (pl *Pipeline) askConfirmation(ctx context.Context, cmd plan.Command, p *plan.Plan) (bool, error) {
	observability.SetStatus(observability.StageConfirming, cmd.Text)
	defer observability.SetStatus(observability.StageExecuting, cmd.Text)

	if pl.Confirm == nil {
		// No gate wired means nobody can approve. Fail closed.
		return false, nil
	}
	approved, err := pl.Confirm.Ask(ctx, cmd, p)
	if pl.Events != nil && err == nil {
		pl.Events.LogConfirmation(cmd.SessionID, approved)
	}
	return approved, err
}

func (pl *Pipeline) record(cmd plan.Command, p *plan.Plan, results []plan.ExecutionResult, out Outcome) {
	if pl.Memory == nil {
		return
	}
	success := out.Status == StatusCompleted || out.Status == StatusClarify
	if err := pl.Memory.Record(cmd, p, results, string(out.Status), success); err != nil {
		log.Printf("Failed to record conversation: %v", err)
		return
	}
	if n, err := pl.Memory.Count(); err == nil {
		observability.SetMemoryCount(n)
	}
}
