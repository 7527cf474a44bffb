// Package validate performs structural and complexity analysis of
// candidate plans before they reach the safety classifier.
package validate

import (
	"fmt"
	"strings"

	"github.com/rahul/max/internal/plan"
)

// Reason is the structured rejection code surfaced to the user.
type Reason string

const (
	ReasonSchemaInvalid  Reason = "SchemaInvalid"
	ReasonTooManyActions Reason = "TooManyActions"
	ReasonTooComplex     Reason = "TooComplex"
)

// Error is a validator rejection. The plan is never dispatched.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Result is the full outcome of validating one plan.
type Result struct {
	OK         bool
	Err        *Error
	Complexity int
	Concerns   []string
}

// Validator checks plans against the catalog and the configured
// limits. Read-only after construction.
type Validator struct {
	Catalog    *plan.Catalog
	MaxActions int

	// RejectComplex refuses any plan that scores above complexity 0.
	RejectComplex bool
}

func NewValidator(catalog *plan.Catalog, maxActions int, rejectComplex bool) *Validator {
	if maxActions <= 0 {
		maxActions = 10
	}
	return &Validator{Catalog: catalog, MaxActions: maxActions, RejectComplex: rejectComplex}
}

// Validate runs the full check sequence: required fields, task type,
// catalog membership, flat primitive parameters, action count, then
// complexity scoring. Order matters — the first failure is reported.
func (v *Validator) Validate(p *plan.Plan) Result {
	if p == nil {
		return fail(ReasonSchemaInvalid, "plan is missing")
	}

	switch p.TaskType {
	case plan.TaskSingleStep, plan.TaskMultiStep:
	case plan.TaskClarify:
		// Clarify plans carry no actions and bypass complexity checks.
		if len(p.Actions) != 0 {
			return fail(ReasonSchemaInvalid, "clarify plan must carry no actions")
		}
		return Result{OK: true}
	default:
		return fail(ReasonSchemaInvalid, fmt.Sprintf("invalid task_type: %q", p.TaskType))
	}

	if len(p.Actions) == 0 {
		return fail(ReasonSchemaInvalid, "actions list cannot be empty")
	}

	for i, a := range p.Actions {
		if !v.Catalog.Has(a.Type) {
			return fail(ReasonSchemaInvalid, fmt.Sprintf("action %d has invalid type: %q", i, a.Type))
		}
		schema, _ := v.Catalog.SchemaFor(a.Type)
		for key, val := range a.Parameters {
			// Nested structures and non-primitive values are rejected
			// outright — they are the usual vehicle for smuggling
			// executable-shaped payloads past the action contract.
			if !plan.IsPrimitive(val) {
				return fail(ReasonSchemaInvalid,
					fmt.Sprintf("action %d parameter %q is not a primitive value", i, key))
			}
			if kind, declared := schema[key]; declared && !kind.Matches(val) {
				return fail(ReasonSchemaInvalid,
					fmt.Sprintf("action %d parameter %q must be a %s", i, key, kind))
			}
		}
	}

	if len(p.Actions) > v.MaxActions {
		return fail(ReasonTooManyActions,
			fmt.Sprintf("plan has %d actions, maximum is %d", len(p.Actions), v.MaxActions))
	}

	complexity, concerns := scoreComplexity(p)

	if v.RejectComplex && complexity > 0 {
		return Result{
			OK: false,
			Err: &Error{Reason: ReasonTooComplex,
				Message: "complex plans are rejected by configuration"},
			Complexity: complexity,
			Concerns:   concerns,
		}
	}

	return Result{OK: true, Complexity: complexity, Concerns: concerns}
}

// scoreComplexity assigns 0 (single safe action), 1 (2-4 actions, none
// dangerous) or 2 (5+ actions, any dangerous action, or loop and
// conditional markers), with a concern string for each contribution.
func scoreComplexity(p *plan.Plan) (int, []string) {
	var concerns []string
	score := 0

	if len(p.Actions) > 1 {
		concerns = append(concerns, fmt.Sprintf("Multiple actions (%d)", len(p.Actions)))
		score = 1
	}
	if len(p.Actions) >= 5 {
		score = 2
	}

	dangerous := 0
	waits := 0
	for _, a := range p.Actions {
		if plan.DangerousActions[a.Type] {
			dangerous++
		}
		if a.Type == "wait" {
			waits++
		}
	}
	if dangerous > 0 {
		concerns = append(concerns, fmt.Sprintf("Contains %d dangerous action(s)", dangerous))
		score = 2
	}

	// A plan mixing waits with several other actions reads like a
	// disguised polling loop.
	if waits > 0 && len(p.Actions)-waits >= 3 {
		concerns = append(concerns, "Long sequence with waits (potential loop)")
		score = 2
	}

	if hasConditionalMarkers(p) {
		concerns = append(concerns, "Contains conditional logic")
		score = 2
	}

	return score, concerns
}

func hasConditionalMarkers(p *plan.Plan) bool {
	for _, a := range p.Actions {
		for _, v := range a.Parameters {
			s, ok := v.(string)
			if !ok {
				continue
			}
			ls := strings.ToLower(s)
			if strings.Contains(ls, "if ") && strings.Contains(ls, " else") {
				return true
			}
		}
	}
	return false
}

func fail(reason Reason, msg string) Result {
	return Result{OK: false, Err: &Error{Reason: reason, Message: msg}}
}
