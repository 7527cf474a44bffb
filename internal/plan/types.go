package plan

import "time"

// TaskType describes the overall shape of a plan.
type TaskType string

const (
	TaskSingleStep TaskType = "single_step"
	TaskMultiStep  TaskType = "multi_step"
	TaskClarify    TaskType = "clarify"
)

// RiskLabel is the safety classification attached to an action.
type RiskLabel string

const (
	RiskSafe      RiskLabel = "safe"
	RiskDangerous RiskLabel = "dangerous"
	RiskBlocked   RiskLabel = "blocked"
)

// Params is a flat mapping of parameter name to a primitive value
// (string, number, or boolean). Actions never carry executable code.
type Params map[string]any

// Action is a single typed operation executed by a registered handler.
type Action struct {
	Type       string `json:"type"`
	Parameters Params `json:"parameters"`

	// Risk is attached by the safety classifier, not by the model.
	Risk RiskLabel `json:"-"`
}

// Plan is a structured, bounded sequence of typed actions derived from
// one user command. A clarify plan carries zero actions and a question.
type Plan struct {
	TaskType             TaskType `json:"task_type"`
	RequiresConfirmation bool     `json:"requires_confirmation"`
	Actions              []Action `json:"actions"`
	Question             string   `json:"question,omitempty"`
}

// Exchange is one prior command/plan pair, injected into the provider
// prompt for context.
type Exchange struct {
	UserText string
	PlanJSON string
}

// Command is one raw user utterance. Immutable once received.
type Command struct {
	SessionID string
	Text      string
	Context   []Exchange // most-recent-first, bounded by config
}

// ExecutionResult is the per-action outcome produced by the dispatcher.
type ExecutionResult struct {
	ActionIndex int            `json:"action_index"`
	ActionType  string         `json:"action_type"`
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Payload     map[string]any `json:"payload,omitempty"`
	Elapsed     time.Duration  `json:"elapsed"`
	Skipped     bool           `json:"skipped,omitempty"`
}

// HighestRisk returns the most severe label among the plan's actions.
func (p *Plan) HighestRisk() RiskLabel {
	highest := RiskSafe
	for _, a := range p.Actions {
		switch a.Risk {
		case RiskBlocked:
			return RiskBlocked
		case RiskDangerous:
			highest = RiskDangerous
		}
	}
	return highest
}

// IsPrimitive reports whether v is an allowed parameter value. JSON
// decoding yields float64 for all numbers; int variants are accepted
// for plans built in code (rule matcher, tests).
func IsPrimitive(v any) bool {
	switch v.(type) {
	case string, bool, float64, float32, int, int64:
		return true
	}
	return false
}
