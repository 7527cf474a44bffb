package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedPlan is returned when model output cannot be parsed into
// a structurally valid Plan. It is a routing signal for the provider's
// fallback chain and for the pipeline's rejection path.
var ErrMalformedPlan = errors.New("malformed plan")

var thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Parse converts raw model text into a strict Plan. Small local models
// wrap JSON in code fences, prepend commentary, or emit reasoning
// tags; all of that is stripped before decoding. Structural problems
// return ErrMalformedPlan — the plan is never coerced into validity
// beyond the documented normalizations.
func Parse(raw string) (*Plan, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimSpace(thinkBlockRe.ReplaceAllString(cleaned, ""))
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	obj, ok := extractJSONObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in output", ErrMalformedPlan)
	}

	var p Plan
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	normalize(&p)

	if err := checkShape(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// extractJSONObject returns the substring from the first '{' to the
// last '}'. Local models frequently surround the object with prose.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// normalize repairs the deviations small models are known for without
// changing plan semantics: a missing task_type is derived from the
// action count, and the legacy clarify shape (a lone wait action with
// a message parameter) becomes a question-carrying clarify plan.
func normalize(p *Plan) {
	if p.TaskType == "" || !validTaskType(p.TaskType) {
		if len(p.Actions) > 1 {
			p.TaskType = TaskMultiStep
		} else {
			p.TaskType = TaskSingleStep
		}
	}

	for i := range p.Actions {
		if p.Actions[i].Parameters == nil {
			p.Actions[i].Parameters = Params{}
		}
	}

	if p.TaskType == TaskClarify && p.Question == "" && len(p.Actions) == 1 {
		if p.Actions[0].Type == "wait" {
			if msg, ok := p.Actions[0].Parameters["message"].(string); ok {
				p.Question = msg
			}
		}
	}
	if p.TaskType == TaskClarify {
		p.Actions = nil
	}
}

func checkShape(p *Plan) error {
	if p.TaskType == TaskClarify {
		if p.Question == "" {
			return fmt.Errorf("%w: clarify plan without a question", ErrMalformedPlan)
		}
		return nil
	}
	if len(p.Actions) == 0 {
		return fmt.Errorf("%w: empty actions list", ErrMalformedPlan)
	}
	for i, a := range p.Actions {
		if a.Type == "" {
			return fmt.Errorf("%w: action %d missing type", ErrMalformedPlan, i)
		}
	}
	return nil
}

func validTaskType(t TaskType) bool {
	switch t {
	case TaskSingleStep, TaskMultiStep, TaskClarify:
		return true
	}
	return false
}

// Clarify builds a clarify plan carrying the given question.
func Clarify(question string) *Plan {
	return &Plan{TaskType: TaskClarify, Question: question}
}

// Single builds a single_step plan with one action.
func Single(actionType string, params Params) *Plan {
	if params == nil {
		params = Params{}
	}
	return &Plan{
		TaskType: TaskSingleStep,
		Actions:  []Action{{Type: actionType, Parameters: params}},
	}
}

// ToJSON serializes a plan compactly for storage and logging.
func (p *Plan) ToJSON() string {
	data, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(data)
}
