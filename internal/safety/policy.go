package safety

import (
	"fmt"
	"regexp"
)

// Policy is an operator-supplied veto layer on top of the built-in
// classification rules: whole action types can be denied, and regex
// patterns reject any action whose string parameters match. Built once
// at startup, read-only afterwards.
type Policy struct {
	deniedActions  map[string]bool
	deniedPatterns []*regexp.Regexp
}

func NewPolicy() *Policy {
	return &Policy{deniedActions: make(map[string]bool)}
}

func (p *Policy) DenyAction(actionType string) {
	p.deniedActions[actionType] = true
}

func (p *Policy) DenyPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	p.deniedPatterns = append(p.deniedPatterns, re)
	return nil
}

// Evaluate returns a non-empty reason when the action is denied.
func (p *Policy) Evaluate(actionType string, params map[string]any) string {
	if p == nil {
		return ""
	}
	if p.deniedActions[actionType] {
		return fmt.Sprintf("action type %q is restricted by policy", actionType)
	}
	for key, v := range params {
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, re := range p.deniedPatterns {
			if re.MatchString(s) {
				return fmt.Sprintf("parameter %q matches restricted pattern %s", key, re.String())
			}
		}
	}
	return ""
}
