// Package safety attaches risk labels to actions and rewrites unsafe
// parameter values before anything reaches the dispatcher.
package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rahul/max/internal/plan"
)

// BlockedError rejects the whole plan when any action is blocked.
// Partial plans with blocked actions silently dropped are not allowed.
type BlockedError struct {
	Index      int
	ActionType string
	Reason     string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("action %d (%s) blocked: %s", e.Index+1, e.ActionType, e.Reason)
}

// Classifier performs risk classification and parameter sanitization.
// Read-only after construction; safe for concurrent sessions.
type Classifier struct {
	Catalog       *plan.Catalog
	Paths         *PathGuard
	MaxPowerDelay float64 // seconds; delays above this are clamped

	// Policy, when set, can veto actions beyond the built-in rules.
	Policy *Policy
}

func NewClassifier(catalog *plan.Catalog, paths *PathGuard, maxPowerDelay float64) *Classifier {
	if maxPowerDelay <= 0 {
		maxPowerDelay = 3600
	}
	return &Classifier{Catalog: catalog, Paths: paths, MaxPowerDelay: maxPowerDelay}
}

var packageIDRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.+-]*$`)
var shellMetaRe = regexp.MustCompile("[;|&$`<>\n]")

var connectivityActions = map[string]bool{"on": true, "off": true, "toggle": true}

var dangerousKeyCombos = map[string]bool{
	"alt+f4":            true,
	"ctrl+alt+delete":   true,
	"ctrl+shift+delete": true,
	"super+l":           true,
}

var blockedURLSchemes = []string{"javascript:", "data:", "file:"}

// ClassifyAndSanitize labels every action, rewrites parameters per the
// sanitization rules, and returns the plan's highest risk label. A
// plan containing any blocked action fails atomically with a
// BlockedError. The operation is idempotent: applying it twice yields
// the same plan.
func (c *Classifier) ClassifyAndSanitize(p *plan.Plan) (plan.RiskLabel, error) {
	var firstBlocked *BlockedError

	for i := range p.Actions {
		a := &p.Actions[i]
		risk, reason := c.sanitizeAction(a)
		a.Risk = risk
		if risk == plan.RiskBlocked && firstBlocked == nil {
			firstBlocked = &BlockedError{Index: i, ActionType: a.Type, Reason: reason}
		}
	}

	highest := p.HighestRisk()
	if firstBlocked != nil {
		return highest, firstBlocked
	}
	return highest, nil
}

// sanitizeAction applies the per-type rules and returns the label plus
// a human-readable reason when the action is blocked.
func (c *Classifier) sanitizeAction(a *plan.Action) (plan.RiskLabel, string) {
	// Unknown types should be impossible past validation; treat them
	// as blocked rather than guessing.
	if !c.Catalog.Has(a.Type) {
		return plan.RiskBlocked, fmt.Sprintf("unregistered action type %q", a.Type)
	}

	if reason := c.Policy.Evaluate(a.Type, a.Parameters); reason != "" {
		return plan.RiskBlocked, reason
	}

	risk := plan.RiskSafe

	switch a.Type {
	case "file_delete", "file_move", "file_create":
		for _, key := range []string{"path", "source", "destination"} {
			raw, ok := a.Parameters[key].(string)
			if !ok {
				continue
			}
			switch c.Paths.Check(raw) {
			case VerdictBlocked:
				return plan.RiskBlocked, fmt.Sprintf("%s resolves to a protected location: %s", key, raw)
			case VerdictDangerous:
				risk = plan.RiskDangerous
			}
			a.Parameters[key] = c.Paths.Canonical(raw)
		}

	case "install_software":
		if pkg, ok := a.Parameters["package_id"].(string); ok && pkg != "" {
			if !packageIDRe.MatchString(pkg) {
				a.Parameters["package_id"] = shellMetaRe.ReplaceAllString(pkg, "")
			}
		}
		if name, ok := a.Parameters["name"].(string); ok {
			a.Parameters["name"] = shellMetaRe.ReplaceAllString(name, "")
		}

	case "system_shutdown", "system_restart", "system_sleep":
		if delay, ok := numberParam(a.Parameters, "delay"); ok && delay > c.MaxPowerDelay {
			a.Parameters["delay"] = c.MaxPowerDelay
		}

	case "system_wifi", "system_bluetooth", "system_screensaver":
		act, _ := a.Parameters["action"].(string)
		if !connectivityActions[strings.ToLower(act)] {
			return plan.RiskBlocked, fmt.Sprintf("unrecognized toggle action %q", act)
		}
		a.Parameters["action"] = strings.ToLower(act)

	case "navigate":
		url, _ := a.Parameters["url"].(string)
		if reason, blocked := checkURL(url); blocked {
			return plan.RiskBlocked, reason
		}

	case "press_key":
		key, _ := a.Parameters["key"].(string)
		normalized := strings.ToLower(strings.ReplaceAll(key, " ", ""))
		if dangerousKeyCombos[normalized] {
			risk = plan.RiskDangerous
		}
	}

	if plan.DangerousActions[a.Type] {
		risk = plan.RiskDangerous
	}
	return risk, ""
}

func checkURL(url string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(url))
	for _, scheme := range blockedURLSchemes {
		if strings.HasPrefix(trimmed, scheme) {
			return fmt.Sprintf("blocked URL scheme in %q", url), true
		}
	}
	if i := strings.Index(trimmed, "://"); i >= 0 {
		if scheme := trimmed[:i]; scheme != "http" && scheme != "https" {
			return fmt.Sprintf("unsupported URL scheme %q", scheme), true
		}
	}
	return "", false
}

func numberParam(params plan.Params, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
