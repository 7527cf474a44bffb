package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rahul/max/internal/plan"
)

var feedbackMap = map[string]string{
	"open_app":           "Opened.",
	"close_app":          "Closed.",
	"open_browser":       "Opened browser.",
	"navigate":           "Navigated.",
	"system_volume":      "Volume adjusted.",
	"system_brightness":  "Brightness adjusted.",
	"system_sleep":       "System sleeping.",
	"system_lock":        "Screen locked.",
	"system_shutdown":    "Shutdown scheduled.",
	"system_restart":     "Restart scheduled.",
	"system_wifi":        "WiFi toggled.",
	"system_bluetooth":   "Bluetooth toggled.",
	"system_screensaver": "Screensaver toggled.",
	"system_mute":        "Audio muted.",
	"system_unmute":      "Audio unmuted.",
	"file_create":        "File created.",
	"file_delete":        "File deleted.",
	"file_move":          "File moved.",
	"install_software":   "Installation completed.",
	"search_web":         "Search finished.",
	"read_screen":        "Page read.",
	"summarize_screen":   "Page summarized.",
}

// Feedback builds a short spoken-style summary from the executed
// action types. One action gets its specific phrase; several get a
// deduplicated joined summary.
func Feedback(results []plan.ExecutionResult) string {
	seen := make(map[string]bool)
	var actions []string
	for _, r := range results {
		if r.ActionType == "" || seen[r.ActionType] {
			continue
		}
		seen[r.ActionType] = true
		actions = append(actions, r.ActionType)
	}
	if len(actions) == 0 {
		return "Done."
	}
	if len(actions) == 1 {
		if msg, ok := feedbackMap[actions[0]]; ok {
			return msg
		}
		return "Done."
	}

	sort.Strings(actions)
	var responses []string
	used := make(map[string]bool)
	for _, a := range actions {
		msg, ok := feedbackMap[a]
		if !ok || used[msg] {
			continue
		}
		used[msg] = true
		responses = append(responses, msg)
	}
	if len(responses) == 0 {
		return "Done."
	}
	return strings.Join(responses, " ")
}

// FormatConfirmation renders a dangerous plan for the user to approve.
// Gateways send this verbatim and wait for a yes or no.
func FormatConfirmation(p *plan.Plan) string {
	var b strings.Builder
	b.WriteString("The following actions require your approval:\n")
	for _, a := range p.Actions {
		if a.Risk != plan.RiskDangerous {
			continue
		}
		b.WriteString("  - " + describeAction(a) + "\n")
	}
	b.WriteString("\nDo you want to proceed?")
	return b.String()
}

func describeAction(a plan.Action) string {
	str := func(key, def string) string {
		if v, ok := a.Parameters[key].(string); ok && v != "" {
			return v
		}
		return def
	}
	switch a.Type {
	case "file_delete":
		return "Delete file: " + str("path", "unknown")
	case "file_move":
		return fmt.Sprintf("Move file from %s to %s", str("source", "?"), str("destination", "?"))
	case "install_software":
		return fmt.Sprintf("Install: %s via %s", str("name", "unknown"), str("method", "unknown"))
	case "system_shutdown":
		return "Shut down the system"
	case "system_restart":
		return "Restart the system"
	case "system_sleep":
		return "Put the system to sleep"
	case "press_key":
		return "Press key: " + str("key", "?")
	default:
		return fmt.Sprintf("%s: %v", a.Type, a.Parameters)
	}
}
