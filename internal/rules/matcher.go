// Package rules intercepts common phrasings and converts them straight
// into action plans without invoking any model. First match wins, in
// registration order. Pure function of the input text — no I/O.
package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rahul/max/internal/plan"
)

type rule struct {
	re    *regexp.Regexp
	build func(groups []string) *plan.Plan
}

// Matcher holds the ordered rule table.
type Matcher struct {
	rules []rule
}

var fillerRe = regexp.MustCompile(`\b(?:please|kindly)\b`)
var spaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases the text and drops polite filler so patterns
// stay short. Article fillers ("the") are handled inside the patterns.
func Normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = fillerRe.ReplaceAllString(t, " ")
	t = spaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Match tries each rule in order against the normalized text and
// returns the constructed plan, or nil to defer to the plan provider.
func (m *Matcher) Match(text string) *plan.Plan {
	t := Normalize(text)
	for _, r := range m.rules {
		if groups := r.re.FindStringSubmatch(t); groups != nil {
			return r.build(groups)
		}
	}
	return nil
}

func (m *Matcher) add(pattern string, build func(groups []string) *plan.Plan) {
	m.rules = append(m.rules, rule{re: regexp.MustCompile(pattern), build: build})
}

func single(actionType string, params plan.Params) func([]string) *plan.Plan {
	return func([]string) *plan.Plan { return plan.Single(actionType, params) }
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// NewMatcher builds the default rule table.
func NewMatcher() *Matcher {
	m := &Matcher{}

	// App and browser launch.
	m.add(`^(?:open|launch|start) (?:google )?chrome(?: browser)?$`,
		single("open_browser", plan.Params{"browser": "chrome"}))
	m.add(`^(?:open|launch|start) (?:mozilla )?firefox(?: browser)?$`,
		single("open_app", plan.Params{"name": "firefox"}))
	m.add(`^(?:open|launch|start) (?:microsoft )?edge(?: browser)?$`,
		single("open_app", plan.Params{"name": "edge"}))
	m.add(`^(?:open|launch|start) (?:a )?(?:text )?editor$`,
		single("open_app", plan.Params{"name": "editor"}))
	m.add(`^(?:open|launch|start) (?:the )?(?:file )?(?:explorer|file manager|files)$`,
		single("open_app", plan.Params{"name": "files"}))
	m.add(`^(?:open|launch|start) (?:the )?(?:task )?manager$`,
		single("open_app", plan.Params{"name": "taskmgr"}))
	m.add(`^(?:open|launch|start) (?:the )?calculator$`,
		single("open_app", plan.Params{"name": "calculator"}))
	m.add(`^(?:open|launch|start) (?:the )?settings$`,
		single("open_app", plan.Params{"name": "settings"}))
	m.add(`^(?:open|launch|start) (?:the )?terminal$`,
		single("open_app", plan.Params{"name": "terminal"}))

	// Volume.
	m.add(`^(?:mute|silence)(?: (?:the )?(?:audio|sound|volume))?$`,
		single("system_mute", nil))
	m.add(`^unmute(?: (?:the )?(?:audio|sound|volume))?$`,
		single("system_unmute", nil))
	m.add(`^(?:set (?:the )?volume to|volume) (\d+)(?: ?%| percent)?$`,
		func(g []string) *plan.Plan {
			return plan.Single("system_volume", plan.Params{"level": atoiDefault(g[1], 50)})
		})

	// Brightness.
	m.add(`^(?:set (?:the )?brightness to|brightness) (\d+)(?: ?%| percent)?$`,
		func(g []string) *plan.Plan {
			return plan.Single("system_brightness", plan.Params{"level": atoiDefault(g[1], 50)})
		})

	// Power.
	m.add(`^lock(?: (?:the )?screen| up)?$`, single("system_lock", nil))
	m.add(`^(?:sleep|put (?:the )?(?:system|computer) to sleep|go to sleep)$`,
		single("system_sleep", plan.Params{"delay": 0}))
	m.add(`^(?:shutdown|shut down|power off)(?: in (\d+) (?:seconds?|secs?))?$`,
		func(g []string) *plan.Plan {
			return plan.Single("system_shutdown", plan.Params{"delay": atoiDefault(g[1], 60)})
		})
	m.add(`^(?:restart|reboot)(?: in (\d+) (?:seconds?|secs?))?$`,
		func(g []string) *plan.Plan {
			return plan.Single("system_restart", plan.Params{"delay": atoiDefault(g[1], 60)})
		})

	// Connectivity.
	m.add(`^(?:turn )?(?:the )?wifi (on|off)$`,
		func(g []string) *plan.Plan {
			return plan.Single("system_wifi", plan.Params{"action": g[1]})
		})
	m.add(`^(?:toggle|switch) (?:the )?wifi$`,
		single("system_wifi", plan.Params{"action": "toggle"}))
	m.add(`^(?:turn )?(?:the )?bluetooth (on|off)$`,
		func(g []string) *plan.Plan {
			return plan.Single("system_bluetooth", plan.Params{"action": g[1]})
		})
	m.add(`^(?:toggle|switch) (?:the )?bluetooth$`,
		single("system_bluetooth", plan.Params{"action": "toggle"}))

	return m
}
