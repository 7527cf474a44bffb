package rules

import (
	"testing"

	"github.com/rahul/max/internal/plan"
)

func TestMatcher_MuteTheAudio(t *testing.T) {
	m := NewMatcher()
	p := m.Match("mute the audio")
	if p == nil {
		t.Fatal("Expected a rule match")
	}
	if p.TaskType != plan.TaskSingleStep {
		t.Errorf("Expected single_step, got %s", p.TaskType)
	}
	if len(p.Actions) != 1 || p.Actions[0].Type != "system_mute" {
		t.Errorf("Expected one system_mute action, got %+v", p.Actions)
	}
}

func TestMatcher_FillerAndCase(t *testing.T) {
	m := NewMatcher()
	cases := map[string]string{
		"Please mute the audio":   "system_mute",
		"OPEN CHROME":             "open_browser",
		"open the calculator":     "open_app",
		"Lock the screen please":  "system_lock",
		"turn the wifi off":       "system_wifi",
		"set the volume to 50":    "system_volume",
		"brightness 75%":          "system_brightness",
		"shut down in 30 seconds": "system_shutdown",
	}
	for text, want := range cases {
		p := m.Match(text)
		if p == nil {
			t.Errorf("No match for %q", text)
			continue
		}
		if p.Actions[0].Type != want {
			t.Errorf("%q matched %s, want %s", text, p.Actions[0].Type, want)
		}
	}
}

func TestMatcher_ParameterExtraction(t *testing.T) {
	m := NewMatcher()

	p := m.Match("set volume to 80")
	if p == nil {
		t.Fatal("No match for volume command")
	}
	if lvl, _ := p.Actions[0].Parameters["level"].(int); lvl != 80 {
		t.Errorf("Expected level=80, got %v", p.Actions[0].Parameters["level"])
	}

	p = m.Match("restart in 120 seconds")
	if p == nil {
		t.Fatal("No match for restart command")
	}
	if d, _ := p.Actions[0].Parameters["delay"].(int); d != 120 {
		t.Errorf("Expected delay=120, got %v", p.Actions[0].Parameters["delay"])
	}

	p = m.Match("shutdown")
	if p == nil {
		t.Fatal("No match for bare shutdown")
	}
	if d, _ := p.Actions[0].Parameters["delay"].(int); d != 60 {
		t.Errorf("Expected default delay=60, got %v", p.Actions[0].Parameters["delay"])
	}
}

func TestMatcher_NoMatch(t *testing.T) {
	m := NewMatcher()
	for _, text := range []string{
		"open chrome and go to youtube",
		"write a poem about rain",
		"delete C:\\important.txt",
		"",
	} {
		if p := m.Match(text); p != nil {
			t.Errorf("Expected no match for %q, got %+v", text, p)
		}
	}
}

func TestMatcher_CatalogMembership(t *testing.T) {
	m := NewMatcher()
	c := plan.DefaultCatalog()
	for _, text := range []string{
		"open chrome", "open firefox", "mute", "unmute", "volume 10",
		"brightness 10", "lock", "sleep", "shutdown", "restart",
		"wifi on", "toggle bluetooth", "open settings",
	} {
		p := m.Match(text)
		if p == nil {
			t.Errorf("No match for %q", text)
			continue
		}
		for _, a := range p.Actions {
			if !c.Has(a.Type) {
				t.Errorf("Rule for %q emits uncataloged action %s", text, a.Type)
			}
		}
	}
}
