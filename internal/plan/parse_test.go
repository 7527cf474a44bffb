package plan

import (
	"errors"
	"testing"
)

func TestParse_CleanJSON(t *testing.T) {
	raw := `{"task_type":"single_step","requires_confirmation":false,"actions":[{"type":"open_app","parameters":{"name":"notepad"}}]}`
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.TaskType != TaskSingleStep {
		t.Errorf("Expected single_step, got %s", p.TaskType)
	}
	if len(p.Actions) != 1 || p.Actions[0].Type != "open_app" {
		t.Errorf("Unexpected actions: %+v", p.Actions)
	}
	if name, _ := p.Actions[0].Parameters["name"].(string); name != "notepad" {
		t.Errorf("Expected name=notepad, got %v", p.Actions[0].Parameters["name"])
	}
}

func TestParse_FencedWithCommentary(t *testing.T) {
	raw := "Sure, here is the plan:\n```json\n{\"task_type\":\"single_step\",\"actions\":[{\"type\":\"system_mute\",\"parameters\":{}}]}\n```\nLet me know if that works."
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Actions[0].Type != "system_mute" {
		t.Errorf("Expected system_mute, got %s", p.Actions[0].Type)
	}
}

func TestParse_ThinkBlockStripped(t *testing.T) {
	raw := "<think>the user wants to lock {braces} here</think>{\"task_type\":\"single_step\",\"actions\":[{\"type\":\"system_lock\",\"parameters\":{}}]}"
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Actions[0].Type != "system_lock" {
		t.Errorf("Expected system_lock, got %s", p.Actions[0].Type)
	}
}

func TestParse_MissingTaskTypeAutoAssigned(t *testing.T) {
	raw := `{"actions":[{"type":"open_app","parameters":{"name":"a"}},{"type":"open_app","parameters":{"name":"b"}}]}`
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.TaskType != TaskMultiStep {
		t.Errorf("Expected auto-assigned multi_step, got %s", p.TaskType)
	}
}

func TestParse_LegacyClarifyShape(t *testing.T) {
	raw := `{"task_type":"clarify","actions":[{"type":"wait","parameters":{"message":"Which file do you mean?"}}]}`
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Question != "Which file do you mean?" {
		t.Errorf("Expected question carried over, got %q", p.Question)
	}
	if len(p.Actions) != 0 {
		t.Errorf("Clarify plan must carry zero actions, got %d", len(p.Actions))
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{
		"",
		"no json here at all",
		`{"task_type":"single_step","actions":[]}`,
		`{"task_type":"single_step","actions":[{"parameters":{}}]}`,
		`{"task_type":"clarify","actions":[]}`,
		`["an","array"]`,
	}
	for _, raw := range cases {
		if _, err := Parse(raw); !errors.Is(err, ErrMalformedPlan) {
			t.Errorf("Parse(%q) expected ErrMalformedPlan, got %v", raw, err)
		}
	}
}

func TestHighestRisk(t *testing.T) {
	p := &Plan{
		TaskType: TaskMultiStep,
		Actions: []Action{
			{Type: "open_app", Risk: RiskSafe},
			{Type: "file_delete", Risk: RiskDangerous},
			{Type: "wait", Risk: RiskSafe},
		},
	}
	if p.HighestRisk() != RiskDangerous {
		t.Errorf("Expected dangerous, got %s", p.HighestRisk())
	}

	p.Actions[2].Risk = RiskBlocked
	if p.HighestRisk() != RiskBlocked {
		t.Errorf("Expected blocked, got %s", p.HighestRisk())
	}
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	for _, at := range []string{"open_app", "system_mute", "file_delete", "wait"} {
		if !c.Has(at) {
			t.Errorf("Catalog missing %s", at)
		}
	}
	if c.Has("run_shell") {
		t.Error("Catalog must not contain unregistered types")
	}

	schema, ok := c.SchemaFor("system_shutdown")
	if !ok {
		t.Fatal("No schema for system_shutdown")
	}
	if !schema["delay"].Matches(float64(60)) {
		t.Error("delay should accept numbers")
	}
	if schema["delay"].Matches("60") {
		t.Error("delay should reject strings")
	}
	if !schema["force"].Matches(true) {
		t.Error("force should accept booleans")
	}
}
