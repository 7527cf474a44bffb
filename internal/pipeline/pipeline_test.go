package pipeline

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rahul/max/internal/dispatch"
	"github.com/rahul/max/internal/observability"
	"github.com/rahul/max/internal/plan"
	"github.com/rahul/max/internal/rules"
	"github.com/rahul/max/internal/safety"
	"github.com/rahul/max/internal/validate"
)

type fakePlanner struct {
	plan  *plan.Plan
	err   error
	calls int
}

func (f *fakePlanner) Generate(ctx context.Context, cmd plan.Command) (*plan.Plan, error) {
	f.calls++
	return f.plan, f.err
}

type fakeConfirmer struct {
	answer bool
	asked  int
}

func (f *fakeConfirmer) Ask(ctx context.Context, cmd plan.Command, p *plan.Plan) (bool, error) {
	f.asked++
	return f.answer, nil
}

type fakeMemory struct {
	mu       sync.Mutex
	outcomes []string
}

func (f *fakeMemory) Record(cmd plan.Command, p *plan.Plan, results []plan.ExecutionResult, outcome string, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

func (f *fakeMemory) Recent(sessionID string, n int) ([]plan.Exchange, error) {
	return nil, nil
}

func (f *fakeMemory) Count() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outcomes), nil
}

// executedTypes records every dispatched action type.
type recorder struct {
	mu    sync.Mutex
	types []string
}

func newTestPipeline(t *testing.T, planner Planner) (*Pipeline, *recorder, *fakeMemory) {
	t.Helper()
	catalog := plan.DefaultCatalog()

	rec := &recorder{}
	registry := dispatch.NewRegistry()
	for _, at := range catalog.Types() {
		at := at
		registry.RegisterFunc(at, func(ctx context.Context, params plan.Params) (string, map[string]any, error) {
			rec.mu.Lock()
			rec.types = append(rec.types, at)
			rec.mu.Unlock()
			return "ok", nil, nil
		})
	}

	mem := &fakeMemory{}
	pl := New()
	pl.Rules = rules.NewMatcher()
	pl.Planner = planner
	pl.Validator = validate.NewValidator(catalog, 10, false)
	pl.Safety = safety.NewClassifier(catalog, safety.NewPathGuard(nil), 3600)
	pl.Dispatcher = dispatch.NewDispatcher(registry)
	pl.Memory = mem
	pl.ConfirmDangerous = true
	return pl, rec, mem
}

func TestRuleMatchBypassesPlanner(t *testing.T) {
	planner := &fakePlanner{}
	pl, rec, _ := newTestPipeline(t, planner)

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "mute the audio"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if out.Status != StatusCompleted {
		t.Fatalf("Status = %s, want completed", out.Status)
	}
	if planner.calls != 0 {
		t.Errorf("Planner called %d times for a rule-matched command, want 0", planner.calls)
	}
	if len(rec.types) != 1 || rec.types[0] != "system_mute" {
		t.Errorf("Dispatched %v, want [system_mute]", rec.types)
	}
	if out.Feedback != "Audio muted." {
		t.Errorf("Feedback = %q", out.Feedback)
	}
}

func TestSimpleOnlyRejectsUnmatchedBeforePlanner(t *testing.T) {
	planner := &fakePlanner{plan: plan.Single("open_browser", plan.Params{"url": "https://youtube.com"})}
	pl, rec, mem := newTestPipeline(t, planner)
	pl.SimpleOnly = true

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "open chrome and go to youtube"})
	if out.Status != StatusRejected {
		t.Fatalf("Status = %s, want rejected", out.Status)
	}
	var verr *validate.Error
	if !errors.As(err, &verr) || verr.Reason != validate.ReasonTooComplex {
		t.Errorf("Expected a too-complex validation error, got %v", err)
	}
	if planner.calls != 0 {
		t.Errorf("Planner must not be consulted in simple-only mode, got %d calls", planner.calls)
	}
	if len(rec.types) != 0 {
		t.Errorf("Nothing should be dispatched, got %v", rec.types)
	}
	if len(mem.outcomes) != 1 || mem.outcomes[0] != "rejected" {
		t.Errorf("Outcomes = %v, want [rejected]", mem.outcomes)
	}
}

func TestClarifyPlanReturnsQuestion(t *testing.T) {
	planner := &fakePlanner{plan: plan.Clarify("Which file did you mean?")}
	pl, rec, mem := newTestPipeline(t, planner)

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "delete it"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if out.Status != StatusClarify {
		t.Fatalf("Status = %s, want clarify", out.Status)
	}
	if out.Feedback != "Which file did you mean?" {
		t.Errorf("Feedback = %q", out.Feedback)
	}
	if len(rec.types) != 0 {
		t.Errorf("Clarify must not dispatch, got %v", rec.types)
	}
	if len(mem.outcomes) != 1 || mem.outcomes[0] != "clarify" {
		t.Errorf("Outcomes = %v, want [clarify]", mem.outcomes)
	}
}

func TestDangerousPlanApproved(t *testing.T) {
	target := filepath.Join(t.TempDir(), "scratch.txt")
	planner := &fakePlanner{plan: plan.Single("file_delete", plan.Params{"path": target})}
	pl, rec, _ := newTestPipeline(t, planner)
	confirm := &fakeConfirmer{answer: true}
	pl.Confirm = confirm

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "delete my scratch file"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if out.Status != StatusCompleted {
		t.Fatalf("Status = %s, want completed", out.Status)
	}
	if confirm.asked != 1 {
		t.Errorf("Confirmer asked %d times, want 1", confirm.asked)
	}
	if len(rec.types) != 1 || rec.types[0] != "file_delete" {
		t.Errorf("Dispatched %v, want [file_delete]", rec.types)
	}
}

func TestDangerousPlanDenied(t *testing.T) {
	target := filepath.Join(t.TempDir(), "scratch.txt")
	planner := &fakePlanner{plan: plan.Single("file_delete", plan.Params{"path": target})}
	pl, rec, mem := newTestPipeline(t, planner)
	pl.Confirm = &fakeConfirmer{answer: false}

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "delete my scratch file"})
	if !errors.Is(err, ErrUserDenied) {
		t.Fatalf("Expected ErrUserDenied, got %v", err)
	}
	if out.Status != StatusDenied {
		t.Fatalf("Status = %s, want denied", out.Status)
	}
	if len(rec.types) != 0 {
		t.Errorf("Denied plan must not dispatch, got %v", rec.types)
	}
	if len(mem.outcomes) != 1 || mem.outcomes[0] != "denied" {
		t.Errorf("Outcomes = %v, want [denied]", mem.outcomes)
	}
}

func TestDangerousWithoutConfirmerFailsClosed(t *testing.T) {
	target := filepath.Join(t.TempDir(), "scratch.txt")
	planner := &fakePlanner{plan: plan.Single("file_delete", plan.Params{"path": target})}
	pl, rec, _ := newTestPipeline(t, planner)
	pl.Confirm = nil

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "delete my scratch file"})
	if !errors.Is(err, ErrUserDenied) {
		t.Fatalf("Expected ErrUserDenied, got %v", err)
	}
	if out.Status != StatusDenied || len(rec.types) != 0 {
		t.Errorf("Dangerous plan with no confirmer must not dispatch (status %s, dispatched %v)", out.Status, rec.types)
	}
}

func TestBlockedPlanNeverDispatches(t *testing.T) {
	planner := &fakePlanner{plan: plan.Single("file_delete", plan.Params{"path": "/"})}
	pl, rec, mem := newTestPipeline(t, planner)

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "delete everything"})
	var blocked *safety.BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("Expected BlockedError, got %v", err)
	}
	if out.Status != StatusBlocked {
		t.Fatalf("Status = %s, want blocked", out.Status)
	}
	if len(rec.types) != 0 {
		t.Errorf("Blocked plan must not dispatch, got %v", rec.types)
	}
	if len(mem.outcomes) != 1 || mem.outcomes[0] != "blocked" {
		t.Errorf("Outcomes = %v, want [blocked]", mem.outcomes)
	}
}

func TestMalformedPlanRejected(t *testing.T) {
	planner := &fakePlanner{err: plan.ErrMalformedPlan}
	pl, _, mem := newTestPipeline(t, planner)

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "do the thing"})
	if !errors.Is(err, plan.ErrMalformedPlan) {
		t.Fatalf("Expected ErrMalformedPlan, got %v", err)
	}
	if out.Status != StatusRejected {
		t.Fatalf("Status = %s, want rejected", out.Status)
	}
	if len(mem.outcomes) != 1 || mem.outcomes[0] != "rejected" {
		t.Errorf("Outcomes = %v, want [rejected]", mem.outcomes)
	}
}

func TestPartialOutcome(t *testing.T) {
	p := &plan.Plan{
		TaskType: plan.TaskMultiStep,
		Actions: []plan.Action{
			{Type: "open_app", Parameters: plan.Params{"name": "editor"}},
			{Type: "type_text", Parameters: plan.Params{"text": "hello"}},
		},
	}
	planner := &fakePlanner{plan: p}
	pl, _, _ := newTestPipeline(t, planner)

	// Replace one handler with a failing one.
	registry := dispatch.NewRegistry()
	registry.RegisterFunc("open_app", func(ctx context.Context, params plan.Params) (string, map[string]any, error) {
		return "", nil, errors.New("no such application")
	})
	registry.RegisterFunc("type_text", func(ctx context.Context, params plan.Params) (string, map[string]any, error) {
		return "typed", nil, nil
	})
	pl.Dispatcher = dispatch.NewDispatcher(registry)

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "open editor and type hello"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if out.Status != StatusPartial {
		t.Fatalf("Status = %s, want partial", out.Status)
	}
	if out.Feedback != "Completed with 1 error(s)." {
		t.Errorf("Feedback = %q", out.Feedback)
	}
	if len(out.Results) != 2 {
		t.Errorf("Expected both results recorded, got %d", len(out.Results))
	}
}

func TestDispatchEventAndMemoryCount(t *testing.T) {
	planner := &fakePlanner{plan: plan.Single("open_app", plan.Params{"name": "calculator"})}
	pl, _, mem := newTestPipeline(t, planner)

	var buf bytes.Buffer
	pl.Events = observability.NewLoggerTo(&buf)
	observability.SetMemoryCount(0)

	out, err := pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "open the calculator"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if out.Status != StatusCompleted {
		t.Fatalf("Status = %s, want completed", out.Status)
	}

	logged := buf.String()
	if !strings.Contains(logged, `"type":"dispatch"`) {
		t.Errorf("A dispatched plan must emit a dispatch event, got:\n%s", logged)
	}
	if !strings.Contains(logged, `"actions":1`) {
		t.Errorf("Dispatch event should carry the action count, got:\n%s", logged)
	}

	if n, _ := mem.Count(); n != 1 {
		t.Fatalf("Memory count = %d, want 1", n)
	}
	if got := observability.MemoryCount(); got != 1 {
		t.Errorf("Dashboard memory count = %d, want 1", got)
	}

	// Rejected runs are recorded too but never dispatched.
	buf.Reset()
	pl.Planner = &fakePlanner{err: plan.ErrMalformedPlan}
	pl.Handle(context.Background(), plan.Command{SessionID: "s", Text: "garbage"})
	if strings.Contains(buf.String(), `"type":"dispatch"`) {
		t.Errorf("Rejected plans must not emit dispatch events")
	}
	if got := observability.MemoryCount(); got != 2 {
		t.Errorf("Dashboard memory count = %d, want 2", got)
	}
}

func TestFeedbackSummaries(t *testing.T) {
	cases := []struct {
		name    string
		results []plan.ExecutionResult
		want    string
	}{
		{"empty", nil, "Done."},
		{"single known", []plan.ExecutionResult{{ActionType: "system_lock"}}, "Screen locked."},
		{"single unknown", []plan.ExecutionResult{{ActionType: "wait"}}, "Done."},
		{"multi dedup", []plan.ExecutionResult{
			{ActionType: "open_browser"},
			{ActionType: "navigate"},
			{ActionType: "navigate"},
		}, "Navigated. Opened browser."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Feedback(tc.results); got != tc.want {
				t.Errorf("Feedback = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatConfirmationListsDangerousOnly(t *testing.T) {
	p := &plan.Plan{
		TaskType: plan.TaskMultiStep,
		Actions: []plan.Action{
			{Type: "open_app", Parameters: plan.Params{"name": "files"}, Risk: plan.RiskSafe},
			{Type: "file_delete", Parameters: plan.Params{"path": "/tmp/x"}, Risk: plan.RiskDangerous},
		},
	}
	msg := FormatConfirmation(p)
	if want := "Delete file: /tmp/x"; !strings.Contains(msg, want) {
		t.Errorf("Message %q missing %q", msg, want)
	}
	if strings.Contains(msg, "open_app") {
		t.Errorf("Safe actions must not be listed: %q", msg)
	}
}
