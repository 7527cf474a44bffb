package store

import (
	"path/filepath"
	"testing"

	"github.com/rahul/max/internal/plan"
)

func openStore(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := NewHistoryStore(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordAndRecent(t *testing.T) {
	h := openStore(t)

	for i, text := range []string{"open calculator", "mute the audio", "lock the screen"} {
		cmd := plan.Command{SessionID: "s1", Text: text}
		p := plan.Single("system_mute", nil)
		err := h.Record(cmd, p, []plan.ExecutionResult{{ActionType: "system_mute", Success: true}}, "completed", true)
		if err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}
	// A different session must not leak in.
	h.Record(plan.Command{SessionID: "s2", Text: "other"}, nil, nil, "rejected", false)

	recent, err := h.Recent("s1", 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 exchanges, got %d", len(recent))
	}
	if recent[0].UserText != "lock the screen" {
		t.Errorf("Recent must be most-recent-first, got %q", recent[0].UserText)
	}
	if recent[0].PlanJSON == "" {
		t.Error("Plan JSON should be stored")
	}
}

func TestRecordWithoutPlan(t *testing.T) {
	h := openStore(t)
	err := h.Record(plan.Command{SessionID: "s1", Text: "gibberish"}, nil, nil, "rejected", false)
	if err != nil {
		t.Fatalf("Record without plan failed: %v", err)
	}

	count, err := h.Count()
	if err != nil || count != 1 {
		t.Errorf("Count = %d (%v), want 1", count, err)
	}
}

func TestPrune(t *testing.T) {
	h := openStore(t)
	for i := 0; i < 10; i++ {
		h.Record(plan.Command{SessionID: "s1", Text: "cmd"}, nil, nil, "completed", true)
	}
	if err := h.Prune(3); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	count, _ := h.Count()
	if count != 3 {
		t.Errorf("Expected 3 conversations after prune, got %d", count)
	}
}

func TestPreferences(t *testing.T) {
	h := openStore(t)

	if got := h.GetPreference("voice", "default"); got != "default" {
		t.Errorf("Missing key should return default, got %q", got)
	}
	if err := h.SetPreference("voice", "quiet"); err != nil {
		t.Fatal(err)
	}
	if err := h.SetPreference("voice", "loud"); err != nil {
		t.Fatal(err)
	}
	if got := h.GetPreference("voice", "default"); got != "loud" {
		t.Errorf("Expected upserted value, got %q", got)
	}
}
