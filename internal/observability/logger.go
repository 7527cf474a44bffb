package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeRuleMatch    EventType = "rule_match"
	EventTypePlan         EventType = "plan"
	EventTypeFallback     EventType = "fallback"
	EventTypePolicyCheck  EventType = "policy_check"
	EventTypeConfirmation EventType = "confirmation"
	EventTypeDispatch     EventType = "dispatch"
	EventTypeResult       EventType = "result"
	EventTypeHeartbeat    EventType = "heartbeat"
	EventTypeLLM          EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger emits structured JSONL events. LLM traffic is additionally
// mirrored to a rotating file so raw model output stays auditable.
type Logger struct {
	out        io.Writer
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout)
}

// NewLoggerTo directs the event stream at w instead of stdout.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{
		out:        w,
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Fprintf(l.out, "{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Fprintln(l.out, string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogRuleMatch(sessionID, text, actionType string) {
	l.Log(Event{
		Type:      EventTypeRuleMatch,
		SessionID: sessionID,
		Data:      map[string]string{"text": text, "action": actionType},
	})
}

func (l *Logger) LogPlan(sessionID, source, planJSON string, complexity int, concerns []string) {
	l.Log(Event{
		Type:      EventTypePlan,
		SessionID: sessionID,
		Data: map[string]any{
			"source":     source,
			"plan":       planJSON,
			"complexity": complexity,
			"concerns":   concerns,
		},
	})
}

func (l *Logger) LogFallback(sessionID, backend, reason string) {
	l.Log(Event{
		Type:      EventTypeFallback,
		SessionID: sessionID,
		Data:      map[string]string{"backend": backend, "reason": reason},
	})
}

func (l *Logger) LogPolicyCheck(sessionID, risk string, blocked bool, reason string) {
	l.Log(Event{
		Type:      EventTypePolicyCheck,
		SessionID: sessionID,
		Data: map[string]any{
			"risk":    risk,
			"blocked": blocked,
			"reason":  reason,
		},
	})
}

func (l *Logger) LogDispatch(sessionID string, taskType string, actionCount int) {
	l.Log(Event{
		Type:      EventTypeDispatch,
		SessionID: sessionID,
		Data: map[string]any{
			"task_type": taskType,
			"actions":   actionCount,
		},
	})
}

func (l *Logger) LogConfirmation(sessionID string, approved bool) {
	l.Log(Event{
		Type:      EventTypeConfirmation,
		SessionID: sessionID,
		Data:      map[string]bool{"approved": approved},
	})
}

func (l *Logger) LogResult(sessionID, actionType string, success bool, message string) {
	l.Log(Event{
		Type:      EventTypeResult,
		SessionID: sessionID,
		Data: map[string]any{
			"action":  actionType,
			"success": success,
			"message": message,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(sessionID string, prompt any, response string) {
	l.Log(Event{
		Type:      EventTypeLLM,
		SessionID: sessionID,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}
