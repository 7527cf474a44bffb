// Package store is the persistent memory collaborator: every pipeline
// run is recorded, and recent exchanges are served back for prompt
// context.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/rahul/max/internal/plan"
)

type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			timestamp TEXT NOT NULL,
			user_text TEXT NOT NULL,
			plan_json TEXT,
			result_json TEXT,
			outcome TEXT,
			success INTEGER DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_session
			ON conversations(session_id, id DESC);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return nil, err
		}
	}

	return &HistoryStore{DB: db}, nil
}

// Record stores one completed (or rejected/denied) pipeline run.
func (h *HistoryStore) Record(cmd plan.Command, p *plan.Plan, results []plan.ExecutionResult, outcome string, success bool) error {
	planJSON := ""
	if p != nil {
		planJSON = p.ToJSON()
	}
	resultJSON := ""
	if len(results) > 0 {
		if data, err := json.Marshal(results); err == nil {
			resultJSON = string(data)
		}
	}

	_, err := h.DB.Exec(
		`INSERT INTO conversations (session_id, timestamp, user_text, plan_json, result_json, outcome, success)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cmd.SessionID, time.Now().UTC().Format(time.RFC3339), cmd.Text,
		planJSON, resultJSON, outcome, boolToInt(success),
	)
	return err
}

// Recent returns up to n prior exchanges for a session, most recent
// first, for context injection into the plan provider.
func (h *HistoryStore) Recent(sessionID string, n int) ([]plan.Exchange, error) {
	rows, err := h.DB.Query(
		`SELECT user_text, plan_json FROM conversations
		 WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.Exchange
	for rows.Next() {
		var ex plan.Exchange
		if err := rows.Scan(&ex.UserText, &ex.PlanJSON); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Count returns the total number of stored conversations.
func (h *HistoryStore) Count() (int, error) {
	var n int
	err := h.DB.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&n)
	return n, err
}

// Prune deletes old conversations, keeping the most recent keepLast.
func (h *HistoryStore) Prune(keepLast int) error {
	_, err := h.DB.Exec(
		`DELETE FROM conversations WHERE id NOT IN
		 (SELECT id FROM conversations ORDER BY id DESC LIMIT ?)`,
		keepLast,
	)
	return err
}

// SetPreference stores a user preference.
func (h *HistoryStore) SetPreference(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := h.DB.Exec(
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, now,
	)
	return err
}

// GetPreference returns a stored preference or the default.
func (h *HistoryStore) GetPreference(key, def string) string {
	var value string
	err := h.DB.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return def
	}
	return value
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
