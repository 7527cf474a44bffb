package observability

import (
	"sync"
	"time"
)

// Stage names the pipeline phase currently shown on the dashboard.
type Stage string

const (
	StageIdle       Stage = "IDLE"
	StagePlanning   Stage = "PLANNING"
	StageConfirming Stage = "CONFIRMING"
	StageExecuting  Stage = "EXECUTING"
)

type SystemStatus struct {
	mu            sync.RWMutex
	CurrentStage  Stage
	ActiveCommand string
	LastHeartbeat time.Time
	MemoryCount   int
}

var globalStatus = &SystemStatus{
	CurrentStage:  StageIdle,
	LastHeartbeat: time.Now(),
}

// SetStatus updates the global system status.
func SetStatus(stage Stage, command string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.CurrentStage = stage
	globalStatus.ActiveCommand = command
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() (Stage, string, time.Time) {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.CurrentStage, globalStatus.ActiveCommand, globalStatus.LastHeartbeat
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.LastHeartbeat = time.Now()
}

// SetMemoryCount mirrors the stored conversation count for the
// dashboard.
func SetMemoryCount(n int) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.MemoryCount = n
}

// MemoryCount returns the last mirrored conversation count.
func MemoryCount() int {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.MemoryCount
}
