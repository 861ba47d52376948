package scheduler

import (
	"fmt"
	"sync"
	"time"

	"compass/orchestrator"
)

// State represents the scheduler state machine
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

const maxLogs = 50

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Status is a snapshot of the scheduler, served at GET /api/status
type Status struct {
	State    State                   `json:"state"`
	Schedule string                  `json:"schedule,omitempty"`
	NextRun  *time.Time              `json:"next_run,omitempty"`
	Current  *orchestrator.Request   `json:"current,omitempty"`
	LastRun  *orchestrator.RunResult `json:"last_run,omitempty"`
	Logs     []LogEntry              `json:"logs"`
	Error    string                  `json:"error,omitempty"`
}

// manager holds run state with thread-safe access
type manager struct {
	mu      sync.RWMutex
	state   State
	current *orchestrator.Request
	lastRun *orchestrator.RunResult
	lastErr error
	logs    []LogEntry
	now     func() time.Time
}

func newManager() *manager {
	return &manager{
		state: StateIdle,
		logs:  make([]LogEntry, 0, maxLogs),
		now:   time.Now,
	}
}

// begin moves to running unless a run is already in progress.
func (m *manager) begin(req orchestrator.Request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateRunning {
		return false
	}
	m.state = StateRunning
	m.current = &req
	m.lastErr = nil
	date := req.Date
	if date == "" {
		date = "today"
	}
	m.appendLog(fmt.Sprintf("Run started for %s", date))
	return true
}

func (m *manager) end(res *orchestrator.RunResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	if res != nil {
		m.lastRun = res
	}
	if err != nil {
		m.state = StateError
		m.lastErr = err
		m.appendLog(fmt.Sprintf("Error: %v", err))
		return
	}
	m.state = StateComplete
	if res == nil {
		m.appendLog("Run complete")
		return
	}
	m.appendLog(fmt.Sprintf("Run complete for %s: %d signals, tension %.1f (%s)",
		res.Date, res.Signals, res.Composite, res.Level))
}

func (m *manager) addLog(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(message)
}

// appendLog must be called with the lock held.
func (m *manager) appendLog(message string) {
	m.logs = append(m.logs, LogEntry{Timestamp: m.now(), Message: message})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *manager) snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Status{
		State:   m.state,
		LastRun: m.lastRun,
		Logs:    append([]LogEntry{}, m.logs...),
	}
	if m.current != nil {
		req := *m.current
		st.Current = &req
	}
	if m.lastErr != nil {
		st.Error = m.lastErr.Error()
	}
	return st
}
