package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Sriram-PR/fcf-scraper/pkg/orchestrate"
)

const stateFileName = "watch_state.json"

// TargetState contains the last run information for a target
type TargetState struct {
	LastRunTime    time.Time `json:"last_run_time"`
	LastRunSuccess bool      `json:"last_run_success"`
	RunID          string    `json:"run_id"`
	PagesProcessed int64     `json:"pages_processed"`
	PagesFailed    int64     `json:"pages_failed"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// WatchState contains the persistent state for the watch scheduler
type WatchState struct {
	Targets   map[string]TargetState `json:"targets"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// StateManager handles persisting and loading watch state
type StateManager struct {
	stateDir  string
	statePath string
	state     WatchState
	mu        sync.RWMutex
}

// NewStateManager creates a new state manager
func NewStateManager(stateDir string) *StateManager {
	return &StateManager{
		stateDir:  stateDir,
		statePath: filepath.Join(stateDir, stateFileName),
		state: WatchState{
			Targets: make(map[string]TargetState),
		},
	}
}

// Load loads the state from disk. A missing file is a fresh start.
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = WatchState{Targets: make(map[string]TargetState)}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &m.state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	if m.state.Targets == nil {
		m.state.Targets = make(map[string]TargetState)
	}
	return nil
}

// Save writes the state to a temporary file and renames it over the previous one
func (m *StateManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := m.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, m.statePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// GetTargetState returns the state for a specific target
func (m *StateManager) GetTargetState(target string) (TargetState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.state.Targets[target]
	return state, ok
}

// RecordResult stores the outcome of one target run
func (m *StateManager) RecordResult(result orchestrate.TargetResult, runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	errorMsg := ""
	if result.Error != nil {
		errorMsg = result.Error.Error()
	}
	m.state.Targets[string(result.Target)] = TargetState{
		LastRunTime:    time.Now(),
		LastRunSuccess: result.Success,
		RunID:          runID,
		PagesProcessed: result.Stats.Processed,
		PagesFailed:    result.Stats.Failed,
		ErrorMessage:   errorMsg,
	}
}

// ShouldRun checks if a target should run based on the interval
func (m *StateManager) ShouldRun(target string, interval time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.state.Targets[target]
	if !ok {
		return true
	}
	return time.Since(state.LastRunTime) >= interval
}

// GetNextRunTime returns when the target should next run
func (m *StateManager) GetNextRunTime(target string, interval time.Duration) time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.state.Targets[target]
	if !ok {
		return time.Now()
	}
	return state.LastRunTime.Add(interval)
}

// GetAllTargetStates returns a copy of every target state
func (m *StateManager) GetAllTargetStates() map[string]TargetState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]TargetState, len(m.state.Targets))
	for k, v := range m.state.Targets {
		result[k] = v
	}
	return result
}
