package storage

import (
	"fmt"
	"sync"
)

// Memory keeps runs and results in RAM. It is the default backend and the
// one the statistics pipeline reads back from.
type Memory struct {
	mu      sync.RWMutex
	runs    map[uint]*Run
	results map[uint][]IonResult
	nextID  uint
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		runs:    make(map[uint]*Run),
		results: make(map[uint][]IonResult),
		nextID:  1,
	}
}

func (m *Memory) Init() error  { return nil }
func (m *Memory) Close() error { return nil }

// BeginRun registers the run and assigns its ID.
func (m *Memory) BeginRun(run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = m.nextID
	m.nextID++
	stored := *run
	m.runs[run.ID] = &stored
	return nil
}

// EndRun stores the final run-level numbers.
func (m *Memory) EndRun(run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return fmt.Errorf("unknown run %d", run.ID)
	}
	stored := *run
	m.runs[run.ID] = &stored
	return nil
}

// RecordResult appends one ion outcome to its run.
func (m *Memory) RecordResult(res *IonResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[res.RunID]; !ok {
		return fmt.Errorf("unknown run %d", res.RunID)
	}
	m.results[res.RunID] = append(m.results[res.RunID], *res)
	return nil
}

// GetRun returns a stored run.
func (m *Memory) GetRun(id uint) (Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// GetResults returns the recorded outcomes of a run.
func (m *Memory) GetResults(runID uint) []IonResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]IonResult(nil), m.results[runID]...)
}
