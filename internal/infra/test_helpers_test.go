package infra

import (
	"errors"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// mockProcessManager is a test double for ProcessManager
type mockProcessManager struct {
	byName      map[string][]int
	runningPIDs map[int]bool
	findErr     error
	queried     []string
}

func newMockProcessManager() *mockProcessManager {
	return &mockProcessManager{
		byName:      make(map[string][]int),
		runningPIDs: make(map[int]bool),
	}
}

func (m *mockProcessManager) FindByName(pattern string) ([]int, error) {
	m.queried = append(m.queried, pattern)
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byName[pattern], nil
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	return m.runningPIDs[pid]
}

// addProcess registers pid under name and marks it running.
func (m *mockProcessManager) addProcess(name string, pid int, running bool) {
	m.byName[name] = append(m.byName[name], pid)
	m.runningPIDs[pid] = running
}

var errProcessTable = errors.New("process table unavailable")

// Ensure mockProcessManager implements domain.ProcessManager
var _ domain.ProcessManager = (*mockProcessManager)(nil)
