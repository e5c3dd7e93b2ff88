package infra

import (
	"os"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// DefaultAgentProcess is the executable name of the tracking agent.
const DefaultAgentProcess = "TimeTracker.exe"

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// FindByName returns PIDs of processes matching the pattern (case-insensitive).
func (pm *ProcessManagerImpl) FindByName(pattern string) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var found []int
	patternLower := strings.ToLower(pattern)

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}

		if strings.EqualFold(name, pattern) || strings.Contains(strings.ToLower(name), patternLower) {
			found = append(found, int(p.Pid))
		}
	}

	return found, nil
}

// IsRunning checks if a PID exists and is running.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Send signal 0 to check if process exists
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}

// AgentStatus describes whether the tracking agent is currently recording.
type AgentStatus struct {
	Process string
	PIDs    []int
}

// Running reports whether at least one agent process was found.
func (s AgentStatus) Running() bool { return len(s.PIDs) > 0 }

// DetectAgent looks up the tracking agent process by name.
func DetectAgent(pm domain.ProcessManager, name string) (AgentStatus, error) {
	if name == "" {
		name = DefaultAgentProcess
	}
	pids, err := pm.FindByName(name)
	if err != nil {
		return AgentStatus{Process: name}, err
	}
	var alive []int
	for _, pid := range pids {
		if pm.IsRunning(pid) {
			alive = append(alive, pid)
		}
	}
	return AgentStatus{Process: name, PIDs: alive}, nil
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
