// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
	"time"

	"github.com/eliteGoblin/focusd/tracklog/internal/format"
)

// TrackerInstall creates a directory mimicking the tracker agent's data
// folder: a registry/trace pair sharing one base path.
type TrackerInstall struct {
	HomeDir string
}

// NewTrackerInstall creates a new fake tracker install generator.
func NewTrackerInstall(homeDir string) *TrackerInstall {
	return &TrackerInstall{HomeDir: homeDir}
}

// Dir returns the agent data directory.
func (f *TrackerInstall) Dir() string {
	return filepath.Join(f.HomeDir, "AppData", "Roaming", "TimeTracker")
}

// Base returns the base path of the registry/trace pair.
func (f *TrackerInstall) Base() string {
	return filepath.Join(f.Dir(), "TimeTracker")
}

// Create writes the sample session recorded on day.
func (f *TrackerInstall) Create(day time.Time) error {
	return f.Write(format.SamplePair(day))
}

// Write stores p as the install's pair.
func (f *TrackerInstall) Write(p *format.Pair) error {
	if err := os.MkdirAll(f.Dir(), 0755); err != nil {
		return err
	}
	return p.Write(f.Base())
}

// CorruptTrace replaces the trace with a file whose header is wrong.
func (f *TrackerInstall) CorruptTrace() error {
	_, tracePath := format.Paths(f.Base())
	return os.WriteFile(tracePath, []byte("XXX\x00\x00"), 0644)
}

// RemoveRegistry deletes the registry file.
func (f *TrackerInstall) RemoveRegistry() error {
	registryPath, _ := format.Paths(f.Base())
	return os.Remove(registryPath)
}

// Exists checks if both files of the pair exist.
func (f *TrackerInstall) Exists() bool {
	registryPath, tracePath := format.Paths(f.Base())
	for _, p := range []string{registryPath, tracePath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
