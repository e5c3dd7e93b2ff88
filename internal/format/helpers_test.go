package format

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// recordingDiagnostics captures messages per level.
type recordingDiagnostics struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
	notes  []string
}

func (r *recordingDiagnostics) Info(msg string, _ ...zap.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, msg)
}

func (r *recordingDiagnostics) Warn(msg string, _ ...zap.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, msg)
}

func (r *recordingDiagnostics) Error(msg string, _ ...zap.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recordingDiagnostics) Note(msg string, _ ...zap.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, msg)
}

var _ domain.Diagnostics = (*recordingDiagnostics)(nil)
