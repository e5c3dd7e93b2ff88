package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
	"github.com/eliteGoblin/focusd/tracklog/internal/format"
)

// recordingDiagnostics captures messages per level.
type recordingDiagnostics struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
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

func (r *recordingDiagnostics) Note(string, ...zap.Field) {}

var _ domain.Diagnostics = (*recordingDiagnostics)(nil)

var t0 = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

// at returns t0 plus n minutes.
func at(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Minute)
}

// decode round-trips the pair through the binary encoders so tests exercise
// the same registry the CLI would read.
func decode(t *testing.T, p *format.Pair) (*format.RegistryFile, []domain.RawEvent) {
	t.Helper()
	registry, trace, err := p.Encode()
	require.NoError(t, err)

	r := format.DecodeRegistry(registry, nil)
	tr := format.DecodeTrace(trace, nil)
	require.True(t, r.Ready())
	require.True(t, tr.Ready())
	return r, tr.Events()
}

func iv(k domain.Kind, label *string, start, end time.Time) domain.Interval {
	return domain.Interval{Domain: k, Label: label, Start: start, End: end}
}

func lbl(s string) *string { return domain.Label(s) }
