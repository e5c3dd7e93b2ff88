package usecase

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
	"github.com/eliteGoblin/focusd/tracklog/internal/format"
)

// TimelineResult carries the reconciled intervals of one registry/trace pair.
type TimelineResult struct {
	RegistryPath string
	TracePath    string
	Dates        []domain.Date
	Events       int
	*Reconciliation

	// UnknownDomains lists registry domains outside the tracked set.
	UnknownDomains []string
}

// TimelineBuilder decodes a registry/trace pair and reconciles it.
type TimelineBuilder struct {
	opts ReconcilerOptions
	diag domain.Diagnostics
}

// NewTimelineBuilder creates a builder using opts for every build.
func NewTimelineBuilder(opts ReconcilerOptions, diag domain.Diagnostics) *TimelineBuilder {
	if diag == nil {
		diag = domain.NopDiagnostics{}
	}
	return &TimelineBuilder{opts: opts, diag: diag}
}

// Build reads base+".ttr" and base+".tte" and reconciles them.
// Decode failures are returned after being reported to diagnostics.
func (b *TimelineBuilder) Build(base string) (*TimelineResult, error) {
	registryPath, tracePath := format.Paths(base)

	registry := format.OpenRegistry(registryPath, b.diag)
	if !registry.Ready() {
		return nil, registry.Err()
	}
	trace := format.OpenTrace(tracePath, b.diag)
	if !trace.Ready() {
		return nil, trace.Err()
	}

	res, err := b.Reconcile(registry, trace)
	if err != nil {
		return nil, err
	}
	res.RegistryPath = registryPath
	res.TracePath = tracePath
	res.Dates = trace.Dates()
	return res, nil
}

// Reconcile runs the reconciler over already decoded sources.
func (b *TimelineBuilder) Reconcile(registry domain.Registry, trace domain.EventSource) (*TimelineResult, error) {
	if !trace.Ready() {
		b.diag.Error("invalid state")
		return nil, domain.StateError("reconcile trace")
	}
	unknown := UnknownDomains(registry)
	for _, name := range unknown {
		b.diag.Warn("registry domain is not tracked; its events are ignored", zap.String("domain", name))
	}

	events := trace.Events()
	rec, err := NewReconciler(registry, b.opts, b.diag).Reconcile(events)
	if err != nil {
		return nil, err
	}
	return &TimelineResult{
		Events:         len(events),
		Reconciliation: rec,
		UnknownDomains: unknown,
	}, nil
}

// UnknownDomains returns the registry domains the reconciler does not track.
func UnknownDomains(registry domain.Registry) []string {
	var unknown []string
	for _, name := range registry.Domains() {
		if domain.ParseKind(name) == domain.KindUnknown {
			unknown = append(unknown, name)
		}
	}
	return unknown
}
