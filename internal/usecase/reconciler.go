// Package usecase contains application business logic.
package usecase

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// Process names whose System events also reopen a dependent domain.
const (
	DefaultBrowserProcess = "chrome.exe"
	DefaultEditorProcess  = "Code.exe"
)

// ReconcilerOptions controls how the event stream is folded into intervals.
type ReconcilerOptions struct {
	// IncludeHidden keeps Runtime and Activity intervals in the output.
	IncludeHidden bool

	// FlushOpenSlots closes slots still open after the last event at that
	// event's timestamp instead of dropping them.
	FlushOpenSlots bool

	// BrowserProcess is the System entity that reopens the Browser slot.
	BrowserProcess string

	// EditorProcess is the System entity that reopens the VSCode slot.
	EditorProcess string
}

// DefaultReconcilerOptions returns the default reconciliation options.
func DefaultReconcilerOptions() ReconcilerOptions {
	return ReconcilerOptions{
		BrowserProcess: DefaultBrowserProcess,
		EditorProcess:  DefaultEditorProcess,
	}
}

// Reconciliation is the outcome of one reconciliation pass.
type Reconciliation struct {
	// Intervals in emission order, filtered per options.
	Intervals []domain.Interval

	// Hidden counts intervals removed by the Runtime/Activity filter.
	Hidden int

	// Skipped counts events whose entity or domain could not be resolved.
	Skipped int

	// Ignored counts events of domains outside the tracked set.
	Ignored int

	// Dropped counts slots left open at end of stream and discarded.
	Dropped int
}

// Reconciler turns a raw event stream into closed intervals per domain.
type Reconciler struct {
	registry domain.Registry
	opts     ReconcilerOptions
	diag     domain.Diagnostics
}

// NewReconciler creates a reconciler resolving events against registry.
func NewReconciler(registry domain.Registry, opts ReconcilerOptions, diag domain.Diagnostics) *Reconciler {
	if diag == nil {
		diag = domain.NopDiagnostics{}
	}
	if opts.BrowserProcess == "" {
		opts.BrowserProcess = DefaultBrowserProcess
	}
	if opts.EditorProcess == "" {
		opts.EditorProcess = DefaultEditorProcess
	}
	return &Reconciler{registry: registry, opts: opts, diag: diag}
}

const numKinds = int(domain.KindVSCode) + 1

type slot struct {
	label *string
	start time.Time
}

// pass holds the mutable state of a single reconciliation run.
type pass struct {
	slots       [numKinds]*slot
	out         []domain.Interval
	lastWebsite *string
	lastProject *string
}

func (p *pass) open(k domain.Kind, label *string, at time.Time) {
	p.slots[k] = &slot{label: label, start: at}
}

// close emits the interval held by k's slot, if open.
func (p *pass) close(k domain.Kind, at time.Time) {
	s := p.slots[k]
	if s == nil {
		return
	}
	p.out = append(p.out, domain.Interval{Domain: k, Label: s.label, Start: s.start, End: at})
	p.slots[k] = nil
}

func (p *pass) closeAll(at time.Time, order ...domain.Kind) {
	for _, k := range order {
		p.close(k, at)
	}
}

// Reconcile folds events into intervals. The first event is the startup
// marker: it opens the Runtime slot and is not resolved.
func (r *Reconciler) Reconcile(events []domain.RawEvent) (*Reconciliation, error) {
	if !r.registry.Ready() {
		r.diag.Error("invalid state")
		return nil, domain.StateError("reconcile")
	}

	res := &Reconciliation{}
	if len(events) == 0 {
		r.diag.Warn("trace holds no events")
		return res, nil
	}

	p := &pass{}
	p.open(domain.KindRuntime, domain.Label(domain.StartupEntity), events[0].Timestamp())

	for i, ev := range events[1:] {
		kind, name, ok := r.resolve(ev)
		if !ok {
			r.diag.Error("failed to get domain and entity",
				zap.Int("index", i+1),
				zap.Uint16("entity_id", ev.EntityID))
			res.Skipped++
			continue
		}
		if !r.apply(p, kind, name, ev.Timestamp()) {
			res.Ignored++
		}
	}

	if r.opts.FlushOpenSlots {
		p.closeAll(events[len(events)-1].Timestamp(), domain.Kinds...)
	}
	for _, s := range p.slots {
		if s != nil {
			res.Dropped++
		}
	}

	for _, iv := range p.out {
		if !r.opts.IncludeHidden && hidden(iv.Domain) {
			res.Hidden++
			continue
		}
		res.Intervals = append(res.Intervals, iv)
	}

	r.diag.Info("reconciled timeline",
		zap.Int("events", len(events)),
		zap.Int("intervals", len(res.Intervals)),
		zap.Int("hidden", res.Hidden),
		zap.Int("skipped", res.Skipped),
		zap.Int("ignored", res.Ignored),
		zap.Int("dropped", res.Dropped))
	return res, nil
}

func (r *Reconciler) resolve(ev domain.RawEvent) (domain.Kind, string, bool) {
	entity, ok := r.registry.Entity(ev.EntityID)
	if !ok {
		return domain.KindUnknown, "", false
	}
	name, ok := r.registry.Domain(entity.DomainID)
	if !ok {
		return domain.KindUnknown, "", false
	}
	return domain.ParseKind(name), entity.Name, true
}

// apply runs the closing rules for one resolved event. It reports false for
// domains outside the tracked set, which never affect any slot.
func (r *Reconciler) apply(p *pass, kind domain.Kind, name string, at time.Time) bool {
	switch kind {
	case domain.KindRuntime:
		if s := p.slots[domain.KindRuntime]; s != nil && s.label != nil && *s.label == domain.StartupEntity {
			s.label = domain.Label(domain.PowerOffLabel)
		}
		p.closeAll(at, domain.KindRuntime, domain.KindSystem, domain.KindActivity, domain.KindBrowser, domain.KindVSCode)
		p.open(domain.KindRuntime, domain.Label(name), at)

	case domain.KindSystem:
		p.closeAll(at, domain.KindSystem, domain.KindRuntime, domain.KindActivity, domain.KindBrowser, domain.KindVSCode)
		p.open(domain.KindSystem, domain.Label(name), at)
		switch name {
		case r.opts.BrowserProcess:
			p.open(domain.KindBrowser, p.lastWebsite, at)
		case r.opts.EditorProcess:
			p.open(domain.KindVSCode, p.lastProject, at)
		}

	case domain.KindActivity:
		p.closeAll(at, domain.KindActivity, domain.KindSystem, domain.KindRuntime, domain.KindBrowser, domain.KindVSCode)
		p.open(domain.KindActivity, domain.Label(name), at)

	case domain.KindBrowser:
		p.close(domain.KindBrowser, at)
		p.lastWebsite = domain.Label(name)
		p.open(domain.KindBrowser, p.lastWebsite, at)

	case domain.KindVSCode:
		p.close(domain.KindVSCode, at)
		p.lastProject = domain.Label(name)
		p.open(domain.KindVSCode, p.lastProject, at)

	default:
		return false
	}
	return true
}

func hidden(k domain.Kind) bool {
	return k == domain.KindRuntime || k == domain.KindActivity
}

// SortByStart orders intervals chronologically by start, keeping emission
// order for equal starts.
func SortByStart(intervals []domain.Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
}
