package usecase

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
	"github.com/eliteGoblin/focusd/tracklog/internal/format"
)

const (
	runtime  = "Runtime"
	system   = "System"
	activity = "Activity"
	browser  = "Browser"
	vscode   = "VSCode"
)

func TestReconciler_Reconcile(t *testing.T) {
	tests := []struct {
		name    string
		pair    func() *format.Pair
		opts    ReconcilerOptions
		want    []domain.Interval
		hidden  int
		dropped int
	}{
		{
			name: "system switch closes previous system interval",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "a.exe").
					Add(at(2), system, "b.exe")
			},
			want:    []domain.Interval{iv(domain.KindSystem, lbl("a.exe"), at(1), at(2))},
			hidden:  1,
			dropped: 1,
		},
		{
			name: "hidden domains included on request",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "a.exe").
					Add(at(2), system, "b.exe")
			},
			opts: ReconcilerOptions{IncludeHidden: true},
			want: []domain.Interval{
				iv(domain.KindRuntime, lbl("Startup"), at(0), at(1)),
				iv(domain.KindSystem, lbl("a.exe"), at(1), at(2)),
			},
			dropped: 1,
		},
		{
			name: "browser process opens browser without a known website",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "chrome.exe").
					Add(at(2), system, "x.exe")
			},
			want: []domain.Interval{
				iv(domain.KindSystem, lbl("chrome.exe"), at(1), at(2)),
				iv(domain.KindBrowser, nil, at(1), at(2)),
			},
			hidden:  1,
			dropped: 1,
		},
		{
			name: "browser reopens with the last website",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "chrome.exe").
					Add(at(2), browser, "github.com").
					Add(at(3), system, "x.exe").
					Add(at(4), system, "chrome.exe").
					Add(at(5), system, "y.exe")
			},
			want: []domain.Interval{
				iv(domain.KindBrowser, nil, at(1), at(2)),
				iv(domain.KindSystem, lbl("chrome.exe"), at(1), at(3)),
				iv(domain.KindBrowser, lbl("github.com"), at(2), at(3)),
				iv(domain.KindSystem, lbl("x.exe"), at(3), at(4)),
				iv(domain.KindSystem, lbl("chrome.exe"), at(4), at(5)),
				iv(domain.KindBrowser, lbl("github.com"), at(4), at(5)),
			},
			hidden:  1,
			dropped: 1,
		},
		{
			name: "editor process opens vscode with the last project",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "Code.exe").
					Add(at(2), vscode, "tracklog").
					Add(at(3), browser, "pkg.go.dev").
					Add(at(4), system, "x.exe")
			},
			want: []domain.Interval{
				iv(domain.KindVSCode, nil, at(1), at(2)),
				iv(domain.KindSystem, lbl("Code.exe"), at(1), at(4)),
				iv(domain.KindBrowser, lbl("pkg.go.dev"), at(3), at(4)),
				iv(domain.KindVSCode, lbl("tracklog"), at(2), at(4)),
			},
			hidden:  1,
			dropped: 1,
		},
		{
			name: "browser and vscode events only close their own slot",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "a.exe").
					Add(at(2), browser, "one").
					Add(at(3), vscode, "p").
					Add(at(4), browser, "two")
			},
			opts: ReconcilerOptions{IncludeHidden: true, FlushOpenSlots: true},
			want: []domain.Interval{
				iv(domain.KindRuntime, lbl("Startup"), at(0), at(1)),
				iv(domain.KindBrowser, lbl("one"), at(2), at(4)),
				iv(domain.KindSystem, lbl("a.exe"), at(1), at(4)),
				iv(domain.KindBrowser, lbl("two"), at(4), at(4)),
				iv(domain.KindVSCode, lbl("p"), at(3), at(4)),
			},
		},
		{
			name: "runtime event relabels the startup interval as power off",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(5), runtime, "Shutdown")
			},
			opts: ReconcilerOptions{IncludeHidden: true},
			want: []domain.Interval{
				iv(domain.KindRuntime, lbl("power off"), at(0), at(5)),
			},
			dropped: 1,
		},
		{
			name: "runtime event closes every slot",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "chrome.exe").
					Add(at(2), activity, "Idle").
					Add(at(3), system, "a.exe").
					Add(at(4), runtime, "Shutdown")
			},
			opts: ReconcilerOptions{IncludeHidden: true},
			want: []domain.Interval{
				iv(domain.KindRuntime, lbl("Startup"), at(0), at(1)),
				iv(domain.KindSystem, lbl("chrome.exe"), at(1), at(2)),
				iv(domain.KindBrowser, nil, at(1), at(2)),
				iv(domain.KindActivity, lbl("Idle"), at(2), at(3)),
				iv(domain.KindSystem, lbl("a.exe"), at(3), at(4)),
			},
			dropped: 1,
		},
		{
			name: "activity closes system and is hidden by default",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "a.exe").
					Add(at(2), activity, "Idle").
					Add(at(3), system, "b.exe")
			},
			want: []domain.Interval{
				iv(domain.KindSystem, lbl("a.exe"), at(1), at(2)),
			},
			hidden:  2,
			dropped: 1,
		},
		{
			name: "flush closes open slots at the last event",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "a.exe").
					Add(at(2), system, "b.exe")
			},
			opts: ReconcilerOptions{FlushOpenSlots: true},
			want: []domain.Interval{
				iv(domain.KindSystem, lbl("a.exe"), at(1), at(2)),
				iv(domain.KindSystem, lbl("b.exe"), at(2), at(2)),
			},
			hidden: 1,
		},
		{
			name: "custom browser process",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0)).
					Add(at(1), system, "chrome.exe").
					Add(at(2), system, "firefox.exe").
					Add(at(3), system, "x.exe")
			},
			opts: ReconcilerOptions{BrowserProcess: "firefox.exe"},
			want: []domain.Interval{
				iv(domain.KindSystem, lbl("chrome.exe"), at(1), at(2)),
				iv(domain.KindSystem, lbl("firefox.exe"), at(2), at(3)),
				iv(domain.KindBrowser, nil, at(2), at(3)),
			},
			hidden:  1,
			dropped: 1,
		},
		{
			name: "startup only",
			pair: func() *format.Pair {
				return format.NewPair().Startup(at(0))
			},
			dropped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, events := decode(t, tt.pair())

			res, err := NewReconciler(registry, tt.opts, nil).Reconcile(events)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, res.Intervals); diff != "" {
				t.Errorf("intervals mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.hidden, res.Hidden, "hidden")
			assert.Equal(t, tt.dropped, res.Dropped, "dropped")
			assert.Zero(t, res.Skipped)
			assert.Zero(t, res.Ignored)
		})
	}
}

func TestReconciler_FirstEventIsNotResolved(t *testing.T) {
	p := format.NewPair().
		AddID(at(0), 999).
		Add(at(1), system, "a.exe")
	registry, events := decode(t, p)

	res, err := NewReconciler(registry, ReconcilerOptions{IncludeHidden: true}, nil).Reconcile(events)
	require.NoError(t, err)

	want := []domain.Interval{iv(domain.KindRuntime, lbl("Startup"), at(0), at(1))}
	if diff := cmp.Diff(want, res.Intervals); diff != "" {
		t.Errorf("intervals mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, res.Skipped)
}

func TestReconciler_UnresolvableEventSkipped(t *testing.T) {
	p := format.NewPair().Startup(at(0)).
		AddID(at(1), 999).
		Add(at(2), system, "a.exe").
		Add(at(3), system, "b.exe")
	registry, events := decode(t, p)
	diag := &recordingDiagnostics{}

	res, err := NewReconciler(registry, DefaultReconcilerOptions(), diag).Reconcile(events)
	require.NoError(t, err)

	want := []domain.Interval{iv(domain.KindSystem, lbl("a.exe"), at(2), at(3))}
	if diff := cmp.Diff(want, res.Intervals); diff != "" {
		t.Errorf("intervals mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, res.Skipped)
	assert.Contains(t, diag.errors, "failed to get domain and entity")
}

func TestReconciler_UnknownDomainIgnored(t *testing.T) {
	p := format.NewPair().Startup(at(0)).
		Add(at(1), system, "a.exe").
		Add(at(2), "Media", "song").
		Add(at(3), system, "b.exe")
	registry, events := decode(t, p)

	res, err := NewReconciler(registry, DefaultReconcilerOptions(), nil).Reconcile(events)
	require.NoError(t, err)

	want := []domain.Interval{iv(domain.KindSystem, lbl("a.exe"), at(1), at(3))}
	if diff := cmp.Diff(want, res.Intervals); diff != "" {
		t.Errorf("intervals mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, res.Ignored)
	assert.Zero(t, res.Skipped)
}

func TestReconciler_FilterDoesNotChangeVisibleIntervals(t *testing.T) {
	registry, events := decode(t, format.SamplePair(t0))

	all, err := NewReconciler(registry, ReconcilerOptions{IncludeHidden: true}, nil).Reconcile(events)
	require.NoError(t, err)
	visible, err := NewReconciler(registry, ReconcilerOptions{}, nil).Reconcile(events)
	require.NoError(t, err)

	var filtered []domain.Interval
	for _, interval := range all.Intervals {
		if interval.Domain != domain.KindRuntime && interval.Domain != domain.KindActivity {
			filtered = append(filtered, interval)
		}
	}
	if diff := cmp.Diff(filtered, visible.Intervals); diff != "" {
		t.Errorf("visible intervals depend on the filter (-all +filtered):\n%s", diff)
	}
	assert.Equal(t, len(all.Intervals)-len(visible.Intervals), visible.Hidden)
}

func TestReconciler_Invariants(t *testing.T) {
	registry, events := decode(t, format.SamplePair(t0))

	res, err := NewReconciler(registry, ReconcilerOptions{IncludeHidden: true, FlushOpenSlots: true}, nil).Reconcile(events)
	require.NoError(t, err)
	require.NotEmpty(t, res.Intervals)

	last := events[len(events)-1].Timestamp()
	for _, interval := range res.Intervals {
		assert.False(t, interval.End.Before(interval.Start), "interval %v ends before it starts", interval)
		assert.False(t, interval.End.After(last), "interval %v ends after the last event", interval)
		assert.NotEqual(t, domain.KindUnknown, interval.Domain)
	}
	assert.Zero(t, res.Dropped)
}

func TestReconciler_EmptyStream(t *testing.T) {
	registry, _ := decode(t, format.NewPair())
	diag := &recordingDiagnostics{}

	res, err := NewReconciler(registry, DefaultReconcilerOptions(), diag).Reconcile(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Intervals)
	assert.Zero(t, res.Dropped)
	assert.Equal(t, []string{"trace holds no events"}, diag.warns)
}

func TestReconciler_RegistryNotReady(t *testing.T) {
	registry := format.DecodeRegistry([]byte("bad"), nil)
	diag := &recordingDiagnostics{}

	_, err := NewReconciler(registry, DefaultReconcilerOptions(), diag).
		Reconcile([]domain.RawEvent{format.EventAt(at(0), 0)})
	assert.ErrorIs(t, err, domain.ErrState)
	assert.Contains(t, diag.errors, "invalid state")
}

func TestNewReconciler_DefaultsProcessNames(t *testing.T) {
	r := NewReconciler(format.DecodeRegistry(nil, nil), ReconcilerOptions{}, nil)
	assert.Equal(t, DefaultBrowserProcess, r.opts.BrowserProcess)
	assert.Equal(t, DefaultEditorProcess, r.opts.EditorProcess)
}

func TestSortByStart(t *testing.T) {
	intervals := []domain.Interval{
		iv(domain.KindSystem, lbl("c"), at(5), at(6)),
		iv(domain.KindSystem, lbl("a"), at(1), at(3)),
		iv(domain.KindBrowser, lbl("b"), at(1), at(2)),
	}
	SortByStart(intervals)

	want := []domain.Interval{
		iv(domain.KindSystem, lbl("a"), at(1), at(3)),
		iv(domain.KindBrowser, lbl("b"), at(1), at(2)),
		iv(domain.KindSystem, lbl("c"), at(5), at(6)),
	}
	if diff := cmp.Diff(want, intervals); diff != "" {
		t.Errorf("sorted mismatch (-want +got):\n%s", diff)
	}
}
