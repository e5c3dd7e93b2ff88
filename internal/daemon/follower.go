// Package daemon implements long-running loops over tracking files.
package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tracklog/internal/format"
	"github.com/eliteGoblin/focusd/tracklog/internal/usecase"
)

// Builder rebuilds a timeline from a base path.
type Builder interface {
	Build(base string) (*usecase.TimelineResult, error)
}

// FollowerConfig holds follower configuration.
type FollowerConfig struct {
	Debounce     time.Duration // Quiet period after the last write before rebuilding
	PollInterval time.Duration // How often pending changes are checked
}

// DefaultFollowerConfig returns default follower configuration.
func DefaultFollowerConfig() FollowerConfig {
	return FollowerConfig{
		Debounce:     500 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
	}
}

// Follower rebuilds the timeline whenever the agent rewrites the registry or
// trace file of a base path.
type Follower struct {
	config   FollowerConfig
	base     string
	builder  Builder
	onUpdate func(*usecase.TimelineResult)
	logger   *zap.Logger
}

// NewFollower creates a follower for base. onUpdate receives every
// successful rebuild, including the initial one.
func NewFollower(
	config FollowerConfig,
	base string,
	builder Builder,
	onUpdate func(*usecase.TimelineResult),
	logger *zap.Logger,
) *Follower {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultFollowerConfig().PollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Follower{
		config:   config,
		base:     base,
		builder:  builder,
		onUpdate: onUpdate,
		logger:   logger,
	}
}

// Run builds once, then rebuilds on change.
// This blocks until context is canceled.
func (f *Follower) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	registryPath, tracePath := format.Paths(f.base)
	registryPath, tracePath = filepath.Clean(registryPath), filepath.Clean(tracePath)
	// The agent may replace files, so watch the directory rather than the files.
	dir := filepath.Dir(tracePath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	f.logger.Info("follower started", zap.String("base", f.base), zap.String("dir", dir))
	f.rebuild()

	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("follower stopping")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if name := filepath.Clean(event.Name); name != registryPath && name != tracePath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			f.logger.Debug("tracking file changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			pending = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= f.config.Debounce {
				pending = time.Time{}
				f.rebuild()
			}
		}
	}
}

func (f *Follower) rebuild() {
	res, err := f.builder.Build(f.base)
	if err != nil {
		// Files may be mid-write; the next change triggers another attempt.
		f.logger.Warn("failed to rebuild timeline", zap.Error(err))
		return
	}
	f.logger.Debug("timeline rebuilt", zap.Int("intervals", len(res.Intervals)))
	if f.onUpdate != nil {
		f.onUpdate(res)
	}
}
