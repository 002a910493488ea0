// Package watch forwards file system moves of linked files to the move hooks.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/vault-link-index/internal/service"
	"github.com/haierkeys/vault-link-index/pkg/logger"

	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	"go.uber.org/zap"
)

// Hooks receives the events of watched files.
type Hooks interface {
	HandleFileMove(ctx context.Context, oldPath, newPath string) (*service.MoveReport, error)
	MarkReferenceDeleted(path string)
}

// Config 文件监听配置
type Config struct {
	Paths        []string      // 监听的目录，递归
	PollInterval time.Duration // 轮询间隔
	Ignore       []string      // 忽略的路径，通常是笔记库自身
}

// Watcher polls the configured directories for moved and removed files.
type Watcher struct {
	cfg    Config
	hooks  Hooks
	logger *zap.Logger
	ready  chan struct{}
	once   sync.Once
}

// New 创建文件监听器
func New(cfg Config, hooks Hooks, lg *zap.Logger) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Watcher{cfg: cfg, hooks: hooks, logger: lg, ready: make(chan struct{})}
}

// Ready is closed once the initial file listing has been taken.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

func (w *Watcher) markReady() {
	w.once.Do(func() { close(w.ready) })
}

// Run blocks until ctx is cancelled or the poller fails.
// Ready is closed on every return path.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.markReady()

	if len(w.cfg.Paths) == 0 {
		w.logger.Info("file watcher has no paths, disabled")
		return nil
	}
	if w.cfg.PollInterval < time.Millisecond {
		return errors.Errorf("file watcher poll interval %s is too short", w.cfg.PollInterval)
	}

	fw := watcher.New()
	// Only moves and removals matter; writes never change link targets.
	fw.FilterOps(watcher.Rename, watcher.Move, watcher.Remove)

	for _, p := range w.cfg.Paths {
		if err := fw.AddRecursive(p); err != nil {
			return errors.Wrapf(err, "watch %s", p)
		}
	}
	if len(w.cfg.Ignore) > 0 {
		if err := fw.Ignore(w.cfg.Ignore...); err != nil {
			return errors.Wrap(err, "ignore paths")
		}
	}

	startErr := make(chan error, 1)
	go func() {
		startErr <- fw.Start(w.cfg.PollInterval)
	}()
	started := make(chan struct{})
	go func() {
		fw.Wait()
		close(started)
	}()

	// Close is a no-op until the poller runs, so wait for it before serving ctx.
	select {
	case <-started:
	case err := <-startErr:
		return errors.Wrap(err, "start file watcher")
	}
	defer fw.Close()
	w.markReady()
	w.logger.Info("file watcher started", zap.Strings(logger.FieldPath, w.cfg.Paths), zap.Duration("interval", w.cfg.PollInterval))

	for {
		select {
		case ev := <-fw.Event:
			w.handle(ctx, ev)
		case err := <-fw.Error:
			w.logger.Error("file watcher error", zap.Error(err))
		case err := <-startErr:
			return errors.Wrap(err, "start file watcher")
		case <-ctx.Done():
			w.logger.Info("file watcher closed")
			return nil
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev watcher.Event) {
	if ev.FileInfo != nil && ev.IsDir() {
		return
	}
	switch ev.Op {
	case watcher.Rename, watcher.Move:
		report, err := w.hooks.HandleFileMove(ctx, ev.OldPath, ev.Path)
		if err != nil {
			w.logger.Error("propagate file move failed",
				zap.String("from", ev.OldPath), zap.String("to", ev.Path), zap.Error(err))
			return
		}
		if report.Skipped {
			return
		}
		w.logger.Info("file move propagated",
			zap.String("from", ev.OldPath), zap.String("to", ev.Path),
			zap.Int64("edges", report.EdgesUpdated))
	case watcher.Remove:
		w.hooks.MarkReferenceDeleted(ev.Path)
	}
}
