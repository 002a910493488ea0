package task

import (
	"context"

	"github.com/haierkeys/vault-link-index/internal/app"
	"github.com/haierkeys/vault-link-index/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// LinkSyncTask 定时全量同步任务
type LinkSyncTask struct {
	app        *app.App
	schedule   cron.Schedule
	startupRun bool
}

// Name 返回任务名称
func (t *LinkSyncTask) Name() string {
	return "LinkSync"
}

// Schedule 返回执行计划
func (t *LinkSyncTask) Schedule() cron.Schedule {
	return t.schedule
}

// IsStartupRun 是否立即执行一次
func (t *LinkSyncTask) IsStartupRun() bool {
	return t.startupRun
}

// Run 执行同步
func (t *LinkSyncTask) Run(ctx context.Context) error {
	res, err := t.app.Sync(ctx)
	if err != nil {
		return err
	}
	t.app.Logger().Info("task log",
		zap.String(logger.FieldTask, t.Name()),
		zap.String(logger.FieldRunID, res.RunID),
		zap.Int("edges", res.Stats.EdgeTotal),
		zap.Int64("deleted", res.DeletedCount))
	return nil
}

// NewLinkSyncTask 创建同步任务，未配置计划且不需要启动执行时返回 nil
func NewLinkSyncTask(a *app.App) (Task, error) {
	cfg := a.Config().Sync
	schedule, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	if schedule == nil && !cfg.StartupRun {
		return nil, nil
	}
	return &LinkSyncTask{app: a, schedule: schedule, startupRun: cfg.StartupRun}, nil
}

// init 自动注册同步任务
func init() {
	Register(NewLinkSyncTask)
}
