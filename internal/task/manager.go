package task

import (
	"context"

	"github.com/haierkeys/vault-link-index/internal/app"

	"go.uber.org/zap"
)

// Manager 任务管理器,负责创建和管理所有任务
type Manager struct {
	app       *app.App
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(a *app.App, logger *zap.Logger) *Manager {
	return &Manager{
		app:       a,
		scheduler: NewScheduler(logger),
		logger:    logger,
	}
}

// RegisterTasks 注册所有任务
func (m *Manager) RegisterTasks() error {
	for _, factory := range GetFactories() {
		t, err := factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			return err
		}
		if t == nil {
			continue
		}
		m.scheduler.AddTask(t)
	}
	return nil
}

// Run 启动所有已注册的任务并阻塞到 ctx 取消
func (m *Manager) Run(ctx context.Context) {
	m.scheduler.Start(ctx)
	<-ctx.Done()
	m.scheduler.Wait()
}
