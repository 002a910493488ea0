package task

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/vault-link-index/pkg/logger"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	Schedule() cron.Schedule       // 执行计划，nil 表示不循环执行
	IsStartupRun() bool            // 是否立即执行一次
}

// scheduleParser accepts five field cron expressions and descriptors such as "@every 15m".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule 解析 cron 表达式，空字符串返回 nil
func ParseSchedule(expr string) (cron.Schedule, error) {
	if expr == "" {
		return nil, nil
	}
	s, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "parse schedule %q", expr)
	}
	return s, nil
}

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		now:    time.Now,
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start 启动所有任务，ctx 取消时停止
func (s *Scheduler) Start(ctx context.Context) {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting ", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.startTask(ctx, task)
	}
}

// Wait 等待所有任务循环退出
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// startTask 启动单个任务
// Runs of one task never overlap: the next fire time is computed after the previous run returns.
func (s *Scheduler) startTask(ctx context.Context, task Task) {
	defer s.wg.Done()

	// 如果任务需要立即执行
	if task.IsStartupRun() {
		s.runOnce(ctx, task, "startupRun")
	}

	schedule := task.Schedule()
	if schedule == nil {
		return
	}

	// 定时执行
	for {
		now := s.now()
		next := schedule.Next(now)
		if next.IsZero() {
			return
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			s.runOnce(ctx, task, "loopRun")
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("task stopped", zap.String(logger.FieldTask, task.Name()))
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task, mode string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String(logger.FieldTask, task.Name()),
				zap.String("mode", mode),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("task running", zap.String(logger.FieldTask, task.Name()), zap.String("mode", mode))
	if err := task.Run(ctx); err != nil {
		s.logger.Error("task running error",
			zap.String(logger.FieldTask, task.Name()),
			zap.String("mode", mode),
			zap.Error(err))
	}
}
