package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/haierkeys/vault-link-index/internal/dao"
	"github.com/haierkeys/vault-link-index/internal/service"
	"github.com/haierkeys/vault-link-index/pkg/code"
	"github.com/haierkeys/vault-link-index/pkg/logger"
	"github.com/haierkeys/vault-link-index/pkg/util"

	"go.uber.org/zap"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	Vault  *service.Vault

	// Service 层
	Resolver      *service.LinkResolver
	Scanner       *service.LinkScanner
	SyncService   service.SyncService
	MoveService   service.MoveService
	RepairService service.RepairService
	StatusService service.StatusService

	// 同一笔记库上的同步、修复与移动互斥执行
	exclusive sync.Mutex
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
func NewApp(cfg *AppConfig, lg *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if lg == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := code.SetGlobalDefaultLang(cfg.Lang); err != nil {
		lg.Warn("unsupported message language", zap.String("lang", cfg.Lang), zap.Error(err))
	}

	machine := cfg.Vault.Machine
	if machine == "" {
		machine = util.GetMachineName()
	}
	if machine == "" {
		return nil, code.ErrorInvalidMachineName.WithDetails("set vault.machine, host name and machine id are unavailable")
	}

	vault, err := service.NewVault(cfg.Vault.Path, machine)
	if err != nil {
		return nil, err
	}

	a := &App{
		config: cfg,
		logger: lg.With(zap.String(logger.FieldVault, vault.Root), zap.String(logger.FieldMachine, vault.Machine)),
		Vault:  vault,
	}

	// 每次调用都重新读取配置文件，修改存储配置无需重启
	load := a.loadStoreSettings

	a.Resolver = service.NewLinkResolver(vault)
	a.Scanner = service.NewLinkScanner(vault, a.Resolver, service.NewFileURLRewriter(vault, a.logger), cfg.Vault.MaxLineLength, a.logger)
	a.SyncService = service.NewSyncService(a.Scanner, dao.OpenStore, a.logger)
	a.MoveService = service.NewMoveService(vault, load, dao.OpenStore, a.logger)
	a.RepairService = service.NewRepairService(vault, load, dao.OpenStore, a.logger)
	a.StatusService = service.NewStatusService(load, dao.OpenStore, cfg.Status.SampleSize, a.logger)

	a.logger.Debug("app container initialized")
	return a, nil
}

// loadStoreSettings re-reads the store section of the config file, falling back to the loaded config
// when the container was built without a file.
func (a *App) loadStoreSettings() (service.StoreSettings, error) {
	if a.config.File == "" {
		return a.config.GetStoreSettings(), nil
	}
	cfg, _, err := LoadConfigWith(a.config.File, func(c *AppConfig) {
		c.Vault.Path = a.config.Vault.Path
	})
	if err != nil {
		return service.StoreSettings{}, err
	}
	return cfg.GetStoreSettings(), nil
}

// Config 获取配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Exclusive runs fn while no other sync, repair or move runs against the vault.
func (a *App) Exclusive(fn func() error) error {
	a.exclusive.Lock()
	defer a.exclusive.Unlock()
	return fn()
}

// Sync 执行一次全量同步
func (a *App) Sync(ctx context.Context) (*service.SyncResult, error) {
	var res *service.SyncResult
	err := a.Exclusive(func() error {
		var err error
		res, err = a.SyncService.Sync(ctx, a.config.GetSyncOptions())
		return err
	})
	return res, err
}

// Repair 重建机器符号链接命名空间; fromNotes 时根据笔记内容推断目标
func (a *App) Repair(ctx context.Context, fromNotes bool) (*service.RepairResult, error) {
	var res *service.RepairResult
	err := a.Exclusive(func() error {
		var err error
		if fromNotes {
			res, err = a.RepairService.RepairFromNotes(ctx)
		} else {
			res, err = a.RepairService.FixSymlinks(ctx)
		}
		return err
	})
	return res, err
}

// HandleFileMove 处理一次外部文件移动事件
func (a *App) HandleFileMove(ctx context.Context, oldPath, newPath string) (*service.MoveReport, error) {
	var res *service.MoveReport
	err := a.Exclusive(func() error {
		var err error
		res, err = a.MoveService.HandleFileMove(ctx, oldPath, newPath)
		return err
	})
	return res, err
}

// MarkReferenceDeleted 记录被引用文件的删除
func (a *App) MarkReferenceDeleted(path string) {
	a.MoveService.MarkReferenceDeleted(path)
}
