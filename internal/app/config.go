// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/vault-link-index/internal/service"
	"github.com/haierkeys/vault-link-index/pkg/logger"
	"github.com/haierkeys/vault-link-index/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File string `yaml:"-"` // 配置文件路径，不序列化
	// Lang 错误消息语言: en, zh_cn
	Lang   string       `yaml:"lang" default:"en" validate:"oneof=en zh_cn"`
	Vault  VaultConfig  `yaml:"vault"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Sync   SyncConfig   `yaml:"sync"`
	Watch  WatchConfig  `yaml:"watch"`
	Status StatusConfig `yaml:"status"`
}

// VaultConfig 笔记库配置
type VaultConfig struct {
	// Path 笔记库根目录
	Path string `yaml:"path" validate:"required"`
	// Machine 机器名，为空时自动检测
	Machine string `yaml:"machine" validate:"omitempty,excludesall=/\\"`
	// MaxLineLength 记录中保留的原始行最大字符数
	MaxLineLength int `yaml:"max-line-length" default:"200" validate:"gt=0"`
}

// StoreConfig 链接存储配置
type StoreConfig struct {
	// URI 连接地址: sqlite://, file:, mysql://, postgres://, mongodb://
	URI string `yaml:"uri" default:"sqlite://storage/linkgraph.sqlite3" validate:"required"`
	// Collection <database>.<collection>
	Collection string `yaml:"collection" default:"vault.links" validate:"required,contains=."`
	// BatchSize 批量写入大小
	BatchSize int `yaml:"batch-size" default:"500" validate:"gt=0"`
	// ConnectTimeout 连接超时，支持格式：10s、1m
	ConnectTimeout string `yaml:"connect-timeout" default:"10s"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error dpanic panic fatal"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/vault-link-index.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production"`
}

// SyncConfig 定时同步配置
type SyncConfig struct {
	// Schedule cron 表达式或 @every 描述符，为空时不定时执行
	Schedule string `yaml:"schedule" default:"@every 15m"`
	// StartupRun 启动时是否立即执行一次
	StartupRun bool `yaml:"startup-run" default:"true"`
}

// WatchConfig 文件监听配置
type WatchConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
	// PollInterval 轮询间隔
	PollInterval string `yaml:"poll-interval" default:"2s"`
	// Paths 需要监听的外部目录，file:// 链接的目标所在位置
	Paths []string `yaml:"paths"`
}

// StatusConfig 状态汇总配置
type StatusConfig struct {
	SampleSize int `yaml:"sample-size" default:"10" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	return LoadConfigWith(f, nil)
}

// LoadConfigWith 加载配置，override 在校验前修改配置（命令行参数覆盖）
func LoadConfigWith(f string, override func(*AppConfig)) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	if override != nil {
		override(c)
	}

	if err := c.Validate(); err != nil {
		return nil, realpath, err
	}
	return c, realpath, nil
}

// Validate 校验配置字段与时长格式
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	for name, v := range map[string]string{
		"store.connect-timeout": c.Store.ConnectTimeout,
		"watch.poll-interval":   c.Watch.PollInterval,
	} {
		if v == "" {
			continue
		}
		if d, err := util.ParseDuration(v); err != nil || d <= 0 {
			return errors.Errorf("invalid config: %s %q is not a positive duration", name, v)
		}
	}
	return nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}
	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

// GetConnectTimeout 获取存储连接超时
func (c *AppConfig) GetConnectTimeout() time.Duration {
	if d, err := util.ParseDuration(c.Store.ConnectTimeout); err == nil && d > 0 {
		return d
	}
	return 10 * time.Second
}

// GetPollInterval 获取文件监听轮询间隔
func (c *AppConfig) GetPollInterval() time.Duration {
	if d, err := util.ParseDuration(c.Watch.PollInterval); err == nil && d > 0 {
		return d
	}
	return 2 * time.Second
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{Level: c.Log.Level, File: c.Log.File, Production: c.Log.Production}
}

// GetStoreSettings 获取存储连接配置
func (c *AppConfig) GetStoreSettings() service.StoreSettings {
	return service.StoreSettings{
		URI:            c.Store.URI,
		Collection:     c.Store.Collection,
		ConnectTimeout: c.GetConnectTimeout(),
	}
}

// GetSyncOptions 获取同步参数
func (c *AppConfig) GetSyncOptions() service.SyncOptions {
	return service.SyncOptions{
		URI:            c.Store.URI,
		Collection:     c.Store.Collection,
		BatchSize:      c.Store.BatchSize,
		ConnectTimeout: c.GetConnectTimeout(),
	}
}
