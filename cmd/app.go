package cmd

import (
	"os"

	internalApp "github.com/haierkeys/vault-link-index/internal/app"
	"github.com/haierkeys/vault-link-index/pkg/fileurl"
	"github.com/haierkeys/vault-link-index/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// commonFlags are shared by every command that opens the vault.
type commonFlags struct {
	dir    string // Working directory // 工作目录
	config string // Specified configuration file path // 指定要使用的配置文件路径
	vault  string // Overrides vault.path // 覆盖 vault.path
}

func (f *commonFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&f.config, "config", "c", "", "config file")
	fs.StringVarP(&f.vault, "vault", "v", "", "vault path, overrides vault.path")
}

// resolveConfig finds the config file, writing the embedded default when none exists.
func (f *commonFlags) resolveConfig() (string, error) {
	if len(f.dir) > 0 {
		if err := os.Chdir(f.dir); err != nil {
			bootstrapLogger.Error("failed to change the current working directory", zap.Error(err))
			return "", err
		}
		bootstrapLogger.Info("working directory changed", zap.String("dir", f.dir))
	}

	if len(f.config) > 0 {
		return f.config, nil
	}
	for _, p := range []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"} {
		if fileurl.IsExist(p) {
			return p, nil
		}
	}

	bootstrapLogger.Warn("config file not found, creating default config")
	path := "config/config.yaml"
	if err := fileurl.CreatePath(path, os.ModePerm); err != nil {
		bootstrapLogger.Error("config file auto create error", zap.Error(err))
		return "", err
	}
	if err := os.WriteFile(path, []byte(configDefault), 0o644); err != nil {
		bootstrapLogger.Error("config file auto create writing error", zap.Error(err))
		return "", err
	}
	if f.vault != "" {
		cfg, _, err := f.loadConfig(path)
		if err != nil {
			bootstrapLogger.Error("config file auto create loading error", zap.Error(err))
			return "", err
		}
		if err := cfg.Save(); err != nil {
			bootstrapLogger.Error("config file auto create saving error", zap.Error(err))
			return "", err
		}
	}
	bootstrapLogger.Info("config file auto create successfully", zap.String("path", path))
	return path, nil
}

// newApp loads the config, builds the process logger and the app container.
func (f *commonFlags) newApp() (*internalApp.App, error) {
	path, err := f.resolveConfig()
	if err != nil {
		return nil, err
	}

	cfg, realpath, err := f.loadConfig(path)
	if err != nil {
		bootstrapLogger.Error("load config failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	lg, err := logger.NewLogger(cfg.GetLoggerConfig())
	if err != nil {
		bootstrapLogger.Error("init logger failed", zap.Error(err))
		return nil, err
	}
	lg.Debug("config loaded", zap.String("path", realpath))

	a, err := internalApp.NewApp(cfg, lg)
	if err != nil {
		lg.Error("init app failed", zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (f *commonFlags) loadConfig(path string) (*internalApp.AppConfig, string, error) {
	if f.vault == "" {
		return internalApp.LoadConfig(path)
	}
	// vault.path is required by validation, so the override has to land before it runs.
	return internalApp.LoadConfigWith(path, func(c *internalApp.AppConfig) {
		c.Vault.Path = f.vault
	})
}
