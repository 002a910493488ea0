package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/haierkeys/vault-link-index/internal/task"
	"github.com/haierkeys/vault-link-index/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func init() {
	runEnv := new(commonFlags)

	var runCommand = &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir] [-v vault]",
		Short: "Run scheduled sync and the file move watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := runEnv.newApp()
			if err != nil {
				return err
			}
			lg := a.Logger()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager := task.NewManager(a, lg)
			if err := manager.RegisterTasks(); err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				manager.Run(gctx)
				return nil
			})

			cfg := a.Config()
			if cfg.Watch.Enabled {
				w := watch.New(watch.Config{
					Paths:        cfg.Watch.Paths,
					PollInterval: cfg.GetPollInterval(),
					Ignore:       []string{a.Vault.Root},
				}, a, lg)
				g.Go(func() error {
					return w.Run(gctx)
				})
			}

			lg.Info("service started", zap.String("vault", a.Vault.Root), zap.String("machine", a.Vault.Machine))
			err = g.Wait()
			if err != nil {
				lg.Error("service stopped with error", zap.Error(err))
				return err
			}
			lg.Info("Service has been shut down gracefully.")
			return nil
		},
	}

	rootCmd.AddCommand(runCommand)
	runEnv.bind(runCommand)
}
