package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"siacom-console/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the console until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info("Starting siacom-console")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		backends, err := service.OpenBackends(ctx, cfg, log)
		if err != nil {
			return err
		}
		svc := service.NewConsoleService(cfg, backends, log)

		// 监听系统信号
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			if err := svc.Start(ctx); err != nil {
				errChan <- err
			}
		}()

		select {
		case sig := <-sigChan:
			log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case err := <-errChan:
			log.Error("Service error", zap.Error(err))
			cancel()
		}

		if err := svc.Stop(ctx); err != nil {
			log.Error("Error stopping service", zap.Error(err))
		}

		log.Info("Console stopped")
		return nil
	},
}
