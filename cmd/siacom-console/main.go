package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	logpkg "siacom-console/common/logger"
	"siacom-console/internal/api"
	"siacom-console/internal/config"
	"siacom-console/internal/service"
	"siacom-console/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "siacom-console"

var (
	jsonOutput bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "siacom-console <command>",
	Short:         "Surgery monitoring console",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log, err = logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(runCmd, sessionCmd, routeCmd, exportCmd, statsCmd, patientsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openSessions 一次性命令使用的会话存储；返回的 close 释放后端连接
func openSessions(ctx context.Context) (*session.Store, func(), error) {
	backends, err := service.OpenBackends(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	store := session.NewStore(backends.KV, backends.Broadcaster, log)
	return store, func() {
		if err := backends.Close(); err != nil {
			log.Warn("Error closing backends", zap.Error(err))
		}
	}, nil
}

func newClients(store *session.Store) *api.Clients {
	return api.NewClients(cfg.Backend.BaseURL, cfg.Backend.Timeout, store.AdminToken, store.FamilyToken, log)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
