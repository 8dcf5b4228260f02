package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"

	"github.com/ppiankov/phrasegate/internal/command"
	"github.com/ppiankov/phrasegate/internal/config"
	"github.com/ppiankov/phrasegate/internal/intercept"
	"github.com/ppiankov/phrasegate/internal/rules"
	"github.com/ppiankov/phrasegate/internal/server"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the filter gateway",
	Long:  "Serves the message filter over HTTP: POST /v1/message for filter decisions and /ignore commands, GET /metrics for Prometheus metrics.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to gateway YAML config (defaults apply if omitted)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := server.LoadGatewayConfig(serveConfigPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel, true)

	store := rules.New(logger)
	store.Load(cfg.RulesPath)

	set := metrics.NewSet()
	snapshot := config.Snapshotter(cfg.RulesPath)
	surface := command.NewSurface(store, snapshot, logger)
	handler := intercept.NewHandler(snapshot, logger, set)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher, err := server.NewWatcher(cfg.RulesPath, logger, set)
	if err != nil {
		logger.Warn("file watcher unavailable", "err", err)
	} else {
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("file watcher stopped", "err", err)
			}
		}()
	}

	srv := server.New(cfg, surface, handler, set, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	fmt.Fprintln(os.Stderr, "shut down")
	return nil
}
