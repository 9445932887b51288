package dev

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/homestage-ai/staging-client/internal/config"
	"github.com/homestage-ai/staging-client/internal/devserver"
	"github.com/homestage-ai/staging-client/internal/utils/pathutil"
	"github.com/homestage-ai/staging-client/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var Cmd = &cobra.Command{
	Use:   "dev",
	Short: "Run a local stub of the staging API",
	Long:  "Serve the staging wire contract locally, with fake results, for offline development and demos",
	RunE:  runDev,
}

func init() {
	flags := Cmd.Flags()

	flags.Int("port", config.DefaultDevServerPort, "Port to run the dev server on")
	flags.String("host", "localhost", "Host to run the dev server on")

	viper.BindPFlag("dev_server.port", flags.Lookup("port"))
	viper.BindPFlag("dev_server.host", flags.Lookup("host"))
}

func runDev(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()

	log, err := logger.InitLogger(cfg.Environment)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.DevServer.AssetsDir != "" {
		assetsDir, err := pathutil.EnsureDir(cfg.DevServer.AssetsDir)
		if err != nil {
			return err
		}
		cfg.DevServer.AssetsDir = assetsDir
	}

	server, err := devserver.NewServer(cfg.DevServer, cfg.Environment, log)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutting down dev server", zap.String("signal", sig.String()))
		return server.Stop(context.Background())
	}
}
