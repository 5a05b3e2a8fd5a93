package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/faiyaz032/gobox/internal/config"
	"github.com/faiyaz032/gobox/internal/logging"
	"github.com/faiyaz032/gobox/internal/mockbox"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		port       int
		textFrames bool
		dev        bool
	)
	cmd := &cobra.Command{
		Use:   "gobox-mockbox",
		Short: "Run a mock gobox backend that echoes keystrokes",
		Long: "gobox-mockbox serves the gobox websocket protocol for local development. " +
			"Each fingerprint gets a box with an echo-only shell. Nothing is executed.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadEnvFiles(".env")
			cfg, err := config.Resolve(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Mockbox.Port = port
			}
			if textFrames {
				cfg.Mockbox.TextFrames = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logging.New(logging.Config{
				Level:       cfg.Logging.Level,
				Development: dev || cfg.Logging.Development,
				File:        logging.Stderr,
			})
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer log.Sync()

			return serve(cmd.Context(), cfg.Mockbox, log)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "config.yaml", "config file")
	f.IntVar(&port, "port", 0, "override the listen port")
	f.BoolVar(&textFrames, "text-frames", false, "send output as text frames instead of binary")
	f.BoolVar(&dev, "dev", false, "human readable logs")
	return cmd
}

func serve(ctx context.Context, cfg config.MockboxConfig, log *zap.Logger) error {
	box := mockbox.NewServer(mockbox.Options{
		Banner:     cfg.Banner,
		TextFrames: cfg.TextFrames,
		Logger:     log,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           box.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("mockbox listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
