package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/faiyaz032/gobox/internal/app"
	"github.com/faiyaz032/gobox/internal/config"
	"github.com/faiyaz032/gobox/internal/emulator"
	"github.com/faiyaz032/gobox/internal/metrics"
	"github.com/faiyaz032/gobox/internal/session"
	"github.com/faiyaz032/gobox/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var errConnectionFailed = errors.New("connection to the gobox backend failed, see the log for details")

func runSession(ctx context.Context, cfg *config.Config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	var m *metrics.Metrics
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, log); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	sc := session.Config{
		Endpoint: cfg.Connect.Endpoint,
		Identity: newIdentity(cfg, log),
		OpenTransport: session.DialTransport(
			transport.WithLogger(log),
			transport.WithMetrics(m),
			transport.WithKeepalive(cfg.Connect.PingInterval, cfg.Connect.PongTimeout),
			transport.WithWriteTimeout(cfg.Connect.WriteTimeout),
			transport.WithHandshakeTimeout(cfg.Connect.HandshakeTimeout),
		),
		Logger:  log,
		Metrics: m,
	}

	log.Info("gobox starting",
		zap.String("version", version),
		zap.String("endpoint", cfg.Connect.Endpoint),
		zap.Bool("raw", cfg.Terminal.Raw),
	)
	if cfg.Terminal.Raw {
		return runRaw(ctx, sc, log)
	}
	return runTUI(ctx, sc, cfg, log, m)
}

func runTUI(ctx context.Context, sc session.Config, cfg *config.Config, log *zap.Logger, m *metrics.Metrics) error {
	viewport := emulator.NewViewport()
	term := app.NewTerminal(viewport, emulator.VTOptions{
		ConvertEOL: cfg.Terminal.ConvertEOL,
		Initial:    emulator.DefaultVTOptions().Initial,
		Logger:     log,
		Metrics:    m,
	})
	sc.OpenEmulator = term.Open
	sc.Viewport = viewport

	ctrl := session.New(sc)
	defer ctrl.Deactivate()

	model := app.New(app.Config{
		Controller: ctrl,
		Screen:     term,
		Viewport:   viewport,
		Endpoint:   sc.Endpoint,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// runRaw streams the session through the host terminal until the
// connection ends or ctx is cancelled.
func runRaw(ctx context.Context, sc session.Config, log *zap.Logger) error {
	watcher := emulator.WatchResize()
	defer watcher.Stop()

	sc.OpenEmulator = func() (session.Emulator, error) {
		h, err := emulator.OpenHost(os.Stdin, os.Stdout, emulator.HostOptions{Raw: true, Logger: log})
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	sc.Viewport = watcher

	ctrl := session.New(sc)
	done := make(chan transport.Status, 1)
	var once sync.Once
	unsub := ctrl.OnStatusChange(func(s transport.Status) {
		if s.Terminal() {
			once.Do(func() { done <- s })
		}
	})
	defer unsub()

	if err := ctrl.Activate(ctx); err != nil {
		return err
	}
	defer ctrl.Deactivate()

	select {
	case <-ctx.Done():
		return nil
	case s := <-done:
		if s == transport.StatusError {
			return errConnectionFailed
		}
		return nil
	}
}
