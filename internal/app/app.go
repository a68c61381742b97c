// Package app owns the application lifecycle: it wires dependencies from the
// configuration, selects the operating mode, and tears everything down in
// reverse order on shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/polyscan/internal/config"
)

// App is the root application object.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies and blocks in the configured mode until the context
// is cancelled or the mode finishes.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch strings.ToLower(a.cfg.Mode) {
	case "server":
		return a.ServerMode(ctx, deps)
	case "scan":
		return a.ScanMode(ctx, deps)
	case "watch":
		return a.WatchMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// Close tears down all resources in reverse registration order. Safe to call
// more than once.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
