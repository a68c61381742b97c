package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/server"
	"github.com/alanyoungcy/polyscan/internal/server/handler"
	"github.com/alanyoungcy/polyscan/internal/server/ws"
)

// allScanTypes is the cycle order used by the scan and watch modes.
var allScanTypes = []domain.ScanType{
	domain.ScanMispricing,
	domain.ScanDependency,
	domain.ScanSettlement,
}

// ServerMode runs the HTTP + WebSocket API and scans on demand.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(deps.Bus, a.logger)
	g.Go(func() error {
		err := hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	pingers := map[string]handler.Pinger{"redis": deps.Redis}
	if deps.Postgres != nil {
		pingers["postgres"] = deps.Postgres
	}

	srv := server.New(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIToken:    a.cfg.Server.APIToken,
	}, server.Handlers{
		Health: handler.NewHealthHandler(pingers, a.logger),
		Scan:   handler.NewScanHandler(deps.Service, a.logger),
		Config: handler.NewConfigHandler(deps.Service, a.logger),
	}, hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ScanMode runs one cycle of every detector and returns. Detector failures
// are logged and do not stop the remaining cycles; the mode fails only when
// every cycle failed.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	var failures int
	for _, t := range allScanTypes {
		result, err := deps.Service.Run(ctx, t)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			failures++
			a.logger.ErrorContext(ctx, "scan cycle failed",
				slog.String("scan_type", string(t)),
				slog.String("error", err.Error()),
			)
			continue
		}
		a.logger.InfoContext(ctx, "scan cycle done",
			slog.String("scan_type", string(t)),
			slog.String("scan_id", result.ID),
			slog.Int("qualifying", result.Qualifying),
		)
	}

	if failures == len(allScanTypes) {
		return errors.New("app: every scan cycle failed")
	}
	return nil
}

// WatchMode scans all detectors on a fixed interval without serving the API.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Scan.Interval.Duration
	a.logger.InfoContext(ctx, "starting watch mode",
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First cycle runs immediately; the ticker paces the rest.
	for {
		for _, t := range allScanTypes {
			result, err := deps.Service.Run(ctx, t)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				a.logger.WarnContext(ctx, "scan cycle failed",
					slog.String("scan_type", string(t)),
					slog.String("error", err.Error()),
				)
				continue
			}
			a.logger.InfoContext(ctx, "scan cycle done",
				slog.String("scan_type", string(t)),
				slog.String("scan_id", result.ID),
				slog.Int("qualifying", result.Qualifying),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
