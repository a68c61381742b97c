package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/polyscan/internal/blob/s3"
	"github.com/alanyoungcy/polyscan/internal/cache/redis"
	"github.com/alanyoungcy/polyscan/internal/config"
	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/notify"
	"github.com/alanyoungcy/polyscan/internal/platform/polymarket"
	"github.com/alanyoungcy/polyscan/internal/scanner"
	"github.com/alanyoungcy/polyscan/internal/service"
	"github.com/alanyoungcy/polyscan/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is built by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Feed   domain.MarketFeed
	Prices domain.PriceSource

	Locks domain.LockManager
	Cache domain.ResultCache
	Bus   domain.SignalBus

	ScanStore domain.ScanStore
	OppStore  domain.OpportunityStore
	Archiver  domain.ResultArchiver

	Alerts *notify.Dispatcher

	Scanner *scanner.Scanner
	Service *service.ScanService

	// Redis and Postgres stay exposed for health probes.
	Redis    *redis.Client
	Postgres *postgres.Client
}

// needsPostgres reports whether the mode persists history. The one-shot scan
// mode keeps its output on stdout and in the cache only.
func needsPostgres(mode string) bool {
	return mode == "server" || mode == "watch"
}

// Wire builds every concrete dependency from the configuration. The returned
// cleanup closes resources in reverse construction order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// Redis carries the result cache, the scan locks, and the event bus, so
	// every mode needs it.
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.Redis = redisClient
	deps.Locks = redis.NewLockManager(redisClient)
	deps.Cache = redis.NewResultCache(redisClient)
	deps.Bus = redis.NewSignalBus(redisClient)

	if needsPostgres(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)
		deps.Postgres = pgClient

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.ScanStore = postgres.NewScanStore(pool)
		deps.OppStore = postgres.NewOpportunityStore(pool)
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3Client)
	}

	deps.Alerts = buildAlerts(cfg, logger)

	deps.Feed = polymarket.NewFeed(cfg.Polymarket.GammaHost, cfg.Polymarket.RequestTimeout.Duration, logger)
	deps.Prices = polymarket.NewPriceClient(cfg.Polymarket.ClobHost, cfg.Polymarket.RequestTimeout.Duration)

	deps.Scanner = scanner.New(deps.Feed, deps.Prices, deps.Locks, deps.Cache, logger)
	if _, err := deps.Scanner.SetConfig(configPatch(cfg.Scan.Domain())); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: scan config: %w", err)
	}

	deps.Service = service.New(deps.Scanner, service.Deps{
		Scans:    deps.ScanStore,
		Opps:     deps.OppStore,
		Bus:      deps.Bus,
		Alerts:   deps.Alerts,
		Archiver: deps.Archiver,
	}, logger)

	return deps, cleanup, nil
}

// buildAlerts assembles the notification dispatcher from whichever channels
// have credentials configured. No channels means a dispatcher that drops
// everything silently.
func buildAlerts(cfg *config.Config, logger *slog.Logger) *notify.Dispatcher {
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	return notify.NewDispatcher(senders, cfg.Notify.Events, logger)
}

// configPatch lifts a full ScanConfig into a patch so the scanner applies it
// through its usual validate-then-swap path.
func configPatch(c domain.ScanConfig) domain.ScanConfigPatch {
	lookupTimeout := c.LookupTimeout.Milliseconds()
	lookupDelay := c.LookupDelay.Milliseconds()
	waitTimeout := c.WaitTimeout.Milliseconds()
	return domain.ScanConfigPatch{
		FeeRate:         &c.FeeRate,
		ExtractionRate:  &c.ExtractionRate,
		AlphaExtraction: &c.AlphaExtraction,
		MinMispricing:   &c.MinMispricing,
		MinLiquidity:    &c.MinLiquidity,
		MaxEvents:       &c.MaxEvents,
		LookupTimeoutMs: &lookupTimeout,
		LookupDelayMs:   &lookupDelay,
		WaitTimeoutMs:   &waitTimeout,
	}
}
