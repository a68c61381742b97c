// Package config defines the top-level configuration for the scanner
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by POLYSCAN_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Scan       ScanConfig       `toml:"scan"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the exchange API endpoints.
type PolymarketConfig struct {
	GammaHost      string   `toml:"gamma_host"`
	ClobHost       string   `toml:"clob_host"`
	RequestTimeout duration `toml:"request_timeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for scan-result
// archiving.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ScanConfig holds the detector tunables. It mirrors domain.ScanConfig with
// TOML-friendly field types.
type ScanConfig struct {
	FeeRate         float64  `toml:"fee_rate"`
	ExtractionRate  float64  `toml:"extraction_rate"`
	AlphaExtraction float64  `toml:"alpha_extraction"`
	MinMispricing   float64  `toml:"min_mispricing"`
	MinLiquidity    float64  `toml:"min_liquidity"`
	MaxEvents       int      `toml:"max_events"`
	LookupTimeout   duration `toml:"lookup_timeout"`
	LookupDelay     duration `toml:"lookup_delay"`
	WaitTimeout     duration `toml:"wait_timeout"`
	// Interval is the pause between full scan cycles in watch mode. It is
	// not part of the runtime-tunable detector config.
	Interval duration `toml:"interval"`
}

// Domain converts the TOML-shaped scan section into the domain type.
func (c ScanConfig) Domain() domain.ScanConfig {
	return domain.ScanConfig{
		FeeRate:         c.FeeRate,
		ExtractionRate:  c.ExtractionRate,
		AlphaExtraction: c.AlphaExtraction,
		MinMispricing:   c.MinMispricing,
		MinLiquidity:    c.MinLiquidity,
		MaxEvents:       c.MaxEvents,
		LookupTimeout:   c.LookupTimeout.Duration,
		LookupDelay:     c.LookupDelay.Duration,
		WaitTimeout:     c.WaitTimeout.Duration,
	}
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIToken    string   `toml:"api_token"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "200ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	scan := domain.DefaultScanConfig()
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:      "https://gamma-api.polymarket.com",
			ClobHost:       "https://clob.polymarket.com",
			RequestTimeout: duration{10 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "polyscan",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "polyscan-results",
			ForcePathStyle: true,
		},
		Scan: ScanConfig{
			FeeRate:         scan.FeeRate,
			ExtractionRate:  scan.ExtractionRate,
			AlphaExtraction: scan.AlphaExtraction,
			MinMispricing:   scan.MinMispricing,
			MinLiquidity:    scan.MinLiquidity,
			MaxEvents:       scan.MaxEvents,
			LookupTimeout:   duration{scan.LookupTimeout},
			LookupDelay:     duration{scan.LookupDelay},
			WaitTimeout:     duration{scan.WaitTimeout},
			Interval:        duration{5 * time.Minute},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"scan_complete", "opportunity_found", "error"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true, // serve the API and scan on demand
	"scan":   true, // run one cycle of each detector and exit
	"watch":  true, // scan on a fixed interval without the API
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, scan, watch)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.RequestTimeout.Duration <= 0 {
		errs = append(errs, "polymarket: request_timeout must be > 0")
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	if err := c.Scan.Domain().Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("scan: %v", err))
	}
	if c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be > 0")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
