package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYSCAN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYSCAN_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "POLYSCAN_POLYMARKET_CLOB_HOST")
	setDuration(&cfg.Polymarket.RequestTimeout, "POLYSCAN_POLYMARKET_REQUEST_TIMEOUT")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "POLYSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POLYSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POLYSCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POLYSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POLYSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POLYSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POLYSCAN_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "POLYSCAN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "POLYSCAN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "POLYSCAN_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "POLYSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYSCAN_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "POLYSCAN_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "POLYSCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYSCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYSCAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYSCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYSCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "POLYSCAN_S3_FORCE_PATH_STYLE")

	// ── Scan ──
	setFloat64(&cfg.Scan.FeeRate, "POLYSCAN_SCAN_FEE_RATE")
	setFloat64(&cfg.Scan.ExtractionRate, "POLYSCAN_SCAN_EXTRACTION_RATE")
	setFloat64(&cfg.Scan.AlphaExtraction, "POLYSCAN_SCAN_ALPHA_EXTRACTION")
	setFloat64(&cfg.Scan.MinMispricing, "POLYSCAN_SCAN_MIN_MISPRICING")
	setFloat64(&cfg.Scan.MinLiquidity, "POLYSCAN_SCAN_MIN_LIQUIDITY")
	setInt(&cfg.Scan.MaxEvents, "POLYSCAN_SCAN_MAX_EVENTS")
	setDuration(&cfg.Scan.LookupTimeout, "POLYSCAN_SCAN_LOOKUP_TIMEOUT")
	setDuration(&cfg.Scan.LookupDelay, "POLYSCAN_SCAN_LOOKUP_DELAY")
	setDuration(&cfg.Scan.WaitTimeout, "POLYSCAN_SCAN_WAIT_TIMEOUT")
	setDuration(&cfg.Scan.Interval, "POLYSCAN_SCAN_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLYSCAN_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "POLYSCAN_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYSCAN_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIToken, "POLYSCAN_SERVER_API_TOKEN")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYSCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYSCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYSCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYSCAN_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYSCAN_MODE")
	setStr(&cfg.LogLevel, "POLYSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
