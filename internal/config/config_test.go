package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.02, cfg.Scan.FeeRate)
	assert.Equal(t, 5*time.Second, cfg.Scan.LookupTimeout.Duration)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "watch"

[scan]
fee_rate = 0.01
max_events = 25
lookup_timeout = "2s"

[server]
port = 9000
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "watch", cfg.Mode)
	assert.Equal(t, 0.01, cfg.Scan.FeeRate)
	assert.Equal(t, 25, cfg.Scan.MaxEvents)
	assert.Equal(t, 2*time.Second, cfg.Scan.LookupTimeout.Duration)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0.90, cfg.Scan.ExtractionRate)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[redis]\naddr = \"file:6379\"\n"), 0o600))

	t.Setenv("POLYSCAN_REDIS_ADDR", "env:6379")
	t.Setenv("POLYSCAN_SCAN_MIN_LIQUIDITY", "250")
	t.Setenv("POLYSCAN_SCAN_LOOKUP_DELAY", "50ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env:6379", cfg.Redis.Addr)
	assert.Equal(t, 250.0, cfg.Scan.MinLiquidity)
	assert.Equal(t, 50*time.Millisecond, cfg.Scan.LookupDelay.Duration)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.Redis.Addr = ""
	cfg.Scan.MaxEvents = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "max_events")
}

func TestScanDomainConversion(t *testing.T) {
	cfg := Defaults()
	dom := cfg.Scan.Domain()
	require.NoError(t, dom.Validate())
	assert.Equal(t, cfg.Scan.FeeRate, dom.FeeRate)
	assert.Equal(t, cfg.Scan.LookupDelay.Duration, dom.LookupDelay)
}
