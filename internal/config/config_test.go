package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadMemoryDriver(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AFIP_TIMEOUT", "2s")
	t.Setenv("AFIP_BASE_URL", "http://bridge.local")

	cfg := Load()

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Empty(t, cfg.DBHost)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.Equal(t, "ARS", cfg.InvoiceCurrency)
	assert.True(t, cfg.AFIP.Enabled)
	assert.Equal(t, 2*time.Second, cfg.AFIP.Timeout)
	assert.Equal(t, "PES", cfg.AFIP.Currency)
	assert.Equal(t, 240*time.Hour, cfg.AFIP.DemoExpiry)
}

func TestLoadDisablesGatewayWithoutURL(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AFIP_BASE_URL", "")

	assert.False(t, Load().AFIP.Enabled)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "90s")

	assert.False(t, envBool("X_BOOL", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))
	assert.Equal(t, "fallback", envStr("X_MISSING", "fallback"))
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestCacheMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}
