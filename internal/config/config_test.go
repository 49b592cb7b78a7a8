package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty allows all", raw: "", want: nil},
		{name: "single", raw: "https://a.example", want: []string{"https://a.example"}},
		{name: "trims and drops blanks", raw: " https://a.example , ,https://b.example ", want: []string{"https://a.example", "https://b.example"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseOrigins(tc.raw))
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	t.Setenv("APPLY_RATE_LIMIT", "not-a-number")
	t.Setenv("ADMIN_IDENTITY", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	t.Setenv("SELECTION_CRON", "@every 1h")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.ApplyRateLimit, "unparseable ints fall back to the default")
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", cfg.AdminIdentity)
	assert.Equal(t, "@every 1h", cfg.SelectionCron)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "ratelimit:apply:0xabc:42", CacheKey.RateLimitKey("apply", "0xabc", 42))
}
