// Package config collects runtime settings from the environment and hands
// them to constructors explicitly, so nothing else reads ambient process
// state.
package config

import (
	"os"
	"strings"
	"time"
)

// Config holds runtime settings for the Cliphub API server.
//
// Fields:
//   - Addr: bind address for the HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory stores.
//   - AccessSecret / RefreshSecret: HMAC secrets for signing JWTs (HS256).
//   - AccessTTL / RefreshTTL: token lifetimes.
//   - RedisAddr: view-dedupe cache address. Empty disables the cache.
//   - CORSOrigin: allowed browser origin for credentialed requests.
type Config struct {
	Addr          string
	DatabaseDSN   string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RedisAddr     string
	CORSOrigin    string
}

// Load builds a Config from defaults overlaid with CLIPHUB_* environment
// variables. The defaults are for development only.
func Load() Config {
	cfg := Config{
		Addr:          ":8080",
		AccessSecret:  "dev-access-secret",
		RefreshSecret: "dev-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    10 * 24 * time.Hour,
		CORSOrigin:    "http://localhost:3000",
	}
	if v := envString("CLIPHUB_ADDR"); v != "" {
		cfg.Addr = v
	}
	cfg.DatabaseDSN = envString("CLIPHUB_PG_DSN")
	if v := envString("CLIPHUB_ACCESS_SECRET"); v != "" {
		cfg.AccessSecret = v
	}
	if v := envString("CLIPHUB_REFRESH_SECRET"); v != "" {
		cfg.RefreshSecret = v
	}
	if v := envDuration("CLIPHUB_ACCESS_TTL"); v > 0 {
		cfg.AccessTTL = v
	}
	if v := envDuration("CLIPHUB_REFRESH_TTL"); v > 0 {
		cfg.RefreshTTL = v
	}
	cfg.RedisAddr = envString("CLIPHUB_REDIS_ADDR")
	if v := envString("CLIPHUB_CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}
	return cfg
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envDuration(key string) time.Duration {
	raw := envString(key)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}
