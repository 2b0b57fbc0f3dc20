package config

import (
	"os"
	"time"
)

// CatalogCacheConfig defines settings for the active-course catalog
// snapshot cache.  When Enabled is false or no Redis client is
// configured, every catalog read goes to the database.  TTL is the
// staleness backstop: explicit invalidation on writes is the primary
// consistency mechanism, expiry only bounds the damage of a missed
// invalidation.  Key is the single cache key; the design deliberately
// has no per-course or per-filter keys so invalidation stays exact.
type CatalogCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Key     string
}

// LoadCatalogCacheConfig reads environment variables to build a
// CatalogCacheConfig.  Defaults are used when variables are not set.
func LoadCatalogCacheConfig() CatalogCacheConfig {
	return CatalogCacheConfig{
		Enabled: getenv("CATALOG_CACHE_ENABLED", "true") == "true",
		TTL:     parseDur(getenv("CATALOG_CACHE_TTL", "60s")),
		Key:     getenv("CATALOG_CACHE_KEY", "courses:active"),
	}
}

// Helper functions shared with ratelimit.go
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
