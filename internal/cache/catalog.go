// Package cache implements the catalog snapshot cache: a single Redis
// key holding the serialized list of active courses with derived
// occupancy. The cache is an optimization, never a source of truth:
// every failure path degrades to the database and is logged, not
// surfaced. The only write mode is remove-then-lazy-repopulate; the
// value is never patched in place.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/course-enrollment/internal/config"
	"github.com/iliyamo/course-enrollment/internal/model"
)

// Catalog is the process-wide cache client for the active-course
// snapshot. It is created at startup and passed into the enrollment
// engine; there are no implicit singletons. A Catalog constructed over
// a nil Redis client is valid and behaves as an always-miss cache.
type Catalog struct {
	rdb *redis.Client
	ttl time.Duration
	key string
}

// NewCatalog builds a Catalog from the given client and configuration.
// When the cache is disabled by configuration the client is discarded
// so all operations become no-ops.
func NewCatalog(rdb *redis.Client, cfg config.CatalogCacheConfig) *Catalog {
	if !cfg.Enabled {
		rdb = nil
	}
	return &Catalog{rdb: rdb, ttl: cfg.TTL, key: cfg.Key}
}

// Get returns the cached snapshot and true on a hit. Misses, transport
// errors and undecodable payloads all report a miss; errors other than
// a plain miss are logged.
func (c *Catalog) Get(ctx context.Context) ([]model.CourseSnapshot, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	bs, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("catalog-cache: get failed: %v", err)
		}
		return nil, false
	}
	var snaps []model.CourseSnapshot
	if err := json.Unmarshal(bs, &snaps); err != nil {
		log.Printf("catalog-cache: decode failed: %v", err)
		return nil, false
	}
	return snaps, true
}

// Set stores the snapshot with the configured TTL. Failures are logged
// and swallowed; a failed cache write must never fail the read that
// produced the snapshot. Concurrent Set races are acceptable (last
// writer wins) since the value is a pure re-derivable snapshot.
func (c *Catalog) Set(ctx context.Context, snaps []model.CourseSnapshot) {
	if c == nil || c.rdb == nil {
		return
	}
	bs, err := json.Marshal(snaps)
	if err != nil {
		log.Printf("catalog-cache: encode failed: %v", err)
		return
	}
	if err := c.rdb.SetEx(ctx, c.key, bs, c.ttl).Err(); err != nil {
		log.Printf("catalog-cache: set failed: %v", err)
	}
}

// Remove invalidates the snapshot. Removing an absent key is a no-op,
// so concurrent invalidations are idempotent. Failures are logged and
// swallowed; callers must have committed the motivating repository
// write before invoking Remove.
func (c *Catalog) Remove(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		log.Printf("catalog-cache: invalidate failed: %v", err)
	}
}
