package cache

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/course-enrollment/internal/config"
	"github.com/iliyamo/course-enrollment/internal/model"
)

// Without a reachable Redis the catalog must behave as an always-miss,
// never-erroring cache so user-facing reads and writes keep working.
func TestCatalogDegradesWithoutRedis(t *testing.T) {
	c := NewCatalog(nil, config.CatalogCacheConfig{Enabled: true, TTL: time.Minute, Key: "courses:active"})
	ctx := context.Background()

	if _, ok := c.Get(ctx); ok {
		t.Fatal("expected miss from nil-client cache")
	}
	// Set and Remove must be safe no-ops.
	c.Set(ctx, []model.CourseSnapshot{{Code: "MAT101"}})
	c.Remove(ctx)
	c.Remove(ctx) // idempotent
	if _, ok := c.Get(ctx); ok {
		t.Fatal("nil-client cache must never hit")
	}
}

func TestCatalogDisabledDiscardsClient(t *testing.T) {
	c := NewCatalog(nil, config.CatalogCacheConfig{Enabled: false, TTL: time.Minute, Key: "courses:active"})
	if _, ok := c.Get(context.Background()); ok {
		t.Fatal("disabled cache must miss")
	}
}
