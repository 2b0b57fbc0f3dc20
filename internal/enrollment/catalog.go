package enrollment

import (
	"context"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// GetActiveCourses serves the course catalog. An empty filter is the
// cacheable shape: on a hit the cached snapshot is returned as-is, on a
// miss the repository derives the snapshot fresh and the result is
// stored with the configured TTL. Non-empty filters always bypass the
// cache; filtered or partial result sets are never cached, so the key
// space stays a single key and invalidation stays exact.
func (e *Engine) GetActiveCourses(ctx context.Context, f repository.CourseFilter) ([]model.CourseSnapshot, error) {
	if !f.Empty() {
		return e.courses.ListActive(ctx, f)
	}
	if snaps, ok := e.cache.Get(ctx); ok {
		return snaps, nil
	}
	snaps, err := e.courses.ListActive(ctx, f)
	if err != nil {
		return nil, err
	}
	e.cache.Set(ctx, snaps)
	return snaps, nil
}
