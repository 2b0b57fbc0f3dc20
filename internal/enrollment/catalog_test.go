package enrollment

import (
	"context"
	"testing"

	"github.com/iliyamo/course-enrollment/internal/repository"
)

func TestGetActiveCoursesPopulatesAndServesCache(t *testing.T) {
	store := newMemStore(
		testCourse(t, 1, "MAT101", 30, "08:00", "10:00"),
		testCourse(t, 2, "PROG201", 30, "10:00", "12:00"),
	)
	eng, cache := newTestEngine(store)
	ctx := context.Background()

	first, err := eng.GetActiveCourses(ctx, repository.EmptyCourseFilter())
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if len(first) != 2 || first[0].Code != "MAT101" || first[1].Code != "PROG201" {
		t.Fatalf("unexpected catalog: %+v", first)
	}
	if cache.sets != 1 {
		t.Fatalf("miss must populate the cache, sets=%d", cache.sets)
	}

	// Second read is a hit and never touches the repository.
	if _, err := eng.GetActiveCourses(ctx, repository.EmptyCourseFilter()); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if store.listCalls != 1 {
		t.Fatalf("cache hit must not query the store, listCalls=%d", store.listCalls)
	}
}

func TestGetActiveCoursesFilteredBypassesCache(t *testing.T) {
	store := newMemStore(
		testCourse(t, 1, "MAT101", 30, "08:00", "10:00"),
		testCourse(t, 2, "PROG201", 30, "10:00", "12:00"),
	)
	eng, cache := newTestEngine(store)
	ctx := context.Background()

	f := repository.EmptyCourseFilter()
	f.Search = "MAT"
	got, err := eng.GetActiveCourses(ctx, f)
	if err != nil {
		t.Fatalf("filtered read: %v", err)
	}
	if len(got) != 1 || got[0].Code != "MAT101" {
		t.Fatalf("unexpected filtered catalog: %+v", got)
	}
	if cache.gets != 0 || cache.sets != 0 {
		t.Fatalf("filtered reads must bypass the cache, gets=%d sets=%d", cache.gets, cache.sets)
	}
}

func TestGetActiveCoursesFreshAfterEnrollment(t *testing.T) {
	store := newMemStore(testCourse(t, 1, "MAT101", 30, "08:00", "10:00"))
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	before, err := eng.GetActiveCourses(ctx, repository.EmptyCourseFilter())
	if err != nil {
		t.Fatalf("read before enrollment: %v", err)
	}
	if before[0].ActiveEnrollments != 0 || before[0].AvailableSeats != 30 {
		t.Fatalf("unexpected occupancy before enrollment: %+v", before[0])
	}

	if _, err := eng.RequestEnrollment(ctx, 1, 7); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	after, err := eng.GetActiveCourses(ctx, repository.EmptyCourseFilter())
	if err != nil {
		t.Fatalf("read after enrollment: %v", err)
	}
	if after[0].ActiveEnrollments != 1 || after[0].AvailableSeats != 29 {
		t.Fatalf("stale catalog after enrollment: %+v", after[0])
	}
}
