package enrollment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// memStore is an in-memory implementation of CourseStore and
// EnrollmentStore. All methods are safe for concurrent use so the
// admission race tests can hammer it from many goroutines.
type memStore struct {
	mu          sync.Mutex
	courses     map[uint64]model.Course
	enrollments []model.Enrollment
	nextID      uint64
	listCalls   int
}

func newMemStore(courses ...model.Course) *memStore {
	s := &memStore{courses: make(map[uint64]model.Course)}
	for _, c := range courses {
		s.courses[c.ID] = c
	}
	return s
}

func (s *memStore) GetByID(_ context.Context, id uint64) (*model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, repository.ErrCourseNotFound
	}
	return &c, nil
}

func (s *memStore) ListActive(_ context.Context, f repository.CourseFilter) ([]model.CourseSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	out := make([]model.CourseSnapshot, 0)
	for _, c := range s.courses {
		if !c.Active {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name+c.Code), strings.ToLower(f.Search)) {
			continue
		}
		if f.CreditsMin > 0 && c.Credits < f.CreditsMin {
			continue
		}
		if f.CreditsMax > 0 && c.Credits > f.CreditsMax {
			continue
		}
		out = append(out, model.SnapshotFromCourse(c, s.countActiveLocked(c.ID)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *memStore) countActiveLocked(courseID uint64) int {
	n := 0
	for _, e := range s.enrollments {
		if e.CourseID == courseID && e.Status.OccupiesSeat() {
			n++
		}
	}
	return n
}

func (s *memStore) CountActive(_ context.Context, courseID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countActiveLocked(courseID), nil
}

func (s *memStore) HasActive(_ context.Context, courseID, userID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrollments {
		if e.CourseID == courseID && e.UserID == userID && e.Status != model.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) InsertPending(_ context.Context, courseID, userID uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.enrollments = append(s.enrollments, model.Enrollment{
		ID: s.nextID, CourseID: courseID, UserID: userID, Status: model.StatusPending,
	})
	return s.nextID, nil
}

func (s *memStore) InsertIfCapacityAvailable(_ context.Context, courseID, userID uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseID]
	if !ok || !c.Active {
		return 0, repository.ErrCourseNotFound
	}
	if s.countActiveLocked(courseID) >= c.Capacity {
		return 0, repository.ErrCapacityExceeded
	}
	s.nextID++
	s.enrollments = append(s.enrollments, model.Enrollment{
		ID: s.nextID, CourseID: courseID, UserID: userID, Status: model.StatusPending,
	})
	return s.nextID, nil
}

func (s *memStore) GetByIDEnrollment(id uint64) (*model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrollments {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, repository.ErrEnrollmentNotFound
}

func (s *memStore) UpdateState(_ context.Context, id uint64, state model.EnrollmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.enrollments {
		if s.enrollments[i].ID == id {
			s.enrollments[i].Status = state
			return nil
		}
	}
	return repository.ErrEnrollmentNotFound
}

func (s *memStore) ListActiveCoursesByUser(_ context.Context, userID uint64) ([]model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Course, 0)
	for _, e := range s.enrollments {
		if e.UserID == userID && e.Status != model.StatusCancelled {
			if c, ok := s.courses[e.CourseID]; ok {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// memStore has two GetByID shapes (course and enrollment); the engine
// interface wants the enrollment one on EnrollmentStore, so split the
// store into two views.
type courseView struct{ *memStore }
type enrollView struct{ *memStore }

func (v enrollView) GetByID(ctx context.Context, id uint64) (*model.Enrollment, error) {
	return v.memStore.GetByIDEnrollment(id)
}

// fakeCache records cache traffic and serves a settable snapshot.
type fakeCache struct {
	mu      sync.Mutex
	snaps   []model.CourseSnapshot
	has     bool
	gets    int
	sets    int
	removes int
}

func (f *fakeCache) Get(context.Context) ([]model.CourseSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.snaps, f.has
}

func (f *fakeCache) Set(_ context.Context, snaps []model.CourseSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.snaps = snaps
	f.has = true
}

func (f *fakeCache) Remove(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	f.snaps = nil
	f.has = false
}

func clock(t *testing.T, s string) model.ClockTime {
	t.Helper()
	ct, err := model.ParseClockTime(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ct
}

func testCourse(t *testing.T, id uint64, code string, capacity int, start, end string) model.Course {
	t.Helper()
	return model.Course{
		ID: id, Code: code, Name: "Course " + code, Credits: 4, Capacity: capacity,
		StartsAt: clock(t, start), EndsAt: clock(t, end), Active: true,
	}
}

func newTestEngine(store *memStore) (*Engine, *fakeCache) {
	cache := &fakeCache{}
	eng := New(courseView{store}, enrollView{store}, cache, NewLockPerCourse(enrollView{store}))
	return eng, cache
}

func TestRequestEnrollmentSuccess(t *testing.T) {
	store := newMemStore(testCourse(t, 1, "MAT101", 30, "08:00", "10:00"))
	eng, cache := newTestEngine(store)

	enr, err := eng.RequestEnrollment(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("request enrollment: %v", err)
	}
	if enr.Status != model.StatusPending {
		t.Fatalf("expected PENDING, got %s", enr.Status)
	}
	if enr.CourseID != 1 || enr.UserID != 7 {
		t.Fatalf("unexpected enrollment %+v", enr)
	}
	if cache.removes != 1 {
		t.Fatalf("expected 1 cache invalidation, got %d", cache.removes)
	}
	if got, _ := store.CountActive(context.Background(), 1); got != 1 {
		t.Fatalf("expected occupancy 1, got %d", got)
	}
}

func TestRequestEnrollmentCourseUnavailable(t *testing.T) {
	inactive := testCourse(t, 2, "BD301", 20, "14:00", "16:00")
	inactive.Active = false
	store := newMemStore(inactive)
	eng, cache := newTestEngine(store)

	if _, err := eng.RequestEnrollment(context.Background(), 99, 7); !errors.Is(err, ErrCourseUnavailable) {
		t.Fatalf("missing course: expected ErrCourseUnavailable, got %v", err)
	}
	if _, err := eng.RequestEnrollment(context.Background(), 2, 7); !errors.Is(err, ErrCourseUnavailable) {
		t.Fatalf("inactive course: expected ErrCourseUnavailable, got %v", err)
	}
	if cache.removes != 0 {
		t.Fatal("rejected admissions must not invalidate the cache")
	}
}

func TestRequestEnrollmentAlreadyEnrolled(t *testing.T) {
	store := newMemStore(testCourse(t, 1, "MAT101", 30, "08:00", "10:00"))
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	if _, err := eng.RequestEnrollment(ctx, 1, 7); err != nil {
		t.Fatalf("first enrollment: %v", err)
	}
	if _, err := eng.RequestEnrollment(ctx, 1, 7); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
}

func TestRequestEnrollmentCapacityCheckedBeforeConflict(t *testing.T) {
	// A full course that also conflicts with the user's schedule must
	// report CapacityExceeded: precondition order is fixed.
	full := testCourse(t, 1, "MAT101", 1, "09:00", "11:00")
	other := testCourse(t, 2, "PROG201", 30, "10:00", "12:00")
	store := newMemStore(full, other)
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	if _, err := eng.RequestEnrollment(ctx, 1, 5); err != nil {
		t.Fatalf("fill course: %v", err)
	}
	if _, err := eng.RequestEnrollment(ctx, 2, 7); err != nil {
		t.Fatalf("enroll user in overlapping course: %v", err)
	}
	_, err := eng.RequestEnrollment(ctx, 1, 7)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestRequestEnrollmentScheduleConflict(t *testing.T) {
	a := testCourse(t, 1, "MAT101", 30, "09:00", "11:00")
	b := testCourse(t, 2, "PROG201", 30, "10:00", "12:00")
	c := testCourse(t, 3, "BD301", 30, "11:00", "13:00")
	store := newMemStore(a, b, c)
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	if _, err := eng.RequestEnrollment(ctx, 1, 7); err != nil {
		t.Fatalf("enroll in MAT101: %v", err)
	}

	_, err := eng.RequestEnrollment(ctx, 2, 7)
	var conflict *ScheduleConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ScheduleConflictError, got %v", err)
	}
	if conflict.Conflicting.Code != "MAT101" {
		t.Fatalf("conflict should identify MAT101, got %s", conflict.Conflicting.Code)
	}

	// Boundary touching is not an overlap: 11:00-13:00 after 09:00-11:00.
	if _, err := eng.RequestEnrollment(ctx, 3, 7); err != nil {
		t.Fatalf("boundary-touching course rejected: %v", err)
	}
}

func TestReEnrollmentAfterCancellation(t *testing.T) {
	store := newMemStore(testCourse(t, 1, "MAT101", 30, "08:00", "10:00"))
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	first, err := eng.RequestEnrollment(ctx, 1, 7)
	if err != nil {
		t.Fatalf("first enrollment: %v", err)
	}
	res, err := eng.Transition(ctx, first.ID, model.StatusCancelled)
	if err != nil || !res.Applied {
		t.Fatalf("cancel: applied=%v err=%v", res.Applied, err)
	}
	second, err := eng.RequestEnrollment(ctx, 1, 7)
	if err != nil {
		t.Fatalf("re-enroll after cancellation: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("re-enrollment must create a new row")
	}
}

func TestTransitions(t *testing.T) {
	store := newMemStore(testCourse(t, 1, "MAT101", 30, "08:00", "10:00"))
	eng, cache := newTestEngine(store)
	ctx := context.Background()

	enr, err := eng.RequestEnrollment(ctx, 1, 7)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	cacheRemoves := cache.removes

	res, err := eng.Transition(ctx, enr.ID, model.StatusConfirmed)
	if err != nil || !res.Applied {
		t.Fatalf("confirm: applied=%v err=%v", res.Applied, err)
	}
	if cache.removes != cacheRemoves+1 {
		t.Fatal("applied transition must invalidate the cache")
	}

	// Repeating the same transition is a warning, not an error, and
	// must not touch the cache.
	res, err = eng.Transition(ctx, enr.ID, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if res.Applied || res.Warning == "" {
		t.Fatalf("expected warning outcome, got %+v", res)
	}
	if cache.removes != cacheRemoves+1 {
		t.Fatal("warning outcome must not invalidate the cache")
	}

	// Confirmed can still be cancelled; Cancelled is terminal.
	res, err = eng.Transition(ctx, enr.ID, model.StatusCancelled)
	if err != nil || !res.Applied {
		t.Fatalf("cancel confirmed: applied=%v err=%v", res.Applied, err)
	}
	res, err = eng.Transition(ctx, enr.ID, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm cancelled: %v", err)
	}
	if res.Applied || res.Warning == "" {
		t.Fatalf("cancelled must be terminal, got %+v", res)
	}

	if _, err := eng.Transition(ctx, 9999, model.StatusConfirmed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// gatedEnrollStore delays the schedule lookup until every expected
// caller has reached it, forcing racing requests past the engine's
// unlocked precondition checks before either one admits.
type gatedEnrollStore struct {
	enrollView
	gate *sync.WaitGroup
}

func (s gatedEnrollStore) ListActiveCoursesByUser(ctx context.Context, userID uint64) ([]model.Course, error) {
	s.gate.Done()
	s.gate.Wait()
	return s.enrollView.ListActiveCoursesByUser(ctx, userID)
}

func TestConcurrentAdmissionsSameUser(t *testing.T) {
	// The same user races two requests for one course. Both pass the
	// engine's duplicate check before either inserts, so the strategy
	// must re-verify uniqueness under the per-course lock: exactly one
	// row may land.
	store := newMemStore(testCourse(t, 1, "MAT101", 30, "08:00", "10:00"))
	var gate sync.WaitGroup
	gate.Add(2)
	gated := gatedEnrollStore{enrollView: enrollView{store}, gate: &gate}
	eng := New(courseView{store}, gated, &fakeCache{}, NewLockPerCourse(gated))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.RequestEnrollment(ctx, 1, 7)
		}(i)
	}
	wg.Wait()

	admitted, duplicate := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrAlreadyEnrolled):
			duplicate++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if admitted != 1 || duplicate != 1 {
		t.Fatalf("expected 1 admission and 1 duplicate rejection, got %d/%d", admitted, duplicate)
	}
	rows := 0
	store.mu.Lock()
	for _, e := range store.enrollments {
		if e.CourseID == 1 && e.UserID == 7 && e.Status != model.StatusCancelled {
			rows++
		}
	}
	store.mu.Unlock()
	if rows != 1 {
		t.Fatalf("uniqueness invariant broken: %d active rows for one user and course", rows)
	}
}

func TestConcurrentAdmissionsSingleSeat(t *testing.T) {
	// Course with exactly one seat: N racing requests must produce one
	// winner and N-1 CapacityExceeded rejections.
	store := newMemStore(testCourse(t, 1, "MAT101", 1, "08:00", "10:00"))
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.RequestEnrollment(ctx, 1, uint64(100+i))
		}(i)
	}
	wg.Wait()

	admitted, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrCapacityExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if admitted != 1 || rejected != racers-1 {
		t.Fatalf("expected 1 winner and %d rejections, got %d/%d", racers-1, admitted, rejected)
	}
	if got, _ := store.CountActive(ctx, 1); got != 1 {
		t.Fatalf("capacity invariant broken: occupancy %d for capacity 1", got)
	}
}

func TestConcurrentAdmissionsCapacityInvariant(t *testing.T) {
	const capacity = 5
	store := newMemStore(testCourse(t, 1, "MAT101", capacity, "08:00", "10:00"))
	eng, _ := newTestEngine(store)
	ctx := context.Background()

	const racers = 40
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = eng.RequestEnrollment(ctx, 1, uint64(200+i))
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range results {
		if err == nil {
			admitted++
		}
	}
	occupancy, _ := store.CountActive(ctx, 1)
	if occupancy > capacity {
		t.Fatalf("capacity invariant broken: %d active enrollments for capacity %d", occupancy, capacity)
	}
	if admitted != capacity {
		t.Fatalf("expected exactly %d admissions, got %d", capacity, admitted)
	}
}

func TestConditionalInsertStrategy(t *testing.T) {
	store := newMemStore(testCourse(t, 1, "MAT101", 1, "08:00", "10:00"))
	cacheClient := &fakeCache{}
	eng := New(courseView{store}, enrollView{store}, cacheClient, ConditionalInsert{Store: enrollView{store}})
	ctx := context.Background()

	if _, err := eng.RequestEnrollment(ctx, 1, 1); err != nil {
		t.Fatalf("first admission: %v", err)
	}
	if _, err := eng.RequestEnrollment(ctx, 1, 2); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded from conditional insert, got %v", err)
	}
}
