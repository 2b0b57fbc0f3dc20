// Package enrollment implements the capacity and consistency engine:
// admission decisions, enrollment state transitions and the cache-aside
// read path for the active-course catalog. It is the only component
// permitted to read-then-write enrollment state for admission purposes.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
	"github.com/iliyamo/course-enrollment/internal/schedule"
)

// CourseStore is the slice of course persistence the engine needs.
// *repository.CourseRepo satisfies it.
type CourseStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Course, error)
	ListActive(ctx context.Context, f repository.CourseFilter) ([]model.CourseSnapshot, error)
}

// EnrollmentStore is the slice of enrollment persistence the engine
// needs. *repository.EnrollmentRepo satisfies it.
type EnrollmentStore interface {
	CountActive(ctx context.Context, courseID uint64) (int, error)
	HasActive(ctx context.Context, courseID, userID uint64) (bool, error)
	InsertPending(ctx context.Context, courseID, userID uint64) (uint64, error)
	InsertIfCapacityAvailable(ctx context.Context, courseID, userID uint64) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*model.Enrollment, error)
	UpdateState(ctx context.Context, id uint64, state model.EnrollmentStatus) error
	ListActiveCoursesByUser(ctx context.Context, userID uint64) ([]model.Course, error)
}

// CatalogCache is the catalog snapshot cache contract. Implementations
// must degrade to miss/no-op on failure and never return errors;
// *cache.Catalog satisfies it.
type CatalogCache interface {
	Get(ctx context.Context) ([]model.CourseSnapshot, bool)
	Set(ctx context.Context, snaps []model.CourseSnapshot)
	Remove(ctx context.Context)
}

// Engine orchestrates admission decisions, overlap checks, state
// transitions and catalog reads. It is constructed once at startup
// with its stores, cache client and admission strategy, and is safe
// for concurrent use.
type Engine struct {
	courses     CourseStore
	enrollments EnrollmentStore
	cache       CatalogCache
	admit       AdmissionStrategy
	now         func() time.Time
}

// New constructs an Engine. All dependencies must be non-nil.
func New(courses CourseStore, enrollments EnrollmentStore, cache CatalogCache, admit AdmissionStrategy) *Engine {
	if courses == nil || enrollments == nil || cache == nil || admit == nil {
		panic("nil dependency passed to enrollment.New")
	}
	return &Engine{
		courses:     courses,
		enrollments: enrollments,
		cache:       cache,
		admit:       admit,
		now:         time.Now,
	}
}

// RequestEnrollment decides whether userID may enroll in courseID and,
// on success, inserts a Pending enrollment and invalidates the catalog
// cache. Preconditions are checked in a fixed order so each failure
// mode is deterministic:
//
//  1. course exists and is active        → ErrCourseUnavailable
//  2. no active enrollment for course    → ErrAlreadyEnrolled
//  3. fresh occupancy below capacity     → ErrCapacityExceeded
//  4. no overlap with user's enrollments → *ScheduleConflictError
//
// The capacity check in step 3 reads the authoritative store, never the
// cache, and is only a fast-fail: the admission strategy re-verifies it
// atomically with the insert, so concurrent requests can never jointly
// exceed capacity.
func (e *Engine) RequestEnrollment(ctx context.Context, courseID, userID uint64) (*model.Enrollment, error) {
	course, err := e.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseUnavailable
		}
		return nil, err
	}
	if !course.Active {
		return nil, ErrCourseUnavailable
	}

	already, err := e.enrollments.HasActive(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyEnrolled
	}

	occupied, err := e.enrollments.CountActive(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if occupied >= course.Capacity {
		return nil, ErrCapacityExceeded
	}

	enrolled, err := e.enrollments.ListActiveCoursesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, other := range enrolled {
		if schedule.CoursesOverlap(*course, other) {
			return nil, &ScheduleConflictError{Conflicting: other}
		}
	}

	id, err := e.admit.Admit(ctx, course, userID)
	if err != nil {
		return nil, err
	}

	// Invalidate only after the insert committed so a racing
	// repopulation cannot cache pre-insert occupancy forever.
	e.cache.Remove(ctx)

	return &model.Enrollment{
		ID:           id,
		CourseID:     courseID,
		UserID:       userID,
		Status:       model.StatusPending,
		RegisteredAt: e.now().UTC(),
	}, nil
}

// TransitionResult reports the outcome of a state transition request.
// Applied is false when the state machine rejected the move; Warning
// then holds a human-readable explanation and the call is still a
// success (invalid transitions are soft, not errors).
type TransitionResult struct {
	Applied    bool
	Warning    string
	Enrollment *model.Enrollment
}

// Transition moves an enrollment to the target state. Valid moves are
// Pending→Confirmed, Pending→Cancelled and Confirmed→Cancelled;
// Cancelled is terminal. Any other request is a no-op reported via
// TransitionResult.Warning. An applied transition changes the affected
// course's occupancy, so it invalidates the catalog cache.
func (e *Engine) Transition(ctx context.Context, enrollmentID uint64, target model.EnrollmentStatus) (TransitionResult, error) {
	enr, err := e.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return TransitionResult{}, ErrNotFound
		}
		return TransitionResult{}, err
	}

	if enr.Status == target {
		return TransitionResult{
			Warning:    fmt.Sprintf("enrollment is already %s", strings.ToLower(string(target))),
			Enrollment: enr,
		}, nil
	}
	if !enr.Status.CanTransitionTo(target) {
		return TransitionResult{
			Warning: fmt.Sprintf("cannot move a %s enrollment to %s",
				strings.ToLower(string(enr.Status)), strings.ToLower(string(target))),
			Enrollment: enr,
		}, nil
	}

	if err := e.enrollments.UpdateState(ctx, enrollmentID, target); err != nil {
		return TransitionResult{}, err
	}
	enr.Status = target
	e.cache.Remove(ctx)
	return TransitionResult{Applied: true, Enrollment: enr}, nil
}

// InvalidateCatalogCache removes the active-course snapshot. Course
// administration calls this after every successful mutation.
func (e *Engine) InvalidateCatalogCache(ctx context.Context) {
	e.cache.Remove(ctx)
}
